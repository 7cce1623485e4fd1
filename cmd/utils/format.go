package utils

import "fmt"

// FormatBytes converts bytes to a human-readable string with appropriate units.
// Uses binary units (1024-based): KB, MB, GB, TB, PB.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	units := []string{"KB", "MB", "GB", "TB", "PB"}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < len(units)-1; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}

// FormatMegabytes renders a file size the way the upload preview shows it: always
// in MB with two decimals ("1.00 MB", "0.01 MB").
func FormatMegabytes(bytes int64) string {
	return fmt.Sprintf("%.2f MB", float64(bytes)/1024/1024)
}
