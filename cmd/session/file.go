package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"ragchat-cli/cmd/utils"
)

var (
	// ErrUnsupportedFileType means the file's extension is not on the upload allow-list.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrNoFileSelected means an upload was requested before any file was chosen.
	ErrNoFileSelected = errors.New("no file selected")
)

// FileHandle is a file chosen for upload. Only Name, SizeBytes and the content
// returned by Open are sent to the backend; the rest is for display.
type FileHandle struct {
	Name        string
	SizeBytes   int64
	ContentType string
	// Path is empty for in-memory files.
	Path string
	// Pages is the PDF page count, or 0 when unknown or not a PDF.
	Pages int

	content []byte
}

// NewMemoryFile wraps in-memory content as a FileHandle. An empty contentType is
// detected from the content.
func NewMemoryFile(name string, content []byte, contentType string) FileHandle {
	if contentType == "" {
		contentType = mimetype.Detect(content).String()
	}
	return FileHandle{
		Name:        name,
		SizeBytes:   int64(len(content)),
		ContentType: contentType,
		content:     content,
	}
}

// Open returns the file's content.
func (f FileHandle) Open() (io.ReadCloser, error) {
	if f.content != nil {
		return io.NopCloser(bytes.NewReader(f.content)), nil
	}
	if f.Path == "" {
		return nil, ErrNoFileSelected
	}
	return os.Open(f.Path)
}

// Describe renders the selected-file preview, e.g. "report.pdf (1.25 MB, 12 pages)".
func (f FileHandle) Describe() string {
	if f.Pages > 0 {
		return fmt.Sprintf("%s (%s, %d pages)", f.Name, utils.FormatMegabytes(f.SizeBytes), f.Pages)
	}
	return fmt.Sprintf("%s (%s)", f.Name, utils.FormatMegabytes(f.SizeBytes))
}

// IsAllowed reports whether name's extension is in allowed. Matching is case-insensitive.
func IsAllowed(name string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext != "" && slices.Contains(allowed, ext)
}

// InspectFile stats path, checks it against the allow-list and sniffs its content type.
// PDFs additionally get their page count; a PDF that cannot be parsed is still accepted.
func InspectFile(path string, allowed []string) (FileHandle, error) {
	if strings.TrimSpace(path) == "" {
		return FileHandle{}, ErrNoFileSelected
	}
	info, err := os.Stat(path)
	if err != nil {
		return FileHandle{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if info.IsDir() {
		return FileHandle{}, fmt.Errorf("%s is a directory", path)
	}
	name := filepath.Base(path)
	if !IsAllowed(name, allowed) {
		return FileHandle{}, fmt.Errorf("%w: %s (allowed: %s)", ErrUnsupportedFileType, name, strings.Join(allowed, " "))
	}

	fh := FileHandle{
		Name:        name,
		SizeBytes:   info.Size(),
		ContentType: "application/octet-stream",
		Path:        path,
	}
	if mt, err := mimetype.DetectFile(path); err == nil {
		fh.ContentType = mt.String()
	} else {
		utils.LogDebugf("mimetype detection failed for %s: %v", path, err)
	}
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		fh.Pages = countPDFPages(path)
	}
	return fh, nil
}

func countPDFPages(path string) (pages int) {
	defer func() {
		// the pdf reader panics on some malformed inputs
		if r := recover(); r != nil {
			utils.LogDebugf("pdf page count failed for %s: %v", path, r)
			pages = 0
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		utils.LogDebugf("pdf open failed for %s: %v", path, err)
		return 0
	}
	defer f.Close()
	return r.NumPage()
}
