package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultDebugLogFile is created in the effective working directory when no path is given.
const DefaultDebugLogFile = "ragchat-debug.log"

var (
	debugOnce   sync.Once
	debugFile   *os.File
	debugLogger *log.Logger
	debugMu     sync.Mutex
	echoDebug   bool

	// Order matters: specific shapes first, generic key=value shapes last.
	redactions = []struct {
		pattern     *regexp.Regexp
		replacement string
	}{
		{regexp.MustCompile(`\beyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), "[REDACTED-JWT]"},
		{regexp.MustCompile(`\b(sk|pk|ghp|github_pat)[-_][a-zA-Z0-9\-_]{20,}`), "[REDACTED-KEY]"},
		{regexp.MustCompile(`(?i)(authorization[=:\s]+['"]?)(Basic|Bearer|Digest)\s+[a-zA-Z0-9\-_\.=]+`), "${1}${2} [REDACTED]"},
		{regexp.MustCompile(`(?i)(bearer\s+)[a-zA-Z0-9\-_\.]+`), "${1}[REDACTED]"},
		{regexp.MustCompile(`(?i)(api[_-]?key[=:\s]+['"]?)[a-zA-Z0-9\-_]{16,}`), "${1}[REDACTED]"},
		{regexp.MustCompile(`(?i)(password[=:\s]+['"]?)[^\s&'"]+`), "${1}[REDACTED]"},
		{regexp.MustCompile(`(?i)(token[=:\s]+['"]?)[a-zA-Z0-9\-_\.]{16,}`), "${1}[REDACTED]"},
		{regexp.MustCompile(`(?i)(cookie[=:\s]+['"]?)[^;\n]+`), "${1}[REDACTED]"},
	}
)

// InitDebugLogger opens the shared debug log file through Bubble Tea's LogToFile so
// that TUI sessions and plain commands write to the same place. An empty path means
// DefaultDebugLogFile in the effective cwd. When echo is true every line is also
// routed to the output manager as a debug message. Only the first call opens a file.
func InitDebugLogger(path string, echo bool) error {
	debugMu.Lock()
	echoDebug = echo
	debugMu.Unlock()

	var initErr error
	debugOnce.Do(func() {
		if path == "" {
			path = filepath.Join(GetEffectiveCWD(), DefaultDebugLogFile)
		}
		f, err := tea.LogToFile(path, "ragchat")
		if err != nil {
			initErr = fmt.Errorf("open debug log %s: %w", path, err)
			return
		}
		debugFile = f
		debugLogger = log.New(io.MultiWriter(f), "", log.LstdFlags)
		if echo {
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
			fmt.Fprintf(os.Stderr, "[DEBUG] Logging to: %s\n", path)
		}
	})
	return initErr
}

// CloseDebugLogger flushes and closes the debug log file if it was opened.
func CloseDebugLogger() {
	debugMu.Lock()
	defer debugMu.Unlock()
	if debugFile != nil {
		_ = debugFile.Sync()
		_ = debugFile.Close()
	}
}

// ResetDebugLoggerForTesting lets tests reopen the logger at a different path.
func ResetDebugLoggerForTesting() {
	CloseDebugLogger()
	debugMu.Lock()
	defer debugMu.Unlock()
	debugOnce = sync.Once{}
	debugFile = nil
	debugLogger = nil
	echoDebug = false
}

func sanitizeLogMessage(msg string) string {
	for _, r := range redactions {
		msg = r.pattern.ReplaceAllString(msg, r.replacement)
	}
	return msg
}

// LogDebug writes msg to the debug log. Nothing is written until InitDebugLogger has
// been called, so library code can log freely without creating files in tests.
func LogDebug(msg string) {
	debugMu.Lock()
	logger := debugLogger
	echo := echoDebug
	debugMu.Unlock()

	if logger == nil {
		return
	}
	sanitized := sanitizeLogMessage(msg)
	logger.Println(sanitized)
	if echo {
		sendMessage(DebugMessage, "%s", sanitized)
	}
}

// LogDebugf is LogDebug with formatting.
func LogDebugf(format string, args ...any) {
	LogDebug(fmt.Sprintf(format, args...))
}
