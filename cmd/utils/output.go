package utils

import (
	"fmt"
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// MessageType classifies user-facing output.
type MessageType int

const (
	InfoMessage MessageType = iota
	WarningMessage
	ErrorMessage
	SuccessMessage
	DebugMessage
)

// OutputMessage is one line of user-facing output.
type OutputMessage struct {
	Type    MessageType
	Content string
	Writer  io.Writer // used outside TUI mode
	NoEmoji bool
}

// TUIMessageMsg carries an OutputMessage into a running Bubble Tea program.
type TUIMessageMsg struct {
	Message OutputMessage
}

type outputManager struct {
	mu      sync.RWMutex
	program *tea.Program
	inTUI   bool
	queue   []OutputMessage
	noEmoji bool
	stdout  io.Writer
	stderr  io.Writer
}

var output = &outputManager{stdout: os.Stdout, stderr: os.Stderr}

// SetTUIMode routes all subsequent output into program and flushes anything queued
// while the program was starting.
func SetTUIMode(program *tea.Program) {
	output.mu.Lock()
	defer output.mu.Unlock()
	output.program = program
	output.inTUI = true
	if program != nil {
		for _, msg := range output.queue {
			program.Send(TUIMessageMsg{Message: msg})
		}
		output.queue = nil
	}
}

// ClearTUIMode returns output to the terminal writers.
func ClearTUIMode() {
	output.mu.Lock()
	defer output.mu.Unlock()
	output.program = nil
	output.inTUI = false
	output.queue = nil
}

// SetEmojiEnabled toggles the emoji prefix on every message.
func SetEmojiEnabled(enabled bool) {
	output.mu.Lock()
	defer output.mu.Unlock()
	output.noEmoji = !enabled
}

// SetOutputWritersForTest redirects terminal output. Passing nil restores the defaults.
func SetOutputWritersForTest(stdout, stderr io.Writer) {
	output.mu.Lock()
	defer output.mu.Unlock()
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	output.stdout = stdout
	output.stderr = stderr
}

func sendMessage(msgType MessageType, format string, args ...any) {
	sendMessageWithOptions(msgType, false, format, args...)
}

func sendMessageWithOptions(msgType MessageType, noEmoji bool, format string, args ...any) {
	output.mu.Lock()
	defer output.mu.Unlock()

	w := output.stdout
	switch msgType {
	case ErrorMessage, WarningMessage, DebugMessage:
		w = output.stderr
	}
	msg := OutputMessage{
		Type:    msgType,
		Content: fmt.Sprintf(format, args...),
		Writer:  w,
		NoEmoji: noEmoji || output.noEmoji,
	}

	switch {
	case output.inTUI && output.program != nil:
		output.program.Send(TUIMessageMsg{Message: msg})
	case output.inTUI:
		output.queue = append(output.queue, msg)
	default:
		fmt.Fprintln(msg.Writer, FormatMessage(msg))
	}
}

// OutputInfo prints an informational message.
func OutputInfo(format string, args ...any) { sendMessage(InfoMessage, format, args...) }

// OutputInfoPlain prints an informational message without the emoji prefix.
func OutputInfoPlain(format string, args ...any) {
	sendMessageWithOptions(InfoMessage, true, format, args...)
}

// OutputWarning prints a warning to stderr.
func OutputWarning(format string, args ...any) { sendMessage(WarningMessage, format, args...) }

// OutputError prints an error to stderr.
func OutputError(format string, args ...any) { sendMessage(ErrorMessage, format, args...) }

// OutputSuccess prints a success message.
func OutputSuccess(format string, args ...any) { sendMessage(SuccessMessage, format, args...) }

// FormatMessage renders msg with its type prefix.
func FormatMessage(msg OutputMessage) string {
	if msg.NoEmoji {
		return msg.Content
	}
	var prefix string
	switch msg.Type {
	case InfoMessage:
		prefix = "ℹ️"
	case WarningMessage:
		prefix = "⚠️"
	case ErrorMessage:
		prefix = "❌"
	case SuccessMessage:
		prefix = "✅"
	case DebugMessage:
		prefix = "🐛"
	}
	return fmt.Sprintf("%s  %s", prefix, msg.Content)
}
