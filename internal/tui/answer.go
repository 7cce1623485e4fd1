package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// clipboardWrite is replaced in tests.
var clipboardWrite = clipboard.WriteAll

var (
	answerLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	modelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	sourcesHeader    = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	sourceStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#aaaaaa"))
)

// SourceRef is the part of a retrieved passage shown in the sources list.
type SourceRef struct {
	Source string
	Chunk  *int
	DocID  string
}

// FormatSource renders one numbered sources line, e.g. "1. policy.pdf #3".
// Passages without metadata are listed as "Unknown source".
func FormatSource(n int, ref SourceRef) string {
	name := strings.TrimSpace(ref.Source)
	if name == "" {
		return fmt.Sprintf("%d. Unknown source", n)
	}
	if ref.Chunk != nil {
		return fmt.Sprintf("%d. %s #%d", n, name, *ref.Chunk)
	}
	return fmt.Sprintf("%d. %s", n, name)
}

// RenderSources renders the sources list, or "" when there are none.
func RenderSources(refs []SourceRef, width int) string {
	if len(refs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(sourcesHeader.Render("📚 Sources"))
	for i, ref := range refs {
		b.WriteString("\n")
		b.WriteString(sourceStyle.Width(max(width-2, 10)).Render("  " + FormatSource(i+1, ref)))
	}
	return b.String()
}

// RenderAnswer renders the answer block under label. model is shown when non-empty.
func RenderAnswer(label, model, answer string, width int) string {
	if answer == "" {
		return ""
	}
	header := answerLabelStyle.Render(label)
	if model != "" {
		header += " " + modelStyle.Render("("+model+")")
	}
	body := lipgloss.NewStyle().Width(max(width-2, 10)).Render(answer)
	return header + "\n" + body
}

// CopyToClipboard copies text and reports the outcome as a toast.
func CopyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		if strings.TrimSpace(text) == "" {
			return ShowToastMsg{Message: "Nothing to copy yet"}
		}
		if err := clipboardWrite(text); err != nil {
			return ShowToastMsg{Message: "Copy failed: " + err.Error(), Error: true}
		}
		return ShowToastMsg{Message: "Answer copied to clipboard"}
	}
}
