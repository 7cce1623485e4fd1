package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestFormatSource(t *testing.T) {
	three := 3
	zero := 0
	tests := []struct {
		name string
		ref  SourceRef
		want string
	}{
		{"with chunk", SourceRef{Source: "policy.pdf", Chunk: &three}, "1. policy.pdf #3"},
		{"chunk zero", SourceRef{Source: "policy.pdf", Chunk: &zero}, "1. policy.pdf #0"},
		{"no chunk", SourceRef{Source: "notes.txt"}, "1. notes.txt"},
		{"no metadata", SourceRef{}, "1. Unknown source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSource(1, tt.ref); got != tt.want {
				t.Errorf("FormatSource() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderSources(t *testing.T) {
	if got := RenderSources(nil, 80); got != "" {
		t.Errorf("RenderSources(nil) = %q, want empty", got)
	}
	out := RenderSources([]SourceRef{{Source: "a.pdf"}, {}}, 80)
	for _, want := range []string{"Sources", "1. a.pdf", "2. Unknown source"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderSources() missing %q:\n%s", want, out)
		}
	}
}

func TestRenderAnswer(t *testing.T) {
	if got := RenderAnswer("Assistant Reply", "", "", 80); got != "" {
		t.Errorf("empty answer should render nothing, got %q", got)
	}
	out := RenderAnswer("Assistant Reply", "fake-model", "Hello there", 80)
	for _, want := range []string{"Assistant Reply", "fake-model", "Hello there"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderAnswer() missing %q:\n%s", want, out)
		}
	}
}

func TestCopyToClipboard(t *testing.T) {
	old := clipboardWrite
	defer func() { clipboardWrite = old }()

	var copied string
	clipboardWrite = func(s string) error { copied = s; return nil }
	msg := CopyToClipboard("the answer")().(ShowToastMsg)
	if copied != "the answer" || msg.Error {
		t.Errorf("copied = %q, msg = %+v", copied, msg)
	}

	clipboardWrite = func(string) error { return errors.New("no clipboard") }
	msg = CopyToClipboard("the answer")().(ShowToastMsg)
	if !msg.Error || !strings.Contains(msg.Message, "no clipboard") {
		t.Errorf("msg = %+v", msg)
	}

	msg = CopyToClipboard("  ")().(ShowToastMsg)
	if msg.Error || msg.Message != "Nothing to copy yet" {
		t.Errorf("msg = %+v", msg)
	}
}

func TestToastLifecycle(t *testing.T) {
	m := NewToastModel()
	if m.View() != "" {
		t.Fatal("new toast should be hidden")
	}
	m, cmd := m.Update(ShowToastMsg{Message: "Uploaded"})
	if cmd == nil || !m.Visible() || !strings.Contains(m.View(), "Uploaded") {
		t.Fatalf("toast should be visible with a hide command")
	}

	// a stale hide must not hide a newer toast
	m, _ = m.Update(HideToastMsg{shownAt: time.Now().Add(-time.Hour)})
	if !m.Visible() {
		t.Error("stale hide should be ignored")
	}
	m, _ = m.Update(HideToastMsg{})
	if m.Visible() {
		t.Error("zero hide should hide the toast")
	}

	m, _ = m.Update(tea.WindowSizeMsg{Width: 40})
	m, _ = m.Update(ShowToastMsg{Message: "x", Error: true})
	if !strings.Contains(m.View(), "x") {
		t.Error("error toast should render")
	}
}
