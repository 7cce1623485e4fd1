package cmd

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"ragchat-cli/cmd/backend"
	"ragchat-cli/cmd/session"
	"ragchat-cli/internal/tui"
)

func newTestModel(t *testing.T) (chatModel, *Controller) {
	t.Helper()
	_, client, coord := newTestSession(t)
	ctrl := NewController(coord, client, []string{".txt"})
	return newChatModel(context.Background(), ctrl, []string{".txt"}), ctrl
}

func update(t *testing.T, m chatModel, msg tea.Msg) (chatModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	cm, ok := next.(chatModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return cm, cmd
}

func TestChatModel_Initial(t *testing.T) {
	m, _ := newTestModel(t)
	if m.textarea.Placeholder != inputPlaceholder(session.ModeGeneral) {
		t.Errorf("placeholder = %q", m.textarea.Placeholder)
	}
	view := m.View()
	for _, want := range []string{"General Chat", "Ask me anything and I'll help you out"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if m.Init() == nil {
		t.Error("Init should start the cursor blink and spinner")
	}
}

func TestChatModel_StateUpdateSwitchesMode(t *testing.T) {
	m, ctrl := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 40})
	ctrl.SelectFile(writeDoc(t, "llamas.txt", llamaDoc))()
	ctrl.Upload(context.Background())()

	m, cmd := update(t, m, StateUpdateMsg{NewState: ctrl.State(), Notice: "Switched to Document Mode"})
	if cmd == nil {
		t.Error("a notice should raise a toast")
	}
	if m.textarea.Placeholder != inputPlaceholder(session.ModeDocument) {
		t.Errorf("placeholder = %q", m.textarea.Placeholder)
	}
	if len(m.notices) != 1 {
		t.Errorf("notices = %q", m.notices)
	}
	bar := renderInfoBar(m)
	for _, want := range []string{"Document Mode", "Document Ready", "llamas.txt", "✅ Uploaded (1 chunks)"} {
		if !strings.Contains(bar, want) {
			t.Errorf("info bar missing %q: %s", want, bar)
		}
	}
}

func TestChatModel_SubmitQuestion(t *testing.T) {
	m, ctrl := newTestModel(t)
	m.textarea.SetValue("hello")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should submit the question")
	}
	if m.textarea.Value() != "" {
		t.Errorf("input should be cleared after submit, got %q", m.textarea.Value())
	}
	if msg := cmd(); msg != nil {
		t.Errorf("Ask cmd = %#v", msg)
	}

	m, _ = update(t, m, StateUpdateMsg{NewState: ctrl.State()})
	content := renderChatContent(m)
	for _, want := range []string{"You:", "Assistant Reply", "fake-model", "You said: hello"} {
		if !strings.Contains(content, want) {
			t.Errorf("content missing %q:\n%s", want, content)
		}
	}
}

func TestChatModel_SubmitWhilePending(t *testing.T) {
	m, _ := newTestModel(t)
	m.state.Chat.Pending = true
	m.textarea.SetValue("second question")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.textarea.Value() != "second question" {
		t.Error("input should be kept while an answer is pending")
	}
	if toast, ok := cmd().(tui.ShowToastMsg); !ok || !strings.Contains(toast.Message, "waiting") {
		t.Errorf("cmd() = %#v", toast)
	}
}

func TestChatModel_SlashCommands(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, m chatModel, cmd tea.Cmd)
	}{
		{"help", "/help", func(t *testing.T, m chatModel, cmd tea.Cmd) {
			if len(m.notices) != 1 || m.notices[0] != tuiHelp {
				t.Errorf("notices = %q", m.notices)
			}
		}},
		{"quit", "/quit", func(t *testing.T, m chatModel, cmd tea.Cmd) {
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Error("expected quit")
			}
		}},
		{"clear", "/clear", func(t *testing.T, m chatModel, cmd tea.Cmd) {
			if u, ok := cmd().(StateUpdateMsg); !ok || u.Notice != "Cleared" {
				t.Errorf("cmd() = %#v", u)
			}
		}},
		{"upload without path", "/upload", func(t *testing.T, m chatModel, cmd tea.Cmd) {
			if toast, ok := cmd().(tui.ShowToastMsg); !ok || !toast.Error {
				t.Errorf("cmd() = %#v", toast)
			}
		}},
		{"unknown", "/bogus", func(t *testing.T, m chatModel, cmd tea.Cmd) {
			if toast, ok := cmd().(tui.ShowToastMsg); !ok || !strings.Contains(toast.Message, "/bogus") {
				t.Errorf("cmd() = %#v", toast)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t)
			m.textarea.SetValue(tt.input)
			m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
			if m.textarea.Value() != "" {
				t.Errorf("slash command should clear the input")
			}
			tt.check(t, m, cmd)
		})
	}
}

func TestChatModel_PickerToggle(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	if !m.picking || cmd == nil {
		t.Fatalf("ctrl+o should open the picker")
	}
	if !strings.Contains(m.View(), "Pick a document") {
		t.Error("view should show the picker")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.picking {
		t.Error("esc should close the picker")
	}
}

func TestChatModel_Keys(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit")
	}

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlU})
	if toast, ok := cmd().(tui.ShowToastMsg); !ok || !toast.Error {
		t.Errorf("ctrl+u without a file should warn, got %#v", toast)
	}

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if toast, ok := cmd().(tui.ShowToastMsg); !ok || toast.Message != "Nothing to copy yet" {
		t.Errorf("ctrl+y with no answer = %#v", toast)
	}
}

func TestChatModel_WindowResize(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if m.width != 120 || m.viewport.Height != 40-headerHeight-footerHeight {
		t.Errorf("width=%d viewport height=%d", m.width, m.viewport.Height)
	}
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 20, Height: 3})
	if m.viewport.Height < 1 {
		t.Errorf("viewport height must stay positive, got %d", m.viewport.Height)
	}
}

func TestRenderChatContent_Sources(t *testing.T) {
	m, _ := newTestModel(t)
	chunk := 2
	m.state.Mode = session.ModeDocument
	m.state.Chat = session.ChatSnapshot{
		Mode:     session.ModeDocument,
		Question: "q",
		Status:   session.TurnAnswered,
		Answer:   "Based on the document: q",
		Sources: []session.Source{
			{ID: "a", Metadata: &backend.HitMetadata{Source: "report.pdf", Chunk: &chunk}},
			{ID: "b"},
		},
	}
	content := renderChatContent(m)
	for _, want := range []string{"Document Answer", "1. report.pdf #2", "2. Unknown source"} {
		if !strings.Contains(content, want) {
			t.Errorf("content missing %q:\n%s", want, content)
		}
	}
}
