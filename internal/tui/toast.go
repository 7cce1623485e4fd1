package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ToastDuration is how long a toast stays visible.
const ToastDuration = 3 * time.Second

// ShowToastMsg asks the toast to display Message. Error toasts are drawn in red.
type ShowToastMsg struct {
	Message string
	Error   bool
}

// HideToastMsg hides the toast that was shown at shownAt.
type HideToastMsg struct{ shownAt time.Time }

// ToastModel is a transient one-line notice drawn at the right edge.
type ToastModel struct {
	message   string
	isError   bool
	visible   bool
	timestamp time.Time
	width     int
}

func NewToastModel() ToastModel { return ToastModel{} }

// Toast returns a command that shows message.
func Toast(message string) tea.Cmd {
	return func() tea.Msg { return ShowToastMsg{Message: message} }
}

// ErrorToast returns a command that shows message as an error.
func ErrorToast(message string) tea.Cmd {
	return func() tea.Msg { return ShowToastMsg{Message: message, Error: true} }
}

func (m ToastModel) Update(msg tea.Msg) (ToastModel, tea.Cmd) {
	switch msg := msg.(type) {
	case ShowToastMsg:
		m.message = msg.Message
		m.isError = msg.Error
		m.visible = true
		m.timestamp = time.Now()
		shownAt := m.timestamp
		return m, tea.Tick(ToastDuration, func(time.Time) tea.Msg { return HideToastMsg{shownAt: shownAt} })
	case HideToastMsg:
		// a newer toast may have replaced the one this hide was scheduled for
		if msg.shownAt.IsZero() || msg.shownAt.Equal(m.timestamp) {
			m.visible = false
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	}
	return m, nil
}

// Visible reports whether a toast is showing.
func (m ToastModel) Visible() bool { return m.visible }

// Message returns the current toast text.
func (m ToastModel) Message() string { return m.message }

func (m ToastModel) View() string {
	if !m.visible {
		return ""
	}
	bg := lipgloss.Color("86")
	if m.isError {
		bg = lipgloss.Color("160")
	}
	toast := lipgloss.NewStyle().
		Foreground(lipgloss.Color("230")).
		Background(bg).
		Padding(0, 2).
		MarginRight(2).
		Bold(true).
		Render(m.message)
	if m.width <= 0 {
		return toast
	}
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, toast)
}
