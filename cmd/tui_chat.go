package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"

	"ragchat-cli/cmd/session"
	"ragchat-cli/cmd/utils"
	"ragchat-cli/internal/tui"
)

const (
	gap          = "\n\n"
	headerHeight = 3
	footerHeight = 7
	maxNotices   = 6
)

const tuiHelp = "Commands: /upload PATH, /clear, /help, /quit\n" +
	"Keys: ctrl+o pick file | ctrl+u upload | ctrl+y copy answer | ctrl+l clear | esc close picker | ctrl+c quit"

type chatModel struct {
	ctx      context.Context
	ctrl     *Controller
	state    State
	textarea textarea.Model
	viewport viewport.Model
	spin     spinner.Model
	picker   filepicker.Model
	toast    tui.ToastModel

	picking bool
	notices []string
	// startup runs once from Init, e.g. selecting and uploading --document.
	startup tea.Cmd

	width      int
	termHeight int
}

func newChatModel(ctx context.Context, ctrl *Controller, allowed []string) chatModel {
	ta := textarea.New()
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.SetWidth(30)
	ta.SetHeight(1)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	fp := filepicker.New()
	fp.AllowedTypes = allowed
	fp.CurrentDirectory = utils.GetEffectiveCWD()

	width, height, err := term.GetSize(uintptr(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width, height = 80, 24
	}

	m := chatModel{
		ctx:        ctx,
		ctrl:       ctrl,
		state:      ctrl.State(),
		textarea:   ta,
		viewport:   viewport.New(width, max(height-headerHeight-footerHeight, 1)),
		spin:       s,
		picker:     fp,
		toast:      tui.NewToastModel(),
		width:      width,
		termHeight: height,
	}
	m.textarea.SetWidth(max(width-2, 10))
	m.textarea.Placeholder = inputPlaceholder(m.state.Mode)
	m.refreshViewportBottom()
	return m
}

func (m chatModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.spin.Tick}
	if m.startup != nil {
		cmds = append(cmds, m.startup)
	}
	return tea.Batch(cmds...)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.termHeight = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight, 1)
		m.textarea.SetWidth(max(msg.Width-2, 10))
		m.toast, _ = m.toast.Update(msg)
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		m.refreshViewportBottom()
		return m, cmd

	case StateUpdateMsg:
		m.applyState(msg.NewState)
		if msg.Notice != "" {
			m.addNotice(msg.Notice)
			cmds = append(cmds, tui.Toast(msg.Notice))
		}
		m.refreshViewportBottom()
		return m, tea.Batch(cmds...)

	case utils.TUIMessageMsg:
		m.addNotice(utils.FormatMessage(msg.Message))
		m.refreshViewportBottom()
		return m, nil

	case tui.ShowToastMsg, tui.HideToastMsg:
		var cmd tea.Cmd
		m.toast, cmd = m.toast.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.busy() {
			m.refreshViewportBottom()
		}
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.picking {
			return m.updatePicker(msg)
		}
		switch msg.String() {
		case "ctrl+o":
			m.picking = true
			return m, m.picker.Init()
		case "ctrl+u":
			return m, m.ctrl.Upload(m.ctx)
		case "ctrl+y":
			return m, tui.CopyToClipboard(m.state.Chat.Answer)
		case "ctrl+l":
			m.textarea.Reset()
			return m, m.ctrl.Clear()
		case "enter":
			return m.submit()
		}
	}

	if m.picking {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		cmds = append(cmds, cmd)
	}
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m chatModel) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.picking = false
		return m, nil
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.picking = false
		return m, tea.Batch(cmd, m.ctrl.SelectFile(path))
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		return m, tea.Batch(cmd, tui.ErrorToast(fmt.Sprintf("%s: %v", path, session.ErrUnsupportedFileType)))
	}
	return m, cmd
}

func (m chatModel) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.textarea.Value())
	if !strings.HasPrefix(text, "/") {
		if m.state.Chat.Pending {
			return m, tui.Toast("Still waiting for the previous answer")
		}
		// the question is sent as typed; only blank input is rejected
		question := m.textarea.Value()
		if text != "" {
			m.textarea.Reset()
		}
		return m, m.ctrl.Ask(m.ctx, question)
	}

	name, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)
	m.textarea.Reset()
	switch strings.ToLower(name) {
	case "/quit", "/exit":
		return m, tea.Quit
	case "/help":
		m.addNotice(tuiHelp)
		m.refreshViewportBottom()
		return m, nil
	case "/clear":
		return m, m.ctrl.Clear()
	case "/upload":
		if arg == "" {
			return m, tui.ErrorToast("usage: /upload PATH")
		}
		return m, tea.Sequence(m.ctrl.SelectFile(arg), m.ctrl.Upload(m.ctx))
	}
	return m, tui.ErrorToast("Unknown command " + name + ". Type /help for commands.")
}

func (m *chatModel) applyState(s State) {
	modeChanged := s.Mode != m.state.Mode
	m.state = s
	if modeChanged {
		m.textarea.Placeholder = inputPlaceholder(s.Mode)
	}
}

func (m *chatModel) addNotice(notice string) {
	m.notices = append(m.notices, notice)
	if len(m.notices) > maxNotices {
		m.notices = m.notices[len(m.notices)-maxNotices:]
	}
}

func (m chatModel) busy() bool {
	return m.state.Chat.Pending || m.state.Indicator == session.IndicatorProcessing
}

// setViewportContent updates the viewport with the current chat rendering.
func (m *chatModel) setViewportContent() {
	m.viewport.SetContent(lipgloss.NewStyle().Width(m.viewport.Width).Render(renderChatContent(*m)))
}

// refreshViewportBottom updates the viewport and scrolls to the bottom.
func (m *chatModel) refreshViewportBottom() {
	m.setViewportContent()
	m.viewport.GotoBottom()
}

var noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

func renderChatContent(m chatModel) string {
	var b strings.Builder
	for _, n := range m.notices {
		b.WriteString(noticeStyle.Width(max(m.width-2, 10)).Render(n))
		b.WriteString("\n")
	}

	chat := m.state.Chat
	if q := strings.TrimSpace(chat.Question); q != "" && chat.Status != session.TurnIdle {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Bold(true).Render("You: "))
		b.WriteString(q)
		b.WriteString(gap)
	}
	if chat.Pending {
		b.WriteString(m.spin.View() + " ")
	}
	if answer := tui.RenderAnswer(answerLabel(m.state.Mode), chat.Model, chat.Answer, m.width); answer != "" {
		b.WriteString(answer)
		b.WriteString("\n")
	}
	if sources := tui.RenderSources(sourceRefs(chat.Sources), m.width); sources != "" {
		b.WriteString("\n")
		b.WriteString(sources)
		b.WriteString("\n")
	}
	return b.String()
}

func renderHeader(m chatModel) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Render("💬 " + m.state.Mode.Label())
	subtitle := lipgloss.NewStyle().Faint(true).Render(modeSubtitle(m.state.Mode))
	return title + "\n" + subtitle + "\n"
}

func renderChatInput(m chatModel) string {
	var b strings.Builder

	b.WriteString("\n")

	cbStyle := lipgloss.NewStyle().
		MarginBottom(1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("63"))

	b.WriteString(cbStyle.Render(m.textarea.View()))

	helpText := "/help for commands | Ctrl+O: pick file | Ctrl+U: upload | Ctrl+Y: copy answer | Ctrl+L: clear"
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Faint(true).Width(max(m.width-2, 10)).Render(helpText))
	b.WriteString("\n")

	return b.String()
}

func renderInfoBar(m chatModel) string {
	bgColor := "#027ffd"
	if m.state.Mode == session.ModeDocument {
		bgColor = "#28a745"
	}

	parts := []string{m.state.Mode.Label()}
	if ind := m.state.Indicator; ind != session.IndicatorNone {
		label := ind.String()
		if ind == session.IndicatorProcessing {
			label = m.spin.View() + label
		}
		parts = append(parts, label)
	}
	if f := m.state.Upload.Selected; f != nil {
		parts = append(parts, "File: "+f.Describe())
	}
	if text := m.state.Upload.StatusText(); text != "" {
		parts = append(parts, text)
	}

	serverHost := strings.TrimPrefix(strings.TrimPrefix(m.state.ServerURL, "http://"), "https://")
	if serverHost != "" {
		parts = append(parts, serverHost)
	}
	statusLine := strings.Join(parts, " | ")

	style := lipgloss.NewStyle().
		Width(m.width).
		Background(lipgloss.Color(bgColor)).
		Foreground(lipgloss.Color("#ffffff")).
		PaddingLeft(1).
		PaddingRight(1)

	if lipgloss.Width(statusLine) > m.width-2 {
		runes := []rune(statusLine)
		maxLen := m.width - 5
		if maxLen > 0 && maxLen < len(runes) {
			statusLine = string(runes[:maxLen]) + "..."
		}
	}

	return style.Render(statusLine)
}

func (m chatModel) View() string {
	var b strings.Builder
	b.WriteString(renderHeader(m))
	if m.picking {
		b.WriteString(lipgloss.NewStyle().Faint(true).Render("Pick a document (enter to select, esc to cancel) in " + m.picker.CurrentDirectory))
		b.WriteString("\n")
		b.WriteString(m.picker.View())
		b.WriteString("\n")
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteString(renderChatInput(m))
	b.WriteString(renderInfoBar(m))

	if v := m.toast.View(); v != "" {
		b.WriteString("\n")
		b.WriteString(v)
	}
	return b.String()
}

// runChatSessionTUI runs the interactive session until the user quits.
func runChatSessionTUI(ctx context.Context, ctrl *Controller, allowed []string, startup tea.Cmd) error {
	m := newChatModel(ctx, ctrl, allowed)
	m.startup = startup

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	ctrl.Attach(p.Send)
	defer ctrl.Detach()
	utils.SetTUIMode(p)
	defer utils.ClearTUIMode()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("chat session: %w", err)
	}
	return nil
}
