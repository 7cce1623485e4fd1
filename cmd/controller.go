package cmd

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"ragchat-cli/cmd/config"
	"ragchat-cli/cmd/session"
	"ragchat-cli/cmd/utils"
	"ragchat-cli/internal/tui"
)

// State is the session state the UI renders, decoupled from the UI model.
type State struct {
	Mode      session.Mode
	Indicator session.Indicator
	Upload    session.UploadSnapshot
	Chat      session.ChatSnapshot
	ServerURL string
}

// StateUpdateMsg is emitted by the controller to notify the UI of state changes.
type StateUpdateMsg struct {
	NewState State
	Notice   string
}

// baseURLSwapper is the part of backend.Client the controller needs for config reloads.
type baseURLSwapper interface {
	BaseURL() string
	SetBaseURL(string)
}

// Controller owns session actions and turns session events into Tea messages.
// Actions run inside tea.Cmds because session events are delivered synchronously
// and Program.Send must not be called from Update.
type Controller struct {
	coord   *session.Coordinator
	server  baseURLSwapper
	allowed []string

	mu          sync.Mutex
	send        func(tea.Msg)
	unsubscribe func()
}

func NewController(coord *session.Coordinator, server baseURLSwapper, allowed []string) *Controller {
	return &Controller{coord: coord, server: server, allowed: allowed}
}

// Attach starts forwarding session events to send, typically tea.Program.Send.
func (c *Controller) Attach(send func(tea.Msg)) {
	c.Detach()
	c.mu.Lock()
	c.send = send
	c.mu.Unlock()
	unsubscribe := c.coord.Subscribe(c.onEvent)
	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
}

// Detach stops forwarding events.
func (c *Controller) Detach() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.send = nil
	c.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// State returns a snapshot of the whole session.
func (c *Controller) State() State {
	s := State{
		Mode:      c.coord.Chat().Mode(),
		Indicator: c.coord.Indicator(),
		Upload:    c.coord.Uploads().Snapshot(),
		Chat:      c.coord.Chat().Snapshot(),
	}
	if c.server != nil {
		s.ServerURL = c.server.BaseURL()
	}
	return s
}

func (c *Controller) onEvent(ev session.Event) {
	c.mu.Lock()
	send := c.send
	c.mu.Unlock()
	if send == nil {
		return
	}
	send(StateUpdateMsg{NewState: c.State(), Notice: eventNotice(ev)})
}

func eventNotice(ev session.Event) string {
	switch ev.Kind {
	case session.EventUploadStarted:
		if ev.File != nil {
			return fmt.Sprintf("Uploading %s...", ev.File.Name)
		}
		return "Uploading..."
	case session.EventUploaded:
		if ev.Result != nil {
			return fmt.Sprintf("Document indexed (%d chunks)", ev.Result.Chunks)
		}
		return "Document indexed"
	case session.EventUploadFailed:
		if ev.Err != nil {
			return fmt.Sprintf("Upload failed: %v", ev.Err)
		}
		return "Upload failed"
	case session.EventModeChanged:
		return fmt.Sprintf("Switched to %s", ev.Mode.Label())
	case session.EventAnswerDiscarded:
		return fmt.Sprintf("Discarded a late reply from %s", ev.Mode.Label())
	}
	return ""
}

// SelectFile inspects path and makes it the upload candidate.
func (c *Controller) SelectFile(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := session.InspectFile(path, c.allowed)
		if err != nil {
			utils.LogDebugf("select %s: %v", path, err)
			return tui.ShowToastMsg{Message: err.Error(), Error: true}
		}
		c.coord.Uploads().SelectFile(f)
		return StateUpdateMsg{NewState: c.State(), Notice: "Selected " + f.Describe()}
	}
}

// Upload starts uploading the selected file and waits for it to finish. Progress
// arrives through the attached send func.
func (c *Controller) Upload(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		snap := c.coord.Uploads().Snapshot()
		done := c.coord.TriggerUpload(ctx)
		if done == nil {
			if snap.Selected == nil {
				return tui.ShowToastMsg{Message: "Select a file first (ctrl+o)", Error: true}
			}
			return tui.ShowToastMsg{Message: "Upload already in progress"}
		}
		<-done
		return nil
	}
}

// Ask submits question and waits for the reply.
func (c *Controller) Ask(ctx context.Context, question string) tea.Cmd {
	return func() tea.Msg {
		chat := c.coord.Chat()
		chat.SetQuestion(question)
		done := chat.Submit(ctx)
		if done == nil {
			if chat.Snapshot().Pending {
				return tui.ShowToastMsg{Message: "Still waiting for the previous answer"}
			}
			return tui.ShowToastMsg{Message: "Type a question first", Error: true}
		}
		<-done
		return nil
	}
}

// Clear empties the question and answer.
func (c *Controller) Clear() tea.Cmd {
	return func() tea.Msg {
		c.coord.Chat().Clear()
		return StateUpdateMsg{NewState: c.State(), Notice: "Cleared"}
	}
}

// WatchConfig re-resolves settings whenever the config file at path changes and
// swaps in a new server URL. Without a config file, dir is watched for one to
// appear. flagURL keeps the --server-url precedence.
func (c *Controller) WatchConfig(ctx context.Context, path, dir, flagURL string) error {
	if c.server == nil {
		return nil
	}
	if path != "" {
		return config.Watch(ctx, path, func() {
			c.ReloadConfig(path, flagURL)
		})
	}
	if dir == "" {
		return nil
	}
	return config.WatchDir(ctx, dir, func(found string) {
		c.ReloadConfig(found, flagURL)
	})
}

// ReloadConfig applies the server URL from the config file at path.
func (c *Controller) ReloadConfig(path, flagURL string) {
	s, err := config.Resolve(config.ResolveOptions{ConfigPath: path, ServerURL: flagURL})
	if err != nil {
		utils.LogDebugf("config reload: %v", err)
		c.notify(tui.ShowToastMsg{Message: "Config reload failed: " + err.Error(), Error: true})
		return
	}
	if s.Server.URL == c.server.BaseURL() {
		return
	}
	c.server.SetBaseURL(s.Server.URL)
	utils.LogDebugf("config reload: server -> %s", s.Server.URL)
	c.notify(StateUpdateMsg{NewState: c.State(), Notice: "Server changed to " + s.Server.URL})
}

func (c *Controller) notify(msg tea.Msg) {
	c.mu.Lock()
	send := c.send
	c.mu.Unlock()
	if send != nil {
		send(msg)
	}
}
