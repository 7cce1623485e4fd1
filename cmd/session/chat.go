package session

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"ragchat-cli/cmd/backend"
	"ragchat-cli/cmd/utils"
)

const (
	// ThinkingPlaceholder is shown as the answer while a request is pending. It is
	// display text only; pending state is tracked by TurnStatus.
	ThinkingPlaceholder = "⏳ Thinking..."
	// ChatErrorText replaces the answer when a request fails.
	ChatErrorText = "❌ Error getting answer. Please try again."
)

// Mode selects which backend endpoint answers a question.
type Mode int

const (
	// ModeGeneral answers from general knowledge via /chat.
	ModeGeneral Mode = iota
	// ModeDocument answers from the indexed document via /query.
	ModeDocument
)

func modeFor(indexed bool) Mode {
	if indexed {
		return ModeDocument
	}
	return ModeGeneral
}

func (m Mode) String() string {
	if m == ModeDocument {
		return "document"
	}
	return "general"
}

// Label is the mode badge text.
func (m Mode) Label() string {
	if m == ModeDocument {
		return "Document Mode"
	}
	return "General Chat"
}

// TurnStatus is the lifecycle tag of the current question.
type TurnStatus int

const (
	TurnIdle TurnStatus = iota
	TurnPending
	TurnAnswered
	TurnFailed
)

func (s TurnStatus) String() string {
	switch s {
	case TurnIdle:
		return "idle"
	case TurnPending:
		return "pending"
	case TurnAnswered:
		return "answered"
	case TurnFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StalePolicy decides what happens to a reply that arrives after the mode changed.
type StalePolicy int

const (
	// ApplyToCurrentMode shows the late reply under the current mode. Sources are only
	// kept when both the request and the current mode are Document.
	ApplyToCurrentMode StalePolicy = iota
	// DiscardStale drops a reply whose request mode no longer matches.
	DiscardStale
)

// Source is a retrieved passage shown under a Document-mode answer.
type Source = backend.Hit

// ChatSnapshot is a consistent copy of the chat state.
type ChatSnapshot struct {
	Mode     Mode
	Question string
	Status   TurnStatus
	Pending  bool
	Answer   string
	Sources  []Source
	// Model is the model_used reported by /chat, if any.
	Model string
	// LastError is the cause of the most recent failed request.
	LastError error
	// RequestID tags the most recent request.
	RequestID string
}

// ChatController owns the question, the last answer and its sources, and the mode.
// The mode is only ever changed through SetMode.
type ChatController struct {
	responder Responder
	policy    StalePolicy

	mu        sync.Mutex
	mode      Mode
	question  string
	status    TurnStatus
	answer    string
	sources   []Source
	model     string
	lastErr   error
	requestID string
	listener  Listener
}

// NewChatController returns a controller in General mode.
func NewChatController(responder Responder, policy StalePolicy) *ChatController {
	return &ChatController{responder: responder, policy: policy}
}

// SetListener registers the single receiver of chat events.
func (c *ChatController) SetListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = l
}

// SetMode derives the mode from indexed. A change of mode clears the answer and
// sources and keeps the question. An in-flight request is not cancelled.
func (c *ChatController) SetMode(indexed bool) {
	mode := modeFor(indexed)

	c.mu.Lock()
	if mode == c.mode {
		c.mu.Unlock()
		return
	}
	c.mode = mode
	c.answer = ""
	c.sources = nil
	c.model = ""
	if c.status != TurnPending {
		c.status = TurnIdle
	}
	listener := c.listener
	c.mu.Unlock()

	utils.LogDebugf("chat: mode -> %s", mode)
	emit(listener, Event{Kind: EventModeChanged, Mode: mode})
}

// SetQuestion replaces the question text. It is allowed at any time.
func (c *ChatController) SetQuestion(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.question = text
}

// Submit sends the question to /query in Document mode or /chat in General mode.
// It returns nil without doing anything when the trimmed question is empty or a
// request is already pending. Otherwise the returned channel is closed once the
// reply has been applied and its event delivered.
func (c *ChatController) Submit(ctx context.Context) <-chan struct{} {
	c.mu.Lock()
	if strings.TrimSpace(c.question) == "" || c.status == TurnPending {
		c.mu.Unlock()
		return nil
	}
	req := chatRequest{
		id:       uuid.NewString(),
		mode:     c.mode,
		question: c.question,
	}
	c.status = TurnPending
	c.answer = ThinkingPlaceholder
	c.sources = nil
	c.model = ""
	c.lastErr = nil
	c.requestID = req.id
	listener := c.listener
	c.mu.Unlock()

	utils.LogDebugf("chat: request %s issued in %s mode", req.id, req.mode)
	emit(listener, Event{Kind: EventAnswerPending, Mode: req.mode, RequestID: req.id})

	done := make(chan struct{})
	go func() {
		defer close(done)
		reply := c.dispatch(ctx, req)
		c.apply(req, reply)
	}()
	return done
}

type chatRequest struct {
	id       string
	mode     Mode
	question string
}

type chatReply struct {
	answer  string
	sources []Source
	model   string
	err     error
}

func (c *ChatController) dispatch(ctx context.Context, req chatRequest) chatReply {
	if req.mode == ModeDocument {
		resp, err := c.responder.Query(ctx, req.question)
		if err != nil {
			return chatReply{err: err}
		}
		return chatReply{answer: resp.Answer, sources: resp.Hits}
	}
	resp, err := c.responder.Chat(ctx, req.question)
	if err != nil {
		return chatReply{err: err}
	}
	return chatReply{answer: resp.Reply, model: resp.ModelUsed}
}

func (c *ChatController) apply(req chatRequest, reply chatReply) {
	c.mu.Lock()
	current := c.mode
	if current != req.mode && c.policy == DiscardStale {
		c.status = TurnIdle
		c.answer = ""
		c.sources = nil
		listener := c.listener
		c.mu.Unlock()
		utils.LogDebugf("chat: request %s discarded (issued in %s mode, now %s)", req.id, req.mode, current)
		emit(listener, Event{Kind: EventAnswerDiscarded, Mode: req.mode, RequestID: req.id})
		return
	}

	ev := Event{Mode: req.mode, RequestID: req.id}
	if reply.err != nil {
		c.status = TurnFailed
		c.answer = ChatErrorText
		c.sources = nil
		c.lastErr = reply.err
		ev.Kind = EventAnswerFailed
		ev.Err = reply.err
	} else {
		c.status = TurnAnswered
		c.answer = reply.answer
		c.model = reply.model
		c.sources = nil
		if req.mode == ModeDocument && current == ModeDocument {
			c.sources = append([]Source{}, reply.sources...)
		}
		ev.Kind = EventAnswerReady
	}
	listener := c.listener
	c.mu.Unlock()

	if reply.err != nil {
		utils.LogDebugf("chat: request %s failed: %v", req.id, reply.err)
	} else {
		utils.LogDebugf("chat: request %s answered", req.id)
	}
	emit(listener, ev)
}

// Clear empties the question, answer and sources. Mode and any pending request are untouched.
func (c *ChatController) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.question = ""
	c.answer = ""
	c.sources = nil
	c.model = ""
	if c.status != TurnPending {
		c.status = TurnIdle
	}
}

// Snapshot returns a copy of the current state.
func (c *ChatController) Snapshot() ChatSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ChatSnapshot{
		Mode:      c.mode,
		Question:  c.question,
		Status:    c.status,
		Pending:   c.status == TurnPending,
		Answer:    c.answer,
		Sources:   append([]Source(nil), c.sources...),
		Model:     c.model,
		LastError: c.lastErr,
		RequestID: c.requestID,
	}
}

// Mode returns the current mode.
func (c *ChatController) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}
