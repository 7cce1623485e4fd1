package session

import (
	"context"
	"slices"
	"sync"

	"ragchat-cli/cmd/utils"
)

// Indicator is the document status badge.
type Indicator int

const (
	IndicatorNone Indicator = iota
	IndicatorProcessing
	IndicatorReady
)

func (i Indicator) String() string {
	switch i {
	case IndicatorProcessing:
		return "Processing..."
	case IndicatorReady:
		return "Document Ready"
	default:
		return ""
	}
}

// Options configures a session built with New.
type Options struct {
	StalePolicy StalePolicy
}

// Coordinator owns the indexed and processing flags. It listens to the upload
// controller and pushes the indexed flag into the chat controller. Once a document
// has been indexed the flag stays set for the life of the session.
type Coordinator struct {
	uploads *UploadController
	chat    *ChatController

	mu         sync.Mutex
	indexed    bool
	processing bool
	// attempt is the upload that set processing. A completion event from an
	// earlier attempt, delivered after a newer upload started, leaves it alone.
	attempt     int
	nextSubID   int
	subscribers map[int]Listener
}

// New builds a complete session against be.
func New(be Backend, opts Options) *Coordinator {
	return NewCoordinator(NewUploadController(be), NewChatController(be, opts.StalePolicy))
}

// NewCoordinator wires uploads and chat together. It replaces any listener
// previously registered on either controller.
func NewCoordinator(uploads *UploadController, chat *ChatController) *Coordinator {
	c := &Coordinator{
		uploads:     uploads,
		chat:        chat,
		subscribers: make(map[int]Listener),
	}
	uploads.SetListener(c.onUploadEvent)
	chat.SetListener(c.publish)
	return c
}

// Uploads returns the upload controller.
func (c *Coordinator) Uploads() *UploadController { return c.uploads }

// Chat returns the chat controller.
func (c *Coordinator) Chat() *ChatController { return c.chat }

// Indexed reports whether a document has been indexed in this session.
func (c *Coordinator) Indexed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexed
}

// Processing reports whether an upload is in flight.
func (c *Coordinator) Processing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.processing
}

// Indicator returns Processing while uploading, Ready once indexed, otherwise None.
func (c *Coordinator) Indicator() Indicator {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.processing:
		return IndicatorProcessing
	case c.indexed:
		return IndicatorReady
	default:
		return IndicatorNone
	}
}

// TriggerUpload starts uploading the selected file. Like StartUpload it returns nil
// when there is nothing to do.
func (c *Coordinator) TriggerUpload(ctx context.Context) <-chan struct{} {
	return c.uploads.StartUpload(ctx)
}

// Subscribe registers fn for every upload and chat event, delivered after the
// session state reflects it. The returned func unsubscribes.
func (c *Coordinator) Subscribe(fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

func (c *Coordinator) onUploadEvent(ev Event) {
	switch ev.Kind {
	case EventUploadStarted:
		c.mu.Lock()
		c.processing = true
		c.attempt = ev.Attempt
		c.mu.Unlock()
	case EventUploaded:
		c.mu.Lock()
		c.indexed = true
		c.settle(ev.Attempt)
		c.mu.Unlock()
		utils.LogDebug("session: document indexed, switching to document mode")
		c.chat.SetMode(true)
	case EventUploadFailed:
		c.mu.Lock()
		c.settle(ev.Attempt)
		c.mu.Unlock()
	}
	c.publish(ev)
}

// settle clears processing when attempt is the upload in flight. c.mu must be held.
func (c *Coordinator) settle(attempt int) {
	if attempt != c.attempt {
		utils.LogDebugf("session: upload %d settled after upload %d started", attempt, c.attempt)
		return
	}
	c.processing = false
}

func (c *Coordinator) publish(ev Event) {
	c.mu.Lock()
	ids := make([]int, 0, len(c.subscribers))
	for id := range c.subscribers {
		ids = append(ids, id)
	}
	subs := make([]Listener, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		subs = append(subs, c.subscribers[id])
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}
