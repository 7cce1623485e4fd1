package session

import "ragchat-cli/cmd/backend"

// EventKind identifies what happened in a session.
type EventKind int

const (
	// EventUploadStarted is emitted synchronously by StartUpload.
	EventUploadStarted EventKind = iota
	// EventUploaded carries the backend acknowledgment.
	EventUploaded
	// EventUploadFailed carries the transport or backend error.
	EventUploadFailed
	// EventModeChanged is emitted when the chat switches between General and Document.
	EventModeChanged
	// EventAnswerPending is emitted synchronously by Submit.
	EventAnswerPending
	// EventAnswerReady means a reply was applied to the turn.
	EventAnswerReady
	// EventAnswerFailed means the request failed and the turn shows ChatErrorText.
	EventAnswerFailed
	// EventAnswerDiscarded means a reply arrived for a mode that is no longer current
	// and the DiscardStale policy dropped it.
	EventAnswerDiscarded
)

func (k EventKind) String() string {
	switch k {
	case EventUploadStarted:
		return "upload-started"
	case EventUploaded:
		return "uploaded"
	case EventUploadFailed:
		return "upload-failed"
	case EventModeChanged:
		return "mode-changed"
	case EventAnswerPending:
		return "answer-pending"
	case EventAnswerReady:
		return "answer-ready"
	case EventAnswerFailed:
		return "answer-failed"
	case EventAnswerDiscarded:
		return "answer-discarded"
	default:
		return "unknown"
	}
}

// Event is delivered to listeners after the emitting controller's state is applied.
type Event struct {
	Kind EventKind
	// File is set on upload events.
	File *FileHandle
	// Result is set on EventUploaded.
	Result *backend.UploadResult
	// Err is set on EventUploadFailed and EventAnswerFailed.
	Err error
	// Mode is the chat mode after EventModeChanged, or the mode a request was issued under.
	Mode Mode
	// RequestID tags chat events with the request they belong to.
	RequestID string
	// Attempt numbers upload events so a completion can be matched to its start.
	Attempt int
}

// Listener receives events. It is always called outside controller locks and may call
// back into the controllers.
type Listener func(Event)

func emit(l Listener, ev Event) {
	if l != nil {
		l(ev)
	}
}
