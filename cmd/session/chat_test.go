package session

import (
	"context"
	"testing"

	"ragchat-cli/cmd/backend"
)

func TestSubmit_EmptyQuestionIsNoop(t *testing.T) {
	for _, q := range []string{"", "   ", "\n\t"} {
		stub := newStub()
		c := NewChatController(stub, ApplyToCurrentMode)
		c.SetQuestion(q)

		if done := c.Submit(context.Background()); done != nil {
			t.Fatalf("Submit(%q) should return nil", q)
		}
		snap := c.Snapshot()
		if snap.Status != TurnIdle || snap.Answer != "" || snap.Pending {
			t.Errorf("state changed for %q: %+v", q, snap)
		}
		if _, qn, mn := stub.counts(); qn+mn != 0 {
			t.Errorf("no request expected for %q", q)
		}
	}
}

func TestSubmit_GeneralMode(t *testing.T) {
	stub := newStub()
	stub.chatGate = make(chan struct{})
	c := NewChatController(stub, ApplyToCurrentMode)
	var events eventLog
	c.SetListener(events.record)

	c.SetQuestion("Hello")
	done := c.Submit(context.Background())

	snap := c.Snapshot()
	if !snap.Pending || snap.Status != TurnPending {
		t.Fatalf("expected pending, got %+v", snap)
	}
	if snap.Answer != ThinkingPlaceholder {
		t.Errorf("Answer = %q, want placeholder", snap.Answer)
	}
	if again := c.Submit(context.Background()); again != nil {
		t.Fatal("Submit while pending should return nil")
	}

	close(stub.chatGate)
	waitDone(t, done)

	snap = c.Snapshot()
	if snap.Pending || snap.Status != TurnAnswered {
		t.Fatalf("expected answered, got %+v", snap)
	}
	if snap.Answer != "Hi there!" {
		t.Errorf("Answer = %q", snap.Answer)
	}
	if snap.Model != "stub-model" {
		t.Errorf("Model = %q", snap.Model)
	}
	if len(snap.Sources) != 0 {
		t.Errorf("General mode must not show sources, got %v", snap.Sources)
	}
	if snap.Question != "Hello" {
		t.Errorf("Question = %q, want it kept", snap.Question)
	}
	if _, qn, mn := stub.counts(); qn != 0 || mn != 1 {
		t.Errorf("queries=%d messages=%d, want 0/1", qn, mn)
	}
	if kinds := events.kinds(); len(kinds) != 2 || kinds[0] != EventAnswerPending || kinds[1] != EventAnswerReady {
		t.Errorf("events = %v", kinds)
	}
}

func TestSubmit_DocumentMode(t *testing.T) {
	stub := newStub()
	c := NewChatController(stub, ApplyToCurrentMode)
	c.SetMode(true)
	c.SetQuestion("What is the deadline?")

	waitDone(t, c.Submit(context.Background()))

	snap := c.Snapshot()
	if snap.Answer != "The deadline is Friday." {
		t.Errorf("Answer = %q", snap.Answer)
	}
	if len(snap.Sources) != 1 || snap.Sources[0].Metadata.Source != "policy.pdf" {
		t.Errorf("Sources = %+v", snap.Sources)
	}
	if stub.queries[0] != "What is the deadline?" {
		t.Errorf("query sent = %q", stub.queries[0])
	}
	if _, _, mn := stub.counts(); mn != 0 {
		t.Errorf("/chat must not be called in document mode")
	}
}

func TestSubmit_DocumentModeWithoutHits(t *testing.T) {
	stub := newStub()
	stub.queryResp = &backend.QueryResponse{Answer: "Nothing relevant."}
	c := NewChatController(stub, ApplyToCurrentMode)
	c.SetMode(true)
	c.SetQuestion("anything")

	waitDone(t, c.Submit(context.Background()))
	snap := c.Snapshot()
	if snap.Answer != "Nothing relevant." || len(snap.Sources) != 0 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestSubmit_Failure(t *testing.T) {
	tests := []struct {
		name    string
		indexed bool
		setup   func(*stubBackend)
	}{
		{"chat transport", false, func(s *stubBackend) { s.chatErr = errStub }},
		{"query backend error", true, func(s *stubBackend) {
			s.queryErr = &backend.BackendError{Op: "query", StatusCode: 500, Message: "boom"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newStub()
			tt.setup(stub)
			c := NewChatController(stub, ApplyToCurrentMode)
			c.SetMode(tt.indexed)
			c.SetQuestion("Why?")

			waitDone(t, c.Submit(context.Background()))
			snap := c.Snapshot()
			if snap.Answer != ChatErrorText {
				t.Errorf("Answer = %q, want %q", snap.Answer, ChatErrorText)
			}
			if snap.Status != TurnFailed || snap.Pending {
				t.Errorf("Status = %v Pending = %v", snap.Status, snap.Pending)
			}
			if len(snap.Sources) != 0 {
				t.Errorf("Sources must be cleared, got %v", snap.Sources)
			}
			if snap.LastError == nil {
				t.Error("LastError should be recorded")
			}
		})
	}
}

func TestSubmit_FailureThenRetry(t *testing.T) {
	stub := newStub()
	stub.chatErr = errStub
	c := NewChatController(stub, ApplyToCurrentMode)
	c.SetQuestion("again")
	waitDone(t, c.Submit(context.Background()))

	stub.mu.Lock()
	stub.chatErr = nil
	stub.mu.Unlock()
	waitDone(t, c.Submit(context.Background()))
	if got := c.Snapshot(); got.Status != TurnAnswered || got.LastError != nil {
		t.Errorf("retry should succeed, got %+v", got)
	}
}

func TestSetMode_ClearsAnswerKeepsQuestion(t *testing.T) {
	stub := newStub()
	c := NewChatController(stub, ApplyToCurrentMode)
	c.SetMode(true)
	c.SetQuestion("What is the deadline?")
	waitDone(t, c.Submit(context.Background()))

	var events eventLog
	c.SetListener(events.record)

	c.SetMode(true)
	if snap := c.Snapshot(); snap.Answer == "" || len(snap.Sources) == 0 {
		t.Fatal("setting the same mode must not clear the answer")
	}
	if len(events.kinds()) != 0 {
		t.Errorf("no event expected for an unchanged mode, got %v", events.kinds())
	}

	c.SetMode(false)
	snap := c.Snapshot()
	if snap.Mode != ModeGeneral {
		t.Errorf("Mode = %v", snap.Mode)
	}
	if snap.Answer != "" || len(snap.Sources) != 0 {
		t.Errorf("mode change must clear answer and sources, got %+v", snap)
	}
	if snap.Status != TurnIdle {
		t.Errorf("Status = %v, want idle", snap.Status)
	}
	if snap.Question != "What is the deadline?" {
		t.Errorf("Question = %q, want it kept", snap.Question)
	}
	if kinds := events.kinds(); len(kinds) != 1 || kinds[0] != EventModeChanged {
		t.Errorf("events = %v", kinds)
	}
}

func TestClear(t *testing.T) {
	c := NewChatController(newStub(), ApplyToCurrentMode)
	c.SetMode(true)
	c.SetQuestion("q")
	waitDone(t, c.Submit(context.Background()))

	c.Clear()
	snap := c.Snapshot()
	if snap.Question != "" || snap.Answer != "" || len(snap.Sources) != 0 {
		t.Errorf("Clear left state behind: %+v", snap)
	}
	if snap.Mode != ModeDocument {
		t.Errorf("Clear must not touch the mode, got %v", snap.Mode)
	}
}

func TestClear_WhilePendingKeepsPending(t *testing.T) {
	stub := newStub()
	stub.chatGate = make(chan struct{})
	c := NewChatController(stub, ApplyToCurrentMode)
	c.SetQuestion("slow")
	done := c.Submit(context.Background())

	c.Clear()
	if !c.Snapshot().Pending {
		t.Fatal("Clear must not reset a pending request")
	}
	close(stub.chatGate)
	waitDone(t, done)
	if c.Snapshot().Pending {
		t.Error("request should end with pending false")
	}
}

func TestMidFlightModeSwitch_AppliesToCurrentMode(t *testing.T) {
	stub := newStub()
	stub.chatGate = make(chan struct{})
	c := NewChatController(stub, ApplyToCurrentMode)
	c.SetQuestion("Hello")
	done := c.Submit(context.Background())

	c.SetMode(true)
	if snap := c.Snapshot(); !snap.Pending || snap.Answer != "" {
		t.Fatalf("mode switch should clear the placeholder and keep pending, got %+v", snap)
	}

	close(stub.chatGate)
	waitDone(t, done)

	snap := c.Snapshot()
	if snap.Mode != ModeDocument {
		t.Fatalf("Mode = %v", snap.Mode)
	}
	if snap.Answer != "Hi there!" {
		t.Errorf("late General reply should be shown under the current mode, got %q", snap.Answer)
	}
	if len(snap.Sources) != 0 {
		t.Errorf("a General reply never carries sources, got %v", snap.Sources)
	}
}

func TestMidFlightModeSwitch_DocumentReplyAfterLeavingDocument(t *testing.T) {
	stub := newStub()
	stub.queryGate = make(chan struct{})
	c := NewChatController(stub, ApplyToCurrentMode)
	c.SetMode(true)
	c.SetQuestion("What is the deadline?")
	done := c.Submit(context.Background())

	c.SetMode(false)
	close(stub.queryGate)
	waitDone(t, done)

	snap := c.Snapshot()
	if snap.Answer != "The deadline is Friday." {
		t.Errorf("Answer = %q", snap.Answer)
	}
	if len(snap.Sources) != 0 {
		t.Errorf("sources from another mode must not be displayed, got %v", snap.Sources)
	}
}

func TestMidFlightModeSwitch_DiscardStale(t *testing.T) {
	stub := newStub()
	stub.chatGate = make(chan struct{})
	c := NewChatController(stub, DiscardStale)
	var events eventLog
	c.SetListener(events.record)

	c.SetQuestion("Hello")
	done := c.Submit(context.Background())
	c.SetMode(true)
	close(stub.chatGate)
	waitDone(t, done)

	snap := c.Snapshot()
	if snap.Answer != "" || snap.Pending || snap.Status != TurnIdle {
		t.Errorf("stale reply should be dropped, got %+v", snap)
	}
	kinds := events.kinds()
	if kinds[len(kinds)-1] != EventAnswerDiscarded {
		t.Errorf("last event = %v, want answer-discarded", kinds[len(kinds)-1])
	}
}

func TestDiscardStale_SameModeStillApplies(t *testing.T) {
	c := NewChatController(newStub(), DiscardStale)
	c.SetQuestion("Hello")
	waitDone(t, c.Submit(context.Background()))
	if got := c.Snapshot().Answer; got != "Hi there!" {
		t.Errorf("Answer = %q", got)
	}
}

func TestSubmitTagsEachRequest(t *testing.T) {
	c := NewChatController(newStub(), ApplyToCurrentMode)
	c.SetQuestion("one")
	waitDone(t, c.Submit(context.Background()))
	first := c.Snapshot().RequestID
	waitDone(t, c.Submit(context.Background()))
	second := c.Snapshot().RequestID
	if first == "" || first == second {
		t.Errorf("request ids should be unique, got %q and %q", first, second)
	}
}

func TestModeLabels(t *testing.T) {
	if ModeGeneral.Label() != "General Chat" || ModeDocument.Label() != "Document Mode" {
		t.Error("unexpected mode labels")
	}
}
