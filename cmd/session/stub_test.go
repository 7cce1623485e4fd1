package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"ragchat-cli/cmd/backend"
)

var errStub = errors.New("stub failure")

// stubBackend answers from canned values. A non-nil gate holds the matching call
// until the gate is closed.
type stubBackend struct {
	mu sync.Mutex

	uploadGate, queryGate, chatGate chan struct{}

	uploadErr, queryErr, chatErr error
	uploadResult                 *backend.UploadResult
	queryResp                    *backend.QueryResponse
	chatResp                     *backend.ChatResponse

	uploads  []string
	bodies   []string
	queries  []string
	messages []string
}

func newStub() *stubBackend {
	return &stubBackend{
		uploadResult: &backend.UploadResult{Chunks: 5, DocID: "abcd1234", Status: "ok"},
		queryResp: &backend.QueryResponse{
			Answer: "The deadline is Friday.",
			Hits:   []backend.Hit{{ID: "abcd1234-0", Metadata: &backend.HitMetadata{Source: "policy.pdf", Chunk: intPtr(0)}}},
		},
		chatResp: &backend.ChatResponse{Reply: "Hi there!", ModelUsed: "stub-model"},
	}
}

func intPtr(i int) *int { return &i }

func (s *stubBackend) wait(gate chan struct{}) {
	if gate != nil {
		<-gate
	}
}

func (s *stubBackend) Upload(ctx context.Context, name, contentType string, r io.Reader) (*backend.UploadResult, error) {
	body, _ := io.ReadAll(r)
	s.mu.Lock()
	s.uploads = append(s.uploads, name)
	s.bodies = append(s.bodies, string(body))
	gate, err, res := s.uploadGate, s.uploadErr, s.uploadResult
	s.mu.Unlock()
	s.wait(gate)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *stubBackend) Query(ctx context.Context, question string) (*backend.QueryResponse, error) {
	s.mu.Lock()
	s.queries = append(s.queries, question)
	gate, err, resp := s.queryGate, s.queryErr, s.queryResp
	s.mu.Unlock()
	s.wait(gate)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *stubBackend) Chat(ctx context.Context, message string) (*backend.ChatResponse, error) {
	s.mu.Lock()
	s.messages = append(s.messages, message)
	gate, err, resp := s.chatGate, s.chatErr, s.chatResp
	s.mu.Unlock()
	s.wait(gate)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *stubBackend) counts() (uploads, queries, messages int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads), len(s.queries), len(s.messages)
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	if done == nil {
		t.Fatal("expected a request to be started, got nil done channel")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("request did not complete")
	}
}

// eventLog collects events delivered to a subscriber.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) record(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) kinds() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventKind, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Kind
	}
	return out
}

var testFile = NewMemoryFile("policy.txt", []byte("Refunds are accepted within 30 days."), "text/plain")
