// Package fakebackend serves the /upload, /query and /chat contract in-process so the
// client and the commands can be tested without a real retrieval backend.
package fakebackend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	// ChunkSize is how many bytes of an uploaded document go into one chunk.
	ChunkSize = 800
	// ModelName is reported as model_used on /chat replies.
	ModelName = "fake-model"
	maxHits   = 6
)

// Upload records one received file.
type Upload struct {
	Filename    string
	ContentType string
	Size        int
	DocID       string
}

type chunk struct {
	id, docID, source, text string
	index                   int
}

// Server is a fake backend running on an httptest server.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	failures   map[string]int
	gates      map[string]chan struct{}
	omitHits   bool
	uploads    []Upload
	queries    []string
	messages   []string
	requestIDs []string
	chunks     []chunk
}

// New starts a fake backend. Callers must Close it.
func New() *Server {
	s := &Server{
		failures: make(map[string]int),
		gates:    make(map[string]chan struct{}),
	}
	s.Server = httptest.NewServer(s.Handler())
	return s
}

// Handler returns the chi router implementing the backend contract.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Post("/upload", s.handleUpload)
	r.Post("/query", s.handleQuery)
	r.Post("/chat", s.handleChat)
	return r
}

// Fail makes every request to route ("/upload", "/query", "/chat") answer with status.
// A status of 0 restores normal behaviour.
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = status
}

// Hold parks requests to route until the returned release func is called.
func (s *Server) Hold(route string) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gates[route] = gate
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.gates[route] == gate {
				delete(s.gates, route)
			}
			s.mu.Unlock()
			close(gate)
		})
	}
}

// OmitHits makes /query leave the hits field out of its reply.
func (s *Server) OmitHits(omit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.omitHits = omit
}

// Uploads returns the files received so far.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

// Queries returns the questions received on /query.
func (s *Server) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// Messages returns the messages received on /chat.
func (s *Server) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

// RequestIDs returns the X-Request-ID header of every request in arrival order.
func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requestIDs = append(s.requestIDs, r.Header.Get("X-Request-ID"))
		gate := s.gates[r.URL.Path]
		status := s.failures[r.URL.Path]
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			writeError(w, status, fmt.Sprintf("injected failure on %s", r.URL.Path))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read upload")
		return
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		writeError(w, http.StatusBadRequest, "No text extracted from file")
		return
	}

	docID := uuid.NewString()[:8]
	s.mu.Lock()
	n := 0
	for i := 0; i < len(text); i += ChunkSize {
		end := min(i+ChunkSize, len(text))
		s.chunks = append(s.chunks, chunk{
			id:     fmt.Sprintf("%s-%d", docID, n),
			docID:  docID,
			source: header.Filename,
			text:   text[i:end],
			index:  n,
		})
		n++
	}
	s.uploads = append(s.uploads, Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        len(data),
		DocID:       docID,
	})
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "doc_id": docID, "chunks": n})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, "question required")
		return
	}

	s.mu.Lock()
	s.queries = append(s.queries, question)
	omit := s.omitHits
	hits := make([]map[string]any, 0, maxHits)
	words := strings.Fields(strings.ToLower(question))
	for _, c := range s.chunks {
		if len(hits) == maxHits {
			break
		}
		lower := strings.ToLower(c.text)
		for _, word := range words {
			if strings.Contains(lower, word) {
				hits = append(hits, map[string]any{
					"id":       c.id,
					"text":     c.text,
					"metadata": map[string]any{"doc_id": c.docID, "source": c.source, "chunk": c.index},
				})
				break
			}
		}
	}
	s.mu.Unlock()

	resp := map[string]any{"answer": "Based on the document: " + question}
	if !omit {
		resp["hits"] = hits
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "No message provided")
		return
	}

	s.mu.Lock()
	s.messages = append(s.messages, req.Message)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"model_used": ModelName, "reply": "You said: " + req.Message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
