package backend

// UploadResult is the backend's acknowledgment of an indexed document.
type UploadResult struct {
	Chunks int    `json:"chunks"`
	DocID  string `json:"doc_id,omitempty"`
	Status string `json:"status,omitempty"`
	// Fields holds every field of the acknowledgment, including ones not modelled above.
	Fields map[string]any `json:"-"`
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Question string `json:"question"`
}

// QueryResponse is a Document-mode answer with the passages it was grounded on.
type QueryResponse struct {
	Answer string `json:"answer"`
	Hits   []Hit  `json:"hits"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is a General-mode reply.
type ChatResponse struct {
	Reply     string `json:"reply"`
	ModelUsed string `json:"model_used,omitempty"`
}

// Hit is one retrieved passage.
type Hit struct {
	ID       string       `json:"id"`
	Metadata *HitMetadata `json:"metadata,omitempty"`
	Text     string       `json:"text,omitempty"`
}

// HitMetadata locates a passage inside an uploaded document. Any field may be absent.
type HitMetadata struct {
	Source string `json:"source,omitempty"`
	Chunk  *int   `json:"chunk,omitempty"`
	DocID  string `json:"doc_id,omitempty"`
}
