package session

import (
	"context"
	"io"

	"ragchat-cli/cmd/backend"
)

// Uploader sends a document to the indexing backend.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader) (*backend.UploadResult, error)
}

// Responder answers questions in either mode.
type Responder interface {
	Query(ctx context.Context, question string) (*backend.QueryResponse, error)
	Chat(ctx context.Context, message string) (*backend.ChatResponse, error)
}

// Backend is everything a session needs from the server. *backend.Client implements it.
type Backend interface {
	Uploader
	Responder
}

var _ Backend = (*backend.Client)(nil)
