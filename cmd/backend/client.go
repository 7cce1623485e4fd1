package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"

	"github.com/google/uuid"

	"ragchat-cli/cmd/utils"
	"ragchat-cli/cmd/version"
)

// RequestIDHeader carries a per-request uuid so client and server logs can be joined.
const RequestIDHeader = "X-Request-ID"

// Client talks to the retrieval/inference backend. It is safe for concurrent use and
// its base URL may be swapped while requests are in flight.
type Client struct {
	mu      sync.RWMutex
	baseURL string
	http    utils.HTTPClient
}

// NewClient returns a client for baseURL. A nil httpClient uses the shared
// logging client from utils.
func NewClient(baseURL string, httpClient utils.HTTPClient) *Client {
	if httpClient == nil {
		httpClient = utils.GetHTTPClient()
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), http: httpClient}
}

// BaseURL returns the address requests are currently sent to.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetBaseURL points subsequent requests at a different backend.
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimSuffix(baseURL, "/")
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Upload sends r as the multipart field "file" to POST /upload.
func (c *Client) Upload(ctx context.Context, name, contentType string, r io.Reader) (*UploadResult, error) {
	const op = "upload"
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// the multipart body is streamed so the document is never held in memory
	pr, pw := io.Pipe()
	defer pr.Close()
	writer := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeFilePart(writer, name, contentType, r))
	}()

	body, err := c.do(ctx, op, "/upload", writer.FormDataContentType(), pr)
	if err != nil {
		return nil, err
	}

	var result UploadResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	if err := json.Unmarshal(body, &result.Fields); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &result, nil
}

func writeFilePart(writer *multipart.Writer, name, contentType string, r io.Reader) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(name)))
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	return writer.Close()
}

// Query asks a question against the indexed document via POST /query.
func (c *Client) Query(ctx context.Context, question string) (*QueryResponse, error) {
	var resp QueryResponse
	if err := c.postJSON(ctx, "query", "/query", QueryRequest{Question: question}, &resp); err != nil {
		return nil, err
	}
	if resp.Hits == nil {
		resp.Hits = []Hit{}
	}
	return &resp, nil
}

// Chat sends a general-knowledge message via POST /chat.
func (c *Client) Chat(ctx context.Context, message string) (*ChatResponse, error) {
	var resp ChatResponse
	if err := c.postJSON(ctx, "chat", "/chat", ChatRequest{Message: message}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) postJSON(ctx context.Context, op, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
	}
	body, err := c.do(ctx, op, path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, path, contentType string, body io.Reader) ([]byte, error) {
	url := utils.BuildURL(c.BaseURL(), path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set(RequestIDHeader, uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &BackendError{Op: op, StatusCode: resp.StatusCode, Message: utils.PrettyServerError(resp, data)}
	}
	if readErr != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("read response: %w", readErr)}
	}
	return data, nil
}
