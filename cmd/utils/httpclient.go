package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// HTTPClient interface for testing
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultHTTPClient sends requests with a plain net/http client. A zero Timeout
// means requests run until the server answers.
type DefaultHTTPClient struct{ Timeout time.Duration }

// Do implements the HTTPClient interface
func (c *DefaultHTTPClient) Do(req *http.Request) (*http.Response, error) {
	client := &http.Client{Timeout: c.Timeout}
	return client.Do(req)
}

var (
	httpClientMu sync.RWMutex
	httpClient   HTTPClient = &DefaultHTTPClient{}
)

const maxLoggedBody = 1024

// LogBodyContent reads body for logging and returns an equivalent unread body.
// Multipart bodies are streamed through untouched and only their size is logged.
func LogBodyContent(body io.ReadCloser, contentType, label string) io.ReadCloser {
	if body == nil {
		LogDebug(fmt.Sprintf("  -> %s: <nil>", label))
		return nil
	}
	if strings.HasPrefix(strings.ToLower(contentType), "multipart/") {
		return &countingBody{ReadCloser: body, label: label}
	}
	data, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		LogDebug(fmt.Sprintf("  -> %s: <error reading: %v>", label, err))
		return io.NopCloser(bytes.NewReader(nil))
	}

	switch {
	case len(data) == 0:
		LogDebug(fmt.Sprintf("  -> %s: <empty>", label))
	default:
		s := string(data)
		if len(s) > maxLoggedBody {
			s = s[:maxLoggedBody] + "... (truncated)"
		}
		LogDebug(fmt.Sprintf("  -> %s: %s", label, s))
	}
	return io.NopCloser(bytes.NewReader(data))
}

// countingBody logs how many bytes passed through once the body is drained or closed.
type countingBody struct {
	io.ReadCloser
	label string
	n     int64
	once  sync.Once
}

func (b *countingBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	b.n += int64(n)
	if err == io.EOF {
		b.report()
	}
	return n, err
}

func (b *countingBody) Close() error {
	b.report()
	return b.ReadCloser.Close()
}

func (b *countingBody) report() {
	b.once.Do(func() {
		LogDebug(fmt.Sprintf("  -> %s: <multipart, streamed %s>", b.label, FormatBytes(b.n)))
	})
}

// VerboseHTTPClient wraps another HTTPClient and logs request/response basics and headers.
type VerboseHTTPClient struct{ Inner HTTPClient }

func (v *VerboseHTTPClient) Do(req *http.Request) (*http.Response, error) {
	inner := v.Inner
	if inner == nil {
		inner = &DefaultHTTPClient{}
	}
	LogDebug(fmt.Sprintf("HTTP %s %s", req.Method, req.URL.String()))
	LogHeaders("request", req.Header)
	if req.Body != nil {
		req.Body = LogBodyContent(req.Body, req.Header.Get("Content-Type"), "request body")
	}

	resp, err := inner.Do(req)
	if err != nil {
		LogDebug(fmt.Sprintf("  -> error: %v", err))
		return nil, err
	}
	LogDebug(fmt.Sprintf("  -> %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	LogHeaders("response", resp.Header)
	resp.Body = LogBodyContent(resp.Body, resp.Header.Get("Content-Type"), "response body")
	return resp, nil
}

// GetHTTPClient returns the shared client wrapped with debug logging.
func GetHTTPClient() HTTPClient {
	httpClientMu.RLock()
	defer httpClientMu.RUnlock()
	return &VerboseHTTPClient{Inner: httpClient}
}

// GetHTTPClientWithTimeout returns a logging client with its own timeout.
func GetHTTPClientWithTimeout(timeout time.Duration) HTTPClient {
	return &VerboseHTTPClient{Inner: &DefaultHTTPClient{Timeout: timeout}}
}

// SetHTTPClientForTest replaces the shared client. Passing nil restores the default.
func SetHTTPClientForTest(client HTTPClient) {
	httpClientMu.Lock()
	defer httpClientMu.Unlock()
	if client == nil {
		client = &DefaultHTTPClient{}
	}
	httpClient = client
}

var sensitiveHeaders = map[string]struct{}{
	"authorization":       {},
	"proxy-authorization": {},
	"cookie":              {},
	"set-cookie":          {},
	"x-api-key":           {},
	"api-key":             {},
	"x-auth-token":        {},
	"x-access-token":      {},
	"x-csrf-token":        {},
	"www-authenticate":    {},
	"x-forwarded-for":     {},
	"x-real-ip":           {},
}

// LogHeaders writes headers in sorted order with credentials redacted.
func LogHeaders(kind string, hdr http.Header) {
	if len(hdr) == 0 {
		return
	}
	keys := make([]string, 0, len(hdr))
	for k := range hdr {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, redact := sensitiveHeaders[strings.ToLower(k)]
		for _, v := range hdr.Values(k) {
			if redact {
				v = "[REDACTED]"
			}
			LogDebug(fmt.Sprintf("  %s header: %s: %s", kind, k, v))
		}
	}
}

// PrettyServerError extracts a readable message from an error response body.
// It understands {"error":...}, {"message":...} and {"detail":...} envelopes and
// falls back to the raw body or the status text.
func PrettyServerError(resp *http.Response, body []byte) string {
	var env struct {
		Detail  any    `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &env) == nil {
		if s, ok := env.Detail.(string); ok && s != "" {
			return s
		}
		if m, ok := env.Detail.(map[string]any); ok {
			if s, ok := m["message"].(string); ok && s != "" {
				return s
			}
		}
		if env.Error != "" {
			return env.Error
		}
		if env.Message != "" {
			return env.Message
		}
	}
	s := strings.TrimSpace(string(body))
	if s == "" && resp != nil {
		return http.StatusText(resp.StatusCode)
	}
	return s
}
