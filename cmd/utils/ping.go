package utils

import (
	"context"
	"io"
	"net/http"
	"time"
)

// PingURL reports whether anything answers HTTP at base. Any status code counts as
// reachable: the backend exposes no health route, so only transport errors matter.
func PingURL(ctx context.Context, base string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base, nil)
	if err != nil {
		return 0, err
	}
	resp, err := GetHTTPClientWithTimeout(3 * time.Second).Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
