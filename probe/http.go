package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPChecker is ready when a GET on the target URL answers 2xx or 3xx.
// Redirects are not followed, a 3xx already proves the server is serving.
type HTTPChecker struct {
	Client *http.Client
}

// NewHTTPChecker returns an HTTPChecker whose client never follows redirects.
func NewHTTPChecker() *HTTPChecker {
	return &HTTPChecker{Client: &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

// Check issues one GET bounded by ctx.
func (c *HTTPChecker) Check(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", "stackup-probe")

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return Unhealthy("http status %d", resp.StatusCode)
	}
	return nil
}
