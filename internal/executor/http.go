// Package executor provides the shipped ActionExecutor: an HTTP client that
// turns a task's payload into an outbound request. This is illustrative, not
// normative — the core only depends on the Execute(ctx, task) signature.
package executor

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/avbraun/durasched/internal/domain"
)

const defaultTimeout = 30 * time.Second

// HTTPExecutor performs an HTTP request described by a task's payload:
// url (required), method (default GET), headers (optional), body (optional).
type HTTPExecutor struct {
	client *http.Client
}

// New builds an HTTPExecutor with a connection-reusing client, mirroring the
// teacher's worker executor: bounded idle conns, a TLS floor, and a capped
// redirect chain.
func New() *HTTPExecutor {
	return &HTTPExecutor{
		client: &http.Client{
			Timeout: 5 * time.Minute,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
	}
}

// Execute satisfies service.ActionExecutor.
func (e *HTTPExecutor) Execute(ctx context.Context, task *domain.Task) (map[string]any, error) {
	url, _ := task.Payload["url"].(string)
	if url == "" {
		return nil, fmt.Errorf("payload missing required \"url\" field")
	}

	method, _ := task.Payload["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if body, ok := task.Payload["body"].(string); ok && body != "" {
		bodyReader = strings.NewReader(body)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if headers, ok := task.Payload["headers"].(map[string]any); ok {
		for k, v := range headers {
			if s, ok := v.(string); ok {
				req.Header.Set(k, s)
			}
		}
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return map[string]any{
		"status":   resp.StatusCode,
		"response": string(respBody),
	}, nil
}
