package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/ihya/internal/citation"
)

// Request is the body sent to a matching oracle.
type Request struct {
	Tokens   []string `json:"tokens"`
	Selector string   `json:"selector"`
}

// HTTP calls a matching service over HTTP. The service receives a Request as
// JSON on POST /match and answers with a citation.Result.
type HTTP struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTP(baseURL, apiKey string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Match posts tokens to the service and decodes its matches.
func (c *HTTP) Match(ctx context.Context, tokens []string, selector string) (citation.Result, error) {
	body, err := json.Marshal(Request{Tokens: tokens, Selector: selector})
	if err != nil {
		return citation.Result{}, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/match", bytes.NewReader(body))
	if err != nil {
		return citation.Result{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return citation.Result{}, fmt.Errorf("match: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return citation.Result{}, &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return citation.Result{}, fmt.Errorf("match: status %d: %s", resp.StatusCode, string(respBody))
	}

	var result citation.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return citation.Result{}, fmt.Errorf("decode matches: %w", err)
	}
	return result, nil
}

// Close releases idle connections.
func (c *HTTP) Close() {
	c.httpClient.CloseIdleConnections()
}

// RetryableError indicates a transient failure of the matching service.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	msg := e.Message
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return fmt.Sprintf("retryable oracle error (status %d): %s", e.StatusCode, msg)
}

func (e *RetryableError) Retryable() bool { return true }
