// Package export fetches exported transcript documents over HTTP.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultURLTemplate exports a Google Doc as HTML. {id} is replaced with the
// escaped document ID.
const DefaultURLTemplate = "https://docs.google.com/document/d/{id}/export?format=html"

// MaxDocumentBytes caps how much of an export response is read.
const MaxDocumentBytes = 32 << 20

// ErrNotFound is returned when the export endpoint has no such document.
var ErrNotFound = errors.New("document not found")

// Client downloads exported documents.
type Client struct {
	urlTemplate string
	token       string
	httpClient  *http.Client
}

func NewClient(urlTemplate, token string, timeout time.Duration) *Client {
	if urlTemplate == "" {
		urlTemplate = DefaultURLTemplate
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		urlTemplate: urlTemplate,
		token:       token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// URL returns the export URL for a document ID.
func (c *Client) URL(docID string) string {
	return strings.ReplaceAll(c.urlTemplate, "{id}", url.PathEscape(docID))
}

// Fetch downloads the exported markup for docID.
func (c *Client) Fetch(ctx context.Context, docID string) ([]byte, error) {
	if strings.TrimSpace(docID) == "" {
		return nil, fmt.Errorf("fetch document: empty id")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(docID), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &RetryableError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("fetch document %s: %w", docID, ErrNotFound)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("fetch document %s: status %d: %s", docID, resp.StatusCode, string(respBody))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", docID, err)
	}
	if len(body) > MaxDocumentBytes {
		return nil, fmt.Errorf("fetch document %s: larger than %d bytes", docID, MaxDocumentBytes)
	}
	return body, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("retryable error: %s", truncate(e.Message, 200))
	}
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
