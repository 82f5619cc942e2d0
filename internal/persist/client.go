// Package persist talks to the annotation backend: a REST-like,
// bearer-token authenticated service holding annotations and
// bookmarks keyed by book id.
//
// A 404 on fetch means "no data yet" and yields an empty list, not an
// error. A 404 on delete means the resource was already evicted
// remotely and is a silent no-op.
package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dshills/folio/internal/annotation"
)

// Client errors.
var (
	// ErrUnauthorized is returned for 401/403 responses.
	ErrUnauthorized = errors.New("persist: unauthorized")
	// ErrServer is returned for any other non-success response.
	ErrServer = errors.New("persist: server error")
)

// DefaultTimeout bounds each request.
const DefaultTimeout = 15 * time.Second

// Client is the persistence collaborator.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// NewClient creates a client for the backend at baseURL. A zero
// timeout uses DefaultTimeout.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// Annotations fetches every annotation of a book.
func (c *Client) Annotations(ctx context.Context, bookID string) ([]annotation.Annotation, error) {
	var out []annotation.Annotation
	err := c.do(ctx, http.MethodGet, c.bookPath(bookID, "annotations"), nil, &out)
	return out, err
}

// CreateAnnotation stores a new annotation.
func (c *Client) CreateAnnotation(ctx context.Context, bookID string, a annotation.Annotation) error {
	return c.do(ctx, http.MethodPost, c.bookPath(bookID, "annotations"), a, nil)
}

// UpdateAnnotation patches note and/or color of one annotation. Nil
// fields are omitted from the request body.
func (c *Client) UpdateAnnotation(ctx context.Context, bookID, id string, note, color *string) error {
	body := struct {
		Note  *string `json:"note,omitempty"`
		Color *string `json:"color,omitempty"`
	}{Note: note, Color: color}
	return c.do(ctx, http.MethodPatch, c.itemPath(bookID, "annotations", id), body, nil)
}

// DeleteAnnotation removes one annotation. A remote 404 is a no-op.
func (c *Client) DeleteAnnotation(ctx context.Context, bookID, id string) error {
	return c.do(ctx, http.MethodDelete, c.itemPath(bookID, "annotations", id), nil, nil)
}

// Bookmarks fetches every bookmark of a book.
func (c *Client) Bookmarks(ctx context.Context, bookID string) ([]annotation.Bookmark, error) {
	var out []annotation.Bookmark
	err := c.do(ctx, http.MethodGet, c.bookPath(bookID, "bookmarks"), nil, &out)
	return out, err
}

// CreateBookmark stores a new bookmark.
func (c *Client) CreateBookmark(ctx context.Context, bookID string, b annotation.Bookmark) error {
	return c.do(ctx, http.MethodPost, c.bookPath(bookID, "bookmarks"), b, nil)
}

// DeleteBookmark removes one bookmark. A remote 404 is a no-op.
func (c *Client) DeleteBookmark(ctx context.Context, bookID, id string) error {
	return c.do(ctx, http.MethodDelete, c.itemPath(bookID, "bookmarks", id), nil, nil)
}

func (c *Client) bookPath(bookID, collection string) string {
	return fmt.Sprintf("%s/books/%s/%s", c.baseURL, url.PathEscape(bookID), collection)
}

func (c *Client) itemPath(bookID, collection, id string) string {
	return fmt.Sprintf("%s/%s", c.bookPath(bookID, collection), url.PathEscape(id))
}

// do performs one request. body, when non-nil, is sent as JSON; out,
// when non-nil, receives the decoded response.
func (c *Client) do(ctx context.Context, method, rawURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("persist: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("persist: build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("persist: %s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// No data (fetch) or already gone (delete). Either way the
		// caller proceeds with nothing.
		return nil
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: %s %s: status %d", ErrServer, method, rawURL, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("persist: decode response: %w", err)
		}
	}
	return nil
}
