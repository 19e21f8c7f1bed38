// Package collection provides an HTTP client for a REST /users collection.
package collection

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

	"github.com/lllypuk/userlist/internal/domain/user"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBodySize   = 4 << 10
	usersPath          = "/users"
)

// ErrCanceled is returned when the caller cancels the context before the call settles.
// It is an outcome of its own, distinct from a failure.
var ErrCanceled = errors.New("request canceled")

// StatusError is returned when the collection answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status code %d", e.Code)
}

// IsCanceled reports whether err is the canceled outcome.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Message returns the text shown to users for err: the status line for a
// non-2xx answer, the transport cause for a failed round trip, otherwise
// err's own text. Operation prefixes added by Client are dropped.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Error()
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}

// ClientConfig contains configuration for Client.
type ClientConfig struct {
	// BaseURL is the URL the /users path is appended to.
	BaseURL string

	// ReplaceMethod is the HTTP verb used by Replace: PATCH (default) or PUT.
	ReplaceMethod string

	// Timeout bounds a single request when HTTPClient is not set.
	Timeout time.Duration

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client
}

// Client talks to the collection endpoint.
type Client struct {
	baseURL       string
	replaceMethod string
	httpClient    *http.Client
}

// NewClient creates a new collection client.
func NewClient(config ClientConfig) *Client {
	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	method := strings.ToUpper(config.ReplaceMethod)
	if method != http.MethodPut {
		method = http.MethodPatch
	}

	return &Client{
		baseURL:       strings.TrimSuffix(config.BaseURL, "/"),
		replaceMethod: method,
		httpClient:    httpClient,
	}
}

// ListAll returns every record of the collection.
func (c *Client) ListAll(ctx context.Context) ([]user.Record, error) {
	var users []user.Record
	if err := c.do(ctx, http.MethodGet, c.baseURL+usersPath, nil, &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []user.Record{}
	}
	return users, nil
}

// Create posts rec and returns the record as stored by the server.
func (c *Client) Create(ctx context.Context, rec user.Record) (user.Record, error) {
	var created user.Record
	if err := c.do(ctx, http.MethodPost, c.baseURL+usersPath, rec, &created); err != nil {
		return user.Record{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// Replace sends rec to /users/{id} and returns the server's version.
// A server that answers with an empty body yields rec unchanged.
func (c *Client) Replace(ctx context.Context, rec user.Record) (user.Record, error) {
	reqURL := fmt.Sprintf("%s%s/%d", c.baseURL, usersPath, rec.ID)

	var updated *user.Record
	if err := c.do(ctx, c.replaceMethod, reqURL, rec, &updated); err != nil {
		return user.Record{}, fmt.Errorf("replace user %d: %w", rec.ID, err)
	}
	if updated == nil {
		return rec, nil
	}
	return *updated, nil
}

// Remove deletes the record with id.
func (c *Client) Remove(ctx context.Context, id int) error {
	reqURL := fmt.Sprintf("%s%s/%d", c.baseURL, usersPath, id)
	if err := c.do(ctx, http.MethodDelete, reqURL, nil, nil); err != nil {
		return fmt.Errorf("remove user %d: %w", id, err)
	}
	return nil
}

// do performs one request. The result is decoded into out when out is not nil
// and the response has a body.
func (c *Client) do(ctx context.Context, method, reqURL string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return settle(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return settle(ctx, &StatusError{Code: resp.StatusCode, Body: string(errBody)})
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		decodeErr := json.NewDecoder(resp.Body).Decode(out)
		if decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
			return settle(ctx, fmt.Errorf("failed to decode response: %w", decodeErr))
		}
	}

	return settle(ctx, nil)
}

// settle turns any outcome into ErrCanceled once ctx has been canceled, so a
// cancel issued before the caller sees the result wins over success and failure.
func settle(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ErrCanceled
	}
	return err
}
