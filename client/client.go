// Package client is the data side of the memo application: an HTTP client
// for the REST backend plus the retry, debounce and error-classification
// pieces shared by the cache and pagination layers in the subpackages.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"
)

type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
	retry   RetryPolicy
}

// New constructs a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}

	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		log:     zerolog.Nop(),
		retry:   DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Retry exposes the configured policy so the pagination controller reuses
// the same component instead of growing its own.
func (c *Client) Retry() RetryPolicy { return c.retry }

// Logger returns the client's logger for subcomponents.
func (c *Client) Logger() zerolog.Logger { return c.log }

// listEnvelope is the list response: the common envelope plus the
// pagination fields at the top level.
type listEnvelope struct {
	Success     bool   `json:"success"`
	Error       string `json:"error"`
	Message     string `json:"message"`
	Data        []Memo `json:"data"`
	FullData    []Memo `json:"fullData"`
	HasMore     bool   `json:"hasMore"`
	TotalCount  int    `json:"totalCount"`
	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
}

// GetMemos fetches one page (optionally with the full snapshot) under the
// retry policy. Mutations are never retried; reads are.
func (c *Client) GetMemos(ctx context.Context, q ListQuery) (*ListResult, error) {
	var res *ListResult
	err := c.retry.Do(ctx, c.log, "getMemo", func(ctx context.Context) error {
		r, err := c.getMemosOnce(ctx, q)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	return res, err
}

func (c *Client) getMemosOnce(ctx context.Context, q ListQuery) (*ListResult, error) {
	const op = "getMemo"

	vals := url.Values{}
	vals.Set("userId", q.UserID)
	if q.Message != "" {
		vals.Set("message", q.Message)
	}
	if q.Page > 0 {
		vals.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		vals.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.Full {
		vals.Set("full", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/getMemo?"+vals.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, newTransportError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body listEnvelope
	if decErr := json.NewDecoder(resp.Body).Decode(&body); decErr != nil && resp.StatusCode == http.StatusOK {
		return nil, newTransportError(op, decErr)
	}
	env := envelope{Success: body.Success, Error: body.Error, Message: body.Message}
	if err := checkEnvelope(op, resp.StatusCode, env); err != nil {
		return nil, err
	}

	return &ListResult{
		Data:        body.Data,
		FullData:    body.FullData,
		HasMore:     body.HasMore,
		TotalCount:  body.TotalCount,
		CurrentPage: body.CurrentPage,
		TotalPages:  body.TotalPages,
	}, nil
}

// PutMemo creates a memo and returns the server record with its issued id.
func (c *Client) PutMemo(ctx context.Context, userID, message string) (*Memo, error) {
	return c.mutate(ctx, "putMemo", http.MethodPost, "/api/putMemo", map[string]string{
		"message": message,
		"userId":  userID,
	})
}

// UpdateMemo replaces the message of an owned memo.
func (c *Client) UpdateMemo(ctx context.Context, id, userID, message string) (*Memo, error) {
	return c.mutate(ctx, "updateMemo", http.MethodPatch, "/api/updateMemo", map[string]string{
		"_id":     id,
		"message": message,
		"userId":  userID,
	})
}

// DeleteMemo removes an owned memo and returns the deleted record.
func (c *Client) DeleteMemo(ctx context.Context, id, userID string) (*Memo, error) {
	path := "/api/deleteMemo/" + url.PathEscape(id) + "?userId=" + url.QueryEscape(userID)
	return c.mutate(ctx, "deleteMemo", http.MethodDelete, path, nil)
}

func (c *Client) mutate(ctx context.Context, op, method, path string, body map[string]string) (*Memo, error) {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, newTransportError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if decErr := json.NewDecoder(resp.Body).Decode(&env); decErr != nil && resp.StatusCode == http.StatusOK {
		return nil, newTransportError(op, decErr)
	}
	if err := checkEnvelope(op, resp.StatusCode, env); err != nil {
		return nil, err
	}

	var m Memo
	if err := json.Unmarshal(env.Data, &m); err != nil {
		return nil, fmt.Errorf("%s: decode data: %w", op, err)
	}
	return &m, nil
}

// checkEnvelope turns a non-success response into a classified error. 404s
// unwrap to ErrNotFound so ownership and missing-record failures are
// distinguishable from transient ones.
func checkEnvelope(op string, status int, env envelope) error {
	if status == http.StatusNotFound {
		return &APIError{
			Category:   Irrecoverable,
			StatusCode: status,
			Message:    env.failure(),
			Underlying: fmt.Errorf("%s: %w", op, ErrNotFound),
		}
	}
	if status < 200 || status >= 300 {
		return newHTTPError(status, env.failure(), op)
	}
	if !env.Success {
		return &APIError{
			Category:   Recoverable,
			StatusCode: status,
			Message:    env.failure(),
			Underlying: fmt.Errorf("%s: server reported failure: %s", op, env.failure()),
		}
	}
	return nil
}
