// Package remote talks to the habit backend and maps its records onto the
// local model.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/logger"
)

var (
	// ErrUnauthorized is returned for 401 responses. The token is missing
	// or expired.
	ErrUnauthorized = errors.New("remote rejected the api token")
	// ErrNotRemote is returned for habits that only exist locally.
	ErrNotRemote = errors.New("habit has no remote counterpart")
)

var log = logger.With("remote")

// APIError is any other non-2xx response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote returned %d: %s", e.Status, e.Body)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// NewClient returns a client for the API rooted at baseURL
// (e.g. http://localhost:8000/api).
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: constants.RemoteTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case res.StatusCode < 200 || res.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &APIError{Status: res.StatusCode, Body: strings.TrimSpace(string(msg))}
	case out == nil || res.StatusCode == http.StatusNoContent:
		return nil
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) ListHabits(ctx context.Context) ([]Habit, error) {
	var habits []Habit
	if err := c.do(ctx, http.MethodGet, "/habits/", nil, &habits); err != nil {
		return nil, err
	}
	return habits, nil
}

func (c *Client) CreateHabit(ctx context.Context, h Habit) (Habit, error) {
	var created Habit
	if err := c.do(ctx, http.MethodPost, "/habits/", h, &created); err != nil {
		return Habit{}, err
	}
	return created, nil
}

// DeleteHabit removes the habit with local id from the backend.
func (c *Client) DeleteHabit(ctx context.Context, id string) error {
	n, ok := BackendID(id)
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrNotRemote)
	}
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/habits/%d/", n), nil, nil); err != nil {
		return err
	}
	log.Debug("remote habit deleted", "habit", id)
	return nil
}

func (c *Client) ListLogs(ctx context.Context, habitID int64) ([]Log, error) {
	var logs []Log
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/habits/%d/logs/", habitID), nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// PutLog upserts one day on the backend, keyed by log_date.
func (c *Client) PutLog(ctx context.Context, habitID int64, l Log) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/habits/%d/logs/", habitID), l, nil)
}
