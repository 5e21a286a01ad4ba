// Package webclient talks to a running govmeet HTTP API.
package webclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// NewDefault returns an HTTP client with sane timeouts.
func NewDefault(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// Client calls the meeting endpoints of one API server.
type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	Attempts int
	Delay    time.Duration
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		http:     NewDefault(0),
		Attempts: 3,
		Delay:    time.Second,
	}
}

// CommandReply is the body of a command response.
type CommandReply struct {
	Lines []string `json:"lines"`
	Error bool     `json:"error"`
}

// APIError is a non-2xx answer that is not a command reply.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Command runs a text command on channel. A rejected command is returned as
// a reply with Error set, not as an error.
func (c *Client) Command(ctx context.Context, channel, line string) (CommandReply, error) {
	var reply CommandReply
	status, body, err := c.do(ctx, http.MethodPost, c.channelPath(channel, "commands"), map[string]string{"command": line})
	if err != nil {
		return reply, err
	}
	if status == http.StatusOK || status == http.StatusUnprocessableEntity {
		if err := json.Unmarshal(body, &reply); err != nil {
			return reply, fmt.Errorf("api: decode reply: %w", err)
		}
		return reply, nil
	}
	return reply, apiError(status, body)
}

// Get fetches one of the read endpoints (status, meetings, agenda, motions)
// and decodes it into out.
func (c *Client) Get(ctx context.Context, channel, resource string, out interface{}) error {
	status, body, err := c.do(ctx, http.MethodGet, c.channelPath(channel, resource), nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return apiError(status, body)
	}
	return json.Unmarshal(body, out)
}

func (c *Client) channelPath(channel, resource string) string {
	return fmt.Sprintf("%s/v1/channels/%s/%s", c.baseURL, url.PathEscape(channel), resource)
}

func (c *Client) do(ctx context.Context, method, target string, payload interface{}) (int, []byte, error) {
	var raw []byte
	if payload != nil {
		var err error
		if raw, err = json.Marshal(payload); err != nil {
			return 0, nil, err
		}
	}
	return DoWithRetry(ctx, c.Attempts, c.Delay, func() (int, []byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(raw))
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return 0, nil, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return resp.StatusCode, body, err
	})
}

func apiError(status int, body []byte) error {
	var payload struct {
		Err string `json:"err"`
	}
	msg := http.StatusText(status)
	if json.Unmarshal(body, &payload) == nil && payload.Err != "" {
		msg = payload.Err
	}
	return &APIError{Status: status, Message: msg}
}
