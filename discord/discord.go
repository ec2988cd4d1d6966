// Package discord posts messages to a Discord channel through an incoming webhook.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/octo/ghdiscord/config"
	"go.opencensus.io/plugin/ochttp"
)

// MaxContentLength is the maximum number of characters Discord accepts in a
// message's content.
const MaxContentLength = 2000

const (
	requestTimeout = 10 * time.Second

	// errorBodyLimit caps how much of an error response is kept in StatusError.
	errorBodyLimit = 512
)

// ErrNoWebhookURL is returned by Send if the client has no webhook URL.
var ErrNoWebhookURL = errors.New("discord: webhook URL is not configured")

// Message is the body of a webhook execution.
type Message struct {
	Content string `json:"content"`
}

// StatusError is returned when Discord responds with a non-2xx status code.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("discord: unexpected status: %s", e.Status)
	}
	return fmt.Sprintf("discord: unexpected status: %s: %s", e.Status, e.Body)
}

type Client struct {
	url string

	*http.Client
}

// New returns a client for the configured webhook URL.
func New(ctx context.Context) (*Client, error) {
	url, err := config.WebhookURL(ctx)
	if err != nil {
		return nil, err
	}

	return NewWithURL(url), nil
}

// NewWithURL returns a client posting to url.
func NewWithURL(url string) *Client {
	return &Client{
		url: url,
		Client: &http.Client{
			Transport: &ochttp.Transport{
				Base: http.DefaultTransport,
			},
			Timeout: requestTimeout,
		},
	}
}

// Send posts msg to the webhook. The request is attempted exactly once.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c.url == "" {
		return ErrNoWebhookURL
	}

	msg.Content = trimLength(msg.Content, MaxContentLength)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("json.Marshal(): %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("NewRequest(): %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("discord: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, errorBodyLimit))
		return &StatusError{
			StatusCode: res.StatusCode,
			Status:     res.Status,
			Body:       string(bytes.TrimSpace(b)),
		}
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

// trimLength shortens s to at most length characters. Shortened strings end
// in an ellipsis, which counts towards length.
func trimLength(s string, length uint) string {
	r := []rune(s)
	if uint(len(r)) <= length {
		return s
	}
	if length == 0 {
		return ""
	}

	return string(r[:length-1]) + "…"
}
