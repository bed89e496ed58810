package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultRequestTimeout bounds each remote cache operation.
const DefaultRequestTimeout = 2 * time.Second

// Client speaks the wire protocol against a cache daemon. It implements
// Store, plus remote key derivation.
type Client struct {
	conn    *nats.Conn
	prefix  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient connects to the NATS server at url. Zero timeout falls back to
// DefaultRequestTimeout; a nil logger discards.
func NewClient(url, prefix string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	conn, err := nats.Connect(url, nats.Name("mdrender-cache-client"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		conn:    conn,
		prefix:  prefix,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// GenerateKey asks the daemon to derive the key for in.
func (c *Client) GenerateKey(ctx context.Context, in KeyInput) (string, error) {
	req := keyRequest{
		Path:        in.Path,
		Content:     in.Content,
		Theme:       in.Theme,
		Preferences: in.Preferences,
	}

	var resp keyResponse
	if err := c.request(ctx, opGenerateKey, req, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("remote key derivation: %s", resp.Error)
	}
	return resp.Key, nil
}

// Get returns the cached result for key, or ErrCacheMiss.
func (c *Client) Get(ctx context.Context, key string) (*Result, error) {
	var resp getResponse
	if err := c.request(ctx, opGet, getRequest{Key: key}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("remote get: %s", resp.Error)
	}
	if resp.Result == nil {
		return nil, ErrCacheMiss
	}
	return resp.Result, nil
}

// Set stores e on the daemon.
func (c *Client) Set(ctx context.Context, e Entry) error {
	var resp statusResponse
	if err := c.request(ctx, opSet, e, &resp); err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("remote set: %s", resp.Error)
	}
	return nil
}

// Invalidate removes entries on the daemon.
func (c *Client) Invalidate(ctx context.Context, inv Invalidation) error {
	var resp statusResponse
	if err := c.request(ctx, opInvalidate, inv, &resp); err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("remote invalidate: %s", resp.Error)
	}
	return nil
}

// Close drains and closes the connection.
func (c *Client) Close() error {
	c.conn.Close()
	return nil
}

// request performs one request-reply round trip with the client timeout
// applied on top of the caller's context.
func (c *Client) request(ctx context.Context, op string, req, resp any) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	subject := subjectFor(c.prefix, op)
	msg, err := c.conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) || errors.Is(err, context.DeadlineExceeded) {
			c.logger.Debug("cache daemon unreachable", "subject", subject, "error", err)
			return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
		}
		return fmt.Errorf("request %s: %w", subject, err)
	}

	if err := json.Unmarshal(msg.Data, resp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

var _ Store = (*Client)(nil)
