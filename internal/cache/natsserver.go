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

// queueGroup lets multiple daemons share one subject space; NATS delivers
// each request to exactly one member.
const queueGroup = "mdcached"

// defaultHandleTimeout bounds each store operation on the daemon side.
const defaultHandleTimeout = 5 * time.Second

// Server answers the wire protocol, backed by any Store.
type Server struct {
	conn    *nats.Conn
	store   Store
	prefix  string
	timeout time.Duration
	logger  *slog.Logger
	subs    []*nats.Subscription
}

// NewServer creates a server on an established connection. A nil logger
// discards; zero timeout falls back to the default.
func NewServer(conn *nats.Conn, store Store, prefix string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		conn:    conn,
		store:   store,
		prefix:  prefix,
		timeout: defaultHandleTimeout,
		logger:  logger,
	}
}

// Start subscribes to all operation subjects. Returns on the first
// subscription failure with everything unsubscribed again.
func (s *Server) Start() error {
	handlers := map[string]nats.MsgHandler{
		opGenerateKey: s.handleGenerateKey,
		opGet:         s.handleGet,
		opSet:         s.handleSet,
		opInvalidate:  s.handleInvalidate,
	}

	for op, handler := range handlers {
		subject := subjectFor(s.prefix, op)
		sub, err := s.conn.QueueSubscribe(subject, queueGroup, handler)
		if err != nil {
			_ = s.Stop()
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		s.subs = append(s.subs, sub)
		s.logger.Debug("cache subject bound", "subject", subject)
	}

	s.logger.Info("cache server listening",
		"prefix", s.prefix,
		"queue_group", queueGroup)
	return nil
}

// Stop unsubscribes from all subjects. The store stays open; it belongs to
// the caller.
func (s *Server) Stop() error {
	var firstErr error
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.subs = nil
	return firstErr
}

func (s *Server) handleGenerateKey(msg *nats.Msg) {
	s.respond(msg, generateKeyResponse(msg.Data))
}

func (s *Server) handleGet(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.respond(msg, getEntryResponse(ctx, s.store, msg.Data))
}

func (s *Server) handleSet(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.respond(msg, setEntryResponse(ctx, s.store, msg.Data))
}

func (s *Server) handleInvalidate(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.respond(msg, invalidateResponse(ctx, s.store, msg.Data))
}

func (s *Server) respond(msg *nats.Msg, payload []byte) {
	if err := msg.Respond(payload); err != nil {
		s.logger.Warn("cache response failed",
			"subject", msg.Subject,
			"error", err)
	}
}

// The response builders below are plain functions over bytes so handler
// behavior is testable without a running NATS server.

func generateKeyResponse(data []byte) []byte {
	var req keyRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return mustMarshal(keyResponse{Error: "malformed request"})
	}
	key := Key(KeyInput{
		Path:        req.Path,
		Content:     req.Content,
		Theme:       req.Theme,
		Preferences: req.Preferences,
	})
	return mustMarshal(keyResponse{Key: key})
}

func getEntryResponse(ctx context.Context, store Store, data []byte) []byte {
	var req getRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return mustMarshal(getResponse{Error: "malformed request"})
	}

	result, err := store.Get(ctx, req.Key)
	if errors.Is(err, ErrCacheMiss) {
		return mustMarshal(getResponse{Result: nil})
	}
	if err != nil {
		return mustMarshal(getResponse{Error: err.Error()})
	}
	return mustMarshal(getResponse{Result: result})
}

func setEntryResponse(ctx context.Context, store Store, data []byte) []byte {
	var req setRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return mustMarshal(statusResponse{Error: "malformed request"})
	}
	if err := store.Set(ctx, req); err != nil {
		return mustMarshal(statusResponse{Error: err.Error()})
	}
	return mustMarshal(statusResponse{OK: true})
}

func invalidateResponse(ctx context.Context, store Store, data []byte) []byte {
	var req invalidateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return mustMarshal(statusResponse{Error: "malformed request"})
	}
	if err := store.Invalidate(ctx, req); err != nil {
		return mustMarshal(statusResponse{Error: err.Error()})
	}
	return mustMarshal(statusResponse{OK: true})
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// Response types hold only strings, bools and Results; this cannot
		// fail at runtime.
		panic(fmt.Sprintf("marshal response: %v", err))
	}
	return data
}
