package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alnah/go-mdrender/internal/cache"
)

// Sentinel errors for store selection.
var (
	// ErrUnknownBackend is returned for backend names other than
	// memory, sqlite or redis.
	ErrUnknownBackend = errors.New("unknown cache backend")

	// ErrDSNRequired is returned when a backend needs an address and
	// none was given.
	ErrDSNRequired = errors.New("cache backend requires a dsn")
)

// openStore opens the store the daemon will answer requests from.
// The nats backend is deliberately absent: it names this daemon, and a
// daemon backed by itself would loop.
func openStore(backend, dsn string, ttl time.Duration) (cache.Store, error) {
	switch backend {
	case "memory":
		return cache.NewMemoryStore(ttl, 0), nil
	case "sqlite":
		if dsn == "" {
			return nil, fmt.Errorf("%w: sqlite needs a database path (--dsn)", ErrDSNRequired)
		}
		return cache.NewSQLiteStore(dsn)
	case "redis":
		if dsn == "" {
			return nil, fmt.Errorf("%w: redis needs a connection url (--dsn)", ErrDSNRequired)
		}
		return cache.NewRedisStore(dsn, ttl)
	default:
		return nil, fmt.Errorf("%w: %q (supported: memory, sqlite, redis)", ErrUnknownBackend, backend)
	}
}

// meteredStore wraps a Store and counts every operation by outcome.
type meteredStore struct {
	inner cache.Store
	ops   *prometheus.CounterVec
}

// newMeteredStore registers the operation counter on reg and returns the
// wrapped store.
func newMeteredStore(inner cache.Store, reg *prometheus.Registry) *meteredStore {
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mdcached",
		Name:      "store_operations_total",
		Help:      "Store operations by kind and outcome",
	}, []string{"op", "outcome"})
	reg.MustRegister(ops)
	return &meteredStore{inner: inner, ops: ops}
}

// outcomeFor maps an operation error to its counter label. A cache miss
// is a normal answer, not an error.
func outcomeFor(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, cache.ErrCacheMiss):
		return "miss"
	default:
		return "error"
	}
}

func (m *meteredStore) Get(ctx context.Context, key string) (*cache.Result, error) {
	res, err := m.inner.Get(ctx, key)
	m.ops.WithLabelValues("get", outcomeFor(err)).Inc()
	return res, err
}

func (m *meteredStore) Set(ctx context.Context, e cache.Entry) error {
	err := m.inner.Set(ctx, e)
	m.ops.WithLabelValues("set", outcomeFor(err)).Inc()
	return err
}

func (m *meteredStore) Invalidate(ctx context.Context, inv cache.Invalidation) error {
	err := m.inner.Invalidate(ctx, inv)
	m.ops.WithLabelValues("invalidate", outcomeFor(err)).Inc()
	return err
}

func (m *meteredStore) Close() error {
	return m.inner.Close()
}
