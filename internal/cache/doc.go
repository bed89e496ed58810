// Package cache keys and stores completed render results.
//
// Keys are deterministic SHA-256 fingerprints over a normalized encoding of
// the render inputs. Four Store backends share one contract: in-process
// memory (go-cache), SQLite, Redis, and a NATS request-reply client that
// delegates to a cache daemon. Backends map their not-found conditions to
// ErrCacheMiss so callers can treat every failure class as a miss.
package cache
