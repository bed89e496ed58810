package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ErrInvalidAddress is returned when the metrics listener cannot bind.
var ErrInvalidAddress = errors.New("cannot listen on metrics address")

// metricsShutdownTimeout bounds the drain of in-flight scrapes.
const metricsShutdownTimeout = 3 * time.Second

// startMetricsServer serves Prometheus metrics on addr. The listener is
// opened synchronously; a bad address surfaces as a startup error.
func startMetricsServer(addr string, reg *prometheus.Registry, logger *slog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true}))

	srv := &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	logger.Info("metrics listening", "addr", ln.Addr().String())
	return srv, nil
}

// stopMetricsServer shuts the listener down, waiting briefly for
// in-flight scrapes.
func stopMetricsServer(srv *http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("metrics shutdown", "error", err)
	}
}
