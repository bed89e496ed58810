// Command mdcached is the shared render cache daemon. It answers the
// mdrender cache protocol over NATS, backed by a memory, sqlite, or redis
// store, so a fleet of renderers can reuse each other's results.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/alnah/go-mdrender/internal/cache"
	"github.com/alnah/go-mdrender/internal/timeutil"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Sentinel errors for daemon startup.
var (
	// ErrBrokerUnavailable is returned when the NATS server cannot be
	// reached or subscribed to.
	ErrBrokerUnavailable = errors.New("cannot reach nats broker")

	// ErrInvalidDuration is returned for unparseable or non-positive
	// ttl and sweep values.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrUnexpectedArgument is returned for positional arguments; the
	// daemon takes flags only.
	ErrUnexpectedArgument = errors.New("unexpected argument")
)

func main() {
	// A missing .env file is the normal case; values already in the
	// environment win over file values.
	_ = godotenv.Load()

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	os.Exit(runMain(os.Args, DefaultEnv()))
}

// daemonFlags holds the daemon's command line configuration.
type daemonFlags struct {
	natsURL       string
	backend       string
	dsn           string
	ttl           string
	sweepInterval string
	metricsAddr   string
	prefix        string
	quiet         bool
	verbose       bool
	showVersion   bool
}

const usageFormat = `mdcached serves render results to mdrender clients over NATS.

Usage:
  mdcached [flags]

Flags:
%s
Environment:
  MDCACHED_NATS_URL, MDCACHED_BACKEND, MDCACHED_DSN, MDCACHED_TTL,
  MDCACHED_PREFIX and MDCACHED_METRICS_ADDR provide defaults; flags win.
`

// envDefault returns the environment value for key, or fallback when unset.
// Environment values seed flag defaults, so explicit flags always win.
func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseDaemonFlags parses the daemon's flags. The daemon takes no
// positional arguments.
func parseDaemonFlags(args []string, stderr io.Writer) (*daemonFlags, error) {
	fs := flag.NewFlagSet("mdcached", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &daemonFlags{}

	fs.StringVarP(&f.natsURL, "nats-url", "n", envDefault("MDCACHED_NATS_URL", nats.DefaultURL), "NATS server URL")
	fs.StringVarP(&f.backend, "backend", "b", envDefault("MDCACHED_BACKEND", "memory"), "store backend: memory, sqlite, redis")
	fs.StringVar(&f.dsn, "dsn", envDefault("MDCACHED_DSN", ""), "backend address (sqlite path or redis url)")
	fs.StringVar(&f.ttl, "ttl", envDefault("MDCACHED_TTL", "24h"), "entry lifetime, e.g. 24h or 7d")
	fs.StringVar(&f.sweepInterval, "sweep-interval", "1h", "how often expired sqlite entries are purged")
	fs.StringVar(&f.metricsAddr, "metrics-addr", envDefault("MDCACHED_METRICS_ADDR", ""), "serve Prometheus metrics on this address (e.g. :9090)")
	fs.StringVar(&f.prefix, "prefix", envDefault("MDCACHED_PREFIX", cache.DefaultSubjectPrefix), "subject prefix shared with clients")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only log warnings and errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log debug detail")
	fs.BoolVar(&f.showVersion, "version", false, "print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, usageFormat, fs.FlagUsages())
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedArgument, fs.Arg(0))
	}
	return f, nil
}

// runMain parses flags and runs the daemon until interrupted.
func runMain(args []string, env *Environment) int {
	f, err := parseDaemonFlags(args[1:], env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		// Parse errors were already printed by pflag; only our own
		// argument check still needs reporting.
		if errors.Is(err, ErrUnexpectedArgument) {
			fmt.Fprintln(env.Stderr, err)
		}
		return ExitUsage
	}

	if f.showVersion {
		fmt.Fprintf(env.Stdout, "mdcached %s\n", Version)
		return ExitSuccess
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	if err := serve(ctx, f, env); err != nil {
		fmt.Fprintln(env.Stderr, err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// newLogger builds the daemon logger at a level chosen by the verbosity
// flags. Quiet wins over verbose.
func newLogger(w io.Writer, verbose, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelWarn
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// resolveDuration parses a flag value that must be a positive duration.
// Day suffixes are accepted, so retention can be written as 7d.
func resolveDuration(name, value string) (time.Duration, error) {
	d, err := timeutil.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidDuration, name, value)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %q", ErrInvalidDuration, name, value)
	}
	return d, nil
}

// connectBroker dials NATS. The first connection must succeed; after that
// the client reconnects on its own without limit.
func connectBroker(url string, logger *slog.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("mdcached"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBrokerUnavailable, url, err)
	}
	return conn, nil
}

// serve opens the store, connects to the broker, and answers cache
// requests until ctx is canceled.
func serve(ctx context.Context, f *daemonFlags, env *Environment) error {
	logger := newLogger(env.Stderr, f.verbose, f.quiet)

	ttl, err := resolveDuration("ttl", f.ttl)
	if err != nil {
		return err
	}
	sweep, err := resolveDuration("sweep interval", f.sweepInterval)
	if err != nil {
		return err
	}

	store, err := openStore(f.backend, f.dsn, ttl)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing store", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	metered := newMeteredStore(store, reg)

	// The janitor sweeps the raw store; the metered wrapper only sees
	// protocol operations.
	janitor, err := startJanitor(ctx, store, sweep, ttl, logger)
	if err != nil {
		return err
	}
	if janitor != nil {
		defer func() { _ = janitor.Shutdown() }()
	}

	conn, err := connectBroker(f.natsURL, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	server := cache.NewServer(conn, metered, f.prefix, logger)
	if err := server.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}
	defer func() {
		if err := server.Stop(); err != nil {
			logger.Warn("stopping server", "error", err)
		}
	}()

	if f.metricsAddr != "" {
		metricsSrv, err := startMetricsServer(f.metricsAddr, reg, logger)
		if err != nil {
			return err
		}
		defer stopMetricsServer(metricsSrv, logger)
	}

	logger.Info("mdcached ready",
		"url", conn.ConnectedUrl(),
		"prefix", f.prefix,
		"backend", f.backend,
		"ttl", ttl,
	)

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
