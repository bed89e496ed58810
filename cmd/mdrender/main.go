package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/automaxprocs/maxprocs"

	mdrender "github.com/alnah/go-mdrender"
	"github.com/alnah/go-mdrender/internal/timeutil"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// A missing .env file is the normal case; values already in the
	// environment win over file values.
	_ = godotenv.Load()

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	os.Exit(runMain(os.Args, DefaultEnv()))
}

// commandNames lists the recognized subcommands.
var commandNames = map[string]bool{
	"render":     true,
	"watch":      true,
	"themes":     true,
	"doctor":     true,
	"completion": true,
	"version":    true,
	"help":       true,
}

// isCommand reports whether s names a known subcommand.
func isCommand(s string) bool {
	return commandNames[s]
}

// looksLikeMarkdown reports whether an argument names a markdown file.
func looksLikeMarkdown(s string) bool {
	ext := filepath.Ext(s)
	return ext == ".md" || ext == ".markdown"
}

// runMain dispatches to the chosen command and returns its exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd := args[1]
	rest := args[2:]

	switch cmd {
	case "render":
		return runRenderCommand(rest, env)
	case "watch":
		return runWatchCommand(rest, env)
	case "themes":
		return runThemesCommand(rest, env)
	case "doctor":
		return runDoctorCmd(rest, env)
	case "completion":
		if err := runCompletion(rest, env); err != nil {
			fmt.Fprintln(env.Stderr, err)
			return exitCodeFor(err)
		}
		return ExitSuccess
	case "version":
		fmt.Fprintf(env.Stdout, "go-mdrender %s\n", Version)
		return ExitSuccess
	case "help":
		runHelp(rest, env)
		return ExitSuccess
	default:
		// Shorthand: "mdrender doc.md" renders directly.
		if looksLikeMarkdown(cmd) {
			return runRenderCommand(args[1:], env)
		}
		fmt.Fprintf(env.Stderr, "unknown command: %s\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}
}

// runRenderCommand parses flags, assembles the renderer stack, and runs one
// batch render under a signal-aware context.
func runRenderCommand(args []string, env *Environment) int {
	flags, pos, err := parseRenderFlags(args)
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}

	if !flags.common.quiet {
		warnUnknownEnvVars(env.Stderr)
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	stack, err := buildRenderStack(flags, env)
	if err != nil {
		fmt.Fprintln(env.Stderr, describeError(err))
		return exitCodeFor(err)
	}
	defer stack.close()

	if err := runRender(ctx, pos, flags, stack, env); err != nil {
		fmt.Fprintln(env.Stderr, describeError(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// runWatchCommand renders once, then re-renders changed files until
// interrupted.
func runWatchCommand(args []string, env *Environment) int {
	flags, pos, err := parseRenderFlags(args)
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}

	if !flags.common.quiet {
		warnUnknownEnvVars(env.Stderr)
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	stack, err := buildRenderStack(flags, env)
	if err != nil {
		fmt.Fprintln(env.Stderr, describeError(err))
		return exitCodeFor(err)
	}
	defer stack.close()

	if err := runWatch(ctx, pos, flags, stack, env); err != nil {
		fmt.Fprintln(env.Stderr, describeError(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// poolAdapter adapts the public renderer pool to the CLI Pool interface.
type poolAdapter struct {
	pool *mdrender.RendererPool
}

func (p *poolAdapter) Acquire() CLIRenderer {
	return p.pool.Acquire()
}

func (p *poolAdapter) Release(r CLIRenderer) {
	renderer, ok := r.(*mdrender.Renderer)
	if !ok {
		panic(fmt.Sprintf("unexpected type in pool release: %T", r))
	}
	p.pool.Release(renderer)
}

func (p *poolAdapter) Size() int {
	return p.pool.Size()
}

// resolveTimeoutWithEnv resolves the per-render timeout from flag, env var,
// and config, in that priority order. Zero means the library default.
func resolveTimeoutWithEnv(flagValue string, envValue time.Duration, configValue string) (time.Duration, error) {
	if flagValue != "" {
		d, err := timeutil.ParseDuration(flagValue)
		if err != nil {
			return 0, fmt.Errorf("invalid timeout %q: %v", flagValue, err)
		}
		if d <= 0 {
			return 0, fmt.Errorf("timeout must be positive, got %q", flagValue)
		}
		return d, nil
	}

	if envValue > 0 {
		return envValue, nil
	}

	if configValue != "" {
		d, err := timeutil.ParseDuration(configValue)
		if err != nil {
			return 0, fmt.Errorf("invalid timeout %q in config: %v", configValue, err)
		}
		if d <= 0 {
			return 0, fmt.Errorf("timeout must be positive, got %q in config", configValue)
		}
		return d, nil
	}

	return 0, nil
}
