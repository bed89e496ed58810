package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdrender <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  render      Render markdown files to HTML")
	fmt.Fprintln(w, "  watch       Render, then re-render on file changes")
	fmt.Fprintln(w, "  themes      List available themes")
	fmt.Fprintln(w, "  doctor      Check the environment and configuration")
	fmt.Fprintln(w, "  completion  Generate shell completion scripts")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'mdrender help <command>' for details on a specific command.")
	fmt.Fprintln(w, "Shorthand: 'mdrender doc.md' renders a file directly.")
}

// printRenderUsage prints usage for the render command. The watch command
// takes the same flags, so its help reuses this with a different first line.
func printRenderUsage(w io.Writer) {
	printRenderUsageAs(w, "render")
}

func printRenderUsageAs(w io.Writer, command string) {
	fmt.Fprintf(w, "Usage: mdrender %s <input> [flags]\n", command)
	fmt.Fprintln(w)
	switch command {
	case "watch":
		fmt.Fprintln(w, "Render markdown files to HTML, then watch for changes and re-render.")
	default:
		fmt.Fprintln(w, "Render markdown files to HTML.")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Markdown file or directory (optional if config has input.defaultDir)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Pool size for batch rendering (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <dur>       Per-section render timeout (e.g. 30s, 2m)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Theme:")
	fmt.Fprintln(w, "  -T, --theme <name>        Theme name or stylesheet path")
	fmt.Fprintln(w, "      --asset-path <dir>    Directory searched for custom theme assets")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Document:")
	fmt.Fprintln(w, "      --title <s>           Document title (\"\" = auto from first heading)")
	fmt.Fprintln(w, "      --pref <key=value>    Render preference, repeatable")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Cache:")
	fmt.Fprintln(w, "      --cache <backend>     Cache backend: memory, sqlite, redis, nats")
	fmt.Fprintln(w, "      --cache-dsn <s>       Backend address (file path or URL)")
	fmt.Fprintln(w, "      --cache-ttl <dur>     Entry lifetime (e.g. 1h, 7d)")
	fmt.Fprintln(w, "      --nats-url <url>      Cache daemon URL for the nats backend")
	fmt.Fprintln(w, "      --no-cache            Disable result caching")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Pipeline:")
	fmt.Fprintln(w, "      --parallel            Render document sections concurrently")
	fmt.Fprintln(w, "      --progressive         Emit every document section by section")
	fmt.Fprintln(w, "      --chunk-size <n>      Target section size in bytes (0 = auto)")
	fmt.Fprintln(w, "      --hydration-threshold <n>")
	fmt.Fprintln(w, "                            Document size that triggers progressive mode")
	fmt.Fprintln(w)
	if command == "watch" {
		fmt.Fprintln(w, "Watch:")
		fmt.Fprintln(w, "      --debounce <dur>      Quiet window before re-rendering (default 300ms)")
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "      --progress            Print render progress to stderr")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed timing")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "render":
		printRenderUsage(env.Stdout)
	case "watch":
		printRenderUsageAs(env.Stdout, "watch")
	case "themes":
		fmt.Fprintln(env.Stdout, "Usage: mdrender themes")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "List available themes.")
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: mdrender doctor [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check themes, cache reachability, and the runtime environment.")
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: mdrender version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: mdrender help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
