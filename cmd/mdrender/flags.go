package main

import (
	"os"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// themeFlags holds theme and asset flags.
type themeFlags struct {
	name      string // Theme name or empty for config/default
	assetPath string // Override asset directory
}

// documentFlags holds per-document metadata flags.
type documentFlags struct {
	title string   // Document title ("" = derive from first heading)
	prefs []string // key=value render preferences
}

// cacheFlags holds result cache flags.
type cacheFlags struct {
	backend  string // memory, sqlite, redis, nats
	dsn      string // Backend address
	ttl      string // Entry lifetime
	natsURL  string // Cache daemon URL for the nats backend
	disabled bool   // Skip the cache entirely
}

// pipelineFlags holds render pipeline tuning flags.
type pipelineFlags struct {
	parallel    bool // Route stage work through the task dispatcher
	progressive bool // Force section-by-section rendering
	chunkSize   int  // Max section size in bytes (0 = default)
	threshold   int  // Progressive threshold in bytes (0 = default)
}

// watchFlags holds file watching flags.
type watchFlags struct {
	debounce string // Quiet window before a re-render, e.g. "300ms"
}

// renderFlags holds all flags for the render and watch commands.
type renderFlags struct {
	common   commonFlags
	output   string
	workers  int
	timeout  string
	progress bool
	theme    themeFlags
	document documentFlags
	cache    cacheFlags
	pipeline pipelineFlags
	watch    watchFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing")
}

// addThemeFlags adds theme flags to a FlagSet.
func addThemeFlags(fs *flag.FlagSet, f *themeFlags) {
	fs.StringVarP(&f.name, "theme", "T", "", "theme name (default: github)")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom theme/template directory")
}

// addDocumentFlags adds document metadata flags to a FlagSet.
func addDocumentFlags(fs *flag.FlagSet, f *documentFlags) {
	fs.StringVar(&f.title, "title", "", "document title (\"\" = auto from first heading)")
	fs.StringArrayVar(&f.prefs, "pref", nil, "render preference key=value (repeatable)")
}

// addCacheFlags adds result cache flags to a FlagSet.
func addCacheFlags(fs *flag.FlagSet, f *cacheFlags) {
	fs.StringVar(&f.backend, "cache", "", "cache backend: memory, sqlite, redis, nats")
	fs.StringVar(&f.dsn, "cache-dsn", "", "cache address: file path or redis URL")
	fs.StringVar(&f.ttl, "cache-ttl", "", "cache entry lifetime (e.g. 24h, 7d)")
	fs.StringVar(&f.natsURL, "nats-url", "", "cache daemon URL for the nats backend")
	fs.BoolVar(&f.disabled, "no-cache", false, "skip the result cache")
}

// addPipelineFlags adds pipeline tuning flags to a FlagSet.
func addPipelineFlags(fs *flag.FlagSet, f *pipelineFlags) {
	fs.BoolVar(&f.parallel, "parallel", false, "route stage work through the task dispatcher")
	fs.BoolVar(&f.progressive, "progressive", false, "force section-by-section rendering")
	fs.IntVar(&f.chunkSize, "chunk-size", 0, "max section size in bytes (0 = default)")
	fs.IntVar(&f.threshold, "hydration-threshold", 0, "progressive threshold in bytes (0 = default)")
}

// addWatchFlags adds watch flags to a FlagSet.
func addWatchFlags(fs *flag.FlagSet, f *watchFlags) {
	fs.StringVar(&f.debounce, "debounce", "", "quiet window before a re-render (default: 300ms)")
}

// parseRenderFlags parses render command flags and returns positional args.
func parseRenderFlags(args []string) (*renderFlags, []string, error) {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	f := &renderFlags{}

	// I/O flags
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel renderers (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-render timeout (e.g., 30s, 2m)")
	fs.BoolVar(&f.progress, "progress", false, "print render progress to stderr")

	// Flag groups
	addCommonFlags(fs, &f.common)
	addThemeFlags(fs, &f.theme)
	addDocumentFlags(fs, &f.document)
	addCacheFlags(fs, &f.cache)
	addPipelineFlags(fs, &f.pipeline)
	addWatchFlags(fs, &f.watch)

	fs.Usage = func() { printRenderUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
