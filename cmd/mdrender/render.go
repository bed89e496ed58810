package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	mdrender "github.com/alnah/go-mdrender"
	"github.com/alnah/go-mdrender/internal/config"
)

// renderStack bundles the long-lived pieces one render command run needs:
// the renderer pool, the opened cache, and the resolved configuration.
type renderStack struct {
	pool   Pool
	params *renderParams
	cfg    *config.Config
	cache  mdrender.Cache

	rendererPool *mdrender.RendererPool
}

// close releases the pool first so no renderer touches the cache afterwards.
func (s *renderStack) close() {
	if s.rendererPool != nil {
		_ = s.rendererPool.Close()
	}
	if s.cache != nil {
		_ = s.cache.Close()
	}
}

// buildRenderStack resolves configuration in priority order (CLI flags over
// config file over environment), opens the cache backend, and sizes the
// renderer pool.
func buildRenderStack(flags *renderFlags, env *Environment) (*renderStack, error) {
	if err := validateWorkers(flags.workers); err != nil {
		return nil, err
	}

	envCfg := loadEnvConfig()

	// Load configuration; zero values defer to library defaults.
	cfg := &config.Config{}
	configPath := flags.common.config
	if configPath == "" {
		configPath = envCfg.ConfigPath
	}
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)

	timeout, err := resolveTimeoutWithEnv(flags.timeout, envCfg.Timeout, cfg.TaskTimeout)
	if err != nil {
		return nil, err
	}

	params, err := buildRenderParams(flags, cfg)
	if err != nil {
		return nil, err
	}

	cache, err := openCache(cfg, flags)
	if err != nil {
		return nil, err
	}
	params.useCache = cache != nil

	opts := []mdrender.Option{}
	if timeout > 0 {
		opts = append(opts, mdrender.WithTimeout(timeout))
	}
	if cfg.Workers > 0 {
		opts = append(opts, mdrender.WithWorkers(cfg.Workers))
	}
	if threshold := resolveThreshold(flags, cfg); threshold > 0 {
		opts = append(opts, mdrender.WithHydrationThreshold(threshold))
	}
	if assetPath := resolveAssetPath(flags, envCfg); assetPath != "" {
		opts = append(opts, mdrender.WithAssetPath(assetPath))
	}
	if cache != nil {
		opts = append(opts, mdrender.WithCache(cache))
	}
	if flags.common.verbose {
		logger := slog.New(slog.NewTextHandler(env.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		opts = append(opts, mdrender.WithLogger(logger))
	}

	poolSize := mdrender.ResolvePoolSize(flags.workers)
	if flags.common.verbose {
		fmt.Fprintf(env.Stderr, "Pool size: %d\n", poolSize)
	}
	pool := mdrender.NewRendererPool(poolSize, opts...)

	return &renderStack{
		pool:         &poolAdapter{pool: pool},
		params:       params,
		cfg:          cfg,
		cache:        cache,
		rendererPool: pool,
	}, nil
}

// runRender orchestrates one batch render: discover files, fan out over the
// pool, report results.
func runRender(ctx context.Context, positionalArgs []string, flags *renderFlags, stack *renderStack, env *Environment) error {
	inputPath, err := resolveInputPath(positionalArgs, stack.cfg)
	if err != nil {
		return err
	}

	outputDir := resolveOutputDir(flags.output, stack.cfg)

	files, err := discoverFiles(inputPath, outputDir)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}

	if len(files) == 0 {
		return fmt.Errorf("no markdown files found in %s", inputPath)
	}

	// Stage-by-stage progress only makes sense for a single document; batch
	// runs report per-file results instead.
	if flags.progress && !flags.common.quiet && len(files) == 1 {
		stack.params.onProgress = progressPrinter(env.Stderr)
	}

	results := renderBatch(ctx, stack.pool, files, stack.params)

	failedCount := printResultsWithWriter(results, flags.common.quiet, flags.common.verbose, env)
	if failedCount > 0 {
		return fmt.Errorf("%d render(s) failed", failedCount)
	}

	return nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
// The workers flag is the pool size, not cfg.Workers (dispatcher workers),
// and stays on the flag struct.
func mergeFlags(flags *renderFlags, cfg *config.Config) {
	if flags.theme.name != "" {
		cfg.Theme = flags.theme.name
	}
	if flags.cache.backend != "" {
		cfg.Cache.Backend = flags.cache.backend
	}
	if flags.cache.dsn != "" {
		cfg.Cache.DSN = flags.cache.dsn
	}
	if flags.cache.ttl != "" {
		cfg.Cache.TTL = flags.cache.ttl
	}
	if flags.cache.natsURL != "" {
		cfg.NATS.URL = flags.cache.natsURL
	}
	if flags.pipeline.chunkSize > 0 {
		cfg.ChunkSize = flags.pipeline.chunkSize
	}
	if flags.pipeline.threshold > 0 {
		cfg.HydrationThreshold = flags.pipeline.threshold
	}
}

// resolveInputPath determines the input path from args or config.
func resolveInputPath(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Input.DefaultDir != "" {
		return cfg.Input.DefaultDir, nil
	}
	return "", ErrNoInput
}

// resolveOutputDir determines the output directory from flag or config.
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	return cfg.Output.DefaultDir
}

// resolveThreshold picks the progressive threshold: forcing progressive mode
// drops it to one byte so every document goes section by section.
func resolveThreshold(flags *renderFlags, cfg *config.Config) int {
	if flags.pipeline.progressive {
		return 1
	}
	return cfg.HydrationThreshold
}

// resolveAssetPath determines the custom asset directory from flag or env.
func resolveAssetPath(flags *renderFlags, envCfg *envConfig) string {
	if flags.theme.assetPath != "" {
		return flags.theme.assetPath
	}
	return envCfg.AssetPath
}

// progressPrinter returns an observer writing one line per progress emission.
func progressPrinter(w io.Writer) func(mdrender.Progress) {
	return func(p mdrender.Progress) {
		if p.Message != "" {
			fmt.Fprintf(w, "%3d%% %s: %s\n", p.Percent, p.Stage, p.Message)
			return
		}
		fmt.Fprintf(w, "%3d%% %s\n", p.Percent, p.Stage)
	}
}
