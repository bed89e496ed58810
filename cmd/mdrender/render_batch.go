package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	mdrender "github.com/alnah/go-mdrender"
	"github.com/alnah/go-mdrender/internal/fileutil"
)

// Sentinel errors for batch operations.
var (
	ErrReadDocument = errors.New("failed to read markdown file")
	ErrWriteOutput  = errors.New("failed to write output file")
	ErrRendererInit = errors.New("failed to initialize renderer")
)

// CLIRenderer is the interface for the render service.
type CLIRenderer interface {
	Render(ctx context.Context, req mdrender.Request) error
}

// progressSource is implemented by renderers that broadcast progress.
type progressSource interface {
	OnProgress(func(mdrender.Progress)) func()
}

// Compile-time interface implementation checks.
var (
	_ CLIRenderer    = (*mdrender.Renderer)(nil)
	_ progressSource = (*mdrender.Renderer)(nil)
)

// Pool abstracts renderer pool operations for testability.
type Pool interface {
	Acquire() CLIRenderer
	Release(CLIRenderer)
	Size() int
}

// RenderResult holds the outcome of a single render.
type RenderResult struct {
	InputPath  string
	OutputPath string
	Err        error
	Duration   time.Duration
}

// renderBatch processes files concurrently using the renderer pool.
func renderBatch(ctx context.Context, pool Pool, files []FileToRender, params *renderParams) []RenderResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := pool.Size()
	if concurrency > len(files) {
		concurrency = len(files)
	}

	results := make([]RenderResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			renderer := pool.Acquire()
			if renderer == nil {
				// Renderer creation failed, mark remaining jobs as failed
				for idx := range jobs {
					results[idx] = RenderResult{
						InputPath: files[idx].InputPath,
						Err:       ErrRendererInit,
					}
				}
				return
			}
			defer pool.Release(renderer)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = RenderResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = renderFile(ctx, renderer, files[idx], params)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// renderFile processes a single file and returns the result.
func renderFile(ctx context.Context, renderer CLIRenderer, f FileToRender, params *renderParams) RenderResult {
	start := time.Now()
	result := RenderResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}

	content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrReadDocument, err)
		result.Duration = time.Since(start)
		return result
	}

	text := string(content)
	container := mdrender.NewHTMLContainer()

	if params.onProgress != nil {
		if src, ok := renderer.(progressSource); ok {
			unsubscribe := src.OnProgress(params.onProgress)
			defer unsubscribe()
		}
	}

	err = renderer.Render(ctx, mdrender.Request{
		Container:   container,
		Text:        text,
		Path:        f.InputPath,
		Theme:       params.theme,
		Preferences: params.prefs,
		UseCache:    params.useCache,
		UseParallel: params.useParallel,
		ChunkSize:   params.chunkSize,
	})
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	// Document title: explicit flag wins, else the first heading.
	title := params.title
	if title == "" {
		title = mdrender.DocumentTitle(text)
	}

	if err := fileutil.EnsureDir(filepath.Dir(f.OutputPath)); err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrWriteOutput, err)
		result.Duration = time.Since(start)
		return result
	}
	if err := fileutil.WriteFileAtomic(f.OutputPath, container.Document(title)); err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrWriteOutput, err)
		result.Duration = time.Since(start)
		return result
	}

	result.Duration = time.Since(start)
	return result
}

// ResultSummary holds the count of succeeded and failed renders.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed renders.
func countResults(results []RenderResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// printResultsWithWriter outputs render results using the provided writers.
func printResultsWithWriter(results []RenderResult, quiet, verbose bool, env *Environment) int {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %s\n", r.InputPath, describeError(r.Err))
			continue
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed
}
