// Package mdrender renders Markdown documents into live HTML containers
// through a staged, cancellable pipeline.
//
// # Quick Start
//
// Create a renderer, render markdown into a container, and close when done:
//
//	r := mdrender.New()
//	defer r.Close()
//
//	c := mdrender.NewHTMLContainer()
//	err := r.Render(ctx, mdrender.Request{
//	    Container: c,
//	    Text:      "# Hello\n\nWorld",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(c.HTML())
//
// The container holds the themed document region; c.HTML() returns it as a
// self-contained fragment, and c.Document(title) wraps it in a full page for
// standalone output.
//
// # Render Pipeline
//
// Each render walks these stages:
//
//  1. Cache check (skips everything below on a hit)
//  2. Markdown to HTML conversion via Goldmark (GFM, footnotes, tables)
//  3. Sanitization against an element and attribute whitelist
//  4. Presentation transforms (task lists, tables, callouts, links)
//  5. Container insertion (full document or skeleton plus sections)
//  6. Enhancement (syntax highlighting, diagrams, anchors, copy buttons)
//  7. Theming (theme class plus resolved CSS)
//
// Subscribe to stage transitions with OnProgress:
//
//	off := r.OnProgress(func(p mdrender.Progress) {
//	    fmt.Printf("%s %d%% %s\n", p.Stage, p.Percent, p.Message)
//	})
//	defer off()
//
// # Progressive Rendering
//
// Documents at or above the hydration threshold render progressively: the
// container receives a skeleton of section headings immediately, then
// sections hydrate in document order. With Request.UseLazySections the
// renderer stops after the skeleton and hydrates sections as they become
// visible:
//
//	err := r.Render(ctx, mdrender.Request{
//	    Container:       c,
//	    Text:            longDocument,
//	    UseLazySections: true,
//	})
//	r.MarkVisible("introduction")  // hydrate one section now
//	r.HydrateAll(ctx)              // or force the rest
//
// # Configuration
//
// Use functional options to customize the renderer:
//
//	r := mdrender.New(
//	    mdrender.WithTimeout(time.Minute),
//	    mdrender.WithWorkers(4),
//	    mdrender.WithHydrationThreshold(128*1024),
//	    mdrender.WithAssetPath("/path/to/custom/assets"),
//	)
//
// Per-render options are passed via Request:
//
//	err := r.Render(ctx, mdrender.Request{
//	    Container:   c,
//	    Text:        content,
//	    Theme:       "github-dark",
//	    UseCache:    true,
//	    UseParallel: true,
//	    ChunkSize:   64 * 1024,
//	})
//
// # Caching
//
// Renders can be served from a persistent result store keyed by content,
// theme, and pipeline version:
//
//	cache, err := mdrender.NewSQLiteCache("render.db")
//	r := mdrender.New(mdrender.WithCache(cache))
//
// Memory, SQLite, Redis, and NATS backends ship with the package. Cache
// failures degrade to a miss; they never fail a render.
//
// # Parallel Processing
//
// For batch rendering, use RendererPool to manage multiple renderer
// instances, each with its own dispatcher:
//
//	pool := mdrender.NewRendererPool(4)
//	defer pool.Close()
//
//	r := pool.Acquire()
//	defer pool.Release(r)
//	err := r.Render(ctx, req)
//
// # Custom Themes
//
// Override built-in themes by pointing the renderer at an asset directory:
//
//	r := mdrender.New(mdrender.WithAssetPath("/path/to/assets"))
//
// Asset directory structure:
//
//	assets/
//	└── themes/
//	    ├── corporate.css
//	    └── dark.css
//
// A theme named in Request.Theme or document frontmatter resolves against
// the custom directory first, then the embedded defaults.
package mdrender
