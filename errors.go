package mdrender

import (
	"errors"

	"github.com/alnah/go-mdrender/internal/cache"
	"github.com/alnah/go-mdrender/internal/dispatch"
	"github.com/alnah/go-mdrender/internal/hydrate"
	"github.com/alnah/go-mdrender/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	ErrNilContainer     = errors.New("container cannot be nil")
	ErrEmptyDocument    = errors.New("document text cannot be empty")
	ErrRenderCancelled  = errors.New("render cancelled")
	ErrRendererClosed   = errors.New("renderer is closed")
	ErrUnknownTheme     = errors.New("unknown theme")
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// Pipeline stage errors, shared with the stage implementations so
	// errors.Is works across the package boundary.
	ErrConvert     = pipeline.ErrConvert
	ErrSanitize    = pipeline.ErrSanitize
	ErrHighlight   = pipeline.ErrHighlight
	ErrDiagram     = pipeline.ErrDiagram
	ErrFrontmatter = pipeline.ErrFrontmatter

	// Dispatcher errors.
	ErrTaskTimeout      = dispatch.ErrTaskTimeout
	ErrTaskInFlight     = dispatch.ErrTaskInFlight
	ErrDispatcherClosed = dispatch.ErrPoolClosed

	// Cache errors.
	ErrCacheMiss        = cache.ErrCacheMiss
	ErrCacheUnavailable = cache.ErrCacheUnavailable

	// Section errors.
	ErrUnknownSection = hydrate.ErrUnknownSection
)
