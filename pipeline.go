package mdrender

import (
	"context"

	"github.com/alnah/go-mdrender/internal/pipeline"
)

// Converter turns markdown into an HTML fragment. Implementations are
// selected at construction; the default is goldmark.
type Converter interface {
	Convert(ctx context.Context, content string) (ConvertResult, error)
}

// Sanitizer strips unsafe markup. It always runs on the orchestrating
// goroutine as the last boundary before content reaches the container.
type Sanitizer interface {
	Sanitize(ctx context.Context, htmlContent string) (string, error)
}

// Highlighter renders source code into highlighted HTML.
type Highlighter interface {
	Highlight(ctx context.Context, code, lang string) (string, error)
}

// DiagramRenderer renders diagram source into SVG.
type DiagramRenderer interface {
	RenderDiagram(ctx context.Context, source string) (string, error)
}

// Default implementations come from the pipeline package.
var (
	_ Sanitizer       = (*pipeline.WhitelistSanitizer)(nil)
	_ Highlighter     = (*pipeline.ChromaHighlighter)(nil)
	_ DiagramRenderer = (*pipeline.D2Renderer)(nil)
)

// goldmarkConverter adapts the pipeline converter to the public result
// type.
type goldmarkConverter struct {
	inner *pipeline.GoldmarkConverter
}

func newGoldmarkConverter() *goldmarkConverter {
	return &goldmarkConverter{inner: pipeline.NewGoldmarkConverter()}
}

func (c *goldmarkConverter) Convert(ctx context.Context, content string) (ConvertResult, error) {
	out, err := c.inner.Convert(ctx, content)
	if err != nil {
		return ConvertResult{}, err
	}
	return ConvertResult{
		HTML: out.HTML,
		Meta: ConvertMeta{
			WordCount:      out.Meta.WordCount,
			HeadingCount:   out.Meta.HeadingCount,
			CodeBlockCount: out.Meta.CodeBlockCount,
		},
	}, nil
}

var _ Converter = (*goldmarkConverter)(nil)

// DocumentTitle returns the display title for a markdown document: the
// frontmatter title when declared, otherwise the first level-one heading,
// otherwise "".
func DocumentTitle(markdown string) string {
	fm, body, err := pipeline.SplitFrontmatter(markdown)
	if err == nil && fm != nil && fm.Title != "" {
		return fm.Title
	}
	return pipeline.DocumentTitle(body)
}
