package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrConvert indicates markdown conversion failed.
var ErrConvert = errors.New("markdown conversion failed")

// Meta summarizes a converted document.
type Meta struct {
	WordCount      int
	HeadingCount   int
	CodeBlockCount int
}

// ConvertResult is the converter's output: an HTML fragment (no document
// shell; the container owns assembly) plus document metadata.
type ConvertResult struct {
	HTML string
	Meta Meta
}

// converterConfig holds construction options for GoldmarkConverter.
type converterConfig struct {
	inlineHighlighting bool
}

// ConverterOption configures a GoldmarkConverter.
type ConverterOption func(*converterConfig)

// WithInlineHighlighting highlights code blocks during conversion in a
// single pass. The default leaves blocks plain so highlighting can run on
// the dispatch pool after first paint.
func WithInlineHighlighting() ConverterOption {
	return func(c *converterConfig) {
		c.inlineHighlighting = true
	}
}

// GoldmarkConverter converts markdown to HTML using goldmark (pure Go).
type GoldmarkConverter struct {
	md goldmark.Markdown
}

// NewGoldmarkConverter creates a converter with GFM extensions and
// auto-generated heading ids.
func NewGoldmarkConverter(opts ...ConverterOption) *GoldmarkConverter {
	var cfg converterConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	extensions := []goldmark.Extender{
		extension.GFM,      // Tables, strikethrough, autolinks, task lists
		extension.Footnote, // [^1] footnotes
	}
	if cfg.inlineHighlighting {
		extensions = append(extensions, highlighting.NewHighlighting(
			highlighting.WithFormatOptions(
				chromahtml.WithClasses(true), // CSS classes keep HTML small and themeable
			),
		))
	}

	md := goldmark.New(
		goldmark.WithExtensions(extensions...),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(), // heading ids anchor lazy sections and TOC links
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(), // Self-closing tags
			// Note: WithUnsafe() intentionally NOT used; raw HTML passes
			// through the sanitizer either way.
		),
	)
	return &GoldmarkConverter{md: md}
}

// Convert converts markdown content to an HTML fragment with metadata.
// Supports context cancellation via goroutine + select pattern since
// goldmark doesn't natively support context.
func (c *GoldmarkConverter) Convert(ctx context.Context, content string) (ConvertResult, error) {
	// Fast path: check context before starting
	if err := ctx.Err(); err != nil {
		return ConvertResult{}, err
	}

	type result struct {
		out ConvertResult
		err error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := c.md.Convert([]byte(preprocessMarkdown(content)), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrConvert, err)}
			return
		}
		fragment := finalizeMarks(buf.String())
		done <- result{out: ConvertResult{
			HTML: fragment,
			Meta: Meta{
				WordCount:      countWords(content),
				HeadingCount:   countHeadings(fragment),
				CodeBlockCount: strings.Count(fragment, "<pre"),
			},
		}}
	}()

	select {
	case <-ctx.Done():
		return ConvertResult{}, ctx.Err()
	case r := <-done:
		return r.out, r.err
	}
}

// countWords counts whitespace-separated tokens in the source.
func countWords(content string) int {
	return len(strings.Fields(content))
}

// countHeadings counts h1-h6 elements in the fragment.
func countHeadings(fragment string) int {
	return len(headingPattern.FindAllStringIndex(fragment, -1))
}
