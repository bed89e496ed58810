package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// ErrHighlight indicates syntax highlighting failed.
var ErrHighlight = errors.New("syntax highlighting failed")

// ChromaHighlighter highlights code using chroma with CSS classes, so
// colors come from the theme stylesheet instead of inline styles.
type ChromaHighlighter struct {
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

// NewChromaHighlighter creates a highlighter with class-based output.
func NewChromaHighlighter() *ChromaHighlighter {
	return &ChromaHighlighter{
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
		style:     styles.Get("github"),
	}
}

// Highlight tokenizes code for the given language and formats it as HTML.
// Unknown languages fall back to plain-text tokenization rather than
// failing; a section with unrecognized code still renders.
func (h *ChromaHighlighter) Highlight(ctx context.Context, code, lang string) (string, error) {
	// Fast path: check context before tokenizing
	if err := ctx.Err(); err != nil {
		return "", err
	}

	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHighlight, err)
	}

	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHighlight, err)
	}
	return buf.String(), nil
}
