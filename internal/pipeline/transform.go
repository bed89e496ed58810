package pipeline

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/alnah/go-mdrender/internal/assets"
)

// Precompiled regex patterns for performance.
var (
	// Fenced code blocks with a language class
	langCodeBlock = regexp.MustCompile(`(?s)<pre><code class="language-([A-Za-z0-9_+#.-]+)">(.*?)</code></pre>`)

	// Fenced code blocks without a language
	plainCodeBlock = regexp.MustCompile(`(?s)<pre><code>(.*?)</code></pre>`)

	// Image tags, for lazy-loading markers
	imgTag = regexp.MustCompile(`<img\b[^>]*/?>`)

	// Tables, for overflow wrapping
	tableBlock = regexp.MustCompile(`(?s)<table>(.*?)</table>`)
)

// PresentationTransformer applies presentation-only rewrites between
// sanitization and insertion: code-block chrome, image lazy-loading markers,
// table wrapping. Pure string transforms, no external calls.
type PresentationTransformer struct{}

// NewPresentationTransformer creates a PresentationTransformer.
func NewPresentationTransformer() *PresentationTransformer {
	return &PresentationTransformer{}
}

// Transform applies all presentation rewrites.
func (t *PresentationTransformer) Transform(ctx context.Context, htmlContent string) string {
	// Check for cancellation before processing
	if ctx.Err() != nil {
		return htmlContent
	}

	htmlContent = wrapCodeBlocks(htmlContent)
	htmlContent = markImagesLazy(htmlContent)
	htmlContent = wrapTables(htmlContent)
	return htmlContent
}

// wrapCodeBlocks surrounds each fenced code block with chrome: a header
// carrying the language label, ready for a copy affordance. Diagram sources
// are left bare since rendering replaces them with a figure.
func wrapCodeBlocks(htmlContent string) string {
	htmlContent = langCodeBlock.ReplaceAllStringFunc(htmlContent, func(block string) string {
		sub := langCodeBlock.FindStringSubmatch(block)
		if sub == nil || sub[1] == DiagramLang {
			return block
		}
		lang := sub[1]
		return `<div class="mdr-code-block" data-lang="` + lang + `">` +
			`<div class="mdr-code-header"><span class="mdr-code-lang">` + lang + `</span></div>` +
			block + `</div>`
	})

	return plainCodeBlock.ReplaceAllString(htmlContent,
		`<div class="mdr-code-block"><pre><code>$1</code></pre></div>`)
}

// markImagesLazy adds loading="lazy" to images that don't declare a loading
// behavior, so offscreen images never compete with hydration.
func markImagesLazy(htmlContent string) string {
	return imgTag.ReplaceAllStringFunc(htmlContent, func(tag string) string {
		if strings.Contains(tag, "loading=") {
			return tag
		}
		if strings.HasSuffix(tag, "/>") {
			base := strings.TrimRight(strings.TrimSuffix(tag, "/>"), " ")
			return base + ` loading="lazy" />`
		}
		base := strings.TrimRight(strings.TrimSuffix(tag, ">"), " ")
		return base + ` loading="lazy">`
	})
}

// wrapTables wraps tables for horizontal overflow scrolling.
func wrapTables(htmlContent string) string {
	return tableBlock.ReplaceAllString(htmlContent,
		`<div class="mdr-table-wrap"><table>$1</table></div>`)
}

// errorTemplate takes the escaped failure message.
var errorTemplate = assets.MustTemplate("error")

// ErrorBlock renders a contained inline error for a failed transform so the
// surrounding document stays intact and clearly readable.
func ErrorBlock(msg string) string {
	return fmt.Sprintf(errorTemplate, html.EscapeString(msg))
}
