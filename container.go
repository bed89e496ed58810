package mdrender

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/alnah/go-mdrender/internal/pipeline"
)

// Container abstracts the interactive surface a render writes into. The
// orchestrator only ever talks to this interface; hosts bridge it to their
// real display surface. Implementations must be safe for concurrent use:
// lazy hydration fills sections from multiple goroutines.
type Container interface {
	// SetSkeleton replaces the content with placeholder markup. The section
	// list mirrors the regions inside the markup, in document order.
	SetSkeleton(html string, sections []Section)

	// SetHTML replaces the content with final markup.
	SetHTML(html string)

	// FillSection replaces the skeleton region identified by id with final
	// markup. Unknown ids report ErrUnknownSection.
	FillSection(id, html string) error

	// ApplyTheme applies a theme class and stylesheet to the content.
	ApplyTheme(name, css string)

	// Reinitialize re-runs the attachment side effects a cache cannot
	// capture: interactive listeners, copy-affordance wiring.
	Reinitialize()

	// HTML returns the current content markup.
	HTML() string
}

// HTMLContainer is a thread-safe string-building Container for hosts without
// a live display surface: servers, CLIs, tests. Content is kept unthemed
// internally; HTML assembles the themed region on read.
type HTMLContainer struct {
	mu       sync.Mutex
	content  string
	theme    string
	css      string
	sections []Section
	onUpdate func()
}

// NewHTMLContainer creates an empty container.
func NewHTMLContainer() *HTMLContainer {
	return &HTMLContainer{}
}

// OnUpdate registers a callback fired after every content mutation,
// replacing any previous callback. Useful for live-reload hosts.
func (c *HTMLContainer) OnUpdate(fn func()) {
	c.mu.Lock()
	c.onUpdate = fn
	c.mu.Unlock()
}

// SetSkeleton replaces the content with placeholder markup.
func (c *HTMLContainer) SetSkeleton(html string, sections []Section) {
	c.mu.Lock()
	c.content = html
	c.sections = sections
	fn := c.onUpdate
	c.mu.Unlock()

	c.notify(fn)
}

// SetHTML replaces the content with final markup.
func (c *HTMLContainer) SetHTML(html string) {
	c.mu.Lock()
	c.content = html
	c.sections = nil
	fn := c.onUpdate
	c.mu.Unlock()

	c.notify(fn)
}

// FillSection replaces the children of the section region identified by id.
// The region wrapper itself stays in place so the id remains addressable.
func (c *HTMLContainer) FillSection(id, html string) error {
	open := fmt.Sprintf(`<section class="mdr-section" data-section-id="%s">`, id)

	c.mu.Lock()
	start := strings.Index(c.content, open)
	if start < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownSection, id)
	}
	inner := start + len(open)
	length := strings.Index(c.content[inner:], "</section>")
	if length < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q has no closing tag", ErrUnknownSection, id)
	}
	c.content = c.content[:inner] + "\n" + html + "\n" + c.content[inner+length:]
	fn := c.onUpdate
	c.mu.Unlock()

	c.notify(fn)
	return nil
}

// ApplyTheme records the theme class and stylesheet applied on read.
func (c *HTMLContainer) ApplyTheme(name, css string) {
	c.mu.Lock()
	c.theme = pipeline.ThemeClass(name)
	c.css = css
	fn := c.onUpdate
	c.mu.Unlock()

	c.notify(fn)
}

// Reinitialize re-fires the update callback so hosts re-bind interactivity.
// The string surface itself has no listeners to re-attach.
func (c *HTMLContainer) Reinitialize() {
	c.mu.Lock()
	fn := c.onUpdate
	c.mu.Unlock()

	c.notify(fn)
}

// HTML returns the themed region markup: a style block when a stylesheet is
// applied, then the content inside a classed document wrapper.
func (c *HTMLContainer) HTML() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	if c.css != "" {
		b.WriteString("<style>")
		b.WriteString(strings.ReplaceAll(c.css, "</", `<\/`))
		b.WriteString("</style>\n")
	}
	b.WriteString(`<div class="mdr-document`)
	if c.theme != "" {
		b.WriteString(" mdr-theme-")
		b.WriteString(c.theme)
	}
	b.WriteString("\">\n")
	b.WriteString(c.content)
	b.WriteString("\n</div>")
	return b.String()
}

// Content returns the raw unthemed markup. This is what write-through
// caching stores; theme and stylesheet are reapplied from the request on a
// hit.
func (c *HTMLContainer) Content() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content
}

// Sections returns the regions of the current skeleton, nil after SetHTML.
// Hosts use the ids to wire real visibility observation.
func (c *HTMLContainer) Sections() []Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sections
}

// Document assembles a complete standalone HTML page around the current
// content, with the stylesheet in the head. This is the form the CLI writes
// to disk.
func (c *HTMLContainer) Document(title string) string {
	c.mu.Lock()
	content, theme, css := c.content, c.theme, c.css
	c.mu.Unlock()

	doc := pipeline.BuildDocument(title, theme, content)
	injector := &pipeline.CSSInjection{}
	return injector.InjectCSS(context.Background(), doc, css)
}

// notify fires an update callback outside the container lock.
func (c *HTMLContainer) notify(fn func()) {
	if fn != nil {
		fn()
	}
}

var _ Container = (*HTMLContainer)(nil)
