package section

import (
	"fmt"
	"html"
	"strings"

	"github.com/alnah/go-mdrender/internal/assets"
)

// Placeholder sizing heuristic. Heights approximate the final rendered size
// so replacing a placeholder does not shift scroll position; exactness is
// not a goal.
const (
	placeholderLinePx = 22
	minPlaceholderPx  = 48
	maxPlaceholderPx  = 1600
)

// placeholderTemplate takes a section id and a pixel height.
var placeholderTemplate = assets.MustTemplate("placeholder")

// Fragment is the instantly paintable placeholder markup for one section.
type Fragment struct {
	ID   string
	HTML string
}

// BuildSkeleton produces the paintable placeholder fragment for each section:
// the heading (when present) as a real heading element at its level, followed
// by a sized empty region carrying the section id. No transform engine is
// invoked; cost is linear in section count.
func BuildSkeleton(sections []Section) []Fragment {
	fragments := make([]Fragment, 0, len(sections))
	for _, s := range sections {
		fragments = append(fragments, Fragment{ID: s.ID, HTML: skeletonFragment(s)})
	}
	return fragments
}

// skeletonFragment renders one section placeholder. The section wrapper
// carries the id permanently; hydration replaces the wrapper's children, so
// the region stays addressable after its placeholder is gone.
func skeletonFragment(s Section) string {
	var b strings.Builder

	fmt.Fprintf(&b, `<section class="mdr-section" data-section-id="%s">`,
		html.EscapeString(s.ID))

	if s.Heading != "" && s.Level >= 1 && s.Level <= maxHeadingLevel {
		fmt.Fprintf(&b, `<h%d class="mdr-skeleton-heading">%s</h%d>`,
			s.Level, html.EscapeString(s.Heading), s.Level)
	}

	fmt.Fprintf(&b, placeholderTemplate,
		html.EscapeString(s.ID), estimateHeight(s.Text))

	b.WriteString(`</section>`)

	return b.String()
}

// estimateHeight sizes a placeholder from source line count, clamped to keep
// degenerate inputs from producing invisible or page-dwarfing regions.
func estimateHeight(text string) int {
	lines := strings.Count(text, "\n") + 1
	px := lines * placeholderLinePx
	if px < minPlaceholderPx {
		return minPlaceholderPx
	}
	if px > maxPlaceholderPx {
		return maxPlaceholderPx
	}
	return px
}
