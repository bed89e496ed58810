package pipeline

import (
	"context"
	"errors"
	"fmt"

	"oss.terrastruct.com/d2/d2graph"
	"oss.terrastruct.com/d2/d2layouts/d2dagrelayout"
	"oss.terrastruct.com/d2/d2lib"
	"oss.terrastruct.com/d2/d2renderers/d2svg"
	"oss.terrastruct.com/d2/lib/textmeasure"
)

// ErrDiagram indicates diagram compilation or rendering failed.
var ErrDiagram = errors.New("diagram rendering failed")

// D2Renderer renders d2 diagram sources to inline SVG.
type D2Renderer struct {
	ruler *textmeasure.Ruler
}

// NewD2Renderer creates a renderer with a shared text-measurement ruler.
// Ruler construction loads font metrics once; the renderer is safe for
// concurrent use.
func NewD2Renderer() (*D2Renderer, error) {
	ruler, err := textmeasure.NewRuler()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiagram, err)
	}
	return &D2Renderer{ruler: ruler}, nil
}

// RenderDiagram compiles source with the dagre layout engine and renders it
// to an SVG document.
func (r *D2Renderer) RenderDiagram(ctx context.Context, source string) (string, error) {
	// Fast path: check context before compiling
	if err := ctx.Err(); err != nil {
		return "", err
	}

	diagram, _, err := d2lib.Compile(ctx, source, &d2lib.CompileOptions{
		LayoutResolver: func(engine string) (d2graph.LayoutGraph, error) {
			return d2dagrelayout.DefaultLayout, nil
		},
		Ruler: r.ruler,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDiagram, err)
	}

	svg, err := d2svg.Render(diagram, &d2svg.RenderOpts{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDiagram, err)
	}
	return string(svg), nil
}
