package svg

import "html/template"

// Renderer exposes the package renderers as methods so callers can depend on
// an interface.
type Renderer struct{}

func (Renderer) Line(width, height int, labels []string, series []Series, opts Opts) (template.HTML, error) {
	return Line(width, height, labels, series, opts)
}

func (Renderer) Bars(width, height int, labels []string, series []Series, opts Opts) (template.HTML, error) {
	return Bars(width, height, labels, series, opts)
}

func (Renderer) Stacked(width, height int, labels []string, series []Series, opts Opts) (template.HTML, error) {
	return Stacked(width, height, labels, series, opts)
}

func (Renderer) Waterfall(width, height int, steps []Step, opts Opts) (template.HTML, error) {
	return Waterfall(width, height, steps, opts)
}

func (Renderer) HBars(width int, items []Item, opts Opts) (template.HTML, error) {
	return HBars(width, items, opts)
}
