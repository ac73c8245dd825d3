package svg

import (
	"errors"
	"fmt"
	"html/template"
	"math"
	"strings"
)

var (
	// ErrNoData is returned when a renderer receives nothing to draw.
	ErrNoData = errors.New("svg: no data")
	// ErrLength is returned when series and labels disagree in length.
	ErrLength = errors.New("svg: series length must match labels")
	// ErrViewport is returned when padding leaves no room to draw.
	ErrViewport = errors.New("svg: viewport too small")
)

// frame holds the geometry shared by the vertical charts: a plot area inset
// by padding and a linear y scale that always includes zero.
type frame struct {
	width, height int
	pad           float64
	plotW, plotH  float64
	min, max      float64
	ticks         int
	opts          Opts
	axis, grid    string
}

func newFrame(width, height int, lo, hi float64, opts Opts) (*frame, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	pad := opts.Padding
	if pad <= 0 {
		pad = DefaultPadding
	}
	ticks := opts.TickCount
	if ticks <= 0 {
		ticks = DefaultTicks
	}
	f := &frame{
		width:  width,
		height: height,
		pad:    pad,
		plotW:  float64(width) - 2*pad,
		plotH:  float64(height) - 2*pad,
		ticks:  ticks,
		opts:   opts,
		axis:   fallback(opts.AxisColor, "#475569"),
		grid:   fallback(opts.GridColor, "#cbd5e1"),
	}
	if f.plotW <= 0 || f.plotH <= 0 {
		return nil, ErrViewport
	}
	lo = math.Min(lo, 0)
	hi = math.Max(hi, 0)
	if almostEqual(lo, hi) {
		hi = lo + 1
	}
	f.min, f.max = lo, hi
	return f, nil
}

// y maps a value onto the vertical pixel axis.
func (f *frame) y(v float64) float64 {
	return f.pad + f.plotH - (v-f.min)/(f.max-f.min)*f.plotH
}

func (f *frame) bottom() float64 { return f.pad + f.plotH }

func (f *frame) format(v float64) string {
	if f.opts.Format != nil {
		return f.opts.Format(v)
	}
	return formatTick(v)
}

func (f *frame) open(b *strings.Builder, kind, defaultTitle string) {
	titleID := makeID(f.opts.Title, kind+"-title")
	descID := makeID(f.opts.Title, kind+"-desc")
	fmt.Fprintf(b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" aria-labelledby="%s %s">`, f.width, f.height, titleID, descID)
	fmt.Fprintf(b, `<title id="%s">%s</title>`, titleID, esc(fallback(f.opts.Title, defaultTitle)))
	fmt.Fprintf(b, `<desc id="%s">%s</desc>`, descID, esc(fallback(f.opts.Description, defaultTitle)))
}

// axes draws the horizontal grid with tick labels, the y axis and the zero line.
func (f *frame) axes(b *strings.Builder) {
	for i := 0; i <= f.ticks; i++ {
		ratio := float64(i) / float64(f.ticks)
		value := f.min + (f.max-f.min)*ratio
		y := f.y(value)
		fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.5" stroke-dasharray="2,4" aria-hidden="true"></line>`, f.pad, y, f.pad+f.plotW, y, f.grid)
		fmt.Fprintf(b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="end">%s</text>`, f.pad-6, y+4, f.axis, esc(f.format(value)))
	}
	zero := f.y(0)
	fmt.Fprintf(b, `<g stroke="%s" aria-hidden="true">`, f.axis)
	fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke-width="1"></line>`, f.pad, f.pad, f.pad, f.bottom())
	fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke-width="1"></line>`, f.pad, zero, f.pad+f.plotW, zero)
	b.WriteString("</g>")
}

// slot returns the left edge and width of the i-th of n equal columns.
func (f *frame) slot(i, n int) (float64, float64) {
	w := f.plotW / float64(n)
	return f.pad + float64(i)*w, w
}

func (f *frame) xLabel(b *strings.Builder, x float64, label string) {
	fmt.Fprintf(b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="middle">%s</text>`, x, f.bottom()+14, f.axis, esc(label))
}

// legend draws one swatch per series above the plot area.
func (f *frame) legend(b *strings.Builder, series []Series) {
	y := math.Max(f.pad-14, 12)
	x := f.pad
	for i, s := range series {
		if s.Label == "" {
			continue
		}
		fmt.Fprintf(b, `<rect x="%.2f" y="%.2f" width="10" height="10" fill="%s"></rect>`, x, y-8, colorAt(i, s.Color))
		fmt.Fprintf(b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="start">%s</text>`, x+14, y, f.axis, esc(s.Label))
		x += 24 + 6*float64(len([]rune(s.Label)))
	}
}

// rect draws a bar spanning from value a to value b.
func (f *frame) rect(sb *strings.Builder, x, w, a, b float64, color, label string) {
	top := math.Min(f.y(a), f.y(b))
	h := math.Abs(f.y(a) - f.y(b))
	fmt.Fprintf(sb, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>%s</title></rect>`, x, top, w, h, color, esc(label))
}

func checkLengths(labels []string, series []Series) error {
	if len(labels) == 0 || len(series) == 0 {
		return ErrNoData
	}
	for _, s := range series {
		if len(s.Values) != len(labels) {
			return fmt.Errorf("%w: %q has %d values for %d labels", ErrLength, s.Label, len(s.Values), len(labels))
		}
	}
	return nil
}

// Empty renders a placeholder for charts without data.
func Empty(width, height int, opts Opts, message string) template.HTML {
	f, err := newFrame(width, height, 0, 1, opts)
	if err != nil {
		return ""
	}
	var b strings.Builder
	f.open(&b, "empty", "Sem dados")
	fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="12" text-anchor="middle">%s</text>`, float64(f.width)/2, float64(f.height)/2, f.axis, esc(fallback(message, "Sem dados no período")))
	b.WriteString("</svg>")
	return template.HTML(b.String())
}

func esc(s string) string {
	return template.HTMLEscapeString(s)
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return cleaned + "-" + suffix
}

func formatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	case almostEqual(v, math.Round(v)):
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.1f", v)
	}
}
