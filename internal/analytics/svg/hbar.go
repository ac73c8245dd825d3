package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

const rowHeight = 26.0

// HBars renders a horizontal ranking, one row per item in the given order.
// The height grows with the number of rows; an empty list yields the Empty
// placeholder.
func HBars(width int, items []Item, opts Opts) (template.HTML, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if len(items) == 0 {
		return Empty(width, 120, opts, ""), nil
	}
	labelW := float64(width) * 0.32
	valueW := 80.0
	top := 12.0
	height := int(top*2 + rowHeight*float64(len(items)))
	barMax := float64(width) - labelW - valueW - 16
	if barMax <= 0 {
		return "", ErrViewport
	}

	hi := 0.0
	for _, it := range items {
		hi = math.Max(hi, it.Value)
	}
	if almostEqual(hi, 0) {
		hi = 1
	}
	axis := fallback(opts.AxisColor, "#475569")
	format := opts.Format
	if format == nil {
		format = formatTick
	}

	var b strings.Builder
	titleID := makeID(opts.Title, "hbar-title")
	descID := makeID(opts.Title, "hbar-desc")
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" aria-labelledby="%s %s">`, width, height, titleID, descID)
	fmt.Fprintf(&b, `<title id="%s">%s</title>`, titleID, esc(fallback(opts.Title, "Ranking")))
	fmt.Fprintf(&b, `<desc id="%s">%s</desc>`, descID, esc(fallback(opts.Description, "Ranking")))
	for i, it := range items {
		y := top + float64(i)*rowHeight
		w := positive(it.Value) / hi * barMax
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="11" text-anchor="end">%s</text>`, labelW-8, y+15, axis, esc(truncate(it.Label, 28)))
		fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>%s</title></rect>`, labelW, y+4, w, rowHeight-8, colorAt(i, ""), esc(it.Label))
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="11" text-anchor="start">%s</text>`, labelW+w+6, y+15, axis, esc(format(it.Value)))
	}
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
