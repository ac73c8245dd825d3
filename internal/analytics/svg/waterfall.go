package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Waterfall renders floating bars, each spanning [Base, Base+Value]. Steps
// without a color are green when rising and red when falling.
func Waterfall(width, height int, steps []Step, opts Opts) (template.HTML, error) {
	if len(steps) == 0 {
		return "", ErrNoData
	}
	lo, hi := 0.0, 0.0
	for _, s := range steps {
		a, b := s.Base, s.Base+s.Value
		lo = math.Min(lo, math.Min(a, b))
		hi = math.Max(hi, math.Max(a, b))
	}
	f, err := newFrame(width, height, lo, hi, opts)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	f.open(&b, "waterfall", "Cascata")
	f.axes(&b)

	prevTop := 0.0
	for i, s := range steps {
		left, slot := f.slot(i, len(steps))
		color := s.Color
		if color == "" {
			color = "#16a34a"
			if s.Value < 0 {
				color = "#dc2626"
			}
		}
		f.rect(&b, left+slot*0.2, slot*0.6, s.Base, s.Base+s.Value, color, s.Label+": "+f.format(s.Value))
		if i > 0 {
			y := f.y(prevTop)
			fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1" aria-hidden="true"></line>`, left-slot*0.2, y, left+slot*0.2, y, f.axis)
		}
		prevTop = s.Base + s.Value
		f.xLabel(&b, left+slot/2, s.Label)
	}
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
