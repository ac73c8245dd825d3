package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// Line renders one polyline per series over the shared labels.
func Line(width, height int, labels []string, series []Series, opts Opts) (template.HTML, error) {
	if err := checkLengths(labels, series); err != nil {
		return "", err
	}
	lo, hi := seriesBounds(series)
	f, err := newFrame(width, height, lo, hi, opts)
	if err != nil {
		return "", err
	}

	x := func(i int) float64 {
		if len(labels) == 1 {
			return f.pad + f.plotW/2
		}
		return f.pad + float64(i)*f.plotW/float64(len(labels)-1)
	}

	var b strings.Builder
	f.open(&b, "line", "Gráfico de linha")
	f.axes(&b)

	for si, s := range series {
		color := colorAt(si, s.Color)
		var path strings.Builder
		for i, v := range s.Values {
			cmd := "L"
			if i == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&path, "%s%.2f %.2f ", cmd, x(i), f.y(v))
		}
		d := strings.TrimSpace(path.String())
		if si == 0 && opts.FillArea {
			zero := f.y(0)
			fmt.Fprintf(&b, `<path d="%s L%.2f %.2f L%.2f %.2f Z" fill="%s" fill-opacity="0.12" stroke="none" aria-hidden="true"></path>`, d, x(len(s.Values)-1), zero, x(0), zero, color)
		}
		fmt.Fprintf(&b, `<path d="%s" fill="none" stroke="%s" stroke-width="2" stroke-linejoin="round" stroke-linecap="round"></path>`, d, color)
		if opts.ShowDots {
			for i, v := range s.Values {
				fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="3" fill="%s"><title>%s: %s</title></circle>`, x(i), f.y(v), color, esc(labels[i]), esc(f.format(v)))
			}
		}
	}

	for i, label := range labels {
		f.xLabel(&b, x(i), label)
	}
	if len(series) > 1 {
		f.legend(&b, series)
	}
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func seriesBounds(series []Series) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, s := range series {
		for _, v := range s.Values {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return lo, hi
}
