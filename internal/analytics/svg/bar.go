package svg

import (
	"html/template"
	"strings"
)

// Bars renders a grouped bar chart, one bar per series inside each label slot.
func Bars(width, height int, labels []string, series []Series, opts Opts) (template.HTML, error) {
	if err := checkLengths(labels, series); err != nil {
		return "", err
	}
	lo, hi := seriesBounds(series)
	f, err := newFrame(width, height, lo, hi, opts)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	f.open(&b, "bar", "Gráfico de barras")
	f.axes(&b)

	for i, label := range labels {
		left, slot := f.slot(i, len(labels))
		inner := slot * 0.8
		barW := inner / float64(len(series))
		for si, s := range series {
			x := left + slot*0.1 + float64(si)*barW
			f.rect(&b, x, barW*0.9, 0, s.Values[i], colorAt(si, s.Color), label+" "+s.Label+": "+f.format(s.Values[i]))
		}
		f.xLabel(&b, left+slot/2, label)
	}
	f.legend(&b, series)
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

// Stacked renders one column per label with the series stacked bottom-up.
// Negative values are clamped to zero because a stack has no meaningful
// ordering below the axis.
func Stacked(width, height int, labels []string, series []Series, opts Opts) (template.HTML, error) {
	if err := checkLengths(labels, series); err != nil {
		return "", err
	}
	hi := 0.0
	for i := range labels {
		total := 0.0
		for _, s := range series {
			total += positive(s.Values[i])
		}
		if total > hi {
			hi = total
		}
	}
	f, err := newFrame(width, height, 0, hi, opts)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	f.open(&b, "stacked", "Gráfico empilhado")
	f.axes(&b)

	for i, label := range labels {
		left, slot := f.slot(i, len(labels))
		base := 0.0
		for si, s := range series {
			v := positive(s.Values[i])
			if v == 0 {
				continue
			}
			f.rect(&b, left+slot*0.2, slot*0.6, base, base+v, colorAt(si, s.Color), label+" "+s.Label+": "+f.format(v))
			base += v
		}
		f.xLabel(&b, left+slot/2, label)
	}
	f.legend(&b, series)
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func positive(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
