// Package i18n formats numbers and dates for the pt-BR screens and reports.
package i18n

import (
	"math"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Money renders v as Brazilian reais, e.g. "R$ 1.234,50".
func Money(v float64) string {
	r := round2(v)
	if r < 0 {
		return "-R$ " + printer.Sprintf("%.2f", -r)
	}
	return "R$ " + printer.Sprintf("%.2f", r)
}

// Number renders v with the given number of decimals and pt-BR separators.
func Number(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return printer.Sprintf("%."+strconv.Itoa(decimals)+"f", v)
}

// Percent renders v (already a percentage) with one decimal, e.g. "12,5%".
func Percent(v float64) string {
	return printer.Sprintf("%.1f", v) + "%"
}

// Date renders t as dd/mm/yyyy; zero or nil times render empty.
func Date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

// round2 avoids "-0,00" and half-cent drift from float sums.
func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}
