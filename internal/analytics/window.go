package analytics

import (
	"fmt"
	"time"
)

// WindowMonths is the number of trailing months covered by the analytics dashboard.
const WindowMonths = 6

// StackedMonths is how many of the most recent buckets feed the stacked category chart.
const StackedMonths = 4

var shortMonths = [...]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

// MonthBucket identifies one calendar month.
type MonthBucket struct {
	Key   string    `json:"key"`
	Label string    `json:"label"`
	Start time.Time `json:"start"`
}

// Window is a half-open range [Start, End) of whole months.
type Window struct {
	Start  time.Time
	End    time.Time
	Months []MonthBucket
}

// MonthKey formats the YYYY-MM key of t in t's own location.
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// MonthLabel renders the pt-BR short label, e.g. "jun de 24".
func MonthLabel(t time.Time) string {
	return fmt.Sprintf("%s de %02d", shortMonths[t.Month()-1], t.Year()%100)
}

// StartOfMonth returns midnight of the first day of t's month in t's location.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// TrailingMonths builds n month buckets ending with now's month, oldest first.
func TrailingMonths(now time.Time, n int) Window {
	if n <= 0 {
		n = 1
	}
	current := StartOfMonth(now)
	months := make([]MonthBucket, 0, n)
	for i := n - 1; i >= 0; i-- {
		start := current.AddDate(0, -i, 0)
		months = append(months, MonthBucket{Key: MonthKey(start), Label: MonthLabel(start), Start: start})
	}
	return Window{
		Start:  months[0].Start,
		End:    current.AddDate(0, 1, 0),
		Months: months,
	}
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// ParseMonth parses a YYYY-MM reference into the first instant of that month in loc.
func ParseMonth(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMonth, value)
	}
	return t, nil
}

// tripMonthKey keys a trip timestamp in the reference location.
func tripMonthKey(start time.Time, loc *time.Location) string {
	if loc != nil {
		start = start.In(loc)
	}
	return MonthKey(start)
}

// dateMonthKey keys a calendar date by its own year and month.
func dateMonthKey(date time.Time) string {
	return MonthKey(date)
}
