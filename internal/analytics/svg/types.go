package svg

// Series is one named sequence of values drawn against the shared labels.
type Series struct {
	Label  string
	Color  string
	Values []float64
}

// Item is a single labelled value, used by horizontal bars.
type Item struct {
	Label string
	Value float64
}

// Step is one bar of a waterfall chart. The bar spans [Base, Base+Value].
type Step struct {
	Label string
	Base  float64
	Value float64
	Color string
}

// Opts customises every renderer in the package.
type Opts struct {
	Title       string
	Description string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
	ShowDots    bool
	// FillArea shades the area under the first line series.
	FillArea bool
	// Format renders tick and value labels. Defaults to a compact k/M notation.
	Format func(float64) string
}

// Defaults for the dashboard charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 260
	DefaultPadding = 36.0
	DefaultTicks   = 5
)

// Palette is cycled for series without an explicit color.
var Palette = []string{
	"#2563eb",
	"#f97316",
	"#16a34a",
	"#9333ea",
	"#0ea5e9",
	"#64748b",
	"#e11d48",
	"#ca8a04",
}

func colorAt(i int, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return Palette[i%len(Palette)]
}
