package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"html/template"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/fretehub/fretehub/internal/analytics"
)

func sampleDashboard() analytics.Dashboard {
	day := func(y int, m time.Month, d int) *time.Time {
		t := time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
		return &t
	}
	money := func(v int64) decimal.NullDecimal { return decimal.NewNullDecimal(decimal.NewFromInt(v)) }
	trips := []analytics.Trip{
		{StartDate: day(2024, 6, 3), ClientName: "Acme", RouteName: "SP-RJ", FreightValue: money(1000), Status: analytics.StatusCompleted},
		{StartDate: day(2024, 5, 10), ClientName: "Beta, Ltda", FreightValue: money(400), Status: analytics.StatusInProgress},
	}
	costs := []analytics.CostEntry{
		{Date: day(2024, 6, 4), Category: analytics.CategoryDiesel, Amount: money(300)},
		{Date: day(2024, 5, 4), Category: "Lavagem", Amount: money(50)},
	}
	return analytics.Aggregate(trips, costs, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
}

func TestWriteDashboardCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteDashboardCSV(buf, sampleDashboard()))

	sections := strings.Split(strings.TrimSpace(buf.String()), "\n\n")
	require.Len(t, sections, 6)

	monthly, err := csv.NewReader(strings.NewReader(sections[0])).ReadAll()
	require.NoError(t, err)
	require.Len(t, monthly, 7)
	assert.Equal(t, []string{"2024-06", "jun de 24", "1000.00", "300.00", "700.00", "1", "1000.00", "0.00", "0.00"}, monthly[6])

	clients, err := csv.NewReader(strings.NewReader(sections[4])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "Acme", "1000.00"}, clients[1])
	assert.Equal(t, "Beta, Ltda", clients[2][1])

	stacked, err := csv.NewReader(strings.NewReader(sections[3])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Lavagem", stacked[0][len(stacked[0])-1])
}

func TestWriteXLSX(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteXLSX(buf, sampleDashboard()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SheetMonthly, SheetCategories, SheetStatus, SheetStacked, SheetClients, SheetRoutes}, f.GetSheetList())

	header, err := f.GetCellValue(SheetMonthly, "B1")
	require.NoError(t, err)
	assert.Equal(t, "Receita", header)

	label, err := f.GetCellValue(SheetMonthly, "A8")
	require.NoError(t, err)
	assert.Equal(t, "TOTAL", label)
	formula, err := f.GetCellFormula(SheetMonthly, "B8")
	require.NoError(t, err)
	assert.Equal(t, "SUM(B2:B7)", formula)

	category, err := f.GetCellValue(SheetCategories, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Diesel", category)
}

type fakeRenderer struct {
	html string
	err  error
}

func (f *fakeRenderer) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("PDF"), nil
}

func TestPDFExporterRender(t *testing.T) {
	renderer := &fakeRenderer{}
	exporter := NewPDFExporter(renderer)
	d := sampleDashboard()
	data, err := exporter.RenderDashboard(context.Background(), DashboardPayload{
		Month:       d.Months[len(d.Months)-1],
		GeneratedAt: time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC),
		Dashboard:   d,
		Charts:      map[string]template.HTML{"Receita": "<svg></svg>"},
	})
	require.NoError(t, err)
	assert.Equal(t, "PDF", string(data))
	assert.Contains(t, renderer.html, "jun de 24")
	assert.Contains(t, renderer.html, "R$ 1.000,00")
	assert.Contains(t, renderer.html, "<svg></svg>")
	assert.Contains(t, renderer.html, "15/06/2024 09:30")
}

func TestPDFExporterWithoutRenderer(t *testing.T) {
	_, err := NewPDFExporter(nil).RenderDashboard(context.Background(), DashboardPayload{})
	assert.True(t, errors.Is(err, ErrPDFUnavailable))

	renderer := &fakeRenderer{err: errors.New("gotenberg down")}
	_, err = NewPDFExporter(renderer).RenderDashboard(context.Background(), DashboardPayload{})
	assert.EqualError(t, err, "gotenberg down")
}
