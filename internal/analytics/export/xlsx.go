package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/fretehub/fretehub/internal/analytics"
)

// Sheet names of the XLSX export.
const (
	SheetMonthly    = "Mensal"
	SheetCategories = "Categorias"
	SheetStatus     = "Status"
	SheetStacked    = "Custos por mês"
	SheetClients    = "Top clientes"
	SheetRoutes     = "Top rotas"
)

type workbook struct {
	f       *excelize.File
	header  int
	total   int
	money   int
	created bool
}

// WriteXLSX renders the dashboard as a workbook with one sheet per section.
// Money columns close with a SUM totals row.
func WriteXLSX(w io.Writer, d analytics.Dashboard) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	wb := &workbook{f: f}
	if err := wb.styles(); err != nil {
		return err
	}

	monthly := make([][]any, 0, len(d.MonthlySeries))
	for i, m := range d.MonthlySeries {
		monthly = append(monthly, []any{
			m.Month, m.Revenue, m.Cost, valueAt(d.MarginPerMonth, i), tripsAt(d.TripsPerMonth, i),
			valueAt(d.AvgTicketPerMonth, i), valueAt(d.AvgKmPerMonth, i), valueAt(d.VolumePerMonth, i),
		})
	}
	if err := wb.sheet(SheetMonthly,
		[]string{"Mês", "Receita", "Custos", "Margem", "Viagens", "Ticket médio", "Km médio", "Volume (t)"},
		monthly, []string{"B", "C", "D", "E", "H"}); err != nil {
		return err
	}

	categories := make([][]any, 0, len(d.CategoryBreakdown))
	for _, row := range d.CategoryBreakdown {
		categories = append(categories, []any{row.Category.Label(), row.Amount})
	}
	if err := wb.sheet(SheetCategories, []string{"Categoria", "Valor"}, categories, []string{"B"}); err != nil {
		return err
	}

	statuses := make([][]any, 0, len(d.StatusBreakdown))
	for _, row := range d.StatusBreakdown {
		statuses = append(statuses, []any{row.Status.Label(), row.Count})
	}
	if err := wb.sheet(SheetStatus, []string{"Status", "Viagens"}, statuses, []string{"B"}); err != nil {
		return err
	}

	stackedHeader := []string{"Mês"}
	stackedTotals := make([]string, 0, len(d.StackedCategories))
	for i, c := range d.StackedCategories {
		stackedHeader = append(stackedHeader, c.Label())
		col, err := excelize.ColumnNumberToName(i + 2)
		if err != nil {
			return err
		}
		stackedTotals = append(stackedTotals, col)
	}
	stacked := make([][]any, 0, len(d.StackedSeries))
	for _, m := range d.StackedSeries {
		row := []any{m.Month}
		for _, c := range d.StackedCategories {
			row = append(row, d.StackedValue(m, c))
		}
		stacked = append(stacked, row)
	}
	if err := wb.sheet(SheetStacked, stackedHeader, stacked, stackedTotals); err != nil {
		return err
	}

	if err := wb.sheet(SheetClients, []string{"#", "Cliente", "Receita"}, ranking(d.TopClients), []string{"C"}); err != nil {
		return err
	}
	if err := wb.sheet(SheetRoutes, []string{"#", "Rota", "Receita"}, ranking(d.TopRoutes), []string{"C"}); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func (wb *workbook) styles() error {
	var err error
	wb.header, err = wb.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F4E78"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	wb.total, err = wb.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "top", Color: "#000000", Style: 1},
			{Type: "bottom", Color: "#000000", Style: 1},
		},
		NumFmt: 4,
	})
	if err != nil {
		return err
	}
	wb.money, err = wb.f.NewStyle(&excelize.Style{NumFmt: 4})
	return err
}

// sheet writes a header row, the data rows and, when totals names columns,
// a closing TOTAL row with SUM formulas for them.
func (wb *workbook) sheet(name string, header []string, rows [][]any, totals []string) error {
	if !wb.created {
		if err := wb.f.SetSheetName("Sheet1", name); err != nil {
			return err
		}
		wb.created = true
	} else if _, err := wb.f.NewSheet(name); err != nil {
		return err
	}

	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := wb.f.SetCellValue(name, cell, h); err != nil {
			return err
		}
	}
	if err := wb.f.SetCellStyle(name, "A1", last+"1", wb.header); err != nil {
		return err
	}
	if err := wb.f.SetColWidth(name, "A", "A", 22); err != nil {
		return err
	}
	if len(header) > 1 {
		if err := wb.f.SetColWidth(name, "B", last, 16); err != nil {
			return err
		}
	}

	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := wb.f.SetCellValue(name, cell, v); err != nil {
				return err
			}
			if _, ok := v.(float64); ok {
				if err := wb.f.SetCellStyle(name, cell, cell, wb.money); err != nil {
					return err
				}
			}
		}
	}

	if len(totals) == 0 || len(rows) == 0 {
		return nil
	}
	totalRow := len(rows) + 2
	if err := wb.f.SetCellValue(name, fmt.Sprintf("A%d", totalRow), "TOTAL"); err != nil {
		return err
	}
	for _, col := range totals {
		formula := fmt.Sprintf("SUM(%s2:%s%d)", col, col, totalRow-1)
		if err := wb.f.SetCellFormula(name, fmt.Sprintf("%s%d", col, totalRow), formula); err != nil {
			return err
		}
	}
	return wb.f.SetCellStyle(name, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("%s%d", last, totalRow), wb.total)
}

func ranking(rows []analytics.RankedEntry) [][]any {
	out := make([][]any, 0, len(rows))
	for i, row := range rows {
		out = append(out, []any{i + 1, row.Name, row.Revenue})
	}
	return out
}
