package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/fretehub/fretehub/internal/analytics"
)

// WriteMonthlyCSV emits the per-month series side by side.
func WriteMonthlyCSV(w io.Writer, d analytics.Dashboard) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Month", "Label", "Revenue", "Cost", "Margin", "Trips", "AvgTicket", "AvgKm", "VolumeTons"}); err != nil {
		return err
	}
	for i, m := range d.MonthlySeries {
		record := []string{m.Key, m.Month, formatFloat(m.Revenue), formatFloat(m.Cost)}
		record = append(record,
			formatFloat(valueAt(d.MarginPerMonth, i)),
			strconv.Itoa(tripsAt(d.TripsPerMonth, i)),
			formatFloat(valueAt(d.AvgTicketPerMonth, i)),
			formatFloat(valueAt(d.AvgKmPerMonth, i)),
			formatFloat(valueAt(d.VolumePerMonth, i)),
		)
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteCategoryCSV prints the cost breakdown in first-seen order.
func WriteCategoryCSV(w io.Writer, rows []analytics.CategoryAmount) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Category", "Amount"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{string(row.Category), formatFloat(row.Amount)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteStatusCSV prints trip counts per status.
func WriteStatusCSV(w io.Writer, rows []analytics.StatusCount) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Status", "Trips"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{string(row.Status), strconv.Itoa(row.Count)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteStackedCSV prints one row per month with a column per category.
func WriteStackedCSV(w io.Writer, d analytics.Dashboard) error {
	writer := csv.NewWriter(w)
	header := []string{"Month"}
	for _, c := range d.StackedCategories {
		header = append(header, string(c))
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, m := range d.StackedSeries {
		record := []string{m.Key}
		for _, c := range d.StackedCategories {
			record = append(record, formatFloat(d.StackedValue(m, c)))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteRankingCSV prints a top-N ranking under the given name column.
func WriteRankingCSV(w io.Writer, nameHeader string, rows []analytics.RankedEntry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Rank", nameHeader, "Revenue"}); err != nil {
		return err
	}
	for i, row := range rows {
		if err := writer.Write([]string{strconv.Itoa(i + 1), row.Name, formatFloat(row.Revenue)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteDashboardCSV writes every section separated by a blank line.
func WriteDashboardCSV(w io.Writer, d analytics.Dashboard) error {
	sections := []func(io.Writer) error{
		func(w io.Writer) error { return WriteMonthlyCSV(w, d) },
		func(w io.Writer) error { return WriteCategoryCSV(w, d.CategoryBreakdown) },
		func(w io.Writer) error { return WriteStatusCSV(w, d.StatusBreakdown) },
		func(w io.Writer) error { return WriteStackedCSV(w, d) },
		func(w io.Writer) error { return WriteRankingCSV(w, "Client", d.TopClients) },
		func(w io.Writer) error { return WriteRankingCSV(w, "Route", d.TopRoutes) },
	}
	for i, section := range sections {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := section(w); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func valueAt(points []analytics.MonthlyValue, i int) float64 {
	if i < len(points) {
		return points[i].Value
	}
	return 0
}

func tripsAt(points []analytics.MonthlyCount, i int) int {
	if i < len(points) {
		return points[i].Trips
	}
	return 0
}
