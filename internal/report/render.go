package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// Render writes the report as terminal tables
func Render(w io.Writer, r *Report) error {
	var b strings.Builder

	mode := "LIVE"
	if r.DryRun {
		mode = "DRY RUN"
	}
	fmt.Fprintf(&b, "%s run %s  demand %s .. %s\n",
		mode, r.RunID, r.DemandWindow.From.Format("2006-01-02"), r.DemandWindow.To.Format("2006-01-02"))

	if len(r.Rows) == 0 {
		b.WriteString(mutedStyle.Render("No replenishment needed.") + "\n")
	} else {
		rows := make([][]string, 0, len(r.Rows))
		for _, row := range r.Rows {
			rows = append(rows, row.Values())
		}
		b.WriteString(newTable(Columns, rows, 3, len(Columns)).String() + "\n")
	}

	if len(r.Submissions) > 0 {
		rows := make([][]string, 0, len(r.Submissions))
		for _, s := range r.Submissions {
			status := string(s.Status)
			if s.Status == StatusFailed {
				status = failedStyle.Render(status + " " + s.ErrorKind)
			}
			rows = append(rows, []string{s.Supplier, fmt.Sprint(s.Lines), fmt.Sprint(s.Units), s.Total.StringFixed(2), status, s.OrderID})
		}
		b.WriteString(newTable([]string{"Supplier", "Lines", "Units", "Total", "Status", "OrderID"}, rows, 1, 4).String() + "\n")
	}

	if !r.Anomalies.Empty() {
		a := r.Anomalies
		b.WriteString(mutedStyle.Render(fmt.Sprintf(
			"anomalies: %d unmapped skus (%d lines dropped), %d unknown supplier, %d missing product, %d open-order fallbacks",
			len(a.UnmappedSKUs), a.DroppedSalesLines, len(a.UnknownSupplierSKUs), len(a.MissingProductSKUs), a.OpenOrderFallbacks,
		)) + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// newTable builds a bordered table with columns [numFrom, numTo) right aligned
func newTable(headers []string, rows [][]string, numFrom, numTo int) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col >= numFrom && col < numTo:
				return numberStyle
			default:
				return cellStyle
			}
		})
}
