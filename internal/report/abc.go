package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"replenishment-service/internal/abc"
	"replenishment-service/internal/model"
)

// RenderTiers writes an ABC classification as a terminal table
func RenderTiers(w io.Writer, window model.Window, total decimal.Decimal, entries []abc.Entry) error {
	var b strings.Builder
	fmt.Fprintf(&b, "ABC %s .. %s  total %s\n",
		window.From.Format(time.DateOnly), window.To.Format(time.DateOnly), total.StringFixed(2))

	if len(entries) == 0 {
		b.WriteString(mutedStyle.Render("No SKUs with revenue in this period.") + "\n")
	} else {
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{
				e.PrimarySKU,
				e.DisplayName,
				e.Revenue.StringFixed(2),
				e.CumulativeSharePct.StringFixed(2),
				string(e.Tier),
			})
		}
		b.WriteString(newTable([]string{"SKU", "Name", "Revenue", "Cumulative%", "Tier"}, rows, 2, 4).String() + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderMigrations writes tier changes between two periods
func RenderMigrations(w io.Writer, previous, current model.Window, migrations []abc.Migration) error {
	var b strings.Builder
	fmt.Fprintf(&b, "ABC migrations %s .. %s -> %s .. %s\n",
		previous.From.Format(time.DateOnly), previous.To.Format(time.DateOnly),
		current.From.Format(time.DateOnly), current.To.Format(time.DateOnly))

	if len(migrations) == 0 {
		b.WriteString(mutedStyle.Render("No tier changes.") + "\n")
	} else {
		rows := make([][]string, 0, len(migrations))
		for _, m := range migrations {
			rows = append(rows, []string{m.PrimarySKU, string(m.TierBefore), string(m.TierAfter)})
		}
		b.WriteString(newTable([]string{"SKU", "Before", "After"}, rows, 0, 0).String() + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
