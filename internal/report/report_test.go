package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"replenishment-service/internal/abc"
	"replenishment-service/internal/model"
)

func sampleReport() *Report {
	return &Report{
		RunID:       "run-1",
		GeneratedAt: time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC),
		DryRun:      true,
		DemandWindow: model.Window{
			From: time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		},
		Rows: FromSuggestions([]model.Suggestion{{
			SupplierName: "ACME",
			SupplierID:   "S-1",
			SKU:          "P1",
			Tier:         model.TierA,
			DemandWindow: decimal.NewFromInt(300),
			DailyRate:    decimal.NewFromInt(10),
			StockOnHand:  decimal.NewFromInt(50),
			CoverageDays: decimal.NewFromInt(5),
			OpenOrderQty: decimal.Zero,
			SuggestedQty: 400,
		}}),
		Submissions: []Submission{
			{Supplier: "ACME", SupplierID: "S-1", Lines: 1, Units: 400, Total: decimal.NewFromInt(1000), Status: StatusDryRun},
			{Supplier: "ZETA", SupplierID: "S-2", Lines: 2, Units: 10, Total: decimal.NewFromInt(20), Status: StatusFailed, ErrorKind: "api_error", Error: "400"},
		},
		Anomalies: Anomalies{UnmappedSKUs: []string{"GHOST"}, DroppedSalesLines: 3},
	}
}

func TestRowValuesFollowColumns(t *testing.T) {
	r := sampleReport()

	values := r.Rows[0].Values()

	require.Len(t, values, len(Columns))
	assert.Equal(t, []string{"ACME", "P1", "A", "300", "10.00", "50", "5.0", "0", "400"}, values)
}

func TestCoverageUnboundedRendersAsInf(t *testing.T) {
	rows := FromSuggestions([]model.Suggestion{{SKU: "P1", CoverageUnbounded: true}})
	require.Len(t, rows, 1)
	assert.True(t, rows[0].CoverageUnbounded)
	assert.Equal(t, "inf", rows[0].Values()[6])
}

func TestLargeCoverageRendersAsNumber(t *testing.T) {
	row := Row{CoverageDaysRemaining: decimal.NewFromInt(1500000)}
	assert.Equal(t, "1500000.0", row.Values()[6])
}

func TestFailedSubmissions(t *testing.T) {
	r := sampleReport()

	failed := r.Failed()

	require.Len(t, failed, 1)
	assert.Equal(t, "ZETA", failed[0].Supplier)
	assert.False(t, r.Succeeded())
}

func TestAnomaliesEmpty(t *testing.T) {
	assert.True(t, Anomalies{}.Empty())
	assert.False(t, Anomalies{OpenOrderFallbacks: 1}.Empty())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetSuggestions, sheetSubmissions, sheetAnomalies}, f.GetSheetList())

	rows, err := f.GetRows(sheetSuggestions)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "ACME", rows[1][0])
	assert.Equal(t, "400", rows[1][8])

	subs, err := f.GetRows(sheetSubmissions)
	require.NoError(t, err)
	require.Len(t, subs, 3)
	assert.Equal(t, "failed", subs[2][5])

	anomalies, err := f.GetRows(sheetAnomalies)
	require.NoError(t, err)
	require.Len(t, anomalies, 2)
	assert.Equal(t, []string{"unmapped_sku", "GHOST"}, anomalies[1])
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "DRY RUN run run-1")
	assert.Contains(t, out, "SuggestedQty")
	assert.Contains(t, out, "P1")
	assert.Contains(t, out, "1 unmapped skus (3 lines dropped)")
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, &Report{RunID: "r"}))

	assert.Contains(t, buf.String(), "No replenishment needed.")
}

func TestRenderTiers(t *testing.T) {
	w := model.TrailingWindow(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), 90)
	entries := []abc.Entry{
		{PrimarySKU: "P2", DisplayName: "Gadget", Revenue: decimal.NewFromInt(800), CumulativeSharePct: decimal.RequireFromString("80"), Tier: model.TierA},
		{PrimarySKU: "P1", Revenue: decimal.NewFromInt(200), CumulativeSharePct: decimal.NewFromInt(100), Tier: model.TierC},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderTiers(&buf, w, decimal.NewFromInt(1000), entries))

	out := buf.String()
	assert.Contains(t, out, "2024-04-01 .. 2024-06-30")
	assert.Contains(t, out, "1000.00")
	assert.Contains(t, out, "Gadget")
	assert.Contains(t, out, "80.00")

	buf.Reset()
	require.NoError(t, RenderTiers(&buf, w, decimal.Zero, nil))
	assert.Contains(t, buf.String(), "No SKUs with revenue")
}

func TestRenderMigrations(t *testing.T) {
	cur := model.TrailingWindow(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), 30)

	var buf bytes.Buffer
	require.NoError(t, RenderMigrations(&buf, cur.Previous(), cur, []abc.Migration{
		{PrimarySKU: "P3", TierBefore: model.TierNew, TierAfter: model.TierB},
	}))

	assert.Contains(t, buf.String(), "P3")
	assert.Contains(t, buf.String(), "NEW")
}
