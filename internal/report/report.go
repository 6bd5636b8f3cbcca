// Package report holds the result of a replenishment run and renders it.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"replenishment-service/internal/model"
)

// Columns is the column contract of the suggestion table, in order
var Columns = []string{
	"Supplier",
	"SKU",
	"Tier",
	"DemandWindowQty",
	"DailyRate",
	"StockOnHand",
	"CoverageDaysRemaining",
	"OpenOrderQty",
	"SuggestedQty",
}

// Row is one line of the suggestion table
type Row struct {
	Supplier              string          `json:"supplier"`
	SupplierID            string          `json:"supplier_id"`
	SKU                   string          `json:"sku"`
	DisplayName           string          `json:"display_name,omitempty"`
	Tier                  model.Tier      `json:"tier,omitempty"`
	DemandWindowQty       decimal.Decimal `json:"demand_window_qty"`
	DailyRate             decimal.Decimal `json:"daily_rate"`
	StockOnHand           decimal.Decimal `json:"stock_on_hand"`
	CoverageDaysRemaining decimal.Decimal `json:"coverage_days_remaining"`
	CoverageUnbounded     bool            `json:"coverage_unbounded,omitempty"`
	OpenOrderQty          decimal.Decimal `json:"open_order_qty"`
	SuggestedQty          int64           `json:"suggested_qty"`
}

// Values formats the row in Columns order
func (r Row) Values() []string {
	return []string{
		r.Supplier,
		r.SKU,
		string(r.Tier),
		r.DemandWindowQty.String(),
		r.DailyRate.StringFixed(2),
		r.StockOnHand.String(),
		r.formatCoverage(),
		r.OpenOrderQty.String(),
		decimal.NewFromInt(r.SuggestedQty).String(),
	}
}

func (r Row) formatCoverage() string {
	if r.CoverageUnbounded {
		return "inf"
	}
	return r.CoverageDaysRemaining.StringFixed(1)
}

// FromSuggestions converts suggestions to rows, keeping their order
func FromSuggestions(suggestions []model.Suggestion) []Row {
	rows := make([]Row, 0, len(suggestions))
	for _, s := range suggestions {
		rows = append(rows, Row{
			Supplier:              s.SupplierName,
			SupplierID:            s.SupplierID,
			SKU:                   s.SKU,
			DisplayName:           s.DisplayName,
			Tier:                  s.Tier,
			DemandWindowQty:       s.DemandWindow,
			DailyRate:             s.DailyRate,
			StockOnHand:           s.StockOnHand,
			CoverageDaysRemaining: s.CoverageDays,
			CoverageUnbounded:     s.CoverageUnbounded,
			OpenOrderQty:          s.OpenOrderQty,
			SuggestedQty:          s.SuggestedQty,
		})
	}
	return rows
}

// SubmissionStatus is the outcome of one supplier's draft
type SubmissionStatus string

const (
	StatusDryRun    SubmissionStatus = "dry_run"
	StatusSubmitted SubmissionStatus = "submitted"
	StatusFailed    SubmissionStatus = "failed"
)

// Submission is the per-supplier result of a run
type Submission struct {
	Supplier       string           `json:"supplier"`
	SupplierID     string           `json:"supplier_id"`
	Lines          int              `json:"lines"`
	Units          int64            `json:"units"`
	Total          decimal.Decimal  `json:"total"`
	Status         SubmissionStatus `json:"status"`
	OrderID        string           `json:"order_id,omitempty"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
	// ErrorKind is auth_error, api_error or transport_error
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Anomalies are the data problems absorbed during the run
type Anomalies struct {
	UnmappedSKUs        []string `json:"unmapped_skus"`
	DroppedSalesLines   int      `json:"dropped_sales_lines"`
	UnknownSupplierSKUs []string `json:"unknown_supplier_skus"`
	MissingProductSKUs  []string `json:"missing_product_skus"`
	OpenOrderFallbacks  int      `json:"open_order_fallbacks"`
}

// Empty reports whether nothing was absorbed
func (a Anomalies) Empty() bool {
	return len(a.UnmappedSKUs) == 0 && len(a.UnknownSupplierSKUs) == 0 &&
		len(a.MissingProductSKUs) == 0 && a.OpenOrderFallbacks == 0
}

// Report is the complete result of one replenishment run
type Report struct {
	RunID        string       `json:"run_id"`
	GeneratedAt  time.Time    `json:"generated_at"`
	DryRun       bool         `json:"dry_run"`
	DemandWindow model.Window `json:"demand_window"`
	ABCWindow    model.Window `json:"abc_window"`
	Rows         []Row        `json:"rows"`
	Submissions  []Submission `json:"submissions"`
	Anomalies    Anomalies    `json:"anomalies"`
}

// Failed returns the submissions that did not go through, for a retry
func (r *Report) Failed() []Submission {
	var out []Submission
	for _, s := range r.Submissions {
		if s.Status == StatusFailed {
			out = append(out, s)
		}
	}
	return out
}

// Succeeded reports whether every submission went through or was a dry run
func (r *Report) Succeeded() bool {
	return len(r.Failed()) == 0
}
