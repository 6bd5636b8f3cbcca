package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Tier is an ABC classification tier
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"

	// used only in period-over-period comparisons
	TierNew    Tier = "NEW"
	TierExited Tier = "EXITED"
)

// ParseTier accepts a, b or c in any case. The empty string means no tier.
func ParseTier(s string) (Tier, bool) {
	switch Tier(strings.ToUpper(strings.TrimSpace(s))) {
	case TierA:
		return TierA, true
	case TierB:
		return TierB, true
	case TierC:
		return TierC, true
	}
	return "", false
}

// Suggestion is one actionable replenishment line. It is created once per
// analysis run and never mutated afterwards.
type Suggestion struct {
	SupplierName      string
	SupplierID        string
	SKU               string
	ProductID         string
	DisplayName       string
	Tier              Tier
	DemandWindow      decimal.Decimal
	DailyRate         decimal.Decimal
	StockOnHand       decimal.Decimal
	CoverageDays      decimal.Decimal
	// CoverageUnbounded is set when nothing is consumed; CoverageDays is zero then.
	CoverageUnbounded bool
	OpenOrderQty      decimal.Decimal
	UnitCost          decimal.Decimal
	SuggestedQty      int64
}

// DraftLine is one line item of a purchase order draft
type DraftLine struct {
	ProductID   string
	SKU         string
	DisplayName string
	UnitCost    decimal.Decimal
	Quantity    int64
}

// PurchaseOrderDraft groups the suggestions for a single supplier
type PurchaseOrderDraft struct {
	SupplierID   string
	SupplierName string
	Lines        []DraftLine
}

// Total is the draft value at unit cost
func (d PurchaseOrderDraft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.Lines {
		total = total.Add(l.UnitCost.Mul(decimal.NewFromInt(l.Quantity)))
	}
	return total
}
