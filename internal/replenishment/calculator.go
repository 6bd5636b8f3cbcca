// Package replenishment turns primary-SKU demand into reorder quantities.
package replenishment

import (
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"replenishment-service/internal/model"
	"replenishment-service/pkg/logger"
	"replenishment-service/prometheus"
)

// DefaultBaseCoverageDays is the coverage target before supplier lead time
const DefaultBaseCoverageDays = 30

// Calculator computes reorder suggestions
type Calculator struct {
	BaseCoverageDays int
	Suppliers        model.SupplierTable
	Logger           *zap.Logger
}

// Input is everything one computation needs, joined explicitly by SKU
type Input struct {
	// Demand is total primary-SKU demand over the window
	Demand     map[string]decimal.Decimal
	Catalog    *model.Catalog
	OpenOrders map[string]decimal.Decimal
	// Tiers is advisory and only copied onto the suggestion
	Tiers      map[string]model.Tier
	WindowDays int
}

// Skipped counts why SKUs with demand produced no suggestion
type Skipped struct {
	NoConsumption   int
	MissingProduct  []string
	UnknownSupplier []string
	AlreadyCovered  int
}

// Compute returns actionable suggestions, sorted by supplier and SKU. Only
// lines with a positive suggested quantity are returned.
func (c *Calculator) Compute(in Input) ([]model.Suggestion, Skipped) {
	log := logger.OrNop(c.Logger)
	var skipped Skipped
	if in.WindowDays <= 0 || len(in.Demand) == 0 {
		return nil, skipped
	}

	base := c.BaseCoverageDays
	if base <= 0 {
		base = DefaultBaseCoverageDays
	}
	window := decimal.NewFromInt(int64(in.WindowDays))

	skus := make([]string, 0, len(in.Demand))
	for sku := range in.Demand {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	out := make([]model.Suggestion, 0, len(skus))
	for _, sku := range skus {
		daily := in.Demand[sku].Div(window)
		if !daily.IsPositive() {
			skipped.NoConsumption++
			continue
		}

		product, ok := in.Catalog.Primary(sku)
		if !ok {
			skipped.MissingProduct = append(skipped.MissingProduct, sku)
			log.Warn("No primary product record for demand", zap.String("sku", sku))
			continue
		}

		supplier, ok := c.Suppliers.Lookup(product.SupplierName)
		if !ok {
			skipped.UnknownSupplier = append(skipped.UnknownSupplier, sku)
			prometheus.RecordUnknownSupplier()
			log.Warn("Supplier not in supplier table, skipping",
				zap.String("sku", sku),
				zap.String("supplier", product.SupplierName))
			continue
		}

		open := in.OpenOrders[sku]
		target := decimal.NewFromInt(int64(base + supplier.LeadTimeDays))
		// multiply before dividing so a repeating daily rate cannot push
		// a whole requirement over the next integer
		required := in.Demand[sku].Mul(target).Div(window)
		suggested := required.Sub(product.StockOnHand).Sub(open).Ceil().IntPart()
		if suggested <= 0 {
			skipped.AlreadyCovered++
			continue
		}

		coverage, bounded := CoverageDays(product.StockOnHand, daily)
		out = append(out, model.Suggestion{
			SupplierName:      model.NormalizeSupplierName(product.SupplierName),
			SupplierID:        supplier.SupplierID,
			SKU:               sku,
			ProductID:         product.ProductID,
			DisplayName:       product.DisplayName,
			Tier:              in.Tiers[sku],
			DemandWindow:      in.Demand[sku],
			DailyRate:         daily,
			StockOnHand:       product.StockOnHand,
			CoverageDays:      coverage,
			CoverageUnbounded: !bounded,
			OpenOrderQty:      open,
			UnitCost:          product.UnitCost,
			SuggestedQty:      suggested,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SupplierName != out[j].SupplierName {
			return out[i].SupplierName < out[j].SupplierName
		}
		return out[i].SKU < out[j].SKU
	})
	return out, skipped
}

// CoverageDays is how many days stock lasts at the daily rate. The flag is
// false when the rate is not positive and coverage has no bound.
func CoverageDays(stock, daily decimal.Decimal) (decimal.Decimal, bool) {
	if !daily.IsPositive() {
		return decimal.Zero, false
	}
	return stock.Div(daily), true
}
