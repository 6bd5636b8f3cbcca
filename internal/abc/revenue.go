package abc

import (
	"sort"

	"github.com/shopspring/decimal"

	"replenishment-service/internal/model"
)

// CostWeightedRevenue values each primary SKU's demand at the unit cost of
// its primary record. SKUs without a primary record are left out.
func CostWeightedRevenue(demand map[string]decimal.Decimal, catalog *model.Catalog) []Revenue {
	skus := make([]string, 0, len(demand))
	for sku := range demand {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	out := make([]Revenue, 0, len(skus))
	for _, sku := range skus {
		product, ok := catalog.Primary(sku)
		if !ok {
			continue
		}
		out = append(out, Revenue{
			PrimarySKU:  sku,
			DisplayName: product.DisplayName,
			Amount:      demand[sku].Mul(product.UnitCost),
		})
	}
	return out
}
