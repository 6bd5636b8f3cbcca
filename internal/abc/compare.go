package abc

import (
	"sort"

	"replenishment-service/internal/model"
)

// Migration is a SKU whose tier changed between two classification runs
type Migration struct {
	PrimarySKU string     `json:"primary_sku"`
	TierBefore model.Tier `json:"tier_before"`
	TierAfter  model.Tier `json:"tier_after"`
}

// Compare joins two tier maps on SKU and reports the SKUs whose tier changed.
// A SKU only in after is NEW before; a SKU only in before is EXITED after.
// With a non-empty filter only rows where either side equals it are kept.
// Rows are sorted by SKU.
func Compare(before, after map[string]model.Tier, filter model.Tier) []Migration {
	skus := make(map[string]struct{}, len(before)+len(after))
	for sku := range before {
		skus[sku] = struct{}{}
	}
	for sku := range after {
		skus[sku] = struct{}{}
	}

	out := make([]Migration, 0)
	for sku := range skus {
		b, inBefore := before[sku]
		a, inAfter := after[sku]
		if !inBefore {
			b = model.TierNew
		}
		if !inAfter {
			a = model.TierExited
		}
		if a == b {
			continue
		}
		if filter != "" && a != filter && b != filter {
			continue
		}
		out = append(out, Migration{PrimarySKU: sku, TierBefore: b, TierAfter: a})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PrimarySKU < out[j].PrimarySKU })
	return out
}
