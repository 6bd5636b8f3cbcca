// Package abc ranks primary SKUs by cost-weighted revenue and assigns A/B/C tiers.
package abc

import (
	"sort"

	"github.com/shopspring/decimal"

	"replenishment-service/internal/model"
)

var (
	hundred = decimal.NewFromInt(100)

	// cumulative share thresholds, in percent
	thresholdA = decimal.NewFromInt(80)
	thresholdB = decimal.NewFromInt(95)
)

// Entry is one classified SKU
type Entry struct {
	PrimarySKU         string          `json:"primary_sku"`
	DisplayName        string          `json:"display_name"`
	Revenue            decimal.Decimal `json:"cost_weighted_revenue"`
	CumulativeSharePct decimal.Decimal `json:"cumulative_share_pct"`
	Tier               model.Tier      `json:"tier"`
}

// Revenue is one SKU's cost-weighted revenue, the classifier input
type Revenue struct {
	PrimarySKU  string
	DisplayName string
	Amount      decimal.Decimal
}

// Classify ranks the entries by revenue, highest first, and assigns tiers by
// cumulative share. Entries with zero or negative revenue are left out. Ties
// keep input order.
func Classify(revenues []Revenue) []Entry {
	positive := make([]Revenue, 0, len(revenues))
	total := decimal.Zero
	for _, r := range revenues {
		if r.Amount.IsPositive() {
			positive = append(positive, r)
			total = total.Add(r.Amount)
		}
	}
	if len(positive) == 0 {
		return nil
	}

	sort.SliceStable(positive, func(i, j int) bool {
		return positive[i].Amount.GreaterThan(positive[j].Amount)
	})

	entries := make([]Entry, 0, len(positive))
	running := decimal.Zero
	for _, r := range positive {
		running = running.Add(r.Amount)
		share := running.Mul(hundred).Div(total)
		entries = append(entries, Entry{
			PrimarySKU:         r.PrimarySKU,
			DisplayName:        r.DisplayName,
			Revenue:            r.Amount,
			CumulativeSharePct: share,
			Tier:               tierFor(share),
		})
	}
	return entries
}

// ClassifyMap classifies a sku → revenue map. Map iteration order is not
// stable, so entries are fed to Classify sorted by SKU.
func ClassifyMap(revenue map[string]decimal.Decimal) []Entry {
	skus := make([]string, 0, len(revenue))
	for sku := range revenue {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	in := make([]Revenue, 0, len(skus))
	for _, sku := range skus {
		in = append(in, Revenue{PrimarySKU: sku, Amount: revenue[sku]})
	}
	return Classify(in)
}

func tierFor(share decimal.Decimal) model.Tier {
	switch {
	case share.LessThanOrEqual(thresholdA):
		return model.TierA
	case share.LessThanOrEqual(thresholdB):
		return model.TierB
	default:
		return model.TierC
	}
}

// TierMap indexes a classification by SKU
func TierMap(entries []Entry) map[string]model.Tier {
	m := make(map[string]model.Tier, len(entries))
	for _, e := range entries {
		m[e.PrimarySKU] = e.Tier
	}
	return m
}

// Filter keeps only the entries in the given tier. An empty tier keeps everything.
func Filter(entries []Entry, tier model.Tier) []Entry {
	if tier == "" {
		return entries
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Tier == tier {
			out = append(out, e)
		}
	}
	return out
}

// CountByTier returns how many entries fall in each tier
func CountByTier(entries []Entry) map[model.Tier]int {
	counts := map[model.Tier]int{model.TierA: 0, model.TierB: 0, model.TierC: 0}
	for _, e := range entries {
		counts[e.Tier]++
	}
	return counts
}
