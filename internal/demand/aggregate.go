// Package demand explodes kit sales into primary-SKU demand.
package demand

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"replenishment-service/internal/model"
	"replenishment-service/pkg/logger"
	"replenishment-service/prometheus"
)

// Options controls the aggregation policy
type Options struct {
	// Strict fails the aggregation on the first unmapped SKU instead of dropping it
	Strict bool
	Logger *zap.Logger
}

// Result is the aggregated demand over one window
type Result struct {
	// Totals maps primary SKU to total demand in primary units
	Totals map[string]decimal.Decimal
	// Unmapped lists the distinct sold SKUs missing from the catalog, sorted
	Unmapped []string
	// line counts: Skipped covers non-counting statuses, Dropped unmapped SKUs
	Counted int
	Skipped int
	Dropped int
}

// UnmappedSKUError is returned in strict mode
type UnmappedSKUError struct {
	SKU string
}

func (e *UnmappedSKUError) Error() string {
	return fmt.Sprintf("sold sku %q has no product record", e.SKU)
}

// Aggregate sums kit-exploded demand per primary SKU. Lines with a status that
// does not count toward demand are ignored; lines whose sold SKU is unknown are
// logged and dropped unless opts.Strict is set.
func Aggregate(lines []model.SalesLine, catalog *model.Catalog, opts Options) (Result, error) {
	log := logger.OrNop(opts.Logger)
	res := Result{Totals: make(map[string]decimal.Decimal)}
	unmapped := make(map[string]struct{})

	for _, line := range lines {
		if !line.Status.CountsTowardDemand() {
			res.Skipped++
			continue
		}
		sku := strings.TrimSpace(line.SoldSKU)
		product, ok := catalog.Lookup(sku)
		if !ok {
			if opts.Strict {
				return Result{}, &UnmappedSKUError{SKU: sku}
			}
			res.Dropped++
			unmapped[sku] = struct{}{}
			prometheus.RecordUnmappedSKU()
			continue
		}
		contribution := line.Quantity.Mul(product.KitMultiplier)
		res.Totals[product.PrimarySKU] = res.Totals[product.PrimarySKU].Add(contribution)
		res.Counted++
	}

	if len(unmapped) > 0 {
		res.Unmapped = make([]string, 0, len(unmapped))
		for sku := range unmapped {
			res.Unmapped = append(res.Unmapped, sku)
		}
		sort.Strings(res.Unmapped)
		log.Warn("Sales lines dropped for unmapped SKUs",
			zap.Int("lines", res.Dropped),
			zap.Strings("skus", res.Unmapped))
	}

	log.Debug("Demand aggregated",
		zap.Int("lines_counted", res.Counted),
		zap.Int("lines_skipped", res.Skipped),
		zap.Int("primary_skus", len(res.Totals)))

	return res, nil
}

// Records returns the totals as DemandRecords sorted by primary SKU
func (r Result) Records() []model.DemandRecord {
	out := make([]model.DemandRecord, 0, len(r.Totals))
	for sku, qty := range r.Totals {
		out = append(out, model.DemandRecord{PrimarySKU: sku, Demand: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PrimarySKU < out[j].PrimarySKU })
	return out
}
