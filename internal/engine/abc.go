package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"replenishment-service/internal/abc"
	"replenishment-service/internal/model"
	"replenishment-service/pkg/logger"
)

// ABCReport is a tier classification over one period
type ABCReport struct {
	Window       model.Window       `json:"window"`
	PeriodDays   int                `json:"period_days"`
	Tier         model.Tier         `json:"tier,omitempty"`
	TotalRevenue decimal.Decimal    `json:"total_revenue"`
	Counts       map[model.Tier]int `json:"counts"`
	Entries      []abc.Entry        `json:"entries"`
}

// ABCComparison lists the SKUs whose tier changed between the previous
// period and the current one
type ABCComparison struct {
	Current    model.Window    `json:"current"`
	Previous   model.Window    `json:"previous"`
	PeriodDays int             `json:"period_days"`
	Tier       model.Tier      `json:"tier,omitempty"`
	Migrations []abc.Migration `json:"migrations"`
}

// AnalyzeABC classifies the trailing period. A non-positive periodDays uses
// the configured ABC window; a non-empty tier keeps only that tier's entries.
// Counts always cover every tier.
func (e *Engine) AnalyzeABC(ctx context.Context, periodDays int, tier model.Tier) (*ABCReport, error) {
	if periodDays <= 0 {
		periodDays = e.opts.ABCWindowDays
	}
	w := model.TrailingWindow(e.now(), periodDays)

	catalog, err := e.catalog(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := e.classify(ctx, w, catalog)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, en := range entries {
		total = total.Add(en.Revenue)
	}
	filtered := abc.Filter(entries, tier)
	if filtered == nil {
		filtered = []abc.Entry{}
	}

	logger.FromContextOr(ctx, e.log).Info("ABC analysis",
		zap.Int("period_days", periodDays),
		zap.Int("classified", len(entries)),
		zap.String("tier", string(tier)))
	return &ABCReport{
		Window:       w,
		PeriodDays:   periodDays,
		Tier:         tier,
		TotalRevenue: total,
		Counts:       abc.CountByTier(entries),
		Entries:      filtered,
	}, nil
}

// CompareABC classifies the trailing period and the period of equal length
// right before it, and reports the tier migrations between them.
func (e *Engine) CompareABC(ctx context.Context, periodDays int, tier model.Tier) (*ABCComparison, error) {
	if periodDays <= 0 {
		periodDays = e.opts.ABCWindowDays
	}
	current := model.TrailingWindow(e.now(), periodDays)
	previous := current.Previous()

	catalog, err := e.catalog(ctx)
	if err != nil {
		return nil, err
	}
	after, err := e.classify(ctx, current, catalog)
	if err != nil {
		return nil, fmt.Errorf("classify current period: %w", err)
	}
	before, err := e.classify(ctx, previous, catalog)
	if err != nil {
		return nil, fmt.Errorf("classify previous period: %w", err)
	}

	return &ABCComparison{
		Current:    current,
		Previous:   previous,
		PeriodDays: periodDays,
		Tier:       tier,
		Migrations: abc.Compare(abc.TierMap(before), abc.TierMap(after), tier),
	}, nil
}

func (e *Engine) classify(ctx context.Context, w model.Window, catalog *model.Catalog) ([]abc.Entry, error) {
	res, err := e.demand(ctx, w, catalog, false, logger.FromContextOr(ctx, e.log))
	if err != nil {
		return nil, err
	}
	return abc.Classify(abc.CostWeightedRevenue(res.Totals, catalog)), nil
}
