// Package engine runs the replenishment pipeline end to end.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"replenishment-service/internal/abc"
	"replenishment-service/internal/demand"
	"replenishment-service/internal/model"
	"replenishment-service/internal/purchasing"
	"replenishment-service/internal/replenishment"
	"replenishment-service/internal/report"
	"replenishment-service/pkg/logger"
	"replenishment-service/pkg/procurement"
	"replenishment-service/prometheus"
)

// Store is the read side of the sales and product data
type Store interface {
	SalesLines(ctx context.Context, w model.Window) ([]model.SalesLine, error)
	Products(ctx context.Context) ([]model.ProductRecord, error)
	replenishment.OpenOrderSource
}

// Submitter sends one purchase order
type Submitter interface {
	Submit(ctx context.Context, order procurement.Order, dryRun bool) (*procurement.Confirmation, error)
}

// Options are the pipeline parameters
type Options struct {
	BaseCoverageDays int
	DemandWindowDays int
	ABCWindowDays    int
	StrictUnmapped   bool
	// OrderNotes is copied onto every submitted order
	OrderNotes string
}

// Engine wires the pipeline stages together. It holds no per-run state, but
// live runs must not overlap; callers serialize them.
type Engine struct {
	store     Store
	suppliers model.SupplierTable
	submitter Submitter
	opts      Options
	log       *zap.Logger
	now       func() time.Time
}

// New creates an Engine
func New(store Store, suppliers model.SupplierTable, submitter Submitter, opts Options, log *zap.Logger) *Engine {
	if opts.BaseCoverageDays <= 0 {
		opts.BaseCoverageDays = replenishment.DefaultBaseCoverageDays
	}
	if opts.DemandWindowDays <= 0 {
		opts.DemandWindowDays = 30
	}
	if opts.ABCWindowDays <= 0 {
		opts.ABCWindowDays = 90
	}
	if opts.OrderNotes == "" {
		opts.OrderNotes = "Generated by replenishment-service"
	}
	return &Engine{
		store:     store,
		suppliers: suppliers,
		submitter: submitter,
		opts:      opts,
		log:       logger.OrNop(log),
		now:       time.Now,
	}
}

// WithClock replaces the clock used to place the windows
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Options returns the effective pipeline parameters
func (e *Engine) Options() Options {
	return e.opts
}

// SuggestPurchases runs the whole pipeline and submits one order per
// supplier unless dryRun is set. Submission failures are reported per
// supplier and never abort the run; an error is returned only when the
// pipeline itself cannot run. A live run ignores cancellation of ctx once
// started; each store query and HTTP call keeps its own timeout.
func (e *Engine) SuggestPurchases(ctx context.Context, dryRun bool) (*report.Report, error) {
	if !dryRun {
		ctx = context.WithoutCancel(ctx)
	}
	start := time.Now()
	mode := "live"
	if dryRun {
		mode = "dry_run"
	}

	rep, err := e.suggestPurchases(ctx, dryRun)
	result := "success"
	switch {
	case err != nil:
		result = "error"
	case !rep.Succeeded():
		result = "partial"
	}
	prometheus.RecordPipelineRun(mode, result, time.Since(start))
	return rep, err
}

func (e *Engine) suggestPurchases(ctx context.Context, dryRun bool) (*report.Report, error) {
	now := e.now()
	rep := &report.Report{
		RunID:        uuid.NewString(),
		GeneratedAt:  now,
		DryRun:       dryRun,
		DemandWindow: model.TrailingWindow(now, e.opts.DemandWindowDays),
		ABCWindow:    model.TrailingWindow(now, e.opts.ABCWindowDays),
	}
	log := logger.FromContextOr(ctx, e.log).With(zap.String("run_id", rep.RunID), zap.Bool("dry_run", dryRun))
	ctx = logger.WithContext(ctx, log)
	log.Info("Starting replenishment run",
		zap.Time("demand_from", rep.DemandWindow.From),
		zap.Time("abc_from", rep.ABCWindow.From))

	catalog, err := e.catalog(ctx)
	if err != nil {
		return nil, err
	}

	demandResult, err := e.demand(ctx, rep.DemandWindow, catalog, e.opts.StrictUnmapped, log)
	if err != nil {
		return nil, err
	}
	rep.Anomalies.UnmappedSKUs = demandResult.Unmapped
	rep.Anomalies.DroppedSalesLines = demandResult.Dropped

	tiers, err := e.tiers(ctx, rep.ABCWindow, rep.DemandWindow, demandResult, catalog, log)
	if err != nil {
		return nil, err
	}

	skus := make([]string, 0, len(demandResult.Totals))
	for _, r := range demandResult.Records() {
		if r.Demand.IsPositive() {
			skus = append(skus, r.PrimarySKU)
		}
	}
	netter := replenishment.NewNetter(e.store, log)
	openOrders := netter.OpenOrders(ctx, skus)
	rep.Anomalies.OpenOrderFallbacks = netter.Fallbacks()

	calc := &replenishment.Calculator{
		BaseCoverageDays: e.opts.BaseCoverageDays,
		Suppliers:        e.suppliers,
		Logger:           log,
	}
	suggestions, skipped := calc.Compute(replenishment.Input{
		Demand:     demandResult.Totals,
		Catalog:    catalog,
		OpenOrders: openOrders,
		Tiers:      tiers,
		WindowDays: e.opts.DemandWindowDays,
	})
	rep.Anomalies.UnknownSupplierSKUs = skipped.UnknownSupplier
	rep.Anomalies.MissingProductSKUs = skipped.MissingProduct
	rep.Rows = report.FromSuggestions(suggestions)
	prometheus.SetSuggestions(len(suggestions))

	log.Info("Suggestions computed",
		zap.Int("suggestions", len(suggestions)),
		zap.Int("already_covered", skipped.AlreadyCovered),
		zap.Int("unknown_supplier", len(skipped.UnknownSupplier)),
		zap.Int("open_order_fallbacks", rep.Anomalies.OpenOrderFallbacks))

	rep.Submissions = e.submit(ctx, rep.RunID, purchasing.BatchBySupplier(suggestions), dryRun, log)
	return rep, nil
}

func (e *Engine) catalog(ctx context.Context) (*model.Catalog, error) {
	products, err := e.store.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return model.NewCatalog(products), nil
}

func (e *Engine) demand(ctx context.Context, w model.Window, catalog *model.Catalog, strict bool, log *zap.Logger) (demand.Result, error) {
	lines, err := e.store.SalesLines(ctx, w)
	if err != nil {
		return demand.Result{}, fmt.Errorf("load sales lines: %w", err)
	}
	if len(lines) == 0 {
		log.Warn("No sales lines in window", zap.Time("from", w.From), zap.Time("to", w.To))
	}
	return demand.Aggregate(lines, catalog, demand.Options{Strict: strict, Logger: log})
}

// tiers classifies the ABC window. It reuses the demand result when both
// windows are the same.
func (e *Engine) tiers(ctx context.Context, abcWindow, demandWindow model.Window, demandResult demand.Result, catalog *model.Catalog, log *zap.Logger) (map[string]model.Tier, error) {
	totals := demandResult.Totals
	if !abcWindow.Equal(demandWindow) {
		// unmapped lines were already reported for the demand window, and
		// tiers are advisory, so strict mode does not apply here
		res, err := e.demand(ctx, abcWindow, catalog, false, zap.NewNop())
		if err != nil {
			return nil, err
		}
		totals = res.Totals
	}
	entries := abc.Classify(abc.CostWeightedRevenue(totals, catalog))
	log.Debug("ABC classification", zap.Any("counts", abc.CountByTier(entries)))
	return abc.TierMap(entries), nil
}

func (e *Engine) submit(ctx context.Context, runID string, drafts map[string]model.PurchaseOrderDraft, dryRun bool, log *zap.Logger) []report.Submission {
	results := make([]report.Submission, 0, len(drafts))
	// one supplier at a time so the token pair is never refreshed concurrently
	for _, name := range purchasing.SupplierNames(drafts) {
		draft := drafts[name]
		order := purchasing.ToOrder(draft, runID, e.opts.OrderNotes)

		sub := report.Submission{
			Supplier:       draft.SupplierName,
			SupplierID:     draft.SupplierID,
			Lines:          len(draft.Lines),
			Total:          draft.Total(),
			IdempotencyKey: order.IdempotencyKey,
		}
		for _, l := range draft.Lines {
			sub.Units += l.Quantity
		}

		conf, err := e.submitter.Submit(ctx, order, dryRun)
		switch {
		case err != nil:
			sub.Status = report.StatusFailed
			sub.ErrorKind = errorKind(err)
			sub.Error = err.Error()
			log.Error("Supplier submission failed, continuing",
				zap.String("supplier", name),
				zap.String("error_kind", sub.ErrorKind),
				zap.Error(err))
		case conf.DryRun:
			sub.Status = report.StatusDryRun
		default:
			sub.Status = report.StatusSubmitted
			sub.OrderID = conf.OrderID
		}
		results = append(results, sub)
	}
	return results
}

func errorKind(err error) string {
	var (
		authErr      *procurement.AuthError
		apiErr       *procurement.APIError
		transportErr *procurement.TransportError
	)
	switch {
	case errors.As(err, &authErr):
		return "auth_error"
	case errors.As(err, &apiErr):
		return "api_error"
	case errors.As(err, &transportErr):
		return "transport_error"
	default:
		return "error"
	}
}
