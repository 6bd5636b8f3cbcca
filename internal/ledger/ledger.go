// Package ledger reads sales, products and open purchase orders from the store.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"replenishment-service/internal/model"
	"replenishment-service/pkg/logger"
	"replenishment-service/prometheus"
)

// Ledger is a read-only view of the store. Every query runs under its own
// deadline.
type Ledger struct {
	db      *gorm.DB
	timeout time.Duration
	log     *zap.Logger
}

// New creates a Ledger. A zero timeout means 30 seconds.
func New(db *gorm.DB, timeout time.Duration, log *zap.Logger) *Ledger {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Ledger{db: db, timeout: timeout, log: logger.OrNop(log)}
}

// Migrate creates the ledger tables. Only used for local stores and tests;
// production tables belong to the ERP sync.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&SalesLineRow{}, &ProductRow{}, &PurchaseOrderLineRow{}); err != nil {
		return fmt.Errorf("failed to run ledger migrations: %w", err)
	}
	return nil
}

// SalesLines returns every sales line dated within the window, both ends
// inclusive. Status filtering is left to the caller.
func (l *Ledger) SalesLines(ctx context.Context, w model.Window) ([]model.SalesLine, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	defer prometheus.TrackDBOperation("sales_lines")(time.Now())

	var rows []SalesLineRow
	err := l.db.WithContext(ctx).
		Where("sale_date >= ? AND sale_date < ?", w.From, w.To.AddDate(0, 0, 1)).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query sales lines: %w", err)
	}

	lines := make([]model.SalesLine, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, model.SalesLine{
			SoldSKU:  r.SKU,
			Quantity: r.Quantity,
			Status:   model.ParseOrderStatus(r.Status),
			SaleDate: r.SaleDate,
		})
	}
	l.log.Debug("Loaded sales lines",
		zap.Time("from", w.From),
		zap.Time("to", w.To),
		zap.Int("count", len(lines)))
	return lines, nil
}

// Products returns the whole product master
func (l *Ledger) Products(ctx context.Context) ([]model.ProductRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	defer prometheus.TrackDBOperation("products")(time.Now())

	var rows []ProductRow
	if err := l.db.WithContext(ctx).Order("sku").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}

	records := make([]model.ProductRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, model.ProductRecord{
			SKU:           r.SKU,
			PrimarySKU:    r.PrimarySKU,
			KitMultiplier: r.KitMultiplier,
			StockOnHand:   r.StockOnHand,
			SupplierName:  r.SupplierName,
			UnitCost:      r.UnitCost,
			DisplayName:   r.Name,
			ProductID:     r.ExternalID,
		})
	}
	return records, nil
}

// OpenOrderQty sums the quantity of sku on purchase orders still open or in
// progress. No matching lines is zero, not an error.
func (l *Ledger) OpenOrderQty(ctx context.Context, sku string) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	defer prometheus.TrackDBOperation("open_orders")(time.Now())

	var rows []PurchaseOrderLineRow
	err := l.db.WithContext(ctx).
		Select("quantity", "status").
		Where("sku = ?", sku).
		Find(&rows).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("query open orders for %s: %w", sku, err)
	}

	// store labels vary, so status is matched after parsing
	total := decimal.Zero
	for _, r := range rows {
		if model.ParseOrderStatus(r.Status).IsOpen() {
			total = total.Add(r.Quantity)
		}
	}
	return total, nil
}
