package replenishment

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"replenishment-service/pkg/logger"
	"replenishment-service/prometheus"
)

// OpenOrderSource reports the quantity of a SKU on open purchase orders
type OpenOrderSource interface {
	OpenOrderQty(ctx context.Context, sku string) (decimal.Decimal, error)
}

// Netter looks up open-order quantities without ever failing. A lookup
// error is logged and treated as nothing on order.
type Netter struct {
	Source OpenOrderSource
	Logger *zap.Logger

	fallbacks int
}

// NewNetter creates a Netter over source
func NewNetter(source OpenOrderSource, log *zap.Logger) *Netter {
	return &Netter{Source: source, Logger: log}
}

// OpenOrderQty returns the open quantity for sku, or zero on failure
func (n *Netter) OpenOrderQty(ctx context.Context, sku string) decimal.Decimal {
	if n.Source == nil {
		return decimal.Zero
	}
	qty, err := n.Source.OpenOrderQty(ctx, sku)
	if err != nil {
		n.fallbacks++
		prometheus.RecordOpenOrderFallback()
		logger.OrNop(n.Logger).Warn("Open order lookup failed, assuming nothing open",
			zap.String("sku", sku),
			zap.Error(err))
		return decimal.Zero
	}
	if qty.IsNegative() {
		return decimal.Zero
	}
	return qty
}

// OpenOrders resolves the open quantity for every SKU in skus
func (n *Netter) OpenOrders(ctx context.Context, skus []string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(skus))
	for _, sku := range skus {
		out[sku] = n.OpenOrderQty(ctx, sku)
	}
	return out
}

// Fallbacks is the number of lookups that failed since the Netter was created
func (n *Netter) Fallbacks() int {
	return n.fallbacks
}
