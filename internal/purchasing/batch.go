// Package purchasing groups suggestions into per-supplier purchase order drafts.
package purchasing

import (
	"fmt"
	"sort"

	"replenishment-service/internal/model"
	"replenishment-service/pkg/procurement"
)

// BatchBySupplier builds one draft per supplier. Lines keep the order of the
// suggestions they came from.
func BatchBySupplier(suggestions []model.Suggestion) map[string]model.PurchaseOrderDraft {
	drafts := make(map[string]model.PurchaseOrderDraft)
	for _, s := range suggestions {
		d, ok := drafts[s.SupplierName]
		if !ok {
			d = model.PurchaseOrderDraft{SupplierID: s.SupplierID, SupplierName: s.SupplierName}
		}
		d.Lines = append(d.Lines, model.DraftLine{
			ProductID:   s.ProductID,
			SKU:         s.SKU,
			DisplayName: s.DisplayName,
			UnitCost:    s.UnitCost,
			Quantity:    s.SuggestedQty,
		})
		drafts[s.SupplierName] = d
	}
	return drafts
}

// SupplierNames returns the keys of drafts in sorted order, the order in
// which drafts are submitted
func SupplierNames(drafts map[string]model.PurchaseOrderDraft) []string {
	names := make([]string, 0, len(drafts))
	for name := range drafts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToOrder converts a draft into a procurement order. The idempotency key is
// derived from the run so a resubmitted draft carries the same key.
func ToOrder(d model.PurchaseOrderDraft, runID, notes string) procurement.Order {
	order := procurement.Order{
		SupplierID:     d.SupplierID,
		SupplierName:   d.SupplierName,
		Notes:          notes,
		IdempotencyKey: fmt.Sprintf("%s:%s", runID, d.SupplierID),
		Items:          make([]procurement.OrderItem, 0, len(d.Lines)),
	}
	for _, l := range d.Lines {
		description := l.DisplayName
		if description == "" {
			description = l.SKU
		}
		order.Items = append(order.Items, procurement.OrderItem{
			ProductID:   l.ProductID,
			SKU:         l.SKU,
			Description: description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitCost,
		})
	}
	return order
}
