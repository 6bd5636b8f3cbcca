package procurement

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// Order is one purchase order for one supplier
type Order struct {
	SupplierID   string
	SupplierName string
	Items        []OrderItem
	Notes        string
	// IdempotencyKey is sent on every attempt for this order; a fresh one is
	// generated when empty.
	IdempotencyKey string
}

// OrderItem is one line of an Order
type OrderItem struct {
	ProductID   string
	SKU         string
	Description string
	Quantity    int64
	UnitPrice   decimal.Decimal
}

// Confirmation is the result of a successful submission
type Confirmation struct {
	OrderID        string          `json:"order_id,omitempty"`
	StatusCode     int             `json:"status_code,omitempty"`
	DryRun         bool            `json:"dry_run"`
	IdempotencyKey string          `json:"idempotency_key"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

type orderPayload struct {
	Supplier reference     `json:"supplier"`
	Items    []itemPayload `json:"items"`
	Notes    string        `json:"notes,omitempty"`
}

type reference struct {
	ID any `json:"id"`
}

type productReference struct {
	ID   any    `json:"id,omitempty"`
	Code string `json:"code"`
}

type itemPayload struct {
	Product     productReference `json:"product"`
	Description string           `json:"description"`
	Quantity    int64            `json:"quantity"`
	UnitPrice   json.Number      `json:"unit_price"`
	Unit        string           `json:"unit"`
}

// Payload renders the JSON body accepted by the order endpoint
func (o Order) Payload() ([]byte, error) {
	p := orderPayload{
		Supplier: reference{ID: externalID(o.SupplierID)},
		Items:    make([]itemPayload, 0, len(o.Items)),
		Notes:    o.Notes,
	}
	for _, it := range o.Items {
		var productID any
		if it.ProductID != "" {
			productID = externalID(it.ProductID)
		}
		p.Items = append(p.Items, itemPayload{
			Product:     productReference{ID: productID, Code: it.SKU},
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   json.Number(it.UnitPrice.StringFixed(2)),
			Unit:        "un",
		})
	}
	return json.Marshal(p)
}

// externalID sends numeric ids as JSON numbers and anything else as a string
func externalID(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}
