package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesLineRow is one sales order line as stored by the ERP sync
type SalesLineRow struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderNumber string          `gorm:"size:64;index" json:"order_number"`
	SKU         string          `gorm:"column:sku;size:64;index" json:"sku"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	Status      string          `gorm:"size:32" json:"status"`
	SaleDate    time.Time       `gorm:"index" json:"sale_date"`
}

// TableName specifies the table name for SalesLineRow
func (SalesLineRow) TableName() string {
	return "sales_lines"
}

// ProductRow is one product master record
type ProductRow struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	ExternalID    string          `gorm:"size:64" json:"external_id"`
	SKU           string          `gorm:"column:sku;size:64;uniqueIndex" json:"sku"`
	PrimarySKU    string          `gorm:"column:primary_sku;size:64;index" json:"primary_sku"`
	KitMultiplier decimal.Decimal `gorm:"type:decimal(18,4)" json:"kit_multiplier"`
	StockOnHand   decimal.Decimal `gorm:"type:decimal(18,4)" json:"stock_on_hand"`
	SupplierName  string          `gorm:"size:255" json:"supplier_name"`
	UnitCost      decimal.Decimal `gorm:"type:decimal(18,4)" json:"unit_cost"`
	Name          string          `gorm:"size:255" json:"name"`
}

// TableName specifies the table name for ProductRow
func (ProductRow) TableName() string {
	return "products"
}

// PurchaseOrderLineRow is one line of a purchase order already placed
type PurchaseOrderLineRow struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	OrderNumber  string          `gorm:"size:64;index" json:"order_number"`
	SKU          string          `gorm:"column:sku;size:64;index" json:"sku"`
	SupplierName string          `gorm:"size:255" json:"supplier_name"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	Status       string          `gorm:"size:32" json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TableName specifies the table name for PurchaseOrderLineRow
func (PurchaseOrderLineRow) TableName() string {
	return "purchase_order_lines"
}
