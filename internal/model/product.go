package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ProductRecord is one row of the product master. Kit SKUs point at the
// primary SKU they consume; the primary record has SKU == PrimarySKU.
type ProductRecord struct {
	SKU           string
	PrimarySKU    string
	KitMultiplier decimal.Decimal
	StockOnHand   decimal.Decimal
	SupplierName  string
	UnitCost      decimal.Decimal
	DisplayName   string
	ProductID     string
}

// IsPrimary reports whether this is the canonical record of its primary SKU
func (p ProductRecord) IsPrimary() bool {
	return p.SKU == p.PrimarySKU
}

// Catalog indexes product records by sold SKU and by primary SKU
type Catalog struct {
	bySKU     map[string]ProductRecord
	byPrimary map[string]ProductRecord
}

// NewCatalog builds a catalog from raw product rows. A kit multiplier of zero
// means a unit sale and is stored as one; this is the only place the rule is applied.
func NewCatalog(records []ProductRecord) *Catalog {
	c := &Catalog{
		bySKU:     make(map[string]ProductRecord, len(records)),
		byPrimary: make(map[string]ProductRecord),
	}
	for _, r := range records {
		r.SKU = strings.TrimSpace(r.SKU)
		r.PrimarySKU = strings.TrimSpace(r.PrimarySKU)
		if r.SKU == "" {
			continue
		}
		if r.PrimarySKU == "" {
			r.PrimarySKU = r.SKU
		}
		if r.KitMultiplier.IsZero() {
			r.KitMultiplier = decimal.NewFromInt(1)
		}
		c.bySKU[r.SKU] = r
		if r.IsPrimary() {
			c.byPrimary[r.PrimarySKU] = r
		}
	}
	return c
}

// Lookup finds the record for a sold SKU
func (c *Catalog) Lookup(sku string) (ProductRecord, bool) {
	r, ok := c.bySKU[sku]
	return r, ok
}

// Primary finds the canonical record of a primary SKU
func (c *Catalog) Primary(primarySKU string) (ProductRecord, bool) {
	r, ok := c.byPrimary[primarySKU]
	return r, ok
}

// Len is the number of distinct sold SKUs in the catalog
func (c *Catalog) Len() int {
	return len(c.bySKU)
}
