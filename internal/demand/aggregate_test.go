package demand

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replenishment-service/internal/model"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func line(sku string, qty int64, status model.OrderStatus) model.SalesLine {
	return model.SalesLine{SoldSKU: sku, Quantity: d(qty), Status: status, SaleDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
}

func catalog() *model.Catalog {
	return model.NewCatalog([]model.ProductRecord{
		{SKU: "A", PrimarySKU: "A", KitMultiplier: d(0), SupplierName: "acme"},
		{SKU: "KIT1", PrimarySKU: "A", KitMultiplier: d(2)},
		{SKU: "B", PrimarySKU: "B", KitMultiplier: d(1)},
	})
}

func TestAggregateKitExplosion(t *testing.T) {
	lines := []model.SalesLine{
		line("KIT1", 3, model.StatusApproved),
		line("A", 5, model.StatusApproved),
	}

	res, err := Aggregate(lines, catalog(), Options{})
	require.NoError(t, err)

	require.Contains(t, res.Totals, "A")
	assert.True(t, res.Totals["A"].Equal(d(11)), "got %s", res.Totals["A"])
	assert.Equal(t, 2, res.Counted)
}

func TestAggregateZeroMultiplierCountsAsUnit(t *testing.T) {
	zero := model.NewCatalog([]model.ProductRecord{{SKU: "U", PrimarySKU: "U", KitMultiplier: decimal.Zero}})
	one := model.NewCatalog([]model.ProductRecord{{SKU: "U", PrimarySKU: "U", KitMultiplier: d(1)}})
	lines := []model.SalesLine{line("U", 7, model.StatusOpen)}

	withZero, err := Aggregate(lines, zero, Options{})
	require.NoError(t, err)
	withOne, err := Aggregate(lines, one, Options{})
	require.NoError(t, err)

	assert.True(t, withZero.Totals["U"].Equal(d(7)))
	assert.True(t, withZero.Totals["U"].Equal(withOne.Totals["U"]))
}

func TestAggregateIgnoresNonCountingStatuses(t *testing.T) {
	lines := []model.SalesLine{
		line("B", 1, model.StatusApproved),
		line("B", 2, model.StatusOpen),
		line("B", 4, model.StatusInProgress),
		line("B", 100, model.StatusOther),
		line("B", 1000, model.ParseOrderStatus("Cancelado")),
	}

	res, err := Aggregate(lines, catalog(), Options{})
	require.NoError(t, err)

	assert.True(t, res.Totals["B"].Equal(d(7)), "got %s", res.Totals["B"])
	assert.Equal(t, 2, res.Skipped)
}

func TestAggregateDropsUnmappedSKUs(t *testing.T) {
	lines := []model.SalesLine{
		line("B", 2, model.StatusApproved),
		line("GHOST", 9, model.StatusApproved),
		line("GHOST", 1, model.StatusApproved),
		line("ALSO-MISSING", 1, model.StatusOpen),
	}

	res, err := Aggregate(lines, catalog(), Options{})
	require.NoError(t, err)

	assert.Len(t, res.Totals, 1)
	assert.True(t, res.Totals["B"].Equal(d(2)))
	assert.Equal(t, []string{"ALSO-MISSING", "GHOST"}, res.Unmapped)
	assert.Equal(t, 3, res.Dropped)
}

func TestAggregateStrictModeFailsOnUnmapped(t *testing.T) {
	lines := []model.SalesLine{line("GHOST", 1, model.StatusApproved)}

	_, err := Aggregate(lines, catalog(), Options{Strict: true})

	var unmapped *UnmappedSKUError
	require.ErrorAs(t, err, &unmapped)
	assert.Equal(t, "GHOST", unmapped.SKU)
}

func TestAggregateEmptyInput(t *testing.T) {
	res, err := Aggregate(nil, catalog(), Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Totals)
	assert.Empty(t, res.Records())
}

func TestAggregateIsIdempotent(t *testing.T) {
	lines := []model.SalesLine{
		line("KIT1", 3, model.StatusApproved),
		line("B", 2, model.StatusInProgress),
	}
	first, err := Aggregate(lines, catalog(), Options{})
	require.NoError(t, err)
	second, err := Aggregate(lines, catalog(), Options{})
	require.NoError(t, err)

	assert.Equal(t, first.Records(), second.Records())
}
