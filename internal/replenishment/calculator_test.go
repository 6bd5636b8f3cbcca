package replenishment

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replenishment-service/internal/model"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func testSuppliers() model.SupplierTable {
	return model.NewSupplierTable("test", []model.SupplierProfile{
		{Name: "Acme", SupplierID: "S-1", LeadTimeDays: 15},
		{Name: "Zeta Importadora", SupplierID: "S-2", LeadTimeDays: 5},
	})
}

func TestComputeReferenceExample(t *testing.T) {
	calc := &Calculator{BaseCoverageDays: 30, Suppliers: testSuppliers()}
	catalog := model.NewCatalog([]model.ProductRecord{
		{SKU: "P1", StockOnHand: dec("50"), SupplierName: " acme ", UnitCost: dec("2.50"), ProductID: "101", DisplayName: "Widget"},
	})

	got, skipped := calc.Compute(Input{
		Demand:     map[string]decimal.Decimal{"P1": dec("300")},
		Catalog:    catalog,
		WindowDays: 30,
		Tiers:      map[string]model.Tier{"P1": model.TierA},
	})

	require.Len(t, got, 1)
	s := got[0]
	assert.Equal(t, "ACME", s.SupplierName)
	assert.Equal(t, "S-1", s.SupplierID)
	assert.Equal(t, "101", s.ProductID)
	assert.Equal(t, model.TierA, s.Tier)
	assert.True(t, s.DailyRate.Equal(dec("10")), "daily %s", s.DailyRate)
	assert.True(t, s.CoverageDays.Equal(dec("5")), "coverage %s", s.CoverageDays)
	// (30 + 15) * 10 - 50 - 0
	assert.Equal(t, int64(400), s.SuggestedQty)
	assert.Zero(t, skipped.AlreadyCovered)
}

func TestComputeRoundsUp(t *testing.T) {
	calc := &Calculator{BaseCoverageDays: 30, Suppliers: testSuppliers()}
	catalog := model.NewCatalog([]model.ProductRecord{
		{SKU: "P1", StockOnHand: dec("0"), SupplierName: "Zeta Importadora"},
	})

	got, _ := calc.Compute(Input{
		Demand:     map[string]decimal.Decimal{"P1": dec("1")},
		Catalog:    catalog,
		WindowDays: 30,
	})

	// 35 * (1/30) = 1.1666... rounds up to 2
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].SuggestedQty)
}

func TestComputeNetsOpenOrders(t *testing.T) {
	calc := &Calculator{BaseCoverageDays: 30, Suppliers: testSuppliers()}
	catalog := model.NewCatalog([]model.ProductRecord{
		{SKU: "P1", StockOnHand: dec("50"), SupplierName: "Acme"},
		{SKU: "P2", StockOnHand: dec("50"), SupplierName: "Acme"},
	})

	got, skipped := calc.Compute(Input{
		Demand:     map[string]decimal.Decimal{"P1": dec("300"), "P2": dec("300")},
		Catalog:    catalog,
		OpenOrders: map[string]decimal.Decimal{"P1": dec("100"), "P2": dec("400")},
		WindowDays: 30,
	})

	require.Len(t, got, 1)
	assert.Equal(t, "P1", got[0].SKU)
	assert.Equal(t, int64(300), got[0].SuggestedQty)
	assert.Equal(t, 1, skipped.AlreadyCovered)
}

func TestComputeSkipsWithoutConsumptionOrSupplier(t *testing.T) {
	calc := &Calculator{BaseCoverageDays: 30, Suppliers: testSuppliers()}
	catalog := model.NewCatalog([]model.ProductRecord{
		{SKU: "IDLE", SupplierName: "Acme"},
		{SKU: "ORPHAN", SupplierName: "Unknown Ltda"},
		{SKU: "OK", SupplierName: "Acme"},
	})

	got, skipped := calc.Compute(Input{
		Demand: map[string]decimal.Decimal{
			"IDLE":    decimal.Zero,
			"ORPHAN":  dec("30"),
			"OK":      dec("30"),
			"MISSING": dec("30"),
		},
		Catalog:    catalog,
		WindowDays: 30,
	})

	require.Len(t, got, 1)
	assert.Equal(t, "OK", got[0].SKU)
	assert.Equal(t, 1, skipped.NoConsumption)
	assert.Equal(t, []string{"ORPHAN"}, skipped.UnknownSupplier)
	assert.Equal(t, []string{"MISSING"}, skipped.MissingProduct)
}

func TestComputeOnlyPositiveAndSorted(t *testing.T) {
	calc := &Calculator{BaseCoverageDays: 30, Suppliers: testSuppliers()}
	catalog := model.NewCatalog([]model.ProductRecord{
		{SKU: "Z9", StockOnHand: dec("0"), SupplierName: "Acme"},
		{SKU: "A1", StockOnHand: dec("0"), SupplierName: "Zeta Importadora"},
		{SKU: "B2", StockOnHand: dec("0"), SupplierName: "Acme"},
		{SKU: "FULL", StockOnHand: dec("100000"), SupplierName: "Acme"},
	})

	got, _ := calc.Compute(Input{
		Demand: map[string]decimal.Decimal{
			"Z9": dec("10"), "A1": dec("10"), "B2": dec("10"), "FULL": dec("10"),
		},
		Catalog:    catalog,
		WindowDays: 30,
	})

	var keys []string
	for _, s := range got {
		assert.Positive(t, s.SuggestedQty)
		keys = append(keys, s.SupplierName+"/"+s.SKU)
	}
	assert.Equal(t, []string{"ACME/B2", "ACME/Z9", "ZETA IMPORTADORA/A1"}, keys)
}

func TestComputeDefaultsAndEmptyInput(t *testing.T) {
	calc := &Calculator{Suppliers: testSuppliers()}
	got, _ := calc.Compute(Input{WindowDays: 30, Catalog: model.NewCatalog(nil)})
	assert.Empty(t, got)

	got, _ = calc.Compute(Input{Demand: map[string]decimal.Decimal{"P1": dec("1")}, WindowDays: 0})
	assert.Empty(t, got)
}

func TestCoverageDaysUnbounded(t *testing.T) {
	days, bounded := CoverageDays(dec("10"), decimal.Zero)
	assert.False(t, bounded)
	assert.True(t, days.IsZero())

	days, bounded = CoverageDays(dec("10"), dec("4"))
	assert.True(t, bounded)
	assert.True(t, days.Equal(dec("2.5")))

	days, bounded = CoverageDays(dec("9999990"), dec("1"))
	assert.True(t, bounded)
	assert.True(t, days.Equal(dec("9999990")))
}

type stubOpenOrders map[string]error

func (s stubOpenOrders) OpenOrderQty(_ context.Context, sku string) (decimal.Decimal, error) {
	if err := s[sku]; err != nil {
		return decimal.Zero, err
	}
	if sku == "NEG" {
		return dec("-3"), nil
	}
	return dec("7"), nil
}

func TestNetterFallsBackToZero(t *testing.T) {
	n := NewNetter(stubOpenOrders{"BROKEN": errors.New("connection refused")}, nil)

	got := n.OpenOrders(context.Background(), []string{"OK", "BROKEN", "NEG"})

	assert.True(t, got["OK"].Equal(dec("7")))
	assert.True(t, got["BROKEN"].IsZero())
	assert.True(t, got["NEG"].IsZero())
	assert.Equal(t, 1, n.Fallbacks())
}

func TestNetterWithoutSource(t *testing.T) {
	n := NewNetter(nil, nil)
	assert.True(t, n.OpenOrderQty(context.Background(), "X").IsZero())
}

func TestComputeRepeatingDailyRate(t *testing.T) {
	calc := &Calculator{BaseCoverageDays: 30, Suppliers: testSuppliers()}
	catalog := model.NewCatalog([]model.ProductRecord{
		{SKU: "P1", StockOnHand: decimal.Zero, SupplierName: "Acme"},
		{SKU: "P2", StockOnHand: decimal.Zero, SupplierName: "Acme"},
	})

	got, _ := calc.Compute(Input{
		Demand:     map[string]decimal.Decimal{"P1": dec("20"), "P2": dec("7")},
		Catalog:    catalog,
		WindowDays: 30,
	})

	require.Len(t, got, 2)
	// 45 * 20 / 30 is exactly 30
	assert.Equal(t, int64(30), got[0].SuggestedQty)
	// 45 * 7 / 30 = 10.5
	assert.Equal(t, int64(11), got[1].SuggestedQty)
}
