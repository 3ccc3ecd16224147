package cart

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCatalog map[uint]model.CatalogItem

func (m mapCatalog) Lookup(id uint) (model.CatalogItem, bool) {
	it, ok := m[id]
	return it, ok
}

func catalogItem(id uint, name string, stock int, price string) model.CatalogItem {
	it := model.CatalogItem{Name: name, Stock: stock, SellingPrice: decimal.RequireFromString(price)}
	it.ID = id
	return it
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAdd_StopsAtStockCeiling(t *testing.T) {
	c := New(mapCatalog{1: catalogItem(1, "A", 3, "10.00")}, DefaultTaxRate)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Add(1))
	}

	err := c.Add(1)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.ErrorIs(t, err, ErrStockCeiling)

	var ceiling *StockCeilingError
	require.True(t, errors.As(err, &ceiling))
	assert.Equal(t, 3, ceiling.Stock)
	assert.Contains(t, err.Error(), "max stock is 3")
	assert.Equal(t, 3, c.Quantity(1))
}

func TestAdd_UnknownItem(t *testing.T) {
	c := New(mapCatalog{}, DefaultTaxRate)

	err := c.Add(42)
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.True(t, apperr.IsNotFound(err))
	assert.True(t, c.IsEmpty())
}

func TestAdjustQuantity(t *testing.T) {
	c := New(mapCatalog{1: catalogItem(1, "A", 5, "10.00")}, DefaultTaxRate)
	require.NoError(t, c.Add(1))

	require.NoError(t, c.AdjustQuantity(1, 3))
	assert.Equal(t, 4, c.Quantity(1))

	err := c.AdjustQuantity(1, 2)
	assert.ErrorIs(t, err, ErrStockCeiling)
	assert.Equal(t, 4, c.Quantity(1), "rejected adjust leaves the line unchanged")

	require.NoError(t, c.AdjustQuantity(1, -1))
	assert.Equal(t, 3, c.Quantity(1))

	require.NoError(t, c.AdjustQuantity(1, -999))
	assert.True(t, c.IsEmpty())
}

func TestAdjustQuantity_ExtremeDeltas(t *testing.T) {
	c := New(mapCatalog{1: catalogItem(1, "A", 3, "10.00")}, DefaultTaxRate)
	require.NoError(t, c.Add(1))

	err := c.AdjustQuantity(1, math.MaxInt)
	assert.ErrorIs(t, err, ErrStockCeiling)
	assert.Equal(t, 1, c.Quantity(1), "rejected increase leaves the line unchanged")

	require.NoError(t, c.Add(1))
	require.NoError(t, c.AdjustQuantity(1, math.MinInt))
	assert.True(t, c.IsEmpty())
}

func TestAdjustQuantity_AbsentItemIsNoop(t *testing.T) {
	c := New(mapCatalog{1: catalogItem(1, "A", 5, "10.00")}, DefaultTaxRate)

	assert.NoError(t, c.AdjustQuantity(1, 2))
	assert.True(t, c.IsEmpty())
}

func TestRemoveAndClear(t *testing.T) {
	c := New(mapCatalog{1: catalogItem(1, "A", 5, "1"), 2: catalogItem(2, "B", 5, "1")}, DefaultTaxRate)
	require.NoError(t, c.Add(1))
	require.NoError(t, c.Add(2))

	c.Remove(1)
	assert.Equal(t, map[uint]int{2: 1}, c.Lines())

	c.Clear()
	assert.True(t, c.IsEmpty())
}

func TestTotals_Scenario(t *testing.T) {
	c := New(mapCatalog{1: catalogItem(1, "A", 3, "10.00")}, DefaultTaxRate)
	require.NoError(t, c.Add(1))
	require.NoError(t, c.Add(1))

	sale := c.Totals()

	require.Len(t, sale.Lines, 1)
	assert.Equal(t, 2, sale.ItemCount)
	assert.Equal(t, "20.00", sale.Subtotal.StringFixed(2))
	assert.Equal(t, "2.40", sale.Tax.StringFixed(2))
	assert.Equal(t, "22.40", sale.GrandTotal.StringFixed(2))
	assert.Equal(t, "20.00", sale.Lines[0].LineTotal.StringFixed(2))
}

func TestTotals_Idempotent(t *testing.T) {
	c := New(mapCatalog{1: catalogItem(1, "A", 9, "3.33"), 2: catalogItem(2, "B", 9, "0.99")}, DefaultTaxRate)
	require.NoError(t, c.Add(2))
	require.NoError(t, c.Add(1))
	require.NoError(t, c.AdjustQuantity(1, 4))

	assert.Equal(t, c.Totals(), c.Totals())
}

func TestTotals_OrderedByItemID(t *testing.T) {
	c := New(mapCatalog{3: catalogItem(3, "C", 9, "1"), 1: catalogItem(1, "A", 9, "1"), 2: catalogItem(2, "B", 9, "1")}, DefaultTaxRate)
	for _, id := range []uint{3, 1, 2} {
		require.NoError(t, c.Add(id))
	}

	lines := c.Totals().Lines
	require.Len(t, lines, 3)
	assert.Equal(t, []uint{1, 2, 3}, []uint{lines[0].ItemID, lines[1].ItemID, lines[2].ItemID})
}

func TestTotals_OrphanedLineSkippedButKept(t *testing.T) {
	catalog := mapCatalog{1: catalogItem(1, "A", 5, "10.00"), 2: catalogItem(2, "B", 5, "5.00")}
	c := New(catalog, DefaultTaxRate)
	require.NoError(t, c.Add(1))
	require.NoError(t, c.Add(2))

	delete(catalog, 2)

	sale := c.Totals()
	assert.Equal(t, []uint{2}, sale.Orphaned)
	assert.Equal(t, "10.00", sale.Subtotal.StringFixed(2))
	assert.Equal(t, 1, c.Quantity(2), "quantity survives in case the item reappears")

	assert.ErrorIs(t, c.AdjustQuantity(2, 1), ErrItemNotFound)

	catalog[2] = catalogItem(2, "B", 5, "5.00")
	sale = c.Totals()
	assert.Empty(t, sale.Orphaned)
	assert.Equal(t, "15.00", sale.Subtotal.StringFixed(2))
}

func TestTotals_CustomTaxRate(t *testing.T) {
	c := New(mapCatalog{1: catalogItem(1, "A", 5, "9.99")}, dec("0.05"))
	require.NoError(t, c.Add(1))

	sale := c.Totals()
	assert.Equal(t, "0.50", sale.Tax.StringFixed(2))
	assert.Equal(t, "10.49", sale.GrandTotal.StringFixed(2))
}

func TestStockCeilingInvariant_RandomOps(t *testing.T) {
	catalog := mapCatalog{
		1: catalogItem(1, "A", 3, "1"),
		2: catalogItem(2, "B", 1, "1"),
		3: catalogItem(3, "C", 7, "1"),
	}
	c := New(catalog, DefaultTaxRate)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		id := uint(rng.Intn(3) + 1)
		if rng.Intn(2) == 0 {
			_ = c.Add(id)
		} else {
			_ = c.AdjustQuantity(id, rng.Intn(9)-4)
		}
		if i%97 == 0 {
			_ = c.AdjustQuantity(id, math.MaxInt)
			_ = c.AdjustQuantity(id, math.MaxInt-rng.Intn(3))
		}
		for lineID, qty := range c.Lines() {
			require.GreaterOrEqual(t, qty, 1)
			require.LessOrEqual(t, qty, catalog[lineID].Stock)
		}
	}
}
