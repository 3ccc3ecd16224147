// Package cart tracks the quantities a cashier intends to sell and prices
// them against the catalog snapshot.
package cart

import (
	"errors"
	"fmt"
	"sort"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/model"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the flat VAT applied to the subtotal.
var DefaultTaxRate = decimal.RequireFromString("0.12")

var (
	ErrStockCeiling = errors.New("insufficient stock")
	ErrItemNotFound = errors.New("item not found in catalog")
)

// StockCeilingError is returned when a quantity would exceed known stock.
type StockCeilingError struct {
	ItemID uint
	Name   string
	Stock  int
}

func (e *StockCeilingError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: max stock is %d", e.Name, e.Stock)
}

func (e *StockCeilingError) Is(target error) bool { return target == ErrStockCeiling }

// Catalog is the read side of the catalog snapshot.
type Catalog interface {
	Lookup(id uint) (model.CatalogItem, bool)
}

// Cart maps item id to quantity. It is not safe for concurrent use; callers
// serialise access per register session.
type Cart struct {
	catalog Catalog
	taxRate decimal.Decimal
	lines   map[uint]int
}

func New(catalog Catalog, taxRate decimal.Decimal) *Cart {
	return &Cart{
		catalog: catalog,
		taxRate: taxRate,
		lines:   make(map[uint]int),
	}
}

// Add puts one more unit of the item in the cart.
func (c *Cart) Add(itemID uint) error {
	item, ok := c.catalog.Lookup(itemID)
	if !ok {
		return apperr.NotFound("cart.add", fmt.Errorf("%w: id %d", ErrItemNotFound, itemID))
	}

	current := c.lines[itemID]
	if current+1 > item.Stock {
		return apperr.Validation("cart.add", &StockCeilingError{ItemID: itemID, Name: item.Name, Stock: item.Stock})
	}

	c.lines[itemID] = current + 1
	return nil
}

// AdjustQuantity changes a line by delta. Unknown lines are ignored, lines
// dropping to zero or below are removed, and increases past stock are rejected.
func (c *Cart) AdjustQuantity(itemID uint, delta int) error {
	current, ok := c.lines[itemID]
	if !ok || delta == 0 {
		return nil
	}

	// compare against the headroom before adding so extreme deltas cannot wrap
	if delta < 0 {
		if delta <= -current {
			delete(c.lines, itemID)
			return nil
		}
		c.lines[itemID] = current + delta
		return nil
	}

	item, known := c.catalog.Lookup(itemID)
	if !known {
		// orphaned line: allow shrinking, never growing
		return apperr.NotFound("cart.adjust", fmt.Errorf("%w: id %d", ErrItemNotFound, itemID))
	}
	if delta > item.Stock-current {
		return apperr.Validation("cart.adjust", &StockCeilingError{ItemID: itemID, Name: item.Name, Stock: item.Stock})
	}

	c.lines[itemID] = current + delta
	return nil
}

// Remove drops the line entirely.
func (c *Cart) Remove(itemID uint) {
	delete(c.lines, itemID)
}

func (c *Cart) Clear() {
	c.lines = make(map[uint]int)
}

func (c *Cart) Quantity(itemID uint) int {
	return c.lines[itemID]
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Lines returns a copy of the item id to quantity mapping.
func (c *Cart) Lines() map[uint]int {
	out := make(map[uint]int, len(c.lines))
	for id, qty := range c.lines {
		out[id] = qty
	}
	return out
}

func (c *Cart) TaxRate() decimal.Decimal {
	return c.taxRate
}

// Totals prices the cart against the snapshot. Lines whose item is missing
// from the snapshot keep their quantity but are left out of the totals.
func (c *Cart) Totals() PendingSale {
	ids := make([]uint, 0, len(c.lines))
	for id := range c.lines {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	sale := PendingSale{
		Lines:    make([]Line, 0, len(ids)),
		Subtotal: decimal.Zero,
		TaxRate:  c.taxRate,
	}
	for _, id := range ids {
		qty := c.lines[id]
		item, ok := c.catalog.Lookup(id)
		if !ok {
			sale.Orphaned = append(sale.Orphaned, id)
			continue
		}
		lineTotal := item.SellingPrice.Mul(decimal.NewFromInt(int64(qty)))
		sale.Lines = append(sale.Lines, Line{
			ItemID:    id,
			Name:      item.Name,
			UnitPrice: item.SellingPrice,
			Quantity:  qty,
			LineTotal: lineTotal,
		})
		sale.ItemCount += qty
		sale.Subtotal = sale.Subtotal.Add(lineTotal)
	}

	sale.Tax = sale.Subtotal.Mul(c.taxRate).Round(2)
	sale.GrandTotal = sale.Subtotal.Add(sale.Tax)
	return sale
}
