package cart

import "github.com/shopspring/decimal"

// Line is one priced cart line.
type Line struct {
	ItemID    uint            `json:"item_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// PendingSale is the derived view of a cart. It is recomputed on every
// mutation and never persisted.
type PendingSale struct {
	Lines      []Line          `json:"lines"`
	ItemCount  int             `json:"item_count"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	TaxRate    decimal.Decimal `json:"tax_rate"`
	Tax        decimal.Decimal `json:"tax"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	Orphaned   []uint          `json:"orphaned,omitempty"`
}

func (p PendingSale) IsEmpty() bool {
	return len(p.Lines) == 0
}

// Quantities maps each priced line's item id to its quantity.
func (p PendingSale) Quantities() map[uint]int {
	out := make(map[uint]int, len(p.Lines))
	for _, l := range p.Lines {
		out[l.ItemID] = l.Quantity
	}
	return out
}
