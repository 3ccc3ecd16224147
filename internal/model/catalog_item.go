package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CatalogItem is a purchasable product with its price and on-hand stock.
type CatalogItem struct {
	BaseModel
	Name         string          `gorm:"type:varchar(255);not null;index" json:"name" validate:"required"`
	Category     string          `gorm:"type:varchar(100);not null" json:"category" validate:"required"`
	CostPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"cost_price" validate:"decimal_gte0"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"selling_price" validate:"decimal_gte0"`
	Stock        int             `gorm:"not null;default:0" json:"stock" validate:"gte=0"`
	Threshold    int             `gorm:"not null;default:0" json:"threshold" validate:"gte=0"`
	ExpiryDate   *time.Time      `gorm:"type:date;index" json:"expiry_date,omitempty"`
}

// IsLowStock reports stock at or under the threshold, ignoring sold-out items.
func (i *CatalogItem) IsLowStock() bool {
	return i.Stock > 0 && i.Stock <= i.Threshold
}

// ExpiryStatus labels how urgently a perishable needs attention.
type ExpiryStatus string

const (
	ExpiryExpired    ExpiryStatus = "EXPIRED"
	ExpiryDiscount   ExpiryStatus = "DISCOUNT NOW"
	ExpiryStockCheck ExpiryStatus = "STOCK CHECK"
)

// DiscountWindowDays is how close to expiry an item gets marked down.
const DiscountWindowDays = 7

// PerishableItem is a stocked item with an upcoming or past expiry date.
type PerishableItem struct {
	ID         uint         `json:"id"`
	Name       string       `json:"name"`
	Category   string       `json:"category"`
	Stock      int          `json:"stock"`
	ExpiryDate string       `json:"expiry_date"`
	DaysLeft   int          `json:"days_left"`
	Status     ExpiryStatus `json:"status"`
}

// ClassifyExpiry maps remaining days to a status.
func ClassifyExpiry(daysLeft int) ExpiryStatus {
	switch {
	case daysLeft < 0:
		return ExpiryExpired
	case daysLeft <= DiscountWindowDays:
		return ExpiryDiscount
	default:
		return ExpiryStockCheck
	}
}
