package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "Cash"
	PaymentMobileWallet PaymentMethod = "GCash"
	PaymentCard         PaymentMethod = "Card"
)

// PaymentMethods is the closed set accepted at checkout.
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentMobileWallet, PaymentCard}

func (m PaymentMethod) Valid() bool {
	for _, pm := range PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}

// Sale is the persisted header of a committed checkout. Rows are never updated.
type Sale struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	ItemsCount      int             `gorm:"not null" json:"items_count"`
	CashierName     string          `gorm:"type:varchar(255);not null" json:"cashier_name"`
	SaleTimestamp   time.Time       `gorm:"not null;index" json:"sale_timestamp"`
	PaymentMethod   PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`
	AmountTendered  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount_tendered"`
	ChangeAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"change_amount"`
	ReferenceNumber *string         `gorm:"type:varchar(100)" json:"reference_number,omitempty"`

	Lines []SaleLine `gorm:"foreignKey:SaleID" json:"lines,omitempty"`
}

// SaleLine records one cart line with the unit price in force at commit time.
type SaleLine struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	SaleID    uint            `gorm:"not null;index" json:"sale_id"`
	ItemID    uint            `gorm:"not null;index" json:"item_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
}
