package model

import "time"

// Audit actions written by the inventory and checkout paths
const (
	AuditProductAdded   = "Product Added"
	AuditProductEdit    = "Product Edit"
	AuditProductDeleted = "Product Deleted"
	AuditStockShrinkage = "Stock Shrinkage"
	AuditSaleCompleted  = "Sale Completed"
)

// AuditLog is append-only: the application never updates or deletes rows.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	UserName  string    `gorm:"type:varchar(255);not null" json:"user_name"`
	Action    string    `gorm:"type:varchar(50);not null;index" json:"action"`
	Details   string    `gorm:"type:text" json:"details"`
}
