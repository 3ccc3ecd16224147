package repository

import (
	"context"
	"time"

	"go-pos-checkout/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReportRepository interface {
	Revenue(ctx context.Context, since time.Time) (decimal.Decimal, error)
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
	SalesCount(ctx context.Context, since time.Time) (int64, error)
	LowStockCount(ctx context.Context) (int64, error)
	ExpiringCount(ctx context.Context, until time.Time) (int64, error)
	RecentSales(ctx context.Context, limit int) ([]RecentSaleLine, error)
	TopProducts(ctx context.Context, limit int) ([]TopProduct, error)
	SalesSince(ctx context.Context, since time.Time) ([]model.Sale, error)
}

// RecentSaleLine is one sold line joined with its sale header
type RecentSaleLine struct {
	SaleID        uint                `json:"sale_id"`
	SaleTimestamp time.Time           `json:"sale_timestamp"`
	CashierName   string              `json:"cashier_name"`
	PaymentMethod model.PaymentMethod `json:"payment_method"`
	ItemName      string              `json:"item_name"`
	Quantity      int                 `json:"quantity"`
	UnitPrice     decimal.Decimal     `json:"unit_price"`
}

// TopProduct aggregates units sold per item
type TopProduct struct {
	ItemID    uint            `json:"item_id"`
	Name      string          `json:"name"`
	UnitsSold int64           `json:"units_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type reportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db}
}

type sumRow struct {
	Total decimal.Decimal
}

func (r *reportRepo) Revenue(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	var row sumRow
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("sale_timestamp >= ?", since).
		Scan(&row).Error
	return row.Total, err
}

func (r *reportRepo) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	var row sumRow
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Scan(&row).Error
	return row.Total, err
}

func (r *reportRepo) SalesCount(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Sale{}).Where("sale_timestamp >= ?", since).Count(&n).Error
	return n, err
}

// LowStockCount counts items at or under threshold that are not sold out.
func (r *reportRepo) LowStockCount(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.CatalogItem{}).
		Where("stock > 0 AND stock <= threshold").
		Count(&n).Error
	return n, err
}

func (r *reportRepo) ExpiringCount(ctx context.Context, until time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.CatalogItem{}).
		Where("stock > 0 AND expiry_date IS NOT NULL AND expiry_date <= ?", until).
		Count(&n).Error
	return n, err
}

func (r *reportRepo) RecentSales(ctx context.Context, limit int) ([]RecentSaleLine, error) {
	var rows []RecentSaleLine
	err := r.db.WithContext(ctx).Table("sale_lines AS sl").
		Select(`s.id AS sale_id, s.sale_timestamp, s.cashier_name, s.payment_method,
			ci.name AS item_name, sl.quantity, sl.unit_price`).
		Joins("JOIN sales AS s ON s.id = sl.sale_id").
		Joins("JOIN catalog_items AS ci ON ci.id = sl.item_id").
		Order("s.id DESC, sl.id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// TopProducts ranks items by units sold, including items deleted since.
func (r *reportRepo) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	var rows []TopProduct
	err := r.db.WithContext(ctx).Table("sale_lines AS sl").
		Select(`ci.id AS item_id, ci.name AS name, SUM(sl.quantity) AS units_sold,
			COALESCE(SUM(sl.quantity * sl.unit_price), 0) AS revenue`).
		Joins("JOIN catalog_items AS ci ON ci.id = sl.item_id").
		Group("ci.id, ci.name").
		Order("units_sold DESC, ci.id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// SalesSince returns sale headers for bucketing by day in the caller.
func (r *reportRepo) SalesSince(ctx context.Context, since time.Time) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Where("sale_timestamp >= ?", since).
		Order("sale_timestamp ASC").
		Find(&sales).Error
	return sales, err
}
