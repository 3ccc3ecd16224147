package repository

import (
	"context"
	"errors"
	"time"

	"go-pos-checkout/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStockUnavailable means a conditional decrement matched no row: the item
// is gone or has less stock than requested.
var ErrStockUnavailable = errors.New("stock no longer available")

type ProductRepository interface {
	ListForSale(ctx context.Context) ([]model.CatalogItem, error)
	FindAll(ctx context.Context) ([]model.CatalogItem, error)
	FindByID(ctx context.Context, id uint) (*model.CatalogItem, error)
	Perishables(ctx context.Context, until time.Time) ([]model.CatalogItem, error)

	// Transactional operations take the tx they run in
	Create(tx *gorm.DB, item *model.CatalogItem) error
	FindForUpdate(tx *gorm.DB, id uint) (*model.CatalogItem, error)
	Update(tx *gorm.DB, item *model.CatalogItem) error
	CurrentPrice(tx *gorm.DB, id uint) (decimal.Decimal, error)
	DecrementStock(tx *gorm.DB, id uint, qty int, strict bool) error
	SoftDelete(tx *gorm.DB, id uint, deletedBy string) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

// ListForSale loads every live item for the catalog snapshot.
func (r *productRepo) ListForSale(ctx context.Context) ([]model.CatalogItem, error) {
	var items []model.CatalogItem
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

func (r *productRepo) FindAll(ctx context.Context) ([]model.CatalogItem, error) {
	var items []model.CatalogItem
	err := r.db.WithContext(ctx).Order("id ASC").Find(&items).Error
	return items, err
}

func (r *productRepo) FindByID(ctx context.Context, id uint) (*model.CatalogItem, error) {
	var item model.CatalogItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Perishables returns stocked items whose expiry falls on or before until.
func (r *productRepo) Perishables(ctx context.Context, until time.Time) ([]model.CatalogItem, error) {
	var items []model.CatalogItem
	err := r.db.WithContext(ctx).
		Where("stock > 0 AND expiry_date IS NOT NULL AND expiry_date <= ?", until).
		Order("expiry_date ASC, id ASC").
		Find(&items).Error
	return items, err
}

func (r *productRepo) Create(tx *gorm.DB, item *model.CatalogItem) error {
	return tx.Create(item).Error
}

// FindForUpdate reads the row with a pessimistic lock held until tx ends.
func (r *productRepo) FindForUpdate(tx *gorm.DB, id uint) (*model.CatalogItem, error) {
	var item model.CatalogItem
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *productRepo) Update(tx *gorm.DB, item *model.CatalogItem) error {
	return tx.Model(item).Select(
		"name", "category", "cost_price", "selling_price", "stock", "threshold", "expiry_date", "updated_by", "updated_at",
	).Updates(item).Error
}

// CurrentPrice re-reads the selling price inside the commit transaction.
func (r *productRepo) CurrentPrice(tx *gorm.DB, id uint) (decimal.Decimal, error) {
	var item model.CatalogItem
	if err := tx.Select("id", "selling_price").First(&item, id).Error; err != nil {
		return decimal.Zero, err
	}
	return item.SellingPrice, nil
}

// DecrementStock subtracts qty. Strict mode refuses to take stock below zero;
// otherwise the decrement is unconditional.
func (r *productRepo) DecrementStock(tx *gorm.DB, id uint, qty int, strict bool) error {
	q := tx.Model(&model.CatalogItem{}).Where("id = ?", id)
	if strict {
		q = q.Where("stock >= ?", qty)
	}
	res := q.UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if strict {
			return ErrStockUnavailable
		}
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) SoftDelete(tx *gorm.DB, id uint, deletedBy string) error {
	if err := tx.Model(&model.CatalogItem{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	res := tx.Delete(&model.CatalogItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
