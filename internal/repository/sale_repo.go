package repository

import (
	"context"

	"go-pos-checkout/internal/model"

	"gorm.io/gorm"
)

type SaleRepository interface {
	CreateSale(tx *gorm.DB, sale *model.Sale) error
	CreateLines(tx *gorm.DB, lines []model.SaleLine) error
	FindByID(ctx context.Context, id uint) (*model.Sale, error)
	FindAll(ctx context.Context, limit int) ([]model.Sale, error)
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

// CreateSale inserts the header only; lines are written separately once
// their commit-time prices are known.
func (r *saleRepo) CreateSale(tx *gorm.DB, sale *model.Sale) error {
	return tx.Omit("Lines").Create(sale).Error
}

func (r *saleRepo) CreateLines(tx *gorm.DB, lines []model.SaleLine) error {
	if len(lines) == 0 {
		return nil
	}
	return tx.CreateInBatches(lines, 100).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uint) (*model.Sale, error) {
	var sale model.Sale
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("item_id ASC") }).
		First(&sale, id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepo) FindAll(ctx context.Context, limit int) ([]model.Sale, error) {
	var sales []model.Sale
	q := r.db.WithContext(ctx).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&sales).Error
	return sales, err
}
