package repository

import (
	"context"

	"go-pos-checkout/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AuditRepository is append-only: rows are never updated or deleted.
type AuditRepository interface {
	Append(tx *gorm.DB, entries ...*model.AuditLog) error
	FindAll(ctx context.Context, limit int) ([]model.AuditLog, error)
}

type auditRepo struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) AuditRepository {
	return &auditRepo{db}
}

// Append writes entries inside tx, or on the base connection when tx is nil.
func (r *auditRepo) Append(tx *gorm.DB, entries ...*model.AuditLog) error {
	if len(entries) == 0 {
		return nil
	}
	if tx == nil {
		tx = r.db
	}
	return tx.Create(entries).Error
}

// FindAll returns the newest entries first.
func (r *auditRepo) FindAll(ctx context.Context, limit int) ([]model.AuditLog, error) {
	var logs []model.AuditLog
	q := r.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&logs).Error
	return logs, err
}
