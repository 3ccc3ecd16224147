package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/model"
	"go-pos-checkout/internal/repository"
	"go-pos-checkout/internal/ws"
	"go-pos-checkout/pkg/validator"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MinReasonLength is the shortest accepted shrinkage reason, after trimming.
const MinReasonLength = 5

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrReasonTooShort    = fmt.Errorf("removing stock requires a reason of at least %d characters", MinReasonLength)
	ErrRemoveExceedStock = errors.New("cannot remove more than current stock")
	ErrNegativeRemoval   = errors.New("remove quantity cannot be negative")
	ErrInvalidExpiry     = errors.New("invalid expiry_date format, use YYYY-MM-DD")
)

// CatalogRefresher reloads the register's catalog snapshot.
type CatalogRefresher interface {
	Refresh(ctx context.Context) error
}

// Actor identifies who performed an inventory change.
type Actor struct {
	Name string
}

type CreateProductRequest struct {
	Name         string          `json:"name" validate:"required"`
	Category     string          `json:"category" validate:"required"`
	CostPrice    decimal.Decimal `json:"cost_price" validate:"decimal_gte0"`
	SellingPrice decimal.Decimal `json:"selling_price" validate:"decimal_gte0"`
	Stock        int             `json:"stock" validate:"gte=0"`
	Threshold    int             `json:"threshold" validate:"gte=0"`
	ExpiryDate   string          `json:"expiry_date"` // YYYY-MM-DD, optional
}

// EditProductRequest updates catalog fields and optionally writes off stock.
type EditProductRequest struct {
	Name         string          `json:"name" validate:"required"`
	Category     string          `json:"category"`
	CostPrice    decimal.Decimal `json:"cost_price" validate:"decimal_gte0"`
	SellingPrice decimal.Decimal `json:"selling_price" validate:"decimal_gte0"`
	Threshold    *int            `json:"threshold" validate:"omitempty,gte=0"`
	RemoveQty    int             `json:"remove_qty"`
	Reason       string          `json:"reason"`
}

type InventoryService interface {
	CreateProduct(ctx context.Context, req *CreateProductRequest, actor Actor) (*model.CatalogItem, error)
	EditProduct(ctx context.Context, id uint, req *EditProductRequest, actor Actor) (*model.CatalogItem, error)
	DeleteProduct(ctx context.Context, id uint, actor Actor) error
	ListInventory(ctx context.Context) ([]model.CatalogItem, error)
	GetProduct(ctx context.Context, id uint) (*model.CatalogItem, error)
	Perishables(ctx context.Context, days int) ([]model.PerishableItem, error)
	ListAuditLogs(ctx context.Context, limit int) ([]model.AuditLog, error)
}

type inventoryService struct {
	db          *gorm.DB
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	catalog     CatalogRefresher
	wsHub       *ws.Hub
	log         *zap.Logger
	now         func() time.Time
}

func NewInventoryService(db *gorm.DB, pRepo repository.ProductRepository, aRepo repository.AuditRepository, catalog CatalogRefresher, hub *ws.Hub, log *zap.Logger) InventoryService {
	return &inventoryService{
		db:          db,
		productRepo: pRepo,
		auditRepo:   aRepo,
		catalog:     catalog,
		wsHub:       hub,
		log:         log,
		now:         time.Now,
	}
}

func (s *inventoryService) CreateProduct(ctx context.Context, req *CreateProductRequest, actor Actor) (*model.CatalogItem, error) {
	const op = "inventory.create"

	// 1. Validate
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if err := validator.FirstError(req); err != nil {
		return nil, apperr.Validation(op, err)
	}
	expiry, err := s.parseExpiry(req.ExpiryDate)
	if err != nil {
		return nil, apperr.Validation(op, err)
	}

	item := &model.CatalogItem{
		Name:         req.Name,
		Category:     req.Category,
		CostPrice:    req.CostPrice,
		SellingPrice: req.SellingPrice,
		Stock:        req.Stock,
		Threshold:    req.Threshold,
		ExpiryDate:   expiry,
	}
	item.CreatedBy = actor.Name
	item.UpdatedBy = actor.Name

	// 2. Row and audit together
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.productRepo.Create(tx, item); err != nil {
			return err
		}
		return s.auditRepo.Append(tx, &model.AuditLog{
			Timestamp: s.now(),
			UserName:  actor.Name,
			Action:    model.AuditProductAdded,
			Details:   fmt.Sprintf("Added %s (%s), stock %d, price %s", item.Name, item.Category, item.Stock, item.SellingPrice.StringFixed(2)),
		})
	})
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}

	s.refreshCatalog(ctx, op)
	s.broadcast("product_created", item, actor, fmt.Sprintf("%s added product '%s'", actor.Name, item.Name))
	return item, nil
}

// EditProduct applies an edit and any stock write-off in one transaction.
// Field changes and shrinkage are audited as separate rows.
func (s *inventoryService) EditProduct(ctx context.Context, id uint, req *EditProductRequest, actor Actor) (*model.CatalogItem, error) {
	const op = "inventory.edit"

	// 1. Everything checkable without the row
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	req.Reason = strings.TrimSpace(req.Reason)
	if err := validator.FirstError(req); err != nil {
		return nil, apperr.Validation(op, err)
	}
	if req.RemoveQty < 0 {
		return nil, apperr.Validation(op, ErrNegativeRemoval)
	}
	if req.RemoveQty > 0 && len([]rune(req.Reason)) < MinReasonLength {
		return nil, apperr.Validation(op, ErrReasonTooShort)
	}

	var updated *model.CatalogItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 2. Lock the row
		existing, err := s.productRepo.FindForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound(op, ErrProductNotFound)
			}
			return apperr.Persistence(op, err)
		}
		if req.RemoveQty > existing.Stock {
			return apperr.Validation(op, fmt.Errorf("%w (%d in stock)", ErrRemoveExceedStock, existing.Stock))
		}

		before := *existing
		existing.Name = req.Name
		if req.Category != "" {
			existing.Category = req.Category
		}
		existing.CostPrice = req.CostPrice
		existing.SellingPrice = req.SellingPrice
		if req.Threshold != nil {
			existing.Threshold = *req.Threshold
		}
		existing.Stock = before.Stock - req.RemoveQty
		existing.UpdatedBy = actor.Name

		// 3. Row update
		if err := s.productRepo.Update(tx, existing); err != nil {
			return apperr.Persistence(op, err)
		}

		// 4. Audit rows
		now := s.now()
		var entries []*model.AuditLog
		if changes := describeChanges(&before, existing); changes != "" {
			if req.Reason != "" && req.RemoveQty == 0 {
				changes += ". Note: " + req.Reason
			}
			entries = append(entries, &model.AuditLog{Timestamp: now, UserName: actor.Name, Action: model.AuditProductEdit, Details: changes})
		}
		if req.RemoveQty > 0 {
			entries = append(entries, &model.AuditLog{
				Timestamp: now,
				UserName:  actor.Name,
				Action:    model.AuditStockShrinkage,
				Details: fmt.Sprintf("Removed %d. Old: %d, New: %d. Reason: %s",
					req.RemoveQty, before.Stock, existing.Stock, req.Reason),
			})
		}
		if err := s.auditRepo.Append(tx, entries...); err != nil {
			return apperr.Persistence(op, err)
		}

		updated = existing
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == 0 {
			err = apperr.Persistence(op, err)
		}
		return nil, err
	}

	s.refreshCatalog(ctx, op)
	s.broadcast("product_updated", updated, actor, fmt.Sprintf("%s updated product '%s'", actor.Name, updated.Name))
	return updated, nil
}

func (s *inventoryService) DeleteProduct(ctx context.Context, id uint, actor Actor) error {
	const op = "inventory.delete"

	var name string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.productRepo.FindForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound(op, ErrProductNotFound)
			}
			return apperr.Persistence(op, err)
		}
		name = existing.Name
		if err := s.productRepo.SoftDelete(tx, id, actor.Name); err != nil {
			return apperr.Persistence(op, err)
		}
		return s.auditRepo.Append(tx, &model.AuditLog{
			Timestamp: s.now(),
			UserName:  actor.Name,
			Action:    model.AuditProductDeleted,
			Details:   fmt.Sprintf("Deleted %s (id %d), stock was %d", existing.Name, existing.ID, existing.Stock),
		})
	})
	if err != nil {
		if apperr.KindOf(err) == 0 {
			err = apperr.Persistence(op, err)
		}
		return err
	}

	s.refreshCatalog(ctx, op)
	s.wsHub.Publish(ws.EventStockUpdate, map[string]interface{}{
		"action":     "product_deleted",
		"product_id": id,
		"user":       actor.Name,
		"message":    fmt.Sprintf("%s deleted product '%s'", actor.Name, name),
	})
	return nil
}

func (s *inventoryService) ListInventory(ctx context.Context) ([]model.CatalogItem, error) {
	items, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, apperr.Persistence("inventory.list", err)
	}
	return items, nil
}

func (s *inventoryService) GetProduct(ctx context.Context, id uint) (*model.CatalogItem, error) {
	item, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("inventory.get", ErrProductNotFound)
		}
		return nil, apperr.Persistence("inventory.get", err)
	}
	return item, nil
}

// Perishables lists stocked items expiring within days, soonest first.
func (s *inventoryService) Perishables(ctx context.Context, days int) ([]model.PerishableItem, error) {
	if days < 0 {
		return nil, apperr.Validation("inventory.perishables", errors.New("days cannot be negative"))
	}
	today := dateOnly(s.now())
	items, err := s.productRepo.Perishables(ctx, today.AddDate(0, 0, days))
	if err != nil {
		return nil, apperr.Persistence("inventory.perishables", err)
	}

	out := make([]model.PerishableItem, 0, len(items))
	for _, it := range items {
		expiry := dateOnly(*it.ExpiryDate)
		daysLeft := int(expiry.Sub(today).Hours() / 24)
		out = append(out, model.PerishableItem{
			ID:         it.ID,
			Name:       it.Name,
			Category:   it.Category,
			Stock:      it.Stock,
			ExpiryDate: expiry.Format("2006-01-02"),
			DaysLeft:   daysLeft,
			Status:     model.ClassifyExpiry(daysLeft),
		})
	}
	return out, nil
}

func (s *inventoryService) ListAuditLogs(ctx context.Context, limit int) ([]model.AuditLog, error) {
	logs, err := s.auditRepo.FindAll(ctx, limit)
	if err != nil {
		return nil, apperr.Persistence("audit.list", err)
	}
	return logs, nil
}

// parseExpiry accepts an empty string or YYYY-MM-DD. Dates already past are
// dropped rather than rejected.
func (s *inventoryService) parseExpiry(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, ErrInvalidExpiry
	}
	if parsed.Before(dateOnly(s.now())) {
		return nil, nil
	}
	return &parsed, nil
}

// refreshCatalog reloads the snapshot after a committed write. The write
// stands even if the reload fails.
func (s *inventoryService) refreshCatalog(ctx context.Context, op string) {
	if s.catalog == nil {
		return
	}
	if err := s.catalog.Refresh(ctx); err != nil {
		s.log.Warn("catalog refresh after inventory write failed", zap.String("op", op), zap.Error(err))
	}
}

func (s *inventoryService) broadcast(action string, item *model.CatalogItem, actor Actor, message string) {
	s.wsHub.Publish(ws.EventStockUpdate, map[string]interface{}{
		"action": action,
		"product": map[string]interface{}{
			"id":    item.ID,
			"name":  item.Name,
			"stock": item.Stock,
			"price": item.SellingPrice,
		},
		"user":    actor.Name,
		"message": message,
	})
}

func describeChanges(before, after *model.CatalogItem) string {
	var changes []string
	if before.Name != after.Name {
		changes = append(changes, fmt.Sprintf("Name: %s -> %s", before.Name, after.Name))
	}
	if !before.SellingPrice.Equal(after.SellingPrice) {
		changes = append(changes, fmt.Sprintf("Price: %s -> %s", before.SellingPrice.StringFixed(2), after.SellingPrice.StringFixed(2)))
	}
	if !before.CostPrice.Equal(after.CostPrice) {
		changes = append(changes, fmt.Sprintf("Cost: %s -> %s", before.CostPrice.StringFixed(2), after.CostPrice.StringFixed(2)))
	}
	return strings.Join(changes, ", ")
}

// dateOnly truncates t to midnight UTC of its calendar day.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
