package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/model"
	"go-pos-checkout/internal/payment"
	"go-pos-checkout/internal/repository"
	"go-pos-checkout/internal/ws"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrTransactionFailed = errors.New("transaction failed")
	ErrStockConflict     = errors.New("stock changed since the item was added")
)

// CommitLine is one (item, quantity) pair to sell.
type CommitLine struct {
	ItemID   uint
	Quantity int
}

type CommitRequest struct {
	Lines       []CommitLine
	GrandTotal  decimal.Decimal
	CashierName string
	Payment     payment.Details
}

type CheckoutOptions struct {
	// StrictStock refuses a decrement that would take stock below zero.
	StrictStock bool
	// AuditSales writes a Sale Completed audit row with every sale.
	AuditSales bool
}

type CheckoutService interface {
	Commit(ctx context.Context, req CommitRequest) (*model.Sale, error)
}

type checkoutService struct {
	db          *gorm.DB
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	auditRepo   repository.AuditRepository
	wsHub       *ws.Hub
	log         *zap.Logger
	opts        CheckoutOptions
}

func NewCheckoutService(
	db *gorm.DB,
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
	auditRepo repository.AuditRepository,
	hub *ws.Hub,
	log *zap.Logger,
	opts CheckoutOptions,
) CheckoutService {
	return &checkoutService{
		db:          db,
		productRepo: productRepo,
		saleRepo:    saleRepo,
		auditRepo:   auditRepo,
		wsHub:       hub,
		log:         log,
		opts:        opts,
	}
}

// Commit persists the sale, its lines and the stock decrements as one unit.
// Either every write lands or none does.
func (s *checkoutService) Commit(ctx context.Context, req CommitRequest) (*model.Sale, error) {
	const op = "checkout.commit"

	// 1. Reject before touching the store
	if len(req.Lines) == 0 {
		return nil, apperr.Validation(op, ErrEmptyCart)
	}
	lines := make([]CommitLine, len(req.Lines))
	copy(lines, req.Lines)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ItemID < lines[j].ItemID })

	itemsCount := 0
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, apperr.Validation(op, fmt.Errorf("%w: item %d", ErrInvalidQuantity, l.ItemID))
		}
		itemsCount += l.Quantity
	}

	sale := &model.Sale{
		TotalAmount:     req.GrandTotal,
		ItemsCount:      itemsCount,
		CashierName:     req.CashierName,
		SaleTimestamp:   time.Now(),
		PaymentMethod:   req.Payment.Method,
		AmountTendered:  req.Payment.Tendered,
		ChangeAmount:    req.Payment.Change,
		ReferenceNumber: req.Payment.ReferencePtr(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 2. Sale header
		if err := s.saleRepo.CreateSale(tx, sale); err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		// 3. Lines priced at what the store says now
		saleLines := make([]model.SaleLine, 0, len(lines))
		for _, l := range lines {
			price, err := s.productRepo.CurrentPrice(tx, l.ItemID)
			if err != nil {
				return fmt.Errorf("price item %d: %w", l.ItemID, err)
			}
			saleLines = append(saleLines, model.SaleLine{
				SaleID:    sale.ID,
				ItemID:    l.ItemID,
				Quantity:  l.Quantity,
				UnitPrice: price,
			})
		}
		if err := s.saleRepo.CreateLines(tx, saleLines); err != nil {
			return fmt.Errorf("insert sale lines: %w", err)
		}
		sale.Lines = saleLines

		// 4. Stock
		for _, l := range lines {
			if err := s.productRepo.DecrementStock(tx, l.ItemID, l.Quantity, s.opts.StrictStock); err != nil {
				if errors.Is(err, repository.ErrStockUnavailable) {
					return fmt.Errorf("%w: item %d", ErrStockConflict, l.ItemID)
				}
				return fmt.Errorf("decrement item %d: %w", l.ItemID, err)
			}
		}

		// 5. Audit row rides the same transaction
		if s.opts.AuditSales {
			entry := &model.AuditLog{
				Timestamp: sale.SaleTimestamp,
				UserName:  req.CashierName,
				Action:    model.AuditSaleCompleted,
				Details: fmt.Sprintf("Sale #%d: %d items, total %s, paid by %s",
					sale.ID, itemsCount, req.GrandTotal.StringFixed(2), req.Payment.Method),
			}
			if err := s.auditRepo.Append(tx, entry); err != nil {
				return fmt.Errorf("audit sale: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error("checkout rolled back",
			zap.String("cashier", req.CashierName),
			zap.Int("lines", len(lines)),
			zap.Error(err),
		)
		return nil, apperr.Persistence(op, fmt.Errorf("%w: %w", ErrTransactionFailed, err))
	}

	s.log.Info("sale committed",
		zap.Uint("sale_id", sale.ID),
		zap.String("total", sale.TotalAmount.StringFixed(2)),
		zap.String("method", string(sale.PaymentMethod)),
	)

	if s.wsHub != nil {
		s.wsHub.Publish(ws.EventSaleCompleted, map[string]interface{}{
			"sale_id":     sale.ID,
			"total":       sale.TotalAmount,
			"items_count": sale.ItemsCount,
			"cashier":     sale.CashierName,
			"message":     fmt.Sprintf("%s completed sale #%d", sale.CashierName, sale.ID),
		})
	}

	return sale, nil
}
