package service

import (
	"context"
	"testing"

	"go-pos-checkout/internal/catalog"
	"go-pos-checkout/internal/model"
	"go-pos-checkout/internal/payment"
	"go-pos-checkout/internal/repository"
	"go-pos-checkout/internal/testdb"
	"go-pos-checkout/internal/ws"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type fixture struct {
	t        *testing.T
	db       *gorm.DB
	products repository.ProductRepository
	sales    repository.SaleRepository
	audit    repository.AuditRepository
	users    repository.UserRepository
	reports  repository.ReportRepository
	hub      *ws.Hub
	log      *zap.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.New(t)
	log := zaptest.NewLogger(t)
	return &fixture{
		t:        t,
		db:       db,
		products: repository.NewProductRepo(db),
		sales:    repository.NewSaleRepo(db),
		audit:    repository.NewAuditRepo(db),
		users:    repository.NewUserRepo(db),
		reports:  repository.NewReportRepo(db),
		hub:      ws.NewHub(log),
		log:      log,
	}
}

func (f *fixture) seed(name string, stock int, price string) *model.CatalogItem {
	f.t.Helper()
	item := &model.CatalogItem{
		Name:         name,
		Category:     "General",
		CostPrice:    decimal.Zero,
		SellingPrice: decimal.RequireFromString(price),
		Stock:        stock,
		Threshold:    2,
	}
	require.NoError(f.t, f.products.Create(f.db, item))
	return item
}

func (f *fixture) checkout(opts CheckoutOptions) CheckoutService {
	return NewCheckoutService(f.db, f.products, f.sales, f.audit, f.hub, f.log, opts)
}

func (f *fixture) snapshot() *catalog.Snapshot {
	f.t.Helper()
	snap := catalog.NewSnapshot(f.products)
	require.NoError(f.t, snap.Refresh(context.Background()))
	return snap
}

func (f *fixture) stockOf(id uint) int {
	f.t.Helper()
	item, err := f.products.FindByID(context.Background(), id)
	require.NoError(f.t, err)
	return item.Stock
}

func (f *fixture) setStock(id uint, stock int) {
	f.t.Helper()
	require.NoError(f.t, f.db.Model(&model.CatalogItem{}).Where("id = ?", id).Update("stock", stock).Error)
}

func (f *fixture) count(m interface{}) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(m).Count(&n).Error)
	return n
}

func (f *fixture) auditLogs() []model.AuditLog {
	f.t.Helper()
	logs, err := f.audit.FindAll(context.Background(), 0)
	require.NoError(f.t, err)
	return logs
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func cashPaid(tendered, change string) payment.Details {
	return payment.Details{Method: model.PaymentCash, Tendered: dec(tendered), Change: dec(change)}
}
