package service

import (
	"context"
	"testing"
	"time"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/cart"
	"go-pos-checkout/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var manager = Actor{Name: "mara (Manager)"}

func newInventory(f *fixture, today time.Time) InventoryService {
	svc := NewInventoryService(f.db, f.products, f.audit, nil, f.hub, f.log)
	svc.(*inventoryService).now = func() time.Time { return today }
	return svc
}

func editOf(item *model.CatalogItem) *EditProductRequest {
	return &EditProductRequest{
		Name:         item.Name,
		Category:     item.Category,
		CostPrice:    item.CostPrice,
		SellingPrice: item.SellingPrice,
	}
}

func TestEditProduct_ShrinkageOnly(t *testing.T) {
	f := newFixture(t)
	item := f.seed("Milk", 10, "10.00")
	svc := newInventory(f, time.Now())

	req := editOf(item)
	req.RemoveQty = 3
	req.Reason = "damaged"

	updated, err := svc.EditProduct(context.Background(), item.ID, req, manager)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Stock)
	assert.Equal(t, 7, f.stockOf(item.ID))

	logs := f.auditLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditStockShrinkage, logs[0].Action)
	assert.Equal(t, "Removed 3. Old: 10, New: 7. Reason: damaged", logs[0].Details)
	assert.Equal(t, manager.Name, logs[0].UserName)
}

func TestEditProduct_ShortReasonRejectedWithoutWrites(t *testing.T) {
	f := newFixture(t)
	item := f.seed("Milk", 10, "10.00")
	svc := newInventory(f, time.Now())

	req := editOf(item)
	req.SellingPrice = dec("11.00")
	req.RemoveQty = 3
	req.Reason = "  bad  "

	_, err := svc.EditProduct(context.Background(), item.ID, req, manager)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.ErrorIs(t, err, ErrReasonTooShort)

	got, err := f.products.FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)
	assert.Equal(t, "10.00", got.SellingPrice.StringFixed(2))
	assert.Empty(t, f.auditLogs())
}

func TestEditProduct_MixedEditWritesTwoRows(t *testing.T) {
	f := newFixture(t)
	item := f.seed("Milk", 10, "10.00")
	svc := newInventory(f, time.Now())

	req := editOf(item)
	req.Name = "Whole Milk"
	req.SellingPrice = dec("12.00")
	req.RemoveQty = 2
	req.Reason = "expired carton"

	_, err := svc.EditProduct(context.Background(), item.ID, req, manager)
	require.NoError(t, err)

	logs := f.auditLogs()
	require.Len(t, logs, 2)
	byAction := map[string]string{}
	for _, l := range logs {
		byAction[l.Action] = l.Details
	}
	assert.Equal(t, "Name: Milk -> Whole Milk, Price: 10.00 -> 12.00", byAction[model.AuditProductEdit])
	assert.Equal(t, "Removed 2. Old: 10, New: 8. Reason: expired carton", byAction[model.AuditStockShrinkage])
}

func TestEditProduct_NoteAppendedWithoutRemoval(t *testing.T) {
	f := newFixture(t)
	item := f.seed("Milk", 10, "10.00")
	svc := newInventory(f, time.Now())

	req := editOf(item)
	req.CostPrice = dec("6.00")
	req.Reason = "supplier increase"

	_, err := svc.EditProduct(context.Background(), item.ID, req, manager)
	require.NoError(t, err)

	logs := f.auditLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditProductEdit, logs[0].Action)
	assert.Equal(t, "Cost: 0.00 -> 6.00. Note: supplier increase", logs[0].Details)
}

func TestEditProduct_NoChangesNoAudit(t *testing.T) {
	f := newFixture(t)
	item := f.seed("Milk", 10, "10.00")
	svc := newInventory(f, time.Now())

	_, err := svc.EditProduct(context.Background(), item.ID, editOf(item), manager)
	require.NoError(t, err)
	assert.Empty(t, f.auditLogs())
}

func TestEditProduct_Rejections(t *testing.T) {
	f := newFixture(t)
	item := f.seed("Milk", 2, "10.00")
	svc := newInventory(f, time.Now())
	ctx := context.Background()

	req := editOf(item)
	req.RemoveQty = 3
	req.Reason = "stolen goods"
	_, err := svc.EditProduct(ctx, item.ID, req, manager)
	assert.ErrorIs(t, err, ErrRemoveExceedStock)
	assert.True(t, apperr.IsValidation(err))

	req = editOf(item)
	req.Name = "  "
	_, err = svc.EditProduct(ctx, item.ID, req, manager)
	assert.True(t, apperr.IsValidation(err))

	req = editOf(item)
	req.SellingPrice = dec("-1")
	_, err = svc.EditProduct(ctx, item.ID, req, manager)
	assert.True(t, apperr.IsValidation(err))

	req = editOf(item)
	req.RemoveQty = -1
	_, err = svc.EditProduct(ctx, item.ID, req, manager)
	assert.ErrorIs(t, err, ErrNegativeRemoval)

	_, err = svc.EditProduct(ctx, 999, editOf(item), manager)
	assert.True(t, apperr.IsNotFound(err))

	assert.Equal(t, 2, f.stockOf(item.ID))
	assert.Empty(t, f.auditLogs())
}

func TestCreateProduct(t *testing.T) {
	f := newFixture(t)
	today := time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)
	svc := newInventory(f, today)
	ctx := context.Background()

	item, err := svc.CreateProduct(ctx, &CreateProductRequest{
		Name:         "Yogurt",
		Category:     "Dairy",
		CostPrice:    dec("1.20"),
		SellingPrice: dec("2.00"),
		Stock:        8,
		Threshold:    3,
		ExpiryDate:   "2026-05-01",
	}, manager)
	require.NoError(t, err)
	assert.Nil(t, item.ExpiryDate, "past expiry dates are dropped")
	assert.Equal(t, manager.Name, item.CreatedBy)

	item, err = svc.CreateProduct(ctx, &CreateProductRequest{
		Name: "Cream", Category: "Dairy", SellingPrice: dec("3"), Stock: 1, ExpiryDate: "2026-05-20",
	}, manager)
	require.NoError(t, err)
	require.NotNil(t, item.ExpiryDate)

	logs := f.auditLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, model.AuditProductAdded, logs[0].Action)

	_, err = svc.CreateProduct(ctx, &CreateProductRequest{Name: "X", SellingPrice: dec("1")}, manager)
	assert.True(t, apperr.IsValidation(err), "category is required")

	_, err = svc.CreateProduct(ctx, &CreateProductRequest{Name: "X", Category: "Y", Stock: -1}, manager)
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.CreateProduct(ctx, &CreateProductRequest{Name: "X", Category: "Y", ExpiryDate: "05/20/2026"}, manager)
	assert.ErrorIs(t, err, ErrInvalidExpiry)
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t)
	item := f.seed("Milk", 4, "10.00")
	svc := newInventory(f, time.Now())
	ctx := context.Background()

	require.NoError(t, svc.DeleteProduct(ctx, item.ID, manager))

	_, err := svc.GetProduct(ctx, item.ID)
	assert.True(t, apperr.IsNotFound(err))
	assert.True(t, apperr.IsNotFound(svc.DeleteProduct(ctx, item.ID, manager)))

	logs := f.auditLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditProductDeleted, logs[0].Action)

	items, err := svc.ListInventory(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestInventoryWritesRefreshCatalog(t *testing.T) {
	f := newFixture(t)
	milk := f.seed("Milk", 4, "10.00")
	snap := f.snapshot()
	svc := NewInventoryService(f.db, f.products, f.audit, snap, f.hub, f.log)
	reg := NewRegisterService(snap, f.checkout(strict), cart.DefaultTaxRate, f.log)
	ctx := context.Background()

	bread, err := svc.CreateProduct(ctx, &CreateProductRequest{
		Name: "Bread", Category: "Bakery", SellingPrice: dec("3.00"), Stock: 2,
	}, manager)
	require.NoError(t, err)
	_, ok := snap.Lookup(bread.ID)
	assert.True(t, ok, "new item is sellable right away")

	req := editOf(milk)
	req.SellingPrice = dec("12.00")
	_, err = svc.EditProduct(ctx, milk.ID, req, manager)
	require.NoError(t, err)
	got, ok := snap.Lookup(milk.ID)
	require.True(t, ok)
	assert.Equal(t, "12.00", got.SellingPrice.StringFixed(2))

	require.NoError(t, svc.DeleteProduct(ctx, milk.ID, manager))
	_, ok = snap.Lookup(milk.ID)
	assert.False(t, ok)

	_, err = reg.Session("tok-1", "ana (Cashier)").Add(milk.ID)
	assert.ErrorIs(t, err, cart.ErrItemNotFound)
}

func TestPerishables(t *testing.T) {
	f := newFixture(t)
	today := time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)
	svc := newInventory(f, today)

	expiring := func(name string, stock int, expiry string) {
		d, err := time.Parse("2006-01-02", expiry)
		require.NoError(t, err)
		item := f.seed(name, stock, "1")
		item.ExpiryDate = &d
		require.NoError(t, f.products.Update(f.db, item))
	}
	expiring("Old Bread", 2, "2026-05-08")
	expiring("Milk", 3, "2026-05-15")
	expiring("Cheese", 1, "2026-06-01")
	expiring("Jam", 4, "2026-07-30")
	expiring("Sold Out", 0, "2026-05-11")

	items, err := svc.Perishables(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "Old Bread", items[0].Name)
	assert.Equal(t, -2, items[0].DaysLeft)
	assert.Equal(t, model.ExpiryExpired, items[0].Status)

	assert.Equal(t, 5, items[1].DaysLeft)
	assert.Equal(t, model.ExpiryDiscount, items[1].Status)

	assert.Equal(t, "2026-06-01", items[2].ExpiryDate)
	assert.Equal(t, 22, items[2].DaysLeft)
	assert.Equal(t, model.ExpiryStockCheck, items[2].Status)

	_, err = svc.Perishables(context.Background(), -1)
	assert.True(t, apperr.IsValidation(err))
}
