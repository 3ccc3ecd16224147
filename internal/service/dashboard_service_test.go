package service

import (
	"context"
	"testing"
	"time"

	"go-pos-checkout/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.seed("A", 10, "10.00")
	b := f.seed("B", 3, "5.00")
	low := f.seed("Low", 2, "1.00")

	expiry := time.Now().AddDate(0, 0, 5)
	low.ExpiryDate = &expiry
	require.NoError(t, f.products.Update(f.db, low))

	svc := f.checkout(strict)
	_, err := svc.Commit(ctx, CommitRequest{
		Lines:       []CommitLine{{ItemID: a.ID, Quantity: 2}, {ItemID: b.ID, Quantity: 1}},
		GrandTotal:  dec("28.00"),
		CashierName: "ana (Cashier)",
		Payment:     cashPaid("30", "2"),
	})
	require.NoError(t, err)
	_, err = svc.Commit(ctx, CommitRequest{
		Lines:       []CommitLine{{ItemID: b.ID, Quantity: 1}},
		GrandTotal:  dec("5.60"),
		CashierName: "ana (Cashier)",
		Payment:     cashPaid("5.60", "0"),
	})
	require.NoError(t, err)

	dash := NewDashboardService(f.reports, 30)

	stats, err := dash.GetDashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "33.60", stats.TodayRevenue.StringFixed(2))
	assert.Equal(t, "33.60", stats.TotalRevenue.StringFixed(2))
	assert.Equal(t, int64(2), stats.TodaySales)
	assert.Equal(t, int64(2), stats.LowStockCount, "B now at 1 and Low at 2, both under threshold 2")
	assert.Equal(t, int64(1), stats.ExpiringCount)

	top, err := dash.GetTopProducts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, a.ID, top[0].ItemID)

	recent, err := dash.GetRecentSales(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recent, 3)

	movement, err := dash.GetSalesMovement(ctx, 7)
	require.NoError(t, err)
	require.Len(t, movement, 7)
	today := movement[6]
	assert.Equal(t, time.Now().Format("2006-01-02"), today.Date)
	assert.Equal(t, 2, today.Sales)
	assert.Equal(t, 4, today.Units)
	assert.Equal(t, "33.60", today.Revenue.StringFixed(2))
	assert.True(t, movement[0].Revenue.IsZero())

	var n int64
	require.NoError(t, f.db.Model(&model.Sale{}).Count(&n).Error)
	assert.Equal(t, int64(2), n)
}
