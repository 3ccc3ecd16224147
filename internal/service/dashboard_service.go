package service

import (
	"context"
	"time"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/repository"

	"github.com/shopspring/decimal"
)

// DashboardStats is the manager overview
type DashboardStats struct {
	TodayRevenue  decimal.Decimal `json:"today_revenue"`
	TodaySales    int64           `json:"today_sales"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	LowStockCount int64           `json:"low_stock_count"`
	ExpiringCount int64           `json:"expiring_count"`
}

// SalesMovementData is one day of sales for charts
type SalesMovementData struct {
	Date    string          `json:"date"`
	Sales   int             `json:"sales"`
	Units   int             `json:"units"`
	Revenue decimal.Decimal `json:"revenue"`
}

type DashboardService interface {
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
	GetRecentSales(ctx context.Context, limit int) ([]repository.RecentSaleLine, error)
	GetTopProducts(ctx context.Context, limit int) ([]repository.TopProduct, error)
	GetSalesMovement(ctx context.Context, days int) ([]SalesMovementData, error)
}

type dashboardService struct {
	reportRepo   repository.ReportRepository
	expiryWindow int
	now          func() time.Time
}

func NewDashboardService(reportRepo repository.ReportRepository, expiryWindowDays int) DashboardService {
	return &dashboardService{reportRepo: reportRepo, expiryWindow: expiryWindowDays, now: time.Now}
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	const op = "dashboard.stats"
	var (
		stats DashboardStats
		err   error
	)

	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if stats.TodayRevenue, err = s.reportRepo.Revenue(ctx, startOfDay); err != nil {
		return nil, apperr.Persistence(op, err)
	}
	if stats.TodaySales, err = s.reportRepo.SalesCount(ctx, startOfDay); err != nil {
		return nil, apperr.Persistence(op, err)
	}
	if stats.TotalRevenue, err = s.reportRepo.TotalRevenue(ctx); err != nil {
		return nil, apperr.Persistence(op, err)
	}
	if stats.LowStockCount, err = s.reportRepo.LowStockCount(ctx); err != nil {
		return nil, apperr.Persistence(op, err)
	}
	until := dateOnly(now).AddDate(0, 0, s.expiryWindow)
	if stats.ExpiringCount, err = s.reportRepo.ExpiringCount(ctx, until); err != nil {
		return nil, apperr.Persistence(op, err)
	}
	return &stats, nil
}

func (s *dashboardService) GetRecentSales(ctx context.Context, limit int) ([]repository.RecentSaleLine, error) {
	rows, err := s.reportRepo.RecentSales(ctx, clampLimit(limit, 10))
	if err != nil {
		return nil, apperr.Persistence("dashboard.recent_sales", err)
	}
	return rows, nil
}

func (s *dashboardService) GetTopProducts(ctx context.Context, limit int) ([]repository.TopProduct, error) {
	rows, err := s.reportRepo.TopProducts(ctx, clampLimit(limit, 5))
	if err != nil {
		return nil, apperr.Persistence("dashboard.top_products", err)
	}
	return rows, nil
}

// GetSalesMovement buckets sales per calendar day over the last days,
// oldest first. Days without sales are included as zeroes.
func (s *dashboardService) GetSalesMovement(ctx context.Context, days int) ([]SalesMovementData, error) {
	if days <= 0 {
		days = 7
	}
	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(days - 1))

	sales, err := s.reportRepo.SalesSince(ctx, start)
	if err != nil {
		return nil, apperr.Persistence("dashboard.sales_movement", err)
	}

	out := make([]SalesMovementData, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		key := start.AddDate(0, 0, i).Format("2006-01-02")
		out[i] = SalesMovementData{Date: key, Revenue: decimal.Zero}
		index[key] = i
	}
	for _, sale := range sales {
		i, ok := index[sale.SaleTimestamp.In(now.Location()).Format("2006-01-02")]
		if !ok {
			continue
		}
		out[i].Sales++
		out[i].Units += sale.ItemsCount
		out[i].Revenue = out[i].Revenue.Add(sale.TotalAmount)
	}
	return out, nil
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 100 {
		return 100
	}
	return limit
}
