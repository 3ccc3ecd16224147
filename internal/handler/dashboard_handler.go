package handler

import (
	"go-pos-checkout/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetSalesMovement returns daily sales data for charts
// Query params: days (default 7)
func (h *DashboardHandler) GetSalesMovement(c *fiber.Ctx) error {
	days := queryInt(c, "days", 7)
	if days <= 0 {
		days = 7
	}

	data, err := h.service.GetSalesMovement(c.UserContext(), days)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch sales movement"})
	}

	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}

// GetDashboardStats returns overview statistics
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetDashboardStats(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch dashboard stats"})
	}

	return c.JSON(stats)
}

// GetRecentSales returns the latest sold lines
// Query params: limit (default 10)
func (h *DashboardHandler) GetRecentSales(c *fiber.Ctx) error {
	rows, err := h.service.GetRecentSales(c.UserContext(), queryInt(c, "limit", 10))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch recent sales"})
	}
	return c.JSON(fiber.Map{"data": rows})
}

// GetTopProducts returns best sellers by units
// Query params: limit (default 5)
func (h *DashboardHandler) GetTopProducts(c *fiber.Ctx) error {
	rows, err := h.service.GetTopProducts(c.UserContext(), queryInt(c, "limit", 5))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch top products"})
	}
	return c.JSON(fiber.Map{"data": rows})
}
