package handler

import (
	"go-pos-checkout/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	service    service.InventoryService
	windowDays int
}

func NewInventoryHandler(s service.InventoryService, perishableWindowDays int) *InventoryHandler {
	return &InventoryHandler{service: s, windowDays: perishableWindowDays}
}

func (h *InventoryHandler) actor(c *fiber.Ctx) service.Actor {
	return service.Actor{Name: getActor(c)}
}

func (h *InventoryHandler) GetProducts(c *fiber.Ctx) error {
	items, err := h.service.ListInventory(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *InventoryHandler) GetProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	item, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	item, err := h.service.CreateProduct(c.UserContext(), &req, h.actor(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Product created", "data": item})
}

// UpdateProduct edits a product and optionally writes off stock
// PUT /api/v1/products/:id
func (h *InventoryHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	var req service.EditProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	item, err := h.service.EditProduct(c.UserContext(), id, &req, h.actor(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Product updated", "data": item})
}

func (h *InventoryHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	if err := h.service.DeleteProduct(c.UserContext(), id, h.actor(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

// GetPerishables lists items expiring soon
// Query params: days (default from config)
func (h *InventoryHandler) GetPerishables(c *fiber.Ctx) error {
	days := queryInt(c, "days", h.windowDays)
	items, err := h.service.Perishables(c.UserContext(), days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"days": days, "data": items})
}

// GetAuditLogs returns the newest audit entries
// Query params: limit (default 200)
func (h *InventoryHandler) GetAuditLogs(c *fiber.Ctx) error {
	logs, err := h.service.ListAuditLogs(c.UserContext(), queryInt(c, "limit", 200))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": logs})
}
