package handler

import (
	"go-pos-checkout/internal/catalog"
	"go-pos-checkout/internal/ws"

	"github.com/gofiber/fiber/v2"
)

type CatalogHandler struct {
	snapshot *catalog.Snapshot
	wsHub    *ws.Hub
}

func NewCatalogHandler(snapshot *catalog.Snapshot, hub *ws.Hub) *CatalogHandler {
	return &CatalogHandler{snapshot: snapshot, wsHub: hub}
}

// GetCatalog returns the snapshot the register prices against
// GET /api/v1/catalog
func (h *CatalogHandler) GetCatalog(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"loaded_at": h.snapshot.LoadedAt(),
		"data":      h.snapshot.Items(),
	})
}

// Refresh reloads the snapshot from the database
// POST /api/v1/catalog/refresh
func (h *CatalogHandler) Refresh(c *fiber.Ctx) error {
	if err := h.snapshot.Refresh(c.UserContext()); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to refresh catalog"})
	}
	h.wsHub.Publish(ws.EventCatalogReload, fiber.Map{"items": h.snapshot.Len(), "user": getUserName(c)})
	return c.JSON(fiber.Map{
		"loaded_at": h.snapshot.LoadedAt(),
		"items":     h.snapshot.Len(),
	})
}
