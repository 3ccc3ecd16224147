package handler

import (
	"errors"
	"strconv"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/cart"
	"go-pos-checkout/internal/payment"
	"go-pos-checkout/internal/service"
	"go-pos-checkout/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// respondError maps an error's kind to a status code. Store failures never
// leak their cause to the client.
func respondError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrRegisterClosed) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Session expired (logged in on another device)"})
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		body := fiber.Map{"error": err.Error()}
		var ceiling *cart.StockCeilingError
		if errors.As(err, &ceiling) {
			body["stock"] = ceiling.Stock
		}
		var short *payment.InsufficientTenderError
		if errors.As(err, &short) {
			body["change"] = short.Change()
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case apperr.KindNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		if errors.Is(err, service.ErrStockConflict) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "transaction failed", "reason": service.ErrStockConflict.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "transaction failed"})
	}
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

func getUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("user_id").(uint)
	return id
}

func getUserName(c *fiber.Ctx) string {
	name, ok := c.Locals("user_name").(string)
	if !ok {
		return "Unknown"
	}
	return name
}

// getActor returns the "name (Role)" label written to sales and audit rows.
func getActor(c *fiber.Ctx) string {
	display, ok := c.Locals("user_display").(string)
	if !ok {
		return getUserName(c)
	}
	return display
}

func getSessionID(c *fiber.Ctx) string {
	id, _ := c.Locals("session_id").(string)
	return id
}

func getClaims(c *fiber.Ctx) *jwt.Claims {
	claims, _ := c.Locals("claims").(*jwt.Claims)
	return claims
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}
