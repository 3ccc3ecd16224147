package handler

import (
	"go-pos-checkout/internal/service"

	"github.com/gofiber/fiber/v2"
)

type RegisterHandler struct {
	register *service.RegisterService
}

func NewRegisterHandler(r *service.RegisterService) *RegisterHandler {
	return &RegisterHandler{register: r}
}

type adjustRequest struct {
	Delta int `json:"delta"`
}

func (h *RegisterHandler) session(c *fiber.Ctx) (*service.RegisterSession, error) {
	return h.register.Lookup(getSessionID(c), getActor(c))
}

// GetCart returns the priced cart
// GET /api/v1/register/cart
func (h *RegisterHandler) GetCart(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sess.Cart())
}

// AddItem adds one unit
// POST /api/v1/register/cart/items/:id
func (h *RegisterHandler) AddItem(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	sess, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	pending, err := sess.Add(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pending)
}

// AdjustItem changes a line by delta
// PATCH /api/v1/register/cart/items/:id
func (h *RegisterHandler) AdjustItem(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	var req adjustRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	sess, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	pending, err := sess.Adjust(id, req.Delta)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pending)
}

// RemoveItem drops a line
// DELETE /api/v1/register/cart/items/:id
func (h *RegisterHandler) RemoveItem(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	sess, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sess.Remove(id))
}

// ClearCart empties the cart
// DELETE /api/v1/register/cart
func (h *RegisterHandler) ClearCart(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sess.Clear())
}

// BeginCheckout opens the payment dialog for the current total
// POST /api/v1/register/checkout
func (h *RegisterHandler) BeginCheckout(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	view, err := sess.BeginCheckout()
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(view)
}

// GetCheckout returns the open payment dialog
// GET /api/v1/register/checkout
func (h *RegisterHandler) GetCheckout(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	view, ok := sess.Payment()
	if !ok {
		return c.Status(404).JSON(fiber.Map{"error": service.ErrNoCheckout.Error()})
	}
	return c.JSON(view)
}

// UpdatePayment sets method, tender or reference
// PATCH /api/v1/register/checkout/payment
func (h *RegisterHandler) UpdatePayment(c *fiber.Ctx) error {
	var req service.PaymentUpdate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	sess, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	view, err := sess.UpdatePayment(req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// ConfirmPayment locks in the payment details
// POST /api/v1/register/checkout/confirm
func (h *RegisterHandler) ConfirmPayment(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	details, err := sess.ConfirmPayment()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(details)
}

// CancelCheckout abandons the payment dialog and keeps the cart
// DELETE /api/v1/register/checkout
func (h *RegisterHandler) CancelCheckout(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	sess.CancelCheckout()
	return c.JSON(fiber.Map{"message": "Checkout cancelled"})
}

// Commit persists the sale and returns the receipt
// POST /api/v1/register/checkout/commit
func (h *RegisterHandler) Commit(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	receipt, err := sess.Commit(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(receipt)
}
