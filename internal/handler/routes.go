package handler

import (
	"go-pos-checkout/internal/middleware"
	"go-pos-checkout/internal/model"
	"go-pos-checkout/internal/repository"
	"go-pos-checkout/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// Handlers groups every HTTP handler the API mounts.
type Handlers struct {
	Auth      *AuthHandler
	Catalog   *CatalogHandler
	Register  *RegisterHandler
	Inventory *InventoryHandler
	Dashboard *DashboardHandler
	User      *UserHandler
}

// RegisterRoutes mounts the /api/v1 tree and the websocket feed.
func RegisterRoutes(app *fiber.App, h Handlers, userRepo repository.UserRepository, wsHub *ws.Hub) {
	api := app.Group("/api/v1")
	auth := middleware.RequireAuth(userRepo)
	priv := middleware.RequirePrivilege

	// ============ PUBLIC ROUTES ============
	api.Post("/auth/login", h.Auth.Login)
	api.Post("/auth/validate-token", h.Auth.ValidateToken)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", auth)
	protected.Post("/auth/logout", h.Auth.Logout)
	protected.Post("/auth/change-password", h.Auth.ChangePassword)

	// Catalog snapshot
	protected.Get("/catalog", priv(model.PrivRegister), h.Catalog.GetCatalog)
	protected.Post("/catalog/refresh", priv(model.PrivRegister), h.Catalog.Refresh)

	// Register: cart and checkout for the caller's session
	register := protected.Group("/register", priv(model.PrivRegister))
	register.Get("/cart", h.Register.GetCart)
	register.Delete("/cart", h.Register.ClearCart)
	register.Post("/cart/items/:id", h.Register.AddItem)
	register.Patch("/cart/items/:id", h.Register.AdjustItem)
	register.Delete("/cart/items/:id", h.Register.RemoveItem)
	register.Post("/checkout", h.Register.BeginCheckout)
	register.Get("/checkout", h.Register.GetCheckout)
	register.Delete("/checkout", h.Register.CancelCheckout)
	register.Patch("/checkout/payment", h.Register.UpdatePayment)
	register.Post("/checkout/confirm", h.Register.ConfirmPayment)
	register.Post("/checkout/commit", h.Register.Commit)

	// Inventory
	protected.Get("/products", priv(model.PrivInventoryView), h.Inventory.GetProducts)
	protected.Get("/products/:id", priv(model.PrivInventoryView), h.Inventory.GetProduct)
	protected.Post("/products", priv(model.PrivInventoryEdit), h.Inventory.CreateProduct)
	protected.Put("/products/:id", priv(model.PrivInventoryEdit), h.Inventory.UpdateProduct)
	protected.Delete("/products/:id", priv(model.PrivInventoryEdit), h.Inventory.DeleteProduct)
	protected.Get("/perishables", priv(model.PrivInventoryView), h.Inventory.GetPerishables)
	protected.Get("/audit-logs", priv(model.PrivAuditView), h.Inventory.GetAuditLogs)

	// Dashboard
	protected.Get("/dashboard/stats", priv(model.PrivReportView), h.Dashboard.GetDashboardStats)
	protected.Get("/dashboard/recent-sales", priv(model.PrivReportView), h.Dashboard.GetRecentSales)
	protected.Get("/dashboard/top-products", priv(model.PrivReportView), h.Dashboard.GetTopProducts)
	protected.Get("/dashboard/sales-movement", priv(model.PrivReportView), h.Dashboard.GetSalesMovement)

	// User management
	protected.Get("/users", priv(model.PrivUserManage), h.User.GetUsers)
	protected.Post("/users", priv(model.PrivUserManage), h.User.CreateUser)
	protected.Delete("/users/:id", priv(model.PrivUserManage), h.User.DeleteUser)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
