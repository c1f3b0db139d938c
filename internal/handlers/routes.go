package handlers

import (
	"jem-backend/internal/catalog"
	"jem-backend/internal/media"
	"jem-backend/internal/middleware"
	"jem-backend/internal/models"
	"jem-backend/internal/orders"
	"jem-backend/internal/reports"
	"jem-backend/internal/wizard"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"gorm.io/gorm"
)

// Deps are the services the HTTP layer needs.
type Deps struct {
	DB           *gorm.DB
	Catalog      *catalog.Store
	Orders       *orders.Service
	Wizard       *wizard.Wizard
	Reports      *reports.Service
	Sessions     *session.Store
	Auth         *middleware.Auth
	LoginLimiter *middleware.RateLimiter
	Images       *media.Images
}

// Register mounts every route on app.
func Register(app *fiber.App, d Deps) {
	app.Get("/", Home(d.Catalog))
	app.Get("/orders/:ref/receipt", ReceiptPage(d.Orders))
	app.Get("/orders/:ref/receipt.pdf", ReceiptPDF(d.Orders))

	api := app.Group("/api/v1")

	// === PUBLIC ROUTES ===
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "Running", "message": "API Ready"})
	})
	api.Get("/bundles", ListActiveBundles(d.Catalog))
	api.Get("/items", ListPublicItems(d.Catalog))

	// === ORDER WIZARD (session cookie) ===
	oh := NewOrderHandler(d.Wizard, d.Sessions)
	order := api.Group("/order")
	order.Get("", oh.Get)
	order.Delete("", oh.Reset)
	order.Post("/bundle", oh.SelectBundle)
	order.Post("/snacks", oh.SelectSnacks)
	order.Post("/juices", oh.SelectJuices)
	order.Post("/:category/autofill", oh.Autofill)
	order.Post("/confirm", oh.Confirm)

	// === STAFF ROUTES (JWT) ===
	authHandler := NewAuthHandler(d.DB, d.Auth)
	admin := api.Group("/admin")
	admin.Post("/login", d.LoginLimiter.Limit(), authHandler.Login)

	staff := admin.Group("", d.Auth.JWTProtected(), middleware.RoleProtected(models.RoleAdmin, models.RoleStaff))
	staff.Get("/me", authHandler.GetProfile)

	staff.Get("/items", GetItems(d.Catalog))
	staff.Post("/items", CreateItem(d.Catalog))
	staff.Put("/items/:id", UpdateItem(d.Catalog))
	staff.Delete("/items/:id", DeleteItem(d.Catalog, d.Images))
	staff.Post("/items/:id/stock-in", StockIn(d.Catalog))
	staff.Post("/items/:id/image", UploadItemImage(d.Catalog, d.Images))

	staff.Get("/bundles", GetBundles(d.Catalog))
	staff.Post("/bundles", CreateBundle(d.Catalog))
	staff.Put("/bundles/:id", UpdateBundle(d.Catalog))
	staff.Delete("/bundles/:id", DeleteBundle(d.Catalog))

	staff.Get("/orders", GetOrders(d.Orders))
	staff.Get("/orders/:ref", GetOrder(d.Orders))

	staff.Get("/reports/summary", GetSummary(d.Reports))
	staff.Get("/reports/accounting", GetAccounting(d.Reports))

	staff.Get("/expenses", GetExpenses(d.DB))
	staff.Post("/expenses", CreateExpense(d.DB))
	staff.Put("/expenses/:id", UpdateExpense(d.DB))
	staff.Delete("/expenses/:id", DeleteExpense(d.DB))

	users := staff.Group("/users", middleware.RoleProtected(models.RoleAdmin))
	users.Get("", GetUsers(d.DB))
	users.Post("", authHandler.Register)
	users.Put("/:id", UpdateUser(d.DB))
	users.Delete("/:id", DeleteUser(d.DB))
}
