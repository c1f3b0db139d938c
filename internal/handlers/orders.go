package handlers

import (
	"bytes"

	"jem-backend/internal/catalog"
	"jem-backend/internal/orders"
	"jem-backend/internal/receipt"

	"github.com/gofiber/fiber/v2"
)

// GetOrders lists committed orders, newest first, with customer and bundle.
func GetOrders(svc *orders.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)
		if limit <= 0 || limit > 200 {
			limit = 50
		}
		offset := c.QueryInt("offset", 0)
		if offset < 0 {
			offset = 0
		}
		list, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, err, "")
		}
		return c.JSON(list)
	}
}

func GetOrder(svc *orders.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		o, err := svc.FindByReference(c.UserContext(), c.Params("ref"))
		if err != nil {
			return writeError(c, err, "")
		}
		return c.JSON(o)
	}
}

// ReceiptPage renders the customer's receipt after checkout.
func ReceiptPage(svc *orders.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		o, err := svc.FindByReference(c.UserContext(), c.Params("ref"))
		if err != nil {
			return writeError(c, err, "")
		}
		return c.Render("receipt", fiber.Map{
			"Title":   "Your receipt",
			"Receipt": receipt.NewView(o),
		}, "layouts/main")
	}
}

func ReceiptPDF(svc *orders.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		o, err := svc.FindByReference(c.UserContext(), c.Params("ref"))
		if err != nil {
			return writeError(c, err, "")
		}
		var buf bytes.Buffer
		if err := receipt.WritePDF(&buf, o); err != nil {
			return writeError(c, err, "")
		}
		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, `inline; filename="`+receipt.Filename(o)+`"`)
		return c.Send(buf.Bytes())
	}
}

// Home renders the storefront landing page.
func Home(store *catalog.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bundles, err := store.ListBundles(c.UserContext(), true)
		if err != nil {
			return writeError(c, err, "")
		}
		return c.Render("home", fiber.Map{
			"Title":   "J.E.M Snack Bundles",
			"Bundles": bundles,
		}, "layouts/main")
	}
}
