package handlers

import (
	"jem-backend/internal/reports"

	"github.com/gofiber/fiber/v2"
)

func reportRange(c *fiber.Ctx) (reports.Range, error) {
	return reports.ParseRange(c.Query("start_date"), c.Query("end_date"))
}

// GetSummary serves the dashboard: sales totals, stock levels and recent orders.
func GetSummary(svc *reports.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := reportRange(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		sum, err := svc.Summary(c.UserContext(), r)
		if err != nil {
			return writeError(c, err, "")
		}
		return c.JSON(sum)
	}
}

// GetAccounting compares revenue with expenses over the requested period.
func GetAccounting(svc *reports.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := reportRange(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		acc, err := svc.Accounting(c.UserContext(), r)
		if err != nil {
			return writeError(c, err, "")
		}
		return c.JSON(acc)
	}
}
