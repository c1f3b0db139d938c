package handlers

import (
	"errors"
	"log"

	"jem-backend/internal/catalog"
	"jem-backend/internal/orders"
	"jem-backend/internal/validation"
	"jem-backend/internal/wizard"

	"github.com/gofiber/fiber/v2"
)

// writeError maps domain errors to a status and the common error body. step is
// the wizard step the client should show next; empty outside the wizard.
func writeError(c *fiber.Ctx, err error, step wizard.Step) error {
	status := fiber.StatusInternalServerError
	body := fiber.Map{"error": err.Error()}
	if step != "" {
		body["step"] = step
	}

	var (
		ve *orders.ValidationError
		ce *orders.CompositionError
		se *orders.StockError
		fe *fiber.Error
	)
	switch {
	case errors.As(err, &ve):
		status = fiber.StatusBadRequest
		body["details"] = ve.Fields
	case errors.As(err, &ce):
		status = fiber.StatusUnprocessableEntity
	case errors.As(err, &se):
		status = fiber.StatusConflict
		details := make([]fiber.Map, 0, len(se.Shortages))
		for _, s := range se.Shortages {
			details = append(details, fiber.Map{
				"item_id":   s.ItemID,
				"name":      s.Name,
				"requested": s.Requested,
				"available": s.Available,
				"message":   s.String(),
			})
		}
		body["details"] = details
	case errors.Is(err, orders.ErrBundleInactive):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, wizard.ErrWrongStep),
		errors.Is(err, catalog.ErrInUse),
		errors.Is(err, catalog.ErrDuplicate):
		status = fiber.StatusConflict
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, orders.ErrOrderNotFound):
		status = fiber.StatusNotFound
	case errors.As(err, &fe):
		status = fe.Code
		body["error"] = fe.Message
	}

	if status >= fiber.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Method(), c.Path(), err)
		body["error"] = "Internal server error"
	}
	return c.Status(status).JSON(body)
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
}

// validate runs the struct's validate tags and writes a 400 on failure. The
// returned bool reports whether the handler may continue.
func validate(c *fiber.Ctx, req interface{}) (bool, error) {
	if errs := validation.Struct(req); errs != nil {
		return false, writeError(c, &orders.ValidationError{Fields: errs}, "")
	}
	return true, nil
}

func fieldError(c *fiber.Ctx, field, msg string) error {
	return writeError(c, &orders.ValidationError{Fields: []validation.FieldError{{Field: field, Message: msg}}}, "")
}
