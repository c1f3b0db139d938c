package handlers

import (
	"jem-backend/internal/catalog"
	"jem-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type BundleRequest struct {
	Name           string `json:"name" validate:"required,max=100"`
	Description    string `json:"description" validate:"max=500"`
	RequiredSnacks int    `json:"required_snacks" validate:"gte=0,lte=50"`
	RequiredJuices int    `json:"required_juices" validate:"gte=0,lte=50"`
	// IsActive defaults to true when omitted.
	IsActive *bool `json:"is_active"`
}

func (r BundleRequest) check(c *fiber.Ctx) (bool, error) {
	if ok, err := validate(c, r); !ok {
		return false, err
	}
	if r.RequiredSnacks+r.RequiredJuices == 0 {
		return false, fieldError(c, "required_snacks", "a bundle needs at least one snack or juice")
	}
	return true, nil
}

// ListActiveBundles serves the storefront's bundle list.
func ListActiveBundles(store *catalog.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bundles, err := store.ListBundles(c.UserContext(), true)
		if err != nil {
			return writeError(c, err, "")
		}
		return c.JSON(bundles)
	}
}

func GetBundles(store *catalog.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bundles, err := store.ListBundles(c.UserContext(), false)
		if err != nil {
			return writeError(c, err, "")
		}
		return c.JSON(bundles)
	}
}

func CreateBundle(store *catalog.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req BundleRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
		if ok, err := req.check(c); !ok {
			return err
		}

		b := models.BundleType{
			Name:           req.Name,
			Description:    req.Description,
			RequiredSnacks: req.RequiredSnacks,
			RequiredJuices: req.RequiredJuices,
			IsActive:       req.IsActive == nil || *req.IsActive,
		}
		if err := store.CreateBundle(c.UserContext(), &b); err != nil {
			return writeError(c, err, "")
		}
		return c.Status(fiber.StatusCreated).JSON(b)
	}
}

// UpdateBundle edits a bundle type. Counts cannot change once it has been ordered.
func UpdateBundle(store *catalog.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid bundle ID"})
		}
		var req BundleRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
		if ok, err := req.check(c); !ok {
			return err
		}

		b, err := store.GetBundle(c.UserContext(), uint(id))
		if err != nil {
			return writeError(c, err, "")
		}
		b.Name = req.Name
		b.Description = req.Description
		b.RequiredSnacks = req.RequiredSnacks
		b.RequiredJuices = req.RequiredJuices
		if req.IsActive != nil {
			b.IsActive = *req.IsActive
		}
		if err := store.SaveBundle(c.UserContext(), b); err != nil {
			return writeError(c, err, "")
		}
		return c.JSON(b)
	}
}

func DeleteBundle(store *catalog.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid bundle ID"})
		}
		if err := store.DeleteBundle(c.UserContext(), uint(id)); err != nil {
			return writeError(c, err, "")
		}
		return c.JSON(fiber.Map{"message": "Bundle type deleted successfully"})
	}
}
