package handlers

import (
	"errors"
	"log"

	"jem-backend/internal/catalog"
	"jem-backend/internal/media"
	"jem-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ItemRequest defines the structure for creating/updating a catalog item
type ItemRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Category    models.Category `json:"category" validate:"omitempty,oneof=snack juice"`
	CostPerBag  decimal.Decimal `json:"cost_per_bag"`
	UnitsPerBag int             `json:"units_per_bag" validate:"gte=1"`
	SellPrice   decimal.Decimal `json:"sell_price"`
	// CurrentStock is only read on create; later changes go through stock-in.
	CurrentStock int  `json:"current_stock" validate:"gte=0"`
	IsSpicy      bool `json:"is_spicy"`
}

func (r ItemRequest) check(c *fiber.Ctx) (bool, error) {
	if ok, err := validate(c, r); !ok {
		return false, err
	}
	if r.CostPerBag.IsNegative() {
		return false, fieldError(c, "cost_per_bag", "cost per bag must be at least 0")
	}
	if !r.SellPrice.IsPositive() {
		return false, fieldError(c, "sell_price", "sell price must be greater than 0")
	}
	return true, nil
}

// ListPublicItems lists in-stock items for the storefront, optionally by category.
func ListPublicItems(store *catalog.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := catalog.ItemFilter{InStockOnly: true}
		if cat := c.Query("category"); cat != "" {
			f.Category = models.Category(cat)
			if !f.Category.Valid() {
				return fieldError(c, "category", "category must be one of: snack juice")
			}
		}
		items, err := store.ListItems(c.UserContext(), f)
		if err != nil {
			return writeError(c, err, "")
		}
		return c.JSON(items)
	}
}

// GetItems handles fetching the whole catalog for staff
func GetItems(store *catalog.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := catalog.ItemFilter{Category: models.Category(c.Query("category"))}
		items, err := store.ListItems(c.UserContext(), f)
		if err != nil {
			return writeError(c, err, "")
		}
		return c.JSON(items)
	}
}

// CreateItem handles creating a new catalog item
func CreateItem(store *catalog.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ItemRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
		if req.UnitsPerBag == 0 {
			req.UnitsPerBag = 1
		}
		if ok, err := req.check(c); !ok {
			return err
		}
		if req.Category == "" {
			return fieldError(c, "category", "category is required")
		}

		item := models.Item{
			Name:         req.Name,
			Category:     req.Category,
			CostPerBag:   req.CostPerBag,
			UnitsPerBag:  req.UnitsPerBag,
			SellPrice:    req.SellPrice,
			CurrentStock: req.CurrentStock,
			IsSpicy:      req.IsSpicy,
		}
		if err := store.CreateItem(c.UserContext(), &item); err != nil {
			return writeError(c, err, "")
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

// UpdateItem handles updating an existing item. Category and stock are not editable here.
func UpdateItem(store *catalog.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item ID"})
		}

		var req ItemRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
		if req.UnitsPerBag == 0 {
			req.UnitsPerBag = 1
		}
		if ok, err := req.check(c); !ok {
			return err
		}

		item, err := store.GetItem(c.UserContext(), uint(id))
		if err != nil {
			return writeError(c, err, "")
		}
		item.Name = req.Name
		item.CostPerBag = req.CostPerBag
		item.UnitsPerBag = req.UnitsPerBag
		item.SellPrice = req.SellPrice
		item.IsSpicy = req.IsSpicy

		if err := store.SaveItem(c.UserContext(), item); err != nil {
			return writeError(c, err, "")
		}
		return c.JSON(item)
	}
}

// DeleteItem handles deleting an item that no order references
func DeleteItem(store *catalog.Store, images *media.Images) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item ID"})
		}
		item, err := store.GetItem(c.UserContext(), uint(id))
		if err != nil {
			return writeError(c, err, "")
		}
		if err := store.DeleteItem(c.UserContext(), item.ID); err != nil {
			return writeError(c, err, "")
		}
		if item.ImagePath != "" {
			images.Remove(item.ImagePath)
		}
		return c.JSON(fiber.Map{"message": "Item deleted successfully"})
	}
}

type StockInRequest struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

// StockIn records a delivery: the quantity is added to the item's stock.
func StockIn(store *catalog.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item ID"})
		}
		var req StockInRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
		if ok, err := validate(c, req); !ok {
			return err
		}

		item, err := store.AddStock(c.UserContext(), uint(id), req.Quantity)
		if err != nil {
			return writeError(c, err, "")
		}
		log.Printf("stock in: item %d +%d -> %d", item.ID, req.Quantity, item.CurrentStock)
		return c.JSON(item)
	}
}

// UploadItemImage replaces an item's photo with the multipart file "image".
func UploadItemImage(store *catalog.Store, images *media.Images) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item ID"})
		}
		item, err := store.GetItem(c.UserContext(), uint(id))
		if err != nil {
			return writeError(c, err, "")
		}

		file, err := c.FormFile("image")
		if err != nil {
			return fieldError(c, "image", "image file is required")
		}
		src, err := file.Open()
		if err != nil {
			return writeError(c, err, "")
		}
		defer src.Close()

		path, err := images.SaveItemImage(src)
		if errors.Is(err, media.ErrTooLarge) {
			return fieldError(c, "image", "image dimensions are too large")
		}
		if err != nil {
			return fieldError(c, "image", "image could not be read")
		}
		if err := store.SetImage(c.UserContext(), item.ID, path); err != nil {
			images.Remove(path)
			return writeError(c, err, "")
		}
		if item.ImagePath != "" {
			images.Remove(item.ImagePath)
		}
		item.ImagePath = path
		return c.JSON(item)
	}
}
