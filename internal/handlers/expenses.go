package handlers

import (
	"errors"
	"log"
	"time"

	"jem-backend/internal/middleware"
	"jem-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseRequest defines the structure for creating/updating an expense
type ExpenseRequest struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category" validate:"max=50"`
	// Date is YYYY-MM-DD; empty means today.
	Date string `json:"date"`
}

func (r ExpenseRequest) parse(c *fiber.Ctx) (time.Time, bool, error) {
	if ok, err := validate(c, r); !ok {
		return time.Time{}, false, err
	}
	if !r.Amount.IsPositive() {
		return time.Time{}, false, fieldError(c, "amount", "amount must be greater than 0")
	}
	if r.Date == "" {
		y, m, d := time.Now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true, nil
	}
	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return time.Time{}, false, fieldError(c, "date", "date must be in YYYY-MM-DD format")
	}
	return date, true, nil
}

// CreateExpense handles recording a new expense
func CreateExpense(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ExpenseRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
		date, ok, err := req.parse(c)
		if !ok {
			return err
		}

		expense := models.Expense{
			Title:       req.Title,
			Description: req.Description,
			Amount:      req.Amount.Round(2),
			Category:    req.Category,
			Date:        date,
		}
		if userID, _, err := middleware.GetUserFromContext(c); err == nil {
			expense.CreatedByID = &userID
		}

		if err := db.WithContext(c.UserContext()).Create(&expense).Error; err != nil {
			log.Printf("Error creating expense: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create expense"})
		}
		return c.Status(fiber.StatusCreated).JSON(expense)
	}
}

// GetExpenses handles listing expenses, newest first
func GetExpenses(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var expenses []models.Expense
		if err := db.WithContext(c.UserContext()).Order("date desc").Order("id desc").Find(&expenses).Error; err != nil {
			log.Printf("Error fetching expenses: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch expenses"})
		}
		return c.JSON(expenses)
	}
}

// UpdateExpense handles editing an expense
func UpdateExpense(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid expense ID"})
		}

		var req ExpenseRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
		date, ok, err := req.parse(c)
		if !ok {
			return err
		}

		var existing models.Expense
		if err := db.WithContext(c.UserContext()).First(&existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Expense not found"})
			}
			return writeError(c, err, "")
		}

		existing.Title = req.Title
		existing.Description = req.Description
		existing.Amount = req.Amount.Round(2)
		existing.Category = req.Category
		existing.Date = date

		if err := db.WithContext(c.UserContext()).Save(&existing).Error; err != nil {
			log.Printf("Error updating expense: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update expense"})
		}
		return c.JSON(fiber.Map{"message": "Expense updated successfully", "data": existing})
	}
}

// DeleteExpense handles removing an expense
func DeleteExpense(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid expense ID"})
		}

		result := db.WithContext(c.UserContext()).Delete(&models.Expense{}, id)
		if result.Error != nil {
			log.Printf("Error deleting expense: %v", result.Error)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete expense"})
		}
		if result.RowsAffected == 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Expense not found"})
		}
		return c.JSON(fiber.Map{"message": "Expense deleted successfully"})
	}
}
