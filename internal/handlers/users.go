package handlers

import (
	"log"

	"jem-backend/internal/middleware"
	"jem-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UserResponse defines the structure for user data sent to the client
type UserResponse struct {
	ID       uint        `json:"id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Role: u.Role}
}

// UpdateUserRequest defines the structure for updating a user
type UpdateUserRequest struct {
	Username string      `json:"username" validate:"required,min=3,max=50"`
	Password string      `json:"password,omitempty" validate:"omitempty,min=6"` // Password is optional
	Role     models.Role `json:"role" validate:"required,oneof=admin staff"`
}

// GetUsers handles fetching all users
func GetUsers(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := db.Order("username").Find(&users).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch users"})
		}

		response := make([]UserResponse, 0, len(users))
		for _, user := range users {
			response = append(response, toUserResponse(user))
		}
		return c.JSON(response)
	}
}

// UpdateUser handles updating a user's details
func UpdateUser(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
		}

		var req UpdateUserRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
		if ok, err := validate(c, req); !ok {
			return err
		}

		var user models.User
		if err := db.First(&user, id).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}

		var n int64
		db.Model(&models.User{}).Where("username = ? AND id != ?", req.Username, id).Count(&n)
		if n > 0 {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Username already exists"})
		}

		user.Username = req.Username
		user.Role = req.Role

		// If a new password is provided, hash and update it
		if req.Password != "" {
			hashedPassword, err := middleware.HashPassword(req.Password)
			if err != nil {
				log.Printf("Error hashing password: %v", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error processing password"})
			}
			user.Password = hashedPassword
		}

		if err := db.Save(&user).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user"})
		}

		return c.JSON(fiber.Map{"message": "User updated successfully", "user": toUserResponse(user)})
	}
}

// DeleteUser handles deleting a user. Admins cannot delete themselves.
func DeleteUser(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
		}

		if self, _, err := middleware.GetUserFromContext(c); err == nil && self == uint(id) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot delete your own account"})
		}

		result := db.Delete(&models.User{}, id)
		if result.Error != nil {
			log.Printf("Error deleting user: %v", result.Error)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete user"})
		}
		if result.RowsAffected == 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}

		return c.JSON(fiber.Map{"message": "User deleted successfully"})
	}
}
