package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"jem-backend/internal/middleware"
	"jem-backend/internal/models"
)

type AuthHandler struct {
	DB   *gorm.DB
	Auth *middleware.Auth
}

func NewAuthHandler(db *gorm.DB, auth *middleware.Auth) *AuthHandler {
	return &AuthHandler{DB: db, Auth: auth}
}

// Login handles staff login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if ok, err := validate(c, req); !ok {
		return err
	}

	// Find user by username
	var user models.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid credentials",
			})
		}
		log.Printf("Database error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	if err := middleware.CheckPassword(req.Password, user.Password); err != nil {
		log.Printf("failed login for %q from %s", user.Username, c.IP())
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	token, err := h.Auth.GenerateJWT(user.ID, user.Role)
	if err != nil {
		log.Printf("Error generating JWT: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error generating authentication token",
		})
	}

	return c.JSON(models.LoginResponse{Token: token, Role: user.Role})
}

// RegisterRequest represents the request body for user registration
type RegisterRequest struct {
	Username string      `json:"username" validate:"required,min=3,max=50"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     models.Role `json:"role" validate:"required,oneof=admin staff"`
}

// Register handles user registration (admin only, enforced by the route)
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	req.Username = strings.TrimSpace(req.Username)
	if ok, err := validate(c, req); !ok {
		return err
	}

	// Check if username already exists
	var n int64
	h.DB.Model(&models.User{}).Where("username = ?", req.Username).Count(&n)
	if n > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Username already exists",
		})
	}

	hashedPassword, err := middleware.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error processing request",
		})
	}

	user := models.User{
		Username: req.Username,
		Password: hashedPassword,
		Role:     req.Role,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		log.Printf("Error creating user: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error creating user",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    toUserResponse(user),
	})
}

// GetProfile returns the current user's profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	userID, _, err := middleware.GetUserFromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		log.Printf("Database error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
	return c.JSON(toUserResponse(user))
}
