package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/campushub/campushub-backend/internal/api/middleware"
	"github.com/campushub/campushub-backend/internal/auth"
)

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Program  string `json:"program"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles user registration
func Register(authService *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		if req.Email == "" || req.Password == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Email and password are required",
			})
		}

		user, err := authService.Register(c.Context(), req.Email, req.Password, req.FullName, req.Program)
		if err != nil {
			if errors.Is(err, auth.ErrEmailTaken) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "Email is already registered",
				})
			}
			if errors.Is(err, auth.ErrPasswordTooShort) || errors.Is(err, auth.ErrPasswordTooWeak) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": err.Error(),
				})
			}
			logrus.WithError(err).Error("registration failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Registration failed",
			})
		}

		return c.Status(fiber.StatusCreated).JSON(user)
	}
}

// Login handles user login and sets the session cookie
func Login(authService *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		if req.Email == "" || req.Password == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Email and password are required",
			})
		}

		user, token, err := authService.Login(c.Context(), req.Email, req.Password)
		if err != nil {
			// Don't reveal which part failed to prevent user enumeration
			if errors.Is(err, auth.ErrInvalidCredentials) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid email or password",
				})
			}
			if errors.Is(err, auth.ErrUserInactive) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": "Account is inactive",
				})
			}
			logrus.WithError(err).Error("login failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Login failed",
			})
		}

		// Set cookie for web clients
		c.Cookie(&fiber.Cookie{
			Name:     "access_token",
			Value:    token,
			Expires:  time.Now().Add(auth.AccessTokenTTL),
			HTTPOnly: true,
			Secure:   true,
			SameSite: "Strict",
		})

		return c.JSON(fiber.Map{
			"user":         user,
			"access_token": token,
			"expires_in":   int(auth.AccessTokenTTL.Seconds()),
		})
	}
}

// Logout clears the session cookie
func Logout() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Cookie(&fiber.Cookie{
			Name:     "access_token",
			Value:    "",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			Secure:   true,
			SameSite: "Strict",
		})

		return c.JSON(fiber.Map{
			"message": "Logged out successfully",
		})
	}
}

// GetCurrentUser returns the authenticated user
func GetCurrentUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userContext := middleware.GetUserContext(c)
		if userContext == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Not authenticated",
			})
		}

		return c.JSON(fiber.Map{
			"id":       userContext.UserID.String(),
			"username": userContext.Username,
			"email":    userContext.Email,
			"plan":     userContext.Plan,
			"program":  userContext.Program,
		})
	}
}
