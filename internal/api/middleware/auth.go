package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/campushub/campushub-backend/internal/auth"
	"github.com/campushub/campushub-backend/internal/models"
)

// AuthRequired creates a middleware that requires a valid session. The token
// is read from the access_token cookie (web clients) or a bearer header.
func AuthRequired(authService *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := auth.ExtractTokenFromBearer(c.Get("Authorization"))
		if token == "" {
			token = c.Cookies("access_token")
		}

		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		user, _, err := authService.ValidateAccessToken(c.Context(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		storeUserContext(c, user)
		return c.Next()
	}
}

// storeUserContext stores user information in the fiber context
func storeUserContext(c *fiber.Ctx, user *models.User) {
	c.Locals("user_id", user.ID.String())
	c.Locals("user_context", &models.UserContext{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Plan:     user.Plan,
		Program:  user.Program,
	})
}

// GetUserContext retrieves the user context from the fiber context
func GetUserContext(c *fiber.Ctx) *models.UserContext {
	if ctx := c.Locals("user_context"); ctx != nil {
		if userContext, ok := ctx.(*models.UserContext); ok {
			return userContext
		}
	}
	return nil
}

// GetUserID retrieves the user ID from the fiber context
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	if userID := c.Locals("user_id"); userID != nil {
		if id, ok := userID.(string); ok {
			return uuid.Parse(id)
		}
	}
	return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "User not authenticated")
}
