package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/campushub/campushub-backend/internal/api/handlers"
	"github.com/campushub/campushub-backend/internal/api/middleware"
	"github.com/campushub/campushub-backend/internal/auth"
	"github.com/campushub/campushub-backend/internal/services"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, svc *services.Services, authService *auth.Service) {
	api := app.Group("/api/v1")

	// Public routes
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "campushub-backend",
		})
	})

	authGroup := api.Group("/auth")
	authGroup.Post("/register", middleware.AuthRateLimit(), handlers.Register(authService))
	authGroup.Post("/login", middleware.AuthRateLimit(), handlers.Login(authService))

	// Protected routes
	protected := api.Group("", middleware.AuthRequired(authService))

	protected.Post("/auth/logout", handlers.Logout())
	protected.Get("/auth/me", handlers.GetCurrentUser())

	// Chat endpoints
	protected.Post("/chat", middleware.ChatRateLimit(), handlers.PostChat(svc))
	protected.Get("/chat", handlers.GetChatHistory(svc))
}
