package main

import (
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/campushub/campushub-backend/internal/api"
	"github.com/campushub/campushub-backend/internal/auth"
	"github.com/campushub/campushub-backend/internal/config"
	"github.com/campushub/campushub-backend/internal/database"
	"github.com/campushub/campushub-backend/internal/providers/openai"
	"github.com/campushub/campushub-backend/internal/repository/postgres"
	"github.com/campushub/campushub-backend/internal/search"
	"github.com/campushub/campushub-backend/internal/services"
)

func main() {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	if err := database.Migrate(cfg.Database); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "CampusHub Backend",
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     getOrigins(),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Initialize repositories
	conversationRepo := postgres.NewConversationRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	usageRepo := postgres.NewTokenUsageRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// Initialize auth service
	jwtSecret := os.Getenv("CAMPUSHUB_JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "change-me-in-production" // Default for development
		log.Warn("Using default JWT secret. Set CAMPUSHUB_JWT_SECRET in production!")
	}
	authService := auth.NewService(userRepo, jwtSecret)

	// Initialize the completion provider
	provider, err := openai.NewProvider(cfg.LLM)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize completion provider")
	}

	// Initialize the search client
	searchClient := search.NewClient(cfg.Search)

	// Initialize services
	svc := services.NewServices(cfg, provider, searchClient, conversationRepo, messageRepo, usageRepo, userRepo)

	// Setup routes
	api.SetupRoutes(app, svc, authService)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.WithField("addr", addr).Info("CampusHub Backend starting")
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}

func getOrigins() string {
	origins := os.Getenv("CAMPUSHUB_CORS_ORIGINS")
	if origins == "" {
		return "http://localhost:5173,http://localhost:3000"
	}
	return origins
}
