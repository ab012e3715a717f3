package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/matthew-r-clark/crm-donor-duplicates/internal/config"
	"github.com/matthew-r-clark/crm-donor-duplicates/internal/db"
	"github.com/matthew-r-clark/crm-donor-duplicates/internal/donor"
	"github.com/matthew-r-clark/crm-donor-duplicates/internal/logging"
	"github.com/matthew-r-clark/crm-donor-duplicates/internal/session"
	"github.com/matthew-r-clark/crm-donor-duplicates/internal/user"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Logging)

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("could not connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Bootstrap(database); err != nil {
		logger.Error("schema bootstrap failed", "error", err)
		os.Exit(1)
	}

	store := db.NewStore(database, logger)
	sessions := session.NewManager(session.NewSecret(cfg.SessionSecret))

	app := fiber.New()
	setupCORS(app)
	app.Use(requestLogger(logger))

	userRepo := user.NewPostgresRepository(store)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService, sessions)

	donorRepo := donor.NewPostgresRepository(store)
	donorService := donor.NewService(donorRepo)
	donorHandler := donor.NewHandler(donorService)

	userHandler.RegisterPublicRoutes(app)

	app.Use(sessions.Middleware())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/user", fiber.StatusSeeOther)
	})
	userHandler.RegisterProtectedRoutes(app)
	donorHandler.RegisterProtectedRoutes(app)

	admin := app.Group("", session.RequireAdmin)
	userHandler.RegisterAdminRoutes(admin)
	donorHandler.RegisterAdminRoutes(admin)

	app.Use(notFound)

	logger.Info("listening", "addr", cfg.Addr)
	if err := app.Listen(cfg.Addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
}

func requestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Debug("request",
			"method", c.Method(),
			"path", c.OriginalURL(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start),
		)
		return err
	}
}

func notFound(c *fiber.Ctx) error {
	session.Flash(c, "The page you requested does not exist.")
	return c.Redirect("/", fiber.StatusSeeOther)
}
