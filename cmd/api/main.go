package main

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/matthew-r-clark/crm-donor-duplicates/internal/config"
	"github.com/matthew-r-clark/crm-donor-duplicates/internal/donor"
	"github.com/matthew-r-clark/crm-donor-duplicates/internal/logging"
	"github.com/matthew-r-clark/crm-donor-duplicates/internal/session"
	"github.com/matthew-r-clark/crm-donor-duplicates/internal/user"
)

// main runs the app against in-memory repositories, for local work without
// a database. Seed passwords are stored unhashed, mimicking legacy rows, so
// signin goes through the plaintext fallback.
func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Logging)

	seedUsers := []user.User{
		{ID: 1, FirstName: "Ada", LastName: "Admin", Email: "admin@example.com", Active: true, Admin: true, Password: "admin"},
		{ID: 2, FirstName: "Riley", LastName: "Member", Email: "riley@example.com", Active: true, Password: "password"},
	}
	seedDonors := []donor.Donor{
		{ID: 1, FirstName: "Bob", LastName: "Smith", AltNames: []string{"Robert"}},
		{ID: 2, FirstName: "Margaret", LastName: "Jones", AltNames: []string{"Peggy", "Meg"}},
	}
	userNames := map[int]string{1: "Ada A", 2: "Riley M"}

	userRepo := user.NewInMemoryRepository(seedUsers)
	userService := user.NewService(userRepo)

	donorRepo := donor.NewInMemoryRepository(seedDonors, userNames)
	donorService := donor.NewService(donorRepo)
	for _, d := range seedDonors {
		_ = donorRepo.Link(d.ID, 2, "friend")
	}

	sessions := session.NewManager(session.NewSecret(cfg.SessionSecret))
	userHandler := user.NewHandler(userService, sessions)
	donorHandler := donor.NewHandler(donorService)

	app := fiber.New()
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

	app.Use(func(c *fiber.Ctx) error {
		session.Flash(c, "The page you requested does not exist.")
		return c.Redirect("/", fiber.StatusSeeOther)
	})

	logger.Info("dev server listening", "addr", cfg.Addr)
	if err := app.Listen(cfg.Addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
