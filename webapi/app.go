// Package webapi exposes the read-only operational surface: health,
// ledger stats and the current rate table. The exchange conversation
// itself runs over the bot transport, not here.
package webapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"github.com/Pelmeshek11/FlipEx/pkg/oracle"
	exchangerepo "github.com/Pelmeshek11/FlipEx/pkg/repository/exchange"
)

// Deps are the collaborators the web surface reads from.
type Deps struct {
	DB     *gorm.DB
	Oracle *oracle.Oracle
	Ledger exchangerepo.Repository
}

// NewApp builds the fiber app with all routes registered.
func NewApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			}
			return ErrorResponseJSON(c, status, "Internal Server Error", err.Error())
		},
	})

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return ErrorResponseJSON(c, fiber.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded")
		},
	}))
	app.Use(recover.New())

	app.Get("/healthz", HealthHandler(deps.DB))
	app.Get("/api/stats", StatsHandler(deps.Ledger))
	app.Get("/api/rates", RatesHandler(deps.Oracle))

	return app
}
