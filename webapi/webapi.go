// Package webapi exposes the expense tracker over HTTP. It is organized into
// sub-packages per concern:
// - session: sign in and sign out of the single device session
// - record: records, totals, bulk sync and CSV export
// - category: built-in categories and note parsing
// - notification: the signed-in user's notification feed
package webapi

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/app"
	categoryweb "github.com/nNEWBE/expense-tracker-sub000/webapi/category"
	"github.com/nNEWBE/expense-tracker-sub000/webapi/common"
	notificationweb "github.com/nNEWBE/expense-tracker-sub000/webapi/notification"
	recordweb "github.com/nNEWBE/expense-tracker-sub000/webapi/record"
	sessionweb "github.com/nNEWBE/expense-tracker-sub000/webapi/session"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(a *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})

	if rl := a.Config.RateLimit; rl != nil && rl.MaxRequests > 0 {
		fiberApp.Use(limiter.New(limiter.Config{
			Max:          rl.MaxRequests,
			Expiration:   rl.Window,
			KeyGenerator: clientKey,
			LimitReached: func(c *fiber.Ctx) error {
				return common.ProblemDetailsJSON(
					c,
					"Too Many Requests",
					errors.New("rate limit exceeded"),
					fiber.StatusTooManyRequests,
				)
			},
		}))
	}
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	// Health check endpoint
	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Expense tracker API is running")
	})

	sessionweb.Routes(fiberApp, a)
	recordweb.Routes(fiberApp, a.Records, a.Budget, a.Config.Budget.CurrencySymbol)
	categoryweb.Routes(fiberApp)
	notificationweb.Routes(fiberApp, a.Notifications)
	return fiberApp
}

// clientKey prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// peer address.
func clientKey(c *fiber.Ctx) string {
	if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
		if i := strings.Index(forwardedFor, ","); i != -1 {
			return strings.TrimSpace(forwardedFor[:i])
		}
		return strings.TrimSpace(forwardedFor)
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.IP()
}
