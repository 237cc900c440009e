// Package notification serves the signed-in user's notification feed.
// Every endpoint answers with an empty result when nobody is signed in.
package notification

import (
	"github.com/gofiber/fiber/v2"
	notificationsvc "github.com/nNEWBE/expense-tracker-sub000/pkg/service/notification"
	"github.com/nNEWBE/expense-tracker-sub000/webapi/common"
)

func Routes(app *fiber.App, svc *notificationsvc.Service) {
	g := app.Group("/notifications")
	g.Get("/", List(svc))
	g.Get("/unread-count", UnreadCount(svc))
	g.Post("/read-all", MarkAllRead(svc))
	g.Post("/:id/read", MarkRead(svc))
	g.Delete("/", DeleteAll(svc))
	g.Delete("/:id", DeleteOne(svc))
}

// List returns notifications newest first.
func List(svc *notificationsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := svc.ListAll(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list notifications", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Notifications fetched successfully", list)
	}
}

func UnreadCount(svc *notificationsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := svc.UnreadCount(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to count notifications", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Unread count", fiber.Map{"unread": n})
	}
}

func MarkRead(svc *notificationsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.MarkRead(c.UserContext(), c.Params("id")); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to mark notification read", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func MarkAllRead(svc *notificationsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.MarkAllRead(c.UserContext()); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to mark notifications read", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func DeleteOne(svc *notificationsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.DeleteOne(c.UserContext(), c.Params("id")); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to delete notification", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func DeleteAll(svc *notificationsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.DeleteAll(c.UserContext()); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to delete notifications", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
