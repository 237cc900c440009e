// Package session serves the device session: issuing tokens, signing in
// with one and signing out.
package session

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/app"
	"github.com/nNEWBE/expense-tracker-sub000/webapi/common"
)

// Routes registers the /session endpoints.
func Routes(fiberApp *fiber.App, a *app.App) {
	g := fiberApp.Group("/session")
	g.Get("/", Status(a))
	g.Post("/", SignIn(a))
	g.Delete("/", SignOut(a))
	g.Post("/token", IssueToken(a))
}

// Status reports whether a user is signed in and which store is
// authoritative for reads.
func Status(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := a.Session.CurrentUserID(c.UserContext())
		resp := StatusResponse{SignedIn: ok, UserID: userID, Source: "local"}
		if a.Records.IsAuthoritativeSourceRemote(c.UserContext()) {
			resp.Source = "remote"
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Session status", resp)
	}
}

// SignIn authenticates the token and starts the session.
func SignIn(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, _ := common.BindAndValidate[SignInRequest](c)
		if input == nil {
			return nil // error response already written
		}
		userID, err := a.SignInWithToken(c.UserContext(), input.Token)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Sign in failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Signed in", StatusResponse{
			SignedIn: true,
			UserID:   userID,
			Source:   "remote",
		})
	}
}

// SignOut ends the session. Signing out twice is not an error.
func SignOut(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a.SignOut()
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Signed out", StatusResponse{Source: "local"})
	}
}

// IssueToken signs a token for a user id. It stands in for the identity
// provider on a single-user device.
func IssueToken(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, _ := common.BindAndValidate[TokenRequest](c)
		if input == nil {
			return nil // error response already written
		}
		if a.Deps.Strategy == nil {
			return common.ProblemDetailsJSON(c, "Token issuing disabled",
				errors.New("no token strategy configured"), fiber.StatusServiceUnavailable)
		}
		token, err := a.Deps.Strategy.GenerateToken(input.UserID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to issue token", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Token issued", TokenResponse{Token: token})
	}
}
