// Package category serves the built-in category lists and quick-add note
// parsing.
package category

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/category"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	"github.com/nNEWBE/expense-tracker-sub000/webapi/common"
	"github.com/shopspring/decimal"
)

// DetectRequest carries free text such as "lunch 250".
type DetectRequest struct {
	Note string `json:"note" validate:"required,max=512"`
}

// DetectResponse is the parsed suggestion. Amount is zero when the note has
// no number.
type DetectResponse struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

func Routes(app *fiber.App) {
	g := app.Group("/categories")
	g.Get("/", ListCategories())
	g.Post("/detect", DetectCategory())
}

// ListCategories returns the defaults for ?kind=expense|income, or both
// lists keyed by kind when kind is omitted.
func ListCategories() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if q := c.Query("kind"); q != "" {
			kind, err := record.ParseKind(q)
			if err != nil {
				return common.ProblemDetailsJSON(c, "Invalid kind", err)
			}
			return common.SuccessResponseJSON(c, fiber.StatusOK, "Categories fetched successfully", category.Defaults(kind))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Categories fetched successfully", map[record.Kind][]string{
			record.Expense: category.Defaults(record.Expense),
			record.Income:  category.Defaults(record.Income),
		})
	}
}

func DetectCategory() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, _ := common.BindAndValidate[DetectRequest](c)
		if input == nil {
			return nil // error response already written
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Note parsed", DetectResponse{
			Category: category.Detect(input.Note),
			Amount:   category.ExtractAmount(input.Note),
		})
	}
}
