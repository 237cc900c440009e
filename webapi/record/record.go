// Package record serves records, their totals, bulk sync and export.
package record

import (
	"bytes"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/service/budget"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/service/export"
	recordsvc "github.com/nNEWBE/expense-tracker-sub000/pkg/service/record"
	"github.com/nNEWBE/expense-tracker-sub000/webapi/common"
	"github.com/shopspring/decimal"
)

// Routes registers the record, summary, budget, sync and export endpoints.
func Routes(app *fiber.App, svc *recordsvc.Service, watcher *budget.Watcher, symbol string) {
	g := app.Group("/records")
	g.Get("/", ListRecords(svc))
	g.Post("/", CreateRecord(svc))
	g.Get("/:id", GetRecord(svc))
	g.Put("/:id", UpdateRecord(svc))
	g.Delete("/:id", DeleteRecord(svc))
	g.Post("/:id/pin", TogglePin(svc))

	app.Get("/summary", Summary(svc, watcher))
	app.Put("/budget", SetBudget(watcher))
	app.Post("/sync", Sync(svc))
	app.Get("/export.csv", ExportCSV(svc, symbol))
}

// ListRecords returns the snapshot of the authoritative source, newest
// first.
func ListRecords(svc *recordsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		records, err := svc.Snapshot(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list records", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Records fetched successfully", records)
	}
}

func CreateRecord(svc *recordsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, _ := common.BindAndValidate[RecordRequest](c)
		if input == nil {
			return nil // error response already written
		}
		r, err := input.apply(record.Record{}, time.Now())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid record", err)
		}
		id, err := svc.Insert(c.UserContext(), r)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to save record", err)
		}
		r.LocalID = id
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Record saved", r)
	}
}

func GetRecord(svc *recordsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, ok := lookup(c, svc)
		if !ok {
			return nil
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Record fetched successfully", r)
	}
}

// UpdateRecord replaces the editable fields of a record. Identity, pin
// state and creation time are kept.
func UpdateRecord(svc *recordsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		existing, ok := lookup(c, svc)
		if !ok {
			return nil
		}
		input, _ := common.BindAndValidate[RecordRequest](c)
		if input == nil {
			return nil // error response already written
		}
		r, err := input.apply(existing, existing.OccurredAt)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid record", err)
		}
		if err := svc.Update(c.UserContext(), r); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to update record", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Record updated", r)
	}
}

func DeleteRecord(svc *recordsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, ok := lookup(c, svc)
		if !ok {
			return nil
		}
		if err := svc.Delete(c.UserContext(), r); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to delete record", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func TogglePin(svc *recordsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, ok := lookup(c, svc)
		if !ok {
			return nil
		}
		updated, err := svc.TogglePin(c.UserContext(), r)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to toggle pin", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Pin toggled", updated)
	}
}

// Summary returns totals of the current snapshot together with the budget
// status for this month.
func Summary(svc *recordsvc.Service, watcher *budget.Watcher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		records, err := svc.Snapshot(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to compute summary", err)
		}
		totals := record.Aggregate(records)
		source := "local"
		if svc.IsAuthoritativeSourceRemote(c.UserContext()) {
			source = "remote"
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Summary computed", SummaryResponse{
			Expense: totals.Expense,
			Income:  totals.Income,
			Net:     totals.Net(),
			Budget:  watcher.Status(records),
			Source:  source,
		})
	}
}

func SetBudget(watcher *budget.Watcher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, _ := common.BindAndValidate[BudgetRequest](c)
		if input == nil {
			return nil // error response already written
		}
		limit, err := decimal.NewFromString(input.Limit)
		if err != nil || limit.IsNegative() {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid budget", "limit must be a non-negative number")
		}
		watcher.SetLimit(limit)
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Budget updated", fiber.Map{"limit": limit})
	}
}

// Sync mirrors every local-only record to the remote store.
func Sync(svc *recordsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := svc.MirrorAll(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Sync failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Sync finished", report)
	}
}

func ExportCSV(svc *recordsvc.Service, symbol string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		records, err := svc.Snapshot(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to export records", err)
		}
		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, records, symbol); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to export records", err)
		}
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="expenses.csv"`)
		return c.Send(buf.Bytes())
	}
}

// lookup loads the committed record named by the :id param. On failure the
// error response has been written and ok is false.
func lookup(c *fiber.Ctx, svc *recordsvc.Service) (record.Record, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		_ = common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid record id", c.Params("id"))
		return record.Record{}, false
	}
	r, err := svc.Find(c.UserContext(), id)
	if err != nil {
		title := "Failed to load record"
		if errors.Is(err, domain.ErrNotFound) {
			title = "Record not found"
		}
		_ = common.ProblemDetailsJSON(c, title, err)
		return record.Record{}, false
	}
	return r, true
}
