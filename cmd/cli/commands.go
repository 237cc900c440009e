package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/category"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/service/auth"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/service/export"
	"github.com/shopspring/decimal"
)

func (c *cli) add(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: add <expense|income> <amount> [category] [note...]")
	}
	kind, err := record.ParseKind(args[0])
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("%w: amount %q", domain.ErrValidation, args[1])
	}
	note := ""
	if len(args) > 3 {
		note = strings.Join(args[3:], " ")
	}
	var cat string
	if len(args) > 2 {
		cat = args[2]
	} else {
		cat = category.Detect(note)
	}
	r, err := record.New(kind, amount, cat, time.Now(), note)
	if err != nil {
		return err
	}
	return c.insert(ctx, r)
}

func (c *cli) quick(ctx context.Context, args []string) error {
	note := strings.Join(args, " ")
	r, err := record.New(record.Expense, category.ExtractAmount(note), category.Detect(note), time.Now(), note)
	if err != nil {
		return err
	}
	return c.insert(ctx, r)
}

func (c *cli) insert(ctx context.Context, r record.Record) error {
	id, err := c.app.Records.Insert(ctx, r)
	if err != nil {
		return err
	}
	success(c.out, "Saved #%d: %s %s%s in %s", id, r.Kind.Label(), c.symbol(), r.Amount.StringFixed(2), r.Category)
	return nil
}

func (c *cli) list(ctx context.Context) error {
	records, err := c.app.Records.Snapshot(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(c.out, "No records")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tCATEGORY\tAMOUNT\tNOTE\t")
	for _, r := range records {
		pin := ""
		if r.Pinned {
			pin = "*"
		}
		fmt.Fprintf(tw, "%d%s\t%s\t%s\t%s\t%s%s\t%s\t\n",
			r.LocalID, pin, r.OccurredAt.Format("2006-01-02"), r.Kind.Label(), r.Category,
			c.symbol(), r.Amount.StringFixed(2), r.Note)
	}
	return tw.Flush()
}

func (c *cli) summary(ctx context.Context) error {
	records, err := c.app.Records.Snapshot(ctx)
	if err != nil {
		return err
	}
	totals := record.Aggregate(records)
	status := c.app.Budget.Status(records)
	sym := c.symbol()

	fmt.Fprintf(c.out, "Income:  %s%s\n", sym, totals.Income.StringFixed(2))
	fmt.Fprintf(c.out, "Expense: %s%s\n", sym, totals.Expense.StringFixed(2))
	net := color.New(color.FgGreen)
	if totals.Net().IsNegative() {
		net = color.New(color.FgRed)
	}
	net.Fprintf(c.out, "Net:     %s%s\n", sym, totals.Net().StringFixed(2))
	if status.Limit.IsPositive() {
		line := fmt.Sprintf("Budget:  %s%s of %s%s this month (%s)",
			sym, status.Spent.StringFixed(2), sym, status.Limit.StringFixed(2), status.Level)
		switch status.Level {
		case "exceeded":
			color.New(color.FgRed).Fprintln(c.out, line)
		case "warning":
			color.New(color.FgYellow).Fprintln(c.out, line)
		default:
			fmt.Fprintln(c.out, line)
		}
	}
	return nil
}

func (c *cli) find(ctx context.Context, args []string) (record.Record, error) {
	if len(args) < 1 {
		return record.Record{}, errors.New("missing record id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return record.Record{}, fmt.Errorf("invalid record id %q", args[0])
	}
	return c.app.Records.Find(ctx, id)
}

func (c *cli) remove(ctx context.Context, args []string) error {
	r, err := c.find(ctx, args)
	if err != nil {
		return err
	}
	if err := c.app.Records.Delete(ctx, r); err != nil {
		return err
	}
	success(c.out, "Deleted #%d", r.LocalID)
	return nil
}

func (c *cli) pin(ctx context.Context, args []string) error {
	r, err := c.find(ctx, args)
	if err != nil {
		return err
	}
	r, err = c.app.Records.TogglePin(ctx, r)
	if err != nil {
		return err
	}
	if r.Pinned {
		success(c.out, "Pinned #%d", r.LocalID)
	} else {
		success(c.out, "Unpinned #%d", r.LocalID)
	}
	return nil
}

func (c *cli) sync(ctx context.Context) error {
	report, err := c.app.Records.MirrorAll(ctx)
	if errors.Is(err, domain.ErrNoSession) {
		return errors.New("sign in first (cli login)")
	}
	if err != nil {
		return err
	}
	success(c.out, "Synced: %d mirrored, %d already synced, %d failed", report.Mirrored, report.Skipped, report.Failed)
	return nil
}

func (c *cli) export(ctx context.Context, args []string) error {
	records, err := c.app.Records.Snapshot(ctx)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return export.WriteCSV(c.out, records, c.symbol())
	}
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	if err := export.WriteCSV(f, records, c.symbol()); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	success(c.out, "Exported %d records to %s", len(records), args[0])
	return nil
}

func (c *cli) notifications(ctx context.Context, args []string) error {
	svc := c.app.Notifications
	if len(args) > 0 {
		switch args[0] {
		case "read-all":
			return svc.MarkAllRead(ctx)
		case "clear":
			return svc.DeleteAll(ctx)
		default:
			return fmt.Errorf("unknown notifications action %q", args[0])
		}
	}
	list, err := svc.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(c.out, "No notifications")
		return nil
	}
	unread := color.New(color.Bold)
	for _, e := range list {
		line := fmt.Sprintf("%s  %s: %s", e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Title, e.Message)
		if e.Read {
			fmt.Fprintln(c.out, line)
		} else {
			unread.Fprintln(c.out, line)
		}
	}
	return nil
}

func (c *cli) token(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: token <user-id>")
	}
	if c.app.Deps.Strategy == nil {
		return errors.New("no token strategy configured")
	}
	token, err := c.app.Deps.Strategy.GenerateToken(args[0])
	if err != nil {
		return err
	}
	return c.signIn(ctx, token)
}

func (c *cli) login(ctx context.Context, args []string) error {
	var token string
	if len(args) > 0 {
		token = args[0]
	} else {
		var err error
		if token, err = c.readToken(); err != nil {
			return err
		}
	}
	if token == "" {
		return errors.New("empty token")
	}
	return c.signIn(ctx, token)
}

func (c *cli) signIn(ctx context.Context, token string) error {
	userID, err := c.app.SignInWithToken(ctx, token)
	if err != nil {
		return err
	}
	if err := auth.SaveToken(c.tokenFile, token); err != nil {
		return err
	}
	success(c.out, "Signed in as %s", userID)
	return nil
}

func (c *cli) symbol() string {
	return c.app.Config.Budget.CurrencySymbol
}
