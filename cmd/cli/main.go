package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/nNEWBE/expense-tracker-sub000/infra/initializer"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/app"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/config"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/service/auth"
	"golang.org/x/term"
)

const usage = `Usage: cli <command> [arguments]
Commands:
  add <expense|income> <amount> [category] [note...]
  quick <note...>            add an expense parsed from free text
  list
  summary
  delete <id>
  pin <id>
  sync                       mirror local-only records (signed in)
  export [file]              write CSV to file or stdout
  notifications [read-all|clear]
  token <user-id>            issue a token and sign in with it
  login [token]              sign in with a token (prompts when omitted)
  logout`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// cli is one process worth of application plus the place its session token
// lives.
type cli struct {
	app       *app.App
	tokenFile string
	in        io.Reader
	out       io.Writer
}

func run(args []string, in io.Reader, out io.Writer) error {
	if len(args) < 1 {
		fmt.Fprintln(out, usage)
		return nil
	}
	cfg, err := config.Load(config.EnvFile())
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}
	return runWith(cfg, args, in, out)
}

func runWith(cfg *config.App, args []string, in io.Reader, out io.Writer) (err error) {
	deps, err := initializer.InitializeDependencies(cfg, io.Discard)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	a := app.New(deps, cfg)
	defer func() { err = errors.Join(err, a.Close()) }()

	c := &cli{app: a, tokenFile: cfg.Auth.SessionFile, in: in, out: out}
	c.restoreSession(context.Background())
	return c.dispatch(context.Background(), args[0], args[1:])
}

// restoreSession signs in with the stored token, if any. A stale token
// leaves the process signed out.
func (c *cli) restoreSession(ctx context.Context) {
	token, err := auth.LoadToken(c.tokenFile)
	if err != nil || token == "" {
		return
	}
	if _, err := c.app.SignInWithToken(ctx, token); err != nil {
		warn(c.out, "stored session rejected, continuing signed out")
	}
}

func (c *cli) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "add":
		return c.add(ctx, args)
	case "quick":
		return c.quick(ctx, args)
	case "list":
		return c.list(ctx)
	case "summary":
		return c.summary(ctx)
	case "delete":
		return c.remove(ctx, args)
	case "pin":
		return c.pin(ctx, args)
	case "sync":
		return c.sync(ctx)
	case "export":
		return c.export(ctx, args)
	case "notifications":
		return c.notifications(ctx, args)
	case "token":
		return c.token(ctx, args)
	case "login":
		return c.login(ctx, args)
	case "logout":
		c.app.SignOut()
		if err := auth.ClearToken(c.tokenFile); err != nil {
			return err
		}
		success(c.out, "Signed out")
		return nil
	case "help", "-h", "--help":
		fmt.Fprintln(c.out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// readToken prompts without echo on a terminal and reads a line otherwise.
func (c *cli) readToken() (string, error) {
	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(c.out, "Token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func success(w io.Writer, format string, a ...any) {
	color.New(color.FgGreen).Fprintf(w, format+"\n", a...)
}

func warn(w io.Writer, format string, a ...any) {
	color.New(color.FgYellow).Fprintf(w, format+"\n", a...)
}
