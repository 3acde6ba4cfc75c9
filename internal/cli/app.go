// Package cli implements the financeflow command line: one flag set per
// subcommand plus an interactive shell over the same commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"financeflow/internal/apperrors"
	"financeflow/internal/cache"
	"financeflow/internal/categories"
	"financeflow/internal/core"
	"financeflow/internal/ledger"
	"financeflow/internal/log"
	"financeflow/internal/report"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// App holds everything a command needs.
type App struct {
	Store   *ledger.Store
	Reports *report.Service
	Catalog *categories.Catalog
	Caches  *cache.Manager // optional; cleanup runs only while the shell is open

	Stdin  io.Reader // shell input, os.Stdin when nil
	Stdout io.Writer
	Stderr io.Writer
	Logger *log.Logger

	Today    func() core.Date
	Window   report.Window
	TopN     int
	PageSize int
	CacheTTL time.Duration
}

type command struct {
	name    string
	summary string
	run     func(a *App, ctx context.Context, args []string) int
}

var commands []command

func init() {
	commands = []command{
		{"add", "Record a new transaction (--kind --amount --category --description [--date] [--notes])", (*App).runAdd},
		{"list", "List transactions (--kind --category --sort --order --page --size)", (*App).runList},
		{"show", "Show one transaction: show <id>", (*App).runShow},
		{"edit", "Change fields of a transaction: edit <id> [--field value ...]", (*App).runEdit},
		{"remove", "Delete a transaction: remove <id>", (*App).runRemove},
		{"report", "Summarize a period (--window 30|all --top n)", (*App).runReport},
		{"export", "Export a period (--format csv|json|html --window --out path)", (*App).runExport},
		{"categories", "List known categories (--kind income|expense)", (*App).runCategories},
		{"shell", "Start an interactive session", (*App).runShell},
	}
}

// Run dispatches args (without the program name) and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		a.printUsage(a.Stderr)
		return ExitUsage
	}
	switch args[0] {
	case "help", "--help", "-h":
		a.printUsage(a.Stdout)
		return ExitOK
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(a, ctx, args[1:])
		}
	}
	fmt.Fprintf(a.Stderr, "Unknown command: %s\n", args[0])
	a.printUsage(a.Stderr)
	return ExitUsage
}

func (a *App) printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: financeflow <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-11s %s\n", c.name, c.summary)
	}
}

func (a *App) today() core.Date {
	if a.Today != nil {
		return a.Today()
	}
	return core.DateOf(time.Now())
}

func (a *App) logger() *log.Logger {
	if a.Logger == nil {
		return log.Discard()
	}
	return a.Logger
}

// fail prints err for a user and picks the exit code.
func (a *App) fail(ctx context.Context, op string, err error) int {
	var verr *apperrors.ValidationError
	switch {
	case errors.As(err, &verr):
		fmt.Fprintln(a.Stderr, "Please fix the following:")
		fields := make([]string, 0, len(verr.Fields))
		for f := range verr.Fields {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			fmt.Fprintf(a.Stderr, "  %s: %s\n", f, verr.Fields[f])
		}
	case errors.Is(err, apperrors.ErrInvalidArgument):
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return ExitUsage
	case errors.Is(err, apperrors.ErrPersistence):
		fmt.Fprintln(a.Stderr, "Error: the change could not be saved. Nothing was modified.")
		a.logger().ErrorContext(ctx, "Command failed", log.NewFields().
			WithOperation(op).
			WithError(err).
			WithErrorType(log.ErrorTypePersistence).
			ToSlice()...)
	default:
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
	}
	return ExitFailure
}
