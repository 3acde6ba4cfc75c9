package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"financeflow/internal/core"
	"financeflow/internal/export"
	"financeflow/internal/report"
)

func (a *App) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	return fs
}

// candidateFlags binds the editable transaction fields to fs.
func candidateFlags(fs *flag.FlagSet, c *core.Candidate) {
	fs.StringVar(&c.Kind, "kind", c.Kind, "income or expense")
	fs.StringVar(&c.Amount, "amount", c.Amount, "positive amount, e.g. 12.50")
	fs.StringVar(&c.Category, "category", c.Category, "category name")
	fs.StringVar(&c.Description, "description", c.Description, "short description")
	fs.StringVar(&c.Date, "date", c.Date, "date as YYYY-MM-DD")
	fs.StringVar(&c.Notes, "notes", c.Notes, "optional notes")
}

func (a *App) runAdd(ctx context.Context, args []string) int {
	c := core.Candidate{Date: a.today().String()}
	fs := a.newFlagSet("add")
	candidateFlags(fs, &c)
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	tx, err := a.Store.Add(ctx, c)
	if err != nil {
		return a.fail(ctx, "add", err)
	}
	fmt.Fprintf(a.Stdout, "Added %s: %s %s %s on %s\n",
		tx.ID, tx.Kind.Title(), tx.Amount.Format(), tx.Category, tx.Date)
	return ExitOK
}

func (a *App) runEdit(ctx context.Context, args []string) int {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		fmt.Fprintln(a.Stderr, "Usage: financeflow edit <id> [--kind --amount --category --description --date --notes]")
		return ExitUsage
	}
	id := args[0]
	existing, ok := a.Store.Get(id)
	if !ok {
		fmt.Fprintf(a.Stderr, "Error: no transaction with id %q\n", id)
		return ExitFailure
	}

	c := core.NewCandidate(existing)
	fs := a.newFlagSet("edit")
	candidateFlags(fs, &c)
	if err := fs.Parse(args[1:]); err != nil {
		return ExitUsage
	}
	if fs.NFlag() == 0 {
		fmt.Fprintln(a.Stderr, "Nothing to change.")
		return ExitUsage
	}

	tx, err := a.Store.Update(ctx, id, c)
	if err != nil {
		return a.fail(ctx, "update", err)
	}
	fmt.Fprintf(a.Stdout, "Updated %s: %s %s %s on %s\n",
		tx.ID, tx.Kind.Title(), tx.Amount.Format(), tx.Category, tx.Date)
	return ExitOK
}

func (a *App) runRemove(ctx context.Context, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(a.Stderr, "Usage: financeflow remove <id>")
		return ExitUsage
	}
	id := args[0]
	tx, ok := a.Store.Get(id)
	if !ok {
		fmt.Fprintf(a.Stdout, "No transaction with id %q, nothing removed.\n", id)
		return ExitOK
	}
	if err := a.Store.Remove(ctx, id); err != nil {
		return a.fail(ctx, "remove", err)
	}
	fmt.Fprintf(a.Stdout, "Removed %s (%s, %s)\n", tx.ID, tx.Description, tx.Amount.Format())
	return ExitOK
}

func (a *App) runShow(_ context.Context, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(a.Stderr, "Usage: financeflow show <id>")
		return ExitUsage
	}
	tx, ok := a.Store.Get(args[0])
	if !ok {
		fmt.Fprintf(a.Stderr, "Error: no transaction with id %q\n", args[0])
		return ExitFailure
	}

	tw := tabwriter.NewWriter(a.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\t%s\n", tx.ID)
	fmt.Fprintf(tw, "Type\t%s\n", tx.Kind.Title())
	fmt.Fprintf(tw, "Amount\t%s\n", tx.Amount.Format())
	fmt.Fprintf(tw, "Category\t%s\n", tx.Category)
	fmt.Fprintf(tw, "Description\t%s\n", tx.Description)
	fmt.Fprintf(tw, "Date\t%s\n", tx.Date)
	if tx.Notes != "" {
		fmt.Fprintf(tw, "Notes\t%s\n", tx.Notes)
	}
	fmt.Fprintf(tw, "Created\t%s\n", tx.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	tw.Flush()
	return ExitOK
}

func (a *App) runList(ctx context.Context, args []string) int {
	var (
		kind, category, field, order string
		page, size                   int
	)
	fs := a.newFlagSet("list")
	fs.StringVar(&kind, "kind", "all", "income, expense or all")
	fs.StringVar(&category, "category", "all", "category name or all")
	fs.StringVar(&field, "sort", "date", "sort field: "+strings.Join(report.SortFields(), ", "))
	fs.StringVar(&order, "order", "desc", "asc or desc")
	fs.IntVar(&page, "page", 1, "page number, starting at 1")
	fs.IntVar(&size, "size", a.PageSize, "records per page")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if page < 1 || size < 1 {
		fmt.Fprintln(a.Stderr, "Error: --page and --size must be at least 1")
		return ExitUsage
	}

	dir, err := report.ParseDirection(order)
	if err != nil {
		return a.fail(ctx, "list", err)
	}
	records := report.FilterBy(a.Store.List(), report.Filter{Kind: kind, Category: category})
	records, err = report.SortBy(records, field, dir)
	if err != nil {
		return a.fail(ctx, "list", err)
	}

	p := report.Paginate(records, (page-1)*size, size)
	if p.Total == 0 {
		fmt.Fprintln(a.Stdout, "No transactions found.")
		return ExitOK
	}
	writeTable(a.Stdout, p.Items)
	if len(p.Items) == 0 {
		fmt.Fprintf(a.Stdout, "Page %d is past the end (%d transactions).\n", page, p.Total)
		return ExitOK
	}
	fmt.Fprintf(a.Stdout, "Showing %d-%d of %d", p.Offset+1, p.Offset+len(p.Items), p.Total)
	if p.Remaining > 0 {
		fmt.Fprintf(a.Stdout, " (%d more, use --page %d)", p.Remaining, page+1)
	}
	fmt.Fprintln(a.Stdout)
	return ExitOK
}

func writeTable(w io.Writer, records []core.Transaction) {
	if len(records) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tCATEGORY\tDESCRIPTION\tAMOUNT")
	for _, tx := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Date, tx.Kind.Title(), tx.Category, tx.Description, tx.Signed().Format())
	}
	tw.Flush()
}

func (a *App) runReport(ctx context.Context, args []string) int {
	var (
		window string
		top    int
	)
	fs := a.newFlagSet("report")
	fs.StringVar(&window, "window", a.Window.String(), "days to include, or all")
	fs.IntVar(&top, "top", a.TopN, "number of top expense categories")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	r, err := a.buildReport(ctx, window, top)
	if err != nil {
		return a.fail(ctx, "report", err)
	}

	fmt.Fprintf(a.Stdout, "%s (through %s)\n\n", r.Label, r.Today)
	tw := tabwriter.NewWriter(a.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Income\t%s\n", r.Summary.TotalIncome.Format())
	fmt.Fprintf(tw, "Expenses\t%s\n", r.Summary.TotalExpense.Format())
	fmt.Fprintf(tw, "Net\t%s\n", r.Summary.Net.Format())
	fmt.Fprintf(tw, "Transactions\t%d\n", r.Summary.Count)
	fmt.Fprintf(tw, "Average expense\t%s\n", r.AverageExpense.Format())
	if r.HasHealth {
		fmt.Fprintf(tw, "Health\t%d/100 %s\n", r.Health.Score, r.Health.Label)
	}
	tw.Flush()

	if len(r.TopCategories) > 0 {
		fmt.Fprintln(a.Stdout, "\nTop expense categories:")
		for i, c := range r.TopCategories {
			fmt.Fprintf(a.Stdout, "  %d. %s  %s (%d)\n", i+1, c.Category, c.Amount.Format(), c.Count)
		}
	}
	return ExitOK
}

func (a *App) buildReport(ctx context.Context, window string, top int) (report.Report, error) {
	w, err := report.ParseWindow(window)
	if err != nil {
		return report.Report{}, err
	}
	return a.Reports.Build(ctx, report.Request{Window: w, TopN: top, Today: a.today()})
}

// exportPrefix names export files written without --out.
const exportPrefix = "financeflow-data"

func (a *App) runExport(ctx context.Context, args []string) int {
	var format, window, out string
	fs := a.newFlagSet("export")
	fs.StringVar(&format, "format", "", "csv, json or html (required)")
	fs.StringVar(&window, "window", "all", "days to include, or all")
	fs.StringVar(&out, "out", "", "output file, - for stdout (default "+exportPrefix+"-<date>.<ext>)")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if format == "" {
		fmt.Fprintln(a.Stderr, "Error: --format is required")
		return ExitUsage
	}

	f, err := export.ParseFormat(format)
	if err != nil {
		return a.fail(ctx, "export", err)
	}
	r, err := a.buildReport(ctx, window, a.TopN)
	if err != nil {
		return a.fail(ctx, "export", err)
	}

	if out == "-" {
		if err := export.Write(a.Stdout, f, r); err != nil {
			return a.fail(ctx, "export", err)
		}
		return ExitOK
	}
	if out == "" {
		out = export.FileName(exportPrefix, f, r.Today)
	}
	file, err := os.Create(out)
	if err != nil {
		return a.fail(ctx, "export", fmt.Errorf("create %s: %w", out, err))
	}
	if err := export.Write(file, f, r); err != nil {
		file.Close()
		return a.fail(ctx, "export", err)
	}
	if err := file.Close(); err != nil {
		return a.fail(ctx, "export", err)
	}
	fmt.Fprintf(a.Stdout, "Exported %d transactions to %s\n", len(r.Records), out)
	return ExitOK
}

func (a *App) runCategories(_ context.Context, args []string) int {
	var kind string
	fs := a.newFlagSet("categories")
	fs.StringVar(&kind, "kind", "", "income or expense (default both)")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	kinds := []core.Kind{core.Expense, core.Income}
	if kind != "" {
		k, err := core.ParseKind(kind)
		if err != nil {
			fmt.Fprintf(a.Stderr, "Error: %v\n", err)
			return ExitUsage
		}
		kinds = []core.Kind{k}
	}

	for i, k := range kinds {
		if i > 0 {
			fmt.Fprintln(a.Stdout)
		}
		fmt.Fprintf(a.Stdout, "%s categories:\n", k.Title())
		for _, name := range a.Catalog.For(k) {
			fmt.Fprintf(a.Stdout, "  %s\n", name)
		}
	}
	if kind == "" {
		if used := a.Store.Categories(); len(used) > 0 {
			fmt.Fprintf(a.Stdout, "\nIn use: %s\n", strings.Join(used, ", "))
		}
	}
	return ExitOK
}
