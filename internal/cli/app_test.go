package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financeflow/internal/cache"
	"financeflow/internal/categories"
	"financeflow/internal/core"
	"financeflow/internal/ledger"
	"financeflow/internal/log"
	"financeflow/internal/report"
	"financeflow/internal/storage/memory"
)

type harness struct {
	app    *App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newHarness(t *testing.T, quota int) *harness {
	t.Helper()
	seq := 0
	store := ledger.New(memory.New(quota),
		ledger.WithCatalog(categories.Default()),
		ledger.WithClock(func() time.Time { return time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC) }),
		ledger.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("txn_%d", seq)
		}))

	h := &harness{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	h.app = &App{
		Store:    store,
		Reports:  report.NewService(store, cache.NewLRUCache[report.Report](8, 0), log.Discard()),
		Catalog:  categories.Default(),
		Caches:   cache.NewManager(nil),
		Stdout:   h.stdout,
		Stderr:   h.stderr,
		Logger:   log.Discard(),
		Today:    func() core.Date { return core.NewDate(2025, 6, 15) },
		Window:   report.LastDays(30),
		TopN:     5,
		PageSize: 2,
	}
	return h
}

func (h *harness) run(args ...string) int {
	h.stdout.Reset()
	h.stderr.Reset()
	return h.app.Run(context.Background(), args)
}

func (h *harness) mustAdd(t *testing.T, kind, amount, category, description string) {
	t.Helper()
	code := h.run("add", "--kind", kind, "--amount", amount, "--category", category, "--description", description)
	require.Equal(t, ExitOK, code, h.stderr.String())
}

func TestAdd(t *testing.T) {
	h := newHarness(t, 0)

	code := h.run("add", "--kind", "expense", "--amount", "12.50", "--category", "Food & Dining", "--description", "Lunch")
	require.Equal(t, ExitOK, code, h.stderr.String())
	assert.Equal(t, "Added txn_1: Expense $12.50 Food & Dining on 2025-06-15\n", h.stdout.String())
	assert.Equal(t, 1, h.app.Store.Len())
}

func TestAddValidationErrors(t *testing.T) {
	h := newHarness(t, 0)

	code := h.run("add", "--kind", "expense")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, h.stderr.String(), "amount: Amount is required")
	assert.Contains(t, h.stderr.String(), "category: Category is required")
	assert.Contains(t, h.stderr.String(), "description: Description is required")
	assert.Equal(t, 0, h.app.Store.Len())

	code = h.run("add", "--kind", "income", "--amount", "10", "--category", "Food & Dining", "--description", "Refund")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, h.stderr.String(), "category: Category is not valid for this transaction type")
}

func TestAddPersistenceFailure(t *testing.T) {
	h := newHarness(t, 16)

	code := h.run("add", "--kind", "expense", "--amount", "12.50", "--category", "Food & Dining", "--description", "Lunch")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, h.stderr.String(), "could not be saved")
	assert.Equal(t, 0, h.app.Store.Len())
}

func TestListPaginates(t *testing.T) {
	h := newHarness(t, 0)
	h.mustAdd(t, "expense", "1", "Shopping", "First")
	h.mustAdd(t, "expense", "2", "Shopping", "Second")
	h.mustAdd(t, "income", "3", "Salary", "Third")

	require.Equal(t, ExitOK, h.run("list"))
	out := h.stdout.String()
	assert.Contains(t, out, "Third")
	assert.Contains(t, out, "Second")
	assert.NotContains(t, out, "First")
	assert.Contains(t, out, "Showing 1-2 of 3 (1 more, use --page 2)")
	assert.Contains(t, out, "-$2.00")

	require.Equal(t, ExitOK, h.run("list", "--page", "2"))
	assert.Contains(t, h.stdout.String(), "First")
	assert.Contains(t, h.stdout.String(), "Showing 3-3 of 3\n")

	require.Equal(t, ExitOK, h.run("list", "--kind", "income"))
	assert.Contains(t, h.stdout.String(), "Third")
	assert.NotContains(t, h.stdout.String(), "Second")

	require.Equal(t, ExitOK, h.run("list", "--sort", "amount", "--order", "asc", "--size", "1"))
	assert.Contains(t, h.stdout.String(), "First")
}

func TestAddStoresCatalogSpelling(t *testing.T) {
	h := newHarness(t, 0)
	h.mustAdd(t, "expense", "10", "food & dining", "Lunch")
	h.mustAdd(t, "expense", "20", "FOOD & DINING", "Dinner")

	require.Equal(t, ExitOK, h.run("categories"))
	assert.Contains(t, h.stdout.String(), "In use: Food & Dining\n")

	require.Equal(t, ExitOK, h.run("list", "--category", "food & dining"))
	assert.Contains(t, h.stdout.String(), "Showing 1-2 of 2")

	require.Equal(t, ExitOK, h.run("report"))
	assert.Contains(t, h.stdout.String(), "1. Food & Dining  $30.00 (2)")
}

func TestListErrors(t *testing.T) {
	h := newHarness(t, 0)

	require.Equal(t, ExitOK, h.run("list"))
	assert.Equal(t, "No transactions found.\n", h.stdout.String())

	h.mustAdd(t, "expense", "1", "Shopping", "First")
	assert.Equal(t, ExitUsage, h.run("list", "--sort", "colour"))
	assert.Contains(t, h.stderr.String(), "unknown sort field")

	assert.Equal(t, ExitUsage, h.run("list", "--order", "sideways"))
	assert.Equal(t, ExitUsage, h.run("list", "--page", "0"))
}

func TestShowEditRemove(t *testing.T) {
	h := newHarness(t, 0)
	h.mustAdd(t, "expense", "12.50", "Food & Dining", "Lunch")

	require.Equal(t, ExitOK, h.run("show", "txn_1"))
	assert.Contains(t, h.stdout.String(), "$12.50")
	assert.Contains(t, h.stdout.String(), "Lunch")

	require.Equal(t, ExitOK, h.run("edit", "txn_1", "--amount", "20"))
	assert.Equal(t, "Updated txn_1: Expense $20.00 Food & Dining on 2025-06-15\n", h.stdout.String())
	tx, ok := h.app.Store.Get("txn_1")
	require.True(t, ok)
	assert.Equal(t, int64(2000), tx.Amount.Cents)
	assert.Equal(t, "Lunch", tx.Description)

	assert.Equal(t, ExitUsage, h.run("edit", "txn_1"))
	assert.Equal(t, ExitFailure, h.run("edit", "txn_1", "--amount", "-3"))
	assert.Contains(t, h.stderr.String(), "amount: Amount must be a valid positive number")
	assert.Equal(t, ExitFailure, h.run("edit", "txn_9", "--amount", "3"))

	require.Equal(t, ExitOK, h.run("remove", "txn_1"))
	assert.Contains(t, h.stdout.String(), "Removed txn_1")
	assert.Equal(t, 0, h.app.Store.Len())

	require.Equal(t, ExitOK, h.run("remove", "txn_1"))
	assert.Contains(t, h.stdout.String(), "nothing removed")

	assert.Equal(t, ExitFailure, h.run("show", "txn_1"))
	assert.Equal(t, ExitUsage, h.run("show"))
}

func TestReport(t *testing.T) {
	h := newHarness(t, 0)
	h.mustAdd(t, "income", "5000", "Salary", "June salary")
	h.mustAdd(t, "expense", "1234.56", "Food & Dining", "Dinner")

	require.Equal(t, ExitOK, h.run("report"))
	out := h.stdout.String()
	assert.Contains(t, out, "Last 30 days (through 2025-06-15)")
	assert.Contains(t, out, "$5,000.00")
	assert.Contains(t, out, "$3,765.44")
	assert.Contains(t, out, "Good financial health!")
	assert.Contains(t, out, "1. Food & Dining  $1,234.56 (1)")

	require.Equal(t, ExitOK, h.run("report", "--window", "all", "--top", "1"))
	assert.Contains(t, h.stdout.String(), "All Time")

	assert.Equal(t, ExitUsage, h.run("report", "--window", "month"))
}

func TestExport(t *testing.T) {
	h := newHarness(t, 0)
	h.mustAdd(t, "expense", "12.50", "Food & Dining", "Lunch")

	require.Equal(t, ExitOK, h.run("export", "--format", "csv", "--out", "-"))
	assert.True(t, strings.HasPrefix(h.stdout.String(), "Date,Type,Category,Description,Amount,Notes\n"))
	assert.Contains(t, h.stdout.String(), "2025-06-15,Expense,Food & Dining,Lunch,12.50,")

	path := filepath.Join(t.TempDir(), "out.json")
	require.Equal(t, ExitOK, h.run("export", "--format", "json", "--out", path))
	assert.Equal(t, fmt.Sprintf("Exported 1 transactions to %s\n", path), h.stdout.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id": "txn_1"`)

	assert.Equal(t, ExitUsage, h.run("export"))
	assert.Equal(t, ExitUsage, h.run("export", "--format", "pdf"))
}

func TestExportDefaultFileName(t *testing.T) {
	h := newHarness(t, 0)
	h.mustAdd(t, "expense", "12.50", "Food & Dining", "Lunch")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.Equal(t, ExitOK, h.run("export", "--format", "csv"), h.stderr.String())
	assert.Equal(t, "Exported 1 transactions to financeflow-data-2025-06-15.csv\n", h.stdout.String())
	data, err := os.ReadFile("financeflow-data-2025-06-15.csv")
	require.NoError(t, err)
	assert.Contains(t, string(data), "2025-06-15,Expense,Food & Dining,Lunch,12.50,")
}

func TestCategories(t *testing.T) {
	h := newHarness(t, 0)
	h.mustAdd(t, "expense", "1", "Shopping", "Socks")

	require.Equal(t, ExitOK, h.run("categories", "--kind", "income"))
	assert.Contains(t, h.stdout.String(), "Salary")
	assert.NotContains(t, h.stdout.String(), "Food & Dining")

	require.Equal(t, ExitOK, h.run("categories"))
	assert.Contains(t, h.stdout.String(), "Expense categories:")
	assert.Contains(t, h.stdout.String(), "Income categories:")
	assert.Contains(t, h.stdout.String(), "In use: Shopping")

	assert.Equal(t, ExitUsage, h.run("categories", "--kind", "transfer"))
}

func TestUnknownCommandAndHelp(t *testing.T) {
	h := newHarness(t, 0)

	assert.Equal(t, ExitUsage, h.run("frobnicate"))
	assert.Contains(t, h.stderr.String(), "Unknown command: frobnicate")

	assert.Equal(t, ExitUsage, h.run())

	require.Equal(t, ExitOK, h.run("help"))
	assert.Contains(t, h.stdout.String(), "export")
}
