package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financeflow/internal/config"
	"financeflow/internal/log"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Backend:          "sqlite",
		SQLitePath:       filepath.Join(dir, "financeflow.db"),
		StorageKey:       "financeflow_transactions",
		StrictCategories: true,
		ReportWindow:     "all",
		TopCategories:    3,
		PageSize:         10,
		CacheSize:        4,
		CacheTTL:         time.Minute,
		LogLevel:         "debug",
		LogFormat:        "json",
	}
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig(t)

	logger, err := SetupLogger(cfg, &buf)
	require.NoError(t, err)
	logger.Debug("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"component":"app"`)

	cfg.LogLevel = "loud"
	_, err = SetupLogger(cfg, &buf)
	assert.Error(t, err)
}

func TestBootstrapPersistsAcrossRuns(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	var stdout, stderr bytes.Buffer

	app, cleanup, err := Bootstrap(ctx, cfg, log.Discard(), &stdout, &stderr)
	require.NoError(t, err)
	code := app.Run(ctx, []string{"add", "--kind", "income", "--amount", "100", "--category", "Salary", "--description", "Pay"})
	require.Equal(t, ExitOK, code, stderr.String())
	require.NoError(t, cleanup())

	app, cleanup, err = Bootstrap(ctx, cfg, log.Discard(), &stdout, &stderr)
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, 1, app.Store.Len())
	assert.True(t, app.Window.All)
	assert.Equal(t, 3, app.TopN)
}

func TestBootstrapRejectsBadCategoriesFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.CategoriesFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, _, err := Bootstrap(context.Background(), cfg, log.Discard(), &bytes.Buffer{}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRunCleanup(t *testing.T) {
	called := false
	RunCleanup(log.Discard(), time.Second, func() error {
		called = true
		return nil
	})
	assert.True(t, called)

	RunCleanup(log.Discard(), time.Second, nil)
}
