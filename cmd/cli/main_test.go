package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.App {
	dir := t.TempDir()
	return &config.App{
		Env:      "test",
		Log:      &config.Log{Format: "text"},
		DB:       &config.DB{Url: "sqlite://" + filepath.Join(dir, "expense.db"), MaxOpen: 1, MaxIdle: 1, MaxLifetime: time.Hour},
		Auth:     &config.Auth{Jwt: &config.Jwt{Secret: "cli-secret", Expiry: time.Hour}, SessionFile: filepath.Join(dir, "session")},
		Redis:    &config.Redis{KeyPrefix: "expense:"},
		EventBus: &config.EventBus{Driver: "memory"},
		Budget:   &config.Budget{Monthly: "100", CurrencySymbol: "$"},
	}
}

func exec(t *testing.T, cfg *config.App, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, runWith(cfg, args, strings.NewReader(""), &out))
	return out.String()
}

func TestCLI_RecordLifecycle(t *testing.T) {
	cfg := testConfig(t)

	assert.Contains(t, exec(t, cfg, "add", "expense", "42.5", "Food", "team", "lunch"), "Saved #1: Expense $42.50 in Food")
	assert.Contains(t, exec(t, cfg, "quick", "uber", "ride", "30"), "Saved #2: Expense $30.00 in Transport")

	list := exec(t, cfg, "list")
	assert.Contains(t, list, "team lunch")
	assert.Contains(t, list, "Transport")

	summary := exec(t, cfg, "summary")
	assert.Contains(t, summary, "Expense: $72.50")
	assert.Contains(t, summary, "(none)")

	assert.Contains(t, exec(t, cfg, "pin", "1"), "Pinned #1")
	assert.Contains(t, exec(t, cfg, "list"), "1*")

	assert.Contains(t, exec(t, cfg, "delete", "2"), "Deleted #2")
	assert.NotContains(t, exec(t, cfg, "list"), "Transport")

	csv := exec(t, cfg, "export")
	assert.True(t, strings.HasPrefix(csv, "Date,Category,Type,Amount,Notes\n"))
	assert.Contains(t, csv, "Food,Expense,$42.50,team lunch")

	path := filepath.Join(t.TempDir(), "out.csv")
	assert.Contains(t, exec(t, cfg, "export", path), "Exported 1 records")
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, csv, string(b))
}

func TestCLI_Errors(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer
	assert.Error(t, runWith(cfg, []string{"add", "loan", "5"}, strings.NewReader(""), &out))
	assert.Error(t, runWith(cfg, []string{"add", "expense", "0", "Food"}, strings.NewReader(""), &out))
	assert.Error(t, runWith(cfg, []string{"delete", "99"}, strings.NewReader(""), &out))
	assert.Error(t, runWith(cfg, []string{"frobnicate"}, strings.NewReader(""), &out))
	assert.ErrorContains(t, runWith(cfg, []string{"sync"}, strings.NewReader(""), &out), "sign in first")
}

func TestCLI_SessionAndSync(t *testing.T) {
	cfg := testConfig(t)
	exec(t, cfg, "add", "expense", "10", "Food")
	exec(t, cfg, "add", "income", "50", "Gift")

	assert.Contains(t, exec(t, cfg, "token", "alice"), "Signed in as alice")
	_, err := os.Stat(cfg.Auth.SessionFile)
	require.NoError(t, err)

	// The stored token is picked up by the next run.
	assert.Contains(t, exec(t, cfg, "sync"), "Synced: 2 mirrored, 0 already synced, 0 failed")

	assert.Contains(t, exec(t, cfg, "logout"), "Signed out")
	var out bytes.Buffer
	assert.Error(t, runWith(cfg, []string{"sync"}, strings.NewReader(""), &out))
}

func TestCLI_LoginReadsTokenFromInput(t *testing.T) {
	cfg := testConfig(t)
	exec(t, cfg, "token", "bob")
	token, err := os.ReadFile(cfg.Auth.SessionFile)
	require.NoError(t, err)
	exec(t, cfg, "logout")

	var out bytes.Buffer
	require.NoError(t, runWith(cfg, []string{"login"}, bytes.NewReader(token), &out))
	assert.Contains(t, out.String(), "Signed in as bob")

	out.Reset()
	assert.Error(t, runWith(cfg, []string{"login"}, strings.NewReader("\n"), &out))
}
