package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labinot-bajgora/ECK-safety/internal/seats"
	"github.com/labinot-bajgora/ECK-safety/internal/store"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

// resetFlags restores every flag to its default so runs do not leak into
// each other through the shared command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, db string, args ...string) error {
	t.Helper()
	resetFlags(rootCmd)
	rootCmd.SetArgs(append(args, "--db", db))
	return rootCmd.Execute()
}

func openTestStore(t *testing.T, db string) *store.Store {
	t.Helper()
	st, err := store.Open(db)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSeedInstallsCourseAndCompanies(t *testing.T) {
	db := filepath.Join(t.TempDir(), "safetyhub.db")
	require.NoError(t, execute(t, db, "seed"))
	// Seeding twice skips what exists.
	require.NoError(t, execute(t, db, "seed"))

	st := openTestStore(t, db)
	ctx := context.Background()

	courses, err := st.Courses().List(ctx)
	require.NoError(t, err)
	assert.Len(t, courses, 1)

	codes, err := st.AccessCodes().List(ctx)
	require.NoError(t, err)
	assert.Len(t, codes, len(demoCompanies))

	peja, err := st.AccessCodes().FindByCode(ctx, "PEJA")
	require.NoError(t, err)
	assert.Equal(t, training.SeatModeLimited, peja.SeatMode)
	assert.Equal(t, 3, peja.SeatAllowance)
}

func TestCompanyTopUpAndUpdate(t *testing.T) {
	db := filepath.Join(t.TempDir(), "safetyhub.db")
	require.NoError(t, execute(t, db, "seed"))
	require.NoError(t, execute(t, db, "company", "topup", "peja", "--by=2"))
	require.NoError(t, execute(t, db, "company", "update", "GJAKOVA", "--mode", "limited", "--seats", "10"))

	st := openTestStore(t, db)
	ctx := context.Background()

	peja, err := st.AccessCodes().FindByCode(ctx, "PEJA")
	require.NoError(t, err)
	assert.Equal(t, 5, peja.SeatAllowance)
	assert.Equal(t, training.AuditTopUp, peja.AuditLog[0].Type)

	gjakova, err := st.AccessCodes().FindByCode(ctx, "GJAKOVA")
	require.NoError(t, err)
	assert.Equal(t, training.SeatModeLimited, gjakova.SeatMode)
}

func TestCompanyCommandsRejectBadInput(t *testing.T) {
	db := filepath.Join(t.TempDir(), "safetyhub.db")
	require.NoError(t, execute(t, db, "seed"))

	assert.Error(t, execute(t, db, "company", "topup", "PEJA", "--by=0"))
	assert.Error(t, execute(t, db, "company", "update", "PEJA"))
	assert.Error(t, execute(t, db, "company", "show", "NOPE"))
	assert.Error(t, execute(t, db, "company", "create", "--code", "PEJA"))
	assert.ErrorIs(t, execute(t, db, "company", "update", "PEJA", "--seats=-3"), seats.ErrInvalidAllowance)
	assert.ErrorIs(t, execute(t, db, "company", "update", "PEJA", "--course", "does-not-exist"), seats.ErrCourseNotFound)

	st := openTestStore(t, db)
	peja, err := st.AccessCodes().FindByCode(context.Background(), "PEJA")
	require.NoError(t, err)
	assert.Equal(t, 3, peja.SeatAllowance)
	assert.Equal(t, "safety-general", peja.CourseID)
}

func TestCompanyDeleteNeedsConfirmation(t *testing.T) {
	db := filepath.Join(t.TempDir(), "safetyhub.db")
	require.NoError(t, execute(t, db, "seed"))

	require.Error(t, execute(t, db, "company", "delete", "START2025"))
	require.NoError(t, execute(t, db, "company", "delete", "START2025", "--yes"))

	st := openTestStore(t, db)
	_, err := st.AccessCodes().FindByCode(context.Background(), "START2025")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCourseExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "safetyhub.db")
	doc := filepath.Join(dir, "course.json")
	require.NoError(t, execute(t, db, "seed", "--companies=false"))

	require.NoError(t, execute(t, db, "course", "export", "safety-general", "-o", doc))
	require.NoError(t, execute(t, db, "course", "deactivate", "safety-general"))
	require.NoError(t, execute(t, db, "course", "import", doc))

	st := openTestStore(t, db)
	c, err := st.Courses().Get(context.Background(), "safety-general")
	require.NoError(t, err)
	assert.NotEmpty(t, c.Questions)
	assert.True(t, c.IsActive, "imported document carries the exported active flag")
}

func TestResultsExportWritesHeader(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "safetyhub.db")
	out := filepath.Join(dir, "results.csv")
	require.NoError(t, execute(t, db, "seed"))
	require.NoError(t, execute(t, db, "results", "export", "--company", "peja", "-o", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Completion ID")
}

func TestStatsRejectsUnknownWindow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "safetyhub.db")
	assert.Error(t, execute(t, db, "stats", "--days", "14"))
	assert.NoError(t, execute(t, db, "stats", "--days", "30"))
}
