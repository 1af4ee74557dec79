package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/stablecoin-intel/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestSQLite_SaveCompaniesRollsBackOnInvalid(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	bad := model.Company{ID: "wrong", Name: "Circle"}
	_, err := s.SaveCompanies(ctx, []model.Company{company("Paxos", ""), bad})
	require.Error(t, err)

	all, err := s.ListCompanies(ctx, CompanyFilter{})
	require.NoError(t, err)
	assert.Empty(t, all, "nothing from the failed batch is kept")
}

func TestSQLite_UpsertReplacesData(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	c := company("Circle", "")
	c.CreatedAt = day0
	require.NoError(t, s.SaveCompany(ctx, c))

	c.CreatedAt = day2
	c.Description = "updated"
	require.NoError(t, s.SaveCompany(ctx, c))

	got, err := s.GetCompany(ctx, "circle")
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Description)
}

func TestSQLite_TallyVotesEmpty(t *testing.T) {
	s := newTestSQLite(t)
	got, err := s.TallyVotes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
