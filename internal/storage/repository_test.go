package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"organizer/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func strp(s string) *string { return &s }

func expense(owner core.OwnerID, title, amount string, date core.Date) core.Transaction {
	return core.Transaction{
		OwnerID:  owner,
		Kind:     core.Expense,
		Title:    title,
		Amount:   core.MustMoney(amount),
		Date:     date,
		Category: core.Food,
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	in := expense("a", "Market", "150.00", core.NewDate(2025, 11, 3))
	in.Account = strp("Nubank")
	in.Recurrence = core.RecurrenceMonthly

	created, err := repo.Create(ctx, in)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.Get(ctx, "a", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, core.OwnerID("a"), got.OwnerID)
	assert.Equal(t, "Market", got.Title)
	assert.Equal(t, "150.00", got.Amount.String())
	assert.Equal(t, core.NewDate(2025, 11, 3), got.Date)
	assert.Equal(t, core.Food, got.Category)
	require.NotNil(t, got.Account)
	assert.Equal(t, "Nubank", *got.Account)
	assert.Nil(t, got.Notes)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, DialectSQLite, repo.Dialect())
	assert.Equal(t, core.RecurrenceMonthly, got.Recurrence)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
}

func TestRepositoryAmountIsExact(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.Create(ctx, expense("a", "Big", "123456789012.34", core.NewDate(2025, 1, 1)))
	require.NoError(t, err)
	got, err := repo.Get(ctx, "a", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "123456789012.34", got.Amount.String())
}

func TestRepositoryOwnerScoping(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.Create(ctx, expense("a", "Market", "10", core.NewDate(2025, 11, 3)))
	require.NoError(t, err)

	_, err = repo.Get(ctx, "b", created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = repo.Get(ctx, "a", "no-such-id")
	assert.ErrorIs(t, err, core.ErrNotFound)

	title := "stolen"
	_, err = repo.Update(ctx, "b", created.ID, core.TransactionPatch{Title: &title})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "b", created.ID), core.ErrNotFound)

	got, err := repo.Get(ctx, "a", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Market", got.Title)

	require.NoError(t, repo.Delete(ctx, "a", created.ID))
	_, err = repo.Get(ctx, "a", created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "a", created.ID), core.ErrNotFound)
}

func TestRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	clock := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	in := expense("a", "Market", "150", core.NewDate(2025, 11, 3))
	in.Notes = strp("weekly run")
	created, err := repo.Create(ctx, in)
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	amount := core.MustMoney("99.90")
	kind := core.Income
	updated, err := repo.Update(ctx, "a", created.ID, core.TransactionPatch{
		Amount: &amount,
		Kind:   &kind,
		Notes:  core.Null[string](),
	})
	require.NoError(t, err)
	assert.Equal(t, "99.90", updated.Amount.String())
	assert.Equal(t, core.Income, updated.Kind)
	assert.Nil(t, updated.Notes)
	assert.Equal(t, "Market", updated.Title)
	assert.True(t, updated.UpdatedAt.Equal(clock))
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

	got, err := repo.Get(ctx, "a", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "99.90", got.Amount.String())
	assert.Nil(t, got.Notes)

	bad := core.Category("Gadgets")
	_, err = repo.Update(ctx, "a", created.ID, core.TransactionPatch{Category: &bad})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestRepositoryListRangeAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	clock := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}

	for _, tc := range []struct {
		title string
		date  core.Date
		kind  core.Kind
	}{
		{"jan-31", core.NewDate(2025, 1, 31), core.Expense},
		{"feb-01", core.NewDate(2025, 2, 1), core.Expense},
		{"feb-14-a", core.NewDate(2025, 2, 14), core.Expense},
		{"feb-14-b", core.NewDate(2025, 2, 14), core.Income},
		{"feb-28", core.NewDate(2025, 2, 28), core.Income},
		{"mar-01", core.NewDate(2025, 3, 1), core.Expense},
	} {
		tx := expense("a", tc.title, "1", tc.date)
		tx.Kind = tc.kind
		_, err := repo.Create(ctx, tx)
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, expense("b", "other", "1", core.NewDate(2025, 2, 10)))
	require.NoError(t, err)

	feb := core.Period{Year: 2025, Month: 2}.Range()
	got, err := repo.List(ctx, "a", core.ListFilter{Range: feb})
	require.NoError(t, err)
	assert.Equal(t, []string{"feb-28", "feb-14-b", "feb-14-a", "feb-01"}, titles(got))

	got, err = repo.List(ctx, "a", core.ListFilter{Range: feb, Kind: core.Income})
	require.NoError(t, err)
	assert.Equal(t, []string{"feb-28", "feb-14-b"}, titles(got))

	got, err = repo.List(ctx, "nobody", core.ListFilter{Range: feb})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	all, err := repo.List(ctx, "a", core.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestRepositoryConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	created, err := repo.Create(ctx, expense("a", "Market", "1", core.NewDate(2025, 11, 3)))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			amount := core.MustMoney("2.50")
			_, err := repo.Update(ctx, "a", created.ID, core.TransactionPatch{Amount: &amount})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	got, err := repo.Get(ctx, "a", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "2.50", got.Amount.String())
}

func TestRepositoryClosedIsPersistenceError(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.Close())

	_, err := repo.List(ctx, "a", core.ListFilter{})
	assert.ErrorIs(t, err, core.ErrPersistence)
	assert.ErrorIs(t, repo.Ping(ctx), core.ErrPersistence)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	require.NoError(t, RunMigrations(DialectSQLite, path))
	require.NoError(t, RunMigrations(DialectSQLite, path))

	v, dirty, err := MigrationVersion(DialectSQLite, path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)
}

func titles(txs []core.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.Title)
	}
	return out
}
