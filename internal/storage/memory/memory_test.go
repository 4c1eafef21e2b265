package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"organizer/internal/core"
)

func sample(owner core.OwnerID, title string, date core.Date, kind core.Kind) core.Transaction {
	return core.Transaction{
		OwnerID:  owner,
		Kind:     kind,
		Title:    title,
		Amount:   core.MustMoney("10.00"),
		Date:     date,
		Category: core.Other,
	}
}

func TestStoreOwnerScoping(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.Create(ctx, sample("a", "Market", core.NewDate(2025, 11, 3), core.Expense))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, core.RecurrenceNone, created.Recurrence)

	_, err = s.Get(ctx, "b", created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.Get(ctx, "a", "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	title := "hijack"
	_, err = s.Update(ctx, "b", created.ID, core.TransactionPatch{Title: &title})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "b", created.ID), core.ErrNotFound)

	got, err := s.Get(ctx, "a", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Market", got.Title)

	require.NoError(t, s.Delete(ctx, "a", created.ID))
	_, err = s.Get(ctx, "a", created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	left, err := s.List(ctx, "a", core.ListFilter{Range: core.Period{Year: 2025, Month: 11}.Range()})
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestStoreListOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC)
	s := NewWithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})

	_, err := s.Create(ctx, sample("a", "first", core.NewDate(2025, 11, 3), core.Expense))
	require.NoError(t, err)
	_, err = s.Create(ctx, sample("a", "second", core.NewDate(2025, 11, 3), core.Income))
	require.NoError(t, err)
	_, err = s.Create(ctx, sample("a", "latest", core.NewDate(2025, 11, 20), core.Expense))
	require.NoError(t, err)
	_, err = s.Create(ctx, sample("a", "october", core.NewDate(2025, 10, 31), core.Expense))
	require.NoError(t, err)
	_, err = s.Create(ctx, sample("b", "other owner", core.NewDate(2025, 11, 5), core.Expense))
	require.NoError(t, err)

	nov := core.Period{Year: 2025, Month: 11}.Range()
	got, err := s.List(ctx, "a", core.ListFilter{Range: nov})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"latest", "second", "first"}, titles(got))

	got, err = s.List(ctx, "a", core.ListFilter{Range: nov, Kind: core.Income})
	require.NoError(t, err)
	assert.Equal(t, []string{"second"}, titles(got))

	got, err = s.List(ctx, "c", core.ListFilter{Range: nov})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	account := "Nubank"
	in := sample("a", "Market", core.NewDate(2025, 11, 3), core.Expense)
	in.Account = &account

	created, err := s.Create(ctx, in)
	require.NoError(t, err)
	*created.Account = "changed"

	got, err := s.Get(ctx, "a", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nubank", *got.Account)
}

func TestStoreUpdateRejectsInvalidMerge(t *testing.T) {
	ctx := context.Background()
	s := New()
	created, err := s.Create(ctx, sample("a", "Market", core.NewDate(2025, 11, 3), core.Expense))
	require.NoError(t, err)

	bad := core.Category("Gadgets")
	_, err = s.Update(ctx, "a", created.ID, core.TransactionPatch{Category: &bad})
	assert.ErrorIs(t, err, core.ErrValidation)

	got, err := s.Get(ctx, "a", created.ID)
	require.NoError(t, err)
	assert.Equal(t, core.Other, got.Category)
}

func TestStoreConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	s := New()
	created, err := s.Create(ctx, sample("a", "Market", core.NewDate(2025, 11, 3), core.Expense))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			amount := core.MustMoney("1.00")
			_, _ = s.Update(ctx, "a", created.ID, core.TransactionPatch{Amount: &amount})
			_, _ = s.List(ctx, "a", core.ListFilter{})
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "a", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "1.00", got.Amount.String())
}

func titles(txs []core.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.Title)
	}
	return out
}
