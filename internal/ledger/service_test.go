package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"organizer/internal/core"
	"organizer/internal/ledger"
	"organizer/internal/ledger/mocks"
	"organizer/internal/log"
	"organizer/internal/storage/memory"
)

type ownerKey struct{}

// sessions resolves the owner stored under ownerKey.
type sessions struct{}

func (sessions) ResolveSession(ctx context.Context) (core.OwnerID, bool) {
	owner, ok := ctx.Value(ownerKey{}).(core.OwnerID)
	return owner, ok
}

func as(owner core.OwnerID) context.Context {
	return context.WithValue(context.Background(), ownerKey{}, owner)
}

func strp(s string) *string { return &s }

// storedCount counts owner's records dated November 2025.
func storedCount(t *testing.T, store *memory.Store, owner core.OwnerID) int {
	t.Helper()
	txs, err := store.List(context.Background(), owner, core.ListFilter{Range: core.Period{Year: 2025, Month: 11}.Range()})
	require.NoError(t, err)
	return len(txs)
}

func newService(repo ledger.Repository, opts ...ledger.Option) *ledger.Service {
	opts = append([]ledger.Option{ledger.WithLogger(log.Discard())}, opts...)
	return ledger.NewService(repo, sessions{}, opts...)
}

func market() ledger.CreateInput {
	return ledger.CreateInput{Kind: "expense", Title: "Market", Amount: "150.00", Date: "2025-11-03", Category: "Food"}
}

func salary() ledger.CreateInput {
	return ledger.CreateInput{Kind: "income", Title: "Salary", Amount: "3000.00", Date: "2025-11-05", Category: "Salary"}
}

func TestUnauthenticatedNeverReachesRepository(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl) // no expectations: any call fails the test
	svc := newService(repo)
	ctx := context.Background()
	nov := core.Period{Year: 2025, Month: 11}

	_, err := svc.CreateTransaction(ctx, market())
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
	_, err = svc.GetTransaction(ctx, "id")
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
	_, err = svc.UpdateTransaction(ctx, "id", ledger.UpdateInput{Title: core.Some("x")})
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
	assert.ErrorIs(t, svc.DeleteTransaction(ctx, "id"), core.ErrUnauthenticated)
	_, err = svc.ListTransactions(ctx, nov, "")
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
	_, err = svc.GetSummary(ctx, nov)
	assert.ErrorIs(t, err, core.ErrUnauthenticated)

	// a blank owner id is not a session either
	_, err = svc.GetSummary(as(""), nov)
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestCreateValidationHasNoSideEffect(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	svc := newService(repo)
	ctx := as("a")

	cases := []struct {
		name  string
		in    func(*ledger.CreateInput)
		field string
	}{
		{"unknown kind", func(in *ledger.CreateInput) { in.Kind = "transfer" }, "kind"},
		{"blank title", func(in *ledger.CreateInput) { in.Title = "  " }, "title"},
		{"negative amount", func(in *ledger.CreateInput) { in.Amount = "-1" }, "amount"},
		{"malformed amount", func(in *ledger.CreateInput) { in.Amount = "12abc" }, "amount"},
		{"impossible date", func(in *ledger.CreateInput) { in.Date = "2025-02-30" }, "date"},
		{"unknown category", func(in *ledger.CreateInput) { in.Category = "Gadgets" }, "category"},
		{"missing category", func(in *ledger.CreateInput) { in.Category = "" }, "category"},
		{"unknown recurrence", func(in *ledger.CreateInput) { in.Recurrence = strp("daily") }, "recurrence"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := market()
			tc.in(&in)
			_, err := svc.CreateTransaction(ctx, in)
			require.ErrorIs(t, err, core.ErrValidation)
			var verr *core.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestCreateAmountErrorsMatchInvalidAmount(t *testing.T) {
	svc := newService(memory.New())
	in := market()
	in.Amount = "1.2.3"
	_, err := svc.CreateTransaction(as("a"), in)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestCreateRoundingPolicy(t *testing.T) {
	cases := []struct {
		policy core.RoundingPolicy
		want   string
	}{
		{core.RoundHalfUp, "10.01"},
		{core.RoundTruncate, "10.00"},
	}
	for _, tc := range cases {
		svc := newService(memory.New(), ledger.WithRounding(tc.policy))
		in := market()
		in.Amount = "10.005"
		got, err := svc.CreateTransaction(as("a"), in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.Amount.String(), tc.policy)
	}

	store := memory.New()
	svc := newService(store, ledger.WithRounding(core.RoundReject))
	in := market()
	in.Amount = "10.005"
	_, err := svc.CreateTransaction(as("a"), in)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.Equal(t, 0, storedCount(t, store, "a"))
}

func TestMonthSummaryScenario(t *testing.T) {
	svc := newService(memory.New())
	a := as("owner-a")

	_, err := svc.CreateTransaction(a, market())
	require.NoError(t, err)
	_, err = svc.CreateTransaction(a, salary())
	require.NoError(t, err)

	nov := core.Period{Year: 2025, Month: 11}
	s, err := svc.GetSummary(a, nov)
	require.NoError(t, err)
	assert.Equal(t, "3000.00", s.TotalIncome.String())
	assert.Equal(t, "150.00", s.TotalExpense.String())
	assert.Equal(t, "2850.00", s.Balance.String())
	assert.Equal(t, 2, s.TransactionCount)

	food, ok := s.Category(core.Food)
	require.True(t, ok)
	assert.Equal(t, "150.00", food.ExpenseSubtotal.String())
	assert.Equal(t, "0.00", food.IncomeSubtotal.String())
	sal, ok := s.Category(core.Salary)
	require.True(t, ok)
	assert.Equal(t, "3000.00", sal.IncomeSubtotal.String())
	assert.Equal(t, "0.00", sal.ExpenseSubtotal.String())

	other, err := svc.GetSummary(as("owner-b"), nov)
	require.NoError(t, err)
	assert.True(t, other.TotalIncome.IsZero())
	assert.True(t, other.TotalExpense.IsZero())
	assert.True(t, other.Balance.IsZero())
	assert.Empty(t, other.ByCategory)
	assert.Equal(t, 0, other.TransactionCount)
}

func TestCrossOwnerAccessIsNotFound(t *testing.T) {
	svc := newService(memory.New())
	created, err := svc.CreateTransaction(as("a"), market())
	require.NoError(t, err)

	b := as("b")
	_, err = svc.GetTransaction(b, created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = svc.UpdateTransaction(b, created.ID, ledger.UpdateInput{Title: core.Some("mine now")})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteTransaction(b, created.ID), core.ErrNotFound)

	// same signal as an id that never existed
	_, err = svc.GetTransaction(b, "does-not-exist")
	assert.ErrorIs(t, err, core.ErrNotFound)

	got, err := svc.GetTransaction(as("a"), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Market", got.Title)
}

func TestListFebruaryBoundaries(t *testing.T) {
	svc := newService(memory.New())
	a := as("a")
	for _, date := range []string{"2025-01-31", "2025-02-01", "2025-02-14T23:59:00-03:00", "2025-02-28", "2025-03-01"} {
		in := market()
		in.Date = date
		in.Title = date
		_, err := svc.CreateTransaction(a, in)
		require.NoError(t, err)
	}

	got, err := svc.ListTransactions(a, core.Period{Year: 2025, Month: 2}, "")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2025-02-28", got[0].Date.String())
	assert.Equal(t, "2025-02-14", got[1].Date.String())
	assert.Equal(t, "2025-02-01", got[2].Date.String())

	_, err = svc.ListTransactions(a, core.Period{Year: 2025, Month: 13}, "")
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = svc.ListTransactions(a, core.Period{Year: 2025, Month: 2}, "transfer")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestListKindFilter(t *testing.T) {
	svc := newService(memory.New())
	a := as("a")
	_, err := svc.CreateTransaction(a, market())
	require.NoError(t, err)
	_, err = svc.CreateTransaction(a, salary())
	require.NoError(t, err)

	got, err := svc.ListTransactions(a, core.Period{Year: 2025, Month: 11}, "income")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Salary", got[0].Title)
}

func TestUpdateMergesSuppliedFields(t *testing.T) {
	svc := newService(memory.New())
	a := as("a")
	in := market()
	in.Account = strp("Nubank")
	in.Notes = strp("weekly")
	in.Recurrence = strp("weekly")
	created, err := svc.CreateTransaction(a, in)
	require.NoError(t, err)

	updated, err := svc.UpdateTransaction(a, created.ID, ledger.UpdateInput{
		Amount: core.Some("180,40"),
		Notes:  core.Null[string](),
	})
	require.NoError(t, err)
	assert.Equal(t, "180.40", updated.Amount.String())
	assert.Equal(t, "Market", updated.Title)
	assert.Nil(t, updated.Notes)
	require.NotNil(t, updated.Account)
	assert.Equal(t, "Nubank", *updated.Account)
	assert.Equal(t, core.RecurrenceWeekly, updated.Recurrence)

	_, err = svc.UpdateTransaction(a, created.ID, ledger.UpdateInput{Category: core.Some("Gadgets")})
	assert.ErrorIs(t, err, core.ErrValidation)
	got, err := svc.GetTransaction(a, created.ID)
	require.NoError(t, err)
	assert.Equal(t, core.Food, got.Category)
}

func TestUpdateRejectsNullRequiredFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl) // no expectations: the repository is never reached
	svc := newService(repo)

	cases := map[string]ledger.UpdateInput{
		"kind":     {Kind: core.Null[string]()},
		"title":    {Title: core.Null[string]()},
		"amount":   {Amount: core.Null[string]()},
		"date":     {Date: core.Null[string]()},
		"category": {Category: core.Null[string]()},
	}
	for field, in := range cases {
		t.Run(field, func(t *testing.T) {
			_, err := svc.UpdateTransaction(as("a"), "tx-1", in)
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, field, verr.Field)
		})
	}
}

func TestWritesPublishEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	events := mocks.NewMockEventPublisher(ctrl)
	fixed := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	svc := newService(memory.New(), ledger.WithEvents(events), ledger.WithClock(func() time.Time { return fixed }))
	a := as("a")

	var seen []ledger.Event
	events.EXPECT().PublishLedgerEvent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev ledger.Event) error {
			seen = append(seen, ev)
			return nil
		}).Times(3)

	created, err := svc.CreateTransaction(a, market())
	require.NoError(t, err)
	_, err = svc.UpdateTransaction(a, created.ID, ledger.UpdateInput{Title: core.Some("Groceries")})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteTransaction(a, created.ID))

	require.Len(t, seen, 3)
	assert.Equal(t, ledger.EventCreated, seen[0].Type)
	assert.Equal(t, ledger.EventUpdated, seen[1].Type)
	assert.Equal(t, ledger.EventDeleted, seen[2].Type)
	for _, ev := range seen {
		assert.Equal(t, created.ID, ev.TransactionID)
		assert.Equal(t, core.OwnerID("a"), ev.OwnerID)
		assert.Equal(t, fixed, ev.Timestamp)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	events := mocks.NewMockEventPublisher(ctrl)
	events.EXPECT().PublishLedgerEvent(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
	store := memory.New()
	svc := newService(store, ledger.WithEvents(events))

	created, err := svc.CreateTransaction(as("a"), market())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, storedCount(t, store, "a"))
}

func TestRepositoryFailureIsPropagated(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	svc := newService(repo)
	storeErr := core.PersistenceError("list", errors.New("disk I/O error"))

	repo.EXPECT().
		List(gomock.Any(), core.OwnerID("a"), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ core.OwnerID, f core.ListFilter) ([]core.Transaction, error) {
			assert.Equal(t, core.Period{Year: 2025, Month: 2}.Range(), f.Range)
			assert.Equal(t, core.Kind(""), f.Kind)
			return nil, storeErr
		})

	_, err := svc.GetSummary(as("a"), core.Period{Year: 2025, Month: 2})
	assert.ErrorIs(t, err, core.ErrPersistence)
}

func TestEmptyUpdateReturnsCurrentRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	svc := newService(repo)
	stored := core.Transaction{ID: "tx-1", OwnerID: "a", Title: "Market"}

	repo.EXPECT().Get(gomock.Any(), core.OwnerID("a"), "tx-1").Return(stored, nil)

	got, err := svc.UpdateTransaction(as("a"), "tx-1", ledger.UpdateInput{})
	require.NoError(t, err)
	assert.Equal(t, stored, got)
}
