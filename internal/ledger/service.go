package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"organizer/internal/core"
	"organizer/internal/log"
)

// CreateInput is the raw create payload. Amount and Date stay strings until
// the service parses them so that every failure surfaces as a field error.
type CreateInput struct {
	Kind       string
	Title      string
	Amount     string
	Date       string
	Category   string
	Account    *string
	Notes      *string
	Recurrence *string
}

// UpdateInput carries the fields to change. Unset slots are left as is. A null
// Account, Notes or Recurrence clears the stored value; a null required field
// is a validation error.
type UpdateInput struct {
	Kind       core.Optional[string]
	Title      core.Optional[string]
	Amount     core.Optional[string]
	Date       core.Optional[string]
	Category   core.Optional[string]
	Account    core.Optional[string]
	Notes      core.Optional[string]
	Recurrence core.Optional[string]
}

// Service is the authorization gate in front of a Repository.
type Service struct {
	repo     Repository
	sessions SessionResolver
	events   EventPublisher
	rounding core.RoundingPolicy
	now      func() time.Time
	logger   *log.Logger
}

type Option func(*Service)

// WithEvents enables best-effort change notifications. p is called on the
// request path; wrap a network publisher in an AsyncPublisher.
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithRounding sets how amounts with more than two decimals are handled.
func WithRounding(p core.RoundingPolicy) Option {
	return func(s *Service) {
		if p.IsValid() {
			s.rounding = p
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l.WithComponent(log.ComponentLedger) }
}

func NewService(repo Repository, sessions SessionResolver, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		sessions: sessions,
		rounding: core.RoundHalfUp,
		now:      time.Now,
		logger:   log.New(log.Config{Component: log.ComponentLedger}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rounding reports the active rounding policy.
func (s *Service) Rounding() core.RoundingPolicy {
	return s.rounding
}

func (s *Service) owner(ctx context.Context) (core.OwnerID, error) {
	if s.sessions == nil {
		return "", core.ErrUnauthenticated
	}
	owner, ok := s.sessions.ResolveSession(ctx)
	if !ok || strings.TrimSpace(string(owner)) == "" {
		return "", core.ErrUnauthenticated
	}
	return owner, nil
}

// CreateTransaction validates in and stores it for the caller.
func (s *Service) CreateTransaction(ctx context.Context, in CreateInput) (core.Transaction, error) {
	owner, err := s.owner(ctx)
	if err != nil {
		return core.Transaction{}, err
	}

	tx, err := s.buildTransaction(in)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.OwnerID = owner

	created, err := s.repo.Create(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction created", log.NewFields().
		WithTransaction(created.ID, string(owner), string(created.Kind), string(created.Category)).
		WithOperation(log.OpCreate).ToSlice()...)
	s.publish(ctx, EventCreated, created.ID, owner)
	return created, nil
}

// GetTransaction returns one of the caller's transactions.
func (s *Service) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	owner, err := s.owner(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	if strings.TrimSpace(id) == "" {
		return core.Transaction{}, core.ErrNotFound
	}
	return s.repo.Get(ctx, owner, id)
}

// UpdateTransaction applies the supplied fields to one of the caller's transactions.
func (s *Service) UpdateTransaction(ctx context.Context, id string, in UpdateInput) (core.Transaction, error) {
	owner, err := s.owner(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	patch, err := s.buildPatch(in)
	if err != nil {
		return core.Transaction{}, err
	}
	if strings.TrimSpace(id) == "" {
		return core.Transaction{}, core.ErrNotFound
	}
	if patch.IsEmpty() {
		return s.repo.Get(ctx, owner, id)
	}

	updated, err := s.repo.Update(ctx, owner, id, patch)
	if err != nil {
		return core.Transaction{}, err
	}

	s.logger.InfoContext(ctx, "Transaction updated", log.NewFields().
		WithTransaction(updated.ID, string(owner), string(updated.Kind), string(updated.Category)).
		WithOperation(log.OpUpdate).ToSlice()...)
	s.publish(ctx, EventUpdated, updated.ID, owner)
	return updated, nil
}

// DeleteTransaction permanently removes one of the caller's transactions.
func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	owner, err := s.owner(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return core.ErrNotFound
	}
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldTransactionID, id, log.FieldOwnerID, string(owner), log.FieldOperation, log.OpDelete)
	s.publish(ctx, EventDeleted, id, owner)
	return nil
}

// ListTransactions returns the caller's transactions dated inside period.
// An empty kind lists both kinds.
func (s *Service) ListTransactions(ctx context.Context, period core.Period, kind string) ([]core.Transaction, error) {
	owner, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, owner, period, kind)
}

// GetSummary aggregates the caller's transactions for period.
func (s *Service) GetSummary(ctx context.Context, period core.Period) (core.PeriodSummary, error) {
	owner, err := s.owner(ctx)
	if err != nil {
		return core.PeriodSummary{}, err
	}
	txs, err := s.list(ctx, owner, period, "")
	if err != nil {
		return core.PeriodSummary{}, err
	}
	summary := core.Summarize(txs)

	s.logger.DebugContext(ctx, "Summary computed", log.NewFields().
		WithPeriod(period.Year, period.Month).
		WithOperation(log.OpSummary).ToSlice()...)
	return summary, nil
}

func (s *Service) list(ctx context.Context, owner core.OwnerID, period core.Period, kind string) ([]core.Transaction, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	filter := core.ListFilter{Range: period.Range()}
	if strings.TrimSpace(kind) != "" {
		k, err := core.ParseKind(kind)
		if err != nil {
			return nil, err
		}
		filter.Kind = k
	}
	txs, err := s.repo.List(ctx, owner, filter)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *Service) buildTransaction(in CreateInput) (core.Transaction, error) {
	kind, err := core.ParseKind(in.Kind)
	if err != nil {
		return core.Transaction{}, err
	}
	title, err := parseTitle(in.Title)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := s.parseAmount(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	category, err := core.ParseCategory(in.Category)
	if err != nil {
		return core.Transaction{}, err
	}
	recurrence := core.RecurrenceNone
	if in.Recurrence != nil {
		if recurrence, err = core.ParseRecurrence(*in.Recurrence); err != nil {
			return core.Transaction{}, err
		}
	}

	tx := core.Transaction{
		Kind:       kind,
		Title:      title,
		Amount:     amount,
		Date:       date,
		Category:   category,
		Account:    cleanText(in.Account),
		Notes:      cleanText(in.Notes),
		Recurrence: recurrence,
	}
	return tx, tx.Validate()
}

func (s *Service) buildPatch(in UpdateInput) (core.TransactionPatch, error) {
	var p core.TransactionPatch
	required := []struct {
		field string
		slot  core.Optional[string]
	}{
		{"kind", in.Kind}, {"title", in.Title}, {"amount", in.Amount}, {"date", in.Date}, {"category", in.Category},
	}
	for _, r := range required {
		if r.slot.Set && r.slot.Null {
			return p, core.NewValidationError(r.field, "cannot be null")
		}
	}

	if in.Kind.HasValue() {
		k, err := core.ParseKind(in.Kind.Value)
		if err != nil {
			return p, err
		}
		p.Kind = &k
	}
	if in.Title.HasValue() {
		t, err := parseTitle(in.Title.Value)
		if err != nil {
			return p, err
		}
		p.Title = &t
	}
	if in.Amount.HasValue() {
		m, err := s.parseAmount(in.Amount.Value)
		if err != nil {
			return p, err
		}
		p.Amount = &m
	}
	if in.Date.HasValue() {
		d, err := core.ParseDate(in.Date.Value)
		if err != nil {
			return p, err
		}
		p.Date = &d
	}
	if in.Category.HasValue() {
		c, err := core.ParseCategory(in.Category.Value)
		if err != nil {
			return p, err
		}
		p.Category = &c
	}
	p.Account = cleanOptional(in.Account)
	p.Notes = cleanOptional(in.Notes)
	if in.Recurrence.HasValue() {
		r, err := core.ParseRecurrence(in.Recurrence.Value)
		if err != nil {
			return p, err
		}
		p.Recurrence = core.Some(r)
	} else if in.Recurrence.Set {
		p.Recurrence = core.Null[core.Recurrence]()
	}
	return p, nil
}

func (s *Service) parseAmount(raw string) (core.Money, error) {
	m, err := core.ParseMoney(raw, s.rounding)
	if err != nil {
		reason := "must be a non-negative decimal with at most two fractional digits"
		if s.rounding != core.RoundReject {
			reason = "must be a non-negative decimal"
		}
		return core.Money{}, &core.ValidationError{Field: "amount", Reason: reason, Err: err}
	}
	return m, nil
}

func parseTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", core.NewValidationError("title", "is required")
	}
	if core.TitleTooLong(title) {
		return "", core.NewValidationError("title", "too long (max 200 characters)")
	}
	return title, nil
}

// cleanText trims free text and maps blank to nil.
func cleanText(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func cleanOptional(o core.Optional[string]) core.Optional[string] {
	if !o.HasValue() {
		return o
	}
	if v := cleanText(&o.Value); v != nil {
		return core.Some(*v)
	}
	return core.Null[string]()
}

func (s *Service) publish(ctx context.Context, typ EventType, id string, owner core.OwnerID) {
	if s.events == nil {
		s.logger.DebugContext(ctx, "No event publisher configured, skipping ledger event", log.FieldEventType, string(typ))
		return
	}

	// The write is committed: an abandoned request must not cancel its event.
	ev := Event{Type: typ, TransactionID: id, OwnerID: owner, Timestamp: s.now().UTC()}
	if err := s.events.PublishLedgerEvent(context.WithoutCancel(ctx), ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldEventType, string(typ), log.FieldTransactionID, id, log.FieldError, err)
	}
}
