package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"organizer/internal/core"
	"organizer/internal/log"
)

// Repository is the SQL-backed ledger store. Every statement filters on
// owner_id, so records of other owners are indistinguishable from missing ones.
type Repository struct {
	db      *sql.DB
	queries *Queries
	dialect Dialect
	now     func() time.Time
	logger  *log.Logger
}

// NewSQLiteRepository opens (creating if needed) the database file at dbPath
// and applies pending migrations.
func NewSQLiteRepository(dbPath string, logger *log.Logger) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return Open(context.Background(), DialectSQLite, dbPath, logger)
}

// NewPostgresRepository connects to url and applies pending migrations.
func NewPostgresRepository(url string, logger *log.Logger) (*Repository, error) {
	return Open(context.Background(), DialectPostgres, url, logger)
}

// Open connects with dialect's driver, pings, and migrates.
func Open(ctx context.Context, dialect Dialect, dsn string, logger *log.Logger) (*Repository, error) {
	if !dialect.IsValid() {
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	if logger == nil {
		logger = log.Discard()
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// SQLite allows one writer; a single connection avoids SQLITE_BUSY under concurrent requests.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{
		db:      db,
		queries: New(db, dialect),
		dialect: dialect,
		now:     time.Now,
		logger:  logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (r *Repository) Dialect() Dialect {
	return r.dialect
}

func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return core.PersistenceError("ping", err)
	}
	return nil
}

// Count returns the number of stored transactions across all owners.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountTransactions(ctx)
	if err != nil {
		return 0, core.PersistenceError("count", err)
	}
	return n, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.Recurrence == "" {
		tx.Recurrence = core.RecurrenceNone
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	now := r.now().UTC()
	tx.ID = uuid.NewString()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	if err := r.queries.InsertTransaction(ctx, toRow(tx)); err != nil {
		return core.Transaction{}, core.PersistenceError("create transaction", err)
	}

	r.logger.DebugContext(ctx, "Transaction stored",
		log.FieldTransactionID, tx.ID, log.FieldOwnerID, string(tx.OwnerID), log.FieldOperation, log.OpCreate)
	return tx, nil
}

func (r *Repository) Get(ctx context.Context, owner core.OwnerID, id string) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id, string(owner))
	if err != nil {
		return core.Transaction{}, mapError("get transaction", err)
	}
	return fromRow(row)
}

// Update reads, merges and writes the record inside one database transaction.
func (r *Repository) Update(ctx context.Context, owner core.OwnerID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, core.PersistenceError("begin update", err)
	}
	defer sqlTx.Rollback()

	q := r.queries.WithTx(sqlTx)
	row, err := q.GetTransactionForUpdate(ctx, id, string(owner))
	if err != nil {
		return core.Transaction{}, mapError("load transaction", err)
	}
	current, err := fromRow(row)
	if err != nil {
		return core.Transaction{}, err
	}

	updated := patch.Apply(current, r.now())
	if err := updated.Validate(); err != nil {
		return core.Transaction{}, err
	}

	n, err := q.UpdateTransaction(ctx, toRow(updated))
	if err != nil {
		return core.Transaction{}, core.PersistenceError("update transaction", err)
	}
	if n == 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	if err := sqlTx.Commit(); err != nil {
		return core.Transaction{}, core.PersistenceError("commit update", err)
	}

	r.logger.DebugContext(ctx, "Transaction updated",
		log.FieldTransactionID, id, log.FieldOwnerID, string(owner), log.FieldOperation, log.OpUpdate)
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, owner core.OwnerID, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, id, string(owner))
	if err != nil {
		return core.PersistenceError("delete transaction", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context, owner core.OwnerID, filter core.ListFilter) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, ListTransactionsParams{
		OwnerID: string(owner),
		From:    filter.Range.From,
		To:      filter.Range.To,
		Kind:    string(filter.Kind),
	})
	if err != nil {
		return nil, core.PersistenceError("list transactions", err)
	}

	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func mapError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return core.PersistenceError(op, err)
}

func toRow(tx core.Transaction) TransactionRow {
	return TransactionRow{
		ID:         tx.ID,
		OwnerID:    string(tx.OwnerID),
		Kind:       string(tx.Kind),
		Title:      tx.Title,
		Amount:     tx.Amount.String(),
		Date:       tx.Date.Time,
		Category:   string(tx.Category),
		Account:    nullString(tx.Account),
		Notes:      nullString(tx.Notes),
		Recurrence: string(tx.Recurrence),
		CreatedAt:  tx.CreatedAt,
		UpdatedAt:  tx.UpdatedAt,
	}
}

func fromRow(row TransactionRow) (core.Transaction, error) {
	amount, err := core.ParseMoney(row.Amount, core.RoundHalfUp)
	if err != nil {
		return core.Transaction{}, core.PersistenceError("decode amount", fmt.Errorf("row %s: %q: %w", row.ID, row.Amount, err))
	}
	return core.Transaction{
		ID:         row.ID,
		OwnerID:    core.OwnerID(row.OwnerID),
		Kind:       core.Kind(row.Kind),
		Title:      row.Title,
		Amount:     amount,
		Date:       core.NormalizeDate(row.Date),
		Category:   core.Category(row.Category),
		Account:    stringPtr(row.Account),
		Notes:      stringPtr(row.Notes),
		Recurrence: core.Recurrence(row.Recurrence),
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
