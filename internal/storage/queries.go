package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the statements of the transactions table for one dialect.
type Queries struct {
	db      DBTX
	dialect Dialect
}

func New(db DBTX, dialect Dialect) *Queries {
	return &Queries{db: db, dialect: dialect}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx, dialect: q.dialect}
}

// TransactionRow mirrors a row of the transactions table.
type TransactionRow struct {
	ID         string
	OwnerID    string
	Kind       string
	Title      string
	Amount     string
	Date       time.Time
	Category   string
	Account    sql.NullString
	Notes      sql.NullString
	Recurrence string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

const transactionColumns = `id, owner_id, kind, title, amount, date, category, account, notes, recurrence, created_at, updated_at`

const insertTransaction = `INSERT INTO transactions (` + transactionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertTransaction(ctx context.Context, r TransactionRow) error {
	_, err := q.db.ExecContext(ctx, q.dialect.Rebind(insertTransaction),
		r.ID, r.OwnerID, r.Kind, r.Title, r.Amount, q.dialect.timeArg(r.Date), r.Category,
		r.Account, r.Notes, r.Recurrence, q.dialect.timeArg(r.CreatedAt), q.dialect.timeArg(r.UpdatedAt))
	return err
}

const getTransaction = `SELECT ` + transactionColumns + `
FROM transactions
WHERE id = ? AND owner_id = ?`

// GetTransaction returns sql.ErrNoRows when no row matches both id and owner.
func (q *Queries) GetTransaction(ctx context.Context, id, ownerID string) (TransactionRow, error) {
	return scanRow(q.db.QueryRowContext(ctx, q.dialect.Rebind(getTransaction), id, ownerID))
}

// GetTransactionForUpdate is GetTransaction holding a row lock where the dialect supports one.
func (q *Queries) GetTransactionForUpdate(ctx context.Context, id, ownerID string) (TransactionRow, error) {
	query := q.dialect.Rebind(getTransaction + q.dialect.lockClause())
	return scanRow(q.db.QueryRowContext(ctx, query, id, ownerID))
}

const updateTransaction = `UPDATE transactions
SET kind = ?, title = ?, amount = ?, date = ?, category = ?, account = ?, notes = ?, recurrence = ?, updated_at = ?
WHERE id = ? AND owner_id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, r TransactionRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, q.dialect.Rebind(updateTransaction),
		r.Kind, r.Title, r.Amount, q.dialect.timeArg(r.Date), r.Category, r.Account, r.Notes,
		r.Recurrence, q.dialect.timeArg(r.UpdatedAt), r.ID, r.OwnerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ? AND owner_id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id, ownerID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, q.dialect.Rebind(deleteTransaction), id, ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListTransactionsParams filters a listing. Zero times and an empty kind are ignored.
type ListTransactionsParams struct {
	OwnerID string
	From    time.Time
	To      time.Time
	Kind    string
}

func (q *Queries) ListTransactions(ctx context.Context, p ListTransactionsParams) ([]TransactionRow, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + transactionColumns + ` FROM transactions WHERE owner_id = ?`)
	args := []interface{}{p.OwnerID}
	if !p.From.IsZero() {
		b.WriteString(` AND date >= ?`)
		args = append(args, q.dialect.timeArg(p.From))
	}
	if !p.To.IsZero() {
		b.WriteString(` AND date <= ?`)
		args = append(args, q.dialect.timeArg(p.To))
	}
	if p.Kind != "" {
		b.WriteString(` AND kind = ?`)
		args = append(args, p.Kind)
	}
	b.WriteString(` ORDER BY date DESC, created_at DESC, id ASC`)

	rows, err := q.db.QueryContext(ctx, q.dialect.Rebind(b.String()), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []TransactionRow{}
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countTransactions = `SELECT COUNT(*) FROM transactions`

// CountTransactions counts rows across all owners.
func (q *Queries) CountTransactions(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countTransactions).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRow(s rowScanner) (TransactionRow, error) {
	var (
		r                      TransactionRow
		amount                 dbText
		date, created, updated dbTime
	)
	err := s.Scan(&r.ID, &r.OwnerID, &r.Kind, &r.Title, &amount, &date, &r.Category,
		&r.Account, &r.Notes, &r.Recurrence, &created, &updated)
	if err != nil {
		return TransactionRow{}, err
	}
	r.Amount = string(amount)
	r.Date = date.Time
	r.CreatedAt = created.Time
	r.UpdatedAt = updated.Time
	return r, nil
}
