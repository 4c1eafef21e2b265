package sheets

import (
	"context"

	"organizer/internal/core"
)

// Columns is the mirrored row layout. The first column holds the transaction
// id and is the lookup key for upserts and deletes.
var Columns = []string{"id", "owner", "date", "kind", "title", "amount", "category", "account", "recurrence"}

// Ports for outbound adapters.
type (
	// Mirror keeps an external copy of transactions keyed by id.
	Mirror interface {
		Upsert(ctx context.Context, tx core.Transaction) error
		// Delete removes the row for id. Missing rows are not an error.
		Delete(ctx context.Context, id string) error
	}
)

// Row renders tx in Columns order.
func Row(tx core.Transaction) []string {
	account := ""
	if tx.Account != nil {
		account = *tx.Account
	}
	return []string{
		tx.ID,
		string(tx.OwnerID),
		tx.Date.String(),
		string(tx.Kind),
		tx.Title,
		tx.Amount.String(),
		string(tx.Category),
		account,
		string(tx.Recurrence),
	}
}
