// Package ledger is the only entry point external callers use to read and
// write transactions. It resolves the caller, validates input and scopes every
// repository call to the caller's owner id.
package ledger

import (
	"context"
	"time"

	"organizer/internal/core"
)

//go:generate mockgen -destination=mocks/mock_ports.go -package=mocks organizer/internal/ledger Repository,EventPublisher

// Ports for outbound adapters.
type (
	// Repository stores transactions. Every method is scoped to owner: a record
	// that exists but belongs to someone else is reported as core.ErrNotFound.
	Repository interface {
		// Create assigns ID, CreatedAt and UpdatedAt and stores tx.
		Create(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		Get(ctx context.Context, owner core.OwnerID, id string) (core.Transaction, error)
		// Update merges patch into the stored record and returns the result.
		Update(ctx context.Context, owner core.OwnerID, id string, patch core.TransactionPatch) (core.Transaction, error)
		Delete(ctx context.Context, owner core.OwnerID, id string) error
		// List returns matches ordered by date desc, created_at desc, id.
		List(ctx context.Context, owner core.OwnerID, filter core.ListFilter) ([]core.Transaction, error)
	}

	// EventPublisher announces committed changes. Implementations may be slow or
	// unavailable; the service never lets a publish failure change its result.
	EventPublisher interface {
		PublishLedgerEvent(ctx context.Context, ev Event) error
	}

	// SessionResolver returns the caller's owner id, or false when the request
	// carries no valid session.
	SessionResolver interface {
		ResolveSession(ctx context.Context) (core.OwnerID, bool)
	}
)

// EventType names a committed change.
type EventType string

const (
	EventCreated EventType = "transaction.created"
	EventUpdated EventType = "transaction.updated"
	EventDeleted EventType = "transaction.deleted"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventCreated, EventUpdated, EventDeleted:
		return true
	default:
		return false
	}
}

// Event is published after a successful write.
type Event struct {
	Type          EventType    `json:"type"`
	TransactionID string       `json:"transactionId"`
	OwnerID       core.OwnerID `json:"ownerId"`
	Timestamp     time.Time    `json:"timestamp"`
}
