package core

import (
	"bytes"
	"encoding/json"
	"time"
)

// Optional distinguishes an absent value from an explicit null.
//
//	absent:   Set == false
//	null:     Set == true, Null == true
//	a value:  Set == true, Null == false
//
// Used as a struct field, UnmarshalJSON is only invoked when the key is present,
// which is what makes the absent case observable.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns an explicitly cleared Optional.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// HasValue reports whether a non-null value was supplied.
func (o Optional[T]) HasValue() bool {
	return o.Set && !o.Null
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// TransactionPatch carries one slot per mutable field. Required fields use
// plain pointers (nil = unchanged); optional fields use Optional so that a
// null clears the stored value.
type TransactionPatch struct {
	Kind       *Kind
	Title      *string
	Amount     *Money
	Date       *Date
	Category   *Category
	Account    Optional[string]
	Notes      Optional[string]
	Recurrence Optional[Recurrence]
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Kind == nil && p.Title == nil && p.Amount == nil && p.Date == nil &&
		p.Category == nil && !p.Account.Set && !p.Notes.Set && !p.Recurrence.Set
}

// Apply merges p into tx: supplied values override, absent slots keep the
// existing value, null clears an optional field. ID, OwnerID and CreatedAt are
// never touched.
func (p TransactionPatch) Apply(tx Transaction, now time.Time) Transaction {
	if p.Kind != nil {
		tx.Kind = *p.Kind
	}
	if p.Title != nil {
		tx.Title = *p.Title
	}
	if p.Amount != nil {
		tx.Amount = *p.Amount
	}
	if p.Date != nil {
		tx.Date = *p.Date
	}
	if p.Category != nil {
		tx.Category = *p.Category
	}
	if p.Account.Set {
		tx.Account = optionalString(p.Account)
	}
	if p.Notes.Set {
		tx.Notes = optionalString(p.Notes)
	}
	if p.Recurrence.Set {
		if p.Recurrence.Null {
			tx.Recurrence = RecurrenceNone
		} else {
			tx.Recurrence = p.Recurrence.Value
		}
	}
	tx.UpdatedAt = now.UTC()
	return tx
}

func optionalString(o Optional[string]) *string {
	if o.Null {
		return nil
	}
	v := o.Value
	return &v
}
