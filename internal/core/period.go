package core

import (
	"fmt"
	"time"
)

// Period is a calendar month of a year.
type Period struct {
	Year  int
	Month int // 1-12
}

// DateRange is inclusive on both ends. A zero bound is unbounded.
type DateRange struct {
	From time.Time
	To   time.Time
}

// ListFilter narrows a repository listing. An empty Kind matches both kinds.
type ListFilter struct {
	Range DateRange
	Kind  Kind
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return NewValidationError("month", "must be between 1 and 12")
	}
	if p.Year < 1 || p.Year > 9999 {
		return NewValidationError("year", "must be between 1 and 9999")
	}
	return nil
}

// Range covers the first through the last calendar day of the month. The
// bounds span the whole UTC days so the stored time of day never matters.
func (p Period) Range() DateRange {
	first := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)
	return DateRange{
		From: first,
		To:   next.Add(-time.Nanosecond),
	}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Contains reports whether t falls inside r.
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// Matches reports whether tx passes the filter.
func (f ListFilter) Matches(tx Transaction) bool {
	if f.Kind != "" && tx.Kind != f.Kind {
		return false
	}
	return f.Range.Contains(tx.Date.Time)
}
