package core

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	Food        Category = "Food"
	Transport   Category = "Transport"
	Housing     Category = "Housing"
	Health      Category = "Health"
	Education   Category = "Education"
	Leisure     Category = "Leisure"
	Shopping    Category = "Shopping"
	Salary      Category = "Salary"
	Investments Category = "Investments"
	Other       Category = "Other"
)

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceYearly  Recurrence = "yearly"
)

// DateLayout is the wire format of a calendar date.
const DateLayout = "2006-01-02"

// neutralHour is the time of day every stored date is pinned to, so that a
// timezone shift of up to ±11h never moves it to an adjacent calendar day.
const neutralHour = 12

// MaxTitleLength bounds Transaction.Title, in characters.
const MaxTitleLength = 200

// TitleTooLong reports whether title has more than MaxTitleLength characters.
func TitleTooLong(title string) bool {
	return utf8.RuneCountInString(title) > MaxTitleLength
}

type (
	// Kind carries the sign of a transaction; amounts themselves are never negative.
	Kind string

	Category string

	// Recurrence is a descriptive label only. Nothing generates occurrences from it.
	Recurrence string

	OwnerID string

	// Date is a calendar date pinned to the neutral time of day in UTC.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID         string
		OwnerID    OwnerID
		Kind       Kind
		Title      string
		Amount     Money
		Date       Date
		Category   Category
		Account    *string
		Notes      *string
		Recurrence Recurrence
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}
)

var categories = []Category{Food, Transport, Housing, Health, Education, Leisure, Shopping, Salary, Investments, Other}

// Portuguese labels accepted on input.
var (
	kindAliases = map[string]Kind{
		"receita": Income,
		"despesa": Expense,
	}
	categoryAliases = map[string]Category{
		"alimentação":   Food,
		"alimentacao":   Food,
		"transporte":    Transport,
		"moradia":       Housing,
		"saúde":         Health,
		"saude":         Health,
		"educação":      Education,
		"educacao":      Education,
		"lazer":         Leisure,
		"compras":       Shopping,
		"salário":       Salary,
		"salario":       Salary,
		"investimentos": Investments,
		"outros":        Other,
	}
	recurrenceAliases = map[string]Recurrence{
		"":               RecurrenceNone,
		"nao-recorrente": RecurrenceNone,
		"mensal":         RecurrenceMonthly,
		"semanal":        RecurrenceWeekly,
		"anual":          RecurrenceYearly,
	}
)

func (k Kind) IsValid() bool {
	return k == Income || k == Expense
}

// ParseKind accepts the canonical value or a known alias.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if k := Kind(s); k.IsValid() {
		return k, nil
	}
	if k, ok := kindAliases[s]; ok {
		return k, nil
	}
	return "", NewValidationError("kind", "must be income or expense")
}

func (c Category) IsValid() bool {
	for _, v := range categories {
		if c == v {
			return true
		}
	}
	return false
}

// ParseCategory matches case-insensitively against the fixed set and its aliases.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", NewValidationError("category", "is required")
	}
	lower := strings.ToLower(s)
	for _, c := range categories {
		if strings.ToLower(string(c)) == lower {
			return c, nil
		}
	}
	if c, ok := categoryAliases[lower]; ok {
		return c, nil
	}
	return "", NewValidationError("category", "unknown category "+s)
}

func (r Recurrence) IsValid() bool {
	switch r {
	case RecurrenceNone, RecurrenceMonthly, RecurrenceWeekly, RecurrenceYearly:
		return true
	default:
		return false
	}
}

func ParseRecurrence(s string) (Recurrence, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if r := Recurrence(s); r.IsValid() {
		return r, nil
	}
	if r, ok := recurrenceAliases[s]; ok {
		return r, nil
	}
	return "", NewValidationError("recurrence", "must be one of none, monthly, weekly, yearly")
}

// NewDate creates a Date from year, month, day at the neutral time of day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, neutralHour, 0, 0, 0, time.UTC)}
}

// NormalizeDate keeps the calendar day of t, as seen in t's own location,
// and pins it to the neutral time in UTC.
func NormalizeDate(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses YYYY-MM-DD and rejects impossible dates such as 2025-02-30.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) {
		// Accept full timestamps from clients that send ISO strings.
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return NormalizeDate(t), nil
		}
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, NewValidationError("date", "must be a valid YYYY-MM-DD date")
	}
	return NormalizeDate(t), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return NewValidationError("date", "is required")
	}
	return nil
}

// String returns YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Validate enforces the invariants every stored Transaction holds.
func (t Transaction) Validate() error {
	if !t.Kind.IsValid() {
		return NewValidationError("kind", "must be income or expense")
	}
	if strings.TrimSpace(t.Title) == "" {
		return NewValidationError("title", "is required")
	}
	if TitleTooLong(t.Title) {
		return NewValidationError("title", "too long (max 200 characters)")
	}
	if t.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Reason: "must not be negative", Err: ErrInvalidAmount}
	}
	if t.Amount.Cmp(MaxAmount) > 0 {
		return &ValidationError{Field: "amount", Reason: "must not exceed " + MaxAmount.String(), Err: ErrInvalidAmount}
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Category.IsValid() {
		return NewValidationError("category", "unknown category "+string(t.Category))
	}
	if t.Recurrence != "" && !t.Recurrence.IsValid() {
		return NewValidationError("recurrence", "must be one of none, monthly, weekly, yearly")
	}
	return nil
}

// SignedAmount returns the amount with the sign implied by Kind.
func (t Transaction) SignedAmount() Money {
	if t.Kind == Expense {
		return Zero().Sub(t.Amount)
	}
	return t.Amount
}

// Clone returns a copy of t that shares no pointers with it.
func (t Transaction) Clone() Transaction {
	if t.Account != nil {
		v := *t.Account
		t.Account = &v
	}
	if t.Notes != nil {
		v := *t.Notes
		t.Notes = &v
	}
	return t
}

// SortTransactions orders txs by date desc, then created desc, then id.
func SortTransactions(txs []Transaction) {
	slices.SortStableFunc(txs, func(a, b Transaction) int {
		if c := b.Date.Compare(a.Date.Time); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
