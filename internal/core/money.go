// Package core provides the ledger domain: money, transactions and period summaries.
//
// This file contains Money, an exact decimal currency amount backed by
// shopspring/decimal, and the parsing rules applied to user supplied amounts.
package core

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept for stored amounts.
const MoneyScale = 2

// RoundingPolicy decides what happens when an amount has more fractional
// digits than MoneyScale.
type RoundingPolicy string

const (
	RoundHalfUp   RoundingPolicy = "half_up"
	RoundTruncate RoundingPolicy = "truncate"
	RoundReject   RoundingPolicy = "reject"
)

// IsValid reports whether p is a known policy.
func (p RoundingPolicy) IsValid() bool {
	switch p {
	case RoundHalfUp, RoundTruncate, RoundReject:
		return true
	default:
		return false
	}
}

// Money is an exact, non-floating currency amount.
// The zero value is 0.00.
type Money struct {
	value decimal.Decimal
}

// MaxAmount is the largest amount a transaction may carry, twelve integer
// digits at MoneyScale.
var MaxAmount = MustMoney("999999999999.99")

// Zero returns 0.00.
func Zero() Money {
	return Money{}
}

// MustMoney parses s with RoundHalfUp and panics on error. Intended for tests and constants.
func MustMoney(s string) Money {
	m, err := ParseMoney(s, RoundHalfUp)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseMoney converts a decimal literal to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, surrounding
// spaces and no sign. Digits beyond MoneyScale are handled by policy:
//
//	ParseMoney("10.005", RoundHalfUp)   -> 10.01
//	ParseMoney("10.005", RoundTruncate) -> 10.00
//	ParseMoney("10.005", RoundReject)   -> ErrInvalidAmount
func ParseMoney(s string, policy RoundingPolicy) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return Money{}, ErrInvalidAmount
	}
	for _, r := range intPart + fracPart {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	if intPart == "" {
		intPart = "0"
	}

	d, err := decimal.NewFromString(intPart + "." + fracPart + "0")
	if err != nil {
		return Money{}, ErrInvalidAmount
	}

	if len(strings.TrimRight(fracPart, "0")) > MoneyScale {
		switch policy {
		case RoundTruncate:
			d = d.Truncate(MoneyScale)
		case RoundReject:
			return Money{}, ErrInvalidAmount
		default:
			d = d.Round(MoneyScale)
		}
	}
	return Money{value: d.Round(MoneyScale)}, nil
}

func (m Money) Add(o Money) Money {
	return Money{value: m.value.Add(o.value)}
}

func (m Money) Sub(o Money) Money {
	return Money{value: m.value.Sub(o.value)}
}

// Cmp returns -1, 0 or +1.
func (m Money) Cmp(o Money) int {
	return m.value.Cmp(o.value)
}

func (m Money) Equal(o Money) bool {
	return m.value.Equal(o.value)
}

func (m Money) IsZero() bool {
	return m.value.IsZero()
}

func (m Money) IsNegative() bool {
	return m.value.IsNegative()
}

// String renders the canonical exact form, e.g. "2850.00".
func (m Money) String() string {
	return m.value.StringFixed(MoneyScale)
}

// Format renders m for display only, e.g. Format("R$ ", ".", ",") -> "R$ 2.850,00".
// The result must never be parsed back for computation.
func (m Money) Format(symbol, thousandsSep, decimalSep string) string {
	neg := m.value.IsNegative()
	raw := m.value.Abs().StringFixed(MoneyScale)
	intPart, frac, _ := strings.Cut(raw, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(thousandsSep)
		}
		b.WriteRune(r)
	}
	out := symbol + b.String() + decimalSep + frac
	if neg {
		return "-" + out
	}
	return out
}

// FormatBRL renders m in the pt-BR currency style.
func (m Money) FormatBRL() string {
	return m.Format("R$ ", ".", ",")
}

// MarshalJSON encodes Money as an exact decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}
