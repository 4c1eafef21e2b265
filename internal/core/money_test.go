package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1.00", true},
		{"1.0", "1.00", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"0", "0.00", true},
		{".5", "0.50", true},
		{" 2.50 ", "2.50", true},
		{"1.500", "1.50", true}, // trailing zeros are not extra precision
		{"3000.00", "3000.00", true},
		{"-1", "", false},
		{"+1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1e3", "", false},
		{".", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in, RoundHalfUp)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestParseMoneyRoundingPolicy(t *testing.T) {
	cases := []struct {
		policy RoundingPolicy
		in     string
		out    string
		ok     bool
	}{
		{RoundHalfUp, "10.005", "10.01", true},
		{RoundHalfUp, "10.004", "10.00", true},
		{RoundHalfUp, "0.995", "1.00", true},
		{RoundTruncate, "10.005", "10.00", true},
		{RoundTruncate, "10.009", "10.00", true},
		{RoundReject, "10.005", "", false},
		{RoundReject, "10.50", "10.50", true},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in, tc.policy)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%s %q expected %s, got %s (err=%v)", tc.policy, tc.in, tc.out, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%s %q expected ErrInvalidAmount, got %v", tc.policy, tc.in, err)
		}
	}
}

func TestMoneyArithmeticIsExact(t *testing.T) {
	sum := Zero()
	for i := 0; i < 10; i++ {
		sum = sum.Add(MustMoney("0.10"))
	}
	if !sum.Equal(MustMoney("1.00")) {
		t.Fatalf("expected 1.00, got %s", sum)
	}
	if got := MustMoney("3000").Sub(MustMoney("150")).String(); got != "2850.00" {
		t.Fatalf("expected 2850.00, got %s", got)
	}
}

func TestMoneyFormat(t *testing.T) {
	cases := map[string]string{
		"0":          "R$ 0,00",
		"12.5":       "R$ 12,50",
		"2850":       "R$ 2.850,00",
		"1234567.89": "R$ 1.234.567,89",
	}
	for in, want := range cases {
		if got := MustMoney(in).FormatBRL(); got != want {
			t.Fatalf("%s: expected %q, got %q", in, want, got)
		}
	}
	if got := Zero().Sub(MustMoney("150")).FormatBRL(); got != "-R$ 150,00" {
		t.Fatalf("negative: got %q", got)
	}
}

func TestMoneyMarshalJSON(t *testing.T) {
	b, err := json.Marshal(MustMoney("150"))
	if err != nil || string(b) != `"150.00"` {
		t.Fatalf("marshal: %s (err=%v)", b, err)
	}
}
