package google

import (
	"testing"

	"organizer/internal/core"
	"organizer/internal/sheets"
)

func TestFindRow(t *testing.T) {
	values := [][]any{
		{"id", "owner"},
		{},
		{"abc", "a"},
		{" def ", "b"},
	}
	tests := []struct {
		id   string
		want int
	}{
		{"abc", 3},
		{"def", 4},
		{"missing", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := findRow(values, tt.id); got != tt.want {
			t.Errorf("findRow(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestRowRange(t *testing.T) {
	if got := rowRange("Ledger", 7); got != "Ledger!A7:I7" {
		t.Errorf("rowRange = %q", got)
	}
	if got := rowRange("2025 Ledger", 2); got != "'2025 Ledger'!A2:I2" {
		t.Errorf("rowRange quoted = %q", got)
	}
	if got := quoteSheet("it's"); got != "'it''s'" {
		t.Errorf("quoteSheet = %q", got)
	}
}

func TestRowValues(t *testing.T) {
	account := "Nubank"
	tx := core.Transaction{
		ID:         "tx-1",
		OwnerID:    "a",
		Kind:       core.Income,
		Title:      "Salary",
		Amount:     core.MustMoney("5000"),
		Date:       core.NewDate(2025, 11, 5),
		Category:   core.Salary,
		Account:    &account,
		Recurrence: core.RecurrenceMonthly,
	}
	got := toValues(sheets.Row(tx))
	want := []any{"tx-1", "a", "2025-11-05", "income", "Salary", "5000.00", "Salary", "Nubank", "monthly"}
	if len(got) != len(sheets.Columns) {
		t.Fatalf("row has %d cells, want %d", len(got), len(sheets.Columns))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cell %d = %v, want %v", i, got[i], want[i])
		}
	}
}
