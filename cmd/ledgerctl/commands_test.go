package main

import (
	"bytes"
	"strings"
	"testing"

	"organizer/internal/core"
)

func TestWriteSummary(t *testing.T) {
	s := core.Summarize([]core.Transaction{
		{Kind: core.Income, Amount: core.MustMoney("5000"), Category: core.Salary},
		{Kind: core.Expense, Amount: core.MustMoney("1500"), Category: core.Housing},
		{Kind: core.Expense, Amount: core.MustMoney("650"), Category: core.Food},
	})

	var buf bytes.Buffer
	if err := writeSummary(&buf, core.Period{Year: 2025, Month: 11}, s); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"2025-11", "R$ 5.000,00", "R$ 2.150,00", "R$ 2.850,00", "Housing"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteList(t *testing.T) {
	var buf bytes.Buffer
	err := writeList(&buf, []core.Transaction{{
		ID:       "tx-1",
		Kind:     core.Expense,
		Title:    "Rent",
		Amount:   core.MustMoney("1500"),
		Date:     core.NewDate(2025, 11, 10),
		Category: core.Housing,
	}})
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], "2025-11-10") || !strings.Contains(lines[1], "tx-1") {
		t.Errorf("unexpected row %q", lines[1])
	}
}
