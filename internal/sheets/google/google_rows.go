package google

import (
	"fmt"
	"strings"

	"organizer/internal/sheets"
)

// findRow returns the 1-based row whose first cell equals id, or 0.
func findRow(values [][]any, id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0
	}
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

// quoteSheet quotes a sheet name for A1 notation when it needs it.
func quoteSheet(name string) string {
	if strings.ContainsAny(name, " '!") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}

func rowRange(sheet string, row int) string {
	last := rune('A' + len(sheets.Columns) - 1)
	return fmt.Sprintf("%s!A%d:%c%d", quoteSheet(sheet), row, last, row)
}

func toValues(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
