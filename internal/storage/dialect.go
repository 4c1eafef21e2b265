package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect selects the SQL driver and its placeholder and type conventions.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// sqliteTimeLayout is fixed width so that text comparison orders like time.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

func (d Dialect) IsValid() bool {
	return d == DialectSQLite || d == DialectPostgres
}

// DriverName is the database/sql driver registered for d.
func (d Dialect) DriverName() string {
	return string(d)
}

// Rebind rewrites ? placeholders to $1..$n for postgres.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// timeArg encodes t for a query parameter.
func (d Dialect) timeArg(t time.Time) any {
	if d == DialectSQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

// lockClause is appended to a read that precedes an update in the same transaction.
func (d Dialect) lockClause() string {
	if d == DialectPostgres {
		return " FOR UPDATE"
	}
	return ""
}

// dbTime scans a timestamp stored either natively or as sqliteTimeLayout text.
type dbTime struct {
	time.Time
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("scan time: unsupported type %T", src)
	}
}

func (t *dbTime) parse(s string) error {
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("scan time %q: %w", s, err)
	}
	t.Time = parsed.UTC()
	return nil
}

// dbText scans TEXT or NUMERIC columns into their literal text.
type dbText string

func (t *dbText) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*t = dbText(v)
	case []byte:
		*t = dbText(string(v))
	case int64:
		*t = dbText(strconv.FormatInt(v, 10))
	case float64:
		// only reachable if a non-text value was written outside this package
		*t = dbText(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		return fmt.Errorf("scan text: unsupported type %T", src)
	}
	return nil
}
