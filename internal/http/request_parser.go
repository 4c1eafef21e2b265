package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"organizer/internal/core"
	"organizer/internal/ledger"
)

// maxBodyBytes bounds a JSON request body.
const maxBodyBytes = 64 << 10

// amountLiteral keeps the exact text of an amount whether it arrived as a
// JSON string or a JSON number, so that decimal parsing never goes through
// a float.
type amountLiteral string

func (a *amountLiteral) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountLiteral(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("amount must be a string or a number")
	}
	*a = amountLiteral(n.String())
	return nil
}

type createRequest struct {
	Kind       string        `json:"kind"`
	Title      string        `json:"title"`
	Amount     amountLiteral `json:"amount"`
	Date       string        `json:"date"`
	Category   string        `json:"category"`
	Account    *string       `json:"account"`
	Notes      *string       `json:"notes"`
	Recurrence *string       `json:"recurrence"`
}

func (r createRequest) input() ledger.CreateInput {
	return ledger.CreateInput{
		Kind:       r.Kind,
		Title:      r.Title,
		Amount:     string(r.Amount),
		Date:       r.Date,
		Category:   r.Category,
		Account:    r.Account,
		Notes:      r.Notes,
		Recurrence: r.Recurrence,
	}
}

// updateRequest keeps absent and null apart for every field; the service
// decides which fields may be cleared.
type updateRequest struct {
	Kind       core.Optional[string]        `json:"kind"`
	Title      core.Optional[string]        `json:"title"`
	Amount     core.Optional[amountLiteral] `json:"amount"`
	Date       core.Optional[string]        `json:"date"`
	Category   core.Optional[string]        `json:"category"`
	Account    core.Optional[string]        `json:"account"`
	Notes      core.Optional[string]        `json:"notes"`
	Recurrence core.Optional[string]        `json:"recurrence"`
}

func (r updateRequest) input() ledger.UpdateInput {
	return ledger.UpdateInput{
		Kind:       r.Kind,
		Title:      r.Title,
		Amount:     core.Optional[string]{Set: r.Amount.Set, Null: r.Amount.Null, Value: string(r.Amount.Value)},
		Date:       r.Date,
		Category:   r.Category,
		Account:    r.Account,
		Notes:      r.Notes,
		Recurrence: r.Recurrence,
	}
}

// decodeJSON reads one JSON object from the request body. Unknown fields are
// rejected so typos never pass silently.
func decodeJSON(c *gin.Context, dst any) error {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
	if err != nil {
		return &core.ValidationError{Field: "body", Reason: "unreadable request body", Err: err}
	}
	if len(body) > maxBodyBytes {
		return core.NewValidationError("body", "request body too large")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &core.ValidationError{Field: fieldOf(err), Reason: "malformed JSON: " + err.Error(), Err: err}
	}
	return nil
}

// fieldOf names the offending JSON field when the decoder reports one.
func fieldOf(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return typeErr.Field
	}
	msg := err.Error()
	if i := strings.Index(msg, "json: unknown field "); i >= 0 {
		return strings.Trim(msg[i+len("json: unknown field "):], `"`)
	}
	if strings.Contains(msg, "amount") {
		return "amount"
	}
	return "body"
}

// parsePeriod reads month and year from the query. Missing values default to
// the current month in UTC. A value that is not an integer becomes 0, which
// the service rejects as out of range once the caller is authenticated.
func parsePeriod(query url.Values, now time.Time) core.Period {
	now = now.UTC()
	p := core.Period{Year: now.Year(), Month: int(now.Month())}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		p.Year = atoiOrZero(v)
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		p.Month = atoiOrZero(v)
	}
	return p
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
