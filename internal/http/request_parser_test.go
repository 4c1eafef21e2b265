package http

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"organizer/internal/core"
)

func TestAmountLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"10.50"`, "10.50"},
		{`"1.234,56"`, "1.234,56"},
		{`10.005`, "10.005"},
		{`1500`, "1500"},
	}
	for _, tt := range tests {
		var a amountLiteral
		require.NoError(t, json.Unmarshal([]byte(tt.in), &a), tt.in)
		assert.Equal(t, tt.want, string(a))
	}

	var a amountLiteral
	assert.Error(t, json.Unmarshal([]byte(`true`), &a))
}

func TestUpdateRequest_DistinguishesNullFromAbsent(t *testing.T) {
	var req updateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"notes":null,"amount":"5"}`), &req))

	in := req.input()
	assert.True(t, in.Notes.Set)
	assert.True(t, in.Notes.Null)
	assert.False(t, in.Account.Set)
	assert.Equal(t, core.Some("5"), in.Amount)
	assert.False(t, in.Title.Set)
}

func TestUpdateRequest_NullRequiredFieldsStayNull(t *testing.T) {
	var req updateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"kind":null,"amount":null,"title":"x"}`), &req))

	in := req.input()
	assert.Equal(t, core.Null[string](), in.Kind)
	assert.Equal(t, core.Null[string](), in.Amount)
	assert.Equal(t, core.Some("x"), in.Title)
	assert.False(t, in.Date.Set)
}

func TestParsePeriod(t *testing.T) {
	now := time.Date(2025, 12, 31, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, core.Period{Year: 2025, Month: 12}, parsePeriod(url.Values{}, now))
	assert.Equal(t, core.Period{Year: 2024, Month: 2}, parsePeriod(url.Values{"month": {"2"}, "year": {"2024"}}, now))
	assert.Equal(t, core.Period{Year: 2025, Month: 0}, parsePeriod(url.Values{"month": {"feb"}}, now))
	assert.Equal(t, core.Period{Year: 0, Month: 12}, parsePeriod(url.Values{"year": {"20x5"}}, now))
}
