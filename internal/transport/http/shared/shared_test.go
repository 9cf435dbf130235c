package shared

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorSortsIssues(t *testing.T) {
	v := NewValidator()
	v.Required("year", " ", "is required")
	v.Add("month", "must be between 1 and 12")
	v.Enum("status", "closed", []string{"PENDING", "APPROVED"}, "unknown status")
	v.Enum("status", "approved", []string{"PENDING", "APPROVED"}, "unknown status")

	issues := v.Issues()
	require.Len(t, issues, 3)
	assert.Equal(t, "month", issues[0].Field)
	assert.Equal(t, "status", issues[1].Field)
	assert.Equal(t, "year", issues[2].Field)
}

func TestValidatorInt(t *testing.T) {
	v := NewValidator()
	assert.Equal(t, 3, v.Int("month", "3"))
	assert.Equal(t, 0, v.Int("year", "abc"))
	assert.Equal(t, 0, v.Int("day", ""))
	assert.Len(t, v.Issues(), 2)
}

func TestRejectWritesValidationEnvelope(t *testing.T) {
	v := NewValidator()
	v.Add("month", "is required")
	rec := httptest.NewRecorder()
	require.True(t, v.Reject(rec, "req-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Fields []ValidationIssue `json:"fields"`
			} `json:"details"`
		} `json:"error"`
		RequestID string `json:"requestId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Equal(t, "req-1", body.RequestID)
	assert.Equal(t, []ValidationIssue{{Field: "month", Reason: "is required"}}, body.Error.Details.Fields)
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Month int `json:"month"`
	}

	cases := []struct {
		name   string
		body   string
		limit  int64
		ok     bool
		status int
	}{
		{name: "valid", body: `{"month":3}`, ok: true},
		{name: "unknown field", body: `{"month":3,"extra":1}`, status: http.StatusBadRequest},
		{name: "empty", body: ``, status: http.StatusBadRequest},
		{name: "trailing object", body: `{"month":3}{"month":4}`, status: http.StatusBadRequest},
		{name: "too large", body: `{"month":3}`, limit: 4, status: http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			if tc.limit > 0 {
				req.Body = http.MaxBytesReader(rec, req.Body, tc.limit)
			}
			var dst payload
			ok := DecodeJSON(rec, req, &dst, "req")
			assert.Equal(t, tc.ok, ok)
			if !tc.ok {
				assert.Equal(t, tc.status, rec.Code)
			}
		})
	}
}

func TestPage(t *testing.T) {
	v := NewValidator()
	p := v.Page(url.Values{"limit": {"500"}, "offset": {"20"}}, 50, 200)
	assert.Equal(t, Pagination{Limit: 200, Offset: 20}, p)
	assert.False(t, v.HasIssues())

	p = v.Page(url.Values{}, 50, 200)
	assert.Equal(t, Pagination{Limit: 50}, p)

	p = v.Page(url.Values{"limit": {"0"}, "offset": {"-1"}}, 50, 200)
	assert.Equal(t, Pagination{Limit: 50}, p)
	require.Len(t, v.Issues(), 2)
}
