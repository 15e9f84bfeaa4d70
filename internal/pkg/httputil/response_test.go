package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	ErrorWithCode(rec, http.StatusBadRequest, "invalid_credential", "Invalid hash/email")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Invalid hash/email","code":"invalid_credential"}`, rec.Body.String())
}

func TestInternalErrorHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	InternalError(rec, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestDecode(t *testing.T) {
	var dst struct {
		Email string `json:"email"`
	}

	tests := []struct {
		name   string
		body   string
		ok     bool
		errMsg string
	}{
		{"valid", `{"email":"a@b.com"}`, true, ""},
		{"empty", ``, false, "request body is required"},
		{"unknown field", `{"email":"a@b.com","x":1}`, false, "invalid JSON"},
		{"malformed", `{"email":`, false, "invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			assert.Equal(t, tt.ok, Decode(rec, req, &dst))
			if !tt.ok {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Contains(t, rec.Body.String(), tt.errMsg)
			}
		})
	}
}
