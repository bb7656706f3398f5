package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhearth/hearth/pkg/errs"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestWriteDomainErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"forbidden", errs.Forbidden("no"), http.StatusForbidden},
		{"not found", errs.NotFound("space"), http.StatusNotFound},
		{"conflict", errs.Conflict("email", "taken"), http.StatusConflict},
		{"validation", errs.Validation("name", "required"), http.StatusUnprocessableEntity},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteDomainError(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestWriteDomainErrorValidationFields(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDomainError(rec, errs.Validation("name", "name is required"))

	body := decodeError(t, rec)
	assert.Equal(t, "validation failed", body.Error)
	assert.Equal(t, map[string]string{"name": "name is required"}, body.Fields)
}

func TestWriteDomainErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDomainError(rec, errors.New("pq: relation does not exist"))

	body := decodeError(t, rec)
	assert.Equal(t, "internal server error", body.Error)
	assert.Empty(t, body.Fields)
}

func TestWriteNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteNoContent(rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestParsePathInt64(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/spaces/42", nil)
	req = mux.SetURLVars(req, map[string]string{"space": "42"})

	id, err := ParsePathInt64(req, "space")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	req = mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/spaces/x", nil), map[string]string{"space": "x"})
	_, err = ParsePathInt64(req, "space")
	assert.Error(t, err)

	_, err = ParsePathInt64(httptest.NewRequest(http.MethodGet, "/spaces", nil), "space")
	assert.Error(t, err)
}
