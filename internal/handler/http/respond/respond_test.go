package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rr *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	JSON(rr, http.StatusAccepted, map[string]any{"success": true})

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())
}

func TestJSON_NilBody(t *testing.T) {
	rr := httptest.NewRecorder()
	JSON(rr, http.StatusNoContent, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestSafeError(t *testing.T) {
	tests := []struct {
		name string
		code int
		err  error
		want string
	}{
		{"validation message passes", http.StatusBadRequest, errors.New("name: is required"), "name: is required"},
		{"not found passes", http.StatusNotFound, errors.New("source not found"), "source not found"},
		{"future date passes", http.StatusBadRequest, errors.New("invalid date: 2099-01-01 is in the future"), "invalid date: 2099-01-01 is in the future"},
		{"5xx is generic", http.StatusInternalServerError, errors.New("invalid connection to db://u:p@host"), "internal server error"},
		{"unknown 4xx is generic", http.StatusConflict, errors.New("pq: deadlock detected"), "conflict"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			SafeError(rr, tt.code, tt.err)
			assert.Equal(t, tt.code, rr.Code)
			assert.Equal(t, tt.want, decode(t, rr).Error)
		})
	}
}

func TestSafeError_NilIsNoop(t *testing.T) {
	rr := httptest.NewRecorder()
	SafeError(rr, http.StatusBadRequest, nil)
	assert.Empty(t, rr.Body.String())
}

func TestSanitizeError(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"dial postgres://app:hunter2@db:5432/x", "dial postgres://app:****@db:5432/x"},
		{"auth header Bearer abc.def.ghi rejected", "auth header Bearer **** rejected"},
		{"token eyJhbGciOi.eyJzdWIiOi.c2lnbmF0dXJl leaked", "token **** leaked"},
		{"GET /feed?token=s3cr3t&page=2", "GET /feed?token=****&page=2"},
		{"plain failure", "plain failure"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeError(errors.New(tt.in)))
	}
	assert.Empty(t, SanitizeError(nil))
}
