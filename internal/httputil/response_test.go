package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSONError(rec, http.StatusBadRequest, "bad frame")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"bad frame"}`, rec.Body.String())
}

func TestWriteJSONOK(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSONOK(rec, map[string]int{"level": 3})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"level":3}`, rec.Body.String())
}

func TestReadJSON(t *testing.T) {
	type payload struct {
		UserID string `json:"userId"`
	}

	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"userId":"u1"}`))
		var p payload
		require.NoError(t, ReadJSON(httptest.NewRecorder(), req, &p, 1024))
		assert.Equal(t, "u1", p.UserID)
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"userId":"u1","extra":true}`))
		var p payload
		assert.Error(t, ReadJSON(httptest.NewRecorder(), req, &p, 1024))
	})

	t.Run("oversized body rejected", func(t *testing.T) {
		body := `{"userId":"` + strings.Repeat("x", 100) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		var p payload
		assert.Error(t, ReadJSON(httptest.NewRecorder(), req, &p, 16))
	})
}
