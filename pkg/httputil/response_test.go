package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteJSON(w, http.StatusOK, map[string]string{"status": "granted"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "granted")
}

func TestWriteErrorHelpers(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "error value",
			write:      func(w http.ResponseWriter) { WriteError(w, http.StatusBadRequest, errors.New("bad capability")) },
			wantStatus: http.StatusBadRequest,
			wantBody:   "bad capability",
		},
		{
			name:       "plain message",
			write:      func(w http.ResponseWriter) { WriteErrorMessage(w, http.StatusNotFound, "principal not found") },
			wantStatus: http.StatusNotFound,
			wantBody:   "principal not found",
		},
		{
			name:       "bad request",
			write:      func(w http.ResponseWriter) { WriteBadRequest(w, "capability is required") },
			wantStatus: http.StatusBadRequest,
			wantBody:   "capability is required",
		},
		{
			name:       "unauthorized",
			write:      func(w http.ResponseWriter) { WriteUnauthorized(w, "authentication required") },
			wantStatus: http.StatusUnauthorized,
			wantBody:   "authentication required",
		},
		{
			name:       "forbidden",
			write:      func(w http.ResponseWriter) { WriteForbidden(w, "insufficient permissions") },
			wantStatus: http.StatusForbidden,
			wantBody:   "insufficient permissions",
		},
		{
			name:       "conflict",
			write:      func(w http.ResponseWriter) { WriteConflict(w, "email already registered") },
			wantStatus: http.StatusConflict,
			wantBody:   "email already registered",
		},
		{
			name:       "internal",
			write:      func(w http.ResponseWriter) { WriteInternalError(w, errors.New("pool exhausted")) },
			wantStatus: http.StatusInternalServerError,
			wantBody:   "pool exhausted",
		},
		{
			name:       "service unavailable",
			write:      func(w http.ResponseWriter) { WriteServiceUnavailable(w, "database unreachable") },
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "database unreachable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}

func TestWriteCreated(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteCreated(w, map[string]int64{"id": 123})

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "123")
}

func TestWriteNoContent(t *testing.T) {
	w := httptest.NewRecorder()

	WriteNoContent(w)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}
