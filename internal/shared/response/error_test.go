package response

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intel-server/internal/shared/errors"
)

func TestErrorStatusMapping(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{name: "not found", err: errors.NotFoundf("player %d not found", 7), wantStatus: http.StatusNotFound, wantType: "not_found"},
		{name: "validation", err: errors.Validation("bad input"), wantStatus: http.StatusBadRequest, wantType: "validation"},
		{name: "conflict", err: errors.Conflictf("report %q already stored", "sr-1"), wantStatus: http.StatusConflict, wantType: "conflict"},
		{name: "regression", err: errors.Regressionf("weaker than %q", "sr-2"), wantStatus: http.StatusUnprocessableEntity, wantType: "regression"},
		{name: "unauthorized", err: errors.Unauthorized("authentication required"), wantStatus: http.StatusUnauthorized, wantType: "unauthorized"},
		{name: "external", err: errors.Externalf("feed returned status %d", 503), wantStatus: http.StatusBadGateway, wantType: "external"},
		{name: "plain error is internal", err: io.ErrUnexpectedEOF, wantStatus: http.StatusInternalServerError, wantType: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/test", nil)

			Error(w, r, logger, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body.Error)
			assert.Equal(t, tt.wantStatus, body.Code)
		})
	}
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	Success(w, http.StatusCreated, map[string]int{"synced": 3})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"synced": 3}`, w.Body.String())
}
