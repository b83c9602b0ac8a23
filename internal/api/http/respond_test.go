package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-rma-backend/internal/domain"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"NotFound", domain.NotFoundf("RMA 1 not found"), http.StatusNotFound, "NOT_FOUND"},
		{"Conflict", domain.Conflictf("already has a refund"), http.StatusConflict, "CONFLICT"},
		{"Validation", domain.Validationf("quantity must be positive"), http.StatusBadRequest, "VALIDATION"},
		{"InvalidTransition",
			domain.TransitionErr("RMA must be SHIPPING to mark received", domain.RmaStatusApproved, domain.RmaStatusShipping),
			http.StatusUnprocessableEntity, "INVALID_STATE_TRANSITION"},
		{"UntypedError", errors.New("pq: connection refused"), http.StatusInternalServerError, "SERVER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/rma/1", nil)

			writeError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}

	t.Run("TransitionCarriesStatuses", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/rma/1/receive", nil)

		writeError(rec, req, domain.TransitionErr("RMA must be SHIPPING to mark received",
			domain.RmaStatusApproved, domain.RmaStatusShipping))

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, []string{"SHIPPING"}, resp.Error.Expected)
		assert.Equal(t, "APPROVED", resp.Error.Actual)
	})

	t.Run("ServerErrorHidesDetails", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/rma/1", nil)

		writeError(rec, req, errors.New("pq: password authentication failed"))

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "internal server error", resp.Error.Message)
	})
}
