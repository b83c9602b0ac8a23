package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"retail-rma-backend/internal/domain"
	"retail-rma-backend/internal/logger"
)

type errorBody struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Expected []string `json:"expected_statuses,omitempty"`
	Actual   string   `json:"current_status,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			logger.Error("response encode failed", "error", err)
		}
	}
}

// writeError maps the typed error taxonomy onto HTTP statuses. Untyped
// errors are treated as server faults and their details kept out of the
// response body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	body := errorBody{Code: string(kind), Message: err.Error()}

	var status int
	switch kind {
	case domain.ErrKindNotFound:
		status = http.StatusNotFound
	case domain.ErrKindConflict:
		status = http.StatusConflict
	case domain.ErrKindValidation:
		status = http.StatusBadRequest
	case domain.ErrKindInvalidTransition:
		status = http.StatusUnprocessableEntity
		var de *domain.Error
		if errors.As(err, &de) {
			for _, s := range de.Expected {
				body.Expected = append(body.Expected, string(s))
			}
			body.Actual = string(de.Actual)
		}
	default:
		status = http.StatusInternalServerError
		body.Message = "internal server error"
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: body})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, domain.Validationf("invalid request body: %v", err))
		return false
	}
	return true
}
