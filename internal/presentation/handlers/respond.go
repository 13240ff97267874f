package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bimakw/swap-trader/internal/domain/entities"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// writeFailure maps an engine error onto a status code and error code
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classifyError(err)
	writeError(w, status, code, err.Error())
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, entities.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, entities.ErrInvalidPercentage):
		return http.StatusBadRequest, "invalid_percentage"
	case errors.Is(err, entities.ErrInvalidAddress):
		return http.StatusBadRequest, "invalid_token"
	case errors.Is(err, entities.ErrInvalidDecimals):
		return http.StatusBadGateway, "invalid_decimals"
	case errors.Is(err, entities.ErrApproveSubmissionFailed):
		return http.StatusBadGateway, "approve_submission_failed"
	case errors.Is(err, entities.ErrSwapSubmissionFailed):
		return http.StatusBadGateway, "swap_submission_failed"
	case errors.Is(err, entities.ErrSubmission):
		return http.StatusBadGateway, "submission_failed"
	case errors.Is(err, entities.ErrChainRead):
		return http.StatusBadGateway, "chain_read_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
