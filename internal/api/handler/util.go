package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayo6706/hufflepay/internal/api/problem"
	"github.com/ayo6706/hufflepay/internal/domain"
)

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.Write(w, r, status, problemType, http.StatusText(status), message)
}

// mapDomainError translates sentinel errors into HTTP problem
// responses. Unmapped errors fall through to a 500 at the call site.
func mapDomainError(err error) (status int, problemType, message string, ok bool) {
	switch {
	case errors.Is(err, domain.ErrSwapNotFound):
		return http.StatusNotFound, "swap/not-found", err.Error(), true
	case errors.Is(err, domain.ErrSwapNotExecutable):
		return http.StatusConflict, "swap/not-executable", err.Error(), true
	case errors.Is(err, domain.ErrUnknownParty):
		return http.StatusBadRequest, "party/unknown", err.Error(), true
	case errors.Is(err, domain.ErrEntryNotFound):
		return http.StatusNotFound, "ledger/entry-not-found", err.Error(), true
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity, "ledger/insufficient-balance", err.Error(), true
	case errors.Is(err, domain.ErrAssetNotFound):
		return http.StatusUnprocessableEntity, "ledger/asset-not-found", err.Error(), true
	case errors.Is(err, domain.ErrRateNotFound):
		return http.StatusUnprocessableEntity, "rates/not-found", err.Error(), true
	case errors.Is(err, domain.ErrHoldNotFound):
		return http.StatusNotFound, "gateway/hold-not-found", err.Error(), true
	case errors.Is(err, domain.ErrHoldAlreadySettled):
		return http.StatusConflict, "gateway/hold-settled", err.Error(), true
	default:
		return 0, "", "", false
	}
}
