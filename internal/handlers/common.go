package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"ledger-bridge/internal/comp3"
	"ledger-bridge/internal/gateway"
	"ledger-bridge/internal/logger"
	"ledger-bridge/internal/record"
	"ledger-bridge/internal/service"

	"github.com/gorilla/mux"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func sendJSONError(w http.ResponseWriter, errorCode, message string, statusCode int) {
	sendJSONErrorWithCode(w, errorCode, message, "", statusCode)
}

func sendJSONErrorWithCode(w http.ResponseWriter, errorCode, message, ledgerCode string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   errorCode,
		Message: message,
		Code:    ledgerCode,
	}

	json.NewEncoder(w).Encode(response)
}

func sendJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

// accountIDVar reads the numeric {account_id} path variable. Range checks
// are left to the gateway.
func accountIDVar(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["account_id"])
}

// sendLedgerError maps service and gateway errors onto HTTP responses.
func sendLedgerError(w http.ResponseWriter, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrMissingBalance),
		errors.Is(err, service.ErrMissingDestination),
		errors.Is(err, service.ErrMissingAmount):
		sendJSONError(w, "MISSING_FIELD", err.Error(), http.StatusBadRequest)

	case errors.Is(err, service.ErrInvalidBalance),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidDestination),
		errors.Is(err, service.ErrInvalidTransactionType),
		errors.Is(err, comp3.ErrInvalidNumericFormat),
		errors.Is(err, comp3.ErrMagnitudeOverflow):
		sendJSONError(w, "INVALID_VALUE", err.Error(), http.StatusUnprocessableEntity)

	case errors.Is(err, record.ErrKeyOutOfRange), errors.Is(err, gateway.ErrInvalidKey):
		sendJSONErrorWithCode(w, "INVALID_ACCOUNT_KEY", "The account key is not correct.", statusCode(err), http.StatusUnprocessableEntity)

	case errors.Is(err, gateway.ErrInvalidTransaction):
		sendJSONErrorWithCode(w, "INVALID_TRANSACTION", "The transaction parameters are not correct.", statusCode(err), http.StatusUnprocessableEntity)

	case errors.Is(err, gateway.ErrAccountNotFound):
		sendJSONErrorWithCode(w, "ACCOUNT_NOT_FOUND", "The account does not exist.", statusCode(err), http.StatusNotFound)

	default:
		log.Error("Request failed: %v", err)
		sendJSONErrorWithCode(w, "LEDGER_ERROR", "Cannot process the request.", statusCode(err), http.StatusInternalServerError)
	}
}

func statusCode(err error) string {
	if code, ok := gateway.StatusCode(err); ok {
		return code.String()
	}
	return ""
}
