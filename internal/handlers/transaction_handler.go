package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ledger-bridge/internal/logger"
	"ledger-bridge/internal/service"
	"ledger-bridge/models"
)

type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *logger.Logger
}

func NewTransactionHandler(transactionService service.TransactionService, log *logger.Logger) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             log,
	}
}

func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	sourceID, err := accountIDVar(r)
	if err != nil {
		sendJSONError(w, "INVALID_ACCOUNT_KEY", "The account key is not correct.", http.StatusUnprocessableEntity)
		return
	}

	var req models.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "INVALID_REQUEST", "Missing or invalid JSON body", http.StatusBadRequest)
		return
	}
	req.SourceID = sourceID

	transaction, err := h.transactionService.CreateTransaction(r.Context(), &req)
	if err != nil {
		sendLedgerError(w, h.logger, err)
		return
	}

	sendJSON(w, transaction)
}

func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDVar(r)
	if err != nil {
		sendJSONError(w, "INVALID_ACCOUNT_KEY", "The account key is not correct.", http.StatusUnprocessableEntity)
		return
	}

	query := r.URL.Query()
	start := query.Get("start")
	if start == "" {
		start = "0"
	}
	startID, err := strconv.ParseUint(start, 10, 16)
	if err != nil {
		sendJSONError(w, "INVALID_START", "The start transaction value is not correct.", http.StatusUnprocessableEntity)
		return
	}

	transactions, err := h.transactionService.ListTransactions(r.Context(), accountID, query.Get("type"), int(startID))
	if err != nil {
		sendLedgerError(w, h.logger, err)
		return
	}

	sendJSON(w, transactions)
}

func (h *TransactionHandler) ProcessTransactions(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDVar(r)
	if err != nil {
		sendJSONError(w, "INVALID_ACCOUNT_KEY", "The account key is not correct.", http.StatusUnprocessableEntity)
		return
	}

	if err := h.transactionService.ProcessTransactions(r.Context(), accountID); err != nil {
		sendLedgerError(w, h.logger, err)
		return
	}

	sendJSON(w, struct{}{})
}
