package handlers

import (
	"encoding/json"
	"net/http"

	"ledger-bridge/internal/logger"
	"ledger-bridge/internal/service"
	"ledger-bridge/models"
)

type AccountHandler struct {
	accountService service.AccountService
	logger         *logger.Logger
}

func NewAccountHandler(accountService service.AccountService, log *logger.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         log,
	}
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDVar(r)
	if err != nil {
		sendJSONError(w, "INVALID_ACCOUNT_KEY", "The account key is not correct.", http.StatusUnprocessableEntity)
		return
	}

	var req models.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "INVALID_REQUEST", "Missing or invalid JSON body", http.StatusBadRequest)
		return
	}
	req.AccountID = accountID

	account, err := h.accountService.CreateAccount(r.Context(), &req)
	if err != nil {
		sendLedgerError(w, h.logger, err)
		return
	}

	sendJSON(w, account)
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDVar(r)
	if err != nil {
		sendJSONError(w, "INVALID_ACCOUNT_KEY", "The account key is not correct.", http.StatusUnprocessableEntity)
		return
	}

	account, err := h.accountService.GetAccount(r.Context(), accountID)
	if err != nil {
		sendLedgerError(w, h.logger, err)
		return
	}

	sendJSON(w, account)
}

func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.ListAccounts(r.Context())
	if err != nil {
		sendLedgerError(w, h.logger, err)
		return
	}

	sendJSON(w, accounts)
}
