package handlers

import (
	"net/http"
	"time"

	"ledger-bridge/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const requestIDHeader = "X-Request-ID"

func SetupRoutes(accountHandler *AccountHandler, transactionHandler *TransactionHandler, log *logger.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(requestLogging(log))

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/accounts", accountHandler.ListAccounts).Methods("GET")
	api.HandleFunc("/accounts/{account_id:[0-9]+}", accountHandler.CreateAccount).Methods("POST")
	api.HandleFunc("/accounts/{account_id:[0-9]+}", accountHandler.GetAccount).Methods("GET")

	api.HandleFunc("/accounts/{account_id:[0-9]+}/transactions", transactionHandler.CreateTransaction).Methods("POST")
	api.HandleFunc("/accounts/{account_id:[0-9]+}/transactions", transactionHandler.ListTransactions).Methods("GET")
	api.HandleFunc("/accounts/{account_id:[0-9]+}/transactions", transactionHandler.ProcessTransactions).Methods("PUT")

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"OK"}`))
	}).Methods("GET")

	return router
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogging tags each request with an id and logs its outcome.
func requestLogging(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, requestID)

			started := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"request_id": requestID,
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.status,
				"duration":   time.Since(started),
			}).Debug("Request handled")
		})
	}
}
