package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appMiddleware "github.com/simonkvalheim/hm9-accounts/internal/middleware"
)

// InsufficientFundsResponse is the body returned for a rejected withdrawal
type InsufficientFundsResponse struct {
	Error          string          `json:"error"`
	Balance        decimal.Decimal `json:"balance"`
	OverdraftLimit decimal.Decimal `json:"overdraft_limit"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// requestLogger tags log lines with the request ID and, when the request was
// authenticated, the calling customer
func requestLogger(r *http.Request) *slog.Logger {
	logger := slog.With(slog.String("request_id", middleware.GetReqID(r.Context())))
	if callerID := appMiddleware.GetCustomerID(r.Context()); callerID != uuid.Nil {
		logger = logger.With(slog.String("caller_id", callerID.String()))
	}
	return logger
}
