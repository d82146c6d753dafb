package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simonkvalheim/hm9-accounts/internal/ledger"
	"github.com/simonkvalheim/hm9-accounts/internal/model"
	"github.com/simonkvalheim/hm9-accounts/internal/queue"
)

// AccountHandler handles HTTP requests for accounts
type AccountHandler struct {
	service   *ledger.Service
	publisher *queue.Publisher // Optional: if set, balance operations are queued
}

// NewAccountHandler creates a new AccountHandler.
// If publisher is nil, deposits and withdrawals are applied synchronously.
func NewAccountHandler(service *ledger.Service, publisher *queue.Publisher) *AccountHandler {
	return &AccountHandler{service: service, publisher: publisher}
}

// RegisterRoutes sets up the account routes on the given router
func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.GetByID)
		r.Put("/{id}/deposit", h.Deposit)
		r.Put("/{id}/withdraw", h.Withdraw)
		r.Delete("/{id}", h.Delete)
	})
}

// Create handles POST /accounts
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.service.CreateAccount(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create account")
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

// List handles GET /accounts
// Optional query parameter: customer_id to list a single customer's accounts
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		accounts []model.Account
		err      error
	)

	if param := r.URL.Query().Get("customer_id"); param != "" {
		customerID, parseErr := uuid.Parse(param)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "Invalid customer ID format")
			return
		}
		accounts, err = h.service.ListAccountsByCustomer(r.Context(), customerID)
	} else {
		accounts, err = h.service.ListAccounts(r.Context())
	}
	if err != nil {
		writeServiceError(w, r, err, "Failed to list accounts")
		return
	}

	writeJSON(w, http.StatusOK, accounts)
}

// GetByID handles GET /accounts/{id}
func (h *AccountHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	account, err := h.service.GetAccount(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to get account")
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// Deposit handles PUT /accounts/{id}/deposit
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.applyOperation(w, r, queue.OperationDeposit)
}

// Withdraw handles PUT /accounts/{id}/withdraw
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.applyOperation(w, r, queue.OperationWithdraw)
}

// OperationResponse is returned when a balance operation is queued
type OperationResponse struct {
	OperationID uuid.UUID           `json:"operation_id"`
	AccountID   uuid.UUID           `json:"account_id"`
	Type        queue.OperationType `json:"type"`
	Amount      decimal.Decimal     `json:"amount"`
	Status      string              `json:"status"`
}

func (h *AccountHandler) applyOperation(w http.ResponseWriter, r *http.Request, opType queue.OperationType) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	var req model.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if h.publisher != nil {
		h.queueOperation(w, r, id, opType, req.Amount)
		return
	}

	var (
		account *model.Account
		err     error
	)
	switch opType {
	case queue.OperationDeposit:
		account, err = h.service.Deposit(r.Context(), id, req.Amount)
	default:
		account, err = h.service.Withdraw(r.Context(), id, req.Amount)
	}
	if err != nil {
		writeServiceError(w, r, err, "Failed to update balance")
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// queueOperation publishes a balance operation for the worker.
// Inputs that can be checked up front are rejected here; the floor check
// happens when the worker applies the operation.
func (h *AccountHandler) queueOperation(w http.ResponseWriter, r *http.Request, id uuid.UUID, opType queue.OperationType, amount decimal.Decimal) {
	if err := model.ValidateAmount(amount); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	if _, err := h.service.GetAccount(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "Failed to get account")
		return
	}

	opID, err := h.publisher.PublishOperation(r.Context(), id, opType, amount)
	if err != nil {
		requestLogger(r).Error("failed to publish operation",
			slog.String("account_id", id.String()),
			slog.String("error", err.Error()))
		writeError(w, http.StatusServiceUnavailable, "Failed to queue operation")
		return
	}

	requestLogger(r).Info("operation queued",
		slog.String("operation_id", opID.String()),
		slog.String("account_id", id.String()),
		slog.String("type", string(opType)))

	writeJSON(w, http.StatusAccepted, OperationResponse{
		OperationID: opID,
		AccountID:   id,
		Type:        opType,
		Amount:      amount,
		Status:      "pending",
	})
}

// Delete handles DELETE /accounts/{id}
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteAccount(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "Failed to delete account")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// accountID parses the {id} URL parameter, writing a 400 on failure
func accountID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid account ID format")
		return uuid.Nil, false
	}
	return id, true
}

// writeServiceError maps domain errors to HTTP responses
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var fundsErr *model.InsufficientFundsError

	switch {
	case errors.As(err, &fundsErr):
		writeJSON(w, http.StatusUnprocessableEntity, InsufficientFundsResponse{
			Error:          fundsErr.Error(),
			Balance:        fundsErr.Balance,
			OverdraftLimit: fundsErr.OverdraftLimit,
		})
	case errors.Is(err, model.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "Account not found")
	case errors.Is(err, model.ErrInvalidAmount),
		errors.Is(err, model.ErrInvalidAccountType),
		errors.Is(err, model.ErrInvalidCustomer):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		requestLogger(r).Error(fallback, slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
