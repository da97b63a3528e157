package accounthandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mvasenkov/benefits/internal/domain"
	"github.com/mvasenkov/benefits/pkg/dto"
	"github.com/mvasenkov/benefits/pkg/logger"
	"github.com/shopspring/decimal"
)

type accountService interface {
	Create(ctx context.Context, name string, initialBalance decimal.Decimal) (*domain.Account, error)
	Account(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	Accounts(ctx context.Context) ([]domain.Account, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type AccountHandler struct {
	accountService accountService
}

func New(svc accountService) *AccountHandler {
	return &AccountHandler{
		accountService: svc,
	}
}

func (h AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.Warn("error while decoding a create account request", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	account, err := h.accountService.Create(r.Context(), req.Name, req.InitialBalance)
	if err != nil {
		if errors.Is(err, domain.ErrAccountExists) {
			http.Error(w, "account name already taken", http.StatusConflict)
			return
		}

		logger.Log.Warn("error while creating account", logger.String("name", req.Name), logger.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, toDTO(account))
}

func (h AccountHandler) Account(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		logger.Log.Warn("invalid account ID", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	account, err := h.accountService.Account(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}

		logger.Log.Error("error while fetching account", logger.String("account_id", id.String()), logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toDTO(account))
}

func (h AccountHandler) Accounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.Accounts(r.Context())
	if err != nil {
		logger.Log.Error("error while fetching accounts", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	dtos := make([]dto.Account, len(accounts))
	for i := range accounts {
		dtos[i] = toDTO(&accounts[i])
	}

	writeJSON(w, http.StatusOK, dtos)
}

func (h AccountHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		logger.Log.Warn("invalid account ID", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.accountService.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}

		logger.Log.Error("error while deactivating account", logger.String("account_id", id.String()), logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toDTO(account *domain.Account) dto.Account {
	return dto.Account{
		ID:        account.ID.String(),
		Name:      account.Name,
		Balance:   account.Balance,
		Active:    account.Active,
		Version:   account.Version,
		CreatedAt: account.CreatedAt.Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.Error("error while encoding response to JSON", logger.Error(err))
	}
}
