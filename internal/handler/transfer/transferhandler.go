package transferhandler

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

type transferService interface {
	Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal) (*domain.TransferResult, error)
	Submit(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal) (*domain.Transfer, error)
	History(ctx context.Context, accountID uuid.UUID) ([]domain.Transfer, error)
}

type TransferHandler struct {
	transferService transferService
}

func New(svc transferService) *TransferHandler {
	return &TransferHandler{
		transferService: svc,
	}
}

func (h TransferHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.Warn("error while decoding a transfer request", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	fromID, toID, ok := parseAccountIDs(w, req.FromID, req.ToID)
	if !ok {
		return
	}

	result, err := h.transferService.Transfer(r.Context(), fromID, toID, req.Amount)
	if err != nil {
		writeTransferError(w, err)
		return
	}

	resp := dto.TransferResult{
		FromBalance: result.FromBalance,
		ToBalance:   result.ToBalance,
		FromVersion: result.FromVersion,
		ToVersion:   result.ToVersion,
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h TransferHandler) SubmitTransfer(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.Warn("error while decoding a transfer request", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	fromID, toID, ok := parseAccountIDs(w, req.FromID, req.ToID)
	if !ok {
		return
	}

	transfer, err := h.transferService.Submit(r.Context(), fromID, toID, req.Amount)
	if err != nil {
		writeTransferError(w, err)
		return
	}

	resp := dto.SubmittedTransfer{
		ID:     transfer.ID.String(),
		Status: transfer.Status,
	}

	writeJSON(w, http.StatusAccepted, resp)
}

func (h TransferHandler) History(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		logger.Log.Warn("invalid account ID", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	transfers, err := h.transferService.History(r.Context(), accountID)
	if err != nil {
		logger.Log.Error("error while fetching transfer history", logger.String("account_id", accountID.String()), logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	dtos := make([]dto.Transfer, len(transfers))
	for i, transfer := range transfers {
		dtos[i] = dto.Transfer{
			ID:            transfer.ID.String(),
			FromID:        transfer.FromID.String(),
			ToID:          transfer.ToID.String(),
			Amount:        transfer.Amount,
			Status:        transfer.Status,
			FailureReason: transfer.FailureReason,
			CreatedAt:     transfer.CreatedAt.Format(time.RFC3339),
		}
		if transfer.ProcessedAt != nil {
			dtos[i].ProcessedAt = transfer.ProcessedAt.Format(time.RFC3339)
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// writeTransferError maps each failure kind of the engine to a stable
// status code so clients never have to parse message text.
func writeTransferError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingAccountID),
		errors.Is(err, domain.ErrNonPositiveAmount),
		errors.Is(err, domain.ErrSameAccount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrAccountNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrAccountInactive):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrInsufficientFunds):
		http.Error(w, err.Error(), http.StatusPaymentRequired)
	case errors.Is(err, domain.ErrTransferConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "transfer timed out", http.StatusGatewayTimeout)
	case errors.Is(err, domain.ErrUnrecoverable):
		logger.Log.Error("unrecoverable transfer failure", logger.Error(err))
		http.Error(w, "transfer requires manual reconciliation", http.StatusInternalServerError)
	default:
		logger.Log.Error("error while executing transfer", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func parseAccountIDs(w http.ResponseWriter, from, to string) (uuid.UUID, uuid.UUID, bool) {
	fromID, err := parseOptionalID(from)
	if err != nil {
		logger.Log.Warn("invalid source account ID", logger.String("from_id", from), logger.Error(err))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}

	toID, err := parseOptionalID(to)
	if err != nil {
		logger.Log.Warn("invalid destination account ID", logger.String("to_id", to), logger.Error(err))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}

	return fromID, toID, true
}

// parseOptionalID maps an absent ID to uuid.Nil so the engine reports it as
// a missing-account-id failure rather than a malformed request.
func parseOptionalID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, nil
	}

	return uuid.Parse(raw)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.Error("error while encoding response to JSON", logger.Error(err))
	}
}
