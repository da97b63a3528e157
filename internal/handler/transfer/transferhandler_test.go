package transferhandler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mvasenkov/benefits/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	result   *domain.TransferResult
	transfer *domain.Transfer
	err      error
}

func (s *stubService) Transfer(_ context.Context, _, _ uuid.UUID, _ decimal.Decimal) (*domain.TransferResult, error) {
	return s.result, s.err
}

func (s *stubService) Submit(_ context.Context, fromID, toID uuid.UUID, amount decimal.Decimal) (*domain.Transfer, error) {
	return s.transfer, s.err
}

func (s *stubService) History(_ context.Context, _ uuid.UUID) ([]domain.Transfer, error) {
	return nil, s.err
}

func transferBody(from, to uuid.UUID, amount string) string {
	return fmt.Sprintf(`{"from_id":%q,"to_id":%q,"amount":%q}`, from, to, amount)
}

func TestTransferErrorMapping(t *testing.T) {
	from := uuid.New()
	to := uuid.New()

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "missing id", err: domain.ErrMissingAccountID, expected: http.StatusBadRequest},
		{name: "non-positive amount", err: domain.ErrNonPositiveAmount, expected: http.StatusBadRequest},
		{name: "same account", err: domain.ErrSameAccount, expected: http.StatusBadRequest},
		{name: "not found", err: &domain.NotFoundError{AccountID: from}, expected: http.StatusNotFound},
		{name: "inactive", err: &domain.InactiveAccountError{AccountID: from}, expected: http.StatusUnprocessableEntity},
		{
			name: "insufficient funds",
			err: &domain.InsufficientFundsError{
				AccountID: from,
				Available: decimal.NewFromInt(100),
				Requested: decimal.NewFromInt(150),
			},
			expected: http.StatusPaymentRequired,
		},
		{name: "conflict", err: fmt.Errorf("%w after 4 attempts", domain.ErrTransferConflict), expected: http.StatusConflict},
		{name: "timeout", err: fmt.Errorf("transfer aborted: %w", context.DeadlineExceeded), expected: http.StatusGatewayTimeout},
		{name: "unrecoverable", err: &domain.ReversalError{AccountID: from}, expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := New(&stubService{err: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/api/transfers", strings.NewReader(transferBody(from, to, "100")))
			rr := httptest.NewRecorder()

			handler.Transfer(rr, req)

			assert.Equal(t, tt.expected, rr.Code)
		})
	}
}

func TestTransferSuccess(t *testing.T) {
	handler := New(&stubService{
		result: &domain.TransferResult{
			FromBalance: decimal.NewFromInt(800),
			ToBalance:   decimal.NewFromInt(700),
			FromVersion: 1,
			ToVersion:   1,
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/transfers", strings.NewReader(transferBody(uuid.New(), uuid.New(), "200")))
	rr := httptest.NewRecorder()

	handler.Transfer(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), `"from_balance":"800"`)
	assert.Contains(t, rr.Body.String(), `"to_version":1`)
}

func TestTransferMalformedBody(t *testing.T) {
	handler := New(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/transfers", strings.NewReader("not json"))
	rr := httptest.NewRecorder()

	handler.Transfer(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTransferInvalidAccountID(t *testing.T) {
	handler := New(&stubService{})

	body := `{"from_id":"not-a-uuid","to_id":"also-bad","amount":"10"}`
	req := httptest.NewRequest(http.MethodPost, "/api/transfers", strings.NewReader(body))
	rr := httptest.NewRecorder()

	handler.Transfer(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSubmitTransfer(t *testing.T) {
	transfer := &domain.Transfer{
		ID:        uuid.New(),
		Status:    domain.TransferStatusNew,
		CreatedAt: time.Now(),
	}
	handler := New(&stubService{transfer: transfer})

	req := httptest.NewRequest(http.MethodPost, "/api/transfers/async", strings.NewReader(transferBody(uuid.New(), uuid.New(), "200")))
	rr := httptest.NewRecorder()

	handler.SubmitTransfer(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)
	assert.Contains(t, rr.Body.String(), transfer.ID.String())
	assert.Contains(t, rr.Body.String(), domain.TransferStatusNew)
}
