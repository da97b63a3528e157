package dto

import "github.com/shopspring/decimal"

/**
{
  "from_id": "7f9c24e8-...",
  "to_id": "0b4f1c22-...",
  "amount": "250.50"
}
*/

type TransferRequest struct {
	FromID string          `json:"from_id"`
	ToID   string          `json:"to_id"`
	Amount decimal.Decimal `json:"amount"`
}

type TransferResult struct {
	FromBalance decimal.Decimal `json:"from_balance"`
	ToBalance   decimal.Decimal `json:"to_balance"`
	FromVersion int64           `json:"from_version"`
	ToVersion   int64           `json:"to_version"`
}

type SubmittedTransfer struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type Transfer struct {
	ID            string          `json:"id"`
	FromID        string          `json:"from_id"`
	ToID          string          `json:"to_id"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CreatedAt     string          `json:"created_at"`
	ProcessedAt   string          `json:"processed_at,omitempty"`
}
