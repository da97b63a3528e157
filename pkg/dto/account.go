package dto

import "github.com/shopspring/decimal"

/**
{
  "name": "meal allowance",
  "initial_balance": "1000"
}
*/

type CreateAccountRequest struct {
	Name           string          `json:"name"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

type Account struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	Active    bool            `json:"active"`
	Version   int64           `json:"version"`
	CreatedAt string          `json:"created_at"`
}
