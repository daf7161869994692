package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a bank account as known to the backend. Clients only ever
// hold a read-only copy.
type Account struct {
	ID        string          `json:"id"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountRef points at an account by ID.
type AccountRef struct {
	ID string `json:"id"`
}

// Ref returns a reference to the account.
func (a Account) Ref() AccountRef {
	return AccountRef{ID: a.ID}
}
