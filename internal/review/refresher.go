package review

import (
	"context"
	"fmt"

	"github.com/tally-dev/tally/internal/gateway"
	"github.com/tally-dev/tally/internal/model"
)

// Refresher keeps the client's copy of the account summaries.
type Refresher struct {
	gw       gateway.Gateway
	accounts []model.Account
}

// NewRefresher creates a Refresher with no accounts loaded.
func NewRefresher(gw gateway.Gateway) *Refresher {
	return &Refresher{gw: gw}
}

// Refresh replaces the cached accounts. On failure the previous copy is
// kept.
func (r *Refresher) Refresh(ctx context.Context) error {
	accts, err := r.gw.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("refreshing accounts: %w", err)
	}
	r.accounts = accts
	return nil
}

// Accounts returns a copy of the cached accounts.
func (r *Refresher) Accounts() []model.Account {
	out := make([]model.Account, len(r.accounts))
	copy(out, r.accounts)
	return out
}
