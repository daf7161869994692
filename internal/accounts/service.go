package accounts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// FileName is the accounts file inside the data directory.
const FileName = "accounts.csv"

// Service provides in-memory lookup over the known bank accounts, ordered
// by ID. It is not safe for concurrent use; callers serialize access.
type Service struct {
	ids  []string
	byID map[string]model.Account
}

// NewService creates a Service from a slice of accounts. Later duplicates
// replace earlier ones.
func NewService(accounts []model.Account) *Service {
	s := &Service{byID: make(map[string]model.Account, len(accounts))}
	for _, a := range accounts {
		s.Upsert(a)
	}
	return s
}

// Load reads accounts.csv from a data directory. A missing file yields an
// empty Service.
func Load(dataDir string) (*Service, error) {
	path := filepath.Join(dataDir, FileName)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return NewService(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading accounts: %w", err)
	}
	return NewService(accts), nil
}

// All returns all accounts sorted by ID.
func (s *Service) All() []model.Account {
	result := make([]model.Account, 0, len(s.ids))
	for _, id := range s.ids {
		result = append(result, s.byID[id])
	}
	return result
}

// Get returns an account by ID.
func (s *Service) Get(id string) (model.Account, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Exists reports whether an account ID exists.
func (s *Service) Exists(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// Upsert inserts or replaces an account.
func (s *Service) Upsert(a model.Account) {
	if _, ok := s.byID[a.ID]; !ok {
		s.ids = append(s.ids, a.ID)
		sort.Strings(s.ids)
	}
	s.byID[a.ID] = a
}

// Credit adds amount to an account balance and stamps it with at.
func (s *Service) Credit(id string, amount decimal.Decimal, at time.Time) error {
	a, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("unknown account %q", id)
	}
	a.Balance = a.Balance.Add(amount)
	a.UpdatedAt = at
	s.byID[id] = a
	return nil
}

// Save writes the accounts to <dataDir>/accounts.csv.
func (s *Service) Save(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	path := filepath.Join(dataDir, FileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, s.All()); err != nil {
		return fmt.Errorf("writing accounts: %w", err)
	}
	return nil
}
