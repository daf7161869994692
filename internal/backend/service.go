// Package backend owns the ledger: accounts, committed operations,
// statement import and reference data. Every transport serves this
// Service.
package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/accounts"
	"github.com/tally-dev/tally/internal/events"
	"github.com/tally-dev/tally/internal/id"
	"github.com/tally-dev/tally/internal/importer"
	"github.com/tally-dev/tally/internal/logging"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/operations"
	"github.com/tally-dev/tally/internal/references"
)

// Service is safe for concurrent use.
type Service struct {
	mu         sync.Mutex
	dataDir    string
	accounts   *accounts.Service
	operations *operations.Service
	refs       *references.Book
	parsers    *importer.Registry
	publisher  events.Publisher
	history    Committer
	logger     *log.Logger
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the event publisher. Defaults to events.Nop.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// Committer records a snapshot of the data directory. *history.Repo
// implements it.
type Committer interface {
	Commit(ctx context.Context, message string) (string, error)
}

// WithHistory commits the data directory after every change.
func WithHistory(c Committer) Option {
	return func(s *Service) { s.history = c }
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Open loads the ledger stored in dataDir.
func Open(dataDir string, opts ...Option) (*Service, error) {
	accts, err := accounts.Load(dataDir)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	ops, err := operations.Load(dataDir)
	if err != nil {
		return nil, fmt.Errorf("loading operations: %w", err)
	}
	refs, err := references.Load(dataDir)
	if err != nil {
		return nil, fmt.Errorf("loading references: %w", err)
	}

	s := &Service{
		dataDir:    dataDir,
		accounts:   accts,
		operations: ops,
		refs:       refs,
		parsers:    importer.DefaultRegistry(),
		publisher:  events.Nop{},
		logger:     logging.Discard(),
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Close releases the event publisher.
func (s *Service) Close() error {
	return s.publisher.Close()
}

// ListAccounts returns all accounts sorted by ID.
func (s *Service) ListAccounts(_ context.Context) ([]model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts.All(), nil
}

// ListOperations returns the committed operations of an account.
func (s *Service) ListOperations(_ context.Context, accountID string) ([]model.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.accounts.Exists(accountID) {
		return nil, fmt.Errorf("account %q: %w", accountID, ErrNotFound)
	}
	return s.operations.List(accountID), nil
}

// GetOperation returns one committed operation.
func (s *Service) GetOperation(_ context.Context, accountID, operationID string) (model.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.accounts.Exists(accountID) {
		return model.Operation{}, fmt.Errorf("account %q: %w", accountID, ErrNotFound)
	}
	if err := checkOperationID(operationID); err != nil {
		return model.Operation{}, err
	}
	op, ok := s.operations.Get(accountID, operationID)
	if !ok {
		return model.Operation{}, fmt.Errorf("operation %q: %w", operationID, ErrNotFound)
	}
	return op, nil
}

// AddOperation validates and commits a draft to an account, crediting its
// amount to the account balance.
func (s *Service) AddOperation(ctx context.Context, accountID string, d model.OperationDraft) error {
	e, err := s.addOperation(ctx, accountID, d)
	if err != nil {
		return err
	}
	s.publish(ctx, e)
	return nil
}

func (s *Service) addOperation(ctx context.Context, accountID string, d model.OperationDraft) (events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.accounts.Exists(accountID) {
		return events.Event{}, fmt.Errorf("account %q: %w", accountID, ErrNotFound)
	}
	if errs := operations.ValidateDraft(d, s.refs); len(errs) > 0 {
		return events.Event{}, newFieldError(errs)
	}

	op := model.Operation{ID: id.FormatOperationID(d.Date, d.RawLabel, d.Amount), OperationDraft: d}
	if err := s.operations.Add(accountID, op); err != nil {
		if errors.Is(err, operations.ErrDuplicate) {
			return events.Event{}, &ValidationError{Message: operations.ErrDuplicate.Error(), Err: err}
		}
		return events.Event{}, fmt.Errorf("committing operation: %w", err)
	}

	now := s.now()
	if err := s.accounts.Credit(accountID, d.Amount, now); err != nil {
		return events.Event{}, err
	}
	if err := s.accounts.Save(s.dataDir); err != nil {
		return events.Event{}, fmt.Errorf("saving accounts: %w", err)
	}

	s.logger.Info("operation added", "account", accountID, "operation", op.ID, "amount", d.Amount.StringFixed(2))
	s.record(ctx, fmt.Sprintf("add: %s %s", accountID, op.ID))
	return events.Event{Type: events.OperationAdded, AccountID: accountID, OperationID: op.ID, At: now}, nil
}

// UpdateOperation replaces the enrichment (label, category, subject) of a
// committed operation. Date, raw label and amount are kept as stored.
func (s *Service) UpdateOperation(ctx context.Context, accountID string, op model.Operation) error {
	e, err := s.updateOperation(ctx, accountID, op)
	if err != nil {
		return err
	}
	s.publish(ctx, e)
	return nil
}

func (s *Service) updateOperation(ctx context.Context, accountID string, op model.Operation) (events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.accounts.Exists(accountID) {
		return events.Event{}, fmt.Errorf("account %q: %w", accountID, ErrNotFound)
	}
	if err := checkOperationID(op.ID); err != nil {
		return events.Event{}, err
	}
	stored, ok := s.operations.Get(accountID, op.ID)
	if !ok {
		return events.Event{}, fmt.Errorf("operation %q: %w", op.ID, ErrNotFound)
	}

	stored.Label = op.Label
	stored.Category = op.Category
	stored.Subject = op.Subject
	if errs := operations.ValidateDraft(stored.OperationDraft, s.refs); len(errs) > 0 {
		return events.Event{}, newFieldError(errs)
	}
	if err := s.operations.Update(accountID, stored); err != nil {
		return events.Event{}, fmt.Errorf("updating operation: %w", err)
	}

	s.logger.Info("operation updated", "account", accountID, "operation", op.ID)
	s.record(ctx, fmt.Sprintf("update: %s %s", accountID, op.ID))
	return events.Event{Type: events.OperationUpdated, AccountID: accountID, OperationID: op.ID, At: s.now()}, nil
}

// ImportFiles parses the statements at paths and returns the operations
// not yet committed, pre-filled from the reference rules. Each statement's
// account is created or updated so that its balance excludes the returned
// operations; committing them brings it back to the statement balance.
// Nothing is changed if any statement fails to parse.
func (s *Service) ImportFiles(ctx context.Context, paths []string) ([]model.CandidateOperation, error) {
	statements := make([]model.Statement, 0, len(paths))
	for _, p := range paths {
		st, err := s.parsers.ParseFile(p)
		if err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("parsing bank statement %s: %v", p, err), Err: err}
		}
		statements = append(statements, st)
	}

	candidates, published, err := s.importStatements(ctx, statements)
	if err != nil {
		return nil, err
	}
	for _, e := range published {
		s.publish(ctx, e)
	}
	return candidates, nil
}

func (s *Service) importStatements(ctx context.Context, statements []model.Statement) ([]model.CandidateOperation, []events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var published []events.Event
	candidates := []model.CandidateOperation{}
	for _, st := range statements {
		acct := st.Account
		seen := make(map[string]bool, len(st.Operations))
		pending := decimal.Zero
		count := 0
		for _, d := range st.Operations {
			opID := id.FormatOperationID(d.Date, d.RawLabel, d.Amount)
			if seen[opID] || s.operations.Exists(acct.ID, opID) {
				continue
			}
			seen[opID] = true
			pending = pending.Add(d.Amount)
			candidates = append(candidates, model.CandidateOperation{
				Account:   acct.Ref(),
				Operation: s.refs.Enrich(d),
			})
			count++
		}

		acct.Balance = acct.Balance.Sub(pending)
		acct.UpdatedAt = now
		s.accounts.Upsert(acct)

		s.logger.Info("statement imported", "account", acct.ID, "operations", len(st.Operations), "new", count)
		published = append(published, events.Event{Type: events.StatementImported, AccountID: acct.ID, Count: count, At: now})
	}

	if len(statements) > 0 {
		if err := s.accounts.Save(s.dataDir); err != nil {
			return nil, nil, fmt.Errorf("saving accounts: %w", err)
		}
		s.record(ctx, fmt.Sprintf("import: %d statement(s), %d new operation(s)", len(statements), len(candidates)))
	}
	return candidates, published, nil
}

// ListReferences returns the subject and category catalog.
func (s *Service) ListReferences(_ context.Context) (model.ReferenceCatalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs.Catalog(), nil
}

// publish must be called without s.mu held.
func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("publishing event", "type", e.Type, "err", err)
	}
}

// checkOperationID rejects IDs that FormatOperationID could not have built.
func checkOperationID(operationID string) error {
	if _, _, _, err := id.ParseOperationID(operationID); err != nil {
		return &ValidationError{Message: err.Error(), Err: err}
	}
	return nil
}

// record commits the data directory. The change is already saved, so a
// failure is only logged.
func (s *Service) record(ctx context.Context, message string) {
	if s.history == nil {
		return
	}
	hash, err := s.history.Commit(ctx, message)
	if err != nil {
		s.logger.Warn("recording history", "err", err)
		return
	}
	if hash != "" {
		s.logger.Debug("history recorded", "commit", hash, "message", message)
	}
}

// Ledger is what transports serve. *Service implements it.
type Ledger interface {
	ListAccounts(ctx context.Context) ([]model.Account, error)
	ListOperations(ctx context.Context, accountID string) ([]model.Operation, error)
	GetOperation(ctx context.Context, accountID, operationID string) (model.Operation, error)
	AddOperation(ctx context.Context, accountID string, d model.OperationDraft) error
	UpdateOperation(ctx context.Context, accountID string, op model.Operation) error
	ImportFiles(ctx context.Context, paths []string) ([]model.CandidateOperation, error)
	ListReferences(ctx context.Context) (model.ReferenceCatalog, error)
}

var _ Ledger = (*Service)(nil)
