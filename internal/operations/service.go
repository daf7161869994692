package operations

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tally-dev/tally/internal/model"
)

// FileName is the operations file inside the data directory.
const FileName = "operations.csv"

var (
	// ErrDuplicate is returned when an operation ID is already committed
	// to the account.
	ErrDuplicate = errors.New("duplicate transaction")
	// ErrNotFound is returned for an unknown operation.
	ErrNotFound = errors.New("operation not found")
)

// Service indexes committed operations per account and writes them
// through to <dataDir>/operations.csv. Not safe for concurrent use.
type Service struct {
	dataDir string
	entries []Entry
	index   map[key]int
}

type key struct {
	account   string
	operation string
}

// NewService creates a Service over existing entries.
func NewService(dataDir string, entries []Entry) *Service {
	s := &Service{dataDir: dataDir, index: make(map[key]int, len(entries))}
	for _, e := range entries {
		k := key{e.AccountID, e.Operation.ID}
		if i, ok := s.index[k]; ok {
			s.entries[i] = e
			continue
		}
		s.index[k] = len(s.entries)
		s.entries = append(s.entries, e)
	}
	return s
}

// Load reads operations.csv from dataDir. A missing file yields an empty
// Service.
func Load(dataDir string) (*Service, error) {
	path := filepath.Join(dataDir, FileName)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewService(dataDir, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening operations %s: %w", path, err)
	}
	defer f.Close()

	entries, err := ReadEntries(f)
	if err != nil {
		return nil, fmt.Errorf("reading operations %s: %w", path, err)
	}
	return NewService(dataDir, entries), nil
}

// List returns the operations of an account in commit order.
func (s *Service) List(accountID string) []model.Operation {
	result := []model.Operation{}
	for _, e := range s.entries {
		if e.AccountID == accountID {
			result = append(result, e.Operation)
		}
	}
	return result
}

// Get returns one operation of an account.
func (s *Service) Get(accountID, operationID string) (model.Operation, bool) {
	i, ok := s.index[key{accountID, operationID}]
	if !ok {
		return model.Operation{}, false
	}
	return s.entries[i].Operation, true
}

// Exists reports whether an operation is committed to an account.
func (s *Service) Exists(accountID, operationID string) bool {
	_, ok := s.index[key{accountID, operationID}]
	return ok
}

// Add commits a new operation and appends it to operations.csv.
func (s *Service) Add(accountID string, op model.Operation) error {
	k := key{accountID, op.ID}
	if _, ok := s.index[k]; ok {
		return fmt.Errorf("adding %s: %w", op.ID, ErrDuplicate)
	}

	e := Entry{AccountID: accountID, Operation: op}
	if err := s.append(e); err != nil {
		return err
	}
	s.index[k] = len(s.entries)
	s.entries = append(s.entries, e)
	return nil
}

// Update replaces the enrichment of a committed operation and rewrites
// operations.csv.
func (s *Service) Update(accountID string, op model.Operation) error {
	i, ok := s.index[key{accountID, op.ID}]
	if !ok {
		return fmt.Errorf("updating %s: %w", op.ID, ErrNotFound)
	}

	prev := s.entries[i]
	s.entries[i] = Entry{AccountID: accountID, Operation: op}
	if err := s.rewrite(); err != nil {
		s.entries[i] = prev
		return err
	}
	return nil
}

func (s *Service) path() string {
	return filepath.Join(s.dataDir, FileName)
}

func (s *Service) append(e Entry) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(s.path()); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(s.path(), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening operations: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	if err := AppendEntries(f, []Entry{e}); err != nil {
		return fmt.Errorf("appending operation: %w", err)
	}
	return nil
}

func (s *Service) rewrite() error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	tmp := s.path() + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating operations file: %w", err)
	}
	if err := WriteEntries(f, s.entries); err != nil {
		f.Close()
		return fmt.Errorf("writing operations: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing operations file: %w", err)
	}
	if err := os.Rename(tmp, s.path()); err != nil {
		return fmt.Errorf("replacing operations file: %w", err)
	}
	return nil
}
