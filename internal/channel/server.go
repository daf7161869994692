package channel

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/tally-dev/tally/internal/backend"
)

type handlerFunc func(ctx context.Context, m Message) (any, error)

// Server answers requests read from a stream. Requests are handled
// concurrently; responses are written whole, one per line.
type Server struct {
	ledger   backend.Ledger
	logger   *log.Logger
	handlers map[string]handlerFunc

	mu sync.Mutex
	w  io.Writer
}

// NewServer creates a Server for ledger.
func NewServer(ledger backend.Ledger, logger *log.Logger) *Server {
	s := &Server{ledger: ledger, logger: logger}
	s.handlers = map[string]handlerFunc{
		NameAccountsList:     s.handleAccountsList,
		NameOperationsList:   s.handleOperationsList,
		NameOperationsOne:    s.handleOperationsOne,
		NameOperationsAdd:    s.handleOperationsAdd,
		NameOperationsUpdate: s.handleOperationsUpdate,
		NameImport:           s.handleImport,
		NameReferencesList:   s.handleReferencesList,
	}
	return s
}

// Serve reads requests from r and writes responses to w until r reaches
// EOF. In-flight requests finish before Serve returns.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	s.w = w
	reader := bufio.NewReader(r)

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			var m Message
			if uerr := json.Unmarshal(line, &m); uerr != nil {
				s.logger.Warn("malformed message", "err", uerr)
				s.send(ErrorMessage("", fmt.Sprintf("malformed message: %v", uerr)))
			} else {
				wg.Add(1)
				go func() {
					defer wg.Done()
					s.handle(ctx, m)
				}()
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading messages: %w", err)
		}
	}
}

func (s *Server) handle(ctx context.Context, m Message) {
	h, ok := s.handlers[m.Name]
	if !ok {
		s.send(ErrorMessage(m.ID, "unknown message name: "+m.Name))
		return
	}

	result, err := h(ctx, m)
	if err != nil {
		s.logger.Warn("message error", "name", m.Name, "id", m.ID, "err", err)
		s.send(ErrorMessage(m.ID, err.Error()))
		return
	}

	resp, err := NewMessage(m.ID, m.Name, result)
	if err != nil {
		s.send(ErrorMessage(m.ID, err.Error()))
		return
	}
	s.logger.Debug("message handled", "name", m.Name, "id", m.ID)
	s.send(resp)
}

func (s *Server) send(m Message) {
	data, err := json.Marshal(m)
	if err != nil {
		s.logger.Error("marshaling response", "name", m.Name, "err", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "%s\n", data); err != nil {
		s.logger.Warn("writing response", "name", m.Name, "err", err)
	}
}

func (s *Server) handleAccountsList(ctx context.Context, _ Message) (any, error) {
	return s.ledger.ListAccounts(ctx)
}

func (s *Server) handleOperationsList(ctx context.Context, m Message) (any, error) {
	var accountID string
	if err := m.Decode(&accountID); err != nil {
		return nil, err
	}
	return s.ledger.ListOperations(ctx, accountID)
}

func (s *Server) handleOperationsOne(ctx context.Context, m Message) (any, error) {
	var ref OperationRef
	if err := m.Decode(&ref); err != nil {
		return nil, err
	}
	return s.ledger.GetOperation(ctx, ref.AccountID, ref.OperationID)
}

func (s *Server) handleOperationsAdd(ctx context.Context, m Message) (any, error) {
	var p AddPayload
	if err := m.Decode(&p); err != nil {
		return nil, err
	}
	return nil, s.ledger.AddOperation(ctx, p.Account.ID, p.Operation)
}

func (s *Server) handleOperationsUpdate(ctx context.Context, m Message) (any, error) {
	var p UpdatePayload
	if err := m.Decode(&p); err != nil {
		return nil, err
	}
	return nil, s.ledger.UpdateOperation(ctx, p.Account.ID, p.Operation)
}

func (s *Server) handleImport(ctx context.Context, m Message) (any, error) {
	var paths []string
	if err := m.Decode(&paths); err != nil {
		return nil, err
	}
	return s.ledger.ImportFiles(ctx, paths)
}

func (s *Server) handleReferencesList(ctx context.Context, _ Message) (any, error) {
	return s.ledger.ListReferences(ctx)
}
