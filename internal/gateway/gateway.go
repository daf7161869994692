// Package gateway is the client side of the backend: every read and write
// the review workflow makes goes through a Gateway. Two bindings exist,
// HTTP and a JSON-lines message channel.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/tally-dev/tally/internal/model"
)

// Gateway reaches the backend. Calls block until the backend answers or
// ctx is done.
type Gateway interface {
	ListAccounts(ctx context.Context) ([]model.Account, error)
	ListOperations(ctx context.Context, accountID string) ([]model.Operation, error)
	GetOperation(ctx context.Context, accountID, operationID string) (model.Operation, error)
	AddOperation(ctx context.Context, accountID string, d model.OperationDraft) error
	UpdateOperation(ctx context.Context, accountID string, op model.Operation) error
	ImportFiles(ctx context.Context, paths []string) ([]model.CandidateOperation, error)
	ListReferences(ctx context.Context) (model.ReferenceCatalog, error)
}

// Operation names used in errors.
const (
	OpListAccounts    = "list accounts"
	OpListOperations  = "list operations"
	OpGetOperation    = "get operation"
	OpAddOperation    = "add operation"
	OpUpdateOperation = "update operation"
	OpImportFiles     = "import files"
	OpListReferences  = "list references"
)

// TransportError means the backend could not be reached or answered with
// something unreadable. The request may or may not have been applied.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError means the backend rejected the request. Message is the
// backend's explanation.
type ValidationError struct {
	Op      string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsTransport reports whether err is or wraps a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
