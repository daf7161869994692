// Package channel serves a backend.Ledger over a message channel:
// newline-delimited JSON envelopes on any reader/writer pair.
package channel

import (
	"encoding/json"
	"fmt"

	"github.com/tally-dev/tally/internal/model"
)

// Message names.
const (
	NameAccountsList     = "accounts.list"
	NameOperationsList   = "operations.list"
	NameOperationsOne    = "operations.one"
	NameOperationsAdd    = "operations.add"
	NameOperationsUpdate = "operations.update"
	NameImport           = "import"
	NameReferencesList   = "references.list"
	// NameError replaces the request name in failure responses; the
	// payload is the error message string.
	NameError = "error"
)

// Message is one envelope. Responses carry the ID of their request.
type Message struct {
	ID      string          `json:"id,omitempty"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// OperationRef is the payload of operations.one.
type OperationRef struct {
	AccountID   string `json:"account_id"`
	OperationID string `json:"operation_id"`
}

// AddPayload is the payload of operations.add.
type AddPayload struct {
	Account   model.AccountRef     `json:"account"`
	Operation model.OperationDraft `json:"operation"`
}

// UpdatePayload is the payload of operations.update.
type UpdatePayload struct {
	Account   model.AccountRef `json:"account"`
	Operation model.Operation  `json:"operation"`
}

// NewMessage builds an envelope, marshaling payload unless it is nil.
func NewMessage(id, name string, payload any) (Message, error) {
	m := Message{ID: id, Name: name}
	if payload == nil {
		return m, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("marshaling %s payload: %w", name, err)
	}
	m.Payload = data
	return m, nil
}

// ErrorMessage builds a failure response.
func ErrorMessage(id, msg string) Message {
	data, _ := json.Marshal(msg)
	return Message{ID: id, Name: NameError, Payload: data}
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", m.Name)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", m.Name, err)
	}
	return nil
}

// ErrorText returns the message carried by an error response.
func (m Message) ErrorText() string {
	var s string
	if err := json.Unmarshal(m.Payload, &s); err != nil {
		return string(m.Payload)
	}
	return s
}
