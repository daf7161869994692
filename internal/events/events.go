// Package events publishes ledger changes to interested consumers.
package events

import (
	"context"
	"sync"
	"time"
)

// Event types.
const (
	OperationAdded    = "operation.added"
	OperationUpdated  = "operation.updated"
	StatementImported = "statement.imported"
)

// Event describes one ledger change.
type Event struct {
	Type        string    `json:"type"`
	AccountID   string    `json:"account_id"`
	OperationID string    `json:"operation_id,omitempty"`
	Count       int       `json:"count,omitempty"` // new operations in an imported statement
	At          time.Time `json:"at"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish records e.
func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Close is a no-op.
func (r *Recorder) Close() error { return nil }

// Events returns a copy of what has been published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the type of each recorded event, in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
