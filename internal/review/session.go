// Package review sequences the review of imported operations: one
// candidate at a time is enriched, committed through the gateway and
// dequeued.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tally-dev/tally/internal/gateway"
	"github.com/tally-dev/tally/internal/model"
)

// State is a Session state.
type State int

const (
	Idle State = iota
	Loading
	Reviewing
	Submitting
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Reviewing:
		return "reviewing"
	case Submitting:
		return "submitting"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	// ErrInvalidState is returned when an action is not allowed in the
	// session's current state.
	ErrInvalidState = errors.New("action not allowed in current state")
	// ErrSkipDisabled is returned by Skip unless Options.AllowSkip is set.
	ErrSkipDisabled = errors.New("skip is disabled")
)

// NoNewOperations is the notice of an import with no candidates.
const NoNewOperations = "No new operations detected"

// RefreshPolicy decides when account summaries are refreshed.
type RefreshPolicy string

const (
	// RefreshOnCompletion refreshes once when the last candidate leaves
	// the queue.
	RefreshOnCompletion RefreshPolicy = "completion"
	// RefreshOnClose refreshes every time the review is closed.
	RefreshOnClose RefreshPolicy = "close"
)

// LabelPolicy decides the label offered for a candidate without one.
type LabelPolicy string

const (
	LabelEmpty LabelPolicy = "empty"
	LabelRaw   LabelPolicy = "raw"
)

// Options configure a Session.
type Options struct {
	AllowSkip     bool
	RefreshPolicy RefreshPolicy
	DefaultLabel  LabelPolicy
}

// Edit is the enrichment a user confirms for the head candidate.
type Edit struct {
	Label    string
	Category string
	Subject  string
}

// Session is a single review surface. It is not safe for concurrent use;
// each method runs at most one gateway call and returns once it resolves.
type Session struct {
	gw        gateway.Gateway
	catalog   *Catalog
	refresher *Refresher
	opts      Options

	state     State
	batch     *Batch
	notice    Notice
	committed int
	skipped   int
}

// NewSession creates an idle session.
func NewSession(gw gateway.Gateway, catalog *Catalog, refresher *Refresher, opts Options) *Session {
	if catalog == nil {
		catalog = DegradedCatalog()
	}
	if opts.RefreshPolicy == "" {
		opts.RefreshPolicy = RefreshOnCompletion
	}
	if opts.DefaultLabel == "" {
		opts.DefaultLabel = LabelEmpty
	}
	return &Session{gw: gw, catalog: catalog, refresher: refresher, opts: opts}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Batch returns the batch under review, nil outside a review.
func (s *Session) Batch() *Batch { return s.batch }

// Current returns the candidate under review.
func (s *Session) Current() (model.CandidateOperation, bool) {
	if s.batch == nil {
		return model.CandidateOperation{}, false
	}
	return s.batch.Head()
}

// DefaultEdit returns the enrichment to offer for the head candidate.
func (s *Session) DefaultEdit() Edit {
	head, ok := s.Current()
	if !ok {
		return Edit{}
	}
	return defaultEdit(head.Operation, s.opts.DefaultLabel)
}

func defaultEdit(d model.OperationDraft, policy LabelPolicy) Edit {
	e := Edit{Label: d.Label, Category: d.Category, Subject: d.Subject}
	if e.Label == "" && policy == LabelRaw {
		e.Label = d.RawLabel
	}
	return e
}

// Import asks the backend for the candidates in paths. An empty result
// returns an Info notice and leaves the session idle.
func (s *Session) Import(ctx context.Context, paths []string) (Notice, error) {
	if s.state != Idle {
		return Notice{}, s.invalid("import")
	}

	s.state = Loading
	cands, err := s.gw.ImportFiles(ctx, paths)
	if err != nil {
		s.state = Idle
		return s.fail(err)
	}
	if len(cands) == 0 {
		s.state = Idle
		return s.note(Notice{Kind: NoticeInfo, Message: NoNewOperations}), nil
	}

	s.batch = NewBatch(cands)
	s.committed, s.skipped = 0, 0
	s.state = Reviewing
	return s.note(Notice{}), nil
}

// Add commits the head candidate enriched with e. On failure the head
// stays in place carrying e so the user can correct and retry.
func (s *Session) Add(ctx context.Context, e Edit) (Notice, error) {
	if s.state != Reviewing {
		return Notice{}, s.invalid("add")
	}

	head, _ := s.batch.Head()
	d := head.Operation
	d.Label = strings.TrimSpace(e.Label)
	d.Category = strings.TrimSpace(e.Category)
	d.Subject = strings.TrimSpace(e.Subject)
	s.batch.setHeadDraft(d)

	if err := s.catalog.Validate(d.Subject, d.Category); err != nil {
		return s.fail(err)
	}

	s.state = Submitting
	if err := s.gw.AddOperation(ctx, head.Account.ID, d); err != nil {
		s.state = Reviewing
		return s.fail(err)
	}
	s.committed++
	return s.advance(ctx)
}

// Skip dequeues the head without writing it.
func (s *Session) Skip(ctx context.Context) (Notice, error) {
	if s.state != Reviewing {
		return Notice{}, s.invalid("skip")
	}
	if !s.opts.AllowSkip {
		return Notice{}, ErrSkipDisabled
	}

	s.state = Submitting
	s.skipped++
	return s.advance(ctx)
}

// advance pops the head after a successful Submitting step.
func (s *Session) advance(ctx context.Context) (Notice, error) {
	s.batch.pop()
	if s.batch.Len() > 0 {
		s.state = Reviewing
		return s.note(Notice{}), nil
	}

	s.state = Completed
	n := s.note(Notice{
		Kind:    NoticeSuccess,
		Message: fmt.Sprintf("%d operation(s) imported", s.batch.OriginalLength()),
	})
	if s.opts.RefreshPolicy == RefreshOnCompletion {
		if err := s.refresh(ctx); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Close ends the review. Committed candidates stay committed; the rest of
// the batch is dropped.
func (s *Session) Close(ctx context.Context) (Notice, error) {
	if s.state != Reviewing && s.state != Completed {
		return Notice{}, s.invalid("close")
	}

	n := Notice{}
	if s.state == Reviewing {
		n = Notice{
			Kind:    NoticeInfo,
			Message: fmt.Sprintf("Review closed, %d of %d operation(s) left unreviewed", s.batch.Len(), s.batch.OriginalLength()),
		}
	}
	s.batch = nil
	s.state = Idle
	s.note(n)

	if s.opts.RefreshPolicy == RefreshOnClose {
		if err := s.refresh(ctx); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Committed and Skipped count the outcomes of the current or last batch.
func (s *Session) Committed() int { return s.committed }
func (s *Session) Skipped() int   { return s.skipped }

func (s *Session) refresh(ctx context.Context) error {
	if s.refresher == nil {
		return nil
	}
	return s.refresher.Refresh(ctx)
}

func (s *Session) note(n Notice) Notice {
	s.notice = n
	return n
}

func (s *Session) fail(err error) (Notice, error) {
	return s.note(Notice{Kind: NoticeError, Message: err.Error()}), err
}

func (s *Session) invalid(action string) error {
	return fmt.Errorf("%s while %s: %w", action, s.state, ErrInvalidState)
}
