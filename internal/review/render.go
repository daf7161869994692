package review

import (
	"fmt"

	"github.com/tally-dev/tally/internal/model"
)

// Snapshot is a read-only view of a Session.
type Snapshot struct {
	State          State
	OriginalLength int
	Remaining      int
	Head           model.CandidateOperation
	HasHead        bool
	Notice         Notice
	Committed      int
	Skipped        int
	Degraded       bool
	Subjects       []string
	Categories     []string
	AllowSkip      bool
	DefaultLabel   LabelPolicy
}

// Snapshot captures the session for rendering.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		State:        s.state,
		Notice:       s.notice,
		Committed:    s.committed,
		Skipped:      s.skipped,
		Degraded:     s.catalog.Degraded(),
		Subjects:     append([]string(nil), s.catalog.Subjects()...),
		Categories:   append([]string(nil), s.catalog.Categories()...),
		AllowSkip:    s.opts.AllowSkip,
		DefaultLabel: s.opts.DefaultLabel,
	}
	if s.batch != nil {
		snap.OriginalLength = s.batch.OriginalLength()
		snap.Remaining = s.batch.Len()
		snap.Head, snap.HasHead = s.batch.Head()
	}
	return snap
}

// Action is something the user can do from a prompt.
type Action string

const (
	ActionImport Action = "import"
	ActionAdd    Action = "add"
	ActionSkip   Action = "skip"
	ActionClose  Action = "close"
)

// Prompt is what a front end shows for one session state.
type Prompt struct {
	Title  string
	Notice Notice

	// Candidate under review, set while reviewing.
	Account  string
	Date     string
	RawLabel string
	Amount   string
	Sign     model.SignClass

	// Input defaults.
	Label    string
	Category string
	Subject  string

	// Choices, empty when Freeform.
	Subjects   []string
	Categories []string
	Freeform   bool

	Actions []Action
}

// Render builds the prompt for snap. It has no side effects.
func Render(snap Snapshot) Prompt {
	p := Prompt{Notice: snap.Notice}

	switch snap.State {
	case Idle:
		p.Title = "Import statements"
		p.Actions = []Action{ActionImport}
	case Loading:
		p.Title = "Importing..."
	case Submitting:
		p.Title = "Saving..."
	case Completed:
		p.Title = fmt.Sprintf("Review complete: %d operation(s) imported", snap.OriginalLength)
		p.Actions = []Action{ActionClose}
	case Reviewing:
		p.Title = fmt.Sprintf("Operation %d of %d", snap.OriginalLength-snap.Remaining+1, snap.OriginalLength)
		p.Actions = []Action{ActionAdd}
		if snap.AllowSkip {
			p.Actions = append(p.Actions, ActionSkip)
		}
		p.Actions = append(p.Actions, ActionClose)
	}

	if snap.State != Reviewing || !snap.HasHead {
		return p
	}

	op := snap.Head.Operation
	p.Account = snap.Head.Account.ID
	p.Date = model.DisplayDate(op.Date)
	p.RawLabel = op.RawLabel
	p.Amount = model.DisplayAmount(op.Amount)
	p.Sign = model.Sign(op.Amount)

	e := defaultEdit(op, snap.DefaultLabel)
	p.Label, p.Category, p.Subject = e.Label, e.Category, e.Subject

	p.Freeform = snap.Degraded
	if !snap.Degraded {
		p.Subjects = snap.Subjects
		p.Categories = snap.Categories
	}
	return p
}
