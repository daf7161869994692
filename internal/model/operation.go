package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationDraft is a transaction as extracted from a statement, plus the
// enrichment fields a user fills in during review. Date, RawLabel and
// Amount are facts from extraction and never edited.
type OperationDraft struct {
	Date     time.Time       `json:"date"`
	RawLabel string          `json:"raw_label"`
	Amount   decimal.Decimal `json:"amount"` // negative = debit, positive = credit
	Label    string          `json:"label"`
	Category string          `json:"category"`
	Subject  string          `json:"subject"`
}

// Operation is a persisted draft.
type Operation struct {
	ID string `json:"id"`
	OperationDraft
}

// CandidateOperation is one unit of review: a draft not yet persisted and
// the account it belongs to.
type CandidateOperation struct {
	Account   AccountRef     `json:"account"`
	Operation OperationDraft `json:"operation"`
}

// Statement is the result of parsing one statement file.
type Statement struct {
	Account    Account
	Operations []OperationDraft // chronological
}

// ReferenceCatalog holds the valid subjects and categories offered during
// enrichment.
type ReferenceCatalog struct {
	Subjects   []string `json:"subjects"`
	Categories []string `json:"categories"`
}
