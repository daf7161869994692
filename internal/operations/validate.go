package operations

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// ValidationError describes a single rejected field.
type ValidationError struct {
	Field       string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Description)
}

// ReferenceChecker tests subjects and categories against the catalog.
type ReferenceChecker interface {
	HasSubject(subject string) bool
	HasCategory(category string) bool
}

// ValidateDraft checks that a draft is complete enough to be committed.
// refs may be nil, in which case any non-empty subject/category is accepted.
func ValidateDraft(d model.OperationDraft, refs ReferenceChecker) []ValidationError {
	var errs []ValidationError

	if d.Date.IsZero() {
		errs = append(errs, ValidationError{Field: "date", Description: "date is required"})
	}
	if d.RawLabel == "" {
		errs = append(errs, ValidationError{Field: "raw_label", Description: "raw label is required"})
	}

	// Exact decimals: no more than 2 decimal places.
	hundred := decimal.NewFromInt(100)
	if !d.Amount.Mul(hundred).Equal(d.Amount.Mul(hundred).Floor()) {
		errs = append(errs, ValidationError{Field: "amount", Description: fmt.Sprintf("amount %s has more than 2 decimal places", d.Amount)})
	}

	switch {
	case d.Subject == "":
		errs = append(errs, ValidationError{Field: "subject", Description: "Subject is required"})
	case refs != nil && !refs.HasSubject(d.Subject):
		errs = append(errs, ValidationError{Field: "subject", Description: fmt.Sprintf("unknown subject %q", d.Subject)})
	}

	switch {
	case d.Category == "":
		errs = append(errs, ValidationError{Field: "category", Description: "Category is required"})
	case refs != nil && !refs.HasCategory(d.Category):
		errs = append(errs, ValidationError{Field: "category", Description: fmt.Sprintf("unknown category %q", d.Category)})
	}

	if d.Label == "" {
		errs = append(errs, ValidationError{Field: "label", Description: "Label is required"})
	}

	return errs
}
