package operations

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/id"
	"github.com/tally-dev/tally/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func draft(raw, amount string) model.OperationDraft {
	return model.OperationDraft{
		Date:     date(2026, 10, 15),
		RawLabel: raw,
		Amount:   dec(amount),
		Label:    "Groceries",
		Category: "Food",
		Subject:  "Les Primeurs",
	}
}

func op(raw, amount string) model.Operation {
	d := draft(raw, amount)
	return model.Operation{ID: id.FormatOperationID(d.Date, d.RawLabel, d.Amount), OperationDraft: d}
}

// mockRefs implements ReferenceChecker for testing.
type mockRefs struct {
	subjects   map[string]bool
	categories map[string]bool
}

func (m *mockRefs) HasSubject(s string) bool  { return m.subjects[s] }
func (m *mockRefs) HasCategory(c string) bool { return m.categories[c] }

func newMockRefs() *mockRefs {
	return &mockRefs{
		subjects:   map[string]bool{"Les Primeurs": true, "EDF": true},
		categories: map[string]bool{"Food": true, "Amenities": true},
	}
}
