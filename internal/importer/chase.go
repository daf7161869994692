package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// ChaseParser parses Chase bank checking CSV exports. The export carries no
// account number; ParseFile names the account after the file.
type ChaseParser struct{}

const (
	chaseDateFormat = "01/02/2006"
	chaseNumFields  = 7
	chaseColDate    = 1
	chaseColDesc    = 2
	chaseColAmount  = 3
	chaseColBalance = 5
	chaseHeader     = "Details,Posting Date"
)

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Detect matches the Chase header row.
func (p *ChaseParser) Detect(head []byte) bool {
	return bytes.HasPrefix(bytes.TrimPrefix(head, []byte("\ufeff")), []byte(chaseHeader))
}

// Parse reads a Chase CSV. The statement balance is the running balance of
// the most recent row. Exports are newest first; a file whose last row is
// dated after its first is read as oldest first.
func (p *ChaseParser) Parse(r io.Reader) (model.Statement, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = chaseNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return model.Statement{}, fmt.Errorf("reading chase CSV: %w", err)
	}

	var st model.Statement
	if len(records) <= 1 {
		return st, nil
	}

	rows := records[1:]
	ops := make([]model.OperationDraft, 0, len(rows))
	for i, rec := range rows {
		op, err := parseChaseRow(rec)
		if err != nil {
			return model.Statement{}, fmt.Errorf("row %d: %w", i+2, err)
		}
		ops = append(ops, op)
	}

	oldestFirst := ops[len(ops)-1].Date.After(ops[0].Date)
	if !oldestFirst {
		slices.Reverse(rows)
		slices.Reverse(ops)
	}

	// Rows now run oldest to newest: the last row with a balance is current.
	for i := len(rows) - 1; i >= 0; i-- {
		b := strings.TrimSpace(rows[i][chaseColBalance])
		if b == "" {
			continue
		}
		bal, err := decimal.NewFromString(b)
		if err != nil {
			return model.Statement{}, fmt.Errorf("parsing balance %q: %w", b, err)
		}
		st.Account.Balance = bal
		break
	}

	st.Operations = ops
	sortChronological(st.Operations)
	return st, nil
}

func parseChaseRow(rec []string) (model.OperationDraft, error) {
	date, err := time.Parse(chaseDateFormat, rec[chaseColDate])
	if err != nil {
		return model.OperationDraft{}, fmt.Errorf("parsing date %q: %w", rec[chaseColDate], err)
	}

	amount, err := decimal.NewFromString(rec[chaseColAmount])
	if err != nil {
		return model.OperationDraft{}, fmt.Errorf("parsing amount %q: %w", rec[chaseColAmount], err)
	}

	return model.OperationDraft{
		Date:     date,
		RawLabel: strings.TrimSpace(rec[chaseColDesc]),
		Amount:   amount,
	}, nil
}
