package operations

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// Header is the CSV header for operations.csv.
const Header = "operation_id,account_id,date,raw_label,amount,label,category,subject"

const (
	numFields   = 8
	dateFormat  = "2006-01-02"
	colOpID     = 0
	colAcctID   = 1
	colDate     = 2
	colRawLabel = 3
	colAmount   = 4
	colLabel    = 5
	colCategory = 6
	colSubject  = 7
)

// Entry is one row of operations.csv: an operation and the account it
// was committed to.
type Entry struct {
	AccountID string
	Operation model.Operation
}

// ReadEntries reads all entries from an operations.csv reader.
func ReadEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading operations CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// WriteEntries writes entries to an operations.csv writer (including header).
func WriteEntries(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// AppendEntries appends entries to an existing operations.csv writer (no header).
func AppendEntries(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	op := e.Operation
	row := make([]string, numFields)
	row[colOpID] = op.ID
	row[colAcctID] = e.AccountID
	row[colDate] = op.Date.Format(dateFormat)
	row[colRawLabel] = op.RawLabel
	row[colAmount] = op.Amount.StringFixed(2)
	row[colLabel] = op.Label
	row[colCategory] = op.Category
	row[colSubject] = op.Subject
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	return Entry{
		AccountID: record[colAcctID],
		Operation: model.Operation{
			ID: record[colOpID],
			OperationDraft: model.OperationDraft{
				Date:     date,
				RawLabel: record[colRawLabel],
				Amount:   amount,
				Label:    record[colLabel],
				Category: record[colCategory],
				Subject:  record[colSubject],
			},
		},
	}, nil
}
