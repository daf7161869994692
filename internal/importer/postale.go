package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// PostaleParser parses La Banque Postale CSV exports: a key;value header
// block, a blank line, then a ;-separated body listing the newest
// operation first.
type PostaleParser struct{}

const (
	postaleDateFormat   = "02/01/2006"
	postaleHeaderFields = 2
	postaleHeaderLines  = 6
	postaleBodyFields   = 4

	postaleLineNumber  = 0
	postaleLineType    = 1
	postaleLineBalance = 4

	postaleColDate   = 0
	postaleColLabel  = 1
	postaleColAmount = 2
)

var postaleSeparator = []byte("\r\n\r\n")

// Format returns the parser name.
func (p *PostaleParser) Format() string { return "postale" }

// Detect matches a ;-separated first line with exactly one separator.
func (p *PostaleParser) Detect(head []byte) bool {
	line, _, _ := bytes.Cut(head, []byte("\n"))
	line = bytes.TrimRight(line, "\r")
	return bytes.Count(line, []byte(";")) == 1
}

// Parse reads the statement. Operations are returned oldest first.
func (p *PostaleParser) Parse(r io.Reader) (model.Statement, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.Statement{}, fmt.Errorf("reading statement: %w", err)
	}

	header, body, ok := bytes.Cut(data, postaleSeparator)
	if !ok {
		return model.Statement{}, errors.New("no body detected")
	}

	hr := csv.NewReader(bytes.NewReader(header))
	hr.Comma = ';'
	hr.FieldsPerRecord = postaleHeaderFields
	lines, err := hr.ReadAll()
	if err != nil {
		return model.Statement{}, fmt.Errorf("reading header lines: %w", err)
	}
	if len(lines) < postaleHeaderLines {
		return model.Statement{}, fmt.Errorf("not enough lines in header: got %d, want %d", len(lines), postaleHeaderLines)
	}

	var st model.Statement
	st.Account.ID = strings.TrimSpace(lines[postaleLineType][1]) + " " + strings.TrimSpace(lines[postaleLineNumber][1])
	if st.Account.Balance, err = parseFrenchDecimal(lines[postaleLineBalance][1]); err != nil {
		return model.Statement{}, fmt.Errorf("parsing balance %q: %w", lines[postaleLineBalance][1], err)
	}

	br := csv.NewReader(bytes.NewReader(body))
	br.Comma = ';'
	br.FieldsPerRecord = postaleBodyFields
	rows, err := br.ReadAll()
	if err != nil {
		return model.Statement{}, fmt.Errorf("reading body lines: %w", err)
	}
	if len(rows) == 0 {
		return st, nil
	}

	// First body row holds column titles.
	for i := len(rows) - 1; i >= 1; i-- {
		row := rows[i]
		date, err := time.Parse(postaleDateFormat, strings.TrimSpace(row[postaleColDate]))
		if err != nil {
			return model.Statement{}, fmt.Errorf("body row %d: parsing date %q: %w", i+1, row[postaleColDate], err)
		}
		amount, err := parseFrenchDecimal(row[postaleColAmount])
		if err != nil {
			return model.Statement{}, fmt.Errorf("body row %d: parsing amount %q: %w", i+1, row[postaleColAmount], err)
		}
		st.Operations = append(st.Operations, model.OperationDraft{
			Date:     date,
			RawLabel: strings.TrimSpace(row[postaleColLabel]),
			Amount:   amount,
		})
	}
	sortChronological(st.Operations)
	return st, nil
}

// parseFrenchDecimal parses "1 234,56" style numbers.
func parseFrenchDecimal(s string) (decimal.Decimal, error) {
	s = strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(strings.TrimSpace(s))
	return decimal.NewFromString(s)
}

// sortChronological orders by date, keeping file order for equal dates.
func sortChronological(ops []model.OperationDraft) {
	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].Date.Before(ops[j].Date)
	})
}
