// Package reviewlog records review actions in <data>/logs/review-log.csv.
package reviewlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Actions.
const (
	ActionImport   = "import"
	ActionAdd      = "add"
	ActionSkip     = "skip"
	ActionError    = "error"
	ActionComplete = "complete"
	ActionClose    = "close"
)

// Entry is one row in the review log.
type Entry struct {
	Timestamp   time.Time
	Action      string
	AccountID   string
	OperationID string
	Details     string
}

// Header is the CSV header for review-log.csv.
const Header = "timestamp,action,account_id,operation_id,details"

const (
	numFields      = 5
	logDir         = "logs"
	logFile        = "logs/review-log.csv"
	colTimestamp   = 0
	colAction      = 1
	colAccountID   = 2
	colOperationID = 3
	colDetails     = 4
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colAction] = e.Action
	row[colAccountID] = e.AccountID
	row[colOperationID] = e.OperationID
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	return Entry{
		Timestamp:   ts,
		Action:      record[colAction],
		AccountID:   record[colAccountID],
		OperationID: record[colOperationID],
		Details:     record[colDetails],
	}, nil
}

// Append writes entries to <dataDir>/logs/review-log.csv, creating the file
// and header if needed.
func Append(dataDir string, entries []Entry) error {
	dir := filepath.Join(dataDir, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(dataDir, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening review log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <dataDir>/logs/review-log.csv, or nil if
// the file does not exist.
func Read(dataDir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dataDir, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening review log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading review log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

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

// Logger appends one entry per call and stamps it with the current time.
type Logger struct {
	dataDir string
	now     func() time.Time
}

// NewLogger creates a Logger writing under dataDir.
func NewLogger(dataDir string) *Logger {
	return &Logger{dataDir: dataDir, now: time.Now}
}

// Log appends a single entry.
func (l *Logger) Log(action, accountID, operationID, details string) error {
	return Append(l.dataDir, []Entry{{
		Timestamp:   l.now(),
		Action:      action,
		AccountID:   accountID,
		OperationID: operationID,
		Details:     details,
	}})
}
