package id

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateFormat = "2006-01-02"

// FormatOperationID returns the dedup key of an operation, built from the
// facts a statement provides: "2026-10-15.CARTE DECATHLON.-45.90".
func FormatOperationID(date time.Time, rawLabel string, amount decimal.Decimal) string {
	return fmt.Sprintf("%s.%s.%s", date.Format(dateFormat), strings.TrimSpace(rawLabel), amount.StringFixed(2))
}

// ParseOperationID splits an operation ID into its date, raw label and
// amount. The raw label may itself contain dots.
func ParseOperationID(id string) (date time.Time, rawLabel string, amount decimal.Decimal, err error) {
	if len(id) < len(dateFormat)+1 || id[len(dateFormat)] != '.' {
		return time.Time{}, "", decimal.Zero, fmt.Errorf("invalid operation ID format: %q", id)
	}

	date, err = time.Parse(dateFormat, id[:len(dateFormat)])
	if err != nil {
		return time.Time{}, "", decimal.Zero, fmt.Errorf("invalid date in operation ID %q: %w", id, err)
	}

	rest := id[len(dateFormat)+1:]
	// The amount always has exactly one dot (two fixed decimals).
	last := strings.LastIndex(rest, ".")
	if last < 0 {
		return time.Time{}, "", decimal.Zero, fmt.Errorf("missing amount in operation ID %q", id)
	}
	sep := strings.LastIndex(rest[:last], ".")
	if sep < 0 {
		return time.Time{}, "", decimal.Zero, fmt.Errorf("missing raw label in operation ID %q", id)
	}

	amount, err = decimal.NewFromString(rest[sep+1:])
	if err != nil {
		return time.Time{}, "", decimal.Zero, fmt.Errorf("invalid amount in operation ID %q: %w", id, err)
	}
	return date, rest[:sep], amount, nil
}
