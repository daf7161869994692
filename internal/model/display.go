package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SignClass is the display class derived from the sign of an amount.
type SignClass string

const (
	SignPositive SignClass = "positive"
	SignNegative SignClass = "negative"
)

// DisplayDate returns the date portion of t.
func DisplayDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// DisplayBalance rounds a balance to whole currency units.
func DisplayBalance(d decimal.Decimal) string {
	return d.StringFixed(0)
}

// DisplayAmount formats an operation amount with two decimal places.
func DisplayAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Sign returns SignPositive for strictly positive values, SignNegative
// otherwise (zero included).
func Sign(d decimal.Decimal) SignClass {
	if d.IsPositive() {
		return SignPositive
	}
	return SignNegative
}
