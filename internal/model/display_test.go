package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDisplayDate(t *testing.T) {
	ts := time.Date(2026, 3, 9, 17, 45, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-09", DisplayDate(ts))
}

func TestDisplayBalance(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1234.56", "1235"},
		{"1234.49", "1234"},
		{"-12.5", "-13"},
		{"0", "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DisplayBalance(decimal.RequireFromString(tt.in)), "DisplayBalance(%s)", tt.in)
	}
}

func TestDisplayAmount(t *testing.T) {
	assert.Equal(t, "-45.90", DisplayAmount(decimal.RequireFromString("-45.9")))
	assert.Equal(t, "3.00", DisplayAmount(decimal.NewFromInt(3)))
}

func TestSign(t *testing.T) {
	assert.Equal(t, SignPositive, Sign(decimal.RequireFromString("0.01")))
	assert.Equal(t, SignNegative, Sign(decimal.Zero))
	assert.Equal(t, SignNegative, Sign(decimal.RequireFromString("-2")))
}
