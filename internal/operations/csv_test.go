package operations

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	entries := []Entry{
		{AccountID: "CCP 0123456X020", Operation: op("CARTE X1234 LES PRIMEURS", "-12.40")},
		{AccountID: "CCP 0123456X020", Operation: op(`VIR "SALAIRE", OCTOBRE`, "2500")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteEntries(&buf, entries))

	got, err := ReadEntries(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	for i := range entries {
		assert.Equal(t, entries[i].AccountID, got[i].AccountID)
		assert.Equal(t, entries[i].Operation.ID, got[i].Operation.ID)
		assert.Equal(t, entries[i].Operation.RawLabel, got[i].Operation.RawLabel)
		assert.True(t, entries[i].Operation.Amount.Equal(got[i].Operation.Amount))
		assert.True(t, entries[i].Operation.Date.Equal(got[i].Operation.Date))
		assert.Equal(t, entries[i].Operation.Label, got[i].Operation.Label)
		assert.Equal(t, entries[i].Operation.Category, got[i].Operation.Category)
		assert.Equal(t, entries[i].Operation.Subject, got[i].Operation.Subject)
	}
}

func TestMarshalEntry_Format(t *testing.T) {
	row := MarshalEntry(Entry{AccountID: "A", Operation: op("PRLV EDF", "-61.5")})
	assert.Equal(t, "2026-10-15", row[colDate])
	assert.Equal(t, "-61.50", row[colAmount])
	assert.Equal(t, "A", row[colAcctID])
}

func TestReadEntries_HeaderOnly(t *testing.T) {
	got, err := ReadEntries(strings.NewReader(Header + "\n"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUnmarshalEntry_BadDate(t *testing.T) {
	rec := []string{"x", "A", "15/10/2026", "raw", "1.00", "", "", ""}
	_, err := UnmarshalEntry(rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing date")
}

func TestUnmarshalEntry_BadAmount(t *testing.T) {
	rec := []string{"x", "A", "2026-10-15", "raw", "NaN-ish", "", "", ""}
	_, err := UnmarshalEntry(rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing amount")
}

func TestUnmarshalEntry_FieldCount(t *testing.T) {
	_, err := UnmarshalEntry([]string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 8 fields")
}
