package references

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/model"
)

func TestDefault_Catalog(t *testing.T) {
	b, err := New(Default())
	require.NoError(t, err)

	cat := b.Catalog()
	assert.Contains(t, cat.Categories, "Food")
	assert.Contains(t, cat.Subjects, "Decathlon")
	assert.IsIncreasing(t, cat.Subjects)
	assert.IsIncreasing(t, cat.Categories)

	assert.True(t, b.HasSubject("EDF"))
	assert.False(t, b.HasSubject("edf"))
	assert.True(t, b.HasCategory("Rent"))
	assert.False(t, b.HasCategory("Rockets"))
}

func TestGuess(t *testing.T) {
	b, err := New(Default())
	require.NoError(t, err)

	tests := []struct {
		raw                      string
		subject, category, label string
	}{
		{"CARTE X1234 14/10 DECATHLON PARIS", "Decathlon", "Pleasure", ""},
		{"PRELEVEMENT DE EDF clients particuliers", "EDF", "Amenities", "Electricity - "},
		{"retrait dab la banque postale", "ATM", "Food", "ATM Withdrawal"},
		{"VIREMENT DE M DUPONT", "", "", ""},
	}
	for _, tt := range tests {
		subject, category, label := b.Guess(tt.raw)
		assert.Equal(t, tt.subject, subject, "subject for %q", tt.raw)
		assert.Equal(t, tt.category, category, "category for %q", tt.raw)
		assert.Equal(t, tt.label, label, "label for %q", tt.raw)
	}
}

func TestEnrich_KeepsExistingValues(t *testing.T) {
	b, err := New(Default())
	require.NoError(t, err)

	d := b.Enrich(model.OperationDraft{RawLabel: "CB MONOPRIX 12/10", Label: "Dinner"})
	assert.Equal(t, "Monoprix", d.Subject)
	assert.Equal(t, "Food", d.Category)
	assert.Equal(t, "Dinner", d.Label)
}

func TestNew_AddsSubjectCategories(t *testing.T) {
	b, err := New(Rules{Subjects: []Subject{{Name: "Bakery", Category: "Bread"}}})
	require.NoError(t, err)
	assert.True(t, b.HasCategory("Bread"))
	assert.Equal(t, []string{"Bread"}, b.Catalog().Categories)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Rules{Subjects: []Subject{{Name: " "}}})
	assert.Error(t, err)

	_, err = New(Rules{Subjects: []Subject{{Name: "A"}, {Name: "A"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate subject")
}

func TestLoad_FallsBackToDefault(t *testing.T) {
	b, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.True(t, b.HasSubject("Decathlon"))
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	rules := Rules{
		Categories: []string{"Food"},
		Subjects:   []Subject{{Name: "Bakery", Category: "Food", Label: "Bread", Match: []string{"BOULANGERIE"}}},
	}
	require.NoError(t, Save(dir, rules))

	b, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, model.ReferenceCatalog{Subjects: []string{"Bakery"}, Categories: []string{"Food"}}, b.Catalog())

	subject, _, label := b.Guess("CB BOULANGERIE DU COIN")
	assert.Equal(t, "Bakery", subject)
	assert.Equal(t, "Bread", label)
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("subjects: [: nope"), 0o644))
	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing rules")
}
