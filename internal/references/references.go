// Package references holds the catalog of subjects and categories and the
// rules used to pre-fill enrichment of imported operations.
package references

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tally-dev/tally/internal/model"
)

// FileName is the optional rules override inside the data directory.
const FileName = "rules.yaml"

// Subject is a counterparty with its default enrichment and the raw-label
// fragments that identify it.
type Subject struct {
	Name     string   `yaml:"name"`
	Category string   `yaml:"category,omitempty"`
	Label    string   `yaml:"label,omitempty"`
	Match    []string `yaml:"match,omitempty"`
}

// Rules is the content of rules.yaml.
type Rules struct {
	Categories []string  `yaml:"categories"`
	Subjects   []Subject `yaml:"subjects"`
}

// Book answers catalog questions and guesses enrichment for raw labels.
type Book struct {
	rules      Rules
	subjects   map[string]Subject
	categories map[string]bool
}

// New indexes rules. Categories referenced by subjects are added to the
// catalog if missing.
func New(rules Rules) (*Book, error) {
	b := &Book{
		subjects:   make(map[string]Subject, len(rules.Subjects)),
		categories: make(map[string]bool, len(rules.Categories)),
	}
	for _, c := range rules.Categories {
		c = strings.TrimSpace(c)
		if c == "" || b.categories[c] {
			continue
		}
		b.categories[c] = true
		b.rules.Categories = append(b.rules.Categories, c)
	}
	for _, s := range rules.Subjects {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			return nil, errors.New("subject with empty name")
		}
		if _, ok := b.subjects[s.Name]; ok {
			return nil, fmt.Errorf("duplicate subject %q", s.Name)
		}
		if s.Category != "" && !b.categories[s.Category] {
			b.categories[s.Category] = true
			b.rules.Categories = append(b.rules.Categories, s.Category)
		}
		b.subjects[s.Name] = s
		b.rules.Subjects = append(b.rules.Subjects, s)
	}
	sort.Strings(b.rules.Categories)
	return b, nil
}

// Load reads <dataDir>/rules.yaml, falling back to Default when absent.
func Load(dataDir string) (*Book, error) {
	path := filepath.Join(dataDir, FileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(Default())
	}
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	b, err := New(rules)
	if err != nil {
		return nil, fmt.Errorf("loading rules %s: %w", path, err)
	}
	return b, nil
}

// Save writes rules to <dataDir>/rules.yaml.
func Save(dataDir string, rules Rules) error {
	data, err := yaml.Marshal(rules)
	if err != nil {
		return fmt.Errorf("marshaling rules: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, FileName), data, 0o644); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}
	return nil
}

// Catalog returns the subjects and categories, each sorted.
func (b *Book) Catalog() model.ReferenceCatalog {
	subjects := make([]string, 0, len(b.rules.Subjects))
	for _, s := range b.rules.Subjects {
		subjects = append(subjects, s.Name)
	}
	sort.Strings(subjects)

	categories := make([]string, len(b.rules.Categories))
	copy(categories, b.rules.Categories)
	return model.ReferenceCatalog{Subjects: subjects, Categories: categories}
}

// HasSubject reports whether subject is in the catalog.
func (b *Book) HasSubject(subject string) bool {
	_, ok := b.subjects[subject]
	return ok
}

// HasCategory reports whether category is in the catalog.
func (b *Book) HasCategory(category string) bool {
	return b.categories[category]
}

// Guess returns the subject matching a raw label and that subject's
// default category and label. Matching is case-insensitive on fragments,
// first subject in rule order wins. Empty strings when nothing matches.
func (b *Book) Guess(rawLabel string) (subject, category, label string) {
	upper := strings.ToUpper(rawLabel)
	for _, s := range b.rules.Subjects {
		for _, m := range s.Match {
			if m != "" && strings.Contains(upper, strings.ToUpper(m)) {
				return s.Name, s.Category, s.Label
			}
		}
	}
	return "", "", ""
}

// Enrich fills the empty enrichment fields of d from Guess.
func (b *Book) Enrich(d model.OperationDraft) model.OperationDraft {
	subject, category, label := b.Guess(d.RawLabel)
	if d.Subject == "" {
		d.Subject = subject
	}
	if d.Category == "" {
		d.Category = category
	}
	if d.Label == "" {
		d.Label = label
	}
	return d
}
