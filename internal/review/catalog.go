package review

import (
	"context"
	"fmt"

	"github.com/tally-dev/tally/internal/gateway"
	"github.com/tally-dev/tally/internal/model"
)

// Catalog holds the subjects and categories offered during enrichment. A
// degraded catalog has no entries and accepts any input.
type Catalog struct {
	refs       model.ReferenceCatalog
	subjects   map[string]bool
	categories map[string]bool
	degraded   bool
}

// NewCatalog indexes refs.
func NewCatalog(refs model.ReferenceCatalog) *Catalog {
	c := &Catalog{
		refs:       refs,
		subjects:   make(map[string]bool, len(refs.Subjects)),
		categories: make(map[string]bool, len(refs.Categories)),
	}
	for _, s := range refs.Subjects {
		c.subjects[s] = true
	}
	for _, cat := range refs.Categories {
		c.categories[cat] = true
	}
	return c
}

// DegradedCatalog is used when references could not be loaded.
func DegradedCatalog() *Catalog {
	return &Catalog{degraded: true}
}

// LoadCatalog fetches the references once.
func LoadCatalog(ctx context.Context, gw gateway.Gateway) (*Catalog, error) {
	refs, err := gw.ListReferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading references: %w", err)
	}
	return NewCatalog(refs), nil
}

// Degraded reports whether enrichment is freeform.
func (c *Catalog) Degraded() bool { return c.degraded }

// Subjects returns the valid subjects, nil when degraded.
func (c *Catalog) Subjects() []string { return c.refs.Subjects }

// Categories returns the valid categories, nil when degraded.
func (c *Catalog) Categories() []string { return c.refs.Categories }

// Validate checks subject and category membership. The error is a
// *gateway.ValidationError so callers handle it like a backend rejection.
func (c *Catalog) Validate(subject, category string) error {
	if c.degraded {
		return nil
	}
	switch {
	case subject == "":
		return invalid("Subject is required")
	case !c.subjects[subject]:
		return invalid(fmt.Sprintf("unknown subject %q", subject))
	case category == "":
		return invalid("Category is required")
	case !c.categories[category]:
		return invalid(fmt.Sprintf("unknown category %q", category))
	}
	return nil
}

func invalid(msg string) error {
	return &gateway.ValidationError{Op: gateway.OpAddOperation, Message: msg}
}
