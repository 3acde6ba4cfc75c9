// Package categories holds the per-kind category lists offered at entry time.
package categories

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"financeflow/internal/apperrors"
	"financeflow/internal/core"
)

//go:embed default.yaml
var defaultYAML []byte

// Catalog maps each transaction kind to its allowed categories.
type Catalog struct {
	Expense []string `yaml:"expense"`
	Income  []string `yaml:"income"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded categories: %v", err))
	}
	return c
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog, trimming and de-duplicating names while keeping order.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}
	c.Expense = dedupe(c.Expense)
	c.Income = dedupe(c.Income)
	if len(c.Expense) == 0 || len(c.Income) == 0 {
		return nil, errors.New("parse categories: both expense and income lists must be non-empty")
	}
	return &c, nil
}

// For returns a copy of the categories for kind.
func (c *Catalog) For(kind core.Kind) []string {
	switch kind {
	case core.Income:
		return append([]string(nil), c.Income...)
	case core.Expense:
		return append([]string(nil), c.Expense...)
	default:
		return nil
	}
}

// Canonical returns the catalog's spelling of name for kind. Matching ignores case.
func (c *Catalog) Canonical(kind core.Kind, name string) (string, bool) {
	for _, n := range c.For(kind) {
		if strings.EqualFold(n, name) {
			return n, true
		}
	}
	return "", false
}

// Contains reports whether name is listed for kind. Matching ignores case.
func (c *Catalog) Contains(kind core.Kind, name string) bool {
	_, ok := c.Canonical(kind, name)
	return ok
}

// Rule returns a validation rule rejecting categories not listed for the entry's kind.
// Accepted categories are rewritten to the catalog's spelling so that one category
// is always stored under one name.
func (c *Catalog) Rule() core.Rule {
	return func(e *core.Entry, verr *apperrors.ValidationError) {
		name, ok := c.Canonical(e.Kind, e.Category)
		if !ok {
			verr.Add("category", "Category is not valid for this transaction type")
			return
		}
		e.Category = name
	}
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
