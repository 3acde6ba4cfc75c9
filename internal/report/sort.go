package report

import (
	"cmp"
	"slices"
	"strings"

	"financeflow/internal/apperrors"
	"financeflow/internal/core"
)

// Direction is a sort order.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection accepts asc/ascending and desc/descending.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return "", apperrors.InvalidArgument("unknown sort direction %q", s)
	}
}

var comparators = map[string]func(a, b core.Transaction) int{
	"date":        func(a, b core.Transaction) int { return a.Date.Compare(b.Date) },
	"amount":      func(a, b core.Transaction) int { return cmp.Compare(a.Amount.Cents, b.Amount.Cents) },
	"category":    func(a, b core.Transaction) int { return strings.Compare(a.Category, b.Category) },
	"description": func(a, b core.Transaction) int { return strings.Compare(a.Description, b.Description) },
	"kind":        func(a, b core.Transaction) int { return strings.Compare(string(a.Kind), string(b.Kind)) },
	"createdAt":   func(a, b core.Transaction) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"id":          func(a, b core.Transaction) int { return strings.Compare(a.ID, b.ID) },
}

// SortFields lists the accepted field names for SortBy.
func SortFields() []string {
	fields := make([]string, 0, len(comparators))
	for f := range comparators {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	return fields
}

// SortBy returns a stably sorted copy of records. Records with equal keys keep their input order
// in both directions. dir takes any spelling ParseDirection accepts, e.g. "desc" or "descending".
func SortBy(records []core.Transaction, field string, dir Direction) ([]core.Transaction, error) {
	compare, ok := comparators[field]
	if !ok {
		return nil, apperrors.InvalidArgument("unknown sort field %q", field)
	}
	dir, err := ParseDirection(string(dir))
	if err != nil {
		return nil, err
	}
	if dir == Descending {
		asc := compare
		compare = func(a, b core.Transaction) int { return asc(b, a) }
	}
	out := slices.Clone(records)
	slices.SortStableFunc(out, compare)
	return out, nil
}
