package report

import (
	"fmt"
	"strconv"
	"strings"

	"financeflow/internal/apperrors"
	"financeflow/internal/core"
)

// DefaultWindowDays is the report window used when none is given.
const DefaultWindowDays = 30

// Window selects either every record or those dated within the last Days days.
type Window struct {
	Days int
	All  bool
}

// AllTime is the unbounded window.
var AllTime = Window{All: true}

// LastDays returns a window of n days.
func LastDays(n int) Window { return Window{Days: n} }

// ParseWindow accepts "all" or a non-negative number of days.
func ParseWindow(s string) (Window, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return LastDays(DefaultWindowDays), nil
	}
	if s == "all" {
		return AllTime, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return Window{}, apperrors.InvalidArgument("window must be \"all\" or a non-negative number of days, got %q", s)
	}
	return LastDays(n), nil
}

func (w Window) String() string {
	if w.All {
		return "all"
	}
	return strconv.Itoa(w.Days)
}

// Label is the human title of the window, e.g. "Last 30 days" or "All Time".
func (w Window) Label() string {
	if w.All {
		return "All Time"
	}
	return fmt.Sprintf("Last %d days", w.Days)
}

// FilterByDateWindow keeps records dated on or after today minus the window's days.
// Dates are compared as calendar dates, so a record dated today is always kept.
func FilterByDateWindow(records []core.Transaction, w Window, today core.Date) ([]core.Transaction, error) {
	if w.All {
		return append([]core.Transaction{}, records...), nil
	}
	if w.Days < 0 {
		return nil, apperrors.InvalidArgument("window days must be non-negative, got %d", w.Days)
	}
	cutoff := today.AddDays(-w.Days)
	out := make([]core.Transaction, 0, len(records))
	for _, r := range records {
		if r.Date.Compare(cutoff) >= 0 {
			out = append(out, r)
		}
	}
	return out, nil
}
