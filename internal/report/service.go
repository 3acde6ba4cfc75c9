package report

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"financeflow/internal/cache"
	"financeflow/internal/core"
	"financeflow/internal/log"
)

// Source is a consistent view of the ledger: its records and the revision they belong to.
type Source interface {
	Snapshot() ([]core.Transaction, uint64)
}

// Request parameterises a report.
type Request struct {
	Window Window
	TopN   int
	Today  core.Date
}

// Report is a complete period report. Cached reports are shared; callers must not modify them.
type Report struct {
	Window         Window
	Label          string
	Today          core.Date
	Summary        core.Summary
	TopCategories  []core.CategoryTotal
	AverageExpense core.Money
	Health         HealthScore
	HasHealth      bool
	Records        []core.Transaction // inside the window, newest date first
}

// Generate builds a report over records.
func Generate(records []core.Transaction, req Request) (Report, error) {
	windowed, err := FilterByDateWindow(records, req.Window, req.Today)
	if err != nil {
		return Report{}, err
	}
	top, err := TopCategories(windowed, req.TopN)
	if err != nil {
		return Report{}, err
	}
	sorted, err := SortBy(windowed, "date", Descending)
	if err != nil {
		return Report{}, err
	}
	summary := Summarize(windowed)
	health, ok := Health(summary)
	return Report{
		Window:         req.Window,
		Label:          req.Window.Label(),
		Today:          req.Today,
		Summary:        summary,
		TopCategories:  top,
		AverageExpense: AverageExpense(windowed),
		Health:         health,
		HasHealth:      ok,
		Records:        sorted,
	}, nil
}

// Service memoizes reports per ledger revision.
type Service struct {
	source Source
	cache  cache.Cache[Report]
	group  singleflight.Group
	logger *log.Logger
}

// NewService returns a Service reading from source. A nil cache disables memoization.
func NewService(source Source, c cache.Cache[Report], logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{source: source, cache: c, logger: logger.WithComponent(log.ComponentReport)}
}

// Build returns the report for req, computing it at most once per ledger revision.
func (s *Service) Build(ctx context.Context, req Request) (Report, error) {
	records, revision := s.source.Snapshot()
	key := fmt.Sprintf("%d|%s|%d|%s", revision, req.Window, req.TopN, req.Today)

	if s.cache != nil {
		if r, ok := s.cache.Get(key); ok {
			s.logger.DebugContext(ctx, "Report cache hit", log.FieldRevision, revision, log.FieldWindow, req.Window.String())
			return r, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		r, err := Generate(records, req)
		if err != nil {
			return Report{}, err
		}
		if s.cache != nil {
			s.cache.Set(key, r)
		}
		s.logger.DebugContext(ctx, "Report generated",
			log.FieldRevision, revision,
			log.FieldWindow, req.Window.String(),
			log.FieldCount, r.Summary.Count)
		return r, nil
	})
	if err != nil {
		return Report{}, err
	}
	return v.(Report), nil
}
