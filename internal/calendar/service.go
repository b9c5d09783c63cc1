package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/dalbo/briefingbot/internal/clock"
	"github.com/dalbo/briefingbot/internal/logging"
)

// Window is how far the expansion window reaches around "now". Thirty
// days each way keeps multi-day and recently recurring events available
// to the relevance filter without unbounded expansion.
const Window = 30 * 24 * time.Hour

// ErrAllSourcesFailed means no configured source produced a body this
// cycle. Distinct from "zero events found", which is a successful empty
// result.
var ErrAllSourcesFailed = errors.New("calendar: all sources failed")

// Service runs the full ingestion pipeline: fetch every source, parse,
// expand recurring series, filter to today. Stateless per invocation.
type Service struct {
	sources  []Source
	fetcher  *Fetcher
	expander *Expander
	zone     *clock.Zone
	now      func() time.Time
}

// NewService wires the pipeline. The now function is the cycle's clock;
// pass time.Now in production.
func NewService(sources []Source, fetcher *Fetcher, zone *clock.Zone, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		sources:  sources,
		fetcher:  fetcher,
		expander: NewExpander(),
		zone:     zone,
		now:      now,
	}
}

// TodayEvents returns today's events across all sources, ordered by
// start time. Individual source or event failures degrade gracefully;
// only every source failing is an error.
func (s *Service) TodayEvents(ctx context.Context) ([]Event, error) {
	now := s.now()
	pool, err := s.expandAll(ctx, now)
	if err != nil {
		return nil, err
	}
	return FilterToday(pool, s.zone, now), nil
}

// expandAll fetches and expands every source into the ±Window pool.
// Each source's expansion writes its own slice; results are merged by
// concatenation once all fetches settle.
func (s *Service) expandAll(ctx context.Context, now time.Time) ([]Event, error) {
	if len(s.sources) == 0 {
		return nil, nil
	}

	results, errs := s.fetcher.FetchAll(ctx, s.sources)
	if len(results) == 0 {
		return nil, errors.Join(append([]error{ErrAllSourcesFailed}, errs...)...)
	}

	rangeStart := now.Add(-Window)
	rangeEnd := now.Add(Window)

	pool := make([]Event, 0)
	for _, res := range results {
		parsed, perr := Parse(res.Source, res.Body)
		if perr != nil {
			logging.Error("calendar: source parse failed, skipping", perr, "source", res.Source.ID)
			continue
		}
		pool = append(pool, s.expander.Expand(parsed, rangeStart, rangeEnd)...)
	}

	logging.Info("calendar: expansion complete",
		"sources_ok", len(results), "sources_failed", len(errs), "occurrences", len(pool))
	return pool, nil
}
