package providers

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bep/debounce"
	"go.uber.org/zap"
)

// fetchFunc produces candidates for a query.
type fetchFunc func(ctx context.Context, query string) ([]Candidate, error)

// searcher is the pipeline shared by every searchable provider: debounced
// input, a generation token that discards superseded responses, and a
// minimum dwell so results never flash by faster than the loading state.
//
// Results for a request are only rendered while its generation is still the
// newest one. A slow response that arrives after a newer search started is
// dropped instead of overwriting the newer results.
type searcher struct {
	panel    *Panel
	fetch    fetchFunc
	minDwell time.Duration
	log      *zap.Logger

	generation atomic.Uint64
	debounced  func(func())
	wg         sync.WaitGroup
}

func newSearcher(panel *Panel, fetch fetchFunc, window, minDwell time.Duration, log *zap.Logger) *searcher {
	s := &searcher{
		panel:    panel,
		fetch:    fetch,
		minDwell: minDwell,
		log:      log,
	}
	if window > 0 {
		s.debounced = debounce.New(window)
	} else {
		s.debounced = func(f func()) { f() }
	}
	return s
}

// Search schedules a run through the debounce window. Rapid successive
// calls collapse into a single run with the last query.
func (s *searcher) Search(ctx context.Context, query string) {
	s.debounced(func() {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.run(ctx, query)
		}()
	})
}

// SearchNow bypasses the debounce window and blocks until done.
func (s *searcher) SearchNow(ctx context.Context, query string) {
	s.run(ctx, query)
}

// Wait blocks until in-flight debounced runs finish.
func (s *searcher) Wait() {
	s.wg.Wait()
}

func (s *searcher) run(ctx context.Context, query string) {
	gen := s.generation.Add(1)
	s.panel.Loading()
	start := time.Now()

	cands, err := s.fetch(ctx, query)
	if s.generation.Load() != gen {
		s.log.Debug("Discarding superseded search", zap.String("query", query))
		return
	}
	if err != nil {
		// Errors surface immediately, the dwell only applies to results.
		s.panel.Fail(err)
		return
	}

	if remaining := s.minDwell - time.Since(start); remaining > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(remaining):
		}
		if s.generation.Load() != gen {
			s.log.Debug("Discarding superseded search", zap.String("query", query))
			return
		}
	}
	s.panel.Render(cands)
}

// normalizeQuery substitutes the default query for input that is too short
// to search with.
func normalizeQuery(query, defaultQuery string, minLen int) string {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minLen || len(query) == 0 {
		return defaultQuery
	}
	return query
}
