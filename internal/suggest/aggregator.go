package suggest

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mkoval/suggestd/internal/similarity"
)

const (
	// DefaultLimit is the suggestion count when the caller doesn't ask for one.
	DefaultLimit = 10
	maxLimit     = 50

	// DefaultSourceTimeout bounds each adapter call independently; a
	// timed-out source contributes nothing, same as a failed one.
	DefaultSourceTimeout = 400 * time.Millisecond
)

// Response is the aggregated result of one suggestion request. Trending is a
// separate top-up list, not folded into Suggestions.
type Response struct {
	Suggestions []Candidate `json:"suggestions"`
	Trending    []Candidate `json:"trending"`
}

// Aggregator orchestrates the concurrent fan-out to suggestion sources and
// owns ranking, truncation and the trending fallback. It holds no persistent
// state; given a fixed store snapshot its output is deterministic.
type Aggregator struct {
	sources       []Source
	engine        *Engine
	sourceTimeout time.Duration
	logger        *slog.Logger
}

// NewAggregator wires sources and the trending engine into an Aggregator.
// A non-positive sourceTimeout falls back to DefaultSourceTimeout.
func NewAggregator(sources []Source, engine *Engine, sourceTimeout time.Duration) *Aggregator {
	if sourceTimeout <= 0 {
		sourceTimeout = DefaultSourceTimeout
	}
	return &Aggregator{
		sources:       sources,
		engine:        engine,
		sourceTimeout: sourceTimeout,
		logger:        slog.Default(),
	}
}

// Suggest runs the full pipeline for one request. It never fails: source
// errors degrade to fewer candidates and an unexpected internal error
// degrades to an empty response, because suggestions must never block the
// caller's primary action.
func (a *Aggregator) Suggest(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("suggestion pipeline panicked", "panic", r, "query", req.Query)
			resp = Response{Suggestions: []Candidate{}, Trending: []Candidate{}}
		}
	}()

	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > maxLimit {
		req.Limit = maxLimit
	}
	req.Context = ParseContext(string(req.Context))

	// Empty input: nothing to match against, trending only.
	if strings.TrimSpace(req.Query) == "" {
		return Response{
			Suggestions: []Candidate{},
			Trending:    a.trendingTerms(ctx, req.Context, req.Limit, nil),
		}
	}

	suggestions := a.fanOut(ctx, req)
	rankCandidates(suggestions)
	if len(suggestions) > req.Limit {
		suggestions = suggestions[:req.Limit]
	}

	var trending []Candidate
	if remaining := req.Limit - len(suggestions); remaining > 0 {
		trending = a.trendingTerms(ctx, req.Context, remaining, suggestions)
	}

	if suggestions == nil {
		suggestions = []Candidate{}
	}
	if trending == nil {
		trending = []Candidate{}
	}
	return Response{Suggestions: suggestions, Trending: trending}
}

// fanOut dispatches the request to every source applicable to its context.
// Dispatch is concurrent; each call carries its own timeout and a failure is
// recovered into an empty slot. Results land in fixed per-source slots so
// completion order cannot influence the merge.
func (a *Aggregator) fanOut(ctx context.Context, req Request) []Candidate {
	results := make([][]Candidate, len(a.sources))

	g, gCtx := errgroup.WithContext(ctx)
	for i, src := range a.sources {
		if !src.InContext(req.Context) {
			continue
		}
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(gCtx, a.sourceTimeout)
			defer cancel()

			start := time.Now()
			candidates, err := src.Fetch(fetchCtx, req)
			if err != nil {
				// SourceUnavailable: recovered locally, never propagated.
				a.logger.Warn("suggestion source failed",
					"source", src.Type(), "query", req.Query, "error", err)
				return nil
			}
			a.logger.Debug("suggestion source finished",
				"source", src.Type(), "candidates", len(candidates), "elapsed", time.Since(start))
			results[i] = candidates
			return nil
		})
	}
	// Goroutines never return errors; Wait is just the join point.
	_ = g.Wait()

	return mergeCandidates(results)
}

// trendingTerms fetches trending candidates, dropping any text already
// present in the primary suggestions so the response stays duplicate-free.
func (a *Aggregator) trendingTerms(ctx context.Context, c Context, limit int, taken []Candidate) []Candidate {
	if a.engine == nil || limit <= 0 {
		return nil
	}
	// Over-fetch by the taken count so exclusions don't leave slots empty.
	candidates, err := a.engine.Trending(ctx, c, limit+len(taken))
	if err != nil {
		a.logger.Warn("trending lookup failed", "context", c, "error", err)
		return nil
	}

	seen := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		seen[similarity.Normalize(t.Text)] = struct{}{}
	}

	out := make([]Candidate, 0, limit)
	for _, c := range candidates {
		if _, dup := seen[similarity.Normalize(c.Text)]; dup {
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out
}
