package suggest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mkoval/suggestd/internal/similarity"
	"github.com/mkoval/suggestd/internal/storage"
)

const (
	// DefaultTrendingWindow bounds how far back trending looks.
	DefaultTrendingWindow = 7 * 24 * time.Hour
	// DefaultPersonalWindow bounds how far back personal history looks.
	DefaultPersonalWindow = 90 * 24 * time.Hour

	// trendingScore is the flat baseline for trending terms: discovery,
	// not meant to outrank a direct match.
	trendingScore = 0.5
	// Contextual templates score below organic matches.
	contextualRoleScore    = 0.7
	contextualGenericScore = 0.6
)

// HistoryReader is the history-store contract the engine reads from.
// *storage.Store satisfies it.
type HistoryReader interface {
	TrendingQueries(ctx context.Context, sctx string, since time.Time, limit int) ([]storage.QueryGroup, error)
	PopularQueries(ctx context.Context, sctx string, since time.Time) ([]storage.QueryGroup, error)
	UserSearches(ctx context.Context, userID, sctx string, since time.Time) ([]storage.SearchEntry, error)
}

// Engine computes trending, popular, personal and contextual suggestions
// from search history. It owns no state beyond its configuration; all reads
// go to the history store.
type Engine struct {
	history        HistoryReader
	trendingWindow time.Duration
	personalWindow time.Duration
	now            func() time.Time
}

// NewEngine creates an Engine over the given history store. Zero windows
// fall back to the defaults (7 days trending, 90 days personal).
func NewEngine(history HistoryReader, trendingWindow, personalWindow time.Duration) *Engine {
	if trendingWindow <= 0 {
		trendingWindow = DefaultTrendingWindow
	}
	if personalWindow <= 0 {
		personalWindow = DefaultPersonalWindow
	}
	return &Engine{
		history:        history,
		trendingWindow: trendingWindow,
		personalWindow: personalWindow,
		now:            time.Now,
	}
}

// Trending returns recency-weighted trending terms for a context: queries
// searched by at least two distinct users inside the trending window,
// ordered by distinct-user count then total occurrences, all carrying the
// flat baseline score.
func (e *Engine) Trending(ctx context.Context, c Context, limit int) ([]Candidate, error) {
	if limit <= 0 {
		return nil, nil
	}
	since := e.now().Add(-e.trendingWindow)
	groups, err := e.history.TrendingQueries(ctx, contextKey(c), since, limit)
	if err != nil {
		return nil, fmt.Errorf("trending terms: %w", err)
	}

	out := make([]Candidate, 0, len(groups))
	for _, g := range groups {
		last := g.LastSearched
		out = append(out, Candidate{
			Text:          g.Query,
			SourceType:    SourceTrending,
			CategoryLabel: SourceTrending.Label(),
			Score:         trendingScore,
			UsageCount:    g.TotalSearches,
			LastUsed:      &last,
		})
	}
	return out, nil
}

// PersonalSuggestions returns the user's own past searches fuzzily matching
// term, ordered by similarity, then recency, then frequency.
func (e *Engine) PersonalSuggestions(ctx context.Context, term, userID string, c Context, limit int) ([]Candidate, error) {
	if userID == "" || limit <= 0 {
		return nil, nil
	}
	since := e.now().Add(-e.personalWindow)
	entries, err := e.history.UserSearches(ctx, userID, contextKey(c), since)
	if err != nil {
		return nil, fmt.Errorf("personal suggestions: %w", err)
	}

	type scored struct {
		entry storage.SearchEntry
		sim   float64
	}
	var matches []scored
	for _, en := range entries {
		sim := similarity.Score(term, en.Query)
		if sim >= similarity.DefaultThreshold {
			matches = append(matches, scored{entry: en, sim: sim})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].sim != matches[j].sim {
			return matches[i].sim > matches[j].sim
		}
		if !matches[i].entry.LastSearched.Equal(matches[j].entry.LastSearched) {
			return matches[i].entry.LastSearched.After(matches[j].entry.LastSearched)
		}
		return matches[i].entry.SearchCount > matches[j].entry.SearchCount
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]Candidate, len(matches))
	for i, m := range matches {
		last := m.entry.LastSearched
		out[i] = Candidate{
			Text:          m.entry.Query,
			SourceType:    SourcePersonal,
			CategoryLabel: SourcePersonal.Label(),
			Score:         m.sim,
			UsageCount:    m.entry.SearchCount,
			LastUsed:      &last,
		}
	}
	return out, nil
}

// popularMatches returns community queries from the trending window fuzzily
// matching term, ordered by similarity then total occurrences.
func (e *Engine) popularMatches(ctx context.Context, term string, c Context, limit int) ([]Candidate, error) {
	if limit <= 0 {
		return nil, nil
	}
	since := e.now().Add(-e.trendingWindow)
	groups, err := e.history.PopularQueries(ctx, contextKey(c), since)
	if err != nil {
		return nil, fmt.Errorf("popular matches: %w", err)
	}

	type scored struct {
		group storage.QueryGroup
		sim   float64
	}
	var matches []scored
	for _, g := range groups {
		sim := similarity.Score(term, g.Query)
		if sim >= similarity.DefaultThreshold {
			matches = append(matches, scored{group: g, sim: sim})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].sim != matches[j].sim {
			return matches[i].sim > matches[j].sim
		}
		return matches[i].group.TotalSearches > matches[j].group.TotalSearches
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]Candidate, len(matches))
	for i, m := range matches {
		out[i] = Candidate{
			Text:          m.group.Query,
			SourceType:    SourcePopular,
			CategoryLabel: SourcePopular.Label(),
			Score:         m.sim,
			UsageCount:    m.group.TotalSearches,
		}
	}
	return out, nil
}

// roleTemplates maps a role name to phrasings built around the raw term.
var roleTemplates = map[string][]string{
	"instructor": {"create a %s block", "%s rubric"},
	"student":    {"learn %s", "%s practice"},
	"admin":      {"%s usage report"},
}

// genericTemplates apply regardless of roles when the term carries an intent
// keyword.
var genericTemplates = []struct {
	keyword  string
	template string
}{
	{"how", "%s tutorial"},
	{"what", "%s overview"},
	{"example", "%s examples"},
}

// ContextualSuggestions rewrites term into role-flavored phrasings. It is a
// pure templating step: no lookups, always succeeds, zero or more synthetic
// candidates scored below organic matches.
func (e *Engine) ContextualSuggestions(term string, _ Context, roles []string, limit int) []Candidate {
	term = strings.TrimSpace(term)
	if term == "" || limit <= 0 {
		return nil
	}

	var out []Candidate
	add := func(text string, score float64) {
		if len(out) >= limit {
			return
		}
		out = append(out, Candidate{
			Text:          text,
			SourceType:    SourceContextual,
			CategoryLabel: SourceContextual.Label(),
			Score:         score,
		})
	}

	for _, role := range roles {
		for _, tmpl := range roleTemplates[strings.ToLower(role)] {
			add(fmt.Sprintf(tmpl, term), contextualRoleScore)
		}
	}

	lower := strings.ToLower(term)
	for _, g := range genericTemplates {
		if strings.Contains(lower, g.keyword) {
			add(fmt.Sprintf(g.template, term), contextualGenericScore)
		}
	}
	return out
}
