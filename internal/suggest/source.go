package suggest

import (
	"context"
	"fmt"

	"github.com/mkoval/suggestd/internal/storage"
)

// Request carries one suggestion query through the pipeline.
type Request struct {
	Query       string
	Context     Context
	RequesterID string
	Limit       int
}

// Source is one suggestion source adapter. Fetch returns raw candidates for
// a non-empty term; any error is recovered at the aggregator boundary and
// treated as an empty result.
type Source interface {
	Type() SourceType
	InContext(c Context) bool
	Fetch(ctx context.Context, req Request) ([]Candidate, error)
}

// CatalogSearcher is the read-only query-store contract the catalog sources
// consume. *storage.Store satisfies it.
type CatalogSearcher interface {
	SearchBlocks(ctx context.Context, term, requesterID string, limit int) ([]storage.Match, error)
	SearchCategories(ctx context.Context, term string, limit int) ([]storage.Match, error)
	SearchUsers(ctx context.Context, term string, limit int) ([]storage.Match, error)
	SearchTopics(ctx context.Context, term string, limit int) ([]storage.Match, error)
	UserRoles(ctx context.Context, userID string) ([]string, error)
}

// sourceCap bounds how many candidates a single source may contribute, so no
// one source dominates a merged result set.
func sourceCap(limit int) int {
	c := limit / 2
	if c < 3 {
		c = 3
	}
	return c
}

func matchesToCandidates(matches []storage.Match, t SourceType) []Candidate {
	if len(matches) == 0 {
		return nil
	}
	out := make([]Candidate, len(matches))
	for i, m := range matches {
		out[i] = Candidate{
			Text:          m.Text,
			SourceType:    t,
			CategoryLabel: t.Label(),
			Score:         m.Similarity,
			UsageCount:    m.UsageCount,
		}
	}
	return out
}

// --- catalog-backed sources ---

type blockSource struct{ catalog CatalogSearcher }

func (s blockSource) Type() SourceType { return SourceBlock }

func (s blockSource) InContext(c Context) bool { return c == ContextAll || c == ContextBlocks }

func (s blockSource) Fetch(ctx context.Context, req Request) ([]Candidate, error) {
	matches, err := s.catalog.SearchBlocks(ctx, req.Query, req.RequesterID, sourceCap(req.Limit))
	if err != nil {
		return nil, fmt.Errorf("block source: %w", err)
	}
	return matchesToCandidates(matches, SourceBlock), nil
}

type categorySource struct{ catalog CatalogSearcher }

func (s categorySource) Type() SourceType { return SourceCategory }

func (s categorySource) InContext(c Context) bool { return c == ContextAll || c == ContextBlocks }

func (s categorySource) Fetch(ctx context.Context, req Request) ([]Candidate, error) {
	matches, err := s.catalog.SearchCategories(ctx, req.Query, sourceCap(req.Limit))
	if err != nil {
		return nil, fmt.Errorf("category source: %w", err)
	}
	return matchesToCandidates(matches, SourceCategory), nil
}

type userSource struct{ catalog CatalogSearcher }

func (s userSource) Type() SourceType { return SourceUser }

func (s userSource) InContext(c Context) bool { return c == ContextAll || c == ContextUsers }

func (s userSource) Fetch(ctx context.Context, req Request) ([]Candidate, error) {
	matches, err := s.catalog.SearchUsers(ctx, req.Query, sourceCap(req.Limit))
	if err != nil {
		return nil, fmt.Errorf("user source: %w", err)
	}
	return matchesToCandidates(matches, SourceUser), nil
}

type topicSource struct{ catalog CatalogSearcher }

func (s topicSource) Type() SourceType { return SourceTopic }

func (s topicSource) InContext(c Context) bool { return c == ContextAll || c == ContextTopics }

func (s topicSource) Fetch(ctx context.Context, req Request) ([]Candidate, error) {
	matches, err := s.catalog.SearchTopics(ctx, req.Query, sourceCap(req.Limit))
	if err != nil {
		return nil, fmt.Errorf("topic source: %w", err)
	}
	return matchesToCandidates(matches, SourceTopic), nil
}

// --- history-backed sources ---

// popularSource surfaces community queries fuzzily matching the term. It
// participates in every context: the stored search_context narrows the rows
// instead.
type popularSource struct{ engine *Engine }

func (s popularSource) Type() SourceType { return SourcePopular }

func (s popularSource) InContext(Context) bool { return true }

func (s popularSource) Fetch(ctx context.Context, req Request) ([]Candidate, error) {
	return s.engine.popularMatches(ctx, req.Query, req.Context, sourceCap(req.Limit))
}

// personalSource surfaces the requester's own recent searches.
type personalSource struct{ engine *Engine }

func (s personalSource) Type() SourceType { return SourcePersonal }

func (s personalSource) InContext(Context) bool { return true }

func (s personalSource) Fetch(ctx context.Context, req Request) ([]Candidate, error) {
	return s.engine.PersonalSuggestions(ctx, req.Query, req.RequesterID, req.Context, sourceCap(req.Limit))
}

// contextualSource rewrites the term into role-flavored phrasings. Pure
// templating; it cannot fail, only return nothing.
type contextualSource struct {
	catalog CatalogSearcher
	engine  *Engine
}

func (s contextualSource) Type() SourceType { return SourceContextual }

func (s contextualSource) InContext(Context) bool { return true }

func (s contextualSource) Fetch(ctx context.Context, req Request) ([]Candidate, error) {
	roles, err := s.catalog.UserRoles(ctx, req.RequesterID)
	if err != nil {
		roles = nil
	}
	return s.engine.ContextualSuggestions(req.Query, req.Context, roles, sourceCap(req.Limit)), nil
}

// Sources assembles the full adapter set in dispatch-priority order over the
// given catalog store and trending engine.
func Sources(catalog CatalogSearcher, engine *Engine) []Source {
	return []Source{
		blockSource{catalog},
		categorySource{catalog},
		userSource{catalog},
		topicSource{catalog},
		popularSource{engine},
		personalSource{engine},
		contextualSource{catalog, engine},
	}
}

// contextKey maps a request Context to the stored search_context filter.
func contextKey(c Context) string {
	if c == "" {
		return string(ContextAll)
	}
	return string(c)
}
