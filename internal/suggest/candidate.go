// Package suggest implements the search-suggestion aggregation engine: it
// fans out a partial query to heterogeneous suggestion sources, merges and
// deduplicates the candidates under a fixed scoring model, and falls back to
// trending terms when primary suggestions run short.
package suggest

import "time"

// SourceType identifies where a candidate came from.
type SourceType string

const (
	SourceBlock      SourceType = "block"
	SourceCategory   SourceType = "category"
	SourceUser       SourceType = "user"
	SourceTopic      SourceType = "topic"
	SourcePopular    SourceType = "popular"
	SourcePersonal   SourceType = "personal"
	SourceTrending   SourceType = "trending"
	SourceContextual SourceType = "contextual"
)

// Context narrows which sources participate in a request.
type Context string

const (
	ContextAll    Context = "all"
	ContextBlocks Context = "blocks"
	ContextUsers  Context = "users"
	ContextTopics Context = "topics"
)

// ParseContext maps a request string to a Context, defaulting to ContextAll
// for empty or unknown values (suggestions are best-effort; a bad context is
// not an error).
func ParseContext(s string) Context {
	switch Context(s) {
	case ContextBlocks, ContextUsers, ContextTopics:
		return Context(s)
	default:
		return ContextAll
	}
}

// Candidate is one scored suggestion flowing through the pipeline.
type Candidate struct {
	Text          string     `json:"text"`
	SourceType    SourceType `json:"source_type"`
	CategoryLabel string     `json:"category_label"`
	Score         float64    `json:"score"`
	UsageCount    int        `json:"usage_count"`
	LastUsed      *time.Time `json:"last_used,omitempty"`
}

// sourceProfile centralizes the per-source scoring table: the score
// multiplier applied during merging, the dispatch priority used to break
// text collisions (lower wins), and the human-readable label.
type sourceProfile struct {
	multiplier float64
	priority   int
	label      string
}

var sourceProfiles = map[SourceType]sourceProfile{
	SourceBlock:      {multiplier: 1.2, priority: 1, label: "Block"},    // exact catalog-title match is a strong signal
	SourceCategory:   {multiplier: 1.0, priority: 2, label: "Category"},
	SourceUser:       {multiplier: 1.0, priority: 3, label: "User"},
	SourceTopic:      {multiplier: 1.0, priority: 4, label: "Topic"},
	SourcePopular:    {multiplier: 0.8, priority: 5, label: "Popular"},  // community history is noisier
	SourcePersonal:   {multiplier: 1.1, priority: 6, label: "Recent"},   // slight personalization boost
	SourceContextual: {multiplier: 1.0, priority: 7, label: "Suggested"},
	SourceTrending:   {multiplier: 1.0, priority: 8, label: "Trending"},
}

// Label returns the display label for the source type.
func (t SourceType) Label() string {
	return sourceProfiles[t].label
}

func (t SourceType) multiplier() float64 {
	if p, ok := sourceProfiles[t]; ok {
		return p.multiplier
	}
	return 1.0
}

func (t SourceType) priority() int {
	if p, ok := sourceProfiles[t]; ok {
		return p.priority
	}
	return len(sourceProfiles) + 1
}
