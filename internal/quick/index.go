// Package quick provides the lightweight autocomplete path: exact-prefix
// matching over public catalog texts, alphabetic order, no scoring. It backs
// the keystroke-driven variant of the suggestion API where ranking latency
// is not worth paying.
package quick

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/mkoval/suggestd/internal/similarity"
	"github.com/mkoval/suggestd/internal/storage"
	"github.com/mkoval/suggestd/internal/suggest"
)

// Entry is one autocomplete result.
type Entry struct {
	Text          string `json:"text"`
	SourceType    string `json:"source_type"`
	CategoryLabel string `json:"category_label"`
}

// PrefixLister is the store contract the index rebuilds from.
type PrefixLister interface {
	PrefixEntries(ctx context.Context) ([]storage.PrefixEntry, error)
}

// DefaultRefreshInterval is how often the index rebuilds from storage.
const DefaultRefreshInterval = time.Minute

// Index is a radix-trie prefix index over catalog texts. Lookups are served
// from an immutable trie swapped wholesale on rebuild, so the read path
// takes only an RLock.
type Index struct {
	store    PrefixLister
	interval time.Duration
	logger   *slog.Logger

	mu   sync.RWMutex
	trie *patricia.Trie
}

// NewIndex creates an empty Index over the given store. A non-positive
// interval falls back to DefaultRefreshInterval.
func NewIndex(store PrefixLister, interval time.Duration) *Index {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Index{
		store:    store,
		interval: interval,
		logger:   slog.Default(),
		trie:     patricia.NewTrie(),
	}
}

// Rebuild reloads the trie from storage. The old trie keeps serving lookups
// until the new one is ready.
func (ix *Index) Rebuild(ctx context.Context) error {
	entries, err := ix.store.PrefixEntries(ctx)
	if err != nil {
		return fmt.Errorf("loading prefix entries: %w", err)
	}

	trie := patricia.NewTrie()
	for _, e := range entries {
		key := patricia.Prefix(similarity.Normalize(e.Text))
		if len(key) == 0 {
			continue
		}
		entry := Entry{
			Text:          e.Text,
			SourceType:    e.SourceType,
			CategoryLabel: suggest.SourceType(e.SourceType).Label(),
		}
		if existing := trie.Get(key); existing != nil {
			trie.Set(key, append(existing.([]Entry), entry))
		} else {
			trie.Insert(key, []Entry{entry})
		}
	}

	ix.mu.Lock()
	ix.trie = trie
	ix.mu.Unlock()
	return nil
}

// Lookup returns entries whose text starts with prefix, filtered by context,
// in alphabetic order, truncated to limit. An empty prefix matches nothing.
func (ix *Index) Lookup(prefix, contextName string, limit int) []Entry {
	key := similarity.Normalize(prefix)
	if key == "" || limit <= 0 {
		return nil
	}
	allowed := contextSourceTypes(suggest.ParseContext(contextName))

	ix.mu.RLock()
	trie := ix.trie
	ix.mu.RUnlock()

	var results []Entry
	_ = trie.VisitSubtree(patricia.Prefix(key), func(_ patricia.Prefix, item patricia.Item) error {
		for _, e := range item.([]Entry) {
			if _, ok := allowed[e.SourceType]; ok {
				results = append(results, e)
			}
		}
		return nil
	})

	sort.Slice(results, func(i, j int) bool {
		a, b := similarity.Normalize(results[i].Text), similarity.Normalize(results[j].Text)
		if a != b {
			return a < b
		}
		return results[i].SourceType < results[j].SourceType
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Run rebuilds the index immediately and then on every interval tick until
// ctx is cancelled.
func (ix *Index) Run(ctx context.Context) {
	if err := ix.Rebuild(ctx); err != nil {
		ix.logger.Warn("initial quick-index build failed", "error", err)
	}

	ticker := time.NewTicker(ix.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ix.Rebuild(ctx); err != nil {
				ix.logger.Warn("quick-index rebuild failed", "error", err)
			}
		}
	}
}

func contextSourceTypes(c suggest.Context) map[string]struct{} {
	switch c {
	case suggest.ContextBlocks:
		return map[string]struct{}{"block": {}, "category": {}}
	case suggest.ContextUsers:
		return map[string]struct{}{"user": {}}
	case suggest.ContextTopics:
		return map[string]struct{}{"topic": {}}
	default:
		return map[string]struct{}{"block": {}, "category": {}, "user": {}, "topic": {}}
	}
}
