package suggest

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// DefaultRetentionDays is how long history rows live before the purge
// maintenance pass removes them.
const DefaultRetentionDays = 180

// HistoryWriter is the append side of the history store. *storage.Store
// satisfies it.
type HistoryWriter interface {
	UpsertSearch(ctx context.Context, userID, query, sctx string, resultsCount int, now time.Time) error
	PurgeSearchesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Recorder appends to a user's search history. Recording runs after the
// search response and must never surface a failure to the caller.
type Recorder struct {
	history HistoryWriter
	logger  *slog.Logger
	now     func() time.Time
}

// NewRecorder creates a Recorder over the given history store.
func NewRecorder(history HistoryWriter) *Recorder {
	return &Recorder{
		history: history,
		logger:  slog.Default(),
		now:     time.Now,
	}
}

// Record upserts today's (user, query, context) row: first search inserts,
// repeats increment the count and overwrite results_count/last_searched.
// Errors are swallowed and logged; the primary response is already on its
// way.
func (r *Recorder) Record(ctx context.Context, userID, query, sctx string, resultsCount int) {
	query = strings.TrimSpace(query)
	if userID == "" || query == "" {
		return
	}
	c := ParseContext(sctx)
	if err := r.history.UpsertSearch(ctx, userID, query, string(c), resultsCount, r.now()); err != nil {
		r.logger.Warn("recording search failed",
			"user", userID, "query", query, "context", c, "error", err)
	}
}

// PurgeOlderThan deletes history entries older than the given number of days
// and returns the number of rows removed. Maintenance operation, not on the
// request path, so unlike Record it reports its error.
func (r *Recorder) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = DefaultRetentionDays
	}
	cutoff := r.now().Add(-time.Duration(days) * 24 * time.Hour)
	return r.history.PurgeSearchesBefore(ctx, cutoff)
}
