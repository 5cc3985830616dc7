package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UpsertSearch records one search by a user. The row is keyed by
// (user, query, context, day): the first search of the day inserts, repeats
// increment search_count and overwrite results_count/last_searched. The
// conflict clause keeps this race-safe under concurrent same-user searches.
func (s *Store) UpsertSearch(ctx context.Context, userID, query, sctx string, resultsCount int, now time.Time) error {
	now = now.UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_history (id, user_id, query, context, day, search_count, results_count, last_searched, created_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?)
		ON CONFLICT(user_id, query, context, day) DO UPDATE SET
			search_count = search_count + 1,
			results_count = excluded.results_count,
			last_searched = excluded.last_searched`,
		uuid.New().String(), userID, query, sctx, now.Format("2006-01-02"),
		resultsCount, now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting search history: %w", err)
	}
	return nil
}

// TrendingQueries groups recent history by query text and returns only
// queries searched by at least two distinct users, ordered by distinct-user
// count then total occurrences. A single user hammering one query never
// trends.
func (s *Store) TrendingQueries(ctx context.Context, sctx string, since time.Time, limit int) ([]QueryGroup, error) {
	args := []any{since.UTC().Format(time.RFC3339)}
	contextFilter := ""
	if sctx != "" && sctx != "all" {
		contextFilter = "AND context = ?"
		args = append(args, sctx)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT query, COUNT(DISTINCT user_id) AS users, SUM(search_count) AS total, MAX(last_searched)
		FROM search_history
		WHERE last_searched >= ? %s
		GROUP BY lower(query)
		HAVING COUNT(DISTINCT user_id) >= 2
		ORDER BY users DESC, total DESC, lower(query) ASC
		LIMIT ?`, contextFilter), args...)
	if err != nil {
		return nil, fmt.Errorf("querying trending: %w", err)
	}
	return scanQueryGroups(rows)
}

// PopularQueries groups recent history across all users, fuzzily matchable by
// the popular source. No distinct-user floor here; popularity is dampened at
// scoring time instead.
func (s *Store) PopularQueries(ctx context.Context, sctx string, since time.Time) ([]QueryGroup, error) {
	args := []any{since.UTC().Format(time.RFC3339)}
	contextFilter := ""
	if sctx != "" && sctx != "all" {
		contextFilter = "AND context = ?"
		args = append(args, sctx)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT query, COUNT(DISTINCT user_id) AS users, SUM(search_count) AS total, MAX(last_searched)
		FROM search_history
		WHERE last_searched >= ? %s
		GROUP BY lower(query)
		ORDER BY total DESC, lower(query) ASC`, contextFilter), args...)
	if err != nil {
		return nil, fmt.Errorf("querying popular: %w", err)
	}
	return scanQueryGroups(rows)
}

// UserSearches returns one user's own history rows since the given time,
// most recent first.
func (s *Store) UserSearches(ctx context.Context, userID, sctx string, since time.Time) ([]SearchEntry, error) {
	args := []any{userID, since.UTC().Format(time.RFC3339)}
	contextFilter := ""
	if sctx != "" && sctx != "all" {
		contextFilter = "AND context = ?"
		args = append(args, sctx)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, user_id, query, context, day, search_count, results_count, last_searched, created_at
		FROM search_history
		WHERE user_id = ? AND last_searched >= ? %s
		ORDER BY last_searched DESC`, contextFilter), args...)
	if err != nil {
		return nil, fmt.Errorf("querying user searches: %w", err)
	}
	return scanSearchEntries(rows)
}

// RecentSearches returns a user's most recent history rows.
func (s *Store) RecentSearches(ctx context.Context, userID string, limit int) ([]SearchEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, query, context, day, search_count, results_count, last_searched, created_at
		FROM search_history
		WHERE user_id = ?
		ORDER BY last_searched DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent searches: %w", err)
	}
	return scanSearchEntries(rows)
}

// PurgeSearchesBefore deletes history rows last searched before cutoff and
// returns the number of rows removed. Maintenance path, never called during
// suggestion requests.
func (s *Store) PurgeSearchesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM search_history WHERE last_searched < ?`,
		cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("purging search history: %w", err)
	}
	return res.RowsAffected()
}

func scanQueryGroups(rows *sql.Rows) ([]QueryGroup, error) {
	defer rows.Close()

	var groups []QueryGroup
	for rows.Next() {
		var g QueryGroup
		var lastSearched string
		if err := rows.Scan(&g.Query, &g.DistinctUsers, &g.TotalSearches, &lastSearched); err != nil {
			return nil, fmt.Errorf("scanning query group: %w", err)
		}
		t, err := time.Parse(time.RFC3339, lastSearched)
		if err != nil {
			return nil, fmt.Errorf("parsing last_searched: %w", err)
		}
		g.LastSearched = t
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func scanSearchEntries(rows *sql.Rows) ([]SearchEntry, error) {
	defer rows.Close()

	var entries []SearchEntry
	for rows.Next() {
		var e SearchEntry
		var lastSearched, createdAt string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Query, &e.Context, &e.Day,
			&e.SearchCount, &e.ResultsCount, &lastSearched, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning search entry: %w", err)
		}
		t, err := time.Parse(time.RFC3339, lastSearched)
		if err != nil {
			return nil, fmt.Errorf("parsing last_searched for %s: %w", e.ID, err)
		}
		e.LastSearched = t
		if c, err := time.Parse(time.RFC3339, createdAt); err == nil {
			e.CreatedAt = c
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
