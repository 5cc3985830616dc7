package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/mkoval/suggestd/internal/similarity"
)

// Catalog search scans candidate rows and scores them in Go with the trigram
// matcher. SQLite carries the visibility filter; similarity ordering happens
// here because the metric lives in Go.

// SearchBlocks returns blocks whose title fuzzily matches term. Non-public
// blocks are excluded unless requesterID is the creator; the filter is part
// of the query, not a post-filter.
func (s *Store) SearchBlocks(ctx context.Context, term, requesterID string, limit int) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, usage_count FROM blocks
		WHERE visibility = 'public' OR creator_id = ?`, requesterID)
	if err != nil {
		return nil, fmt.Errorf("querying blocks: %w", err)
	}
	return scanAndScore(rows, term, limit)
}

// SearchCategories returns categories whose name fuzzily matches term.
func (s *Store) SearchCategories(ctx context.Context, term string, limit int) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, usage_count FROM categories`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	return scanAndScore(rows, term, limit)
}

// SearchUsers returns usernames fuzzily matching term. Display names are
// matched too; the username is what gets suggested.
func (s *Store) SearchUsers(ctx context.Context, term string, limit int) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT username, display_name FROM users`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var username, displayName string
		if err := rows.Scan(&username, &displayName); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		score := similarity.Score(term, username)
		if alt := similarity.Score(term, displayName); alt > score {
			score = alt
		}
		if score >= similarity.DefaultThreshold {
			matches = append(matches, Match{Text: username, Similarity: score})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	sortMatches(matches)
	return truncateMatches(matches, limit), nil
}

// SearchTopics returns topic tags fuzzily matching term.
func (s *Store) SearchTopics(ctx context.Context, term string, limit int) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tag, usage_count FROM topics`)
	if err != nil {
		return nil, fmt.Errorf("querying topics: %w", err)
	}
	return scanAndScore(rows, term, limit)
}

// UserRoles returns the role names declared on a user, empty for unknown
// users.
func (s *Store) UserRoles(ctx context.Context, userID string) ([]string, error) {
	var roles string
	err := s.db.QueryRowContext(ctx, `SELECT roles FROM users WHERE id = ?`, userID).Scan(&roles)
	if err != nil {
		// Unknown requester is not an error; contextual templates just get no roles.
		return nil, nil
	}
	return splitRoles(roles), nil
}

// PrefixEntries returns every public catalog text with its source type, for
// the quick autocomplete index.
func (s *Store) PrefixEntries(ctx context.Context) ([]PrefixEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, 'block' FROM blocks WHERE visibility = 'public'
		UNION ALL SELECT name, 'category' FROM categories
		UNION ALL SELECT username, 'user' FROM users
		UNION ALL SELECT tag, 'topic' FROM topics`)
	if err != nil {
		return nil, fmt.Errorf("querying prefix entries: %w", err)
	}
	defer rows.Close()

	var entries []PrefixEntry
	for rows.Next() {
		var e PrefixEntry
		if err := rows.Scan(&e.Text, &e.SourceType); err != nil {
			return nil, fmt.Errorf("scanning prefix entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- seeding (used by `suggestd seed` and tests) ---

func (s *Store) InsertBlock(ctx context.Context, b Block) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blocks (id, title, visibility, creator_id, usage_count)
		VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Title, b.Visibility, b.CreatorID, b.UsageCount)
	return err
}

func (s *Store) InsertCategory(ctx context.Context, c Category) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, usage_count) VALUES (?, ?, ?)`,
		c.ID, c.Name, c.UsageCount)
	return err
}

func (s *Store) InsertUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, display_name, roles) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.DisplayName, u.Roles)
	return err
}

func (s *Store) InsertTopic(ctx context.Context, t Topic) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO topics (id, tag, usage_count) VALUES (?, ?, ?)`,
		t.ID, t.Tag, t.UsageCount)
	return err
}

// --- helpers ---

func scanAndScore(rows *sql.Rows, term string, limit int) ([]Match, error) {
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var text string
		var usage int
		if err := rows.Scan(&text, &usage); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		score := similarity.Score(term, text)
		if score >= similarity.DefaultThreshold {
			matches = append(matches, Match{Text: text, Similarity: score, UsageCount: usage})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	sortMatches(matches)
	return truncateMatches(matches, limit), nil
}

// sortMatches orders by similarity descending, usage descending, then text
// ascending so equal-scored rows come back in a stable order.
func sortMatches(matches []Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		if matches[i].UsageCount != matches[j].UsageCount {
			return matches[i].UsageCount > matches[j].UsageCount
		}
		return matches[i].Text < matches[j].Text
	})
}

func truncateMatches(matches []Match, limit int) []Match {
	if limit > 0 && len(matches) > limit {
		return matches[:limit]
	}
	return matches
}

func splitRoles(roles string) []string {
	var out []string
	for _, r := range strings.Split(roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
