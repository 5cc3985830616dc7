package storage

import (
	"context"
	"testing"
	"time"
)

func TestUpsertSearchIncrementsSameDay(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	if err := s.UpsertSearch(ctx, "u1", "algebra", "all", 3, now); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := s.UpsertSearch(ctx, "u1", "algebra", "all", 7, now.Add(2*time.Hour)); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	entries, err := s.RecentSearches(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("RecentSearches: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected single row for same-day repeat, got %d", len(entries))
	}
	e := entries[0]
	if e.SearchCount != 2 {
		t.Errorf("search_count = %d, want 2", e.SearchCount)
	}
	if e.ResultsCount != 7 {
		t.Errorf("results_count = %d, want 7 (last observed)", e.ResultsCount)
	}
	if !e.LastSearched.Equal(now.Add(2 * time.Hour)) {
		t.Errorf("last_searched = %v, want %v", e.LastSearched, now.Add(2*time.Hour))
	}
}

func TestUpsertSearchNewRowNextDay(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	day1 := time.Date(2026, 8, 20, 23, 0, 0, 0, time.UTC)

	if err := s.UpsertSearch(ctx, "u1", "algebra", "all", 3, day1); err != nil {
		t.Fatalf("day1 upsert: %v", err)
	}
	if err := s.UpsertSearch(ctx, "u1", "algebra", "all", 3, day1.Add(2*time.Hour)); err != nil {
		t.Fatalf("day2 upsert: %v", err)
	}

	entries, err := s.RecentSearches(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("RecentSearches: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected two rows across midnight, got %d", len(entries))
	}
}

func TestUpsertSearchContextSeparatesRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.UpsertSearch(ctx, "u1", "algebra", "blocks", 3, now); err != nil {
		t.Fatalf("upsert blocks: %v", err)
	}
	if err := s.UpsertSearch(ctx, "u1", "algebra", "topics", 3, now); err != nil {
		t.Fatalf("upsert topics: %v", err)
	}

	entries, err := s.RecentSearches(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("RecentSearches: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("contexts should not collide, got %d rows", len(entries))
	}
}

func TestTrendingQueriesRequiresTwoDistinctUsers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// One user searches "solo" five times; two users search "photosynthesis" once.
	for i := 0; i < 5; i++ {
		if err := s.UpsertSearch(ctx, "u1", "solo", "all", 1, now.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("upsert solo: %v", err)
		}
	}
	if err := s.UpsertSearch(ctx, "u1", "photosynthesis", "all", 4, now); err != nil {
		t.Fatalf("upsert u1: %v", err)
	}
	if err := s.UpsertSearch(ctx, "u2", "Photosynthesis", "all", 4, now); err != nil {
		t.Fatalf("upsert u2: %v", err)
	}

	groups, err := s.TrendingQueries(ctx, "all", now.Add(-7*24*time.Hour), 10)
	if err != nil {
		t.Fatalf("TrendingQueries: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected only the multi-user query to trend, got %+v", groups)
	}
	if groups[0].DistinctUsers != 2 {
		t.Errorf("distinct users = %d, want 2", groups[0].DistinctUsers)
	}
}

func TestTrendingQueriesWindow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	old := now.Add(-30 * 24 * time.Hour)

	if err := s.UpsertSearch(ctx, "u1", "stale", "all", 1, old); err != nil {
		t.Fatalf("upsert old u1: %v", err)
	}
	if err := s.UpsertSearch(ctx, "u2", "stale", "all", 1, old); err != nil {
		t.Fatalf("upsert old u2: %v", err)
	}

	groups, err := s.TrendingQueries(ctx, "all", now.Add(-7*24*time.Hour), 10)
	if err != nil {
		t.Fatalf("TrendingQueries: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("stale rows outside the window should not trend: %+v", groups)
	}
}

func TestTrendingQueriesOrdering(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// "big": 3 users; "small": 2 users but more total searches.
	for _, u := range []string{"u1", "u2", "u3"} {
		if err := s.UpsertSearch(ctx, u, "big", "all", 1, now); err != nil {
			t.Fatalf("upsert big: %v", err)
		}
	}
	for i := 0; i < 4; i++ {
		if err := s.UpsertSearch(ctx, "u1", "small", "all", 1, now.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("upsert small u1: %v", err)
		}
	}
	if err := s.UpsertSearch(ctx, "u2", "small", "all", 1, now); err != nil {
		t.Fatalf("upsert small u2: %v", err)
	}

	groups, err := s.TrendingQueries(ctx, "all", now.Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("TrendingQueries: %v", err)
	}
	if len(groups) != 2 || groups[0].Query != "big" || groups[1].Query != "small" {
		t.Fatalf("expected [big small] by distinct users, got %+v", groups)
	}
}

func TestUserSearchesScopedToUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.UpsertSearch(ctx, "u1", "mine", "all", 1, now); err != nil {
		t.Fatalf("upsert u1: %v", err)
	}
	if err := s.UpsertSearch(ctx, "u2", "theirs", "all", 1, now); err != nil {
		t.Fatalf("upsert u2: %v", err)
	}

	entries, err := s.UserSearches(ctx, "u1", "all", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("UserSearches: %v", err)
	}
	if len(entries) != 1 || entries[0].Query != "mine" {
		t.Fatalf("expected only u1's history, got %+v", entries)
	}
}

func TestPurgeSearchesBefore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.UpsertSearch(ctx, "u1", "old", "all", 1, now.Add(-200*24*time.Hour)); err != nil {
		t.Fatalf("upsert old: %v", err)
	}
	if err := s.UpsertSearch(ctx, "u1", "fresh", "all", 1, now); err != nil {
		t.Fatalf("upsert fresh: %v", err)
	}

	removed, err := s.PurgeSearchesBefore(ctx, now.Add(-180*24*time.Hour))
	if err != nil {
		t.Fatalf("PurgeSearchesBefore: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	entries, err := s.RecentSearches(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("RecentSearches: %v", err)
	}
	if len(entries) != 1 || entries[0].Query != "fresh" {
		t.Fatalf("expected only the fresh row to survive, got %+v", entries)
	}
}
