package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Block is a catalog entry (a piece of published content).
type Block struct {
	ID         string
	Title      string
	Visibility string // "public" or "private"
	CreatorID  string
	UsageCount int
	CreatedAt  time.Time
}

type Category struct {
	ID         string
	Name       string
	UsageCount int
}

type User struct {
	ID          string
	Username    string
	DisplayName string
	Roles       string // comma-separated role names
}

type Topic struct {
	ID         string
	Tag        string
	UsageCount int
}

// Match is a fuzzy search hit from one of the catalog collections.
type Match struct {
	Text       string
	Similarity float64
	UsageCount int
}

// SearchEntry is one row of a user's search history, unique per
// (user, query, context, day).
type SearchEntry struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Query        string    `json:"query"`
	Context      string    `json:"context"`
	Day          string    `json:"day"` // YYYY-MM-DD, derived from first search
	SearchCount  int       `json:"search_count"`
	ResultsCount int       `json:"results_count"`
	LastSearched time.Time `json:"last_searched"`
	CreatedAt    time.Time `json:"created_at"`
}

// QueryGroup is an aggregated view over search_history rows sharing the same
// query text.
type QueryGroup struct {
	Query         string
	DistinctUsers int
	TotalSearches int
	LastSearched  time.Time
}

// PrefixEntry is a public catalog text exposed to the quick autocomplete
// index.
type PrefixEntry struct {
	Text       string
	SourceType string
}
