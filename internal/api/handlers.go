// Package api exposes the suggestion engine over HTTP (chi router, bearer
// auth) and as MCP tools.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mkoval/suggestd/internal/quick"
	"github.com/mkoval/suggestd/internal/storage"
	"github.com/mkoval/suggestd/internal/suggest"
)

const maxBodySize = 1 << 20 // 1MB; suggestion payloads are tiny

// Suggester runs the aggregation pipeline.
type Suggester interface {
	Suggest(ctx context.Context, req suggest.Request) suggest.Response
}

// SearchRecorder appends to the search history off the response path.
type SearchRecorder interface {
	Record(ctx context.Context, userID, query, sctx string, resultsCount int)
}

// QuickIndex serves the exact-prefix autocomplete path.
type QuickIndex interface {
	Lookup(prefix, contextName string, limit int) []quick.Entry
}

// HistoryLister reads back a user's recent searches.
type HistoryLister interface {
	RecentSearches(ctx context.Context, userID string, limit int) ([]storage.SearchEntry, error)
}

// Deps holds the wiring for the HTTP handler.
type Deps struct {
	Suggester Suggester
	Recorder  SearchRecorder
	Quick     QuickIndex
	History   HistoryLister
	Token     string
}

// NewHandler builds the service router. All routes except /health require
// the bearer token.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))
		r.Post("/suggest", handleSuggest(deps))
		r.Post("/record-search", handleRecordSearch(deps))
		r.Get("/history", handleHistory(deps))
		r.Post("/quick", handleQuick(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type suggestRequest struct {
	Query   string `json:"query"`
	Context string `json:"context"`
	UserID  string `json:"user_id"`
	Limit   int    `json:"limit"`
}

func handleSuggest(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req suggestRequest
		if !decodeBody(w, r, &req) {
			return
		}

		resp := deps.Suggester.Suggest(r.Context(), suggest.Request{
			Query:       req.Query,
			Context:     suggest.ParseContext(req.Context),
			RequesterID: req.UserID,
			Limit:       req.Limit,
		})

		writeJSON(w, http.StatusOK, resp)
	}
}

type recordSearchRequest struct {
	UserID       string `json:"user_id"`
	Query        string `json:"query"`
	Context      string `json:"context"`
	ResultsCount int    `json:"results_count"`
}

func handleRecordSearch(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordSearchRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.UserID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id is required")
			return
		}
		if req.Query == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "query is required")
			return
		}

		// Recording is fire-and-forget: respond immediately, the upsert
		// happens off the response path and failures are only logged.
		go deps.Recorder.Record(context.WithoutCancel(r.Context()),
			req.UserID, req.Query, req.Context, req.ResultsCount)

		w.WriteHeader(http.StatusAccepted)
	}
}

func handleHistory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id is required")
			return
		}
		limit := queryInt(r, "limit", 20)
		if limit > 100 {
			limit = 100
		}

		entries, err := deps.History.RecentSearches(r.Context(), userID, limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing history: %v", err)
			return
		}
		if entries == nil {
			entries = []storage.SearchEntry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

type quickRequest struct {
	Prefix  string `json:"prefix"`
	Context string `json:"context"`
	Limit   int    `json:"limit"`
}

func handleQuick(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quickRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Limit <= 0 {
			req.Limit = suggest.DefaultLimit
		}

		entries := deps.Quick.Lookup(req.Prefix, req.Context, req.Limit)
		if entries == nil {
			entries = []quick.Entry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// --- helpers ---

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

func queryInt(r *http.Request, name string, def int) int {
	if s := r.URL.Query().Get(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
