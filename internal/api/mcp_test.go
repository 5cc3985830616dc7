package api

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mkoval/suggestd/internal/suggest"
)

// --- mocks ---

type mockSuggester struct {
	resp suggest.Response
}

func (m *mockSuggester) Suggest(_ context.Context, _ suggest.Request) suggest.Response {
	return m.resp
}

type mockTrending struct {
	candidates []suggest.Candidate
	err        error
}

func (m *mockTrending) Trending(_ context.Context, _ suggest.Context, _ int) ([]suggest.Candidate, error) {
	return m.candidates, m.err
}

type mockRecorder struct {
	mu      sync.Mutex
	records []recordedSearch
}

type recordedSearch struct {
	UserID  string
	Query   string
	Context string
	Results int
}

func (m *mockRecorder) Record(_ context.Context, userID, query, sctx string, resultsCount int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, recordedSearch{userID, query, sctx, resultsCount})
}

func (m *mockRecorder) recorded() []recordedSearch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recordedSearch(nil), m.records...)
}

// --- helpers ---

func newTestMCPDeps() (MCPDeps, *mockRecorder) {
	recorder := &mockRecorder{}
	return MCPDeps{
		Suggester: &mockSuggester{},
		Recorder:  recorder,
		Trending:  &mockTrending{},
	}, recorder
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func makeReadResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

// --- tests ---

func TestMCPTool_Suggest(t *testing.T) {
	deps, _ := newTestMCPDeps()
	deps.Suggester = &mockSuggester{resp: suggest.Response{
		Suggestions: []suggest.Candidate{
			{Text: "math basics", SourceType: suggest.SourceBlock, Score: 1.08},
		},
		Trending: []suggest.Candidate{},
	}}
	handler := mcpSuggest(deps)

	req := makeCallToolRequest("suggest", map[string]interface{}{
		"query":   "math",
		"user_id": "u1",
		"limit":   5,
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	var resp suggest.Response
	if err := json.Unmarshal([]byte(toolText(t, result)), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Suggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(resp.Suggestions))
	}
	if resp.Suggestions[0].Text != "math basics" {
		t.Fatalf("unexpected suggestion: %s", resp.Suggestions[0].Text)
	}
}

func TestMCPTool_Suggest_EmptyQueryAllowed(t *testing.T) {
	deps, _ := newTestMCPDeps()
	deps.Suggester = &mockSuggester{resp: suggest.Response{
		Suggestions: []suggest.Candidate{},
		Trending: []suggest.Candidate{
			{Text: "fractions", SourceType: suggest.SourceTrending, Score: 0.5},
		},
	}}
	handler := mcpSuggest(deps)

	result, err := handler(context.Background(), makeCallToolRequest("suggest", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	var resp suggest.Response
	if err := json.Unmarshal([]byte(toolText(t, result)), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Trending) != 1 {
		t.Fatalf("expected 1 trending entry, got %d", len(resp.Trending))
	}
}

func TestMCPTool_Trending(t *testing.T) {
	deps, _ := newTestMCPDeps()
	now := time.Now().UTC()
	deps.Trending = &mockTrending{candidates: []suggest.Candidate{
		{Text: "photosynthesis", SourceType: suggest.SourceTrending, Score: 0.5, LastUsed: &now},
		{Text: "fractions", SourceType: suggest.SourceTrending, Score: 0.5},
	}}
	handler := mcpTrending(deps)

	result, err := handler(context.Background(), makeCallToolRequest("trending", map[string]interface{}{"limit": 10}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	var candidates []suggest.Candidate
	if err := json.Unmarshal([]byte(toolText(t, result)), &candidates); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 trending queries, got %d", len(candidates))
	}
}

func TestMCPTool_Trending_Empty(t *testing.T) {
	deps, _ := newTestMCPDeps()
	handler := mcpTrending(deps)

	result, err := handler(context.Background(), makeCallToolRequest("trending", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text := toolText(t, result); text != "[]" {
		t.Fatalf("expected empty array, got: %s", text)
	}
}

func TestMCPTool_Trending_Error(t *testing.T) {
	deps, _ := newTestMCPDeps()
	deps.Trending = &mockTrending{err: errors.New("db locked")}
	handler := mcpTrending(deps)

	result, err := handler(context.Background(), makeCallToolRequest("trending", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result")
	}
}

func TestMCPTool_RecordSearch(t *testing.T) {
	deps, recorder := newTestMCPDeps()
	handler := mcpRecordSearch(deps)

	req := makeCallToolRequest("record_search", map[string]interface{}{
		"user_id":       "u1",
		"query":         "linear algebra",
		"context":       "blocks",
		"results_count": 7,
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	records := recorder.recorded()
	if len(records) != 1 {
		t.Fatalf("expected 1 recorded search, got %d", len(records))
	}
	if records[0].Query != "linear algebra" || records[0].Results != 7 {
		t.Fatalf("unexpected record: %+v", records[0])
	}
}

func TestMCPTool_RecordSearch_MissingUserID(t *testing.T) {
	deps, recorder := newTestMCPDeps()
	handler := mcpRecordSearch(deps)

	result, err := handler(context.Background(), makeCallToolRequest("record_search", map[string]interface{}{
		"query": "orphan query",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error when user_id is missing")
	}
	if len(recorder.recorded()) != 0 {
		t.Fatal("expected no recorded searches")
	}
}

func TestMCPResource_Trending(t *testing.T) {
	deps, _ := newTestMCPDeps()
	now := time.Now().UTC()
	deps.Trending = &mockTrending{candidates: []suggest.Candidate{
		{Text: "cell division", SourceType: suggest.SourceTrending, Score: 0.5, LastUsed: &now},
	}}

	handler := mcpResourceTrending(deps)
	contents, err := handler(context.Background(), makeReadResourceRequest("search://trending"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(contents))
	}

	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}

	var entries []map[string]string
	if err := json.Unmarshal([]byte(tc.Text), &entries); err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0]["query"] != "cell division" {
		t.Fatalf("unexpected query: %s", entries[0]["query"])
	}
	if entries[0]["last_used"] == "" {
		t.Fatal("expected last_used to be set")
	}
}

func TestMCPServer_ConcurrentCalls(t *testing.T) {
	deps, _ := newTestMCPDeps()
	deps.Trending = &mockTrending{candidates: []suggest.Candidate{
		{Text: "algebra", SourceType: suggest.SourceTrending, Score: 0.5},
	}}

	suggestHandler := mcpSuggest(deps)
	trendingHandler := mcpTrending(deps)

	var wg sync.WaitGroup
	errs := make(chan error, 20)

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := makeCallToolRequest("suggest", map[string]interface{}{
				"query": "algebra",
			})
			if _, err := suggestHandler(context.Background(), req); err != nil {
				errs <- err
			}
		}()
	}

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := makeCallToolRequest("trending", map[string]interface{}{})
			if _, err := trendingHandler(context.Background(), req); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent call failed: %v", err)
	}
}
