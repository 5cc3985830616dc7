package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mkoval/suggestd/internal/suggest"
)

// TrendingProvider reads community trending queries for the MCP layer.
type TrendingProvider interface {
	Trending(ctx context.Context, c suggest.Context, limit int) ([]suggest.Candidate, error)
}

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Suggester Suggester
	Recorder  SearchRecorder
	Trending  TrendingProvider
}

// NewMCPServer creates an MCP server with the suggestion tools registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"suggestd",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("suggestd — search suggestions aggregated from blocks, categories, users, topics, and search history."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("suggest",
			mcp.WithDescription("Get ranked search suggestions for a partial query, with trending fallback."),
			mcp.WithString("query", mcp.Description("Partial search query (may be empty for trending only)")),
			mcp.WithString("context", mcp.Description("Search context: all, blocks, users, or topics (default all)")),
			mcp.WithString("user_id", mcp.Description("Requesting user ID for personalized suggestions")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of suggestions (default 10)")),
		),
		mcpSuggest(deps),
	)

	s.AddTool(
		mcp.NewTool("trending",
			mcp.WithDescription("List queries trending across users in the recent window."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of trending queries (default 10)")),
		),
		mcpTrending(deps),
	)

	s.AddTool(
		mcp.NewTool("record_search",
			mcp.WithDescription("Record an executed search so it feeds personal and trending suggestions."),
			mcp.WithString("user_id", mcp.Description("User who ran the search"), mcp.Required()),
			mcp.WithString("query", mcp.Description("The executed query"), mcp.Required()),
			mcp.WithString("context", mcp.Description("Search context the query ran in")),
			mcp.WithNumber("results_count", mcp.Description("Number of results the search returned")),
		),
		mcpRecordSearch(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"search://trending",
			"Trending Searches",
			mcp.WithResourceDescription("Current community trending queries as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceTrending(deps),
	)

	return s
}

func mcpSuggest(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		contextName := req.GetString("context", "")
		userID := req.GetString("user_id", "")
		limit := req.GetInt("limit", suggest.DefaultLimit)

		resp := deps.Suggester.Suggest(ctx, suggest.Request{
			Query:       query,
			Context:     suggest.ParseContext(contextName),
			RequesterID: userID,
			Limit:       limit,
		})

		b, err := json.Marshal(resp)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal suggestions: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpTrending(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", suggest.DefaultLimit)
		if limit <= 0 {
			limit = suggest.DefaultLimit
		}

		candidates, err := deps.Trending.Trending(ctx, suggest.ContextAll, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("trending lookup failed: %v", err)), nil
		}
		if len(candidates) == 0 {
			return mcpText("[]"), nil
		}

		b, err := json.Marshal(candidates)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal trending queries: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpRecordSearch(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := req.RequireString("user_id")
		if err != nil {
			return mcpError("user_id is required"), nil
		}
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}
		contextName := req.GetString("context", "")
		resultsCount := req.GetInt("results_count", 0)

		deps.Recorder.Record(ctx, userID, query, contextName, resultsCount)

		return mcpText(fmt.Sprintf("Recorded search %q for user %s", query, userID)), nil
	}
}

func mcpResourceTrending(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		candidates, err := deps.Trending.Trending(ctx, suggest.ContextAll, suggest.DefaultLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to list trending queries: %w", err)
		}

		type trendingEntry struct {
			Query    string `json:"query"`
			LastUsed string `json:"last_used,omitempty"`
		}

		entries := make([]trendingEntry, len(candidates))
		for i, c := range candidates {
			entries[i] = trendingEntry{Query: c.Text}
			if c.LastUsed != nil {
				entries[i].LastUsed = c.LastUsed.Format(time.RFC3339)
			}
		}

		b, err := json.Marshal(entries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal trending queries: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
