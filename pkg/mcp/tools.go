package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mycrub/daysum/pkg/retrieval"
	"github.com/mycrub/daysum/pkg/topic"
)

// Tool argument structs.

type summaryArgs struct {
	TopicID string `json:"topic_id"`
	Cat     string `json:"cat"`
	Subcat  string `json:"subcat"`
	Post    string `json:"post"`
	Date    string `json:"date"`
}

// toolHandler is a function that handles a tool call.
type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult

// toolHandlers maps tool names to their handlers.
var toolHandlers = map[string]toolHandler{
	"daysum_summary":     handleSummary,
	"daysum_cache_stats": handleCacheStats,
	"daysum_cache_sweep": handleCacheSweep,
	"daysum_cache_list":  handleCacheList,
}

// allTools is the list of tool definitions exposed via tools/list.
var allTools = []ToolDefinition{
	{
		Name: "daysum_summary",
		Description: "Get the daily summary of a forum topic. Waits while the summary is being generated, " +
			"up to the configured poll timeout.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"topic_id": map[string]any{
					"type":        "string",
					"description": "Topic identifier as cat#subcat#post (or give cat, subcat and post separately)",
				},
				"cat": map[string]any{
					"type":        "string",
					"description": "Category number (optional)",
				},
				"subcat": map[string]any{
					"type":        "string",
					"description": "Subcategory number (optional)",
				},
				"post": map[string]any{
					"type":        "string",
					"description": "Thread number (optional)",
				},
				"date": map[string]any{
					"type":        "string",
					"description": "Day in YYYY-MM-DD format, before today (optional, defaults to yesterday)",
				},
			},
		},
	},
	{
		Name:        "daysum_cache_stats",
		Description: "Show summary cache statistics (entries, hits, misses, hit rate).",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
	{
		Name:        "daysum_cache_sweep",
		Description: "Remove expired and unreadable entries from the summary cache.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
	{
		Name:        "daysum_cache_list",
		Description: "List the entries of the summary cache with their age.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
}

func textResult(text string) ToolCallResult {
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
	}
}

func errorResult(text string) ToolCallResult {
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
		IsError: true,
	}
}

func handleSummary(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	var args summaryArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}

	topicID := args.TopicID
	if topicID == "" {
		// The controller reports unresolved topics; only normalise here.
		if id, err := topic.FromParts(args.Cat, args.Subcat, args.Post); err == nil {
			topicID = id.String()
		}
	}
	date := args.Date
	if date == "" {
		date = retrieval.Yesterday(s.now())
	}

	out := s.summarizer.Request(ctx, topicID, date)
	if out.State != retrieval.StateCompleted {
		if out.Rendered == "" {
			return errorResult("Request cancelled.")
		}
		return errorResult(out.Rendered)
	}
	return textResult(formatOutcome(topicID, date, out))
}

func handleCacheStats(ctx context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	if s.cache == nil {
		return textResult("Cache is not configured.")
	}
	stats, err := s.cache.Stats(ctx)
	if err != nil {
		return errorResult("Error fetching cache stats: " + err.Error())
	}
	return textResult(formatCacheStats(stats))
}

func handleCacheSweep(ctx context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	if s.cache == nil {
		return textResult("Cache is not configured.")
	}
	n, err := s.cache.Sweep(ctx)
	if err != nil {
		return errorResult("Error sweeping cache: " + err.Error())
	}
	return textResult(formatSweep(n))
}

func handleCacheList(ctx context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	if s.cache == nil {
		return textResult("Cache is not configured.")
	}
	items, err := s.cache.List(ctx)
	if err != nil {
		return errorResult("Error listing cache: " + err.Error())
	}
	return textResult(formatCacheItems(items, s.now().Truncate(time.Second)))
}
