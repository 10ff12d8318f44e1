package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/semsearch/internal/searcher"
)

// indexDirectoryTool returns the tool definition for index_directory
func indexDirectoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_directory",
		Description: "Index the Python functions and classes under a directory for semantic search",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the directory to index (must contain .py files)",
				},
				"clear": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, delete every indexed element before indexing",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// findCodeTool returns the tool definition for find_code
func findCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "find_code",
		Description: "Find indexed functions and classes matching a natural language description",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "What the code does, e.g. 'retry an http request'",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     searcher.DefaultLimit,
					"minimum":     1,
					"maximum":     searcher.MaxLimit,
				},
			},
			Required: []string{"query"},
		},
	}
}

// indexStatsTool returns the tool definition for index_stats
func indexStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_stats",
		Description: "Report how many functions, classes and files are indexed",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
