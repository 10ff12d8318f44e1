package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/dshills/semsearch/internal/app"
	"github.com/dshills/semsearch/internal/indexer"
	"github.com/dshills/semsearch/internal/searcher"
	"github.com/dshills/semsearch/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
	ErrorCodeProviderError      = -32005 // Embedding provider failed
)

// maxReportedErrors caps the error messages returned by index_directory
const maxReportedErrors = 5

// handleIndexDirectory handles the index_directory tool invocation
func (s *Server) handleIndexDirectory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	clearIndex := getBoolDefault(args, "clear", false)

	stats, err := s.app.Index(ctx, path, app.IndexOptions{Clear: clearIndex})
	if err != nil {
		if errors.Is(err, indexer.ErrIndexingInProgress) {
			return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", nil)
		}
		s.logger.Error("indexing failed", zap.String("path", path), zap.Error(err))
		data := map[string]interface{}{"error": err.Error()}
		if stats != nil {
			data["elements_indexed"] = stats.ElementsIndexed
		}
		return nil, newMCPError(codeFor(err), "indexing failed", data)
	}

	response := map[string]interface{}{
		"indexed":            true,
		"files_discovered":   stats.FilesDiscovered,
		"files_processed":    stats.FilesProcessed,
		"files_skipped":      stats.FilesSkipped,
		"elements_extracted": stats.ElementsExtracted,
		"elements_indexed":   stats.ElementsIndexed,
		"elements_skipped":   stats.ElementsSkipped,
		"parse_errors":       stats.ParseErrors,
		"read_errors":        stats.ReadErrors,
		"provider_errors":    stats.ProviderErrors,
		"duration_ms":        stats.Duration.Milliseconds(),
	}

	if errorCount := len(stats.ErrorMessages); errorCount > 0 {
		if errorCount > maxReportedErrors {
			response["errors"] = stats.ErrorMessages[:maxReportedErrors]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleFindCode handles the find_code tool invocation
func (s *Server) handleFindCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", searcher.DefaultLimit)
	if limit < 1 || limit > searcher.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", searcher.MaxLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	resp, err := s.app.Find(ctx, query, limit)
	if err != nil {
		s.logger.Error("search failed", zap.String("query", query), zap.Error(err))
		return nil, newMCPError(codeFor(err), "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = map[string]interface{}{
			"rank":       r.Rank,
			"name":       r.Element.Name,
			"kind":       string(r.Element.Kind),
			"file":       r.Element.FilePath,
			"line":       r.Element.LineNumber,
			"signature":  r.Element.Signature,
			"docstring":  r.Element.Docstring,
			"similarity": r.Similarity,
		}
	}

	response := map[string]interface{}{
		"query":         query,
		"results":       results,
		"total_results": resp.TotalResults,
		"cache_hit":     resp.CacheHit,
		"duration_ms":   resp.Duration.Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleIndexStats handles the index_stats tool invocation
func (s *Server) handleIndexStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.app.Stats(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read index statistics", map[string]interface{}{
			"error": err.Error(),
		})
	}

	version, err := s.app.Store.SchemaVersion(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read schema version", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"statistics": map[string]interface{}{
			"total_elements": stats.TotalElements,
			"functions":      stats.Functions,
			"classes":        stats.Classes,
			"unique_files":   stats.UniqueFiles,
		},
		"store": map[string]interface{}{
			"backend":        s.app.Store.Backend(),
			"schema_version": version,
			"dimension":      s.app.Store.Dimension(),
		},
		"embedding": map[string]interface{}{
			"provider": s.app.Client.Provider().Provider(),
			"model":    s.app.Client.Provider().Model(),
		},
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// codeFor maps an error category to an MCP error code
func codeFor(err error) int {
	switch {
	case errors.Is(err, types.ErrProvider):
		return ErrorCodeProviderError
	case errors.Is(err, types.ErrConfiguration):
		return ErrorCodeInvalidParams
	default:
		return ErrorCodeInternalError
	}
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks that path is an absolute, readable directory holding Python files
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if !info.IsDir() {
		return ErrNotDirectory
	}

	disc, err := indexer.DiscoverFiles(path)
	if err != nil {
		return ErrPathNotReadable
	}
	if len(disc.Files) == 0 {
		return ErrNoPythonFiles
	}

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
	ErrNoPythonFiles   = errors.New("directory does not contain Python files")
)
