// Package mcp implements the Model Context Protocol (MCP) server for semsearch.
//
// The MCP server exposes three tools to AI coding assistants:
//   - index_directory: Index the Python code under a directory
//   - find_code: Search indexed code with a natural language query
//   - index_stats: Report counts of indexed functions, classes and files
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport. Logs go to stderr so
// stdout carries protocol messages only.
//
// The server is started via the serve command:
//
//	semsearch serve
//
// # Tool: index_directory
//
//	Request:
//	{
//	  "name": "index_directory",
//	  "arguments": {"path": "/abs/path/to/project", "clear": false}
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "files_processed": 42,
//	  "elements_indexed": 518,
//	  "elements_skipped": 2,
//	  "parse_errors": 1,
//	  ...
//	}
//
// # Tool: find_code
//
//	Request:
//	{
//	  "name": "find_code",
//	  "arguments": {"query": "load yaml settings", "limit": 5}
//	}
//
//	Response:
//	{
//	  "results": [
//	    {"rank": 1, "name": "load_config", "kind": "function",
//	     "file": "app/config.py", "line": 12, "similarity": 0.83, ...}
//	  ],
//	  "total_results": 5
//	}
//
// # Tool: index_stats
//
//	Response:
//	{
//	  "statistics": {"total_elements": 518, "functions": 430, "classes": 88, "unique_files": 41},
//	  "store": {"backend": "sqlite (purego)", "schema_version": "1.1.0", "dimension": 1536},
//	  "embedding": {"provider": "openai", "model": "text-embedding-3-small"}
//	}
//
// # Errors
//
// Handler failures are returned as *MCPError with a JSON-RPC code:
// -32602 for invalid parameters, -32002 when an index run is active,
// -32004 for an empty query, -32005 when the embedding provider fails and
// -32603 otherwise.
package mcp
