package mcp

// Implementation Plan:
// 1. ServerConfig - configuration for MCP server
// 2. Request/Response types for MCP tool interface

import (
	"github.com/kyrylo/fast-method-source/internal/config"
	"github.com/kyrylo/fast-method-source/internal/locator"
)

// ServerConfig contains configuration for the MCP server.
type ServerConfig struct {
	ProjectPath   string   // Relative file arguments are resolved against this
	Window        int      // Anchor window for start resolution
	CacheCapacity int      // Max files held by the line cache
	Watch         bool     // Evict changed files from the cache
	Extensions    []string // Extensions the watcher reports
}

// DefaultServerConfig returns default MCP server configuration.
func DefaultServerConfig() *ServerConfig {
	return NewServerConfig(".", config.Default())
}

// NewServerConfig derives a server configuration from a loaded config.
func NewServerConfig(projectPath string, cfg *config.Config) *ServerConfig {
	return &ServerConfig{
		ProjectPath:   projectPath,
		Window:        cfg.Scan.AnchorWindow,
		CacheCapacity: cfg.Cache.Capacity,
		Watch:         cfg.MCP.Watch,
		Extensions:    cfg.SourceExtensions(),
	}
}

// SourceRequest represents the JSON request schema for the source tools.
type SourceRequest struct {
	File string `json:"file" jsonschema:"required,description=Ruby file path"`
	Line int    `json:"line" jsonschema:"required,minimum=1,description=1-based line reported for the callable"`
	Name string `json:"name,omitempty" jsonschema:"description=Method name; empty for procs and lambdas"`
}

// SourceResponse represents the JSON response schema for the source tools.
type SourceResponse struct {
	Name             string `json:"name"`
	File             string `json:"file"`
	StartLine        int    `json:"start_line,omitempty"`
	EndLine          int    `json:"end_line,omitempty"`
	CommentStartLine int    `json:"comment_start_line,omitempty"`
	Comment          string `json:"comment,omitempty"`
	Source           string `json:"source,omitempty"`
}

// ListCallablesRequest represents the JSON request schema for list_callables.
type ListCallablesRequest struct {
	File    string   `json:"file" jsonschema:"required,description=Ruby file path"`
	Kinds   []string `json:"kinds,omitempty" jsonschema:"description=Filter by kind (class|module|method|singleton_method|block|lambda)"`
	Resolve bool     `json:"resolve,omitempty" jsonschema:"default=true,description=Resolve each span with the scanner"`
}

// CallableInfo describes one callable found by the parser.
type CallableInfo struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Line    int    `json:"line"`
	EndLine int    `json:"end_line"`

	// Set when resolution was requested.
	ResolvedStart int    `json:"resolved_start,omitempty"`
	ResolvedEnd   int    `json:"resolved_end,omitempty"`
	Match         bool   `json:"match,omitempty"`
	Error         string `json:"error,omitempty"`
}

// ListCallablesResponse represents the JSON response schema for list_callables.
type ListCallablesResponse struct {
	File      string         `json:"file"`
	Callables []CallableInfo `json:"callables"`
	Total     int            `json:"total"`
}

// newSourceResponse builds the response fields a tool asked for.
func newSourceResponse(file string, name string, span locator.Span, comment locator.CommentBlock) *SourceResponse {
	resp := &SourceResponse{
		Name:      name,
		File:      file,
		StartLine: span.Start + 1,
		EndLine:   span.End + 1,
	}
	if !comment.Empty() {
		resp.CommentStartLine = comment.Start + 1
	}
	return resp
}
