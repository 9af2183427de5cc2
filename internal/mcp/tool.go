package mcp

// Implementation Plan:
// 1. AddSourceTools - registers source_for, comment_for and comment_and_source_for
// 2. createSourceHandler - handler factory that captures the resolver and the tool mode
// 3. Parse SourceRequest from MCP arguments
// 4. Resolve the callable; absence is a tool error, IO failure a system error
// 5. Return SourceResponse as JSON text (mcp-go convention)

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kyrylo/fast-method-source/internal/source"
)

// SourceResolver resolves a callable to its definition.
type SourceResolver interface {
	Resolve(ctx context.Context, c source.Callable) (*source.Result, error)
}

type sourceMode int

const (
	modeSource sourceMode = iota
	modeComment
	modeCommentAndSource
)

// AddSourceTools registers the source_for, comment_for and
// comment_and_source_for tools with an MCP server.
// This function is composable - it can be combined with other tool registrations.
func AddSourceTools(s *server.MCPServer, resolver SourceResolver, projectRoot string) {
	s.AddTool(newSourceTool("source_for",
		"Return the verbatim Ruby source of the method, proc or lambda reported at file:line. The span starts at the definition line and ends at the line that closes it."),
		createSourceHandler(resolver, projectRoot, modeSource))

	s.AddTool(newSourceTool("comment_for",
		"Return the contiguous comment block directly above the method, proc or lambda reported at file:line. Returns an empty comment when there is none."),
		createSourceHandler(resolver, projectRoot, modeComment))

	s.AddTool(newSourceTool("comment_and_source_for",
		"Return the leading comment block followed by the verbatim Ruby source of the callable reported at file:line."),
		createSourceHandler(resolver, projectRoot, modeCommentAndSource))
}

func newSourceTool(name, description string) mcp.Tool {
	return mcp.NewTool(
		name,
		mcp.WithDescription(description),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("Ruby file path, absolute or relative to the project root")),
		mcp.WithNumber("line",
			mcp.Required(),
			mcp.Description("1-based line reported for the callable (its opening line or the one after it)")),
		mcp.WithString("name",
			mcp.Description("Method name used in messages; leave empty for procs and lambdas")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)
}

// createSourceHandler creates the handler function for one of the source tools.
func createSourceHandler(resolver SourceResolver, projectRoot string, mode sourceMode) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, errResult := parseToolArguments(request)
		if errResult != nil {
			return errResult, nil
		}

		args := toolArgs(argsMap)
		var req SourceRequest
		var err error
		if req.File, err = args.file(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if req.Name, err = args.str("name", false); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if req.Line, err = args.line(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res, err := resolver.Resolve(ctx, requestCallable(projectRoot, &req))
		if err != nil {
			if mode == modeComment {
				// comment_for never fails: no definition means no comment.
				return marshalToolResponse(&SourceResponse{Name: req.Name, File: req.File})
			}
			if !errors.Is(err, source.ErrSourceNotFound) {
				return nil, fmt.Errorf("resolve failed: %w", err)
			}
			return mcp.NewToolResultError(err.Error()), nil
		}

		response := newSourceResponse(req.File, res.Name, res.Span, res.Comment)
		switch mode {
		case modeSource:
			response.Source = res.Source
		case modeComment:
			response.Comment = res.Comment.Text()
		case modeCommentAndSource:
			response.Comment = res.Comment.Text()
			response.Source = res.Source
		}

		return marshalToolResponse(response)
	}
}

func requestCallable(projectRoot string, req *SourceRequest) source.Callable {
	path := resolvePath(projectRoot, req.File)
	if req.Name == "" {
		return source.NewAnonymous(path, req.Line)
	}
	return source.NewNamed(req.Name, path, req.Line)
}
