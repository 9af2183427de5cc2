package mcp

import (
	"context"
	"errors"
	"io/fs"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kyrylo/fast-method-source/internal/navigation"
)

// CallableParser enumerates the callables of a Ruby file.
type CallableParser interface {
	ParseFile(ctx context.Context, path string) ([]navigation.Callable, error)
}

// AddListCallablesTool registers the list_callables tool with an MCP server.
// The parser reports what a full Ruby grammar sees; with resolve enabled each
// entry also carries the span the scanner resolves from the same anchor.
func AddListCallablesTool(s *server.MCPServer, parser CallableParser, resolver SourceResolver, projectRoot string) {
	tool := mcp.NewTool(
		"list_callables",
		mcp.WithDescription("List the classes, modules, methods, blocks and lambdas defined in a Ruby file with their line spans. Use it to find the file:line anchor to pass to source_for."),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("Ruby file path, absolute or relative to the project root")),
		mcp.WithArray("kinds",
			mcp.Description("Filter by kind. Options: 'class', 'module', 'method', 'singleton_method', 'block', 'lambda'. Leave empty for all kinds.")),
		mcp.WithBoolean("resolve",
			mcp.Description("Also resolve each span with the scanner and report whether it matches (default: true)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createListCallablesHandler(parser, resolver, projectRoot))
}

// createListCallablesHandler creates the handler function for list_callables tool.
func createListCallablesHandler(parser CallableParser, resolver SourceResolver, projectRoot string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, errResult := parseToolArguments(request)
		if errResult != nil {
			return errResult, nil
		}

		args := toolArgs(argsMap)
		var req ListCallablesRequest
		var err error
		if req.File, err = args.file(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if req.Kinds, err = args.kinds(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		req.Resolve = args.flag("resolve", true)

		callables, err := parser.ParseFile(ctx, resolvePath(projectRoot, req.File))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return nil, err
		}

		response := &ListCallablesResponse{
			File:      req.File,
			Callables: make([]CallableInfo, 0, len(callables)),
		}
		for _, c := range callables {
			if len(req.Kinds) > 0 && !slices.Contains(req.Kinds, string(c.Kind)) {
				continue
			}

			info := CallableInfo{
				Name:    c.DisplayName(),
				Kind:    string(c.Kind),
				Line:    c.Line,
				EndLine: c.EndLine,
			}
			if req.Resolve {
				res, err := resolver.Resolve(ctx, c.Source())
				if err != nil {
					info.Error = err.Error()
				} else {
					info.ResolvedStart = res.StartLine()
					info.ResolvedEnd = res.EndLine()
					info.Match = info.ResolvedStart == c.Line && info.ResolvedEnd == c.EndLine
				}
			}
			response.Callables = append(response.Callables, info)
		}
		response.Total = len(response.Callables)

		return marshalToolResponse(response)
	}
}
