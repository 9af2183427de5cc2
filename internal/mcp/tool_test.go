package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyrylo/fast-method-source/internal/loader"
	"github.com/kyrylo/fast-method-source/internal/navigation"
	"github.com/kyrylo/fast-method-source/internal/source"
)

// Test Plan for MCP tools:
// - Tools register without panicking
// - source_for returns the verbatim definition and its span
// - comment_for returns the comment, and an empty comment for missing definitions
// - comment_and_source_for returns both
// - Relative paths resolve against the project root
// - Missing or invalid arguments produce tool errors
// - Unlocatable definitions produce tool errors; IO failures produce system errors
// - list_callables lists, filters and resolves callables

const greeter = `# greets
def hello
  puts "hi"
end

square = ->(x) { x * x }
`

func setupProject(t *testing.T) (string, *source.Resolver) {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "greeter.rb"), []byte(greeter), 0644))

	files, err := loader.New(16)
	require.NoError(t, err)
	t.Cleanup(files.Close)

	return root, source.NewResolver(files)
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args interface{}) *mcp.CallToolResult {
	t.Helper()

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
	result, err := handler(context.Background(), request)
	require.NoError(t, err, "should not return system error")
	require.NotNil(t, result, "should return result")
	return result
}

func decodeResult(t *testing.T, result *mcp.CallToolResult, v interface{}) {
	t.Helper()

	assert.False(t, result.IsError, "should not be error result")
	textContent, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "should be text content")
	require.NoError(t, json.Unmarshal([]byte(textContent.Text), v), "should parse response JSON")
}

func errorText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	assert.True(t, result.IsError, "should be error result")
	textContent, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "should be text content")
	return textContent.Text
}

func TestAddTools_Registration(t *testing.T) {
	t.Parallel()

	root, resolver := setupProject(t)
	mcpServer := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))

	require.NotPanics(t, func() {
		AddSourceTools(mcpServer, resolver, root)
		AddListCallablesTool(mcpServer, navigation.New(), resolver, root)
	})
}

func TestSourceForHandler(t *testing.T) {
	t.Parallel()

	root, resolver := setupProject(t)
	handler := createSourceHandler(resolver, root, modeSource)

	result := callTool(t, handler, map[string]interface{}{
		"file": "greeter.rb",
		"line": float64(2),
		"name": "hello",
	})

	var response SourceResponse
	decodeResult(t, result, &response)
	assert.Equal(t, "hello", response.Name)
	assert.Equal(t, "greeter.rb", response.File)
	assert.Equal(t, 2, response.StartLine)
	assert.Equal(t, 4, response.EndLine)
	assert.Equal(t, 1, response.CommentStartLine)
	assert.Equal(t, "def hello\n  puts \"hi\"\nend\n", response.Source)
	assert.Empty(t, response.Comment)
}

func TestSourceForHandler_AnchorAfterOpeningLine(t *testing.T) {
	t.Parallel()

	root, resolver := setupProject(t)
	handler := createSourceHandler(resolver, root, modeSource)

	result := callTool(t, handler, map[string]interface{}{
		"file": filepath.Join(root, "greeter.rb"),
		"line": float64(3),
	})

	var response SourceResponse
	decodeResult(t, result, &response)
	assert.Equal(t, 2, response.StartLine)
	assert.Contains(t, response.Name, "#<Proc:")
}

func TestCommentForHandler(t *testing.T) {
	t.Parallel()

	root, resolver := setupProject(t)
	handler := createSourceHandler(resolver, root, modeComment)

	var response SourceResponse
	decodeResult(t, callTool(t, handler, map[string]interface{}{
		"file": "greeter.rb",
		"line": float64(2),
		"name": "hello",
	}), &response)
	assert.Equal(t, "# greets\n", response.Comment)
	assert.Empty(t, response.Source)

	// A line past the end has no definition and therefore no comment
	var missing SourceResponse
	decodeResult(t, callTool(t, handler, map[string]interface{}{
		"file": "greeter.rb",
		"line": float64(40),
		"name": "ghost",
	}), &missing)
	assert.Equal(t, "ghost", missing.Name)
	assert.Empty(t, missing.Comment)
}

func TestCommentAndSourceForHandler(t *testing.T) {
	t.Parallel()

	root, resolver := setupProject(t)
	handler := createSourceHandler(resolver, root, modeCommentAndSource)

	var response SourceResponse
	decodeResult(t, callTool(t, handler, map[string]interface{}{
		"file": "greeter.rb",
		"line": float64(2),
		"name": "hello",
	}), &response)
	assert.Equal(t, "# greets\n", response.Comment)
	assert.Equal(t, "def hello\n  puts \"hi\"\nend\n", response.Source)
}

func TestSourceHandler_InvalidArguments(t *testing.T) {
	t.Parallel()

	root, resolver := setupProject(t)
	handler := createSourceHandler(resolver, root, modeSource)

	tests := []struct {
		name string
		args interface{}
		want string
	}{
		{"not a map", "greeter.rb:2", "invalid arguments format"},
		{"missing file", map[string]interface{}{"line": float64(2)}, "file parameter is required"},
		{"file wrong type", map[string]interface{}{"file": 7, "line": float64(2)}, "file must be a string"},
		{"missing line", map[string]interface{}{"file": "greeter.rb"}, "line must be a positive integer"},
		{"zero line", map[string]interface{}{"file": "greeter.rb", "line": float64(0)}, "line must be a positive integer"},
		{"fractional line", map[string]interface{}{"file": "greeter.rb", "line": 2.5}, "line must be a positive integer"},
		{"name wrong type", map[string]interface{}{"file": "greeter.rb", "line": float64(2), "name": true}, "name must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Contains(t, errorText(t, callTool(t, handler, tt.args)), tt.want)
		})
	}
}

func TestSourceHandler_NotFound(t *testing.T) {
	t.Parallel()

	root, resolver := setupProject(t)
	handler := createSourceHandler(resolver, root, modeSource)

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		text := errorText(t, callTool(t, handler, map[string]interface{}{
			"file": "nope.rb",
			"line": float64(1),
			"name": "nope",
		}))
		assert.Contains(t, text, "could not locate source for nope")
	})

	t.Run("line out of range", func(t *testing.T) {
		t.Parallel()
		text := errorText(t, callTool(t, handler, map[string]interface{}{
			"file": "greeter.rb",
			"line": float64(99),
			"name": "ghost",
		}))
		assert.Contains(t, text, "could not locate source for ghost")
	})
}

type failingResolver struct{ err error }

func (f failingResolver) Resolve(context.Context, source.Callable) (*source.Result, error) {
	return nil, f.err
}

func TestSourceHandler_SystemError(t *testing.T) {
	t.Parallel()

	handler := createSourceHandler(failingResolver{err: errors.New("permission denied")}, "", modeSource)

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{"file": "a.rb", "line": float64(1)},
		},
	}
	result, err := handler(context.Background(), request)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestCommentForHandler_LoadFailure(t *testing.T) {
	t.Parallel()

	handler := createSourceHandler(failingResolver{err: errors.New("permission denied")}, "", modeComment)

	var response SourceResponse
	decodeResult(t, callTool(t, handler, map[string]interface{}{
		"file": "a.rb",
		"line": float64(1),
		"name": "a",
	}), &response)

	assert.Equal(t, "a.rb", response.File)
	assert.Equal(t, "a", response.Name)
	assert.Empty(t, response.Comment)
	assert.Empty(t, response.Source)
}

func TestListCallablesHandler(t *testing.T) {
	t.Parallel()

	root, resolver := setupProject(t)
	handler := createListCallablesHandler(navigation.New(), resolver, root)

	var response ListCallablesResponse
	decodeResult(t, callTool(t, handler, map[string]interface{}{
		"file": "greeter.rb",
	}), &response)

	require.Equal(t, 2, response.Total)
	require.Len(t, response.Callables, 2)

	hello := response.Callables[0]
	assert.Equal(t, "hello", hello.Name)
	assert.Equal(t, "method", hello.Kind)
	assert.Equal(t, 2, hello.Line)
	assert.Equal(t, 4, hello.EndLine)
	assert.Equal(t, 2, hello.ResolvedStart)
	assert.Equal(t, 4, hello.ResolvedEnd)
	assert.True(t, hello.Match)

	square := response.Callables[1]
	assert.Equal(t, "lambda", square.Kind)
	assert.Equal(t, 6, square.Line)
	assert.True(t, square.Match)
}

func TestListCallablesHandler_FilterWithoutResolve(t *testing.T) {
	t.Parallel()

	root, resolver := setupProject(t)
	handler := createListCallablesHandler(navigation.New(), resolver, root)

	var response ListCallablesResponse
	decodeResult(t, callTool(t, handler, map[string]interface{}{
		"file":    "greeter.rb",
		"kinds":   []interface{}{"lambda"},
		"resolve": false,
	}), &response)

	require.Len(t, response.Callables, 1)
	assert.Equal(t, "lambda", response.Callables[0].Kind)
	assert.Zero(t, response.Callables[0].ResolvedStart)
	assert.False(t, response.Callables[0].Match)
}

func TestListCallablesHandler_MissingFile(t *testing.T) {
	t.Parallel()

	root, resolver := setupProject(t)
	handler := createListCallablesHandler(navigation.New(), resolver, root)

	text := errorText(t, callTool(t, handler, map[string]interface{}{"file": "missing.rb"}))
	assert.Contains(t, text, "missing.rb")

	text = errorText(t, callTool(t, handler, map[string]interface{}{}))
	assert.Contains(t, text, "file parameter is required")

	text = errorText(t, callTool(t, handler, map[string]interface{}{
		"file":  "greeter.rb",
		"kinds": []interface{}{"proc"},
	}))
	assert.Contains(t, text, `unknown kind "proc"`)
}
