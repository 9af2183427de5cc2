package cli

// Test Plan for CLI Commands:
// - source prints the verbatim definition for FILE:LINE
// - comment prints the comment block, or nothing when there is none
// - show prints the comment followed by the source
// - --stdin resolves eval'd code registered from standard input
// - Missing definitions fail with a "could not locate source" error
// - Malformed FILE:LINE arguments and flag combinations are rejected
// - list prints a table of callables with matching spans
// - sweep prints a summary table and writes fixtures
// - --config loads an explicit configuration file
// - version prints build information

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyrylo/fast-method-source/internal/fixtures"
)

const greeterSource = `class Greeter
  # Says hello.
  def hello
    <<~TEXT
      end
    TEXT
  end

  def bye = "bye"
end
`

// executeCommand runs the root command with args and returns its output.
// Flag variables are package level, so they are reset before every run.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cfgFile, verbose = "", false
	nameFlag, stdinFlag, lineFlag = "", false, 0
	quietFlag, fixturesFlag, workersFlag = false, "", 0

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func writeGreeter(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "lib", "greeter.rb")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(greeterSource), 0644))
	return dir, path
}

func TestSourceCommand(t *testing.T) {
	_, path := writeGreeter(t)

	out, err := executeCommand(t, "", "source", path+":3", "--name", "Greeter#hello")
	require.NoError(t, err)
	assert.Equal(t, "  def hello\n    <<~TEXT\n      end\n    TEXT\n  end\n", out)
}

func TestSourceCommand_EndlessDefinition(t *testing.T) {
	_, path := writeGreeter(t)

	out, err := executeCommand(t, "", "source", path+":9")
	require.NoError(t, err)
	assert.Equal(t, "  def bye = \"bye\"\n", out)
}

func TestCommentCommand(t *testing.T) {
	_, path := writeGreeter(t)

	out, err := executeCommand(t, "", "comment", path+":3")
	require.NoError(t, err)
	assert.Equal(t, "  # Says hello.\n", out)

	out, err = executeCommand(t, "", "comment", path+":9")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestShowCommand(t *testing.T) {
	_, path := writeGreeter(t)

	out, err := executeCommand(t, "", "show", path+":4", "-n", "Greeter#hello")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "  # Says hello.\n  def hello\n"), out)
	assert.True(t, strings.HasSuffix(out, "    TEXT\n  end\n"), out)
}

func TestSourceCommand_Stdin(t *testing.T) {
	code := "x = 1\nadd = proc { |a, b|\n  a + b\n}\n"

	out, err := executeCommand(t, code, "source", "--stdin", "--line", "2")
	require.NoError(t, err)
	assert.Equal(t, "add = proc { |a, b|\n  a + b\n}\n", out)
}

func TestSourceCommand_NotFound(t *testing.T) {
	_, path := writeGreeter(t)

	_, err := executeCommand(t, "", "source", path+":40", "--name", "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not locate source for ghost")

	_, err = executeCommand(t, "", "source", filepath.Join(t.TempDir(), "missing.rb:1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not locate source")
}

func TestSourceCommand_InvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no location", []string{"source"}, "accepts 1 arg"},
		{"no line", []string{"source", "lib/a.rb"}, "expected FILE:LINE"},
		{"empty line", []string{"source", "lib/a.rb:"}, "expected FILE:LINE"},
		{"non numeric line", []string{"source", "lib/a.rb:x"}, "invalid line"},
		{"zero line", []string{"source", "lib/a.rb:0"}, "invalid line"},
		{"stdin with location", []string{"source", "--stdin", "--line", "1", "a.rb:1"}, "cannot be combined"},
		{"stdin without line", []string{"source", "--stdin"}, "requires a positive --line"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseLocation(t *testing.T) {
	loc, err := parseLocation("C:/ruby/lib/a.rb:12")
	require.NoError(t, err)
	assert.Equal(t, "C:/ruby/lib/a.rb", loc.File)
	assert.Equal(t, 12, loc.Line)
}

func TestListCommand(t *testing.T) {
	_, path := writeGreeter(t)

	out, err := executeCommand(t, "", "list", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Greeter#hello")
	assert.Contains(t, out, "Greeter#bye")
	assert.Contains(t, out, "3-7")
	assert.Contains(t, out, "1-10")
	assert.Contains(t, strings.ToUpper(out), "TOTAL 3")
}

func TestSweepCommand(t *testing.T) {
	dir, _ := writeGreeter(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor", "skip.rb"), []byte("def skip\nend\n"), 0644))

	fixturePath := filepath.Join(t.TempDir(), "out", "fixtures.yaml")
	out, err := executeCommand(t, "", "sweep", dir, "--quiet", "--workers", "2", "--fixtures", fixturePath)
	require.NoError(t, err)

	upper := strings.ToUpper(out)
	assert.Contains(t, upper, "KIND")
	assert.Contains(t, upper, "MATCH")
	assert.Contains(t, upper, "TOTAL 3")
	assert.Contains(t, out, "Wrote 3 fixtures")

	list, err := fixtures.ReadFile(fixturePath)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Greeter", list[0].Name)
	assert.Equal(t, "Greeter#hello", list[1].Name)
	assert.Equal(t, 3, list[1].Start)
	assert.Equal(t, 7, list[1].End)
	assert.Equal(t, 2, list[1].CommentStart)
}

func TestConfigFlag(t *testing.T) {
	_, path := writeGreeter(t)

	bad := filepath.Join(t.TempDir(), "fms.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("scan:\n  anchor_window: 42\n"), 0644))

	_, err := executeCommand(t, "", "source", path+":3", "--config", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")

	// With a zero window the line after the opener starts its own span
	strict := filepath.Join(t.TempDir(), "fms.yaml")
	require.NoError(t, os.WriteFile(strict, []byte("scan:\n  anchor_window: 0\n"), 0644))

	out, err := executeCommand(t, "", "source", path+":4", "--config", strict)
	require.NoError(t, err)
	assert.Equal(t, "    <<~TEXT\n      end\n    TEXT\n", out)
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "fms dev")
	assert.Contains(t, out, "Git commit: none")
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,234", formatNumber(1234))
	assert.Equal(t, "1,234,567", formatNumber(1234567))
}
