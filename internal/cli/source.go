package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kyrylo/fast-method-source/internal/loader"
	"github.com/kyrylo/fast-method-source/internal/source"
)

var (
	nameFlag  string
	stdinFlag bool
	lineFlag  int
)

type outputMode int

const (
	outputSource outputMode = iota
	outputComment
	outputCommentAndSource
)

// sourceCmd represents the source command
var sourceCmd = &cobra.Command{
	Use:   "source FILE:LINE",
	Short: "Print the source of the callable reported at FILE:LINE",
	Long: `Print the verbatim source of the method, proc or lambda that Ruby reports
as defined at FILE:LINE. The line may be the opening line of the definition
or the one after it.

Examples:
  # Source of a method
  fms source lib/greeter.rb:12 --name Greeter#hello

  # Source of a proc created by eval'd code
  echo "$CODE" | fms source --stdin --line 3`,
	Args: locationArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSource(cmd, args, outputSource)
	},
}

// commentCmd represents the comment command
var commentCmd = &cobra.Command{
	Use:   "comment FILE:LINE",
	Short: "Print the comment above the callable reported at FILE:LINE",
	Long: `Print the contiguous comment block directly above the callable reported at
FILE:LINE. Nothing is printed when there is no comment or the definition
cannot be located.`,
	Args: locationArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSource(cmd, args, outputComment)
	},
}

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show FILE:LINE",
	Short: "Print the comment and source of the callable reported at FILE:LINE",
	Args:  locationArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSource(cmd, args, outputCommentAndSource)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{sourceCmd, commentCmd, showCmd} {
		rootCmd.AddCommand(cmd)
		cmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Method name used in messages (empty for procs and lambdas)")
		cmd.Flags().BoolVar(&stdinFlag, "stdin", false, "Read the source from stdin instead of a file")
		cmd.Flags().IntVarP(&lineFlag, "line", "l", 0, "Line reported for the callable (with --stdin)")
	}
}

// locationArgs requires FILE:LINE unless the source comes from stdin.
func locationArgs(cmd *cobra.Command, args []string) error {
	if stdinFlag {
		if len(args) != 0 {
			return fmt.Errorf("FILE:LINE cannot be combined with --stdin")
		}
		if lineFlag < 1 {
			return fmt.Errorf("--stdin requires a positive --line")
		}
		return nil
	}
	return cobra.ExactArgs(1)(cmd, args)
}

func runSource(cmd *cobra.Command, args []string, mode outputMode) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	files, err := loader.New(cfg.Cache.Capacity)
	if err != nil {
		return err
	}
	defer files.Close()

	var loc source.Location
	if stdinFlag {
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		loc = source.Location{File: files.Register(string(content)).ID, Line: lineFlag}
	} else {
		if loc, err = parseLocation(args[0]); err != nil {
			return err
		}
	}

	var callable source.Callable = source.Named{Name: nameFlag, Loc: &loc}
	if nameFlag == "" {
		callable = source.Anonymous{Loc: &loc}
	}

	resolver := source.NewResolver(files, source.WithWindow(cfg.Scan.AnchorWindow))
	out := cmd.OutOrStdout()

	switch mode {
	case outputComment:
		fmt.Fprint(out, resolver.CommentFor(ctx, callable))
		return nil
	case outputCommentAndSource:
		text, err := resolver.CommentAndSourceFor(ctx, callable)
		if err != nil {
			return err
		}
		fmt.Fprint(out, text)
	default:
		text, err := resolver.SourceFor(ctx, callable)
		if err != nil {
			return err
		}
		fmt.Fprint(out, text)
	}
	return nil
}

// parseLocation splits FILE:LINE at the last colon.
func parseLocation(arg string) (source.Location, error) {
	i := strings.LastIndex(arg, ":")
	if i <= 0 || i == len(arg)-1 {
		return source.Location{}, fmt.Errorf("expected FILE:LINE, got %q", arg)
	}
	line, err := strconv.Atoi(arg[i+1:])
	if err != nil || line < 1 {
		return source.Location{}, fmt.Errorf("invalid line in %q", arg)
	}
	return source.Location{File: arg[:i], Line: line}, nil
}
