package cli

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kyrylo/fast-method-source/internal/loader"
	"github.com/kyrylo/fast-method-source/internal/navigation"
	"github.com/kyrylo/fast-method-source/internal/source"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list FILE",
	Short: "List the callables in a Ruby file with their spans",
	Long: `List every class, module, method, block and lambda that tree-sitter finds
in FILE, next to the span the scanner resolves from the same line. Use it
to find the FILE:LINE to pass to "fms source" or to spot disagreements.`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	callables, err := navigation.New().ParseFile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	files, err := loader.New(cfg.Cache.Capacity)
	if err != nil {
		return err
	}
	defer files.Close()
	resolver := source.NewResolver(files, source.WithWindow(cfg.Scan.AnchorWindow))

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Name", "Kind", "Lines", "Resolved", "Match"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_CENTER})

	matched := 0
	for _, c := range callables {
		resolved, match := "-", ""
		if res, err := resolver.Resolve(ctx, c.Source()); err == nil {
			resolved = lineRange(res.StartLine(), res.EndLine())
			if res.StartLine() == c.Line && res.EndLine() == c.EndLine {
				match = "✓"
				matched++
			} else {
				match = "✗"
			}
		}
		table.Append([]string{c.DisplayName(), string(c.Kind), lineRange(c.Line, c.EndLine), resolved, match})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total %d", len(callables)),
		"", "", "",
		strconv.Itoa(matched),
	})

	table.Render()
	fmt.Fprint(cmd.OutOrStdout(), tableBuffer.String())
	return nil
}

func lineRange(start, end int) string {
	if start == end {
		return strconv.Itoa(start)
	}
	return fmt.Sprintf("%d-%d", start, end)
}
