package cli

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kyrylo/fast-method-source/internal/fixtures"
	"github.com/kyrylo/fast-method-source/internal/loader"
	"github.com/kyrylo/fast-method-source/internal/navigation"
	"github.com/kyrylo/fast-method-source/internal/source"
	"github.com/kyrylo/fast-method-source/internal/sweep"
)

var (
	quietFlag    bool
	fixturesFlag string
	workersFlag  int
)

// sweepCmd represents the sweep command
var sweepCmd = &cobra.Command{
	Use:   "sweep [DIR]",
	Short: "Resolve every callable under DIR and compare with tree-sitter",
	Long: `Sweep discovers Ruby files under DIR (default: the current directory),
resolves every class, module, method, block and lambda with the scanner and
compares each span with the one tree-sitter reports.

Files are selected with paths.include and paths.ignore from the configuration.
Matched spans can be written out as a fixture file that later runs can replay.

Examples:
  # Sweep the current project
  fms sweep

  # Sweep the Ruby standard library and keep the results as fixtures
  fms sweep "$(ruby -e 'print RbConfig::CONFIG["rubylibdir"]')" --fixtures stdlib.yaml
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars")
	sweepCmd.Flags().StringVar(&fixturesFlag, "fixtures", "", "Write matched spans to this fixture file")
	sweepCmd.Flags().IntVarP(&workersFlag, "workers", "w", 0, "Files swept concurrently (default from sweep.workers)")
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle interrupt signals gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(cmd.ErrOrStderr(), "\nInterrupted! Cancelling sweep...")
			cancel()
		case <-ctx.Done():
		}
	}()

	rootDir := "."
	if len(args) == 1 {
		rootDir = args[0]
	}
	rootDir, err := filepath.Abs(rootDir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", rootDir, err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	workers := cfg.Sweep.Workers
	if workersFlag > 0 {
		workers = workersFlag
	}

	discovery, err := sweep.NewDiscovery(rootDir, cfg.Paths.Include, cfg.Paths.Ignore)
	if err != nil {
		return fmt.Errorf("invalid path patterns: %w", err)
	}
	files, err := discovery.Discover()
	if err != nil {
		return fmt.Errorf("failed to discover files: %w", err)
	}
	log.Printf("Discovered %d files under %s", len(files), rootDir)

	cache, err := loader.New(cfg.Cache.Capacity)
	if err != nil {
		return err
	}
	defer cache.Close()

	runner := sweep.NewRunner(
		source.NewResolver(cache, source.WithWindow(cfg.Scan.AnchorWindow)),
		navigation.New(),
		sweep.WithWorkers(workers),
		sweep.WithProgress(NewCLIProgressReporter(cmd.ErrOrStderr(), quietFlag)),
	)
	report, err := runner.Run(ctx, files)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	for _, e := range report.Entries {
		if e.Outcome == sweep.OutcomeMismatch {
			log.Printf("Mismatch %s at %s:%d: expected %s, got %s",
				e.Callable.DisplayName(), e.Callable.File, e.Callable.Line,
				lineRange(e.Callable.Line, e.Callable.EndLine), lineRange(e.Start, e.End))
		}
	}
	for _, fe := range report.FileErrors {
		log.Printf("Failed to parse %s: %s", fe.Path, fe.Err)
	}

	fmt.Fprint(cmd.OutOrStdout(), renderSummary(report))

	if fixturesFlag != "" {
		list := report.Fixtures()
		if err := fixtures.WriteFile(fixturesFlag, list); err != nil {
			return fmt.Errorf("failed to write fixtures: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s fixtures to %s\n", formatNumber(len(list)), fixturesFlag)
	}

	return nil
}

// renderSummary renders outcome counts per callable kind.
func renderSummary(report *sweep.Report) string {
	var tableBuffer bytes.Buffer

	header := []string{"Kind"}
	for _, o := range sweep.Outcomes {
		header = append(header, string(o))
	}

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")

	byKind := report.ByKind()
	for _, kind := range report.Kinds() {
		row := []string{string(kind)}
		for _, o := range sweep.Outcomes {
			row = append(row, strconv.Itoa(byKind[kind][o]))
		}
		table.Append(row)
	}

	footer := []string{fmt.Sprintf("Total %d", len(report.Entries))}
	for _, o := range sweep.Outcomes {
		footer = append(footer, strconv.Itoa(report.Count(o)))
	}
	table.SetFooter(footer)

	table.Render()
	return tableBuffer.String()
}
