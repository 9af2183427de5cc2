// Package sweep resolves every callable in a set of Ruby files and compares
// the scanner's spans with the ones tree-sitter reports. It is both a
// benchmark and a regression harness: matched spans can be written out as
// fixtures.
package sweep

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/errgroup"

	"github.com/kyrylo/fast-method-source/internal/fixtures"
	"github.com/kyrylo/fast-method-source/internal/navigation"
	"github.com/kyrylo/fast-method-source/internal/source"
)

// Outcome classifies one resolution attempt.
type Outcome string

const (
	// OutcomeMatch means the scanner and the parser agree on the span.
	OutcomeMatch Outcome = "match"
	// OutcomeMismatch means the scanner resolved a different span.
	OutcomeMismatch Outcome = "mismatch"
	// OutcomeNotFound means the scanner reported ErrSourceNotFound.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeError means loading failed for another reason.
	OutcomeError Outcome = "error"
)

// Outcomes lists every outcome in report order.
var Outcomes = []Outcome{OutcomeMatch, OutcomeMismatch, OutcomeNotFound, OutcomeError}

// Resolver resolves one callable.
type Resolver interface {
	Resolve(ctx context.Context, c source.Callable) (*source.Result, error)
}

// Parser enumerates the callables of a file.
type Parser interface {
	ParseFile(ctx context.Context, path string) ([]navigation.Callable, error)
}

// ProgressReporter receives sweep progress. Methods may be called from
// several goroutines but never concurrently.
type ProgressReporter interface {
	OnSweepStart(files int)
	OnFileSwept(path string, callables int)
	OnSweepComplete(report *Report)
}

type noopReporter struct{}

func (noopReporter) OnSweepStart(int)        {}
func (noopReporter) OnFileSwept(string, int) {}
func (noopReporter) OnSweepComplete(*Report) {}

// Entry is the result for one callable.
type Entry struct {
	Callable navigation.Callable
	Outcome  Outcome
	// Start, End and CommentStart are 1-based and set when the scanner
	// resolved a span.
	Start        int
	End          int
	CommentStart int
	Err          string
}

// FileError records a file that could not be parsed.
type FileError struct {
	Path string
	Err  string
}

// Report is the result of one sweep.
type Report struct {
	RunID      string
	Files      int
	Entries    []Entry
	FileErrors []FileError
	Duration   time.Duration
}

// Count returns the number of entries with outcome o.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, e := range r.Entries {
		if e.Outcome == o {
			n++
		}
	}
	return n
}

// ByKind counts outcomes per callable kind.
func (r *Report) ByKind() map[navigation.Kind]map[Outcome]int {
	counts := make(map[navigation.Kind]map[Outcome]int)
	for _, e := range r.Entries {
		if counts[e.Callable.Kind] == nil {
			counts[e.Callable.Kind] = make(map[Outcome]int)
		}
		counts[e.Callable.Kind][e.Outcome]++
	}
	return counts
}

// Kinds returns the kinds present in the report, sorted.
func (r *Report) Kinds() []navigation.Kind {
	seen := make(map[navigation.Kind]bool)
	var kinds []navigation.Kind
	for _, e := range r.Entries {
		if !seen[e.Callable.Kind] {
			seen[e.Callable.Kind] = true
			kinds = append(kinds, e.Callable.Kind)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Fixtures converts matched entries into fixtures.
func (r *Report) Fixtures() []fixtures.Fixture {
	var list []fixtures.Fixture
	for _, e := range r.Entries {
		if e.Outcome != OutcomeMatch {
			continue
		}
		list = append(list, fixtures.Fixture{
			File:         e.Callable.File,
			Name:         e.Callable.DisplayName(),
			Line:         e.Callable.Line,
			Start:        e.Start,
			End:          e.End,
			CommentStart: e.CommentStart,
		})
	}
	return list
}

// DefaultWorkers is used when no worker count is configured.
const DefaultWorkers = 4

// Runner sweeps files with a bounded number of workers.
type Runner struct {
	resolver Resolver
	parser   Parser
	workers  int
	progress ProgressReporter
	meters   metric.MeterProvider
	metrics  *sweepMetrics
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers bounds the number of files processed concurrently.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithProgress sets the progress reporter.
func WithProgress(p ProgressReporter) Option {
	return func(r *Runner) {
		if p != nil {
			r.progress = p
		}
	}
}

// WithMeterProvider sets where sweep metrics are recorded. The default is
// the global otel provider.
func WithMeterProvider(p metric.MeterProvider) Option {
	return func(r *Runner) {
		if p != nil {
			r.meters = p
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(resolver Resolver, parser Parser, opts ...Option) *Runner {
	r := &Runner{
		resolver: resolver,
		parser:   parser,
		workers:  DefaultWorkers,
		progress: noopReporter{},
		meters:   otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(r)
	}

	m, err := newSweepMetrics(r.meters)
	if err != nil {
		log.Printf("Warning: sweep metrics disabled: %v", err)
		m, _ = newSweepMetrics(noop.NewMeterProvider())
	}
	r.metrics = m
	return r
}

// Run sweeps files. Per-file and per-callable failures are recorded in the
// report; only context cancellation aborts the run.
func (r *Runner) Run(ctx context.Context, files []string) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.NewString(), Files: len(files)}

	r.progress.OnSweepStart(len(files))

	perFile := make([][]Entry, len(files))
	fileErrs := make([]*FileError, len(files))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, path := range files {
		g.Go(func() error {
			fileStart := time.Now()
			callables, err := r.parser.ParseFile(gctx, path)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				fileErrs[i] = &FileError{Path: path, Err: err.Error()}
			}

			entries := make([]Entry, 0, len(callables))
			for _, c := range callables {
				if err := gctx.Err(); err != nil {
					return err
				}
				entry := r.resolve(gctx, c)
				r.metrics.recordEntry(gctx, entry)
				entries = append(entries, entry)
			}
			perFile[i] = entries
			r.metrics.recordFile(gctx, time.Since(fileStart))

			mu.Lock()
			r.progress.OnFileSwept(path, len(callables))
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range files {
		report.Entries = append(report.Entries, perFile[i]...)
		if fileErrs[i] != nil {
			report.FileErrors = append(report.FileErrors, *fileErrs[i])
		}
	}
	report.Duration = time.Since(start)

	r.progress.OnSweepComplete(report)
	return report, nil
}

func (r *Runner) resolve(ctx context.Context, c navigation.Callable) Entry {
	entry := Entry{Callable: c}

	res, err := r.resolver.Resolve(ctx, c.Source())
	switch {
	case errors.Is(err, source.ErrSourceNotFound):
		entry.Outcome = OutcomeNotFound
		entry.Err = err.Error()
		return entry
	case err != nil:
		entry.Outcome = OutcomeError
		entry.Err = err.Error()
		return entry
	}

	entry.Start = res.StartLine()
	entry.End = res.EndLine()
	if !res.Comment.Empty() {
		entry.CommentStart = res.Comment.Start + 1
	}
	if entry.Start == c.Line && entry.End == c.EndLine {
		entry.Outcome = OutcomeMatch
	} else {
		entry.Outcome = OutcomeMismatch
	}
	return entry
}
