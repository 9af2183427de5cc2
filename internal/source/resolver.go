// Package source answers "what is the source text and leading comment of
// this callable" by combining the loader with the span and comment
// locators.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/kyrylo/fast-method-source/internal/loader"
	"github.com/kyrylo/fast-method-source/internal/locator"
)

// ErrSourceNotFound is returned when a callable's definition cannot be
// located. It is the same value as locator.ErrSourceNotFound.
var ErrSourceNotFound = locator.ErrSourceNotFound

// FileLoader provides source lines by identity.
type FileLoader interface {
	Load(ctx context.Context, id string) (*loader.SourceFile, error)
}

// Result is a resolved definition.
type Result struct {
	Name     string
	Location Location
	// Span is 0-based and inclusive.
	Span    locator.Span
	Comment locator.CommentBlock
	Source  string
}

// StartLine returns the 1-based first line of the definition.
func (r *Result) StartLine() int { return r.Span.Start + 1 }

// EndLine returns the 1-based last line of the definition.
func (r *Result) EndLine() int { return r.Span.End + 1 }

// CommentAndSource is the comment followed by the source.
func (r *Result) CommentAndSource() string {
	return r.Comment.Text() + r.Source
}

// Resolver resolves callables against a FileLoader.
type Resolver struct {
	files  FileLoader
	window int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithWindow sets how many lines above the reported line may hold the
// definition start.
func WithWindow(n int) Option {
	return func(r *Resolver) {
		r.window = n
	}
}

// NewResolver creates a Resolver reading through files.
func NewResolver(files FileLoader, opts ...Option) *Resolver {
	r := &Resolver{files: files, window: locator.DefaultWindow}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve locates the definition and comment of c.
func (r *Resolver) Resolve(ctx context.Context, c Callable) (*Result, error) {
	name := c.DisplayName()
	loc, ok := c.SourceLocation()
	switch {
	case !ok:
		return nil, notFound(name, errors.New("no source location"))
	case loc.File == "" || loc.Line <= 0:
		return nil, notFound(name, fmt.Errorf("no source at %s", loc))
	}

	f, err := r.files.Load(ctx, loc.File)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(name, err)
		}
		return nil, fmt.Errorf("failed to load %s: %w", loc.File, err)
	}

	span, err := locator.Locate(f.Lines, loc.Line-1, locator.WithWindow(r.window))
	if err != nil {
		return nil, fmt.Errorf("could not locate source for %s: %w", name, err)
	}

	return &Result{
		Name:     name,
		Location: loc,
		Span:     span,
		Comment:  locator.CommentAbove(f.Lines, f.Kinds(), span.Start),
		Source:   span.Text(f.Lines),
	}, nil
}

// SourceFor returns the verbatim definition of c.
func (r *Resolver) SourceFor(ctx context.Context, c Callable) (string, error) {
	res, err := r.Resolve(ctx, c)
	if err != nil {
		return "", err
	}
	return res.Source, nil
}

// CommentFor returns the comment block above c, or "" when there is none
// or the definition cannot be located.
func (r *Resolver) CommentFor(ctx context.Context, c Callable) string {
	res, err := r.Resolve(ctx, c)
	if err != nil {
		return ""
	}
	return res.Comment.Text()
}

// CommentAndSourceFor returns the comment block followed by the definition.
func (r *Resolver) CommentAndSourceFor(ctx context.Context, c Callable) (string, error) {
	res, err := r.Resolve(ctx, c)
	if err != nil {
		return "", err
	}
	return res.CommentAndSource(), nil
}

func notFound(name string, cause error) error {
	return fmt.Errorf("could not locate source for %s: %w: %w", name, ErrSourceNotFound, cause)
}

var defaultResolver = sync.OnceValue(func() *Resolver {
	return NewResolver(loader.Default())
})

// SourceFor resolves c with the default resolver.
func SourceFor(ctx context.Context, c Callable) (string, error) {
	return defaultResolver().SourceFor(ctx, c)
}

// CommentFor resolves c's comment with the default resolver.
func CommentFor(ctx context.Context, c Callable) string {
	return defaultResolver().CommentFor(ctx, c)
}

// CommentAndSourceFor resolves c with the default resolver.
func CommentAndSourceFor(ctx context.Context, c Callable) (string, error) {
	return defaultResolver().CommentAndSourceFor(ctx, c)
}
