// Package loader turns source identities (file paths or synthetic ids of
// evaluated strings) into immutable line slices. Files are cached in a
// bounded in-memory cache; concurrent first loads of the same path read the
// file once.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/maypok86/otter"
	"golang.org/x/sync/singleflight"

	"github.com/kyrylo/fast-method-source/internal/lexer"
)

// DefaultCapacity is the number of files the default loader keeps.
const DefaultCapacity = 1024

// evalPrefix marks synthetic ids of registered string sources.
const evalPrefix = "(eval-"

// SourceFile is the verbatim content of one source, split into lines that
// keep their trailing newline.
type SourceFile struct {
	ID    string
	Lines []string

	kindsOnce sync.Once
	kinds     []lexer.LineKind
}

// Kinds returns the lexical kind of every line. It is computed on first use
// and shared by later lookups in the same file.
func (f *SourceFile) Kinds() []lexer.LineKind {
	f.kindsOnce.Do(func() {
		f.kinds = lexer.Classify(f.Lines)
	})
	return f.kinds
}

// NewSourceFile splits content into a SourceFile.
func NewSourceFile(id, content string) *SourceFile {
	return &SourceFile{ID: id, Lines: SplitLines(content)}
}

// SplitLines splits content after every newline. A final line without a
// newline is kept; no empty trailing element is produced.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Stats is a snapshot of cache effectiveness.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	Evals     int
}

// Loader loads and caches SourceFiles. It is safe for concurrent use.
type Loader struct {
	cache    otter.Cache[string, *SourceFile]
	group    singleflight.Group
	readFile func(string) ([]byte, error)

	mu    sync.RWMutex
	evals map[string]*SourceFile
}

// Option configures a Loader.
type Option func(*Loader)

// WithReadFile replaces the function used to read files from disk.
func WithReadFile(fn func(string) ([]byte, error)) Option {
	return func(l *Loader) {
		l.readFile = fn
	}
}

// New creates a Loader that caches up to capacity files.
func New(capacity int, opts ...Option) (*Loader, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	cache, err := otter.MustBuilder[string, *SourceFile](capacity).
		CollectStats().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build line cache: %w", err)
	}

	l := &Loader{
		cache:    cache,
		readFile: os.ReadFile,
		evals:    make(map[string]*SourceFile),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

var defaultLoader = sync.OnceValue(func() *Loader {
	l, err := New(DefaultCapacity)
	if err != nil {
		panic(err)
	}
	return l
})

// Default returns the process-wide loader used by the package level
// resolver functions.
func Default() *Loader {
	return defaultLoader()
}

// Load returns the lines of the source identified by id. Registered string
// sources are served from memory; anything else is read from disk once and
// cached. Errors from reading the file are returned unchanged, so
// errors.Is(err, fs.ErrNotExist) holds for missing files.
func (l *Loader) Load(ctx context.Context, id string) (*SourceFile, error) {
	if f, ok := l.eval(id); ok {
		return f, nil
	}

	key := normalize(id)
	if f, ok := l.cache.Get(key); ok {
		return f, nil
	}

	v, err, _ := l.group.Do(key, func() (any, error) {
		if f, ok := l.cache.Get(key); ok {
			return f, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := l.readFile(key)
		if err != nil {
			return nil, err
		}
		f := NewSourceFile(key, string(data))
		l.cache.Set(key, f)
		return f, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*SourceFile), nil
}

// Register stores content under a fresh synthetic id of the form
// "(eval-<uuid>)" and returns it. Registered sources are never evicted.
func (l *Loader) Register(content string) *SourceFile {
	return l.RegisterAs(evalPrefix+uuid.NewString()+")", content)
}

// RegisterAs stores content under id, replacing any earlier registration.
func (l *Loader) RegisterAs(id, content string) *SourceFile {
	f := NewSourceFile(id, content)
	l.mu.Lock()
	l.evals[id] = f
	l.mu.Unlock()
	return f
}

// Unregister drops a registered string source.
func (l *Loader) Unregister(id string) {
	l.mu.Lock()
	delete(l.evals, id)
	l.mu.Unlock()
}

// Invalidate drops cached files so that the next Load reads them again.
func (l *Loader) Invalidate(paths ...string) {
	for _, p := range paths {
		l.cache.Delete(normalize(p))
	}
}

// Purge drops every cached file. Registered string sources are kept.
func (l *Loader) Purge() {
	l.cache.Clear()
}

// Stats reports cache counters.
func (l *Loader) Stats() Stats {
	s := l.cache.Stats()
	l.mu.RLock()
	evals := len(l.evals)
	l.mu.RUnlock()
	return Stats{
		Hits:      s.Hits(),
		Misses:    s.Misses(),
		Evictions: s.EvictedCount(),
		Size:      l.cache.Size(),
		Evals:     evals,
	}
}

// Close releases the cache.
func (l *Loader) Close() {
	l.cache.Close()
}

func (l *Loader) eval(id string) (*SourceFile, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	f, ok := l.evals[id]
	return f, ok
}

func normalize(path string) string {
	if strings.HasPrefix(path, "(") {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
