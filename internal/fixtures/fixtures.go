// Package fixtures reads and writes recorded span expectations: for a
// callable reported at File:Line, the 1-based inclusive Start..End lines
// of its definition and the first line of its comment block.
package fixtures

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Fixture is one recorded expectation.
type Fixture struct {
	File  string `yaml:"file"`
	Name  string `yaml:"name"`
	Line  int    `yaml:"line"`
	Start int    `yaml:"start"`
	End   int    `yaml:"end"`
	// CommentStart is the first line of the comment block, 0 when the
	// definition has no comment.
	CommentStart int `yaml:"comment_start,omitempty"`
}

// Document is the on-disk layout of a fixtures file.
type Document struct {
	Version  int       `yaml:"version"`
	Fixtures []Fixture `yaml:"fixtures"`
}

// CurrentVersion is written by Write.
const CurrentVersion = 1

// Read decodes a fixtures document.
func Read(r io.Reader) ([]Fixture, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode fixtures: %w", err)
	}
	if doc.Version > CurrentVersion {
		return nil, fmt.Errorf("unsupported fixtures version %d", doc.Version)
	}
	for i, f := range doc.Fixtures {
		if err := f.validate(); err != nil {
			return nil, fmt.Errorf("fixture %d (%s): %w", i, f.Name, err)
		}
	}
	return doc.Fixtures, nil
}

// Write encodes fixtures as a versioned document.
func Write(w io.Writer, fixtures []Fixture) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Document{Version: CurrentVersion, Fixtures: fixtures}); err != nil {
		return fmt.Errorf("failed to encode fixtures: %w", err)
	}
	return enc.Close()
}

// ReadFile reads a fixtures file. Relative fixture paths are resolved
// against the directory of the fixtures file.
func ReadFile(path string) ([]Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	list, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i := range list {
		if !filepath.IsAbs(list[i].File) {
			list[i].File = filepath.Join(dir, list[i].File)
		}
	}
	return list, nil
}

// WriteFile writes fixtures to path, creating parent directories.
func WriteFile(path string, fixtures []Fixture) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create fixtures directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create fixtures file: %w", err)
	}
	if err := Write(f, fixtures); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (f Fixture) validate() error {
	switch {
	case f.File == "":
		return fmt.Errorf("missing file")
	case f.Line <= 0:
		return fmt.Errorf("line must be positive, got %d", f.Line)
	case f.Start <= 0 || f.End < f.Start:
		return fmt.Errorf("invalid span %d..%d", f.Start, f.End)
	case f.CommentStart < 0 || (f.CommentStart > 0 && f.CommentStart >= f.Start):
		return fmt.Errorf("comment must start before line %d, got %d", f.Start, f.CommentStart)
	}
	return nil
}
