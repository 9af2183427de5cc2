// Package locator finds the span of a definition in a sequence of source
// lines given the line a definition is reported to start at, and the block
// of comment lines directly above it.
package locator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kyrylo/fast-method-source/internal/lexer"
)

// DefaultWindow is how many lines above the anchor are tried when the
// anchor line itself does not open a definition.
const DefaultWindow = 1

// ErrSourceNotFound is returned when no definition can be delimited.
var ErrSourceNotFound = errors.New("source not found")

// Span is an inclusive 0-based range of line indices.
type Span struct {
	Start int
	End   int
}

// Len returns the number of lines in the span.
func (s Span) Len() int {
	return s.End - s.Start + 1
}

// Text joins the spanned lines verbatim.
func (s Span) Text(lines []string) string {
	return strings.Join(lines[s.Start:s.End+1], "")
}

// Options configures Locate.
type Options struct {
	Window int
}

// Option mutates Options.
type Option func(*Options)

// WithWindow sets the number of lines above the anchor that may hold the
// definition start. Negative values are treated as zero.
func WithWindow(n int) Option {
	return func(o *Options) {
		o.Window = max(n, 0)
	}
}

// Locate returns the span of the definition anchored at line index anchor.
func Locate(lines []string, anchor int, opts ...Option) (Span, error) {
	o := Options{Window: DefaultWindow}
	for _, opt := range opts {
		opt(&o)
	}

	if len(lines) == 0 {
		return Span{}, fmt.Errorf("%w: empty source", ErrSourceNotFound)
	}
	if anchor < 0 || anchor >= len(lines) {
		return Span{}, fmt.Errorf("%w: line %d outside 1..%d", ErrSourceNotFound, anchor+1, len(lines))
	}

	return locate(lines, anchor, o.Window)
}

// locate picks where the forward scan begins: the anchor if it opens a
// definition, else the nearest opener within window lines above whose
// construct reaches the anchor, else the anchor itself when it is a plain
// statement.
func locate(lines []string, anchor, window int) (Span, error) {
	if lexer.OpensDefinition(lines[anchor]) {
		end, err := scanEnd(lines, anchor)
		if err != nil {
			return Span{}, err
		}
		return Span{Start: anchor, End: end}, nil
	}
	for i := anchor - 1; i >= 0 && anchor-i <= window; i-- {
		if !lexer.OpensDefinition(lines[i]) {
			continue
		}
		// An opener that closes above the anchor belongs to another definition.
		if end, err := scanEnd(lines, i); err == nil && end >= anchor {
			return Span{Start: i, End: end}, nil
		}
	}
	if lexer.IsStatement(lines[anchor]) {
		end, err := scanEnd(lines, anchor)
		if err != nil {
			return Span{}, err
		}
		return Span{Start: anchor, End: end}, nil
	}
	return Span{}, fmt.Errorf("%w: line %d does not start a definition", ErrSourceNotFound, anchor+1)
}

// scanEnd runs the forward scan from start and returns the first line at
// which the definition is complete.
func scanEnd(lines []string, start int) (int, error) {
	var st lexer.State
	for i := start; i < len(lines); i++ {
		res := st.Scan(lines[i])
		if st.EOF() {
			break
		}
		if res.MinDepth < 0 {
			return 0, fmt.Errorf("%w: line %d closes a construct opened before line %d", ErrSourceNotFound, i+1, start+1)
		}
		if !st.Settled() {
			continue
		}
		if i+1 < len(lines) && lexer.LeadingDot(lines[i+1]) {
			continue
		}
		return i, nil
	}
	return 0, fmt.Errorf("%w: definition at line %d is not closed before end of input", ErrSourceNotFound, start+1)
}
