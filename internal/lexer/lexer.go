// Package lexer holds the lexical primitives shared by the definition and
// comment locators. A State is fed one physical line at a time and keeps
// track of block nesting, open string/regexp/percent literals, pending
// heredoc bodies and embedded documents, so that both locators agree on
// which lines are code, comments or literal bodies.
package lexer

import "strings"

// LineKind classifies a physical line by the lexical mode it starts in.
type LineKind int

const (
	// LineCode is a line that starts in normal mode and carries code.
	LineCode LineKind = iota
	// LineBlank is an empty or whitespace-only line outside any literal.
	LineBlank
	// LineComment is a line whose first non-blank token is a '#' comment.
	LineComment
	// LineLiteral is a line that starts inside a multi-line literal: a
	// string, heredoc body, =begin/=end document or data after __END__.
	LineLiteral
)

func (k LineKind) String() string {
	switch k {
	case LineCode:
		return "code"
	case LineBlank:
		return "blank"
	case LineComment:
		return "comment"
	case LineLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// Line reports what State.Scan observed on one physical line.
type Line struct {
	Kind LineKind

	// Openers counts definable constructs opened on the line: def, class,
	// module, do, and a brace that opens a block literal.
	Openers int

	// MinDepth is the lowest nesting depth reached while scanning the line.
	// A value below the depth at line start means the line closed a
	// construct it did not open.
	MinDepth int

	// Endless is set when an expression-bodied definition (def x = y) was
	// recognized on the line.
	Endless bool
}

// tokenKind is the class of the previous significant token. It drives the
// modifier/statement decision for if/unless/while/until and the
// operator/literal decision for '/', '%', '?', '<<' and ':'.
type tokenKind int

const (
	tokStart tokenKind = iota // start of a statement
	tokValue                  // identifier, literal, closing bracket, value keyword
	tokOp                     // operator, comma, opening bracket, expression keyword
	tokDot                    // '.', '&.' or '::', the next word is a method name
)

type frameKind int

const (
	frameString frameKind = iota
	frameInterp
)

// frame is an open literal (string, symbol, regexp, percent literal) or an
// interpolation inside one.
type frame struct {
	kind   frameKind
	open   byte // opening delimiter for paired delimiters, 0 otherwise
	close  byte
	nest   int
	interp bool
	regex  bool
	braces int // unmatched '{' inside an interpolation
}

type heredoc struct {
	term   string
	indent bool // <<- and <<~ allow an indented terminator
}

type defPhase int

const (
	defNone defPhase = iota
	defName
	defAfterName
	defParams
	defAfterParams
)

type paramsPhase int

const (
	paramsNone paramsPhase = iota
	paramsExpect
	paramsIn
)

// State is the scan state of one forward pass. The zero value is ready to
// use and describes the start of a statement in normal mode.
type State struct {
	// Depth is the number of unmatched block openers and brackets.
	Depth int

	frames  []frame
	pending []heredoc // opened on the current line, bodies start on the next
	active  []heredoc // bodies being consumed, in order
	embdoc  bool
	eof     bool

	prev      tokenKind
	lastIdent bool // prev is a plain identifier (command call candidate)
	lambda    bool // prev token was '->'
	params    paramsPhase
	loopDo    bool // a block-form while/until/for is waiting for its optional do
	continues bool

	def      defPhase
	defDepth int // depth right after the def opener
}

// Scan advances the state over one physical line. The line may carry its
// trailing newline.
func (s *State) Scan(line string) Line {
	res := Line{MinDepth: s.Depth}
	body := trimEOL(line)

	switch {
	case s.eof:
		res.Kind = LineLiteral
		return res
	case s.embdoc:
		res.Kind = LineLiteral
		if hasDirective(body, "=end") {
			s.embdoc = false
		}
		return res
	case len(s.active) > 0:
		res.Kind = LineLiteral
		h := s.active[0]
		candidate := body
		if h.indent {
			candidate = strings.TrimLeft(body, " \t")
		}
		if candidate == h.term {
			s.active = s.active[1:]
		}
		return res
	case s.inString():
		res.Kind = LineLiteral
	default:
		trimmed := strings.TrimLeft(body, " \t")
		switch {
		case trimmed == "":
			res.Kind = LineBlank
		case isCommentStart(trimmed):
			res.Kind = LineComment
		default:
			res.Kind = LineCode
		}
		if len(s.frames) == 0 && !s.continues {
			if body == "__END__" {
				s.eof = true
				res.Kind = LineLiteral
				return res
			}
			if hasDirective(body, "=begin") {
				s.embdoc = true
				res.Kind = LineLiteral
				return res
			}
		}
	}

	if !s.continues && len(s.frames) == 0 {
		s.prev = tokStart
		s.lastIdent = false
		s.loopDo = false
		s.lambda = false
	}

	wasContinued := s.continues
	s.continues = false
	sawCode := s.scanCode(body, &res)

	switch {
	case !sawCode:
		s.continues = wasContinued
	case s.prev == tokOp || s.prev == tokDot:
		s.continues = true
	}

	if s.def == defName || s.def == defAfterName || s.def == defAfterParams {
		s.def = defNone
	}
	if len(s.pending) > 0 {
		s.active = append(s.active, s.pending...)
		s.pending = nil
	}
	return res
}

// Settled reports whether the scan is at a statement boundary: no open
// constructs, literals, heredoc bodies or line continuation.
func (s *State) Settled() bool {
	return s.Depth == 0 &&
		len(s.frames) == 0 &&
		len(s.pending) == 0 &&
		len(s.active) == 0 &&
		!s.embdoc &&
		!s.continues &&
		s.def != defParams
}

// InLiteral reports whether the next line starts inside a multi-line
// literal.
func (s *State) InLiteral() bool {
	return s.inString() || len(s.active) > 0 || len(s.pending) > 0 || s.embdoc || s.eof
}

// EOF reports whether an __END__ marker has been seen.
func (s *State) EOF() bool {
	return s.eof
}

// Classify runs a single forward pass over lines and returns the kind of
// every line.
func Classify(lines []string) []LineKind {
	var s State
	kinds := make([]LineKind, len(lines))
	for i, line := range lines {
		kinds[i] = s.Scan(line).Kind
	}
	return kinds
}

// OpensDefinition reports whether line, scanned on its own, opens a
// definable construct.
func OpensDefinition(line string) bool {
	var s State
	return s.Scan(line).Openers > 0
}

// IsStatement reports whether line, scanned on its own, is a code line that
// does not begin by closing a construct.
func IsStatement(line string) bool {
	var s State
	res := s.Scan(line)
	return res.Kind == LineCode && res.MinDepth >= 0
}

// LeadingDot reports whether line continues a method chain from the
// previous line (".foo" or "&.foo").
func LeadingDot(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(trimmed, "&.") {
		return true
	}
	return strings.HasPrefix(trimmed, ".") && !strings.HasPrefix(trimmed, "..")
}

// IsComment reports whether line is a comment-only line when read in
// normal mode.
func IsComment(line string) bool {
	return isCommentStart(strings.TrimLeft(trimEOL(line), " \t"))
}

func (s *State) inString() bool {
	return len(s.frames) > 0 && s.frames[len(s.frames)-1].kind == frameString
}

func (s *State) inInterp() bool {
	return len(s.frames) > 0 && s.frames[len(s.frames)-1].kind == frameInterp
}

func isCommentStart(trimmed string) bool {
	return strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, "#{")
}

func hasDirective(body, directive string) bool {
	if !strings.HasPrefix(body, directive) {
		return false
	}
	return len(body) == len(directive) || isSpace(body[len(directive)])
}

func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
