package locator

import (
	"slices"
	"strings"

	"github.com/kyrylo/fast-method-source/internal/lexer"
)

// CommentBlock is the run of comment lines directly above a definition.
type CommentBlock struct {
	// Start is the 0-based index of the first comment line. For an empty
	// block it equals the definition start.
	Start int
	Lines []string
}

// Text joins the comment lines verbatim. It is empty when there is no
// comment.
func (b CommentBlock) Text() string {
	return strings.Join(b.Lines, "")
}

// Empty reports whether the block holds no lines.
func (b CommentBlock) Empty() bool {
	return len(b.Lines) == 0
}

// LocateComment returns the contiguous comment lines immediately above the
// definition starting at line index start. A blank line, a code line or a
// line inside a literal ends the block. Lines are classified with a forward
// pass from the top of the file so that heredoc and =begin bodies that look
// like comments are not picked up.
func LocateComment(lines []string, start int) CommentBlock {
	if start <= 0 || start > len(lines) || !lexer.IsComment(lines[start-1]) {
		return CommentBlock{Start: max(start, 0)}
	}
	return CommentAbove(lines, lexer.Classify(lines[:start]), start)
}

// CommentAbove is LocateComment over line kinds already computed with
// lexer.Classify. kinds must cover at least lines[:start].
func CommentAbove(lines []string, kinds []lexer.LineKind, start int) CommentBlock {
	if start <= 0 || start > len(lines) || start > len(kinds) {
		return CommentBlock{Start: max(start, 0)}
	}

	i := start
	for i > 0 && kinds[i-1] == lexer.LineComment {
		i--
	}
	if i == start {
		return CommentBlock{Start: start}
	}
	return CommentBlock{Start: i, Lines: slices.Clone(lines[i:start])}
}
