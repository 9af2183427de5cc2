package lexer

import "strings"

// blockOpeners always open a construct closed by "end".
var blockOpeners = map[string]bool{
	"begin":  true,
	"case":   true,
	"class":  true,
	"def":    true,
	"module": true,
}

// statementOpeners open a construct only in statement position; after a
// value they are modifiers.
var statementOpeners = map[string]bool{
	"if":     true,
	"unless": true,
	"while":  true,
	"until":  true,
}

// definitional keywords mark a line as the possible start of a definition.
var definitional = map[string]bool{
	"class":  true,
	"def":    true,
	"module": true,
}

// expressionKeywords are followed by an operand, so the next token is in
// value position.
var expressionKeywords = map[string]bool{
	"and":    true,
	"elsif":  true,
	"in":     true,
	"not":    true,
	"or":     true,
	"rescue": true,
	"when":   true,
}

// clauseKeywords start a new statement inside a construct.
var clauseKeywords = map[string]bool{
	"else":   true,
	"ensure": true,
	"then":   true,
}

// operatorNames are the method names that can follow def or a symbol colon.
// Longer names come first.
var operatorNames = []string{
	"[]=", "===", "<=>",
	"[]", "==", "=~", "!=", "!~", "<=", ">=", "<<", ">>", "**", "+@", "-@",
	"+", "-", "*", "/", "%", "<", ">", "!", "~", "&", "|", "^", "`",
}

// scanCode scans body from the start, resuming any open literal. It reports
// whether a code token was seen.
func (s *State) scanCode(body string, res *Line) bool {
	sawCode := false
	spaced := true
	n := len(body)

	for i := 0; i < n; {
		if s.inString() {
			i = s.scanString(body, i)
			sawCode = true
			spaced = false
			continue
		}

		c := body[i]
		if isSpace(c) {
			spaced = true
			i++
			continue
		}
		if c == '#' && (s.def != defName || at(body, i+1) != '{') {
			if i+1 < n && body[i+1] == '{' && !s.inInterp() {
				// stray interpolation, as produced by generated code
				i++
				continue
			}
			break
		}
		if c == '\\' {
			if i == n-1 {
				s.continues = true
				sawCode = true
				return sawCode
			}
			i += 2
			continue
		}

		sawCode = true
		spaceBefore := spaced
		spaced = false

		expectParams := s.params == paramsExpect
		if expectParams {
			s.params = paramsNone
		}

		if s.def != defNone {
			if next, ok := s.defHeader(body, i, res); ok {
				i = next
				continue
			}
		}

		switch {
		case isIdentStart(c):
			i = s.word(body, i, res)

		case isDigit(c):
			i = scanNumber(body, i)
			s.value(false)

		case c == '"' || c == '`':
			s.push(frame{kind: frameString, close: c, interp: true})
			i++

		case c == '\'':
			s.push(frame{kind: frameString, close: c})
			i++

		case c == ':':
			i = s.colon(body, i, spaceBefore)

		case c == '@':
			j := i
			for j < n && body[j] == '@' {
				j++
			}
			for j < n && isIdentChar(body[j]) {
				j++
			}
			i = j
			s.value(false)

		case c == '$':
			i = scanGlobal(body, i)
			s.value(false)

		case c == '?':
			if j, ok := s.charLiteral(body, i, spaceBefore); ok {
				i = j
				s.value(false)
			} else {
				i++
				s.op()
			}

		case c == '%':
			if s.valuePosition(spaceBefore, at(body, i+1)) {
				if j, ok := s.percentLiteral(body, i); ok {
					i = j
					continue
				}
			}
			i = scanOperator(body, i)
			s.op()

		case c == '/':
			if s.valuePosition(spaceBefore, at(body, i+1)) {
				s.push(frame{kind: frameString, close: '/', interp: true, regex: true})
				i++
				continue
			}
			i = scanOperator(body, i)
			s.op()

		case c == '<' && at(body, i+1) == '<':
			if s.valuePosition(spaceBefore, at(body, i+2)) {
				if j, ok := s.heredocStart(body, i); ok {
					i = j
					continue
				}
			}
			i = scanOperator(body, i)
			s.op()

		case c == '-' && at(body, i+1) == '>':
			i += 2
			s.op()
			s.lambda = true

		case c == '{':
			i++
			if s.inInterp() {
				s.frames[len(s.frames)-1].braces++
				s.prev = tokStart
				continue
			}
			block := s.prev == tokValue || s.lambda
			s.lambda = false
			s.open(res, block)
			if block {
				s.prev = tokStart
				s.params = paramsExpect
			} else {
				s.op()
			}

		case c == '}':
			i++
			if s.inInterp() {
				top := &s.frames[len(s.frames)-1]
				if top.braces == 0 {
					s.frames = s.frames[:len(s.frames)-1]
					continue
				}
				top.braces--
				s.value(false)
				continue
			}
			s.close(res)
			s.value(false)

		case c == '(' || c == '[':
			i++
			s.open(res, false)
			s.op()

		case c == ')' || c == ']':
			i++
			s.close(res)
			s.value(false)
			if s.def == defParams && s.Depth == s.defDepth {
				s.def = defAfterParams
			}

		case c == ';':
			i++
			s.prev = tokStart
			s.lastIdent = false
			s.loopDo = false

		case c == '.':
			if at(body, i+1) == '.' {
				for i < n && body[i] == '.' {
					i++
				}
				s.op()
				continue
			}
			i++
			s.prev = tokDot
			s.lastIdent = false

		case c == '&' && at(body, i+1) == '.':
			i += 2
			s.prev = tokDot
			s.lastIdent = false

		case c == '|':
			switch {
			case expectParams && at(body, i+1) == '|':
				i += 2
				s.prev = tokStart
			case expectParams:
				i++
				s.params = paramsIn
				s.op()
			case s.params == paramsIn:
				i++
				s.params = paramsNone
				s.prev = tokStart
			default:
				i = scanOperator(body, i)
				s.op()
			}

		default:
			i = scanOperator(body, i)
			s.op()
		}
	}
	return sawCode
}

// word handles an identifier or keyword starting at i.
func (s *State) word(body string, i int, res *Line) int {
	n := len(body)
	j := i + 1
	for j < n && isIdentChar(body[j]) {
		j++
	}
	suffixed := false
	if j < n && (body[j] == '?' || body[j] == '!') && at(body, j+1) != '=' {
		j++
		suffixed = true
	}
	w := body[i:j]

	// hash keys and keyword arguments
	if !suffixed && at(body, j) == ':' && at(body, j+1) != ':' {
		s.op()
		return j + 1
	}
	// method names after a receiver
	if s.prev == tokDot || suffixed {
		s.value(true)
		return j
	}

	switch {
	case w == "do":
		if s.loopDo {
			s.loopDo = false
			s.prev = tokStart
			return j
		}
		s.lambda = false
		s.open(res, true)
		s.prev = tokStart
		s.params = paramsExpect

	case w == "end":
		s.close(res)
		s.value(false)

	case blockOpeners[w]:
		s.open(res, definitional[w])
		switch w {
		case "def":
			s.def = defName
			s.defDepth = s.Depth
			s.op()
		case "begin":
			s.prev = tokStart
			s.lastIdent = false
		case "class":
			// "class <<self" opens a singleton class, not a heredoc
			s.value(false)
		default:
			s.op()
		}

	case w == "for":
		s.open(res, false)
		s.loopDo = true
		s.op()

	case statementOpeners[w]:
		if s.prev == tokStart || s.prev == tokOp {
			s.open(res, false)
			if w == "while" || w == "until" {
				s.loopDo = true
			}
		}
		s.op()

	case clauseKeywords[w]:
		s.prev = tokStart
		s.lastIdent = false

	case expressionKeywords[w]:
		s.op()

	default:
		s.value(true)
	}
	return j
}

// defHeader drives the def header state machine. It reports whether the
// token at i was consumed.
func (s *State) defHeader(body string, i int, res *Line) (int, bool) {
	c := body[i]
	switch s.def {
	case defName:
		j := readDefName(body, i)
		if j == i {
			s.def = defNone
			return i, false
		}
		s.def = defAfterName
		s.value(false)
		return j, true

	case defAfterName:
		if c == '(' {
			s.def = defParams
			return i, false
		}
		if isEndlessAssign(body, i) {
			s.endless(res)
			return i + 1, true
		}
		s.def = defNone

	case defAfterParams:
		if isEndlessAssign(body, i) {
			s.endless(res)
			return i + 1, true
		}
		s.def = defNone
	}
	return i, false
}

// endless cancels the def opener of an expression-bodied definition.
func (s *State) endless(res *Line) {
	s.def = defNone
	s.Depth--
	res.Endless = true
	s.op()
}

func isEndlessAssign(body string, i int) bool {
	if body[i] != '=' {
		return false
	}
	switch at(body, i+1) {
	case '=', '~', '>':
		return false
	}
	return true
}

// readDefName consumes a method name after def: plain, predicate, bang and
// setter names, operator names, singleton receivers (self.foo, Foo.bar,
// Foo::bar) and interpolated names from generated code.
func readDefName(body string, i int) int {
	if j := matchOperator(body, i); j > i {
		return j
	}
	n := len(body)
	j := i
	for j < n {
		if body[j] == '#' && at(body, j+1) == '{' {
			j = skipBraces(body, j+1)
			continue
		}
		if !isIdentChar(body[j]) {
			break
		}
		j++
	}
	if j == i || isDigit(body[i]) {
		return i
	}
	if at(body, j) == '.' {
		if k := readDefName(body, j+1); k > j+1 {
			return k
		}
	}
	if at(body, j) == ':' && at(body, j+1) == ':' {
		if k := readDefName(body, j+2); k > j+2 {
			return k
		}
	}
	switch at(body, j) {
	case '?', '!':
		return j + 1
	case '=':
		switch at(body, j+1) {
		case '=', '~', '>':
			return j
		}
		return j + 1
	}
	return j
}

// colon handles '::', symbols and the ternary/keyword colon.
func (s *State) colon(body string, i int, spaceBefore bool) int {
	n := len(body)
	next := at(body, i+1)
	switch {
	case next == ':':
		s.prev = tokDot
		s.lastIdent = false
		return i + 2
	case next == '"':
		s.push(frame{kind: frameString, close: '"', interp: true})
		return i + 2
	case next == '\'':
		s.push(frame{kind: frameString, close: '\''})
		return i + 2
	case isIdentStart(next) || next == '@' || next == '$':
		j := i + 1
		for j < n && (body[j] == '@' || body[j] == '$') {
			j++
		}
		for j < n && isIdentChar(body[j]) {
			j++
		}
		if j < n && (body[j] == '?' || body[j] == '!' || body[j] == '=') && !isOperatorContinuation(at(body, j+1)) {
			j++
		}
		s.value(false)
		return j
	case s.prev != tokValue || spaceBefore:
		if j := matchOperator(body, i+1); j > i+1 && !isSpace(next) {
			s.value(false)
			return j
		}
	}
	s.op()
	return i + 1
}

func isOperatorContinuation(c byte) bool {
	return c == '=' || c == '~' || c == '>'
}

// charLiteral recognizes ?x character literals in value position.
func (s *State) charLiteral(body string, i int, spaceBefore bool) (int, bool) {
	next := at(body, i+1)
	if next == 0 || isSpace(next) {
		return i, false
	}
	if !s.valuePosition(spaceBefore, next) {
		return i, false
	}
	if next == '\\' {
		return min(i+3, len(body)), true
	}
	j := i + 2
	// multi-byte characters
	for j < len(body) && body[j]&0xC0 == 0x80 {
		j++
	}
	if isIdentChar(next) && j < len(body) && isIdentChar(body[j]) {
		return i, false
	}
	return j, true
}

// percentLiteral opens a %-literal at i. It reports false when the percent
// sign is an operator.
func (s *State) percentLiteral(body string, i int) (int, bool) {
	j := i + 1
	kind := at(body, j)
	if strings.IndexByte("qQwWiIrsx", kind) >= 0 && kind != 0 && isPercentDelimiter(at(body, j+1)) {
		j++
	} else {
		kind = 0
	}
	open := at(body, j)
	if !isPercentDelimiter(open) {
		return i, false
	}
	f := frame{
		kind:   frameString,
		close:  open,
		interp: kind == 0 || strings.IndexByte("QWIrx", kind) >= 0,
		regex:  kind == 'r',
	}
	if closer, ok := pairedDelimiter(open); ok {
		f.open = open
		f.close = closer
	}
	s.push(f)
	return j + 1, true
}

// heredocStart registers a heredoc whose body begins on the next line.
func (s *State) heredocStart(body string, i int) (int, bool) {
	n := len(body)
	j := i + 2
	indent := false
	if c := at(body, j); c == '~' || c == '-' {
		indent = true
		j++
	}
	var term string
	switch q := at(body, j); {
	case q == '\'' || q == '"' || q == '`':
		k := strings.IndexByte(body[j+1:], q)
		if k < 0 {
			return i, false
		}
		term = body[j+1 : j+1+k]
		j += k + 2
	case isIdentStart(q):
		k := j
		for k < n && isIdentChar(body[k]) {
			k++
		}
		term = body[j:k]
		j = k
	default:
		return i, false
	}
	if term == "" {
		return i, false
	}
	s.pending = append(s.pending, heredoc{term: term, indent: indent})
	s.value(false)
	return j, true
}

// scanString consumes the open literal on top of the frame stack until it
// closes, an interpolation opens or the line ends.
func (s *State) scanString(body string, i int) int {
	n := len(body)
	f := &s.frames[len(s.frames)-1]
	for i < n {
		c := body[i]
		switch {
		case c == '\\':
			i += 2
			continue
		case f.interp && c == '#' && at(body, i+1) == '{':
			s.push(frame{kind: frameInterp})
			s.prev = tokStart
			return i + 2
		case f.open != 0 && c == f.open:
			f.nest++
		case c == f.close:
			if f.nest > 0 {
				f.nest--
				break
			}
			regex := f.regex
			s.frames = s.frames[:len(s.frames)-1]
			i++
			if regex {
				for i < n && isLetter(body[i]) {
					i++
				}
			}
			s.value(false)
			return i
		}
		i++
	}
	return n
}

// valuePosition reports whether the next token starts an operand. After an
// identifier, a spaced literal start not followed by a space is taken as a
// command argument: "puts %w[a]", "split /,/".
func (s *State) valuePosition(spaceBefore bool, next byte) bool {
	switch s.prev {
	case tokStart, tokOp:
		return true
	case tokDot:
		return false
	}
	return s.lastIdent && spaceBefore && next != 0 && !isSpace(next) && next != '='
}

func (s *State) open(res *Line, definitional bool) {
	s.Depth++
	if definitional {
		res.Openers++
	}
}

func (s *State) close(res *Line) {
	s.Depth--
	if s.Depth < res.MinDepth {
		res.MinDepth = s.Depth
	}
}

func (s *State) push(f frame) {
	s.frames = append(s.frames, f)
}

func (s *State) op() {
	s.prev = tokOp
	s.lastIdent = false
}

func (s *State) value(ident bool) {
	s.prev = tokValue
	s.lastIdent = ident
}

func matchOperator(body string, i int) int {
	for _, op := range operatorNames {
		if strings.HasPrefix(body[i:], op) {
			return i + len(op)
		}
	}
	return i
}

func scanOperator(body string, i int) int {
	j := i + 1
	for j < len(body) && j-i < 3 && strings.IndexByte("=<>&|*+-!~^", body[j]) >= 0 {
		if body[j] == '-' && at(body, j+1) == '>' {
			break
		}
		j++
	}
	return j
}

func scanNumber(body string, i int) int {
	j := i + 1
	for j < len(body) {
		c := body[j]
		if isIdentChar(c) || (c == '.' && isDigit(at(body, j+1))) {
			j++
			continue
		}
		break
	}
	return j
}

func scanGlobal(body string, i int) int {
	n := len(body)
	j := i + 1
	switch {
	case j >= n:
		return j
	case isIdentStart(body[j]):
		for j < n && isIdentChar(body[j]) {
			j++
		}
		return j
	case body[j] == '-':
		return min(j+2, n)
	default:
		return j + 1
	}
}

func skipBraces(body string, i int) int {
	depth := 0
	for j := i; j < len(body); j++ {
		switch body[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j + 1
			}
		}
	}
	return len(body)
}

func pairedDelimiter(c byte) (byte, bool) {
	switch c {
	case '(':
		return ')', true
	case '[':
		return ']', true
	case '{':
		return '}', true
	case '<':
		return '>', true
	}
	return 0, false
}

func isPercentDelimiter(c byte) bool {
	return c != 0 && !isIdentChar(c) && !isSpace(c) && c != '='
}

func at(body string, i int) byte {
	if i < 0 || i >= len(body) {
		return 0
	}
	return body[i]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentStart(c byte) bool {
	return isLetter(c) || c == '_' || c >= 0x80
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
