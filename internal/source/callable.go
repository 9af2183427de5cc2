package source

import "fmt"

// Location is where reflection reports a callable to be defined. Line is
// 1-based and may point at the opening line or the one after it.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Callable is anything that can be asked for its source: a named method or
// an anonymous proc, block or lambda.
type Callable interface {
	// DisplayName is used in error messages.
	DisplayName() string
	// SourceLocation reports false for native callables.
	SourceLocation() (Location, bool)
}

// Named is a method or unbound method.
type Named struct {
	Name string
	// Loc is nil for callables without Ruby source.
	Loc *Location
}

// NewNamed returns a Named callable defined at file:line.
func NewNamed(name, file string, line int) Named {
	return Named{Name: name, Loc: &Location{File: file, Line: line}}
}

func (n Named) DisplayName() string {
	return n.Name
}

func (n Named) SourceLocation() (Location, bool) {
	if n.Loc == nil {
		return Location{}, false
	}
	return *n.Loc, true
}

// Anonymous is a proc, block or lambda.
type Anonymous struct {
	Loc *Location
}

// NewAnonymous returns an Anonymous callable defined at file:line.
func NewAnonymous(file string, line int) Anonymous {
	return Anonymous{Loc: &Location{File: file, Line: line}}
}

// DisplayName mimics Proc#inspect.
func (a Anonymous) DisplayName() string {
	if a.Loc == nil {
		return "#<Proc:(native)>"
	}
	return fmt.Sprintf("#<Proc:%s:%d>", a.Loc.File, a.Loc.Line)
}

func (a Anonymous) SourceLocation() (Location, bool) {
	if a.Loc == nil {
		return Location{}, false
	}
	return *a.Loc, true
}
