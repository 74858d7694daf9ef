package cc

import "fmt"

// Error is a fatal compile error annotated with the source position recorded
// by the scanner. The compiler never recovers from an Error: the first one
// raised aborts the compilation and is returned from Compile.
type Error struct {
	File string // input path; empty when compiling an anonymous stream
	Line int    // 1-based source line, 0 for internal errors
	Msg  string
}

func (e *Error) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	default:
		return e.Msg
	}
}

// Is reports position-independent equivalence so tests can match with
// errors.Is against a prototype error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" || t.Msg == e.Msg
}

// fatalf aborts the compilation with a positioned error. The panic is caught
// at the top of Compile and converted into the returned error; it never
// escapes the package.
func (c *Compiler) fatalf(format string, args ...any) {
	panic(&Error{File: c.cfg.Filename, Line: c.line, Msg: fmt.Sprintf(format, args...)})
}

// internalf raises an internal compiler error that is not tied to a source
// position, such as a corrupt register pool or an unknown primitive type.
func internalf(format string, args ...any) {
	panic(&Error{Msg: "internal: " + fmt.Sprintf(format, args...)})
}
