// Package ierrors provides structured, position-aware compiler errors
// with source-line-and-caret formatting, shared by the lexer, parser,
// and code generator.
package ierrors

import (
	"fmt"
	"strings"
)

// Kind tags a CompilerError with its place in the error taxonomy. Every
// kind is fatal to the compilation; none are recovered locally.
type Kind int

const (
	LexError Kind = iota
	ParseError
	TypeMismatch
	UnknownName
	InvalidOperation
	Redefinition
)

var kindNames = map[Kind]string{
	LexError:         "LexError",
	ParseError:       "ParseError",
	TypeMismatch:     "TypeMismatch",
	UnknownName:      "UnknownName",
	InvalidOperation: "InvalidOperation",
	Redefinition:     "Redefinition",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UnknownErrorKind"
}

// Position identifies a location in the source file.
type Position struct {
	Line   int
	Column int
}

// CompilerError represents a single fatal compilation error together
// with the source context needed to report it usefully.
type CompilerError struct {
	Kind    Kind
	Pos     Position
	Message string

	// Source and File are attached by the driver once the originating
	// file is known; the lexer/parser/codegen themselves only know the
	// position and message.
	Source string
	File   string
}

// New creates a CompilerError without source/file context attached.
func New(kind Kind, pos Position, message string) *CompilerError {
	return &CompilerError{Kind: kind, Pos: pos, Message: message}
}

// WithSource returns a copy of e with Source and File populated, for
// formatting once the driver has the full file in hand.
func (e *CompilerError) WithSource(source, file string) *CompilerError {
	cp := *e
	cp.Source = source
	cp.File = file
	return &cp
}

func (e *CompilerError) Error() string {
	return e.Format(false)
}

// Format renders the error with a file:line:column header, the
// offending source line, and a caret pointing at the column. If color
// is true, ANSI codes highlight the caret and message.
func (e *CompilerError) Format(color bool) string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(fmt.Sprintf("%s error in %s:%d:%d\n", e.Kind, e.File, e.Pos.Line, e.Pos.Column))
	} else {
		sb.WriteString(fmt.Sprintf("%s at line %d:%d\n", e.Kind, e.Pos.Line, e.Pos.Column))
	}

	if line := e.sourceLine(e.Pos.Line); line != "" {
		gutter := fmt.Sprintf("%4d | ", e.Pos.Line)
		sb.WriteString(gutter)
		sb.WriteString(line)
		sb.WriteString("\n")

		sb.WriteString(strings.Repeat(" ", len(gutter)+e.Pos.Column-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}

	return sb.String()
}

func (e *CompilerError) sourceLine(lineNum int) string {
	if e.Source == "" {
		return ""
	}
	lines := strings.Split(e.Source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// FormatErrors formats a batch of errors, one after another, with a
// count header when there is more than one.
func FormatErrors(errs []*CompilerError, color bool) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return errs[0].Format(color)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("compilation failed with %d error(s):\n\n", len(errs)))
	for i, e := range errs {
		sb.WriteString(fmt.Sprintf("[error %d of %d]\n", i+1, len(errs)))
		sb.WriteString(e.Format(color))
		if i < len(errs)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

// AttachSource returns a copy of each error with Source/File populated.
func AttachSource(errs []*CompilerError, source, file string) []*CompilerError {
	out := make([]*CompilerError, len(errs))
	for i, e := range errs {
		out[i] = e.WithSource(source, file)
	}
	return out
}
