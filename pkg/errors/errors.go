package errors

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// EngineError is the interface implemented by every error the engine hands
// back to its host.
type EngineError interface {
	error
	Pos() Position
	Kind() string // "Syntax", "Runtime", "Assertion"
	// Message returns the specific error message without position info.
	Message() string
	Unwrap() error
}

// SyntaxError represents an early error reported by the parser.
type SyntaxError struct {
	Position
	Msg   string
	Cause error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("Syntax Error at %d:%d: %s", e.Line, e.Column, e.Msg)
}
func (e *SyntaxError) Pos() Position   { return e.Position }
func (e *SyntaxError) Kind() string    { return "Syntax" }
func (e *SyntaxError) Message() string { return e.Msg }
func (e *SyntaxError) Unwrap() error   { return e.Cause }
func (e *SyntaxError) CausedBy(cause error) *SyntaxError {
	e.Cause = cause
	return e
}

// RuntimeError is an uncaught ECMAScript exception that reached the top of a
// script or a job. Thrown holds the thrown value rendered for display, Name is
// the error constructor name when the thrown value was an Error instance.
type RuntimeError struct {
	Position
	Name   string
	Msg    string
	Thrown any // the engine value, opaque to this package
	Cause  error
	// Unhandled marks a promise rejection nobody handled.
	Unhandled bool
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("Runtime Error at %d:%d: %s", e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("Runtime Error: %s", e.Msg)
}
func (e *RuntimeError) Pos() Position   { return e.Position }
func (e *RuntimeError) Kind() string    { return "Runtime" }
func (e *RuntimeError) Message() string { return e.Msg }
func (e *RuntimeError) Unwrap() error   { return e.Cause }
func (e *RuntimeError) CausedBy(cause error) *RuntimeError {
	e.Cause = cause
	return e
}

// AssertionError signals a broken engine invariant. It is raised with panic
// and never observed by script code; hosts recover it at their outermost
// boundary.
type AssertionError struct {
	Msg   string
	Cause error
}

func (e *AssertionError) Error() string   { return "Assertion failed: " + e.Msg }
func (e *AssertionError) Pos() Position   { return Position{} }
func (e *AssertionError) Kind() string    { return "Assertion" }
func (e *AssertionError) Message() string { return e.Msg }
func (e *AssertionError) Unwrap() error   { return e.Cause }

// Assertf builds an AssertionError with a formatted message.
func Assertf(format string, args ...any) *AssertionError {
	return &AssertionError{Msg: fmt.Sprintf(format, args...)}
}

// --- Error Reporting ---

const (
	colorRed   = "\x1b[31m"
	colorBold  = "\x1b[1m"
	colorReset = "\x1b[0m"
)

// DisplayErrors prints errors to stderr, including the source line and a
// position marker. Output is colored when stderr is a terminal.
func DisplayErrors(source string, errs []EngineError) {
	color := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	WriteErrors(os.Stderr, source, errs, color)
}

// WriteErrors is DisplayErrors with an explicit destination.
func WriteErrors(w io.Writer, source string, errs []EngineError, color bool) {
	if len(errs) == 0 {
		return
	}

	lines := strings.Split(source, "\n")
	paint := func(code, s string) string {
		if !color {
			return s
		}
		return code + s + colorReset
	}

	for _, err := range errs {
		pos := err.Pos()
		kind := err.Kind()
		msg := err.Message()

		lineIdx := pos.Line - 1
		if lineIdx < 0 || lineIdx >= len(lines) {
			fmt.Fprintf(w, "%s %s\n", paint(colorBold+colorRed, kind+" Error:"), msg)
			continue
		}

		sourceLine := strings.TrimRight(lines[lineIdx], "\r\n\t ")

		fmt.Fprintf(w, "%s %s\n", paint(colorBold+colorRed, fmt.Sprintf("%s Error at %d:%d:", kind, pos.Line, pos.Column)), msg)
		fmt.Fprintf(w, "  %s\n", sourceLine)
		marker := strings.Repeat(" ", max(pos.Column-1, 0)) + "^"
		fmt.Fprintf(w, "  %s\n", paint(colorRed, marker))
		fmt.Fprintln(w)
	}
}
