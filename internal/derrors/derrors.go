// Package derrors implements the error taxonomy of spec §7: every
// diagnostic produced anywhere in the pipeline carries a Kind, a source
// Position (or a pair, for type conflicts), and a human-readable message.
package derrors

import (
	"fmt"
	"strings"

	"github.com/solaeus/dust/internal/token"
)

// Kind is the coarse category of a diagnostic, matching spec §7's taxonomy.
type Kind string

const (
	LexError     Kind = "LexError"
	ParseError   Kind = "ParseError"
	ResolveError Kind = "ResolveError"
	CompileError Kind = "CompileError"
	RuntimeError Kind = "RuntimeError"
)

// Error is one diagnostic. ExpectedAt is populated only for type-mismatch
// style errors that need a second, "expected-site" position.
type Error struct {
	Kind       Kind
	Message    string
	At         token.Position
	ExpectedAt *token.Position
	Snippet    string
}

func New(kind Kind, at token.Position, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), At: at}
}

func (e *Error) WithExpectedAt(pos token.Position) *Error {
	e.ExpectedAt = &pos
	return e
}

func (e *Error) WithSnippet(line string) *Error {
	e.Snippet = line
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s at %s", e.Kind, e.Message, e.At)
	if e.ExpectedAt != nil {
		fmt.Fprintf(&b, " (expected at %s)", *e.ExpectedAt)
	}
	if e.Snippet != "" {
		fmt.Fprintf(&b, "\n  %d | %s", e.At.Line, e.Snippet)
		if e.At.Column > 0 {
			fmt.Fprintf(&b, "\n  %s^", strings.Repeat(" ", e.At.Column-1+len(fmt.Sprintf("%d | ", e.At.Line))))
		}
	}
	return b.String()
}

// List accumulates diagnostics across a pass so that lex/parse/resolve can
// report more than one error in a single run, per spec §7.
type List struct {
	Errors []*Error
}

func (l *List) Add(err *Error) {
	l.Errors = append(l.Errors, err)
}

func (l *List) HasErrors() bool {
	return len(l.Errors) > 0
}

func (l *List) Error() string {
	parts := make([]string, len(l.Errors))
	for i, e := range l.Errors {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "\n")
}

// AsError returns nil if the list is empty, or the list itself as an error
// otherwise — the usual "maybe nil error" convention.
func (l *List) AsError() error {
	if l == nil || !l.HasErrors() {
		return nil
	}
	return l
}
