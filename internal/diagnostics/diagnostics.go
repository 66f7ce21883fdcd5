// Package diagnostics implements the fail-fast error taxonomy of
// spec.md §7. It deliberately knows nothing about internal/value's
// types — errors carry operand kinds as their already-rendered string
// form — so that internal/value (whose single shared coercion routine is
// the taxonomy's main source) can depend on this package without a cycle.
package diagnostics

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code is one of the seven error kinds spec.md §7 enumerates.
type Code string

const (
	TypeMismatch          Code = "TypeMismatch"
	OperationNotApplicable Code = "OperationNotApplicable"
	NotAnLValue            Code = "NotAnLValue"
	NotCallable            Code = "NotCallable"
	InvalidTableKey        Code = "InvalidTableKey"
	UnresolvedName         Code = "UnresolvedName"
	InternalInvariant      Code = "InternalInvariant"
)

// Error is the typed error this core raises. Its Error() string is the
// "single line describing the failing operation and the involved kinds"
// spec §7 requires on the user-visible failure path.
type Error struct {
	Code    Code
	Op      string   // the operator/opcode name involved, e.g. "+", "TABLE_ACCESS"
	Kinds   []string // operand kinds involved, already rendered
	Message string   // extra context, optional
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: operation %q not valid for", e.Code, e.Op)
	for i, k := range e.Kinds {
		if i > 0 {
			msg += ","
		}
		msg += " " + k
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// New builds an Error wrapped with github.com/pkg/errors so that %+v on
// the value returned up through the opcode dispatch loop carries a stack
// trace from the failing runcall back to main, per SPEC_FULL's ambient
// error-handling section.
func New(code Code, op string, kinds []string, message string) error {
	return errors.WithStack(&Error{Code: code, Op: op, Kinds: kinds, Message: message})
}

// As unwraps err looking for an *Error, mirroring the standard errors.As
// contract, for callers (the CLI's abort path) that want the structured
// Code rather than just a formatted string.
func As(err error) (*Error, bool) {
	type causer interface{ Cause() error }
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e, true
		}
		c, ok := err.(causer)
		if !ok {
			return nil, false
		}
		err = c.Cause()
	}
	return nil, false
}
