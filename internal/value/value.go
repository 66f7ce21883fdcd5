package value

import (
	"fmt"
	"strconv"
)

// NativeFunc is the ABI of a builtin: it receives the ordered argument
// vector and returns the call's result value (Nil if it has none). This
// mirrors spec §4.5's "(args, out) -> ()" shape, collapsed to a return
// value since Go functions can return normally instead of writing
// through an out-pointer.
type NativeFunc func(args []Value) Value

// Value is the pair (Kind, payload) of spec.md §3. Exactly one payload
// field is meaningful for a given Kind; the rest are zero. A Go sum type
// (tagged interface) was considered and rejected: it would force a heap
// allocation and an interface dispatch for every Integer/Real/Boolean,
// defeating the "value carries its own kind" contract the spec calls for
// and that a plain tagged struct gives for free.
type Value struct {
	Kind Kind
	Bool bool
	Int  int32
	Real float64
	Str  string
	Tbl  *Table
	Fn   NativeFunc
}

func NilValue() Value                { return Value{Kind: Nil} }
func BoolValue(b bool) Value         { return Value{Kind: Boolean, Bool: b} }
func IntValue(i int32) Value         { return Value{Kind: Integer, Int: i} }
func RealValue(r float64) Value      { return Value{Kind: Real, Real: r} }
func StringValue(s string) Value     { return Value{Kind: String, Str: s} }
func TableValue(t *Table) Value      { return Value{Kind: Table, Tbl: t} }
func FunctionValue(f NativeFunc) Value { return Value{Kind: Function, Fn: f} }

// UnknownValue represents a Temporary RValue whose concrete Value is only
// known once the runtime materialises it.
func UnknownValue() Value { return Value{Kind: Unknown} }

// InvalidValue marks uninitialised lowering state (spec.md §3).
func InvalidValue() Value { return Value{Kind: Invalid} }

func (v Value) IsNil() bool { return v.Kind == Nil }

// Truthy follows the source language's convention that only Nil and the
// boolean false are falsy (used nowhere by this core's operators today —
// see SPEC_FULL's "logical operators are recognised, not executable" —
// but kept as the one place that convention would live if §4.1's open
// question were ever resolved the other way).
func (v Value) Truthy() bool {
	if v.Kind == Nil {
		return false
	}
	if v.Kind == Boolean {
		return v.Bool
	}
	return true
}

// String renders v the way the print() builtin does (internal/builtins).
func (v Value) String() string {
	switch v.Kind {
	case Nil:
		return "nil"
	case Boolean:
		return strconv.FormatBool(v.Bool)
	case Integer:
		return strconv.FormatInt(int64(v.Int), 10)
	case Real:
		return strconv.FormatFloat(v.Real, 'g', -1, 64)
	case String:
		return v.Str
	case Table:
		return fmt.Sprintf("table: %p", v.Tbl)
	case Function:
		return fmt.Sprintf("function: %p", v.Fn)
	default:
		return fmt.Sprintf("<%s>", v.Kind)
	}
}

// tableKey is the comparable projection of Value used to index Table's
// backing map (see table.go). Function values cannot be table keys in
// this core (no equality is defined on NativeFunc, and the spec never
// calls for functions-as-keys), so tableKey has no function slot.
type tableKey struct {
	kind Kind
	num  float64
	str  string
	tbl  *Table
}

// key projects v into its comparable map key. Integer and Real collapse
// to the same numeric key space so that, per spec.md §3, "Integer and
// Real with equal mathematical value compare equal" as table keys.
func (v Value) key() tableKey {
	switch v.Kind {
	case Integer:
		return tableKey{kind: Real, num: float64(v.Int)}
	case Real:
		return tableKey{kind: Real, num: v.Real}
	case Boolean:
		return tableKey{kind: Boolean, num: boolToFloat(v.Bool)}
	case String:
		return tableKey{kind: String, str: v.Str}
	case Table:
		return tableKey{kind: Table, tbl: v.Tbl}
	default:
		return tableKey{kind: v.Kind}
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
