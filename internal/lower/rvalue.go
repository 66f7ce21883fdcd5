// Package lower implements the lowering pass of spec.md §4: a recursive
// walk of internal/ast that, for each node, either folds to an Immediate
// RValue or emits a runcall sequence and returns an RValue describing
// where the runtime will find the result.
//
// Two Emitter implementations drive the same Generator: internal/jitgen
// (builds the LLVM module spec §6's ABI describes) and internal/runtime
// (executes the runcall sequence directly — see cmd/luagen's notes in
// SPEC_FULL.md on why a real LLVM execution engine is out of scope).
package lower

import (
	"luagen/internal/opcode"
	"luagen/internal/value"
)

// RValueKind is spec §3's RValueKind: Immediate, LValue, or Temporary.
type RValueKind int

const (
	Immediate RValueKind = iota
	LValue
	Temporary
)

func (k RValueKind) String() string {
	switch k {
	case Immediate:
		return "immediate"
	case LValue:
		return "lvalue"
	case Temporary:
		return "temporary"
	default:
		return "?rvalue-kind?"
	}
}

// RValue is the lowering-time object spec §3 describes: a kind tag, the
// embedded Value (known precisely for Immediate, best-effort/Unknown
// otherwise), and — for LValue — the slot it aliases.
//
// Table and Key are set only when the LValue aliases a table entry
// rather than a plain variable. ASSIGN needs to tell the two apart: per
// spec §3/§8 invariant 6, writing Nil to a table entry must remove it
// from the table (Table.Set's job), whereas writing Nil to a variable
// just stores Nil in its slot. A bare *Slot write can't distinguish
// those cases, so ASSIGN routes through Table.Set whenever Table != nil.
type RValue struct {
	Kind  RValueKind
	Value value.Value
	Slot  *value.Value // non-nil iff Kind == LValue
	Table *value.Table // non-nil iff this LValue aliases a table entry
	Key   value.Value  // valid iff Table != nil
}

func ImmediateRValue(v value.Value) RValue {
	return RValue{Kind: Immediate, Value: v}
}

func LValueRValue(slot *value.Value) RValue {
	return RValue{Kind: LValue, Value: *slot, Slot: slot}
}

// TableEntryRValue builds the LValue RValue for a TABLE_ACCESS result:
// it aliases tbl's entry at key (creating a Nil-valued slot if absent,
// same as LValueRValue) but additionally remembers tbl/key so ASSIGN can
// delete the entry on a Nil write instead of leaving a Nil-valued slot
// behind in the table's map.
func TableEntryRValue(tbl *value.Table, key value.Value) RValue {
	slot := tbl.Slot(key)
	return RValue{Kind: LValue, Value: *slot, Slot: slot, Table: tbl, Key: key}
}

func TemporaryRValue() RValue {
	return RValue{Kind: Temporary, Value: value.UnknownValue()}
}

// Get returns the RValue's current value: a live read through Slot for an
// LValue (the aliased variable/table entry may have changed since the
// RValue was produced), or the embedded Value otherwise.
func (rv RValue) Get() value.Value {
	if rv.Kind == LValue && rv.Slot != nil {
		return *rv.Slot
	}
	return rv.Value
}

// Arg is a runcall's single pointer-sized argument. Spec §6 describes it
// as carrying either a small integer (cast through a pointer-sized
// field) or a pool address; Go represents that union directly instead of
// doing unsafe pointer arithmetic, per §9's "wrap pushes and pops in
// typed helpers to keep the discipline auditable." The typed
// constructors below (IntArg/NameArg/RValueArg) and the Emitter
// implementations' matching type switches are that discipline.
type Arg struct {
	hasInt bool
	Int    int32
	Str    string
	RVal   *RValue
}

func IntArg(n int32) Arg      { return Arg{hasInt: true, Int: n} }
func NameArg(s string) Arg    { return Arg{Str: s} }
func RValueArg(rv *RValue) Arg { return Arg{RVal: rv} }
func NoArg() Arg              { return Arg{} }

func (a Arg) IsInt() bool { return a.hasInt }

// Emitter is what the lowering pass calls runcall(op, arg) against. It
// returns the RValue the runcall produced (Temporary/LValue as
// appropriate; the zero RValue for opcodes with no result, e.g.
// SCOPE_PUSH/PUSH) and an error if the runtime backend detects a §7
// failure while executing the call. jitgen's backend, which only builds
// IR and never executes anything, always returns a Temporary/Unknown
// RValue and a nil error — see its doc comment.
type Emitter interface {
	Runcall(op opcode.Runcall, arg Arg) (RValue, error)
}
