// Package runtime is the second of the two Emitter implementations
// internal/lower drives (see internal/lower's package doc): unlike
// internal/jitgen, which only builds an LLVM module, Runtime executes
// each runcall as it arrives, collapsing "emit" and "run" into one pass.
// That collapse is valid because nothing in this core's opcode set
// suspends or reorders across calls (spec §5: "no opcode suspends, no
// opcode blocks") — the sequence the lowering pass drives an Emitter
// through is, by construction, also a valid execution order.
//
// This stands in for the real ABI's split between "emitted __main
// function" and "runtime callee": here, calling Runcall for SCOPE_PUSH
// *is* scope-pushing, not a symbolic record of a future scope-push.
package runtime

import (
	"fmt"

	"luagen/internal/diagnostics"
	"luagen/internal/lower"
	"luagen/internal/opcode"
	"luagen/internal/value"
)

// Runtime holds the two stacks spec §4.8/§6 describe: the scope stack
// and the data stack runcall arguments flow through.
type Runtime struct {
	Scopes *value.Stack
	data   []lower.Arg
}

// New returns a Runtime with builtins pre-bound in a root scope beneath
// the chunk's own (spec §4.5: only builtins are callable, and they are
// resolved the same way any other name is — via RESOLVE_NAME walking the
// scope stack).
func New(builtins map[string]value.NativeFunc) *Runtime {
	rt := &Runtime{Scopes: value.NewStack()}
	rt.Scopes.Push()
	for name, fn := range builtins {
		rt.Scopes.Innermost().SetOrInsert(name, value.FunctionValue(fn))
	}
	return rt
}

func (rt *Runtime) pop() lower.Arg {
	n := len(rt.data)
	a := rt.data[n-1]
	rt.data = rt.data[:n-1]
	return a
}

// materialize reads the live value an Arg's RValue stands for (a Slot
// read for LValue, the embedded Value otherwise). Arg.RVal is nil only
// for a result-slot placeholder, which callers must not materialize.
func materialize(a lower.Arg) value.Value {
	return a.RVal.Get()
}

// Runcall implements lower.Emitter. It never panics outward: a Go panic
// raised while executing an opcode (integer divide/modulo by zero,
// scope-stack underflow) is recovered and reported as an
// InternalInvariant diagnostic, per SPEC_FULL's divide-by-zero decision
// and spec §7's "fail fast, never continue past a detected violation."
func (rt *Runtime) Runcall(op opcode.Runcall, arg lower.Arg) (result lower.RValue, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				if _, isDiag := diagnostics.As(e); isDiag {
					err = e
					return
				}
			}
			err = diagnostics.New(diagnostics.InternalInvariant, op.String(), nil, fmt.Sprint(r))
		}
	}()

	switch op {
	case opcode.ScopePush:
		rt.Scopes.Push()
		return lower.RValue{}, nil

	case opcode.ScopePop:
		rt.Scopes.Pop()
		return lower.RValue{}, nil

	case opcode.Push:
		rt.data = append(rt.data, arg)
		return lower.RValue{}, nil

	case opcode.InitVariable:
		// Reserved for an explicit local-declaration statement form this
		// grammar subset doesn't have; included for ABI completeness.
		// Pop order mirrors ASSIGN's target-then-source: name, then value.
		nameArg := rt.pop()
		valArg := rt.pop()
		val := materialize(valArg)
		v := rt.Scopes.Innermost().SetOrInsert(nameArg.Str, val)
		return lower.LValueRValue(&v.Value), nil

	case opcode.ResolveName:
		nameArg := rt.pop()
		rt.pop() // result slot, discarded
		v := rt.Scopes.ResolveOrCreate(nameArg.Str)
		return lower.LValueRValue(&v.Value), nil

	case opcode.Assign:
		destArg := rt.pop()
		srcArg := rt.pop()
		if destArg.RVal == nil || destArg.RVal.Kind != lower.LValue {
			return lower.RValue{}, diagnostics.New(diagnostics.NotAnLValue, "ASSIGN", nil, "")
		}
		val := materialize(srcArg)
		if destArg.RVal.Table != nil {
			// Table.Set deletes the entry on a Nil value (spec §3/§8
			// invariant 6); a bare *Slot write would leave a Nil-valued
			// entry in the map instead of removing it.
			destArg.RVal.Table.Set(destArg.RVal.Key, val)
		} else {
			*destArg.RVal.Slot = val
		}
		return lower.RValue{}, nil

	case opcode.TableAccess:
		tableArg := rt.pop()
		keyArg := rt.pop()
		rt.pop() // result slot, discarded

		tableVal := materialize(tableArg)
		if tableVal.Kind != value.Table {
			return lower.RValue{}, diagnostics.New(diagnostics.TypeMismatch, "TABLE_ACCESS",
				[]string{tableVal.Kind.String()}, "expected table")
		}
		keyVal := materialize(keyArg)
		if keyVal.IsNil() {
			return lower.RValue{}, diagnostics.New(diagnostics.InvalidTableKey, "TABLE_ACCESS", nil, "")
		}
		return lower.TableEntryRValue(tableVal.Tbl, keyVal), nil

	case opcode.BinOp:
		rt.pop() // result slot, discarded
		leftArg := rt.pop()
		rightArg := rt.pop()
		left, right, err := value.MatchTypes(materialize(leftArg), materialize(rightArg))
		if err != nil {
			return lower.RValue{}, err
		}
		result, err := value.BinaryOp(opcode.BinaryOp(arg.Int), left, right)
		if err != nil {
			return lower.RValue{}, err
		}
		return lower.RValue{Kind: lower.Temporary, Value: result}, nil

	case opcode.UnOp:
		rt.pop() // result slot, discarded
		operandArg := rt.pop()
		result, err := value.UnaryOp(opcode.UnaryOp(arg.Int), materialize(operandArg))
		if err != nil {
			return lower.RValue{}, err
		}
		return lower.RValue{Kind: lower.Temporary, Value: result}, nil

	case opcode.FunctionCall:
		calleeArg := rt.pop()
		nArg := rt.pop()
		n := int(nArg.Int)
		args := make([]value.Value, n)
		for i := 0; i < n; i++ {
			args[i] = materialize(rt.pop())
		}
		rt.pop() // result slot, discarded

		callee := materialize(calleeArg)
		if callee.Kind != value.Function {
			return lower.RValue{}, diagnostics.New(diagnostics.NotCallable, "FUNCTION_CALL",
				[]string{callee.Kind.String()}, "")
		}
		result := callee.Fn(args)
		return lower.RValue{Kind: lower.Temporary, Value: result}, nil

	case opcode.TableCtor:
		countArg := rt.pop()
		k := int(countArg.Int)
		type pair struct{ key, val value.Value }
		pairs := make([]pair, 0, k)
		for i := 0; i < k; i++ {
			keyArg := rt.pop()
			valArg := rt.pop()
			keyVal := materialize(keyArg)
			if keyVal.IsNil() {
				return lower.RValue{}, diagnostics.New(diagnostics.InvalidTableKey, "TABLE_CTOR", nil, "")
			}
			pairs = append(pairs, pair{key: keyVal, val: materialize(valArg)})
		}
		rt.pop() // result slot, discarded

		// pairs is in reverse emission order (LIFO); walk it backwards so
		// a later-emitted field (e.g. a named field shadowing an earlier
		// positional one) is inserted last and wins, per spec §4.6.
		tbl := value.NewTable()
		for i := len(pairs) - 1; i >= 0; i-- {
			tbl.Set(pairs[i].key, pairs[i].val)
		}
		return lower.RValue{Kind: lower.Temporary, Value: value.TableValue(tbl)}, nil

	default:
		return lower.RValue{}, diagnostics.New(diagnostics.InternalInvariant, op.String(), nil, "unknown runcall")
	}
}
