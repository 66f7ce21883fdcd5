package value

import (
	"luagen/internal/diagnostics"
	"luagen/internal/opcode"
)

// MatchTypes implements spec §4.1's "Match": promote Integer against Real
// to Real by numeric widening, failing with TypeMismatch if the kinds
// still disagree afterwards. It mutates neither operand in place (unlike
// the original C++, which mutated its RValue arguments) — Go values are
// copied, so the promoted pair is simply returned, which is the
// idiomatic substitute and sidesteps the aliasing the C++ version relied
// on incidentally.
//
// This is the single routine spec §9's "Constant folding parity" note
// requires: both the lowering pass' constant folder (internal/lower) and
// the runtime's BINOP/UNOP handlers (internal/runtime) call this and
// BinaryOp/UnaryOp below, never a second copy of the logic.
func MatchTypes(left, right Value) (Value, Value, error) {
	if left.Kind == Integer && right.Kind == Real {
		left = RealValue(float64(left.Int))
	} else if left.Kind == Real && right.Kind == Integer {
		right = RealValue(float64(right.Int))
	}
	if left.Kind != right.Kind {
		return left, right, diagnostics.New(diagnostics.TypeMismatch, "matchTypes",
			[]string{left.Kind.String(), right.Kind.String()}, "")
	}
	return left, right, nil
}

// binaryApplicable mirrors original_source/Generator/AST.hpp's
// BinOp::applicableTypes: only these operator/kind pairs are ever
// applicable. Or..GreaterEqual have no entries at all — recognised by
// the parser, never executable here (SPEC_FULL "SUPPLEMENTED FEATURES").
func binaryApplicable(op opcode.BinaryOp, k Kind) bool {
	switch op {
	case opcode.Plus:
		return k == Integer || k == Real || k == String
	case opcode.Minus, opcode.Times, opcode.Divide:
		return k == Integer || k == Real
	case opcode.Modulo:
		return k == Integer
	case opcode.Concat:
		return k == String
	default:
		return false
	}
}

// IsApplicable is spec §4.1's isApplicable(op, kind) total predicate:
// the same check BinaryOp applies first, so a constant fold in the
// lowering pass fails before any runcall is emitted.
func IsApplicable(op opcode.BinaryOp, k Kind) bool {
	return binaryApplicable(op, k)
}

// IsApplicableUnary is UnOp's counterpart: Negate on numbers, Not on
// Boolean, Length never (SPEC_FULL).
func IsApplicableUnary(op opcode.UnaryOp, k Kind) bool {
	switch op {
	case opcode.Negate:
		return k == Integer || k == Real
	case opcode.Not:
		return k == Boolean
	default:
		return false
	}
}

// BinaryOp executes op on two already-MatchTypes'd operands (same Kind).
// Division/modulo by a zero Integer is left to Go's native panic — the
// callers (internal/runtime's dispatch loop and internal/lower's constant
// folder) recover it and report InternalInvariant, per SPEC_FULL's
// divide-by-zero decision.
func BinaryOp(op opcode.BinaryOp, left, right Value) (Value, error) {
	if !binaryApplicable(op, left.Kind) {
		return Value{}, diagnostics.New(diagnostics.OperationNotApplicable, op.String(),
			[]string{left.Kind.String()}, "")
	}

	switch left.Kind {
	case Integer:
		l, r := left.Int, right.Int
		switch op {
		case opcode.Plus:
			return IntValue(l + r), nil
		case opcode.Minus:
			return IntValue(l - r), nil
		case opcode.Times:
			return IntValue(l * r), nil
		case opcode.Divide:
			return IntValue(l / r), nil
		case opcode.Modulo:
			return IntValue(l % r), nil
		}
	case Real:
		l, r := left.Real, right.Real
		switch op {
		case opcode.Plus:
			return RealValue(l + r), nil
		case opcode.Minus:
			return RealValue(l - r), nil
		case opcode.Times:
			return RealValue(l * r), nil
		case opcode.Divide:
			return RealValue(l / r), nil
		}
	case String:
		// Concat and Plus are distinct opcodes that mean the same thing
		// on strings (SPEC_FULL "SUPPLEMENTED FEATURES" / spec §4.1).
		if op == opcode.Concat || op == opcode.Plus {
			return StringValue(left.Str + right.Str), nil
		}
	}

	return Value{}, diagnostics.New(diagnostics.OperationNotApplicable, op.String(),
		[]string{left.Kind.String()}, "")
}

// UnaryOp executes op on a single operand.
func UnaryOp(op opcode.UnaryOp, operand Value) (Value, error) {
	if !IsApplicableUnary(op, operand.Kind) {
		return Value{}, diagnostics.New(diagnostics.OperationNotApplicable, op.String(),
			[]string{operand.Kind.String()}, "")
	}
	switch op {
	case opcode.Negate:
		if operand.Kind == Integer {
			return IntValue(-operand.Int), nil
		}
		return RealValue(-operand.Real), nil
	case opcode.Not:
		return BoolValue(!operand.Bool), nil
	}
	return Value{}, diagnostics.New(diagnostics.OperationNotApplicable, op.String(),
		[]string{operand.Kind.String()}, "")
}
