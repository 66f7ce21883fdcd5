package value_test

import (
	"testing"

	"luagen/internal/diagnostics"
	"luagen/internal/opcode"
	"luagen/internal/value"
)

func TestMatchTypesPromotesIntegerToReal(t *testing.T) {
	l, r, err := value.MatchTypes(value.IntValue(2), value.RealValue(1.5))
	if err != nil {
		t.Fatalf("MatchTypes: %v", err)
	}
	if l.Kind != value.Real || l.Real != 2.0 {
		t.Fatalf("left promoted to %v, want Real(2.0)", l)
	}
	if r.Kind != value.Real {
		t.Fatalf("right kind = %v, want Real", r.Kind)
	}
}

func TestMatchTypesRejectsIncompatibleKinds(t *testing.T) {
	_, _, err := value.MatchTypes(value.IntValue(1), value.StringValue("x"))
	d, ok := diagnostics.As(err)
	if !ok || d.Code != diagnostics.TypeMismatch {
		t.Fatalf("err = %v, want a TypeMismatch diagnostic", err)
	}
}

func TestBinaryOpArithmetic(t *testing.T) {
	cases := []struct {
		op   opcode.BinaryOp
		l, r value.Value
		want value.Value
	}{
		{opcode.Plus, value.IntValue(2), value.IntValue(3), value.IntValue(5)},
		{opcode.Minus, value.IntValue(5), value.IntValue(3), value.IntValue(2)},
		{opcode.Times, value.RealValue(2.5), value.RealValue(2), value.RealValue(5)},
		{opcode.Modulo, value.IntValue(7), value.IntValue(3), value.IntValue(1)},
		{opcode.Concat, value.StringValue("a"), value.StringValue("b"), value.StringValue("ab")},
		{opcode.Plus, value.StringValue("a"), value.StringValue("b"), value.StringValue("ab")},
	}
	for _, c := range cases {
		got, err := value.BinaryOp(c.op, c.l, c.r)
		if err != nil {
			t.Fatalf("BinaryOp(%s, %v, %v): %v", c.op, c.l, c.r, err)
		}
		if got.Kind != c.want.Kind || got.Bool != c.want.Bool || got.Int != c.want.Int ||
			got.Real != c.want.Real || got.Str != c.want.Str {
			t.Fatalf("BinaryOp(%s, %v, %v) = %v, want %v", c.op, c.l, c.r, got, c.want)
		}
	}
}

func TestBinaryOpRejectsUnapplicable(t *testing.T) {
	_, err := value.BinaryOp(opcode.Or, value.BoolValue(true), value.BoolValue(false))
	d, ok := diagnostics.As(err)
	if !ok || d.Code != diagnostics.OperationNotApplicable {
		t.Fatalf("err = %v, want OperationNotApplicable (or/and are recognised but inert)", err)
	}
}

func TestUnaryOpNegateAndNot(t *testing.T) {
	got, err := value.UnaryOp(opcode.Negate, value.IntValue(5))
	if err != nil || got.Int != -5 {
		t.Fatalf("Negate(5) = %v, %v", got, err)
	}
	got, err = value.UnaryOp(opcode.Not, value.BoolValue(false))
	if err != nil || !got.Bool {
		t.Fatalf("Not(false) = %v, %v", got, err)
	}
}

func TestUnaryOpLengthAlwaysRejected(t *testing.T) {
	_, err := value.UnaryOp(opcode.Length, value.StringValue("abc"))
	d, ok := diagnostics.As(err)
	if !ok || d.Code != diagnostics.OperationNotApplicable {
		t.Fatalf("Length err = %v, want OperationNotApplicable", err)
	}
}

func TestIntegerDivideByZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic from Integer division by zero")
		}
	}()
	value.BinaryOp(opcode.Divide, value.IntValue(1), value.IntValue(0))
}
