package lower_test

import (
	"strings"
	"testing"

	"luagen/internal/ast"
	"luagen/internal/builtins"
	"luagen/internal/diagnostics"
	"luagen/internal/lower"
	"luagen/internal/opcode"
	"luagen/internal/runtime"
	"luagen/internal/value"
)

// countingEmitter wraps a *runtime.Runtime and counts how many times
// each opcode was actually emitted, so tests can assert that constant
// folding suppressed a runcall rather than just checking the end value.
type countingEmitter struct {
	rt     *runtime.Runtime
	counts map[opcode.Runcall]int
}

func newCountingEmitter(builtinFns map[string]value.NativeFunc) *countingEmitter {
	return &countingEmitter{rt: runtime.New(builtinFns), counts: map[opcode.Runcall]int{}}
}

func (c *countingEmitter) Runcall(op opcode.Runcall, arg lower.Arg) (lower.RValue, error) {
	c.counts[op]++
	return c.rt.Runcall(op, arg)
}

func name(n string) *ast.LValue { return &ast.LValue{Form: ast.LValueName, Name: n} }

func assign(target *ast.LValue, expr ast.Node) *ast.Assignment {
	return &ast.Assignment{
		Vars:  &ast.VarList{Vars: []*ast.LValue{target}},
		Exprs: &ast.ExprList{Exprs: []ast.Node{expr}},
	}
}

func TestConstantBinOpFoldsWithoutEmittingBinop(t *testing.T) {
	ce := newCountingEmitter(nil)
	chunk := &ast.Chunk{Children: []ast.Node{
		assign(name("x"), &ast.BinOp{
			Op:    opcode.Plus,
			Left:  &ast.IntLit{Value: 2},
			Right: &ast.IntLit{Value: 3},
		}),
	}}

	if err := lower.New(ce).Lower(chunk); err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if ce.counts[opcode.BinOp] != 0 {
		t.Fatalf("BINOP emitted %d times, want 0 for two Immediate operands", ce.counts[opcode.BinOp])
	}
	x := ce.rt.Scopes.Resolve("x")
	if x == nil || x.Value.Int != 5 {
		t.Fatalf("x = %v, want Integer(5)", x)
	}
}

func TestNonImmediateBinOpEmitsBinop(t *testing.T) {
	ce := newCountingEmitter(nil)
	chunk := &ast.Chunk{Children: []ast.Node{
		assign(name("x"), &ast.IntLit{Value: 10}),
		assign(name("y"), &ast.BinOp{
			Op:    opcode.Plus,
			Left:  name("x"),
			Right: &ast.IntLit{Value: 1},
		}),
	}}

	if err := lower.New(ce).Lower(chunk); err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if ce.counts[opcode.BinOp] != 1 {
		t.Fatalf("BINOP emitted %d times, want 1 when an operand resolves at runtime", ce.counts[opcode.BinOp])
	}
	y := ce.rt.Scopes.Resolve("y")
	if y == nil || y.Value.Int != 11 {
		t.Fatalf("y = %v, want Integer(11)", y)
	}
}

func TestTableCtorLaterEmissionWins(t *testing.T) {
	ce := newCountingEmitter(nil)
	// { [1] = 99, 10 } — the indexed field collides with the positional
	// field's implicit key 1; positional is always emitted first, so the
	// indexed field (emitted second) must win regardless of source order.
	chunk := &ast.Chunk{Children: []ast.Node{
		assign(name("t"), &ast.TableCtor{Fields: []*ast.Field{
			{Form: ast.FieldIndexed, Key: &ast.IntLit{Value: 1}, Value: &ast.IntLit{Value: 99}},
			{Form: ast.FieldPositional, Value: &ast.IntLit{Value: 10}},
		}}),
	}}

	if err := lower.New(ce).Lower(chunk); err != nil {
		t.Fatalf("Lower: %v", err)
	}
	tv := ce.rt.Scopes.Resolve("t")
	if tv == nil || tv.Value.Kind != value.Table {
		t.Fatalf("t = %v, want a Table", tv)
	}
	if got := tv.Value.Tbl.Get(value.IntValue(1)); got.Int != 99 {
		t.Fatalf("t[1] = %v, want Integer(99) (the later-emitted indexed field)", got)
	}
}

func TestAssignmentPadsExcessVarsWithNil(t *testing.T) {
	ce := newCountingEmitter(nil)
	chunk := &ast.Chunk{Children: []ast.Node{
		&ast.Assignment{
			Vars:  &ast.VarList{Vars: []*ast.LValue{name("a"), name("b")}},
			Exprs: &ast.ExprList{Exprs: []ast.Node{&ast.IntLit{Value: 1}}},
		},
	}}
	if err := lower.New(ce).Lower(chunk); err != nil {
		t.Fatalf("Lower: %v", err)
	}
	a := ce.rt.Scopes.Resolve("a")
	b := ce.rt.Scopes.Resolve("b")
	if a == nil || a.Value.Int != 1 {
		t.Fatalf("a = %v, want Integer(1)", a)
	}
	if b == nil || !b.Value.IsNil() {
		t.Fatalf("b = %v, want Nil (no matching expression)", b)
	}
}

func TestMultipleAssignmentSwapIsSimultaneous(t *testing.T) {
	ce := newCountingEmitter(nil)
	chunk := &ast.Chunk{Children: []ast.Node{
		assign(name("x"), &ast.IntLit{Value: 1}),
		assign(name("y"), &ast.IntLit{Value: 2}),
		&ast.Assignment{
			Vars:  &ast.VarList{Vars: []*ast.LValue{name("x"), name("y")}},
			Exprs: &ast.ExprList{Exprs: []ast.Node{name("y"), name("x")}},
		},
	}}
	if err := lower.New(ce).Lower(chunk); err != nil {
		t.Fatalf("Lower: %v", err)
	}
	x := ce.rt.Scopes.Resolve("x")
	y := ce.rt.Scopes.Resolve("y")
	if x == nil || x.Value.Int != 2 {
		t.Fatalf("x = %v, want 2 (swapped from y)", x)
	}
	if y == nil || y.Value.Int != 1 {
		t.Fatalf("y = %v, want 1 (swapped from x), not the freshly-assigned x", y)
	}
}

func TestFunctionCallInvokesBuiltin(t *testing.T) {
	var out strings.Builder
	ce := newCountingEmitter(builtins.Registry(&out))
	chunk := &ast.Chunk{Children: []ast.Node{
		&ast.FunctionCall{
			Callee: name("print"),
			Args:   &ast.ExprList{Exprs: []ast.Node{&ast.StringLit{Value: "hi"}}},
		},
	}}
	if err := lower.New(ce).Lower(chunk); err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if out.String() != "hi\n" {
		t.Fatalf("print output = %q, want %q", out.String(), "hi\n")
	}
}

func TestCallingNonFunctionIsNotCallable(t *testing.T) {
	ce := newCountingEmitter(nil)
	chunk := &ast.Chunk{Children: []ast.Node{
		assign(name("n"), &ast.IntLit{Value: 1}),
		&ast.FunctionCall{Callee: name("n")},
	}}
	err := lower.New(ce).Lower(chunk)
	d, ok := diagnostics.As(err)
	if !ok || d.Code != diagnostics.NotCallable {
		t.Fatalf("err = %v, want a NotCallable diagnostic", err)
	}
}

func TestTableAccessOnNonTableIsTypeMismatch(t *testing.T) {
	ce := newCountingEmitter(nil)
	chunk := &ast.Chunk{Children: []ast.Node{
		assign(name("n"), &ast.IntLit{Value: 1}),
		assign(&ast.LValue{Form: ast.LValueBracket, TableExpr: name("n"), KeyExpr: &ast.IntLit{Value: 1}},
			&ast.IntLit{Value: 2}),
	}}
	err := lower.New(ce).Lower(chunk)
	d, ok := diagnostics.As(err)
	if !ok || d.Code != diagnostics.TypeMismatch {
		t.Fatalf("err = %v, want a TypeMismatch diagnostic", err)
	}
}
