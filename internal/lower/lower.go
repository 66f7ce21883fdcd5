package lower

import (
	"fmt"

	"luagen/internal/ast"
	"luagen/internal/diagnostics"
	"luagen/internal/opcode"
	"luagen/internal/pool"
	"luagen/internal/value"
)

// Generator is the lowering pass (spec §4): a recursive walk of the AST
// that folds what it can and, for everything else, drives an Emitter
// through the exact runcall sequences spec §4.3-§4.7 specify.
//
// Note on result slots: the true ABI (§6) has the runtime write a
// produced RValue into a pointer the lowering pass pushed beforehand
// ("pops ... pops result"). This Generator still pushes that slot
// argument — for the correct data-stack depth (§8 invariant 1) — but
// takes the produced RValue as Emitter.Runcall's return value rather
// than reading it back out of the slot. Both conventions carry the same
// information; returning it directly avoids a second, purely
// bookkeeping round trip through the pool for a Go implementation where
// (unlike C) a function can simply return a value.
type Generator struct {
	emit Emitter
	pool *pool.Pool[RValue]
}

func New(emit Emitter) *Generator {
	return &Generator{emit: emit, pool: pool.New[RValue](0)}
}

// PoolLen reports how many RValue handles this lowering pass has pool-
// allocated so far — used by cmd/luagen's --stats report.
func (g *Generator) PoolLen() int { return g.pool.Len() }

// Lower lowers a Chunk (spec §4.2): SCOPE_PUSH, then each child
// statement in order. No SCOPE_POP is emitted — the top-level chunk's
// scope lives for the process.
func (g *Generator) Lower(chunk *ast.Chunk) error {
	if _, err := g.emit.Runcall(opcode.ScopePush, NoArg()); err != nil {
		return err
	}
	for _, child := range chunk.Children {
		if _, err := g.dispatch(child); err != nil {
			return err
		}
	}
	return nil
}

// push emits a PUSH of an already-produced RValue, pool-allocating it
// first so the pointer stays valid for the lifetime of the emitted code
// (spec §9's pool-stability requirement).
func (g *Generator) push(rv RValue) error {
	_, err := g.emit.Runcall(opcode.Push, RValueArg(g.pool.Alloc(rv)))
	return err
}

func (g *Generator) pushNo() error {
	_, err := g.emit.Runcall(opcode.Push, NoArg())
	return err
}

func (g *Generator) dispatch(n ast.Node) (RValue, error) {
	switch node := n.(type) {
	case *ast.NilLit:
		return ImmediateRValue(value.NilValue()), nil
	case *ast.BoolLit:
		return ImmediateRValue(value.BoolValue(node.Value)), nil
	case *ast.IntLit:
		return ImmediateRValue(value.IntValue(node.Value)), nil
	case *ast.RealLit:
		return ImmediateRValue(value.RealValue(node.Value)), nil
	case *ast.StringLit:
		return ImmediateRValue(value.StringValue(node.Value)), nil
	case *ast.LValue:
		return g.lowerLValue(node)
	case *ast.Assignment:
		return RValue{}, g.lowerAssignment(node)
	case *ast.BinOp:
		return g.lowerBinOp(node)
	case *ast.UnOp:
		return g.lowerUnOp(node)
	case *ast.FunctionCall:
		return g.lowerFunctionCall(node)
	case *ast.TableCtor:
		return g.lowerTableCtor(node)
	default:
		return RValue{}, diagnostics.New(diagnostics.InternalInvariant, "dispatch", nil,
			fmt.Sprintf("unhandled node kind %d", n.Kind()))
	}
}

// lowerLValue implements spec §4.3.
func (g *Generator) lowerLValue(lv *ast.LValue) (RValue, error) {
	switch lv.Form {
	case ast.LValueName:
		if err := g.pushNo(); err != nil { // result slot
			return RValue{}, err
		}
		if _, err := g.emit.Runcall(opcode.Push, NameArg(lv.Name)); err != nil {
			return RValue{}, err
		}
		return g.emit.Runcall(opcode.ResolveName, NoArg())

	case ast.LValueDot:
		// Dot(tableExpr, fieldName) is sugar for Bracket(tableExpr, String(fieldName)).
		return g.lowerTableAccess(lv.TableExpr, &ast.StringLit{Value: lv.Name})

	case ast.LValueBracket:
		return g.lowerTableAccess(lv.TableExpr, lv.KeyExpr)

	default:
		return RValue{}, diagnostics.New(diagnostics.InternalInvariant, "LValue", nil, "unknown form")
	}
}

func (g *Generator) lowerTableAccess(tableExpr, keyExpr ast.Node) (RValue, error) {
	keyRV, err := g.dispatch(keyExpr)
	if err != nil {
		return RValue{}, err
	}
	tableRV, err := g.dispatch(tableExpr)
	if err != nil {
		return RValue{}, err
	}

	if err := g.pushNo(); err != nil { // result slot; popped last
		return RValue{}, err
	}
	if err := g.push(keyRV); err != nil {
		return RValue{}, err
	}
	if err := g.push(tableRV); err != nil { // pushed last so TABLE_ACCESS pops table first
		return RValue{}, err
	}
	return g.emit.Runcall(opcode.TableAccess, NoArg())
}

// lowerAssignment implements spec §4.4: evaluate all RHS expressions
// left-to-right first, then assign left-to-right; excess variables get
// Nil, excess expressions are evaluated for effect and discarded.
//
// §5's "multiple assignment is simultaneous" requires every RHS value to
// be captured at evaluation time, before any ASSIGN in the loop below
// runs — otherwise `x, y = y, x` would have the first ASSIGN's write to
// x leak into the second RHS's read of x through a live Slot alias
// (RValue.Get reads *Slot, not the snapshot taken at resolve time). An
// RHS expression that resolved to an LValue (a bare variable or table
// field read) is therefore frozen into a Temporary holding its current
// value right here, before the per-var loop can mutate anything.
func (g *Generator) lowerAssignment(a *ast.Assignment) error {
	exprRVs := make([]RValue, len(a.Exprs.Exprs))
	for i, e := range a.Exprs.Exprs {
		rv, err := g.dispatch(e)
		if err != nil {
			return err
		}
		if rv.Kind == LValue {
			rv = RValue{Kind: Temporary, Value: rv.Get()}
		}
		exprRVs[i] = rv
	}

	for i, lv := range a.Vars.Vars {
		destRV, err := g.lowerLValue(lv)
		if err != nil {
			return err
		}
		srcRV := ImmediateRValue(value.NilValue())
		if i < len(exprRVs) {
			srcRV = exprRVs[i]
		}
		if err := g.push(srcRV); err != nil {
			return err
		}
		if err := g.push(destRV); err != nil { // pushed last so ASSIGN pops dest first
			return err
		}
		if _, err := g.emit.Runcall(opcode.Assign, NoArg()); err != nil {
			return err
		}
	}
	return nil
}

// lowerBinOp implements spec §4.7.
func (g *Generator) lowerBinOp(b *ast.BinOp) (RValue, error) {
	leftRV, err := g.dispatch(b.Left)
	if err != nil {
		return RValue{}, err
	}
	rightRV, err := g.dispatch(b.Right)
	if err != nil {
		return RValue{}, err
	}

	if leftRV.Kind == Immediate && rightRV.Kind == Immediate {
		return foldBinOp(b.Op, leftRV.Value, rightRV.Value)
	}

	if err := g.push(rightRV); err != nil {
		return RValue{}, err
	}
	if err := g.push(leftRV); err != nil {
		return RValue{}, err
	}
	if err := g.pushNo(); err != nil { // result slot, popped first
		return RValue{}, err
	}
	return g.emit.Runcall(opcode.BinOp, IntArg(int32(b.Op)))
}

func foldBinOp(op opcode.BinaryOp, left, right value.Value) (folded RValue, err error) {
	// Integer division/modulo by zero panics inside value.BinaryOp; report
	// it as InternalInvariant, as the runtime's BINOP handler does.
	defer func() {
		if r := recover(); r != nil {
			folded, err = RValue{}, diagnostics.New(diagnostics.InternalInvariant, op.String(), nil, fmt.Sprint(r))
		}
	}()
	l, r, err := value.MatchTypes(left, right)
	if err != nil {
		return RValue{}, err
	}
	result, err := value.BinaryOp(op, l, r)
	if err != nil {
		return RValue{}, err
	}
	return ImmediateRValue(result), nil
}

// lowerUnOp implements spec §4.7's mirrored UnOp lowering.
func (g *Generator) lowerUnOp(u *ast.UnOp) (RValue, error) {
	operandRV, err := g.dispatch(u.Operand)
	if err != nil {
		return RValue{}, err
	}

	if operandRV.Kind == Immediate {
		result, err := value.UnaryOp(u.Op, operandRV.Value)
		if err != nil {
			return RValue{}, err
		}
		return ImmediateRValue(result), nil
	}

	if err := g.push(operandRV); err != nil {
		return RValue{}, err
	}
	if err := g.pushNo(); err != nil { // result slot, popped first
		return RValue{}, err
	}
	return g.emit.Runcall(opcode.UnOp, IntArg(int32(u.Op)))
}

// lowerFunctionCall implements spec §4.5.
func (g *Generator) lowerFunctionCall(fc *ast.FunctionCall) (RValue, error) {
	calleeRV, err := g.dispatch(fc.Callee)
	if err != nil {
		return RValue{}, err
	}
	var argExprs []ast.Node
	if fc.Args != nil {
		argExprs = fc.Args.Exprs
	}
	argRVs := make([]RValue, len(argExprs))
	for i, a := range argExprs {
		rv, err := g.dispatch(a)
		if err != nil {
			return RValue{}, err
		}
		argRVs[i] = rv
	}

	if err := g.pushNo(); err != nil { // result slot
		return RValue{}, err
	}
	for i := len(argRVs) - 1; i >= 0; i-- {
		if err := g.push(argRVs[i]); err != nil { // reverse, so the runtime pops args in natural order
			return RValue{}, err
		}
	}
	if _, err := g.emit.Runcall(opcode.Push, IntArg(int32(len(argRVs)))); err != nil {
		return RValue{}, err
	}
	if err := g.push(calleeRV); err != nil { // pushed last so FUNCTION_CALL pops callee first
		return RValue{}, err
	}
	return g.emit.Runcall(opcode.FunctionCall, NoArg())
}

// lowerTableCtor implements spec §4.6: positional fields emitted first
// (implicit 1-based index), then non-positional fields, each as a
// (value, key) push pair; the field count and a result slot bracket the
// sequence. See internal/runtime's TABLE_CTOR handler for how the
// emission order (positional-then-named) ends up as the table's
// insertion order despite the stack being LIFO.
func (g *Generator) lowerTableCtor(tc *ast.TableCtor) (RValue, error) {
	if err := g.pushNo(); err != nil { // result slot; popped last
		return RValue{}, err
	}

	var positional, others []*ast.Field
	for _, f := range tc.Fields {
		if f.Form == ast.FieldPositional {
			positional = append(positional, f)
		} else {
			others = append(others, f)
		}
	}

	count := 0
	posIndex := int32(1)
	emitField := func(f *ast.Field, explicitKey ast.Node) error {
		valRV, err := g.dispatch(f.Value)
		if err != nil {
			return err
		}
		var keyRV RValue
		if explicitKey != nil {
			keyRV, err = g.dispatch(explicitKey)
			if err != nil {
				return err
			}
		} else {
			keyRV = ImmediateRValue(value.IntValue(posIndex))
			posIndex++
		}
		if err := g.push(valRV); err != nil {
			return err
		}
		if err := g.push(keyRV); err != nil { // key pushed last, so it pops first
			return err
		}
		count++
		return nil
	}

	for _, f := range positional {
		if err := emitField(f, nil); err != nil {
			return RValue{}, err
		}
	}
	for _, f := range others {
		var key ast.Node
		switch f.Form {
		case ast.FieldNamed:
			key = &ast.StringLit{Value: f.Name}
		case ast.FieldIndexed:
			key = f.Key
		}
		if err := emitField(f, key); err != nil {
			return RValue{}, err
		}
	}

	if _, err := g.emit.Runcall(opcode.Push, IntArg(int32(count))); err != nil {
		return RValue{}, err
	}
	return g.emit.Runcall(opcode.TableCtor, NoArg())
}
