// Package jitgen is the "external JIT code-generation library" spec §1
// and §6 describe: it builds a real LLVM IR module containing the
// exported __main(runcall_fn) function the ABI requires, one `call`
// instruction per runcall the lowering pass drives it through. It never
// executes anything — turning that IR into a running program needs a
// real LLVM execution engine, which this module deliberately does not
// embed (see SPEC_FULL.md's CLI section on why that glue is out of
// scope). internal/runtime is the Emitter that actually produces
// observable program behavior.
package jitgen

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	irvalue "github.com/llir/llvm/ir/value"

	"luagen/internal/lower"
	"luagen/internal/opcode"
	ownvalue "luagen/internal/value"
)

// runcallFuncType is the callback __main receives: (op i32, arg i64) -> i64,
// a pointer-sized opaque handle standing in for spec §6's "pointer-sized
// argument, tagged by convention."
var runcallFuncType = types.NewFunc(types.I64, types.I32, types.I64)

// Module wraps the llir/llvm IR builder state for one compiled program.
type Module struct {
	BuildID string
	M       *ir.Module

	main         *ir.Func
	block        *ir.Block
	runcallParam *ir.Param
	handle       int64
	strSeq       int
}

// New starts a module with the __main(runcall_fn) entry point declared
// per spec §6, ready for Runcall calls to append to its single block.
func New() *Module {
	m := ir.NewModule()
	runcallParam := ir.NewParam("runcall", types.NewPointer(runcallFuncType))
	main := m.NewFunc("__main", types.Void, runcallParam)
	main.Linkage = 0 // external, the default zero value; kept explicit for readability
	block := main.NewBlock("entry")

	return &Module{
		BuildID:      uuid.NewString(),
		M:            m,
		main:         main,
		block:        block,
		runcallParam: runcallParam,
	}
}

// Runcall implements lower.Emitter by appending one `call` instruction
// per op/arg pair to __main's body. It never fails and never knows a
// real result — see the package doc — so it always returns a Temporary
// RValue of Unknown value and a nil error.
func (mod *Module) Runcall(op opcode.Runcall, arg lower.Arg) (lower.RValue, error) {
	opConst := constant.NewInt(types.I32, int64(op))

	var argConst irvalue.Value
	switch {
	case arg.IsInt():
		argConst = constant.NewInt(types.I64, int64(arg.Int))
	case arg.Str != "":
		argConst = mod.internString(arg.Str)
	case arg.RVal != nil:
		// The real ABI passes the pool address of the operand RValue;
		// an address from this process has no meaning in static IR, so
		// a monotonically increasing opaque handle stands in for it —
		// the same role a relocation placeholder plays in a real
		// compiler backend.
		argConst = constant.NewInt(types.I64, mod.nextHandle())
	default:
		argConst = constant.NewInt(types.I64, 0)
	}

	mod.block.NewCall(mod.runcallParam, opConst, argConst)
	return lower.RValue{Kind: lower.Temporary, Value: ownvalue.UnknownValue()}, nil
}

func (mod *Module) nextHandle() int64 {
	mod.handle++
	return mod.handle
}

// internString emits a private global holding s (NUL-terminated) and
// returns its address as an i64, the same pointer-to-int convention
// real LLVM backends use to pass a string literal through an opaque
// pointer-sized ABI slot.
func (mod *Module) internString(s string) irvalue.Value {
	name := fmt.Sprintf("str.%d", mod.strSeq)
	mod.strSeq++
	g := mod.M.NewGlobalDef(name, constant.NewCharArrayFromString(s+"\x00"))
	return constant.NewPtrToInt(g, types.I64)
}

// Finish terminates __main's block with a void return and renders the
// module as LLVM IR text (the --dump-ir output).
func (mod *Module) Finish() string {
	mod.block.NewRet(nil)
	return mod.M.String()
}
