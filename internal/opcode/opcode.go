// Package opcode defines the fixed runcall opcode set and the binary/unary
// operator tags the lowering pass and the runtime both switch on.
//
// The numbering matches spec §6 exactly; it is part of the ABI between the
// emitted __main function and the runtime it calls back into, so the
// values are pinned with explicit assignments rather than a bare iota
// block — a renumbering here silently breaks every already-emitted module.
package opcode

// Runcall identifies one opcode invocation from emitted code into the
// runtime. It travels as the first argument of runcall(op, arg).
type Runcall int32

const (
	ScopePush    Runcall = 0
	ScopePop     Runcall = 1
	Push         Runcall = 2
	InitVariable Runcall = 3
	ResolveName  Runcall = 4
	Assign       Runcall = 5
	UnOp         Runcall = 6
	BinOp        Runcall = 7
	FunctionCall Runcall = 8
	TableCtor    Runcall = 9
	TableAccess  Runcall = 10
)

func (r Runcall) String() string {
	switch r {
	case ScopePush:
		return "SCOPE_PUSH"
	case ScopePop:
		return "SCOPE_POP"
	case Push:
		return "PUSH"
	case InitVariable:
		return "INIT_VARIABLE"
	case ResolveName:
		return "RESOLVE_NAME"
	case Assign:
		return "ASSIGN"
	case UnOp:
		return "UNOP"
	case BinOp:
		return "BINOP"
	case FunctionCall:
		return "FUNCTION_CALL"
	case TableCtor:
		return "TABLE_CTOR"
	case TableAccess:
		return "TABLE_ACCESS"
	default:
		return "UNKNOWN_RUNCALL"
	}
}

// BinaryOp enumerates the binary operators recognised at parse level.
// Only the arithmetic subset (Plus..Modulo, plus Concat on strings) is
// ever applicable at runtime; Or..GreaterEqual are recognised and printed
// but always rejected with OperationNotApplicable (see
// SPEC_FULL.md "SUPPLEMENTED FEATURES").
type BinaryOp int

const (
	Or BinaryOp = iota
	And
	Equals
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual
	Concat
	Plus
	Minus
	Times
	Divide
	Modulo
)

func (b BinaryOp) String() string {
	names := [...]string{"or", "and", "==", "~=", "<", "<=", ">", ">=", "..", "+", "-", "*", "/", "%"}
	if int(b) < 0 || int(b) >= len(names) {
		return "?binop?"
	}
	return names[b]
}

// UnaryOp enumerates the unary operators recognised at parse level.
// Length is parsed but never applicable (see SPEC_FULL.md).
type UnaryOp int

const (
	Negate UnaryOp = iota
	Not
	Length
)

func (u UnaryOp) String() string {
	names := [...]string{"-", "not", "#"}
	if int(u) < 0 || int(u) >= len(names) {
		return "?unop?"
	}
	return names[u]
}
