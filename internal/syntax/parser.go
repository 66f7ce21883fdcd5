package syntax

import (
	"fmt"

	"luagen/internal/ast"
	"luagen/internal/opcode"
)

// binOps maps a token to its operator, precedence, and associativity.
// Precedence mirrors Lua's (lowest first): or, and, comparisons, concat
// (right-assoc), additive, multiplicative.
var binOps = map[TokenType]struct {
	op         opcode.BinaryOp
	prec       int
	rightAssoc bool
}{
	TokenOr:      {opcode.Or, 1, false},
	TokenAnd:     {opcode.And, 2, false},
	TokenEq:      {opcode.Equals, 3, false},
	TokenNe:      {opcode.NotEqual, 3, false},
	TokenLt:      {opcode.Less, 3, false},
	TokenLe:      {opcode.LessEqual, 3, false},
	TokenGt:      {opcode.Greater, 3, false},
	TokenGe:      {opcode.GreaterEqual, 3, false},
	TokenConcat:  {opcode.Concat, 4, true},
	TokenPlus:    {opcode.Plus, 5, false},
	TokenMinus:   {opcode.Minus, 5, false},
	TokenStar:    {opcode.Times, 6, false},
	TokenSlash:   {opcode.Divide, 6, false},
	TokenPercent: {opcode.Modulo, 6, false},
}

type Parser struct {
	tokens  []Token
	current int
}

func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses the whole token stream as a Chunk (spec §2/§4.2): a flat
// sequence of statements, each either an assignment or a bare expression
// (in practice, a function call used for effect).
func Parse(source string) (*ast.Chunk, error) {
	tokens, err := NewLexer(source).ScanTokens()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}

func (p *Parser) Parse() (*ast.Chunk, error) {
	chunk := &ast.Chunk{}
	for !p.check(TokenEOF) {
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		chunk.Children = append(chunk.Children, stmt)
		for p.match(TokenSemi) {
		}
	}
	return chunk, nil
}

func (p *Parser) statement() (ast.Node, error) {
	first, err := p.suffixedExpr()
	if err != nil {
		return nil, err
	}
	if !p.check(TokenEqual) && !p.check(TokenComma) {
		return first, nil
	}

	lv, ok := first.(*ast.LValue)
	if !ok {
		return nil, p.errorf("left side of assignment is not assignable")
	}
	vars := []*ast.LValue{lv}
	for p.match(TokenComma) {
		e, err := p.suffixedExpr()
		if err != nil {
			return nil, err
		}
		lv, ok := e.(*ast.LValue)
		if !ok {
			return nil, p.errorf("left side of assignment is not assignable")
		}
		vars = append(vars, lv)
	}
	if _, err := p.expect(TokenEqual); err != nil {
		return nil, err
	}

	exprs, err := p.exprList()
	if err != nil {
		return nil, err
	}
	return &ast.Assignment{
		Vars:  &ast.VarList{Vars: vars},
		Exprs: &ast.ExprList{Exprs: exprs},
	}, nil
}

func (p *Parser) exprList() ([]ast.Node, error) {
	first, err := p.expr()
	if err != nil {
		return nil, err
	}
	exprs := []ast.Node{first}
	for p.match(TokenComma) {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

func (p *Parser) expr() (ast.Node, error) {
	return p.binExpr(0)
}

func (p *Parser) binExpr(minPrec int) (ast.Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		info, ok := binOps[p.peek().Type]
		if !ok || info.prec < minPrec {
			break
		}
		p.advance()
		nextMin := info.prec + 1
		if info.rightAssoc {
			nextMin = info.prec
		}
		right, err := p.binExpr(nextMin)
		if err != nil {
			return nil, err
		}
		left = &ast.BinOp{Op: info.op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) unary() (ast.Node, error) {
	switch {
	case p.match(TokenNot):
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.UnOp{Op: opcode.Not, Operand: operand}, nil
	case p.match(TokenMinus):
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.UnOp{Op: opcode.Negate, Operand: operand}, nil
	case p.match(TokenHash):
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.UnOp{Op: opcode.Length, Operand: operand}, nil
	default:
		return p.suffixedExpr()
	}
}

// suffixedExpr parses a primary expression followed by any number of
// `.name`, `[expr]`, and `(args)` postfixes (spec §4.3/§4.5).
func (p *Parser) suffixedExpr() (ast.Node, error) {
	e, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.match(TokenDot):
			name, err := p.expect(TokenIdent)
			if err != nil {
				return nil, err
			}
			e = &ast.LValue{Form: ast.LValueDot, Name: name.Lexeme, TableExpr: e}
		case p.match(TokenLBracket):
			key, err := p.expr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenRBracket); err != nil {
				return nil, err
			}
			e = &ast.LValue{Form: ast.LValueBracket, TableExpr: e, KeyExpr: key}
		case p.match(TokenLParen):
			args, err := p.argList()
			if err != nil {
				return nil, err
			}
			e = &ast.FunctionCall{Callee: e, Args: &ast.ExprList{Exprs: args}}
		default:
			return e, nil
		}
	}
}

func (p *Parser) argList() ([]ast.Node, error) {
	var args []ast.Node
	if !p.check(TokenRParen) {
		var err error
		args, err = p.exprList()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) primary() (ast.Node, error) {
	switch {
	case p.match(TokenNil):
		return &ast.NilLit{}, nil
	case p.match(TokenTrue):
		return &ast.BoolLit{Value: true}, nil
	case p.match(TokenFalse):
		return &ast.BoolLit{Value: false}, nil
	case p.check(TokenInt):
		tok := p.advance()
		n, err := parseIntLiteral(tok.Lexeme)
		if err != nil {
			return nil, p.errorf("bad integer literal %q: %v", tok.Lexeme, err)
		}
		return &ast.IntLit{Value: n}, nil
	case p.check(TokenReal):
		tok := p.advance()
		f, err := parseRealLiteral(tok.Lexeme)
		if err != nil {
			return nil, p.errorf("bad real literal %q: %v", tok.Lexeme, err)
		}
		return &ast.RealLit{Value: f}, nil
	case p.check(TokenString):
		tok := p.advance()
		return &ast.StringLit{Value: tok.Lexeme}, nil
	case p.check(TokenLBrace):
		return p.tableCtor()
	case p.match(TokenLParen):
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return e, nil
	case p.check(TokenIdent):
		tok := p.advance()
		return &ast.LValue{Form: ast.LValueName, Name: tok.Lexeme}, nil
	default:
		return nil, p.errorf("unexpected token %s", p.peek())
	}
}

// tableCtor parses spec §4.6's three field forms: `[expr] = expr`,
// `name = expr`, and bare `expr` (positional), comma- or
// semicolon-separated, trailing separator allowed.
func (p *Parser) tableCtor() (ast.Node, error) {
	if _, err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}
	tc := &ast.TableCtor{}
	for !p.check(TokenRBrace) {
		field, err := p.tableField()
		if err != nil {
			return nil, err
		}
		tc.Fields = append(tc.Fields, field)
		if !p.match(TokenComma) && !p.match(TokenSemi) {
			break
		}
	}
	if _, err := p.expect(TokenRBrace); err != nil {
		return nil, err
	}
	return tc, nil
}

func (p *Parser) tableField() (*ast.Field, error) {
	if p.match(TokenLBracket) {
		key, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRBracket); err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenEqual); err != nil {
			return nil, err
		}
		val, err := p.expr()
		if err != nil {
			return nil, err
		}
		return &ast.Field{Form: ast.FieldIndexed, Key: key, Value: val}, nil
	}
	if p.check(TokenIdent) && p.checkNext(TokenEqual) {
		name := p.advance()
		p.advance() // '='
		val, err := p.expr()
		if err != nil {
			return nil, err
		}
		return &ast.Field{Form: ast.FieldNamed, Name: name.Lexeme, Value: val}, nil
	}
	val, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &ast.Field{Form: ast.FieldPositional, Value: val}, nil
}

func (p *Parser) check(t TokenType) bool { return p.peek().Type == t }

func (p *Parser) checkNext(t TokenType) bool {
	if p.current+1 >= len(p.tokens) {
		return false
	}
	return p.tokens[p.current+1].Type == t
}

func (p *Parser) match(t TokenType) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(t TokenType) (Token, error) {
	if !p.check(t) {
		return Token{}, p.errorf("expected %s, got %s", t, p.peek())
	}
	return p.advance(), nil
}

func (p *Parser) advance() Token {
	tok := p.tokens[p.current]
	if p.current < len(p.tokens)-1 {
		p.current++
	}
	return tok
}

func (p *Parser) peek() Token { return p.tokens[p.current] }

func (p *Parser) errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s", p.peek().Line, fmt.Sprintf(format, args...))
}
