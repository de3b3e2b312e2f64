// Package parser implements VonSim's recursive-descent parser: tokens to a
// statement AST. It generalizes a prior implementation's parseAsmLine/FirstPass split
// (shared/assembler/assembler.go) from whitespace-field splitting into a real
// grammar with number-expression parsing (spec.md §4.2).
package parser

import (
	"strings"

	"vonsim"
	"vonsim/internal/ast"
	"vonsim/internal/lexer"
	"vonsim/internal/token"
)

type Parser struct {
	toks   []token.Token
	pos    int
	errors vonsim.ErrorList
	labels map[string]vonsim.Position
	sawEnd bool
}

// Parse lexes and parses source into a Program plus any accumulated errors.
func Parse(source string) (ast.Program, vonsim.ErrorList) {
	lx := lexer.New(source)
	toks, lexErrs := lx.Tokenize()
	p := &Parser{toks: toks, labels: make(map[string]vonsim.Position)}
	p.errors = lexErrs
	prog := p.parseProgram()
	return prog, p.errors
}

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k token.Kind, what string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.errors.Addf(vonsim.ErrExpectedToken, p.cur().Position, "expected %s, got %q", what, p.cur().Lexeme)
	return token.Token{}, false
}

func (p *Parser) skipToEOL() {
	for !p.at(token.EOL) && !p.at(token.EOF) {
		p.advance()
	}
	if p.at(token.EOL) {
		p.advance()
	}
}

func (p *Parser) parseProgram() ast.Program {
	var prog ast.Program
	for !p.at(token.EOF) {
		if p.at(token.EOL) {
			p.advance()
			continue
		}
		stmt, ok := p.parseStatement()
		if ok {
			if p.sawEnd {
				p.errors.Addf(vonsim.ErrEndMustBeLast, stmt.Pos, "no statements may follow END")
			}
			prog.Statements = append(prog.Statements, stmt)
			if stmt.Kind == ast.StmtEnd {
				p.sawEnd = true
			}
		}
		p.skipToEOL()
	}
	return prog
}

// parseStatement parses one non-empty line: an optional label, then a
// directive or instruction (spec.md §4.2).
func (p *Parser) parseStatement() (ast.Statement, bool) {
	pos := p.cur().Position
	label := ""

	if p.at(token.Ident) && p.peekIsColon() {
		label = p.advance().Lexeme
		p.advance() // colon
		if _, dup := p.labels[label]; dup {
			p.errors.Addf(vonsim.ErrDuplicatedLabel, pos, "label %q already defined", label)
		} else {
			p.labels[label] = pos
		}
	}

	switch {
	case p.at(token.KwORG):
		p.advance()
		expr := p.parseExpr()
		return ast.Statement{Kind: ast.StmtOrigin, Label: label, Pos: pos, OriginAddr: expr}, true
	case p.at(token.KwEND):
		p.advance()
		return ast.Statement{Kind: ast.StmtEnd, Label: label, Pos: pos}, true
	case p.at(token.KwDB), p.at(token.KwDW):
		return p.parseDataDirective(label, pos)
	case p.at(token.KwEQU):
		p.advance()
		expr := p.parseExpr()
		return ast.Statement{Kind: ast.StmtEqu, Label: label, Pos: pos, EquExpr: expr}, true
	case token.IsMnemonic(p.cur().Kind):
		return p.parseInstruction(label, pos)
	default:
		p.errors.Addf(vonsim.ErrExpectedToken, pos, "expected a directive or instruction, got %q", p.cur().Lexeme)
		return ast.Statement{}, false
	}
}

func (p *Parser) peekIsColon() bool {
	if p.pos+1 >= len(p.toks) {
		return false
	}
	return p.toks[p.pos+1].Kind == token.Colon
}

func (p *Parser) parseDataDirective(label string, pos vonsim.Position) (ast.Statement, bool) {
	kind := ast.DataDB
	if p.at(token.KwDW) {
		kind = ast.DataDW
	}
	p.advance()

	var values []ast.DataValue
	for {
		switch {
		case p.at(token.String):
			values = append(values, ast.DataValue{IsString: true, String: p.advance().Lexeme})
		case p.at(token.Question):
			p.advance()
			values = append(values, ast.DataValue{IsUninitialized: true})
		default:
			values = append(values, ast.DataValue{Expr: p.parseExpr()})
		}
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	return ast.Statement{Kind: ast.StmtData, Label: label, Pos: pos, DataKind: kind, DataValues: values}, true
}

func (p *Parser) parseInstruction(label string, pos vonsim.Position) (ast.Statement, bool) {
	mnemonic := strings.ToUpper(p.advance().Lexeme)
	var operands []ast.Operand
	for !p.at(token.EOL) && !p.at(token.EOF) {
		op := p.parseOperand()
		operands = append(operands, op)
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	return ast.Statement{
		Kind: ast.StmtInstruction, Label: label, Pos: pos,
		Mnemonic: mnemonic, Operands: operands,
	}, true
}

// parseOperand recognizes: bare register, BYTE/WORD PTR [...], [BX], [expr],
// bare identifier (data label), or a bare number expression (spec.md §4.2).
func (p *Parser) parseOperand() ast.Operand {
	pos := p.cur().Position

	size := ast.SizeAuto
	if p.at(token.KwBYTE) || p.at(token.KwWORD) {
		if p.at(token.KwBYTE) {
			size = ast.SizeByte
		} else {
			size = ast.SizeWord
		}
		p.advance()
		p.expect(token.KwPTR, "PTR")
	}

	if p.at(token.Register) {
		name := p.advance().Lexeme
		reg, _ := vonsim.RegisterByName(name)
		return ast.Operand{Kind: ast.OperandRegister, Register: reg, Pos: pos}
	}

	if p.at(token.LBracket) {
		p.advance()
		if p.at(token.Register) && p.cur().Lexeme == "BX" {
			p.advance()
			p.expect(token.RBracket, "]")
			return ast.Operand{Kind: ast.OperandMemoryIndirect, Size: size, Pos: pos}
		}
		expr := p.parseExpr()
		p.expect(token.RBracket, "]")
		return ast.Operand{Kind: ast.OperandMemoryDirect, Expr: expr, Size: size, Pos: pos}
	}

	if p.at(token.Ident) && size == ast.SizeAuto {
		// Bare identifier: a reference to a data label, equivalent to
		// [OFFSET label] per spec.md §4.2, resolved by the validator.
		name := p.advance().Lexeme
		return ast.Operand{
			Kind: ast.OperandLabel,
			Expr: &ast.Expr{Kind: ast.ExprLabel, Label: name, Pos: pos},
			Pos:  pos,
		}
	}

	expr := p.parseExpr()
	return ast.Operand{Kind: ast.OperandImmediate, Expr: expr, Pos: pos}
}

// Number-expression grammar (spec.md §4.2):
//
//	term   := factor (( + | - ) factor)*
//	factor := unary (* unary)*
//	unary  := (+|-) unary | primary
//	primary := number | 'OFFSET' IDENT | IDENT | '(' expr ')'
func (p *Parser) parseExpr() *ast.Expr {
	return p.parseTerm()
}

func (p *Parser) parseTerm() *ast.Expr {
	left := p.parseFactor()
	for p.at(token.Plus) || p.at(token.Minus) {
		op := p.advance()
		right := p.parseFactor()
		left = &ast.Expr{Kind: ast.ExprBinary, Op: rune(op.Lexeme[0]), Left: left, Right: right, Pos: op.Position}
	}
	return left
}

func (p *Parser) parseFactor() *ast.Expr {
	left := p.parseUnary()
	for p.at(token.Star) {
		op := p.advance()
		right := p.parseUnary()
		left = &ast.Expr{Kind: ast.ExprBinary, Op: '*', Left: left, Right: right, Pos: op.Position}
	}
	return left
}

func (p *Parser) parseUnary() *ast.Expr {
	if p.at(token.Plus) || p.at(token.Minus) {
		op := p.advance()
		operand := p.parseUnary()
		return &ast.Expr{Kind: ast.ExprUnary, Op: rune(op.Lexeme[0]), Left: operand, Pos: op.Position}
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() *ast.Expr {
	pos := p.cur().Position
	switch {
	case p.at(token.Number):
		lex := p.advance().Lexeme
		n, err := lexer.ParseNumber(lex)
		if err != nil {
			p.errors.Addf(vonsim.ErrValueOutOfRange, pos, "malformed number %q", lex)
		}
		return &ast.Expr{Kind: ast.ExprNumber, Number: n, Pos: pos}
	case p.at(token.KwOFFSET):
		p.advance()
		name, _ := p.expect(token.Ident, "identifier")
		return &ast.Expr{Kind: ast.ExprLabel, Label: name.Lexeme, Offset: true, Pos: pos}
	case p.at(token.Ident):
		name := p.advance()
		return &ast.Expr{Kind: ast.ExprLabel, Label: name.Lexeme, Pos: pos}
	case p.at(token.LParen):
		p.advance()
		inner := p.parseExpr()
		p.expect(token.RParen, ")")
		return inner
	default:
		p.errors.Addf(vonsim.ErrExpectedToken, pos, "expected a number expression, got %q", p.cur().Lexeme)
		p.advance()
		return &ast.Expr{Kind: ast.ExprNumber, Number: 0, Pos: pos}
	}
}
