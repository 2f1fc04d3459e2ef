// Package parser implements spec §4.2: token stream to lossless syntax
// tree. Parsing never aborts outright; on a malformed construct the
// parser records an error, emits an Error node in its place, and
// synchronizes to the next statement boundary so later stages can still
// run on the rest of the tree.
package parser

import (
	"strconv"

	"github.com/solaeus/dust/internal/ast"
	"github.com/solaeus/dust/internal/derrors"
	"github.com/solaeus/dust/internal/token"
)

// precedence gives the binding power of each binary operator, lowest to
// highest per spec §4.2: assignment; logical or; logical and; equality;
// relational; additive; multiplicative.
var precedence = map[token.Kind]int{
	token.Or:         1,
	token.And:        2,
	token.Eq:         3,
	token.NotEq:      3,
	token.Less:       4,
	token.LessEq:     4,
	token.Greater:    4,
	token.GreaterEq:  4,
	token.Plus:       5,
	token.Minus:      5,
	token.Star:       6,
	token.Slash:      6,
	token.Percent:    6,
}

var assignOps = map[token.Kind]bool{
	token.Assign: true, token.PlusAssign: true, token.MinusAssign: true,
	token.StarAssign: true, token.SlashAssign: true, token.PercentAssign: true,
}

type Parser struct {
	toks []token.Token
	pos  int
	errs derrors.List
}

func New(toks []token.Token) *Parser {
	return &Parser{toks: toks}
}

// Parse parses a full program, always returning a tree whose root Span
// covers the entire token stream even in the presence of errors.
func Parse(toks []token.Token) (*ast.Program, *derrors.List) {
	p := New(toks)
	items := p.parseItems()
	start := token.Position{}
	end := token.Position{}
	if len(toks) > 0 {
		start = toks[0].Span.Start
		end = toks[len(toks)-1].Span.End
	}
	return ast.NewProgram(token.Span{Start: start, End: end}, items), &p.errs
}

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) atEnd() bool       { return p.cur().Kind == token.EOF }
func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if !p.atEnd() {
		p.pos++
	}
	return t
}
func (p *Parser) check(k token.Kind) bool { return p.cur().Kind == k }
func (p *Parser) match(ks ...token.Kind) bool {
	for _, k := range ks {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) expect(k token.Kind, what string) token.Token {
	if p.check(k) {
		return p.advance()
	}
	p.errs.Add(derrors.New(derrors.ParseError, p.cur().Span.Start, "expected %s, found %s", what, p.cur().Kind))
	return p.cur()
}

// synchronize skips to the next statement boundary after an error, per
// §4.2's error-recovery contract.
func (p *Parser) synchronize() {
	for !p.atEnd() {
		if p.cur().Kind == token.Semicolon {
			p.advance()
			return
		}
		if p.cur().Kind == token.RBrace || p.cur().Kind == token.KwLet ||
			p.cur().Kind == token.KwFn || p.cur().Kind == token.KwIf ||
			p.cur().Kind == token.KwWhile {
			return
		}
		p.advance()
	}
}

func (p *Parser) parseItems() []ast.Item {
	var items []ast.Item
	for !p.atEnd() {
		items = append(items, p.parseItem())
	}
	return items
}

func (p *Parser) parseItem() ast.Item {
	start := p.cur().Span.Start
	switch {
	case p.check(token.KwFn):
		return p.parseFunctionOrMain()
	case p.check(token.KwStruct):
		return p.parseStruct()
	case p.check(token.KwEnum):
		return p.parseEnum()
	case p.check(token.KwUse):
		return p.parseUse()
	case p.check(token.KwMod):
		return p.parseMod()
	default:
		// A bare statement sequence at the top level belongs to an
		// implicit main; wrap remaining statements until the next item
		// keyword into a single MainFunction so top-level expressions work.
		stmts := p.parseStatementsUntilItemKeyword()
		end := p.cur().Span.Start
		return ast.NewMainFunction(token.Span{Start: start, End: end}, ast.NewBlock(token.Span{Start: start, End: end}, stmts))
	}
}

func isItemStart(k token.Kind) bool {
	switch k {
	case token.KwFn, token.KwStruct, token.KwEnum, token.KwUse, token.KwMod, token.EOF:
		return true
	}
	return false
}

func (p *Parser) parseStatementsUntilItemKeyword() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.atEnd() && !isItemStart(p.cur().Kind) {
		stmts = append(stmts, p.parseStmt())
	}
	return stmts
}

func (p *Parser) parseFunctionOrMain() ast.Item {
	start := p.advance().Span.Start // 'fn'
	name := p.expect(token.Identifier, "function name").Literal
	p.expect(token.LParen, "(")
	var params []ast.Param
	for !p.check(token.RParen) && !p.atEnd() {
		pname := p.expect(token.Identifier, "parameter name").Literal
		p.expect(token.Colon, ":")
		ptype := p.parseTypeName()
		params = append(params, ast.Param{Name: pname, TypeName: ptype})
		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.RParen, ")")
	ret := ""
	if p.match(token.Arrow) {
		ret = p.parseTypeName()
	}
	body := p.parseBlock()
	span := token.Span{Start: start, End: body.Span().End}
	if name == "main" {
		return ast.NewMainFunction(span, body)
	}
	return ast.NewFunctionItem(span, name, params, ret, body)
}

func (p *Parser) parseTypeName() string {
	if !p.check(token.Identifier) && !isBuiltinTypeKeyword(p.cur().Kind) {
		p.errs.Add(derrors.New(derrors.ParseError, p.cur().Span.Start, "expected type name, found %s", p.cur().Kind))
		return ""
	}
	return p.advance().Literal
}

func isBuiltinTypeKeyword(k token.Kind) bool { return false }

func (p *Parser) parseStruct() ast.Item {
	start := p.advance().Span.Start
	name := p.expect(token.Identifier, "struct name").Literal
	p.expect(token.LBrace, "{")
	var fields []ast.StructField
	for !p.check(token.RBrace) && !p.atEnd() {
		fname := p.expect(token.Identifier, "field name").Literal
		p.expect(token.Colon, ":")
		ftype := p.parseTypeName()
		fields = append(fields, ast.StructField{Name: fname, TypeName: ftype})
		if !p.match(token.Comma) {
			break
		}
	}
	end := p.expect(token.RBrace, "}").Span.End
	return ast.NewStructDefinition(token.Span{Start: start, End: end}, name, fields)
}

func (p *Parser) parseEnum() ast.Item {
	start := p.advance().Span.Start
	name := p.expect(token.Identifier, "enum name").Literal
	p.expect(token.LBrace, "{")
	var variants []ast.EnumVariant
	for !p.check(token.RBrace) && !p.atEnd() {
		vname := p.expect(token.Identifier, "variant name").Literal
		variants = append(variants, ast.EnumVariant{Name: vname})
		if !p.match(token.Comma) {
			break
		}
	}
	end := p.expect(token.RBrace, "}").Span.End
	return ast.NewEnumDefinition(token.Span{Start: start, End: end}, name, variants)
}

func (p *Parser) parseUse() ast.Item {
	start := p.advance().Span.Start
	var path []string
	path = append(path, p.expect(token.Identifier, "path segment").Literal)
	for p.match(token.DoubleColon) {
		path = append(path, p.expect(token.Identifier, "path segment").Literal)
	}
	end := p.cur().Span.Start
	p.match(token.Semicolon)
	return ast.NewUseItem(token.Span{Start: start, End: end}, path)
}

func (p *Parser) parseMod() ast.Item {
	start := p.advance().Span.Start
	name := p.expect(token.Identifier, "module name").Literal
	p.expect(token.LBrace, "{")
	var items []ast.Item
	for !p.check(token.RBrace) && !p.atEnd() {
		items = append(items, p.parseItem())
	}
	end := p.expect(token.RBrace, "}").Span.End
	return ast.NewModuleItem(token.Span{Start: start, End: end}, name, items)
}

func (p *Parser) parseBlock() *ast.Block {
	start := p.expect(token.LBrace, "{").Span.Start
	var stmts []ast.Stmt
	for !p.check(token.RBrace) && !p.atEnd() {
		stmts = append(stmts, p.parseStmt())
	}
	end := p.expect(token.RBrace, "}").Span.End
	return ast.NewBlock(token.Span{Start: start, End: end}, stmts)
}

func (p *Parser) parseStmt() ast.Stmt {
	if p.check(token.KwLet) {
		return p.parseLet()
	}
	start := p.cur().Span.Start
	expr := p.parseExpr()
	hasSemi := p.match(token.Semicolon)
	end := p.cur().Span.Start
	if _, ok := expr.(*ast.ErrorExpr); ok {
		p.synchronize()
	}
	return ast.NewExprStmt(token.Span{Start: start, End: end}, expr, hasSemi)
}

func (p *Parser) parseLet() ast.Stmt {
	start := p.advance().Span.Start // 'let'
	mut := p.match(token.KwMut)
	name := p.expect(token.Identifier, "binding name").Literal
	typeName := ""
	if p.match(token.Colon) {
		typeName = p.parseTypeName()
	}
	if !p.match(token.Assign) {
		p.errs.Add(derrors.New(derrors.ParseError, p.cur().Span.Start, "let bindings require an initializer"))
		p.synchronize()
		return ast.NewErrorStmt(token.Span{Start: start, End: p.cur().Span.Start}, "uninitialized let")
	}
	value := p.parseExpr()
	end := p.cur().Span.Start
	p.match(token.Semicolon)
	return ast.NewLetStmt(token.Span{Start: start, End: end}, name, mut, typeName, value)
}

// parseExpr parses at assignment precedence, the lowest level.
func (p *Parser) parseExpr() ast.Expr {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() ast.Expr {
	left := p.parseBinary(1)
	if assignOps[p.cur().Kind] {
		op := p.advance()
		value := p.parseAssignment()
		return ast.NewAssignExpr(token.Span{Start: left.Span().Start, End: value.Span().End}, op.Kind, left, value)
	}
	return left
}

func (p *Parser) parseBinary(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		prec, ok := precedence[p.cur().Kind]
		if !ok || prec < minPrec {
			return left
		}
		op := p.advance()
		right := p.parseBinary(prec + 1)
		span := token.Span{Start: left.Span().Start, End: right.Span().End}
		if op.Kind == token.And || op.Kind == token.Or {
			left = ast.NewLogicalExpr(span, op.Kind, left, right)
		} else {
			left = ast.NewBinaryExpr(span, op.Kind, left, right)
		}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	if p.check(token.Minus) || p.check(token.Bang) {
		op := p.advance()
		operand := p.parseUnary()
		return ast.NewUnaryExpr(token.Span{Start: op.Span.Start, End: operand.Span().End}, op.Kind, operand)
	}
	return p.parseCallOrIndex()
}

func (p *Parser) parseCallOrIndex() ast.Expr {
	expr := p.parseAtom()
	for {
		switch {
		case p.check(token.LParen):
			p.advance()
			var args []ast.Expr
			for !p.check(token.RParen) && !p.atEnd() {
				args = append(args, p.parseExpr())
				if !p.match(token.Comma) {
					break
				}
			}
			end := p.expect(token.RParen, ")").Span.End
			expr = ast.NewCallExpr(token.Span{Start: expr.Span().Start, End: end}, expr, args)
		case p.check(token.LBracket):
			p.advance()
			idx := p.parseExpr()
			end := p.expect(token.RBracket, "]").Span.End
			expr = ast.NewIndexExpr(token.Span{Start: expr.Span().Start, End: end}, expr, idx)
		default:
			return expr
		}
	}
}

func (p *Parser) parseAtom() ast.Expr {
	start := p.cur().Span
	switch {
	case p.check(token.IntegerLiteral):
		t := p.advance()
		v, err := strconv.ParseInt(t.Literal, 10, 64)
		if err != nil {
			v = 0
		}
		return ast.NewIntegerLiteral(t.Span, v)
	case p.check(token.FloatLiteral):
		t := p.advance()
		v, _ := strconv.ParseFloat(t.Literal, 64)
		return ast.NewFloatLiteral(t.Span, v)
	case p.check(token.ByteLiteral):
		t := p.advance()
		v, _ := strconv.ParseUint(t.Literal[2:], 16, 8)
		return ast.NewByteLiteral(t.Span, byte(v))
	case p.check(token.CharacterLiteral):
		t := p.advance()
		r := rune(0)
		for _, rr := range t.Literal {
			r = rr
			break
		}
		return ast.NewCharacterLiteral(t.Span, r)
	case p.check(token.StringLiteral):
		t := p.advance()
		return ast.NewStringLiteral(t.Span, t.Literal)
	case p.check(token.KwTrue):
		t := p.advance()
		return ast.NewBooleanLiteral(t.Span, true)
	case p.check(token.KwFalse):
		t := p.advance()
		return ast.NewBooleanLiteral(t.Span, false)
	case p.check(token.Identifier):
		return p.parsePath()
	case p.check(token.LBracket):
		return p.parseList()
	case p.check(token.LBrace):
		b := p.parseBlock()
		return b
	case p.check(token.KwIf):
		return p.parseIf()
	case p.check(token.KwWhile):
		return p.parseWhile()
	case p.check(token.KwFor):
		return p.parseFor()
	case p.check(token.LParen):
		p.advance()
		e := p.parseExpr()
		p.expect(token.RParen, ")")
		return e
	default:
		bad := p.advance()
		p.errs.Add(derrors.New(derrors.ParseError, bad.Span.Start, "unexpected token %s", bad.Kind))
		p.synchronize()
		return ast.NewErrorExpr(token.Span{Start: start.Start, End: bad.Span.End}, "unexpected token")
	}
}

func (p *Parser) parsePath() ast.Expr {
	start := p.cur().Span
	path := []string{p.advance().Literal}
	for p.check(token.Dot) || p.check(token.DoubleColon) {
		p.advance()
		path = append(path, p.expect(token.Identifier, "path segment").Literal)
	}
	end := p.toks[p.pos-1].Span.End
	return ast.NewIdentifier(token.Span{Start: start.Start, End: end}, path)
}

func (p *Parser) parseList() ast.Expr {
	start := p.advance().Span.Start
	var elems []ast.Expr
	for !p.check(token.RBracket) && !p.atEnd() {
		elems = append(elems, p.parseExpr())
		if !p.match(token.Comma) {
			break
		}
	}
	end := p.expect(token.RBracket, "]").Span.End
	return ast.NewListExpr(token.Span{Start: start, End: end}, elems)
}

func (p *Parser) parseIf() ast.Expr {
	start := p.advance().Span.Start // 'if'
	cond := p.parseExpr()
	then := p.parseBlock()
	var els ast.Node
	end := then.Span().End
	if p.match(token.KwElse) {
		if p.check(token.KwIf) {
			elseIf := p.parseIf()
			els = elseIf
			end = elseIf.Span().End
		} else {
			elseBlock := p.parseBlock()
			els = elseBlock
			end = elseBlock.Span().End
		}
	}
	return ast.NewIfExpr(token.Span{Start: start, End: end}, cond, then, els)
}

func (p *Parser) parseWhile() ast.Expr {
	start := p.advance().Span.Start
	cond := p.parseExpr()
	body := p.parseBlock()
	return ast.NewWhileExpr(token.Span{Start: start, End: body.Span().End}, cond, body)
}

func (p *Parser) parseFor() ast.Expr {
	start := p.advance().Span.Start
	binder := p.expect(token.Identifier, "loop variable").Literal
	p.expect(token.KwIn, "in")
	iter := p.parseExpr()
	body := p.parseBlock()
	return ast.NewForExpr(token.Span{Start: start, End: body.Span().End}, binder, iter, body)
}
