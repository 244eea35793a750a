package parser

import (
	"github.com/sambeau/pyfront/pkg/python/ast"
	"github.com/sambeau/pyfront/pkg/python/lexer"
)

// startsExpression reports whether a token of kind k can begin an expression.
func startsExpression(k lexer.Kind) bool {
	if k.IsNumber() || k.IsString() {
		return true
	}
	switch k {
	case lexer.IDENTIFIER, lexer.NONE, lexer.TRUE, lexer.FALSE, lexer.ELLIPSIS,
		lexer.LPAREN, lexer.LBRACKET, lexer.LBRACE,
		lexer.MINUS, lexer.PLUS, lexer.TILDE, lexer.NOT, lexer.LAMBDA, lexer.AWAIT,
		lexer.ASTERISK, lexer.YIELD:
		return true
	}
	return false
}

// parseStarExpressions parses 'a, *b, c' as a Tuple, or a lone expression.
func (p *Parser) parseStarExpressions() ast.Expression {
	first := p.parseStarExpression()
	if !p.curTokenIs(lexer.COMMA) {
		return first
	}
	return p.parseTupleRest(first, p.parseStarExpression)
}

// parseTupleRest collects the unparenthesized tuple whose first element
// has already been parsed. A trailing comma is allowed.
func (p *Parser) parseTupleRest(first ast.Expression, element func() ast.Expression) ast.Expression {
	start := first.GetNode().Start
	elements := []ast.Expression{first}
	for p.accept(lexer.COMMA) {
		if !startsExpression(p.curToken.Kind) || p.curTokenIs(lexer.YIELD) {
			break
		}
		elements = append(elements, element())
	}
	return &ast.Tuple{Elements: elements, Node: p.node(start)}
}

func (p *Parser) parseStarExpression() ast.Expression {
	if p.curTokenIs(lexer.ASTERISK) {
		start := p.curToken.Start
		p.nextToken()
		value := p.parseBitwiseOr()
		return &ast.Starred{Value: value, Node: p.node(start)}
	}
	return p.parseExpression()
}

// parseStarNamedExpression parses a display element: '*x', 'x := v' or an
// expression.
func (p *Parser) parseStarNamedExpression() ast.Expression {
	if p.curTokenIs(lexer.ASTERISK) {
		return p.parseStarExpression()
	}
	return p.parseNamedExpression()
}

// parseNamedExpression parses 'name := value' or an expression.
func (p *Parser) parseNamedExpression() ast.Expression {
	if p.curTokenIs(lexer.IDENTIFIER) && p.peekTokenIs(lexer.WALRUS) {
		start := p.curToken.Start
		target := p.parseAtom()
		p.expect(lexer.WALRUS)
		value := p.parseExpression()
		return &ast.NamedExpr{Target: target, Value: value, Node: p.node(start)}
	}
	return p.parseExpression()
}

// parseExpression parses a conditional expression or a lambda.
func (p *Parser) parseExpression() ast.Expression {
	if p.curTokenIs(lexer.LAMBDA) {
		return p.parseLambda()
	}
	start := p.curToken.Start
	body := p.parseDisjunction()
	if !p.accept(lexer.IF) {
		return body
	}
	test := p.parseDisjunction()
	p.expect(lexer.ELSE)
	orelse := p.parseExpression()
	return &ast.IfExp{Test: test, Body: body, Orelse: orelse, Node: p.node(start)}
}

func (p *Parser) parseLambda() ast.Expression {
	start := p.curToken.Start
	p.expect(lexer.LAMBDA)
	args := p.parseParameters(lexer.COLON, false)
	p.expect(lexer.COLON)
	body := p.parseExpression()
	return &ast.Lambda{Args: args, Body: body, Node: p.node(start)}
}

func (p *Parser) parseYieldExpression() ast.Expression {
	start := p.curToken.Start
	p.expect(lexer.YIELD)
	if p.accept(lexer.FROM) {
		value := p.parseExpression()
		return &ast.YieldFrom{Value: value, Node: p.node(start)}
	}
	y := &ast.Yield{}
	if startsExpression(p.curToken.Kind) && !p.curTokenIs(lexer.YIELD) {
		y.Value = p.parseStarExpressions()
	}
	y.Node = p.node(start)
	return y
}

// ============================================================================
// Boolean and comparison operators
// ============================================================================

func (p *Parser) parseDisjunction() ast.Expression {
	return p.parseBoolOp(lexer.OR, ast.Or, p.parseConjunction)
}

func (p *Parser) parseConjunction() ast.Expression {
	return p.parseBoolOp(lexer.AND, ast.And, p.parseInversion)
}

func (p *Parser) parseBoolOp(tok lexer.Kind, op ast.BoolOperator, operand func() ast.Expression) ast.Expression {
	start := p.curToken.Start
	first := operand()
	if !p.curTokenIs(tok) {
		return first
	}
	values := []ast.Expression{first}
	for p.accept(tok) {
		values = append(values, operand())
	}
	return &ast.BoolOp{Op: op, Values: values, Node: p.node(start)}
}

func (p *Parser) parseInversion() ast.Expression {
	if p.curTokenIs(lexer.NOT) {
		start := p.curToken.Start
		p.nextToken()
		operand := p.parseInversion()
		return &ast.UnaryOp{Op: ast.Not, Operand: operand, Node: p.node(start)}
	}
	return p.parseComparison()
}

var comparisonOps = map[lexer.Kind]ast.CmpOperator{
	lexer.EQ:     ast.Eq,
	lexer.NOT_EQ: ast.NotEq,
	lexer.LT:     ast.Lt,
	lexer.LTE:    ast.LtE,
	lexer.GT:     ast.Gt,
	lexer.GTE:    ast.GtE,
	lexer.IN:     ast.In,
}

// comparisonOperator consumes a comparison operator, including the two-word
// 'not in' and 'is not'.
func (p *Parser) comparisonOperator() (ast.CmpOperator, bool) {
	if op, ok := comparisonOps[p.curToken.Kind]; ok {
		p.nextToken()
		return op, true
	}
	switch p.curToken.Kind {
	case lexer.IS:
		p.nextToken()
		if p.accept(lexer.NOT) {
			return ast.IsNot, true
		}
		return ast.Is, true
	case lexer.NOT:
		if p.peekTokenIs(lexer.IN) {
			p.nextToken()
			p.nextToken()
			return ast.NotIn, true
		}
	}
	return 0, false
}

func (p *Parser) parseComparison() ast.Expression {
	start := p.curToken.Start
	left := p.parseBitwiseOr()
	var ops []ast.CmpOperator
	var comparators []ast.Expression
	for {
		op, ok := p.comparisonOperator()
		if !ok {
			break
		}
		ops = append(ops, op)
		comparators = append(comparators, p.parseBitwiseOr())
	}
	if len(ops) == 0 {
		return left
	}
	return &ast.Compare{Left: left, Ops: ops, Comparators: comparators, Node: p.node(start)}
}

// ============================================================================
// Binary operators, lowest precedence first
// ============================================================================

var (
	bitOrOps  = map[lexer.Kind]ast.BinaryOperator{lexer.PIPE: ast.BitOr}
	bitXorOps = map[lexer.Kind]ast.BinaryOperator{lexer.CARET: ast.BitXor}
	bitAndOps = map[lexer.Kind]ast.BinaryOperator{lexer.AMPERSAND: ast.BitAnd}
)

var shiftOps = map[lexer.Kind]ast.BinaryOperator{
	lexer.LSHIFT: ast.LShift,
	lexer.RSHIFT: ast.RShift,
}

var sumOps = map[lexer.Kind]ast.BinaryOperator{
	lexer.PLUS:  ast.Add,
	lexer.MINUS: ast.Sub,
}

var termOps = map[lexer.Kind]ast.BinaryOperator{
	lexer.ASTERISK:     ast.Mult,
	lexer.SLASH:        ast.Div,
	lexer.DOUBLE_SLASH: ast.FloorDiv,
	lexer.PERCENT:      ast.Mod,
	lexer.AT:           ast.MatMult,
}

func (p *Parser) parseBitwiseOr() ast.Expression {
	return p.parseBinary(p.parseBitwiseXor, bitOrOps)
}

func (p *Parser) parseBitwiseXor() ast.Expression {
	return p.parseBinary(p.parseBitwiseAnd, bitXorOps)
}

func (p *Parser) parseBitwiseAnd() ast.Expression {
	return p.parseBinary(p.parseShift, bitAndOps)
}

func (p *Parser) parseShift() ast.Expression {
	return p.parseBinary(p.parseSum, shiftOps)
}

func (p *Parser) parseSum() ast.Expression {
	return p.parseBinary(p.parseTerm, sumOps)
}

func (p *Parser) parseTerm() ast.Expression {
	return p.parseBinary(p.parseFactor, termOps)
}

// parseBinary parses a left-associative chain of the operators in ops.
func (p *Parser) parseBinary(operand func() ast.Expression, ops map[lexer.Kind]ast.BinaryOperator) ast.Expression {
	start := p.curToken.Start
	left := operand()
	for {
		op, ok := ops[p.curToken.Kind]
		if !ok {
			return left
		}
		p.nextToken()
		right := operand()
		left = &ast.BinOp{Op: op, Left: left, Right: right, Node: p.node(start)}
	}
}

var unaryOps = map[lexer.Kind]ast.UnaryOperator{
	lexer.PLUS:  ast.UAdd,
	lexer.MINUS: ast.USub,
	lexer.TILDE: ast.Invert,
}

func (p *Parser) parseFactor() ast.Expression {
	if op, ok := unaryOps[p.curToken.Kind]; ok {
		start := p.curToken.Start
		p.nextToken()
		operand := p.parseFactor()
		return &ast.UnaryOp{Op: op, Operand: operand, Node: p.node(start)}
	}
	return p.parsePower()
}

// parsePower parses 'await primary ** factor'. The power operator is
// right-associative and binds tighter than a unary operator on its left.
func (p *Parser) parsePower() ast.Expression {
	start := p.curToken.Start
	var base ast.Expression
	if p.accept(lexer.AWAIT) {
		value := p.parsePrimary()
		base = &ast.Await{Value: value, Node: p.node(start)}
	} else {
		base = p.parsePrimary()
	}
	if !p.accept(lexer.POWER) {
		return base
	}
	exponent := p.parseFactor()
	return &ast.BinOp{Op: ast.Pow, Left: base, Right: exponent, Node: p.node(start)}
}

// ============================================================================
// Primaries: attribute access, calls and subscripts
// ============================================================================

func (p *Parser) parsePrimary() ast.Expression {
	start := p.curToken.Start
	expr := p.parseAtom()
	for {
		switch p.curToken.Kind {
		case lexer.DOT:
			p.nextToken()
			attr := p.expectIdent()
			expr = &ast.Attribute{Value: expr, Attr: attr, Node: p.node(start)}
		case lexer.LPAREN:
			p.nextToken()
			args, keywords := p.parseCallArguments()
			p.expect(lexer.RPAREN)
			expr = &ast.Call{Func: expr, Args: args, Keywords: keywords, Node: p.node(start)}
		case lexer.LBRACKET:
			p.nextToken()
			slice := p.parseSlices()
			p.expect(lexer.RBRACKET)
			expr = &ast.Subscript{Value: expr, Slice: slice, Node: p.node(start)}
		default:
			return expr
		}
	}
}

// parseCallArguments parses call arguments up to, not including, ')'.
// It is shared with class bases.
func (p *Parser) parseCallArguments() ([]ast.Expression, []*ast.Keyword) {
	var args []ast.Expression
	var keywords []*ast.Keyword
	sawKeyword := false
	sawDoubleStar := false

	for !p.curTokenIs(lexer.RPAREN) {
		start := p.curToken.Start
		switch {
		case p.curTokenIs(lexer.ASTERISK):
			p.nextToken()
			value := p.parseExpression()
			starred := &ast.Starred{Value: value, Node: p.node(start)}
			if sawDoubleStar {
				p.syntaxError("PARSE-0018", nil, starred.Node)
			}
			args = append(args, starred)

		case p.curTokenIs(lexer.POWER):
			p.nextToken()
			value := p.parseExpression()
			keywords = append(keywords, &ast.Keyword{Value: value, Node: p.node(start)})
			sawKeyword = true
			sawDoubleStar = true

		case p.curTokenIs(lexer.IDENTIFIER) && p.peekTokenIs(lexer.ASSIGN):
			name := p.expectIdent()
			p.expect(lexer.ASSIGN)
			value := p.parseExpression()
			keywords = append(keywords, &ast.Keyword{Arg: name, Value: value, Node: p.node(start)})
			sawKeyword = true

		default:
			tok := p.curToken
			arg := p.parseNamedExpression()
			if p.curTokenIs(lexer.FOR) || p.curTokenIs(lexer.ASYNC) {
				generators := p.parseComprehensions()
				arg = &ast.GeneratorExp{Element: arg, Generators: generators, Node: p.node(start)}
				// a bare generator must be the only argument
				if len(args) > 0 || len(keywords) > 0 || p.curTokenIs(lexer.COMMA) {
					p.syntaxError("PARSE-0019", nil, arg.GetNode())
				}
			}
			if sawKeyword {
				p.syntaxError("PARSE-0008", nil, ast.NewNode(tok.Start, p.prevEnd))
			}
			args = append(args, arg)
		}
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	return args, keywords
}

// parseSlices parses the contents of '[...]' after a primary. Several
// comma-separated items form a Tuple.
func (p *Parser) parseSlices() ast.Expression {
	start := p.curToken.Start
	first := p.parseSlice()
	if !p.curTokenIs(lexer.COMMA) {
		return first
	}
	elements := []ast.Expression{first}
	for p.accept(lexer.COMMA) {
		if p.curTokenIs(lexer.RBRACKET) {
			break
		}
		elements = append(elements, p.parseSlice())
	}
	return &ast.Tuple{Elements: elements, Node: p.node(start)}
}

// parseSlice parses 'lower:upper:step' with every part optional, or a
// plain index.
func (p *Parser) parseSlice() ast.Expression {
	start := p.curToken.Start
	var lower ast.Expression
	if !p.curTokenIs(lexer.COLON) {
		lower = p.parseStarNamedExpression()
		if !p.curTokenIs(lexer.COLON) {
			return lower
		}
	}
	p.expect(lexer.COLON)
	slice := &ast.Slice{Lower: lower}
	if !p.endsSlicePart() {
		slice.Upper = p.parseExpression()
	}
	if p.accept(lexer.COLON) && !p.endsSlicePart() {
		slice.Step = p.parseExpression()
	}
	slice.Node = p.node(start)
	return slice
}

func (p *Parser) endsSlicePart() bool {
	switch p.curToken.Kind {
	case lexer.COLON, lexer.COMMA, lexer.RBRACKET:
		return true
	}
	return false
}

// ============================================================================
// Atoms
// ============================================================================

func (p *Parser) parseAtom() ast.Expression {
	tok := p.curToken
	start := tok.Start

	switch {
	case tok.Kind == lexer.IDENTIFIER:
		p.nextToken()
		return &ast.Name{ID: tok.Value.Text, Node: p.node(start)}
	case tok.Kind.IsNumber():
		p.nextToken()
		return &ast.Constant{Value: numberValue(tok), Node: p.node(start)}
	case tok.Kind.IsString():
		return p.parseStrings()
	}

	switch tok.Kind {
	case lexer.NONE:
		p.nextToken()
		return &ast.Constant{Value: ast.NoneValue{}, Node: p.node(start)}
	case lexer.TRUE:
		p.nextToken()
		return &ast.Constant{Value: ast.BoolValue(true), Node: p.node(start)}
	case lexer.FALSE:
		p.nextToken()
		return &ast.Constant{Value: ast.BoolValue(false), Node: p.node(start)}
	case lexer.ELLIPSIS:
		p.nextToken()
		return &ast.Constant{Value: ast.EllipsisValue{}, Node: p.node(start)}
	case lexer.LPAREN:
		return p.parseParenthesized()
	case lexer.LBRACKET:
		return p.parseListDisplay()
	case lexer.LBRACE:
		return p.parseBraceDisplay()
	}

	p.unexpected()
	return nil
}

// numberValue keeps the literal text; the kind decides int, float or complex.
func numberValue(tok lexer.Token) ast.ConstantValue {
	text := tok.Value.Text
	switch tok.Kind {
	case lexer.POINT_FLOAT, lexer.EXPONENT_FLOAT:
		return ast.FloatValue(text)
	case lexer.IMAGINARY_INTEGER, lexer.IMAGINARY_POINT_FLOAT, lexer.IMAGINARY_EXPONENT_FLOAT:
		return ast.ComplexValue{Real: "0", Imaginary: text}
	}
	return ast.IntValue(text)
}

// parseParenthesized disambiguates '()' (empty tuple), '(x)' (the bare
// expression), '(x,)' and '(x, y)' (tuples), '(x for ...)' (a generator)
// and '(yield x)'.
func (p *Parser) parseParenthesized() ast.Expression {
	start := p.curToken.Start
	p.expect(lexer.LPAREN)

	if p.accept(lexer.RPAREN) {
		return &ast.Tuple{Node: p.node(start)}
	}
	if p.curTokenIs(lexer.YIELD) {
		y := p.parseYieldExpression()
		p.expect(lexer.RPAREN)
		return y
	}

	first := p.parseStarNamedExpression()
	if p.curTokenIs(lexer.FOR) || p.curTokenIs(lexer.ASYNC) {
		p.checkNotStarred(first, "PARSE-0021")
		generators := p.parseComprehensions()
		p.expect(lexer.RPAREN)
		return &ast.GeneratorExp{Element: first, Generators: generators, Node: p.node(start)}
	}
	if p.accept(lexer.RPAREN) {
		p.checkNotStarred(first, "PARSE-0020")
		return first
	}

	elements := []ast.Expression{first}
	for p.accept(lexer.COMMA) {
		if p.curTokenIs(lexer.RPAREN) {
			break
		}
		elements = append(elements, p.parseStarNamedExpression())
	}
	p.expect(lexer.RPAREN)
	return &ast.Tuple{Elements: elements, Node: p.node(start)}
}

// checkNotStarred fails with code when e is a starred expression.
func (p *Parser) checkNotStarred(e ast.Expression, code string) {
	if starred, ok := e.(*ast.Starred); ok {
		p.syntaxError(code, nil, starred.Node)
	}
}

// parseListDisplay parses '[...]' as a List or a ListComp.
func (p *Parser) parseListDisplay() ast.Expression {
	start := p.curToken.Start
	p.expect(lexer.LBRACKET)

	if p.accept(lexer.RBRACKET) {
		return &ast.List{Node: p.node(start)}
	}

	first := p.parseStarNamedExpression()
	if p.curTokenIs(lexer.FOR) || p.curTokenIs(lexer.ASYNC) {
		p.checkNotStarred(first, "PARSE-0021")
		generators := p.parseComprehensions()
		p.expect(lexer.RBRACKET)
		return &ast.ListComp{Element: first, Generators: generators, Node: p.node(start)}
	}

	elements := []ast.Expression{first}
	for p.accept(lexer.COMMA) {
		if p.curTokenIs(lexer.RBRACKET) {
			break
		}
		elements = append(elements, p.parseStarNamedExpression())
	}
	p.expect(lexer.RBRACKET)
	return &ast.List{Elements: elements, Node: p.node(start)}
}

// parseBraceDisplay parses '{...}'. A ':' after the first element makes a
// dict, a following 'for' a comprehension, anything else a set. '{}' is an
// empty dict.
func (p *Parser) parseBraceDisplay() ast.Expression {
	start := p.curToken.Start
	p.expect(lexer.LBRACE)

	if p.accept(lexer.RBRACE) {
		return &ast.Dict{Node: p.node(start)}
	}

	if p.accept(lexer.POWER) {
		mapping := p.parseBitwiseOr()
		return p.parseDictRest(start, nil, mapping)
	}

	first := p.parseStarNamedExpression()
	if p.accept(lexer.COLON) {
		value := p.parseExpression()
		if p.curTokenIs(lexer.FOR) || p.curTokenIs(lexer.ASYNC) {
			generators := p.parseComprehensions()
			p.expect(lexer.RBRACE)
			return &ast.DictComp{Key: first, Value: value, Generators: generators, Node: p.node(start)}
		}
		return p.parseDictRest(start, first, value)
	}

	if p.curTokenIs(lexer.FOR) || p.curTokenIs(lexer.ASYNC) {
		generators := p.parseComprehensions()
		p.expect(lexer.RBRACE)
		return &ast.SetComp{Element: first, Generators: generators, Node: p.node(start)}
	}

	elements := []ast.Expression{first}
	for p.accept(lexer.COMMA) {
		if p.curTokenIs(lexer.RBRACE) {
			break
		}
		elements = append(elements, p.parseStarNamedExpression())
	}
	p.expect(lexer.RBRACE)
	return &ast.Set{Elements: elements, Node: p.node(start)}
}

// parseDictRest finishes a dict whose first entry is parsed. A nil key is
// a '**mapping' entry.
func (p *Parser) parseDictRest(start int, key, value ast.Expression) ast.Expression {
	dict := &ast.Dict{
		Keys:   []ast.Expression{key},
		Values: []ast.Expression{value},
	}
	for p.accept(lexer.COMMA) {
		if p.curTokenIs(lexer.RBRACE) {
			break
		}
		if p.accept(lexer.POWER) {
			dict.Keys = append(dict.Keys, nil)
			dict.Values = append(dict.Values, p.parseBitwiseOr())
			continue
		}
		k := p.parseExpression()
		p.expect(lexer.COLON)
		dict.Keys = append(dict.Keys, k)
		dict.Values = append(dict.Values, p.parseExpression())
	}
	p.expect(lexer.RBRACE)
	dict.Node = p.node(start)
	return dict
}

// parseComprehensions parses one or more 'async? for target in iter if cond'
// clauses.
func (p *Parser) parseComprehensions() []*ast.Comprehension {
	var generators []*ast.Comprehension
	for p.curTokenIs(lexer.FOR) || (p.curTokenIs(lexer.ASYNC) && p.peekTokenIs(lexer.FOR)) {
		start := p.curToken.Start
		gen := &ast.Comprehension{IsAsync: p.accept(lexer.ASYNC)}
		p.expect(lexer.FOR)
		gen.Target = p.parseTargetList()
		p.checkTarget(gen.Target, targetPlain)
		p.expect(lexer.IN)
		gen.Iter = p.parseDisjunction()
		for p.accept(lexer.IF) {
			gen.Ifs = append(gen.Ifs, p.parseDisjunction())
		}
		gen.Node = p.node(start)
		generators = append(generators, gen)
	}
	return generators
}

// parseTarget parses one assignment target of a for, with or del.
func (p *Parser) parseTarget() ast.Expression {
	if p.curTokenIs(lexer.ASTERISK) {
		start := p.curToken.Start
		p.nextToken()
		value := p.parseBitwiseOr()
		return &ast.Starred{Value: value, Node: p.node(start)}
	}
	return p.parseBitwiseOr()
}

// parseTargetList parses 'a, (b, c), *d' up to 'in'.
func (p *Parser) parseTargetList() ast.Expression {
	first := p.parseTarget()
	if !p.curTokenIs(lexer.COMMA) {
		return first
	}
	start := first.GetNode().Start
	elements := []ast.Expression{first}
	for p.accept(lexer.COMMA) {
		if p.curTokenIs(lexer.IN) {
			break
		}
		elements = append(elements, p.parseTarget())
	}
	return &ast.Tuple{Elements: elements, Node: p.node(start)}
}
