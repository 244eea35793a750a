package parser

import (
	"strings"

	"github.com/sambeau/pyfront/pkg/python/ast"
	perrors "github.com/sambeau/pyfront/pkg/python/errors"
	"github.com/sambeau/pyfront/pkg/python/lexer"
)

var augAssignOps = map[lexer.Kind]ast.BinaryOperator{
	lexer.PLUS_ASSIGN:      ast.Add,
	lexer.MINUS_ASSIGN:     ast.Sub,
	lexer.MUL_ASSIGN:       ast.Mult,
	lexer.MATMUL_ASSIGN:    ast.MatMult,
	lexer.DIV_ASSIGN:       ast.Div,
	lexer.MOD_ASSIGN:       ast.Mod,
	lexer.POW_ASSIGN:       ast.Pow,
	lexer.LSHIFT_ASSIGN:    ast.LShift,
	lexer.RSHIFT_ASSIGN:    ast.RShift,
	lexer.OR_ASSIGN:        ast.BitOr,
	lexer.XOR_ASSIGN:       ast.BitXor,
	lexer.AND_ASSIGN:       ast.BitAnd,
	lexer.FLOOR_DIV_ASSIGN: ast.FloorDiv,
}

// parseStatement parses a compound statement, or every simple statement on
// the current line.
func (p *Parser) parseStatement() []ast.Statement {
	switch p.curToken.Kind {
	case lexer.IF:
		return []ast.Statement{p.parseIfStatement()}
	case lexer.WHILE:
		return []ast.Statement{p.parseWhileStatement()}
	case lexer.FOR:
		return []ast.Statement{p.parseForStatement(p.curToken.Start, false)}
	case lexer.WITH:
		return []ast.Statement{p.parseWithStatement(p.curToken.Start, false)}
	case lexer.TRY:
		return []ast.Statement{p.parseTryStatement()}
	case lexer.DEF:
		return []ast.Statement{p.parseFunctionDef(nil, p.curToken.Start, false)}
	case lexer.CLASS:
		return []ast.Statement{p.parseClassDef(nil)}
	case lexer.AT:
		return []ast.Statement{p.parseDecorated()}
	case lexer.ASYNC:
		return []ast.Statement{p.parseAsyncStatement(nil)}
	case lexer.IDENTIFIER:
		if p.curIdentIs("match") && p.looksLikeMatch() {
			return []ast.Statement{p.parseMatchStatement()}
		}
	}
	return p.parseSimpleStatements()
}

// parseSimpleStatements parses ';'-separated simple statements up to the end
// of the line.
func (p *Parser) parseSimpleStatements() []ast.Statement {
	var stmts []ast.Statement
	for {
		stmt := p.parseSimpleStatement()
		stmts = append(stmts, stmt)

		if p.accept(lexer.SEMICOLON) {
			if p.curTokenIs(lexer.NEWLINE) || p.curTokenIs(lexer.EOF) {
				p.accept(lexer.NEWLINE)
				return stmts
			}
			continue
		}
		if p.accept(lexer.NEWLINE) || p.curTokenIs(lexer.EOF) {
			return stmts
		}

		// The next statement starts on the same line. Report it and carry on.
		tok := p.curToken
		if tok.Kind == lexer.ERROR {
			p.lexicalError(tok)
		}
		err := perrors.New("PARSE-0004", nil)
		if es, ok := stmt.(*ast.ExpressionStatement); ok {
			if name, ok := es.Value.(*ast.Name); ok {
				err.SuggestKeyword(name.ID, lexer.Keywords())
			}
		}
		p.record(err, tok)
		if p.curTokenIs(lexer.DEDENT) || p.curTokenIs(lexer.INDENT) {
			return stmts
		}
	}
}

func (p *Parser) parseSimpleStatement() ast.Statement {
	start := p.curToken.Start
	switch p.curToken.Kind {
	case lexer.PASS:
		p.nextToken()
		return &ast.Pass{Node: p.node(start)}
	case lexer.BREAK:
		p.nextToken()
		return &ast.Break{Node: p.node(start)}
	case lexer.CONTINUE:
		p.nextToken()
		return &ast.Continue{Node: p.node(start)}
	case lexer.RETURN:
		return p.parseReturnStatement()
	case lexer.RAISE:
		return p.parseRaiseStatement()
	case lexer.GLOBAL:
		p.nextToken()
		return &ast.Global{Names: p.parseNameList(), Node: p.node(start)}
	case lexer.NONLOCAL:
		p.nextToken()
		return &ast.Nonlocal{Names: p.parseNameList(), Node: p.node(start)}
	case lexer.DEL:
		return p.parseDeleteStatement()
	case lexer.ASSERT:
		return p.parseAssertStatement()
	case lexer.IMPORT:
		return p.parseImportStatement()
	case lexer.FROM:
		return p.parseImportFromStatement()
	case lexer.IDENTIFIER:
		if p.curIdentIs("type") && p.peekTokenIs(lexer.IDENTIFIER) {
			return p.parseTypeAlias()
		}
	}
	return p.parseExpressionOrAssignment()
}

// parseExpressionOrAssignment parses an expression statement, or one of the
// three assignment forms selected by the token after the first expression.
func (p *Parser) parseExpressionOrAssignment() ast.Statement {
	start := p.curToken.Start
	parenthesized := p.curTokenIs(lexer.LPAREN)

	var first ast.Expression
	if p.curTokenIs(lexer.YIELD) {
		first = p.parseYieldExpression()
	} else {
		first = p.parseStarExpressions()
	}

	switch {
	case p.curTokenIs(lexer.COLON):
		p.nextToken()
		p.checkTarget(first, targetAnnotated)
		annotation := p.parseExpression()
		stmt := &ast.AnnAssign{
			Target:     first,
			Annotation: annotation,
			Simple:     !parenthesized && isName(first),
		}
		if p.accept(lexer.ASSIGN) {
			stmt.Value = p.parseAssignedValue()
		}
		stmt.Node = p.node(start)
		return stmt

	case p.curToken.Kind.IsAugAssign():
		op := augAssignOps[p.curToken.Kind]
		p.nextToken()
		p.checkTarget(first, targetAugmented)
		value := p.parseAssignedValue()
		return &ast.AugAssign{Target: first, Op: op, Value: value, Node: p.node(start)}

	case p.curTokenIs(lexer.ASSIGN):
		targets := []ast.Expression{first}
		var value ast.Expression
		for p.accept(lexer.ASSIGN) {
			value = p.parseAssignedValue()
			if p.curTokenIs(lexer.ASSIGN) {
				targets = append(targets, value)
			}
		}
		for _, t := range targets {
			p.checkTarget(t, targetPlain)
		}
		return &ast.Assign{Targets: targets, Value: value, Node: p.node(start)}
	}

	return &ast.ExpressionStatement{Value: first, Node: p.node(start)}
}

// parseAssignedValue parses the right-hand side of an assignment.
func (p *Parser) parseAssignedValue() ast.Expression {
	if p.curTokenIs(lexer.YIELD) {
		return p.parseYieldExpression()
	}
	return p.parseStarExpressions()
}

type targetContext int

const (
	targetPlain targetContext = iota
	targetAugmented
	targetAnnotated
	targetDelete
)

// checkTarget fails unless e may be assigned to (or deleted) in ctx.
func (p *Parser) checkTarget(e ast.Expression, ctx targetContext) {
	switch t := e.(type) {
	case *ast.Name, *ast.Attribute, *ast.Subscript:
		return
	case *ast.Tuple:
		if ctx == targetPlain || ctx == targetDelete {
			for _, elt := range t.Elements {
				p.checkTarget(elt, ctx)
			}
			return
		}
	case *ast.List:
		if ctx == targetPlain || ctx == targetDelete {
			for _, elt := range t.Elements {
				p.checkTarget(elt, ctx)
			}
			return
		}
	case *ast.Starred:
		if ctx == targetPlain {
			p.checkTarget(t.Value, ctx)
			return
		}
	}
	p.syntaxError("PARSE-0011", map[string]any{"Target": targetDescription(e)}, e.GetNode())
}

func targetDescription(e ast.Expression) string {
	switch e.(type) {
	case *ast.Constant:
		return "literal"
	case *ast.Call:
		return "function call"
	case *ast.BinOp, *ast.UnaryOp, *ast.BoolOp:
		return "expression"
	case *ast.Compare:
		return "comparison"
	case *ast.Lambda:
		return "lambda"
	case *ast.Tuple:
		return "tuple"
	case *ast.List:
		return "list"
	case *ast.Starred:
		return "starred"
	case *ast.NamedExpr:
		return "named expression"
	case *ast.JoinedStr:
		return "f-string expression"
	case *ast.Yield, *ast.YieldFrom:
		return "yield expression"
	case *ast.Await:
		return "await expression"
	case *ast.IfExp:
		return "conditional expression"
	case *ast.GeneratorExp, *ast.ListComp, *ast.SetComp, *ast.DictComp:
		return "comprehension"
	case *ast.Dict:
		return "dict literal"
	case *ast.Set:
		return "set display"
	}
	return "expression"
}

func isName(e ast.Expression) bool {
	_, ok := e.(*ast.Name)
	return ok
}

func (p *Parser) parseReturnStatement() ast.Statement {
	start := p.curToken.Start
	p.nextToken()
	stmt := &ast.Return{}
	if startsExpression(p.curToken.Kind) {
		stmt.Value = p.parseStarExpressions()
	}
	stmt.Node = p.node(start)
	return stmt
}

func (p *Parser) parseRaiseStatement() ast.Statement {
	start := p.curToken.Start
	p.nextToken()
	stmt := &ast.Raise{}
	if startsExpression(p.curToken.Kind) {
		stmt.Exc = p.parseExpression()
		if p.accept(lexer.FROM) {
			stmt.Cause = p.parseExpression()
		}
	}
	stmt.Node = p.node(start)
	return stmt
}

func (p *Parser) parseNameList() []string {
	names := []string{p.expectIdent()}
	for p.accept(lexer.COMMA) {
		names = append(names, p.expectIdent())
	}
	return names
}

func (p *Parser) parseDeleteStatement() ast.Statement {
	start := p.curToken.Start
	p.nextToken()
	targets := []ast.Expression{p.parseTarget()}
	for p.accept(lexer.COMMA) {
		if !startsExpression(p.curToken.Kind) {
			break
		}
		targets = append(targets, p.parseTarget())
	}
	for _, t := range targets {
		p.checkTarget(t, targetDelete)
	}
	return &ast.Delete{Targets: targets, Node: p.node(start)}
}

func (p *Parser) parseAssertStatement() ast.Statement {
	start := p.curToken.Start
	p.nextToken()
	stmt := &ast.Assert{Test: p.parseExpression()}
	if p.accept(lexer.COMMA) {
		stmt.Msg = p.parseExpression()
	}
	stmt.Node = p.node(start)
	return stmt
}

// parseDottedName parses 'a.b.c'.
func (p *Parser) parseDottedName() string {
	parts := []string{p.expectIdent()}
	for p.accept(lexer.DOT) {
		parts = append(parts, p.expectIdent())
	}
	return strings.Join(parts, ".")
}

func (p *Parser) parseImportStatement() ast.Statement {
	start := p.curToken.Start
	p.nextToken()
	stmt := &ast.Import{}
	for {
		aliasStart := p.curToken.Start
		alias := &ast.Alias{Name: p.parseDottedName()}
		if p.accept(lexer.AS) {
			alias.AsName = p.expectIdent()
		}
		alias.Node = p.node(aliasStart)
		stmt.Names = append(stmt.Names, alias)
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	stmt.Node = p.node(start)
	return stmt
}

func (p *Parser) parseImportFromStatement() ast.Statement {
	start := p.curToken.Start
	p.nextToken()
	stmt := &ast.ImportFrom{}
	for {
		if p.accept(lexer.DOT) {
			stmt.Level++
		} else if p.accept(lexer.ELLIPSIS) {
			stmt.Level += 3
		} else {
			break
		}
	}
	if !p.curTokenIs(lexer.IMPORT) || stmt.Level == 0 {
		stmt.Module = p.parseDottedName()
	}
	p.expect(lexer.IMPORT)

	if p.curTokenIs(lexer.ASTERISK) {
		starStart := p.curToken.Start
		p.nextToken()
		stmt.Names = []*ast.Alias{{Name: "*", Node: p.node(starStart)}}
		stmt.Node = p.node(start)
		return stmt
	}

	parenthesized := p.accept(lexer.LPAREN)
	for {
		aliasStart := p.curToken.Start
		alias := &ast.Alias{Name: p.expectIdent()}
		if p.accept(lexer.AS) {
			alias.AsName = p.expectIdent()
		}
		alias.Node = p.node(aliasStart)
		stmt.Names = append(stmt.Names, alias)
		if !p.accept(lexer.COMMA) {
			break
		}
		if parenthesized && p.curTokenIs(lexer.RPAREN) {
			break
		}
	}
	if parenthesized {
		p.expect(lexer.RPAREN)
	}
	stmt.Node = p.node(start)
	return stmt
}

// parseTypeAlias parses 'type Name[params] = value'.
func (p *Parser) parseTypeAlias() ast.Statement {
	start := p.curToken.Start
	p.nextToken()
	stmt := &ast.TypeAlias{Name: p.expectIdent()}
	if p.curTokenIs(lexer.LBRACKET) {
		stmt.TypeParams = p.parseTypeParams()
	}
	p.expect(lexer.ASSIGN)
	stmt.Value = p.parseExpression()
	stmt.Node = p.node(start)
	return stmt
}

// ============================================================================
// Blocks and compound statements
// ============================================================================

// parseBlock parses ': suite'. The suite is either the simple statements on
// the rest of the line or an indented block.
func (p *Parser) parseBlock(construct string) []ast.Statement {
	p.expect(lexer.COLON)
	if !p.curTokenIs(lexer.NEWLINE) {
		return p.parseSimpleStatements()
	}
	p.nextToken()
	if !p.curTokenIs(lexer.INDENT) {
		if p.curTokenIs(lexer.ERROR) {
			p.lexicalError(p.curToken)
		}
		p.fail(perrors.New("PARSE-0016", map[string]any{"Construct": construct}), p.curToken)
	}
	p.nextToken()

	var body []ast.Statement
	for !p.curTokenIs(lexer.DEDENT) && !p.curTokenIs(lexer.EOF) {
		if p.accept(lexer.NEWLINE) {
			continue
		}
		if p.curTokenIs(lexer.INDENT) {
			p.fail(perrors.New("PARSE-0003", nil), p.curToken)
		}
		body = append(body, p.parseStatement()...)
	}
	p.accept(lexer.DEDENT)
	return body
}

func (p *Parser) parseIfStatement() ast.Statement {
	start := p.curToken.Start
	p.nextToken() // 'if' or 'elif'
	stmt := &ast.If{Test: p.parseNamedExpression()}
	stmt.Body = p.parseBlock("'if' statement")
	switch {
	case p.curTokenIs(lexer.ELIF):
		stmt.Orelse = []ast.Statement{p.parseIfStatement()}
	case p.curTokenIs(lexer.ELSE):
		p.nextToken()
		stmt.Orelse = p.parseBlock("'else' statement")
	}
	stmt.Node = p.node(start)
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	start := p.curToken.Start
	p.nextToken()
	stmt := &ast.While{Test: p.parseNamedExpression()}
	stmt.Body = p.parseBlock("'while' statement")
	if p.accept(lexer.ELSE) {
		stmt.Orelse = p.parseBlock("'else' statement")
	}
	stmt.Node = p.node(start)
	return stmt
}

func (p *Parser) parseForStatement(start int, isAsync bool) ast.Statement {
	p.expect(lexer.FOR)
	stmt := &ast.For{IsAsync: isAsync}
	stmt.Target = p.parseTargetList()
	p.checkTarget(stmt.Target, targetPlain)
	p.expect(lexer.IN)
	stmt.Iter = p.parseStarExpressions()
	stmt.Body = p.parseBlock("'for' statement")
	if p.accept(lexer.ELSE) {
		stmt.Orelse = p.parseBlock("'else' statement")
	}
	stmt.Node = p.node(start)
	return stmt
}

func (p *Parser) parseWithStatement(start int, isAsync bool) ast.Statement {
	p.expect(lexer.WITH)
	stmt := &ast.With{IsAsync: isAsync}

	if p.curTokenIs(lexer.LPAREN) {
		state := p.saveState()
		var items []*ast.WithItem
		ok := p.try(func() {
			p.nextToken()
			items = p.parseWithItems(lexer.RPAREN)
			p.expect(lexer.RPAREN)
			if !p.curTokenIs(lexer.COLON) {
				p.unexpected()
			}
		})
		if ok {
			stmt.Items = items
		} else {
			p.restoreState(state)
		}
	}
	if stmt.Items == nil {
		stmt.Items = p.parseWithItems(lexer.COLON)
	}

	stmt.Body = p.parseBlock("'with' statement")
	stmt.Node = p.node(start)
	return stmt
}

func (p *Parser) parseWithItems(closing lexer.Kind) []*ast.WithItem {
	var items []*ast.WithItem
	for {
		itemStart := p.curToken.Start
		item := &ast.WithItem{ContextExpr: p.parseExpression()}
		if p.accept(lexer.AS) {
			item.OptionalVars = p.parseTarget()
			p.checkTarget(item.OptionalVars, targetPlain)
		}
		item.Node = p.node(itemStart)
		items = append(items, item)
		if !p.accept(lexer.COMMA) || p.curTokenIs(closing) {
			return items
		}
	}
}

func (p *Parser) parseTryStatement() ast.Statement {
	start := p.curToken.Start
	p.nextToken()
	stmt := &ast.Try{}
	stmt.Body = p.parseBlock("'try' statement")

	for p.curTokenIs(lexer.EXCEPT) {
		handlerStart := p.curToken.Start
		p.nextToken()
		if p.accept(lexer.ASTERISK) {
			stmt.IsStar = true
		}
		handler := &ast.ExceptHandler{}
		if !p.curTokenIs(lexer.COLON) {
			handler.Type = p.parseExpression()
			if p.curTokenIs(lexer.COMMA) {
				handler.Type = p.parseTupleRest(handler.Type, p.parseExpression)
			}
			if p.accept(lexer.AS) {
				handler.Name = p.expectIdent()
			}
		}
		handler.Body = p.parseBlock("'except' statement")
		handler.Node = p.node(handlerStart)
		stmt.Handlers = append(stmt.Handlers, handler)
	}

	if len(stmt.Handlers) > 0 && p.accept(lexer.ELSE) {
		stmt.Orelse = p.parseBlock("'else' statement")
	}
	if p.accept(lexer.FINALLY) {
		stmt.Finalbody = p.parseBlock("'finally' statement")
	}
	if len(stmt.Handlers) == 0 && stmt.Finalbody == nil {
		p.expectError("'except' or 'finally' block", p.curToken)
	}
	stmt.Node = p.node(start)
	return stmt
}

func (p *Parser) parseDecorated() ast.Statement {
	var decorators []ast.Expression
	for p.accept(lexer.AT) {
		decorators = append(decorators, p.parseNamedExpression())
		p.expect(lexer.NEWLINE)
	}
	switch p.curToken.Kind {
	case lexer.DEF:
		return p.parseFunctionDef(decorators, p.curToken.Start, false)
	case lexer.CLASS:
		return p.parseClassDef(decorators)
	case lexer.ASYNC:
		return p.parseAsyncStatement(decorators)
	}
	p.expectError("'def' or 'class' after decorator", p.curToken)
	return nil
}

// parseAsyncStatement parses 'async def', 'async for' and 'async with'.
func (p *Parser) parseAsyncStatement(decorators []ast.Expression) ast.Statement {
	start := p.curToken.Start
	p.nextToken()
	switch p.curToken.Kind {
	case lexer.DEF:
		return p.parseFunctionDef(decorators, start, true)
	case lexer.FOR:
		if decorators == nil {
			return p.parseForStatement(start, true)
		}
	case lexer.WITH:
		if decorators == nil {
			return p.parseWithStatement(start, true)
		}
	}
	p.expectError("'def', 'for' or 'with' after 'async'", p.curToken)
	return nil
}

func (p *Parser) parseFunctionDef(decorators []ast.Expression, start int, isAsync bool) ast.Statement {
	p.expect(lexer.DEF)
	stmt := &ast.FunctionDef{
		Name:          p.expectIdent(),
		DecoratorList: decorators,
		IsAsync:       isAsync,
	}
	if p.curTokenIs(lexer.LBRACKET) {
		stmt.TypeParams = p.parseTypeParams()
	}
	p.expect(lexer.LPAREN)
	stmt.Args = p.parseParameters(lexer.RPAREN, true)
	p.expect(lexer.RPAREN)
	if p.accept(lexer.ARROW) {
		stmt.Returns = p.parseExpression()
	}
	stmt.Body = p.parseBlock("function definition")
	stmt.Node = p.node(start)
	return stmt
}

func (p *Parser) parseClassDef(decorators []ast.Expression) ast.Statement {
	start := p.curToken.Start
	p.expect(lexer.CLASS)
	stmt := &ast.ClassDef{Name: p.expectIdent(), DecoratorList: decorators}
	if p.curTokenIs(lexer.LBRACKET) {
		stmt.TypeParams = p.parseTypeParams()
	}
	if p.accept(lexer.LPAREN) {
		stmt.Bases, stmt.Keywords = p.parseCallArguments()
		p.expect(lexer.RPAREN)
	}
	stmt.Body = p.parseBlock("class definition")
	stmt.Node = p.node(start)
	return stmt
}

// parseTypeParams parses '[T, *Ts, **P]'.
func (p *Parser) parseTypeParams() []ast.TypeParam {
	open := p.expect(lexer.LBRACKET)
	if p.curTokenIs(lexer.RBRACKET) {
		p.fail(perrors.New("PARSE-0010", nil), open)
	}
	var params []ast.TypeParam
	for !p.curTokenIs(lexer.RBRACKET) {
		start := p.curToken.Start
		switch {
		case p.accept(lexer.ASTERISK):
			name := p.expectIdent()
			params = append(params, &ast.TypeVarTuple{Name: name, Node: p.node(start)})
		case p.accept(lexer.POWER):
			name := p.expectIdent()
			params = append(params, &ast.ParamSpec{Name: name, Node: p.node(start)})
		default:
			param := &ast.TypeVar{Name: p.expectIdent()}
			if p.accept(lexer.COLON) {
				param.Bound = p.parseExpression()
			}
			param.Node = p.node(start)
			params = append(params, param)
		}
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	p.expect(lexer.RBRACKET)
	return params
}

// parseParameters parses a def or lambda parameter list up to closing.
// Annotations are only accepted in a def.
func (p *Parser) parseParameters(closing lexer.Kind, annotated bool) *ast.Arguments {
	start := p.curToken.Start
	args := &ast.Arguments{}
	seen := map[string]bool{}
	seenDefault := false
	seenStar := false

	param := func(star bool) *ast.Arg {
		paramStart := p.curToken.Start
		tok := p.curToken
		arg := &ast.Arg{Name: p.expectIdent()}
		if seen[arg.Name] {
			p.fail(perrors.New("PARSE-0015", map[string]any{"Name": arg.Name}), tok)
		}
		seen[arg.Name] = true
		if annotated && p.accept(lexer.COLON) {
			if star {
				arg.Annotation = p.parseStarExpression()
			} else {
				arg.Annotation = p.parseExpression()
			}
		}
		arg.Node = p.node(paramStart)
		return arg
	}

	for !p.curTokenIs(closing) {
		switch {
		case p.curTokenIs(lexer.SLASH):
			if seenStar || len(args.PosOnlyArgs) > 0 || len(args.Args) == 0 {
				p.unexpected()
			}
			p.nextToken()
			args.PosOnlyArgs, args.Args = args.Args, nil

		case p.curTokenIs(lexer.ASTERISK):
			if seenStar {
				p.unexpected()
			}
			p.nextToken()
			seenStar = true
			if p.curTokenIs(lexer.IDENTIFIER) {
				args.Vararg = param(true)
				if p.curTokenIs(lexer.ASSIGN) {
					p.fail(perrors.New("PARSE-0006", nil), p.curToken)
				}
			}

		case p.curTokenIs(lexer.POWER):
			p.nextToken()
			args.Kwarg = param(false)
			if p.curTokenIs(lexer.ASSIGN) {
				p.fail(perrors.New("PARSE-0007", nil), p.curToken)
			}
			p.accept(lexer.COMMA)
			if !p.curTokenIs(closing) {
				p.unexpected()
			}
			args.Node = p.node(start)
			return args

		default:
			tok := p.curToken
			arg := param(false)
			if p.accept(lexer.ASSIGN) {
				def := p.parseExpression()
				if seenStar {
					args.KwDefaults = append(args.KwDefaults, def)
				} else {
					args.Defaults = append(args.Defaults, def)
					seenDefault = true
				}
			} else if seenStar {
				args.KwDefaults = append(args.KwDefaults, nil)
			} else if seenDefault {
				p.fail(perrors.New("PARSE-0005", map[string]any{"Name": arg.Name}), tok)
			}
			if seenStar {
				args.KwOnlyArgs = append(args.KwOnlyArgs, arg)
			} else {
				args.Args = append(args.Args, arg)
			}
		}
		if !p.accept(lexer.COMMA) {
			break
		}
	}

	args.Node = p.node(start)
	return args
}

// ============================================================================
// Match statement
// ============================================================================

// looksLikeMatch decides whether a 'match' identifier starts a match
// statement: a subject followed by ':' and the end of the line.
func (p *Parser) looksLikeMatch() bool {
	state := p.saveState()
	defer p.restoreState(state)
	ok := p.try(func() {
		p.nextToken()
		if !startsExpression(p.curToken.Kind) {
			p.unexpected()
		}
		p.parseMatchSubject()
	})
	return ok && p.curTokenIs(lexer.COLON) && p.peekTokenIs(lexer.NEWLINE)
}

func (p *Parser) parseMatchSubject() ast.Expression {
	start := p.curToken.Start
	first := p.parseStarNamedExpression()
	if !p.curTokenIs(lexer.COMMA) {
		return first
	}
	elements := []ast.Expression{first}
	for p.accept(lexer.COMMA) {
		if !startsExpression(p.curToken.Kind) {
			break
		}
		elements = append(elements, p.parseStarNamedExpression())
	}
	return &ast.Tuple{Elements: elements, Node: p.node(start)}
}

func (p *Parser) parseMatchStatement() ast.Statement {
	start := p.curToken.Start
	p.nextToken()
	stmt := &ast.Match{Subject: p.parseMatchSubject()}
	p.expect(lexer.COLON)
	p.expect(lexer.NEWLINE)
	if !p.curTokenIs(lexer.INDENT) {
		p.fail(perrors.New("PARSE-0016", map[string]any{"Construct": "'match' statement"}), p.curToken)
	}
	p.nextToken()

	for !p.curTokenIs(lexer.DEDENT) && !p.curTokenIs(lexer.EOF) {
		if p.accept(lexer.NEWLINE) {
			continue
		}
		if !p.curIdentIs("case") {
			p.expectError("'case'", p.curToken)
		}
		stmt.Cases = append(stmt.Cases, p.parseMatchCase())
	}
	p.accept(lexer.DEDENT)
	if len(stmt.Cases) == 0 {
		p.expectError("'case'", p.curToken)
	}
	stmt.Node = p.node(start)
	return stmt
}

func (p *Parser) parseMatchCase() *ast.MatchCase {
	start := p.curToken.Start
	p.nextToken()
	c := &ast.MatchCase{Pattern: p.parseCasePattern()}
	if p.accept(lexer.IF) {
		c.Guard = p.parseNamedExpression()
	}
	c.Body = p.parseBlock("'case' statement")
	c.Node = p.node(start)
	return c
}
