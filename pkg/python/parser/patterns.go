package parser

import (
	"github.com/sambeau/pyfront/pkg/python/ast"
	perrors "github.com/sambeau/pyfront/pkg/python/errors"
	"github.com/sambeau/pyfront/pkg/python/lexer"
)

// parseCasePattern parses the pattern of a case clause. A top-level
// comma makes an open sequence pattern.
func (p *Parser) parseCasePattern() ast.Pattern {
	start := p.curToken.Start
	first := p.parseMaybeStarPattern()
	if !p.curTokenIs(lexer.COMMA) {
		return first
	}
	patterns := []ast.Pattern{first}
	for p.accept(lexer.COMMA) {
		if p.curTokenIs(lexer.COLON) || p.curTokenIs(lexer.IF) {
			break
		}
		patterns = append(patterns, p.parseMaybeStarPattern())
	}
	return &ast.MatchSequence{Patterns: patterns, Node: p.node(start)}
}

// parseMaybeStarPattern parses '*name', '*_' or a pattern.
func (p *Parser) parseMaybeStarPattern() ast.Pattern {
	if !p.curTokenIs(lexer.ASTERISK) {
		return p.parsePattern()
	}
	start := p.curToken.Start
	p.nextToken()
	name := p.expectIdent()
	if name == "_" {
		name = ""
	}
	return &ast.MatchStar{Name: name, Node: p.node(start)}
}

// parsePattern parses 'or_pattern' optionally followed by 'as name'.
func (p *Parser) parsePattern() ast.Pattern {
	start := p.curToken.Start
	pattern := p.parseOrPattern()
	if !p.accept(lexer.AS) {
		return pattern
	}
	tok := p.curToken
	name := p.expectIdent()
	if name == "_" {
		p.fail(perrors.New("PARSE-0011", map[string]any{"Target": "'_' in an as-pattern"}), tok)
	}
	return &ast.MatchAs{Pattern: pattern, Name: name, Node: p.node(start)}
}

func (p *Parser) parseOrPattern() ast.Pattern {
	start := p.curToken.Start
	first := p.parseClosedPattern()
	if !p.curTokenIs(lexer.PIPE) {
		return first
	}
	patterns := []ast.Pattern{first}
	for p.accept(lexer.PIPE) {
		patterns = append(patterns, p.parseClosedPattern())
	}
	return &ast.MatchOr{Patterns: patterns, Node: p.node(start)}
}

// parseClosedPattern picks the pattern form from the current token and, for
// names, the token after it.
func (p *Parser) parseClosedPattern() ast.Pattern {
	tok := p.curToken
	start := tok.Start

	switch {
	case tok.Kind.IsNumber() || tok.Kind == lexer.MINUS:
		value := p.parseSignedNumber()
		return &ast.MatchValue{Value: value, Node: p.node(start)}
	case tok.Kind.IsString():
		value := p.parseStrings()
		if _, ok := value.(*ast.JoinedStr); ok {
			p.syntaxError("PARSE-0013", map[string]any{"Problem": "patterns may not match f-strings"}, value.GetNode())
		}
		return &ast.MatchValue{Value: value, Node: p.node(start)}
	}

	switch tok.Kind {
	case lexer.NONE:
		p.nextToken()
		return &ast.MatchSingleton{Value: ast.NoneValue{}, Node: p.node(start)}
	case lexer.TRUE:
		p.nextToken()
		return &ast.MatchSingleton{Value: ast.BoolValue(true), Node: p.node(start)}
	case lexer.FALSE:
		p.nextToken()
		return &ast.MatchSingleton{Value: ast.BoolValue(false), Node: p.node(start)}
	case lexer.LPAREN:
		return p.parseGroupOrSequencePattern()
	case lexer.LBRACKET:
		p.nextToken()
		patterns := p.parseSequencePatterns(lexer.RBRACKET)
		p.expect(lexer.RBRACKET)
		return &ast.MatchSequence{Patterns: patterns, Node: p.node(start)}
	case lexer.LBRACE:
		return p.parseMappingPattern()
	case lexer.IDENTIFIER:
		next := p.peekToken().Kind
		if next == lexer.DOT || next == lexer.LPAREN {
			cls := p.parseNameOrAttribute()
			if p.curTokenIs(lexer.LPAREN) {
				return p.parseClassPattern(start, cls)
			}
			return &ast.MatchValue{Value: cls, Node: p.node(start)}
		}
		p.nextToken()
		if tok.Value.Text == "_" {
			return &ast.MatchAs{Node: p.node(start)}
		}
		return &ast.MatchAs{Name: tok.Value.Text, Node: p.node(start)}
	}

	p.unexpected()
	return nil
}

// parseSignedNumber parses a literal pattern number: '1', '-1', '1+2j'.
func (p *Parser) parseSignedNumber() ast.Expression {
	start := p.curToken.Start
	negative := p.accept(lexer.MINUS)
	tok := p.curToken
	if !tok.Kind.IsNumber() {
		p.expectError("a number", tok)
	}
	p.nextToken()
	var value ast.Expression = &ast.Constant{Value: numberValue(tok), Node: p.node(tok.Start)}
	if negative {
		value = &ast.UnaryOp{Op: ast.USub, Operand: value, Node: p.node(start)}
	}

	if op, ok := sumOps[p.curToken.Kind]; ok {
		p.nextToken()
		imag := p.curToken
		switch imag.Kind {
		case lexer.IMAGINARY_INTEGER, lexer.IMAGINARY_POINT_FLOAT, lexer.IMAGINARY_EXPONENT_FLOAT:
		default:
			p.expectError("an imaginary number", imag)
		}
		p.nextToken()
		right := &ast.Constant{Value: numberValue(imag), Node: p.node(imag.Start)}
		value = &ast.BinOp{Op: op, Left: value, Right: right, Node: p.node(start)}
	}
	return value
}

// parseNameOrAttribute parses 'a' or 'a.b.c' as a Name or Attribute chain.
func (p *Parser) parseNameOrAttribute() ast.Expression {
	start := p.curToken.Start
	var expr ast.Expression = &ast.Name{ID: p.expectIdent(), Node: p.node(start)}
	for p.accept(lexer.DOT) {
		attr := p.expectIdent()
		expr = &ast.Attribute{Value: expr, Attr: attr, Node: p.node(start)}
	}
	return expr
}

// parseGroupOrSequencePattern parses '(p)' as p itself, and '()', '(p,)'
// and '(p, q)' as sequences.
func (p *Parser) parseGroupOrSequencePattern() ast.Pattern {
	start := p.curToken.Start
	p.expect(lexer.LPAREN)
	if p.accept(lexer.RPAREN) {
		return &ast.MatchSequence{Node: p.node(start)}
	}
	first := p.parseMaybeStarPattern()
	if _, star := first.(*ast.MatchStar); !star && p.accept(lexer.RPAREN) {
		return first
	}
	patterns := []ast.Pattern{first}
	for p.accept(lexer.COMMA) {
		if p.curTokenIs(lexer.RPAREN) {
			break
		}
		patterns = append(patterns, p.parseMaybeStarPattern())
	}
	p.expect(lexer.RPAREN)
	return &ast.MatchSequence{Patterns: patterns, Node: p.node(start)}
}

func (p *Parser) parseSequencePatterns(closing lexer.Kind) []ast.Pattern {
	var patterns []ast.Pattern
	for !p.curTokenIs(closing) {
		patterns = append(patterns, p.parseMaybeStarPattern())
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	return patterns
}

// parseMappingPattern parses '{key: pattern, **rest}'. Keys are literals or
// dotted names.
func (p *Parser) parseMappingPattern() ast.Pattern {
	start := p.curToken.Start
	p.expect(lexer.LBRACE)
	mapping := &ast.MatchMapping{}
	for !p.curTokenIs(lexer.RBRACE) {
		if p.accept(lexer.POWER) {
			mapping.Rest = p.expectIdent()
			p.accept(lexer.COMMA)
			break
		}
		mapping.Keys = append(mapping.Keys, p.parseMappingKey())
		p.expect(lexer.COLON)
		mapping.Patterns = append(mapping.Patterns, p.parsePattern())
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	p.expect(lexer.RBRACE)
	mapping.Node = p.node(start)
	return mapping
}

func (p *Parser) parseMappingKey() ast.Expression {
	tok := p.curToken
	switch {
	case tok.Kind.IsNumber() || tok.Kind == lexer.MINUS:
		return p.parseSignedNumber()
	case tok.Kind.IsString():
		return p.parseStrings()
	case tok.Kind == lexer.IDENTIFIER:
		name := p.parseNameOrAttribute()
		if _, ok := name.(*ast.Attribute); !ok {
			p.syntaxError("PARSE-0002", map[string]any{"Token": tok.Value.Text}, name.GetNode())
		}
		return name
	}
	start := tok.Start
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
	}
	p.unexpected()
	return nil
}

// parseClassPattern parses 'Cls(p1, p2, attr=p3)'. Keyword sub-patterns may
// not be followed by positional ones.
func (p *Parser) parseClassPattern(start int, cls ast.Expression) ast.Pattern {
	p.expect(lexer.LPAREN)
	pattern := &ast.MatchClass{Cls: cls}
	for !p.curTokenIs(lexer.RPAREN) {
		if p.curTokenIs(lexer.IDENTIFIER) && p.peekTokenIs(lexer.ASSIGN) {
			pattern.KwdAttrs = append(pattern.KwdAttrs, p.expectIdent())
			p.expect(lexer.ASSIGN)
			pattern.KwdPatterns = append(pattern.KwdPatterns, p.parsePattern())
		} else {
			tok := p.curToken
			sub := p.parsePattern()
			if len(pattern.KwdAttrs) > 0 {
				p.fail(perrors.New("PARSE-0009", nil), tok)
			}
			pattern.Patterns = append(pattern.Patterns, sub)
		}
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	p.expect(lexer.RPAREN)
	pattern.Node = p.node(start)
	return pattern
}
