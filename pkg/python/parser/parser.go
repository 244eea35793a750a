// Package parser turns Python source into an ast.Module.
//
// The parser is recursive descent with one method per grammar production.
// It holds a single current token and looks further ahead through the
// lexer's snapshot peek. Errors are collected rather than returned; the
// first fatal error ends the parse of the module.
package parser

import (
	"fmt"
	"strings"

	"github.com/sambeau/pyfront/pkg/python/ast"
	perrors "github.com/sambeau/pyfront/pkg/python/errors"
	"github.com/sambeau/pyfront/pkg/python/lexer"
)

// Parser represents the parser
type Parser struct {
	l      *lexer.Lexer
	source string
	path   string

	structuredErrors []*perrors.ParsingError

	curToken lexer.Token
	prevEnd  int // end of the last token that carries source text
}

// bailout unwinds the parse of the current statement after a fatal error
// has been recorded.
type bailout struct{}

// New creates a parser for source. path is only used in diagnostics.
func New(source, path string) *Parser {
	p := &Parser{
		l:      lexer.NewWithFilename(source, path),
		source: source,
		path:   path,
	}
	p.nextToken()
	return p
}

// Errors returns parser errors as strings (convenience method for tests).
// Prefer StructuredErrors() for production code.
func (p *Parser) Errors() []string {
	result := make([]string, len(p.structuredErrors))
	for i, err := range p.structuredErrors {
		if err.Line > 0 {
			result[i] = fmt.Sprintf("line %d, column %d: %s", err.Line, err.Column, err.Message)
		} else {
			result[i] = err.Message
		}
	}
	return result
}

// StructuredErrors returns every diagnostic recorded so far, style
// diagnostics included.
func (p *Parser) StructuredErrors() []*perrors.ParsingError {
	return p.structuredErrors
}

// Parse parses the whole module. It never fails: problems are reported
// through Errors and StructuredErrors, and parsing stops at the first
// statement that could not be parsed.
func (p *Parser) Parse() *ast.Module {
	module := &ast.Module{Node: ast.NewNode(0, len(p.source))}

	for !p.curTokenIs(lexer.EOF) {
		if p.curTokenIs(lexer.NEWLINE) {
			p.nextToken()
			continue
		}
		stmts, ok := p.parseTopLevel()
		module.Body = append(module.Body, stmts...)
		if !ok {
			break
		}
	}

	return module
}

// parseTopLevel parses one statement line and reports whether parsing may
// continue.
func (p *Parser) parseTopLevel() (stmts []ast.Statement, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, isBailout := r.(bailout); !isBailout {
				panic(r)
			}
			p.synchronize()
			stmts, ok = nil, false
		}
	}()

	if p.curTokenIs(lexer.INDENT) {
		p.fail(perrors.New("PARSE-0003", nil), p.curToken)
	}
	return p.parseStatement(), true
}

// synchronize skips to the next statement boundary.
func (p *Parser) synchronize() {
	for !p.curTokenIs(lexer.EOF) && !p.curTokenIs(lexer.NEWLINE) && !p.curTokenIs(lexer.SEMICOLON) {
		if p.curTokenIs(lexer.ERROR) {
			return
		}
		p.nextToken()
	}
}

// ============================================================================
// Tokens
// ============================================================================

// nextToken advances to the next token that is not a comment.
func (p *Parser) nextToken() {
	switch p.curToken.Kind {
	case lexer.NEWLINE, lexer.INDENT, lexer.DEDENT, lexer.EOF:
	default:
		if p.curToken.End > 0 {
			p.prevEnd = p.curToken.End
		}
	}
	for {
		p.curToken = p.l.NextToken()
		if p.curToken.Kind != lexer.COMMENT {
			return
		}
	}
}

// peekToken returns the token after the current one without consuming it.
func (p *Parser) peekToken() lexer.Token {
	state := p.l.SaveState()
	defer p.l.RestoreState(state)
	for {
		tok := p.l.NextToken()
		if tok.Kind != lexer.COMMENT {
			return tok
		}
	}
}

func (p *Parser) curTokenIs(k lexer.Kind) bool {
	return p.curToken.Kind == k
}

func (p *Parser) peekTokenIs(k lexer.Kind) bool {
	return p.peekToken().Kind == k
}

// curIdentIs reports whether the current token is the identifier name.
// Soft keywords are recognized this way.
func (p *Parser) curIdentIs(name string) bool {
	return p.curToken.Kind == lexer.IDENTIFIER && p.curToken.Value.Text == name
}

// accept consumes the current token if it has kind k.
func (p *Parser) accept(k lexer.Kind) bool {
	if p.curToken.Kind != k {
		return false
	}
	p.nextToken()
	return true
}

// expect consumes a token of kind k or fails the statement.
func (p *Parser) expect(k lexer.Kind) lexer.Token {
	tok := p.curToken
	if tok.Kind != k {
		p.expectError(fmt.Sprintf("'%s'", k), tok)
	}
	p.nextToken()
	return tok
}

// expectIdent consumes an identifier and returns its name.
func (p *Parser) expectIdent() string {
	tok := p.curToken
	if tok.Kind != lexer.IDENTIFIER {
		p.expectError("an identifier", tok)
	}
	p.nextToken()
	return tok.Value.Text
}

func (p *Parser) node(start int) ast.Node {
	end := p.prevEnd
	if end < start {
		end = start
	}
	return ast.NewNode(start, end)
}

// ============================================================================
// Errors
// ============================================================================

// fail records err at tok and abandons the current statement.
func (p *Parser) fail(err *perrors.ParsingError, tok lexer.Token) {
	p.record(err, tok)
	panic(bailout{})
}

// record stores a diagnostic positioned at tok.
func (p *Parser) record(err *perrors.ParsingError, tok lexer.Token) {
	err.Span = perrors.Span{Start: tok.Start, End: tok.End}
	err.Line = tok.Line
	err.Column = tok.Column
	err.File = p.path
	err.Input = p.lineText(tok.Start)
	p.structuredErrors = append(p.structuredErrors, err)
}

func (p *Parser) expectError(expected string, tok lexer.Token) {
	if tok.Kind == lexer.ERROR {
		p.lexicalError(tok)
	}
	p.fail(perrors.New("PARSE-0001", map[string]any{
		"Expected": expected,
		"Got":      describe(tok),
	}), tok)
}

// unexpected fails on the current token.
func (p *Parser) unexpected() {
	tok := p.curToken
	if tok.Kind == lexer.ERROR {
		p.lexicalError(tok)
	}
	p.fail(perrors.New("PARSE-0002", map[string]any{"Token": describe(tok)}), tok)
}

// lexicalError converts an ERROR token into a diagnostic.
func (p *Parser) lexicalError(tok lexer.Token) {
	code := "LEX-0010"
	msg := tok.Value.Text
	if tok.Err != nil {
		code = tok.Err.Kind.Code()
		msg = tok.Err.Error()
	}
	p.fail(perrors.New(code, map[string]any{"Message": msg}), tok)
}

// syntaxError fails with a catalog error positioned on a node.
func (p *Parser) syntaxError(code string, data map[string]any, n ast.Node) {
	p.fail(perrors.New(code, data), p.tokenAt(n))
}

// tokenAt builds a pseudo token covering n for error positions.
func (p *Parser) tokenAt(n ast.Node) lexer.Token {
	line := 1 + strings.Count(p.source[:n.Start], "\n")
	lineStart := strings.LastIndexByte(p.source[:n.Start], '\n') + 1
	return lexer.Token{Start: n.Start, End: n.End, Line: line, Column: n.Start - lineStart + 1}
}

// lineText returns the source line containing offset, without its line break.
func (p *Parser) lineText(offset int) string {
	if offset > len(p.source) {
		offset = len(p.source)
	}
	start := strings.LastIndexByte(p.source[:offset], '\n') + 1
	end := strings.IndexByte(p.source[offset:], '\n')
	if end < 0 {
		end = len(p.source)
	} else {
		end += offset
	}
	return strings.TrimRight(p.source[start:end], "\r")
}

func describe(tok lexer.Token) string {
	switch tok.Kind {
	case lexer.IDENTIFIER:
		return tok.Value.Text
	case lexer.EOF:
		return "end of file"
	case lexer.NEWLINE:
		return "new line"
	case lexer.INDENT:
		return "indent"
	case lexer.DEDENT:
		return "dedent"
	}
	if tok.Kind.IsNumber() || tok.Kind.IsString() || tok.Kind == lexer.FSTRING_MIDDLE {
		return tok.Value.Text
	}
	return tok.Kind.String()
}

// ============================================================================
// Speculation
// ============================================================================

type parserState struct {
	lexer    lexer.LexerState
	curToken lexer.Token
	prevEnd  int
	nerrors  int
}

func (p *Parser) saveState() parserState {
	return parserState{
		lexer:    p.l.SaveState(),
		curToken: p.curToken,
		prevEnd:  p.prevEnd,
		nerrors:  len(p.structuredErrors),
	}
}

func (p *Parser) restoreState(s parserState) {
	p.l.RestoreState(s.lexer)
	p.curToken = s.curToken
	p.prevEnd = s.prevEnd
	p.structuredErrors = p.structuredErrors[:s.nerrors]
}

// try runs fn and reports whether it finished without a fatal error. The
// caller is responsible for restoring state.
func (p *Parser) try(fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, isBailout := r.(bailout); !isBailout {
				panic(r)
			}
			ok = false
		}
	}()
	fn()
	return true
}
