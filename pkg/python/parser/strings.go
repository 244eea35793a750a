package parser

import (
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/unicode/runenames"

	"github.com/sambeau/pyfront/pkg/python/ast"
	perrors "github.com/sambeau/pyfront/pkg/python/errors"
	"github.com/sambeau/pyfront/pkg/python/lexer"
)

// ============================================================================
// String literals
// ============================================================================

// parseStrings parses one or more adjacent string literals. Plain pieces
// concatenate into a single Constant; any f-string piece turns the whole
// run into a JoinedStr.
func (p *Parser) parseStrings() ast.Expression {
	start := p.curToken.Start

	var (
		values   []ast.Expression
		isFormat bool
		sawBytes bool
		sawText  bool
	)

	for p.curToken.Kind.IsString() {
		tok := p.curToken
		switch tok.Kind {
		case lexer.FSTRING_START, lexer.RAW_FSTRING_START:
			isFormat = true
			sawText = true
			values = append(values, p.parseFString()...)
		default:
			bytesLiteral := tok.Kind == lexer.BYTES || tok.Kind == lexer.RAW_BYTES
			if bytesLiteral {
				sawBytes = true
			} else {
				sawText = true
			}
			values = append(values, p.stringConstant(tok, bytesLiteral))
			p.nextToken()
		}
		if sawBytes && sawText {
			p.fail(perrors.New("PARSE-0012", nil), tok)
		}
	}

	values = mergeConstants(values)
	if isFormat {
		return &ast.JoinedStr{Values: values, Node: p.node(start)}
	}
	// Plain literals always merge into exactly one constant.
	c := values[0].(*ast.Constant)
	c.Node = p.node(start)
	return c
}

// stringConstant decodes a single non-format literal token.
func (p *Parser) stringConstant(tok lexer.Token, bytesLiteral bool) *ast.Constant {
	prefix, body := splitLiteral(tok.Value.Text)
	raw := strings.ContainsAny(prefix, "rR")

	if bytesLiteral {
		for i := 0; i < len(body); i++ {
			if body[i] >= 0x80 {
				p.fail(perrors.New("PARSE-0014", map[string]any{
					"Literal": "bytes literal",
					"Problem": "bytes can only contain ASCII literal characters",
				}), tok)
			}
		}
	}

	text := body
	if !raw {
		var problem string
		text, problem = unescape(body, bytesLiteral)
		if problem != "" {
			p.fail(perrors.New("PARSE-0014", map[string]any{
				"Literal": literalName(bytesLiteral),
				"Problem": problem,
			}), tok)
		}
	}

	node := ast.NewNode(tok.Start, tok.End)
	if bytesLiteral {
		return &ast.Constant{Value: ast.BytesValue(text), Node: node}
	}
	return &ast.Constant{Value: ast.StrValue(text), Node: node}
}

func literalName(bytesLiteral bool) string {
	if bytesLiteral {
		return "bytes literal"
	}
	return "string literal"
}

// splitLiteral separates the prefix letters from the body between the quotes.
func splitLiteral(text string) (prefix, body string) {
	i := 0
	for i < len(text) && text[i] != '"' && text[i] != '\'' {
		i++
	}
	prefix, rest := text[:i], text[i:]
	width := 1
	if len(rest) >= 6 && (strings.HasPrefix(rest, `"""`) || strings.HasPrefix(rest, `'''`)) {
		width = 3
	}
	if len(rest) < 2*width {
		return prefix, ""
	}
	return prefix, rest[width : len(rest)-width]
}

// mergeConstants joins adjacent string constants and drops empty ones.
func mergeConstants(values []ast.Expression) []ast.Expression {
	var out []ast.Expression
	for _, v := range values {
		c, ok := v.(*ast.Constant)
		if !ok {
			out = append(out, v)
			continue
		}
		if len(out) > 0 {
			if prev, ok := out[len(out)-1].(*ast.Constant); ok {
				prev.Value = concatValues(prev.Value, c.Value)
				prev.Node = ast.NewNode(prev.Start, c.End)
				continue
			}
		}
		out = append(out, &ast.Constant{Value: c.Value, Node: c.Node})
	}

	// A lone empty constant stands for "" and is kept.
	if len(out) > 1 || containsFormattedValue(out) {
		kept := out[:0]
		for _, v := range out {
			if c, ok := v.(*ast.Constant); ok && isEmptyString(c.Value) {
				continue
			}
			kept = append(kept, v)
		}
		out = kept
	}
	return out
}

func concatValues(a, b ast.ConstantValue) ast.ConstantValue {
	if ab, ok := a.(ast.BytesValue); ok {
		bb, _ := b.(ast.BytesValue)
		return ab + bb
	}
	as, _ := a.(ast.StrValue)
	bs, _ := b.(ast.StrValue)
	return as + bs
}

func isEmptyString(v ast.ConstantValue) bool {
	switch v := v.(type) {
	case ast.StrValue:
		return v == ""
	case ast.BytesValue:
		return v == ""
	}
	return false
}

func containsFormattedValue(values []ast.Expression) bool {
	for _, v := range values {
		if _, ok := v.(*ast.FormattedValue); ok {
			return true
		}
	}
	return false
}

// ============================================================================
// F-strings
// ============================================================================

// parseFString parses one f-string from its start token through its end
// token and returns its pieces in order.
func (p *Parser) parseFString() []ast.Expression {
	raw := p.curToken.Kind == lexer.RAW_FSTRING_START
	p.nextToken()

	var values []ast.Expression
	for {
		tok := p.curToken
		switch tok.Kind {
		case lexer.FSTRING_MIDDLE:
			values = append(values, p.fstringText(tok, raw))
			p.nextToken()
		case lexer.LBRACE:
			values = append(values, p.parseReplacementField(raw)...)
		case lexer.FSTRING_END:
			p.nextToken()
			return values
		case lexer.ERROR:
			p.lexicalError(tok)
		default:
			p.expectError("the end of the f-string", tok)
		}
	}
}

func (p *Parser) fstringText(tok lexer.Token, raw bool) *ast.Constant {
	text := tok.Value.Text
	if !raw {
		var problem string
		text, problem = unescape(text, false)
		if problem != "" {
			p.fail(perrors.New("PARSE-0014", map[string]any{
				"Literal": "f-string",
				"Problem": problem,
			}), tok)
		}
	}
	return &ast.Constant{Value: ast.StrValue(text), Node: ast.NewNode(tok.Start, tok.End)}
}

// parseReplacementField parses '{expr=!c:spec}'. A self-documenting '='
// yields the expression text as a Constant before the FormattedValue.
func (p *Parser) parseReplacementField(raw bool) []ast.Expression {
	lbrace := p.expect(lexer.LBRACE)
	if p.curTokenIs(lexer.RBRACE) {
		p.fail(perrors.New("PARSE-0013", map[string]any{
			"Problem": "valid expression required before '}'",
		}), p.curToken)
	}

	var value ast.Expression
	if p.curTokenIs(lexer.YIELD) {
		value = p.parseYieldExpression()
	} else {
		value = p.parseStarExpressions()
	}

	var out []ast.Expression
	debug := false
	if p.curTokenIs(lexer.ASSIGN) {
		p.nextToken()
		debug = true
		text := p.source[lbrace.End:p.curToken.Start]
		out = append(out, &ast.Constant{
			Value: ast.StrValue(text),
			Node:  ast.NewNode(lbrace.End, p.curToken.Start),
		})
	}

	field := &ast.FormattedValue{Value: value, Conversion: ast.NoConversion}
	if p.accept(lexer.EXCLAMATION) {
		tok := p.curToken
		if tok.Kind != lexer.IDENTIFIER || len(tok.Value.Text) != 1 || !strings.Contains("sra", tok.Value.Text) {
			p.fail(perrors.New("PARSE-0013", map[string]any{
				"Problem": "invalid conversion character '" + describe(tok) + "': expected 's', 'r', or 'a'",
			}), tok)
		}
		field.Conversion = rune(tok.Value.Text[0])
		p.nextToken()
	}

	if p.curTokenIs(lexer.COLON) {
		field.FormatSpec = p.parseFormatSpec(raw)
	}
	if debug && field.Conversion == ast.NoConversion && field.FormatSpec == nil {
		field.Conversion = ast.ReprConversion
	}

	p.expect(lexer.RBRACE)
	field.Node = p.node(lbrace.Start)
	return append(out, field)
}

// parseFormatSpec parses the text after ':' up to the closing brace. Specs
// may contain nested replacement fields.
func (p *Parser) parseFormatSpec(raw bool) ast.Expression {
	colon := p.expect(lexer.COLON)
	var values []ast.Expression
	for {
		tok := p.curToken
		switch tok.Kind {
		case lexer.FSTRING_MIDDLE:
			values = append(values, p.fstringText(tok, raw))
			p.nextToken()
			continue
		case lexer.LBRACE:
			values = append(values, p.parseReplacementField(raw)...)
			continue
		case lexer.ERROR:
			p.lexicalError(tok)
		}
		break
	}
	return &ast.JoinedStr{Values: mergeConstants(values), Node: ast.NewNode(colon.End, p.curToken.Start)}
}

// ============================================================================
// Escapes
// ============================================================================

// unescape decodes backslash escapes. For bytes literals \u, \U and \N are
// not escapes and each \x or octal escape yields a single byte. Unknown
// escapes are kept verbatim. problem is non-empty for malformed escapes.
func unescape(s string, bytesLiteral bool) (text, problem string) {
	if strings.IndexByte(s, '\\') < 0 {
		return s, ""
	}

	var b strings.Builder
	b.Grow(len(s))
	writeCode := func(v int) {
		if bytesLiteral {
			b.WriteByte(byte(v))
		} else {
			b.WriteRune(rune(v))
		}
	}

	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(s) {
			b.WriteByte('\\')
			break
		}
		esc := s[i+1]
		i += 2

		switch esc {
		case '\n':
		case '\r':
			if i < len(s) && s[i] == '\n' {
				i++
			}
		case '\\', '\'', '"':
			b.WriteByte(esc)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			v := int(esc - '0')
			for n := 1; n < 3 && i < len(s) && s[i] >= '0' && s[i] <= '7'; n++ {
				v = v*8 + int(s[i]-'0')
				i++
			}
			writeCode(v)
		case 'x':
			v, ok := hexValue(s, i, 2)
			if !ok {
				return "", `truncated \xXX escape`
			}
			i += 2
			writeCode(v)
		case 'u', 'U':
			if bytesLiteral {
				b.WriteByte('\\')
				b.WriteByte(esc)
				continue
			}
			width := 4
			if esc == 'U' {
				width = 8
			}
			v, ok := hexValue(s, i, width)
			if !ok {
				return "", "truncated \\" + string(esc) + strings.Repeat("X", width) + " escape"
			}
			if v > 0x10FFFF {
				return "", "illegal Unicode character"
			}
			i += width
			b.WriteRune(rune(v))
		case 'N':
			if bytesLiteral {
				b.WriteString(`\N`)
				continue
			}
			if i >= len(s) || s[i] != '{' {
				return "", `malformed \N character escape`
			}
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				return "", `malformed \N character escape`
			}
			name := s[i+1 : i+end]
			r, ok := lookupRuneName(name)
			if !ok {
				return "", "unknown Unicode character name " + strconv.Quote(name)
			}
			i += end + 1
			b.WriteRune(r)
		default:
			b.WriteByte('\\')
			b.WriteByte(esc)
		}
	}
	return b.String(), ""
}

func hexValue(s string, at, width int) (int, bool) {
	if at+width > len(s) {
		return 0, false
	}
	v, err := strconv.ParseUint(s[at:at+width], 16, 32)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

var (
	runeNamesOnce sync.Once
	runesByName   map[string]rune
)

// lookupRuneName resolves the name in a \N{...} escape, ignoring case.
func lookupRuneName(name string) (rune, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if hex, ok := strings.CutPrefix(name, "CJK UNIFIED IDEOGRAPH-"); ok {
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil || v > 0x10FFFF {
			return 0, false
		}
		return rune(v), true
	}

	runeNamesOnce.Do(func() {
		runesByName = make(map[string]rune, 40000)
		for r := rune(0); r <= 0x10FFFF; r++ {
			if r >= 0xD800 && r <= 0xDFFF {
				continue
			}
			n := runenames.Name(r)
			if n == "" || n[0] == '<' {
				continue
			}
			if _, dup := runesByName[n]; !dup {
				runesByName[n] = r
			}
		}
	})
	r, ok := runesByName[name]
	return r, ok
}
