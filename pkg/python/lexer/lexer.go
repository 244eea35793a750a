package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxNesting is the deepest bracket nesting the lexer accepts.
const MaxNesting = 200

// TabSize is the width a tab adds to an indentation level.
const TabSize = 4

// interpolation is one open {...} replacement field of an f-string.
type interpolation struct {
	nesting int  // bracket nesting just inside the opening brace
	spec    bool // past the top-level ':' of the field
}

// fstringFrame is one f-string whose closing quote has not been seen yet.
type fstringFrame struct {
	quote   string // terminator, one or three quote characters
	raw     bool
	interps []interpolation
}

// Lexer represents the lexical analyzer
type Lexer struct {
	filename     string
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination (first byte)
	chRune       rune // current character as a rune
	chSize       int  // byte size of current character
	line         int  // current line number
	lineStart    int  // byte offset where the current line starts

	indentStack    []int          // column widths, first element always 0
	nesting        int            // open ( [ { brackets
	fstringStack   []fstringFrame // open f-strings, innermost last
	pendingDedents int            // DEDENT tokens still owed for the last dedent
	atLineStart    bool           // next scan starts a logical line
	blankLine      bool           // the current line holds only whitespace or a comment
	lastKind       Kind           // last token returned, comments excluded

	tokLine   int
	tokColumn int
}

// New creates a new lexer instance
func New(input string) *Lexer {
	return NewWithFilename(input, "<input>")
}

// NewWithFilename creates a new lexer instance with a specific filename
func NewWithFilename(input string, filename string) *Lexer {
	l := &Lexer{
		filename:    filename,
		input:       input,
		line:        1,
		indentStack: []int{0},
		atLineStart: true,
		lastKind:    NEWLINE,
	}
	l.readChar()
	if strings.HasPrefix(input, "\uFEFF") {
		l.readChar()
	}
	return l
}

// Filename returns the name used in diagnostics.
func (l *Lexer) Filename() string {
	return l.filename
}

// Source returns the text being lexed.
func (l *Lexer) Source() string {
	return l.input
}

// LexerState holds the state of a lexer for save/restore
type LexerState struct {
	position       int
	readPosition   int
	ch             byte
	chRune         rune
	chSize         int
	line           int
	lineStart      int
	indentStack    []int
	nesting        int
	fstringStack   []fstringFrame
	pendingDedents int
	atLineStart    bool
	blankLine      bool
	lastKind       Kind
}

// SaveState saves the current lexer state for potential restoration
func (l *Lexer) SaveState() LexerState {
	indents := make([]int, len(l.indentStack))
	copy(indents, l.indentStack)
	return LexerState{
		position:       l.position,
		readPosition:   l.readPosition,
		ch:             l.ch,
		chRune:         l.chRune,
		chSize:         l.chSize,
		line:           l.line,
		lineStart:      l.lineStart,
		indentStack:    indents,
		nesting:        l.nesting,
		fstringStack:   copyFStrings(l.fstringStack),
		pendingDedents: l.pendingDedents,
		atLineStart:    l.atLineStart,
		blankLine:      l.blankLine,
		lastKind:       l.lastKind,
	}
}

// RestoreState restores the lexer to a previously saved state
func (l *Lexer) RestoreState(state LexerState) {
	l.position = state.position
	l.readPosition = state.readPosition
	l.ch = state.ch
	l.chRune = state.chRune
	l.chSize = state.chSize
	l.line = state.line
	l.lineStart = state.lineStart
	l.indentStack = make([]int, len(state.indentStack))
	copy(l.indentStack, state.indentStack)
	l.nesting = state.nesting
	l.fstringStack = copyFStrings(state.fstringStack)
	l.pendingDedents = state.pendingDedents
	l.atLineStart = state.atLineStart
	l.blankLine = state.blankLine
	l.lastKind = state.lastKind
}

func copyFStrings(frames []fstringFrame) []fstringFrame {
	if frames == nil {
		return nil
	}
	out := make([]fstringFrame, len(frames))
	for i, f := range frames {
		out[i] = f
		out[i].interps = append([]interpolation(nil), f.interps...)
	}
	return out
}

// PeekToken returns the next token without consuming it
func (l *Lexer) PeekToken() Token {
	state := l.SaveState()
	tok := l.NextToken()
	l.RestoreState(state)
	return tok
}

// IndentDepth returns the number of open indentation levels.
func (l *Lexer) IndentDepth() int {
	return len(l.indentStack) - 1
}

// readChar reads the next character and advances position.
// ASCII takes a fast path; other bytes are decoded as UTF-8.
func (l *Lexer) readChar() {
	if l.chSize == 1 && l.ch == '\n' {
		l.line++
		l.lineStart = l.readPosition
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.chRune = 0
		l.chSize = 0
		l.position = len(l.input)
		return
	}

	b := l.input[l.readPosition]
	if b < utf8.RuneSelf {
		l.ch = b
		l.chRune = rune(b)
		l.chSize = 1
		l.position = l.readPosition
		l.readPosition++
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = b
	l.chRune = r
	l.chSize = size
	l.position = l.readPosition
	l.readPosition += size
}

// peekChar returns the next character without advancing position
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// peekCharN returns the character n positions ahead without advancing position
func (l *Lexer) peekCharN(n int) byte {
	pos := l.readPosition + n - 1
	if pos >= len(l.input) {
		return 0
	}
	return l.input[pos]
}

func (l *Lexer) atEOF() bool {
	return l.position >= len(l.input)
}

// currentChar returns the bytes of the character under examination.
func (l *Lexer) currentChar() string {
	return l.input[l.position : l.position+l.chSize]
}

// mark records where the next token starts.
func (l *Lexer) mark() int {
	l.tokLine = l.line
	l.tokColumn = l.position - l.lineStart + 1
	return l.position
}

func (l *Lexer) token(kind Kind, start int, value TokenValue) Token {
	return Token{
		Kind:   kind,
		Value:  value,
		Start:  start,
		End:    l.position,
		Line:   l.tokLine,
		Column: l.tokColumn,
	}
}

func (l *Lexer) errorToken(start, end int, kind LexErrorKind, ch rune) Token {
	if end < start {
		end = start
	}
	err := &LexError{
		Kind:   kind,
		Char:   ch,
		Offset: end,
		Line:   l.tokLine,
		Column: l.tokColumn,
	}
	return Token{
		Kind:   ERROR,
		Value:  Str(err.Error()),
		Start:  start,
		End:    end,
		Line:   l.tokLine,
		Column: l.tokColumn,
		Err:    err,
	}
}

// NextToken scans the input and returns the next token. Whitespace is
// never returned; comments are.
func (l *Lexer) NextToken() Token {
	if l.pendingDedents > 0 {
		l.pendingDedents--
		start := l.mark()
		tok := l.token(DEDENT, start, Indent(l.indentStack[len(l.indentStack)-1]))
		l.lastKind = DEDENT
		return tok
	}
	for {
		var tok Token
		if l.inFStringText() {
			tok = l.fstringToken()
		} else {
			tok = l.scan()
		}
		if tok.Kind == WHITESPACE {
			continue
		}
		if tok.Kind != COMMENT {
			l.lastKind = tok.Kind
		}
		return tok
	}
}

// NextFStringToken returns the next token of the innermost open f-string:
// literal text, an opening brace, or the closing quote. Inside a
// replacement field it behaves like NextToken.
func (l *Lexer) NextFStringToken() Token {
	return l.NextToken()
}

// InFString reports whether an f-string is open.
func (l *Lexer) InFString() bool {
	return len(l.fstringStack) > 0
}

func (l *Lexer) topFString() *fstringFrame {
	if len(l.fstringStack) == 0 {
		return nil
	}
	return &l.fstringStack[len(l.fstringStack)-1]
}

// inFStringText reports whether the lexer is reading f-string literal text
// or a format spec rather than an expression.
func (l *Lexer) inFStringText() bool {
	f := l.topFString()
	if f == nil {
		return false
	}
	return len(f.interps) == 0 || f.interps[len(f.interps)-1].spec
}

// atInterpolationBase reports whether the lexer sits directly inside the
// innermost replacement field, outside any bracket opened within it.
func (l *Lexer) atInterpolationBase() bool {
	f := l.topFString()
	if f == nil || len(f.interps) == 0 {
		return false
	}
	last := f.interps[len(f.interps)-1]
	return !last.spec && last.nesting == l.nesting
}

// scan reads one token outside f-string text, possibly WHITESPACE.
func (l *Lexer) scan() Token {
	if l.atLineStart {
		l.atLineStart = false
		if tok, ok := l.matchIndentation(); ok {
			return tok
		}
	}

	start := l.mark()
	if l.atEOF() {
		return l.endOfInput(start)
	}

	switch l.ch {
	case ' ', '\t', '\f':
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\f' {
			l.readChar()
		}
		return l.token(WHITESPACE, start, TokenValue{})
	case '\n', '\r':
		return l.readNewline(start)
	case '#':
		for !l.atEOF() && l.ch != '\n' && l.ch != '\r' {
			l.readChar()
		}
		return l.token(COMMENT, start, Str(l.input[start:l.position]))
	case '\\':
		l.readChar()
		if l.ch == '\n' || l.ch == '\r' {
			l.skipLineBreak()
			return l.token(WHITESPACE, start, TokenValue{})
		}
		return l.token(BACKSLASH, start, TokenValue{})
	case '"', '\'':
		return l.readStringLiteral(start)
	case '+':
		return l.withAssign(start, PLUS, PLUS_ASSIGN)
	case '-':
		if l.peekChar() == '>' {
			l.readChar()
			l.readChar()
			return l.token(ARROW, start, TokenValue{})
		}
		return l.withAssign(start, MINUS, MINUS_ASSIGN)
	case '*':
		if l.peekChar() == '*' {
			l.readChar()
			return l.withAssign(start, POWER, POW_ASSIGN)
		}
		return l.withAssign(start, ASTERISK, MUL_ASSIGN)
	case '/':
		if l.peekChar() == '/' {
			l.readChar()
			return l.withAssign(start, DOUBLE_SLASH, FLOOR_DIV_ASSIGN)
		}
		return l.withAssign(start, SLASH, DIV_ASSIGN)
	case '%':
		return l.withAssign(start, PERCENT, MOD_ASSIGN)
	case '@':
		return l.withAssign(start, AT, MATMUL_ASSIGN)
	case '&':
		return l.withAssign(start, AMPERSAND, AND_ASSIGN)
	case '|':
		return l.withAssign(start, PIPE, OR_ASSIGN)
	case '^':
		return l.withAssign(start, CARET, XOR_ASSIGN)
	case '~':
		return l.single(start, TILDE)
	case '<':
		if l.peekChar() == '<' {
			l.readChar()
			return l.withAssign(start, LSHIFT, LSHIFT_ASSIGN)
		}
		return l.withAssign(start, LT, LTE)
	case '>':
		if l.peekChar() == '>' {
			l.readChar()
			return l.withAssign(start, RSHIFT, RSHIFT_ASSIGN)
		}
		return l.withAssign(start, GT, GTE)
	case '=':
		return l.withAssign(start, ASSIGN, EQ)
	case '!':
		return l.withAssign(start, EXCLAMATION, NOT_EQ)
	case ':':
		if l.atInterpolationBase() {
			f := l.topFString()
			f.interps[len(f.interps)-1].spec = true
			return l.single(start, COLON)
		}
		return l.withAssign(start, COLON, WALRUS)
	case ',':
		return l.single(start, COMMA)
	case ';':
		return l.single(start, SEMICOLON)
	case '$':
		return l.single(start, DOLLAR)
	case '?':
		return l.single(start, QUESTION)
	case '`':
		return l.single(start, BACKTICK)
	case '.':
		if isDigit(l.peekChar()) {
			return l.readNumber(start)
		}
		if l.peekChar() == '.' && l.peekCharN(2) == '.' {
			l.readChar()
			l.readChar()
			return l.single(start, ELLIPSIS)
		}
		return l.single(start, DOT)
	case '(', '[', '{':
		kind := bracketKind(l.ch)
		if l.nesting >= MaxNesting {
			l.readChar()
			return l.errorToken(start, l.position, TooManyNestedBrackets, 0)
		}
		l.nesting++
		return l.single(start, kind)
	case ')', ']', '}':
		if l.ch == '}' && l.atInterpolationBase() {
			return l.closeInterpolation(start)
		}
		kind := bracketKind(l.ch)
		if l.nesting == 0 {
			ch := l.chRune
			l.readChar()
			return l.errorToken(start, l.position, UnmatchedBracket, ch)
		}
		l.nesting--
		return l.single(start, kind)
	}

	if isDigit(l.ch) {
		return l.readNumber(start)
	}
	if n := l.stringPrefixLen(); n > 0 {
		for i := 0; i < n; i++ {
			l.readChar()
		}
		return l.readStringLiteral(start)
	}
	if isIdentStart(l.chRune) {
		return l.readIdentifier(start)
	}

	ch := l.chRune
	l.readChar()
	return l.errorToken(start, l.position, InvalidCharacter, ch)
}

func (l *Lexer) single(start int, kind Kind) Token {
	l.readChar()
	return l.token(kind, start, TokenValue{})
}

// withAssign consumes the current character and, if '=' follows, the '='
// too, returning assign instead of plain.
func (l *Lexer) withAssign(start int, plain, assign Kind) Token {
	l.readChar()
	if l.ch == '=' {
		l.readChar()
		return l.token(assign, start, TokenValue{})
	}
	return l.token(plain, start, TokenValue{})
}

func (l *Lexer) skipLineBreak() {
	if l.ch == '\r' {
		l.readChar()
		if l.ch == '\n' {
			l.readChar()
		}
		return
	}
	if l.ch == '\n' {
		l.readChar()
	}
}

// readNewline turns a line break into NEWLINE when it ends a logical line.
func (l *Lexer) readNewline(start int) Token {
	l.skipLineBreak()
	if l.nesting > 0 {
		return l.token(WHITESPACE, start, TokenValue{})
	}
	l.atLineStart = true
	if l.blankLine {
		l.blankLine = false
		return l.token(WHITESPACE, start, TokenValue{})
	}
	return l.token(NEWLINE, start, TokenValue{})
}

// matchIndentation measures the leading whitespace of a line and compares
// it with the indent stack. Lines holding only whitespace or a comment
// leave the stack alone.
func (l *Lexer) matchIndentation() (Token, bool) {
	start := l.mark()
	width := 0
	for !l.atEOF() && (l.ch == ' ' || l.ch == '\t' || l.ch == '\f') {
		switch l.ch {
		case ' ':
			width++
		case '\t':
			width += TabSize
		default:
			width = 0
		}
		l.readChar()
	}
	if l.atEOF() || l.ch == '\n' || l.ch == '\r' || l.ch == '#' {
		l.blankLine = true
		return l.token(WHITESPACE, start, TokenValue{}), true
	}

	top := l.indentStack[len(l.indentStack)-1]
	switch {
	case width == top:
		return l.token(WHITESPACE, start, TokenValue{}), true
	case width > top:
		l.indentStack = append(l.indentStack, width)
		return l.token(INDENT, start, Indent(width)), true
	}

	levels := 0
	for i := len(l.indentStack) - 1; i > 0 && l.indentStack[i] > width; i-- {
		levels++
	}
	if l.indentStack[len(l.indentStack)-1-levels] != width {
		return l.errorToken(start, l.position, UnindentDoesNotMatchAnyOuterIndentationLevel, 0), true
	}
	l.indentStack = l.indentStack[:len(l.indentStack)-levels]
	l.pendingDedents = levels - 1
	start = l.mark()
	return l.token(DEDENT, start, Indent(width)), true
}

// endOfInput closes the last logical line and every open indentation level
// before reporting EOF.
func (l *Lexer) endOfInput(start int) Token {
	if len(l.fstringStack) > 0 {
		l.fstringStack = nil
		l.nesting = 0
		return l.errorToken(start, start, StringNotTerminated, 0)
	}
	if l.nesting == 0 && l.lastKind != NEWLINE && l.lastKind != INDENT && l.lastKind != DEDENT {
		return l.token(NEWLINE, start, TokenValue{})
	}
	if len(l.indentStack) > 1 {
		l.indentStack = l.indentStack[:len(l.indentStack)-1]
		return l.token(DEDENT, start, Indent(l.indentStack[len(l.indentStack)-1]))
	}
	return l.token(EOF, start, TokenValue{})
}

// readIdentifier reads an identifier or keyword. Non-ASCII names are
// NFKC-normalized before the keyword lookup.
func (l *Lexer) readIdentifier(start int) Token {
	ascii := true
	for !l.atEOF() && isIdentContinue(l.chRune) {
		if l.chSize > 1 {
			ascii = false
		}
		l.readChar()
	}
	name := l.input[start:l.position]
	if !ascii {
		name = norm.NFKC.String(name)
	}
	kind := LookupIdent(name)
	if kind != IDENTIFIER {
		return l.token(kind, start, TokenValue{})
	}
	return l.token(IDENTIFIER, start, Str(name))
}

// readNumber reads an integer, float or imaginary literal.
func (l *Lexer) readNumber(start int) Token {
	if l.ch == '0' {
		var kind Kind
		var errKind LexErrorKind
		var valid func(byte) bool
		switch l.peekChar() {
		case 'b', 'B':
			kind, errKind, valid = BINARY, InvalidDigitInBinaryLiteral, func(c byte) bool { return c == '0' || c == '1' }
		case 'o', 'O':
			kind, errKind, valid = OCTAL, InvalidDigitInOctalLiteral, func(c byte) bool { return c >= '0' && c <= '7' }
		case 'x', 'X':
			kind, errKind, valid = HEXADECIMAL, InvalidDigitInHexadecimalLiteral, isHexDigit
		}
		if valid != nil {
			l.readChar()
			l.readChar()
			digits := 0
			for !l.atEOF() && (valid(l.ch) || l.ch == '_') {
				if l.ch != '_' {
					digits++
				}
				l.readChar()
			}
			if digits == 0 || isIdentContinue(l.chRune) {
				ch := l.chRune
				if !l.atEOF() {
					l.readChar()
				}
				return l.errorToken(start, l.position, errKind, ch)
			}
			return l.token(kind, start, Number(l.input[start:l.position]))
		}
	}

	kind := INTEGER
	l.readDecimalDigits()
	if l.ch == '.' {
		kind = POINT_FLOAT
		l.readChar()
		l.readDecimalDigits()
	}
	if (l.ch == 'e' || l.ch == 'E') && !l.keywordFollows() {
		next := l.peekChar()
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekCharN(2))) {
			kind = EXPONENT_FLOAT
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			l.readDecimalDigits()
		} else {
			l.readChar()
			ch := l.chRune
			return l.errorToken(start, l.position, InvalidDigitInDecimalLiteral, ch)
		}
	}
	if l.ch == 'j' || l.ch == 'J' {
		l.readChar()
		switch kind {
		case INTEGER:
			kind = IMAGINARY_INTEGER
		case POINT_FLOAT:
			kind = IMAGINARY_POINT_FLOAT
		default:
			kind = IMAGINARY_EXPONENT_FLOAT
		}
	}
	if !l.atEOF() && isIdentStart(l.chRune) && !l.keywordFollows() {
		ch := l.chRune
		l.readChar()
		return l.errorToken(start, l.position, InvalidDigitInDecimalLiteral, ch)
	}
	if kind == INTEGER && hasLeadingZero(l.input[start:l.position]) {
		return l.errorToken(start, l.position, LeadingZerosInDecimalLiteral, 0)
	}
	return l.token(kind, start, Number(l.input[start:l.position]))
}

// hasLeadingZero matches integers like 0777. Zero spelled with extra zeros,
// such as 00 or 0_0, is still allowed.
func hasLeadingZero(lit string) bool {
	return len(lit) > 1 && lit[0] == '0' && strings.Trim(lit, "0_") != ""
}

func (l *Lexer) readDecimalDigits() {
	for isDigit(l.ch) || (l.ch == '_' && isDigit(l.peekChar())) {
		l.readChar()
	}
}

// keywordFollows allows "1if x else 2" and friends, which Python accepts.
func (l *Lexer) keywordFollows() bool {
	rest := l.input[l.position:]
	for _, kw := range []string{"and", "else", "for", "if", "in", "is", "not", "or"} {
		if strings.HasPrefix(rest, kw) {
			after := len(kw)
			if after >= len(rest) || !isIdentContinue(rune(rest[after])) {
				return true
			}
		}
	}
	return false
}

// stringPrefixLen returns the length of a string prefix (r, b, f, u and
// their two-letter combinations) when one starts here and a quote follows.
func (l *Lexer) stringPrefixLen() int {
	rest := l.input[l.position:]
	for n := 1; n <= 2 && n < len(rest); n++ {
		if rest[n] != '"' && rest[n] != '\'' {
			continue
		}
		switch strings.ToLower(rest[:n]) {
		case "r", "u", "b", "f", "br", "rb", "fr", "rf":
			return n
		}
		return 0
	}
	return 0
}

// readStringLiteral reads a string whose prefix, if any, has already been
// consumed. F-strings only have their opening delimiter read here.
func (l *Lexer) readStringLiteral(start int) Token {
	prefix := strings.ToLower(l.input[start:l.position])
	quote := l.ch
	triple := l.peekChar() == quote && l.peekCharN(2) == quote
	width := 1
	if triple {
		width = 3
	}
	for i := 0; i < width; i++ {
		l.readChar()
	}
	raw := strings.Contains(prefix, "r")

	if strings.Contains(prefix, "f") {
		l.fstringStack = append(l.fstringStack, fstringFrame{
			quote: strings.Repeat(string(quote), width),
			raw:   raw,
		})
		kind := FSTRING_START
		if raw {
			kind = RAW_FSTRING_START
		}
		return l.token(kind, start, Str(l.input[start:l.position]))
	}

	if !l.skipToStringEnd(quote, triple) {
		return l.errorToken(start, l.position-1, StringNotTerminated, 0)
	}

	kind := STRING
	switch {
	case strings.Contains(prefix, "b") && raw:
		kind = RAW_BYTES
	case strings.Contains(prefix, "b"):
		kind = BYTES
	case raw:
		kind = RAW_STRING
	case prefix == "u":
		kind = UNICODE_STRING
	}
	return l.token(kind, start, Str(l.input[start:l.position]))
}

// skipToStringEnd consumes up to and including the closing quote. A
// backslash always protects the character after it, so an escaped quote
// never terminates the string.
func (l *Lexer) skipToStringEnd(quote byte, triple bool) bool {
	for !l.atEOF() {
		switch {
		case l.ch == '\\':
			l.readChar()
			if l.atEOF() {
				return false
			}
			l.readChar()
		case !triple && (l.ch == '\n' || l.ch == '\r'):
			return false
		case l.ch == quote && !triple:
			l.readChar()
			return true
		case l.ch == quote && l.peekChar() == quote && l.peekCharN(2) == quote:
			l.readChar()
			l.readChar()
			l.readChar()
			return true
		default:
			l.readChar()
		}
	}
	return false
}

// fstringToken reads literal text, a format spec, a brace or the closing
// quote of the innermost f-string.
func (l *Lexer) fstringToken() Token {
	frame := l.topFString()
	start := l.mark()
	if l.atEOF() {
		return l.endOfInput(start)
	}
	inSpec := len(frame.interps) > 0

	if !inSpec && strings.HasPrefix(l.input[l.position:], frame.quote) {
		for i := 0; i < len(frame.quote); i++ {
			l.readChar()
		}
		l.fstringStack = l.fstringStack[:len(l.fstringStack)-1]
		return l.token(FSTRING_END, start, Str(l.input[start:l.position]))
	}

	switch l.ch {
	case '{':
		if inSpec || l.peekChar() != '{' {
			return l.openInterpolation(start)
		}
	case '}':
		if inSpec {
			return l.closeInterpolation(start)
		}
		if l.peekChar() != '}' {
			l.readChar()
			return l.errorToken(start, l.position, SingleClosingBraceInFString, '}')
		}
	}

	text, ok := l.readFStringMiddle(frame, inSpec)
	if !ok {
		l.fstringStack = nil
		l.nesting = 0
		return l.errorToken(start, l.position-1, StringNotTerminated, 0)
	}
	return l.token(FSTRING_MIDDLE, start, Str(text))
}

func (l *Lexer) openInterpolation(start int) Token {
	if l.nesting >= MaxNesting {
		l.readChar()
		return l.errorToken(start, l.position, TooManyNestedBrackets, 0)
	}
	l.readChar()
	l.nesting++
	f := l.topFString()
	f.interps = append(f.interps, interpolation{nesting: l.nesting})
	return l.token(LBRACE, start, TokenValue{})
}

func (l *Lexer) closeInterpolation(start int) Token {
	l.readChar()
	l.nesting--
	f := l.topFString()
	f.interps = f.interps[:len(f.interps)-1]
	return l.token(RBRACE, start, TokenValue{})
}

// readFStringMiddle collects literal text up to the next replacement field
// or the closing quote. Doubled braces collapse to one.
func (l *Lexer) readFStringMiddle(frame *fstringFrame, inSpec bool) (string, bool) {
	var b strings.Builder
	for !l.atEOF() {
		if strings.HasPrefix(l.input[l.position:], frame.quote) {
			return b.String(), !inSpec
		}
		switch l.ch {
		case '{':
			if !inSpec && l.peekChar() == '{' {
				b.WriteByte('{')
				l.readChar()
				l.readChar()
				continue
			}
			return b.String(), true
		case '}':
			if !inSpec && l.peekChar() == '}' {
				b.WriteByte('}')
				l.readChar()
				l.readChar()
				continue
			}
			return b.String(), true
		case '\\':
			next := l.peekChar()
			if next == '{' || next == '}' {
				b.WriteByte('\\')
				l.readChar()
				continue
			}
			if !frame.raw && next == 'N' && l.peekCharN(2) == '{' {
				for !l.atEOF() && l.ch != '}' {
					b.WriteString(l.currentChar())
					l.readChar()
				}
				if l.atEOF() {
					return b.String(), false
				}
				b.WriteByte('}')
				l.readChar()
				continue
			}
			b.WriteByte('\\')
			l.readChar()
			if l.atEOF() {
				return b.String(), false
			}
		case '\n', '\r':
			if len(frame.quote) == 1 {
				return b.String(), false
			}
		}
		b.WriteString(l.currentChar())
		l.readChar()
	}
	return b.String(), false
}

// Tokenize lexes the whole input. The result ends with EOF or with the
// first ERROR token.
func Tokenize(input string, includeComments bool) []Token {
	l := New(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Kind == COMMENT && !includeComments {
			continue
		}
		tokens = append(tokens, tok)
		if tok.Kind == EOF || tok.Kind == ERROR {
			return tokens
		}
	}
}

// isIdentStart reports whether r may begin an identifier.
func isIdentStart(r rune) bool {
	if r < utf8.RuneSelf {
		return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	}
	return unicode.In(r, unicode.L, unicode.Nl, unicode.Other_ID_Start)
}

// isIdentContinue reports whether r may continue an identifier.
func isIdentContinue(r rune) bool {
	if r < utf8.RuneSelf {
		return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
	}
	return isIdentStart(r) || unicode.In(r, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc, unicode.Other_ID_Continue)
}

func bracketKind(ch byte) Kind {
	switch ch {
	case '(':
		return LPAREN
	case ')':
		return RPAREN
	case '[':
		return LBRACKET
	case ']':
		return RBRACKET
	case '{':
		return LBRACE
	}
	return RBRACE
}

// isDigit checks if the character is a digit
func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}
