package lexer

import (
	"fmt"
	"strconv"
)

// Kind represents the lexical category of a token
type Kind int

const (
	// Special tokens
	ERROR Kind = iota
	EOF
	COMMENT    // # to end of line
	NEWLINE    // end of a logical line
	INDENT     // deeper indentation at the start of a logical line
	DEDENT     // one level of shallower indentation
	WHITESPACE // never returned by NextToken

	// Identifiers and literals
	IDENTIFIER               // abc, _x, π
	INTEGER                  // 123, 1_000
	BINARY                   // 0b1010
	OCTAL                    // 0o17
	HEXADECIMAL              // 0xff
	POINT_FLOAT              // 1.5, .5, 1.
	EXPONENT_FLOAT           // 1e10, 1.5e-3
	IMAGINARY_INTEGER        // 3j
	IMAGINARY_POINT_FLOAT    // 1.5j
	IMAGINARY_EXPONENT_FLOAT // 1e3j
	STRING                   // "abc", 'abc', """abc"""
	RAW_STRING               // r"abc"
	BYTES                    // b"abc"
	RAW_BYTES                // rb"abc", br"abc"
	UNICODE_STRING           // u"abc"
	FSTRING_START            // f"
	RAW_FSTRING_START        // rf", fr"
	FSTRING_MIDDLE           // literal text inside an f-string
	FSTRING_END              // closing quote of an f-string

	// Keywords
	FALSE    // "False"
	NONE     // "None"
	TRUE     // "True"
	AND      // "and"
	AS       // "as"
	ASSERT   // "assert"
	ASYNC    // "async"
	AWAIT    // "await"
	BREAK    // "break"
	CLASS    // "class"
	CONTINUE // "continue"
	DEF      // "def"
	DEL      // "del"
	ELIF     // "elif"
	ELSE     // "else"
	EXCEPT   // "except"
	FINALLY  // "finally"
	FOR      // "for"
	FROM     // "from"
	GLOBAL   // "global"
	IF       // "if"
	IMPORT   // "import"
	IN       // "in"
	IS       // "is"
	LAMBDA   // "lambda"
	NONLOCAL // "nonlocal"
	NOT      // "not"
	OR       // "or"
	PASS     // "pass"
	RAISE    // "raise"
	RETURN   // "return"
	TRY      // "try"
	WHILE    // "while"
	WITH     // "with"
	YIELD    // "yield"

	// Operators
	PLUS         // +
	MINUS        // -
	ASTERISK     // *
	POWER        // **
	SLASH        // /
	DOUBLE_SLASH // //
	PERCENT      // %
	AT           // @
	LSHIFT       // <<
	RSHIFT       // >>
	AMPERSAND    // &
	PIPE         // |
	CARET        // ^
	TILDE        // ~
	WALRUS       // :=
	LT           // <
	GT           // >
	LTE          // <=
	GTE          // >=
	EQ           // ==
	NOT_EQ       // !=
	ARROW        // ->
	EXCLAMATION  // ! (f-string conversion)

	// Assignment operators
	ASSIGN           // =
	PLUS_ASSIGN      // +=
	MINUS_ASSIGN     // -=
	MUL_ASSIGN       // *=
	DIV_ASSIGN       // /=
	FLOOR_DIV_ASSIGN // //=
	MOD_ASSIGN       // %=
	MATMUL_ASSIGN    // @=
	AND_ASSIGN       // &=
	OR_ASSIGN        // |=
	XOR_ASSIGN       // ^=
	LSHIFT_ASSIGN    // <<=
	RSHIFT_ASSIGN    // >>=
	POW_ASSIGN       // **=

	// Delimiters
	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]
	LBRACE    // { (also opens an f-string interpolation)
	RBRACE    // } (also closes an f-string interpolation)
	COMMA     // ,
	COLON     // :
	SEMICOLON // ;
	DOT       // .
	ELLIPSIS  // ...
	BACKSLASH // \ not followed by a line break
	DOLLAR    // $
	QUESTION  // ?
	BACKTICK  // `
)

var kindNames = map[Kind]string{
	ERROR:      "ERROR",
	EOF:        "EOF",
	COMMENT:    "COMMENT",
	NEWLINE:    "NEWLINE",
	INDENT:     "INDENT",
	DEDENT:     "DEDENT",
	WHITESPACE: "WHITESPACE",

	IDENTIFIER:               "IDENTIFIER",
	INTEGER:                  "INTEGER",
	BINARY:                   "BINARY",
	OCTAL:                    "OCTAL",
	HEXADECIMAL:              "HEXADECIMAL",
	POINT_FLOAT:              "POINT_FLOAT",
	EXPONENT_FLOAT:           "EXPONENT_FLOAT",
	IMAGINARY_INTEGER:        "IMAGINARY_INTEGER",
	IMAGINARY_POINT_FLOAT:    "IMAGINARY_POINT_FLOAT",
	IMAGINARY_EXPONENT_FLOAT: "IMAGINARY_EXPONENT_FLOAT",
	STRING:                   "STRING",
	RAW_STRING:               "RAW_STRING",
	BYTES:                    "BYTES",
	RAW_BYTES:                "RAW_BYTES",
	UNICODE_STRING:           "UNICODE_STRING",
	FSTRING_START:            "FSTRING_START",
	RAW_FSTRING_START:        "RAW_FSTRING_START",
	FSTRING_MIDDLE:           "FSTRING_MIDDLE",
	FSTRING_END:              "FSTRING_END",

	PLUS:         "+",
	MINUS:        "-",
	ASTERISK:     "*",
	POWER:        "**",
	SLASH:        "/",
	DOUBLE_SLASH: "//",
	PERCENT:      "%",
	AT:           "@",
	LSHIFT:       "<<",
	RSHIFT:       ">>",
	AMPERSAND:    "&",
	PIPE:         "|",
	CARET:        "^",
	TILDE:        "~",
	WALRUS:       ":=",
	LT:           "<",
	GT:           ">",
	LTE:          "<=",
	GTE:          ">=",
	EQ:           "==",
	NOT_EQ:       "!=",
	ARROW:        "->",
	EXCLAMATION:  "!",

	ASSIGN:           "=",
	PLUS_ASSIGN:      "+=",
	MINUS_ASSIGN:     "-=",
	MUL_ASSIGN:       "*=",
	DIV_ASSIGN:       "/=",
	FLOOR_DIV_ASSIGN: "//=",
	MOD_ASSIGN:       "%=",
	MATMUL_ASSIGN:    "@=",
	AND_ASSIGN:       "&=",
	OR_ASSIGN:        "|=",
	XOR_ASSIGN:       "^=",
	LSHIFT_ASSIGN:    "<<=",
	RSHIFT_ASSIGN:    ">>=",
	POW_ASSIGN:       "**=",

	LPAREN:    "(",
	RPAREN:    ")",
	LBRACKET:  "[",
	RBRACKET:  "]",
	LBRACE:    "{",
	RBRACE:    "}",
	COMMA:     ",",
	COLON:     ":",
	SEMICOLON: ";",
	DOT:       ".",
	ELLIPSIS:  "...",
	BACKSLASH: "\\",
	DOLLAR:    "$",
	QUESTION:  "?",
	BACKTICK:  "`",
}

func init() {
	for word, kind := range keywords {
		kindNames[kind] = word
	}
}

// String returns the display name of the kind. Keywords and operators
// render as their source text.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword reports whether the kind is a reserved word.
func (k Kind) IsKeyword() bool {
	return k >= FALSE && k <= YIELD
}

// IsNumber reports whether the kind is a numeric literal of any shape.
func (k Kind) IsNumber() bool {
	return k >= INTEGER && k <= IMAGINARY_EXPONENT_FLOAT
}

// IsString reports whether the kind starts a string, bytes or f-string literal.
func (k Kind) IsString() bool {
	switch k {
	case STRING, RAW_STRING, BYTES, RAW_BYTES, UNICODE_STRING, FSTRING_START, RAW_FSTRING_START:
		return true
	}
	return false
}

// IsAugAssign reports whether the kind is an augmented assignment operator.
func (k Kind) IsAugAssign() bool {
	return k >= PLUS_ASSIGN && k <= POW_ASSIGN
}

var keywords = map[string]Kind{
	"False":    FALSE,
	"None":     NONE,
	"True":     TRUE,
	"and":      AND,
	"as":       AS,
	"assert":   ASSERT,
	"async":    ASYNC,
	"await":    AWAIT,
	"break":    BREAK,
	"class":    CLASS,
	"continue": CONTINUE,
	"def":      DEF,
	"del":      DEL,
	"elif":     ELIF,
	"else":     ELSE,
	"except":   EXCEPT,
	"finally":  FINALLY,
	"for":      FOR,
	"from":     FROM,
	"global":   GLOBAL,
	"if":       IF,
	"import":   IMPORT,
	"in":       IN,
	"is":       IS,
	"lambda":   LAMBDA,
	"nonlocal": NONLOCAL,
	"not":      NOT,
	"or":       OR,
	"pass":     PASS,
	"raise":    RAISE,
	"return":   RETURN,
	"try":      TRY,
	"while":    WHILE,
	"with":     WITH,
	"yield":    YIELD,
}

// LookupIdent checks if an identifier is a keyword
func LookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return IDENTIFIER
}

// Keywords returns the reserved words, used for completion and hints.
func Keywords() []string {
	words := make([]string, 0, len(keywords))
	for word := range keywords {
		words = append(words, word)
	}
	return words
}

// ValueKind says which field of a TokenValue is meaningful.
type ValueKind int

const (
	NoValue ValueKind = iota
	StrValue
	NumberValue
	IndentValue
)

// TokenValue is the payload of a token: nothing, a string, the source
// text of a number, or an indentation width.
type TokenValue struct {
	Kind   ValueKind
	Text   string
	Indent int
}

// Str builds a string payload.
func Str(s string) TokenValue { return TokenValue{Kind: StrValue, Text: s} }

// Number builds a numeric payload holding the literal's source text.
func Number(s string) TokenValue { return TokenValue{Kind: NumberValue, Text: s} }

// Indent builds an indentation payload.
func Indent(n int) TokenValue { return TokenValue{Kind: IndentValue, Indent: n} }

func (v TokenValue) String() string {
	switch v.Kind {
	case StrValue:
		return strconv.Quote(v.Text)
	case NumberValue:
		return v.Text
	case IndentValue:
		return strconv.Itoa(v.Indent)
	}
	return "None"
}

// Token is a single lexical unit. Start and End are byte offsets into the
// source, End exclusive. Line and Column are 1-based and locate Start.
type Token struct {
	Kind   Kind
	Value  TokenValue
	Start  int
	End    int
	Line   int
	Column int
	Err    *LexError // set on ERROR tokens
}

// String renders the token as "start,end: KIND value".
func (t Token) String() string {
	if t.Value.Kind == NoValue {
		return fmt.Sprintf("%d,%d: %s", t.Start, t.End, t.Kind)
	}
	return fmt.Sprintf("%d,%d: %s %s", t.Start, t.End, t.Kind, t.Value)
}

// Text returns the token's payload text, or the kind's name when it has none.
func (t Token) Text() string {
	switch t.Value.Kind {
	case StrValue, NumberValue:
		return t.Value.Text
	}
	return t.Kind.String()
}
