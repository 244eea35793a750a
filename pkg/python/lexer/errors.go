package lexer

import "fmt"

// LexErrorKind identifies a lexical failure.
type LexErrorKind int

const (
	StringNotTerminated LexErrorKind = iota
	InvalidDigitInBinaryLiteral
	InvalidDigitInOctalLiteral
	InvalidDigitInHexadecimalLiteral
	InvalidDigitInDecimalLiteral
	UnindentDoesNotMatchAnyOuterIndentationLevel
	TooManyNestedBrackets
	UnmatchedBracket
	SingleClosingBraceInFString
	InvalidCharacter
	LeadingZerosInDecimalLiteral
)

// Code returns the diagnostic code for the kind (LEX-0001 and up).
func (k LexErrorKind) Code() string {
	return fmt.Sprintf("LEX-%04d", int(k)+1)
}

// LexError describes why the lexer produced an ERROR token.
type LexError struct {
	Kind   LexErrorKind
	Char   rune // offending character, 0 when not applicable
	Offset int  // byte offset the error is reported at
	Line   int
	Column int
}

func (e *LexError) Error() string {
	switch e.Kind {
	case StringNotTerminated:
		return "unterminated string literal"
	case InvalidDigitInBinaryLiteral:
		return e.digitMessage("binary")
	case InvalidDigitInOctalLiteral:
		return e.digitMessage("octal")
	case InvalidDigitInHexadecimalLiteral:
		return e.digitMessage("hexadecimal")
	case InvalidDigitInDecimalLiteral:
		return e.digitMessage("decimal")
	case UnindentDoesNotMatchAnyOuterIndentationLevel:
		return "unindent does not match any outer indentation level"
	case TooManyNestedBrackets:
		return fmt.Sprintf("too many nested brackets (limit %d)", MaxNesting)
	case UnmatchedBracket:
		return fmt.Sprintf("unmatched '%c'", e.Char)
	case SingleClosingBraceInFString:
		return "f-string: single '}' is not allowed"
	case InvalidCharacter:
		return fmt.Sprintf("invalid character '%c' (U+%04X)", e.Char, e.Char)
	case LeadingZerosInDecimalLiteral:
		return "leading zeros in decimal integer literals are not permitted"
	}
	return "lexical error"
}

func (e *LexError) digitMessage(base string) string {
	if e.Char == 0 || e.Char == ' ' || e.Char == '\n' {
		return fmt.Sprintf("invalid %s literal", base)
	}
	return fmt.Sprintf("invalid digit '%c' in %s literal", e.Char, base)
}
