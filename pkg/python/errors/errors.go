// Package errors provides structured diagnostics for the Python front end.
//
// ParsingError is the one diagnostic type shared by the lexer boundary, the
// parser and the tools built on them. Most errors come from a catalog keyed by
// code so their wording stays consistent across commands and output formats.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering and templating.
type ErrorClass string

const (
	ClassLexical ErrorClass = "lexical" // Error tokens from the lexer
	ClassSyntax  ErrorClass = "syntax"  // Grammar violations
	ClassStyle   ErrorClass = "style"   // Non-fatal diagnostics
	ClassIO      ErrorClass = "io"      // File operations
	ClassConfig  ErrorClass = "config"  // Project configuration
)

// Span is a byte range in the source, End exclusive.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ParsingError is a diagnostic produced while reading a source file. The
// InvalidSyntax shape is Message, Input (the offending line), Advice and Span.
type ParsingError struct {
	Class   ErrorClass     `json:"class"`            // Error category
	Code    string         `json:"code"`             // Error code (e.g., "PARSE-0001")
	Message string         `json:"message"`          // Human-readable message
	Input   string         `json:"input,omitempty"`  // Text of the offending line
	Advice  string         `json:"advice,omitempty"` // Suggestion for fixing
	Hints   []string       `json:"hints,omitempty"`
	Span    Span           `json:"span"`
	Line    int            `json:"line"`           // 1-based line (0 if unknown)
	Column  int            `json:"column"`         // 1-based column (0 if unknown)
	File    string         `json:"file,omitempty"` // File path (if known)
	Data    map[string]any `json:"data,omitempty"` // Template variables
}

// Error implements the error interface.
func (e *ParsingError) Error() string {
	return e.String()
}

// String returns a formatted string representation of the error.
func (e *ParsingError) String() string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns a multi-line rendering with the offending line and
// a caret under the reported column.
func (e *ParsingError) PrettyString() string {
	var sb strings.Builder

	switch e.Class {
	case ClassLexical:
		sb.WriteString("Lexical error")
	case ClassSyntax:
		sb.WriteString("Syntax error")
	case ClassStyle:
		sb.WriteString("Warning")
	default:
		sb.WriteString("Error")
	}
	if e.Code != "" {
		sb.WriteString(" [" + e.Code + "]")
	}

	if e.File != "" {
		sb.WriteString(":\n  in: ")
		sb.WriteString(e.File)
		if e.Line > 0 {
			sb.WriteString(fmt.Sprintf("\n  at: line %d, column %d", e.Line, e.Column))
		}
		sb.WriteString("\n  ")
	} else if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(": line %d, column %d\n  ", e.Line, e.Column))
	} else {
		sb.WriteString(":\n  ")
	}

	sb.WriteString(e.Message)

	if e.Input != "" {
		sb.WriteString("\n\n    ")
		sb.WriteString(e.Input)
		if e.Column > 0 {
			sb.WriteString("\n    ")
			sb.WriteString(caretLine(e.Input, e.Column))
		}
	}

	if e.Advice != "" {
		sb.WriteString("\n  ")
		sb.WriteString(e.Advice)
	}

	for i, hint := range e.Hints {
		sb.WriteString("\n  ")
		if i == 0 {
			sb.WriteString("Hint: ")
		} else {
			sb.WriteString("  or: ")
		}
		sb.WriteString(hint)
	}

	return sb.String()
}

// caretLine places '^' under a 1-based byte column, keeping tabs so the
// caret lines up with the echoed input.
func caretLine(input string, column int) string {
	var sb strings.Builder
	for i := 0; i < column-1 && i < len(input); i++ {
		if input[i] == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
	}
	sb.WriteByte('^')
	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *ParsingError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithFile returns a copy of the error with the file path set.
func (e *ParsingError) WithFile(file string) *ParsingError {
	copy := *e
	copy.File = file
	return &copy
}

// IsFatal reports whether the error should fail the file. Style
// diagnostics are reported but do not.
func (e *ParsingError) IsFatal() bool {
	return e.Class != ClassStyle
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass // Error category
	Template string     // Message template with {{.placeholders}}
	Advice   string     // Advice template
	Hints    []string   // Hint templates (may use {{.placeholders}})
}

// ErrorCatalog maps error codes to their definitions. Lexical codes follow
// the lexer's error kinds in order.
var ErrorCatalog = map[string]ErrorDef{
	// ========================================
	// Lexical errors (LEX-0xxx)
	// ========================================
	"LEX-0001": {
		Class:    ClassLexical,
		Template: "{{.Message}}",
		Advice:   "Add the closing quote of the string",
	},
	"LEX-0002": {
		Class:    ClassLexical,
		Template: "{{.Message}}",
		Advice:   "Binary literals only contain the digits 0 and 1",
	},
	"LEX-0003": {
		Class:    ClassLexical,
		Template: "{{.Message}}",
		Advice:   "Octal literals only contain the digits 0 to 7",
	},
	"LEX-0004": {
		Class:    ClassLexical,
		Template: "{{.Message}}",
		Advice:   "Hexadecimal literals only contain the digits 0 to 9 and a to f",
	},
	"LEX-0005": {
		Class:    ClassLexical,
		Template: "{{.Message}}",
		Advice:   "Separate the number from the name that follows it",
	},
	"LEX-0006": {
		Class:    ClassLexical,
		Template: "{{.Message}}",
		Advice:   "Indent the line to the same width as an enclosing block",
	},
	"LEX-0007": {
		Class:    ClassLexical,
		Template: "{{.Message}}",
	},
	"LEX-0008": {
		Class:    ClassLexical,
		Template: "{{.Message}}",
		Advice:   "Remove the bracket or add its opening partner",
	},
	"LEX-0009": {
		Class:    ClassLexical,
		Template: "{{.Message}}",
		Advice:   "Write '}}' for a literal closing brace",
	},
	"LEX-0010": {
		Class:    ClassLexical,
		Template: "{{.Message}}",
	},
	"LEX-0011": {
		Class:    ClassLexical,
		Template: "{{.Message}}",
		Advice:   "Use an 0o prefix for octal integers",
	},

	// ========================================
	// Syntax errors (PARSE-0xxx)
	// ========================================
	"PARSE-0001": {
		Class:    ClassSyntax,
		Template: "expected {{.Expected}}, got '{{.Got}}'",
		Advice:   "Add {{.Expected}} here",
	},
	"PARSE-0002": {
		Class:    ClassSyntax,
		Template: "unexpected token '{{.Token}}'",
	},
	"PARSE-0003": {
		Class:    ClassSyntax,
		Template: "Unexpected indent",
		Advice:   "Remove the extra indentation",
	},
	"PARSE-0004": {
		Class:    ClassStyle,
		Template: "Statement does not end in new line or semicolon",
		Advice:   "Split the statements with a new line or a ';'",
	},
	"PARSE-0005": {
		Class:    ClassSyntax,
		Template: "non-default argument follows default argument",
		Advice:   "Move '{{.Name}}' before the parameters that have defaults",
	},
	"PARSE-0006": {
		Class:    ClassSyntax,
		Template: "var-positional argument cannot have default value",
	},
	"PARSE-0007": {
		Class:    ClassSyntax,
		Template: "var-keyword argument cannot have default value",
	},
	"PARSE-0008": {
		Class:    ClassSyntax,
		Template: "positional argument follows keyword argument",
		Advice:   "Pass positional arguments before keyword arguments",
	},
	"PARSE-0009": {
		Class:    ClassSyntax,
		Template: "positional patterns follow keyword patterns",
		Advice:   "Put positional sub-patterns before keyword sub-patterns",
	},
	"PARSE-0010": {
		Class:    ClassSyntax,
		Template: "Type parameter list cannot be empty",
	},
	"PARSE-0011": {
		Class:    ClassSyntax,
		Template: "cannot assign to {{.Target}}",
	},
	"PARSE-0012": {
		Class:    ClassSyntax,
		Template: "cannot mix bytes and nonbytes literals",
	},
	"PARSE-0013": {
		Class:    ClassSyntax,
		Template: "f-string: {{.Problem}}",
	},
	"PARSE-0014": {
		Class:    ClassSyntax,
		Template: "invalid escape in {{.Literal}}: {{.Problem}}",
	},
	"PARSE-0015": {
		Class:    ClassSyntax,
		Template: "duplicate argument '{{.Name}}' in function definition",
	},
	"PARSE-0016": {
		Class:    ClassSyntax,
		Template: "expected an indented block after {{.Construct}}",
		Advice:   "Indent the body of the {{.Construct}}",
	},
	"PARSE-0017": {
		Class:    ClassSyntax,
		Template: "'{{.Keyword}}' is not allowed here",
	},
	"PARSE-0018": {
		Class:    ClassSyntax,
		Template: "iterable argument unpacking follows keyword argument unpacking",
		Advice:   "Pass *args before **kwargs",
	},
	"PARSE-0019": {
		Class:    ClassSyntax,
		Template: "Generator expression must be parenthesized",
		Advice:   "Wrap the generator expression in its own parentheses",
	},
	"PARSE-0020": {
		Class:    ClassSyntax,
		Template: "cannot use starred expression here",
	},
	"PARSE-0021": {
		Class:    ClassSyntax,
		Template: "iterable unpacking cannot be used in comprehension",
	},

	// ========================================
	// I/O errors (IO-0xxx)
	// ========================================
	"IO-0001": {
		Class:    ClassIO,
		Template: "failed to read '{{.Path}}': {{.GoError}}",
	},
	"IO-0002": {
		Class:    ClassIO,
		Template: "failed to walk '{{.Path}}': {{.GoError}}",
	},

	// ========================================
	// Configuration errors (CONFIG-0xxx)
	// ========================================
	"CONFIG-0001": {
		Class:    ClassConfig,
		Template: "invalid configuration in '{{.Path}}': {{.GoError}}",
	},
}

// New creates a ParsingError from the catalog.
// If the code is not found, creates a generic syntax error with the message.
func New(code string, data map[string]any) *ParsingError {
	def, ok := ErrorCatalog[code]
	if !ok {
		msg := code
		if data != nil {
			if m, ok := data["message"].(string); ok {
				msg = m
			}
		}
		return &ParsingError{
			Class:   ClassSyntax,
			Code:    code,
			Message: msg,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		rendered := renderTemplate(hintTmpl, data)
		if rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &ParsingError{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Advice:  renderTemplate(def.Advice, data),
		Hints:   hints,
		Data:    data,
	}
}

// renderTemplate renders a Go template with the given data.
func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil || !strings.Contains(tmplStr, "{{") {
		return tmplStr
	}

	tmpl, err := template.New("").Option("missingkey=zero").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}

// Sort orders errors by file, then source offset, then code.
func Sort(errs []*ParsingError) {
	sort.SliceStable(errs, func(i, j int) bool {
		a, b := errs[i], errs[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}
		return a.Code < b.Code
	})
}

// CountFatal returns how many errors are not style diagnostics.
func CountFatal(errs []*ParsingError) int {
	n := 0
	for _, e := range errs {
		if e.IsFatal() {
			n++
		}
	}
	return n
}

// ============================================================================
// Fuzzy Matching - "Did you mean?" suggestions
// ============================================================================

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(a)][len(b)]
}

// threshold is the largest edit distance still worth suggesting.
func threshold(input string) int {
	switch {
	case len(input) >= 7:
		return 3
	case len(input) >= 4:
		return 2
	}
	return 1
}

// FuzzyMatch represents a fuzzy match result with its distance.
type FuzzyMatch struct {
	Value    string
	Distance int
}

// FindTopMatches returns the top N closest matches to the input.
func FindTopMatches(input string, candidates []string, n int) []string {
	if len(input) == 0 || len(candidates) == 0 || n <= 0 {
		return nil
	}

	var matches []FuzzyMatch
	for _, candidate := range candidates {
		dist := levenshteinDistance(input, candidate)
		if dist > 0 {
			matches = append(matches, FuzzyMatch{Value: candidate, Distance: dist})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	limit := threshold(input)
	var result []string
	for i := 0; i < len(matches) && i < n; i++ {
		if matches[i].Distance <= limit {
			result = append(result, matches[i].Value)
		}
	}

	return result
}

// SuggestKeyword adds "Did you mean" hints for the keywords closest to word,
// at most two. Python is case sensitive, so the comparison is too.
func (e *ParsingError) SuggestKeyword(word string, keywords []string) *ParsingError {
	for i, suggestion := range FindTopMatches(word, keywords, 2) {
		if i == 0 {
			e.Hints = append(e.Hints, "Did you mean `"+suggestion+"`?")
		} else {
			e.Hints = append(e.Hints, "`"+suggestion+"`?")
		}
	}
	return e
}
