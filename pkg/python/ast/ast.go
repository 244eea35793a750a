package ast

import (
	"bytes"
	"strings"
)

// Node is the byte span of a syntax node in its source. It never owns text.
type Node struct {
	Start int // start offset in source
	End   int // end offset in source, exclusive
}

// NewNode builds a span.
func NewNode(start, end int) Node {
	return Node{Start: start, End: end}
}

// GetNode returns the span. Embedding Node gives every AST struct this method.
func (n Node) GetNode() Node { return n }

// Len returns the span length in bytes.
func (n Node) Len() int { return n.End - n.Start }

// IsEmpty reports whether the span covers no bytes.
func (n Node) IsEmpty() bool { return n.Len() == 0 }

// Contains reports whether pos falls inside the span.
func (n Node) Contains(pos int) bool { return pos >= n.Start && pos < n.End }

// Spanned is anything with a source span that can render itself.
type Spanned interface {
	GetNode() Node
	String() string
}

// Statement represents statement nodes
type Statement interface {
	Spanned
	statementNode()
}

// Expression represents expression nodes
type Expression interface {
	Spanned
	expressionNode()
}

// Module represents the root node of every AST
type Module struct {
	Node
	Body []Statement
}

func (m *Module) String() string {
	var out bytes.Buffer
	for _, s := range m.Body {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// Assign represents 'a = b = value'. Targets are in source order.
type Assign struct {
	Node
	Targets []Expression
	Value   Expression
}

func (s *Assign) statementNode() {}
func (s *Assign) String() string {
	var out bytes.Buffer
	for _, t := range s.Targets {
		out.WriteString(t.String())
		out.WriteString(" = ")
	}
	out.WriteString(s.Value.String())
	return out.String()
}

// AnnAssign represents 'target: annotation = value'. Simple is true when
// the target is a bare name outside parentheses.
type AnnAssign struct {
	Node
	Target     Expression
	Annotation Expression
	Value      Expression // may be nil
	Simple     bool
}

func (s *AnnAssign) statementNode() {}
func (s *AnnAssign) String() string {
	out := s.Target.String() + ": " + s.Annotation.String()
	if s.Value != nil {
		out += " = " + s.Value.String()
	}
	return out
}

// AugAssign represents 'target op= value'.
type AugAssign struct {
	Node
	Target Expression
	Op     BinaryOperator
	Value  Expression
}

func (s *AugAssign) statementNode() {}
func (s *AugAssign) String() string {
	return s.Target.String() + " " + s.Op.String() + "= " + s.Value.String()
}

// ExpressionStatement is an expression evaluated for its effect.
type ExpressionStatement struct {
	Node
	Value Expression
}

func (s *ExpressionStatement) statementNode() {}
func (s *ExpressionStatement) String() string { return s.Value.String() }

type Assert struct {
	Node
	Test Expression
	Msg  Expression
}

func (s *Assert) statementNode() {}
func (s *Assert) String() string {
	out := "assert " + s.Test.String()
	if s.Msg != nil {
		out += ", " + s.Msg.String()
	}
	return out
}

type Pass struct{ Node }

func (s *Pass) statementNode()  {}
func (s *Pass) String() string { return "pass" }

type Delete struct {
	Node
	Targets []Expression
}

func (s *Delete) statementNode()  {}
func (s *Delete) String() string { return "del " + joinExprs(s.Targets, ", ") }

type Return struct {
	Node
	Value Expression
}

func (s *Return) statementNode() {}
func (s *Return) String() string {
	if s.Value == nil {
		return "return"
	}
	return "return " + s.Value.String()
}

type Raise struct {
	Node
	Exc   Expression
	Cause Expression
}

func (s *Raise) statementNode() {}
func (s *Raise) String() string {
	out := "raise"
	if s.Exc != nil {
		out += " " + s.Exc.String()
	}
	if s.Cause != nil {
		out += " from " + s.Cause.String()
	}
	return out
}

type Break struct{ Node }

func (s *Break) statementNode()  {}
func (s *Break) String() string { return "break" }

type Continue struct{ Node }

func (s *Continue) statementNode()  {}
func (s *Continue) String() string { return "continue" }

// Alias is one imported name with its optional 'as' name.
type Alias struct {
	Node
	Name   string
	AsName string
}

// BoundName returns the name the import binds in the importing scope.
func (a *Alias) BoundName() string {
	if a.AsName != "" {
		return a.AsName
	}
	return a.Name
}

func (a *Alias) String() string {
	if a.AsName != "" {
		return a.Name + " as " + a.AsName
	}
	return a.Name
}

type Import struct {
	Node
	Names []*Alias
}

func (s *Import) statementNode()  {}
func (s *Import) String() string { return "import " + joinAliases(s.Names) }

// ImportFrom represents 'from .module import names'. Level counts the
// leading dots.
type ImportFrom struct {
	Node
	Module string
	Names  []*Alias
	Level  int
}

func (s *ImportFrom) statementNode() {}
func (s *ImportFrom) String() string {
	return "from " + strings.Repeat(".", s.Level) + s.Module + " import " + joinAliases(s.Names)
}

type Global struct {
	Node
	Names []string
}

func (s *Global) statementNode()  {}
func (s *Global) String() string { return "global " + strings.Join(s.Names, ", ") }

type Nonlocal struct {
	Node
	Names []string
}

func (s *Nonlocal) statementNode()  {}
func (s *Nonlocal) String() string { return "nonlocal " + strings.Join(s.Names, ", ") }

// If represents if/elif/else. An elif chain nests as a single If in Orelse.
type If struct {
	Node
	Test   Expression
	Body   []Statement
	Orelse []Statement
}

func (s *If) statementNode() {}
func (s *If) String() string {
	var out bytes.Buffer
	out.WriteString("if " + s.Test.String() + ":")
	writeBlock(&out, s.Body)
	writeElse(&out, s.Orelse)
	return out.String()
}

type While struct {
	Node
	Test   Expression
	Body   []Statement
	Orelse []Statement
}

func (s *While) statementNode() {}
func (s *While) String() string {
	var out bytes.Buffer
	out.WriteString("while " + s.Test.String() + ":")
	writeBlock(&out, s.Body)
	writeElse(&out, s.Orelse)
	return out.String()
}

type For struct {
	Node
	Target  Expression
	Iter    Expression
	Body    []Statement
	Orelse  []Statement
	IsAsync bool
}

func (s *For) statementNode() {}
func (s *For) String() string {
	var out bytes.Buffer
	if s.IsAsync {
		out.WriteString("async ")
	}
	out.WriteString("for " + s.Target.String() + " in " + s.Iter.String() + ":")
	writeBlock(&out, s.Body)
	writeElse(&out, s.Orelse)
	return out.String()
}

type WithItem struct {
	Node
	ContextExpr  Expression
	OptionalVars Expression
}

func (w *WithItem) String() string {
	if w.OptionalVars != nil {
		return w.ContextExpr.String() + " as " + w.OptionalVars.String()
	}
	return w.ContextExpr.String()
}

type With struct {
	Node
	Items   []*WithItem
	Body    []Statement
	IsAsync bool
}

func (s *With) statementNode() {}
func (s *With) String() string {
	var out bytes.Buffer
	if s.IsAsync {
		out.WriteString("async ")
	}
	items := make([]string, len(s.Items))
	for i, item := range s.Items {
		items[i] = item.String()
	}
	out.WriteString("with " + strings.Join(items, ", ") + ":")
	writeBlock(&out, s.Body)
	return out.String()
}

type ExceptHandler struct {
	Node
	Type Expression // nil for a bare except
	Name string
	Body []Statement
}

func (h *ExceptHandler) header(star bool) string {
	out := "except"
	if star {
		out += "*"
	}
	if h.Type != nil {
		out += " " + h.Type.String()
	}
	if h.Name != "" {
		out += " as " + h.Name
	}
	return out + ":"
}

func (h *ExceptHandler) String() string {
	var out bytes.Buffer
	out.WriteString(h.header(false))
	writeBlock(&out, h.Body)
	return out.String()
}

// Try represents try statements. IsStar marks the 'except*' form.
type Try struct {
	Node
	Body      []Statement
	Handlers  []*ExceptHandler
	Orelse    []Statement
	Finalbody []Statement
	IsStar    bool
}

func (s *Try) statementNode() {}
func (s *Try) String() string {
	var out bytes.Buffer
	out.WriteString("try:")
	writeBlock(&out, s.Body)
	for _, h := range s.Handlers {
		out.WriteString("\n" + h.header(s.IsStar))
		writeBlock(&out, h.Body)
	}
	writeElse(&out, s.Orelse)
	if len(s.Finalbody) > 0 {
		out.WriteString("\nfinally:")
		writeBlock(&out, s.Finalbody)
	}
	return out.String()
}

type FunctionDef struct {
	Node
	Name          string
	Args          *Arguments
	Body          []Statement
	DecoratorList []Expression
	Returns       Expression
	TypeParams    []TypeParam
	IsAsync       bool
}

func (s *FunctionDef) statementNode() {}
func (s *FunctionDef) String() string {
	var out bytes.Buffer
	writeDecorators(&out, s.DecoratorList)
	if s.IsAsync {
		out.WriteString("async ")
	}
	out.WriteString("def " + s.Name + typeParamsString(s.TypeParams) + "(" + s.Args.String() + ")")
	if s.Returns != nil {
		out.WriteString(" -> " + s.Returns.String())
	}
	out.WriteString(":")
	writeBlock(&out, s.Body)
	return out.String()
}

type ClassDef struct {
	Node
	Name          string
	Bases         []Expression
	Keywords      []*Keyword
	Body          []Statement
	DecoratorList []Expression
	TypeParams    []TypeParam
}

func (s *ClassDef) statementNode() {}
func (s *ClassDef) String() string {
	var out bytes.Buffer
	writeDecorators(&out, s.DecoratorList)
	out.WriteString("class " + s.Name + typeParamsString(s.TypeParams))
	if len(s.Bases) > 0 || len(s.Keywords) > 0 {
		out.WriteString("(" + callArgsString(s.Bases, s.Keywords) + ")")
	}
	out.WriteString(":")
	writeBlock(&out, s.Body)
	return out.String()
}

type MatchCase struct {
	Node
	Pattern Pattern
	Guard   Expression
	Body    []Statement
}

func (c *MatchCase) String() string {
	var out bytes.Buffer
	out.WriteString("case " + c.Pattern.String())
	if c.Guard != nil {
		out.WriteString(" if " + c.Guard.String())
	}
	out.WriteString(":")
	writeBlock(&out, c.Body)
	return out.String()
}

type Match struct {
	Node
	Subject Expression
	Cases   []*MatchCase
}

func (s *Match) statementNode() {}
func (s *Match) String() string {
	var out bytes.Buffer
	out.WriteString("match " + s.Subject.String() + ":")
	for _, c := range s.Cases {
		out.WriteString("\n" + indent(c.String()))
	}
	return out.String()
}

// TypeAlias represents 'type Name[params] = value'.
type TypeAlias struct {
	Node
	Name       string
	TypeParams []TypeParam
	Value      Expression
}

func (s *TypeAlias) statementNode() {}
func (s *TypeAlias) String() string {
	return "type " + s.Name + typeParamsString(s.TypeParams) + " = " + s.Value.String()
}

// TypeParam is a PEP 695 type parameter.
type TypeParam interface {
	Spanned
	ParamName() string
	typeParamNode()
}

type TypeVar struct {
	Node
	Name  string
	Bound Expression
}

func (p *TypeVar) typeParamNode()      {}
func (p *TypeVar) ParamName() string { return p.Name }
func (p *TypeVar) String() string {
	if p.Bound != nil {
		return p.Name + ": " + p.Bound.String()
	}
	return p.Name
}

type ParamSpec struct {
	Node
	Name string
}

func (p *ParamSpec) typeParamNode()      {}
func (p *ParamSpec) ParamName() string { return p.Name }
func (p *ParamSpec) String() string    { return "**" + p.Name }

type TypeVarTuple struct {
	Node
	Name string
}

func (p *TypeVarTuple) typeParamNode()      {}
func (p *TypeVarTuple) ParamName() string { return p.Name }
func (p *TypeVarTuple) String() string    { return "*" + p.Name }

func typeParamsString(params []TypeParam) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func joinAliases(names []*Alias) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}

func writeDecorators(out *bytes.Buffer, decorators []Expression) {
	for _, d := range decorators {
		out.WriteString("@" + d.String() + "\n")
	}
}

// writeBlock writes an indented suite after a header line.
func writeBlock(out *bytes.Buffer, body []Statement) {
	for _, s := range body {
		out.WriteString("\n")
		out.WriteString(indent(s.String()))
	}
}

func writeElse(out *bytes.Buffer, orelse []Statement) {
	if len(orelse) == 0 {
		return
	}
	if len(orelse) == 1 {
		if elif, ok := orelse[0].(*If); ok {
			out.WriteString("\nel" + elif.String())
			return
		}
	}
	out.WriteString("\nelse:")
	writeBlock(out, orelse)
}

func indent(s string) string {
	return "    " + strings.ReplaceAll(s, "\n", "\n    ")
}
