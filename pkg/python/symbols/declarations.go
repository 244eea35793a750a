package symbols

import (
	"fmt"
	"strings"

	"github.com/sambeau/pyfront/pkg/python/ast"
)

// DeclarationPath records where a declaration came from.
type DeclarationPath struct {
	ModuleName string
	Node       ast.Node
}

// Path returns p. Every declaration embeds a DeclarationPath and so
// satisfies Declaration through this method.
func (p DeclarationPath) Path() DeclarationPath { return p }

func (p DeclarationPath) String() string {
	return fmt.Sprintf("%s:%d..%d", p.ModuleName, p.Node.Start, p.Node.End)
}

// Declaration is one binding of a name.
type Declaration interface {
	Path() DeclarationPath
	Kind() DeclarationKind
	String() string
}

type DeclarationKind int

const (
	VariableDeclaration DeclarationKind = iota
	FunctionDeclaration
	ClassDeclaration
	AliasDeclaration
	ParameterDeclaration
	TypeParameterDeclaration
	TypeAliasDeclaration
)

var declarationKindNames = [...]string{
	VariableDeclaration:      "Variable",
	FunctionDeclaration:      "Function",
	ClassDeclaration:         "Class",
	AliasDeclaration:         "Alias",
	ParameterDeclaration:     "Parameter",
	TypeParameterDeclaration: "TypeParameter",
	TypeAliasDeclaration:     "TypeAlias",
}

func (k DeclarationKind) String() string { return declarationKindNames[k] }

// SymbolScope says how a variable binding relates to the enclosing scopes.
type SymbolScope int

const (
	Local SymbolScope = iota
	Global
	Nonlocal
	Unknown
)

func (s SymbolScope) String() string {
	switch s {
	case Local:
		return "local"
	case Global:
		return "global"
	case Nonlocal:
		return "nonlocal"
	}
	return "unknown"
}

// Variable is a name bound by assignment, a loop, 'with', 'except', a
// match capture or ':='.
type Variable struct {
	DeclarationPath
	Scope              SymbolScope
	TypeAnnotation     ast.Expression
	InferredTypeSource ast.Expression
	IsConstant         bool // the name is all upper case
}

func (v *Variable) Kind() DeclarationKind { return VariableDeclaration }
func (v *Variable) String() string {
	var parts []string
	parts = append(parts, "scope="+v.Scope.String())
	if v.TypeAnnotation != nil {
		parts = append(parts, "annotation="+v.TypeAnnotation.String())
	}
	if v.InferredTypeSource != nil {
		parts = append(parts, "value="+v.InferredTypeSource.String())
	}
	if v.IsConstant {
		parts = append(parts, "constant")
	}
	return describeDeclaration(v, parts)
}

// Function is a 'def'. The statement lists hold what appears directly in
// the body, not in nested functions or classes.
type Function struct {
	DeclarationPath
	Node             *ast.FunctionDef
	IsMethod         bool
	IsGenerator      bool
	ReturnStatements []*ast.Return
	YieldStatements  []ast.Expression // *ast.Yield or *ast.YieldFrom
	RaiseStatements  []*ast.Raise
}

func (f *Function) Kind() DeclarationKind { return FunctionDeclaration }

// IsAbstract reports whether f is a method decorated with abstractmethod.
func (f *Function) IsAbstract() bool {
	if !f.IsMethod {
		return false
	}
	for _, d := range f.Node.DecoratorList {
		switch d := d.(type) {
		case *ast.Name:
			if d.ID == "abstractmethod" {
				return true
			}
		case *ast.Attribute:
			if d.Attr == "abstractmethod" {
				return true
			}
		}
	}
	return false
}

func (f *Function) String() string {
	parts := []string{"name=" + f.Node.Name}
	if f.Node.IsAsync {
		parts = append(parts, "async")
	}
	if f.IsMethod {
		parts = append(parts, "method")
	}
	if f.IsGenerator {
		parts = append(parts, "generator")
	}
	if f.IsAbstract() {
		parts = append(parts, "abstract")
	}
	parts = append(parts, fmt.Sprintf("returns=%d raises=%d", len(f.ReturnStatements), len(f.RaiseStatements)))
	return describeDeclaration(f, parts)
}

// Class is a 'class' statement. Attributes are the instance attributes
// assigned through the first parameter of __init__.
type Class struct {
	DeclarationPath
	Name       string
	Node       *ast.ClassDef // nil for builtin classes
	Methods    []string
	Attributes map[string]ast.Expression
}

func (c *Class) Kind() DeclarationKind { return ClassDeclaration }
func (c *Class) String() string {
	parts := []string{"name=" + c.Name}
	if len(c.Methods) > 0 {
		parts = append(parts, "methods=["+strings.Join(c.Methods, ", ")+"]")
	}
	if len(c.Attributes) > 0 {
		parts = append(parts, "attributes=["+strings.Join(sortedKeys(c.Attributes), ", ")+"]")
	}
	return describeDeclaration(c, parts)
}

// ParameterKind is the position of a parameter in a signature.
type ParameterKind int

const (
	PositionalOnly ParameterKind = iota
	PositionalOrKeyword
	VarPositional
	KeywordOnly
	VarKeyword
)

var parameterKindNames = [...]string{
	PositionalOnly:      "positional-only",
	PositionalOrKeyword: "positional",
	VarPositional:       "*args",
	KeywordOnly:         "keyword-only",
	VarKeyword:          "**kwargs",
}

func (k ParameterKind) String() string { return parameterKindNames[k] }

type Parameter struct {
	DeclarationPath
	Node           *ast.Arg
	ParameterKind  ParameterKind
	TypeAnnotation ast.Expression
	DefaultValue   ast.Expression
}

func (p *Parameter) Kind() DeclarationKind { return ParameterDeclaration }
func (p *Parameter) String() string {
	parts := []string{p.ParameterKind.String()}
	if p.TypeAnnotation != nil {
		parts = append(parts, "annotation="+p.TypeAnnotation.String())
	}
	if p.DefaultValue != nil {
		parts = append(parts, "default="+p.DefaultValue.String())
	}
	return describeDeclaration(p, parts)
}

// Alias is a name bound by an import. Exactly one of Import and
// ImportFrom is set. SymbolName is the imported name for 'from m import
// name'.
type Alias struct {
	DeclarationPath
	Import     *ast.Import
	ImportFrom *ast.ImportFrom
	SymbolName string
}

func (a *Alias) Kind() DeclarationKind { return AliasDeclaration }
func (a *Alias) String() string {
	var parts []string
	if a.ImportFrom != nil {
		parts = append(parts, "from="+strings.Repeat(".", a.ImportFrom.Level)+a.ImportFrom.Module)
		parts = append(parts, "symbol="+a.SymbolName)
	} else if a.Import != nil {
		parts = append(parts, "import")
	}
	return describeDeclaration(a, parts)
}

type TypeParameter struct {
	DeclarationPath
	Node ast.TypeParam
}

func (t *TypeParameter) Kind() DeclarationKind { return TypeParameterDeclaration }
func (t *TypeParameter) String() string {
	return describeDeclaration(t, []string{t.Node.String()})
}

type TypeAlias struct {
	DeclarationPath
	Node *ast.TypeAlias
}

func (t *TypeAlias) Kind() DeclarationKind { return TypeAliasDeclaration }
func (t *TypeAlias) String() string {
	return describeDeclaration(t, []string{"value=" + t.Node.Value.String()})
}

func describeDeclaration(d Declaration, parts []string) string {
	out := d.Kind().String() + " (" + d.Path().String() + ")"
	if len(parts) > 0 {
		out += " " + strings.Join(parts, " ")
	}
	return out
}
