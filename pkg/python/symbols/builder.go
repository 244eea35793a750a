package symbols

import (
	"unicode"

	"github.com/sambeau/pyfront/pkg/python/ast"
)

// Builder walks a module and records its declarations.
type Builder struct {
	table      *SymbolTable
	moduleName string

	// names declared global or nonlocal, one map per open scope
	bindings []map[string]SymbolScope

	// set while walking the body of a class's __init__
	initClass *Class
	initSelf  string

	classes []*Class // enclosing class declarations, innermost last
}

// NewBuilder returns a builder that fills a fresh table for moduleName.
func NewBuilder(moduleName string) *Builder {
	return &Builder{
		table:      New(moduleName),
		moduleName: moduleName,
		bindings:   []map[string]SymbolScope{{}},
	}
}

// Build is shorthand for NewBuilder(moduleName).Build(module).
func Build(module *ast.Module, moduleName string) *SymbolTable {
	return NewBuilder(moduleName).Build(module)
}

// Build walks every statement of module and returns the filled table.
func (b *Builder) Build(module *ast.Module) *SymbolTable {
	b.visitStatements(module.Body)
	return b.table
}

func (b *Builder) path(n ast.Node) DeclarationPath {
	return DeclarationPath{ModuleName: b.moduleName, Node: n}
}

func (b *Builder) enterScope(kind ScopeKind, name string, span ast.Node) {
	b.table.EnterScope(kind, name, span)
	b.bindings = append(b.bindings, map[string]SymbolScope{})
}

func (b *Builder) exitScope() {
	b.table.ExitScope()
	b.bindings = b.bindings[:len(b.bindings)-1]
}

func (b *Builder) visitStatements(stmts []ast.Statement) {
	for _, s := range stmts {
		b.visitStatement(s)
	}
}

func (b *Builder) visitStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Assign:
		b.bindNamedExpressions(s.Value)
		for _, target := range s.Targets {
			b.bindTarget(target, nil, s.Value)
		}
	case *ast.AnnAssign:
		if s.Value != nil {
			b.bindNamedExpressions(s.Value)
		}
		b.bindTarget(s.Target, s.Annotation, s.Value)
	case *ast.AugAssign:
		b.bindNamedExpressions(s.Value)
		if name, ok := s.Target.(*ast.Name); ok {
			b.addVariable(name, nil, s.Value)
		}
	case *ast.ExpressionStatement:
		b.bindNamedExpressions(s.Value)
	case *ast.Return:
		if s.Value != nil {
			b.bindNamedExpressions(s.Value)
		}
	case *ast.Global:
		for _, name := range s.Names {
			b.bindings[len(b.bindings)-1][name] = Global
		}
	case *ast.Nonlocal:
		for _, name := range s.Names {
			b.bindings[len(b.bindings)-1][name] = Nonlocal
		}
	case *ast.Import:
		for _, alias := range s.Names {
			b.table.AddSymbol(alias.BoundName(), &Alias{
				DeclarationPath: b.path(alias.Node),
				Import:          s,
			})
		}
	case *ast.ImportFrom:
		for _, alias := range s.Names {
			if alias.Name == "*" {
				continue
			}
			b.table.AddSymbol(alias.BoundName(), &Alias{
				DeclarationPath: b.path(alias.Node),
				ImportFrom:      s,
				SymbolName:      alias.Name,
			})
		}
	case *ast.If:
		b.bindNamedExpressions(s.Test)
		b.visitStatements(s.Body)
		b.visitStatements(s.Orelse)
	case *ast.While:
		b.bindNamedExpressions(s.Test)
		b.visitStatements(s.Body)
		b.visitStatements(s.Orelse)
	case *ast.For:
		b.bindNamedExpressions(s.Iter)
		b.bindTarget(s.Target, nil, nil)
		b.visitStatements(s.Body)
		b.visitStatements(s.Orelse)
	case *ast.With:
		for _, item := range s.Items {
			b.bindNamedExpressions(item.ContextExpr)
			if item.OptionalVars != nil {
				b.bindTarget(item.OptionalVars, nil, item.ContextExpr)
			}
		}
		b.visitStatements(s.Body)
	case *ast.Try:
		b.visitStatements(s.Body)
		for _, h := range s.Handlers {
			if h.Name != "" {
				b.table.AddSymbol(h.Name, &Variable{
					DeclarationPath:    b.path(h.Node),
					Scope:              b.bindingScope(h.Name),
					InferredTypeSource: h.Type,
					IsConstant:         isConstantName(h.Name),
				})
			}
			b.visitStatements(h.Body)
		}
		b.visitStatements(s.Orelse)
		b.visitStatements(s.Finalbody)
	case *ast.FunctionDef:
		b.visitFunctionDef(s)
	case *ast.ClassDef:
		b.visitClassDef(s)
	case *ast.Match:
		b.bindNamedExpressions(s.Subject)
		for _, c := range s.Cases {
			b.bindPattern(c.Pattern)
			if c.Guard != nil {
				b.bindNamedExpressions(c.Guard)
			}
			b.visitStatements(c.Body)
		}
	case *ast.TypeAlias:
		b.table.AddSymbol(s.Name, &TypeAlias{DeclarationPath: b.path(s.Node), Node: s})
	}
}

func (b *Builder) visitFunctionDef(fn *ast.FunctionDef) {
	isMethod := b.table.CurrentScopeType() == ClassScope
	decl := &Function{
		DeclarationPath: b.path(fn.Node),
		Node:            fn,
		IsMethod:        isMethod,
	}
	collectFunctionStatements(decl, fn.Body)
	decl.IsGenerator = len(decl.YieldStatements) > 0
	b.table.AddSymbol(fn.Name, decl)

	var cls *Class
	if isMethod && len(b.classes) > 0 {
		cls = b.classes[len(b.classes)-1]
		cls.Methods = append(cls.Methods, fn.Name)
	}

	b.enterScope(FunctionScope, fn.Name, fn.Node)
	b.addTypeParams(fn.TypeParams)
	b.addParameters(fn.Args)

	savedClass, savedSelf := b.initClass, b.initSelf
	b.initClass, b.initSelf = nil, ""
	if cls != nil && fn.Name == "__init__" {
		if all := fn.Args.All(); len(all) > 0 {
			b.initClass, b.initSelf = cls, all[0].Name
		}
	}
	b.visitStatements(fn.Body)
	b.initClass, b.initSelf = savedClass, savedSelf

	b.exitScope()
}

func (b *Builder) visitClassDef(cls *ast.ClassDef) {
	decl := &Class{
		DeclarationPath: b.path(cls.Node),
		Name:            cls.Name,
		Node:            cls,
		Attributes:      map[string]ast.Expression{},
	}
	b.table.AddSymbol(cls.Name, decl)

	b.enterScope(ClassScope, cls.Name, cls.Node)
	b.classes = append(b.classes, decl)
	savedClass, savedSelf := b.initClass, b.initSelf
	b.initClass, b.initSelf = nil, ""

	b.addTypeParams(cls.TypeParams)
	b.visitStatements(cls.Body)

	b.initClass, b.initSelf = savedClass, savedSelf
	b.classes = b.classes[:len(b.classes)-1]
	b.exitScope()
}

func (b *Builder) addTypeParams(params []ast.TypeParam) {
	for _, tp := range params {
		b.table.AddSymbol(tp.ParamName(), &TypeParameter{
			DeclarationPath: b.path(tp.GetNode()),
			Node:            tp,
		})
	}
}

func (b *Builder) addParameters(args *ast.Arguments) {
	if args == nil {
		return
	}
	add := func(arg *ast.Arg, kind ParameterKind) {
		b.table.AddSymbol(arg.Name, &Parameter{
			DeclarationPath: b.path(arg.Node),
			Node:            arg,
			ParameterKind:   kind,
			TypeAnnotation:  arg.Annotation,
			DefaultValue:    args.DefaultFor(arg),
		})
	}
	for _, arg := range args.PosOnlyArgs {
		add(arg, PositionalOnly)
	}
	for _, arg := range args.Args {
		add(arg, PositionalOrKeyword)
	}
	if args.Vararg != nil {
		add(args.Vararg, VarPositional)
	}
	for _, arg := range args.KwOnlyArgs {
		add(arg, KeywordOnly)
	}
	if args.Kwarg != nil {
		add(args.Kwarg, VarKeyword)
	}
}

// bindTarget declares the names bound by an assignment target.
// Attribute targets on the first parameter of __init__ become class
// attributes; other attribute and subscript targets bind nothing.
func (b *Builder) bindTarget(target, annotation, value ast.Expression) {
	switch t := target.(type) {
	case *ast.Name:
		b.addVariable(t, annotation, value)
	case *ast.Tuple:
		for _, elt := range t.Elements {
			b.bindTarget(elt, nil, nil)
		}
	case *ast.List:
		for _, elt := range t.Elements {
			b.bindTarget(elt, nil, nil)
		}
	case *ast.Starred:
		b.bindTarget(t.Value, nil, nil)
	case *ast.Attribute:
		if b.initClass == nil {
			return
		}
		if owner, ok := t.Value.(*ast.Name); ok && owner.ID == b.initSelf {
			source := value
			if source == nil {
				source = annotation
			}
			if source == nil {
				source = t
			}
			b.initClass.Attributes[t.Attr] = source
		}
	}
}

func (b *Builder) addVariable(name *ast.Name, annotation, value ast.Expression) {
	b.table.AddSymbol(name.ID, &Variable{
		DeclarationPath:    b.path(name.Node),
		Scope:              b.bindingScope(name.ID),
		TypeAnnotation:     annotation,
		InferredTypeSource: value,
		IsConstant:         isConstantName(name.ID),
	})
}

func (b *Builder) bindingScope(name string) SymbolScope {
	if s, ok := b.bindings[len(b.bindings)-1][name]; ok {
		return s
	}
	return Local
}

// bindNamedExpressions declares the targets of ':=' inside e. Lambdas
// have their own scope and are skipped.
func (b *Builder) bindNamedExpressions(e ast.Expression) {
	if e == nil {
		return
	}
	ast.Inspect(e, func(n ast.Spanned) bool {
		switch n := n.(type) {
		case *ast.Lambda:
			return false
		case *ast.NamedExpr:
			if name, ok := n.Target.(*ast.Name); ok {
				b.addVariable(name, nil, n.Value)
			}
		}
		return true
	})
}

// bindPattern declares the capture names of a match pattern.
func (b *Builder) bindPattern(p ast.Pattern) {
	ast.Inspect(p, func(n ast.Spanned) bool {
		switch n := n.(type) {
		case *ast.MatchAs:
			if n.Name != "" {
				b.addCapture(n.Name, n.Node)
			}
		case *ast.MatchStar:
			if n.Name != "" {
				b.addCapture(n.Name, n.Node)
			}
		case *ast.MatchMapping:
			if n.Rest != "" {
				b.addCapture(n.Rest, n.Node)
			}
		}
		return true
	})
}

func (b *Builder) addCapture(name string, n ast.Node) {
	b.table.AddSymbol(name, &Variable{
		DeclarationPath: b.path(n),
		Scope:           b.bindingScope(name),
		IsConstant:      isConstantName(name),
	})
}

// collectFunctionStatements records the return, yield and raise nodes of a
// function body, leaving out nested functions, classes and lambdas.
func collectFunctionStatements(fn *Function, body []ast.Statement) {
	for _, stmt := range body {
		ast.Inspect(stmt, func(n ast.Spanned) bool {
			switch n := n.(type) {
			case *ast.FunctionDef, *ast.ClassDef, *ast.Lambda:
				return false
			case *ast.Return:
				fn.ReturnStatements = append(fn.ReturnStatements, n)
			case *ast.Raise:
				fn.RaiseStatements = append(fn.RaiseStatements, n)
			case *ast.Yield:
				fn.YieldStatements = append(fn.YieldStatements, n)
			case *ast.YieldFrom:
				fn.YieldStatements = append(fn.YieldStatements, n)
			}
			return true
		})
	}
}

// isConstantName reports whether name is written in upper case, like
// MAX_SIZE.
func isConstantName(name string) bool {
	hasLetter := false
	for _, r := range name {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
