package ast

// Visitor's Visit method is invoked for each node encountered by Walk.
// If the result visitor w is not nil, Walk visits each of the children
// of node with w, followed by a call of w.Visit(nil).
type Visitor interface {
	Visit(node Spanned) (w Visitor)
}

// Walk traverses an AST in depth-first order: it starts by calling
// v.Visit(node); node must not be nil.
func Walk(v Visitor, node Spanned) {
	if v = v.Visit(node); v == nil {
		return
	}

	switch n := node.(type) {
	case *Module:
		walkStatements(v, n.Body)

	// statements
	case *Assign:
		walkExprs(v, n.Targets)
		Walk(v, n.Value)
	case *AnnAssign:
		Walk(v, n.Target)
		Walk(v, n.Annotation)
		walkOptional(v, n.Value)
	case *AugAssign:
		Walk(v, n.Target)
		Walk(v, n.Value)
	case *ExpressionStatement:
		Walk(v, n.Value)
	case *Assert:
		Walk(v, n.Test)
		walkOptional(v, n.Msg)
	case *Delete:
		walkExprs(v, n.Targets)
	case *Return:
		walkOptional(v, n.Value)
	case *Raise:
		walkOptional(v, n.Exc)
		walkOptional(v, n.Cause)
	case *Import:
		for _, a := range n.Names {
			Walk(v, a)
		}
	case *ImportFrom:
		for _, a := range n.Names {
			Walk(v, a)
		}
	case *If:
		Walk(v, n.Test)
		walkStatements(v, n.Body)
		walkStatements(v, n.Orelse)
	case *While:
		Walk(v, n.Test)
		walkStatements(v, n.Body)
		walkStatements(v, n.Orelse)
	case *For:
		Walk(v, n.Target)
		Walk(v, n.Iter)
		walkStatements(v, n.Body)
		walkStatements(v, n.Orelse)
	case *With:
		for _, item := range n.Items {
			Walk(v, item)
		}
		walkStatements(v, n.Body)
	case *WithItem:
		Walk(v, n.ContextExpr)
		walkOptional(v, n.OptionalVars)
	case *Try:
		walkStatements(v, n.Body)
		for _, h := range n.Handlers {
			Walk(v, h)
		}
		walkStatements(v, n.Orelse)
		walkStatements(v, n.Finalbody)
	case *ExceptHandler:
		walkOptional(v, n.Type)
		walkStatements(v, n.Body)
	case *FunctionDef:
		walkExprs(v, n.DecoratorList)
		for _, p := range n.TypeParams {
			Walk(v, p)
		}
		Walk(v, n.Args)
		walkOptional(v, n.Returns)
		walkStatements(v, n.Body)
	case *ClassDef:
		walkExprs(v, n.DecoratorList)
		for _, p := range n.TypeParams {
			Walk(v, p)
		}
		walkExprs(v, n.Bases)
		for _, k := range n.Keywords {
			Walk(v, k)
		}
		walkStatements(v, n.Body)
	case *Match:
		Walk(v, n.Subject)
		for _, c := range n.Cases {
			Walk(v, c)
		}
	case *MatchCase:
		Walk(v, n.Pattern)
		walkOptional(v, n.Guard)
		walkStatements(v, n.Body)
	case *TypeAlias:
		for _, p := range n.TypeParams {
			Walk(v, p)
		}
		Walk(v, n.Value)
	case *TypeVar:
		walkOptional(v, n.Bound)

	// expressions
	case *List:
		walkExprs(v, n.Elements)
	case *Tuple:
		walkExprs(v, n.Elements)
	case *Set:
		walkExprs(v, n.Elements)
	case *Dict:
		for i, val := range n.Values {
			walkOptional(v, n.Keys[i])
			Walk(v, val)
		}
	case *BoolOp:
		walkExprs(v, n.Values)
	case *UnaryOp:
		Walk(v, n.Operand)
	case *BinOp:
		Walk(v, n.Left)
		Walk(v, n.Right)
	case *Compare:
		Walk(v, n.Left)
		walkExprs(v, n.Comparators)
	case *NamedExpr:
		Walk(v, n.Target)
		Walk(v, n.Value)
	case *Yield:
		walkOptional(v, n.Value)
	case *YieldFrom:
		Walk(v, n.Value)
	case *Await:
		Walk(v, n.Value)
	case *Starred:
		Walk(v, n.Value)
	case *GeneratorExp:
		Walk(v, n.Element)
		walkComprehensions(v, n.Generators)
	case *ListComp:
		Walk(v, n.Element)
		walkComprehensions(v, n.Generators)
	case *SetComp:
		Walk(v, n.Element)
		walkComprehensions(v, n.Generators)
	case *DictComp:
		Walk(v, n.Key)
		Walk(v, n.Value)
		walkComprehensions(v, n.Generators)
	case *Comprehension:
		Walk(v, n.Target)
		Walk(v, n.Iter)
		walkExprs(v, n.Ifs)
	case *Attribute:
		Walk(v, n.Value)
	case *Subscript:
		Walk(v, n.Value)
		Walk(v, n.Slice)
	case *Slice:
		walkOptional(v, n.Lower)
		walkOptional(v, n.Upper)
		walkOptional(v, n.Step)
	case *Call:
		Walk(v, n.Func)
		walkExprs(v, n.Args)
		for _, k := range n.Keywords {
			Walk(v, k)
		}
	case *Keyword:
		Walk(v, n.Value)
	case *Lambda:
		Walk(v, n.Args)
		Walk(v, n.Body)
	case *Arguments:
		for _, a := range n.All() {
			Walk(v, a)
		}
		walkExprs(v, n.Defaults)
		for _, d := range n.KwDefaults {
			walkOptional(v, d)
		}
	case *Arg:
		walkOptional(v, n.Annotation)
	case *IfExp:
		Walk(v, n.Test)
		Walk(v, n.Body)
		Walk(v, n.Orelse)
	case *JoinedStr:
		walkExprs(v, n.Values)
	case *FormattedValue:
		Walk(v, n.Value)
		walkOptional(v, n.FormatSpec)

	// patterns
	case *MatchValue:
		Walk(v, n.Value)
	case *MatchSequence:
		walkPatterns(v, n.Patterns)
	case *MatchMapping:
		walkExprs(v, n.Keys)
		walkPatterns(v, n.Patterns)
	case *MatchClass:
		Walk(v, n.Cls)
		walkPatterns(v, n.Patterns)
		walkPatterns(v, n.KwdPatterns)
	case *MatchAs:
		if n.Pattern != nil {
			Walk(v, n.Pattern)
		}
	case *MatchOr:
		walkPatterns(v, n.Patterns)
	}

	v.Visit(nil)
}

func walkStatements(v Visitor, list []Statement) {
	for _, s := range list {
		Walk(v, s)
	}
}

func walkExprs(v Visitor, list []Expression) {
	for _, e := range list {
		Walk(v, e)
	}
}

func walkPatterns(v Visitor, list []Pattern) {
	for _, p := range list {
		Walk(v, p)
	}
}

func walkComprehensions(v Visitor, list []*Comprehension) {
	for _, c := range list {
		Walk(v, c)
	}
}

func walkOptional(v Visitor, e Expression) {
	if e != nil {
		Walk(v, e)
	}
}

type inspector func(Spanned) bool

func (f inspector) Visit(node Spanned) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses an AST in depth-first order: It starts by calling
// f(node); node must not be nil. If f returns true, Inspect invokes f
// recursively for each of the non-nil children of node, followed by a
// call of f(nil).
func Inspect(node Spanned, f func(Spanned) bool) {
	Walk(inspector(f), node)
}
