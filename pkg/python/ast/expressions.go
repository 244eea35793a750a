package ast

import (
	"bytes"
	"strconv"
	"strings"
)

// ConstantValue is the value of a literal. Numbers keep their source text;
// parsing them is left to consumers.
type ConstantValue interface {
	constantValue()
	String() string
}

type NoneValue struct{}
type EllipsisValue struct{}
type BoolValue bool
type StrValue string   // decoded text
type BytesValue string // decoded bytes
type IntValue string
type FloatValue string
type ComplexValue struct {
	Real      string
	Imaginary string
}

func (NoneValue) constantValue()     {}
func (EllipsisValue) constantValue() {}
func (BoolValue) constantValue()     {}
func (StrValue) constantValue()      {}
func (BytesValue) constantValue()    {}
func (IntValue) constantValue()      {}
func (FloatValue) constantValue()    {}
func (ComplexValue) constantValue()  {}

func (NoneValue) String() string     { return "None" }
func (EllipsisValue) String() string { return "..." }
func (v BoolValue) String() string {
	if v {
		return "True"
	}
	return "False"
}
func (v StrValue) String() string   { return strconv.Quote(string(v)) }
func (v BytesValue) String() string { return "b" + strconv.Quote(string(v)) }
func (v IntValue) String() string   { return string(v) }
func (v FloatValue) String() string { return string(v) }
func (v ComplexValue) String() string {
	if v.Real == "" || v.Real == "0" {
		return v.Imaginary
	}
	return "(" + v.Real + "+" + v.Imaginary + ")"
}

type Constant struct {
	Node
	Value ConstantValue
}

func (e *Constant) expressionNode()  {}
func (e *Constant) String() string { return e.Value.String() }

type Name struct {
	Node
	ID string
}

func (e *Name) expressionNode()  {}
func (e *Name) String() string { return e.ID }

type List struct {
	Node
	Elements []Expression
}

func (e *List) expressionNode()  {}
func (e *List) String() string { return "[" + joinExprs(e.Elements, ", ") + "]" }

type Tuple struct {
	Node
	Elements []Expression
}

func (e *Tuple) expressionNode() {}
func (e *Tuple) String() string {
	if len(e.Elements) == 1 {
		return "(" + e.Elements[0].String() + ",)"
	}
	return "(" + joinExprs(e.Elements, ", ") + ")"
}

// Dict represents a dict display. A nil key marks a '**mapping' entry whose
// mapping is the value at the same index.
type Dict struct {
	Node
	Keys   []Expression
	Values []Expression
}

func (e *Dict) expressionNode() {}
func (e *Dict) String() string {
	parts := make([]string, len(e.Values))
	for i, v := range e.Values {
		if e.Keys[i] == nil {
			parts[i] = "**" + v.String()
		} else {
			parts[i] = e.Keys[i].String() + ": " + v.String()
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

type Set struct {
	Node
	Elements []Expression
}

func (e *Set) expressionNode()  {}
func (e *Set) String() string { return "{" + joinExprs(e.Elements, ", ") + "}" }

type BoolOperator int

const (
	And BoolOperator = iota
	Or
)

func (op BoolOperator) String() string {
	if op == And {
		return "and"
	}
	return "or"
}

type BoolOp struct {
	Node
	Op     BoolOperator
	Values []Expression
}

func (e *BoolOp) expressionNode() {}
func (e *BoolOp) String() string {
	return "(" + joinExprs(e.Values, " "+e.Op.String()+" ") + ")"
}

type UnaryOperator int

const (
	Not UnaryOperator = iota
	Invert
	UAdd
	USub
)

func (op UnaryOperator) String() string {
	switch op {
	case Not:
		return "not "
	case Invert:
		return "~"
	case UAdd:
		return "+"
	}
	return "-"
}

type UnaryOp struct {
	Node
	Op      UnaryOperator
	Operand Expression
}

func (e *UnaryOp) expressionNode()  {}
func (e *UnaryOp) String() string { return "(" + e.Op.String() + e.Operand.String() + ")" }

type BinaryOperator int

const (
	Add BinaryOperator = iota
	Sub
	Mult
	MatMult
	Div
	Mod
	Pow
	LShift
	RShift
	BitOr
	BitXor
	BitAnd
	FloorDiv
)

var binaryOperatorSymbols = [...]string{
	Add:      "+",
	Sub:      "-",
	Mult:     "*",
	MatMult:  "@",
	Div:      "/",
	Mod:      "%",
	Pow:      "**",
	LShift:   "<<",
	RShift:   ">>",
	BitOr:    "|",
	BitXor:   "^",
	BitAnd:   "&",
	FloorDiv: "//",
}

func (op BinaryOperator) String() string { return binaryOperatorSymbols[op] }

type BinOp struct {
	Node
	Op    BinaryOperator
	Left  Expression
	Right Expression
}

func (e *BinOp) expressionNode() {}
func (e *BinOp) String() string {
	return "(" + e.Left.String() + " " + e.Op.String() + " " + e.Right.String() + ")"
}

type CmpOperator int

const (
	Eq CmpOperator = iota
	NotEq
	Lt
	LtE
	Gt
	GtE
	Is
	IsNot
	In
	NotIn
)

var cmpOperatorSymbols = [...]string{
	Eq:    "==",
	NotEq: "!=",
	Lt:    "<",
	LtE:   "<=",
	Gt:    ">",
	GtE:   ">=",
	Is:    "is",
	IsNot: "is not",
	In:    "in",
	NotIn: "not in",
}

func (op CmpOperator) String() string { return cmpOperatorSymbols[op] }

// Compare represents a comparison chain 'a < b <= c'.
type Compare struct {
	Node
	Left        Expression
	Ops         []CmpOperator
	Comparators []Expression
}

func (e *Compare) expressionNode() {}
func (e *Compare) String() string {
	var out bytes.Buffer
	out.WriteString("(" + e.Left.String())
	for i, op := range e.Ops {
		out.WriteString(" " + op.String() + " " + e.Comparators[i].String())
	}
	out.WriteString(")")
	return out.String()
}

// NamedExpr represents 'target := value'.
type NamedExpr struct {
	Node
	Target Expression
	Value  Expression
}

func (e *NamedExpr) expressionNode() {}
func (e *NamedExpr) String() string {
	return "(" + e.Target.String() + " := " + e.Value.String() + ")"
}

type Yield struct {
	Node
	Value Expression
}

func (e *Yield) expressionNode() {}
func (e *Yield) String() string {
	if e.Value == nil {
		return "(yield)"
	}
	return "(yield " + e.Value.String() + ")"
}

type YieldFrom struct {
	Node
	Value Expression
}

func (e *YieldFrom) expressionNode()  {}
func (e *YieldFrom) String() string { return "(yield from " + e.Value.String() + ")" }

type Await struct {
	Node
	Value Expression
}

func (e *Await) expressionNode()  {}
func (e *Await) String() string { return "await " + e.Value.String() }

type Starred struct {
	Node
	Value Expression
}

func (e *Starred) expressionNode()  {}
func (e *Starred) String() string { return "*" + e.Value.String() }

// Comprehension is one 'for target in iter if cond' clause.
type Comprehension struct {
	Node
	Target  Expression
	Iter    Expression
	Ifs     []Expression
	IsAsync bool
}

func (c *Comprehension) String() string {
	var out bytes.Buffer
	if c.IsAsync {
		out.WriteString("async ")
	}
	out.WriteString("for " + c.Target.String() + " in " + c.Iter.String())
	for _, cond := range c.Ifs {
		out.WriteString(" if " + cond.String())
	}
	return out.String()
}

func generatorsString(gens []*Comprehension) string {
	parts := make([]string, len(gens))
	for i, g := range gens {
		parts[i] = g.String()
	}
	return strings.Join(parts, " ")
}

type GeneratorExp struct {
	Node
	Element    Expression
	Generators []*Comprehension
}

func (e *GeneratorExp) expressionNode() {}
func (e *GeneratorExp) String() string {
	return "(" + e.Element.String() + " " + generatorsString(e.Generators) + ")"
}

type ListComp struct {
	Node
	Element    Expression
	Generators []*Comprehension
}

func (e *ListComp) expressionNode() {}
func (e *ListComp) String() string {
	return "[" + e.Element.String() + " " + generatorsString(e.Generators) + "]"
}

type SetComp struct {
	Node
	Element    Expression
	Generators []*Comprehension
}

func (e *SetComp) expressionNode() {}
func (e *SetComp) String() string {
	return "{" + e.Element.String() + " " + generatorsString(e.Generators) + "}"
}

type DictComp struct {
	Node
	Key        Expression
	Value      Expression
	Generators []*Comprehension
}

func (e *DictComp) expressionNode() {}
func (e *DictComp) String() string {
	return "{" + e.Key.String() + ": " + e.Value.String() + " " + generatorsString(e.Generators) + "}"
}

type Attribute struct {
	Node
	Value Expression
	Attr  string
}

func (e *Attribute) expressionNode()  {}
func (e *Attribute) String() string { return e.Value.String() + "." + e.Attr }

type Subscript struct {
	Node
	Value Expression
	Slice Expression
}

func (e *Subscript) expressionNode() {}
func (e *Subscript) String() string {
	if t, ok := e.Slice.(*Tuple); ok && len(t.Elements) > 1 {
		return e.Value.String() + "[" + joinExprs(t.Elements, ", ") + "]"
	}
	return e.Value.String() + "[" + e.Slice.String() + "]"
}

type Slice struct {
	Node
	Lower Expression
	Upper Expression
	Step  Expression
}

func (e *Slice) expressionNode() {}
func (e *Slice) String() string {
	out := exprOrEmpty(e.Lower) + ":" + exprOrEmpty(e.Upper)
	if e.Step != nil {
		out += ":" + e.Step.String()
	}
	return out
}

// Keyword is a 'name=value' call argument. An empty Arg marks '**value'.
type Keyword struct {
	Node
	Arg   string
	Value Expression
}

func (k *Keyword) String() string {
	if k.Arg == "" {
		return "**" + k.Value.String()
	}
	return k.Arg + "=" + k.Value.String()
}

// Call represents a call. '*iterable' arguments appear in Args as Starred.
type Call struct {
	Node
	Func     Expression
	Args     []Expression
	Keywords []*Keyword
}

func (e *Call) expressionNode() {}
func (e *Call) String() string {
	return e.Func.String() + "(" + callArgsString(e.Args, e.Keywords) + ")"
}

func callArgsString(args []Expression, keywords []*Keyword) string {
	parts := make([]string, 0, len(args)+len(keywords))
	for _, a := range args {
		parts = append(parts, a.String())
	}
	for _, k := range keywords {
		parts = append(parts, k.String())
	}
	return strings.Join(parts, ", ")
}

type Lambda struct {
	Node
	Args *Arguments
	Body Expression
}

func (e *Lambda) expressionNode() {}
func (e *Lambda) String() string {
	if e.Args.Count() == 0 {
		return "(lambda: " + e.Body.String() + ")"
	}
	return "(lambda " + e.Args.String() + ": " + e.Body.String() + ")"
}

// IfExp represents 'body if test else orelse'.
type IfExp struct {
	Node
	Test   Expression
	Body   Expression
	Orelse Expression
}

func (e *IfExp) expressionNode() {}
func (e *IfExp) String() string {
	return "(" + e.Body.String() + " if " + e.Test.String() + " else " + e.Orelse.String() + ")"
}

// Conversion flags of a FormattedValue.
const (
	NoConversion    = 0
	StrConversion   = 's'
	ReprConversion  = 'r'
	AsciiConversion = 'a'
)

// FormattedValue is one '{value!conversion:spec}' field of an f-string.
type FormattedValue struct {
	Node
	Value      Expression
	Conversion rune
	FormatSpec Expression // a JoinedStr, or nil
}

func (e *FormattedValue) expressionNode() {}
func (e *FormattedValue) String() string {
	var out bytes.Buffer
	out.WriteString("{" + e.Value.String())
	if e.Conversion != NoConversion {
		out.WriteString("!" + string(e.Conversion))
	}
	if spec, ok := e.FormatSpec.(*JoinedStr); ok {
		out.WriteString(":" + spec.inner())
	}
	out.WriteString("}")
	return out.String()
}

// JoinedStr is an f-string: Constant text and FormattedValue fields.
type JoinedStr struct {
	Node
	Values []Expression
}

func (e *JoinedStr) expressionNode()  {}
func (e *JoinedStr) String() string { return "f\"" + e.inner() + "\"" }

func (e *JoinedStr) inner() string {
	var out bytes.Buffer
	for _, v := range e.Values {
		if c, ok := v.(*Constant); ok {
			if s, ok := c.Value.(StrValue); ok {
				text := strings.ReplaceAll(string(s), "{", "{{")
				out.WriteString(strings.ReplaceAll(text, "}", "}}"))
				continue
			}
		}
		out.WriteString(v.String())
	}
	return out.String()
}

// Arg is one parameter of a function or lambda.
type Arg struct {
	Node
	Name       string
	Annotation Expression
}

func (a *Arg) String() string {
	if a.Annotation != nil {
		return a.Name + ": " + a.Annotation.String()
	}
	return a.Name
}

// Arguments is a parameter list. Defaults belong to the trailing
// positional parameters (PosOnlyArgs then Args); KwDefaults lines up with
// KwOnlyArgs and holds nil where there is no default.
type Arguments struct {
	Node
	PosOnlyArgs []*Arg
	Args        []*Arg
	Vararg      *Arg
	KwOnlyArgs  []*Arg
	KwDefaults  []Expression
	Kwarg       *Arg
	Defaults    []Expression
}

// Count returns the number of declared parameters.
func (a *Arguments) Count() int {
	return len(a.All())
}

// All returns every parameter in declaration order.
func (a *Arguments) All() []*Arg {
	var all []*Arg
	all = append(all, a.PosOnlyArgs...)
	all = append(all, a.Args...)
	if a.Vararg != nil {
		all = append(all, a.Vararg)
	}
	all = append(all, a.KwOnlyArgs...)
	if a.Kwarg != nil {
		all = append(all, a.Kwarg)
	}
	return all
}

// DefaultFor returns the default value of a positional or keyword-only
// parameter, or nil.
func (a *Arguments) DefaultFor(arg *Arg) Expression {
	positional := append(append([]*Arg{}, a.PosOnlyArgs...), a.Args...)
	offset := len(positional) - len(a.Defaults)
	for i, p := range positional {
		if p == arg {
			if i >= offset {
				return a.Defaults[i-offset]
			}
			return nil
		}
	}
	for i, p := range a.KwOnlyArgs {
		if p == arg && i < len(a.KwDefaults) {
			return a.KwDefaults[i]
		}
	}
	return nil
}

func (a *Arguments) String() string {
	var parts []string
	withDefault := func(arg *Arg) string {
		if d := a.DefaultFor(arg); d != nil {
			return arg.String() + "=" + d.String()
		}
		return arg.String()
	}
	for _, p := range a.PosOnlyArgs {
		parts = append(parts, withDefault(p))
	}
	if len(a.PosOnlyArgs) > 0 {
		parts = append(parts, "/")
	}
	for _, p := range a.Args {
		parts = append(parts, withDefault(p))
	}
	if a.Vararg != nil {
		parts = append(parts, "*"+a.Vararg.String())
	} else if len(a.KwOnlyArgs) > 0 {
		parts = append(parts, "*")
	}
	for _, p := range a.KwOnlyArgs {
		parts = append(parts, withDefault(p))
	}
	if a.Kwarg != nil {
		parts = append(parts, "**"+a.Kwarg.String())
	}
	return strings.Join(parts, ", ")
}

func joinExprs(exprs []Expression, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, sep)
}

func exprOrEmpty(e Expression) string {
	if e == nil {
		return ""
	}
	return e.String()
}
