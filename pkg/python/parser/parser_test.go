package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sambeau/pyfront/pkg/python/ast"
	perrors "github.com/sambeau/pyfront/pkg/python/errors"
)

func parse(t *testing.T, input string) *ast.Module {
	t.Helper()
	p := New(input, "test.py")
	module := p.Parse()
	checkParserErrors(t, p)
	return module
}

func checkParserErrors(t *testing.T, p *Parser) {
	t.Helper()
	errors := p.Errors()
	if len(errors) == 0 {
		return
	}
	t.Errorf("parser has %d errors", len(errors))
	for _, msg := range errors {
		t.Errorf("parser error: %q", msg)
	}
	t.FailNow()
}

// parseExpr parses input as a single expression statement.
func parseExpr(t *testing.T, input string) ast.Expression {
	t.Helper()
	module := parse(t, input+"\n")
	if len(module.Body) != 1 {
		t.Fatalf("module.Body does not contain 1 statement. got=%d", len(module.Body))
	}
	stmt, ok := module.Body[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("module.Body[0] is not *ast.ExpressionStatement. got=%T", module.Body[0])
	}
	return stmt.Value
}

// firstError parses input and returns its first diagnostic.
func firstError(t *testing.T, input string) *perrors.ParsingError {
	t.Helper()
	p := New(input, "test.py")
	p.Parse()
	errs := p.StructuredErrors()
	if len(errs) == 0 {
		t.Fatalf("expected an error for %q", input)
	}
	return errs[0]
}

func TestOperatorPrecedenceParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a + b * c", "(a + (b * c))"},
		{"a * b + c", "((a * b) + c)"},
		{"a - b - c", "((a - b) - c)"},
		{"-a ** b", "(-(a ** b))"},
		{"a ** b ** c", "(a ** (b ** c))"},
		{"2 ** -1", "(2 ** (-1))"},
		{"a | b ^ c & d", "(a | (b ^ (c & d)))"},
		{"a << 1 + 2", "(a << (1 + 2))"},
		{"a @ b // c % d", "(((a @ b) // c) % d)"},
		{"a < b <= c", "(a < b <= c)"},
		{"a is not b", "(a is not b)"},
		{"x not in y", "(x not in y)"},
		{"not a in b", "(not (a in b))"},
		{"a or b and not c", "(a or (b and (not c)))"},
		{"a or b or c", "(a or b or c)"},
		{"a if b else c if d else e", "(a if b else (c if d else e))"},
		{"~x + 1", "((~x) + 1)"},
		{"f(a)(b).c[d]", "f(a)(b).c[d]"},
		{"f(*args, k=1, **kw)", "f(*args, k=1, **kw)"},
		{"lambda: 0", "(lambda: 0)"},
		{"a[1:2, ::3]", "a[1:2, ::3]"},
		{"(y := 10)", "(y := 10)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr := parseExpr(t, tt.input)
			if got := expr.String(); got != tt.expected {
				t.Errorf("expected=%q, got=%q", tt.expected, got)
			}
		})
	}
}

func TestParenthesizedForms(t *testing.T) {
	tests := []struct {
		input    string
		wantType string
		elements int
	}{
		{"(a,)", "*ast.Tuple", 1},
		{"(a)", "*ast.Name", 0},
		{"()", "*ast.Tuple", 0},
		{"a, b", "*ast.Tuple", 2},
		{"a, b,", "*ast.Tuple", 2},
		{"(x for x in y)", "*ast.GeneratorExp", 0},
		{"[]", "*ast.List", 0},
		{"[1, *rest]", "*ast.List", 2},
		{"[x for x in y if x]", "*ast.ListComp", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr := parseExpr(t, tt.input)
			if got := typeName(expr); got != tt.wantType {
				t.Fatalf("type = %s, want %s", got, tt.wantType)
			}
			switch e := expr.(type) {
			case *ast.Tuple:
				if len(e.Elements) != tt.elements {
					t.Errorf("len(Elements) = %d, want %d", len(e.Elements), tt.elements)
				}
			case *ast.List:
				if len(e.Elements) != tt.elements {
					t.Errorf("len(Elements) = %d, want %d", len(e.Elements), tt.elements)
				}
			}
		})
	}
}

func TestBraceDisplays(t *testing.T) {
	tests := []struct {
		input    string
		wantType string
		expected string
	}{
		{"{}", "*ast.Dict", "{}"},
		{"{1: 2}", "*ast.Dict", "{1: 2}"},
		{"{1, 2}", "*ast.Set", "{1, 2}"},
		{"{k: v for k in xs}", "*ast.DictComp", ""},
		{"{x for x in y}", "*ast.SetComp", ""},
		{"{**a, 'b': 1}", "*ast.Dict", `{**a, "b": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr := parseExpr(t, tt.input)
			if got := typeName(expr); got != tt.wantType {
				t.Fatalf("type = %s, want %s", got, tt.wantType)
			}
			if tt.expected != "" && expr.String() != tt.expected {
				t.Errorf("String() = %q, want %q", expr.String(), tt.expected)
			}
		})
	}
}

func TestDictUnpackingHasNilKey(t *testing.T) {
	d, ok := parseExpr(t, "{**a, 'b': 1}").(*ast.Dict)
	if !ok {
		t.Fatal("not a Dict")
	}
	if d.Keys[0] != nil {
		t.Errorf("Keys[0] = %v, want nil", d.Keys[0])
	}
	if d.Keys[1] == nil {
		t.Errorf("Keys[1] should not be nil")
	}
}

func TestAssignmentStatements(t *testing.T) {
	t.Run("chained assignment", func(t *testing.T) {
		module := parse(t, "a = b = 1\n")
		stmt, ok := module.Body[0].(*ast.Assign)
		if !ok {
			t.Fatalf("got %T, want *ast.Assign", module.Body[0])
		}
		if len(stmt.Targets) != 2 || stmt.Targets[0].String() != "a" || stmt.Targets[1].String() != "b" {
			t.Errorf("Targets = %v, want [a b]", stmt.Targets)
		}
		if stmt.Value.String() != "1" {
			t.Errorf("Value = %s, want 1", stmt.Value)
		}
	})

	annotated := []struct {
		input      string
		wantSimple bool
		hasValue   bool
	}{
		{"a: int = 1\n", true, true},
		{"a: int\n", true, false},
		{"(a): int = 1\n", false, true},
		{"a.b: int\n", false, false},
		{"a[0]: int = 2\n", false, true},
	}
	for _, tt := range annotated {
		t.Run(tt.input, func(t *testing.T) {
			module := parse(t, tt.input)
			stmt, ok := module.Body[0].(*ast.AnnAssign)
			if !ok {
				t.Fatalf("got %T, want *ast.AnnAssign", module.Body[0])
			}
			if stmt.Simple != tt.wantSimple {
				t.Errorf("Simple = %v, want %v", stmt.Simple, tt.wantSimple)
			}
			if (stmt.Value != nil) != tt.hasValue {
				t.Errorf("Value = %v, hasValue %v", stmt.Value, tt.hasValue)
			}
		})
	}

	t.Run("augmented", func(t *testing.T) {
		module := parse(t, "x //= 2\n")
		stmt, ok := module.Body[0].(*ast.AugAssign)
		if !ok {
			t.Fatalf("got %T, want *ast.AugAssign", module.Body[0])
		}
		if stmt.Op != ast.FloorDiv {
			t.Errorf("Op = %s, want //", stmt.Op)
		}
	})

	t.Run("starred unpacking", func(t *testing.T) {
		module := parse(t, "a, *b = c\n")
		stmt := module.Body[0].(*ast.Assign)
		tuple, ok := stmt.Targets[0].(*ast.Tuple)
		if !ok {
			t.Fatalf("target is %T, want *ast.Tuple", stmt.Targets[0])
		}
		if _, ok := tuple.Elements[1].(*ast.Starred); !ok {
			t.Errorf("second element is %T, want *ast.Starred", tuple.Elements[1])
		}
	})

	t.Run("yield value", func(t *testing.T) {
		module := parse(t, "def g():\n    x = yield 1\n")
		fn := module.Body[0].(*ast.FunctionDef)
		assign := fn.Body[0].(*ast.Assign)
		if _, ok := assign.Value.(*ast.Yield); !ok {
			t.Errorf("Value is %T, want *ast.Yield", assign.Value)
		}
	})
}

func TestInvalidAssignmentTargets(t *testing.T) {
	tests := []string{
		"1 = x\n",
		"f() = 1\n",
		"a + 1 += 2\n",
		"(a, b) += 1\n",
		"del f()\n",
		"for 1 in x: pass\n",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			if err := firstError(t, input); err.Code != "PARSE-0011" {
				t.Errorf("Code = %s, want PARSE-0011 (%s)", err.Code, err.Message)
			}
		})
	}
}

func TestSimpleStatements(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"pass\n", "pass"},
		{"return\n", "return"},
		{"raise E from e\n", "raise E from e"},
		{"global a, b\n", "global a, b"},
		{"nonlocal x\n", "nonlocal x"},
		{"del a, b[0]\n", "del a, b[0]"},
		{"assert x, 'msg'\n", `assert x, "msg"`},
		{"import os.path as p, sys\n", "import os.path as p, sys"},
		{"from . import a\n", "from . import a"},
		{"from ..pkg import (a as b, c,)\n", "from ..pkg import a as b, c"},
		{"from m import *\n", "from m import *"},
		{"type Point = tuple[float, float]\n", "type Point = tuple[float, float]"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			module := parse(t, tt.input)
			if len(module.Body) != 1 {
				t.Fatalf("len(Body) = %d, want 1", len(module.Body))
			}
			if got := module.Body[0].String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSemicolonSeparatedStatements(t *testing.T) {
	module := parse(t, "a = 1; b = 2;\nc = 3\n")
	if len(module.Body) != 3 {
		t.Fatalf("len(Body) = %d, want 3", len(module.Body))
	}
}

func TestSoftKeywordsAsNames(t *testing.T) {
	tests := []struct {
		input    string
		wantType string
	}{
		{"match = 1\n", "*ast.Assign"},
		{"match(x)\n", "*ast.ExpressionStatement"},
		{"match.attr = 2\n", "*ast.Assign"},
		{"type = int\n", "*ast.Assign"},
		{"type(x)\n", "*ast.ExpressionStatement"},
		{"case = 3\n", "*ast.Assign"},
		{"type X = int\n", "*ast.TypeAlias"},
		{"match x:\n    case 1:\n        pass\n", "*ast.Match"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			module := parse(t, tt.input)
			if got := typeName(module.Body[0]); got != tt.wantType {
				t.Errorf("type = %s, want %s", got, tt.wantType)
			}
		})
	}
}

func TestCompoundStatements(t *testing.T) {
	t.Run("if elif else", func(t *testing.T) {
		module := parse(t, "if a:\n    x\nelif b:\n    y\nelse:\n    z\n")
		stmt := module.Body[0].(*ast.If)
		if len(stmt.Orelse) != 1 {
			t.Fatalf("len(Orelse) = %d, want 1", len(stmt.Orelse))
		}
		elif, ok := stmt.Orelse[0].(*ast.If)
		if !ok {
			t.Fatalf("elif is %T, want *ast.If", stmt.Orelse[0])
		}
		if elif.Test.String() != "b" || len(elif.Orelse) != 1 {
			t.Errorf("elif = %s", elif)
		}
	})

	t.Run("for else", func(t *testing.T) {
		module := parse(t, "for i, j in pairs:\n    continue\nelse:\n    pass\n")
		stmt := module.Body[0].(*ast.For)
		if _, ok := stmt.Target.(*ast.Tuple); !ok {
			t.Errorf("Target is %T, want *ast.Tuple", stmt.Target)
		}
		if len(stmt.Orelse) != 1 {
			t.Errorf("len(Orelse) = %d, want 1", len(stmt.Orelse))
		}
	})

	t.Run("while with inline body", func(t *testing.T) {
		module := parse(t, "while x: x -= 1; break\n")
		stmt := module.Body[0].(*ast.While)
		if len(stmt.Body) != 2 {
			t.Errorf("len(Body) = %d, want 2", len(stmt.Body))
		}
	})

	t.Run("try except star", func(t *testing.T) {
		module := parse(t, "try:\n    f()\nexcept* (A, B) as e:\n    pass\nfinally:\n    g()\n")
		stmt := module.Body[0].(*ast.Try)
		if !stmt.IsStar {
			t.Errorf("IsStar = false, want true")
		}
		if len(stmt.Handlers) != 1 || stmt.Handlers[0].Name != "e" {
			t.Fatalf("Handlers = %v", stmt.Handlers)
		}
		if _, ok := stmt.Handlers[0].Type.(*ast.Tuple); !ok {
			t.Errorf("handler type is %T, want *ast.Tuple", stmt.Handlers[0].Type)
		}
		if len(stmt.Finalbody) != 1 {
			t.Errorf("len(Finalbody) = %d, want 1", len(stmt.Finalbody))
		}
	})

	t.Run("bare except and else", func(t *testing.T) {
		module := parse(t, "try:\n    pass\nexcept:\n    pass\nelse:\n    pass\n")
		stmt := module.Body[0].(*ast.Try)
		if stmt.Handlers[0].Type != nil {
			t.Errorf("bare except should have nil Type")
		}
		if len(stmt.Orelse) != 1 {
			t.Errorf("len(Orelse) = %d, want 1", len(stmt.Orelse))
		}
	})

	t.Run("parenthesized with items", func(t *testing.T) {
		module := parse(t, "with (open(a) as f, open(b) as g,):\n    pass\n")
		stmt := module.Body[0].(*ast.With)
		if len(stmt.Items) != 2 {
			t.Fatalf("len(Items) = %d, want 2", len(stmt.Items))
		}
		if stmt.Items[1].OptionalVars.String() != "g" {
			t.Errorf("second item binds %s, want g", stmt.Items[1].OptionalVars)
		}
	})

	t.Run("parenthesized with expression", func(t *testing.T) {
		module := parse(t, "with (a, b) as t:\n    pass\n")
		stmt := module.Body[0].(*ast.With)
		if len(stmt.Items) != 1 {
			t.Fatalf("len(Items) = %d, want 1", len(stmt.Items))
		}
		if _, ok := stmt.Items[0].ContextExpr.(*ast.Tuple); !ok {
			t.Errorf("ContextExpr is %T, want *ast.Tuple", stmt.Items[0].ContextExpr)
		}
	})

	t.Run("async constructs", func(t *testing.T) {
		input := "async def f():\n    async with a as b:\n        pass\n    async for x in y:\n        await x\n"
		module := parse(t, input)
		fn := module.Body[0].(*ast.FunctionDef)
		if !fn.IsAsync {
			t.Errorf("IsAsync = false")
		}
		if with := fn.Body[0].(*ast.With); !with.IsAsync {
			t.Errorf("with IsAsync = false")
		}
		loop := fn.Body[1].(*ast.For)
		if !loop.IsAsync {
			t.Errorf("for IsAsync = false")
		}
		stmt := loop.Body[0].(*ast.ExpressionStatement)
		if _, ok := stmt.Value.(*ast.Await); !ok {
			t.Errorf("got %T, want *ast.Await", stmt.Value)
		}
	})

	t.Run("decorated class", func(t *testing.T) {
		module := parse(t, "@dataclass\n@register(name='x')\nclass C(Base, metaclass=Meta):\n    x: int = 0\n")
		cls := module.Body[0].(*ast.ClassDef)
		if len(cls.DecoratorList) != 2 {
			t.Errorf("len(DecoratorList) = %d, want 2", len(cls.DecoratorList))
		}
		if len(cls.Bases) != 1 || len(cls.Keywords) != 1 || cls.Keywords[0].Arg != "metaclass" {
			t.Errorf("Bases = %v, Keywords = %v", cls.Bases, cls.Keywords)
		}
	})
}

func TestFunctionParameters(t *testing.T) {
	module := parse(t, "def f(a, /, b: int = 1, *args, c, d=2, **kw) -> None:\n    pass\n")
	fn := module.Body[0].(*ast.FunctionDef)
	args := fn.Args

	if len(args.PosOnlyArgs) != 1 || args.PosOnlyArgs[0].Name != "a" {
		t.Errorf("PosOnlyArgs = %v", args.PosOnlyArgs)
	}
	if len(args.Args) != 1 || args.Args[0].Name != "b" || args.Args[0].Annotation == nil {
		t.Errorf("Args = %v", args.Args)
	}
	if args.Vararg == nil || args.Vararg.Name != "args" {
		t.Errorf("Vararg = %v", args.Vararg)
	}
	if len(args.KwOnlyArgs) != 2 {
		t.Fatalf("KwOnlyArgs = %v", args.KwOnlyArgs)
	}
	if args.KwDefaults[0] != nil || args.KwDefaults[1].String() != "2" {
		t.Errorf("KwDefaults = %v", args.KwDefaults)
	}
	if args.Kwarg == nil || args.Kwarg.Name != "kw" {
		t.Errorf("Kwarg = %v", args.Kwarg)
	}
	if len(args.Defaults) != 1 || args.Defaults[0].String() != "1" {
		t.Errorf("Defaults = %v", args.Defaults)
	}
	if fn.Returns == nil || fn.Returns.String() != "None" {
		t.Errorf("Returns = %v", fn.Returns)
	}
	if args.Count() != 6 {
		t.Errorf("Count() = %d, want 6", args.Count())
	}
}

func TestTypeParameters(t *testing.T) {
	module := parse(t, "def f[T: int, *Ts, **P](x: T) -> T:\n    return x\nclass Box[U]:\n    pass\n")
	fn := module.Body[0].(*ast.FunctionDef)
	if len(fn.TypeParams) != 3 {
		t.Fatalf("len(TypeParams) = %d, want 3", len(fn.TypeParams))
	}
	tv, ok := fn.TypeParams[0].(*ast.TypeVar)
	if !ok || tv.Name != "T" || tv.Bound == nil {
		t.Errorf("TypeParams[0] = %v", fn.TypeParams[0])
	}
	if _, ok := fn.TypeParams[1].(*ast.TypeVarTuple); !ok {
		t.Errorf("TypeParams[1] is %T, want *ast.TypeVarTuple", fn.TypeParams[1])
	}
	if _, ok := fn.TypeParams[2].(*ast.ParamSpec); !ok {
		t.Errorf("TypeParams[2] is %T, want *ast.ParamSpec", fn.TypeParams[2])
	}
	cls := module.Body[1].(*ast.ClassDef)
	if len(cls.TypeParams) != 1 || cls.TypeParams[0].ParamName() != "U" {
		t.Errorf("class TypeParams = %v", cls.TypeParams)
	}
}

func TestStringLiterals(t *testing.T) {
	tests := []struct {
		input string
		want  ast.ConstantValue
	}{
		{`"a" "b"`, ast.StrValue("ab")},
		{`'it\'s'`, ast.StrValue("it's")},
		{`"tab\there"`, ast.StrValue("tab\there")},
		{`"\x41\101\u00e9"`, ast.StrValue("AAé")},
		{`"\N{BULLET}"`, ast.StrValue("•")},
		{`"\N{latin small letter a}"`, ast.StrValue("a")},
		{`"\q"`, ast.StrValue(`\q`)},
		{`r"\n"`, ast.StrValue(`\n`)},
		{`b"\x41\xff"`, ast.BytesValue("A\xff")},
		{`b"\u0041"`, ast.BytesValue(`\u0041`)},
		{`rb"\x41"`, ast.BytesValue(`\x41`)},
		{`'''a'b'''`, ast.StrValue("a'b")},
		{`""`, ast.StrValue("")},
		{`"a\` + "\n" + `b"`, ast.StrValue("ab")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr := parseExpr(t, tt.input)
			c, ok := expr.(*ast.Constant)
			if !ok {
				t.Fatalf("got %T, want *ast.Constant", expr)
			}
			if c.Value != tt.want {
				t.Errorf("Value = %#v, want %#v", c.Value, tt.want)
			}
		})
	}
}

func TestConcatenatedStringSpan(t *testing.T) {
	c := parseExpr(t, `"ab" 'cd'`).(*ast.Constant)
	if c.Start != 0 || c.End != 9 {
		t.Errorf("span = %d..%d, want 0..9", c.Start, c.End)
	}
}

func TestFStrings(t *testing.T) {
	t.Run("text and fields", func(t *testing.T) {
		js := parseExpr(t, `f"a{x}b"`).(*ast.JoinedStr)
		if len(js.Values) != 3 {
			t.Fatalf("len(Values) = %d, want 3", len(js.Values))
		}
		if c := js.Values[0].(*ast.Constant); c.Value != ast.StrValue("a") {
			t.Errorf("Values[0] = %v", c.Value)
		}
		fv := js.Values[1].(*ast.FormattedValue)
		if fv.Value.String() != "x" || fv.Conversion != ast.NoConversion || fv.FormatSpec != nil {
			t.Errorf("Values[1] = %s", fv)
		}
	})

	t.Run("conversion and nested spec", func(t *testing.T) {
		js := parseExpr(t, `f"{x!r:>{width}}"`).(*ast.JoinedStr)
		fv := js.Values[0].(*ast.FormattedValue)
		if fv.Conversion != ast.ReprConversion {
			t.Errorf("Conversion = %q, want 'r'", fv.Conversion)
		}
		spec, ok := fv.FormatSpec.(*ast.JoinedStr)
		if !ok {
			t.Fatalf("FormatSpec is %T, want *ast.JoinedStr", fv.FormatSpec)
		}
		if len(spec.Values) != 2 {
			t.Fatalf("spec has %d values, want 2", len(spec.Values))
		}
		if inner := spec.Values[1].(*ast.FormattedValue); inner.Value.String() != "width" {
			t.Errorf("nested field = %s", inner)
		}
	})

	t.Run("self documenting", func(t *testing.T) {
		js := parseExpr(t, `f"{x = }"`).(*ast.JoinedStr)
		if len(js.Values) != 2 {
			t.Fatalf("len(Values) = %d, want 2", len(js.Values))
		}
		if c := js.Values[0].(*ast.Constant); c.Value != ast.StrValue("x = ") {
			t.Errorf("debug text = %#v, want \"x = \"", c.Value)
		}
		if fv := js.Values[1].(*ast.FormattedValue); fv.Conversion != ast.ReprConversion {
			t.Errorf("Conversion = %q, want 'r'", fv.Conversion)
		}
	})

	t.Run("doubled braces", func(t *testing.T) {
		js := parseExpr(t, `f"{{}}"`).(*ast.JoinedStr)
		if len(js.Values) != 1 || js.Values[0].(*ast.Constant).Value != ast.StrValue("{}") {
			t.Errorf("Values = %v", js.Values)
		}
	})

	t.Run("implicit concatenation", func(t *testing.T) {
		js := parseExpr(t, `"a" f"b{x}" "c"`).(*ast.JoinedStr)
		if len(js.Values) != 3 {
			t.Fatalf("len(Values) = %d, want 3", len(js.Values))
		}
		if c := js.Values[0].(*ast.Constant); c.Value != ast.StrValue("ab") {
			t.Errorf("Values[0] = %#v, want \"ab\"", c.Value)
		}
	})

	t.Run("empty", func(t *testing.T) {
		js := parseExpr(t, `f""`).(*ast.JoinedStr)
		if len(js.Values) != 0 {
			t.Errorf("len(Values) = %d, want 0", len(js.Values))
		}
	})
}

func TestStringErrors(t *testing.T) {
	tests := []struct {
		input string
		code  string
	}{
		{`x = "a" b"b"` + "\n", "PARSE-0012"},
		{`x = b"é"` + "\n", "PARSE-0014"},
		{`x = "\x4"` + "\n", "PARSE-0014"},
		{`x = "\N{NO SUCH NAME}"` + "\n", "PARSE-0014"},
		{`x = f"{}"` + "\n", "PARSE-0013"},
		{`x = f"{a!z}"` + "\n", "PARSE-0013"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if err := firstError(t, tt.input); err.Code != tt.code {
				t.Errorf("Code = %s, want %s (%s)", err.Code, tt.code, err.Message)
			}
		})
	}
}

func TestMatchStatement(t *testing.T) {
	input := `match command:
    case [1, *rest]:
        pass
    case {"k": v, **kw}:
        pass
    case Point(x=0, y=yy) | Point(0, 0) as pt if pt:
        pass
    case -1+2j | None:
        pass
    case a, *_:
        pass
    case Color.RED:
        pass
    case _:
        pass
`
	module := parse(t, input)
	match, ok := module.Body[0].(*ast.Match)
	if !ok {
		t.Fatalf("got %T, want *ast.Match", module.Body[0])
	}
	if len(match.Cases) != 7 {
		t.Fatalf("len(Cases) = %d, want 7", len(match.Cases))
	}

	tests := []struct {
		wantType string
		expected string
	}{
		{"*ast.MatchSequence", "[1, *rest]"},
		{"*ast.MatchMapping", `{"k": v, **kw}`},
		{"*ast.MatchAs", "Point(x=0, y=yy) | Point(0, 0) as pt"},
		{"*ast.MatchOr", "((-1) + 2j) | None"},
		{"*ast.MatchSequence", "[a, *_]"},
		{"*ast.MatchValue", "Color.RED"},
		{"*ast.MatchAs", "_"},
	}
	for i, tt := range tests {
		pattern := match.Cases[i].Pattern
		if got := typeName(pattern); got != tt.wantType {
			t.Errorf("case %d: type = %s, want %s", i, got, tt.wantType)
		}
		if got := pattern.String(); got != tt.expected {
			t.Errorf("case %d: String() = %q, want %q", i, got, tt.expected)
		}
	}

	if match.Cases[2].Guard == nil {
		t.Errorf("case 2 should have a guard")
	}
	cls := match.Cases[2].Pattern.(*ast.MatchAs).Pattern.(*ast.MatchOr).Patterns[0].(*ast.MatchClass)
	if len(cls.KwdAttrs) != 2 || cls.KwdAttrs[1] != "y" {
		t.Errorf("KwdAttrs = %v", cls.KwdAttrs)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  string
		line  int
	}{
		{"unexpected indent", "x = 1\n    y = 2\n", "PARSE-0003", 2},
		{"missing colon", "if x\n    pass\n", "PARSE-0001", 1},
		{"unexpected token", "x = )\n", "PARSE-0002", 1},
		{"missing block", "def f():\nreturn 1\n", "PARSE-0016", 2},
		{"non-default after default", "def f(a=1, b): pass\n", "PARSE-0005", 1},
		{"var-positional default", "def f(*a=1): pass\n", "PARSE-0006", 1},
		{"positional after keyword", "f(a=1, b)\n", "PARSE-0008", 1},
		{"keyword pattern order", "match x:\n    case C(a=1, b):\n        pass\n", "PARSE-0009", 2},
		{"empty type params", "class C[]: pass\n", "PARSE-0010", 1},
		{"duplicate parameter", "def f(a, a): pass\n", "PARSE-0015", 1},
		{"unterminated string", "x = 'abc\n", "LEX-0001", 1},
		{"leading zero integer", "x = 0777\n", "LEX-0011", 1},
		{"unpacking after keyword unpacking", "f(**a, *b)\n", "PARSE-0018", 1},
		{"generator before argument", "f(x for x in y, 1)\n", "PARSE-0019", 1},
		{"generator after argument", "f(1, x for x in y)\n", "PARSE-0019", 1},
		{"generator with trailing comma", "f(x for x in y,)\n", "PARSE-0019", 1},
		{"parenthesized starred", "x = (*a)\n", "PARSE-0020", 1},
		{"starred generator element", "x = (*a for a in b)\n", "PARSE-0021", 1},
		{"starred list comprehension element", "x = [*a for a in b]\n", "PARSE-0021", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := firstError(t, tt.input)
			if err.Code != tt.code {
				t.Errorf("Code = %s, want %s (%s)", err.Code, tt.code, err.Message)
			}
			if err.Line != tt.line {
				t.Errorf("Line = %d, want %d", err.Line, tt.line)
			}
			if err.File != "test.py" {
				t.Errorf("File = %q, want test.py", err.File)
			}
			if !err.IsFatal() {
				t.Errorf("%s should be fatal", err.Code)
			}
		})
	}
}

func TestSyntaxErrorCarriesContext(t *testing.T) {
	tests := []struct {
		input   string
		message string
		advice  string
		span    perrors.Span
		column  int
	}{
		{"f(**a, *b)\n", "iterable argument unpacking follows keyword argument unpacking", "Pass *args before **kwargs", perrors.Span{Start: 7, End: 9}, 8},
		{"y = 1\nf(x for x in y, 1)\n", "Generator expression must be parenthesized", "Wrap the generator expression in its own parentheses", perrors.Span{Start: 8, End: 20}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			err := firstError(t, tt.input)
			if err.Message != tt.message {
				t.Errorf("Message = %q, want %q", err.Message, tt.message)
			}
			if err.Advice != tt.advice {
				t.Errorf("Advice = %q, want %q", err.Advice, tt.advice)
			}
			if err.Span != tt.span || err.Column != tt.column {
				t.Errorf("Span = %v column %d, want %v column %d", err.Span, err.Column, tt.span, tt.column)
			}
			if err.Class != perrors.ClassSyntax {
				t.Errorf("Class = %v, want syntax", err.Class)
			}
			if lines := strings.Split(tt.input, "\n"); err.Input != lines[err.Line-1] {
				t.Errorf("Input = %q, want the offending line", err.Input)
			}
		})
	}
}

func TestParsingStopsAtFirstError(t *testing.T) {
	p := New("a = 1\nx = )\ny = 2\nz = (\n", "test.py")
	module := p.Parse()
	if len(module.Body) != 1 {
		t.Errorf("len(Body) = %d, want 1", len(module.Body))
	}
	if len(p.Errors()) != 1 {
		t.Errorf("errors = %v, want exactly one", p.Errors())
	}
}

func TestMissingNewlineIsStyleWarning(t *testing.T) {
	p := New("whille x\n", "test.py")
	module := p.Parse()
	errs := p.StructuredErrors()
	if len(errs) != 1 {
		t.Fatalf("errors = %v, want exactly one", p.Errors())
	}
	err := errs[0]
	if err.Code != "PARSE-0004" || err.Class != perrors.ClassStyle || err.IsFatal() {
		t.Errorf("got %s (%s), want non-fatal PARSE-0004", err.Code, err.Class)
	}
	if len(err.Hints) == 0 || !strings.Contains(err.Hints[0], "`while`") {
		t.Errorf("Hints = %v, want a suggestion of while", err.Hints)
	}
	if err.Column != 8 {
		t.Errorf("Column = %d, want 8", err.Column)
	}
	if len(module.Body) != 2 {
		t.Errorf("len(Body) = %d, want 2", len(module.Body))
	}
}

func TestSpans(t *testing.T) {
	input := "x = 1 + 22\nif a:\n    b\n"
	module := parse(t, input)

	if module.Start != 0 || module.End != len(input) {
		t.Errorf("module span = %d..%d, want 0..%d", module.Start, module.End, len(input))
	}

	assign := module.Body[0].(*ast.Assign)
	if assign.Start != 0 || assign.End != 10 {
		t.Errorf("assign span = %d..%d, want 0..10", assign.Start, assign.End)
	}
	if v := assign.Value.GetNode(); v.Start != 4 || v.End != 10 {
		t.Errorf("value span = %d..%d, want 4..10", v.Start, v.End)
	}

	ifStmt := module.Body[1].(*ast.If)
	if ifStmt.Start != 11 || ifStmt.End != 22 {
		t.Errorf("if span = %d..%d, want 11..22", ifStmt.Start, ifStmt.End)
	}
}

func TestCommentsAndBlankLines(t *testing.T) {
	input := "# header\n\nx = 1  # trailing\n\n\ndef f():\n    # inside\n\n    return x\n"
	module := parse(t, input)
	if len(module.Body) != 2 {
		t.Fatalf("len(Body) = %d, want 2", len(module.Body))
	}
	fn := module.Body[1].(*ast.FunctionDef)
	if len(fn.Body) != 1 {
		t.Errorf("len(fn.Body) = %d, want 1", len(fn.Body))
	}
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
