package ast

import (
	"testing"
)

func name(id string) *Name { return &Name{ID: id} }

func TestString(t *testing.T) {
	tests := []struct {
		name     string
		node     Spanned
		expected string
	}{
		{
			name: "chained assignment",
			node: &Assign{
				Targets: []Expression{name("a"), name("b")},
				Value:   &Constant{Value: IntValue("1")},
			},
			expected: "a = b = 1",
		},
		{
			name: "annotated assignment",
			node: &AnnAssign{
				Target:     name("a"),
				Annotation: name("int"),
				Value:      &Constant{Value: IntValue("1")},
				Simple:     true,
			},
			expected: "a: int = 1",
		},
		{
			name:     "aug assignment",
			node:     &AugAssign{Target: name("a"), Op: FloorDiv, Value: name("b")},
			expected: "a //= b",
		},
		{
			name:     "one element tuple",
			node:     &Tuple{Elements: []Expression{name("a")}},
			expected: "(a,)",
		},
		{
			name: "dict with unpacking",
			node: &Dict{
				Keys:   []Expression{&Constant{Value: StrValue("k")}, nil},
				Values: []Expression{name("v"), name("rest")},
			},
			expected: `{"k": v, **rest}`,
		},
		{
			name: "comparison chain",
			node: &Compare{
				Left:        name("a"),
				Ops:         []CmpOperator{Lt, IsNot},
				Comparators: []Expression{name("b"), &Constant{Value: NoneValue{}}},
			},
			expected: "(a < b is not None)",
		},
		{
			name: "call with keywords",
			node: &Call{
				Func:     &Attribute{Value: name("os"), Attr: "getenv"},
				Args:     []Expression{&Starred{Value: name("args")}},
				Keywords: []*Keyword{{Arg: "default", Value: &Constant{Value: BoolValue(true)}}, {Value: name("kw")}},
			},
			expected: "os.getenv(*args, default=True, **kw)",
		},
		{
			name: "subscript with tuple slice",
			node: &Subscript{
				Value: name("m"),
				Slice: &Tuple{Elements: []Expression{&Slice{Lower: name("i")}, name("j")}},
			},
			expected: "m[i:, j]",
		},
		{
			name: "f-string",
			node: &JoinedStr{Values: []Expression{
				&Constant{Value: StrValue("a{")},
				&FormattedValue{
					Value:      name("x"),
					Conversion: ReprConversion,
					FormatSpec: &JoinedStr{Values: []Expression{&Constant{Value: StrValue(">10")}}},
				},
			}},
			expected: `f"a{{{x!r:>10}"`,
		},
		{
			name: "lambda",
			node: &Lambda{
				Args: &Arguments{Args: []*Arg{{Name: "x"}}, Defaults: []Expression{&Constant{Value: IntValue("0")}}},
				Body: name("x"),
			},
			expected: "(lambda x=0: x)",
		},
		{
			name:     "complex constant",
			node:     &Constant{Value: ComplexValue{Real: "0", Imaginary: "2j"}},
			expected: "2j",
		},
		{
			name:     "bytes constant",
			node:     &Constant{Value: BytesValue("\x00a")},
			expected: `b"\x00a"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestArgumentsString(t *testing.T) {
	args := &Arguments{
		PosOnlyArgs: []*Arg{{Name: "a"}},
		Args:        []*Arg{{Name: "b", Annotation: name("int")}, {Name: "c"}},
		Vararg:      &Arg{Name: "rest"},
		KwOnlyArgs:  []*Arg{{Name: "d"}, {Name: "e"}},
		KwDefaults:  []Expression{nil, &Constant{Value: NoneValue{}}},
		Kwarg:       &Arg{Name: "kw"},
		Defaults:    []Expression{&Constant{Value: IntValue("1")}},
	}
	expected := "a, /, b: int, c=1, *rest, d, e=None, **kw"
	if got := args.String(); got != expected {
		t.Errorf("String() = %q, want %q", got, expected)
	}
	if args.Count() != 7 {
		t.Errorf("Count() = %d, want 7", args.Count())
	}
	if d := args.DefaultFor(args.Args[0]); d != nil {
		t.Errorf("DefaultFor(b) = %v, want nil", d)
	}
}

func TestCompoundString(t *testing.T) {
	stmt := &If{
		Test: name("a"),
		Body: []Statement{&Pass{}},
		Orelse: []Statement{&If{
			Test:   name("b"),
			Body:   []Statement{&Return{Value: name("b")}},
			Orelse: []Statement{&Break{}},
		}},
	}
	expected := "if a:\n    pass\nelif b:\n    return b\nelse:\n    break"
	if got := stmt.String(); got != expected {
		t.Errorf("String() = %q, want %q", got, expected)
	}

	fn := &FunctionDef{
		Name:          "f",
		Args:          &Arguments{Args: []*Arg{{Name: "self"}}},
		DecoratorList: []Expression{name("staticmethod")},
		TypeParams:    []TypeParam{&TypeVar{Name: "T", Bound: name("int")}, &ParamSpec{Name: "P"}},
		Returns:       name("T"),
		Body:          []Statement{&ExpressionStatement{Value: &Constant{Value: EllipsisValue{}}}},
		IsAsync:       true,
	}
	expected = "@staticmethod\nasync def f[T: int, **P](self) -> T:\n    ..."
	if got := fn.String(); got != expected {
		t.Errorf("String() = %q, want %q", got, expected)
	}
}

func TestPatternString(t *testing.T) {
	tests := []struct {
		pattern  Pattern
		expected string
	}{
		{&MatchAs{}, "_"},
		{&MatchAs{Name: "x"}, "x"},
		{&MatchAs{Pattern: &MatchValue{Value: &Constant{Value: IntValue("1")}}, Name: "one"}, "1 as one"},
		{&MatchSequence{Patterns: []Pattern{&MatchAs{Name: "a"}, &MatchStar{}}}, "[a, *_]"},
		{&MatchMapping{Keys: []Expression{&Constant{Value: StrValue("k")}}, Patterns: []Pattern{&MatchAs{Name: "v"}}, Rest: "rest"}, `{"k": v, **rest}`},
		{&MatchClass{Cls: name("Point"), Patterns: []Pattern{&MatchAs{Name: "x"}}, KwdAttrs: []string{"y"}, KwdPatterns: []Pattern{&MatchSingleton{Value: NoneValue{}}}}, "Point(x, y=None)"},
		{&MatchOr{Patterns: []Pattern{&MatchValue{Value: name("A.B")}, &MatchStar{Name: "r"}}}, "A.B | *r"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.pattern.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestInspect(t *testing.T) {
	mod := &Module{Body: []Statement{
		&Assign{Targets: []Expression{name("a")}, Value: &BinOp{Op: Add, Left: name("b"), Right: name("c")}},
		&FunctionDef{
			Name: "f",
			Args: &Arguments{Args: []*Arg{{Name: "x", Annotation: name("int")}}},
			Body: []Statement{&Return{Value: &Call{Func: name("g"), Args: []Expression{name("x")}}}},
		},
	}}

	var names []string
	Inspect(mod, func(n Spanned) bool {
		if id, ok := n.(*Name); ok {
			names = append(names, id.ID)
		}
		return true
	})

	expected := []string{"a", "b", "c", "int", "g", "x"}
	if len(names) != len(expected) {
		t.Fatalf("visited %v, want %v", names, expected)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], expected[i])
		}
	}
}

func TestNodeSpan(t *testing.T) {
	n := NewNode(4, 9)
	if n.Len() != 5 || n.IsEmpty() {
		t.Errorf("Len() = %d, IsEmpty() = %v", n.Len(), n.IsEmpty())
	}
	if !n.Contains(4) || n.Contains(9) {
		t.Errorf("Contains bounds wrong for %v", n)
	}
	var s Statement = &Pass{Node: n}
	if s.GetNode() != n {
		t.Errorf("GetNode() = %v, want %v", s.GetNode(), n)
	}
}
