package symbols

import (
	"strings"
	"testing"

	"github.com/sambeau/pyfront/pkg/python/ast"
)

func variableAt(start, end int) *Variable {
	return &Variable{DeclarationPath: DeclarationPath{ModuleName: "test", Node: ast.NewNode(start, end)}}
}

func TestNewTableScopes(t *testing.T) {
	table := New("test")

	if got := table.CurrentScopeType(); got != ModuleScope {
		t.Errorf("CurrentScopeType() = %s, want module", got)
	}
	if table.BuiltinScope().Parent != NoParent {
		t.Errorf("builtin scope has parent %d", table.BuiltinScope().Parent)
	}
	if table.GlobalScope().Parent != table.BuiltinScope().ID {
		t.Errorf("module scope parent = %d, want %d", table.GlobalScope().Parent, table.BuiltinScope().ID)
	}
	for _, name := range []string{"list", "tuple", "set", "dict"} {
		sym := table.LookupInBuiltinScope(name)
		if sym == nil {
			t.Errorf("builtin %q missing", name)
			continue
		}
		if sym.LastDeclaration().Kind() != ClassDeclaration {
			t.Errorf("builtin %q is %s, want Class", name, sym.LastDeclaration().Kind())
		}
	}
	if table.LookupInBuiltinScope("print") != nil {
		t.Errorf("print should not be a bootstrap builtin")
	}
}

func TestLookupBeforeAndAfterExitScope(t *testing.T) {
	// def f(): x = 1
	table := New("test")
	table.EnterScope(FunctionScope, "f", ast.NewNode(0, 16))
	table.AddSymbol("x", variableAt(10, 11))

	sym := table.Lookup("x")
	if sym == nil {
		t.Fatal("x not found in the open function scope")
	}
	if sym.LastDeclaration().Kind() != VariableDeclaration {
		t.Errorf("x is %s, want Variable", sym.LastDeclaration().Kind())
	}

	table.ExitScope()

	if table.Lookup("x") != nil {
		t.Errorf("x should not be visible from the module scope")
	}
	if table.LookupAt("x", 12) == nil {
		t.Errorf("x should be found by position inside f")
	}
	if table.LookupAt("x", 20) != nil {
		t.Errorf("x should not be found after the end of f")
	}
}

func TestLookupAtWalksParents(t *testing.T) {
	table := New("test")
	table.AddSymbol("g", variableAt(0, 1))
	table.EnterScope(FunctionScope, "outer", ast.NewNode(5, 60))
	table.AddSymbol("y", variableAt(20, 21))
	table.EnterScope(FunctionScope, "inner", ast.NewNode(30, 50))
	table.ExitScope()
	table.ExitScope()

	tests := []struct {
		name  string
		pos   int
		found bool
	}{
		{"y", 40, true},
		{"g", 40, true},
		{"list", 40, true},
		{"y", 70, false},
		{"missing", 40, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.LookupAt(tt.name, tt.pos)
			if (got != nil) != tt.found {
				t.Errorf("LookupAt(%q, %d) = %v, want found=%v", tt.name, tt.pos, got, tt.found)
			}
		})
	}

	if s := table.InnermostScope(40); s == nil || s.Name != "inner" {
		t.Errorf("InnermostScope(40) = %v, want inner", s)
	}
	if s := table.InnermostScope(10); s == nil || s.Name != "outer" {
		t.Errorf("InnermostScope(10) = %v, want outer", s)
	}
	if s := table.InnermostScope(2); s != nil {
		t.Errorf("InnermostScope(2) = %s, want nil", s.Name)
	}
}

func TestRedeclarationKeepsHistory(t *testing.T) {
	table := New("test")
	table.AddSymbol("a", variableAt(0, 1))
	table.AddSymbol("a", variableAt(6, 7))

	sym := table.Lookup("a")
	if len(sym.Declarations) != 2 {
		t.Fatalf("len(Declarations) = %d, want 2", len(sym.Declarations))
	}
	if sym.Declarations[0].Path().Node.Start != 0 || sym.Declarations[1].Path().Node.Start != 6 {
		t.Errorf("declarations out of order: %v", sym.Declarations)
	}
	if sym.LastDeclaration().Path().Node.Start != 6 {
		t.Errorf("LastDeclaration() starts at %d, want 6", sym.LastDeclaration().Path().Node.Start)
	}
}

func TestDeclarationUntilPosition(t *testing.T) {
	sym := &SymbolTableNode{Name: "a"}
	sym.AddDeclaration(variableAt(0, 1))
	sym.AddDeclaration(variableAt(10, 11))
	sym.AddDeclaration(variableAt(20, 21))

	tests := []struct {
		pos       int
		wantStart int
		wantNil   bool
	}{
		{0, 0, true},
		{1, 0, false},
		{10, 0, false},
		{15, 10, false},
		{100, 20, false},
	}

	for _, tt := range tests {
		got := sym.DeclarationUntilPosition(tt.pos)
		if tt.wantNil {
			if got != nil {
				t.Errorf("DeclarationUntilPosition(%d) = %v, want nil", tt.pos, got)
			}
			continue
		}
		if got == nil || got.Path().Node.Start != tt.wantStart {
			t.Errorf("DeclarationUntilPosition(%d) = %v, want start %d", tt.pos, got, tt.wantStart)
		}
	}
}

func TestExitScopePanicsWithoutOpenScope(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("ExitScope() on the module scope should panic")
		}
	}()
	New("test").ExitScope()
}

func TestTableString(t *testing.T) {
	table := New("test")
	table.AddSymbol("b", variableAt(4, 5))
	table.AddSymbol("a", variableAt(0, 1))
	table.EnterScope(FunctionScope, "f", ast.NewNode(10, 30))
	table.AddSymbol("x", variableAt(20, 21))
	table.ExitScope()

	out := table.String()
	for _, want := range []string{"global scope:", "Symbols in global (id: 1)", "all scopes:", "Symbols in f (id: 2)", "--:   Variable (test:20..21) scope=local"} {
		if !strings.Contains(out, want) {
			t.Errorf("String() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "builtins") {
		t.Errorf("String() should leave out the builtin scope:\n%s", out)
	}
	if strings.Index(out, "\na\n") > strings.Index(out, "\nb\n") {
		t.Errorf("symbols are not sorted by name:\n%s", out)
	}
}
