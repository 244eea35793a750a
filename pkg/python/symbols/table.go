// Package symbols builds and queries the scopes and declarations of a
// parsed Python module.
//
// A SymbolTable keeps a stack of open scopes and an append-only archive of
// the scopes that have been exited. Scopes refer to their parent by id, so
// an archived scope can still be searched by source position after the walk
// that built it has finished.
package symbols

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/sambeau/pyfront/pkg/python/ast"
)

// ScopeKind is the construct that opened a scope.
type ScopeKind int

const (
	BuiltinScope ScopeKind = iota
	ModuleScope
	ClassScope
	FunctionScope
)

func (k ScopeKind) String() string {
	switch k {
	case BuiltinScope:
		return "builtin"
	case ModuleScope:
		return "module"
	case ClassScope:
		return "class"
	}
	return "function"
}

// NoParent is the Parent of the builtin scope.
const NoParent = -1

// Bootstrap classes of the builtin scope.
var builtinClasses = []string{"list", "tuple", "set", "dict"}

// Scope is one namespace.
type Scope struct {
	ID     int
	Kind   ScopeKind
	Name   string
	Start  int
	End    int // 0 when the extent is unknown
	Parent int

	symbols map[string]*SymbolTableNode
}

func newScope(id int, kind ScopeKind, name string, span ast.Node, parent int) *Scope {
	return &Scope{
		ID:      id,
		Kind:    kind,
		Name:    name,
		Start:   span.Start,
		End:     span.End,
		Parent:  parent,
		symbols: make(map[string]*SymbolTableNode),
	}
}

// Lookup returns the symbol called name in this scope only.
func (s *Scope) Lookup(name string) *SymbolTableNode {
	return s.symbols[name]
}

// Names returns the symbol names in sorted order.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.symbols))
	for name := range s.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of symbols.
func (s *Scope) Len() int { return len(s.symbols) }

// contains reports whether pos lies in the scope. Scopes with an unknown
// extent contain every position after their start.
func (s *Scope) contains(pos int) bool {
	if s.Start >= pos {
		return false
	}
	return s.End == 0 || pos < s.End
}

func (s *Scope) String() string {
	var out bytes.Buffer
	fmt.Fprintf(&out, "Symbols in %s (id: %d)\n", s.Name, s.ID)
	for _, name := range s.Names() {
		sym := s.symbols[name]
		out.WriteString(name + "\n")
		out.WriteString("- Declarations:\n")
		for _, d := range sym.sortedDeclarations() {
			out.WriteString("--:   " + d.String() + "\n")
		}
	}
	return out.String()
}

// SymbolTableNode is every declaration of one name in one scope, in the
// order they were added.
type SymbolTableNode struct {
	Name         string
	Declarations []Declaration
}

func (n *SymbolTableNode) AddDeclaration(d Declaration) {
	n.Declarations = append(n.Declarations, d)
}

// LastDeclaration returns the most recently added declaration, or nil.
func (n *SymbolTableNode) LastDeclaration() Declaration {
	if len(n.Declarations) == 0 {
		return nil
	}
	return n.Declarations[len(n.Declarations)-1]
}

// DeclarationUntilPosition returns the declaration starting latest before
// pos, or nil if every declaration starts at or after pos.
func (n *SymbolTableNode) DeclarationUntilPosition(pos int) Declaration {
	var best Declaration
	for _, d := range n.Declarations {
		start := d.Path().Node.Start
		if start >= pos {
			continue
		}
		if best == nil || start >= best.Path().Node.Start {
			best = d
		}
	}
	return best
}

func (n *SymbolTableNode) sortedDeclarations() []Declaration {
	sorted := make([]Declaration, len(n.Declarations))
	copy(sorted, n.Declarations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Path().Node.Start < sorted[j].Path().Node.Start
	})
	return sorted
}

// SymbolTable holds the scopes of one module.
type SymbolTable struct {
	ModuleName string

	scopes   []*Scope // open scopes, innermost last
	archived []*Scope // exited scopes, in exit order
	nextID   int
}

// New creates a table with the builtin scope and an open module scope.
func New(moduleName string) *SymbolTable {
	t := &SymbolTable{ModuleName: moduleName}

	builtins := newScope(t.newID(), BuiltinScope, "builtins", ast.Node{}, NoParent)
	for _, name := range builtinClasses {
		builtins.symbols[name] = &SymbolTableNode{
			Name: name,
			Declarations: []Declaration{&Class{
				DeclarationPath: DeclarationPath{ModuleName: "builtins"},
				Name:            name,
				Attributes:      map[string]ast.Expression{},
			}},
		}
	}
	module := newScope(t.newID(), ModuleScope, "global", ast.Node{}, builtins.ID)
	t.scopes = []*Scope{builtins, module}
	return t
}

func (t *SymbolTable) newID() int {
	id := t.nextID
	t.nextID++
	return id
}

// CurrentScope returns the innermost open scope.
func (t *SymbolTable) CurrentScope() *Scope {
	if len(t.scopes) == 0 {
		panic("symbols: no open scope")
	}
	return t.scopes[len(t.scopes)-1]
}

func (t *SymbolTable) CurrentScopeType() ScopeKind {
	return t.CurrentScope().Kind
}

// GlobalScope returns the module scope.
func (t *SymbolTable) GlobalScope() *Scope {
	return t.scopes[1]
}

func (t *SymbolTable) BuiltinScope() *Scope {
	return t.scopes[0]
}

// EnterScope opens a scope nested in the current one and returns it.
func (t *SymbolTable) EnterScope(kind ScopeKind, name string, span ast.Node) *Scope {
	s := newScope(t.newID(), kind, name, span, t.CurrentScope().ID)
	t.scopes = append(t.scopes, s)
	return s
}

// ExitScope closes the current scope and archives it. The builtin and
// module scopes are never exited.
func (t *SymbolTable) ExitScope() {
	if len(t.scopes) <= 2 {
		panic("symbols: tried to exit non-existent scope")
	}
	s := t.scopes[len(t.scopes)-1]
	t.scopes = t.scopes[:len(t.scopes)-1]
	t.archived = append(t.archived, s)
}

// AddSymbol adds a declaration of name to the current scope. Earlier
// declarations of the same name are kept.
func (t *SymbolTable) AddSymbol(name string, d Declaration) *SymbolTableNode {
	s := t.CurrentScope()
	sym, ok := s.symbols[name]
	if !ok {
		sym = &SymbolTableNode{Name: name}
		s.symbols[name] = sym
	}
	sym.AddDeclaration(d)
	return sym
}

// Scopes returns the archived scopes in exit order.
func (t *SymbolTable) Scopes() []*Scope {
	return t.archived
}

// InnermostScope returns the archived scope that most closely encloses
// pos, or nil when pos lies at module level.
func (t *SymbolTable) InnermostScope(pos int) *Scope {
	var best *Scope
	for _, s := range t.archived {
		if !s.contains(pos) {
			continue
		}
		if best == nil || s.Start > best.Start {
			best = s
		}
	}
	return best
}

// scopeByID finds a scope among the archived and the open scopes.
func (t *SymbolTable) scopeByID(id int) *Scope {
	for _, s := range t.archived {
		if s.ID == id {
			return s
		}
	}
	for _, s := range t.scopes {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Lookup finds name in the current scope only.
func (t *SymbolTable) Lookup(name string) *SymbolTableNode {
	return t.CurrentScope().Lookup(name)
}

// LookupAt finds name starting from the innermost scope at pos and
// walking out through the parents to the builtin scope. Failing that, the
// current scope is searched.
func (t *SymbolTable) LookupAt(name string, pos int) *SymbolTableNode {
	scope := t.InnermostScope(pos)
	if scope == nil {
		scope = t.GlobalScope()
	}
	for scope != nil {
		if sym := scope.Lookup(name); sym != nil {
			return sym
		}
		if scope.Parent == NoParent {
			break
		}
		scope = t.scopeByID(scope.Parent)
	}
	return t.Lookup(name)
}

func (t *SymbolTable) LookupInBuiltinScope(name string) *SymbolTableNode {
	return t.BuiltinScope().Lookup(name)
}

// String renders the open scopes and then the archived ones, each group
// sorted by scope name. The builtin scope is left out.
func (t *SymbolTable) String() string {
	var out bytes.Buffer
	out.WriteString("-------------------\n")
	out.WriteString("global scope:\n")
	for _, s := range sortedScopes(t.scopes) {
		out.WriteString(s.String() + "\n")
	}
	out.WriteString("all scopes:\n")
	for _, s := range sortedScopes(t.archived) {
		out.WriteString(s.String() + "\n")
	}
	out.WriteString("-------------------\n")
	return out.String()
}

func sortedScopes(scopes []*Scope) []*Scope {
	var sorted []*Scope
	for _, s := range scopes {
		if s.Kind != BuiltinScope {
			sorted = append(sorted, s)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return sorted
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
