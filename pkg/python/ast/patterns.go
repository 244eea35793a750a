package ast

import "strings"

// Pattern is a structural pattern of a match case.
type Pattern interface {
	Spanned
	patternNode()
}

// MatchValue matches by equality: literals and dotted names.
type MatchValue struct {
	Node
	Value Expression
}

func (p *MatchValue) patternNode()    {}
func (p *MatchValue) String() string { return p.Value.String() }

// MatchSingleton matches None, True or False by identity.
type MatchSingleton struct {
	Node
	Value ConstantValue
}

func (p *MatchSingleton) patternNode()    {}
func (p *MatchSingleton) String() string { return p.Value.String() }

type MatchSequence struct {
	Node
	Patterns []Pattern
}

func (p *MatchSequence) patternNode()    {}
func (p *MatchSequence) String() string { return "[" + joinPatterns(p.Patterns, ", ") + "]" }

// MatchStar is '*name' inside a sequence pattern. An empty Name is '*_'.
type MatchStar struct {
	Node
	Name string
}

func (p *MatchStar) patternNode() {}
func (p *MatchStar) String() string {
	if p.Name == "" {
		return "*_"
	}
	return "*" + p.Name
}

// MatchMapping is '{key: pattern, **rest}'.
type MatchMapping struct {
	Node
	Keys     []Expression
	Patterns []Pattern
	Rest     string
}

func (p *MatchMapping) patternNode() {}
func (p *MatchMapping) String() string {
	parts := make([]string, 0, len(p.Keys)+1)
	for i, k := range p.Keys {
		parts = append(parts, k.String()+": "+p.Patterns[i].String())
	}
	if p.Rest != "" {
		parts = append(parts, "**"+p.Rest)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// MatchClass is 'Cls(positional, attr=pattern)'.
type MatchClass struct {
	Node
	Cls         Expression
	Patterns    []Pattern
	KwdAttrs    []string
	KwdPatterns []Pattern
}

func (p *MatchClass) patternNode() {}
func (p *MatchClass) String() string {
	parts := make([]string, 0, len(p.Patterns)+len(p.KwdAttrs))
	for _, sub := range p.Patterns {
		parts = append(parts, sub.String())
	}
	for i, attr := range p.KwdAttrs {
		parts = append(parts, attr+"="+p.KwdPatterns[i].String())
	}
	return p.Cls.String() + "(" + strings.Join(parts, ", ") + ")"
}

// MatchAs binds the subject to Name. With no Pattern it is a capture
// pattern; with no Name either it is the wildcard '_'.
type MatchAs struct {
	Node
	Pattern Pattern
	Name    string
}

func (p *MatchAs) patternNode() {}
func (p *MatchAs) String() string {
	switch {
	case p.Pattern == nil && p.Name == "":
		return "_"
	case p.Pattern == nil:
		return p.Name
	}
	return p.Pattern.String() + " as " + p.Name
}

type MatchOr struct {
	Node
	Patterns []Pattern
}

func (p *MatchOr) patternNode()    {}
func (p *MatchOr) String() string { return joinPatterns(p.Patterns, " | ") }

func joinPatterns(patterns []Pattern, sep string) string {
	parts := make([]string, len(patterns))
	for i, p := range patterns {
		parts[i] = p.String()
	}
	return strings.Join(parts, sep)
}
