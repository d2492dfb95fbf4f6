// Package fragment defines the code-fragment records collected while parsing
// EFI C source, and the sink they are delivered to.
package fragment

import "fmt"

// Position is a point in a source file. Line is 1-based, Column 0-based.
type Position struct {
	Line   int `yaml:"line"`
	Column int `yaml:"column"`
}

// Before reports whether p comes strictly before o
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is the source range of a fragment. End is the position of the
// construct's last token.
type Span struct {
	Start Position `yaml:"start"`
	End   Position `yaml:"end"`
}

// Valid reports whether the span is well ordered
func (s Span) Valid() bool {
	return !s.End.Before(s.Start)
}

func (s Span) String() string {
	return s.Start.String() + "-" + s.End.String()
}

// Kind identifies a fragment collection
type Kind int

const (
	KindPredicateExpression Kind = iota
	KindEnumerationDefinition
	KindStructUnionDefinition
	KindTypedefDefinition
	KindVariableDeclaration
	KindFunctionDefinition
	KindFunctionCalling
)

// Kinds lists every fragment kind in declaration order
var Kinds = []Kind{
	KindPredicateExpression,
	KindEnumerationDefinition,
	KindStructUnionDefinition,
	KindTypedefDefinition,
	KindVariableDeclaration,
	KindFunctionDefinition,
	KindFunctionCalling,
}

func (k Kind) String() string {
	names := []string{"predicate", "enum", "struct_union", "typedef", "variable", "function", "call"}
	if int(k) >= 0 && int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// Fragment is implemented by every record type
type Fragment interface {
	Kind() Kind
	Location() Span
}

// PredicateExpression is the controlling expression of an if, while, for,
// do-while or ternary.
type PredicateExpression struct {
	Text string `yaml:"text"`
	Span Span   `yaml:"span"`
}

// EnumerationDefinition is an enum specifier with a body
type EnumerationDefinition struct {
	Text string `yaml:"text"`
	Span Span   `yaml:"span"`
}

// StructUnionDefinition is a struct or union specifier with a body
type StructUnionDefinition struct {
	Text string `yaml:"text"`
	Span Span   `yaml:"span"`
}

// TypedefDefinition records `typedef FromText ToText;`
type TypedefDefinition struct {
	FromText string `yaml:"from"`
	ToText   string `yaml:"to"`
	Span     Span   `yaml:"span"`
}

// VariableDeclaration is a non-typedef declaration with declarators
type VariableDeclaration struct {
	ModifierText string `yaml:"modifier"`
	DeclText     string `yaml:"decl"`
	Span         Span   `yaml:"span"`
}

// FunctionDefinition is a declarator followed by a body. LeftBrace* locate
// the body's opening brace and Decl* the start of the declarator.
type FunctionDefinition struct {
	ModifierText    string `yaml:"modifier"`
	DeclText        string `yaml:"decl"`
	Span            Span   `yaml:"span"`
	LeftBraceLine   int    `yaml:"left_brace_line"`
	LeftBraceColumn int    `yaml:"left_brace_column"`
	DeclLine        int    `yaml:"decl_line"`
	DeclColumn      int    `yaml:"decl_column"`
}

// FunctionCalling is a call site: the callee text and its argument list
type FunctionCalling struct {
	Name string `yaml:"name"`
	Args string `yaml:"args"`
	Span Span   `yaml:"span"`
}

func (f PredicateExpression) Kind() Kind   { return KindPredicateExpression }
func (f EnumerationDefinition) Kind() Kind { return KindEnumerationDefinition }
func (f StructUnionDefinition) Kind() Kind { return KindStructUnionDefinition }
func (f TypedefDefinition) Kind() Kind     { return KindTypedefDefinition }
func (f VariableDeclaration) Kind() Kind   { return KindVariableDeclaration }
func (f FunctionDefinition) Kind() Kind    { return KindFunctionDefinition }
func (f FunctionCalling) Kind() Kind       { return KindFunctionCalling }

func (f PredicateExpression) Location() Span   { return f.Span }
func (f EnumerationDefinition) Location() Span { return f.Span }
func (f StructUnionDefinition) Location() Span { return f.Span }
func (f TypedefDefinition) Location() Span     { return f.Span }
func (f VariableDeclaration) Location() Span   { return f.Span }
func (f FunctionDefinition) Location() Span    { return f.Span }
func (f FunctionCalling) Location() Span       { return f.Span }

// Sink receives fragments as the parser commits them. Fragments of one kind
// arrive in source order.
type Sink interface {
	AddPredicateExpression(PredicateExpression)
	AddEnumerationDefinition(EnumerationDefinition)
	AddStructUnionDefinition(StructUnionDefinition)
	AddTypedefDefinition(TypedefDefinition)
	AddVariableDeclaration(VariableDeclaration)
	AddFunctionDefinition(FunctionDefinition)
	AddFunctionCalling(FunctionCalling)
}

// Deliver routes f to the matching Add method of s
func Deliver(s Sink, f Fragment) {
	switch v := f.(type) {
	case PredicateExpression:
		s.AddPredicateExpression(v)
	case EnumerationDefinition:
		s.AddEnumerationDefinition(v)
	case StructUnionDefinition:
		s.AddStructUnionDefinition(v)
	case TypedefDefinition:
		s.AddTypedefDefinition(v)
	case VariableDeclaration:
		s.AddVariableDeclaration(v)
	case FunctionDefinition:
		s.AddFunctionDefinition(v)
	case FunctionCalling:
		s.AddFunctionCalling(v)
	}
}
