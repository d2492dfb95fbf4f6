package fragment

import "sort"

// Profile collects the fragments of one source file. It implements Sink and
// keeps each kind in insertion order.
type Profile struct {
	FileName string `yaml:"file"`

	Predicates []PredicateExpression   `yaml:"predicates,omitempty"`
	Enums      []EnumerationDefinition `yaml:"enums,omitempty"`
	Structs    []StructUnionDefinition `yaml:"structs,omitempty"`
	Typedefs   []TypedefDefinition     `yaml:"typedefs,omitempty"`
	Variables  []VariableDeclaration   `yaml:"variables,omitempty"`
	Functions  []FunctionDefinition    `yaml:"functions,omitempty"`
	Calls      []FunctionCalling       `yaml:"calls,omitempty"`
}

// NewProfile creates an empty profile for the named file
func NewProfile(fileName string) *Profile {
	return &Profile{FileName: fileName}
}

func (p *Profile) AddPredicateExpression(f PredicateExpression) {
	p.Predicates = append(p.Predicates, f)
}

func (p *Profile) AddEnumerationDefinition(f EnumerationDefinition) {
	p.Enums = append(p.Enums, f)
}

func (p *Profile) AddStructUnionDefinition(f StructUnionDefinition) {
	p.Structs = append(p.Structs, f)
}

func (p *Profile) AddTypedefDefinition(f TypedefDefinition) {
	p.Typedefs = append(p.Typedefs, f)
}

func (p *Profile) AddVariableDeclaration(f VariableDeclaration) {
	p.Variables = append(p.Variables, f)
}

func (p *Profile) AddFunctionDefinition(f FunctionDefinition) {
	p.Functions = append(p.Functions, f)
}

func (p *Profile) AddFunctionCalling(f FunctionCalling) {
	p.Calls = append(p.Calls, f)
}

// Count returns the number of fragments of kind k
func (p *Profile) Count(k Kind) int {
	switch k {
	case KindPredicateExpression:
		return len(p.Predicates)
	case KindEnumerationDefinition:
		return len(p.Enums)
	case KindStructUnionDefinition:
		return len(p.Structs)
	case KindTypedefDefinition:
		return len(p.Typedefs)
	case KindVariableDeclaration:
		return len(p.Variables)
	case KindFunctionDefinition:
		return len(p.Functions)
	case KindFunctionCalling:
		return len(p.Calls)
	}
	return 0
}

// Counts returns the fragment count per kind
func (p *Profile) Counts() map[Kind]int {
	counts := make(map[Kind]int, len(Kinds))
	for _, k := range Kinds {
		counts[k] = p.Count(k)
	}
	return counts
}

// Total returns the number of fragments of every kind
func (p *Profile) Total() int {
	n := 0
	for _, k := range Kinds {
		n += p.Count(k)
	}
	return n
}

// Of returns the fragments of kind k in insertion order
func (p *Profile) Of(k Kind) []Fragment {
	var out []Fragment
	switch k {
	case KindPredicateExpression:
		for _, f := range p.Predicates {
			out = append(out, f)
		}
	case KindEnumerationDefinition:
		for _, f := range p.Enums {
			out = append(out, f)
		}
	case KindStructUnionDefinition:
		for _, f := range p.Structs {
			out = append(out, f)
		}
	case KindTypedefDefinition:
		for _, f := range p.Typedefs {
			out = append(out, f)
		}
	case KindVariableDeclaration:
		for _, f := range p.Variables {
			out = append(out, f)
		}
	case KindFunctionDefinition:
		for _, f := range p.Functions {
			out = append(out, f)
		}
	case KindFunctionCalling:
		for _, f := range p.Calls {
			out = append(out, f)
		}
	}
	return out
}

// All returns every fragment ordered by span start. Fragments starting at
// the same position keep kind order.
func (p *Profile) All() []Fragment {
	var out []Fragment
	for _, k := range Kinds {
		out = append(out, p.Of(k)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Location().Start.Before(out[j].Location().Start)
	})
	return out
}
