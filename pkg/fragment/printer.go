package fragment

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Printer outputs profiles in a human-readable format
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new fragment printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProfile prints every fragment of p, one per line, in source order
func (p *Printer) PrintProfile(prof *Profile) {
	fmt.Fprintf(p.w, "# %s\n", prof.FileName)
	for _, f := range prof.All() {
		p.printFragment(f)
	}
}

func (p *Printer) printFragment(f Fragment) {
	fmt.Fprintf(p.w, "%s %s", f.Location(), f.Kind())
	switch v := f.(type) {
	case PredicateExpression:
		fmt.Fprintf(p.w, " %q", v.Text)
	case EnumerationDefinition:
		fmt.Fprintf(p.w, " %q", v.Text)
	case StructUnionDefinition:
		fmt.Fprintf(p.w, " %q", v.Text)
	case TypedefDefinition:
		fmt.Fprintf(p.w, " from=%q to=%q", v.FromText, v.ToText)
	case VariableDeclaration:
		fmt.Fprintf(p.w, " modifier=%q decl=%q", v.ModifierText, v.DeclText)
	case FunctionDefinition:
		fmt.Fprintf(p.w, " modifier=%q decl=%q decl_at=%d:%d brace_at=%d:%d",
			v.ModifierText, v.DeclText, v.DeclLine, v.DeclColumn, v.LeftBraceLine, v.LeftBraceColumn)
	case FunctionCalling:
		fmt.Fprintf(p.w, " name=%q args=%q", v.Name, v.Args)
	}
	fmt.Fprintln(p.w)
}

// PrintYAML writes the profiles as a YAML document stream
func (p *Printer) PrintYAML(profiles ...*Profile) error {
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	for _, prof := range profiles {
		if err := enc.Encode(prof); err != nil {
			return fmt.Errorf("encoding %s: %w", prof.FileName, err)
		}
	}
	return enc.Close()
}
