package parser

import (
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/raymyers/ralph-ecc/pkg/fragment"
	"github.com/raymyers/ralph-ecc/pkg/lexer"
	"gopkg.in/yaml.v3"
)

// TestSpec represents a test case from fragments.yaml
type TestSpec struct {
	Name       string         `yaml:"name"`
	Input      string         `yaml:"input"`
	Rule       string         `yaml:"rule"`
	Errors     int            `yaml:"errors"`
	Predicates []string       `yaml:"predicates"`
	Enums      []string       `yaml:"enums"`
	Structs    []string       `yaml:"structs"`
	Typedefs   []TypedefSpec  `yaml:"typedefs"`
	Variables  []VariableSpec `yaml:"variables"`
	Functions  []FunctionSpec `yaml:"functions"`
	Calls      []CallSpec     `yaml:"calls"`
}

type TypedefSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type VariableSpec struct {
	Modifier string `yaml:"modifier"`
	Decl     string `yaml:"decl"`
}

type FunctionSpec struct {
	Modifier      string `yaml:"modifier"`
	Decl          string `yaml:"decl"`
	LeftBraceLine int    `yaml:"left_brace_line"`
}

type CallSpec struct {
	Name string `yaml:"name"`
	Args string `yaml:"args"`
}

// TestFile represents the fragments.yaml file structure
type TestFile struct {
	Tests []TestSpec `yaml:"tests"`
}

func TestParseYAML(t *testing.T) {
	data, err := os.ReadFile("../../testdata/fragments.yaml")
	if err != nil {
		t.Fatalf("failed to read fragments.yaml: %v", err)
	}

	var testFile TestFile
	if err := yaml.Unmarshal(data, &testFile); err != nil {
		t.Fatalf("failed to parse fragments.yaml: %v", err)
	}

	for _, tc := range testFile.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			prof := fragment.NewProfile(tc.Name)
			p := New(lexer.NewStream(tc.Input), prof)

			if tc.Rule != "" {
				r, ok := RuleByName(tc.Rule)
				if !ok {
					t.Fatalf("unknown rule %q", tc.Rule)
				}
				if err := p.Attempt(r); err != nil && tc.Errors == 0 {
					t.Fatalf("Attempt(%s): %v", r, err)
				}
			} else if err := p.ParseTranslationUnit(); err != nil && tc.Errors == 0 {
				t.Fatalf("ParseTranslationUnit: %v", err)
			}

			if got := len(p.Errors()); got != tc.Errors {
				t.Errorf("expected %d errors, got %d: %v", tc.Errors, got, p.Errors())
			}
			verifyProfile(t, prof, tc)
		})
	}
}

func verifyProfile(t *testing.T, prof *fragment.Profile, tc TestSpec) {
	t.Helper()

	var preds, enums, structs []string
	for _, f := range prof.Predicates {
		preds = append(preds, f.Text)
	}
	for _, f := range prof.Enums {
		enums = append(enums, f.Text)
	}
	for _, f := range prof.Structs {
		structs = append(structs, f.Text)
	}
	compareStrings(t, "predicates", preds, tc.Predicates)
	compareStrings(t, "enums", enums, tc.Enums)
	compareStrings(t, "structs", structs, tc.Structs)

	if len(prof.Typedefs) != len(tc.Typedefs) {
		t.Errorf("typedefs: expected %d, got %d: %+v", len(tc.Typedefs), len(prof.Typedefs), prof.Typedefs)
	} else {
		for i, want := range tc.Typedefs {
			got := prof.Typedefs[i]
			if got.FromText != want.From || got.ToText != want.To {
				t.Errorf("typedef %d: expected from=%q to=%q, got from=%q to=%q",
					i, want.From, want.To, got.FromText, got.ToText)
			}
		}
	}

	if len(prof.Variables) != len(tc.Variables) {
		t.Errorf("variables: expected %d, got %d: %+v", len(tc.Variables), len(prof.Variables), prof.Variables)
	} else {
		for i, want := range tc.Variables {
			got := prof.Variables[i]
			if got.ModifierText != want.Modifier || got.DeclText != want.Decl {
				t.Errorf("variable %d: expected modifier=%q decl=%q, got modifier=%q decl=%q",
					i, want.Modifier, want.Decl, got.ModifierText, got.DeclText)
			}
		}
	}

	if len(prof.Functions) != len(tc.Functions) {
		t.Errorf("functions: expected %d, got %d: %+v", len(tc.Functions), len(prof.Functions), prof.Functions)
	} else {
		for i, want := range tc.Functions {
			got := prof.Functions[i]
			if got.ModifierText != want.Modifier || got.DeclText != want.Decl {
				t.Errorf("function %d: expected modifier=%q decl=%q, got modifier=%q decl=%q",
					i, want.Modifier, want.Decl, got.ModifierText, got.DeclText)
			}
			if want.LeftBraceLine != 0 && got.LeftBraceLine != want.LeftBraceLine {
				t.Errorf("function %d: expected brace on line %d, got %d", i, want.LeftBraceLine, got.LeftBraceLine)
			}
		}
	}

	if len(prof.Calls) != len(tc.Calls) {
		t.Errorf("calls: expected %d, got %d: %+v", len(tc.Calls), len(prof.Calls), prof.Calls)
	} else {
		for i, want := range tc.Calls {
			got := prof.Calls[i]
			if got.Name != want.Name || got.Args != want.Args {
				t.Errorf("call %d: expected %s(%q), got %s(%q)", i, want.Name, want.Args, got.Name, got.Args)
			}
		}
	}
}

func compareStrings(t *testing.T, what string, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("%s: expected %d, got %d: %q", what, len(want), len(got), got)
		return
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s %d: expected %q, got %q", what, i, want[i], got[i])
		}
	}
}

func TestFunctionDefinitionPositions(t *testing.T) {
	input := "VOID\nEFIAPI\nFoo (\n  IN UINT8 A\n  )\n{\n  return;\n}\n"
	prof, err := ParseSource("foo.c", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prof.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(prof.Functions))
	}

	fn := prof.Functions[0]
	if fn.LeftBraceLine != 6 || fn.LeftBraceColumn != 0 {
		t.Errorf("brace at %d:%d, expected 6:0", fn.LeftBraceLine, fn.LeftBraceColumn)
	}
	if fn.DeclLine != 3 || fn.DeclColumn != 0 {
		t.Errorf("declarator at %d:%d, expected 3:0", fn.DeclLine, fn.DeclColumn)
	}
	if got := fn.Span.String(); got != "1:0-8:0" {
		t.Errorf("span %s, expected 1:0-8:0", got)
	}
}

func TestTypedefSpan(t *testing.T) {
	prof, err := ParseSource("t.h", "typedef UINT32 MY_INT;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prof.Typedefs) != 1 {
		t.Fatalf("expected 1 typedef, got %d", len(prof.Typedefs))
	}
	if got := prof.Typedefs[0].Span.String(); got != "1:0-1:21" {
		t.Errorf("span %s, expected 1:0-1:21", got)
	}
}

func TestSpeculateIsIdempotent(t *testing.T) {
	prof := fragment.NewProfile("x.c")
	ts := lexer.NewStream("UINT32 mCount;")
	p := New(ts, prof)

	first := p.Speculate(RuleDeclaration)
	second := p.Speculate(RuleDeclaration)
	if !first || !second {
		t.Fatalf("expected declaration to match twice, got %v, %v", first, second)
	}
	if ts.Index() != 0 {
		t.Errorf("speculation moved the cursor to %d", ts.Index())
	}
	if prof.Total() != 0 {
		t.Errorf("speculation emitted %d fragments", prof.Total())
	}

	stats := p.Stats()
	if stats.RuleCalls[RuleDeclaration] != 1 {
		t.Errorf("declaration body ran %d times, expected 1", stats.RuleCalls[RuleDeclaration])
	}
	if stats.MemoHits == 0 {
		t.Error("expected a memo hit on the second speculation")
	}
}

func TestSpeculateWithoutMemoization(t *testing.T) {
	p := New(lexer.NewStream("UINT32 mCount;"), fragment.NewProfile("x.c"), WithMemoization(false))

	p.Speculate(RuleDeclaration)
	p.Speculate(RuleDeclaration)

	stats := p.Stats()
	if stats.RuleCalls[RuleDeclaration] != 2 {
		t.Errorf("declaration body ran %d times, expected 2", stats.RuleCalls[RuleDeclaration])
	}
	if stats.MemoHits != 0 {
		t.Errorf("expected no memo hits, got %d", stats.MemoHits)
	}
}

func TestFailedSpeculationEmitsNothing(t *testing.T) {
	prof := fragment.NewProfile("x.c")
	ts := lexer.NewStream("if (Foo (1)) { Bar (); } )")
	p := New(ts, prof)

	// the statement matches but a declaration does not
	if p.Speculate(RuleDeclaration) {
		t.Fatal("if statement should not speculate as a declaration")
	}
	if !p.Speculate(RuleStatement) {
		t.Fatal("expected the if statement to match")
	}
	if prof.Total() != 0 || len(p.Errors()) != 0 {
		t.Errorf("speculation had effects: %d fragments, %d errors", prof.Total(), len(p.Errors()))
	}
	if ts.Index() != 0 {
		t.Errorf("speculation moved the cursor to %d", ts.Index())
	}
}

func TestMemoizationDoesNotChangeResults(t *testing.T) {
	input := `typedef struct {
  UINT32  Size;
} HDR;

EFI_STATUS
EFIAPI
Entry (
  IN EFI_HANDLE        ImageHandle,
  IN EFI_SYSTEM_TABLE  *SystemTable
  )
{
  UINTN  Index;

  for (Index = 0; Index < Count (mList); Index++) {
    if (IsReady (Index) && !Busy) {
      Run (Index, &mHdr);
    }
  }
  return EFI_SUCCESS;
}
`
	on, err := ParseSource("a.c", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	off, err := ParseSource("a.c", input, WithMemoization(false))
	if err != nil {
		t.Fatalf("unexpected error without memoization: %v", err)
	}
	if !reflect.DeepEqual(on, off) {
		t.Errorf("profiles differ:\nmemo:    %+v\nno memo: %+v", on, off)
	}
	if len(on.Calls) != 3 || len(on.Predicates) != 2 {
		t.Errorf("expected 3 calls and 2 predicates, got %d and %d", len(on.Calls), len(on.Predicates))
	}
}

func TestFragmentsInSourceOrder(t *testing.T) {
	input := `UINTN mX = Outer (Inner (1), Other ());

VOID
Work (
  VOID
  )
{
  if (A (B (C ()))) {
    D ();
  }
}
`
	prof, err := ParseSource("order.c", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var names []string
	for i, c := range prof.Calls {
		names = append(names, c.Name)
		if i > 0 && c.Span.Start.Before(prof.Calls[i-1].Span.Start) {
			t.Errorf("call %s starts before the previous call", c.Name)
		}
	}
	if got := strings.Join(names, " "); got != "Outer Inner Other A B C D" {
		t.Errorf("call order %q", got)
	}

	all := prof.All()
	for i := 1; i < len(all); i++ {
		if all[i].Location().Start.Before(all[i-1].Location().Start) {
			t.Errorf("fragment %d out of order: %v after %v", i, all[i].Location(), all[i-1].Location())
		}
	}
}

func TestSpansAndTextFollowSource(t *testing.T) {
	input := "VOID\nRun (\n  VOID\n  )\n{\n  while (Ready ()) {\n    Step (mState);\n  }\n}\n"
	prof, err := ParseSource("run.c", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prof.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(prof.Functions))
	}
	fn := prof.Functions[0].Span

	for _, f := range prof.All() {
		s := f.Location()
		if !s.Valid() {
			t.Errorf("%s has an invalid span %s", f.Kind(), s)
		}
		if s.Start.Before(fn.Start) || fn.End.Before(s.End) {
			t.Errorf("%s span %s is outside the function span %s", f.Kind(), s, fn)
		}
	}

	for _, c := range prof.Calls {
		if !strings.Contains(input, c.Name+" ("+c.Args+")") {
			t.Errorf("call text %s(%s) not found in source", c.Name, c.Args)
		}
	}
	if len(prof.Predicates) != 1 || prof.Predicates[0].Text != "Ready ()" {
		t.Errorf("unexpected predicates: %+v", prof.Predicates)
	}
}

func TestRecoveryContinuesAfterError(t *testing.T) {
	input := "VOID\nFoo (\n  VOID\n  )\n{\n  Bar (1));\n}\n\nUINT32 mCount;\n"
	var handled []*ParseError
	prof, err := ParseSource("bad.c", input, WithErrorHandler(func(e *ParseError) {
		handled = append(handled, e)
	}))

	var synErr *SyntaxError
	if !errors.As(err, &synErr) {
		t.Fatalf("expected *SyntaxError, got %v", err)
	}
	if !errors.Is(err, ErrSyntax) || errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("unexpected error classification: %v", err)
	}
	if synErr.Truncated {
		t.Error("recoverable error should not truncate the parse")
	}
	if len(synErr.Errors) != 1 || len(handled) != 1 {
		t.Fatalf("expected 1 error reported and handled, got %d and %d", len(synErr.Errors), len(handled))
	}

	e := synErr.Errors[0]
	if e.Rule != RuleExpressionStatement || e.Found.Literal != ")" || e.Pos.Line != 6 {
		t.Errorf("unexpected error %v", e)
	}

	if len(prof.Functions) != 1 || len(prof.Variables) != 1 || len(prof.Calls) != 1 {
		t.Errorf("expected function, variable and call after recovery, got %+v", prof)
	}
}

func TestMaxErrors(t *testing.T) {
	input := "VOID\nFoo (\n  VOID\n  )\n{\n  Bar (1));\n  Baz (2));\n}\nUINT32 mCount;\n"

	_, err := ParseSource("bad.c", input)
	var all *SyntaxError
	if !errors.As(err, &all) || len(all.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %v", err)
	}

	prof, err := ParseSource("bad.c", input, WithMaxErrors(1))
	var capped *SyntaxError
	if !errors.As(err, &capped) || len(capped.Errors) != 1 {
		t.Fatalf("expected 1 recorded error, got %v", err)
	}
	if len(prof.Variables) != 1 {
		t.Errorf("parsing should continue past the cap, got %d variables", len(prof.Variables))
	}
}

func TestFailureKinds(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		kind     FailureKind
		rule     Rule
		expected string
		found    string
	}{
		{
			name:     "empty struct body",
			input:    "struct S { };\n",
			kind:     EarlyExit,
			rule:     RuleStructDeclarationList,
			expected: "struct declaration",
			found:    "}",
		},
		{
			name:     "stray semicolon",
			input:    "UINT32 mA;\n;\nUINT32 mB;\n",
			kind:     NoViableAlt,
			rule:     RuleExternalDeclaration,
			expected: "declaration or function definition",
			found:    ";",
		},
		{
			name:     "stray paren",
			input:    "VOID\nFoo (\n  VOID\n  )\n{\n  Bar (1));\n}\n",
			kind:     Mismatch,
			rule:     RuleExpressionStatement,
			expected: ";",
			found:    ")",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSource("kind.c", tt.input)
			var synErr *SyntaxError
			if !errors.As(err, &synErr) {
				t.Fatalf("expected *SyntaxError, got %v", err)
			}
			if len(synErr.Errors) != 1 {
				t.Fatalf("expected 1 error, got %v", synErr.Errors)
			}
			e := synErr.Errors[0]
			if e.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", e.Kind, tt.kind)
			}
			if e.Rule != tt.rule || e.Expected != tt.expected || e.Found.Literal != tt.found {
				t.Errorf("unexpected error %v", e)
			}
		})
	}
}

func TestOneOrMoreEarlyExit(t *testing.T) {
	p := New(lexer.NewStream("}"), fragment.NewProfile("loop.c"))
	err := p.oneOrMore("thing", func() bool { return false }, func() error {
		t.Fatal("body should not run")
		return nil
	})
	f := asFailure(err)
	if f == nil || f.Kind != EarlyExit || f.Expected != "thing" {
		t.Errorf("expected an early exit failure, got %v", err)
	}
}

func TestRecoveryLeavesFollowToken(t *testing.T) {
	prof, err := ParseSource("empty.c", "struct S { };\nUINT32 mX;\n")
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("expected a syntax error, got %v", err)
	}
	if len(prof.Structs) != 1 || prof.Structs[0].Text != "struct S { }" {
		t.Errorf("expected the struct to close on its own brace, got %+v", prof.Structs)
	}
	if len(prof.Variables) != 1 || prof.Variables[0].DeclText != "mX" {
		t.Errorf("expected the next declaration to parse, got %+v", prof.Variables)
	}
}

func TestUnexpectedEOF(t *testing.T) {
	prof, err := ParseSource("eof.c", "VOID F (VOID) {\n  x = 1;\n")

	if !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
	var synErr *SyntaxError
	if !errors.As(err, &synErr) || !synErr.Truncated {
		t.Fatalf("expected a truncated *SyntaxError, got %v", err)
	}
	if len(synErr.Errors) != 1 || synErr.Errors[0].Found.Type != lexer.TokenEOF {
		t.Errorf("expected one error at EOF, got %v", synErr.Errors)
	}
	if len(prof.Functions) != 0 {
		t.Errorf("an unterminated function should not be reported")
	}
}

func TestAttemptStatement(t *testing.T) {
	input := "if (PcdGetBool (PcdFoo)) {\n  DoThing ();\n}\n"
	prof := fragment.NewProfile("stmt.c")
	p := New(lexer.NewStream(input), prof)

	if err := p.Attempt(RuleStatement); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prof.Predicates) != 1 || prof.Predicates[0].Text != "PcdGetBool (PcdFoo)" {
		t.Errorf("unexpected predicates: %+v", prof.Predicates)
	}
	if got := prof.Predicates[0].Span.String(); got != "1:4-1:22" {
		t.Errorf("predicate span %s, expected 1:4-1:22", got)
	}
	if len(prof.Calls) != 2 {
		t.Fatalf("expected 2 calls, got %+v", prof.Calls)
	}
	if c := prof.Calls[0]; c.Name != "PcdGetBool" || c.Args != "PcdFoo" {
		t.Errorf("unexpected first call %+v", c)
	}
	if c := prof.Calls[1]; c.Name != "DoThing" || c.Args != "" {
		t.Errorf("unexpected second call %+v", c)
	}
}

func TestAttemptUnknownRule(t *testing.T) {
	p := New(lexer.NewStream("x;"), fragment.NewProfile("x.c"))
	if err := p.Attempt(Rule(-1)); !errors.Is(err, ErrUnknownRule) {
		t.Errorf("expected ErrUnknownRule, got %v", err)
	}
	if p.Speculate(numRules) {
		t.Error("speculating an unknown rule should fail")
	}
}

func TestRuleByName(t *testing.T) {
	for r := RuleTranslationUnit; r < numRules; r++ {
		got, ok := RuleByName(r.String())
		if !ok || got != r {
			t.Errorf("RuleByName(%q) = %v, %v", r.String(), got, ok)
		}
	}
	if _, ok := RuleByName("no_such_rule"); ok {
		t.Error("expected lookup of an unknown name to fail")
	}
	if Rule(-1).String() != "unknown_rule" {
		t.Errorf("unexpected name for an invalid rule: %q", Rule(-1).String())
	}
}
