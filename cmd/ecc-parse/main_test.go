package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/raymyers/ralph-ecc/pkg/fragment"
	"github.com/raymyers/ralph-ecc/pkg/store"
)

func resetFlags() {
	dFragments = false
	dTokens = false
	configPath = ""
	dbPath = ""
	outputFormat = "text"
	colorMode = "never"
	workers = 0
	includeGlobs = nil
	excludeGlobs = nil
	noMemo = false
	maxErrors = 0
	verbose = false
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(normalizeFlags(args))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	if version == "" {
		t.Error("version should not be empty")
	}
}

func TestFlagsExist(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)

	expectedFlags := []string{"dfragments", "dtokens", "config", "db", "format", "color",
		"workers", "include", "exclude", "no-memo", "max-errors", "verbose"}
	for _, flagName := range expectedFlags {
		if cmd.Flags().Lookup(flagName) == nil {
			t.Errorf("expected flag --%s to exist", flagName)
		}
	}
}

func TestNoArgsShowsHelp(t *testing.T) {
	resetFlags()
	out, _, err := execute(t)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "ecc-parse") {
		t.Errorf("expected help output, got %q", out)
	}
}

func TestDFragmentsFlag(t *testing.T) {
	resetFlags()
	file := writeFile(t, t.TempDir(), "t.h", "typedef UINT32 MY_INT;\n")

	out, errOut, err := execute(t, "-dfragments", file)
	if err != nil {
		t.Fatalf("expected no error, got %v (%s)", err, errOut)
	}
	if !strings.Contains(out, "# "+file) {
		t.Errorf("expected a file header, got %q", out)
	}
	if !strings.Contains(out, `1:0-1:21 typedef from="UINT32" to="MY_INT"`) {
		t.Errorf("expected typedef line, got %q", out)
	}
}

func TestDFragmentsYAML(t *testing.T) {
	resetFlags()
	file := writeFile(t, t.TempDir(), "c.c", "UINTN mX = Get (1);\n")

	out, _, err := execute(t, "--dfragments", "--format", "yaml", file)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, want := range []string{"file: " + file, "calls:", "name: Get", "variables:", "modifier: UINTN"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestUnknownFormat(t *testing.T) {
	resetFlags()
	file := writeFile(t, t.TempDir(), "c.c", "UINTN x;\n")

	_, errOut, err := execute(t, "--format", "json", file)
	if err == nil {
		t.Fatal("expected an error for an unknown format")
	}
	if !strings.Contains(errOut, "unknown format") {
		t.Errorf("expected message about the format, got %q", errOut)
	}
}

func TestParseErrorsFail(t *testing.T) {
	resetFlags()
	file := writeFile(t, t.TempDir(), "a.c", "VOID\nFoo (\n  VOID\n  )\n{\n  Bar (1));\n}\n")

	_, errOut, err := execute(t, file)
	if !errors.Is(err, ErrParseFailed) {
		t.Fatalf("expected ErrParseFailed, got %v", err)
	}
	if !strings.Contains(errOut, file+":6:9:") {
		t.Errorf("expected diagnostic location, got %q", errOut)
	}
	if !strings.Contains(errOut, "expression_statement") {
		t.Errorf("expected rule name in diagnostic, got %q", errOut)
	}
	if !strings.Contains(errOut, "1 of 1 file(s) had errors") {
		t.Errorf("expected summary, got %q", errOut)
	}
}

func TestTruncatedInputReported(t *testing.T) {
	resetFlags()
	file := writeFile(t, t.TempDir(), "eof.c", "VOID F (VOID) {\n  x = 1;\n")

	_, errOut, err := execute(t, file)
	if !errors.Is(err, ErrParseFailed) {
		t.Fatalf("expected ErrParseFailed, got %v", err)
	}
	if !strings.Contains(errOut, "found end of input") || !strings.Contains(errOut, "parsing stopped") {
		t.Errorf("expected end of input diagnostic, got %q", errOut)
	}
}

func TestFileNotFound(t *testing.T) {
	resetFlags()
	_, _, err := execute(t, filepath.Join(t.TempDir(), "missing.c"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
}

func TestDirectoryArgument(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	writeFile(t, dir, "Library/A.c", "UINTN mA;\n")
	writeFile(t, dir, "Library/UnitTest/B.c", "UINTN mB;\n")
	writeFile(t, dir, "Include/C.h", "typedef UINT8 C;\n")
	writeFile(t, dir, "Package.dec", "[Defines]\n")

	out, _, err := execute(t, "-dfragments", "--exclude", "**/UnitTest/**", "-j", "2", dir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "A.c") || !strings.Contains(out, "C.h") {
		t.Errorf("expected A.c and C.h in output, got %q", out)
	}
	if strings.Contains(out, "B.c") || strings.Contains(out, "Package.dec") {
		t.Errorf("excluded files were parsed: %q", out)
	}
	// sorted: Include/C.h before Library/A.c
	if strings.Index(out, "C.h") > strings.Index(out, "A.c") {
		t.Errorf("files out of order: %q", out)
	}
}

func TestDBFlag(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	file := writeFile(t, dir, "a.c", "typedef UINT32 MY_INT;\nUINTN mX = Get (1);\n")
	dbFile := filepath.Join(dir, "fragments.db")

	if _, errOut, err := execute(t, "--db", dbFile, file); err != nil {
		t.Fatalf("expected no error, got %v (%s)", err, errOut)
	}

	s, err := store.Open(dbFile)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer s.Close()

	prof, err := s.Load(file)
	if err != nil {
		t.Fatalf("failed to load profile: %v", err)
	}
	if len(prof.Typedefs) != 1 || len(prof.Variables) != 1 || len(prof.Calls) != 1 {
		t.Errorf("unexpected stored profile: %+v", prof)
	}
}

func TestConfigFile(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	writeFile(t, dir, "src/A.c", "UINTN mA;\n")
	writeFile(t, dir, "src/B.h", "UINTN mB;\n")
	cfgFile := writeFile(t, dir, "ecc.yaml", "include: [\"**/*.h\"]\ndatabase: "+filepath.Join(dir, "cfg.db")+"\n")

	if _, errOut, err := execute(t, "--config", cfgFile, filepath.Join(dir, "src")); err != nil {
		t.Fatalf("expected no error, got %v (%s)", err, errOut)
	}

	s, err := store.Open(filepath.Join(dir, "cfg.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer s.Close()

	files, err := s.Files()
	if err != nil {
		t.Fatalf("failed to list files: %v", err)
	}
	if len(files) != 1 || !strings.HasSuffix(files[0].Path, "B.h") {
		t.Errorf("expected only B.h to be stored, got %+v", files)
	}
	counts, err := s.Counts()
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if counts[fragment.KindVariableDeclaration] != 1 {
		t.Errorf("expected 1 variable, got %d", counts[fragment.KindVariableDeclaration])
	}
}

func TestBadConfigFile(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	file := writeFile(t, dir, "a.c", "UINTN x;\n")
	cfgFile := writeFile(t, dir, "ecc.yaml", "workers: -3\n")

	_, errOut, err := execute(t, "--config", cfgFile, file)
	if err == nil {
		t.Fatal("expected an error for a bad config")
	}
	if !strings.Contains(errOut, "workers") {
		t.Errorf("expected message about workers, got %q", errOut)
	}
}

func TestDTokensFlag(t *testing.T) {
	resetFlags()
	file := writeFile(t, t.TempDir(), "t.c", "UINTN x;")

	out, _, err := execute(t, "-dtokens", file)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, want := range []string{`1:0 IDENTIFIER "UINTN"`, `1:6 IDENTIFIER "x"`, `1:7 ; ";"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestDiagnosticsColor(t *testing.T) {
	var buf bytes.Buffer
	colorMode = "always"
	if !colorEnabled(&buf) {
		t.Error("--color always should enable color")
	}
	colorMode = "never"
	if colorEnabled(&buf) {
		t.Error("--color never should disable color")
	}
	colorMode = "auto"
	if colorEnabled(&buf) {
		t.Error("a buffer is not a terminal")
	}
	resetFlags()
}

func TestNormalizeFlags(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "single-dash dfragments",
			input:    []string{"-dfragments", "test.c"},
			expected: []string{"--dfragments", "test.c"},
		},
		{
			name:     "single-dash dtokens",
			input:    []string{"-dtokens", "test.c"},
			expected: []string{"--dtokens", "test.c"},
		},
		{
			name:     "double-dash unchanged",
			input:    []string{"--dfragments", "test.c"},
			expected: []string{"--dfragments", "test.c"},
		},
		{
			name:     "other flags unchanged",
			input:    []string{"-v", "-j", "4", "test.c"},
			expected: []string{"-v", "-j", "4", "test.c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := normalizeFlags(tt.input)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("normalizeFlags(%v) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}
