package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// IntegrationTestSpec represents a single integration test case
type IntegrationTestSpec struct {
	Name        string   `yaml:"name"`
	Input       string   `yaml:"input"`
	Fail        bool     `yaml:"fail"`         // The run should exit with parse errors
	Expect      []string `yaml:"expect"`       // Strings that must appear in output
	ExpectOrder []string `yaml:"expect_order"` // Strings that must appear in this order
	Reject      []string `yaml:"reject"`       // Strings that must not appear
	Skip        string   `yaml:"skip,omitempty"`
}

// IntegrationTestFile represents the integration.yaml file structure
type IntegrationTestFile struct {
	Tests []IntegrationTestSpec `yaml:"tests"`
}

func TestIntegrationYAML(t *testing.T) {
	data, err := os.ReadFile("../../testdata/integration.yaml")
	if err != nil {
		t.Fatalf("failed to read integration.yaml: %v", err)
	}

	var testFile IntegrationTestFile
	if err := yaml.Unmarshal(data, &testFile); err != nil {
		t.Fatalf("failed to parse integration.yaml: %v", err)
	}

	for _, tc := range testFile.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			if tc.Skip != "" {
				t.Skip(tc.Skip)
			}
			resetFlags()

			file := filepath.Join(t.TempDir(), "input.c")
			if err := os.WriteFile(file, []byte(tc.Input), 0o644); err != nil {
				t.Fatalf("failed to write input: %v", err)
			}

			out, errOut, err := execute(t, "-dfragments", "--color", "never", file)
			if tc.Fail {
				if !errors.Is(err, ErrParseFailed) {
					t.Fatalf("expected ErrParseFailed, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v\n%s", err, errOut)
			}

			combined := out + errOut
			for _, want := range tc.Expect {
				if !strings.Contains(combined, want) {
					t.Errorf("expected output to contain %q, got:\n%s", want, combined)
				}
			}
			for _, reject := range tc.Reject {
				if strings.Contains(combined, reject) {
					t.Errorf("expected output not to contain %q, got:\n%s", reject, combined)
				}
			}

			pos := 0
			for _, want := range tc.ExpectOrder {
				idx := strings.Index(combined[pos:], want)
				if idx < 0 {
					t.Errorf("expected %q after offset %d, got:\n%s", want, pos, combined)
					break
				}
				pos += idx + len(want)
			}
		})
	}
}
