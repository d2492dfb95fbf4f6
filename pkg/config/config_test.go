package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, []string{"**/*.c", "**/*.h"}, cfg.Include)
	assert.Empty(t, cfg.Exclude)
	assert.True(t, cfg.Memoize)
	assert.Equal(t, runtime.NumCPU(), cfg.WorkerCount())
	require.NoError(t, cfg.Validate())
}

func TestParse_KeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("workers: 4\nexclude:\n  - \"**/Test/**\"\n"))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.WorkerCount())
	assert.Equal(t, []string{"**/Test/**"}, cfg.Exclude)
	assert.Equal(t, Default().Include, cfg.Include)
	assert.True(t, cfg.Memoize)
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := Parse([]byte(`
include: ["**/*.c"]
database: fragments.db
memoize: false
max_errors: 10
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"**/*.c"}, cfg.Include)
	assert.Equal(t, "fragments.db", cfg.Database)
	assert.False(t, cfg.Memoize)
	assert.Equal(t, 10, cfg.MaxErrors)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "include: [unterminated"},
		{"bad glob", "include: [\"[a-\"]"},
		{"negative workers", "workers: -1"},
		{"negative max errors", "max_errors: -2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: out.db\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "out.db", cfg.Database)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSelects(t *testing.T) {
	cfg := Default()
	cfg.Exclude = []string{"**/UnitTest/**"}

	assert.True(t, cfg.Selects("MdePkg/Library/BaseLib/String.c"))
	assert.True(t, cfg.Selects("Foo.h"))
	assert.False(t, cfg.Selects("MdePkg/MdePkg.dec"))
	assert.False(t, cfg.Selects("MdePkg/Test/UnitTest/Library/Foo.c"))
}
