package configs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_NoFiles(t *testing.T) {
	config, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), config)
}

func TestLoad_SingleFile(t *testing.T) {
	config, err := Load([]string{"testdata/project.cue"})
	require.NoError(t, err)
	assert.Equal(t, "x86_64-linux-gnu-as", config.Assembler)
	assert.Equal(t, []string{"--64"}, config.AssemblerArgs)
	assert.Equal(t, "ld", config.Linker)
	assert.Equal(t, "random", config.Labels)
	assert.Equal(t, "debug", config.LogLevel)
	assert.False(t, config.Journal)
}

func TestLoad_EarlierFileWins(t *testing.T) {
	config, err := Load([]string{"testdata/project.cue", "testdata/user.cue"})
	require.NoError(t, err)
	assert.Equal(t, "x86_64-linux-gnu-as", config.Assembler)
	assert.Equal(t, "ld.gold", config.Linker)
	assert.Equal(t, "build", config.OutputDir)
	assert.True(t, config.Journal)

	config, err = Load([]string{"testdata/user.cue", "testdata/project.cue"})
	require.NoError(t, err)
	assert.Equal(t, "as", config.Assembler)
	assert.Equal(t, []string{"--64"}, config.AssemblerArgs)
}

func TestLoad_Invalid(t *testing.T) {
	for _, path := range []string{
		"testdata/bad_field.cue",
		"testdata/bad_labels.cue",
		"testdata/bad_syntax.cue",
	} {
		_, err := Load([]string{path})
		require.Error(t, err, path)
		assert.True(t, errors.Is(err, ErrInvalidConfig), path)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load([]string{"testdata/missing.cue"})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", dir)

	assert.Empty(t, withoutSystemFiles(Locate("")), "no config in a fresh directory")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "goal.cue"), []byte(`labels: "random"`), 0666))
	explicit := filepath.Join(dir, "extra.cue")
	require.NoError(t, os.WriteFile(explicit, []byte(`labels: "counter"`), 0666))

	found := withoutSystemFiles(Locate(explicit))
	require.Len(t, found, 2)
	assert.Equal(t, explicit, found[0])
	assert.Equal(t, filepath.Join(dir, "goal.cue"), found[1])

	config, err := Load(found)
	require.NoError(t, err)
	assert.Equal(t, "counter", config.Labels)
}

// withoutSystemFiles drops files under /etc, which the test doesn't control.
func withoutSystemFiles(paths []string) []string {
	return lo.Filter(paths, func(path string, _ int) bool {
		return !strings.HasPrefix(path, "/etc/")
	})
}
