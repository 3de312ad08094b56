package configpaths_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/protobind/internal/configpaths"
)

func TestConfigCandidatePathsRoutesUserPath(t *testing.T) {
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths("custom.yml")
	require.NotEmpty(t, yamlPaths)
	assert.Equal(t, "custom.yml", yamlPaths[0])
	assert.NotContains(t, jsonPaths, "custom.yml")
	assert.NotContains(t, tomlPaths, "custom.yml")

	jsonPaths, _, tomlPaths = configpaths.ConfigCandidatePaths("custom.toml")
	assert.Equal(t, "custom.toml", tomlPaths[0])
	assert.NotContains(t, jsonPaths, "custom.toml")

	jsonPaths, _, _ = configpaths.ConfigCandidatePaths("custom.conf")
	assert.Equal(t, "custom.conf", jsonPaths[0])
}

func TestConfigCandidatePathsIncludesWorkingDir(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths("")
	assert.Contains(t, jsonPaths, filepath.Join(wd, "protobind.json"))
	assert.Contains(t, yamlPaths, filepath.Join(wd, ".protobind.yaml"))
	assert.Contains(t, tomlPaths, filepath.Join(wd, "protobind.toml"))
}

func TestDefaultConfigDirHonoursXDG(t *testing.T) {
	if os.Getenv("AppData") != "" {
		t.Skip("windows layout")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err := configpaths.DefaultConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "protobind"), dir)
}

func TestProjectRootFindsGoMod(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/api\n"), 0o644))
	deep := filepath.Join(root, "internal", "api")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	got, err := configpaths.ProjectRoot(deep)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestProjectRootFallsBackToStart(t *testing.T) {
	dir := t.TempDir()
	got, err := configpaths.ProjectRoot(dir)
	require.NoError(t, err)
	// A go.mod above the temp dir would be found first; only assert the
	// result is an ancestor-or-self of dir.
	rel, err := filepath.Rel(got, dir)
	require.NoError(t, err)
	assert.False(t, filepath.IsAbs(rel))
	assert.NotContains(t, rel, "..")
}

func TestEnsureDir(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "a", "b", "check.yaml")
	require.NoError(t, configpaths.EnsureDir(dest))
	info, err := os.Stat(filepath.Dir(dest))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
