package repository_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donphi/gatehouse/loader"
	"github.com/donphi/gatehouse/repository"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDetectProjectPython(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pyproject.toml"), "[project]\nname = \"billing\"\n")
	writeFile(t, filepath.Join(root, "src", "app.py"), "x = 1\n")

	project, err := repository.New().DetectProject(filepath.Join(root, "src", "app.py"))
	require.NoError(t, err)

	assert.Equal(t, root, project.RootPath)
	assert.Equal(t, "python", project.Type)
	assert.Equal(t, "billing", project.Name)
	assert.Equal(t, "src/app.py", project.RelativePath)
	assert.Empty(t, project.ConfigPath, "no gate configuration present")
}

func TestDetectProjectGateConfigWins(t *testing.T) {
	root := t.TempDir()
	// An enclosing python project with a configured sub-project inside.
	writeFile(t, filepath.Join(root, "pyproject.toml"), "[project]\nname = \"outer\"\n")
	sub := filepath.Join(root, "service")
	writeFile(t, filepath.Join(sub, loader.ProjectConfigFile), "schema: default\n")
	writeFile(t, filepath.Join(sub, "worker.py"), "x = 1\n")

	project, err := repository.New().DetectProject(filepath.Join(sub, "worker.py"))
	require.NoError(t, err)

	assert.Equal(t, sub, project.RootPath)
	assert.Equal(t, "gate", project.Type)
	assert.Equal(t, filepath.Join(sub, loader.ProjectConfigFile), project.ConfigPath)
}

func TestDetectProjectGoModule(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/billing\n\ngo 1.23\n")
	writeFile(t, filepath.Join(root, "tool.py"), "x = 1\n")

	project, err := repository.New().DetectProject(filepath.Join(root, "tool.py"))
	require.NoError(t, err)

	assert.Equal(t, "go", project.Type)
	assert.Equal(t, "example.com/billing", project.Name)
}

func TestDetectProjectNoMarkers(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lone.py"), "x = 1\n")

	project, err := repository.New().DetectProject(filepath.Join(root, "lone.py"), root)
	require.NoError(t, err)
	assert.Equal(t, root, project.RootPath, "baseURL is the fallback root")
}

func TestGateHomeResolution(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pyproject.toml"), "[project]\nname = \"x\"\n")
	writeFile(t, filepath.Join(root, "app.py"), "x = 1\n")

	t.Run("default under root", func(t *testing.T) {
		t.Setenv(repository.EnvGateHome, "")
		os.Unsetenv(repository.EnvGateHome)

		project, err := repository.New().DetectProject(filepath.Join(root, "app.py"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, repository.DefaultGateHomeDir), project.GateHome)
	})

	t.Run("environment override", func(t *testing.T) {
		t.Setenv(repository.EnvGateHome, "/opt/gatehouse")

		project, err := repository.New().DetectProject(filepath.Join(root, "app.py"))
		require.NoError(t, err)
		assert.Equal(t, "/opt/gatehouse", project.GateHome)
	})
}
