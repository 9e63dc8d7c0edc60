package repository

import (
	"context"
	"os"
	"path/filepath"
	"regexp"

	"github.com/viant/afs"
	"golang.org/x/mod/modfile"

	"github.com/donphi/gatehouse/loader"
)

// EnvGateHome overrides the per-project gate home directory.
const EnvGateHome = "GATE_HOME"

// DefaultGateHomeDir is the gate home directory name under a project root.
const DefaultGateHomeDir = ".gatehouse"

// Detector identifies project root folders and gate configuration.
type Detector struct {
	// Common project root marker files/directories, checked in order. The
	// gate configuration file outranks language markers so a configured
	// sub-project wins over an enclosing repository.
	markers []string
}

// New creates a new project detector instance.
func New() *Detector {
	return &Detector{
		markers: []string{
			loader.ProjectConfigFile, // configured gate projects
			"pyproject.toml",         // Python projects
			"requirements.txt",       // Python projects
			"setup.py",               // Python projects
			"go.mod",                 // Go projects
			"package.json",           // JavaScript/Node projects
			".git",                   // Generic VCS marker
		},
	}
}

// DetectProject identifies the project root for the given file path. The
// optional baseURL is used as the root when no marker is found.
func (d *Detector) DetectProject(filePath string, baseURL ...string) (*Project, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, err
	}

	startDir := absPath
	if info, err := os.Stat(absPath); err == nil && !info.IsDir() {
		startDir = filepath.Dir(absPath)
	}

	rootPath, projectType := d.findProjectRoot(startDir)

	project := &Project{
		Type:     "unknown",
		RootPath: startDir,
	}
	if rootPath == "" && len(baseURL) > 0 && baseURL[0] != "" {
		project.RootPath = baseURL[0]
	} else if rootPath != "" {
		project.RootPath = rootPath
		project.Type = projectType
	}

	relPath, err := filepath.Rel(project.RootPath, absPath)
	if err != nil {
		relPath = filepath.Base(absPath)
	}
	project.RelativePath = filepath.ToSlash(relPath)

	if projectType != "" {
		project.Name = d.extractProjectName(rootPath, projectType)
	}

	configPath := filepath.Join(project.RootPath, loader.ProjectConfigFile)
	if _, err := os.Stat(configPath); err == nil {
		project.ConfigPath = configPath
	}
	project.GateHome = gateHome(project.RootPath)

	return project, nil
}

// gateHome resolves the gate home for a project root: the GATE_HOME
// environment variable when set, otherwise <root>/.gatehouse.
func gateHome(rootPath string) string {
	if home := os.Getenv(EnvGateHome); home != "" {
		return home
	}
	return filepath.Join(rootPath, DefaultGateHomeDir)
}

// findProjectRoot searches up from the current directory for project markers.
func (d *Detector) findProjectRoot(startDir string) (string, string) {
	dir := startDir
	for {
		for _, marker := range d.markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, determineProjectType(marker)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", ""
}

// extractProjectName attempts to extract a project name from configuration
// files, falling back to the root directory name.
func (d *Detector) extractProjectName(rootPath, projectType string) string {
	switch projectType {
	case "python", "gate":
		if name := extractPyProjectName(filepath.Join(rootPath, "pyproject.toml")); name != "" {
			return name
		}
		if name := extractSetupName(filepath.Join(rootPath, "setup.py")); name != "" {
			return name
		}
	case "go":
		if name := extractGoModuleName(filepath.Join(rootPath, "go.mod")); name != "" {
			return name
		}
	case "javascript":
		if name := extractJSPackageName(filepath.Join(rootPath, "package.json")); name != "" {
			return name
		}
	}
	return filepath.Base(rootPath)
}

var (
	pyNameRegex    = regexp.MustCompile(`(?m)^name\s*=\s*["']([^"']+)["']`)
	setupNameRegex = regexp.MustCompile(`name\s*=\s*["']([^"']+)["']`)
	jsNameRegex    = regexp.MustCompile(`"name"\s*:\s*"([^"]+)"`)
)

func extractPyProjectName(pyprojectPath string) string {
	data, err := os.ReadFile(pyprojectPath)
	if err != nil {
		return ""
	}
	if matches := pyNameRegex.FindSubmatch(data); len(matches) >= 2 {
		return string(matches[1])
	}
	return ""
}

func extractSetupName(setupPath string) string {
	data, err := os.ReadFile(setupPath)
	if err != nil {
		return ""
	}
	if matches := setupNameRegex.FindSubmatch(data); len(matches) >= 2 {
		return string(matches[1])
	}
	return ""
}

func extractGoModuleName(goModPath string) string {
	fs := afs.New()
	content, err := fs.DownloadWithURL(context.Background(), goModPath)
	if err != nil || len(content) == 0 {
		return ""
	}
	mod, err := modfile.Parse(goModPath, content, nil)
	if err != nil || mod.Module == nil {
		return ""
	}
	return mod.Module.Mod.Path
}

func extractJSPackageName(packageJSONPath string) string {
	data, err := os.ReadFile(packageJSONPath)
	if err != nil {
		return ""
	}
	if matches := jsNameRegex.FindSubmatch(data); len(matches) >= 2 {
		return string(matches[1])
	}
	return ""
}

// determineProjectType identifies the type of project based on the marker file.
func determineProjectType(marker string) string {
	switch marker {
	case loader.ProjectConfigFile:
		return "gate"
	case "pyproject.toml", "requirements.txt", "setup.py":
		return "python"
	case "go.mod":
		return "go"
	case "package.json":
		return "javascript"
	case ".git":
		return "git"
	default:
		return "unknown"
	}
}
