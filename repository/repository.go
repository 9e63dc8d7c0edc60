// Package repository locates the project a source file belongs to: its
// root directory, its configuration file, and the gate home holding the
// rule and schema records that govern it.
package repository

// Project describes a detected project.
type Project struct {
	RootPath     string // Absolute path to the project root directory
	Type         string // Type of project (python, go, javascript, git, ...)
	Name         string // Name of the project (extracted from config files)
	RelativePath string // Path from project root to the detected file
	ConfigPath   string // Path to the project gate configuration, "" if absent
	GateHome     string // Directory holding rule and schema records
}
