package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default torc data directory name (relative to home).
	DefaultDataDir = ".torc"
	// DBFile is the SQLite database filename.
	DBFile = "torc.db"
	// HooksDir is the subdirectory holding operator command hooks.
	HooksDir = "hooks"
	// ReportsDir is the subdirectory work performers drop their report files in.
	ReportsDir = "reports"

	// BranchPrefix is the git branch namespace for task workspaces.
	BranchPrefix = "torc/"
)

// DBPath returns the full path of the SQLite database.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, DBFile)
}

// HooksPath returns the directory operator command hooks live in.
func HooksPath(dataDir string) string {
	return filepath.Join(dataDir, HooksDir)
}

// ReportsPath returns the directory work performer reports live in.
func ReportsPath(dataDir string) string {
	return filepath.Join(dataDir, ReportsDir)
}
