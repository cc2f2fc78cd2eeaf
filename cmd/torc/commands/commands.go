package commands

import (
	"context"
	"io"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/torc-dev/torc/internal/conventions"
	"github.com/torc-dev/torc/internal/log"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"

	// CollaboratorsFake wires in-memory collaborators (demos and dry runs).
	CollaboratorsFake = "fake"
	// CollaboratorsLocal wires git workspaces, Docker verification servers,
	// file reports and hook commands.
	CollaboratorsLocal = "local"

	// OutputTable prints human tables.
	OutputTable = "table"
	// OutputJSON prints JSON.
	OutputJSON = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug         bool
	NoLog         bool
	NoColor       bool
	LoggerType    string
	DBPath        string
	DataDir       string
	Collaborators string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	defaultDataDir := filepath.Join(homedir.HomeDir(), conventions.DefaultDataDir)
	app.Flag("data-dir", "Directory for torc data (hooks, reports).").Envar("TORC_DATA_DIR").Default(defaultDataDir).StringVar(&c.DataDir)
	app.Flag("db-path", "Path to the SQLite database file.").Envar("TORC_DB_PATH").Default(conventions.DBPath(defaultDataDir)).StringVar(&c.DBPath)
	app.Flag("collaborators", "Collaborator wiring (local, fake).").Envar("TORC_COLLABORATORS").Default(CollaboratorsLocal).EnumVar(&c.Collaborators, CollaboratorsLocal, CollaboratorsFake)

	return c
}
