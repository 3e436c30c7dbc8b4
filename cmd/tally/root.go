// Root command for the tally CLI: load the input, write the backup, then
// hand the table to the interactive menu.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/internal/archive"
	"github.com/mesh-intelligence/tally/internal/config"
	"github.com/mesh-intelligence/tally/internal/paths"
	"github.com/mesh-intelligence/tally/internal/session"
	"github.com/mesh-intelligence/tally/internal/tally"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	input     string
	backup    string
	marker    string
	logLevel  string
	logFormat string
	archive   bool
}

// app is the state shared by the commands of one execution.
type app struct {
	flags  rootFlags
	cfg    config.Config
	logger *slog.Logger

	// now is the clock used to timestamp archived runs.
	now func() time.Time
}

// newRootCmd creates the top-level "tally" command with global flags and
// all subcommands registered.
func newRootCmd() *cobra.Command {
	a := &app{
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}

	root := &cobra.Command{
		Use:   "tally",
		Short: "Count inventory items and browse the counts interactively",
		Long: `tally reads item names from an input file, counts how often each item
appears, writes the counts to a backup file, and opens a menu to look up
one item, list every count, or draw the counts as a histogram.`,
		Version:           version,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.runTally,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/tally)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "archive data directory (default: $XDG_DATA_HOME/tally)")
	pf.StringVar(&a.flags.logLevel, "log-level", config.DefaultLogLevel, "log level: debug, info, warn or error")
	pf.StringVar(&a.flags.logFormat, "log-format", config.DefaultLogFormat, "log format: text or json")

	f := root.Flags()
	f.StringVarP(&a.flags.input, "input", "i", config.DefaultInputFile, "input file of whitespace-separated item names")
	f.StringVarP(&a.flags.backup, "backup", "b", config.DefaultBackupFile, "backup file for the item counts")
	f.StringVar(&a.flags.marker, "marker", config.DefaultMarker, "histogram bar character")
	f.BoolVar(&a.flags.archive, "archive", false, "record this run in the archive database")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newHistoryCmd(a))

	return root
}

// setup resolves and validates configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if skipsSetup(cmd) {
		return nil
	}

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return &exitError{code: exitSysError, err: fmt.Errorf("resolve config dir: %w", err)}
	}

	cfg, err := loadConfig(cmd, configDir)
	if err != nil {
		return &exitError{code: exitUserError, err: fmt.Errorf("load config: %w", err)}
	}
	if err := cfg.Validate(); err != nil {
		return &exitError{code: exitUserError, err: fmt.Errorf("invalid config: %w", err)}
	}

	a.cfg = cfg
	a.logger = newLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	a.logger.Debug("configuration loaded", "config_dir", configDir, "input", cfg.InputFile, "backup", cfg.BackupFile)
	return nil
}

// skipsSetup reports whether cmd runs without loading config.yaml, so that it
// still works when the file is broken. Subcommands of a skipping command
// (completion bash, completion zsh) skip too.
func skipsSetup(cmd *cobra.Command) bool {
	for c := cmd; c != nil && c.HasParent(); c = c.Parent() {
		switch c.Name() {
		case "version", "init", "help", "completion",
			cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return true
		}
	}
	return false
}

// runTally loads the table, snapshots it, optionally archives it, and runs
// the interactive session. Only an unreadable input aborts; backup and
// archive failures are logged and the session starts anyway.
func (a *app) runTally(cmd *cobra.Command, args []string) error {
	t, err := tally.LoadFile(a.cfg.InputFile)
	if err != nil {
		return &exitError{code: exitSysError, err: err}
	}
	a.logger.Info("input loaded", "path", a.cfg.InputFile, "distinct", t.Len(), "total", t.Total())

	if err := t.SaveSnapshot(a.cfg.BackupFile); err != nil {
		a.logger.Error("continuing without a fresh backup", "error", err)
	} else {
		a.logger.Info("backup written", "path", a.cfg.BackupFile)
	}

	if a.cfg.Archive {
		a.archiveRun(t)
	}

	s := session.New(t, cmd.InOrStdin(), cmd.OutOrStdout(),
		session.WithMarker(a.cfg.Marker),
		session.WithLogger(a.logger),
	)
	if err := s.Run(); err != nil {
		return &exitError{code: exitSysError, err: fmt.Errorf("interactive session: %w", err)}
	}
	return nil
}

// archiveRun records t in the archive database. Failures are logged only.
func (a *app) archiveRun(t *tally.Table) {
	dataDir, err := a.resolveDataDir()
	if err != nil {
		a.logger.Error("run not archived", "error", err)
		return
	}

	arc, err := archive.Open(dataDir)
	if err != nil {
		a.logger.Error("run not archived", "data_dir", dataDir, "error", err)
		return
	}
	defer arc.Close()

	source := a.cfg.InputFile
	if abs, err := filepath.Abs(source); err == nil {
		source = abs
	}

	run, err := arc.Record(source, t, a.now())
	if err != nil {
		a.logger.Error("run not archived", "db", arc.Path(), "error", err)
		return
	}
	a.logger.Info("run archived", "run_id", run.ID, "db", arc.Path())
}

// resolveDataDir returns the archive directory following the precedence
// --data-dir flag > config.yaml data_dir > TALLY_DATA_DIR env > default.
func (a *app) resolveDataDir() (string, error) {
	dir, err := paths.ResolveDataDir(a.flags.dataDir, a.cfg.DataDir)
	if err != nil {
		return "", fmt.Errorf("resolve data dir: %w", err)
	}
	return dir, nil
}

// isInputUnavailable reports whether err means the input file could not be read.
func isInputUnavailable(err error) bool {
	return errors.Is(err, tally.ErrInputUnavailable)
}
