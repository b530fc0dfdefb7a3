package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"adhoc-index/internal/indexer"
	"adhoc-index/internal/logging"
	"adhoc-index/internal/startup"
)

// flagKeys maps persistent flag names to their configuration keys.
var flagKeys = map[string]string{
	"root":          startup.KeyRoot,
	"database-dir":  startup.KeyDatabaseDir,
	"max-depth":     startup.KeyMaxDepth,
	"refresh-delay": startup.KeyRefreshDelay,
	"workers":       startup.KeyWorkers,
	"skip-hidden":   startup.KeySkipHidden,
	"sniff":         startup.KeySniff,
}

// app carries state shared by every command of one invocation.
type app struct {
	v        *viper.Viper
	envFile  string
	logLevel string
	debug    bool

	cfg *startup.Config
}

// NewRootCommand builds the command tree. Each call returns an independent
// tree with its own configuration.
func NewRootCommand() *cobra.Command {
	a := &app{v: startup.NewViper()}

	cmd := &cobra.Command{
		Use:   "adhoc-index",
		Short: "Index a project tree by content type and rank favorite files",
		Long: `adhoc-index groups the files of a project directory by content type and
keeps a ranked list of the files used most often.

Settings and favorites are stored per project in a SQLite database.
Configuration comes from flags, ADHOC_* environment variables, a .env file
and an optional adhoc-index.yaml.`,
		Version:           startup.Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.prepare,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Watch {
				return a.watch(cmd, 0)
			}
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("root", ".", "project directory")
	flags.String("database-dir", "", "directory holding the preference database")
	flags.Int("max-depth", indexer.DefaultMaxDepth, "depth limit for tree walks")
	flags.Duration("refresh-delay", indexer.DefaultRefreshDelay, "debounce delay before a refresh runs")
	flags.Int("workers", 0, "refresh worker pool size (0 picks a default)")
	flags.Bool("skip-hidden", true, "ignore dot files and folders")
	flags.Bool("sniff", true, "detect content type from file contents when the extension is unknown")
	flags.StringVar(&a.envFile, "env-file", startup.EnvFile, "environment file to load")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&a.debug, "debug", false, "shorthand for --log-level=debug")

	for name, key := range flagKeys {
		if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}

	cmd.AddCommand(
		newTypesCommand(a),
		newFilesCommand(a),
		newFavoritesCommand(a),
		newWatchCommand(a),
		newRegisterCommand(a),
		newInfoCommand(a),
		newSettingsCommand(a),
		newRenameCommand(a),
	)
	return cmd
}

// prepare loads the environment file and resolves configuration before any
// subcommand runs.
func (a *app) prepare(cmd *cobra.Command, _ []string) error {
	if err := startup.LoadEnvFile(a.envFile); err != nil {
		return err
	}

	switch {
	case a.debug:
		logging.SetLevel(logging.LevelDebug)
	case a.logLevel != "":
		logging.SetLevel(logging.ParseLevel(a.logLevel))
	}

	cfg, err := startup.LoadConfig(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	logging.Debug("Running %s with root %s", cmd.CommandPath(), cfg.Root)
	return nil
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
