package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/buildinfo"
	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/logging"
)

// app carries what PersistentPreRunE resolves for every subcommand.
type app struct {
	configPath string
	envPath    string
	cfg        *config.Config
	logger     *log.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "tally",
		Short:   "Review bank statements into a personal ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", config.FileName, "path to the configuration file")
	pf.StringVar(&a.envPath, "env-file", ".env", "dotenv file loaded before configuration")
	pf.String("data-dir", "", "ledger data directory")
	pf.String("log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newInitCommand(),
		newServeCommand(a),
		newChannelCommand(a),
		newImportCommand(a),
		newAccountsCommand(a),
		newOperationsCommand(a),
		newReferencesCommand(a),
	)

	return rootCmd
}

// setup loads .env and the configuration file, then builds the logger.
// A missing file at the default locations is not an error.
func (a *app) setup(cmd *cobra.Command) error {
	if err := godotenv.Load(a.envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", a.envPath, err)
	}

	path := a.configPath
	if _, err := os.Stat(path); err != nil {
		if cmd.Flags().Changed("config") {
			return fmt.Errorf("reading config: %w", err)
		}
		path = ""
	}

	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(cmd.ErrOrStderr(), cfg.Log.Level, "tally")
	return nil
}
