// Root command for the xmigrate CLI.
package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/besa-qa/xmigrate/internal/paths"
	"github.com/besa-qa/xmigrate/pkg/types"
	"github.com/besa-qa/xmigrate/pkg/xmigrate"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir   string
	flagDataDir     string
	flagTargetIndex string
	flagJSON        bool
	flagVerbose     bool
)

// appConfig holds the component settings loaded from config.yaml,
// overridable per-run by flags.
var appConfig types.Config

// configDataDir and configTargetIndex hold values loaded from
// config.yaml. Set by PersistentPreRunE so all subcommands can use them.
var (
	configDataDir     string
	configTargetIndex string
)

// logger is the process-wide structured logger, replaced by
// PersistentPreRunE once flags are known.
var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:     "xmigrate",
	Short:   "Reconcile and export test-management backups between tracker instances",
	Version: xmigrate.Version,
	Long: `xmigrate loads an exported test-management backup, matches its records
against what already exists on a target tracker instance, and produces
an idempotent export plan: ready-to-upload payloads, the attachments
still missing on the target, and per-record dataset CSV files.`,
	// Do not print usage on errors returned by subcommands.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		configDataDir = cfg.GetString(cfgKeyDataDir)
		configTargetIndex = cfg.GetString(cfgKeyTargetIndex)
		appConfig = types.Config{
			BackupDir:         cfg.GetString(cfgKeyBackupDir),
			AttachmentsDir:    cfg.GetString(cfgKeyAttachmentsDir),
			OutputDir:         cfg.GetString(cfgKeyOutputDir),
			ProjectKeyPattern: cfg.GetString(cfgKeyProjectKeyPattern),
		}

		logger, err = newLogger(flagVerbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "session data directory (default: $(CWD)/.xmigrate-db)")
	rootCmd.PersistentFlags().StringVar(&flagTargetIndex, "target-index", "", "target index snapshot file (default: <backup_dir>/target_index.json)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(datasetsCmd)
}

// resolveConfigDir returns the configuration directory following the
// precedence flag > XMIGRATE_CONFIG_DIR env > platform default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}

// resolveDataDir returns the data directory following the precedence
// flag > config.yaml data_dir > XMIGRATE_DATA_DIR env > default.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, configDataDir)
}

// newLogger builds the CLI logger. Console output on stderr; debug
// level only with --verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}
