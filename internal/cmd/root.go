// Package cmd wires the dayflow CLI: a serve command for the HTTP
// service and a plan command for one-shot schedule generation.
package cmd

import (
	"os"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dayflow/dayflow/internal/config"
	"github.com/dayflow/dayflow/internal/observability"
)

var (
	cfgFile string
	verbose bool

	appConfig *config.Config

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dayflow",
	Short: "Conversational day planning service",
	Long: `dayflow turns a short description of your priorities into a
structured daily schedule using a language model.

Use the subcommands to perform specific operations.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Disable global telemetry early so config loading never emits
	// metrics to stdout. Serve mode initializes proper telemetry later.
	disabledConfig := &telemetry.Config{Enabled: false}
	if sys, err := telemetry.NewSystem(disabledConfig); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
}

// initConfig loads .env, initializes the CLI logger, and reads in
// config file and ENV variables if set.
func initConfig() {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	observability.InitCLILogger("dayflow", verbose)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Failed to load configuration", err)
	}
	appConfig = cfg

	if _, ok := os.LookupEnv("DAYFLOW_LOGGING_LEVEL"); !ok && verbose {
		appConfig.Logging.Level = "debug"
	}
}
