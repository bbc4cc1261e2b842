package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Rana718/synthdb/internal/config"
	"github.com/Rana718/synthdb/internal/errors"
	"github.com/Rana718/synthdb/internal/logger"
)

var (
	cfgFile string
	Version = "0.3.0"

	// configErr holds a config file that exists but could not be read; it
	// is reported by the first command that needs the configuration.
	configErr error
)

var rootCmd = &cobra.Command{
	Use:   "synthdb",
	Short: "Generate referentially intact synthetic data for relational schemas",
	Long: `
synthdb reads a relational schema, from a live PostgreSQL database or a
snapshot file, and generates a synthetic dataset that honours it:

- Parents are generated before children, deferred references are patched
- Primary keys, UNIQUE constraints, NOT NULL, lengths, precision and CHECK
  value lists always hold
- Related columns (names, usernames, emails, company domains) agree within
  a row and across foreign keys

The dataset is written as a SQL script, JSON, CSV, a SQLite file, or applied
to a database in one transaction.`,
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logJSON, _ := cmd.Flags().GetBool("log-json")
		return logger.Initialize(verbose, logJSON)
	},

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("synthdb version %s\n", Version)
			return
		}
		cmd.Help()
	},
}

// Execute runs the command line and reports a failure with its kind and
// hints. The returned error decides the exit status.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	logger.Sync()
	return err
}

func printError(err error) {
	kind := errors.Kind(err)
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "❌ %s: ", kind)
	fmt.Fprintln(os.Stderr, err)
	for _, hint := range errors.GetAllHints(err) {
		color.New(color.FgYellow).Fprintf(os.Stderr, "💡 %s\n", hint)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./"+config.FileName+")")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log debug diagnostics")
	rootCmd.PersistentFlags().Bool("log-json", false, "Log as JSON")

	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env.local")
	}

	config.SetDefaults(viper.GetViper())
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(strings.TrimSuffix(config.FileName, ".yaml"))
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			configErr = errors.WithStack(&errors.ConfigError{Field: "config", Reason: err.Error()})
			return
		}
	}
	logger.Logger.Debugw("configuration loaded", "file", viper.ConfigFileUsed())
}
