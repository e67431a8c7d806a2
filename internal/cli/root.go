// Package cli provides the command-line interface for oppdesk.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	logger  *slog.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "oppdesk",
	Short: "Conversational presales opportunity assistant",
	Long: `Oppdesk is a chat assistant for presales teams. It tracks sales
opportunities in a flat file, answers pipeline questions with read-only
SQL, draws charts from pipeline data, and sets up proposal folders from
templates.

The assistant talks to an OpenAI-compatible model endpoint; set
OPENAI_API_KEY (and optionally OPENAI_BASE_URL) or configure them in
oppdesk.yaml.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logLevel := slog.LevelInfo
		if verbose {
			logLevel = slog.LevelDebug
		}

		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./oppdesk.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("oppdesk")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		logger.Debug("using config file", "path", viper.ConfigFileUsed())
	}
}
