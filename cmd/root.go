package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/labinot-bajgora/ECK-safety/internal/config"
	"github.com/labinot-bajgora/ECK-safety/internal/store"
)

// cfg is loaded before every command runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "safetyhub",
	Short: "Employee safety training kiosk",
	Long: `SafetyHub runs the employee safety training in the terminal: an access
code opens the course intro, video and quiz, and a passing learner gets a
completion id. The admin console and the sub-commands manage companies,
seats, courses and results.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		c, err := config.Load(envFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLearn(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SAFETYHUB_DB env var)")
	rootCmd.PersistentFlags().String("env-file", "", "Path to a .env file (default .env when present)")
	addLearnFlags(rootCmd)

	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(companyCmd)
	rootCmd.AddCommand(courseCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then SAFETYHUB_DB (env or .env file), then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}
