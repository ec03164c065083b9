package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	configPath string
	dbPath     string
)

var rootCmd = &cobra.Command{
	Use:   "memobloom",
	Short: "Memory journal for people living with memory loss",
	Long: "MemoBloom keeps a journal of photos, voice recordings and notes for a patient,\n" +
		"shared with their family and laid out as a month-by-month timeline.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(memoryCmd)
	rootCmd.AddCommand(timelineCmd)
}
