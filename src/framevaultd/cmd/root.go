package cmd

import (
	"log/slog"
	"os"

	"github.com/frame-vault/framevault/src/pkg/logging"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "framevaultd",
	Short: "A bounded-capacity media store serving normalized images over HTTP",
}

func Execute() {
	slog.SetDefault(logging.CreateLogger(logging.LevelFromEnv()))
	err := rootCmd.Execute()
	if err != nil {
		slog.Error("failed to execute command", "error", err)
		os.Exit(1)
	}
}

func init() {}
