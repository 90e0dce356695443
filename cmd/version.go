package cmd

import (
	"github.com/spf13/cobra"

	"github.com/screenlink/screenlink/internal/logger"
)

var (
	// Commit and Date are set by the build.
	Commit string
	Date   string
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		logger.Infof("screenlink %s", Version)
		logger.Infof("commit: %s", Commit)
		logger.Infof("built: %s", Date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
