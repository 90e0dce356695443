package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/screenlink/screenlink/internal/config"
)

var (
	// Version is set during build.
	Version = "0.1.0-dev"

	rootCmd = &cobra.Command{
		Use:   "screenlink",
		Short: "screenlink - multi-screen input redirection",
		Long: `screenlink shares keyboard, mouse, and clipboard across multiple
screens over the network. One machine runs the server and owns the
primary screen; remote screens connect over SSH and receive input
whenever the cursor crosses into their configured edge.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}

	cfgFile string
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default searches /etc/screenlink and ~/.config/screenlink)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		config.SetConfigPath(cfgFile)
	}
	if err := config.Init(); err != nil {
		return err
	}
	viper.BindPFlags(cmd.Flags())
	return nil
}