package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/screenlink/screenlink/internal/config"
	"github.com/screenlink/screenlink/internal/logger"
	"github.com/screenlink/screenlink/internal/topology"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage screenlink configuration",
	Long:  `Manage screenlink configuration: server settings, screen topology, clipboard mirroring, and command-key bindings.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		logger.Info("Current Configuration:")
		logger.Infof("Config file: %s\n", config.GetConfigPath())

		logger.Info("[Server]")
		logger.Infof("  Name: %s (primary)", cfg.Server.Name)
		logger.Infof("  Port: %d", cfg.Server.Port)
		logger.Infof("  Bind Address: %s", cfg.Server.BindAddress)
		logger.Infof("  Primary Extent: %dx%d", cfg.Server.PrimaryWidth, cfg.Server.PrimaryHeight)
		logger.Infof("  Zone Size: %d px", cfg.Server.ZoneSize)
		logger.Infof("  Max Clients: %d", cfg.Server.MaxClients)
		logger.Infof("  HTTP Status Port: %d", cfg.Server.HTTPPort)
		logger.Infof("  SSH Host Key: %s", cfg.Server.SSHHostKeyPath)
		logger.Infof("  SSH Authorized Keys: %s", cfg.Server.SSHAuthKeysPath)
		logger.Infof("  SSH Whitelist Only: %v", cfg.Server.SSHWhitelistOnly)
		if len(cfg.Server.SSHWhitelist) > 0 {
			logger.Info("  SSH Whitelist:")
			for _, fp := range cfg.Server.SSHWhitelist {
				logger.Infof("    - %s", fp)
			}
		}

		if len(cfg.Topology) > 0 {
			logger.Info("\n[Topology]")
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			if _, err := fmt.Fprintln(w, "  Screen\tEdge\tTarget"); err != nil {
				logger.Errorf("Failed to write header: %v", err)
			}
			for _, m := range cfg.Topology {
				if _, err := fmt.Fprintf(w, "  %s\t%s\t%s\n", m.Screen, m.Edge, m.Target); err != nil {
					logger.Errorf("Failed to write edge: %v", err)
				}
			}
			if err := w.Flush(); err != nil {
				logger.Errorf("Failed to flush writer: %v", err)
			}
		}

		logger.Info("\n[Clipboard]")
		logger.Infof("  Mirror: %v", cfg.Clipboard.Mirror)
		logger.Infof("  Compress Above: %d bytes", cfg.Clipboard.CompressAboveBytes)

		if len(cfg.Commands) > 0 {
			logger.Info("\n[Commands]")
			for _, c := range cfg.Commands {
				logger.Infof("  %s+%s -> %s", c.Modifier, c.Key, c.Action)
			}
		}

		return nil
	},
}

var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save current configuration to file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Save(); err != nil {
			return err
		}
		logger.Infof("Configuration saved to: %s", config.GetConfigPath())
		return nil
	},
}

var configTopologyCmd = &cobra.Command{
	Use:   "topology",
	Short: "Manage screen edge mappings",
}

var configTopologyAddCmd = &cobra.Command{
	Use:   "add <screen> <edge> <target>",
	Short: "Add or replace an edge mapping",
	Long:  `Configure which screen an edge connects to. Edge can be: left, right, top, bottom`,
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		screen, edge, target := args[0], args[1], args[2]

		if _, err := topology.ParseDirection(edge); err != nil {
			return err
		}

		m := config.EdgeMapping{Screen: screen, Edge: edge, Target: target}
		if err := config.AddEdge(m); err != nil {
			return err
		}

		logger.Infof("Configured %s/%s -> %s", screen, edge, target)
		return nil
	},
}

var configTopologyRemoveCmd = &cobra.Command{
	Use:   "remove <screen> <edge>",
	Short: "Remove an edge mapping",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		screen, edge := args[0], args[1]

		if err := config.RemoveEdge(screen, edge); err != nil {
			return err
		}

		logger.Infof("Removed edge %s/%s", screen, edge)
		return nil
	},
}

var configTopologyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured edge mappings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		if len(cfg.Topology) == 0 {
			logger.Info("No edges configured")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "Screen\tEdge\tTarget"); err != nil {
			logger.Errorf("Failed to write header: %v", err)
		}
		for _, m := range cfg.Topology {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", m.Screen, m.Edge, m.Target); err != nil {
				logger.Errorf("Failed to write edge: %v", err)
			}
		}

		return w.Flush()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file with defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Check if config already exists
		configPath := config.GetConfigPath()
		if _, err := os.Stat(configPath); err == nil {
			logger.Infof("Configuration file already exists at: %s", configPath)
			logger.Info("Use --force to overwrite")

			force, _ := cmd.Flags().GetBool("force")
			if !force {
				return nil
			}
		}

		// Save default configuration
		if err := config.Save(); err != nil {
			return err
		}

		logger.Infof("Configuration initialized at: %s", configPath)
		logger.Info("\nYou can now:")
		logger.Info("  - Edit the configuration file directly")
		logger.Info("  - Use 'screenlink config topology add' to wire up screens")
		logger.Info("  - Use 'screenlink config show' to view current settings")

		return nil
	},
}

var configSSHCmd = &cobra.Command{
	Use:   "ssh",
	Short: "Manage SSH whitelist",
}

var configSSHListCmd = &cobra.Command{
	Use:   "list",
	Short: "List whitelisted SSH keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		if len(cfg.Server.SSHWhitelist) == 0 {
			logger.Info("No SSH keys in whitelist")
			if cfg.Server.SSHWhitelistOnly {
				logger.Info("\nWhitelist-only mode is ENABLED")
				logger.Info("New connections will require approval")
			} else {
				logger.Info("\nWhitelist-only mode is DISABLED")
				logger.Info("All SSH keys are accepted")
			}
			return nil
		}

		logger.Info("Whitelisted SSH Keys:")
		for i, fp := range cfg.Server.SSHWhitelist {
			logger.Infof("%d. %s", i+1, fp)
		}

		if cfg.Server.SSHWhitelistOnly {
			logger.Info("\nWhitelist-only mode is ENABLED")
		} else {
			logger.Info("\nWhitelist-only mode is DISABLED")
		}

		return nil
	},
}

var configSSHRemoveCmd = &cobra.Command{
	Use:   "remove <fingerprint>",
	Short: "Remove SSH key from whitelist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fingerprint := args[0]

		if err := config.RemoveSSHKeyFromWhitelist(fingerprint); err != nil {
			return err
		}

		logger.Infof("Removed SSH key from whitelist: %s", fingerprint)
		return nil
	},
}

var configSSHClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all SSH keys from whitelist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		count := len(cfg.Server.SSHWhitelist)

		if count == 0 {
			logger.Info("Whitelist is already empty")
			return nil
		}

		// Clear whitelist
		cfg.Server.SSHWhitelist = []string{}
		if err := config.UpdateServer(cfg.Server); err != nil {
			return err
		}

		logger.Infof("Cleared %d SSH key(s) from whitelist", count)
		return nil
	},
}

func init() {
	// Add subcommands
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSaveCmd)
	configCmd.AddCommand(configTopologyCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSSHCmd)

	// Add topology subcommands
	configTopologyCmd.AddCommand(configTopologyAddCmd)
	configTopologyCmd.AddCommand(configTopologyRemoveCmd)
	configTopologyCmd.AddCommand(configTopologyListCmd)

	// Add SSH subcommands
	configSSHCmd.AddCommand(configSSHListCmd)
	configSSHCmd.AddCommand(configSSHRemoveCmd)
	configSSHCmd.AddCommand(configSSHClearCmd)

	// Add flags
	configInitCmd.Flags().Bool("force", false, "Force overwrite existing configuration")
}
