// Package config handles configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Topology  []EdgeMapping    `mapstructure:"topology"`
	Clipboard ClipboardConfig  `mapstructure:"clipboard"`
	Commands  []CommandBinding `mapstructure:"commands"`
	Logging   LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig contains listener and transport settings.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	BindAddress string `mapstructure:"bind_address"`
	Name        string `mapstructure:"name"` // primary screen name

	BindTimeoutSeconds int `mapstructure:"bind_timeout_seconds"`
	ZoneSize           int `mapstructure:"zone_size"`

	// PrimaryWidth/PrimaryHeight describe the primary screen's own
	// virtual extent, reported by the local driver out of scope of
	// this repo; until that backend is wired in, these config values
	// seed the primary's registry record.
	PrimaryWidth  int `mapstructure:"primary_width"`
	PrimaryHeight int `mapstructure:"primary_height"`

	SSHHostKeyPath              string   `mapstructure:"ssh_host_key_path"`
	SSHAuthKeysPath             string   `mapstructure:"ssh_authorized_keys_path"`
	SSHWhitelist                []string `mapstructure:"ssh_whitelist"`
	SSHWhitelistOnly            bool     `mapstructure:"ssh_whitelist_only"`
	SSHInteractiveApproval      bool     `mapstructure:"ssh_interactive_approval"`
	MaxClients                  int      `mapstructure:"max_clients"`
	HTTPPort                    int      `mapstructure:"http_port"`
	HTTPMaxSimultaneousRequests int      `mapstructure:"http_max_simultaneous_requests"`
}

// ClipboardConfig selects which clipboard ids are mirrored and the
// compression threshold above which payloads are s2-compressed.
type ClipboardConfig struct {
	Mirror               []string `mapstructure:"mirror"`
	CompressAboveBytes   int      `mapstructure:"compress_above_bytes"`
}

// EdgeMapping defines which screen edge connects to which neighbor.
type EdgeMapping struct {
	Screen      string `mapstructure:"screen"`      // screen name (the primary's is server.name)
	Edge        string `mapstructure:"edge"`        // left, right, top, bottom
	Target      string `mapstructure:"target"`      // neighboring screen name
	Description string `mapstructure:"description"`
}

// CommandBinding maps a hotkey to a command-key action (e.g. switch to a named screen).
type CommandBinding struct {
	Modifier string `mapstructure:"modifier"`
	Key      string `mapstructure:"key"`
	Action   string `mapstructure:"action"` // e.g. "switch:office"
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	FileLogging bool   `mapstructure:"file_logging"`
	LogLevel    string `mapstructure:"log_level"`
}

var (
	// DefaultConfig provides sensible defaults.
	DefaultConfig = Config{
		Server: ServerConfig{
			Port:                         52525,
			BindAddress:                  "0.0.0.0",
			Name:                         getHostname(),
			BindTimeoutSeconds:           30,
			ZoneSize:                     5,
			PrimaryWidth:                 1920,
			PrimaryHeight:                1080,
			SSHHostKeyPath:               "/etc/screenlink/host_key",
			SSHAuthKeysPath:              "/etc/screenlink/authorized_keys",
			SSHWhitelist:                 []string{},
			SSHWhitelistOnly:             true,
			SSHInteractiveApproval:       true,
			MaxClients:                   8,
			HTTPPort:                     52526,
			HTTPMaxSimultaneousRequests:  16,
		},
		Topology: []EdgeMapping{},
		Clipboard: ClipboardConfig{
			Mirror:             []string{"selection", "clipboard"},
			CompressAboveBytes: 4096,
		},
		Commands: []CommandBinding{},
		Logging: LoggingConfig{
			FileLogging: true,
			LogLevel:    "",
		},
	}

	cfg *Config

	configPathOverride string
)

// SetConfigPath overrides the config file location.
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system.
func Init() error {
	viper.SetConfigName("screenlink")
	viper.SetConfigType("toml")

	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		viper.AddConfigPath("/etc/screenlink")

		if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
			viper.AddConfigPath(fmt.Sprintf("/home/%s/.config/screenlink", sudoUser))
		} else if home := os.Getenv("HOME"); home != "" && home != "/root" {
			viper.AddConfigPath(filepath.Join(home, ".config", "screenlink"))
		}

		viper.AddConfigPath(".")
	}

	viper.SetDefault("server.port", DefaultConfig.Server.Port)
	viper.SetDefault("server.bind_address", DefaultConfig.Server.BindAddress)
	viper.SetDefault("server.name", DefaultConfig.Server.Name)
	viper.SetDefault("server.bind_timeout_seconds", DefaultConfig.Server.BindTimeoutSeconds)
	viper.SetDefault("server.zone_size", DefaultConfig.Server.ZoneSize)
	viper.SetDefault("server.primary_width", DefaultConfig.Server.PrimaryWidth)
	viper.SetDefault("server.primary_height", DefaultConfig.Server.PrimaryHeight)
	viper.SetDefault("server.ssh_host_key_path", DefaultConfig.Server.SSHHostKeyPath)
	viper.SetDefault("server.ssh_authorized_keys_path", DefaultConfig.Server.SSHAuthKeysPath)
	viper.SetDefault("server.ssh_whitelist", DefaultConfig.Server.SSHWhitelist)
	viper.SetDefault("server.ssh_whitelist_only", DefaultConfig.Server.SSHWhitelistOnly)
	viper.SetDefault("server.ssh_interactive_approval", DefaultConfig.Server.SSHInteractiveApproval)
	viper.SetDefault("server.max_clients", DefaultConfig.Server.MaxClients)
	viper.SetDefault("server.http_port", DefaultConfig.Server.HTTPPort)
	viper.SetDefault("server.http_max_simultaneous_requests", DefaultConfig.Server.HTTPMaxSimultaneousRequests)

	viper.SetDefault("topology", DefaultConfig.Topology)
	viper.SetDefault("clipboard.mirror", DefaultConfig.Clipboard.Mirror)
	viper.SetDefault("clipboard.compress_above_bytes", DefaultConfig.Clipboard.CompressAboveBytes)
	viper.SetDefault("commands", DefaultConfig.Commands)

	viper.SetDefault("logging.file_logging", DefaultConfig.Logging.FileLogging)
	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	return nil
}

// Get returns the current configuration.
func Get() *Config {
	if cfg == nil {
		return &DefaultConfig
	}
	return cfg
}

// Set overrides the current configuration (for testing).
func Set(c *Config) {
	cfg = c
}

// Save writes the current configuration to file.
func Save() error {
	configPath := GetConfigPath()

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		if os.IsPermission(err) && strings.Contains(configPath, "/etc/") {
			return fmt.Errorf("failed to create config directory %s: permission denied, try running with sudo", dir)
		}
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}

	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	if os.Getuid() == 0 || os.Getenv("SUDO_USER") != "" {
		return "/etc/screenlink/screenlink.toml"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/screenlink/screenlink.toml"
	}

	return filepath.Join(home, ".config", "screenlink", "screenlink.toml")
}

// AddSSHKeyToWhitelist adds an SSH key fingerprint to the whitelist.
func AddSSHKeyToWhitelist(fingerprint string) error {
	c := Get()

	for _, fp := range c.Server.SSHWhitelist {
		if fp == fingerprint {
			return fmt.Errorf("key already whitelisted")
		}
	}

	c.Server.SSHWhitelist = append(c.Server.SSHWhitelist, fingerprint)
	viper.Set("server.ssh_whitelist", c.Server.SSHWhitelist)
	return Save()
}

// RemoveSSHKeyFromWhitelist removes an SSH key fingerprint from the whitelist.
func RemoveSSHKeyFromWhitelist(fingerprint string) error {
	c := Get()

	for i, fp := range c.Server.SSHWhitelist {
		if fp == fingerprint {
			c.Server.SSHWhitelist = append(c.Server.SSHWhitelist[:i], c.Server.SSHWhitelist[i+1:]...)
			viper.Set("server.ssh_whitelist", c.Server.SSHWhitelist)
			return Save()
		}
	}

	return fmt.Errorf("key not found in whitelist")
}

// UpdateServer replaces the server section of the configuration and
// persists it.
func UpdateServer(s ServerConfig) error {
	c := Get()
	c.Server = s
	viper.Set("server", s)
	return Save()
}

// IsSSHKeyWhitelisted reports whether an SSH key fingerprint is whitelisted.
func IsSSHKeyWhitelisted(fingerprint string) bool {
	c := Get()

	for _, fp := range c.Server.SSHWhitelist {
		if fp == fingerprint {
			return true
		}
	}

	return false
}

// AddEdge adds or replaces a topology edge mapping.
func AddEdge(m EdgeMapping) error {
	c := Get()

	for i, e := range c.Topology {
		if e.Screen == m.Screen && e.Edge == m.Edge {
			c.Topology[i] = m
			viper.Set("topology", c.Topology)
			return Save()
		}
	}

	c.Topology = append(c.Topology, m)
	viper.Set("topology", c.Topology)
	return Save()
}

// RemoveEdge removes a topology edge mapping.
func RemoveEdge(screen, edge string) error {
	c := Get()

	for i, e := range c.Topology {
		if e.Screen == screen && e.Edge == edge {
			c.Topology = append(c.Topology[:i], c.Topology[i+1:]...)
			viper.Set("topology", c.Topology)
			return Save()
		}
	}

	return fmt.Errorf("no edge %s/%s configured", screen, edge)
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "screenlink-server"
	}
	return hostname
}
