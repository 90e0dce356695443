package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/screenlink/screenlink/internal/config"
)

func TestConfigPathResolution(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "screenlink-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	t.Run("finds config in current directory", func(t *testing.T) {
		viper.Reset()
		config.SetConfigPath("")

		oldWd, _ := os.Getwd()
		os.Chdir(tmpDir)
		defer os.Chdir(oldWd)

		validConfig := `[server]
port = 52525
bind_address = "0.0.0.0"
name = "test-server"
`
		if err := os.WriteFile("screenlink.toml", []byte(validConfig), 0644); err != nil {
			t.Fatal(err)
		}

		if err := config.Init(); err != nil {
			t.Errorf("config.Init failed: %v", err)
		}
	})

	t.Run("handles malformed TOML gracefully", func(t *testing.T) {
		viper.Reset()
		config.SetConfigPath("")

		configDir := filepath.Join(tmpDir, ".config", "screenlink")
		os.MkdirAll(configDir, 0755)

		invalidConfig := `[server
port = 52525
`
		configPath := filepath.Join(configDir, "screenlink.toml")
		if err := os.WriteFile(configPath, []byte(invalidConfig), 0644); err != nil {
			t.Fatal(err)
		}

		originalHome := os.Getenv("HOME")
		os.Setenv("HOME", tmpDir)
		defer os.Setenv("HOME", originalHome)

		if err := config.Init(); err == nil {
			t.Error("expected error for malformed TOML, got nil")
		}
	})
}

func TestEnsureServerConfig(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "screenlink-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", originalHome)

	viper.Reset()
	config.SetConfigPath("")
	if err := config.Init(); err != nil {
		t.Fatal(err)
	}

	if err := ensureServerConfig(); err != nil {
		t.Fatalf("ensureServerConfig failed: %v", err)
	}

	if _, err := os.Stat(config.GetConfigPath()); os.IsNotExist(err) {
		t.Error("expected config file to be created")
	}
}
