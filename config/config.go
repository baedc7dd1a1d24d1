// Package config loads the TOML configuration file that tunes the VM,
// compiler, and debugger without touching command-line flags every run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration document.
type Config struct {
	VM struct {
		StackCapacity  int    `toml:"stack_capacity"`
		TraceExecution bool   `toml:"trace_execution"`
		TraceFile      string `toml:"trace_file"`
	} `toml:"vm"`

	Compiler struct {
		DebugPrintCode bool `toml:"debug_print_code"`
	} `toml:"compiler"`

	Debugger struct {
		HistorySize int  `toml:"history_size"`
		ShowSource  bool `toml:"show_source"`
	} `toml:"debugger"`
}

// DefaultConfig returns a configuration with the reference defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.VM.StackCapacity = 256
	cfg.VM.TraceExecution = false
	cfg.VM.TraceFile = ""

	cfg.Compiler.DebugPrintCode = false

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.ShowSource = true

	return cfg
}

// GetConfigPath returns the platform-specific default config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "loxvm")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "loxvm.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "loxvm")

	default:
		return "loxvm.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "loxvm.toml"
	}

	return filepath.Join(configDir, "loxvm.toml")
}

// Load loads configuration from the default config file, falling back
// to defaults if it doesn't exist.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from path, falling back to defaults if
// the file doesn't exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveTo writes the configuration to path in TOML form.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
