// Package config loads BURST's TOML configuration file: a nested Config
// struct with sane defaults that a missing or partial file never breaks.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds the tunables for the VM, debugger, and assembler.
type Config struct {
	VM struct {
		MemorySize uint32 `toml:"memory_size"`
		MaxCycles  uint64 `toml:"max_cycles"`
	} `toml:"vm"`

	Debugger struct {
		HistorySize   int  `toml:"history_size"`
		ShowRegisters bool `toml:"show_registers"`
		EnableTrace   bool `toml:"enable_trace"`
	} `toml:"debugger"`

	Assembler struct {
		WarnUnusedLabels bool `toml:"warn_unused_labels"`
	} `toml:"assembler"`

	Display struct {
		BytesPerLine int    `toml:"bytes_per_line"`
		DisasmCount  int    `toml:"disasm_count"`
		NumberFormat string `toml:"number_format"` // hex, dec
	} `toml:"display"`
}

// DefaultConfig returns a Config populated with BURST's defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.VM.MemorySize = 1 << 20
	cfg.VM.MaxCycles = 10_000_000

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.ShowRegisters = true
	cfg.Debugger.EnableTrace = false

	cfg.Assembler.WarnUnusedLabels = false

	cfg.Display.BytesPerLine = 16
	cfg.Display.DisasmCount = 10
	cfg.Display.NumberFormat = "hex"

	return cfg
}

// ConfigPath returns the platform-specific config file path, creating its
// parent directory if needed. Falls back to "./burst.toml" if the
// platform's config directory can't be determined or created.
func ConfigPath() string {
	var dir string
	switch runtime.GOOS {
	case "windows":
		dir = os.Getenv("APPDATA")
		if dir == "" {
			dir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		dir = filepath.Join(dir, "burst")
	case "darwin", "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return "burst.toml"
		}
		dir = filepath.Join(home, ".config", "burst")
	default:
		return "burst.toml"
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "burst.toml"
	}
	return filepath.Join(dir, "burst.toml")
}

// Load reads configuration from the default platform path, falling back to
// DefaultConfig() when the file does not exist.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads configuration from path, overlaying it on DefaultConfig()
// so a partial file never leaves unrelated fields zeroed.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path in TOML form.
func Save(cfg *Config, path string) error {
	f, err := os.Create(path) // #nosec G304 -- operator-provided config path
	if err != nil {
		return fmt.Errorf("creating config %s: %w", path, err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config %s: %w", path, err)
	}
	return nil
}
