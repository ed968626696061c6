package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Target          string   `toml:"target"`
	Extensions      []string `toml:"extensions"`
	Pattern         string   `toml:"pattern"`
	Debounce        string   `toml:"debounce"`
	ProcessExisting *bool    `toml:"process_existing"`
	OutputDir       string   `toml:"output_dir"`
	DispenseDir     string   `toml:"dispense_dir"`
	Mode            string   `toml:"mode"`
	Variant         string   `toml:"variant"`
	MantisRoot      string   `toml:"mantis_root"`
	DispenseVolume  float64  `toml:"dispense_volume"`
	Label96         string   `toml:"label_96"`
	Label384        string   `toml:"label_384"`
	LabelOther      string   `toml:"label_other"`
	NotifyProcess   string   `toml:"notify_process"`
	LogFormat       string   `toml:"log_format"`
	LogLevel        string   `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.gpwatch/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".gpwatch", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("target", fc.Target, &cfg.Target)
	s.setStrings("ext", fc.Extensions, &cfg.Extensions)
	s.setString("pattern", fc.Pattern, &cfg.Pattern)
	s.setString("output-dir", fc.OutputDir, &cfg.OutputDir)
	s.setString("dispense-dir", fc.DispenseDir, &cfg.DispenseDir)
	s.setString("mode", fc.Mode, &cfg.Mode)
	s.setString("variant", fc.Variant, &cfg.Variant)
	s.setString("mantis-root", fc.MantisRoot, &cfg.MantisRoot)
	s.setString("label-96", fc.Label96, &cfg.Label96)
	s.setString("label-384", fc.Label384, &cfg.Label384)
	s.setString("label-other", fc.LabelOther, &cfg.LabelOther)
	s.setString("notify-process", fc.NotifyProcess, &cfg.NotifyProcess)
	s.setString("log-format", fc.LogFormat, &cfg.LogFormat)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("debounce", fc.Debounce, &cfg.Debounce); err != nil {
		return err
	}

	s.setFloat("dispense-volume", fc.DispenseVolume, &cfg.DispenseVolume)

	s.setBool("process-existing", fc.ProcessExisting, &cfg.ProcessExisting)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
