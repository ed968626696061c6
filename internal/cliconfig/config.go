package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/gpwatch/internal/domain"
	"github.com/bft-labs/gpwatch/internal/growth"
	"github.com/bft-labs/gpwatch/internal/worklist"
)

// Config holds CLI configuration for gpwatch.
type Config struct {
	Target          string
	Extensions      []string
	Pattern         string
	Debounce        time.Duration
	ProcessExisting bool

	// OutputDir receives {plate_id}.xml. Defaults to the watched directory.
	OutputDir   string
	DispenseDir string

	Mode    string
	Variant string

	MantisRoot     string
	DispenseVolume float64
	Label96        string
	Label384       string
	LabelOther     string
	NotifyProcess  string

	LogFormat string
	LogLevel  string
}

// DefaultConfig returns a Config with default values. Mode and variant
// match the tool as deployed on the cell.
func DefaultConfig() Config {
	wl := worklist.DefaultConfig()
	return Config{
		Extensions:     []string{".csv"},
		Debounce:       250 * time.Millisecond,
		Mode:           growth.ModeScanEarliest.String(),
		Variant:        worklist.VariantDispenseAndRecord.String(),
		MantisRoot:     wl.MantisRoot,
		DispenseVolume: wl.DispenseVolume,
		Label96:        wl.Labels.Wells96,
		Label384:       wl.Labels.Wells384,
		LabelOther:     wl.Labels.Other,
		NotifyProcess:  wl.NotifyProcess,
		LogFormat:      "auto",
		LogLevel:       "info",
	}
}

// Validate checks the configuration for errors and normalizes extensions.
func (c *Config) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("%w: target is required", domain.ErrInvalidConfig)
	}
	if _, err := growth.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	if _, err := worklist.ParseVariant(c.Variant); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("%w: debounce must not be negative", domain.ErrInvalidConfig)
	}
	if c.DispenseVolume <= 0 {
		return fmt.Errorf("%w: dispense volume must be positive", domain.ErrInvalidConfig)
	}
	if c.MantisRoot == "" {
		return fmt.Errorf("%w: mantis root is required", domain.ErrInvalidConfig)
	}

	exts := make([]string, 0, len(c.Extensions))
	for _, ext := range c.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	c.Extensions = exts

	return nil
}

// GrowthMode returns the parsed evaluation mode. Call after Validate.
func (c Config) GrowthMode() growth.Mode {
	m, _ := growth.ParseMode(c.Mode)
	return m
}

// ProtocolVariant returns the parsed protocol variant. Call after Validate.
func (c Config) ProtocolVariant() worklist.Variant {
	v, _ := worklist.ParseVariant(c.Variant)
	return v
}

// WorklistConfig returns the builder configuration with the site overrides
// from c applied.
func (c Config) WorklistConfig() worklist.Config {
	wl := worklist.DefaultConfig()
	wl.MantisRoot = c.MantisRoot
	wl.DispenseVolume = c.DispenseVolume
	if c.Label96 != "" {
		wl.Labels.Wells96 = c.Label96
	}
	if c.Label384 != "" {
		wl.Labels.Wells384 = c.Label384
	}
	if c.LabelOther != "" {
		wl.Labels.Other = c.LabelOther
	}
	if c.NotifyProcess != "" {
		wl.NotifyProcess = c.NotifyProcess
	}
	return wl
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a slice value if not empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), value...)
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setStringsFromString splits a comma separated list.
// Used for environment variables that come as strings.
func (s *configSetter) setStringsFromString(flag, value string, dst *[]string) {
	if value == "" || s.changed[flag] {
		return
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) > 0 {
		*dst = out
	}
}

// setFloatFromString parses a string to float64 and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
