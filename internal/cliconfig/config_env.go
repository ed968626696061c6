package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (GPWATCH_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("target", os.Getenv("GPWATCH_TARGET"), &cfg.Target)
	s.setStringsFromString("ext", os.Getenv("GPWATCH_EXTENSIONS"), &cfg.Extensions)
	s.setString("pattern", os.Getenv("GPWATCH_PATTERN"), &cfg.Pattern)
	s.setString("output-dir", os.Getenv("GPWATCH_OUTPUT_DIR"), &cfg.OutputDir)
	s.setString("dispense-dir", os.Getenv("GPWATCH_DISPENSE_DIR"), &cfg.DispenseDir)
	s.setString("mode", os.Getenv("GPWATCH_MODE"), &cfg.Mode)
	s.setString("variant", os.Getenv("GPWATCH_VARIANT"), &cfg.Variant)
	s.setString("mantis-root", os.Getenv("GPWATCH_MANTIS_ROOT"), &cfg.MantisRoot)
	s.setString("label-96", os.Getenv("GPWATCH_LABEL_96"), &cfg.Label96)
	s.setString("label-384", os.Getenv("GPWATCH_LABEL_384"), &cfg.Label384)
	s.setString("label-other", os.Getenv("GPWATCH_LABEL_OTHER"), &cfg.LabelOther)
	s.setString("notify-process", os.Getenv("GPWATCH_NOTIFY_PROCESS"), &cfg.NotifyProcess)
	s.setString("log-format", os.Getenv("GPWATCH_LOG_FORMAT"), &cfg.LogFormat)
	s.setString("log-level", os.Getenv("GPWATCH_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("debounce", os.Getenv("GPWATCH_DEBOUNCE"), &cfg.Debounce); err != nil {
		return err
	}

	if err := s.setFloatFromString("dispense-volume", os.Getenv("GPWATCH_DISPENSE_VOLUME"), &cfg.DispenseVolume); err != nil {
		return err
	}

	s.setBoolFromString("process-existing", os.Getenv("GPWATCH_PROCESS_EXISTING"), &cfg.ProcessExisting)

	return nil
}
