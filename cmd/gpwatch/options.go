package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	logAdapter "github.com/bft-labs/gpwatch/internal/adapters/log"
	"github.com/bft-labs/gpwatch/internal/cliconfig"
	"github.com/bft-labs/gpwatch/internal/ports"
)

// commandOptions holds the flag-bound configuration shared by commands.
type commandOptions struct {
	cfg     cliconfig.Config
	cfgPath string
}

func newCommandOptions() *commandOptions {
	return &commandOptions{cfg: cliconfig.DefaultConfig()}
}

func (o *commandOptions) bindConfigFlag(fs *pflag.FlagSet) {
	fs.StringVar(&o.cfgPath, "config", "", "path to config file (default: $HOME/.gpwatch/config.toml)")
}

func (o *commandOptions) bindPipelineFlags(fs *pflag.FlagSet) {
	cfg := &o.cfg
	fs.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory for {plate_id}.xml worklists (defaults to the watched directory)")
	fs.StringVar(&cfg.DispenseDir, "dispense-dir", cfg.DispenseDir, "directory for local copies of dispense lists (defaults to output-dir)")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "evaluation mode: scan-earliest or last-only")
	fs.StringVar(&cfg.Variant, "variant", cfg.Variant, "protocol: dispense-and-record or single-step-notify")
	fs.StringVar(&cfg.MantisRoot, "mantis-root", cfg.MantisRoot, "dispense list directory on the scheduler host")
	fs.Float64Var(&cfg.DispenseVolume, "dispense-volume", cfg.DispenseVolume, "volume per well in the dispense list")
	fs.StringVar(&cfg.Label96, "label-96", cfg.Label96, "Mantis plate label for 96-well plates")
	fs.StringVar(&cfg.Label384, "label-384", cfg.Label384, "Mantis plate label for 384-well plates")
	fs.StringVar(&cfg.LabelOther, "label-other", cfg.LabelOther, "Mantis plate label for other plate sizes")
	fs.StringVar(&cfg.NotifyProcess, "notify-process", cfg.NotifyProcess, "Momentum process for single-step-notify")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: auto, console or json")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
}

func (o *commandOptions) bindWatchFlags(fs *pflag.FlagSet) {
	cfg := &o.cfg
	fs.StringSliceVar(&cfg.Extensions, "ext", cfg.Extensions, "accepted file extensions")
	fs.StringVar(&cfg.Pattern, "pattern", cfg.Pattern, "filename glob, e.g. GP_*_OD.csv (optional)")
	fs.DurationVar(&cfg.Debounce, "debounce", cfg.Debounce, "quiet period per file before processing (0 disables)")
	fs.BoolVar(&cfg.ProcessExisting, "process-existing", cfg.ProcessExisting, "process files already present before watching")
}

// load applies the config file, then GPWATCH_* env, under the flags the
// user set, validates, and builds the process logger. targetSet marks a
// target given on the command line.
func (o *commandOptions) load(cmd *cobra.Command, targetSet bool) (cliconfig.Config, zerolog.Logger, error) {
	cfg := o.cfg

	cfgFile := o.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	// Build set of changed flags
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
	if targetSet {
		changed["target"] = true
	}

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return cfg, zerolog.Logger{}, fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
			return cfg, zerolog.Logger{}, err
		}
	} else if o.cfgPath != "" {
		return cfg, zerolog.Logger{}, fmt.Errorf("config file %s not found", o.cfgPath)
	}

	// These override file config but are overridden by flags (checked via changed map)
	if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
		return cfg, zerolog.Logger{}, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, zerolog.Logger{}, err
	}

	log, err := logAdapter.NewLogger(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return cfg, zerolog.Logger{}, err
	}
	return cfg, log, nil
}

func logConfiguration(log zerolog.Logger, cfg cliconfig.Config) {
	log.Info().
		Str("mode", cfg.Mode).
		Str("variant", cfg.Variant).
		Interface("config", cfg).
		Msg("configuration")
}

func newPortLogger(log zerolog.Logger) ports.Logger {
	return logAdapter.NewZerologAdapterWithLogger(log)
}
