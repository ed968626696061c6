package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	logAdapter "github.com/bft-labs/gpwatch/internal/adapters/log"
)

const helpDescription = `
Watch growth profiler exports and queue a worklist when a plate has grown.

Highlights:
  - Reads the reader's fixed-layout CSV export as it is written.
  - A plate qualifies once at least half of its wells read above 1.0.
  - Writes a Momentum worklist ({plate_id}.xml) and, for the dispense
    protocol, the Mantis dispense list it references.
  - Configure via file ($HOME/.gpwatch/config.toml), env (GPWATCH_*) or flags.
`

var longHelp = strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  gpwatch /data/growth-profiler/exports --output-dir /data/momentum/worklists
  gpwatch /data/exports/GP-0001.csv --mode last-only --variant single-step-notify
  gpwatch process /data/exports/GP-0001.csv
  gpwatch inspect /data/exports/GP-0001.csv
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func versionString() string {
	return fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH)
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log, lerr := logAdapter.NewLogger(logAdapter.FormatAuto, "info")
		if lerr != nil {
			fmt.Fprintln(os.Stderr, "gpwatch:", err)
			os.Exit(1)
		}
		log.Error().Err(err).Msg("gpwatch")
		os.Exit(1)
	}
}
