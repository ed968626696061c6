package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bft-labs/gpwatch"
	"github.com/bft-labs/gpwatch/internal/cliconfig"
)

func newRootCommand() *cobra.Command {
	opts := newCommandOptions()

	root := &cobra.Command{
		Use:           "gpwatch [target]",
		Short:         "Watch growth profiler exports and write Momentum worklists",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       versionString(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.cfg.Target = args[0]
			}
			cfg, log, err := opts.load(cmd, len(args) == 1)
			if err != nil {
				return err
			}

			if _, err := cliconfig.ResolveTarget(&cfg); err != nil {
				return err
			}
			logConfiguration(log, cfg)

			// Setup signal handling for graceful shutdown
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			go func() {
				select {
				case <-sigCh:
					log.Info().Msg("received signal, stopping...")
					cancel()
				case <-ctx.Done():
				}
			}()

			return gpwatch.Run(ctx, cfg, gpwatch.WithLogger(newPortLogger(log)))
		},
	}

	opts.bindConfigFlag(root.PersistentFlags())
	opts.bindPipelineFlags(root.PersistentFlags())
	opts.bindWatchFlags(root.Flags())

	root.AddCommand(newProcessCommand(opts))
	root.AddCommand(newInspectCommand())

	return root
}
