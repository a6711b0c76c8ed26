package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/davidkroell/edustack"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func shellCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "bring the stack up and open an interactive shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			logger, err := setupLogging(cfg.LogLevel)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := buildStack(cfg, logger, prometheus.DefaultRegisterer)
			if err != nil {
				return err
			}
			serveMetrics(ctx, cfg.MetricsAddr, s, logger)

			if err := s.RunWorkers(ctx); err != nil {
				return err
			}

			ExecutePrompt(ctx, s)
			return s.Shutdown()
		},
	}

	return cmd
}

// shellRootCommand holds the commands available inside the shell.
func shellRootCommand(ctx context.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	rootCmd.AddCommand(shellPingCommand(ctx))
	rootCmd.AddCommand(versionCommand())
	rootCmd.AddCommand(interfaceCommands())
	rootCmd.AddCommand(routeCommands())
	rootCmd.AddCommand(statsCommand())
	rootCmd.AddCommand(logCommand())

	return rootCmd
}

func shellPingCommand(ctx context.Context) *cobra.Command {
	pingOpts := &pingOptions{}

	cmd := &cobra.Command{
		Use:   "ping host [-n <num pings>]",
		Short: "ping a host",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return ErrTooFewArguments
			}

			dst, err := edustack.ParseIPv4(args[0])
			if err != nil {
				return err
			}
			return runPing(ctx, cmd.OutOrStdout(), stack, dst, pingOpts)
		},
	}

	pingOpts.bindFlags(cmd, 4)
	return cmd
}
