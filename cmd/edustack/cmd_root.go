package main

import (
	"errors"

	"github.com/davidkroell/edustack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var ErrTooFewArguments = errors.New("edustack: too few arguments")

type globalOptions struct {
	configPath string
	logLevel   string
}

func rootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:               "edustack",
		Short:             "a small IPv4 stack in user space",
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to the YAML configuration, built-in demo setup if empty")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "overrides the configured log level")

	rootCmd.AddCommand(pingCommand(opts))
	rootCmd.AddCommand(shellCommand(opts))
	rootCmd.AddCommand(configCommands(opts))
	rootCmd.AddCommand(versionCommand())

	return rootCmd
}

func (o *globalOptions) loadConfig() (*edustack.Config, error) {
	cfg := edustack.DefaultConfig()

	if o.configPath != "" {
		var err error
		if cfg, err = edustack.ParseConfig(o.configPath); err != nil {
			return nil, err
		}
	}

	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func setupLogging(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}

	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.NewConsoleWriter())
	return log.Logger, nil
}
