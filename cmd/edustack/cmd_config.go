package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func configCommands(opts *globalOptions) *cobra.Command {
	configCmds := &cobra.Command{
		Use:   "config",
		Short: "show or check the configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			b, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "check the configuration without opening any device",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration ok, %d devices\n", len(cfg.Devices))
			return nil
		},
	}

	configCmds.AddCommand(showCmd, validateCmd)
	return configCmds
}
