package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func logCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log [none|debug|info|error]",
		Short: "show or configure the log level",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), zerolog.GlobalLevel())
				return nil
			}

			level := args[0]
			if level == "none" {
				level = "disabled"
			}

			lvl, err := zerolog.ParseLevel(level)
			if err != nil {
				return err
			}

			zerolog.SetGlobalLevel(lvl)
			log.Info().Msgf("log level set to %s", lvl)
			return nil
		},
	}

	return cmd
}
