package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func statsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "show device counters and queue state",
		Run: func(cmd *cobra.Command, args []string) {
			stats := stack.Stats()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 1, 2, 4, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", "DEVICE", "RX", "RX BYTES", "RX ERR", "TX", "TX BYTES", "TX ERR")
			for _, d := range stats.Devices {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\n", d.Name, d.RxFrames, d.RxBytes, d.RxErrors, d.TxFrames, d.TxBytes, d.TxErrors)
			}
			w.Flush()

			fmt.Fprintf(cmd.OutOrStdout(), "queue overflows: %d\n", stats.QueueOverflows)
			for proto, n := range stats.Pending {
				fmt.Fprintf(cmd.OutOrStdout(), "pending %s: %d\n", proto, n)
			}
		},
	}

	return cmd
}
