package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func interfaceCommands() *cobra.Command {
	ifaceCmds := &cobra.Command{
		Use:   "if",
		Short: "show the devices and their interfaces",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list all devices",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 1, 2, 4, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", "DEVICE", "TYPE", "MTU", "FLAGS", "HW ADDR", "IP")
			for _, dev := range stack.Devices() {
				hwAddr := "-"
				if dev.HardwareAddr != nil {
					hwAddr = dev.HardwareAddr.String()
				}

				addrs := "-"
				for i, iface := range dev.Interfaces() {
					if i == 0 {
						addrs = ""
					} else {
						addrs += ","
					}
					addrs += fmt.Sprintf("%s brd %s", iface, iface.Broadcast())
				}

				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n", dev.Name, dev.Type, dev.MTU, dev.Flags(), hwAddr, addrs)
			}
			w.Flush()
		},
	}

	ifaceCmds.AddCommand(listCmd)

	return ifaceCmds
}
