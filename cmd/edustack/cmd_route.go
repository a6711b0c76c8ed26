package main

import (
	"fmt"
	"net"
	"strconv"
	"text/tabwriter"

	"github.com/davidkroell/edustack"
	"github.com/spf13/cobra"
)

func routeCommands() *cobra.Command {
	routeCmds := &cobra.Command{
		Use:   "route",
		Short: "show or configure the IP routes",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list all routes",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 1, 2, 4, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", "#", "TYPE", "DST NET", "NEXT HOP", "OUT INTERFACE")
			for i, route := range stack.Routes() {

				nextHop := "-"
				if route.NextHop != nil {
					nextHop = route.NextHop.String()
				}

				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i, route.RouteType, route.DstNet.String(), nextHop, outInterfaceName(route.OutInterface))
			}

			w.Flush()
		},
	}

	var addr string
	var iface string
	var nextHop string

	addCmd := &cobra.Command{
		Use:   "add -a network -i device [--next-hop address]",
		Short: "add a static route",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ipNet, err := net.ParseCIDR(addr)
			if err != nil {
				return err
			}

			outIface, err := interfaceOfDevice(iface)
			if err != nil {
				return err
			}

			ri := edustack.RouteInfo{
				RouteType:    edustack.StaticRouteType,
				DstNet:       *ipNet,
				OutInterface: outIface,
			}

			if nextHop != "" {
				nextHopIP, err := edustack.ParseIPv4(nextHop)
				if err != nil {
					return err
				}
				ri.NextHop = &nextHopIP
			}

			return stack.AddRoute(ri)
		},
	}

	addCmd.Flags().StringVarP(&iface, "interface", "i", "", "device of the outgoing interface")
	addCmd.Flags().StringVarP(&addr, "address", "a", "", "destination network in CIDR notation")
	addCmd.Flags().StringVar(&nextHop, "next-hop", "", "gateway on the network of the interface")

	defaultCmd := &cobra.Command{
		Use:   "default -i device gateway",
		Short: "set the default gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return ErrTooFewArguments
			}

			gw, err := edustack.ParseIPv4(args[0])
			if err != nil {
				return err
			}

			outIface, err := interfaceOfDevice(iface)
			if err != nil {
				return err
			}
			return stack.SetDefaultGateway(outIface, gw)
		},
	}

	defaultCmd.Flags().StringVarP(&iface, "interface", "i", "", "device of the outgoing interface")

	delCmd := &cobra.Command{
		Use:   "del index",
		Short: "delete a static or default route by its list index",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return ErrTooFewArguments
			}

			index, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return err
			}
			return stack.DeleteRoute(uint32(index))
		},
	}

	lookupCmd := &cobra.Command{
		Use:   "get address",
		Short: "show the route selected for an address",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return ErrTooFewArguments
			}

			dst, err := edustack.ParseIPv4(args[0])
			if err != nil {
				return err
			}

			ri, err := stack.RouteLookup(dst)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s via %s dev %s\n", dst, ri.NextHopFor(dst), outInterfaceName(ri.OutInterface))
			return nil
		},
	}

	routeCmds.AddCommand(listCmd, addCmd, defaultCmd, delCmd, lookupCmd)
	return routeCmds
}

func interfaceOfDevice(name string) (*edustack.Interface, error) {
	dev, err := stack.DeviceByName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, name)
	}

	iface := dev.Interface(edustack.AddressFamilyIPv4)
	if iface == nil {
		return nil, edustack.ErrUnknownInterface
	}
	return iface, nil
}

func outInterfaceName(iface *edustack.Interface) string {
	dev, err := stack.Device(iface.Device())
	if err != nil {
		return iface.String()
	}
	return dev.Name
}
