package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sergev/spectran/probe"
	"github.com/spf13/cobra"
)

var probeVendor string

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Probe the USB bus and serial ports",
	Long: "List USB devices and USB serial ports without going through the RTSA API.\n" +
		"Useful to check that a receiver is visible to the host at all.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		vendor, err := conf.VendorID()
		if err != nil {
			return err
		}
		if probeVendor != "" {
			v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(probeVendor), "0x"), 16, 16)
			if err != nil {
				return fmt.Errorf("invalid vendor id %q: %w", probeVendor, err)
			}
			vendor = uint16(v)
		}

		out := cmd.OutOrStdout()
		devs, err := probe.USB(vendor)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "USB devices: %d\n", len(devs))
		for _, d := range devs {
			fmt.Fprintf(out, "  %s\n", d)
		}

		ports, err := probe.SerialPorts(vendor)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Serial ports: %d\n", len(ports))
		for _, p := range ports {
			fmt.Fprintf(out, "  %s  VID=%04X PID=%04X  %s %s\n", p.Name, p.VID, p.PID, p.Product, p.Serial)
		}
		return nil
	},
}

func init() {
	probeCmd.Flags().StringVar(&probeVendor, "vendor", "", "USB vendor id in hex (default from config, empty for any)")
	rootCmd.AddCommand(probeCmd)
}
