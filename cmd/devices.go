package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sergev/spectran/api"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List connected receivers",
	Long:  "Rescan the USB bus and list the receivers of the configured device type.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAPI(func(s *api.Session) error {
			list, err := s.EnumerateDevices(cmd.Context(), conf.Type(), conf.ScanTimeout())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No devices found.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), deviceTable(list))
			return nil
		})
	},
}

func deviceTable(list []api.DeviceInfo) string {
	rows := make([][]string, 0, len(list))
	for _, d := range list {
		rows = append(rows, []string{
			d.Serial,
			strconv.FormatBool(d.Ready),
			strconv.FormatBool(d.Boost),
			strconv.FormatBool(d.Superspeed),
			strconv.FormatBool(d.Active),
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Serial", "Ready", "Boost", "Superspeed", "Active").
		Rows(rows...)
	return t.Render()
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
