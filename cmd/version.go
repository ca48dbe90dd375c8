package cmd

import (
	"fmt"

	"github.com/sergev/spectran/api"
	"github.com/sergev/spectran/backend"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the RTSA API version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAPI(func(s *api.Session) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "RTSA API version: %s\n", s.Version())
			fmt.Fprintf(out, "Backend: %s\n", conf.Backend)
			if info, ok := backend.Lookup(conf.Backend); ok {
				fmt.Fprintf(out, "         %s\n", info.Description)
			}
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset all receivers",
	Long:  "Reset every receiver known to the driver.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAPI(func(s *api.Session) error {
			if err := s.ResetDevices(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Devices reset.")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(resetCmd)
}
