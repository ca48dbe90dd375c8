package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/sergev/spectran/api"
	"github.com/sergev/spectran/device"
	"github.com/sergev/spectran/retry"
	"github.com/sergev/spectran/watch"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	watchInterval time.Duration
	watchCount    int
	watchPlain    bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [KEY...]",
	Short: "Watch the device health values",
	Long: "Connect to the device and show its health values, refreshed periodically.\n" +
		"KEYs select health values; the default list comes from the config.\n" +
		"When the output is not a terminal, the values are printed as lines.",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval := conf.WatchInterval()
		if cmd.Flags().Changed("interval") {
			interval = watchInterval
		}
		keys := conf.Watch.Keys
		if len(args) > 0 {
			keys = args
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return withDevice(ctx, func(_ *api.Session, ds *device.Session) error {
			if err := ds.Connect(); err != nil {
				return err
			}
			if !watchPlain && term.IsTerminal(int(os.Stdout.Fd())) {
				m := watch.New(ds.Serial(), ds.Health, keys, interval)
				return watch.Run(m)
			}
			return watchLines(ctx, cmd.OutOrStdout(), ds.Health, keys, interval)
		})
	},
}

// watchLines prints one line per health value on every refresh.
func watchLines(ctx context.Context, w io.Writer, source watch.Source, keys []string, interval time.Duration) error {
	for i := 0; watchCount == 0 || i < watchCount; i++ {
		if i > 0 {
			if err := retry.Sleep(ctx, interval); err != nil {
				return nil
			}
		}
		doc, err := source()
		if err != nil {
			return err
		}
		for _, row := range watch.Rows(doc, keys) {
			fmt.Fprintf(w, "%-24s %s\n", row.Label, row.Value)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func init() {
	f := watchCmd.Flags()
	f.DurationVarP(&watchInterval, "interval", "i", 500*time.Millisecond, "refresh interval (default from config)")
	f.IntVarP(&watchCount, "count", "n", 0, "number of refreshes in line mode, 0 for no limit")
	f.BoolVar(&watchPlain, "plain", false, "print lines even on a terminal")
	rootCmd.AddCommand(watchCmd)
}
