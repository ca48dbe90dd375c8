package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sergev/spectran/api"
	"github.com/sergev/spectran/conftree"
	"github.com/sergev/spectran/device"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	streamChannel int
	streamCount   int
	streamSamples int
	streamFlush   bool
	streamPush    string
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Start the receiver and print packets",
	Long: "Connect and start the receiver, wait until it runs, then print the header\n" +
		"of each packet received on the channel. Stops after --count packets or on interrupt.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		channel := int32(conf.Packet.Channel)
		if cmd.Flags().Changed("channel") {
			channel = int32(streamChannel)
		}

		var doc map[string]any
		if streamPush != "" {
			f, err := os.Open(streamPush)
			if err != nil {
				return fmt.Errorf("failed to open config document: %w", err)
			}
			doc, err = conftree.DecodeDocument(f, conftree.FormatOf(streamPush))
			f.Close()
			if err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return withDevice(ctx, func(_ *api.Session, ds *device.Session) error {
			out := cmd.OutOrStdout()
			if err := ds.Connect(); err != nil {
				return err
			}
			if doc != nil {
				rep, err := ds.PushConfig(doc)
				if rep != nil {
					printReport(out, rep)
				}
				if err != nil {
					return err
				}
			}
			if err := ds.Start(); err != nil {
				return err
			}

			wait, cancel := context.WithTimeout(ctx, conf.StateTimeout())
			err := ds.WaitUntilRunning(wait)
			cancel()
			if err != nil {
				return err
			}
			logger.Info("streaming", zap.String("serial", ds.Serial()), zap.Int32("channel", channel))

			if streamFlush {
				n, err := ds.Flush(channel)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Flushed %d packets.\n", n)
			}

			fmt.Fprintln(out, device.PacketHeader())
			for i := 0; streamCount == 0 || i < streamCount; i++ {
				p, err := ds.GetPacket(ctx, channel)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return err
				}
				fmt.Fprintln(out, p)
				for j := 0; j < streamSamples; j++ {
					row := p.Row(j)
					if row == nil {
						break
					}
					fmt.Fprintf(out, "    %6d: %v\n", j, row)
				}
			}
			return nil
		})
	},
}

func init() {
	f := streamCmd.Flags()
	f.IntVar(&streamChannel, "channel", 0, "packet channel (default from config)")
	f.IntVarP(&streamCount, "count", "n", 10, "number of packets to print, 0 for no limit")
	f.IntVar(&streamSamples, "samples", 0, "number of sample rows to print per packet")
	f.BoolVar(&streamFlush, "flush", false, "drop packets queued before streaming")
	f.StringVar(&streamPush, "push", "", "configuration document to push before starting")
	rootCmd.AddCommand(streamCmd)
}
