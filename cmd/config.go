package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sergev/spectran/api"
	"github.com/sergev/spectran/conftree"
	"github.com/sergev/spectran/device"
	"github.com/sergev/spectran/result"
	"github.com/spf13/cobra"
)

var (
	dumpHealth bool
	docFormat  string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write the device configuration",
}

var configDumpCmd = &cobra.Command{
	Use:   "dump [FILE]",
	Short: "Dump the configuration tree",
	Long: "Connect to the device and write its configuration tree as a document,\n" +
		"to FILE or to standard output.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		format, err := documentFormat(name)
		if err != nil {
			return err
		}
		return withDevice(cmd.Context(), func(_ *api.Session, ds *device.Session) error {
			if err := ds.Connect(); err != nil {
				return err
			}
			var doc map[string]any
			if dumpHealth {
				doc, err = ds.Health()
			} else {
				doc, err = ds.Config()
			}
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if name != "" {
				f, err := os.Create(name)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}
			return conftree.EncodeDocument(w, doc, format)
		})
	},
}

var configPushCmd = &cobra.Command{
	Use:   "push FILE",
	Short: "Push a configuration document to the device",
	Long: "Write every value of a configuration document to the device.\n" +
		"Values the device adjusts are reported; the push stops at the first rejected value.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := documentFormat(args[0])
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open config document: %w", err)
		}
		doc, err := conftree.DecodeDocument(f, format)
		f.Close()
		if err != nil {
			return err
		}

		return withDevice(cmd.Context(), func(_ *api.Session, ds *device.Session) error {
			if err := ds.Connect(); err != nil {
				return err
			}
			rep, err := ds.PushConfig(doc)
			if rep != nil {
				printReport(cmd.OutOrStdout(), rep)
			}
			return err
		})
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get PATH",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(cmd.Context(), func(_ *api.Session, ds *device.Session) error {
			if err := ds.Connect(); err != nil {
				return err
			}
			it, err := ds.Item(args[0])
			if err != nil {
				return err
			}
			v, err := itemValue(it)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s", it.Path, v)
			if it.Meta.Unit != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " %s", it.Meta.Unit)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		})
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set PATH VALUE",
	Short: "Write one configuration value",
	Long: "Write one configuration value. Unlike push, this also presses buttons:\n" +
		"any non-zero VALUE triggers a button item.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(cmd.Context(), func(_ *api.Session, ds *device.Session) error {
			if err := ds.Connect(); err != nil {
				return err
			}
			it, err := ds.Item(args[0])
			if err != nil {
				return err
			}
			code, err := setItem(it, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", it.Path, code)
			return nil
		})
	},
}

func documentFormat(name string) (conftree.Format, error) {
	if docFormat != "" {
		return conftree.ParseFormat(docFormat)
	}
	return conftree.FormatOf(name), nil
}

func printReport(w io.Writer, rep *conftree.Report) {
	fmt.Fprintf(w, "Applied %d values, skipped %d.\n", len(rep.Applied), len(rep.Skipped))
	for _, warn := range rep.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warn)
	}
}

func itemValue(it *device.Item) (string, error) {
	switch it.Meta.Kind {
	case conftree.KindNumber:
		v, err := it.Float()
		return strconv.FormatFloat(v, 'g', -1, 64), err
	case conftree.KindBool:
		v, err := it.Bool()
		return strconv.FormatBool(v), err
	default:
		return it.Text()
	}
}

func setItem(it *device.Item, value string) (result.Code, error) {
	switch it.Meta.Kind {
	case conftree.KindNumber:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: invalid number %q", it.Path, value)
		}
		return it.SetFloat(v)
	case conftree.KindBool:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return 0, fmt.Errorf("%s: invalid bool %q", it.Path, value)
		}
		return it.SetBool(v)
	case conftree.KindOther:
		v, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: invalid integer %q", it.Path, value)
		}
		return it.SetInteger(v)
	default:
		return it.SetText(value)
	}
}

func init() {
	configCmd.PersistentFlags().StringVarP(&docFormat, "format", "f", "", "document format: json or toml (default from file name)")
	configDumpCmd.Flags().BoolVar(&dumpHealth, "health", false, "dump the health tree instead")
	configCmd.AddCommand(configDumpCmd, configPushCmd, configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
