package cmd

import (
	"fmt"

	"github.com/sergev/spectran/config"
	"github.com/sergev/spectran/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	// Backends register themselves.
	_ "github.com/sergev/spectran/native"
	_ "github.com/sergev/spectran/sim"
)

var (
	configPath  string
	backendName string
	libraryPath string
	serialFlag  string
	modeFlag    string
	verbose     bool

	conf   *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "spectran",
	Short: "A CLI program which works with Spectran V6 receivers",
	Long: "The spectran tool drives Aaronia Spectran V6 receivers through the RTSA API:\n" +
		"it lists devices, dumps and pushes configuration, streams packets and watches health values.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		conf, err = loadConfig()
		if err != nil {
			return err
		}
		logger, err = newLogger(conf.LogLevel, verbose)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		logging.SetLogger(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&configPath, "config", "c", "", "configuration file (default ~/.spectran)")
	f.StringVarP(&backendName, "backend", "b", "", "driver backend: native or sim")
	f.StringVar(&libraryPath, "library", "", "path of the RTSA API shared library")
	f.StringVarP(&serialFlag, "serial", "s", "", "serial number of the device to use")
	f.StringVarP(&modeFlag, "mode", "m", "", "device mode: raw, rtsa, sweepsa, iqreceiver, iqtransmitter, iqtransceiver")
	f.BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

// loadConfig reads the configuration file and applies the command line overrides.
func loadConfig() (*config.Config, error) {
	var (
		c   *config.Config
		err error
	)
	if configPath != "" {
		c, err = config.Load(configPath)
	} else {
		c, err = config.Initialize()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}

	if backendName != "" {
		c.Backend = backendName
	}
	if libraryPath != "" {
		c.Library = libraryPath
	}
	if serialFlag != "" {
		c.Serial = serialFlag
	}
	if modeFlag != "" {
		c.DeviceMode = modeFlag
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// newLogger builds a production logger at the configured level,
// or a development logger when verbose.
func newLogger(level string, verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	lvl := zapcore.InfoLevel
	if level != "" {
		var err error
		if lvl, err = zapcore.ParseLevel(level); err != nil {
			return nil, err
		}
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
