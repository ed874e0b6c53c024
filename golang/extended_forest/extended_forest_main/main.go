package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configFile string
	memprofile string
	debug      bool
	logger     = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "extended_forest",
	Short: "extended isolation forest anomaly detection",

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(debug)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},

	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		_ = logger.Sync()
		if memprofile == "" {
			return nil
		}
		f, err := os.Create(memprofile)
		if err != nil {
			return errors.Wrap(err, "create memory profile")
		}
		defer func() { _ = f.Close() }()
		runtime.GC()
		return errors.Wrap(pprof.WriteHeapProfile(f), "could not write memory profile")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "a config file for the run of the program (json or yaml)")
	rootCmd.PersistentFlags().StringVar(&memprofile, "memprofile", "", "write memory profile to `file`")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")

	rootCmd.AddCommand(trainCmd, scoreCmd, predictCmd, pathsCmd, graphCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
