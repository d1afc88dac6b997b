package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/notnil/canbridge"
	"github.com/notnil/canbridge/internal/conf"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "canbridged",
	Short: "Bridge host CAN devices to a frame consumer.",
	Long: `canbridged opens the configured host CAN devices, polls them for
frames and prints everything received, candump-style. It exists to test
CAN connectivity between the host and the bridge.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bridge until interrupted",
	RunE:  run,
}

func main() {
	runCmd.Flags().StringVarP(&cfgPath, "config", "c", "canbridged.yaml", "path to config file")
	rootCmd.AddCommand(runCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(_ *cobra.Command, _ []string) error {
	cfg, err := conf.LoadFromFile(cfgPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	registry := canbridge.NewRegistry()
	for _, ic := range cfg.Interfaces {
		var transport canbridge.Transport
		t, err := openTransport(ic.Device)
		if err != nil {
			// Register the bridge anyway; sends on it report the device
			// as unavailable, matching an interface that failed to open.
			logger.Error("cannot open device",
				zap.String("device", ic.Device), zap.Error(err))
		} else {
			transport = t
		}

		b := canbridge.New(ic.Name, transport,
			canbridge.WithLogger(logger),
			canbridge.WithBackoff(ic.Backoff))
		ifc := canbridge.NewChanInterface(ic.Buffer)
		ifc.SetUp(true)
		if err := b.Attach(ifc); err != nil {
			return err
		}
		if err := registry.Add(b); err != nil {
			return err
		}
		go printFrames(ic.Name, ifc.Frames())
	}

	registry.StartAll()
	logger.Info("bridge running", zap.Strings("interfaces", registry.Names()))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	registry.StopAll()
	return nil
}

func printFrames(name string, frames <-chan canbridge.StackFrame) {
	for f := range frames {
		fmt.Printf("  %s  %s\n", name, f)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
