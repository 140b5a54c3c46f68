package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"fcrawatch/internal/components/telemetry"
	"fcrawatch/pkg/configutil"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	verbose    *bool
)

// set up by the root command before any subcommand runs
var (
	config  Config
	tel     telemetry.API = telemetry.SlogAPI{}
	otelSdk telemetry.Otel
)

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The config file, <name>.local.<ext> is merged over it.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enables debug logging.")
}

var rootCmd = &cobra.Command{
	Use:   "fcrawatch",
	Short: "fcrawatch collects FCRA quarterly returns into a local database.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		config, err = configutil.ReadConfigWithDefaults(*configPath, DefaultConfig())
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return setupTelemetry(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		err := otelSdk.Shutdown(context.Background())
		if err != nil {
			slog.Warn("shutdown telemetry", "err", err.Error())
		}
	},
}

func setupTelemetry(ctx context.Context) error {
	closeLog, err := telemetry.InitSlog(*verbose, config.LogFile)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		closeLog()
	}()
	if *verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	otelSdk, err = telemetry.SetupOtel(ctx, "fcrawatch", config.Otlp)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	if otelSdk.MeterProvider == nil {
		return nil
	}
	otelApi, err := telemetry.NewOtelAPI("fcrawatch")
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	tel = telemetry.MultiAPI{telemetry.SlogAPI{}, otelApi}
	return nil
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
