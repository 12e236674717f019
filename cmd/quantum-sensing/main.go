package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"quantum-sensing/internal/app"
	"quantum-sensing/internal/config"
	"quantum-sensing/internal/logger"
	"quantum-sensing/internal/models"
	"quantum-sensing/internal/storage"
)

type runOpts struct {
	sensor   string
	duration string
	interval string
	out      string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "quantum-sensing",
		Short: "Simulated quantum sensing apparatus",
		Long: `Runs timed experiments against a simulated sensor and records one
reading per interval. Without a subcommand the desktop window opens.

Configuration is read from the environment and an optional .env file
(QSENSE_LOG_LEVEL, QSENSE_DEFAULT_SENSOR, QSENSE_MQTT_BROKER, ...).`,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, log, err := setup(envFile)
			if err != nil {
				return err
			}
			application, err := app.NewApplication(cfg, log)
			if err != nil {
				return err
			}
			return application.Run()
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "load configuration from this .env file instead of ./.env")

	root.AddCommand(
		newRunCommand(&envFile),
		newProfilesCommand(),
		newInspectCommand(),
	)
	return root
}

func newRunCommand(envFile *string) *cobra.Command {
	var o runOpts

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one experiment without a window",
		Example: `  quantum-sensing run --sensor pressure
  quantum-sensing run --sensor humidity --duration 4 --interval 200 --out humidity.txt`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(*envFile)
			if err != nil {
				return err
			}

			sensor := cfg.DefaultSensor
			if o.sensor != "" {
				if sensor, err = models.ParseSensorKind(o.sensor); err != nil {
					return err
				}
			}

			headless, err := app.NewHeadless(cfg, log, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, err = headless.Run(ctx, app.RunOptions{
				Sensor:   sensor,
				Duration: o.duration,
				Interval: o.interval,
				Out:      o.out,
			})
			return err
		},
	}

	cmd.Flags().StringVarP(&o.sensor, "sensor", "s", "", "sensor profile (temperature, pressure, humidity)")
	cmd.Flags().StringVarP(&o.duration, "duration", "d", "", "run duration in seconds (default: profile)")
	cmd.Flags().StringVarP(&o.interval, "interval", "i", "", "sampling interval in milliseconds (default: profile)")
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "save the series to this file")
	return cmd
}

func newProfilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the sensor profiles and their defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printProfiles(cmd.OutOrStdout())
		},
	}
}

func printProfiles(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SENSOR\tDURATION (s)\tINTERVAL (ms)\tSAMPLES")
	for _, p := range models.Profiles() {
		plan := models.RunPlan{Sensor: p.Kind, DurationSeconds: p.DurationSeconds, IntervalMillis: p.IntervalMillis}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", p.Kind, p.DurationSeconds, p.IntervalMillis, plan.Ticks())
	}
	return tw.Flush()
}

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Summarize a saved series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, err := storage.LoadFile(args[0])
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), args[0], storage.Summarize(samples))
		},
	}
}

func printSummary(w io.Writer, path string, s storage.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "File\t%s\n", path)
	fmt.Fprintf(tw, "Samples\t%d\n", s.Count)
	if s.Count > 0 {
		fmt.Fprintf(tw, "Duration (s)\t%.2f\n", s.LastElapsed)
		fmt.Fprintf(tw, "Min reading\t%d\n", s.MinReading)
		fmt.Fprintf(tw, "Max reading\t%d\n", s.MaxReading)
		fmt.Fprintf(tw, "Mean reading\t%.2f\n", s.MeanReading)
	}
	return tw.Flush()
}

func setup(envFile string) (config.Config, logger.Logger, error) {
	var (
		cfg config.Config
		err error
	)
	if envFile != "" {
		cfg, err = config.LoadFile(envFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.Config{}, nil, err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger.New(level, cfg.JSONLogs), nil
}

