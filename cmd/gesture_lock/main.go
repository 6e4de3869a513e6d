// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/gesture_lock/internal/app"
	"github.com/relabs-tech/gesture_lock/internal/auth"
	"github.com/relabs-tech/gesture_lock/internal/gyro"
)

const (
	Version = "0.1.0"
	appName = "gesture_lock"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	runLock := func(cmd *cobra.Command, args []string) error {
		cfg, log, err := app.Setup(configPath, logLevel)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		log.Infof("starting %s (%s source)", appName, cfg.Source.Kind)
		return app.RunLock(ctx, cfg, log)
	}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Gyroscope gesture lock",
		Long: `gesture_lock records a 3-second wrist gesture as a password and
unlocks when a later gesture matches it under dynamic time warping.

Without a subcommand it runs the lock, same as "run".`,
		SilenceUsage: true,
		RunE:         runLock,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", app.DefaultConfigPath, "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the lock daemon",
		RunE:  runLock,
	})

	var (
		out     string
		samples int
	)
	record := &cobra.Command{
		Use:   "record",
		Short: "Capture raw gyro frames to a YAML recording",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := app.Setup(configPath, logLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			src, closeSource, err := app.OpenSource(ctx, cfg.Source, log)
			if err != nil {
				return err
			}
			defer closeSource()

			n := samples
			if n <= 0 {
				n = cfg.Session.Samples
			}
			log.Infof("recording %d frames, move now", n)
			rec, err := app.Record(ctx, src, n, cfg.Source.RateHz, log)
			if err != nil {
				log.Warnf("recording cut short: %v", err)
			}
			if err := rec.Save(out); err != nil {
				return err
			}
			log.Infof("saved %d frames to %s", rec.Len(), out)
			return nil
		},
	}
	record.Flags().StringVarP(&out, "out", "o", "gesture.yaml", "Output recording path")
	record.Flags().IntVarP(&samples, "samples", "n", 0, "Frames to capture (default: session.samples)")
	cmd.AddCommand(record)

	var threshold float64
	compare := &cobra.Command{
		Use:   "compare <enroll.yaml> <entry.yaml>",
		Short: "Enroll one recording and verify another offline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := app.Setup(configPath, logLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			enroll, err := gyro.LoadRecording(args[0])
			if err != nil {
				return err
			}
			entry, err := gyro.LoadRecording(args[1])
			if err != nil {
				return err
			}

			settings := app.SettingsFromConfig(cfg.Session)
			if cmd.Flags().Changed("threshold") {
				settings.Threshold = threshold
			}
			ev, err := app.Compare(enroll, entry, settings, log)
			if err != nil {
				return err
			}

			d := auth.Distances{}
			if ev.Distances != nil {
				d = *ev.Distances
			}
			fmt.Printf("distances: x=%.3f y=%.3f z=%.3f (threshold %g)\n", d[0], d[1], d[2], settings.Threshold)
			if ev.Degenerate {
				fmt.Println("entry never left the deadband")
			}
			fmt.Println(ev.Kind)
			return nil
		},
	}
	compare.Flags().Float64Var(&threshold, "threshold", auth.DefaultThreshold, "Per-axis accept threshold (default: session.threshold)")
	cmd.AddCommand(compare)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}
