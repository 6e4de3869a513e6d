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
)

func main() {
	var configPath, logLevel string

	cmd := &cobra.Command{
		Use:          "web",
		Short:        "Browser UI for the gesture lock (MQTT subscriber)",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := app.Setup(configPath, logLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			log.Info("starting gesture-lock web server (MQTT subscriber)")
			return app.RunWeb(ctx, cfg, log)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", app.DefaultConfigPath, "Config file path (YAML)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
