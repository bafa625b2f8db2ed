// ABOUTME: serve command: runs the WhatsApp bridge
// ABOUTME: Loads config, prints startup info and runs until interrupted

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/config"
	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/whatsapp"
)

func newServeCmd(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the bridge (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath(), cmd.OutOrStdout())
		},
	}
}

func runServe(ctx context.Context, configPath string, out io.Writer) error {
	cyan := color.New(color.FgCyan)
	cyan.Fprint(out, banner)

	gray := color.New(color.FgHiBlack)
	gray.Fprintf(out, "    version: %s\n\n", version)

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging, os.Stdout)

	if cfg.Backend.URL == "" {
		if _, err := config.ReadPortFile(cfg.Backend.PortFile, cfg.Backend.DefaultPort); err != nil {
			logger.Warn("backend port file unavailable, using default port",
				"path", cfg.Backend.PortFile,
				"port", cfg.Backend.DefaultPort,
				"error", err,
			)
		}
	}
	backendURL := cfg.BackendURL()

	green := color.New(color.FgGreen)
	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "Config:   %s\n", configPath)
	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "Send API: http://%s/send\n", cfg.Server.HTTPAddr)
	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "Backend:  %s\n", backendURL)
	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "Session:  %s\n", cfg.Session.Dir)
	if cfg.Bridge.Markdown {
		green.Fprint(out, "    ▶ ")
		fmt.Fprintln(out, "Markdown: enabled")
	}
	fmt.Fprintln(out)

	logger.Info("starting wa-bridge",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"backend", backendURL,
	)

	provider := whatsapp.New(whatsapp.Options{
		SessionDir:   cfg.Session.Dir,
		DeviceName:   cfg.Session.DeviceName,
		IgnoreStatus: cfg.Bridge.IgnoreStatus,
		Logger:       logger,
	})

	return newBridge(cfg, provider, backendURL, out, logger).Run(ctx)
}
