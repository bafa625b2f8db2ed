// ABOUTME: Cobra command tree for wa-bridge
// ABOUTME: serve is the default; init, send, health and logout are operator helpers

package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. Running with no subcommand serves.
func newRootCmd() *cobra.Command {
	var configPath string
	resolveConfig := func() string {
		if configPath != "" {
			return configPath
		}
		return getConfigPath()
	}

	serve := newServeCmd(resolveConfig)

	root := &cobra.Command{
		Use:   "wa-bridge",
		Short: "Bridge a WhatsApp account to an HTTP agent backend",
		Long: `wa-bridge keeps a WhatsApp session alive and relays messages both ways.

Inbound text messages are POSTed to the backend as {"message","number"}.
The backend replies by calling POST /send with {"number","message"}.

Quick Start:
  wa-bridge init      # write a config file
  wa-bridge           # start the bridge and scan the QR code
  wa-bridge send --to 15551234567 "hello"`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default $WA_BRIDGE_CONFIG or ~/.config/wa-bridge/config.yaml)")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		serve,
		newInitCmd(resolveConfig),
		newSendCmd(resolveConfig),
		newHealthCmd(resolveConfig),
		newLogoutCmd(resolveConfig),
	)

	return root
}
