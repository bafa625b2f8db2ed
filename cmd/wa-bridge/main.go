// ABOUTME: Entry point for wa-bridge
// ABOUTME: Connects a WhatsApp account to an HTTP agent backend

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                    _          _     _
 __      ____ _    | |__  _ __(_) __| | __ _  ___
 \ \ /\ / / _' |___| '_ \| '__| |/ _' |/ _' |/ _ \
  \ V  V / (_| |___| |_) | |  | | (_| | (_| |  __/
   \_/\_/ \__,_|   |_.__/|_|  |_|\__,_|\__, |\___|
                                       |___/
`

// getConfigPath returns the path to the bridge config file.
// Priority: WA_BRIDGE_CONFIG env var > XDG_CONFIG_HOME/wa-bridge/config.yaml > ~/.config/wa-bridge/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("WA_BRIDGE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "wa-bridge", "config.yaml")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
