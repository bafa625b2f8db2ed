// ABOUTME: init command: interactive config file setup
// ABOUTME: Prompts for the send API address, backend location and session directory

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/config"
)

func newInitCmd(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a config file interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(configPath(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// prompt asks a question and returns the trimmed answer or def when blank.
func prompt(reader *bufio.Reader, out io.Writer, question, def string) string {
	green := color.New(color.FgGreen)
	green.Fprint(out, "    ▶ ")
	if def != "" {
		fmt.Fprintf(out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(out, "%s: ", question)
	}

	answer, _ := reader.ReadString('\n')
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return def
	}
	return answer
}

func runInit(configPath string, in io.Reader, out io.Writer) error {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Fprint(out, banner)
	fmt.Fprintln(out, "    Interactive Setup")
	fmt.Fprintln(out, "    -----------------")
	fmt.Fprintln(out)

	reader := bufio.NewReader(in)

	if _, err := os.Stat(configPath); err == nil {
		yellow.Fprintf(out, "    Config already exists at %s\n", configPath)
		fmt.Fprint(out, "    Overwrite? [y/N]: ")
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Fprintln(out, "    Aborted.")
			return nil
		}
		fmt.Fprintln(out)
	}

	defaults := config.Default()

	httpAddr := prompt(reader, out, "Send API listen address", defaults.Server.HTTPAddr)
	backendURL := prompt(reader, out, "Backend URL (blank to read the port file)", "")
	portFile := defaults.Backend.PortFile
	if backendURL == "" {
		portFile = prompt(reader, out, "Backend port file", defaults.Backend.PortFile)
	}
	sessionDir := prompt(reader, out, "Session directory", defaults.Session.Dir)
	markdown := strings.ToLower(prompt(reader, out, "Convert markdown replies to WhatsApp formatting? [y/N]", "n")) == "y"

	content := fmt.Sprintf(`# wa-bridge configuration
# Generated by wa-bridge init

server:
  # POST /send listens here; keep it on a local interface
  http_addr: %q

backend:
  # Full URL for inbound messages. When empty, http://<host>:<port><path>
  # is used with the port read from port_file (default_port if unreadable).
  url: %q
  host: "localhost"
  port_file: %q
  default_port: %d
  path: "/incoming"
  timeout: "30s"

session:
  dir: %q
  device_name: "wa-bridge"

bridge:
  markdown: %t
  ignore_status: true
  dedupe_ttl: "10m"
  dedupe_capacity: 10000

logging:
  level: "info"
  format: "text"
`, httpAddr, backendURL, portFile, config.DefaultBackendPort, sessionDir, markdown)

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	// Catch bad answers now rather than on first serve
	if _, err := config.Load(configPath); err != nil {
		return fmt.Errorf("generated config is invalid: %w", err)
	}

	fmt.Fprintln(out)
	green.Fprintf(out, "    ✓ Config written to %s\n", configPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "    Next steps:")
	fmt.Fprintln(out, "    1. Run: wa-bridge")
	fmt.Fprintln(out, "    2. Scan the QR code with WhatsApp on your phone")
	fmt.Fprintln(out)

	return nil
}
