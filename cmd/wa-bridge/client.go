// ABOUTME: Operator commands that talk to a running bridge or its session store
// ABOUTME: send posts to /send, health reads the probes, logout clears the stored device

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/config"
	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/gateway"
	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/whatsapp"
)

// requestTimeout bounds CLI calls to the local API.
const requestTimeout = 30 * time.Second

// apiBaseURL turns a listen address into a URL a client can dial.
func apiBaseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// apiError extracts the {"error":...} message from a failed response.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("%s (status %d)", payload.Error, resp.StatusCode)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

func newSendCmd(configPath func() string) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "send --to NUMBER MESSAGE...",
		Short: "Send a message through a running bridge",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(configPath())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return runSend(cmd.Context(), apiBaseURL(cfg.Server.HTTPAddr), to, strings.Join(args, " "), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&to, "to", "t", "", "recipient number or chat id (required)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func runSend(ctx context.Context, baseURL, number, message string, out io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	body, err := json.Marshal(gateway.SendRequest{Number: number, Message: message})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	color.New(color.FgGreen).Fprintf(out, "✓ sent to %s\n", number)
	return nil
}

func newHealthCmd(configPath func() string) *cobra.Command {
	var ready bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check a running bridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadOrDefault(configPath())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return runHealth(cmd.Context(), apiBaseURL(cfg.Server.HTTPAddr), ready, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&ready, "ready", false, "fail unless the session can send")
	return cmd
}

func runHealth(ctx context.Context, baseURL string, requireReady bool, out io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var health gateway.HealthResponse
	if err := getJSON(ctx, baseURL+"/health", &health, http.StatusOK); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	var ready gateway.ReadyResponse
	if err := getJSON(ctx, baseURL+"/health/ready", &ready, http.StatusOK, http.StatusServiceUnavailable); err != nil {
		return fmt.Errorf("readiness check failed: %w", err)
	}

	fmt.Fprintf(out, "status:   %s\n", health.Status)
	fmt.Fprintf(out, "phase:    %s\n", ready.Phase)
	if ready.Identity != "" {
		fmt.Fprintf(out, "identity: %s\n", ready.Identity)
	}
	if ready.LastError != "" {
		fmt.Fprintf(out, "error:    %s\n", ready.LastError)
	}
	fmt.Fprintf(out, "panics:   %d\n", health.Panics)

	if requireReady && !ready.Ready {
		return errors.New("session not ready")
	}
	return nil
}

// getJSON decodes the body of a GET into v when the status is one of accept.
func getJSON(ctx context.Context, url string, v any, accept ...int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	for _, status := range accept {
		if resp.StatusCode == status {
			return json.NewDecoder(resp.Body).Decode(v)
		}
	}
	return apiError(resp)
}

func newLogoutCmd(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the stored WhatsApp session (stop the bridge first)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadOrDefault(configPath())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return runLogout(cfg, cmd.OutOrStdout())
		},
	}
}

func runLogout(cfg *config.Config, out io.Writer) error {
	logger := setupLogger(cfg.Logging, out)
	provider := whatsapp.New(whatsapp.Options{
		SessionDir: cfg.Session.Dir,
		Logger:     logger,
	})

	if err := provider.ClearStore(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	color.New(color.FgGreen).Fprintf(out, "✓ Session cleared; the next start will show a new QR code\n")
	return nil
}
