// ABOUTME: Wires the session, forwarder, gateway and QR printer into one running bridge
// ABOUTME: Owns startup order and shutdown of every long-lived component

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fatih/color"

	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/config"
	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/dedupe"
	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/format"
	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/forward"
	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/gateway"
	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/session"
	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/supervise"
	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/whatsapp"
)

// closeTimeout bounds provider teardown on shutdown.
const closeTimeout = 10 * time.Second

// bridge is one running wa-bridge process.
type bridge struct {
	supervisor *supervise.Supervisor
	window     *dedupe.Window
	manager    *session.Manager
	forwarder  *forward.Forwarder
	gateway    *gateway.Gateway
	out        io.Writer
	logger     *slog.Logger
}

// newBridge assembles the components around provider. QR codes and status
// lines are written to out.
func newBridge(cfg *config.Config, provider session.Provider, backendURL string, out io.Writer, logger *slog.Logger) *bridge {
	sup := supervise.New(logger)
	window := dedupe.New(cfg.Bridge.DedupeTTL, cfg.Bridge.DedupeCapacity)

	var formatter func(string) string
	if cfg.Bridge.Markdown {
		formatter = format.New().Convert
	}

	mgr := session.NewManager(session.Options{
		Provider:   provider,
		Supervisor: sup,
		Logger:     logger,
		Format:     formatter,
	})

	return &bridge{
		supervisor: sup,
		window:     window,
		manager:    mgr,
		forwarder: forward.New(forward.Config{
			URL:        backendURL,
			Timeout:    cfg.Backend.Timeout,
			Dedupe:     window,
			Supervisor: sup,
			Logger:     logger,
		}),
		gateway: gateway.New(cfg.Server.HTTPAddr, mgr, sup, logger),
		out:     out,
		logger:  logger,
	}
}

// Run starts everything, serves until ctx is cancelled or the HTTP server
// fails, then tears down in reverse order.
func (b *bridge) Run(ctx context.Context) error {
	defer b.window.Close()

	// Subscriptions exist before the provider can emit anything
	msgEvents, _ := b.manager.Subscribe(ctx)
	uiEvents, _ := b.manager.Subscribe(ctx)

	b.supervisor.Go("forwarder", func() {
		_ = b.forwarder.Consume(ctx, msgEvents)
	})
	b.supervisor.Go("qr-printer", func() {
		b.printStatus(uiEvents)
	})

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = b.manager.Run(ctx)
	}()

	started := make(chan struct{})
	go func() {
		defer close(started)
		b.supervisor.Run("session:start", func() { b.manager.Start(ctx) })
	}()

	err := b.gateway.Run(ctx)

	<-started
	closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if cerr := b.manager.Close(closeCtx); cerr != nil {
		b.logger.Error("error closing session", "error", cerr)
	}
	<-loopDone
	b.supervisor.Wait()

	b.logger.Info("bridge stopped")
	return err
}

// printStatus renders login QR codes and readiness for the operator.
func (b *bridge) printStatus(events <-chan session.Event) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	for evt := range events {
		switch evt.Kind {
		case session.EventQR:
			fmt.Fprintln(b.out)
			yellow.Fprintln(b.out, "    Scan this QR code in WhatsApp > Linked devices:")
			if err := whatsapp.RenderQR(b.out, evt.QRCode); err != nil {
				b.logger.Error("failed to render QR code", "error", err)
			}
		case session.EventReady:
			green.Fprintf(b.out, "    ✓ WhatsApp client is ready (%s)\n", evt.Identity)
		case session.EventAuthFailure:
			yellow.Fprintf(b.out, "    ! Authentication failed (%s), a new QR code will follow\n", evt.Reason)
		}
	}
}
