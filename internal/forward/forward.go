// ABOUTME: Relays inbound WhatsApp messages to the backend over HTTP
// ABOUTME: Subscribes to session events and POSTs {message, number} once per message id

// Package forward delivers inbound messages to the backend's /incoming
// endpoint. Delivery is best effort: a failed POST is logged and dropped,
// never retried, and never surfaced to the session.
package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/dedupe"
	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/session"
	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/supervise"
)

// maxErrorBody caps how much of a failed response is kept for the log.
const maxErrorBody = 512

// Payload is the JSON body POSTed to the backend.
type Payload struct {
	Message string `json:"message"`
	Number  string `json:"number"`
}

// Source is where the forwarder gets its events from; *session.Manager satisfies it.
type Source interface {
	Subscribe(ctx context.Context) (<-chan session.Event, string)
	Unsubscribe(id string)
}

// Config configures a Forwarder.
type Config struct {
	URL     string
	Timeout time.Duration
	// Dedupe drops message ids already forwarded. Nil forwards everything.
	Dedupe     *dedupe.Window
	Supervisor *supervise.Supervisor
	Logger     *slog.Logger
	Client     *http.Client
}

// Forwarder POSTs inbound messages to the backend.
type Forwarder struct {
	url        string
	client     *http.Client
	dedupe     *dedupe.Window
	supervisor *supervise.Supervisor
	logger     *slog.Logger
}

// New creates a Forwarder.
func New(cfg Config) *Forwarder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	sup := cfg.Supervisor
	if sup == nil {
		sup = supervise.New(logger)
	}
	return &Forwarder{
		url:        cfg.URL,
		client:     client,
		dedupe:     cfg.Dedupe,
		supervisor: sup,
		logger:     logger.With("component", "forwarder"),
	}
}

// URL returns the backend endpoint messages are sent to.
func (f *Forwarder) URL() string {
	return f.url
}

// Run subscribes to src and forwards every message event until ctx is done.
func (f *Forwarder) Run(ctx context.Context, src Source) error {
	events, subID := src.Subscribe(ctx)
	defer src.Unsubscribe(subID)
	return f.Consume(ctx, events)
}

// Consume forwards message events from an existing subscription until ctx is
// done or events is closed. Use it when the subscription must exist before
// the session starts.
func (f *Forwarder) Consume(ctx context.Context, events <-chan session.Event) error {
	f.logger.Info("forwarding inbound messages", "url", f.url)

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			f.HandleEvent(ctx, evt)
		}
	}
}

// HandleEvent forwards evt in the background if it is a message. It never
// blocks on the network and never reports failure to the caller.
func (f *Forwarder) HandleEvent(ctx context.Context, evt session.Event) {
	if evt.Kind != session.EventMessage || evt.Message == nil {
		return
	}
	msg := *evt.Message

	if f.dedupe != nil && msg.ID != "" && f.dedupe.Seen(msg.ID) {
		f.logger.Debug("skipping duplicate message", "id", msg.ID)
		return
	}

	f.supervisor.Go("forward:"+msg.ID, func() {
		if err := f.Forward(ctx, msg); err != nil {
			f.logger.Error("failed to forward to agent",
				"id", msg.ID,
				"from", msg.Sender,
				"error", err,
			)
		}
	})
}

// Wait blocks until in-flight forwards have finished.
func (f *Forwarder) Wait() {
	f.supervisor.Wait()
}

// Forward POSTs one message to the backend and reports the outcome.
func (f *Forwarder) Forward(ctx context.Context, msg session.InboundMessage) error {
	body, err := json.Marshal(Payload{Message: msg.Body, Number: msg.Sender})
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	f.logger.Info("forwarding message to agent", "id", msg.ID, "number", msg.Sender)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("backend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
