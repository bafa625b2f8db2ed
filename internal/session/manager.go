// ABOUTME: Session manager that owns the WhatsApp connection lifecycle
// ABOUTME: Consumes provider events, tracks readiness, recovers on disconnect and auth failure

package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/supervise"
)

// eventQueueSize bounds provider events waiting for the session loop.
const eventQueueSize = 64

// Provider is the messaging network client the Manager drives.
type Provider interface {
	// Initialize connects and reports what happens through emit. It may
	// return before login completes; readiness arrives as an EventReady.
	Initialize(ctx context.Context, emit func(Event)) error
	// Destroy tears the connection down. Calling it twice is harmless.
	Destroy(ctx context.Context) error
	// Send delivers text to a normalized chat id.
	Send(ctx context.Context, chatID, text string) error
	// ClearStore deletes the persisted session and credentials.
	ClearStore() error
}

// Options configures a Manager.
type Options struct {
	Provider   Provider
	Supervisor *supervise.Supervisor
	Logger     *slog.Logger
	// Format rewrites outbound text before delivery. Nil sends text as is.
	Format func(string) string
}

// Manager owns the single session and its state.
type Manager struct {
	provider    Provider
	supervisor  *supervise.Supervisor
	broadcaster *Broadcaster
	format      func(string) string
	logger      *slog.Logger

	mu    sync.RWMutex
	state State

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewManager creates a Manager in the uninitialized phase.
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sup := opts.Supervisor
	if sup == nil {
		sup = supervise.New(logger)
	}

	return &Manager{
		provider:    opts.Provider,
		supervisor:  sup,
		broadcaster: NewBroadcaster(logger),
		format:      opts.Format,
		logger:      logger.With("component", "session"),
		state:       State{Phase: PhaseUninitialized, Since: time.Now()},
		events:      make(chan Event, eventQueueSize),
		done:        make(chan struct{}),
	}
}

// State returns a snapshot of the current session state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Subscribe registers for session events. See Broadcaster.Subscribe.
func (m *Manager) Subscribe(ctx context.Context) (<-chan Event, string) {
	return m.broadcaster.Subscribe(ctx)
}

// Unsubscribe removes a subscription created by Subscribe.
func (m *Manager) Unsubscribe(id string) {
	m.broadcaster.Unsubscribe(id)
}

// Start initializes the provider. A failure is logged and recorded in the
// state, never returned: the bridge keeps serving in a not-ready state.
func (m *Manager) Start(ctx context.Context) {
	m.logger.Info("initializing session")
	if err := m.provider.Initialize(ctx, m.emit); err != nil {
		m.logger.Error("session initialization failed", "error", err)
		m.recordError(fmt.Errorf("initialize: %w", err))
	}
}

// Run processes provider events until ctx is cancelled or Close is called.
// Each event is handled inside the supervisor boundary.
func (m *Manager) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.done:
			return nil
		case evt := <-m.events:
			m.supervisor.Run("session:"+string(evt.Kind), func() {
				m.handle(ctx, evt)
			})
		}
	}
}

// emit is the callback handed to the provider. It queues evt for Run and
// gives up only when the Manager is closed.
func (m *Manager) emit(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now()
	}
	select {
	case m.events <- evt:
	case <-m.done:
	}
}

func (m *Manager) handle(ctx context.Context, evt Event) {
	switch evt.Kind {
	case EventQR:
		m.transition(PhaseAwaitingLogin, func(s *State) {
			s.QRCode = evt.QRCode
		})
		m.logger.Info("qr code received, scan it to log in")
		m.broadcaster.Publish(evt)

	case EventReady:
		m.transition(PhaseReady, func(s *State) {
			s.Identity = evt.Identity
			s.QRCode = ""
			s.LastError = ""
		})
		m.logger.Info("whatsapp client ready", "identity", evt.Identity)
		m.broadcaster.Publish(evt)

	case EventMessage:
		if evt.Message == nil {
			return
		}
		m.logger.Info("new whatsapp message",
			"id", evt.Message.ID,
			"from", evt.Message.Sender,
			"length", len(evt.Message.Body),
		)
		m.broadcaster.Publish(evt)

	case EventDisconnected:
		m.transition(PhaseDisconnected, func(s *State) {
			s.Identity = ""
		})
		m.logger.Error("client disconnected", "reason", evt.Reason)
		m.broadcaster.Publish(evt)
		m.restart(ctx, false)

	case EventAuthFailure:
		m.transition(PhaseAuthFailed, func(s *State) {
			s.Identity = ""
		})
		m.logger.Error("authentication failure", "reason", evt.Reason)
		m.broadcaster.Publish(evt)
		m.restart(ctx, true)

	default:
		m.logger.Warn("ignoring unknown session event", "kind", evt.Kind)
	}
}

// restart destroys the provider and initializes it again, clearing the
// persisted store in between when clearStore is set. Every step is attempted
// once; failures are logged and recorded but do not stop later steps.
func (m *Manager) restart(ctx context.Context, clearStore bool) {
	if clearStore {
		m.logger.Info("clearing session and restarting")
	} else {
		m.logger.Info("attempting full restart")
	}

	if err := m.provider.Destroy(ctx); err != nil {
		m.logger.Error("error destroying client", "error", err)
		m.recordError(fmt.Errorf("destroy: %w", err))
	}

	if clearStore {
		if err := m.provider.ClearStore(); err != nil {
			m.logger.Error("error clearing session store", "error", err)
			m.recordError(fmt.Errorf("clear store: %w", err))
		}
	}

	m.transition(PhaseUninitialized, nil)

	if err := m.provider.Initialize(ctx, m.emit); err != nil {
		m.logger.Error("error during client restart", "error", err)
		m.recordError(fmt.Errorf("initialize: %w", err))
	}
}

// Send delivers message to recipient. Readiness is checked at call time.
func (m *Manager) Send(ctx context.Context, recipient, message string) error {
	if !m.State().Ready() {
		return ErrNotReady
	}

	chatID := NormalizeRecipient(recipient)
	text := message
	if m.format != nil {
		text = m.format(text)
	}

	if err := m.provider.Send(ctx, chatID, text); err != nil {
		return &DeliveryError{ChatID: chatID, Err: err}
	}
	return nil
}

// Close stops the event loop, destroys the provider and closes all subscriptions.
func (m *Manager) Close(ctx context.Context) error {
	var err error
	m.closeOnce.Do(func() {
		close(m.done)
		err = m.provider.Destroy(ctx)
		m.broadcaster.Close()
	})
	return err
}

// transition moves to phase, applying mutate under the lock, and logs the change.
func (m *Manager) transition(phase Phase, mutate func(*State)) {
	m.mu.Lock()
	from := m.state.Phase
	m.state.Phase = phase
	m.state.Since = time.Now()
	if mutate != nil {
		mutate(&m.state)
	}
	m.mu.Unlock()

	if from != phase {
		m.logger.Info("session state changed", "from", from, "to", phase)
	}
}

func (m *Manager) recordError(err error) {
	m.mu.Lock()
	m.state.LastError = err.Error()
	m.mu.Unlock()
}
