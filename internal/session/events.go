// ABOUTME: Session events and the in-memory fan-out broadcaster
// ABOUTME: Providers emit events; subscribers such as the forwarder receive copies

package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// subscriberBufferSize is the channel buffer for each subscriber.
const subscriberBufferSize = 64

// EventKind identifies what a provider reported.
type EventKind string

const (
	EventQR           EventKind = "qr"
	EventReady        EventKind = "ready"
	EventMessage      EventKind = "message"
	EventDisconnected EventKind = "disconnected"
	EventAuthFailure  EventKind = "auth_failure"
)

// InboundMessage is one text message received by the session.
type InboundMessage struct {
	ID string
	// Sender is the chat id the reply should go to, e.g. "15551234567@c.us".
	Sender    string
	Body      string
	PushName  string
	Timestamp time.Time
}

// Event is a single provider occurrence. Only the fields relevant to Kind are set.
type Event struct {
	Kind     EventKind
	QRCode   string
	Identity string
	Reason   string
	Message  *InboundMessage
	At       time.Time
}

// QREvent reports a login code to display.
func QREvent(code string) Event {
	return Event{Kind: EventQR, QRCode: code, At: time.Now()}
}

// ReadyEvent reports an authenticated, connected session.
func ReadyEvent(identity string) Event {
	return Event{Kind: EventReady, Identity: identity, At: time.Now()}
}

// MessageEvent reports an inbound message.
func MessageEvent(msg InboundMessage) Event {
	return Event{Kind: EventMessage, Message: &msg, At: time.Now()}
}

// DisconnectedEvent reports a lost connection.
func DisconnectedEvent(reason string) Event {
	return Event{Kind: EventDisconnected, Reason: reason, At: time.Now()}
}

// AuthFailureEvent reports a rejected or revoked login.
func AuthFailureEvent(reason string) Event {
	return Event{Kind: EventAuthFailure, Reason: reason, At: time.Now()}
}

// Broadcaster provides in-memory pub/sub for session events.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	closed      bool
	logger      *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for default.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[string]chan Event),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers a subscriber and returns its channel and id. The
// subscription is removed and the channel closed when ctx is cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan Event, string) {
	subID := uuid.New().String()
	ch := make(chan Event, subscriberBufferSize)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, subID
	}
	b.subscribers[subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "sub_id", subID)

	go func() {
		<-ctx.Done()
		b.Unsubscribe(subID)
	}()

	return ch, subID
}

// Publish delivers evt to every subscriber without blocking. Subscribers
// whose buffers are full miss the event.
func (b *Broadcaster) Publish(evt Event) {
	// Sends happen under the read lock so Unsubscribe cannot close a
	// channel mid-send; every send is non-blocking.
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
			b.logger.Warn("dropped event for slow subscriber",
				"sub_id", id,
				"kind", evt.Kind)
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subscribers[subID]
	if !ok {
		return
	}
	delete(b.subscribers, subID)
	close(ch)

	b.logger.Debug("subscriber removed", "sub_id", subID)
}

// Len returns the number of active subscribers.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels. Later subscriptions get a closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
	b.closed = true
}
