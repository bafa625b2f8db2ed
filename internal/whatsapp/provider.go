// ABOUTME: whatsmeow-backed session provider with an SQLite device store
// ABOUTME: Translates whatsmeow events into session events and sends plain text messages

package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/session"
)

// StoreFile is the device store database inside the session directory.
const StoreFile = "whatsmeow.db"

// ErrNotConnected is returned by Send when no client is connected.
var ErrNotConnected = errors.New("whatsapp client not connected")

// Options configures a Provider.
type Options struct {
	// SessionDir holds the device store. It is created if missing.
	SessionDir string
	// DeviceName is shown in the phone's linked devices list.
	DeviceName string
	// IgnoreStatus drops status broadcast messages instead of reporting them.
	IgnoreStatus bool
	Logger       *slog.Logger
}

// Provider drives one whatsmeow client. It implements session.Provider.
type Provider struct {
	opts     Options
	logger   *slog.Logger
	waLogger waLog.Logger

	mu        sync.Mutex
	container *sqlstore.Container
	client    *whatsmeow.Client
	cancel    context.CancelFunc
}

var _ session.Provider = (*Provider)(nil)

// New creates a Provider. Nothing is opened until Initialize.
func New(opts Options) *Provider {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DeviceName != "" {
		store.SetOSInfo(opts.DeviceName, [3]uint32{1, 0, 0})
	}
	return &Provider{
		opts:     opts,
		logger:   logger.With("component", "whatsapp"),
		waLogger: NewLogger(logger, "whatsmeow"),
	}
}

// StorePath returns the path of the device store database.
func (p *Provider) StorePath() string {
	return filepath.Join(p.opts.SessionDir, StoreFile)
}

// Initialize opens the device store, connects, and starts reporting events.
// Without a stored device a QR login is started and each code is emitted as
// an EventQR.
func (p *Provider) Initialize(ctx context.Context, emit func(session.Event)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return errors.New("whatsapp client already initialized")
	}

	if err := os.MkdirAll(p.opts.SessionDir, 0700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", p.StorePath())
	container, err := sqlstore.New(ctx, "sqlite3", dsn, p.waLogger.Sub("Database"))
	if err != nil {
		return fmt.Errorf("opening device store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		_ = container.Close()
		return fmt.Errorf("loading device: %w", err)
	}

	client := whatsmeow.NewClient(device, p.waLogger.Sub("Client"))
	client.EnableAutoReconnect = false
	client.AddEventHandler(func(raw any) {
		if evt, ok := p.translate(raw, client); ok {
			emit(evt)
		}
	})

	loopCtx, cancel := context.WithCancel(ctx)

	if client.Store.ID == nil {
		qrCh, err := client.GetQRChannel(loopCtx)
		if err != nil {
			cancel()
			_ = container.Close()
			return fmt.Errorf("starting QR login: %w", err)
		}
		go p.watchQR(qrCh, emit)
	} else {
		p.logger.Info("resuming stored session", "device", client.Store.ID.String())
	}

	if err := client.Connect(); err != nil {
		cancel()
		client.RemoveEventHandlers()
		_ = container.Close()
		return fmt.Errorf("connecting: %w", err)
	}

	p.container = container
	p.client = client
	p.cancel = cancel
	return nil
}

// watchQR reports login codes until pairing finishes or fails.
func (p *Provider) watchQR(qrCh <-chan whatsmeow.QRChannelItem, emit func(session.Event)) {
	for item := range qrCh {
		switch item.Event {
		case whatsmeow.QRChannelEventCode:
			emit(session.QREvent(item.Code))
		case whatsmeow.QRChannelSuccess.Event:
			p.logger.Info("qr pairing succeeded")
		case whatsmeow.QRChannelTimeout.Event:
			// A fresh client produces a fresh set of codes
			emit(session.DisconnectedEvent("qr login timed out"))
		case whatsmeow.QRChannelEventError:
			reason := "qr login failed"
			if item.Error != nil {
				reason = item.Error.Error()
			}
			emit(session.AuthFailureEvent(reason))
		default:
			emit(session.AuthFailureEvent("qr login failed: " + item.Event))
		}
	}
}

// translate maps a whatsmeow event to a session event. The second result is
// false for events the session does not care about.
func (p *Provider) translate(raw any, client *whatsmeow.Client) (session.Event, bool) {
	switch evt := raw.(type) {
	case *events.Connected:
		identity := ""
		if client != nil && client.Store.ID != nil {
			identity = ChatID(*client.Store.ID)
		}
		return session.ReadyEvent(identity), true

	case *events.Disconnected:
		return session.DisconnectedEvent("connection lost"), true

	case *events.StreamReplaced:
		return session.DisconnectedEvent("stream replaced by another connection"), true

	case *events.KeepAliveTimeout:
		p.logger.Warn("keepalive timeout", "errors", evt.ErrorCount)
		return session.Event{}, false

	case *events.LoggedOut:
		return session.AuthFailureEvent("logged out: " + evt.Reason.String()), true

	case *events.ConnectFailure:
		if evt.Reason.IsLoggedOut() {
			return session.AuthFailureEvent(evt.Reason.String()), true
		}
		return session.DisconnectedEvent("connect failure: " + evt.Reason.String()), true

	case *events.TemporaryBan:
		return session.AuthFailureEvent(evt.String()), true

	case *events.Message:
		msg, ok := p.inbound(evt)
		if !ok {
			return session.Event{}, false
		}
		return session.MessageEvent(msg), true
	}
	return session.Event{}, false
}

// inbound converts a whatsmeow message to an InboundMessage. Own messages,
// optionally status broadcasts, and messages without text are dropped.
func (p *Provider) inbound(evt *events.Message) (session.InboundMessage, bool) {
	if evt.Info.IsFromMe {
		return session.InboundMessage{}, false
	}
	if p.opts.IgnoreStatus && evt.Info.Chat == types.StatusBroadcastJID {
		return session.InboundMessage{}, false
	}

	body := messageText(evt.Message)
	if body == "" {
		p.logger.Debug("skipping message without text", "id", evt.Info.ID, "type", evt.Info.Type)
		return session.InboundMessage{}, false
	}

	return session.InboundMessage{
		ID:        evt.Info.ID,
		Sender:    ChatID(evt.Info.Chat),
		Body:      body,
		PushName:  evt.Info.PushName,
		Timestamp: evt.Info.Timestamp,
	}, true
}

// messageText returns the text body of msg, including media captions.
func messageText(msg *waE2E.Message) string {
	switch {
	case msg.GetConversation() != "":
		return msg.GetConversation()
	case msg.GetExtendedTextMessage().GetText() != "":
		return msg.GetExtendedTextMessage().GetText()
	case msg.GetImageMessage().GetCaption() != "":
		return msg.GetImageMessage().GetCaption()
	case msg.GetVideoMessage().GetCaption() != "":
		return msg.GetVideoMessage().GetCaption()
	case msg.GetDocumentMessage().GetCaption() != "":
		return msg.GetDocumentMessage().GetCaption()
	}
	return ""
}

// Destroy disconnects the client and closes the device store. It is a no-op
// when nothing is initialized.
func (p *Provider) Destroy(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		return nil
	}

	p.cancel()
	p.client.RemoveEventHandlers()
	p.client.Disconnect()
	err := p.container.Close()

	p.client = nil
	p.container = nil
	p.cancel = nil

	if err != nil {
		return fmt.Errorf("closing device store: %w", err)
	}
	return nil
}

// Send delivers text to chatID ("<number>@c.us" or any JID).
func (p *Provider) Send(ctx context.Context, chatID, text string) error {
	p.mu.Lock()
	client := p.client
	p.mu.Unlock()

	if client == nil || !client.IsConnected() {
		return ErrNotConnected
	}

	jid, err := ParseChatID(chatID)
	if err != nil {
		return err
	}

	resp, err := client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: proto.String(text),
	})
	if err != nil {
		return err
	}

	p.logger.Debug("message delivered", "to", chatID, "id", resp.ID)
	return nil
}

// ClearStore deletes the device store so the next Initialize starts a new
// QR login. It refuses while a client is open.
func (p *Provider) ClearStore() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return errors.New("cannot clear store while client is active")
	}

	dbPath := p.StorePath()
	for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", filepath.Base(path), err)
		}
	}
	p.logger.Info("session store cleared", "path", dbPath)
	return nil
}
