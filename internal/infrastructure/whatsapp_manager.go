package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/SoulxxMerchant/New/internal/interfaces"
)

const connectTimeout = 10 * time.Second

// WhatsAppManager owns the shared device store and opens delivery sessions
// from stored credentials. A credential is the JID of a paired device; the
// session keys themselves live in the sqlite device store.
type WhatsAppManager struct {
	container *sqlstore.Container
	log       zerolog.Logger

	mu      sync.Mutex
	pending map[int64]*whatsmeow.Client // in-flight pairings keyed by control chat

	// OnPaired is invoked when a pairing started from a chat completes.
	// The credential is the new device's JID string.
	OnPaired func(chatID int64, credential string)
}

func NewWhatsAppManager(dbPath string, log zerolog.Logger) (*WhatsAppManager, error) {
	dbLog := waLog.Stdout("Database", "INFO", true)
	container, err := sqlstore.New(context.Background(), "sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)", dbLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open device store: %w", err)
	}
	return &WhatsAppManager{
		container: container,
		log:       log,
		pending:   make(map[int64]*whatsmeow.Client),
	}, nil
}

// Connect opens a delivery session for a stored credential. Unknown or
// unreachable devices fail here, which the cycle runner treats as a
// skip-this-session error.
func (m *WhatsAppManager) Connect(ctx context.Context, credential string) (interfaces.DeliverySession, error) {
	jid, err := types.ParseJID(credential)
	if err != nil {
		return nil, fmt.Errorf("invalid session credential: %v", err)
	}

	device, err := m.container.GetDevice(ctx, jid)
	if err != nil {
		return nil, fmt.Errorf("device lookup failed: %w", err)
	}
	if device == nil {
		return nil, fmt.Errorf("no stored device for %s", credential)
	}

	client := whatsmeow.NewClient(device, waLog.Stdout("Session", "INFO", true))
	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("connect failed: %w", err)
	}
	if !client.WaitForConnection(connectTimeout) {
		client.Disconnect()
		return nil, errors.New("connection not established in time")
	}
	return &waSession{client: client}, nil
}

// StartPhonePair begins pairing a new account by phone number. It returns
// the pairing code the user must enter on their phone; completion arrives
// asynchronously through OnPaired.
func (m *WhatsAppManager) StartPhonePair(ctx context.Context, chatID int64, phone string) (string, error) {
	client := m.newPairingClient(chatID)
	if err := client.Connect(); err != nil {
		return "", fmt.Errorf("connect failed: %w", err)
	}

	code, err := client.PairPhone(ctx, phone, true, whatsmeow.PairClientChrome, "Chrome (Linux)")
	if err != nil {
		client.Disconnect()
		return "", fmt.Errorf("pairing request failed: %w", err)
	}

	m.trackPending(chatID, client)
	return code, nil
}

// StartQRPair begins pairing via QR scan and returns the raw QR payload for
// rendering. Completion arrives through OnPaired.
func (m *WhatsAppManager) StartQRPair(ctx context.Context, chatID int64) (string, error) {
	client := m.newPairingClient(chatID)

	qrChan, err := client.GetQRChannel(ctx)
	if err != nil {
		return "", fmt.Errorf("qr channel: %w", err)
	}
	if err := client.Connect(); err != nil {
		return "", fmt.Errorf("connect failed: %w", err)
	}

	select {
	case evt, ok := <-qrChan:
		if !ok || evt.Event != "code" {
			client.Disconnect()
			return "", fmt.Errorf("no QR code available (event %q)", evt.Event)
		}
		m.trackPending(chatID, client)
		return evt.Code, nil
	case <-time.After(connectTimeout):
		client.Disconnect()
		return "", errors.New("timed out waiting for QR code")
	}
}

// trackPending records an in-flight pairing client for a chat.
func (m *WhatsAppManager) trackPending(chatID int64, client *whatsmeow.Client) {
	m.mu.Lock()
	m.pending[chatID] = client
	m.mu.Unlock()
}

// CancelPair drops an in-flight pairing for a chat, if any.
func (m *WhatsAppManager) CancelPair(chatID int64) {
	m.mu.Lock()
	client := m.pending[chatID]
	delete(m.pending, chatID)
	m.mu.Unlock()
	if client != nil {
		client.Disconnect()
	}
}

func (m *WhatsAppManager) newPairingClient(chatID int64) *whatsmeow.Client {
	device := m.container.NewDevice()
	client := whatsmeow.NewClient(device, waLog.Stdout("Pairing", "INFO", true))
	client.AddEventHandler(func(evt interface{}) {
		if p, ok := evt.(*events.PairSuccess); ok {
			m.finishPair(chatID, p.ID.String())
		}
	})
	return client
}

func (m *WhatsAppManager) finishPair(chatID int64, credential string) {
	m.mu.Lock()
	client := m.pending[chatID]
	delete(m.pending, chatID)
	m.mu.Unlock()

	m.log.Info().Int64("chat", chatID).Str("device", credential).Msg("pairing completed")

	if client != nil {
		// Give the post-pair handshake a moment before dropping the
		// connection; delivery sessions reconnect from the store.
		go func() {
			time.Sleep(3 * time.Second)
			client.Disconnect()
		}()
	}
	if m.OnPaired != nil {
		m.OnPaired(chatID, credential)
	}
}
