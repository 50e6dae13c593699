package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/skip2/go-qrcode"
)

// The session-integration flow is a small per-chat state machine: the user
// asks to integrate an account, supplies a phone number (or asks for a QR
// code), and the flow finishes asynchronously when the device pairs.
type convState int

const (
	stateAwaitingPhone convState = iota
	stateAwaitingPair
)

type conversation struct {
	state convState
}

// Conversations tracks in-flight integration flows keyed by chat.
type Conversations struct {
	mu     sync.Mutex
	active map[int64]*conversation
}

func NewConversations() *Conversations {
	return &Conversations{active: make(map[int64]*conversation)}
}

func (c *Conversations) Begin(chatID int64) {
	c.mu.Lock()
	c.active[chatID] = &conversation{state: stateAwaitingPhone}
	c.mu.Unlock()
}

func (c *Conversations) Active(chatID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.active[chatID]
	return ok
}

func (c *Conversations) get(chatID int64) *conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active[chatID]
}

func (c *Conversations) End(chatID int64) {
	c.mu.Lock()
	delete(c.active, chatID)
	c.mu.Unlock()
}

// handleConversationText advances the integration flow with the user's
// input. The phone step accepts either a phone number or the word "qr".
func (b *Bot) handleConversationText(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	conv := b.convs.get(chatID)
	if conv == nil {
		return
	}

	switch conv.state {
	case stateAwaitingPhone:
		input := strings.TrimSpace(msg.Text)
		if strings.EqualFold(input, "qr") {
			b.startQRPairing(chatID, conv)
			return
		}
		b.startPhonePairing(chatID, conv, input)
	case stateAwaitingPair:
		b.send(chatID, "⏳ Still waiting for the device to finish pairing. Use /cancel to abort and start over.")
	}
}

func (b *Bot) startPhonePairing(chatID int64, conv *conversation, phone string) {
	code, err := b.pairing.StartPhonePair(context.Background(), chatID, phone)
	if err != nil {
		b.log.Error().Err(err).Msg("phone pairing failed")
		b.convs.End(chatID)
		b.send(chatID, "❌ Integration Failed: Error requesting a pairing code. Please check the number and try again.")
		b.sendMenu(chatID)
		return
	}
	conv.state = stateAwaitingPair
	b.send(chatID, fmt.Sprintf(
		"✅ Success! Pairing code: %s\n\nOn the account's phone open Settings → Linked Devices → Link a Device → Link with phone number, and enter the code.", code))
}

func (b *Bot) startQRPairing(chatID int64, conv *conversation) {
	payload, err := b.pairing.StartQRPair(context.Background(), chatID)
	if err != nil {
		b.log.Error().Err(err).Msg("qr pairing failed")
		b.convs.End(chatID)
		b.send(chatID, "❌ Integration Failed: could not obtain a QR code. Please try again.")
		b.sendMenu(chatID)
		return
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		b.log.Error().Err(err).Msg("qr render failed")
		b.convs.End(chatID)
		b.send(chatID, "❌ Integration Failed: could not render the QR code.")
		return
	}

	conv.state = stateAwaitingPair
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "qr.png", Bytes: png})
	photo.Caption = "📷 Scan this code from the account's phone: Settings → Linked Devices → Link a Device. It expires after a short while."
	if _, err := b.api.Send(photo); err != nil {
		b.log.Warn().Err(err).Msg("qr photo send failed")
	}
}
