package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/SoulxxMerchant/New/internal/config"
	"github.com/SoulxxMerchant/New/internal/infrastructure"
	"github.com/SoulxxMerchant/New/internal/repository"
	"github.com/SoulxxMerchant/New/internal/usecases"
)

// Bot is the control surface: it polls Telegram for commands and button
// presses and delegates into the campaign, quota and session services.
type Bot struct {
	api       *tgbotapi.BotAPI
	cfg       *config.Config
	campaigns *usecases.CampaignService
	quotas    *usecases.QuotaService
	sessions  *repository.SessionStore
	pairing   *infrastructure.WhatsAppManager
	convs     *Conversations
	clicks    *ClickGuard
	log       zerolog.Logger
}

func NewBot(api *tgbotapi.BotAPI, cfg *config.Config, campaigns *usecases.CampaignService, quotas *usecases.QuotaService, sessions *repository.SessionStore, pairing *infrastructure.WhatsAppManager, log zerolog.Logger) *Bot {
	b := &Bot{
		api:       api,
		cfg:       cfg,
		campaigns: campaigns,
		quotas:    quotas,
		sessions:  sessions,
		pairing:   pairing,
		convs:     NewConversations(),
		clicks:    NewClickGuard(),
		log:       log,
	}
	pairing.OnPaired = b.handlePaired
	return b
}

// Run polls for updates until the update channel closes. Command and
// callback handling is synchronous per update; campaign cycles run on their
// own timer goroutines and never block this loop.
func (b *Bot) Run() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.log.Info().Str("bot", b.api.Self.UserName).Msg("telegram polling started")

	for update := range updates {
		switch {
		case update.Message != nil:
			b.handleMessage(update.Message)
		case update.CallbackQuery != nil:
			b.handleCallback(update.CallbackQuery)
		}
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}
	// Plain text only matters inside the session-integration conversation.
	if b.convs.Active(msg.Chat.ID) {
		b.handleConversationText(msg)
	}
}

func (b *Bot) handlePaired(chatID int64, credential string) {
	b.convs.End(chatID)
	if err := b.sessions.Add(credential); err != nil {
		b.log.Error().Err(err).Msg("failed to persist new session")
		b.send(chatID, "❌ Integration Failed: the session could not be stored. Please try again.")
		return
	}
	b.send(chatID, "🎉 Session Integrated Successfully! The account is ready for use in your campaigns.")
	b.sendMenu(chatID)
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Warn().Err(err).Int64("chat", chatID).Msg("send failed")
	}
}

func (b *Bot) sendMenu(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "Please select the next action:")
	msg.ReplyMarkup = MainKeyboard()
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn().Err(err).Int64("chat", chatID).Msg("menu send failed")
	}
}
