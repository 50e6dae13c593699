package infrastructure

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// TelegramNotifier delivers progress and status text to control chats
// through the bot API. Sends are throttled to stay inside Telegram's own
// per-chat limits; failures are logged, never propagated.
type TelegramNotifier struct {
	bot     *tgbotapi.BotAPI
	limiter *rate.Limiter
	log     zerolog.Logger
}

func NewTelegramNotifier(bot *tgbotapi.BotAPI, log zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(1), 3),
		log:     log,
	}
}

func (n *TelegramNotifier) Notify(chatID int64, text string) {
	if err := n.limiter.Wait(context.Background()); err != nil {
		return
	}
	if _, err := n.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		n.log.Warn().Err(err).Int64("chat", chatID).Msg("notify failed")
	}
}
