package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MainKeyboard builds the main inline menu.
func MainKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔗 Integrate API Session", "add_session"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Set Ad Content", "set_ad_btn"),
			tgbotapi.NewInlineKeyboardButtonData("⏱ Set Group Delay", "set_interval_btn"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Set Cycle Delay", "set_ctimer_btn"),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Clear All Sessions", "clear_sessions"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("▶️ Start Campaign", "start_campaign"),
			tgbotapi.NewInlineKeyboardButtonData("⏹ Stop Campaign", "stop_campaign"),
		),
	)
}
