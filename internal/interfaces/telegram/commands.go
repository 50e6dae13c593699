package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/SoulxxMerchant/New/internal/usecases"
)

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		b.convs.End(msg.Chat.ID)
		reply := tgbotapi.NewMessage(msg.Chat.ID, "👋 Welcome to the Nexus API Client. Select an action below to manage your campaign:")
		reply.ReplyMarkup = MainKeyboard()
		if _, err := b.api.Send(reply); err != nil {
			b.log.Warn().Err(err).Msg("start reply failed")
		}
	case "stop":
		b.stopCampaign(msg.Chat.ID)
		b.sendMenu(msg.Chat.ID)
	case "help":
		b.sendHelp(msg.From.ID, msg.Chat.ID)
	case "cancel":
		b.pairing.CancelPair(msg.Chat.ID)
		b.convs.End(msg.Chat.ID)
		b.send(msg.Chat.ID, "Integration cancelled.")
		b.sendMenu(msg.Chat.ID)
	case "setad":
		b.setAd(msg.Chat.ID, args)
	case "setinterval":
		b.setMessageDelay(msg.Chat.ID, args)
	case "setctimer":
		b.setCycleDelay(msg.Chat.ID, args)
	case "broadcast":
		if !b.requireAdmin(msg) {
			return
		}
		b.adminBroadcast(msg.Chat.ID, args)
	case "ban":
		if !b.requireAdmin(msg) {
			return
		}
		b.setBanned(msg.Chat.ID, args, true)
	case "unban":
		if !b.requireAdmin(msg) {
			return
		}
		b.setBanned(msg.Chat.ID, args, false)
	case "setpremium":
		if !b.requireAdmin(msg) {
			return
		}
		b.setPremium(msg.Chat.ID, args)
	}
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	if !b.clicks.Allow(chatID) {
		b.api.Request(tgbotapi.NewCallback(cb.ID, "Please wait..."))
		return
	}
	b.api.Request(tgbotapi.NewCallback(cb.ID, ""))

	// Replace the pressed menu so the buttons cannot be re-fired from an
	// old message; a fresh menu is sent after the action.
	edit := tgbotapi.NewEditMessageText(chatID, cb.Message.MessageID,
		fmt.Sprintf("Action '%s' selected. Please wait or proceed with the required input...", cb.Data))
	if _, err := b.api.Send(edit); err != nil {
		b.log.Warn().Err(err).Int64("chat", chatID).Msg("menu edit failed")
	}

	status := b.campaigns.Status()

	switch cb.Data {
	case "add_session":
		b.convs.Begin(chatID)
		b.send(chatID, "➡️ Please enter the phone number (e.g., +1234567890) of the account you wish to integrate for API access, or send 'qr' to pair by QR code.")
		return // menu comes back once the flow resolves
	case "set_ad_btn":
		b.send(chatID, fmt.Sprintf("📝 Current Ad Content: %s\nTo change, please use the command: /setad <your new ad message>", status.Config.AdMessage))
	case "set_interval_btn":
		b.send(chatID, fmt.Sprintf("⏱ Current Group Delay: %d seconds.\nTo change, please use the command: /setinterval <seconds>", status.Config.MessageDelaySeconds))
	case "set_ctimer_btn":
		b.send(chatID, fmt.Sprintf("🔄 Current Cycle Delay: %d seconds.\nTo change, please use the command: /setctimer <seconds>", status.Config.CycleDelaySeconds))
	case "start_campaign":
		b.startCampaign(cb.From.ID, chatID)
	case "stop_campaign":
		b.stopCampaign(chatID)
	case "clear_sessions":
		b.clearSessions(chatID)
	}

	b.sendMenu(chatID)
}

func (b *Bot) requireAdmin(msg *tgbotapi.Message) bool {
	if !b.cfg.IsAdmin(msg.From.ID) {
		b.send(msg.Chat.ID, "❌ Access Denied. This command is for administrators only.")
		return false
	}
	return true
}

func (b *Bot) startCampaign(userID, chatID int64) {
	err := b.campaigns.Start(userID, chatID)
	switch {
	case errors.Is(err, usecases.ErrCampaignActive):
		b.send(chatID, "⚠️ The campaign is already running. Use 'Stop Campaign' if you wish to halt it.")
	case errors.Is(err, usecases.ErrNoSessions):
		b.send(chatID, "❌ No integrated sessions found. Please use 'Integrate API Session' first.")
	case errors.Is(err, usecases.ErrUserBanned):
		b.send(chatID, "❌ You are currently banned from starting campaigns.")
	case errors.Is(err, usecases.ErrQuotaExhausted):
		limit := b.quotas.Limit(b.quotas.GetOrCreate(userID))
		b.send(chatID, fmt.Sprintf("🛑 Daily Limit Reached! You have sent the maximum allowed messages (%d) today. Please wait until tomorrow to start a new campaign.", limit))
	case err == nil:
		status := b.campaigns.Status()
		b.send(chatID, fmt.Sprintf("🚀 Campaign Initiated!\n\nSessions in Use: %d\nGroup Delay: %ds\nCycle Timer: %ds",
			status.Sessions, status.Config.MessageDelaySeconds, status.Config.CycleDelaySeconds))
	}
}

func (b *Bot) stopCampaign(chatID int64) {
	if err := b.campaigns.Stop(); errors.Is(err, usecases.ErrCampaignInactive) {
		b.send(chatID, "⚠️ The campaign is currently inactive or was not started.")
		return
	}
	b.send(chatID, "🛑 Campaign Successfully Halted. The repeating task has been removed from the queue.")
}

func (b *Bot) clearSessions(chatID int64) {
	if b.sessions.Count() == 0 {
		b.send(chatID, "⚠️ No sessions are currently integrated to clear.")
		return
	}
	count, err := b.sessions.Clear()
	if err != nil {
		b.log.Error().Err(err).Msg("clearing sessions file failed")
	}
	b.send(chatID, fmt.Sprintf("🗑️ Success! All %d integrated API sessions have been permanently cleared from storage.", count))
}

func (b *Bot) setAd(chatID int64, args string) {
	if args == "" {
		status := b.campaigns.Status()
		b.send(chatID, fmt.Sprintf("📝 Current Ad Content: %s\nTo change, please use the command: /setad <your new ad message>", status.Config.AdMessage))
		return
	}
	b.campaigns.SetAdMessage(args)
	b.send(chatID, fmt.Sprintf("✅ Ad Content updated successfully. New message: %s", args))
}

func (b *Bot) setMessageDelay(chatID int64, args string) {
	if args == "" {
		status := b.campaigns.Status()
		b.send(chatID, fmt.Sprintf("⏱ Current Group Delay: %d seconds.\nTo change, please use the command: /setinterval <seconds>", status.Config.MessageDelaySeconds))
		return
	}
	seconds, err := strconv.Atoi(args)
	if err != nil {
		b.send(chatID, "❌ Invalid input. Please enter a whole number in seconds.")
		return
	}
	effective, clamped := b.campaigns.SetMessageDelay(seconds)
	if clamped {
		b.send(chatID, "⚠️ Minimum delay enforced. Setting Group Delay to 5 seconds.")
	}
	b.send(chatID, fmt.Sprintf("✅ Group Delay (Inter-Group Delay) set to %d seconds.", effective))
}

func (b *Bot) setCycleDelay(chatID int64, args string) {
	if args == "" {
		status := b.campaigns.Status()
		b.send(chatID, fmt.Sprintf("🔄 Current Cycle Delay: %d seconds.\nTo change, please use the command: /setctimer <seconds>", status.Config.CycleDelaySeconds))
		return
	}
	seconds, err := strconv.Atoi(args)
	if err != nil {
		b.send(chatID, "❌ Invalid input. Please enter a whole number in seconds.")
		return
	}
	effective, clamped, rescheduled := b.campaigns.SetCycleDelay(seconds)
	if clamped {
		b.send(chatID, "⚠️ Minimum cycle timer enforced. Setting Cycle Delay to 60 seconds.")
	}
	if rescheduled {
		b.send(chatID, fmt.Sprintf("✅ Cycle Delay set to %d seconds. Campaign job rescheduled immediately with new interval.", effective))
	} else {
		b.send(chatID, fmt.Sprintf("✅ Cycle Delay (Delay between cycles) set to %d seconds.", effective))
	}
}

func (b *Bot) sendHelp(userID, chatID int64) {
	q := b.quotas.GetOrCreate(userID)
	isAdmin := b.cfg.IsAdmin(userID)

	var sb strings.Builder
	sb.WriteString("🤖 Nexus Client Help\n\n")
	sb.WriteString("General Commands:\n")
	sb.WriteString("/start - Show the main menu.\n")
	sb.WriteString("/stop - Immediately halt the bulk messaging campaign.\n")
	sb.WriteString("/setad <message> - Set the advertisement content.\n")
	sb.WriteString("/setinterval <seconds> - Set the Group Delay (between different chats, min 5s).\n")
	sb.WriteString("/setctimer <seconds> - Set the Cycle Delay (between full campaign blasts, min 60s).\n")

	if isAdmin {
		sb.WriteString("\n🛡️ Admin Commands:\n")
		sb.WriteString("/broadcast <message> - Send a message through all integrated sessions.\n")
		sb.WriteString("/ban <user_id> - Ban a user from using the campaign feature.\n")
		sb.WriteString("/unban <user_id> - Unban a user.\n")
		sb.WriteString("/setpremium <user_id> true|false - Set a user's premium status.\n")
	}

	sb.WriteString("\nCurrent Status:\n")
	if q.IsPremium {
		sb.WriteString("• Account Status: ✨ Premium\n")
	} else {
		sb.WriteString("• Account Status: Standard\n")
	}
	sb.WriteString(fmt.Sprintf("• Messages Today: %d\n", q.MessagesToday))
	if q.IsPremium || isAdmin {
		sb.WriteString(fmt.Sprintf("• Daily Limit: %d messages per day\n", b.quotas.Limit(q)))
	}
	if q.IsBanned {
		sb.WriteString("• Banned: 🚫 Yes")
	} else {
		sb.WriteString("• Banned: 🟢 No")
	}

	b.send(chatID, sb.String())
}

func (b *Bot) adminBroadcast(chatID int64, text string) {
	if text == "" {
		b.send(chatID, "Usage: /broadcast <message>")
		return
	}
	total := b.sessions.Count()
	if total == 0 {
		b.send(chatID, "⚠️ No integrated sessions found to broadcast from.")
		return
	}

	b.send(chatID, fmt.Sprintf("➡️ Initiating broadcast across %d sessions. Message: %s...", total, previewText(text, 30)))

	go func() {
		used, sent := b.campaigns.Broadcast(context.Background(), text)
		b.send(chatID, fmt.Sprintf("✅ Broadcast Complete!\n\nSessions Used: %d / %d\nTotal Messages Sent: %d", used, total, sent))
	}()
}

// previewText truncates s to at most n runes, keeping multi-byte
// characters intact.
func previewText(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func (b *Bot) setBanned(chatID int64, args string, banned bool) {
	userID, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		cmd := "/ban"
		if !banned {
			cmd = "/unban"
		}
		b.send(chatID, fmt.Sprintf("Usage: %s <user_id> (User ID must be a number).", cmd))
		return
	}
	b.quotas.SetBanned(userID, banned)
	if banned {
		b.send(chatID, fmt.Sprintf("🚫 User ID %d has been BANNED.", userID))
	} else {
		b.send(chatID, fmt.Sprintf("🟢 User ID %d has been UNBANNED.", userID))
	}
}

func (b *Bot) setPremium(chatID int64, args string) {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		b.send(chatID, "Usage: /setpremium <user_id> true|false.")
		return
	}
	userID, err := strconv.ParseInt(parts[0], 10, 64)
	premium := strings.EqualFold(parts[1], "true")
	if err != nil || (!premium && !strings.EqualFold(parts[1], "false")) {
		b.send(chatID, "Usage: /setpremium <user_id> true|false.")
		return
	}
	b.quotas.SetPremium(userID, premium)
	emoji := "⭐"
	if premium {
		emoji = "✨"
	}
	b.send(chatID, fmt.Sprintf("%s User ID %d premium status set to %v.", emoji, userID, premium))
}
