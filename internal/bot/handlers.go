package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studyplan/internal/database"
	"github.com/example/studyplan/internal/timezone"
	"github.com/example/studyplan/pkg/models"
)

const helpText = "📖 Commands\n\n" +
	"/backlog - show overdue, due today and upcoming reviews\n" +
	"/recover [days] - spread overdue reviews over the next study days\n" +
	"/move YYYY-MM-DD id,id - move items to one date\n" +
	"/spread DAYS YYYY-MM-DD id,id - spread items by priority from a date\n" +
	"/preview TYPE CONTENT_ID - what each grade would schedule\n" +
	"/pattern - compare your study history with your study days\n" +
	"/studied [minutes] - record a study session now\n\n" +
	"⚙️ Settings\n" +
	"/studydays mon,wed,fri - days you accept reviews on\n" +
	"/timezone Europe/Berlin - your timezone\n" +
	"/capacity N - reviews you usually do per day\n" +
	"/autorecover on|off - spread large backlogs automatically"

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if message == nil || message.From == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}

	var err error
	switch message.Command() {
	case "start":
		err = b.handleStart(ctx, message)
	case "help":
		err = b.handleHelp(message)
	case "backlog":
		err = b.sendBacklog(ctx, message.Chat.ID, message.From.ID)
	case "recover":
		err = b.handleRecover(ctx, message)
	case "pattern":
		err = b.sendPattern(ctx, message.Chat.ID, message.From.ID)
	case "studydays":
		err = b.handleStudyDays(ctx, message)
	case "timezone":
		err = b.handleTimezone(ctx, message)
	case "capacity":
		err = b.handleCapacity(ctx, message)
	case "autorecover":
		err = b.handleAutoRecover(ctx, message)
	case "preview":
		err = b.handlePreview(ctx, message)
	case "move":
		err = b.handleReschedule(ctx, message, parseMoveArgs)
	case "spread":
		err = b.handleReschedule(ctx, message, parseSpreadArgs)
	case "studied":
		err = b.handleStudied(ctx, message)
	case "check":
		err = b.handleCheck(ctx, message)
	default:
		err = b.handleUnknownCommand(message)
	}
	return err
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	user, err := b.users.GetByID(ctx, message.From.ID)
	if errors.Is(err, database.ErrNotFound) {
		user = &models.User{ID: message.From.ID}
	} else if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	user.Username = message.From.UserName
	user.FirstName = message.From.FirstName
	user.IsActive = true
	if err := b.users.Upsert(ctx, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	text := fmt.Sprintf("👋 Welcome, %s!\n\n"+
		"I keep your review schedule healthy: I warn you when reviews pile up "+
		"and spread them over your study days.\n\n"+
		"Your timezone is %s. Set it with /timezone and pick study days with /studydays.",
		message.From.FirstName, user.Timezone)
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) error {
	msg := tgbotapi.NewMessage(message.Chat.ID, helpText)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleUnknownCommand(message *tgbotapi.Message) error {
	return b.reply(message.Chat.ID, "Unknown command. Use /help to see the commands.")
}

func (b *Bot) sendBacklog(ctx context.Context, chatID, userID int64) error {
	status, err := b.service.AnalyzeBacklog(ctx, userID)
	if err != nil {
		return b.replyError(chatID, err)
	}
	msg := tgbotapi.NewMessage(chatID, formatBacklog(status))
	if status.RecoveryRecommended {
		msg.ReplyMarkup = createKeyboard([][]MenuButton{{{
			Text:         fmt.Sprintf("🔄 Spread over %d days", status.SuggestedDays),
			CallbackData: callbackRecoverPrefix + strconv.Itoa(status.SuggestedDays),
		}}})
	}
	return b.sendMessage(msg)
}

func (b *Bot) sendPattern(ctx context.Context, chatID, userID int64) error {
	pattern, err := b.service.CheckStudyPattern(ctx, userID)
	if err != nil {
		return b.replyError(chatID, err)
	}
	return b.reply(chatID, formatPattern(pattern))
}

func (b *Bot) handleRecover(ctx context.Context, message *tgbotapi.Message) error {
	args := strings.TrimSpace(message.CommandArguments())
	if args == "" {
		status, err := b.service.AnalyzeBacklog(ctx, message.From.ID)
		if err != nil {
			return b.replyError(message.Chat.ID, err)
		}
		days := status.SuggestedDays
		if days < 1 {
			days = b.config.DefaultRecoveryDays
		}
		return b.runRecovery(ctx, message.Chat.ID, message.From.ID, days)
	}

	days, err := strconv.Atoi(args)
	if err != nil {
		return b.reply(message.Chat.ID, "Please give the number of days: /recover 7")
	}
	return b.runRecovery(ctx, message.Chat.ID, message.From.ID, days)
}

func (b *Bot) runRecovery(ctx context.Context, chatID, userID int64, days int) error {
	result, err := b.service.ActivateRecovery(ctx, userID, days)
	if err != nil {
		return b.replyError(chatID, err)
	}
	return b.reply(chatID, formatRecovery(result))
}

func (b *Bot) handleReschedule(ctx context.Context, message *tgbotapi.Message, parse func(string, int) (models.RescheduleRequest, error)) error {
	req, err := parse(message.CommandArguments(), b.config.MaxItemsPerCommand)
	if err != nil {
		return b.reply(message.Chat.ID, "⚠️ "+err.Error())
	}
	result, err := b.service.Reschedule(ctx, message.From.ID, req)
	if err != nil {
		return b.replyError(message.Chat.ID, err)
	}
	return b.reply(message.Chat.ID, formatReschedule(result))
}

func (b *Bot) handlePreview(ctx context.Context, message *tgbotapi.Message) error {
	contentType, contentID, err := parsePreviewArgs(message.CommandArguments())
	if err != nil {
		return b.reply(message.Chat.ID, "⚠️ "+err.Error())
	}
	preview, err := b.service.Preview(ctx, message.From.ID, contentType, contentID)
	if err != nil {
		return b.replyError(message.Chat.ID, err)
	}
	return b.reply(message.Chat.ID, formatPreview(preview))
}

func (b *Bot) handleStudyDays(ctx context.Context, message *tgbotapi.Message) error {
	days, err := parseStudyDays(message.CommandArguments())
	if err != nil {
		return b.reply(message.Chat.ID, "⚠️ "+err.Error())
	}
	if err := b.users.UpdateStudyDays(ctx, message.From.ID, days); err != nil {
		return b.settingError(message.Chat.ID, err)
	}
	weekdays := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		weekdays = append(weekdays, time.Weekday(d))
	}
	return b.reply(message.Chat.ID, "✅ Study days: "+weekdayList(weekdays))
}

func (b *Bot) handleTimezone(ctx context.Context, message *tgbotapi.Message) error {
	tz := strings.TrimSpace(message.CommandArguments())
	if tz == "" || !timezone.IsValidTimezone(tz) {
		return b.reply(message.Chat.ID, "Please give an IANA timezone, for example /timezone Europe/Berlin")
	}
	if err := b.users.UpdateTimezone(ctx, message.From.ID, tz); err != nil {
		return b.settingError(message.Chat.ID, err)
	}
	return b.reply(message.Chat.ID, "✅ Timezone set to "+tz)
}

func (b *Bot) handleCapacity(ctx context.Context, message *tgbotapi.Message) error {
	n, err := strconv.Atoi(strings.TrimSpace(message.CommandArguments()))
	if err != nil || n < 1 || n > 1000 {
		return b.reply(message.Chat.ID, "Please give a number from 1 to 1000: /capacity 30")
	}
	if err := b.users.UpdateDailyCapacity(ctx, message.From.ID, n); err != nil {
		return b.settingError(message.Chat.ID, err)
	}
	return b.reply(message.Chat.ID, fmt.Sprintf("✅ Daily capacity set to %d reviews", n))
}

func (b *Bot) handleAutoRecover(ctx context.Context, message *tgbotapi.Message) error {
	enabled, err := parseOnOff(message.CommandArguments())
	if err != nil {
		return b.reply(message.Chat.ID, "Usage: /autorecover on|off")
	}
	if err := b.users.SetAutoRecovery(ctx, message.From.ID, enabled); err != nil {
		return b.settingError(message.Chat.ID, err)
	}
	if enabled {
		return b.reply(message.Chat.ID, "✅ Large backlogs will be spread automatically")
	}
	return b.reply(message.Chat.ID, "✅ Automatic recovery disabled")
}

// settingError handles users who changed a setting before /start
func (b *Bot) settingError(chatID int64, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return b.reply(chatID, "Please send /start first.")
	}
	if sendErr := b.reply(chatID, "❌ Could not save the setting."); sendErr != nil {
		return sendErr
	}
	return err
}

func (b *Bot) handleStudied(ctx context.Context, message *tgbotapi.Message) error {
	minutes := b.config.DefaultSessionMinutes
	if args := strings.TrimSpace(message.CommandArguments()); args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n < 1 {
			return b.reply(message.Chat.ID, "Usage: /studied [minutes]")
		}
		minutes = n
	}

	session := &models.StudySession{
		UserID:    message.From.ID,
		StartedAt: b.now().Add(-time.Duration(minutes) * time.Minute),
		Duration:  minutes * 60,
	}
	if err := b.sessions.Create(ctx, session); err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return b.reply(message.Chat.ID, fmt.Sprintf("✅ Recorded a %d minute session", minutes))
}

// handleCheck runs the backlog monitor for one user. Admin only.
func (b *Bot) handleCheck(ctx context.Context, message *tgbotapi.Message) error {
	if !b.isAdmin(message.From.ID) {
		return b.reply(message.Chat.ID, "This command is only available for administrators.")
	}
	if b.checker == nil {
		return b.reply(message.Chat.ID, "The backlog monitor is disabled.")
	}
	userID, err := strconv.ParseInt(strings.TrimSpace(message.CommandArguments()), 10, 64)
	if err != nil {
		return b.reply(message.Chat.ID, "Usage: /check USER_ID")
	}
	status, err := b.checker.RunManualCheck(ctx, userID)
	if err != nil {
		return b.replyError(message.Chat.ID, err)
	}
	return b.reply(message.Chat.ID, fmt.Sprintf("User %d\n\n%s", userID, formatBacklog(status)))
}
