package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studyplan/internal/config"
	"github.com/example/studyplan/internal/logger"
	"github.com/example/studyplan/pkg/models"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Callback data
const (
	callbackBacklog       = "backlog"
	callbackPattern       = "pattern"
	callbackRecoverPrefix = "recover:"
)

// MainMenuButtons is the keyboard shown after /start and /help
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "📋 Backlog", CallbackData: callbackBacklog}},
		{{Text: "📊 Study pattern", CallbackData: callbackPattern}},
	}
}

// sender is the part of the Telegram API the bot uses
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// ReviewService is the scheduling functionality exposed through chat
type ReviewService interface {
	Preview(ctx context.Context, userID int64, contentType models.ContentType, contentID int64) (*models.Preview, error)
	AnalyzeBacklog(ctx context.Context, userID int64) (*models.BacklogStatus, error)
	ActivateRecovery(ctx context.Context, userID int64, daysToSpread int) (*models.RecoveryResult, error)
	Reschedule(ctx context.Context, userID int64, req models.RescheduleRequest) (*models.RescheduleResult, error)
	CheckStudyPattern(ctx context.Context, userID int64) (*models.StudyPattern, error)
}

// UserStore owns users and their study preferences
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
	UpdateStudyDays(ctx context.Context, userID int64, days []int) error
	UpdateTimezone(ctx context.Context, userID int64, tz string) error
	UpdateDailyCapacity(ctx context.Context, userID int64, capacity int) error
	SetAutoRecovery(ctx context.Context, userID int64, enabled bool) error
}

// SessionRecorder stores completed study sessions
type SessionRecorder interface {
	Create(ctx context.Context, session *models.StudySession) error
}

// BacklogChecker runs an on-demand backlog check for one user
type BacklogChecker interface {
	RunManualCheck(ctx context.Context, userID int64) (*models.BacklogStatus, error)
}

// Deps are the collaborators the bot talks to
type Deps struct {
	Service  ReviewService
	Users    UserStore
	Sessions SessionRecorder
}

// Bot represents the Telegram bot application
type Bot struct {
	api          sender
	botAPI       *tgbotapi.BotAPI
	service      ReviewService
	users        UserStore
	sessions     SessionRecorder
	checker      BacklogChecker
	adminUserIDs map[int64]bool
	config       *BotConfig
	log          *logger.Logger
	now          func() time.Time
}

// New connects to Telegram and creates the bot. The connection is made here
// so notifications can be sent before Start begins polling.
func New(cfg *config.Config, deps Deps, log *logger.Logger) (*Bot, error) {
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	if deps.Service == nil || deps.Users == nil || deps.Sessions == nil {
		return nil, fmt.Errorf("bot dependencies are not complete")
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %v", err)
	}
	b := newBot(cfg, deps, log, botAPI)
	b.botAPI = botAPI
	b.log.Info("authorized on telegram", "account", botAPI.Self.UserName)
	return b, nil
}

func newBot(cfg *config.Config, deps Deps, log *logger.Logger, api sender) *Bot {
	if log == nil {
		log = logger.Nop()
	}
	return &Bot{
		api:          api,
		service:      deps.Service,
		users:        deps.Users,
		sessions:     deps.Sessions,
		adminUserIDs: cfg.AdminUserIDs,
		config:       DefaultConfig(),
		log:          log,
		now:          time.Now,
	}
}

// SetBacklogChecker enables the admin /check command. Call it before Start.
func (b *Bot) SetBacklogChecker(c BacklogChecker) {
	b.checker = c
}

// Start handles updates until ctx is done
func (b *Bot) Start(ctx context.Context) error {
	if b.botAPI == nil {
		return fmt.Errorf("bot is not connected to telegram")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.botAPI.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.Stop()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// Stop stops polling for updates
func (b *Bot) Stop() {
	if b.botAPI != nil {
		b.botAPI.StopReceivingUpdates()
	}
	b.log.Info("bot stopped")
}

// NotifyBacklog implements scheduler.Notifier
func (b *Bot) NotifyBacklog(userID int64, status *models.BacklogStatus) error {
	// Private chats share the user's id
	msg := tgbotapi.NewMessage(userID, formatBacklog(status))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{
			Text:         fmt.Sprintf("🔄 Spread over %d days", status.SuggestedDays),
			CallbackData: callbackRecoverPrefix + strconv.Itoa(status.SuggestedDays),
		}},
		{{Text: "📋 Show backlog", CallbackData: callbackBacklog}},
	})
	if err := b.sendMessage(msg); err != nil {
		return fmt.Errorf("failed to send backlog warning to user %d: %w", userID, err)
	}
	b.log.Info("backlog warning sent", "user_id", userID, "overdue", status.Overdue, "severity", status.Severity)
	return nil
}

// NotifyRecovery implements scheduler.Notifier
func (b *Bot) NotifyRecovery(userID int64, result *models.RecoveryResult) error {
	text := "🤖 Automatic recovery\n\n" + formatRecovery(result)
	if err := b.sendMessage(tgbotapi.NewMessage(userID, text)); err != nil {
		return fmt.Errorf("failed to send recovery report to user %d: %w", userID, err)
	}
	return nil
}

// isAdmin checks if a user is an admin
func (b *Bot) isAdmin(userID int64) bool {
	return b.adminUserIDs[userID]
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.Message != nil && update.Message.IsCommand():
		err = b.HandleCommand(ctx, update.Message)
	case update.Message != nil:
		err = b.reply(update.Message.Chat.ID, "I don't understand. Use /help to see the commands.")
	case update.CallbackQuery != nil:
		err = b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
	if err != nil {
		b.log.Error("failed to handle update", "update_id", update.UpdateID, "error", err)
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Warn("failed to answer callback", "error", err)
	}
	if callback.Message == nil || callback.From == nil {
		return fmt.Errorf("callback message is nil")
	}
	chatID := callback.Message.Chat.ID
	userID := callback.From.ID

	switch data := callback.Data; {
	case data == callbackBacklog:
		return b.sendBacklog(ctx, chatID, userID)
	case data == callbackPattern:
		return b.sendPattern(ctx, chatID, userID)
	case strings.HasPrefix(data, callbackRecoverPrefix):
		days, err := strconv.Atoi(strings.TrimPrefix(data, callbackRecoverPrefix))
		if err != nil {
			return fmt.Errorf("invalid recover callback %q", data)
		}
		return b.runRecovery(ctx, chatID, userID, days)
	}
	return fmt.Errorf("unknown callback %q", callback.Data)
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) error {
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) reply(chatID int64, text string) error {
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

// replyError answers with a readable message and returns unexpected errors
func (b *Bot) replyError(chatID int64, err error) error {
	text, expected := userError(err)
	if sendErr := b.reply(chatID, text); sendErr != nil {
		return sendErr
	}
	if expected {
		return nil
	}
	return err
}
