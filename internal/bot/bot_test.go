package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studyplan/internal/config"
	"github.com/example/studyplan/internal/database"
	"github.com/example/studyplan/internal/logger"
	"github.com/example/studyplan/internal/review"
	"github.com/example/studyplan/pkg/models"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type fakeService struct {
	err          error
	rescheduled  []models.RescheduleRequest
	recoveryDays []int
	status       *models.BacklogStatus
}

func (f *fakeService) Preview(_ context.Context, _ int64, ct models.ContentType, id int64) (*models.Preview, error) {
	if f.err != nil {
		return nil, f.err
	}
	p := &models.Preview{ItemID: id}
	for _, g := range models.AllGrades {
		p.Set(models.PreviewOutcome{Grade: g, ScheduledDays: int(g) + 1, DueDate: "2024-06-11T10:00:00Z"})
	}
	return p, nil
}

func (f *fakeService) AnalyzeBacklog(_ context.Context, userID int64) (*models.BacklogStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.status != nil {
		return f.status, nil
	}
	return &models.BacklogStatus{UserID: userID}, nil
}

func (f *fakeService) ActivateRecovery(_ context.Context, _ int64, days int) (*models.RecoveryResult, error) {
	f.recoveryDays = append(f.recoveryDays, days)
	if f.err != nil {
		return nil, f.err
	}
	return &models.RecoveryResult{RedistributedCount: 4, Days: []models.DayLoad{{Date: "2024-06-12", Count: 4}}}, nil
}

func (f *fakeService) Reschedule(_ context.Context, _ int64, req models.RescheduleRequest) (*models.RescheduleResult, error) {
	f.rescheduled = append(f.rescheduled, req)
	if f.err != nil {
		return nil, f.err
	}
	return &models.RescheduleResult{
		RescheduledCount: len(req.ItemIDs) - 1,
		Failed:           []models.ItemFailure{{ItemID: req.ItemIDs[0], Reason: "item no longer exists"}},
	}, nil
}

func (f *fakeService) CheckStudyPattern(_ context.Context, userID int64) (*models.StudyPattern, error) {
	return &models.StudyPattern{UserID: userID, ExpectedDays: 4, StudiedOnPlan: 3, Adherence: 0.75}, nil
}

type fakeUsers struct {
	users     map[int64]*models.User
	studyDays map[int64][]int
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, database.ErrNotFound
}

func (f *fakeUsers) Upsert(_ context.Context, user *models.User) error {
	if user.Timezone == "" {
		user.Timezone = "UTC"
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUsers) UpdateStudyDays(_ context.Context, id int64, days []int) error {
	if _, ok := f.users[id]; !ok {
		return database.ErrNotFound
	}
	f.studyDays[id] = days
	return nil
}

func (f *fakeUsers) UpdateTimezone(_ context.Context, id int64, tz string) error {
	u, ok := f.users[id]
	if !ok {
		return database.ErrNotFound
	}
	u.Timezone = tz
	return nil
}

func (f *fakeUsers) UpdateDailyCapacity(_ context.Context, id int64, n int) error {
	u, ok := f.users[id]
	if !ok {
		return database.ErrNotFound
	}
	u.DailyCapacity = n
	return nil
}

func (f *fakeUsers) SetAutoRecovery(_ context.Context, id int64, enabled bool) error {
	u, ok := f.users[id]
	if !ok {
		return database.ErrNotFound
	}
	u.AutoRecovery = enabled
	return nil
}

type fakeSessions struct {
	created []models.StudySession
}

func (f *fakeSessions) Create(_ context.Context, s *models.StudySession) error {
	f.created = append(f.created, *s)
	return nil
}

type fakeChecker struct{ checked []int64 }

func (f *fakeChecker) RunManualCheck(_ context.Context, userID int64) (*models.BacklogStatus, error) {
	f.checked = append(f.checked, userID)
	return &models.BacklogStatus{UserID: userID, Overdue: 3, Severity: models.SeverityLow}, nil
}

var now = time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC)

func newTestBot() (*Bot, *fakeSender, *fakeService, *fakeUsers, *fakeSessions) {
	s := &fakeSender{}
	svc := &fakeService{}
	users := &fakeUsers{users: map[int64]*models.User{}, studyDays: map[int64][]int{}}
	sessions := &fakeSessions{}
	b := &Bot{
		api:          s,
		service:      svc,
		users:        users,
		sessions:     sessions,
		adminUserIDs: map[int64]bool{1: true},
		config:       DefaultConfig(),
		log:          logger.Nop(),
		now:          func() time.Time { return now },
	}
	return b, s, svc, users, sessions
}

func command(userID int64, text string) *tgbotapi.Message {
	cmd := strings.Fields(text)[0]
	return &tgbotapi.Message{
		Text:     text,
		From:     &tgbotapi.User{ID: userID, FirstName: "Ada", UserName: "ada"},
		Chat:     &tgbotapi.Chat{ID: userID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}
}

func TestNew(t *testing.T) {
	_, err := New(config.Default(), Deps{}, nil)
	assert.Error(t, err)

	cfg := config.Default()
	cfg.TelegramToken = "token"
	_, err = New(cfg, Deps{}, nil)
	assert.Error(t, err)

	_, err = New(cfg, Deps{Service: &fakeService{}, Users: &fakeUsers{}}, nil)
	assert.Error(t, err)
}

func TestNotifyBeforeStart(t *testing.T) {
	s := &fakeSender{}
	b := newBot(config.Default(), Deps{Service: &fakeService{}, Users: &fakeUsers{}, Sessions: &fakeSessions{}}, nil, s)

	var wg sync.WaitGroup
	for i := int64(1); i <= 4; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			assert.NoError(t, b.NotifyBacklog(userID, &models.BacklogStatus{Overdue: 60, Severity: models.SeverityModerate, SuggestedDays: 3}))
		}(i)
	}
	wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Len(t, s.sent, 4)

	assert.Error(t, b.Start(context.Background()))
}

func TestHandleStart_RegistersUser(t *testing.T) {
	b, s, _, users, _ := newTestBot()

	require.NoError(t, b.HandleCommand(context.Background(), command(7, "/start")))

	require.Contains(t, users.users, int64(7))
	assert.True(t, users.users[7].IsActive)
	assert.Equal(t, "ada", users.users[7].Username)
	msg := s.last(t)
	assert.Contains(t, msg.Text, "Welcome, Ada")
	assert.NotNil(t, msg.ReplyMarkup)
}

func TestHandleSpread(t *testing.T) {
	b, s, svc, _, _ := newTestBot()

	require.NoError(t, b.HandleCommand(context.Background(), command(7, "/spread 3 2024-06-11 1,2,3")))

	require.Len(t, svc.rescheduled, 1)
	assert.Equal(t, models.ModeDistribute, svc.rescheduled[0].Mode)
	assert.Equal(t, 3, svc.rescheduled[0].DistributeDays)
	text := s.last(t).Text
	assert.Contains(t, text, "Rescheduled 2 items")
	assert.Contains(t, text, "#1: item no longer exists")
}

func TestHandleMove_BadArguments(t *testing.T) {
	b, s, svc, _, _ := newTestBot()

	require.NoError(t, b.HandleCommand(context.Background(), command(7, "/move 2024-06-20")))

	assert.Empty(t, svc.rescheduled)
	assert.Contains(t, s.last(t).Text, "usage: /move")
}

func TestServiceErrors(t *testing.T) {
	b, s, svc, _, _ := newTestBot()

	svc.err = &review.Error{Kind: review.KindValidation, Message: "cannot reschedule to today (2024-06-10)"}
	require.NoError(t, b.HandleCommand(context.Background(), command(7, "/move 2024-06-10 4")))
	assert.Equal(t, "⚠️ cannot reschedule to today (2024-06-10)", s.last(t).Text)

	svc.err = &review.Error{Kind: review.KindNotFound, Message: "items not found", ItemIDs: []int64{9}}
	require.NoError(t, b.HandleCommand(context.Background(), command(7, "/move 2024-06-20 9")))
	assert.Contains(t, s.last(t).Text, "[9]")

	svc.err = errors.New("database is locked")
	err := b.HandleCommand(context.Background(), command(7, "/backlog"))
	assert.Error(t, err)
	assert.Contains(t, s.last(t).Text, "Something went wrong")
}

func TestHandleRecover(t *testing.T) {
	b, s, svc, _, _ := newTestBot()

	require.NoError(t, b.HandleCommand(context.Background(), command(7, "/recover 5")))
	assert.Contains(t, s.last(t).Text, "4 items redistributed")

	svc.status = &models.BacklogStatus{Overdue: 80, SuggestedDays: 4, RecoveryRecommended: true}
	require.NoError(t, b.HandleCommand(context.Background(), command(7, "/recover")))

	// nothing suggested falls back to the configured default
	svc.status = &models.BacklogStatus{}
	require.NoError(t, b.HandleCommand(context.Background(), command(7, "/recover")))

	assert.Equal(t, []int{5, 4, 7}, svc.recoveryDays)
}

func TestSettings(t *testing.T) {
	b, s, _, users, _ := newTestBot()
	ctx := context.Background()

	require.NoError(t, b.HandleCommand(ctx, command(7, "/studydays mon,wed,fri")))
	assert.Equal(t, "Please send /start first.", s.last(t).Text)

	require.NoError(t, b.HandleCommand(ctx, command(7, "/start")))
	require.NoError(t, b.HandleCommand(ctx, command(7, "/studydays mon,wed,fri")))
	assert.Equal(t, []int{1, 3, 5}, users.studyDays[7])
	assert.Equal(t, "✅ Study days: Mon, Wed, Fri", s.last(t).Text)

	require.NoError(t, b.HandleCommand(ctx, command(7, "/timezone Mars/Olympus")))
	assert.Equal(t, "UTC", users.users[7].Timezone)
	require.NoError(t, b.HandleCommand(ctx, command(7, "/timezone Asia/Tokyo")))
	assert.Equal(t, "Asia/Tokyo", users.users[7].Timezone)

	require.NoError(t, b.HandleCommand(ctx, command(7, "/capacity 35")))
	assert.Equal(t, 35, users.users[7].DailyCapacity)

	require.NoError(t, b.HandleCommand(ctx, command(7, "/autorecover on")))
	assert.True(t, users.users[7].AutoRecovery)
}

func TestHandleStudied(t *testing.T) {
	b, s, _, _, sessions := newTestBot()

	require.NoError(t, b.HandleCommand(context.Background(), command(7, "/studied 30")))
	require.Len(t, sessions.created, 1)
	assert.Equal(t, 1800, sessions.created[0].Duration)
	assert.Equal(t, now.Add(-30*time.Minute), sessions.created[0].StartedAt)
	assert.Contains(t, s.last(t).Text, "30 minute")

	require.NoError(t, b.HandleCommand(context.Background(), command(7, "/studied")))
	assert.Equal(t, 1200, sessions.created[1].Duration)
}

func TestHandleCheck(t *testing.T) {
	b, s, _, _, _ := newTestBot()
	checker := &fakeChecker{}
	b.SetBacklogChecker(checker)

	require.NoError(t, b.HandleCommand(context.Background(), command(7, "/check 7")))
	assert.Contains(t, s.last(t).Text, "only available for administrators")
	assert.Empty(t, checker.checked)

	require.NoError(t, b.HandleCommand(context.Background(), command(1, "/check 7")))
	assert.Equal(t, []int64{7}, checker.checked)
	assert.Contains(t, s.last(t).Text, "User 7")
}

func TestHandlePreview(t *testing.T) {
	b, s, _, _, _ := newTestBot()

	require.NoError(t, b.HandleCommand(context.Background(), command(7, "/preview question 12")))
	text := s.last(t).Text
	assert.Contains(t, text, "item #12")
	assert.Contains(t, text, "Again → 1 days")
	assert.Contains(t, text, "Easy  → 4 days")
}

func TestNotifyBacklog(t *testing.T) {
	b, s, _, _, _ := newTestBot()

	status := &models.BacklogStatus{Overdue: 90, Severity: models.SeverityHigh, RecoveryRecommended: true, SuggestedDays: 5}
	require.NoError(t, b.NotifyBacklog(42, status))

	msg := s.last(t)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Contains(t, msg.Text, "/recover 5")
	keyboard, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.NotNil(t, keyboard.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "recover:5", *keyboard.InlineKeyboard[0][0].CallbackData)
}

func TestRecoverCallback(t *testing.T) {
	b, s, svc, _, _ := newTestBot()

	err := b.handleCallbackQuery(context.Background(), &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: 7},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 7}},
		Data:    "recover:6",
	})
	require.NoError(t, err)
	assert.Equal(t, []int{6}, svc.recoveryDays)
	assert.Equal(t, 1, s.requests)

	err = b.handleCallbackQuery(context.Background(), &tgbotapi.CallbackQuery{
		ID:      "cb2",
		From:    &tgbotapi.User{ID: 7},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 7}},
		Data:    "recover:soon",
	})
	assert.Error(t, err)
}

func TestFormatBacklog_OldestOverdueInUserTimezone(t *testing.T) {
	oldest := time.Date(2024, 6, 9, 22, 0, 0, 0, time.UTC)
	status := &models.BacklogStatus{Overdue: 3, OldestOverdue: &oldest, Timezone: "Asia/Tokyo"}
	assert.Contains(t, formatBacklog(status), "Oldest overdue since 2024-06-10")

	status.Timezone = "America/New_York"
	assert.Contains(t, formatBacklog(status), "Oldest overdue since 2024-06-09")
}
