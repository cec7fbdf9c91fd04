package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/studyplan/internal/bot"
	"github.com/example/studyplan/internal/config"
	"github.com/example/studyplan/internal/database"
	"github.com/example/studyplan/internal/excel"
	"github.com/example/studyplan/internal/logger"
	"github.com/example/studyplan/internal/review"
	"github.com/example/studyplan/internal/scheduler"
	"github.com/example/studyplan/internal/spaced_repetition"
	"github.com/example/studyplan/pkg/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logg.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		logg.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	items := database.NewReviewableItemRepository(db)
	users := database.NewUserRepository(db, database.PreferenceDefaults{
		Timezone:      cfg.DefaultTimezone,
		DailyCapacity: cfg.DefaultDailyCapacity,
	})
	sessions := database.NewStudySessionRepository(db)

	// main import <file.xlsx|file.csv>
	if len(os.Args) > 2 && os.Args[1] == "import" {
		runImport(items, os.Args[2], logg)
		return
	}

	engine, err := spaced_repetition.New(cfg.Engine, nil)
	if err != nil {
		logg.Fatal("failed to create scheduling engine", "error", err)
	}

	service := review.New(items, users, sessions, engine,
		review.WithLogger(logg.With("component", "review")),
		review.WithPreviewTimeout(cfg.PreviewTimeout),
		review.WithBatchConcurrency(cfg.BatchConcurrency),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var notifier scheduler.Notifier = logNotifier{logg}
	var b *bot.Bot
	if cfg.BotEnabled() {
		b, err = bot.New(cfg, bot.Deps{Service: service, Users: users, Sessions: sessions}, logg.With("component", "bot"))
		if err != nil {
			logg.Fatal("failed to create bot", "error", err)
		}
		notifier = b
	} else {
		logg.Warn("TELEGRAM_BOT_TOKEN is not set, running without the bot")
	}

	// The bot is connected by now, so the first backlog run can already notify
	if cfg.SchedulerEnabled {
		monitor := scheduler.New(cfg.BacklogCheckInterval, users, service, notifier, logg.With("component", "scheduler"))
		if err := monitor.Start(); err != nil {
			logg.Fatal("failed to start backlog monitor", "error", err)
		}
		defer monitor.Stop()
		if b != nil {
			b.SetBacklogChecker(monitor)
		}
		logg.Info("backlog monitor started", "interval", cfg.BacklogCheckInterval)
	}

	done := make(chan struct{})
	go func() {
		sig := <-sigChan
		logg.Info("received signal", "signal", sig.String())
		cancel()
		close(done)
	}()

	if b != nil {
		go func() {
			if err := b.Start(ctx); err != nil {
				logg.Error("bot error", "error", err)
				cancel()
			}
		}()
	}

	logg.Info("studyplan started", "engine", cfg.Engine, "db", cfg.DBType)
	<-done
	logg.Info("studyplan stopped")
}

func runImport(items *database.ReviewableItemRepository, path string, logg *logger.Logger) {
	importCfg := excel.DefaultImportConfig()
	importCfg.FilePath = path

	result, err := excel.ImportItems(context.Background(), items, importCfg)
	if err != nil {
		logg.Fatal("import failed", "file", path, "error", err)
	}
	for _, e := range result.Errors {
		logg.Warn("import row rejected", "detail", e)
	}
	logg.Info("import finished",
		"file", path,
		"processed", result.TotalProcessed,
		"created", result.Created,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)
}

// logNotifier reports backlog events to the log when no bot is configured
type logNotifier struct {
	log *logger.Logger
}

func (n logNotifier) NotifyBacklog(userID int64, status *models.BacklogStatus) error {
	n.log.Info("backlog needs attention", "user_id", userID, "overdue", status.Overdue, "severity", status.Severity.String())
	return nil
}

func (n logNotifier) NotifyRecovery(userID int64, result *models.RecoveryResult) error {
	n.log.Info("automatic recovery", "user_id", userID, "redistributed", result.RedistributedCount)
	return nil
}
