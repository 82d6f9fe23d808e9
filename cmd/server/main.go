package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Spok95/task-score-service/internal/app"
	"github.com/Spok95/task-score-service/internal/config"
	"github.com/Spok95/task-score-service/internal/db"
	"github.com/Spok95/task-score-service/internal/jobs"
	"github.com/Spok95/task-score-service/internal/ledger"
	"github.com/Spok95/task-score-service/internal/logging"
	"github.com/Spok95/task-score-service/internal/observability"
	"github.com/Spok95/task-score-service/internal/task"
	"github.com/Spok95/task-score-service/internal/tg"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Не удалось загрузить .env файл, используем переменные окружения")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Closer()
	l := lg.Base

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, cfg.Release)
	if err != nil {
		l.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	defer func() { _ = database.Close() }()

	if err := db.Migrate(ctx, database); err != nil {
		l.Fatal("migrations failed", zap.Error(err))
	}

	store := db.NewStore(database)
	ldg := ledger.New(store, l.Named("ledger"))

	opts := []task.Option{
		task.WithLogger(l.Named("task")),
		task.WithClock(time.Now, cfg.Location),
	}
	if cfg.NotificationsEnabled() {
		client := &http.Client{Timeout: task.DefaultNotifyTimeout}
		bot, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint, client)
		if err != nil {
			l.Fatal("telegram bot init", zap.Error(err))
		}
		l.Info("telegram notifications enabled", zap.String("bot", bot.Self.UserName), zap.Int64("chat_id", cfg.ChatID))
		opts = append(opts, task.WithNotifier(tg.NewNotifier(bot, cfg.ChatID, l.Named("tg"))))
	}
	svc := task.NewService(store, ldg, opts...)

	runner := jobs.New(ctx, l.Named("jobs"))
	runner.Every(cfg.StatsInterval, "task_stats", jobs.TaskStats(store.Tasks()))
	runner.Every(cfg.StatsInterval, "db_ping", jobs.DBPing(store))

	router := app.NewRouter(app.Deps{Tasks: svc, Ledger: ldg, DB: store, Log: l.Named("http")})
	srv := app.StartHTTP(ctx, cfg.HTTPAddr, router, l)

	<-ctx.Done()
	l.Info("shutting down")
	srv.Wait()
}
