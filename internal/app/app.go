package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"TelegramJobAgent/internal/classify"
	"TelegramJobAgent/internal/config"
	"TelegramJobAgent/internal/enrich"
	"TelegramJobAgent/internal/infrastructure/cache"
	"TelegramJobAgent/internal/infrastructure/llm"
	"TelegramJobAgent/internal/infrastructure/scheduler"
	"TelegramJobAgent/internal/infrastructure/storage"
	"TelegramJobAgent/internal/infrastructure/telegram"
	"TelegramJobAgent/internal/ledger"
	"TelegramJobAgent/internal/logging"
	"TelegramJobAgent/internal/ports"
	"TelegramJobAgent/internal/usecase"
)

// Application wires configuration to the pipeline and its lifecycle.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
}

// New builds a runnable application instance. Setup failures (store,
// ledger backend, policy compilation) are fatal and returned to the caller.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	classifier, err := classify.New(cfg.Classifier.Policy())
	if err != nil {
		return nil, fmt.Errorf("compile classifier policy: %w", err)
	}

	store, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	dedup, err := newLedger(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var enricher usecase.Enricher
	if cfg.Enrichment.Enabled {
		adapter := enrich.NewAdapter(
			llm.NewGeminiClient(cfg.Enrichment.Gemini),
			nil,
			baseLogger.With("component", "enrich"),
		)
		enricher = adapter
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	source := telegram.NewSource(cfg.Telegram.BaseURL, nil, baseLogger.With("component", "source"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Store:      store,
		Ledger:     dedup,
		Classifier: classifier,
		Enricher:   enricher,
		Notifier:   notifier,
		Logger:     baseLogger.With("component", "pipeline"),
	}, usecase.Options{
		Groups:        cfg.Groups,
		LookbackDays:  cfg.Pipeline.LookbackDays,
		MinTextLength: cfg.Pipeline.MinMessageLength,
		MaxTextLength: cfg.Pipeline.MaxStoredLength,
		FetchLimit:    cfg.Pipeline.FetchLimit,
		GroupPause:    cfg.Pipeline.GroupPause(),
		EnrichPause:   cfg.Pipeline.EnrichPause(),
	})

	return &Application{cfg: cfg, logger: baseLogger, pipeline: pipeline}, nil
}

// NewStore builds the configured record store backend. Exported for the
// dashboard, which shares the read path.
func NewStore(ctx context.Context, cfg config.Config) (ports.RecordStore, error) {
	switch cfg.Storage.Backend {
	case "postgres":
		store, err := storage.NewPostgresStore(ctx, cfg.Storage.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres store: %w", err)
		}
		return store, nil
	case "sheets":
		return storage.NewSheetsStore(cfg.Storage.Sheets), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func newLedger(ctx context.Context, cfg config.Config) (ports.DedupLedger, error) {
	switch cfg.Ledger.Backend {
	case "", "memory":
		return ledger.NewSet(), nil
	case "redis":
		l, err := cache.NewRedisLedger(ctx, cfg.Ledger.Redis.URL, cfg.Ledger.Redis.Key)
		if err != nil {
			return nil, fmt.Errorf("redis ledger: %w", err)
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}
}

// Run executes one collection pass, or blocks on the cron schedule when the
// scheduler is enabled.
func (a *Application) Run(ctx context.Context) error {
	if !a.cfg.Scheduler.Enabled {
		start := time.Now().In(a.cfg.Scheduler.Location())
		summary, err := a.pipeline.Run(ctx, start)
		if err != nil {
			return err
		}
		a.logger.Info("summary", "report", summary.String())
		return nil
	}

	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location())
	sched := usecase.NewScheduler(driver, a.pipeline)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "cron", a.cfg.Scheduler.CronExpression)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}
