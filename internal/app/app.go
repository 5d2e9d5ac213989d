package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/psxom3/genai-regwatch/internal/analysis"
	"github.com/psxom3/genai-regwatch/internal/config"
	"github.com/psxom3/genai-regwatch/internal/domain"
	"github.com/psxom3/genai-regwatch/internal/export"
	"github.com/psxom3/genai-regwatch/internal/extract"
	"github.com/psxom3/genai-regwatch/internal/infrastructure/blob"
	"github.com/psxom3/genai-regwatch/internal/infrastructure/elasticsearch"
	"github.com/psxom3/genai-regwatch/internal/infrastructure/kafka"
	"github.com/psxom3/genai-regwatch/internal/infrastructure/llm"
	"github.com/psxom3/genai-regwatch/internal/infrastructure/scheduler"
	"github.com/psxom3/genai-regwatch/internal/infrastructure/storage"
	"github.com/psxom3/genai-regwatch/internal/infrastructure/telegram"
	"github.com/psxom3/genai-regwatch/internal/logging"
	"github.com/psxom3/genai-regwatch/internal/ports"
	"github.com/psxom3/genai-regwatch/internal/server"
	"github.com/psxom3/genai-regwatch/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	repo      *storage.Repository
	pipeline  *usecase.Pipeline
	registrar *usecase.Registrar
	exporter  *export.Service
	closers   []func() error
}

// New opens the store and builds every collaborator named in cfg.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	repo, err := storage.Open(ctx, cfg.Database, baseLogger.With("component", "storage"))
	if err != nil {
		return nil, err
	}
	a := &Application{cfg: cfg, logger: baseLogger, repo: repo}
	a.closers = append(a.closers, repo.Close)

	blobs, err := blob.NewLocalStore(cfg.Storage.RawDir)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("open raw storage: %w", err)
	}

	completer, err := llm.NewFromConfig(cfg.Completion, baseLogger.With("component", "llm"))
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	notifiers, err := a.buildNotifiers()
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	worker := usecase.NewWorker(usecase.WorkerDeps{
		Repository: repo,
		Blobs:      blobs,
		Extractor:  extract.New(),
		Actions: analysis.NewActionExtractor(completer, cfg.Pipeline.ChunkWords,
			domain.ActionPolicy(cfg.Pipeline.ActionPolicy), baseLogger.With("component", "actions")),
		Summarizer:  analysis.NewSummarizer(completer, cfg.Pipeline.ChunkWords, baseLogger.With("component", "summarizer")),
		MaxAttempts: cfg.Pipeline.MaxAttempts,
		Logger:      baseLogger.With("component", "worker"),
	})

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Repository: repo,
		Processor:  worker,
		Observer:   usecase.NewObserver(baseLogger.With("component", "observer"), notifiers...),
		MaxWorkers: cfg.Pipeline.MaxWorkers,
		Logger:     baseLogger.With("component", "pipeline"),
	})
	a.registrar = usecase.NewRegistrar(repo, blobs, baseLogger.With("component", "intake"))
	a.exporter = export.NewService(repo, baseLogger.With("component", "export"))
	return a, nil
}

func (a *Application) buildNotifiers() ([]ports.Notifier, error) {
	var notifiers []ports.Notifier
	n := a.cfg.Notifications

	if n.Telegram.BotToken != "" && n.Telegram.ChatID != "" {
		notifiers = append(notifiers, telegram.NewNotifier(n.Telegram.BotToken, n.Telegram.ChatID))
	}
	if len(n.Kafka.Brokers) > 0 && n.Kafka.Topic != "" {
		publisher := kafka.NewPublisher(n.Kafka.Brokers, n.Kafka.Topic)
		a.closers = append(a.closers, publisher.Close)
		notifiers = append(notifiers, publisher)
	}
	if len(n.Elasticsearch.Addresses) > 0 {
		indexer, err := elasticsearch.New(n.Elasticsearch.Addresses, n.Elasticsearch.Index, a.logger.With("component", "elasticsearch"))
		if err != nil {
			return nil, fmt.Errorf("elasticsearch notifier: %w", err)
		}
		notifiers = append(notifiers, indexer)
	}

	names := make([]string, 0, len(notifiers))
	for _, nt := range notifiers {
		names = append(names, nt.Name())
	}
	a.logger.Info("notifiers configured", "channels", names)
	return notifiers, nil
}

// Process runs a single pass over NEW documents.
func (a *Application) Process(ctx context.Context) (usecase.Report, error) {
	return a.pipeline.Run(ctx)
}

// Watch runs a pass every configured interval until ctx is cancelled.
func (a *Application) Watch(ctx context.Context) error {
	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval, a.cfg.Scheduler.Location())
	sched := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("watching for new documents", "interval", a.cfg.Scheduler.Interval)

	<-ctx.Done()
	return sched.Stop(context.Background())
}

// Ingest registers a local file as a NEW document.
func (a *Application) Ingest(ctx context.Context, path string, sub usecase.Submission, force bool) (usecase.IntakeResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return usecase.IntakeResult{}, fmt.Errorf("read %s: %w", path, err)
	}
	sub.Content = content
	if sub.Filename == "" {
		sub.Filename = path
	}
	return a.registrar.Register(ctx, sub, force)
}

// Serve runs the read-only API until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	return server.New(a.repo, a.exporter, a.logger.With("component", "server")).Run(ctx, a.cfg.Server.Addr)
}

// ExportActions renders every action item as an XLSX workbook.
func (a *Application) ExportActions(ctx context.Context) ([]byte, error) {
	return a.exporter.ExportActionsXLSX(ctx)
}

// Close releases the store and any open notifier connections.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
