// Command worker runs the evaluation pipeline consumer and the stuck
// candidate sweeper.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talentgap/recruitment-evaluator/internal/adapter/ai/openai"
	"github.com/talentgap/recruitment-evaluator/internal/adapter/dedup"
	"github.com/talentgap/recruitment-evaluator/internal/adapter/extractor/vision"
	"github.com/talentgap/recruitment-evaluator/internal/adapter/observability"
	"github.com/talentgap/recruitment-evaluator/internal/adapter/queue/kafka"
	"github.com/talentgap/recruitment-evaluator/internal/adapter/repo/postgres"
	"github.com/talentgap/recruitment-evaluator/internal/adapter/storage/s3"
	"github.com/talentgap/recruitment-evaluator/internal/app"
	"github.com/talentgap/recruitment-evaluator/internal/config"
	"github.com/talentgap/recruitment-evaluator/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	aicl, err := openai.New(cfg)
	if err != nil {
		slog.Error("ai client init failed", slog.Any("error", err))
		os.Exit(1)
	}

	store, err := s3.New(cfg)
	if err != nil {
		slog.Error("object store init failed", slog.Any("error", err))
		os.Exit(1)
	}

	deduper, err := dedup.New(cfg.RedisURL)
	if err != nil {
		slog.Error("redis connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = deduper.Close() }()

	candRepo := postgres.NewCandidateRepo(pool)
	reqRepo := postgres.NewRequirementRepo(pool)
	extractor := vision.New(store, aicl, cfg.PresignGetExpiry, logger)
	transformer := usecase.NewTransformer(aicl, cfg.ScoreMismatchThreshold)
	pipeline := usecase.NewPipelineService(candRepo, reqRepo, extractor, transformer)

	// Dedup claims outlive one delivery attempt long enough to cover the
	// slowest plausible pipeline run.
	dedupTTL := cfg.StuckAfter
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup, cfg.ConsumerMaxConcurrency, pipeline, deduper, dedupTTL, logger)
	if err != nil {
		slog.Error("kafka consumer init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = consumer.Close() }()

	sweeper := app.NewStuckCandidateSweeper(candRepo, cfg.StuckAfter, cfg.SweepInterval)
	go sweeper.Run(ctx)

	// Operational surface: liveness and Prometheus metrics.
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	opsSrv := &http.Server{Addr: ":9090", Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("worker ops server listening", slog.String("addr", opsSrv.Addr))
		if err := opsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("ops server failed", slog.Any("error", err))
		}
	}()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		slog.Info("shutdown signal received")
		cancel()
		shutdownCtx, sCancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
		defer sCancel()
		_ = opsSrv.Shutdown(shutdownCtx)
	}()

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("consumer exited", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("worker stopped")
}
