// Command server starts the recruitment evaluation HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/talentgap/recruitment-evaluator/internal/adapter/ai/openai"
	"github.com/talentgap/recruitment-evaluator/internal/adapter/dedup"
	"github.com/talentgap/recruitment-evaluator/internal/adapter/httpserver"
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

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	candRepo := postgres.NewCandidateRepo(pool)
	reqRepo := postgres.NewRequirementRepo(pool)
	clientRepo := postgres.NewClientRepo(pool)
	ivRepo := postgres.NewInterviewerRepo(pool)
	docRepo := postgres.NewDocumentRepo(pool)
	metricsRepo := postgres.NewMetricsRepo(pool)

	producer, err := kafka.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		slog.Error("kafka producer connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := producer.Close(); err != nil {
			slog.Error("failed to close producer", slog.Any("error", err))
		}
	}()

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

	transformer := usecase.NewTransformer(aicl, cfg.ScoreMismatchThreshold)
	srv := httpserver.NewServer(
		usecase.NewSubmitService(candRepo, reqRepo, docRepo, producer),
		usecase.NewStatusService(candRepo),
		usecase.NewUploadService(store, cfg.PresignPutExpiry),
		usecase.NewSetupService(clientRepo, ivRepo, reqRepo, transformer),
		usecase.NewMetricsService(metricsRepo),
		postgres.NewAdminConsole(pool),
		candRepo,
		cfg.AdminSecret,
		cfg.StuckAfter,
	)

	deduper, err := dedup.New(cfg.RedisURL)
	if err != nil {
		slog.Error("redis connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = deduper.Close() }()

	ready := app.ReadyzHandler(
		app.PingCheck("db", pool),
		app.PingCheck("redis", deduper),
		app.PingCheck("kafka", producer),
	)

	handler := app.BuildRouter(cfg, srv, ready)
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		slog.Info("http server listening", slog.Int("port", cfg.Port), slog.String("env", cfg.AppEnv))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", slog.Any("error", err))
	}
}
