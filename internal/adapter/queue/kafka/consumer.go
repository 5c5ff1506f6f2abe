package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/talentgap/recruitment-evaluator/internal/domain"
)

// Handler processes one evaluation task end to end.
type Handler interface {
	Process(ctx domain.Context, task domain.EvaluateTask) error
}

// Consumer reads evaluation tasks from the group and fans them out to a
// bounded set of workers. Delivery is at-least-once; the dedup barrier
// plus status-guarded writes keep replays from double-processing.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	dedup   domain.Deduper
	log     *slog.Logger

	// dedupTTL bounds how long a crashed worker can hold a claim.
	dedupTTL time.Duration
	sem      chan struct{}
	wg       sync.WaitGroup
}

// NewConsumer joins the group and subscribes to the evaluate topic.
func NewConsumer(brokers []string, groupID string, maxConcurrency int, handler Handler, dedup domain.Deduper, dedupTTL time.Duration, log *slog.Logger) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("%w: no seed brokers provided", domain.ErrInvalidArgument)
	}
	if groupID == "" {
		return nil, fmt.Errorf("%w: consumer group required", domain.ErrInvalidArgument)
	}
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	kotelService := kotel.NewKotel(kotel.WithTracer(
		kotel.NewTracer(kotel.TracerProvider(otel.GetTracerProvider())),
	))

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(TopicEvaluate),
		kgo.WithHooks(kotelService.Hooks()...),
		kgo.DialTimeout(10*time.Second),
		kgo.SessionTimeout(30*time.Second),
		kgo.HeartbeatInterval(3*time.Second),
		kgo.FetchMaxWait(5*time.Second),
		kgo.AutoCommitMarks(),
		kgo.AutoCommitInterval(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("op=kafka.NewConsumer: %w", err)
	}
	return &Consumer{
		client:   client,
		handler:  handler,
		dedup:    dedup,
		log:      log,
		dedupTTL: dedupTTL,
		sem:      make(chan struct{}, maxConcurrency),
	}, nil
}

// Run polls until the context is cancelled, then waits for in-flight
// workers to drain.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info("consumer started", slog.String("topic", TopicEvaluate))
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			break
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.log.Error("fetch error",
				slog.String("topic", topic),
				slog.Int("partition", int(partition)),
				slog.Any("error", err))
		})
		fetches.EachRecord(func(rec *kgo.Record) {
			select {
			case c.sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			c.wg.Add(1)
			go func() {
				defer c.wg.Done()
				defer func() { <-c.sem }()
				c.handleRecord(ctx, rec)
			}()
		})
	}
	c.wg.Wait()
	c.log.Info("consumer stopped")
	return ctx.Err()
}

func (c *Consumer) handleRecord(ctx context.Context, rec *kgo.Record) {
	// Mark regardless of outcome. Failures are recorded on the candidate
	// row, not retried through the log.
	defer c.client.MarkCommitRecords(rec)

	var task domain.EvaluateTask
	if err := json.Unmarshal(rec.Value, &task); err != nil {
		c.log.Error("malformed task record dropped",
			slog.Int64("offset", rec.Offset), slog.Any("error", err))
		return
	}
	log := c.log.With(slog.String("candidate_id", task.CandidateID))

	ok, err := c.dedup.Acquire(ctx, task.CandidateID, c.dedupTTL)
	if err != nil {
		log.Error("dedup acquire failed, processing anyway", slog.Any("error", err))
	} else if !ok {
		log.Info("duplicate delivery skipped")
		return
	} else {
		defer func() {
			if relErr := c.dedup.Release(ctx, task.CandidateID); relErr != nil {
				log.Warn("dedup release failed", slog.Any("error", relErr))
			}
		}()
	}

	start := time.Now()
	if err := c.handler.Process(ctx, task); err != nil {
		log.Error("evaluation failed",
			slog.Duration("elapsed", time.Since(start)), slog.Any("error", err))
		return
	}
	log.Info("evaluation processed", slog.Duration("elapsed", time.Since(start)))
}

// Close leaves the group and closes the client.
func (c *Consumer) Close() error {
	if c.client != nil {
		c.client.Close()
	}
	return nil
}
