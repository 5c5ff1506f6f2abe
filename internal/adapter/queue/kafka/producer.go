// Package kafka provides the evaluation queue on Kafka/Redpanda.
//
// The producer publishes one record per submitted candidate, keyed by
// candidate id so deliveries for the same candidate stay ordered on one
// partition. The consumer processes deliveries at-least-once; downstream
// writes are guarded so replays are harmless.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/talentgap/recruitment-evaluator/internal/domain"
)

// TopicEvaluate carries evaluation tasks from the API to the workers.
const TopicEvaluate = "evaluate-candidates"

// Producer wraps a transactional Kafka producer and implements domain.Queue.
type Producer struct {
	client *kgo.Client
	// serializes transactions; franz-go allows one in flight per client
	txn chan struct{}
}

// NewProducer constructs a transactional Producer and ensures the topic
// exists. Topic creation failure is logged but tolerated since the broker
// may disallow it and the topic often pre-exists.
func NewProducer(brokers []string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("%w: no seed brokers provided", domain.ErrInvalidArgument)
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.TransactionalID("recruitment-evaluator-producer"),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1_000_000),
	)
	if err != nil {
		return nil, fmt.Errorf("op=kafka.NewProducer: %w", err)
	}
	if err := ensureTopic(context.Background(), client, TopicEvaluate, 4, 1); err != nil {
		slog.Warn("topic creation failed, assuming it exists",
			slog.String("topic", TopicEvaluate), slog.Any("error", err))
	}
	return &Producer{client: client, txn: make(chan struct{}, 1)}, nil
}

// EnqueueEvaluate publishes the task inside a transaction.
func (p *Producer) EnqueueEvaluate(ctx domain.Context, task domain.EvaluateTask) error {
	select {
	case p.txn <- struct{}{}:
		defer func() { <-p.txn }()
	case <-ctx.Done():
		return ctx.Err()
	}

	b, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("op=kafka.EnqueueEvaluate marshal: %w", err)
	}
	if err := p.client.BeginTransaction(); err != nil {
		return fmt.Errorf("op=kafka.EnqueueEvaluate begin: %w", err)
	}

	record := &kgo.Record{
		Topic: TopicEvaluate,
		Key:   []byte(task.CandidateID),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "candidate_id", Value: []byte(task.CandidateID)},
		},
	}
	e := kgo.AbortingFirstErrPromise(p.client)
	p.client.Produce(ctx, record, e.Promise())
	if err := e.Err(); err != nil {
		if abortErr := p.client.EndTransaction(ctx, kgo.TryAbort); abortErr != nil {
			slog.Error("transaction abort failed", slog.Any("error", abortErr))
		}
		return fmt.Errorf("op=kafka.EnqueueEvaluate produce: %w", err)
	}
	if err := p.client.EndTransaction(ctx, kgo.TryCommit); err != nil {
		return fmt.Errorf("op=kafka.EnqueueEvaluate commit: %w", err)
	}

	slog.Info("evaluate task enqueued",
		slog.String("candidate_id", task.CandidateID),
		slog.String("topic", TopicEvaluate))
	return nil
}

// Ping reports whether the brokers are reachable; readiness checks use it.
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close closes the underlying client.
func (p *Producer) Close() error {
	if p.client != nil {
		p.client.Close()
	}
	return nil
}
