package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
)

// TriageTask is one asynchronous classification request.
type TriageTask struct {
	TaskID  string
	Request *model.TriageRequest
	TraceID string
	Attempt int
}

type Producer interface {
	Enqueue(ctx context.Context, task TriageTask) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, task TriageTask) error {
	attempt := task.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	payload, err := json.Marshal(task.Request)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	fields := map[string]any{
		"task_id": task.TaskID,
		"payload": string(payload),
		"attempt": attempt,
	}

	if task.TraceID != "" {
		fields["trace_id"] = task.TraceID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue triage task: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued triage task", "task_id", task.TaskID, "request_uid", task.Request.Email.UID, "attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
