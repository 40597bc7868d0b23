// Package worker consumes triage tasks from the Redis stream and runs
// them through the classification service.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kepler9870u0987/TT-InferenceLayer/common/logger"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/queue"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/retry"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/store"
)

type Config struct {
	MaxAttempts int
}

type Worker struct {
	consumer   Consumer
	classifier Classifier
	tasks      TaskStore
	cfg        Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, classifier Classifier, tasks TaskStore, cfg Config) *Worker {
	return &Worker{
		consumer:   consumer,
		classifier: classifier,
		tasks:      tasks,
		cfg:        cfg,
		stopCh:     make(chan struct{}),
		stoppedCh:  make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				// Brief backoff on error
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		if err := w.processMessageSafe(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "message processing failed",
				"error", err,
				"message_id", msg.ID,
				"task_id", msg.TaskID)
			w.handleFailedMessage(ctx, msg, err)
		}
	}

	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing",
				"panic", r,
				"message_id", msg.ID,
				"task_id", msg.TaskID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage runs one triage task end to end. An exhausted retry
// ladder is terminal: the service has already dead-lettered the
// request, so the message is acked rather than requeued.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TaskID:    logger.Ptr(msg.TaskID),
		Component: "triage.worker",
	})

	slog.InfoContext(ctx, "processing message",
		"message_id", msg.ID,
		"attempt", msg.Attempt)

	var req model.TriageRequest
	if err := json.Unmarshal([]byte(msg.Payload), &req); err != nil {
		// A payload that never decodes will never decode. Straight to DLQ.
		if dlqErr := w.consumer.SendDLQ(ctx, msg, fmt.Sprintf("decoding payload: %v", err)); dlqErr != nil {
			return fmt.Errorf("sending undecodable message to dlq: %w", dlqErr)
		}
		return nil
	}

	result, err := w.classifier.Classify(ctx, &req)
	if err != nil {
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			w.saveStatus(ctx, store.TaskStatus{
				TaskID:     msg.TaskID,
				Status:     store.TaskFailed,
				RequestUID: req.Email.UID,
				Error:      err.Error(),
			})
			if ackErr := w.consumer.Ack(ctx, msg); ackErr != nil {
				slog.WarnContext(ctx, "failed to ACK exhausted message", "error", ackErr)
			}
			return nil
		}
		return fmt.Errorf("classifying request: %w", err)
	}

	w.saveStatus(ctx, store.TaskStatus{
		TaskID:     msg.TaskID,
		Status:     store.TaskCompleted,
		RequestUID: result.RequestUID,
	})

	if err := w.consumer.Ack(ctx, msg); err != nil {
		// Message will be redelivered but the result is already stored.
		slog.WarnContext(ctx, "failed to ACK message",
			"error", err,
			"message_id", msg.ID)
	}

	return nil
}

func (w *Worker) saveStatus(ctx context.Context, status store.TaskStatus) {
	if err := w.tasks.SaveTaskStatus(ctx, status); err != nil {
		slog.ErrorContext(ctx, "failed to save task status",
			"error", err,
			"task_id", status.TaskID,
			"status", status.Status)
	}
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "max attempts reached, sending to DLQ",
			"message_id", msg.ID,
			"task_id", msg.TaskID,
			"attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed message",
		"message_id", msg.ID,
		"task_id", msg.TaskID,
		"attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}
