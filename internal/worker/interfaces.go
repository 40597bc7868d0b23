package worker

import (
	"context"

	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/queue"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/store"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// Classifier abstracts the triage service for testability.
type Classifier interface {
	Classify(ctx context.Context, req *model.TriageRequest) (*model.TriageResult, error)
}

// TaskStore records task lifecycle transitions.
type TaskStore interface {
	SaveTaskStatus(ctx context.Context, status store.TaskStatus) error
}
