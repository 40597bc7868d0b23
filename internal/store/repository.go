// Package store persists triage results, task statuses and dead
// letters in Redis.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
)

const (
	resultKeyPrefix = "triage:result:"
	taskKeyPrefix   = "triage:task:"
	dlqKey          = "triage:dlq"
	resultIndexKey  = "triage:results:index"

	dlqCap = 1000
)

// ErrNotFound is returned when no record exists for the given key.
var ErrNotFound = errors.New("not found")

// Task states stored under triage:task:<id>.
const (
	TaskPending   = "pending"
	TaskCompleted = "completed"
	TaskFailed    = "failed"
)

// TaskStatus tracks an asynchronous triage task through its lifetime.
type TaskStatus struct {
	TaskID     string    `json:"task_id"`
	Status     string    `json:"status"`
	RequestUID string    `json:"request_uid"`
	Error      string    `json:"error,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Repository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRepository(client *redis.Client, ttl time.Duration) *Repository {
	return &Repository{client: client, ttl: ttl}
}

// SaveResult writes the result under its request UID with the
// configured TTL and indexes it by creation time.
func (r *Repository) SaveResult(ctx context.Context, result *model.TriageResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	key := resultKeyPrefix + result.RequestUID
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("saving result %s: %w", result.RequestUID, err)
	}

	if err := r.client.ZAdd(ctx, resultIndexKey, redis.Z{
		Score:  float64(result.CreatedAt.Unix()),
		Member: result.RequestUID,
	}).Err(); err != nil {
		return fmt.Errorf("indexing result %s: %w", result.RequestUID, err)
	}
	return nil
}

func (r *Repository) GetResult(ctx context.Context, uid string) (*model.TriageResult, error) {
	data, err := r.client.Get(ctx, resultKeyPrefix+uid).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching result %s: %w", uid, err)
	}

	var result model.TriageResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding result %s: %w", uid, err)
	}
	return &result, nil
}

func (r *Repository) SaveTaskStatus(ctx context.Context, status TaskStatus) error {
	status.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encoding task status: %w", err)
	}
	if err := r.client.Set(ctx, taskKeyPrefix+status.TaskID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("saving task %s: %w", status.TaskID, err)
	}
	return nil
}

func (r *Repository) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	data, err := r.client.Get(ctx, taskKeyPrefix+taskID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching task %s: %w", taskID, err)
	}

	var status TaskStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("decoding task %s: %w", taskID, err)
	}
	return &status, nil
}

// SaveDeadLetter appends the record to the dead-letter list, keeping
// only the most recent entries.
func (r *Repository) SaveDeadLetter(ctx context.Context, record *model.DeadLetterRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding dead letter: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, dlqKey, data)
	pipe.LTrim(ctx, dlqKey, 0, dlqCap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving dead letter: %w", err)
	}
	return nil
}

// ListDeadLetters returns the most recent records, newest first.
func (r *Repository) ListDeadLetters(ctx context.Context, limit int64) ([]model.DeadLetterRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	entries, err := r.client.LRange(ctx, dlqKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing dead letters: %w", err)
	}

	records := make([]model.DeadLetterRecord, 0, len(entries))
	for _, entry := range entries {
		var record model.DeadLetterRecord
		if err := json.Unmarshal([]byte(entry), &record); err != nil {
			return nil, fmt.Errorf("decoding dead letter: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}
