package handler_test

import (
	"context"

	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/queue"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/store"
)

type mockTriage struct {
	classifyFn func(ctx context.Context, req *model.TriageRequest) (*model.TriageResult, error)
}

func (m *mockTriage) Classify(ctx context.Context, req *model.TriageRequest) (*model.TriageResult, error) {
	if m.classifyFn != nil {
		return m.classifyFn(ctx, req)
	}
	return &model.TriageResult{RequestUID: req.Email.UID}, nil
}

type mockProducer struct {
	enqueueFn func(ctx context.Context, task queue.TriageTask) error
	enqueued  []queue.TriageTask
}

func (m *mockProducer) Enqueue(ctx context.Context, task queue.TriageTask) error {
	m.enqueued = append(m.enqueued, task)
	if m.enqueueFn != nil {
		return m.enqueueFn(ctx, task)
	}
	return nil
}

func (m *mockProducer) Close() error { return nil }

type mockResultStore struct {
	getResultFn       func(ctx context.Context, uid string) (*model.TriageResult, error)
	getTaskStatusFn   func(ctx context.Context, taskID string) (*store.TaskStatus, error)
	saveTaskStatusFn  func(ctx context.Context, status store.TaskStatus) error
	listDeadLettersFn func(ctx context.Context, limit int64) ([]model.DeadLetterRecord, error)

	savedStatuses []store.TaskStatus
}

func (m *mockResultStore) GetResult(ctx context.Context, uid string) (*model.TriageResult, error) {
	if m.getResultFn != nil {
		return m.getResultFn(ctx, uid)
	}
	return nil, store.ErrNotFound
}

func (m *mockResultStore) GetTaskStatus(ctx context.Context, taskID string) (*store.TaskStatus, error) {
	if m.getTaskStatusFn != nil {
		return m.getTaskStatusFn(ctx, taskID)
	}
	return nil, store.ErrNotFound
}

func (m *mockResultStore) SaveTaskStatus(ctx context.Context, status store.TaskStatus) error {
	m.savedStatuses = append(m.savedStatuses, status)
	if m.saveTaskStatusFn != nil {
		return m.saveTaskStatusFn(ctx, status)
	}
	return nil
}

func (m *mockResultStore) ListDeadLetters(ctx context.Context, limit int64) ([]model.DeadLetterRecord, error) {
	if m.listDeadLettersFn != nil {
		return m.listDeadLettersFn(ctx, limit)
	}
	return nil, nil
}
