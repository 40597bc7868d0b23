package worker_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/queue"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/retry"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/store"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/worker"
)

type mockConsumer struct {
	readFn func(ctx context.Context) ([]queue.Message, error)

	acked    []string
	requeued []string
	dlq      []string
}

func (m *mockConsumer) Read(ctx context.Context) ([]queue.Message, error) {
	if m.readFn != nil {
		return m.readFn(ctx)
	}
	return nil, nil
}

func (m *mockConsumer) Ack(_ context.Context, msg queue.Message) error {
	m.acked = append(m.acked, msg.ID)
	return nil
}

func (m *mockConsumer) Requeue(_ context.Context, msg queue.Message, _ string) error {
	m.requeued = append(m.requeued, msg.ID)
	return nil
}

func (m *mockConsumer) SendDLQ(_ context.Context, msg queue.Message, _ string) error {
	m.dlq = append(m.dlq, msg.ID)
	return nil
}

type mockClassifier struct {
	classifyFn func(ctx context.Context, req *model.TriageRequest) (*model.TriageResult, error)
}

func (m *mockClassifier) Classify(ctx context.Context, req *model.TriageRequest) (*model.TriageResult, error) {
	if m.classifyFn != nil {
		return m.classifyFn(ctx, req)
	}
	return &model.TriageResult{RequestUID: req.Email.UID}, nil
}

type mockTaskStore struct {
	statuses []store.TaskStatus
}

func (m *mockTaskStore) SaveTaskStatus(_ context.Context, status store.TaskStatus) error {
	m.statuses = append(m.statuses, status)
	return nil
}

func triageMessage() queue.Message {
	payload, _ := json.Marshal(&model.TriageRequest{
		Email:             model.EmailDocument{UID: "em-300", Body: "corpo"},
		Candidates:        []model.CandidateKeyword{{CandidateID: "c1", Term: "termine"}},
		DictionaryVersion: 7,
	})
	return queue.Message{
		ID:      "1-0",
		TaskID:  "t-300",
		Payload: string(payload),
		Attempt: 1,
	}
}

var _ = Describe("Worker ProcessMessage", func() {
	var (
		ctx        context.Context
		consumer   *mockConsumer
		classifier *mockClassifier
		tasks      *mockTaskStore
		w          *worker.Worker
	)

	BeforeEach(func() {
		ctx = context.Background()
		consumer = &mockConsumer{}
		classifier = &mockClassifier{}
		tasks = &mockTaskStore{}
		w = worker.New(consumer, classifier, tasks, worker.Config{MaxAttempts: 3})
	})

	It("acks and records completion on success", func() {
		err := w.ProcessMessage(ctx, triageMessage())

		Expect(err).NotTo(HaveOccurred())
		Expect(consumer.acked).To(Equal([]string{"1-0"}))
		Expect(tasks.statuses).To(HaveLen(1))
		Expect(tasks.statuses[0].Status).To(Equal(store.TaskCompleted))
		Expect(tasks.statuses[0].RequestUID).To(Equal("em-300"))
	})

	It("sends undecodable payloads straight to the DLQ", func() {
		msg := triageMessage()
		msg.Payload = "{not json"

		err := w.ProcessMessage(ctx, msg)

		Expect(err).NotTo(HaveOccurred())
		Expect(consumer.dlq).To(Equal([]string{"1-0"}))
		Expect(consumer.requeued).To(BeEmpty())
	})

	It("acks and marks the task failed when retries are exhausted", func() {
		classifier.classifyFn = func(_ context.Context, req *model.TriageRequest) (*model.TriageResult, error) {
			return nil, &retry.ExhaustedError{
				Request: req,
				LastErr: errors.New("never validated"),
			}
		}

		err := w.ProcessMessage(ctx, triageMessage())

		Expect(err).NotTo(HaveOccurred())
		Expect(consumer.acked).To(Equal([]string{"1-0"}))
		Expect(consumer.requeued).To(BeEmpty())
		Expect(tasks.statuses).To(HaveLen(1))
		Expect(tasks.statuses[0].Status).To(Equal(store.TaskFailed))
		Expect(tasks.statuses[0].Error).To(ContainSubstring("never validated"))
	})

	It("returns transient errors so the message is requeued", func() {
		classifier.classifyFn = func(_ context.Context, _ *model.TriageRequest) (*model.TriageResult, error) {
			return nil, errors.New("redis timeout")
		}

		err := w.ProcessMessage(ctx, triageMessage())

		Expect(err).To(HaveOccurred())
		Expect(consumer.acked).To(BeEmpty())
	})
})
