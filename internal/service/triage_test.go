package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/retry"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/service"
)

func triageRequest() *model.TriageRequest {
	return &model.TriageRequest{
		Email: model.EmailDocument{
			UID:                     "em-200",
			Body:                    "La spedizione non e ancora arrivata.",
			ParserVersion:           "parser-1.2",
			CanonicalizationVersion: "canon-0.4",
			NERModelVersion:         "ner-2.0",
		},
		Candidates: []model.CandidateKeyword{
			{CandidateID: "c1", Term: "spedizione", Score: 0.8},
		},
		DictionaryVersion: 7,
	}
}

var _ = Describe("Triage Classify", func() {
	var (
		ctx    context.Context
		engine *mockEngine
		repo   *mockResultStore
		svc    service.Triage
	)

	BeforeEach(func() {
		ctx = context.Background()
		engine = &mockEngine{}
		repo = &mockResultStore{}
		svc = service.NewWithEngine(engine, repo, "triage-1.0.0")
	})

	It("persists a result with the full audit trail", func() {
		engine.runFn = func(_ context.Context, req *model.TriageRequest) (*retry.Outcome, retry.Metadata, error) {
			var meta retry.Metadata
			meta = meta.Append(model.AttemptRecord{Strategy: retry.StrategyStandard, Attempt: 0, Outcome: "hard_fail"})
			meta = meta.Append(model.AttemptRecord{Strategy: retry.StrategyShrink, Attempt: 0, Outcome: "success", Model: "gpt-4o-mini"})
			return &retry.Outcome{
				Response: &model.TriageResponse{
					DictionaryVersion: req.DictionaryVersion,
					Topics: []model.TopicResult{
						{LabelID: model.TopicShipping, Confidence: 0.8},
					},
				},
				Warnings:   []string{"topics[0]: no evidence for SPEDIZIONE"},
				Generation: model.GenerationMetadata{Model: "gpt-4o-mini", FinishReason: "stop"},
			}, meta, nil
		}

		result, err := svc.Classify(ctx, triageRequest())

		Expect(err).NotTo(HaveOccurred())
		Expect(result.RequestUID).To(Equal("em-200"))
		Expect(result.TotalAttempts).To(Equal(2))
		Expect(result.FinalStrategy).To(Equal(retry.StrategyShrink))
		Expect(result.Warnings).To(HaveLen(1))
		Expect(result.PipelineVersion.DictionaryVersion).To(Equal(7))
		Expect(result.PipelineVersion.ModelVersion).To(Equal("gpt-4o-mini"))
		Expect(result.PipelineVersion.ServiceVersion).To(Equal("triage-1.0.0"))
		Expect(result.PipelineVersion.ParserVersion).To(Equal("parser-1.2"))

		Expect(repo.savedResults).To(HaveLen(1))
		Expect(repo.savedDeadLetters).To(BeEmpty())
	})

	It("dead-letters the request when retries are exhausted", func() {
		req := triageRequest()
		engine.runFn = func(_ context.Context, r *model.TriageRequest) (*retry.Outcome, retry.Metadata, error) {
			var meta retry.Metadata
			meta = meta.Append(model.AttemptRecord{Strategy: retry.StrategyStandard, Attempt: 0, Outcome: "hard_fail", Error: "boom"})
			return nil, meta, &retry.ExhaustedError{
				Request:  r,
				Metadata: meta,
				LastErr:  errors.New("boom"),
			}
		}

		result, err := svc.Classify(ctx, req)

		Expect(result).To(BeNil())
		var exhausted *retry.ExhaustedError
		Expect(errors.As(err, &exhausted)).To(BeTrue())

		Expect(repo.savedDeadLetters).To(HaveLen(1))
		record := repo.savedDeadLetters[0]
		Expect(record.Request.Email.UID).To(Equal("em-200"))
		Expect(record.Attempts).To(HaveLen(1))
		Expect(record.FinalError).To(Equal("boom"))
		Expect(repo.savedResults).To(BeEmpty())
	})

	It("propagates non-exhaustion errors without dead-lettering", func() {
		engine.runFn = func(_ context.Context, _ *model.TriageRequest) (*retry.Outcome, retry.Metadata, error) {
			return nil, retry.Metadata{}, context.Canceled
		}

		_, err := svc.Classify(ctx, triageRequest())

		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(repo.savedDeadLetters).To(BeEmpty())
	})

	It("fails when the result cannot be persisted", func() {
		repo.saveResultFn = func(_ context.Context, _ *model.TriageResult) error {
			return errors.New("redis down")
		}

		_, err := svc.Classify(ctx, triageRequest())

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("persisting result"))
	})
})
