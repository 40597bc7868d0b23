package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Kepler9870u0987/TT-InferenceLayer/common/id"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/http/handler"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/queue"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/retry"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/store"
)

func requestBody() []byte {
	body, _ := json.Marshal(map[string]any{
		"email": map[string]any{
			"uid":  "em-400",
			"body": "Vorrei disdire il contratto.",
		},
		"candidates": []map[string]any{
			{"candidate_id": "c1", "term": "contratto"},
		},
		"dictionary_version": 7,
	})
	return body
}

var _ = Describe("TriageHandler", func() {
	var (
		router *gin.Engine
		svc    *mockTriage
		prod   *mockProducer
		repo   *mockResultStore
	)

	BeforeEach(func() {
		Expect(id.Init(9)).To(Succeed())
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockTriage{}
		prod = &mockProducer{}
		repo = &mockResultStore{}
		h := handler.NewTriageHandler(svc, prod, repo)
		router.POST("/v1/triage", h.Classify)
		router.POST("/v1/triage/async", h.Enqueue)
		router.GET("/v1/triage/task/:task_id", h.GetTask)
		router.GET("/v1/triage/:uid", h.GetResult)
		router.GET("/v1/dlq", h.ListDeadLetters)
	})

	Describe("Classify", func() {
		It("returns 200 with the triage result", func() {
			svc.classifyFn = func(_ context.Context, req *model.TriageRequest) (*model.TriageResult, error) {
				Expect(req.Email.UID).To(Equal("em-400"))
				Expect(req.DictionaryVersion).To(Equal(7))
				return &model.TriageResult{RequestUID: req.Email.UID, FinalStrategy: retry.StrategyStandard}, nil
			}

			req := httptest.NewRequest(http.MethodPost, "/v1/triage", bytes.NewBuffer(requestBody()))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp model.TriageResult
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.RequestUID).To(Equal("em-400"))
		})

		It("returns 400 on an invalid body", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/triage", bytes.NewBufferString(`{`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 422 when every retry strategy is exhausted", func() {
			svc.classifyFn = func(_ context.Context, req *model.TriageRequest) (*model.TriageResult, error) {
				return nil, &retry.ExhaustedError{
					Request: req,
					LastErr: errors.New("never validated"),
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/v1/triage", bytes.NewBuffer(requestBody()))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		})

		It("returns 500 on other service errors", func() {
			svc.classifyFn = func(_ context.Context, _ *model.TriageRequest) (*model.TriageResult, error) {
				return nil, errors.New("boom")
			}

			req := httptest.NewRequest(http.MethodPost, "/v1/triage", bytes.NewBuffer(requestBody()))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("Enqueue", func() {
		It("returns 202 with a task id and records a pending task", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/triage/async", bytes.NewBuffer(requestBody()))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusAccepted))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["task_id"]).NotTo(BeEmpty())
			Expect(resp["status"]).To(Equal(store.TaskPending))

			Expect(prod.enqueued).To(HaveLen(1))
			Expect(prod.enqueued[0].Request.Email.UID).To(Equal("em-400"))
			Expect(repo.savedStatuses).To(HaveLen(1))
			Expect(repo.savedStatuses[0].Status).To(Equal(store.TaskPending))
		})

		It("returns 500 when enqueueing fails", func() {
			prod.enqueueFn = func(_ context.Context, _ queue.TriageTask) error {
				return errors.New("stream unavailable")
			}

			req := httptest.NewRequest(http.MethodPost, "/v1/triage/async", bytes.NewBuffer(requestBody()))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("GetResult", func() {
		It("returns 200 with a stored result", func() {
			repo.getResultFn = func(_ context.Context, uid string) (*model.TriageResult, error) {
				return &model.TriageResult{RequestUID: uid, CreatedAt: time.Now()}, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/v1/triage/em-400", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("returns 404 for an unknown uid", func() {
			req := httptest.NewRequest(http.MethodGet, "/v1/triage/missing", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GetTask", func() {
		It("returns 200 with the task status", func() {
			repo.getTaskStatusFn = func(_ context.Context, taskID string) (*store.TaskStatus, error) {
				return &store.TaskStatus{TaskID: taskID, Status: store.TaskCompleted, RequestUID: "em-400"}, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/v1/triage/task/t-1", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["status"]).To(Equal(store.TaskCompleted))
		})

		It("returns 404 for an unknown task", func() {
			req := httptest.NewRequest(http.MethodGet, "/v1/triage/task/missing", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("ListDeadLetters", func() {
		It("returns the recent records", func() {
			repo.listDeadLettersFn = func(_ context.Context, limit int64) ([]model.DeadLetterRecord, error) {
				Expect(limit).To(Equal(int64(100)))
				return []model.DeadLetterRecord{
					{FinalError: "never validated", Timestamp: time.Now()},
				}, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/v1/dlq", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["count"]).To(BeEquivalentTo(1))
		})

		It("rejects a non-numeric limit", func() {
			req := httptest.NewRequest(http.MethodGet, "/v1/dlq?limit=all", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
