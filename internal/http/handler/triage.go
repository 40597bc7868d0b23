package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/Kepler9870u0987/TT-InferenceLayer/common/id"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/http/dto"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/queue"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/retry"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/service"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/store"
)

// ResultStore is the read/write surface the handlers need.
type ResultStore interface {
	GetResult(ctx context.Context, uid string) (*model.TriageResult, error)
	GetTaskStatus(ctx context.Context, taskID string) (*store.TaskStatus, error)
	SaveTaskStatus(ctx context.Context, status store.TaskStatus) error
	ListDeadLetters(ctx context.Context, limit int64) ([]model.DeadLetterRecord, error)
}

type TriageHandler struct {
	svc      service.Triage
	producer queue.Producer
	repo     ResultStore
}

func NewTriageHandler(svc service.Triage, producer queue.Producer, repo ResultStore) *TriageHandler {
	return &TriageHandler{
		svc:      svc,
		producer: producer,
		repo:     repo,
	}
}

// Classify runs triage synchronously and returns the stored result.
func (h *TriageHandler) Classify(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.TriageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid triage request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.Classify(ctx, req.ToModel())
	if err != nil {
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":    "classification failed after all retry strategies",
				"attempts": exhausted.Metadata.Len(),
			})
			return
		}
		slog.ErrorContext(ctx, "failed to classify email", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to classify email"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Enqueue accepts a request for asynchronous processing and returns a
// task ID the caller can poll.
func (h *TriageHandler) Enqueue(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.TriageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid triage request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	taskID := id.NewString()
	modelReq := req.ToModel()

	if err := h.repo.SaveTaskStatus(ctx, store.TaskStatus{
		TaskID:     taskID,
		Status:     store.TaskPending,
		RequestUID: modelReq.Email.UID,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to record pending task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue task"})
		return
	}

	var traceID string
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		traceID = spanCtx.TraceID().String()
	}

	if err := h.producer.Enqueue(ctx, queue.TriageTask{
		TaskID:  taskID,
		Request: modelReq,
		TraceID: traceID,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to enqueue task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue task"})
		return
	}

	c.JSON(http.StatusAccepted, dto.EnqueueResponse{
		TaskID: taskID,
		Status: store.TaskPending,
	})
}

// GetResult returns a stored triage result by request UID.
func (h *TriageHandler) GetResult(c *gin.Context) {
	ctx := c.Request.Context()
	uid := c.Param("uid")

	result, err := h.repo.GetResult(ctx, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to fetch result", "error", err, "request_uid", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch result"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTask returns the status of an asynchronous task.
func (h *TriageHandler) GetTask(c *gin.Context) {
	ctx := c.Request.Context()
	taskID := c.Param("task_id")

	status, err := h.repo.GetTaskStatus(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to fetch task", "error", err, "task_id", taskID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch task"})
		return
	}

	c.JSON(http.StatusOK, dto.TaskStatusResponse{
		TaskID:     status.TaskID,
		Status:     status.Status,
		RequestUID: status.RequestUID,
		Error:      status.Error,
	})
}

// ListDeadLetters returns the most recent dead-lettered requests.
func (h *TriageHandler) ListDeadLetters(c *gin.Context) {
	ctx := c.Request.Context()

	limit := int64(100)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	records, err := h.repo.ListDeadLetters(ctx, limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list dead letters", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list dead letters"})
		return
	}

	c.JSON(http.StatusOK, dto.DeadLetterListResponse{
		Count:   len(records),
		Records: records,
	})
}
