package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"wasender/internal/dto/req"
	"wasender/internal/dto/resp"
	"wasender/internal/service"

	"github.com/gin-gonic/gin"
)

// QueueProvider is the queue service surface consumed by the handlers.
type QueueProvider interface {
	Enqueue(ctx context.Context, op *service.OperatorInfo, r req.EnqueueRequest) (*resp.EnqueueResponse, error)
	Process(ctx context.Context, op *service.OperatorInfo, r req.ProcessRequest) (*resp.ProcessResponse, error)
	Stats(ctx context.Context, op *service.OperatorInfo, jobID string) (*resp.QueueStatsResponse, error)
	RetryFailed(ctx context.Context, op *service.OperatorInfo, jobID string) (*resp.RetryFailedResponse, error)
	Health(ctx context.Context) error
}

type QueueHandler struct {
	service QueueProvider
}

func NewQueueHandler(service QueueProvider) *QueueHandler {
	return &QueueHandler{service: service}
}

func (h *QueueHandler) Enqueue(c *gin.Context) {
	var r req.EnqueueRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing jobId or rows"})
		return
	}

	op := service.GetOperatorInfo(c.Request.Context())
	out, err := h.service.Enqueue(c.Request.Context(), op, r)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *QueueHandler) Process(c *gin.Context) {
	var r req.ProcessRequest
	// An empty body means: process the caller's whole queue
	if err := c.ShouldBindJSON(&r); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	op := service.GetOperatorInfo(c.Request.Context())
	out, err := h.service.Process(c.Request.Context(), op, r)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *QueueHandler) Stats(c *gin.Context) {
	jobID := c.Param("id")
	op := service.GetOperatorInfo(c.Request.Context())

	out, err := h.service.Stats(c.Request.Context(), op, jobID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *QueueHandler) RetryFailed(c *gin.Context) {
	jobID := c.Param("id")
	op := service.GetOperatorInfo(c.Request.Context())

	out, err := h.service.RetryFailed(c.Request.Context(), op, jobID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *QueueHandler) HealthCheck(c *gin.Context) {
	if err := h.service.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *QueueHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this job"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
