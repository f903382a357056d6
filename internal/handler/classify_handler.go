package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reliefboard/internal/classifier"
)

type Evaluator interface {
	Evaluate(ctx context.Context, description string) classifier.Result
}

// ClassifyHandler runs the classifier without storing anything.
type ClassifyHandler struct {
	classifier Evaluator
	logger     *zap.Logger
}

func NewClassifyHandler(c Evaluator, logger *zap.Logger) *ClassifyHandler {
	return &ClassifyHandler{classifier: c, logger: logger}
}

type classifyRequest struct {
	Description string `json:"description" binding:"required"`
}

// Classify POST /classify
func (h *ClassifyHandler) Classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description is required"})
		return
	}

	res := h.classifier.Evaluate(c.Request.Context(), req.Description)

	body := gin.H{
		"is_urgent":  res.Urgent,
		"source":     res.Source,
		"latency_ms": res.Latency.Milliseconds(),
	}
	if res.Failure != "" {
		body["failure"] = res.Failure
	}
	c.JSON(http.StatusOK, body)
}
