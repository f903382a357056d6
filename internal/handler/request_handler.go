package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reliefboard/internal/model"
	reqsvc "reliefboard/internal/service/request"
)

// IdempotencyHeader lets clients retry a submission safely.
const IdempotencyHeader = "Idempotency-Key"

type RequestService interface {
	Submit(ctx context.Context, in reqsvc.SubmitInput) (*model.AidRequest, error)
	Feed(ctx context.Context, limit, offset int) ([]model.AidRequest, error)
	ListMine(ctx context.Context, userID int64) ([]model.AidRequest, error)
	Delete(ctx context.Context, actorID int64, role string, id int64) error
}

type RequestHandler struct {
	requests RequestService
	logger   *zap.Logger
}

func NewRequestHandler(requests RequestService, logger *zap.Logger) *RequestHandler {
	return &RequestHandler{requests: requests, logger: logger}
}

type submitRequest struct {
	Description string `json:"description"`
	Location    string `json:"location"`
	PhoneNumber string `json:"phone_number"`
}

// Submit POST /requests
func (h *RequestHandler) Submit(c *gin.Context) {
	userID, _, ok := mustUser(c)
	if !ok {
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.requests.Submit(c.Request.Context(), reqsvc.SubmitInput{
		UserID:         userID,
		Description:    req.Description,
		Location:       req.Location,
		PhoneNumber:    req.PhoneNumber,
		IdempotencyKey: c.GetHeader(IdempotencyHeader),
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Feed GET /requests?limit=&offset=
func (h *RequestHandler) Feed(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	list, err := h.requests.Feed(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": list})
}

// Mine GET /requests/mine
func (h *RequestHandler) Mine(c *gin.Context) {
	userID, _, ok := mustUser(c)
	if !ok {
		return
	}

	list, err := h.requests.ListMine(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": list})
}

// Delete DELETE /requests/:id
func (h *RequestHandler) Delete(c *gin.Context) {
	userID, role, ok := mustUser(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.requests.Delete(c.Request.Context(), userID, role, id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
