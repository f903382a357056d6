package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reliefboard/internal/model"
)

type ProfileService interface {
	Get(ctx context.Context, userID int64) (*model.Profile, error)
	Update(ctx context.Context, userID int64, displayName string, age int, gender string) (*model.Profile, error)
}

type ProfileHandler struct {
	profiles ProfileService
	logger   *zap.Logger
}

func NewProfileHandler(profiles ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// Get GET /profile
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, _, ok := mustUser(c)
	if !ok {
		return
	}

	p, err := h.profiles.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name"`
	Age         int    `json:"age"`
	Gender      string `json:"gender"`
}

// Update PUT /profile
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, _, ok := mustUser(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p, err := h.profiles.Update(c.Request.Context(), userID, req.DisplayName, req.Age, req.Gender)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
