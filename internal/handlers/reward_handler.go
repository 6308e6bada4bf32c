package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"referral-rewards/internal/auth"
	"referral-rewards/internal/services"
)

type RewardHandler struct {
	userService   *services.UserService
	rewardService *services.RewardService
}

func NewRewardHandler(userService *services.UserService, rewardService *services.RewardService) *RewardHandler {
	return &RewardHandler{
		userService:   userService,
		rewardService: rewardService,
	}
}

// GetSummary returns the caller's reward totals
func (h *RewardHandler) GetSummary(c *gin.Context) {
	handle, ok := auth.GetHandle(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.userService.GetUserByHandle(c.Request.Context(), handle)
	if err != nil {
		respondError(c, err)
		return
	}

	summary, err := h.rewardService.Summary(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetHistory returns the caller's reward entries, newest first
func (h *RewardHandler) GetHistory(c *gin.Context) {
	handle, ok := auth.GetHandle(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.userService.GetUserByHandle(c.Request.Context(), handle)
	if err != nil {
		respondError(c, err)
		return
	}

	history, err := h.rewardService.History(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    history,
		"count":   len(history),
	})
}
