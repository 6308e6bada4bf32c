package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"referral-rewards/internal/auth"
	"referral-rewards/internal/services"
)

const defaultTimelineDays = 7

type ReferralHandler struct {
	userService     *services.UserService
	referralService *services.ReferralService
}

func NewReferralHandler(userService *services.UserService, referralService *services.ReferralService) *ReferralHandler {
	return &ReferralHandler{
		userService:     userService,
		referralService: referralService,
	}
}

func formatPercent(d decimal.Decimal) string {
	return d.StringFixed(1) + "%"
}

// GetReferralCode returns the caller's outstanding referral code
func (h *ReferralHandler) GetReferralCode(c *gin.Context) {
	handle, ok := auth.GetHandle(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	referrer, referral, err := h.referralService.GetOrCreateCode(c.Request.Context(), handle)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"referral_code": referral.Code,
		"referrer_id":   referrer.ID,
		"created_at":    referral.CreatedAt,
	})
}

// ApplyReferralCode redeems a referral code for the caller
func (h *ReferralHandler) ApplyReferralCode(c *gin.Context) {
	handle, ok := auth.GetHandle(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		Code         string `json:"code"`
		ReferralCode string `json:"referral_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_INPUT"})
		return
	}
	code := req.Code
	if code == "" {
		code = req.ReferralCode
	}

	outcome, err := h.referralService.Redeem(c.Request.Context(), handle, code)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Referral applied successfully - reward pending"
	if outcome.Reward == nil {
		message = "Referral applied successfully"
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     message,
		"referrer_id": outcome.Referral.ReferrerID,
		"referral":    outcome.Referral,
		"reward":      outcome.Reward,
	})
}

// GetMySummary returns the caller's code and conversion figures
func (h *ReferralHandler) GetMySummary(c *gin.Context) {
	handle, ok := auth.GetHandle(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	summary, err := h.referralService.MySummary(c.Request.Context(), handle)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"my_referral_code":     summary.Code,
		"total_referrals":      summary.TotalReferrals,
		"successful_referrals": summary.SuccessfulReferrals,
		"conversion_rate":      formatPercent(summary.ConversionRate),
	})
}

// GetReferrals lists who used the caller's codes
func (h *ReferralHandler) GetReferrals(c *gin.Context) {
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

	items, err := h.referralService.ListReferrals(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
		"count":   len(items),
	})
}

// GetTimeline returns the caller's daily redemption counts
func (h *ReferralHandler) GetTimeline(c *gin.Context) {
	handle, ok := auth.GetHandle(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	days, ok := queryInt(c, "days", defaultTimelineDays)
	if !ok {
		return
	}

	user, err := h.userService.GetUserByHandle(c.Request.Context(), handle)
	if err != nil {
		respondError(c, err)
		return
	}

	timeline, err := h.referralService.Timeline(c.Request.Context(), user.ID, days)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    timeline,
	})
}
