package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"referral-rewards/internal/auth"
	"referral-rewards/internal/models"
	"referral-rewards/internal/services"
)

const defaultAnalyticsDays = 30

type AdminHandler struct {
	rewardService       *services.RewardService
	rewardConfigService *services.RewardConfigService
	statsService        *services.StatsService
	adminService        *services.AdminService
}

func NewAdminHandler(
	rewardService *services.RewardService,
	rewardConfigService *services.RewardConfigService,
	statsService *services.StatsService,
	adminService *services.AdminService,
) *AdminHandler {
	return &AdminHandler{
		rewardService:       rewardService,
		rewardConfigService: rewardConfigService,
		statsService:        statsService,
		adminService:        adminService,
	}
}

func actor(c *gin.Context) string {
	handle, _ := auth.GetHandle(c)
	return handle
}

// CreditReward moves a pending reward to CREDITED
func (h *AdminHandler) CreditReward(c *gin.Context) {
	rewardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reward, err := h.rewardService.Credit(c.Request.Context(), rewardID, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  "credited",
		"data":    reward,
	})
}

// RevokeReward moves a pending or credited reward to REVOKED
func (h *AdminHandler) RevokeReward(c *gin.Context) {
	rewardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reward, err := h.rewardService.Revoke(c.Request.Context(), rewardID, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  "revoked",
		"data":    reward,
	})
}

// CreateRewardConfig sets the value and unit for a reward type
func (h *AdminHandler) CreateRewardConfig(c *gin.Context) {
	var req struct {
		RewardType  string `json:"reward_type" binding:"required"`
		RewardValue *int64 `json:"reward_value" binding:"required"`
		RewardUnit  string `json:"reward_unit"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_INPUT"})
		return
	}

	cfg, err := h.rewardConfigService.CreateOrReplace(c.Request.Context(),
		req.RewardType, *req.RewardValue, req.RewardUnit, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cfg,
	})
}

// GetRewardConfigs lists reward configs; ?active=true limits to active ones
func (h *AdminHandler) GetRewardConfigs(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))

	list := h.rewardConfigService.ListAll
	if activeOnly {
		list = h.rewardConfigService.ListActive
	}
	configs, err := list(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    configs,
		"count":   len(configs),
	})
}

// DeactivateRewardConfig stops a reward type from producing new rewards
func (h *AdminHandler) DeactivateRewardConfig(c *gin.Context) {
	if err := h.rewardConfigService.Deactivate(c.Request.Context(), c.Param("type"), actor(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Reward config deactivated",
	})
}

// GetTopReferrers returns the referral leaderboard
func (h *AdminHandler) GetTopReferrers(c *gin.Context) {
	limit, ok := queryInt(c, "limit", services.DefaultLeaderboardLimit)
	if !ok {
		return
	}
	includeZero, _ := strconv.ParseBool(c.DefaultQuery("include_zero", "false"))

	entries, err := h.statsService.Leaderboard(c.Request.Context(), limit, includeZero)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
	})
}

// GetDashboard returns admin dashboard data
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	d, err := h.statsService.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_users":          d.TotalUsers,
		"total_referrals":      d.TotalReferrals,
		"successful_referrals": d.SuccessfulReferrals,
		"conversion_rate":      formatPercent(d.ConversionRate),
		"total_rewards":        d.TotalRewards,
		"pending_rewards":      d.PendingRewards,
		"credited_rewards":     d.CreditedRewards,
		"revoked_rewards":      d.RevokedRewards,
		"total_reward_value":   d.TotalRewardValue,
	})
}

// GetDailyAnalytics returns referral codes created per day for charting
func (h *AdminHandler) GetDailyAnalytics(c *gin.Context) {
	days, ok := queryInt(c, "days", defaultAnalyticsDays)
	if !ok {
		return
	}

	counts, err := h.statsService.DailyAnalytics(c.Request.Context(), days)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, counts)
}

// GetDailyStats returns the stored snapshot for ?date=YYYY-MM-DD (default today)
func (h *AdminHandler) GetDailyStats(c *gin.Context) {
	var (
		stats *models.ReferralDailyStats
		err   error
	)
	if raw := c.Query("date"); raw != "" {
		day, parseErr := services.ParseDay(raw)
		if parseErr != nil {
			respondError(c, parseErr)
			return
		}
		stats, err = h.statsService.GetDailyStats(c.Request.Context(), day)
	} else {
		stats, err = h.statsService.TodayStats(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}

// GetAdminLogs returns the audit trail
func (h *AdminHandler) GetAdminLogs(c *gin.Context) {
	limit, ok := queryInt(c, "limit", services.DefaultAdminLogLimit)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}

	logs, err := h.adminService.GetAdminLogs(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    logs,
		"limit":   limit,
		"offset":  offset,
	})
}
