package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"referral-rewards/internal/auth"
)

// Handlers groups the route handlers mounted by NewRouter
type Handlers struct {
	Auth     *AuthHandler
	Referral *ReferralHandler
	Reward   *RewardHandler
	Admin    *AdminHandler
}

// NewRouter wires middleware and routes onto engine
func NewRouter(engine *gin.Engine, h Handlers, tokens *auth.TokenManager, allowedOrigins []string) *gin.Engine {
	engine.Use(RequestID())

	if len(allowedOrigins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "Backend is Running"})
	})
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	authRoutes := engine.Group("/auth")
	{
		authRoutes.POST("/login", h.Auth.Login)
		authRoutes.GET("/me", auth.AuthMiddleware(tokens), h.Auth.GetMe)
	}

	api := engine.Group("/api")
	api.Use(auth.AuthMiddleware(tokens))
	{
		referral := api.Group("/referral")
		{
			referral.GET("/code", h.Referral.GetReferralCode)
			referral.POST("/generate", h.Referral.GetReferralCode)
			referral.POST("/apply", h.Referral.ApplyReferralCode)
			referral.GET("/my", h.Referral.GetMySummary)
			referral.GET("/list", h.Referral.GetReferrals)
			referral.GET("/timeline", h.Referral.GetTimeline)
		}

		rewards := api.Group("/rewards")
		{
			rewards.GET("/summary", h.Reward.GetSummary)
			rewards.GET("/history", h.Reward.GetHistory)
		}

		admin := api.Group("/admin")
		admin.Use(auth.RequireAdmin())
		{
			admin.POST("/rewards/:id/credit", h.Admin.CreditReward)
			admin.POST("/rewards/:id/revoke", h.Admin.RevokeReward)
			admin.POST("/config", h.Admin.CreateRewardConfig)
			admin.GET("/config", h.Admin.GetRewardConfigs)
			admin.DELETE("/config/:type", h.Admin.DeactivateRewardConfig)
			admin.GET("/top", h.Admin.GetTopReferrers)
			admin.GET("/dashboard", h.Admin.GetDashboard)
			admin.GET("/analytics/daily", h.Admin.GetDailyAnalytics)
			admin.GET("/stats", h.Admin.GetDailyStats)
			admin.GET("/logs", h.Admin.GetAdminLogs)
		}
	}

	return engine
}
