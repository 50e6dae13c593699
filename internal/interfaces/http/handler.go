package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SoulxxMerchant/New/internal/repository"
	"github.com/SoulxxMerchant/New/internal/usecases"
)

type Handler struct {
	campaigns *usecases.CampaignService
	quotas    *usecases.QuotaService
	sessions  *repository.SessionStore
}

func NewHandler(campaigns *usecases.CampaignService, quotas *usecases.QuotaService, sessions *repository.SessionStore) *Handler {
	return &Handler{
		campaigns: campaigns,
		quotas:    quotas,
		sessions:  sessions,
	}
}

func SetupRoutes(r *gin.Engine, campaigns *usecases.CampaignService, quotas *usecases.QuotaService, sessions *repository.SessionStore, auth *usecases.AuthService, middleware *Middleware) {
	h := NewHandler(campaigns, quotas, sessions)

	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(1 << 20)) // 1MB max request size

	// Keepalive endpoints for uptime pingers
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/login", func(c *gin.Context) {
			var loginReq struct {
				Username string `json:"username"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&loginReq); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
				return
			}
			token, err := auth.Login(loginReq.Username, loginReq.Password)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"token": token})
		})
	}

	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	api.Use(middleware.RateLimitPerUser(5, 10))
	{
		api.GET("/campaign/status", h.GetCampaignStatus)
		api.GET("/quota/:id", h.GetQuota)
	}

	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired())
	admin.Use(middleware.AdminRequired())
	{
		admin.PUT("/users/:id/ban", h.UpdateBanStatus)
		admin.PUT("/users/:id/premium", h.UpdatePremiumStatus)
	}
}

func (h *Handler) Root(c *gin.Context) {
	c.String(http.StatusOK, "🤖 Nexus Bot is Running and Polling.")
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "nexus-bot",
		"sessions": h.sessions.Count(),
	})
}

func (h *Handler) GetCampaignStatus(c *gin.Context) {
	status := h.campaigns.Status()
	c.JSON(http.StatusOK, gin.H{
		"active":                status.Active,
		"control_user":          status.ControlUser,
		"sessions":              status.Sessions,
		"message_delay_seconds": status.Config.MessageDelaySeconds,
		"cycle_delay_seconds":   status.Config.CycleDelaySeconds,
	})
}

func (h *Handler) GetQuota(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	q := h.quotas.GetOrCreate(userID)
	c.JSON(http.StatusOK, gin.H{
		"user_id":        userID,
		"is_banned":      q.IsBanned,
		"is_premium":     q.IsPremium,
		"messages_today": q.MessagesToday,
		"daily_limit":    h.quotas.Limit(q),
		"remaining":      h.quotas.Remaining(q),
	})
}

func (h *Handler) UpdateBanStatus(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req struct {
		Banned bool `json:"banned"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	h.quotas.SetBanned(userID, req.Banned)
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "is_banned": req.Banned})
}

func (h *Handler) UpdatePremiumStatus(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req struct {
		Premium bool `json:"premium"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	h.quotas.SetPremium(userID, req.Premium)
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "is_premium": req.Premium})
}
