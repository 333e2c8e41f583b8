package api

import (
	"github.com/gin-gonic/gin"
	"github.com/hrdesk/hri-gin/internal/config"
	"github.com/hrdesk/hri-gin/internal/notify"
	"github.com/hrdesk/hri-gin/internal/service"
	"gorm.io/gorm"
)

// SetupRoutes 配置路由
func SetupRoutes(db *gorm.DB, cfg *config.Config, requestService service.RequestService, hub *notify.Hub) *gin.Engine {
	if config.IsProduction(cfg) {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// 中间件
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(CORSMiddleware(cfg.CORS.AllowedOrigins))
	if cfg.RateLimit.RPS > 0 {
		router.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	// 健康检查
	healthController := NewHealthController(db)
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler)

	// WebSocket 路由, 按申请单订阅状态变更
	if hub != nil {
		router.GET("/ws/requests/:id", notify.WebSocketHandler(hub, func(token string) (string, error) {
			return ParseToken(token, cfg.Auth.JWTSecret)
		}))
	}

	// 登录
	authController := NewAuthController(db, &cfg.Auth)
	router.POST("/api/v1/auth/login", authController.Login)

	// API v1 路由组, 需要认证
	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(&cfg.Auth))
	{
		requestController := NewRequestController(requestService)

		requests := v1.Group("/requests")
		{
			requests.POST("", requestController.Create)
			requests.GET("", requestController.List)
			requests.GET("/:id", requestController.Get)
			requests.PUT("/:id", requestController.Update)
			requests.POST("/:id/submit", requestController.Submit)
			requests.POST("/:id/withdraw", requestController.Withdraw)
			requests.POST("/:id/approve", requestController.Approve)
			requests.POST("/:id/reject", requestController.Reject)
			requests.POST("/:id/receive-complete", requestController.ReceiveComplete)
			requests.POST("/:id/receive-reject", requestController.ReceiveReject)
		}
	}

	return router
}
