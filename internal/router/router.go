package router

import (
	"fmt"
	"strings"

	"github.com/vendora-next/internal/cache"
	"github.com/vendora-next/internal/config"
	adminhandlers "github.com/vendora-next/internal/http/handlers/admin"
	publichandlers "github.com/vendora-next/internal/http/handlers/public"
	"github.com/vendora-next/internal/logger"
	"github.com/vendora-next/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "vn"
	}
	redisClient := cache.Client()
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.login_too_many",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(PrometheusMiddleware())
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口（买家侧只读）
		public := apiV1.Group("/public")
		{
			public.GET("/orders/:order_no/track", publicHandler.TrackOrder)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.GET("/me", adminHandler.AdminMe)

				// 订单
				authorized.POST("/orders", adminHandler.AdminCreateOrder)
				authorized.GET("/orders", adminHandler.AdminListOrders)
				authorized.GET("/orders/:id", adminHandler.AdminGetOrder)
				authorized.PATCH("/orders/:id/status", adminHandler.AdminUpdateOrderStatus)
				authorized.POST("/orders/:id/cancel", adminHandler.AdminCancelOrder)
				authorized.POST("/orders/:id/mark-paid", adminHandler.AdminMarkOrderPaid)

				// 交付
				authorized.POST("/fulfillments", adminHandler.AdminCreateFulfillment)
				authorized.GET("/fulfillments", adminHandler.AdminListFulfillments)
				authorized.GET("/fulfillments/:id", adminHandler.AdminGetFulfillment)
				authorized.POST("/fulfillments/:id/ship", adminHandler.AdminShipFulfillment)
				authorized.POST("/fulfillments/:id/deliver", adminHandler.AdminDeliverFulfillment)
				authorized.POST("/fulfillments/:id/cancel", adminHandler.AdminCancelFulfillment)

				// 退货
				authorized.POST("/returns", adminHandler.AdminRequestReturn)
				authorized.GET("/returns", adminHandler.AdminListReturns)
				authorized.GET("/returns/:id", adminHandler.AdminGetReturn)
				authorized.POST("/returns/:id/receive", adminHandler.AdminReceiveReturn)
				authorized.POST("/returns/:id/complete", adminHandler.AdminCompleteReturn)
				authorized.POST("/returns/:id/cancel", adminHandler.AdminCancelReturn)

				// 索赔
				authorized.POST("/claims", adminHandler.AdminCreateClaim)
				authorized.GET("/claims", adminHandler.AdminListClaims)
				authorized.GET("/claims/:id", adminHandler.AdminGetClaim)
				authorized.POST("/claims/:id/process", adminHandler.AdminProcessClaim)
				authorized.POST("/claims/:id/complete", adminHandler.AdminCompleteClaim)
				authorized.POST("/claims/:id/cancel", adminHandler.AdminCancelClaim)

				// 换货
				authorized.POST("/exchanges", adminHandler.AdminCreateExchange)
				authorized.GET("/exchanges", adminHandler.AdminListExchanges)
				authorized.GET("/exchanges/:id", adminHandler.AdminGetExchange)
				authorized.POST("/exchanges/:id/process", adminHandler.AdminProcessExchange)
				authorized.POST("/exchanges/:id/pay-difference", adminHandler.AdminPayExchangeDifference)
				authorized.POST("/exchanges/:id/complete", adminHandler.AdminCompleteExchange)
				authorized.POST("/exchanges/:id/cancel", adminHandler.AdminCancelExchange)

				// 改单
				authorized.POST("/order-edits", adminHandler.AdminCreateOrderEdit)
				authorized.GET("/order-edits", adminHandler.AdminListOrderEdits)
				authorized.GET("/order-edits/:id", adminHandler.AdminGetOrderEdit)
				authorized.POST("/order-edits/:id/request", adminHandler.AdminRequestOrderEdit)
				authorized.POST("/order-edits/:id/confirm", adminHandler.AdminConfirmOrderEdit)
				authorized.POST("/order-edits/:id/decline", adminHandler.AdminDeclineOrderEdit)

				// 退款
				authorized.POST("/refunds", adminHandler.AdminCreateRefund)
				authorized.GET("/refunds", adminHandler.AdminListRefunds)
				authorized.GET("/refunds/:id", adminHandler.AdminGetRefund)

				// 回调订阅
				authorized.POST("/webhooks", adminHandler.AdminCreateWebhook)
				authorized.GET("/webhooks", adminHandler.AdminListWebhooks)
				authorized.GET("/webhooks/:id", adminHandler.AdminGetWebhook)
				authorized.PUT("/webhooks/:id", adminHandler.AdminUpdateWebhook)
				authorized.DELETE("/webhooks/:id", adminHandler.AdminDeleteWebhook)
				authorized.POST("/webhooks/:id/test", adminHandler.AdminTestWebhook)
				authorized.GET("/webhooks/:id/logs", adminHandler.AdminListWebhookLogs)
			}
		}
	}

	// 指标与健康检查
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
