package server

import (
	"net/http"
	"time"

	httpHandler "mediahub/interfaces/http"
	"mediahub/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health  httpHandler.IHealthHandler
	Task    httpHandler.ITaskHandler
	Account httpHandler.IAccountHandler
	Auth    httpHandler.IAuthHandler
	Share   httpHandler.IShareHandler
	Draft   httpHandler.IDraftHandler
	Webhook httpHandler.IWebhookHandler
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

func InitiateRouter(h Handlers, secretKey string, corsOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	auth := middleware.Auth(secretKey)

	router.GET("/healthz", h.Health.Healthz)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	// OAuth is a browser redirect, the bearer token arrives as ?token=
	router.GET("/auth/:platform", auth, h.Auth.Begin)
	router.GET("/auth/:platform/callback", h.Auth.Callback)

	router.POST("/webhook/:platform", h.Webhook.Receive)

	api := router.Group("api")
	api.Use(auth)

	api.GET("/platforms", h.Account.Platforms)

	accounts := api.Group("/accounts")
	{
		accounts.GET("", h.Account.List)
		accounts.DELETE("/:id", h.Account.Delete)
		accounts.POST("/:id/refresh", h.Account.Refresh)
	}

	tasks := api.Group("/tasks")
	{
		tasks.POST("", h.Task.Create)
		tasks.GET("", h.Task.List)
		tasks.GET("/stream", h.Task.Stream)
		tasks.GET("/:id", h.Task.Get)
		tasks.POST("/:id/cancel", h.Task.Cancel)
	}

	api.GET("/share/:platform/:taskId", h.Share.Schema)

	drafts := api.Group("/drafts")
	{
		drafts.POST("", h.Draft.Create)
		drafts.GET("", h.Draft.List)
		drafts.GET("/:id", h.Draft.Get)
		drafts.PUT("/:id", h.Draft.Update)
		drafts.DELETE("/:id", h.Draft.Delete)
	}

	return router
}
