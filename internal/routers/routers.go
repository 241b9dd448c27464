package routers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appconfig "github.com/chatapp/web-server/config"
	"github.com/chatapp/web-server/internal/handlers"
	"github.com/chatapp/web-server/internal/middlewares"
	"github.com/chatapp/web-server/internal/services"
	"github.com/chatapp/web-server/internal/utils"
	"github.com/chatapp/web-server/internal/ws"
	"github.com/chatapp/web-server/pkg/ratelimit"
)

// SetupRoutes 设置所有路由
func SetupRoutes(r *gin.Engine, cfg *appconfig.Config,
	log *zap.Logger,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	roomHandler *handlers.RoomHandler,
	inviteHandler *handlers.InviteHandler,
	messageHandler *handlers.MessageHandler,
	authService *services.AuthService,
	messageService *services.MessageService,
	memberService *services.MemberService,
	hub *ws.Hub,
	limiter ratelimit.Limiter,
	pool *utils.WorkerPool,
) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.RequestLogMiddleware(log))
	r.Use(middlewares.TimeoutMiddleware(time.Duration(cfg.Server.RequestTimeout) * time.Second))

	if cfg.RateLimit.Enabled && limiter != nil {
		r.Use(middlewares.RateLimitMiddleware(limiter, cfg.RateLimit.QPS, cfg.RateLimit.Burst))
	}

	auth := middlewares.AuthMiddleware(authService)

	// WebSocket 路由必须在 AsyncMiddleware 之前注册，握手请求不能排进 Worker Pool
	r.GET("/ws", auth, func(c *gin.Context) {
		ws.ServeWs(hub, messageService, memberService, log, c)
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 异步处理中间件，把请求放进 Worker Pool 排队执行
	r.Use(middlewares.AsyncMiddleware(pool))

	// 公开路由
	r.POST("/login", authHandler.Login)
	r.POST("/refresh", authHandler.Refresh)
	r.POST("/users", userHandler.Upsert)

	// 房间
	roomGroup := r.Group("/rooms")
	roomGroup.Use(auth)
	{
		roomGroup.GET("", roomHandler.List)
		roomGroup.POST("", roomHandler.Create)
		roomGroup.PATCH("/:room_id", roomHandler.UpdateName)
		roomGroup.DELETE("/:room_id", roomHandler.Delete)
		roomGroup.POST("/:room_id/join", roomHandler.Join)
		roomGroup.POST("/:room_id/leave", roomHandler.Leave)

		// 成员角色
		roomGroup.POST("/:room_id/members/:room_user_id/promote", roomHandler.Promote)
		roomGroup.POST("/:room_id/members/:room_user_id/demote", roomHandler.Demote)

		// 邀请与消息
		roomGroup.POST("/:room_id/invites", inviteHandler.Create)
		roomGroup.POST("/:room_id/messages", messageHandler.Send)
		roomGroup.GET("/:room_id/messages", messageHandler.List)
	}

	// 邀请
	inviteGroup := r.Group("/invites")
	inviteGroup.Use(auth)
	{
		inviteGroup.GET("", inviteHandler.List)
		inviteGroup.POST("/:invite_id/accept", inviteHandler.Accept)
		inviteGroup.POST("/:invite_id/reject", inviteHandler.Reject)
		inviteGroup.POST("/:invite_id/revoke", inviteHandler.Revoke)
	}
}
