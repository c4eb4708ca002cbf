package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"contest-core/config"
	"contest-core/internal/api/handler"
	"contest-core/internal/api/middleware"
	"contest-core/pkg/jwt"
	"contest-core/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb))
	if cfg.RateLimit.Enabled {
		// 放在认证之后，按 user_id 计数
		v1.Use(middleware.RateLimit(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window))
	}

	admin := middleware.RoleAuth(jwt.RoleAdmin)

	// 比赛模块
	contests := v1.Group("/contests")
	{
		contests.GET("", h.Contest.ListContests)
		contests.GET("/:id", h.Contest.GetContest)
		contests.GET("/:id/phase", h.Contest.GetPhase)
		contests.GET("/:id/calendar.ics", h.Export.ExportCalendar)
		contests.POST("", admin, h.Contest.CreateContest)
		contests.PUT("/:id", admin, h.Contest.UpdateContest)
		contests.DELETE("/:id", admin, h.Contest.DeleteContest)
		contests.GET("/:id/export/tokens", admin, h.Export.ExportTokenUsage)
		contests.POST("/:id/participations", admin, h.Participation.JoinContest)
	}

	// 参赛模块（本人 / 管理员校验在 Handler 层）
	participations := v1.Group("/participations")
	{
		participations.GET("/:id", h.Participation.GetParticipation)
		participations.GET("/:id/tokens", h.Token.GetTokenStatus)
		participations.POST("/:id/tokens", h.Token.RedeemToken)
		participations.GET("/:id/submissions/check", h.Submission.CheckSubmission)
		participations.POST("/:id/submissions", h.Submission.Submit)
	}

	return r
}
