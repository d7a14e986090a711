package router

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bookkeeping/config"
	"bookkeeping/internal/api/handler"
	"bookkeeping/internal/api/middleware"
	"bookkeeping/pkg/jwt"
	"bookkeeping/pkg/redis"
)

// maxBodyBytes 报告正文与类型专属数据的请求体上限
const maxBodyBytes = 2 << 20

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时 Token 黑名单与报告限流均降级关闭
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	checks := map[string]handler.HealthCheck{
		"db": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	var (
		blacklist middleware.TokenBlacklist
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
		checks["redis"] = rdb.Ping
	}
	health := handler.NewHealthHandler(checks)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", health.Health)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		v1.POST("/auth/login", h.Auth.Login)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 交班报告模块
			eosReports := authorized.Group("/eos-reports")
			{
				eosReports.POST("",
					middleware.RateLimit(limiter, cfg.EosReport.RateLimit, cfg.EosReport.RateLimitWindow),
					h.EosReport.Create,
				)
				eosReports.POST("/preview", h.EosReport.Preview)
			}

			// 班次模块
			shifts := authorized.Group("/shifts")
			{
				shifts.GET("/current", h.Shift.Current)
				shifts.GET("/at", h.Shift.At)
				shifts.GET("/calendar", h.Shift.Calendar)
				shifts.GET("/export", h.Export.ExportShiftRuns)
			}
		}
	}

	return r
}
