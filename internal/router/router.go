package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/catalog-feed/internal/cache"
	"github.com/catalog-feed/internal/config"
	cataloghandlers "github.com/catalog-feed/internal/http/handlers/catalog"
	"github.com/catalog-feed/internal/http/response"
	"github.com/catalog-feed/internal/logger"
	"github.com/catalog-feed/internal/models"
	"github.com/catalog-feed/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// updateRateLimitKey 按来源 IP 分桶，X-Feed-Source 只进日志
var updateRateLimitKey RateLimitKeyFunc = KeyByIP

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	catalogHandler := cataloghandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cf"
	}
	updateRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:catalog_update", redisPrefix),
		WindowSeconds: cfg.Security.UpdateRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.UpdateRateLimit.MaxRequests,
		Message:       "too many update requests, retry in %d seconds",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		catalog := apiV1.Group("/catalog")
		{
			catalog.POST("/updates", RateLimitMiddleware(rateLimitClient(), updateRule, updateRateLimitKey), catalogHandler.PostUpdates)
			catalog.GET("/products/:sku/stock", catalogHandler.GetProductStock)
		}
	}

	// 健康检查
	r.GET("/healthz", func(ctx *gin.Context) {
		if err := pingDatabase(); err != nil {
			response.Error(ctx, response.CodeInternal, "database unavailable")
			return
		}
		if err := cache.Ping(ctx.Request.Context()); err != nil {
			response.Error(ctx, response.CodeInternal, "redis unavailable")
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

// rateLimitClient Redis 未启用时返回 nil 接口
func rateLimitClient() redis.Scripter {
	if client := cache.Client(); client != nil {
		return client
	}
	return nil
}

func pingDatabase() error {
	if models.DB == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := models.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
