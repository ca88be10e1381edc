package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/bikeshare-insights-go/internal/config"
	"github.com/jengzang/bikeshare-insights-go/internal/handler"
	"github.com/jengzang/bikeshare-insights-go/internal/metrics"
	"github.com/jengzang/bikeshare-insights-go/internal/middleware"
	"github.com/jengzang/bikeshare-insights-go/internal/service"
)

// Deps are the services the router exposes. Metrics may be nil.
type Deps struct {
	Config    *config.Config
	Analytics *service.AnalyticsService
	Timelapse *service.TimelapseService
	Metrics   *metrics.Collector
	Logger    *slog.Logger
}

// SetupRouter 设置路由
func SetupRouter(d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	var requestMetrics middleware.RequestMetrics
	if d.Metrics != nil {
		requestMetrics = d.Metrics
	}
	r.Use(middleware.Logger(logger, requestMetrics))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Bikeshare Insights API is running",
		})
	})

	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	datasets := handler.NewDatasetHandler(d.Analytics)
	stats := handler.NewStatsHandler(d.Analytics, d.Config.TopN)
	timelapse := handler.NewTimelapseHandler(d.Timelapse, d.Config.FrameDelay, d.Config.HourMin, logger)

	// API 路由组
	api := r.Group("/api/v1")
	if d.Config.RateLimit > 0 {
		api.Use(middleware.RateLimit(d.Config.RateLimit, time.Minute))
	}
	{
		api.POST("/datasets", datasets.Upload)
		api.GET("/datasets/current", datasets.Current)
		api.GET("/cache", datasets.CacheStats)

		api.GET("/stats", stats.ListQueries)
		api.GET("/stats/:query", stats.Query)

		tl := api.Group("/timelapse")
		{
			tl.GET("", timelapse.Status)
			tl.POST("/start", timelapse.Start)
			tl.POST("/step", timelapse.Step)
			tl.POST("/pause", timelapse.Pause)
			tl.POST("/resume", timelapse.Resume)
			tl.POST("/cancel", timelapse.Cancel)
			tl.GET("/stream", timelapse.Stream)
		}
	}

	return r
}
