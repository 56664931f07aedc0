package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(h *Handler, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/", h.Index)
	r.GET("/health", h.HealthCheck)
	r.GET("/ws", h.ServeWS)

	api := r.Group("/api")
	api.GET("/watchlist", h.GetWatchlist)
	api.POST("/watchlist", h.AddSymbol)
	api.DELETE("/watchlist/:symbol", h.DeleteSymbol)
	api.POST("/refresh", h.Refresh)

	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
