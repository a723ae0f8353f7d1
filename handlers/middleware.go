package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"cropwatch/metrics"
)

// RequestLogger logs one line per request and feeds the HTTP metrics.
func RequestLogger(log *slog.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		took := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		m.RecordHTTPRequest(c.Request.Method, route, status, took)

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		log.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", took,
			"client", c.ClientIP(),
		)
	}
}

// RateLimit allows each client IP rps requests per second with the given
// burst. Idle limiters are evicted after ten minutes.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	limiters := cache.New(10*time.Minute, time.Minute)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		var lim *rate.Limiter
		if v, ok := limiters.Get(ip); ok {
			lim = v.(*rate.Limiter)
		} else {
			lim = rate.NewLimiter(rate.Limit(rps), burst)
		}
		limiters.SetDefault(ip, lim)

		if !lim.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
