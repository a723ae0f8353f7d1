package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	Mode         string // gin mode; empty keeps gin's current mode
	CORSOrigins  []string
	RateLimitRPS float64 // 0 disables limiting
	RateBurst    int
}

// NewRouter mounts every route on a gin engine and wraps it in CORS handling.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(h.log, h.metrics))
	// Multipart parts above this spill to temp files; ingest enforces the hard limit.
	router.MaxMultipartMemory = h.maxBytes

	router.GET("/health", h.Health)
	if reg := h.metrics.Registry(); reg != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{
			ErrorHandling: promhttp.HTTPErrorOnError,
		})))
	}

	api := router.Group("/api")
	if opts.RateLimitRPS > 0 {
		api.Use(RateLimit(opts.RateLimitRPS, opts.RateBurst))
	}
	{
		api.GET("/classify", h.Classify)
		api.GET("/schemes", h.ListSchemes)

		api.GET("/images", h.ListImages)
		api.POST("/images", h.UploadImages)
		api.GET("/images/:id", h.GetImage)
		api.PATCH("/images/:id", h.UpdateImage)
		api.DELETE("/images/:id", h.DeleteImage)
		api.POST("/images/:id/analyze", h.AnalyzeImage)
		api.GET("/jobs/:token", h.GetJob)
		api.GET("/statistics", h.GetStatistics)

		api.GET("/fields", h.ListFields)
		api.GET("/fields/:id", h.GetField)
		api.GET("/dashboard", h.Dashboard)
		api.GET("/map/layers", h.ListLayers)
		api.GET("/map", h.MapLayer)

		api.GET("/alerts", h.ListAlerts)
		api.PATCH("/alerts/:id", h.UpdateAlert)
		api.DELETE("/alerts/:id", h.DismissAlert)

		api.GET("/reports", h.ListReports)
		api.GET("/landing", h.Landing)
	}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Location", "Retry-After"},
		MaxAge:         300,
	})(router)
}
