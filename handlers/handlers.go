// Package handlers exposes the cropwatch screens as a JSON API over gin.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cropwatch/analyzer"
	"cropwatch/apperr"
	"cropwatch/classifier"
	"cropwatch/database"
	"cropwatch/ingest"
	"cropwatch/metrics"
)

// Deps are the components a Handler serves from. Images, Catalog, Schemes
// and Runner are required.
type Deps struct {
	Images   database.ImageStore
	Catalog  *database.Catalog
	Schemes  *classifier.Registry
	Runner   *analyzer.Runner
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	MaxBytes int64
}

type Handler struct {
	images   database.ImageStore
	catalog  *database.Catalog
	schemes  *classifier.Registry
	runner   *analyzer.Runner
	ingester *ingest.Ingester
	metrics  *metrics.Metrics
	log      *slog.Logger
	maxBytes int64
	now      func() time.Time
}

func New(d Deps) *Handler {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	if d.MaxBytes <= 0 {
		d.MaxBytes = ingest.DefaultMaxBytes
	}
	return &Handler{
		images:   d.Images,
		catalog:  d.Catalog,
		schemes:  d.Schemes,
		runner:   d.Runner,
		ingester: ingest.NewIngester(d.Images, d.MaxBytes, log, d.Metrics),
		metrics:  d.Metrics,
		log:      log.With("component", "http"),
		maxBytes: d.MaxBytes,
		now:      time.Now,
	}
}

// fail writes err as {"error": ...} with the status its kind maps to.
func (h *Handler) fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// classify runs score through the named scheme and records the outcome.
func (h *Handler) classify(scheme string, score float64) classifier.Result {
	r := h.schemes.Must(scheme).Classify(score)
	h.metrics.RecordClassification(r.Scheme, string(r.Tier), r.OutOfRange)
	return r
}

// Health reports whether the image store answers, with its size.
func (h *Handler) Health(c *gin.Context) {
	n, err := h.images.Count(c.Request.Context())
	if err != nil {
		h.log.Error("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "cropwatch",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "cropwatch",
		"images":  n,
	})
}
