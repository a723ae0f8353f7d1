package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"cropwatch/apperr"
	"cropwatch/classifier"
	"cropwatch/models"
)

var reportPeriods = map[string]bool{"all": true, "daily": true, "weekly": true, "monthly": true, "yearly": true}

// ListReports returns the generated reports for ?period= together with the
// headline metrics. The field health metric is computed, never stored.
func (h *Handler) ListReports(c *gin.Context) {
	period := c.DefaultQuery("period", "all")
	if !reportPeriods[period] {
		h.fail(c, apperr.Invalidf("unknown period %q", period))
		return
	}

	reports := h.catalog.Reports.List()
	data := make([]models.Report, 0, len(reports))
	for _, r := range reports {
		if period == "all" || r.Period == period {
			data = append(data, r)
		}
	}

	metrics := append([]models.ReportMetric{}, h.catalog.ReportMetrics...)
	var healthTier classifier.Tier
	if fields := h.catalog.Fields.List(); len(fields) > 0 {
		var sum float64
		for _, f := range fields {
			sum += f.Health
		}
		avg := sum / float64(len(fields))
		r := h.classify(classifier.SchemeHealth, avg)
		healthTier = r.Tier
		metrics = append(metrics, models.ReportMetric{
			Label:  "Avg. Field Health",
			Value:  fmt.Sprintf("%.0f%%", avg),
			Change: r.Label,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       data,
		"metrics":    metrics,
		"healthTier": healthTier,
	})
}
