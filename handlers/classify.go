package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cropwatch/apperr"
	"cropwatch/classifier"
)

// Classify maps ?score= to a tier of ?scheme= (health by default). Scores
// outside [0,100] are clamped and flagged with outOfRange.
func (h *Handler) Classify(c *gin.Context) {
	raw, ok := c.GetQuery("score")
	if !ok {
		h.fail(c, apperr.Invalidf("score is required"))
		return
	}
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
		h.fail(c, apperr.Invalidf("score %q is not a number", raw))
		return
	}

	scheme, err := h.schemes.Get(c.DefaultQuery("scheme", classifier.SchemeHealth))
	if err != nil {
		h.fail(c, err)
		return
	}
	r := scheme.Classify(score)
	h.metrics.RecordClassification(r.Scheme, string(r.Tier), r.OutOfRange)
	c.JSON(http.StatusOK, r)
}

// ListSchemes returns every threshold table, highest band first.
func (h *Handler) ListSchemes(c *gin.Context) {
	names := h.schemes.Names()
	out := make([]*classifier.Scheme, 0, len(names))
	for _, n := range names {
		out = append(out, h.schemes.Must(n))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}
