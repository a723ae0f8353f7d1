package handlers

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"

	"cropwatch/apperr"
	"cropwatch/classifier"
	"cropwatch/models"
)

// imageView is a gallery image with the tiers of its analysis, if any.
type imageView struct {
	models.FieldImage
	HealthTier      classifier.Tier `json:"healthTier,omitempty"`
	HealthColor     string          `json:"healthColor,omitempty"`
	PestRiskTier    classifier.Tier `json:"pestRiskTier,omitempty"`
	DiseaseRiskTier classifier.Tier `json:"diseaseRiskTier,omitempty"`
}

func (h *Handler) viewImage(img models.FieldImage) imageView {
	v := imageView{FieldImage: img}
	if a := img.Analysis; a != nil {
		health := h.classify(classifier.SchemeAnalysis, float64(a.HealthScore))
		v.HealthTier, v.HealthColor = health.Tier, health.Color
		v.PestRiskTier = h.classify(classifier.SchemeRisk, float64(a.PestRisk)).Tier
		v.DiseaseRiskTier = h.classify(classifier.SchemeRisk, float64(a.DiseaseRisk)).Tier
	}
	return v
}

func (h *Handler) imageViews(images []models.FieldImage) []imageView {
	out := make([]imageView, 0, len(images))
	for _, img := range images {
		out = append(out, h.viewImage(img))
	}
	return out
}

// ListImages returns the gallery, newest first, optionally filtered by
// status and tag.
func (h *Handler) ListImages(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "50")
	offsetStr := c.DefaultQuery("offset", "0")

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 50
	}

	offset, err := strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		offset = 0
	}

	status := models.ImageStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		h.fail(c, apperr.Invalidf("unknown status %q", status))
		return
	}
	tag := c.Query("tag")

	all, err := h.images.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch images"})
		return
	}

	images := make([]models.FieldImage, 0, len(all))
	for _, img := range all {
		if status != "" && img.Status != status {
			continue
		}
		if tag != "" && !slices.Contains(img.Tags, tag) {
			continue
		}
		images = append(images, img)
	}
	total := len(images)

	images = images[min(offset, total):min(offset+limit, total)]

	c.JSON(http.StatusOK, gin.H{
		"data":   h.imageViews(images),
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) GetImage(c *gin.Context) {
	img, err := h.images.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.viewImage(img))
}

// UpdateImage edits location, notes, tags or flags the image.
func (h *Handler) UpdateImage(c *gin.Context) {
	var req models.ImageUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Invalidf("%v", err))
		return
	}

	img, err := h.images.Update(c.Request.Context(), c.Param("id"), func(img *models.FieldImage) error {
		req.Apply(img)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.viewImage(img))
}

func (h *Handler) DeleteImage(c *gin.Context) {
	if err := h.images.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image deleted successfully"})
}

// GetStatistics summarizes the gallery by status and analysis results.
func (h *Handler) GetStatistics(c *gin.Context) {
	var stats struct {
		TotalImages    int                     `json:"totalImages"`
		Pending        int                     `json:"pending"`
		Analyzed       int                     `json:"analyzed"`
		Flagged        int                     `json:"flagged"`
		AvgHealthScore float64                 `json:"avgHealthScore"`
		HealthTier     classifier.Tier         `json:"healthTier,omitempty"`
		IssueSeverity  map[models.Severity]int `json:"issueSeverity"`
	}
	stats.IssueSeverity = map[models.Severity]int{
		models.SeverityLow:    0,
		models.SeverityMedium: 0,
		models.SeverityHigh:   0,
	}

	images, err := h.images.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch images"})
		return
	}

	var healthSum, withAnalysis int
	for _, img := range images {
		stats.TotalImages++
		switch img.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusAnalyzed:
			stats.Analyzed++
		case models.StatusFlagged:
			stats.Flagged++
		}
		if img.Analysis == nil {
			continue
		}
		withAnalysis++
		healthSum += img.Analysis.HealthScore
		for _, issue := range img.Analysis.DetectedIssues {
			stats.IssueSeverity[issue.Severity]++
		}
	}
	if withAnalysis > 0 {
		stats.AvgHealthScore = float64(healthSum) / float64(withAnalysis)
		stats.HealthTier = h.classify(classifier.SchemeHealth, stats.AvgHealthScore).Tier
	}

	c.JSON(http.StatusOK, stats)
}
