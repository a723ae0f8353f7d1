package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cropwatch/apperr"
	"cropwatch/classifier"
	"cropwatch/models"
)

// fieldView is a field with its tiers derived at response time.
type fieldView struct {
	models.Field
	Status classifier.Tier `json:"status"`
	Label  string          `json:"label"`
	Color  string          `json:"color"`
	Tiers  struct {
		Moisture    classifier.Tier `json:"moisture"`
		Temperature classifier.Tier `json:"temperature"`
		PestRisk    classifier.Tier `json:"pestRisk"`
	} `json:"tiers"`
}

func (h *Handler) viewField(f models.Field) fieldView {
	health := h.classify(classifier.SchemeHealth, f.Health)
	v := fieldView{Field: f, Status: health.Tier, Label: health.Label, Color: health.Color}
	v.Tiers.Moisture = h.classify(classifier.SchemeMoisture, f.SoilMoisture).Tier
	v.Tiers.Temperature = h.classify(classifier.SchemeHeat, f.Temperature).Tier
	v.Tiers.PestRisk = h.classify(classifier.SchemeRisk, f.PestRisk).Tier
	return v
}

func (h *Handler) fieldViews() []fieldView {
	fields := h.catalog.Fields.List()
	out := make([]fieldView, 0, len(fields))
	for _, f := range fields {
		out = append(out, h.viewField(f))
	}
	return out
}

func (h *Handler) ListFields(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.fieldViews()})
}

func (h *Handler) GetField(c *gin.Context) {
	f, err := h.catalog.Fields.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.viewField(f))
}

// Dashboard returns the sensor strip, the field cards and a summary whose
// tiers are recomputed from the current field health.
func (h *Handler) Dashboard(c *gin.Context) {
	fields := h.fieldViews()
	health := h.schemes.Must(classifier.SchemeHealth)

	var summary struct {
		FieldCount   int                     `json:"fieldCount"`
		AvgHealth    float64                 `json:"avgHealth"`
		HealthTier   classifier.Tier         `json:"healthTier"`
		TierCounts   map[classifier.Tier]int `json:"tierCounts"`
		ActiveAlerts int                     `json:"activeAlerts"`
		LastUpdated  string                  `json:"lastUpdated"`
	}
	summary.TierCounts = make(map[classifier.Tier]int)
	for _, t := range health.Tiers() {
		summary.TierCounts[t] = 0
	}

	var sum float64
	for _, f := range fields {
		sum += f.Health
		summary.TierCounts[f.Status]++
	}
	summary.FieldCount = len(fields)
	if len(fields) > 0 {
		summary.AvgHealth = sum / float64(len(fields))
		summary.HealthTier = h.classify(classifier.SchemeHealth, summary.AvgHealth).Tier
	}
	for _, a := range h.catalog.Alerts.List() {
		if a.Status == models.AlertActive {
			summary.ActiveAlerts++
		}
	}
	summary.LastUpdated = h.now().UTC().Format("2006-01-02T15:04:05Z")

	c.JSON(http.StatusOK, gin.H{
		"sensors": h.catalog.Sensors,
		"fields":  fields,
		"summary": summary,
	})
}

func (h *Handler) ListLayers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.catalog.Layers})
}

// MapLayer colors every field by the metric of ?layer= (ndvi by default).
func (h *Handler) MapLayer(c *gin.Context) {
	layer, err := h.catalog.Layer(c.DefaultQuery("layer", "ndvi"))
	if err != nil {
		h.fail(c, apperr.Invalidf("%v", err))
		return
	}
	scheme, err := h.schemes.Get(layer.Scheme)
	if err != nil {
		h.fail(c, err)
		return
	}

	type cell struct {
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Value float64         `json:"value"`
		Tier  classifier.Tier `json:"tier"`
		Label string          `json:"label"`
		Color string          `json:"color"`
	}
	fields := h.catalog.Fields.List()
	cells := make([]cell, 0, len(fields))
	for _, f := range fields {
		v, ok := f.Metric(layer.Metric)
		if !ok {
			h.fail(c, apperr.Invalidf("layer %s uses unknown metric %q", layer.ID, layer.Metric))
			return
		}
		r := scheme.Classify(v)
		h.metrics.RecordClassification(r.Scheme, string(r.Tier), r.OutOfRange)
		cells = append(cells, cell{ID: f.ID, Name: f.Name, Value: v, Tier: r.Tier, Label: r.Label, Color: r.Color})
	}

	c.JSON(http.StatusOK, gin.H{
		"layer":  layer,
		"legend": scheme.Bands,
		"fields": cells,
	})
}

func (h *Handler) Landing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stats": h.catalog.Landing})
}
