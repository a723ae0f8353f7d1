package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cropwatch/apperr"
	"cropwatch/models"
)

// ListAlerts filters by ?status= (all by default) and always reports the
// per-status counts used by the tab badges.
func (h *Handler) ListAlerts(c *gin.Context) {
	status := c.DefaultQuery("status", "all")
	switch models.AlertStatus(status) {
	case "all", models.AlertActive, models.AlertAcknowledged, models.AlertResolved:
	default:
		h.fail(c, apperr.Invalidf("unknown alert status %q", status))
		return
	}

	alerts := h.catalog.Alerts.List()
	counts := map[string]int{
		"all":                            len(alerts),
		string(models.AlertActive):       0,
		string(models.AlertAcknowledged): 0,
		string(models.AlertResolved):     0,
	}
	data := make([]models.Alert, 0, len(alerts))
	for _, a := range alerts {
		counts[string(a.Status)]++
		if status == "all" || string(a.Status) == status {
			data = append(data, a)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   data,
		"counts": counts,
	})
}

type alertUpdate struct {
	Status models.AlertStatus `json:"status" binding:"required,oneof=active acknowledged resolved"`
}

func (h *Handler) UpdateAlert(c *gin.Context) {
	var req alertUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Invalidf("%v", err))
		return
	}
	a, err := h.catalog.SetAlertStatus(c.Param("id"), req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.log.Info("alert status changed", "alert", a.ID, "status", a.Status)
	c.JSON(http.StatusOK, a)
}

func (h *Handler) DismissAlert(c *gin.Context) {
	if err := h.catalog.Alerts.Delete(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Alert dismissed"})
}
