package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cropwatch/analyzer"
	"cropwatch/apperr"
)

// jobView is a job snapshot whose image carries its analysis tiers.
type jobView struct {
	*analyzer.Job
	Image *imageView `json:"image,omitempty"`
}

func (h *Handler) viewJob(job *analyzer.Job) jobView {
	v := jobView{Job: job}
	if job.Image != nil {
		img := h.viewImage(*job.Image)
		v.Image = &img
	}
	return v
}

// AnalyzeImage schedules an analysis. By default it answers 202 with the
// job; with ?wait=true it blocks until the job settles and returns the
// updated image.
func (h *Handler) AnalyzeImage(c *gin.Context) {
	ctx := c.Request.Context()
	job, err := h.runner.Submit(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	if c.Query("wait") != "true" {
		c.Header("Location", "/api/jobs/"+job.Token)
		c.JSON(http.StatusAccepted, h.viewJob(job))
		return
	}

	job, err = h.runner.Wait(ctx, job.Token)
	if err != nil {
		// Client went away; the job keeps running.
		c.JSON(http.StatusAccepted, h.viewJob(job))
		return
	}
	switch job.State {
	case analyzer.JobCompleted:
		c.JSON(http.StatusOK, h.viewImage(*job.Image))
	case analyzer.JobSuperseded:
		c.JSON(http.StatusConflict, gin.H{
			"error": "analysis superseded by a newer request",
			"job":   h.viewJob(job),
		})
	default:
		c.JSON(apperr.HTTPStatus(job.Err()), gin.H{
			"error": job.Error,
			"job":   h.viewJob(job),
		})
	}
}

func (h *Handler) GetJob(c *gin.Context) {
	job, ok := h.runner.Job(c.Param("token"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	c.JSON(http.StatusOK, h.viewJob(job))
}
