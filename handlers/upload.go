package handlers

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"cropwatch/apperr"
	"cropwatch/ingest"
)

// uploadFields are the multipart field names an upload may use.
var uploadFields = []string{"images", "image"}

// UploadImages adds every image part of a multipart request to the gallery.
// Non-image parts come back as notices; when no part is accepted the request
// fails with the status of the earliest rejected part.
func (h *Handler) UploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}

	var files []ingest.File
	for _, field := range uploadFields {
		for _, fh := range form.File[field] {
			files = append(files, partFile(fh))
		}
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}

	res, err := h.ingester.Ingest(c.Request.Context(), files)
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(res.Accepted) == 0 {
		c.JSON(apperr.HTTPStatus(res.Notices[0]), gin.H{
			"error":   "No images were accepted",
			"notices": res.Notices,
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"accepted": h.imageViews(res.Accepted),
		"notices":  res.Notices,
	})
}

func partFile(fh *multipart.FileHeader) ingest.File {
	return ingest.File{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}
