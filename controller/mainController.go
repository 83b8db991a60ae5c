package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"ytdlweb/services"
)

func (h *Controller) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"title":     h.projectName,
		"apiPrefix": h.apiPrefix,
	})
}

// Preview renders the preview card for a URL, or an error fragment with 400.
func (h *Controller) Preview(c *gin.Context) {
	url := c.PostForm("url")

	videoInfo, err := h.info.GetVideoInfo(c.Request.Context(), url)
	if err != nil {
		var extractErr *services.ExtractionError
		if errors.As(err, &extractErr) {
			log.Printf("[Preview] extraction failed | URL: %s | Error: %v", extractErr.URL, extractErr.Err)
		} else {
			log.Printf("[Preview] Error fetching video info: %v", err)
		}
		c.HTML(http.StatusBadRequest, "error.html", gin.H{"message": err.Error()})
		return
	}

	c.HTML(http.StatusOK, "video_preview.html", gin.H{
		"video":     videoInfo,
		"apiPrefix": h.apiPrefix,
	})
}

func (h *Controller) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"viewers":          h.hub.Count(),
		"active_downloads": h.downloads.Active(),
	})
}
