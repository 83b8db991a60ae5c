package controllers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ytdlweb/models"
	"ytdlweb/services"
)

// Download schedules a background job and acknowledges without waiting.
func (h *Controller) Download(c *gin.Context) {
	req := models.DownloadRequest{
		URL:           strings.TrimSpace(c.PostForm("url")),
		Title:         strings.TrimSpace(c.PostForm("title")),
		VideoFormatID: strings.TrimSpace(c.PostForm("video_format_id")),
		AudioFormatID: strings.TrimSpace(c.PostForm("audio_format_id")),
		Subtitles:     append(c.PostFormArray("subtitles"), c.PostFormArray("subtitles[]")...),
		EmbedOptions: models.EmbedOptions{
			EmbedMetadata:  formBool(c, "embed_metadata"),
			EmbedChapters:  formBool(c, "embed_chapters"),
			EmbedThumbnail: formBool(c, "embed_thumbnail"),
			EmbedSubs:      formBool(c, "embed_subs"),
			SubFormat:      strings.TrimSpace(c.PostForm("sub_format")),
		},
	}

	if req.URL == "" || req.VideoFormatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url and video_format_id are required"})
		return
	}

	job := services.NewDownloadJob(req)
	h.downloads.Start(job)

	name := job.Title
	if name == "" {
		name = job.URL
	}
	log.Printf("[VideoController: %s] Task: %s | Format: %s | Subs: %v", job.ID, name, job.Format, job.Subtitles)

	c.JSON(http.StatusOK, models.DownloadAck{
		Status:  "started",
		Message: fmt.Sprintf("Downloading %s...", name),
		JobID:   job.ID,
	})
}

func formBool(c *gin.Context, key string) bool {
	switch strings.ToLower(strings.TrimSpace(c.PostForm(key))) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
