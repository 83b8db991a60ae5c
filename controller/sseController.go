package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"ytdlweb/sse"
)

func (h *Controller) SSEHandler(c *gin.Context) {
	clientID := c.Param("client_id")
	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "client_id is required",
		})
		return
	}

	viewer := h.hub.NewViewer(clientID)
	if !h.hub.Register(viewer) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server is shutting down"})
		return
	}
	defer h.hub.Unregister(viewer)

	log.Printf("[SSEController] Connected | %s", clientID)
	sse.Stream(c, viewer)
	log.Printf("[SSEController] Connection Closed | %s", clientID)
}
