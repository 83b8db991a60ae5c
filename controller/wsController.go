package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	webSocket "ytdlweb/websocket"
)

// WebSocketHandler streams broadcast lines to one viewer until it leaves.
func (h *Controller) WebSocketHandler(c *gin.Context) {
	clientID := c.Param("client_id")
	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "client_id is required"})
		return
	}

	conn, err := webSocket.Upgrade(c.Writer, c.Request)
	if err != nil {
		log.Printf("[WsController] Upgrade failed: %v", err)
		return
	}

	ws := webSocket.NewWSConnection(conn)
	defer ws.GracefulClose()

	viewer := h.hub.NewViewer(clientID)
	if !h.hub.Register(viewer) {
		log.Printf("[WsController] hub stopped, rejecting %s", clientID)
		return
	}

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		ws.Pump(viewer)
	}()

	pingDone := make(chan struct{})
	go ws.KeepAlive(pingDone)

	log.Printf("[WsController] Connected | %s", clientID)

	ws.Listen(clientID)

	close(pingDone)
	h.hub.Unregister(viewer)
	<-pumpDone

	log.Printf("[WsController] Connection Closed | %s", clientID)
}
