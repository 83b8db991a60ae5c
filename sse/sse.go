package sse

import (
	"io"

	"github.com/gin-gonic/gin"

	"ytdlweb/hub"
)

// Stream relays every line queued for v as a "message" event. It returns
// when the client disconnects or the hub closes v.
func Stream(c *gin.Context, v *hub.Viewer) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.SSEvent("ready", v.ID)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-v.Messages():
			if !ok {
				return false
			}
			c.SSEvent("message", msg)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
