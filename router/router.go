package router

import (
	controllers "ytdlweb/controller"
	"ytdlweb/templates"

	"github.com/gin-gonic/gin"
)

func SetupRouter(h *controllers.Controller, apiPrefix string) (*gin.Engine, error) {
	tmpl, err := templates.Load()
	if err != nil {
		return nil, err
	}

	r := gin.Default()
	r.SetHTMLTemplate(tmpl)

	r.GET("/", h.Index)
	r.GET("/healthz", h.Health)

	api := r.Group(apiPrefix)
	{
		api.POST("/preview", h.Preview)
		api.POST("/download", h.Download)
		api.GET("/ws/:client_id", h.WebSocketHandler)
		api.GET("/events/:client_id", h.SSEHandler)
	}

	return r, nil
}
