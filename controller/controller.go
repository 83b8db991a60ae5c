package controllers

import (
	"context"

	"ytdlweb/hub"
	"ytdlweb/models"
)

type VideoInfoProvider interface {
	GetVideoInfo(ctx context.Context, url string) (*models.VideoInfo, error)
}

type DownloadStarter interface {
	Start(job models.DownloadJob)
	Active() int
}

// Controller holds the collaborators behind every route.
type Controller struct {
	info        VideoInfoProvider
	downloads   DownloadStarter
	hub         *hub.Hub
	projectName string
	apiPrefix   string
}

func New(info VideoInfoProvider, downloads DownloadStarter, h *hub.Hub, projectName, apiPrefix string) *Controller {
	return &Controller{
		info:        info,
		downloads:   downloads,
		hub:         h,
		projectName: projectName,
		apiPrefix:   apiPrefix,
	}
}
