package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"ytdlweb/models"
	util "ytdlweb/utils"
	ytdlp "ytdlweb/yt-dlp"
)

var ErrNoFormats = errors.New("no formats returned")

// Extractor returns the raw metadata record of a URL without downloading.
type Extractor interface {
	Extract(ctx context.Context, url string) (*ytdlp.RawInfo, error)
}

type InfoService struct {
	engine Extractor
}

func NewInfoService(engine Extractor) *InfoService {
	return &InfoService{engine: engine}
}

// GetVideoInfo calls the engine once and normalizes its record.
func (s *InfoService) GetVideoInfo(ctx context.Context, videoURL string) (*models.VideoInfo, error) {
	videoURL = strings.TrimSpace(videoURL)
	if err := util.ValidateMediaURL(videoURL); err != nil {
		return nil, &ExtractionError{URL: videoURL, Err: err}
	}

	platform := util.DetectPlatform(videoURL)
	if !platform.IsSupported {
		log.Printf("[InfoService] rejected | Platform: %s | Reason: %s", platform.Platform, platform.Reason)
		return nil, &ExtractionError{
			URL: videoURL,
			Err: fmt.Errorf("%w: %s (%s)", util.ErrUnsupportedPlatform, platform.Platform, platform.Reason),
		}
	}
	log.Printf("[InfoService] extracting | Platform: %s | URL: %s", platform.Platform, videoURL)

	raw, err := s.engine.Extract(ctx, videoURL)
	if err != nil {
		log.Printf("[InfoService] extraction failed | URL: %s | Error: %v", videoURL, err)
		return nil, &ExtractionError{URL: videoURL, Err: err}
	}
	if raw == nil || len(raw.Formats) == 0 {
		return nil, &ExtractionError{URL: videoURL, Err: ErrNoFormats}
	}

	videoFormats, audioFormats := ClassifyFormats(raw.Formats)
	subtitles := ResolveSubtitles(raw.Subtitles, raw.AutomaticCaptions)

	info := &models.VideoInfo{
		ID:           raw.ID,
		URL:          raw.WebpageURL,
		Title:        raw.Title,
		Thumbnail:    raw.Thumbnail,
		Uploader:     raw.Uploader,
		VideoFormats: videoFormats,
		AudioFormats: audioFormats,
		Subtitles:    subtitles,
	}
	if info.URL == "" {
		info.URL = videoURL
	}
	if info.Uploader == "" {
		info.Uploader = models.UnknownUploader
	}
	if raw.Duration != nil && *raw.Duration > 0 {
		info.Duration = int(*raw.Duration)
	}

	log.Printf("[InfoService] %q: %d video, %d audio formats, %d subtitles",
		info.Title, len(videoFormats), len(audioFormats), len(subtitles))
	return info, nil
}
