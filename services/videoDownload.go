package services

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"ytdlweb/models"
	util "ytdlweb/utils"
	ytdlp "ytdlweb/yt-dlp"
)

const (
	DefaultFilenameTemplate  = "%(title)s [%(id)s].%(ext)s"
	DefaultMergeOutputFormat = "mkv"

	FinishedPrefix = "[finished] Download completed: "
)

// Transferer performs a download and reports progress while it runs.
type Transferer interface {
	Download(ctx context.Context, url string, opts ytdlp.DownloadOptions, onProgress func(ytdlp.Progress)) (*ytdlp.DownloadResult, error)
}

type DownloadSettings struct {
	DownloadDir            string
	FilenameTemplate       string
	MergeOutputFormat      string
	MaxConcurrentDownloads int // 0 means unlimited
}

// DownloadService runs every job on its own goroutine. Jobs cannot be
// cancelled and have no timeout.
type DownloadService struct {
	engine   Transferer
	out      Broadcaster
	settings DownloadSettings
	slots    *util.SlotLimiter
	active   atomic.Int32
	wg       sync.WaitGroup
}

func NewDownloadService(engine Transferer, out Broadcaster, settings DownloadSettings) *DownloadService {
	if settings.FilenameTemplate == "" {
		settings.FilenameTemplate = DefaultFilenameTemplate
	}
	if settings.MergeOutputFormat == "" {
		settings.MergeOutputFormat = DefaultMergeOutputFormat
	}
	return &DownloadService{
		engine:   engine,
		out:      out,
		settings: settings,
		slots:    util.NewSlotLimiter(settings.MaxConcurrentDownloads),
	}
}

// BuildFormatExpression combines the picked ids: "video+audio" or "video".
func BuildFormatExpression(videoFormatID, audioFormatID string) string {
	videoFormatID = strings.TrimSpace(videoFormatID)
	audioFormatID = strings.TrimSpace(audioFormatID)
	if audioFormatID == "" {
		return videoFormatID
	}
	return videoFormatID + "+" + audioFormatID
}

// NewDownloadJob turns a download form into a job with a fresh id.
func NewDownloadJob(req models.DownloadRequest) models.DownloadJob {
	seen := make(map[string]bool)
	langs := []string{}
	for _, lang := range req.Subtitles {
		lang = strings.TrimSpace(lang)
		if lang == "" || seen[lang] {
			continue
		}
		seen[lang] = true
		langs = append(langs, lang)
	}

	opts := req.EmbedOptions
	if opts.SubFormat == "" {
		opts.SubFormat = models.DefaultSubFormat
	}

	return models.DownloadJob{
		ID:        util.GenerateRequestID(),
		URL:       strings.TrimSpace(req.URL),
		Title:     strings.TrimSpace(req.Title),
		Format:    BuildFormatExpression(req.VideoFormatID, req.AudioFormatID),
		Subtitles: langs,
		Options:   opts,
	}
}

// BuildEngineOptions maps a job onto the engine's typed options.
func BuildEngineOptions(job models.DownloadJob, settings DownloadSettings, activeJobs int) ytdlp.DownloadOptions {
	o := job.Options
	wantLangs := len(job.Subtitles) > 0

	opts := ytdlp.DownloadOptions{
		Format:              job.Format,
		OutputTemplate:      filepath.Join(settings.DownloadDir, settings.FilenameTemplate),
		MergeOutputFormat:   settings.MergeOutputFormat,
		EmbedMetadata:       o.EmbedMetadata,
		EmbedChapters:       o.EmbedMetadata && o.EmbedChapters,
		WriteThumbnail:      o.EmbedThumbnail,
		EmbedThumbnail:      o.EmbedThumbnail,
		WriteSubs:           o.EmbedSubs || wantLangs,
		WriteAutoSubs:       wantLangs,
		EmbedSubs:           o.EmbedSubs,
		SubFormat:           o.SubFormat,
		ConcurrentFragments: util.ConcurrentFragments(activeJobs),
	}
	if wantLangs {
		opts.SubLangs = append([]string(nil), job.Subtitles...)
	}
	if opts.SubFormat == "" {
		opts.SubFormat = models.DefaultSubFormat
	}
	return opts
}

// Start schedules job in the background and returns at once.
func (s *DownloadService) Start(job models.DownloadJob) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run(context.Background(), job)
	}()
}

// Wait blocks until every started job returned.
func (s *DownloadService) Wait() {
	s.wg.Wait()
}

// Active is the number of jobs currently transferring.
func (s *DownloadService) Active() int {
	return int(s.active.Load())
}

// Run performs job and broadcasts its progress. It ends with exactly one
// terminal line, a FinishedPrefix line or an "ERROR: " line, and never
// panics or returns an error to the caller.
func (s *DownloadService) Run(ctx context.Context, job models.DownloadJob) {
	logger := NewJobLogger(s.out)
	fail := func(err error) {
		derr := &DownloadError{JobID: job.ID, Err: err}
		log.Printf("[DownloadService] %v", derr)
		logger.Error(err.Error())
	}

	defer func() {
		if r := recover(); r != nil {
			fail(fmt.Errorf("unexpected failure: %v", r))
		}
	}()

	if s.slots.Full() {
		logger.Info("[queue] Waiting for a free download slot")
	}
	s.slots.Acquire()
	defer s.slots.Release()

	active := int(s.active.Add(1))
	defer s.active.Add(-1)

	log.Printf("[DownloadService] starting job=%s url=%s format=%s subs=%v options=%+v",
		job.ID, job.URL, job.Format, job.Subtitles, job.Options)

	if err := util.EnsureRootDirectory(s.settings.DownloadDir); err != nil {
		fail(err)
		return
	}

	opts := BuildEngineOptions(job, s.settings, active)

	name := job.Title
	if name == "" {
		name = job.URL
	}
	logger.Info(fmt.Sprintf("[info] Starting download of %s (format %s)", name, job.Format))

	result, err := s.engine.Download(ctx, job.URL, opts, func(p ytdlp.Progress) {
		if line := ProgressLine(p); line != "" {
			logger.Info(line)
		}
	})
	if result != nil {
		logger.Engine(result.Logs)
	}
	if err != nil {
		fail(err)
		return
	}

	var path string
	if result != nil {
		path = result.Path
	}

	log.Printf("[DownloadService] job=%s file ready: %s", job.ID, path)
	logger.Info(FinishedPrefix + path)
}
