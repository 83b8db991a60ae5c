package ytdlp

import "time"

// RawInfo matches the subset of yt-dlp's --dump-single-json output we use.
type RawInfo struct {
	ID                string                   `json:"id"`
	WebpageURL        string                   `json:"webpage_url"`
	Title             string                   `json:"title"`
	Thumbnail         string                   `json:"thumbnail"`
	Duration          *float64                 `json:"duration"`
	Uploader          string                   `json:"uploader"`
	Formats           []RawFormat              `json:"formats"`
	Subtitles         map[string][]RawSubtitle `json:"subtitles"`
	AutomaticCaptions map[string][]RawSubtitle `json:"automatic_captions"`
}

type RawFormat struct {
	FormatID   string   `json:"format_id"`
	Ext        string   `json:"ext"`
	Resolution string   `json:"resolution"`
	FPS        *float64 `json:"fps"`
	Filesize   *int64   `json:"filesize"`
	Vcodec     string   `json:"vcodec"`
	Acodec     string   `json:"acodec"`
	FormatNote string   `json:"format_note"`
	Protocol   string   `json:"protocol"`
}

type RawSubtitle struct {
	Ext  string `json:"ext"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

// DownloadOptions enumerates every engine option the download path sets.
type DownloadOptions struct {
	Format              string   // e.g. "137+140" or "22"
	OutputTemplate      string   // full path template, e.g. "media/%(title)s [%(id)s].%(ext)s"
	MergeOutputFormat   string   // container forced on the merged file
	EmbedMetadata       bool     // metadata muxing post-step
	EmbedChapters       bool     // chapter markers, only with EmbedMetadata
	WriteThumbnail      bool     // fetch the thumbnail before embedding it
	EmbedThumbnail      bool     // mux thumbnail as cover art
	WriteSubs           bool     // download subtitles
	WriteAutoSubs       bool     // allow automatic captions for SubLangs
	EmbedSubs           bool     // mux downloaded subtitles
	SubLangs            []string // empty means engine default
	SubFormat           string   // "best", "srt", "vtt", ...
	ConcurrentFragments int      // 0 leaves the engine default
}

// Progress is an engine-neutral progress snapshot.
type Progress struct {
	Status          string // starting, downloading, post_processing, finished, error
	DownloadedBytes int
	TotalBytes      int
	Percent         float64
	BytesPerSecond  float64
	ETA             time.Duration
	Filename        string
}

const (
	StatusStarting       = "starting"
	StatusDownloading    = "downloading"
	StatusPostProcessing = "post_processing"
	StatusFinished       = "finished"
	StatusError          = "error"
)

const (
	PipeStdout = "stdout"
	PipeStderr = "stderr"
)

// LogLine is one non-progress output line of the engine.
type LogLine struct {
	Pipe string
	Text string
}

// DownloadResult is what a transfer leaves behind. Logs is filled on
// failure too.
type DownloadResult struct {
	Path string
	Logs []LogLine
}
