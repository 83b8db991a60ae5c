package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	NoCodec           = "none"
	UnknownResolution = "N/A"
	UnknownUploader   = "Unknown"
	DefaultSubExt     = "vtt"
	DefaultSubFormat  = "best"
	AutoSuffix        = "(Auto)"
)

// VideoFormat is one downloadable format shown in the preview.
type VideoFormat struct {
	FormatID   string   `json:"format_id"`
	Extension  string   `json:"ext"`
	Resolution string   `json:"resolution"`
	FPS        *float64 `json:"fps,omitempty"`
	Filesize   *int64   `json:"filesize,omitempty"`
	Vcodec     string   `json:"vcodec,omitempty"`
	Acodec     string   `json:"acodec,omitempty"`
	Note       string   `json:"note,omitempty"`
}

// SizeOrZero returns the filesize in bytes, 0 when unknown.
func (f VideoFormat) SizeOrZero() int64 {
	if f.Filesize == nil {
		return 0
	}
	return *f.Filesize
}

func (f VideoFormat) FilesizeMB() string {
	if f.Filesize == nil || *f.Filesize == 0 {
		return UnknownResolution
	}
	return fmt.Sprintf("%.1f MB", float64(*f.Filesize)/(1024*1024))
}

func (f VideoFormat) FPSLabel() string {
	if f.FPS == nil || *f.FPS <= 0 {
		return ""
	}
	return strconv.FormatFloat(*f.FPS, 'f', -1, 64) + "fps"
}

// CodecSummary is the short codec label used by the preview table.
func (f VideoFormat) CodecSummary() string {
	v := HasCodec(f.Vcodec)
	a := HasCodec(f.Acodec)
	switch {
	case v && a:
		return f.Vcodec + " + " + f.Acodec
	case v:
		return f.Vcodec + " (Video)"
	case a:
		return f.Acodec + " (Audio)"
	}
	return "Unknown"
}

var (
	widthHeightRe = regexp.MustCompile(`^\d+\s*x\s*(\d+)$`)
	heightPRe     = regexp.MustCompile(`^(\d+)p`)
)

// Height parses "1920x1080" or "1080p" style labels. Anything else is 0.
func (f VideoFormat) Height() int {
	return ParseHeight(f.Resolution)
}

func ParseHeight(label string) int {
	label = strings.TrimSpace(strings.ToLower(label))
	m := widthHeightRe.FindStringSubmatch(label)
	if m == nil {
		m = heightPRe.FindStringSubmatch(label)
	}
	if m == nil {
		return 0
	}
	h, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return h
}

// HasCodec reports whether a raw codec value names a real codec.
func HasCodec(codec string) bool {
	codec = strings.TrimSpace(codec)
	return codec != "" && codec != NoCodec
}

type SubtitleInfo struct {
	Lang string `json:"lang"`
	Name string `json:"name"`
	Ext  string `json:"ext"`
}

// IsAuto reports whether the display name marks an automatic caption.
func (s SubtitleInfo) IsAuto() bool {
	return strings.Contains(s.Name, AutoSuffix)
}

type VideoInfo struct {
	ID           string         `json:"id"`
	URL          string         `json:"url"`
	Title        string         `json:"title"`
	Thumbnail    string         `json:"thumbnail"`
	Duration     int            `json:"duration"`
	Uploader     string         `json:"uploader"`
	VideoFormats []VideoFormat  `json:"video_formats"`
	AudioFormats []VideoFormat  `json:"audio_formats"`
	Subtitles    []SubtitleInfo `json:"subtitles"`
}

// DurationString renders Duration as m:ss or h:mm:ss.
func (v VideoInfo) DurationString() string {
	m, s := v.Duration/60, v.Duration%60
	h, m := m/60, m%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// EmbedOptions are the post-processing toggles picked in the UI.
type EmbedOptions struct {
	EmbedMetadata  bool   `json:"embed_metadata"`
	EmbedChapters  bool   `json:"embed_chapters"` // only with EmbedMetadata
	EmbedThumbnail bool   `json:"embed_thumbnail"`
	EmbedSubs      bool   `json:"embed_subs"`
	SubFormat      string `json:"sub_format"`
}

// DownloadJob lives for the duration of one background download.
type DownloadJob struct {
	ID        string       `json:"job_id"`
	URL       string       `json:"url"`
	Title     string       `json:"title"`
	Format    string       `json:"format"`
	Subtitles []string     `json:"subtitles"`
	Options   EmbedOptions `json:"options"`
}

// incomming download form from the preview card
type DownloadRequest struct {
	URL           string   `form:"url"`
	Title         string   `form:"title"`
	VideoFormatID string   `form:"video_format_id"`
	AudioFormatID string   `form:"audio_format_id"`
	Subtitles     []string `form:"subtitles"`
	EmbedOptions
}

// DownloadAck is returned right after a download was scheduled.
type DownloadAck struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}

// PlatformInfo describes the platform characteristics.
type PlatformInfo struct {
	Platform    string // e.g. "YouTube"
	IsSupported bool
	Reason      string // If unsupported or unknown, reason why
}
