package services

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	ytdlp "ytdlweb/yt-dlp"
)

// Broadcaster delivers one text line to every connected viewer.
type Broadcaster interface {
	Broadcast(msg string)
}

// JobLogger turns engine and job events into viewer lines.
type JobLogger struct {
	out Broadcaster
}

func NewJobLogger(out Broadcaster) *JobLogger {
	return &JobLogger{out: out}
}

// Debug drops the engine's verbose "[debug] " chatter.
func (l *JobLogger) Debug(msg string) {
	if strings.HasPrefix(msg, "[debug] ") {
		return
	}
	l.send(msg)
}

func (l *JobLogger) Info(msg string) {
	l.send(msg)
}

func (l *JobLogger) Warning(msg string) {
	l.send("WARNING: " + msg)
}

func (l *JobLogger) Error(msg string) {
	l.send("ERROR: " + msg)
}

// Engine relays the engine's own output lines. Stderr "ERROR: " lines are
// skipped: the failure reaches viewers once, as the job's terminal line.
func (l *JobLogger) Engine(lines []ytdlp.LogLine) {
	for _, line := range lines {
		if line.Pipe == ytdlp.PipeStderr {
			if msg, ok := strings.CutPrefix(line.Text, "WARNING: "); ok {
				l.Warning(msg)
				continue
			}
			if strings.HasPrefix(line.Text, "ERROR: ") {
				continue
			}
		}
		l.Debug(line.Text)
	}
}

func (l *JobLogger) send(msg string) {
	if l.out == nil {
		return
	}
	// one broadcast is one line
	msg = strings.Join(strings.Fields(strings.ReplaceAll(msg, "\r", " ")), " ")
	if msg == "" {
		return
	}
	l.out.Broadcast(msg)
}

// ProgressLine renders an engine update. Error updates render as "" since
// the job reports its failure once it returns.
func ProgressLine(p ytdlp.Progress) string {
	switch p.Status {
	case ytdlp.StatusStarting:
		if p.Filename == "" {
			return ""
		}
		return "[download] Destination: " + filepath.Base(p.Filename)
	case ytdlp.StatusDownloading:
		return fmt.Sprintf("[download] %5.1f%% of %s at %s/s ETA %s",
			p.Percent, formatBytes(p.TotalBytes), formatBytes(int(p.BytesPerSecond)), formatETA(p.ETA))
	case ytdlp.StatusFinished:
		return fmt.Sprintf("[download] 100.0%% of %s", formatBytes(p.TotalBytes))
	case ytdlp.StatusPostProcessing:
		if p.Filename == "" {
			return "[postprocess] Processing"
		}
		return "[postprocess] Processing " + filepath.Base(p.Filename)
	}
	return ""
}

func formatBytes(n int) string {
	if n <= 0 {
		return "N/A"
	}
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	value := float64(n)
	units := []string{"KiB", "MiB", "GiB", "TiB"}
	i := -1
	for value >= unit && i < len(units)-1 {
		value /= unit
		i++
	}
	return fmt.Sprintf("%.2f%s", value, units[i])
}

func formatETA(d time.Duration) string {
	if d <= 0 {
		return "N/A"
	}
	total := int(d.Round(time.Second).Seconds())
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
