package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

const DefaultProgressInterval = 500 * time.Millisecond

var ErrNoOutput = errors.New("yt-dlp returned no output")

// Runner drives the yt-dlp binary through go-ytdlp.
type Runner struct {
	executable       string
	progressInterval time.Duration
}

// NewRunner returns a Runner. An empty executable lets go-ytdlp resolve it.
func NewRunner(executable string, progressInterval time.Duration) *Runner {
	if progressInterval <= 0 {
		progressInterval = DefaultProgressInterval
	}
	return &Runner{executable: executable, progressInterval: progressInterval}
}

// Install fetches a managed yt-dlp binary when none is available.
func Install(ctx context.Context) error {
	resolved, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return fmt.Errorf("yt-dlp install failed: %w", err)
	}
	log.Printf("[YtDlp] using executable %s", resolved.Executable)
	return nil
}

func (r *Runner) command() *ytdlp.Command {
	cmd := ytdlp.New()
	if r.executable != "" {
		cmd = cmd.SetExecutable(r.executable)
	}
	return cmd
}

// Extract dumps the metadata record of url without downloading anything.
// Subtitle and caption catalogs are part of the dumped record.
func (r *Runner) Extract(ctx context.Context, url string) (*RawInfo, error) {
	res, err := r.command().
		SkipDownload().
		DumpSingleJSON().
		NoPlaylist().
		NoWarnings().
		Run(ctx, url)
	if err != nil {
		// go-ytdlp already appends stderr to exit errors
		return nil, fmt.Errorf("yt-dlp exec error: %w", err)
	}
	return ParseInfo([]byte(res.Stdout))
}

// ParseInfo decodes a single-JSON metadata dump.
func ParseInfo(output []byte) (*RawInfo, error) {
	if len(strings.TrimSpace(string(output))) == 0 {
		return nil, ErrNoOutput
	}
	var info RawInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, fmt.Errorf("yt-dlp parse error: %w", err)
	}
	return &info, nil
}

// Download performs the transfer described by opts. onProgress is never
// called concurrently with itself. The returned result carries the engine's
// log lines even when err is non-nil.
func (r *Runner) Download(ctx context.Context, url string, opts DownloadOptions, onProgress func(Progress)) (*DownloadResult, error) {
	var (
		mu       sync.Mutex
		lastFile string
	)

	cmd := r.build(opts).ProgressFunc(r.progressInterval, func(update ytdlp.ProgressUpdate) {
		p := convertProgress(update)
		mu.Lock()
		defer mu.Unlock()
		if p.Filename != "" {
			lastFile = p.Filename
		}
		if onProgress != nil {
			onProgress(p)
		}
	})

	res, err := cmd.Run(ctx, url)
	if err != nil {
		return &DownloadResult{Logs: EngineLogs(res, "")}, fmt.Errorf("yt-dlp download failed: %w", err)
	}

	var stdout string
	if res != nil {
		stdout = res.Stdout
	}
	mu.Lock()
	path := ResolveOutputPath(stdout, lastFile, opts.MergeOutputFormat)
	mu.Unlock()

	return &DownloadResult{Path: path, Logs: EngineLogs(res, path)}, nil
}

// EngineLogs lists the output lines of res in the order they were written.
// Blank lines and the printed final path are left out.
func EngineLogs(res *ytdlp.Result, finalPath string) []LogLine {
	if res == nil {
		return nil
	}
	logs := make([]LogLine, 0, len(res.OutputLogs))
	for _, l := range res.OutputLogs {
		if l == nil {
			continue
		}
		text := strings.TrimSpace(l.Line)
		if text == "" || (finalPath != "" && text == finalPath) {
			continue
		}
		logs = append(logs, LogLine{Pipe: l.Pipe, Text: text})
	}
	return logs
}

func (r *Runner) build(opts DownloadOptions) *ytdlp.Command {
	cmd := r.command().
		Format(opts.Format).
		Output(opts.OutputTemplate).
		NoPlaylist().
		NoSimulate().
		Print("after_move:filepath")

	if opts.MergeOutputFormat != "" {
		cmd = cmd.MergeOutputFormat(opts.MergeOutputFormat)
	}

	if opts.EmbedMetadata {
		cmd = cmd.EmbedMetadata()
		if opts.EmbedChapters {
			cmd = cmd.EmbedChapters()
		} else {
			cmd = cmd.NoEmbedChapters()
		}
	}

	if opts.WriteThumbnail {
		cmd = cmd.WriteThumbnail()
	}
	if opts.EmbedThumbnail {
		cmd = cmd.EmbedThumbnail()
	}

	if opts.WriteSubs {
		cmd = cmd.WriteSubs()
	}
	if opts.WriteAutoSubs {
		cmd = cmd.WriteAutoSubs()
	}
	if len(opts.SubLangs) > 0 {
		cmd = cmd.SubLangs(strings.Join(opts.SubLangs, ","))
	}
	if opts.SubFormat != "" && (opts.WriteSubs || opts.EmbedSubs) {
		cmd = cmd.SubFormat(opts.SubFormat)
	}
	if opts.EmbedSubs {
		cmd = cmd.EmbedSubs()
	}

	if opts.ConcurrentFragments > 0 {
		cmd = cmd.ConcurrentFragments(opts.ConcurrentFragments)
	}
	return cmd
}

func convertProgress(update ytdlp.ProgressUpdate) Progress {
	p := Progress{
		Status:          string(update.Status),
		DownloadedBytes: update.DownloadedBytes,
		TotalBytes:      update.TotalBytes,
		Percent:         update.Percent(),
		ETA:             update.ETA(),
		Filename:        update.Filename,
	}
	if !update.Started.IsZero() {
		if elapsed := time.Since(update.Started).Seconds(); elapsed > 0 {
			p.BytesPerSecond = float64(update.DownloadedBytes) / elapsed
		}
	}
	return p
}

var formatSuffixRe = regexp.MustCompile(`\.f[0-9A-Za-z_-]+$`)

// ResolveOutputPath picks the final file: the last printed path that exists,
// else the merged name derived from the last per-stream file, else that file.
func ResolveOutputPath(stdout, lastFile, mergeExt string) string {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if st, err := os.Stat(line); err == nil && !st.IsDir() {
			return line
		}
	}

	if lastFile == "" {
		return ""
	}
	if mergeExt != "" {
		stem := strings.TrimSuffix(lastFile, filepath.Ext(lastFile))
		merged := formatSuffixRe.ReplaceAllString(stem, "") + "." + mergeExt
		if _, err := os.Stat(merged); err == nil {
			return merged
		}
	}
	return lastFile
}
