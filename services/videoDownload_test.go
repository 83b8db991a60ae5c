package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytdlweb/models"
	ytdlp "ytdlweb/yt-dlp"
)

type recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *recorder) Broadcast(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, msg)
}

func (r *recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

type fakeTransfer struct {
	updates []ytdlp.Progress
	logs    []ytdlp.LogLine
	path    string
	err     error
	panics  bool
	block   chan struct{}

	mu   sync.Mutex
	opts []ytdlp.DownloadOptions
}

func (f *fakeTransfer) Download(_ context.Context, _ string, opts ytdlp.DownloadOptions, onProgress func(ytdlp.Progress)) (*ytdlp.DownloadResult, error) {
	f.mu.Lock()
	f.opts = append(f.opts, opts)
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}
	for _, u := range f.updates {
		onProgress(u)
	}
	if f.panics {
		panic("muxer exploded")
	}
	if f.err != nil {
		return &ytdlp.DownloadResult{Logs: f.logs}, f.err
	}
	return &ytdlp.DownloadResult{Path: f.path, Logs: f.logs}, nil
}

func countContaining(lines []string, sub string) int {
	n := 0
	for _, l := range lines {
		if strings.Contains(l, sub) {
			n++
		}
	}
	return n
}

func TestBuildFormatExpression(t *testing.T) {
	assert.Equal(t, "137+140", BuildFormatExpression("137", "140"))
	assert.Equal(t, "137", BuildFormatExpression("137", ""))
	assert.Equal(t, "22", BuildFormatExpression(" 22 ", "  "))
}

func TestNewDownloadJob(t *testing.T) {
	job := NewDownloadJob(models.DownloadRequest{
		URL:           " https://youtu.be/x ",
		Title:         "Clip",
		VideoFormatID: "137",
		AudioFormatID: "140",
		Subtitles:     []string{"en", "", "fr", "en"},
		EmbedOptions:  models.EmbedOptions{EmbedSubs: true},
	})

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "https://youtu.be/x", job.URL)
	assert.Equal(t, "137+140", job.Format)
	assert.Equal(t, []string{"en", "fr"}, job.Subtitles)
	assert.Equal(t, models.DefaultSubFormat, job.Options.SubFormat)
	assert.True(t, job.Options.EmbedSubs)
}

func TestBuildEngineOptions(t *testing.T) {
	settings := DownloadSettings{DownloadDir: "media", FilenameTemplate: DefaultFilenameTemplate, MergeOutputFormat: "mkv"}

	tests := []struct {
		name   string
		job    models.DownloadJob
		expect ytdlp.DownloadOptions
	}{
		{
			name: "plain download",
			job:  models.DownloadJob{Format: "137+140"},
			expect: ytdlp.DownloadOptions{
				Format:              "137+140",
				OutputTemplate:      filepath.Join("media", DefaultFilenameTemplate),
				MergeOutputFormat:   "mkv",
				SubFormat:           "best",
				ConcurrentFragments: 4,
			},
		},
		{
			name: "metadata with chapters and thumbnail",
			job: models.DownloadJob{Format: "22", Options: models.EmbedOptions{
				EmbedMetadata: true, EmbedChapters: true, EmbedThumbnail: true,
			}},
			expect: ytdlp.DownloadOptions{
				Format:              "22",
				OutputTemplate:      filepath.Join("media", DefaultFilenameTemplate),
				MergeOutputFormat:   "mkv",
				EmbedMetadata:       true,
				EmbedChapters:       true,
				WriteThumbnail:      true,
				EmbedThumbnail:      true,
				SubFormat:           "best",
				ConcurrentFragments: 4,
			},
		},
		{
			name: "chapters need metadata",
			job:  models.DownloadJob{Format: "22", Options: models.EmbedOptions{EmbedChapters: true}},
			expect: ytdlp.DownloadOptions{
				Format:              "22",
				OutputTemplate:      filepath.Join("media", DefaultFilenameTemplate),
				MergeOutputFormat:   "mkv",
				SubFormat:           "best",
				ConcurrentFragments: 4,
			},
		},
		{
			name: "languages force a subtitle download without embedding",
			job:  models.DownloadJob{Format: "22", Subtitles: []string{"en", "fr"}, Options: models.EmbedOptions{SubFormat: "srt"}},
			expect: ytdlp.DownloadOptions{
				Format:              "22",
				OutputTemplate:      filepath.Join("media", DefaultFilenameTemplate),
				MergeOutputFormat:   "mkv",
				WriteSubs:           true,
				WriteAutoSubs:       true,
				SubLangs:            []string{"en", "fr"},
				SubFormat:           "srt",
				ConcurrentFragments: 4,
			},
		},
		{
			name: "embed subs without languages",
			job:  models.DownloadJob{Format: "22", Options: models.EmbedOptions{EmbedSubs: true}},
			expect: ytdlp.DownloadOptions{
				Format:              "22",
				OutputTemplate:      filepath.Join("media", DefaultFilenameTemplate),
				MergeOutputFormat:   "mkv",
				WriteSubs:           true,
				EmbedSubs:           true,
				SubFormat:           "best",
				ConcurrentFragments: 4,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, BuildEngineOptions(tt.job, settings, 1))
		})
	}
}

func TestBuildEngineOptionsFragmentsFollowLoad(t *testing.T) {
	opts := BuildEngineOptions(models.DownloadJob{Format: "22"}, DownloadSettings{}, 5)
	assert.Equal(t, 2, opts.ConcurrentFragments)
}

func TestRunSuccess(t *testing.T) {
	out := &recorder{}
	engine := &fakeTransfer{
		path: "/media/Clip [x].mkv",
		updates: []ytdlp.Progress{
			{Status: ytdlp.StatusStarting, Filename: "/media/Clip [x].f137.mp4"},
			{Status: ytdlp.StatusDownloading, Percent: 10, TotalBytes: 1 << 20},
			{Status: ytdlp.StatusDownloading, Percent: 55, TotalBytes: 1 << 20},
			{Status: ytdlp.StatusFinished, TotalBytes: 1 << 20},
			{Status: ytdlp.StatusPostProcessing, Filename: "/media/Clip [x].mkv"},
		},
	}
	svc := NewDownloadService(engine, out, DownloadSettings{DownloadDir: t.TempDir()})

	svc.Run(context.Background(), models.DownloadJob{ID: "job1", Title: "Clip", Format: "137+140"})

	lines := out.Lines()
	require.NotEmpty(t, lines)
	assert.Equal(t, FinishedPrefix+"/media/Clip [x].mkv", lines[len(lines)-1])
	assert.Equal(t, 1, countContaining(lines, "[finished]"))
	assert.Equal(t, 0, countContaining(lines, "ERROR"))

	// progress order is preserved
	assert.Contains(t, lines[0], "[info] Starting download of Clip")
	assert.Contains(t, lines[1], "Destination: Clip [x].f137.mp4")
	assert.Contains(t, lines[2], " 10.0%")
	assert.Contains(t, lines[3], " 55.0%")
	assert.Contains(t, lines[5], "[postprocess]")
	assert.Equal(t, 0, svc.Active())
}

func TestRunRelaysEngineLogs(t *testing.T) {
	out := &recorder{}
	engine := &fakeTransfer{
		path: "/media/Clip [x].mkv",
		updates: []ytdlp.Progress{
			{Status: ytdlp.StatusDownloading, Percent: 50, TotalBytes: 1 << 20},
		},
		logs: []ytdlp.LogLine{
			{Pipe: ytdlp.PipeStdout, Text: "[youtube] x: Downloading webpage"},
			{Pipe: ytdlp.PipeStderr, Text: "[debug] Command-line config: ['-f', '137+140']"},
			{Pipe: ytdlp.PipeStderr, Text: "WARNING: [youtube] x: nsig extraction failed"},
			{Pipe: ytdlp.PipeStdout, Text: `[Merger] Merging formats into "/media/Clip [x].mkv"`},
		},
	}
	svc := NewDownloadService(engine, out, DownloadSettings{DownloadDir: t.TempDir()})

	svc.Run(context.Background(), models.DownloadJob{ID: "job4", Title: "Clip", Format: "137+140"})

	lines := out.Lines()
	assert.Equal(t, 1, countContaining(lines, "[youtube] x: Downloading webpage"))
	assert.Equal(t, 1, countContaining(lines, "[Merger] Merging formats"))
	assert.Contains(t, lines, "WARNING: [youtube] x: nsig extraction failed")
	assert.Equal(t, 0, countContaining(lines, "[debug]"))
	assert.Equal(t, FinishedPrefix+"/media/Clip [x].mkv", lines[len(lines)-1])
}

func TestRunRelaysWarningsBeforeFailure(t *testing.T) {
	out := &recorder{}
	engine := &fakeTransfer{
		logs: []ytdlp.LogLine{
			{Pipe: ytdlp.PipeStderr, Text: "WARNING: [youtube] x: Some formats are missing"},
			{Pipe: ytdlp.PipeStderr, Text: "ERROR: [youtube] x: HTTP Error 403: Forbidden"},
		},
		err: errors.New("exit code 1: HTTP Error 403: Forbidden"),
	}
	svc := NewDownloadService(engine, out, DownloadSettings{DownloadDir: t.TempDir()})

	svc.Run(context.Background(), models.DownloadJob{ID: "job5", Format: "18"})

	lines := out.Lines()
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "WARNING: [youtube] x: Some formats are missing", lines[len(lines)-2])
	assert.Equal(t, 1, countContaining(lines, "ERROR: "), "lines: %v", lines)
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "ERROR: exit code 1"))
}

func TestRunFailureEmitsSingleError(t *testing.T) {
	out := &recorder{}
	engine := &fakeTransfer{
		updates: []ytdlp.Progress{
			{Status: ytdlp.StatusDownloading, Percent: 30, TotalBytes: 4096},
			{Status: ytdlp.StatusError},
		},
		err: errors.New("HTTP Error 403: Forbidden\nERROR: unable to download video data"),
	}
	svc := NewDownloadService(engine, out, DownloadSettings{DownloadDir: t.TempDir()})

	svc.Run(context.Background(), models.DownloadJob{ID: "job2", URL: "https://youtu.be/x", Format: "18"})

	lines := out.Lines()
	assert.Equal(t, 1, countContaining(lines, "ERROR: "), "lines: %v", lines)
	assert.Equal(t, 0, countContaining(lines, "finished"))
	last := lines[len(lines)-1]
	assert.True(t, strings.HasPrefix(last, "ERROR: HTTP Error 403"))
	assert.NotContains(t, last, "\n")
}

func TestRunPanicStaysInsideWorker(t *testing.T) {
	out := &recorder{}
	svc := NewDownloadService(&fakeTransfer{panics: true}, out, DownloadSettings{DownloadDir: t.TempDir()})

	assert.NotPanics(t, func() {
		svc.Run(context.Background(), models.DownloadJob{ID: "job3", Format: "18"})
	})

	lines := out.Lines()
	assert.Equal(t, 1, countContaining(lines, "ERROR: "))
	assert.Equal(t, 0, countContaining(lines, "finished"))
	assert.Equal(t, 0, svc.Active())
}

func TestStartReturnsImmediately(t *testing.T) {
	out := &recorder{}
	engine := &fakeTransfer{path: "/media/a.mkv", block: make(chan struct{})}
	svc := NewDownloadService(engine, out, DownloadSettings{DownloadDir: t.TempDir()})

	svc.Start(models.DownloadJob{ID: "a", Format: "18"})
	svc.Start(models.DownloadJob{ID: "b", Format: "18"})

	require.Eventually(t, func() bool { return svc.Active() == 2 }, 2*time.Second, 10*time.Millisecond)

	close(engine.block)
	svc.Wait()

	assert.Equal(t, 2, countContaining(out.Lines(), FinishedPrefix))
	assert.Equal(t, 0, svc.Active())
}

func TestMaxConcurrentDownloads(t *testing.T) {
	out := &recorder{}
	engine := &fakeTransfer{path: "/media/a.mkv", block: make(chan struct{})}
	svc := NewDownloadService(engine, out, DownloadSettings{DownloadDir: t.TempDir(), MaxConcurrentDownloads: 1})

	svc.Start(models.DownloadJob{ID: "a", Format: "18"})
	require.Eventually(t, func() bool { return svc.Active() == 1 }, 2*time.Second, 10*time.Millisecond)

	svc.Start(models.DownloadJob{ID: "b", Format: "18"})
	require.Eventually(t, func() bool {
		return countContaining(out.Lines(), "[queue]") == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, svc.Active())

	close(engine.block)
	svc.Wait()
	assert.Equal(t, 2, countContaining(out.Lines(), FinishedPrefix))
}
