package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Settings is the runtime configuration of the server.
type Settings struct {
	ProjectName string `toml:"project_name"`
	Version     string `toml:"version"`
	APIPrefix   string `toml:"api_prefix"`

	Host string `toml:"host"`
	Port int    `toml:"port"`

	DownloadDir            string `toml:"download_dir"`
	MergeOutputFormat      string `toml:"merge_output_format"`
	MaxConcurrentDownloads int    `toml:"max_concurrent_downloads"` // 0 = unlimited
	CleanupAfterHours      int    `toml:"cleanup_after_hours"`      // 0 = keep files

	YtDlpPath          string `toml:"ytdlp_path"`
	YtDlpInstall       bool   `toml:"ytdlp_install"`
	ProgressIntervalMS int    `toml:"progress_interval_ms"`
}

func Defaults() Settings {
	return Settings{
		ProjectName:        "ytdlweb",
		Version:            "1.0.0",
		APIPrefix:          "/api/v1",
		Host:               "0.0.0.0",
		Port:               8080,
		DownloadDir:        "downloads",
		MergeOutputFormat:  "mkv",
		ProgressIntervalMS: 500,
	}
}

// Load starts from Defaults, applies the TOML file at path when it exists and
// finally the environment. An empty path skips the file.
func Load(path string) (Settings, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	cfg.APIPrefix = normalizePrefix(cfg.APIPrefix)
	return cfg, nil
}

func (s *Settings) applyEnv() error {
	str := map[string]*string{
		"PROJECT_NAME":        &s.ProjectName,
		"VERSION":             &s.Version,
		"API_PREFIX":          &s.APIPrefix,
		"HOST":                &s.Host,
		"DOWNLOAD_DIR":        &s.DownloadDir,
		"MERGE_OUTPUT_FORMAT": &s.MergeOutputFormat,
		"YTDLP_PATH":          &s.YtDlpPath,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PORT":                     &s.Port,
		"MAX_CONCURRENT_DOWNLOADS": &s.MaxConcurrentDownloads,
		"CLEANUP_AFTER_HOURS":      &s.CleanupAfterHours,
		"PROGRESS_INTERVAL_MS":     &s.ProgressIntervalMS,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv("YTDLP_INSTALL"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid YTDLP_INSTALL %q: %w", v, err)
		}
		s.YtDlpInstall = b
	}
	return nil
}

func (s Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// "api/v1/" -> "/api/v1", "/" -> ""
func normalizePrefix(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}
