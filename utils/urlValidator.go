package util

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"ytdlweb/models"
)

var (
	ErrInvalidURL          = errors.New("invalid media URL")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

var hostToPlatform = map[string]string{
	"youtube.com":       "YouTube",
	"m.youtube.com":     "YouTube",
	"music.youtube.com": "YouTube",
	"youtu.be":          "YouTube",
	"vimeo.com":         "Vimeo",
	"player.vimeo.com":  "Vimeo",
	"facebook.com":      "Facebook",
	"fb.watch":          "Facebook",
	"dailymotion.com":   "Dailymotion",
	"dai.ly":            "Dailymotion",
	"instagram.com":     "Instagram",
	"twitter.com":       "Twitter",
	"x.com":             "Twitter",
	"tiktok.com":        "TikTok",
	"vm.tiktok.com":     "TikTok",
	"twitch.tv":         "Twitch",
	"clips.twitch.tv":   "Twitch",
	"reddit.com":        "Reddit",
	"v.redd.it":         "Reddit",
	"soundcloud.com":    "SoundCloud",
	"bandcamp.com":      "Bandcamp",
	"rumble.com":        "Rumble",
	"ted.com":           "TED",
	"streamable.com":    "Streamable",
	"bilibili.com":      "Bilibili",
}

// DRM-only services; the engine refuses them, so they are rejected before
// any extraction.
var unsupportedHosts = map[string]string{
	"netflix.com":      "Netflix",
	"disneyplus.com":   "Disney+",
	"primevideo.com":   "Prime Video",
	"hulu.com":         "Hulu",
	"max.com":          "Max",
	"open.spotify.com": "Spotify",
	"tv.apple.com":     "Apple TV+",
}

// ValidateMediaURL accepts absolute http(s) URLs with a host.
func ValidateMediaURL(rawURL string) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

// DetectPlatform names the site behind a URL. Unknown hosts are still
// supported since the engine handles far more sites than listed here.
func DetectPlatform(inputURL string) models.PlatformInfo {
	if err := ValidateMediaURL(inputURL); err != nil {
		return models.PlatformInfo{
			Platform: "Unknown",
			Reason:   err.Error(),
		}
	}

	parsed, _ := url.Parse(strings.TrimSpace(inputURL))
	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")

	if name, blocked := unsupportedHosts[host]; blocked {
		return models.PlatformInfo{
			Platform: name,
			Reason:   "DRM-protected streaming service",
		}
	}

	platform, exists := hostToPlatform[host]
	if !exists {
		return models.PlatformInfo{
			Platform:    "Generic",
			IsSupported: true,
			Reason:      "host not in platform list",
		}
	}

	return models.PlatformInfo{
		Platform:    platform,
		IsSupported: true,
	}
}
