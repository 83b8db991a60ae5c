package services

import (
	"sort"
	"strings"

	"ytdlweb/models"
	ytdlp "ytdlweb/yt-dlp"
)

// Manifest and fragmented protocols have no stable filesize and cannot be
// fetched as a single file. Combined protocols ("m3u8_native+https") are
// skipped when any part is listed.
var skippedProtocols = map[string]bool{
	"m3u8":                         true,
	"m3u8_native":                  true,
	"http_dash_segments":           true,
	"http_dash_segments_generator": true,
	"f4m":                          true,
	"ism":                          true,
}

// ClassifyFormats splits raw formats into video and audio buckets, each
// ordered worst to best.
func ClassifyFormats(raw []ytdlp.RawFormat) (video, audio []models.VideoFormat) {
	video = []models.VideoFormat{}
	audio = []models.VideoFormat{}

	for _, f := range raw {
		if isManifestProtocol(f.Protocol) {
			continue
		}

		hasVideo := models.HasCodec(f.Vcodec)
		hasAudio := models.HasCodec(f.Acodec)
		if !hasVideo && !hasAudio {
			continue
		}

		format := toVideoFormat(f)
		if hasVideo {
			video = append(video, format)
		} else {
			audio = append(audio, format)
		}
	}

	// audio: filesize stands in for bitrate
	sort.SliceStable(audio, func(i, j int) bool {
		return audio[i].SizeOrZero() < audio[j].SizeOrZero()
	})

	sort.SliceStable(video, func(i, j int) bool {
		hi, hj := video[i].Height(), video[j].Height()
		if hi != hj {
			return hi < hj
		}
		return video[i].SizeOrZero() < video[j].SizeOrZero()
	})

	return video, audio
}

func isManifestProtocol(protocol string) bool {
	for _, part := range strings.Split(protocol, "+") {
		if skippedProtocols[strings.TrimSpace(part)] {
			return true
		}
	}
	return false
}

func toVideoFormat(f ytdlp.RawFormat) models.VideoFormat {
	resolution := f.Resolution
	if resolution == "" {
		resolution = models.UnknownResolution
	}
	vcodec, acodec := f.Vcodec, f.Acodec
	if vcodec == "" {
		vcodec = models.NoCodec
	}
	if acodec == "" {
		acodec = models.NoCodec
	}
	return models.VideoFormat{
		FormatID:   f.FormatID,
		Extension:  f.Ext,
		Resolution: resolution,
		FPS:        f.FPS,
		Filesize:   f.Filesize,
		Vcodec:     vcodec,
		Acodec:     acodec,
		Note:       f.FormatNote,
	}
}
