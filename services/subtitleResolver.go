package services

import (
	"sort"
	"strings"

	"ytdlweb/models"
	ytdlp "ytdlweb/yt-dlp"
)

type subtitleKey struct {
	lang string
	name string
}

// ResolveSubtitles merges manual subtitles and automatic captions into one
// list: manual names first, then "(Auto)" names, alphabetical in each group.
// Only the first candidate of every language is looked at.
func ResolveSubtitles(manual, auto map[string][]ytdlp.RawSubtitle) []models.SubtitleInfo {
	subs := []models.SubtitleInfo{}
	seen := make(map[subtitleKey]bool)

	add := func(source map[string][]ytdlp.RawSubtitle, isAuto bool) {
		for _, lang := range sortedLangs(source) {
			candidates := source[lang]
			if len(candidates) == 0 {
				continue
			}
			sub := candidates[0]

			baseName := sub.Name
			if baseName == "" {
				baseName = lang
			}
			displayName := baseName
			if isAuto && !strings.Contains(displayName, models.AutoSuffix) {
				displayName += " " + models.AutoSuffix
			}

			// an automatic caption is redundant when a subtitle with the same
			// lang and the same (undecorated or decorated) name is present
			if seen[subtitleKey{lang, displayName}] || (isAuto && seen[subtitleKey{lang, baseName}]) {
				continue
			}

			ext := sub.Ext
			if ext == "" {
				ext = models.DefaultSubExt
			}
			seen[subtitleKey{lang, displayName}] = true
			subs = append(subs, models.SubtitleInfo{Lang: lang, Name: displayName, Ext: ext})
		}
	}

	add(manual, false)
	add(auto, true)

	sort.SliceStable(subs, func(i, j int) bool {
		ai, aj := subs[i].IsAuto(), subs[j].IsAuto()
		if ai != aj {
			return !ai
		}
		return subs[i].Name < subs[j].Name
	})

	return subs
}

func sortedLangs(m map[string][]ytdlp.RawSubtitle) []string {
	langs := make([]string, 0, len(m))
	for lang := range m {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
