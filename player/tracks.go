package player

import (
	"strings"

	playkit "github.com/eyzhub/playkit-go"
)

// mergeTracks builds the full track list out of the engine-native
// tracks: external caption tracks are appended after the native text
// ones, and the synthetic OFF pseudo-track is appended whenever at
// least one real text track exists. The result replaces the previous
// list wholesale.
func (p *Player) mergeTracks(native []playkit.Track) []playkit.Track {
	merged := playkit.CloneTracks(native)

	if p.captions != nil {
		merged = append(merged, p.captions.GetExternalTracks(native)...)
	}

	if textCount := len(playkit.FilterTracks(merged, playkit.TrackKindText)); textCount > 0 {
		merged = append(merged, playkit.OffTextTrack(textCount))
	}

	return merged
}

// applyLabels runs the per-kind custom label callbacks. Each callback
// receives a copy of the track and may override its label; an empty
// result leaves the original label untouched.
func (p *Player) applyLabels(tracks []playkit.Track) {
	for i := range tracks {
		cb, ok := p.labels[tracks[i].Kind]
		if !ok || cb == nil {
			continue
		}

		if label := cb(tracks[i]); label != "" {
			tracks[i].Label = label
		}
	}
}

// resolveDefaultsLocked marks the default active tracks after a
// tracks-changed event. Language preference order is the session
// user-chosen language, then the configured one; "auto" (and an unset
// text language) resolves locale → previously active default → first
// available. Requires p.mu.
func (p *Player) resolveDefaultsLocked(tracks []playkit.Track) {
	p.resolveDefaultAudioLocked(tracks)
	p.resolveDefaultTextLocked(tracks)
	normalizeActive(tracks, playkit.TrackKindVideo)
}

func (p *Player) resolveDefaultAudioLocked(tracks []playkit.Track) {
	lang := p.userAudioLang
	if lang == "" {
		lang = p.cfg.Playback.AudioLanguage
	}

	if lang != "" {
		if idx, ok := indexByLanguage(tracks, playkit.TrackKindAudio, lang); ok {
			markActive(tracks, playkit.TrackKindAudio, idx)
			return
		}
	}

	// no match: keep the engine-marked default, ensuring exactly one
	normalizeActive(tracks, playkit.TrackKindAudio)
}

func (p *Player) resolveDefaultTextLocked(tracks []playkit.Track) {
	text := playkit.FilterTracks(tracks, playkit.TrackKindText)
	if len(text) == 0 {
		return
	}

	offIdx := -1
	for _, t := range text {
		if t.Off {
			offIdx = t.Index
		}
	}

	lang := p.userTextLang
	if lang == "" {
		lang = p.cfg.Playback.TextLanguage
	}
	if lang == "" {
		lang = playkit.LanguageAuto
	}

	chosen := -1
	if lang == playkit.LanguageAuto {
		if idx, ok := indexByLanguage(tracks, playkit.TrackKindText, p.locale); ok {
			chosen = idx
		} else if p.lastDefaultText != nil && !p.lastDefaultText.Off {
			if idx, ok := indexByLanguage(tracks, playkit.TrackKindText, p.lastDefaultText.Language); ok {
				chosen = idx
			}
		} else {
			for _, t := range text {
				if !t.Off {
					chosen = t.Index
					break
				}
			}
		}
	} else if lang != "off" {
		if idx, ok := indexByLanguage(tracks, playkit.TrackKindText, lang); ok {
			chosen = idx
		}
	}

	// no match leaves the OFF pseudo-track as the active one
	if chosen < 0 {
		chosen = offIdx
	}

	markActive(tracks, playkit.TrackKindText, chosen)

	for _, t := range tracks {
		if t.Kind == playkit.TrackKindText && t.Index == chosen && !t.Off {
			sel := t
			p.lastDefaultText = &sel
		}
	}
}

// indexByLanguage finds a track of the given kind whose language
// matches, comparing base subtags so "en-US" matches "en".
func indexByLanguage(tracks []playkit.Track, kind playkit.TrackKind, lang string) (int, bool) {
	if lang == "" {
		return 0, false
	}

	base := func(l string) string {
		if i := strings.IndexAny(l, "-_"); i > 0 {
			return l[:i]
		}
		return l
	}

	want := base(strings.ToLower(lang))
	for _, t := range tracks {
		if t.Kind != kind || t.Off {
			continue
		}
		if base(strings.ToLower(t.Language)) == want {
			return t.Index, true
		}
	}
	return 0, false
}

// markActive sets Active on the track with the given index within its
// type-group and clears it on all others. Matching goes through
// SameTrack, so defensive copies passed back by callers mark correctly.
func markActive(tracks []playkit.Track, kind playkit.TrackKind, index int) {
	target := playkit.Track{Kind: kind, Index: index}
	for i := range tracks {
		if tracks[i].Kind == kind {
			tracks[i].Active = playkit.SameTrack(tracks[i], target)
		}
	}
}

// normalizeActive ensures exactly one active track in the type-group,
// preferring the first already-active one and falling back to the first
// track of the group.
func normalizeActive(tracks []playkit.Track, kind playkit.TrackKind) {
	activeIdx := -1
	firstIdx := -1
	for _, t := range tracks {
		if t.Kind != kind {
			continue
		}
		if firstIdx < 0 {
			firstIdx = t.Index
		}
		if t.Active && activeIdx < 0 {
			activeIdx = t.Index
		}
	}

	if firstIdx < 0 {
		return
	}
	if activeIdx < 0 {
		activeIdx = firstIdx
	}

	markActive(tracks, kind, activeIdx)
}
