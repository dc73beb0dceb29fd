package playkit

// TrackKind tags the variant of a Track. Deep subclassing in other
// players maps here to a single tagged struct, dispatch is by kind.
type TrackKind string

const (
	TrackKindVideo TrackKind = "video"
	TrackKindAudio TrackKind = "audio"
	TrackKindText  TrackKind = "text"
)

// Track describes one selectable video/audio/text stream variant.
//
// Index is the position within the type-group as assigned by the engine
// (external text tracks continue the numbering after the native ones).
// Exactly one track per type-group is active at any time, except text
// where the synthetic OFF pseudo-track may be the active one.
type Track struct {
	Kind     TrackKind `json:"kind"`
	Index    int       `json:"index"`
	Active   bool      `json:"active"`
	Label    string    `json:"label,omitempty"`
	Language string    `json:"language,omitempty"`

	// Bandwidth is only meaningful for video tracks.
	Bandwidth int `json:"bandwidth,omitempty"`

	// External marks text tracks fetched outside the engine.
	External bool `json:"external,omitempty"`
	// Off marks the synthetic pseudo-track that disables text rendering.
	Off bool `json:"off,omitempty"`
}

// OffTextTrack builds the synthetic OFF pseudo-track appended whenever
// at least one real text track exists.
func OffTextTrack(index int) Track {
	return Track{Kind: TrackKindText, Index: index, Label: "Off", Language: "off", Off: true}
}

// SameTrack reports whether two tracks refer to the same slot. Active
// marking is index-based within the type-group, never identity-based,
// so defensive copies compare correctly.
func SameTrack(a, b Track) bool {
	return a.Kind == b.Kind && a.Index == b.Index
}

// CloneTracks returns a shallow copy of the track list. Track has no
// reference fields, so a copied slice is a fully independent snapshot.
func CloneTracks(tracks []Track) []Track {
	if tracks == nil {
		return nil
	}

	out := make([]Track, len(tracks))
	copy(out, tracks)
	return out
}

// FilterTracks returns the tracks of the given kind, preserving order.
func FilterTracks(tracks []Track, kind TrackKind) []Track {
	var out []Track
	for _, t := range tracks {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}
