package playkit

// StreamFormat identifies a delivery format bucket inside the sources
// configuration.
type StreamFormat string

const (
	FormatHLS         StreamFormat = "hls"
	FormatDash        StreamFormat = "dash"
	FormatProgressive StreamFormat = "progressive"
)

type StreamType string

const (
	StreamTypeVOD  StreamType = "vod"
	StreamTypeLive StreamType = "live"
)

// DRMConfig carries opaque DRM metadata. The core never interprets it,
// it is handed to the engine as-is during capability checks and load.
type DRMConfig map[string]interface{}

func (d DRMConfig) clone() DRMConfig {
	if d == nil {
		return nil
	}

	out := make(DRMConfig, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Source describes one playable manifest or media file. A source belongs
// to exactly one stream-format bucket.
type Source struct {
	Format   StreamFormat `koanf:"format" json:"format"`
	URL      string       `koanf:"url" json:"url"`
	MimeType string       `koanf:"mimetype" json:"mimetype,omitempty"`
	DRM      DRMConfig    `koanf:"drm" json:"drm,omitempty"`
}

// PriorityEntry is one step of the stream priority ladder: try this
// engine with the first source of this format.
type PriorityEntry struct {
	Engine string       `koanf:"engine" json:"engine"`
	Format StreamFormat `koanf:"format" json:"format"`
}

// CaptionSource describes an externally fetched caption file that will
// surface as an external text track next to the engine-native ones.
type CaptionSource struct {
	URL      string `koanf:"url" json:"url"`
	Language string `koanf:"language" json:"language"`
	Label    string `koanf:"label" json:"label,omitempty"`
	Default  bool   `koanf:"default" json:"default,omitempty"`
}
