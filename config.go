package playkit

// Config is the typed view of the player configuration tree. The player
// keeps the raw tree in a koanf instance so that successive Configure
// calls merge deeply and additively; this struct is re-unmarshalled
// after every merge.
type Config struct {
	Sources  SourcesConfig                     `koanf:"sources" json:"sources"`
	Playback PlaybackConfig                    `koanf:"playback" json:"playback"`
	Plugins  map[string]map[string]interface{} `koanf:"plugins" json:"plugins,omitempty"`
	DRM      DRMConfig                         `koanf:"drm" json:"drm,omitempty"`
}

// Clone returns a deep copy: nested slices and maps are copied too, so
// mutating the result never touches the configuration it came from.
func (c *Config) Clone() *Config {
	out := *c
	out.Sources.HLS = cloneSources(c.Sources.HLS)
	out.Sources.Dash = cloneSources(c.Sources.Dash)
	out.Sources.Progressive = cloneSources(c.Sources.Progressive)
	out.Sources.Captions = append([]CaptionSource(nil), c.Sources.Captions...)
	out.Playback.StreamPriority = append([]PriorityEntry(nil), c.Playback.StreamPriority...)
	out.Playback.PlaybackRates = append([]float64(nil), c.Playback.PlaybackRates...)
	out.DRM = c.DRM.clone()

	if c.Playback.PreferNative != nil {
		out.Playback.PreferNative = make(map[string]bool, len(c.Playback.PreferNative))
		for k, v := range c.Playback.PreferNative {
			out.Playback.PreferNative[k] = v
		}
	}

	if c.Plugins != nil {
		out.Plugins = make(map[string]map[string]interface{}, len(c.Plugins))
		for name, section := range c.Plugins {
			copied := make(map[string]interface{}, len(section))
			for k, v := range section {
				copied[k] = v
			}
			out.Plugins[name] = copied
		}
	}

	return &out
}

func cloneSources(sources []Source) []Source {
	if sources == nil {
		return nil
	}

	out := make([]Source, len(sources))
	for i, s := range sources {
		out[i] = s
		out[i].DRM = s.DRM.clone()
	}
	return out
}

type SourcesConfig struct {
	HLS         []Source        `koanf:"hls" json:"hls,omitempty"`
	Dash        []Source        `koanf:"dash" json:"dash,omitempty"`
	Progressive []Source        `koanf:"progressive" json:"progressive,omitempty"`
	Captions    []CaptionSource `koanf:"captions" json:"captions,omitempty"`

	Type      StreamType `koanf:"type" json:"type,omitempty"`
	DVR       bool       `koanf:"dvr" json:"dvr,omitempty"`
	StartTime float64    `koanf:"startTime" json:"startTime,omitempty"`
}

// ForFormat returns the source bucket for the given stream format.
func (s *SourcesConfig) ForFormat(format StreamFormat) []Source {
	switch format {
	case FormatHLS:
		return s.HLS
	case FormatDash:
		return s.Dash
	case FormatProgressive:
		return s.Progressive
	default:
		return nil
	}
}

func (s *SourcesConfig) Empty() bool {
	return len(s.HLS) == 0 && len(s.Dash) == 0 && len(s.Progressive) == 0
}

type PlaybackConfig struct {
	Autoplay           bool            `koanf:"autoplay" json:"autoplay"`
	AllowMutedAutoplay bool            `koanf:"allowMutedAutoplay" json:"allowMutedAutoplay"`
	Preload            string          `koanf:"preload" json:"preload,omitempty"`
	StreamPriority     []PriorityEntry `koanf:"streamPriority" json:"streamPriority,omitempty"`
	PreferNative       map[string]bool `koanf:"preferNative" json:"preferNative,omitempty"`
	UseNativeTextTrack bool            `koanf:"useNativeTextTrack" json:"useNativeTextTrack"`
	PlaybackRates      []float64       `koanf:"playbackRates" json:"playbackRates,omitempty"`
	Loop               bool            `koanf:"loop" json:"loop"`

	Muted        bool    `koanf:"muted" json:"muted"`
	Volume       float64 `koanf:"volume" json:"volume"`
	PlaybackRate float64 `koanf:"playbackRate" json:"playbackRate,omitempty"`

	// AudioLanguage and TextLanguage are the configured default track
	// languages. TextLanguage understands the special value "auto".
	AudioLanguage string `koanf:"audioLanguage" json:"audioLanguage,omitempty"`
	TextLanguage  string `koanf:"textLanguage" json:"textLanguage,omitempty"`
}

// LanguageAuto resolves by locale, falling back to the previously
// active default track and finally to the first available track.
const LanguageAuto = "auto"

// DefaultConfig is the base layer every player starts from. Configure
// calls overlay it, they never replace it wholesale.
func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"playback": map[string]interface{}{
			"autoplay":           false,
			"allowMutedAutoplay": true,
			"preload":            "none",
			"volume":             1.0,
			"muted":              false,
			"playbackRates":      []float64{0.5, 1, 2, 4},
			"useNativeTextTrack": false,
		},
	}
}
