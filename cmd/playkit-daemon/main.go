package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	playkit "github.com/eyzhub/playkit-go"
	"github.com/eyzhub/playkit-go/events"
	"github.com/eyzhub/playkit-go/player"

	_ "github.com/eyzhub/playkit-go/engine/probe"
)

type Config struct {
	ConfigPath string `koanf:"config_path"`

	LogLevel      string `koanf:"log_level"`
	ServerAddress string `koanf:"server_address"`
	ServerPort    int    `koanf:"server_port"`
	AllowOrigin   string `koanf:"allow_origin"`
	Locale        string `koanf:"locale"`

	// Player is handed to the player verbatim as its initial
	// configuration tree.
	Player map[string]interface{} `koanf:"player"`
}

func loadConfig(cfg *Config) error {
	f := flag.NewFlagSet("playkit-daemon", flag.ExitOnError)
	f.String("config_path", "config.yml", "the configuration file path")
	f.String("log_level", "", "the log level")
	f.String("server_address", "", "the api server address")
	f.Int("server_port", 0, "the api server port")
	if err := f.Parse(os.Args[1:]); err != nil {
		return fmt.Errorf("failed parsing flags: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"config_path":    "config.yml",
		"log_level":      "info",
		"server_address": "",
		"server_port":    3100,
		"locale":         "en",
	}, "."), nil); err != nil {
		return fmt.Errorf("failed loading default config: %w", err)
	}

	configPath, _ := f.GetString("config_path")
	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed loading config file: %w", err)
	}

	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return fmt.Errorf("failed loading flags: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return fmt.Errorf("failed unmarshalling config: %w", err)
	}

	return nil
}

// forwardedEvents go out to the websocket clients as-is.
var forwardedEvents = []string{
	playkit.EventPlay,
	playkit.EventPlaying,
	playkit.EventPause,
	playkit.EventEnded,
	playkit.EventDurationChange,
	playkit.EventVolumeChange,
	playkit.EventMuteChange,
	playkit.EventRateChange,
	playkit.EventSeeking,
	playkit.EventSeeked,
	playkit.EventWaiting,
	playkit.EventTracksChanged,
	playkit.EventVideoTrackChanged,
	playkit.EventAudioTrackChanged,
	playkit.EventTextTrackChanged,
	playkit.EventCueChanged,
	playkit.EventSourceSelected,
	playkit.EventFirstPlay,
	playkit.EventFirstPlaying,
	playkit.EventPlaybackStart,
	playkit.EventPlaybackEnded,
	playkit.EventPlayerReset,
	playkit.EventAutoplayFailed,
	playkit.EventFallbackToMutedAutoplay,
}

func wireEvents(p *player.Player, server *ApiServer, metrics *Metrics) {
	bus := p.Events()

	for _, name := range forwardedEvents {
		name := name
		bus.On(name, func(ev events.Event) {
			server.Emit(&ApiEvent{Type: name, Data: ev.Payload})
		})
	}

	bus.On(playkit.EventError, func(ev events.Event) {
		severity := "unknown"
		if e, ok := ev.Payload.(*playkit.Error); ok {
			severity = e.Severity.String()
			server.Emit(&ApiEvent{Type: playkit.EventError, Data: map[string]interface{}{
				"severity": severity,
				"category": string(e.Category),
				"code":     string(e.Code),
				"message":  e.Message,
			}})
		}
		metrics.Errors.WithLabelValues(severity).Inc()
	})

	bus.On(playkit.EventPlaybackEnded, func(events.Event) {
		metrics.PlaybackEnded.Inc()
	})
	bus.On(playkit.EventPlayerReset, func(events.Event) {
		metrics.Resets.Inc()
	})
	bus.On(playkit.EventChangeSourceEnded, func(events.Event) {
		metrics.SourceChanges.Inc()
	})
}

func handleApiRequest(req ApiRequest, p *player.Player, metrics *Metrics) (any, error) {
	switch req.Type {
	case ApiRequestTypeStatus:
		st, _ := p.ReadyState()
		return &ApiResponseStatus{
			Ready:    st.String(),
			Source:   p.SelectedSource(),
			Paused:   p.Paused(),
			Live:     p.IsLive(),
			Position: p.CurrentTime(),
			Duration: p.Duration(),
			Volume:   p.Volume(),
			Muted:    p.Muted(),
			Rate:     p.PlaybackRate(),
		}, nil
	case ApiRequestTypeConfigure:
		changes, ok := req.Data.(map[string]interface{})
		if !ok {
			return nil, ErrBadRequest
		}
		return nil, p.Configure(changes)
	case ApiRequestTypeLoad:
		p.Load()
		return nil, nil
	case ApiRequestTypePlay:
		metrics.PlayRequests.Inc()
		p.Play()
		return nil, nil
	case ApiRequestTypePause:
		p.Pause()
		return nil, nil
	case ApiRequestTypeSeek:
		data := req.Data.(ApiRequestDataSeek)
		pos := data.Position
		if data.Relative {
			pos = p.CurrentTime() + pos
		}
		p.SetCurrentTime(pos)
		return nil, nil
	case ApiRequestTypeGetVolume:
		return &ApiResponseVolume{Value: p.Volume(), Muted: p.Muted()}, nil
	case ApiRequestTypeSetVolume:
		data := req.Data.(ApiRequestDataVolume)
		vol := data.Volume
		if data.Relative {
			vol = p.Volume() + vol
		}
		p.SetVolume(vol)
		return nil, nil
	case ApiRequestTypeSetMuted:
		p.SetMuted(req.Data.(ApiRequestDataMuted).Muted)
		return nil, nil
	case ApiRequestTypeSetRate:
		p.SetPlaybackRate(req.Data.(ApiRequestDataRate).Rate)
		return nil, nil
	case ApiRequestTypeGetTracks:
		return &ApiResponseTracks{Tracks: p.GetTracks()}, nil
	case ApiRequestTypeSelectTrack:
		data := req.Data.(ApiRequestDataSelectTrack)
		for _, t := range p.GetTracks(playkit.TrackKind(data.Kind)) {
			if t.Index == data.Index {
				return nil, p.SelectTrack(t)
			}
		}
		return nil, ErrNotFound
	case ApiRequestTypeReset:
		p.Reset()
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown request type: %s", req.Type)
	}
}

func main() {
	var cfg Config
	if err := loadConfig(&cfg); err != nil {
		log.WithError(err).Fatal("failed loading configuration")
	}

	logLevel, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithError(err).Fatalf("invalid log level: %s", cfg.LogLevel)
	}
	log.SetLevel(logLevel)

	log.Infof("%s", playkit.VersionString())

	metrics := NewMetrics()

	server, err := NewApiServer(cfg.ServerAddress, cfg.ServerPort, cfg.AllowOrigin, metrics)
	if err != nil {
		log.WithError(err).Fatal("failed starting api server")
	}

	p, err := player.NewPlayer(&player.Options{
		Log:    LogrusAdapter{log.NewEntry(log.StandardLogger())},
		Locale: cfg.Locale,
		Config: cfg.Player,
	})
	if err != nil {
		log.WithError(err).Fatal("failed creating player")
	}

	wireEvents(p, server, metrics)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case req := <-server.Receive():
			data, err := handleApiRequest(req, p, metrics)
			req.Reply(data, err)
		case sig := <-shutdown:
			log.Infof("received signal %s, shutting down", sig)
			p.Destroy()
			server.Close()
			return
		}
	}
}
