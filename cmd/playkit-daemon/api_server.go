package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	playkit "github.com/eyzhub/playkit-go"
	log "github.com/sirupsen/logrus"
)

const wsWriteTimeout = 10 * time.Second

var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("not found")
)

type ApiRequestType string

const (
	ApiRequestTypeConfigure   ApiRequestType = "configure"
	ApiRequestTypeStatus      ApiRequestType = "status"
	ApiRequestTypeLoad        ApiRequestType = "load"
	ApiRequestTypePlay        ApiRequestType = "play"
	ApiRequestTypePause       ApiRequestType = "pause"
	ApiRequestTypeSeek        ApiRequestType = "seek"
	ApiRequestTypeGetVolume   ApiRequestType = "get_volume"
	ApiRequestTypeSetVolume   ApiRequestType = "set_volume"
	ApiRequestTypeSetMuted    ApiRequestType = "set_muted"
	ApiRequestTypeSetRate     ApiRequestType = "set_rate"
	ApiRequestTypeGetTracks   ApiRequestType = "get_tracks"
	ApiRequestTypeSelectTrack ApiRequestType = "select_track"
	ApiRequestTypeReset       ApiRequestType = "reset"
)

type ApiRequest struct {
	Type ApiRequestType
	Data any

	resp chan apiResponse
}

func (r *ApiRequest) Reply(data any, err error) {
	r.resp <- apiResponse{data, err}
}

type apiResponse struct {
	data any
	err  error
}

type ApiRequestDataSeek struct {
	Position float64 `json:"position"`
	Relative bool    `json:"relative"`
}

type ApiRequestDataVolume struct {
	Volume   float64 `json:"volume"`
	Relative bool    `json:"relative"`
}

type ApiRequestDataMuted struct {
	Muted bool `json:"muted"`
}

type ApiRequestDataRate struct {
	Rate float64 `json:"rate"`
}

type ApiRequestDataSelectTrack struct {
	Kind  string `json:"kind"`
	Index int    `json:"index"`
}

type ApiResponseStatus struct {
	Ready    string          `json:"ready"`
	Source   *playkit.Source `json:"source"`
	Paused   bool            `json:"paused"`
	Live     bool            `json:"live"`
	Position float64         `json:"position"`
	Duration float64         `json:"duration"`
	Volume   float64         `json:"volume"`
	Muted    bool            `json:"muted"`
	Rate     float64         `json:"rate"`
}

type ApiResponseVolume struct {
	Value float64 `json:"value"`
	Muted bool    `json:"muted"`
}

type ApiResponseTracks struct {
	Tracks []playkit.Track `json:"tracks"`
}

// ApiEvent is the envelope every websocket client receives; Type is a
// player event name, Data its payload as-is.
type ApiEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ApiServer exposes the REST control surface, the websocket event feed
// and the prometheus endpoint. Control requests travel over a channel
// to whoever drives the player, keeping the HTTP layer free of player
// state.
type ApiServer struct {
	allowOrigin string
	metrics     *Metrics

	close    bool
	listener net.Listener

	requests chan ApiRequest

	clients     []*websocket.Conn
	clientsLock sync.RWMutex
}

func NewApiServer(address string, port int, allowOrigin string, metrics *Metrics) (_ *ApiServer, err error) {
	s := &ApiServer{allowOrigin: allowOrigin, metrics: metrics}
	s.requests = make(chan ApiRequest)

	s.listener, err = net.Listen("tcp", fmt.Sprintf("%s:%d", address, port))
	if err != nil {
		return nil, fmt.Errorf("failed starting api listener: %w", err)
	}

	log.Infof("api server listening on %s", s.listener.Addr())

	go s.serve()
	return s, nil
}

func (s *ApiServer) handleRequest(req ApiRequest, w http.ResponseWriter) {
	req.resp = make(chan apiResponse, 1)
	s.requests <- req
	resp := <-req.resp

	if resp.err != nil {
		switch {
		case errors.Is(resp.err, ErrBadRequest):
			w.WriteHeader(http.StatusBadRequest)
			return
		case errors.Is(resp.err, ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			return
		default:
			log.WithError(resp.err).Errorf("failed handling request %s", req.Type)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if resp.data == nil {
		_, _ = w.Write([]byte("{}"))
		return
	}
	_ = json.NewEncoder(w).Encode(resp.data)
}

func (s *ApiServer) serve() {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	})

	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		s.handleRequest(ApiRequest{Type: ApiRequestTypeStatus}, w)
	})

	r.Post("/player/configure", func(w http.ResponseWriter, req *http.Request) {
		var data map[string]interface{}
		if err := json.NewDecoder(req.Body).Decode(&data); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		s.handleRequest(ApiRequest{Type: ApiRequestTypeConfigure, Data: data}, w)
	})

	r.Post("/player/load", func(w http.ResponseWriter, _ *http.Request) {
		s.handleRequest(ApiRequest{Type: ApiRequestTypeLoad}, w)
	})

	r.Post("/player/play", func(w http.ResponseWriter, _ *http.Request) {
		s.handleRequest(ApiRequest{Type: ApiRequestTypePlay}, w)
	})

	r.Post("/player/pause", func(w http.ResponseWriter, _ *http.Request) {
		s.handleRequest(ApiRequest{Type: ApiRequestTypePause}, w)
	})

	r.Post("/player/seek", func(w http.ResponseWriter, req *http.Request) {
		var data ApiRequestDataSeek
		if err := json.NewDecoder(req.Body).Decode(&data); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		s.handleRequest(ApiRequest{Type: ApiRequestTypeSeek, Data: data}, w)
	})

	r.Get("/player/volume", func(w http.ResponseWriter, _ *http.Request) {
		s.handleRequest(ApiRequest{Type: ApiRequestTypeGetVolume}, w)
	})

	r.Post("/player/volume", func(w http.ResponseWriter, req *http.Request) {
		var data ApiRequestDataVolume
		if err := json.NewDecoder(req.Body).Decode(&data); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		s.handleRequest(ApiRequest{Type: ApiRequestTypeSetVolume, Data: data}, w)
	})

	r.Post("/player/muted", func(w http.ResponseWriter, req *http.Request) {
		var data ApiRequestDataMuted
		if err := json.NewDecoder(req.Body).Decode(&data); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		s.handleRequest(ApiRequest{Type: ApiRequestTypeSetMuted, Data: data}, w)
	})

	r.Post("/player/rate", func(w http.ResponseWriter, req *http.Request) {
		var data ApiRequestDataRate
		if err := json.NewDecoder(req.Body).Decode(&data); err != nil || data.Rate <= 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		s.handleRequest(ApiRequest{Type: ApiRequestTypeSetRate, Data: data}, w)
	})

	r.Get("/player/tracks", func(w http.ResponseWriter, _ *http.Request) {
		s.handleRequest(ApiRequest{Type: ApiRequestTypeGetTracks}, w)
	})

	r.Post("/player/tracks", func(w http.ResponseWriter, req *http.Request) {
		var data ApiRequestDataSelectTrack
		if err := json.NewDecoder(req.Body).Decode(&data); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		s.handleRequest(ApiRequest{Type: ApiRequestTypeSelectTrack, Data: data}, w)
	})

	r.Post("/player/reset", func(w http.ResponseWriter, _ *http.Request) {
		s.handleRequest(ApiRequest{Type: ApiRequestTypeReset}, w)
	})

	r.Handle("/metrics", s.metrics.Handler())

	r.Get("/events", func(w http.ResponseWriter, req *http.Request) {
		opts := &websocket.AcceptOptions{}
		if len(s.allowOrigin) > 0 {
			allow := s.allowOrigin
			allow = strings.TrimPrefix(allow, "http://")
			allow = strings.TrimPrefix(allow, "https://")
			allow = strings.TrimSuffix(allow, "/")
			opts.OriginPatterns = []string{allow}
		}

		c, err := websocket.Accept(w, req, opts)
		if err != nil {
			log.WithError(err).Error("failed accepting websocket connection")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		s.clientsLock.Lock()
		s.clients = append(s.clients, c)
		s.clientsLock.Unlock()
		s.metrics.WsClients.Inc()

		log.Debugf("new websocket client")

		for {
			_, _, err := c.Read(context.Background())
			if s.close {
				return
			} else if err != nil {
				log.WithError(err).Debug("websocket connection closed")

				s.clientsLock.Lock()
				for i, cc := range s.clients {
					if cc == c {
						s.clients = append(s.clients[:i], s.clients[i+1:]...)
						break
					}
				}
				s.clientsLock.Unlock()
				s.metrics.WsClients.Dec()
				return
			}
		}
	})

	c := cors.New(cors.Options{
		AllowedOrigins:      []string{s.allowOrigin},
		AllowPrivateNetwork: true,
		AllowCredentials:    true,
	})

	err := http.Serve(s.listener, c.Handler(r))
	if s.close {
		return
	} else if err != nil {
		log.WithError(err).Fatal("failed serving api")
	}
}

// Emit fans an event out to every websocket client. Write failures are
// logged and never propagated.
func (s *ApiServer) Emit(ev *ApiEvent) {
	s.clientsLock.RLock()
	defer s.clientsLock.RUnlock()

	log.Tracef("emitting websocket event: %s", ev.Type)

	for _, client := range s.clients {
		ctx, cancel := context.WithTimeout(context.Background(), wsWriteTimeout)
		err := wsjson.Write(ctx, client, ev)
		cancel()
		if err != nil {
			log.WithError(err).Error("failed communicating with websocket client")
		}
	}
}

func (s *ApiServer) Receive() <-chan ApiRequest {
	return s.requests
}

func (s *ApiServer) Close() {
	s.close = true

	s.clientsLock.RLock()
	for _, client := range s.clients {
		_ = client.Close(websocket.StatusGoingAway, "")
	}
	s.clientsLock.RUnlock()

	_ = s.listener.Close()
}
