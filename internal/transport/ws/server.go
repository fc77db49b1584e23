package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"checkers/internal/service"
	"checkers/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Server streams game events to websocket clients
type Server struct {
	svc         *service.Service
	hub         *Hub
	http        *http.Server
	unsubscribe func()
	done        chan struct{}
}

// NewServer subscribes a hub to svc and builds the router. Call Start to listen.
func NewServer(addr string, svc *service.Service) *Server {
	s := &Server{
		svc:  svc,
		hub:  NewHub(),
		done: make(chan struct{}),
	}
	s.unsubscribe = svc.Subscribe(s.hub)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           NewRouter(svc, s.hub),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go s.hub.Run(s.done)
	return s
}

// Start listens until Shutdown; it returns nil after a clean shutdown
func (s *Server) Start() error {
	log.Info().Str("addr", s.http.Addr).Msg("event server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.unsubscribe()
	close(s.done)
	if err := s.http.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_ = s.http.Close()
		return err
	}
	return nil
}

// NewRouter serves /ping and the per-game websocket endpoint
func NewRouter(svc *service.Service, hub *Hub) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Get("/ws/games/{gameID}", func(w http.ResponseWriter, r *http.Request) {
		serveGameWS(svc, hub, w, r)
	})
	return r
}

// requestLogger logs each request through zerolog
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("latency", time.Since(start)).
			Msg("event server request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var upgrader = websocket.Upgrader{
	// The server binds to localhost and serves the local UI only
	CheckOrigin: func(r *http.Request) bool { return true },
}

func serveGameWS(svc *service.Service, hub *Hub, w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")
	if _, err := svc.GetGame(gameID); err != nil {
		writeJSON(w, http.StatusNotFound, transport.NewErrorResponse(err))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &Client{gameID: gameID, conn: conn, send: make(chan []byte, 32)}
	hub.Register(client)
	hub.sendState(svc, client)

	go func() {
		defer conn.Close()
		if err := writeWithHeartbeat(conn, client.send, hub.PingInterval); err != nil {
			log.Debug().Err(err).Str("game_id", gameID).Msg("websocket write ended")
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			hub.Unregister(client)
			return
		}
		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == frameRequestState {
			hub.sendState(svc, client)
		}
	}
}
