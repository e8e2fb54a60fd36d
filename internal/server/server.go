package server

import (
	"net/http"

	"card-czar/internal/cards"
	"card-czar/internal/config"
	"card-czar/internal/game"

	"github.com/jonboulle/clockwork"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Config     config.Config
	Supplier   cards.Supplier
	Mirrors    []Mirror
	Clock      clockwork.Clock
	Connection ConnectionConfig
}

type Server struct {
	cfg   config.Config
	hub   *Hub
	rooms *Registry
}

func New(opts Options) *Server {
	if opts.Connection == (ConnectionConfig{}) {
		opts.Connection = DefaultConnectionConfig()
	}
	hub := NewHub(opts.Connection)
	var out game.Broadcaster = hub
	if len(opts.Mirrors) > 0 {
		out = fanout{primary: hub, mirrors: opts.Mirrors}
	}
	return &Server{
		cfg: opts.Config,
		hub: hub,
		rooms: NewRegistry(RegistryOptions{
			Settings:    game.SettingsFromConfig(opts.Config),
			Supplier:    opts.Supplier,
			Broadcaster: out,
			Members:     hub,
			Names:       game.NewNamePool(),
			Clock:       opts.Clock,
			Closed:      closeRoom(opts.Mirrors),
		}),
	}
}

func (s *Server) Registry() *Registry {
	return s.rooms
}

func (s *Server) Handler() http.Handler {
	mux := httprouter.New()
	mux.GET("/healthz", s.handleHealth)
	mux.GET("/api/rooms", s.handleListRooms)
	mux.GET("/api/rooms/:id", s.handleGetRoom)
	mux.GET("/ws", s.handleWebsocket)
	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		log.Error().Interface("panic", v).Str("path", r.URL.Path).Msg("handler panic")
		writeError(w, http.StatusInternalServerError, "internal error")
	}

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodHead},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(mux)
}

// Shutdown kills every room.
func (s *Server) Shutdown() {
	s.rooms.Shutdown()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"rooms":       len(s.rooms.List()),
		"connections": s.hub.Connections(),
	})
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]any{
		"rooms": s.rooms.List(),
	})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session, ok := s.rooms.Get(ps.ByName("id"))
	if !ok {
		writeError(w, http.StatusNotFound, ErrRoomNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot().WithoutHands())
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	c, err := s.hub.upgrade(w, r)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	go s.hub.writePump(c)
	go s.hub.readPump(c, s.dispatch, s.disconnected)
}
