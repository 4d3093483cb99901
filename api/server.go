package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wolfattack1993/polytrack-race/game/service"
	"github.com/wolfattack1993/polytrack-race/validate"
)

// Server represents the REST API server
type Server struct {
	service   service.GameService
	ws        http.Handler
	router    *mux.Router
	version   string
	staticDir string
	startedAt time.Time
}

// NewServer creates a new API server. ws handles WebSocket upgrades at
// /ws; staticDir is served at / for the browser client.
func NewServer(gameService service.GameService, ws http.Handler, version, staticDir string) *Server {
	s := &Server{
		service:   gameService,
		ws:        ws,
		router:    mux.NewRouter(),
		version:   version,
		staticDir: staticDir,
		startedAt: time.Now(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Status
	api.HandleFunc("/status", s.handleStatus).Methods("GET")

	// Players
	api.HandleFunc("/players", s.handleListPlayers).Methods("GET")
	api.HandleFunc("/players/{id}", s.handleGetPlayer).Methods("GET")

	// Operator broadcast
	api.HandleFunc("/broadcast", s.handleBroadcast).Methods("POST")

	// Health check
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	// Realtime endpoint
	s.router.Handle("/ws", s.ws)

	// Static client files
	if s.staticDir != "" {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// handleStatus returns server version, uptime, and player count
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"version":        s.version,
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
		"players":        s.service.PlayerCount(r.Context()),
	})
}

// handleListPlayers returns the public views of all connected players
func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	players := s.service.Players(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(players),
		"players": players,
	})
}

// handleGetPlayer returns one player by session id
func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	playerID := vars["id"]

	player, ok := s.service.Player(r.Context(), playerID)
	if !ok {
		respondError(w, http.StatusNotFound, "player not found")
		return
	}
	respondJSON(w, http.StatusOK, player)
}

// broadcastRequest is the body of POST /api/broadcast
type broadcastRequest struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleBroadcast delivers an operator announcement to every connected
// session. The admin code is checked per request; no session privilege
// is involved, and a wrong or unconfigured code yields the same 403.
func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.BroadcastMessage(req.Message); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.service.Announce(r.Context(), req.Code, req.Message); err != nil {
		if errors.Is(err, service.ErrNotPrivileged) {
			respondError(w, http.StatusForbidden, "access denied")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "broadcast sent",
	})
}

// handleHealth is the liveness probe
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
