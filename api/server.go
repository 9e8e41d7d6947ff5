package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/pyramid-puzzle/game/config"
	"github.com/wricardo/pyramid-puzzle/game/engine"
	"github.com/wricardo/pyramid-puzzle/game/prompt"
	"github.com/wricardo/pyramid-puzzle/game/service"
	"github.com/wricardo/pyramid-puzzle/game/session"
	"github.com/wricardo/pyramid-puzzle/transport/websocket"
)

// maxBodySize caps request bodies; scenarios are the largest payload
const maxBodySize = 1 << 20

// Server represents the REST API server
type Server struct {
	service service.PuzzleService
	hub     *websocket.Hub
	prompts *prompt.Builder
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil, which disables /ws.
// A nil prompts falls back to the embedded rules.
func NewServer(puzzleService service.PuzzleService, hub *websocket.Hub, prompts *prompt.Builder) *Server {
	if prompts == nil {
		prompts = prompt.NewBuilder()
	}
	s := &Server{
		service: puzzleService,
		hub:     hub,
		prompts: prompts,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Scenarios
	api.HandleFunc("/scenarios", s.handleListScenarios).Methods("GET")
	api.HandleFunc("/scenarios", s.handleSaveScenario).Methods("POST")
	api.HandleFunc("/scenarios/{id}", s.handleGetScenario).Methods("GET")
	api.HandleFunc("/scenarios/{id}/validate", s.handleValidatePath).Methods("POST")
	api.HandleFunc("/scenarios/{id}/tiles/{tile}", s.handleDescribeTile).Methods("GET")
	api.HandleFunc("/scenarios/{id}/prompt", s.handleScenarioPrompt).Methods("GET")

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Attempts
	api.HandleFunc("/sessions/{id}/attempts", s.handleSubmitAttempt).Methods("POST")
	api.HandleFunc("/sessions/{id}/attempts", s.handleGetHistory).Methods("GET")

	api.HandleFunc("/rules", s.handleRules).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, config.ErrScenarioNotFound),
		errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSessionAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, config.ErrInvalidScenario),
		errors.Is(err, session.ErrInvalidSessionID),
		errors.Is(err, engine.ErrInvalidTileFormat),
		errors.Is(err, engine.ErrInvalidTileRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// Scenario Handlers

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := s.service.ListScenarios(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, scenarios)
}

// handleGetScenario hides the optimal path and hints unless ?solution=true
func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	scenarioID := strings.TrimSuffix(mux.Vars(r)["id"], ".yaml")

	scenario, err := s.service.LoadScenario(r.Context(), scenarioID)
	if err != nil {
		respondError(w, err)
		return
	}

	if r.URL.Query().Get("solution") != "true" {
		scenario = service.PublicScenario(scenario)
	}
	respondJSON(w, http.StatusOK, scenario)
}

func (s *Server) handleSaveScenario(w http.ResponseWriter, r *http.Request) {
	var scenario engine.Scenario
	if err := decodeBody(w, r, &scenario); err != nil {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if scenario.ID == "" {
		respondMessage(w, http.StatusBadRequest, "Scenario id is required")
		return
	}

	if err := s.service.SaveScenario(r.Context(), &scenario); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Scenario saved successfully",
		"scenario_id": scenario.ID,
		"warnings":    engine.ScenarioWarnings(&scenario),
	})
}

func (s *Server) handleValidatePath(w http.ResponseWriter, r *http.Request) {
	scenarioID := mux.Vars(r)["id"]

	var req struct {
		Path string `json:"path"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.ValidatePath(r.Context(), scenarioID, req.Path)
	if err != nil {
		respondError(w, err)
		return
	}

	log.Info().
		Str("scenario", scenarioID).
		Bool("valid", result.IsValid).
		Int("total_mp", result.TotalMP).
		Str("code", string(result.Code)).
		Msg("path validated")

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleDescribeTile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	info, err := s.service.DescribeTile(r.Context(), vars["id"], vars["tile"])
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

// handleScenarioPrompt returns the full model prompt for a scenario,
// optionally with ?hint=N (1-based) appended.
func (s *Server) handleScenarioPrompt(w http.ResponseWriter, r *http.Request) {
	scenario, err := s.service.LoadScenario(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}

	var hint string
	if hintStr := r.URL.Query().Get("hint"); hintStr != "" {
		n, err := strconv.Atoi(hintStr)
		if err != nil || n < 1 || n > len(scenario.Solution.Hints) {
			respondMessage(w, http.StatusBadRequest, fmt.Sprintf("hint must be between 1 and %d", len(scenario.Solution.Hints)))
			return
		}
		hint = scenario.Solution.Hints[n-1]
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.prompts.Build(scenario, hint)))
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"rules":           s.prompts.Rules,
		"output_notation": s.prompts.OutputNotation,
	})
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id,omitempty"`
	}

	// an empty body selects the default scenario
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			respondMessage(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	info, err := s.service.CreateSession(r.Context(), req.ScenarioID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return
	scenarioID := query.Get("scenario")

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	if scenarioID != "" {
		filtered := sessions[:0]
		for _, info := range sessions {
			if info.ScenarioID == scenarioID {
				filtered = append(filtered, info)
			}
		}
		sessions = filtered
	}
	total := len(sessions)

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Attempt Handlers

func (s *Server) handleSubmitAttempt(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Path     string `json:"path"`
		Analysis string `json:"analysis,omitempty"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.SubmitPath(r.Context(), sessionID, req.Path, req.Analysis)
	if err != nil {
		respondError(w, err)
		return
	}

	a := result.Attempt
	log.Info().
		Str("session", sessionID).
		Int("attempt", a.Number).
		Bool("valid", a.Result.IsValid).
		Bool("optimal", a.Result.IsOptimal).
		Int("total_mp", a.Result.TotalMP).
		Str("code", string(a.Code)).
		Msg("attempt")

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetAttemptHistory(r.Context(), sessionID, opts)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// WebSocket Handler

// handleWebSocket subscribes to one session, or to all sessions when the
// session parameter is omitted.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "websocket disabled", http.StatusNotFound)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID != "" {
		if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
			http.Error(w, "Invalid session", http.StatusNotFound)
			return
		}
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
