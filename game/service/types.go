package service

import (
	"time"

	"github.com/wricardo/pyramid-puzzle/game/engine"
)

// Event types broadcast to session subscribers
const (
	EventAttempt = "attempt"
	EventSolved  = "solved"
	EventOptimal = "optimal"
	EventHint    = "hint"
	EventDeleted = "deleted"
	EventExpired = "expired"
)

// SessionInfo provides information about a puzzle session
type SessionInfo struct {
	ID             string           `json:"id"`
	ScenarioID     string           `json:"scenario_id"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	AttemptCount   int              `json:"attempt_count"`
	BestMP         *int             `json:"best_mp,omitempty"`
	Solved         bool             `json:"solved"`
	Optimal        bool             `json:"optimal"`
	HintsRevealed  int              `json:"hints_revealed"`
	Scenario       *engine.Scenario `json:"scenario"`
}

// Attempt is one path submitted to a session
type Attempt struct {
	Number    int                 `json:"number"`
	Path      string              `json:"path"`
	Analysis  string              `json:"analysis,omitempty"`
	Result    engine.Result       `json:"result"`
	Code      engine.ErrorCode    `json:"code,omitempty"`
	Step      int                 `json:"step,omitempty"`
	Trace     []engine.StepRecord `json:"trace,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// AttemptResult contains the outcome of submitting a path to a session
type AttemptResult struct {
	SessionID string      `json:"session_id"`
	Attempt   Attempt     `json:"attempt"`
	Solved    bool        `json:"solved"`
	Optimal   bool        `json:"optimal"`
	BestMP    *int        `json:"best_mp,omitempty"`
	Hint      string      `json:"hint,omitempty"`
	Events    []GameEvent `json:"events,omitempty"`
}

// ValidationResult is a stateless evaluation of a path against a scenario
type ValidationResult struct {
	ScenarioID string `json:"scenario_id"`
	Path       string `json:"path"`
	engine.Result
	Code  engine.ErrorCode    `json:"code,omitempty"`
	Step  int                 `json:"step,omitempty"`
	Trace []engine.StepRecord `json:"trace,omitempty"`
}

// GameEvent represents something that happened in a session
type GameEvent struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Attempt   *Attempt  `json:"attempt,omitempty"`
}

// HistoryOptions configures attempt history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated attempt history
type HistoryResponse struct {
	Attempts      []Attempt `json:"attempts"`
	TotalAttempts int       `json:"total_attempts"`
	Page          int       `json:"page"`
	PageSize      int       `json:"page_size"`
	TotalPages    int       `json:"total_pages"`
	HasNext       bool      `json:"has_next"`
	HasPrevious   bool      `json:"has_previous"`
}

// ScenarioInfo summarizes a scenario file
type ScenarioInfo struct {
	Filename     string   `json:"filename"`
	ScenarioID   string   `json:"scenario_id"` // The identifier to use for session creation
	Name         string   `json:"name,omitempty"`
	Description  string   `json:"description,omitempty"`
	BlockedTiles []string `json:"blocked_tiles"`
	Items        []string `json:"items"`
	Requires     []string `json:"requires,omitempty"`
	OptimalMP    *int     `json:"optimal_mp,omitempty"`
	HintCount    int      `json:"hint_count"`
	Warnings     []string `json:"warnings,omitempty"`
}

// NewScenarioInfo builds the listing entry for a scenario
func NewScenarioInfo(filename string, s *engine.Scenario) *ScenarioInfo {
	info := &ScenarioInfo{
		Filename:     filename,
		ScenarioID:   s.ID,
		Name:         s.Name,
		Description:  s.Description,
		BlockedTiles: s.Configuration.BlockedTiles(),
		Items:        make([]string, 0, len(s.Configuration.Collectibles)),
		Requires:     s.Configuration.Objective.Requires,
		OptimalMP:    s.Solution.OptimalMP,
		HintCount:    len(s.Solution.Hints),
		Warnings:     engine.ScenarioWarnings(s),
	}
	for _, c := range s.Configuration.Collectibles {
		info.Items = append(info.Items, c.Type+"@"+c.Location)
	}
	return info
}

// PublicScenario returns a copy of s without the reference path and hints,
// safe to hand to a solver.
func PublicScenario(s *engine.Scenario) *engine.Scenario {
	if s == nil {
		return nil
	}
	public := *s
	public.Solution = engine.Solution{OptimalMP: s.Solution.OptimalMP}
	return &public
}
