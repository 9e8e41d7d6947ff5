package service

import (
	"context"
	"sync"
	"time"

	"github.com/wricardo/pyramid-puzzle/game/engine"
)

// PuzzleService defines all puzzle operations exposed to transports
type PuzzleService interface {
	// Session Management
	CreateSession(ctx context.Context, scenarioID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Attempts
	SubmitPath(ctx context.Context, sessionID, path, analysis string) (*AttemptResult, error)
	GetAttemptHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Stateless evaluation
	ValidatePath(ctx context.Context, scenarioID, path string) (*ValidationResult, error)
	DescribeTile(ctx context.Context, scenarioID, tile string) (*engine.TileInfo, error)

	// Scenarios
	ListScenarios(ctx context.Context) ([]*ScenarioInfo, error)
	LoadScenario(ctx context.Context, scenarioID string) (*engine.Scenario, error)
	SaveScenario(ctx context.Context, scenario *engine.Scenario) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, scenario *engine.Scenario) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles scenario loading
type ConfigManager interface {
	LoadScenario(id string) (*engine.Scenario, error)
	ListScenarios() ([]*ScenarioInfo, error)
	GetDefault() *engine.Scenario
	SaveScenario(scenario *engine.Scenario) error
}

// EventPublisher receives session events, typically a websocket hub
type EventPublisher interface {
	Publish(event GameEvent)
}

// Session binds one scenario to the attempts made against it
type Session struct {
	ID             string
	Scenario       *engine.Scenario
	Attempts       []Attempt
	HintsRevealed  int
	CreatedAt      time.Time
	LastAccessedAt time.Time

	mu sync.Mutex
}

// Submit evaluates path against the session's scenario and records the attempt
func (s *Session) Submit(path, analysis string) Attempt {
	result, verdict := engine.Evaluate(path, s.Scenario)

	s.mu.Lock()
	defer s.mu.Unlock()

	attempt := Attempt{
		Number:    len(s.Attempts) + 1,
		Path:      path,
		Analysis:  analysis,
		Result:    result,
		Code:      verdict.Code,
		Step:      verdict.Step,
		Trace:     verdict.Trace,
		Timestamp: time.Now(),
	}
	s.Attempts = append(s.Attempts, attempt)
	return attempt
}

// Touch marks the session as accessed now
func (s *Session) Touch() {
	s.mu.Lock()
	s.LastAccessedAt = time.Now()
	s.mu.Unlock()
}

// Revealed returns the number of hints handed out so far
func (s *Session) Revealed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.HintsRevealed
}

// NextHint reveals the next unrevealed scenario hint, or "" when none remain
func (s *Session) NextHint() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.HintsRevealed >= len(s.Scenario.Solution.Hints) {
		return ""
	}
	hint := s.Scenario.Solution.Hints[s.HintsRevealed]
	s.HintsRevealed++
	return hint
}

// Snapshot returns a copy of the attempt history
func (s *Session) Snapshot() []Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempts := make([]Attempt, len(s.Attempts))
	copy(attempts, s.Attempts)
	return attempts
}

// Progress reports the lowest MP among valid attempts and whether any
// attempt was valid or optimal.
func (s *Session) Progress() (bestMP *int, solved, optimal bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.Attempts {
		if !a.Result.IsValid {
			continue
		}
		solved = true
		if a.Result.IsOptimal {
			optimal = true
		}
		if bestMP == nil || a.Result.TotalMP < *bestMP {
			mp := a.Result.TotalMP
			bestMP = &mp
		}
	}
	return bestMP, solved, optimal
}
