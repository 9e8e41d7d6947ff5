package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/pyramid-puzzle/game/engine"
)

var (
	// attemptsTotal counts session attempts by scenario and outcome
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyramid_session_attempts_total",
		Help: "Total paths submitted to sessions by scenario and outcome",
	}, []string{"scenario", "outcome"})

	// validationsTotal counts stateless validations by scenario and outcome
	validationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyramid_validations_total",
		Help: "Total stateless path validations by scenario and outcome",
	}, []string{"scenario", "outcome"})

	// pathCost tracks the MP of valid paths
	pathCost = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pyramid_valid_path_mp",
		Help:    "Movement points spent by valid paths",
		Buckets: prometheus.LinearBuckets(2, 2, 15),
	}, []string{"scenario"})

	// activeSessions tracks sessions held by the service
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pyramid_active_sessions",
		Help: "Number of puzzle sessions currently held",
	})
)

// puzzleServiceImpl implements the PuzzleService interface
type puzzleServiceImpl struct {
	sessions  SessionManager
	configs   ConfigManager
	publisher EventPublisher
	mu        sync.RWMutex
}

// NewPuzzleService creates a new puzzle service instance. publisher may be nil.
func NewPuzzleService(sessions SessionManager, configs ConfigManager, publisher EventPublisher) PuzzleService {
	return &puzzleServiceImpl{
		sessions:  sessions,
		configs:   configs,
		publisher: publisher,
	}
}

// CreateSession creates a new session for a scenario, or for the default
// scenario when scenarioID is empty.
func (s *puzzleServiceImpl) CreateSession(ctx context.Context, scenarioID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var scenario *engine.Scenario
	if scenarioID != "" {
		var err error
		scenario, err = s.loadScenario(scenarioID)
		if err != nil {
			return nil, err
		}
	} else {
		scenario = s.configs.GetDefault()
		if scenario == nil {
			return nil, fmt.Errorf("no scenarios available")
		}
	}

	sess, err := s.sessions.Create("", scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	activeSessions.Set(float64(len(s.sessions.List())))

	log.Info().Str("session", sess.ID).Str("scenario", scenario.ID).Msg("session created")
	return sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *puzzleServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)

	return sessionInfo(sess), nil
}

// ListSessions returns all sessions, most recently created first
func (s *puzzleServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// DeleteSession removes a session
func (s *puzzleServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	activeSessions.Set(float64(len(s.sessions.List())))

	s.publish(GameEvent{
		Type:      EventDeleted,
		SessionID: sessionID,
		Message:   "Session deleted",
		Timestamp: time.Now(),
	})
	return nil
}

// SubmitPath evaluates a path in a session and records it. A valid but
// suboptimal path reveals the scenario's next hint.
func (s *puzzleServiceImpl) SubmitPath(ctx context.Context, sessionID, path, analysis string) (*AttemptResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)

	attempt := sess.Submit(path, analysis)
	scenarioID := sess.Scenario.ID
	attemptsTotal.WithLabelValues(scenarioID, outcome(attempt.Result)).Inc()
	if attempt.Result.IsValid {
		pathCost.WithLabelValues(scenarioID).Observe(float64(attempt.Result.TotalMP))
	}

	now := time.Now()
	events := []GameEvent{{
		Type:      EventAttempt,
		SessionID: sess.ID,
		Message:   fmt.Sprintf("Attempt %d: %s", attempt.Number, attempt.Result.Message),
		Timestamp: now,
		Attempt:   &attempt,
	}}

	var hint string
	switch {
	case attempt.Result.IsOptimal:
		events = append(events, GameEvent{
			Type:      EventOptimal,
			SessionID: sess.ID,
			Message:   fmt.Sprintf("Optimal solution found: %d MP", attempt.Result.TotalMP),
			Timestamp: now,
		})
	case attempt.Result.IsValid:
		events = append(events, GameEvent{
			Type:      EventSolved,
			SessionID: sess.ID,
			Message:   fmt.Sprintf("Valid path with %d MP", attempt.Result.TotalMP),
			Timestamp: now,
		})
		if hint = sess.NextHint(); hint != "" {
			events = append(events, GameEvent{
				Type:      EventHint,
				SessionID: sess.ID,
				Message:   hint,
				Timestamp: now,
			})
		}
	}

	if err := s.sessions.Save(sess.ID); err != nil {
		log.Warn().Err(err).Str("session", sess.ID).Msg("failed to persist session after attempt")
	}
	for _, event := range events {
		s.publish(event)
	}

	log.Debug().
		Str("session", sess.ID).
		Str("scenario", scenarioID).
		Int("attempt", attempt.Number).
		Bool("valid", attempt.Result.IsValid).
		Int("total_mp", attempt.Result.TotalMP).
		Msg("path submitted")

	bestMP, solved, optimal := sess.Progress()
	return &AttemptResult{
		SessionID: sess.ID,
		Attempt:   attempt,
		Solved:    solved,
		Optimal:   optimal,
		BestMP:    bestMP,
		Hint:      hint,
		Events:    events,
	}, nil
}

// GetAttemptHistory returns paginated attempt history
func (s *puzzleServiceImpl) GetAttemptHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Snapshot()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var attempts []Attempt
	if opts.Order == "desc" {
		// most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			attempts = append(attempts, history[i])
		}
	} else if start < total {
		attempts = history[start:end]
	}

	if attempts == nil {
		attempts = []Attempt{}
	}

	return &HistoryResponse{
		Attempts:      attempts,
		TotalAttempts: total,
		Page:          opts.Page,
		PageSize:      opts.Limit,
		TotalPages:    totalPages,
		HasNext:       opts.Page < totalPages,
		HasPrevious:   opts.Page > 1,
	}, nil
}

// ValidatePath evaluates a path against a scenario without a session
func (s *puzzleServiceImpl) ValidatePath(ctx context.Context, scenarioID, path string) (*ValidationResult, error) {
	scenario, err := s.loadScenario(scenarioID)
	if err != nil {
		return nil, err
	}

	result, verdict := engine.Evaluate(path, scenario)
	validationsTotal.WithLabelValues(scenario.ID, outcome(result)).Inc()
	if result.IsValid {
		pathCost.WithLabelValues(scenario.ID).Observe(float64(result.TotalMP))
	}

	return &ValidationResult{
		ScenarioID: scenario.ID,
		Path:       path,
		Result:     result,
		Code:       verdict.Code,
		Step:       verdict.Step,
		Trace:      verdict.Trace,
	}, nil
}

// DescribeTile lists the exits and items of a tile within a scenario
func (s *puzzleServiceImpl) DescribeTile(ctx context.Context, scenarioID, tile string) (*engine.TileInfo, error) {
	scenario, err := s.loadScenario(scenarioID)
	if err != nil {
		return nil, err
	}

	t, err := engine.ParseTile(tile)
	if err != nil {
		return nil, err
	}

	info := engine.DescribeTile(t, scenario.Configuration)
	return &info, nil
}

// ListScenarios returns available scenarios
func (s *puzzleServiceImpl) ListScenarios(ctx context.Context) ([]*ScenarioInfo, error) {
	return s.configs.ListScenarios()
}

// LoadScenario loads a specific scenario
func (s *puzzleServiceImpl) LoadScenario(ctx context.Context, scenarioID string) (*engine.Scenario, error) {
	return s.loadScenario(scenarioID)
}

// SaveScenario validates and stores a scenario
func (s *puzzleServiceImpl) SaveScenario(ctx context.Context, scenario *engine.Scenario) error {
	return s.configs.SaveScenario(scenario)
}

// loadScenario wraps lookup failures with the list of known scenario IDs
func (s *puzzleServiceImpl) loadScenario(scenarioID string) (*engine.Scenario, error) {
	scenario, err := s.configs.LoadScenario(scenarioID)
	if err == nil {
		return scenario, nil
	}

	available, listErr := s.configs.ListScenarios()
	if listErr == nil && len(available) > 0 {
		ids := make([]string, 0, len(available))
		for _, info := range available {
			ids = append(ids, info.ScenarioID)
		}
		return nil, fmt.Errorf("scenario '%s' (available: %v): %w", scenarioID, ids, err)
	}
	return nil, fmt.Errorf("scenario '%s': %w", scenarioID, err)
}

func (s *puzzleServiceImpl) publish(event GameEvent) {
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
}

func sessionInfo(sess *Session) *SessionInfo {
	bestMP, solved, optimal := sess.Progress()

	sess.mu.Lock()
	info := &SessionInfo{
		ID:             sess.ID,
		ScenarioID:     sess.Scenario.ID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		AttemptCount:   len(sess.Attempts),
		HintsRevealed:  sess.HintsRevealed,
		Scenario:       PublicScenario(sess.Scenario),
	}
	sess.mu.Unlock()

	info.BestMP = bestMP
	info.Solved = solved
	info.Optimal = optimal
	return info
}

func outcome(r engine.Result) string {
	switch {
	case r.IsOptimal:
		return "optimal"
	case r.IsValid:
		return "valid"
	default:
		return "invalid"
	}
}
