package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/pyramid-puzzle/game/engine"
	"github.com/wricardo/pyramid-puzzle/game/service"
)

var (
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrInvalidScenario  = errors.New("invalid scenario")
)

// FilePrefix and FileExt name scenario files, as in scenario_3.yaml
const (
	FilePrefix = "scenario_"
	FileExt    = ".yaml"
)

// Manager handles scenario loading and caching
type Manager struct {
	scenarioDir     string
	defaultScenario *engine.Scenario
	scenarios       map[string]*engine.Scenario
	files           map[string]string
	mu              sync.RWMutex
}

// NewManager creates a new scenario manager over a directory of YAML files
func NewManager(scenarioDir string) (*Manager, error) {
	if _, err := os.Stat(scenarioDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("scenario directory does not exist: %s", scenarioDir)
	}

	m := &Manager{
		scenarioDir: scenarioDir,
		scenarios:   make(map[string]*engine.Scenario),
		files:       make(map[string]string),
	}

	if err := m.loadDefaultScenario(); err != nil {
		return nil, fmt.Errorf("failed to load default scenario: %w", err)
	}

	return m, nil
}

// Dir returns the directory the manager reads from
func (m *Manager) Dir() string {
	return m.scenarioDir
}

// LoadScenario loads a scenario by ID. The conventional file name is tried
// first, then every file in the directory.
func (m *Manager) LoadScenario(id string) (*engine.Scenario, error) {
	m.mu.RLock()
	if s, exists := m.scenarios[id]; exists {
		m.mu.RUnlock()
		return s, nil
	}
	m.mu.RUnlock()

	filename := FilePrefix + id + FileExt
	if _, err := os.Stat(filepath.Join(m.scenarioDir, filename)); err == nil {
		if err := m.loadFile(filename); err != nil {
			return nil, err
		}
	} else if _, err := m.scan(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, exists := m.scenarios[id]; exists {
		return s, nil
	}
	return nil, ErrScenarioNotFound
}

// ListScenarios returns information about every valid scenario in the
// directory, ordered by ID.
func (m *Manager) ListScenarios() ([]*service.ScenarioInfo, error) {
	ids, err := m.scan()
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]*service.ScenarioInfo, 0, len(ids))
	for _, id := range ids {
		infos = append(infos, service.NewScenarioInfo(m.files[id], m.scenarios[id]))
	}
	return infos, nil
}

// GetDefault returns the default scenario
func (m *Manager) GetDefault() *engine.Scenario {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultScenario
}

// SetDefault sets the default scenario by ID
func (m *Manager) SetDefault(id string) error {
	s, err := m.LoadScenario(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultScenario = s
	return nil
}

// RefreshCache drops cached scenarios and reloads from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.scenarios = make(map[string]*engine.Scenario)
	m.files = make(map[string]string)
	m.mu.Unlock()

	return m.loadDefaultScenario()
}

// SaveScenario validates a scenario and writes it to scenario_<id>.yaml
func (m *Manager) SaveScenario(s *engine.Scenario) error {
	if err := engine.ValidateScenario(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if strings.ContainsAny(s.ID, `/\`) || s.ID == "." || s.ID == ".." {
		return fmt.Errorf("%w: id %q cannot be used as a file name", ErrInvalidScenario, s.ID)
	}

	data, err := engine.MarshalScenarioYAML(s)
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}

	filename := FilePrefix + s.ID + FileExt
	if err := os.WriteFile(filepath.Join(m.scenarioDir, filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write scenario file: %w", err)
	}

	m.mu.Lock()
	m.scenarios[s.ID] = s
	m.files[s.ID] = filename
	m.mu.Unlock()

	return nil
}

// loadFile parses one file and caches every valid scenario in it
func (m *Manager) loadFile(filename string) error {
	path := filepath.Join(m.scenarioDir, filename)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat scenario file: %w", err)
	}
	if info.Size() > engine.MaxScenarioFileSize {
		return fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidScenario, filename, engine.MaxScenarioFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenarios, err := engine.ParseScenarioYAML(data)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidScenario, filename, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range scenarios {
		if err := engine.ValidateScenario(s); err != nil {
			log.Warn().Str("file", filename).Str("scenario", s.ID).Err(err).Msg("skipping invalid scenario")
			continue
		}
		if prev, exists := m.files[s.ID]; exists && prev != filename {
			log.Warn().Str("scenario", s.ID).Str("file", filename).Str("kept", prev).Msg("duplicate scenario id")
			continue
		}
		m.scenarios[s.ID] = s
		m.files[s.ID] = filename
	}
	return nil
}

// scan loads every scenario file in the directory and returns the known IDs
// in order.
func (m *Manager) scan() ([]string, error) {
	entries, err := os.ReadDir(m.scenarioDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		if err := m.loadFile(name); err != nil {
			// Skip unreadable files
			log.Warn().Str("file", name).Err(err).Msg("skipping scenario file")
		}
	}

	m.mu.RLock()
	ids := make([]string, 0, len(m.scenarios))
	for id := range m.scenarios {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	SortIDs(ids)
	return ids, nil
}

// loadDefaultScenario picks the lowest scenario ID, or a built-in scenario
// when the directory has none.
func (m *Manager) loadDefaultScenario() error {
	ids, err := m.scan()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(ids) == 0 {
		m.defaultScenario = createMinimalScenario()
		m.scenarios[m.defaultScenario.ID] = m.defaultScenario
		return nil
	}
	m.defaultScenario = m.scenarios[ids[0]]
	return nil
}

// SortIDs orders scenario IDs numerically when both are numbers and
// lexically otherwise.
func SortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
}

// createMinimalScenario creates a minimal valid scenario
func createMinimalScenario() *engine.Scenario {
	optimal := 8
	return &engine.Scenario{
		ID:          "default",
		Name:        "Straight climb",
		Description: "Climb from E1 to the apex, picking up the key on D1",
		Configuration: engine.Configuration{
			Blocked:      []engine.BlockedTile{},
			Collectibles: []engine.Collectible{{Type: engine.ItemKey, Location: "D1"}},
			Objective:    engine.Objective{GoalTile: engine.Apex.String(), Requires: []string{engine.ItemKey}},
		},
		Solution: engine.Solution{
			OptimalMP:   &optimal,
			OptimalPath: "E1|D1|D1:key|C1|B1|A1",
		},
	}
}
