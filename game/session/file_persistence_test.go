package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/pyramid-puzzle/game/config"
	"github.com/wricardo/pyramid-puzzle/game/service"
)

const testScenarioYAML = `"1":
  name: Straight climb
  configuration:
    blocked: []
    collectibles:
      - type: key
        location: D1
    objective:
      goal_tile: A1
      requires: [key]
  solution:
    optimal_mp: 8
    hint_1: The key is one ring in.
`

func newConfigManager(t *testing.T) (*config.Manager, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "scenario_1.yaml"), []byte(testScenarioYAML), 0644); err != nil {
		t.Fatalf("Failed to write scenario: %v", err)
	}
	m, err := config.NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	return m, dir
}

func TestFilePersistence(t *testing.T) {
	configManager, _ := newConfigManager(t)

	persistence, err := NewFilePersistence(t.TempDir(), configManager)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}

	scenario, err := configManager.LoadScenario("1")
	if err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}

	session := &service.Session{
		ID:             "test1",
		Scenario:       scenario,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	session.Submit("E1|D1|C1|B1|A1", "forgot the key")
	session.Submit("E1|D1|D1:key|C1|B1|A1", "straight climb")
	session.NextHint()

	t.Run("Save and Load Session", func(t *testing.T) {
		if err := persistence.Save(session); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}
		if !persistence.Exists("test1") {
			t.Error("Session file should exist after save")
		}

		loaded, err := persistence.Load("test1")
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}

		if loaded.ID != session.ID {
			t.Errorf("Expected ID %s, got %s", session.ID, loaded.ID)
		}
		if loaded.Scenario.ID != "1" {
			t.Errorf("Expected scenario 1, got %s", loaded.Scenario.ID)
		}
		if loaded.HintsRevealed != 1 {
			t.Errorf("Expected 1 hint revealed, got %d", loaded.HintsRevealed)
		}

		attempts := loaded.Snapshot()
		if len(attempts) != 2 {
			t.Fatalf("Expected 2 attempts, got %d", len(attempts))
		}
		if attempts[0].Result.IsValid {
			t.Error("Expected first attempt to stay invalid")
		}
		if !attempts[1].Result.IsValid || attempts[1].Result.TotalMP != 8 {
			t.Errorf("Unexpected second attempt %+v", attempts[1].Result)
		}
		if attempts[1].Analysis != "straight climb" {
			t.Errorf("Expected analysis to survive, got %q", attempts[1].Analysis)
		}

		best, solved, optimal := loaded.Progress()
		if best == nil || *best != 8 || !solved || !optimal {
			t.Errorf("Unexpected progress best=%v solved=%v optimal=%v", best, solved, optimal)
		}
	})

	t.Run("Load Non-existent Session", func(t *testing.T) {
		if _, err := persistence.Load("nonexistent"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Reject Unsafe IDs", func(t *testing.T) {
		if _, err := persistence.Load("../escape"); !errors.Is(err, ErrInvalidSessionID) {
			t.Errorf("Expected ErrInvalidSessionID, got %v", err)
		}
		bad := &service.Session{ID: "../escape", Scenario: scenario}
		if err := persistence.Save(bad); !errors.Is(err, ErrInvalidSessionID) {
			t.Errorf("Expected ErrInvalidSessionID, got %v", err)
		}
		if persistence.Exists("../escape") {
			t.Error("Unsafe ID should never exist")
		}
	})

	t.Run("List All Sessions", func(t *testing.T) {
		second := &service.Session{ID: "test2", Scenario: scenario, CreatedAt: time.Now(), LastAccessedAt: time.Now()}
		if err := persistence.Save(second); err != nil {
			t.Fatalf("Failed to save second session: %v", err)
		}

		ids, err := persistence.ListAll()
		if err != nil {
			t.Fatalf("Failed to list sessions: %v", err)
		}
		found := map[string]bool{}
		for _, id := range ids {
			found[id] = true
		}
		if !found["test1"] || !found["test2"] || len(ids) != 2 {
			t.Errorf("Expected [test1 test2], got %v", ids)
		}
	})

	t.Run("Delete Session", func(t *testing.T) {
		if err := persistence.Delete("test2"); err != nil {
			t.Fatalf("Failed to delete session: %v", err)
		}
		if persistence.Exists("test2") {
			t.Error("Session file should not exist after delete")
		}
		if err := persistence.Delete("test2"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestFilePersistenceScenarioSnapshot(t *testing.T) {
	configManager, scenarioDir := newConfigManager(t)
	persistence, err := NewFilePersistence(t.TempDir(), configManager)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}

	scenario, _ := configManager.LoadScenario("1")
	session := &service.Session{ID: "snap", Scenario: scenario, CreatedAt: time.Now(), LastAccessedAt: time.Now()}
	if err := persistence.Save(session); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	// the scenario disappears from the scenario directory
	if err := os.Remove(filepath.Join(scenarioDir, "scenario_1.yaml")); err != nil {
		t.Fatal(err)
	}
	if err := configManager.RefreshCache(); err != nil {
		t.Fatalf("Failed to refresh: %v", err)
	}

	loaded, err := persistence.Load("snap")
	if err != nil {
		t.Fatalf("Expected snapshot fallback, got %v", err)
	}
	if loaded.Scenario.ID != "1" || *loaded.Scenario.Solution.OptimalMP != 8 {
		t.Errorf("Unexpected snapshot scenario %+v", loaded.Scenario)
	}

	noConfig, _ := NewFilePersistence(filepath.Dir(persistence.getFilePath("snap")), nil)
	if _, err := noConfig.Load("snap"); err != nil {
		t.Errorf("Expected load without config manager, got %v", err)
	}
}

func TestFilePersistenceFileStructure(t *testing.T) {
	tempDir := t.TempDir()
	configManager, _ := newConfigManager(t)
	persistence, err := NewFilePersistence(tempDir, configManager)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}

	scenario, _ := configManager.LoadScenario("1")
	session := &service.Session{ID: "structure", Scenario: scenario, CreatedAt: time.Now(), LastAccessedAt: time.Now()}
	session.Submit("E1|D1|D1:key|C1|B1|A1", "")
	if err := persistence.Save(session); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	filePath := filepath.Join(tempDir, "structure.json")
	raw, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read session file: %v", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Session file is not valid JSON: %v", err)
	}
	for _, field := range []string{"id", "scenario_id", "created_at", "last_accessed_at", "hints_revealed", "attempts", "scenario"} {
		if _, ok := doc[field]; !ok {
			t.Errorf("Expected field %q in session file", field)
		}
	}
	if !strings.Contains(string(raw), `"E1|D1|D1:key|C1|B1|A1"`) {
		t.Error("Expected the submitted path in the session file")
	}

	if _, err := os.Stat(filePath + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temporary file should not be left behind")
	}
}
