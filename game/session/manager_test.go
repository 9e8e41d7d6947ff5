package session

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/pyramid-puzzle/game/engine"
)

func createTestScenario() *engine.Scenario {
	optimal := 8
	return &engine.Scenario{
		ID:   "1",
		Name: "Straight climb",
		Configuration: engine.Configuration{
			Collectibles: []engine.Collectible{{Type: engine.ItemKey, Location: "D1"}},
			Objective:    engine.Objective{GoalTile: "A1", Requires: []string{engine.ItemKey}},
		},
		Solution: engine.Solution{
			OptimalMP: &optimal,
			Hints:     []string{"The key is one ring in.", "Do not wander."},
		},
	}
}

func TestManager_Create(t *testing.T) {
	manager := NewManager()
	scenario := createTestScenario()

	t.Run("create with custom ID", func(t *testing.T) {
		session, err := manager.Create("test-session", scenario)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.ID != "test-session" {
			t.Errorf("Expected session ID 'test-session', got '%s'", session.ID)
		}
		if session.Scenario != scenario {
			t.Error("Expected scenario to be attached")
		}
		if session.CreatedAt.IsZero() || session.LastAccessedAt.IsZero() {
			t.Error("Expected timestamps to be set")
		}
	})

	t.Run("create with auto-generated ID", func(t *testing.T) {
		session, err := manager.Create("", scenario)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character ID, got '%s'", session.ID)
		}
	})

	t.Run("duplicate ID is rejected case-insensitively", func(t *testing.T) {
		_, err := manager.Create("TEST-SESSION", scenario)
		if !errors.Is(err, ErrSessionAlreadyExists) {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
	})

	t.Run("invalid ID", func(t *testing.T) {
		for _, id := range []string{"../etc", "a b", strings.Repeat("x", 65)} {
			if _, err := manager.Create(id, scenario); !errors.Is(err, ErrInvalidSessionID) {
				t.Errorf("Create(%q): expected ErrInvalidSessionID, got %v", id, err)
			}
		}
	})

	t.Run("nil scenario", func(t *testing.T) {
		if _, err := manager.Create("no-scenario", nil); err == nil {
			t.Error("Expected error for nil scenario")
		}
	})
}

func TestManager_Get(t *testing.T) {
	manager := NewManager()
	created, _ := manager.Create("Mixed-Case", createTestScenario())

	got, err := manager.Get("mixed-case")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if got != created {
		t.Error("Expected the same session instance")
	}

	if _, err := manager.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager()
	manager.Create("doomed", createTestScenario())

	if err := manager.Delete("DOOMED"); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}
	if _, err := manager.Get("doomed"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected session to be gone, got %v", err)
	}
	if err := manager.Delete("doomed"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestManager_List(t *testing.T) {
	manager := NewManager()
	if len(manager.List()) != 0 {
		t.Fatal("Expected empty manager")
	}

	scenario := createTestScenario()
	for _, id := range []string{"a", "b", "c"} {
		if _, err := manager.Create(id, scenario); err != nil {
			t.Fatalf("Failed to create %s: %v", id, err)
		}
	}

	if got := len(manager.List()); got != 3 {
		t.Errorf("Expected 3 sessions, got %d", got)
	}
	if manager.Count() != 3 {
		t.Errorf("Expected count 3, got %d", manager.Count())
	}
}

func TestManager_CleanupExpired(t *testing.T) {
	manager := NewManager()
	scenario := createTestScenario()

	old, _ := manager.Create("old", scenario)
	manager.Create("fresh", scenario)
	old.LastAccessedAt = time.Now().Add(-2 * time.Hour)

	removed := manager.CleanupExpiredSessions(time.Hour)
	if len(removed) != 1 || removed[0] != "old" {
		t.Errorf("Expected [old] removed, got %v", removed)
	}
	if _, err := manager.Get("old"); !errors.Is(err, ErrSessionNotFound) {
		t.Error("Expected old session to be removed")
	}
	if _, err := manager.Get("fresh"); err != nil {
		t.Error("Expected fresh session to remain")
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager()
	session, _ := manager.Create("touch", createTestScenario())
	before := time.Now().Add(-time.Minute)
	session.LastAccessedAt = before

	if err := manager.UpdateLastAccessed("touch"); err != nil {
		t.Fatalf("Failed to update: %v", err)
	}
	if !session.LastAccessedAt.After(before) {
		t.Error("Expected last accessed time to advance")
	}
	if err := manager.UpdateLastAccessed("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_SessionIsolation(t *testing.T) {
	manager := NewManager()
	scenario := createTestScenario()
	first, _ := manager.Create("first", scenario)
	second, _ := manager.Create("second", scenario)

	first.Submit("E1|D1|D1:key|C1|B1|A1", "")
	first.NextHint()

	if len(second.Snapshot()) != 0 {
		t.Error("Expected attempts to stay in their own session")
	}
	if second.Revealed() != 0 {
		t.Error("Expected hints to stay in their own session")
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager()
	scenario := createTestScenario()

	var wg sync.WaitGroup
	ids := make(chan string, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, err := manager.Create("", scenario)
			if err != nil {
				t.Errorf("Failed to create session: %v", err)
				return
			}
			session.Submit("E1|D1|D1:key|C1|B1|A1", "")
			_ = manager.UpdateLastAccessed(session.ID)
			ids <- session.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("Duplicate session ID %s", id)
		}
		seen[id] = true
	}
	if manager.Count() != 20 {
		t.Errorf("Expected 20 sessions, got %d", manager.Count())
	}
}

func TestValidSessionID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"a1b2", true},
		{"model_run-3", true},
		{"", false},
		{"../x", false},
		{"with space", false},
		{"dot.json", false},
		{strings.Repeat("a", 64), true},
		{strings.Repeat("a", 65), false},
	}

	for _, tt := range tests {
		if got := validSessionID(tt.id); got != tt.want {
			t.Errorf("validSessionID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
