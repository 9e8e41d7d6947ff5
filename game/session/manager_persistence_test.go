package session

import (
	"errors"
	"testing"
)

func TestManagerWithPersistence(t *testing.T) {
	configManager, _ := newConfigManager(t)
	persistence, err := NewFilePersistence(t.TempDir(), configManager)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}

	manager := NewManagerWithPersistence(persistence)
	scenario := configManager.GetDefault()

	t.Run("Create Session Auto-Saves", func(t *testing.T) {
		session, err := manager.Create("auto1", scenario)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if !persistence.Exists(session.ID) {
			t.Error("Session should be auto-saved on creation")
		}
	})

	t.Run("Save Persists Attempts", func(t *testing.T) {
		session, _ := manager.Get("auto1")
		session.Submit("E1|D1|D1:key|C1|B1|A1", "")
		if err := manager.Save("auto1"); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}

		loaded, err := persistence.Load("auto1")
		if err != nil {
			t.Fatalf("Failed to load: %v", err)
		}
		if len(loaded.Snapshot()) != 1 {
			t.Errorf("Expected 1 persisted attempt, got %d", len(loaded.Snapshot()))
		}
	})

	t.Run("Get Session Loads from Persistence", func(t *testing.T) {
		manager2 := NewManagerWithPersistence(persistence)
		session, err := manager2.Get("auto1")
		if err != nil {
			t.Fatalf("Failed to get session from persistence: %v", err)
		}
		if len(session.Snapshot()) != 1 {
			t.Errorf("Expected attempts to be restored, got %d", len(session.Snapshot()))
		}
		if manager2.Count() != 1 {
			t.Errorf("Expected session to be cached, got count %d", manager2.Count())
		}
	})

	t.Run("DeleteFromMemory Keeps File", func(t *testing.T) {
		if err := manager.DeleteFromMemory("auto1"); err != nil {
			t.Fatalf("Failed to delete from memory: %v", err)
		}
		if !persistence.Exists("auto1") {
			t.Error("Persisted file should remain")
		}
		if _, err := manager.Get("auto1"); err != nil {
			t.Errorf("Expected reload from persistence, got %v", err)
		}
	})

	t.Run("Delete Removes File", func(t *testing.T) {
		if err := manager.Delete("auto1"); err != nil {
			t.Fatalf("Failed to delete: %v", err)
		}
		if persistence.Exists("auto1") {
			t.Error("Persisted file should be removed")
		}
		if _, err := manager.Get("auto1"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Load And Save All", func(t *testing.T) {
		for _, id := range []string{"s1", "s2", "s3"} {
			if _, err := manager.Create(id, scenario); err != nil {
				t.Fatalf("Failed to create %s: %v", id, err)
			}
		}
		if err := manager.SaveAllSessions(); err != nil {
			t.Fatalf("Failed to save all: %v", err)
		}

		fresh := NewManagerWithPersistence(persistence)
		if err := fresh.LoadPersistedSessions(); err != nil {
			t.Fatalf("Failed to load persisted sessions: %v", err)
		}
		if fresh.Count() != 3 {
			t.Errorf("Expected 3 sessions, got %d", fresh.Count())
		}
	})

	t.Run("No Persistence Is A No-op", func(t *testing.T) {
		plain := NewManager()
		if err := plain.Save("anything"); err != nil {
			t.Errorf("Expected nil, got %v", err)
		}
		if err := plain.LoadPersistedSessions(); err != nil {
			t.Errorf("Expected nil, got %v", err)
		}
	})
}
