package engine

import (
	"errors"
	"reflect"
	"testing"
)

func stateConfig() Configuration {
	return Configuration{
		Blocked: []BlockedTile{{Tile: "D2"}, {Tile: "C1"}},
		Collectibles: []Collectible{
			{Type: ItemLadder, Location: "E3"},
			{Type: ItemKey, Location: "E3"},
			{Type: ItemDynamite, Location: "D1"},
		},
		Objective: Objective{GoalTile: "A1", Requires: []string{ItemKey}},
	}
}

func TestNewPuzzleState(t *testing.T) {
	ps, err := NewPuzzleState(stateConfig())
	if err != nil {
		t.Fatalf("Failed to create state: %v", err)
	}

	if _, ok := ps.Position(); ok {
		t.Error("Expected no position before the first move")
	}
	if !ps.IsBlocked(MustParseTile("D2")) || !ps.IsBlocked(MustParseTile("C1")) {
		t.Error("Expected scenario blocked tiles to be blocked")
	}
	if ps.IsBlocked(MustParseTile("D1")) {
		t.Error("Expected D1 not to be blocked")
	}
	if ps.HasLadder() || ps.HasKey() || ps.DynamiteUsed() {
		t.Error("Expected fresh state to hold nothing")
	}
}

func TestNewPuzzleStateRejectsMalformedTiles(t *testing.T) {
	tests := []struct {
		name   string
		config Configuration
	}{
		{"blocked", Configuration{Blocked: []BlockedTile{{Tile: "Q1"}}}},
		{"collectible", Configuration{Collectibles: []Collectible{{Type: ItemKey, Location: "E40"}}}},
	}

	for _, test := range tests {
		if _, err := NewPuzzleState(test.config); err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}
}

func TestPuzzleStateIsIndependentOfConfig(t *testing.T) {
	cfg := stateConfig()
	first, _ := NewPuzzleState(cfg)
	second, _ := NewPuzzleState(cfg)

	first.Collect(MustParseTile("D1"))
	if err := first.Clear(MustParseTile("D2")); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if !second.IsBlocked(MustParseTile("D2")) {
		t.Error("Clearing in one state leaked into another")
	}
	if second.HasItem(ItemDynamite) {
		t.Error("Collecting in one state leaked into another")
	}
	if cfg.Blocked[0].Tile != "D2" || len(cfg.Blocked) != 2 {
		t.Error("Configuration was mutated")
	}
}

func TestCollect(t *testing.T) {
	ps, _ := NewPuzzleState(stateConfig())
	e3 := MustParseTile("E3")

	item, ok := ps.Collect(e3)
	if !ok || item != ItemLadder {
		t.Fatalf("Expected to collect ladder first, got %q (ok=%v)", item, ok)
	}
	if !ps.HasLadder() {
		t.Error("Expected ladder flag after collecting the ladder")
	}

	item, ok = ps.Collect(e3)
	if !ok || item != ItemKey {
		t.Fatalf("Expected to collect key second, got %q (ok=%v)", item, ok)
	}
	if !ps.HasKey() {
		t.Error("Expected key flag after collecting the key")
	}

	if item, ok := ps.Collect(e3); ok {
		t.Errorf("Expected nothing left at E3, got %q", item)
	}
	if item, ok := ps.Collect(MustParseTile("E4")); ok {
		t.Errorf("Expected nothing at E4, got %q", item)
	}

	expected := []string{ItemKey, ItemLadder}
	if got := ps.Collected(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected collected %v, got %v", expected, got)
	}
}

func TestClear(t *testing.T) {
	tests := []struct {
		name    string
		collect bool
		targets []string
		wantErr []error
	}{
		{"without dynamite", false, []string{"D2"}, []error{ErrNoDynamite}},
		{"target not blocked", true, []string{"E1"}, []error{ErrTileNotBlocked}},
		{"single use", true, []string{"D2", "C1"}, []error{nil, ErrDynamiteSpent}},
		{"single use on unblocked target", true, []string{"D2", "E1"}, []error{nil, ErrDynamiteSpent}},
		{"single use on same target", true, []string{"C1", "C1"}, []error{nil, ErrDynamiteSpent}},
		{"failed clear keeps dynamite", true, []string{"E1", "C1"}, []error{ErrTileNotBlocked, nil}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ps, _ := NewPuzzleState(stateConfig())
			if test.collect {
				ps.Collect(MustParseTile("D1"))
			}
			for i, target := range test.targets {
				tile := MustParseTile(target)
				err := ps.Clear(tile)
				if !errors.Is(err, test.wantErr[i]) {
					t.Fatalf("Clear #%d on %s: expected %v, got %v", i+1, target, test.wantErr[i], err)
				}
				if err == nil && ps.IsBlocked(tile) {
					t.Errorf("Expected %s to be unblocked after clearing", target)
				}
			}
		})
	}
}
