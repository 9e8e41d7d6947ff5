package engine

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		from, to string
		expected MoveKind
		cost     int
	}{
		{"E1", "E2", Clockwise, 1},
		{"E16", "E17", Clockwise, 1},
		{"E32", "E1", Clockwise, 1},
		{"B4", "B1", Clockwise, 1},
		{"E2", "E1", CounterClockwise, 1},
		{"E1", "E32", CounterClockwise, 1},
		{"C1", "C8", CounterClockwise, 1},
		{"E1", "D1", Inward, 2},
		{"E2", "D1", Inward, 2},
		{"E3", "D2", Inward, 2},
		{"D16", "C8", Inward, 2},
		{"C2", "B1", Inward, 2},
		{"B1", "A1", Inward, 2},
		{"B2", "A1", Inward, 2},
		{"D1", "E1", OutwardLeft, 1},
		{"D1", "E2", OutwardRight, 1},
		{"D2", "E3", OutwardLeft, 1},
		{"C8", "D16", OutwardRight, 1},
		{"A1", "B1", OutwardLeft, 1},
		{"A1", "B2", OutwardRight, 1},
		{"A1", "B3", OutwardFromPeak, 1},
		{"A1", "B4", OutwardFromPeak, 1},
		{"B3", "A1", InwardToPeak, 2},
		{"B4", "A1", InwardToPeak, 2},
		{"E3", "D1", Illegal, 0},
		{"E1", "C1", Illegal, 0},
		{"A1", "C1", Illegal, 0},
		{"C1", "A1", Illegal, 0},
		{"E1", "E3", Illegal, 0},
		{"D1", "E3", Illegal, 0},
		{"E5", "D5", Illegal, 0},
	}

	for _, test := range tests {
		t.Run(test.from+"->"+test.to, func(t *testing.T) {
			mv := Classify(MustParseTile(test.from), MustParseTile(test.to))
			if mv.Kind != test.expected {
				t.Errorf("Expected kind %s, got %s", test.expected, mv.Kind)
			}
			if mv.BaseCost != test.cost {
				t.Errorf("Expected base cost %d, got %d", test.cost, mv.BaseCost)
			}
			if mv.Legal() != (test.expected != Illegal) {
				t.Errorf("Legal() disagrees with kind %s", mv.Kind)
			}
		})
	}
}

func TestClassifyNoSelfLoop(t *testing.T) {
	for _, tile := range allTiles() {
		if mv := Classify(tile, tile); mv.Legal() {
			t.Errorf("%s -> %s classified as %s, expected illegal", tile, tile, mv.Kind)
		}
	}
}

func TestClassifyRotationIsCyclic(t *testing.T) {
	for _, level := range Levels {
		capacity := level.Capacity()
		if capacity < 2 {
			continue
		}
		for start := 1; start <= capacity; start++ {
			current := Tile{Level: level, Index: start}
			for step := 0; step < capacity; step++ {
				next := Tile{Level: level, Index: current.Index%capacity + 1}
				if mv := Classify(current, next); mv.Kind != Clockwise {
					t.Fatalf("%s -> %s: expected clockwise, got %s", current, next, mv.Kind)
				}
				current = next
			}
			if current.Index != start {
				t.Errorf("Level %s: %d clockwise moves from %d ended at %d", level, capacity, start, current.Index)
			}
		}
	}
}

func TestClassifyIsDeterministicAndSymmetric(t *testing.T) {
	tiles := allTiles()
	legal := 0
	for _, from := range tiles {
		for _, to := range tiles {
			first := Classify(from, to)
			second := Classify(from, to)
			if first != second {
				t.Fatalf("%s -> %s classified as %s then %s", from, to, first.Kind, second.Kind)
			}
			if !first.Legal() {
				continue
			}
			legal++
			if !Classify(to, from).Legal() {
				t.Errorf("%s -> %s is %s but the reverse move is illegal", from, to, first.Kind)
			}
		}
	}
	if legal == 0 {
		t.Fatal("Expected some legal moves")
	}
}

func TestClassifyTiles(t *testing.T) {
	mv, err := ClassifyTiles("E1", "D1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if mv.Kind != Inward {
		t.Errorf("Expected inward, got %s", mv.Kind)
	}

	tests := []struct {
		from, to string
		wantErr  error
	}{
		{"X1", "D1", ErrInvalidTileFormat},
		{"E1", "D17", ErrInvalidTileRange},
		{"E1", "", ErrInvalidTileFormat},
	}
	for _, test := range tests {
		mv, err := ClassifyTiles(test.from, test.to)
		if !errors.Is(err, test.wantErr) {
			t.Errorf("%s -> %s: expected %v, got %v", test.from, test.to, test.wantErr, err)
		}
		if mv.Legal() {
			t.Errorf("%s -> %s: expected illegal move alongside error", test.from, test.to)
		}
	}
}

func TestMoveCost(t *testing.T) {
	tests := []struct {
		kind      MoveKind
		hasLadder bool
		expected  int
	}{
		{Inward, false, 2},
		{Inward, true, 1},
		{InwardToPeak, false, 2},
		{InwardToPeak, true, 1},
		{Clockwise, true, 1},
		{CounterClockwise, false, 1},
		{OutwardLeft, true, 1},
		{OutwardRight, false, 1},
		{OutwardFromPeak, true, 1},
		{Illegal, false, 0},
	}

	for _, test := range tests {
		if got := MoveCost(test.kind, test.hasLadder); got != test.expected {
			t.Errorf("MoveCost(%s, %v): expected %d, got %d", test.kind, test.hasLadder, test.expected, got)
		}
	}
}

func TestNeighbors(t *testing.T) {
	tests := []struct {
		tile     string
		expected []string
	}{
		{"A1", []string{"B1", "B2", "B3", "B4"}},
		{"B1", []string{"A1", "B2", "B4", "C1", "C2"}},
		{"E1", []string{"D1", "E2", "E32"}},
		{"D5", []string{"C3", "D4", "D6", "E9", "E10"}},
	}

	for _, test := range tests {
		got := Neighbors(MustParseTile(test.tile))
		if len(got) != len(test.expected) {
			t.Errorf("%s: expected %v, got %v", test.tile, test.expected, got)
			continue
		}
		for i := range got {
			if got[i].String() != test.expected[i] {
				t.Errorf("%s: expected %v, got %v", test.tile, test.expected, got)
				break
			}
		}
	}
}
