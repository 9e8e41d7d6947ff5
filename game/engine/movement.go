package engine

import "fmt"

// MoveKind names the category of a transition between two tiles
type MoveKind string

const (
	Clockwise        MoveKind = "clockwise"
	CounterClockwise MoveKind = "counter_clockwise"
	Inward           MoveKind = "inward"
	OutwardLeft      MoveKind = "outward_left"
	OutwardRight     MoveKind = "outward_right"
	OutwardFromPeak  MoveKind = "outward_from_peak"
	InwardToPeak     MoveKind = "inward_to_peak"
	Start            MoveKind = "start"
	Illegal          MoveKind = "illegal"
)

// Move is a classified transition with its base MP cost
type Move struct {
	Kind     MoveKind `json:"kind"`
	BaseCost int      `json:"base_cost"`
}

var baseCosts = map[MoveKind]int{
	Clockwise:        1,
	CounterClockwise: 1,
	OutwardLeft:      1,
	OutwardRight:     1,
	OutwardFromPeak:  1,
	Inward:           2,
	InwardToPeak:     2,
}

// Legal reports whether the move is allowed at all
func (m Move) Legal() bool {
	return m.Kind != Illegal
}

// IsInward reports whether the kind climbs toward the apex, which is what the
// ladder discounts.
func (k MoveKind) IsInward() bool {
	return k == Inward || k == InwardToPeak
}

// Classify decides whether moving from one tile to another is legal and
// which category it falls in. Checks run in a fixed order so a pair never
// maps to two kinds: same-level rotation, one-level inward, one-level
// outward, then the apex special cases.
func Classify(from, to Tile) Move {
	if !from.Valid() || !to.Valid() || from == to {
		return illegal()
	}

	if from.Level == to.Level {
		capacity := from.Level.Capacity()
		if to.Index == from.Index+1 || (from.Index == capacity && to.Index == 1) {
			return newMove(Clockwise)
		}
		if to.Index == from.Index-1 || (from.Index == 1 && to.Index == capacity) {
			return newMove(CounterClockwise)
		}
	}

	if inner, ok := from.Level.Inward(); ok && to.Level == inner {
		if to.Index == (from.Index+1)/2 {
			return newMove(Inward)
		}
	}

	if outer, ok := from.Level.Outward(); ok && to.Level == outer {
		if to.Index == 2*from.Index-1 {
			return newMove(OutwardLeft)
		}
		if to.Index == 2*from.Index {
			return newMove(OutwardRight)
		}
	}

	if from == Apex && to.Level == LevelB {
		return newMove(OutwardFromPeak)
	}
	if from.Level == LevelB && to == Apex {
		return newMove(InwardToPeak)
	}

	return illegal()
}

// ClassifyTiles classifies a move given tile identifiers. A malformed tile is
// reported as an error rather than as an illegal move.
func ClassifyTiles(from, to string) (Move, error) {
	src, err := ParseTile(from)
	if err != nil {
		return illegal(), fmt.Errorf("source tile: %w", err)
	}
	dst, err := ParseTile(to)
	if err != nil {
		return illegal(), fmt.Errorf("destination tile: %w", err)
	}
	return Classify(src, dst), nil
}

// MoveCost returns the MP charged for a move of the given kind. Holding the
// ladder brings inward moves down to 1 MP.
func MoveCost(kind MoveKind, hasLadder bool) int {
	cost := baseCosts[kind]
	if hasLadder && kind.IsInward() {
		cost = 1
	}
	return cost
}

// Neighbors returns every tile reachable from t in a single legal move,
// ordered by level then index.
func Neighbors(t Tile) []Tile {
	var result []Tile
	for _, level := range Levels {
		for i := 1; i <= level.Capacity(); i++ {
			candidate := Tile{Level: level, Index: i}
			if Classify(t, candidate).Legal() {
				result = append(result, candidate)
			}
		}
	}
	return result
}

func newMove(kind MoveKind) Move {
	return Move{Kind: kind, BaseCost: baseCosts[kind]}
}

func illegal() Move {
	return Move{Kind: Illegal}
}
