package engine

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrNoDynamite     = errors.New("no dynamite collected")
	ErrDynamiteSpent  = errors.New("dynamite already used")
	ErrTileNotBlocked = errors.New("tile not blocked")
)

type placedItem struct {
	itemType string
	location Tile
}

// PuzzleState is the mutable state of one path evaluation. It is created
// fresh for every evaluation and never shared.
type PuzzleState struct {
	position     Tile
	started      bool
	items        []placedItem
	collected    map[string]bool
	blocked      map[Tile]bool
	hasLadder    bool
	hasKey       bool
	dynamiteUsed bool
}

// NewPuzzleState copies the scenario's blocked tiles and item placements into
// a fresh state.
func NewPuzzleState(config Configuration) (*PuzzleState, error) {
	ps := &PuzzleState{
		collected: make(map[string]bool),
		blocked:   make(map[Tile]bool, len(config.Blocked)),
		items:     make([]placedItem, 0, len(config.Collectibles)),
	}

	for _, b := range config.Blocked {
		tile, err := ParseTile(b.Tile)
		if err != nil {
			return nil, fmt.Errorf("blocked tile: %w", err)
		}
		ps.blocked[tile] = true
	}

	for _, c := range config.Collectibles {
		tile, err := ParseTile(c.Location)
		if err != nil {
			return nil, fmt.Errorf("%s location: %w", c.Type, err)
		}
		ps.items = append(ps.items, placedItem{itemType: c.Type, location: tile})
	}

	return ps, nil
}

// Position returns the current tile; ok is false before the first move
func (ps *PuzzleState) Position() (Tile, bool) {
	return ps.position, ps.started
}

// MoveTo places the actor on t without any rule checks
func (ps *PuzzleState) MoveTo(t Tile) {
	ps.position = t
	ps.started = true
}

// Collect picks up the first uncollected item registered at t, in scenario
// order. It returns false when nothing is left to pick up there.
func (ps *PuzzleState) Collect(t Tile) (string, bool) {
	for _, item := range ps.items {
		if item.location != t || ps.collected[item.itemType] {
			continue
		}
		ps.collected[item.itemType] = true
		switch item.itemType {
		case ItemLadder:
			ps.hasLadder = true
		case ItemKey:
			ps.hasKey = true
		}
		return item.itemType, true
	}
	return "", false
}

// Clear spends the dynamite on a blocked tile, removing it from the blocked
// set. The returned error tells which precondition failed.
func (ps *PuzzleState) Clear(target Tile) error {
	if !ps.collected[ItemDynamite] {
		return ErrNoDynamite
	}
	if ps.dynamiteUsed {
		return ErrDynamiteSpent
	}
	if !ps.blocked[target] {
		return ErrTileNotBlocked
	}
	delete(ps.blocked, target)
	ps.dynamiteUsed = true
	return nil
}

func (ps *PuzzleState) IsBlocked(t Tile) bool {
	return ps.blocked[t]
}

func (ps *PuzzleState) HasItem(itemType string) bool {
	return ps.collected[itemType]
}

func (ps *PuzzleState) HasLadder() bool {
	return ps.hasLadder
}

func (ps *PuzzleState) HasKey() bool {
	return ps.hasKey
}

func (ps *PuzzleState) DynamiteUsed() bool {
	return ps.dynamiteUsed
}

// Collected returns the collected item types in sorted order
func (ps *PuzzleState) Collected() []string {
	items := make([]string, 0, len(ps.collected))
	for item := range ps.collected {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}
