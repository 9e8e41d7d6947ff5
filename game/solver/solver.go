package solver

import (
	"container/heap"
	"errors"
	"fmt"

	"github.com/wricardo/pyramid-puzzle/game/engine"
)

// ErrUnsolvable is returned when no path reaches the apex with the key
var ErrUnsolvable = errors.New("no valid path exists")

// Solution is the cheapest path found for a configuration
type Solution struct {
	Path     string `json:"path"`
	TotalMP  int    `json:"total_mp"`
	Explored int    `json:"explored"`
}

type item struct {
	itemType string
	location engine.Tile
}

// node is one search state. cleared is the tile opened with dynamite, zero
// when none has been.
type node struct {
	pos       engine.Tile
	started   bool
	collected uint32
	cleared   engine.Tile
}

type edge struct {
	from   node
	action engine.Action
}

// Solver plans the cheapest route over a single configuration
type Solver struct {
	items   []item
	blocked map[engine.Tile]bool
	key     int
	dyn     int
}

// New prepares a solver for config. Item types repeat at most once in the
// search; later duplicates are ignored the same way the interpreter does.
func New(config engine.Configuration) (*Solver, error) {
	s := &Solver{
		blocked: make(map[engine.Tile]bool, len(config.Blocked)),
		key:     -1,
		dyn:     -1,
	}

	for _, b := range config.Blocked {
		tile, err := engine.ParseTile(b.Tile)
		if err != nil {
			return nil, fmt.Errorf("blocked tile: %w", err)
		}
		s.blocked[tile] = true
	}

	seen := make(map[string]bool)
	for _, c := range config.Collectibles {
		tile, err := engine.ParseTile(c.Location)
		if err != nil {
			return nil, fmt.Errorf("%s location: %w", c.Type, err)
		}
		if seen[c.Type] {
			continue
		}
		seen[c.Type] = true
		if len(s.items) == 32 {
			return nil, fmt.Errorf("too many items to plan over")
		}

		switch c.Type {
		case engine.ItemKey:
			s.key = len(s.items)
		case engine.ItemDynamite:
			s.dyn = len(s.items)
		}
		s.items = append(s.items, item{itemType: c.Type, location: tile})
	}

	return s, nil
}

// Solve runs a uniform-cost search from every open base tile and returns
// the first state that stands on the apex holding the key.
func Solve(config engine.Configuration) (*Solution, error) {
	s, err := New(config)
	if err != nil {
		return nil, err
	}
	return s.Solve()
}

func (s *Solver) Solve() (*Solution, error) {
	if s.key < 0 {
		return nil, fmt.Errorf("%w: no %s is placed", ErrUnsolvable, engine.ItemKey)
	}

	dist := map[node]int{{}: 0}
	parent := make(map[node]edge)
	queue := &priorityQueue{{state: node{}, cost: 0}}
	explored := 0

	for queue.Len() > 0 {
		current := heap.Pop(queue).(entry)
		if current.cost > dist[current.state] {
			continue
		}
		explored++

		if s.done(current.state) {
			return &Solution{
				Path:     engine.FormatPath(s.actions(parent, current.state)),
				TotalMP:  current.cost,
				Explored: explored,
			}, nil
		}

		for _, next := range s.successors(current.state) {
			cost := current.cost + next.cost
			if best, ok := dist[next.state]; ok && best <= cost {
				continue
			}
			dist[next.state] = cost
			parent[next.state] = edge{from: current.state, action: next.action}
			heap.Push(queue, entry{state: next.state, cost: cost})
		}
	}

	return nil, ErrUnsolvable
}

type step struct {
	state  node
	action engine.Action
	cost   int
}

func (s *Solver) successors(n node) []step {
	if !n.started {
		var out []step
		for i := 1; i <= engine.LevelE.Capacity(); i++ {
			t := engine.Tile{Level: engine.LevelE, Index: i}
			if s.isBlocked(n, t) {
				continue
			}
			out = append(out, step{state: node{pos: t, started: true}, action: engine.MoveAction{Tile: t}})
		}
		return out
	}

	var out []step
	hasLadder := s.has(n, engine.ItemLadder)

	for _, t := range engine.Neighbors(n.pos) {
		if s.isBlocked(n, t) {
			if s.canClear(n) {
				next := n
				next.cleared = t
				out = append(out, step{state: next, action: engine.ClearAction{Tile: t}})
			}
			continue
		}
		next := n
		next.pos = t
		out = append(out, step{
			state:  next,
			action: engine.MoveAction{Tile: t},
			cost:   engine.MoveCost(engine.Classify(n.pos, t).Kind, hasLadder),
		})
	}

	if i, ok := s.collectable(n); ok {
		next := n
		next.collected |= 1 << i
		out = append(out, step{state: next, action: engine.CollectAction{Tile: n.pos, Item: s.items[i].itemType}})
	}

	return out
}

func (s *Solver) done(n node) bool {
	return n.started && n.pos == engine.Apex && n.collected&(1<<s.key) != 0
}

func (s *Solver) isBlocked(n node, t engine.Tile) bool {
	return s.blocked[t] && n.cleared != t
}

func (s *Solver) canClear(n node) bool {
	return s.dyn >= 0 && n.collected&(1<<s.dyn) != 0 && !n.cleared.Valid()
}

func (s *Solver) has(n node, itemType string) bool {
	for i, it := range s.items {
		if it.itemType == itemType {
			return n.collected&(1<<i) != 0
		}
	}
	return false
}

// collectable returns the first uncollected item on the current tile
func (s *Solver) collectable(n node) (int, bool) {
	for i, it := range s.items {
		if it.location == n.pos && n.collected&(1<<i) == 0 {
			return i, true
		}
	}
	return 0, false
}

func (s *Solver) actions(parent map[node]edge, n node) []engine.Action {
	var out []engine.Action
	for n != (node{}) {
		e := parent[n]
		out = append(out, e.action)
		n = e.from
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

type entry struct {
	state node
	cost  int
}

type priorityQueue []entry

func (q priorityQueue) Len() int           { return len(q) }
func (q priorityQueue) Less(i, j int) bool { return q[i].cost < q[j].cost }
func (q priorityQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *priorityQueue) Push(x any)        { *q = append(*q, x.(entry)) }
func (q *priorityQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	*q = old[:n-1]
	return e
}
