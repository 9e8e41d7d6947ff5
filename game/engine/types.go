package engine

// Level is one of the five concentric rings of the pyramid, ordered from the
// apex (A) to the base (E).
type Level uint8

const (
	LevelA Level = iota + 1
	LevelB
	LevelC
	LevelD
	LevelE
)

// Item types with rule effects
const (
	ItemKey      = "key"
	ItemLadder   = "ladder"
	ItemDynamite = "dynamite"

	// PathDelimiter separates tokens in a path expression
	PathDelimiter = "|"

	// ClearPrefix marks a dynamite token, as in "clear:D7"
	ClearPrefix = "clear"
)

// Apex is the peak tile and the only valid objective
var Apex = Tile{Level: LevelA, Index: 1}

// Tile addresses a single cell by level and 1-based index
type Tile struct {
	Level Level `json:"level"`
	Index int   `json:"index"`
}

// BlockedTile is an obstacle listed by a scenario
type BlockedTile struct {
	Tile   string `json:"tile" yaml:"tile"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Collectible is an item placed on a tile
type Collectible struct {
	Type     string `json:"type" yaml:"type"`
	Location string `json:"location" yaml:"location"`
}

// Objective names the goal tile and the items the player must hold there
type Objective struct {
	GoalTile string   `json:"goal_tile" yaml:"goal_tile"`
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty"`
}

// Configuration is the board setup of a scenario
type Configuration struct {
	Blocked      []BlockedTile `json:"blocked" yaml:"blocked"`
	Collectibles []Collectible `json:"collectibles" yaml:"collectibles"`
	Objective    Objective     `json:"objective" yaml:"objective"`
}

// Solution holds the scenario author's reference answer and hints
type Solution struct {
	OptimalMP   *int     `json:"optimal_mp,omitempty" yaml:"optimal_mp,omitempty"`
	OptimalPath string   `json:"optimal_path,omitempty" yaml:"optimal_path,omitempty"`
	Hints       []string `json:"hints,omitempty" yaml:"-"`
}

// Scenario is a complete puzzle definition as loaded from a scenario file
type Scenario struct {
	ID            string        `json:"id"`
	Name          string        `json:"name,omitempty"`
	Description   string        `json:"description,omitempty"`
	Configuration Configuration `json:"configuration"`
	Solution      Solution      `json:"solution"`
}

// BlockedTiles returns the blocked tile names in scenario order
func (c Configuration) BlockedTiles() []string {
	tiles := make([]string, 0, len(c.Blocked))
	for _, b := range c.Blocked {
		tiles = append(tiles, b.Tile)
	}
	return tiles
}

// StepRecord describes one executed move of an evaluated path. The opening
// move has no From tile and kind Start.
type StepRecord struct {
	Step       int      `json:"step"`
	From       Tile     `json:"from,omitzero"`
	To         Tile     `json:"to"`
	Kind       MoveKind `json:"kind"`
	Cost       int      `json:"cost"`
	TotalAfter int      `json:"total_after"`
}

// Phase is the interpreter's lifecycle position
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseInProgress Phase = "in_progress"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// Verdict is the interpreter's outcome for a single path evaluation.
// TotalCost holds the partial cost when the path failed.
type Verdict struct {
	Valid     bool         `json:"valid"`
	Reason    string       `json:"reason,omitempty"`
	Code      ErrorCode    `json:"code,omitempty"`
	Step      int          `json:"step,omitempty"`
	TotalCost int          `json:"total_cost"`
	Phase     Phase        `json:"phase"`
	Trace     []StepRecord `json:"trace,omitempty"`
}

// Result is the scored verdict handed to callers outside the engine
type Result struct {
	IsValid   bool   `json:"is_valid"`
	Message   string `json:"message"`
	TotalMP   int    `json:"total_mp"`
	OptimalMP *int   `json:"optimal_mp,omitempty"`
	IsOptimal bool   `json:"is_optimal"`
}
