package engine

// LevelDistance counts the level steps between two tiles
func LevelDistance(from, to Tile) int {
	d := int(from.Level) - int(to.Level)
	if d < 0 {
		d = -d
	}
	return d
}

// FindItem returns where an item type is placed in the configuration
func FindItem(config Configuration, itemType string) (Tile, bool) {
	for _, c := range config.Collectibles {
		if c.Type != itemType {
			continue
		}
		tile, err := ParseTile(c.Location)
		if err != nil {
			return Tile{}, false
		}
		return tile, true
	}
	return Tile{}, false
}

// CountBlocked counts the distinct blocked tiles on a level
func CountBlocked(config Configuration, level Level) int {
	seen := make(map[Tile]bool)
	for _, b := range config.Blocked {
		tile, err := ParseTile(b.Tile)
		if err == nil && tile.Level == level {
			seen[tile] = true
		}
	}
	return len(seen)
}

// Exit is one legal move out of a tile
type Exit struct {
	To      Tile     `json:"to"`
	Kind    MoveKind `json:"kind"`
	Cost    int      `json:"cost"`
	Blocked bool     `json:"blocked"`
}

// TileInfo describes a tile in the context of a scenario
type TileInfo struct {
	Tile    Tile     `json:"tile"`
	Level   string   `json:"level"`
	Blocked bool     `json:"blocked"`
	Items   []string `json:"items,omitempty"`
	Exits   []Exit   `json:"exits"`
}

// DescribeTile lists the items on t and every legal move out of it, with
// costs as they would be without the ladder.
func DescribeTile(t Tile, config Configuration) TileInfo {
	blocked := make(map[string]bool, len(config.Blocked))
	for _, b := range config.Blocked {
		blocked[b.Tile] = true
	}

	info := TileInfo{
		Tile:    t,
		Level:   t.Level.String(),
		Blocked: blocked[t.String()],
	}
	for _, c := range config.Collectibles {
		if c.Location == t.String() {
			info.Items = append(info.Items, c.Type)
		}
	}
	for _, n := range Neighbors(t) {
		mv := Classify(t, n)
		info.Exits = append(info.Exits, Exit{
			To:      n,
			Kind:    mv.Kind,
			Cost:    mv.BaseCost,
			Blocked: blocked[n.String()],
		})
	}
	return info
}

// MinimumCostToApex is a lower bound on the MP needed to reach the apex from
// t, ignoring obstacles. Every level step inward costs at least 1 with the
// ladder and 2 without.
func MinimumCostToApex(t Tile, hasLadder bool) int {
	if t == Apex {
		return 0
	}
	perStep := baseCosts[Inward]
	if hasLadder {
		perStep = 1
	}
	return LevelDistance(t, Apex) * perStep
}
