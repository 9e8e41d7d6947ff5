package engine

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrInvalidTileFormat = errors.New("invalid tile format")
	ErrInvalidTileRange  = errors.New("invalid tile range")
)

var levelCapacity = [...]int{
	LevelA: 1,
	LevelB: 4,
	LevelC: 8,
	LevelD: 16,
	LevelE: 32,
}

// Levels lists every level from apex to base
var Levels = []Level{LevelA, LevelB, LevelC, LevelD, LevelE}

// ParseLevel converts a level letter into a Level
func ParseLevel(b byte) (Level, bool) {
	if b < 'A' || b > 'E' {
		return 0, false
	}
	return Level(b-'A') + LevelA, true
}

// Valid reports whether l is one of the five pyramid levels
func (l Level) Valid() bool {
	return l >= LevelA && l <= LevelE
}

// Capacity returns the number of tiles on the level, or 0 for an unknown level
func (l Level) Capacity() int {
	if !l.Valid() {
		return 0
	}
	return levelCapacity[l]
}

// Inward returns the level one step closer to the apex
func (l Level) Inward() (Level, bool) {
	if !l.Valid() || l == LevelA {
		return 0, false
	}
	return l - 1, true
}

// Outward returns the level one step closer to the base
func (l Level) Outward() (Level, bool) {
	if !l.Valid() || l == LevelE {
		return 0, false
	}
	return l + 1, true
}

func (l Level) String() string {
	if !l.Valid() {
		return "?"
	}
	return string(rune('A' + int(l-LevelA)))
}

// ParseTile parses identifiers such as "E24". The level must be an uppercase
// letter A-E and the index a decimal integer without sign or leading zero.
func ParseTile(text string) (Tile, error) {
	if len(text) < 2 {
		return Tile{}, fmt.Errorf("%w: %q", ErrInvalidTileFormat, text)
	}
	level, ok := ParseLevel(text[0])
	if !ok {
		return Tile{}, fmt.Errorf("%w: %q", ErrInvalidTileFormat, text)
	}

	digits := text[1:]
	if digits[0] == '-' && len(digits) > 1 && isDigits(digits[1:]) {
		return Tile{}, fmt.Errorf("%w: tile number %s for level %s", ErrInvalidTileRange, digits, level)
	}
	if !isDigits(digits) {
		return Tile{}, fmt.Errorf("%w: %q", ErrInvalidTileFormat, text)
	}
	if digits[0] == '0' {
		if len(digits) == 1 {
			return Tile{}, fmt.Errorf("%w: tile number 0 for level %s", ErrInvalidTileRange, level)
		}
		return Tile{}, fmt.Errorf("%w: %q", ErrInvalidTileFormat, text)
	}

	index, err := strconv.Atoi(digits)
	if err != nil || index > level.Capacity() {
		return Tile{}, fmt.Errorf("%w: tile number %s for level %s (max %d)", ErrInvalidTileRange, digits, level, level.Capacity())
	}

	return Tile{Level: level, Index: index}, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// MustParseTile is ParseTile for literals known to be valid
func MustParseTile(text string) Tile {
	t, err := ParseTile(text)
	if err != nil {
		panic(err)
	}
	return t
}

// Valid reports whether the tile lies on the pyramid
func (t Tile) Valid() bool {
	return t.Level.Valid() && t.Index >= 1 && t.Index <= t.Level.Capacity()
}

func (t Tile) String() string {
	return t.Level.String() + strconv.Itoa(t.Index)
}

// MarshalText encodes the tile in its identifier form
func (t Tile) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTileRange, t)
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes an identifier such as "C3"
func (t *Tile) UnmarshalText(text []byte) error {
	parsed, err := ParseTile(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
