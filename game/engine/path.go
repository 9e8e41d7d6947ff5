package engine

import (
	"fmt"
	"strings"
)

// Action is one step of a path expression. The set of implementations is
// closed: MoveAction, CollectAction and ClearAction.
type Action interface {
	action()
	String() string
}

// MoveAction moves the actor onto Tile
type MoveAction struct {
	Tile Tile
}

// CollectAction picks up Item on Tile; the actor must be standing there
type CollectAction struct {
	Tile Tile
	Item string
}

// ClearAction spends the dynamite on Tile
type ClearAction struct {
	Tile Tile
}

func (MoveAction) action()    {}
func (CollectAction) action() {}
func (ClearAction) action()   {}

func (a MoveAction) String() string    { return a.Tile.String() }
func (a CollectAction) String() string { return a.Tile.String() + ":" + a.Item }
func (a ClearAction) String() string   { return ClearPrefix + ":" + a.Tile.String() }

// ParsePath splits a "|" delimited expression such as "E1|D1:key|clear:C1|C1"
// into actions. Surrounding whitespace on each token is ignored.
func ParsePath(expr string) ([]Action, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, newValidationError(CodeMalformedPath, 0, "Path parsing error: empty path")
	}

	tokens := strings.Split(expr, PathDelimiter)
	actions := make([]Action, 0, len(tokens))
	for i, raw := range tokens {
		step := i + 1
		token := strings.TrimSpace(raw)
		if token == "" {
			return nil, newValidationError(CodeMalformedPath, step, "Path parsing error: empty token at step %d", step)
		}

		a, err := parseToken(token)
		if err != nil {
			return nil, newValidationError(CodeMalformedPath, step, "Path parsing error: token %q at step %d: %v", token, step, err)
		}
		actions = append(actions, a)
	}

	return actions, nil
}

func parseToken(token string) (Action, error) {
	head, tail, hasColon := strings.Cut(token, ":")
	if !hasColon {
		tile, err := ParseTile(token)
		if err != nil {
			return nil, err
		}
		return MoveAction{Tile: tile}, nil
	}

	if head == ClearPrefix {
		tile, err := ParseTile(tail)
		if err != nil {
			return nil, err
		}
		return ClearAction{Tile: tile}, nil
	}

	tile, err := ParseTile(head)
	if err != nil {
		return nil, err
	}
	if !isIdentifier(tail) {
		return nil, fmt.Errorf("invalid item name %q", tail)
	}
	return CollectAction{Tile: tile, Item: tail}, nil
}

// FormatPath renders actions back into a path expression
func FormatPath(actions []Action) string {
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = a.String()
	}
	return strings.Join(parts, PathDelimiter)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '_' || r == '-'):
		default:
			return false
		}
	}
	return true
}
