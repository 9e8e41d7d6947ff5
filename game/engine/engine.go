package engine

import (
	"errors"
	"fmt"
)

// Interpreter replays the actions of one path against a fresh PuzzleState,
// accumulating MP. Once it fails or finishes it accepts no more actions.
type Interpreter struct {
	state *PuzzleState
	phase Phase
	total int
	trace []StepRecord
	err   *ValidationError
}

// NewInterpreter prepares an evaluation of a path against config
func NewInterpreter(config Configuration) (*Interpreter, error) {
	state, err := NewPuzzleState(config)
	if err != nil {
		return nil, err
	}
	return &Interpreter{
		state: state,
		phase: PhaseNotStarted,
	}, nil
}

// Phase returns where the interpreter is in its lifecycle
func (in *Interpreter) Phase() Phase {
	return in.phase
}

// TotalCost returns the MP accumulated so far
func (in *Interpreter) TotalCost() int {
	return in.total
}

// State exposes the puzzle state for inspection
func (in *Interpreter) State() *PuzzleState {
	return in.state
}

// Apply executes one action. step is the action's 1-based position in the
// path and is only used in messages. The first failure is terminal.
func (in *Interpreter) Apply(step int, a Action) error {
	switch in.phase {
	case PhaseFailed:
		return in.err
	case PhaseSucceeded:
		return fmt.Errorf("interpreter already finished")
	}

	var verr *ValidationError
	if in.phase == PhaseNotStarted {
		verr = in.start(step, a)
	} else {
		switch act := a.(type) {
		case MoveAction:
			verr = in.move(step, act)
		case CollectAction:
			verr = in.collect(step, act)
		case ClearAction:
			verr = in.clear(step, act)
		default:
			verr = newValidationError(CodeMalformedPath, step, "Unknown action %v at step %d", a, step)
		}
	}

	if verr != nil {
		return in.fail(verr)
	}
	return nil
}

// Finish checks the end-of-path objective: standing on the apex while
// holding the key.
func (in *Interpreter) Finish() error {
	switch in.phase {
	case PhaseFailed:
		return in.err
	case PhaseSucceeded:
		return nil
	case PhaseNotStarted:
		return in.fail(newValidationError(CodeMalformedPath, 0, "Path parsing error: empty path"))
	}

	pos, _ := in.state.Position()
	if pos != Apex {
		return in.fail(newValidationError(CodeIncompleteObjective, 0, "Path must end at %s, ended at %s", Apex, pos))
	}
	if !in.state.HasKey() {
		return in.fail(newValidationError(CodeIncompleteObjective, 0, "Must collect %s before reaching %s", ItemKey, Apex))
	}

	in.phase = PhaseSucceeded
	return nil
}

// Verdict summarizes the evaluation in its current phase
func (in *Interpreter) Verdict() Verdict {
	v := Verdict{
		Valid:     in.phase == PhaseSucceeded,
		TotalCost: in.total,
		Phase:     in.phase,
		Trace:     in.trace,
	}
	if in.err != nil {
		v.Reason = in.err.Message
		v.Code = in.err.Code
		v.Step = in.err.Step
	}
	return v
}

func (in *Interpreter) start(step int, a Action) *ValidationError {
	mv, ok := a.(MoveAction)
	if !ok {
		return newValidationError(CodeInvalidStart, step, "Path must start with a move onto an %s-level tile, got %s", LevelE, a)
	}
	if in.state.IsBlocked(mv.Tile) {
		return newValidationError(CodeBlockedDestination, step, "Cannot move to blocked tile %s at step %d", mv.Tile, step)
	}
	if mv.Tile.Level != LevelE {
		return newValidationError(CodeInvalidStart, step, "Must start from %s-level tile, not %s", LevelE, mv.Tile)
	}
	in.state.MoveTo(mv.Tile)
	in.phase = PhaseInProgress
	in.trace = append(in.trace, StepRecord{Step: step, To: mv.Tile, Kind: Start})
	return nil
}

func (in *Interpreter) move(step int, act MoveAction) *ValidationError {
	if in.state.IsBlocked(act.Tile) {
		return newValidationError(CodeBlockedDestination, step, "Cannot move to blocked tile %s at step %d", act.Tile, step)
	}

	from, _ := in.state.Position()
	mv := Classify(from, act.Tile)
	if !mv.Legal() {
		return newValidationError(CodeIllegalTransition, step, "Invalid move from %s to %s at step %d", from, act.Tile, step)
	}

	cost := MoveCost(mv.Kind, in.state.HasLadder())
	in.total += cost
	in.state.MoveTo(act.Tile)
	in.trace = append(in.trace, StepRecord{
		Step:       step,
		From:       from,
		To:         act.Tile,
		Kind:       mv.Kind,
		Cost:       cost,
		TotalAfter: in.total,
	})
	return nil
}

func (in *Interpreter) collect(step int, act CollectAction) *ValidationError {
	pos, _ := in.state.Position()
	if pos != act.Tile {
		return newValidationError(CodeMisplacedCollect, step,
			"Cannot collect %s from %s - not at that position (currently at %s)", act.Item, act.Tile, pos)
	}

	item, ok := in.state.Collect(act.Tile)
	if !ok || item != act.Item {
		return newValidationError(CodeItemUnavailable, step, "No %s available at %s", act.Item, act.Tile)
	}
	return nil
}

func (in *Interpreter) clear(step int, act ClearAction) *ValidationError {
	err := in.state.Clear(act.Tile)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNoDynamite):
		return newValidationError(CodeClearDenied, step, "Cannot clear %s - no %s collected", act.Tile, ItemDynamite)
	case errors.Is(err, ErrDynamiteSpent):
		return newValidationError(CodeClearDenied, step, "Cannot clear %s - %s already used", act.Tile, ItemDynamite)
	default:
		return newValidationError(CodeClearDenied, step, "Cannot clear %s - tile not blocked", act.Tile)
	}
}

func (in *Interpreter) fail(verr *ValidationError) error {
	in.phase = PhaseFailed
	in.err = verr
	return verr
}

// Interpret validates a full path expression against config in one pass.
// Failures never escape as errors; they are reported in the verdict along
// with the cost accrued before the failing step.
func Interpret(expr string, config Configuration) Verdict {
	actions, err := ParsePath(expr)
	if err != nil {
		return failedVerdict(err)
	}

	in, err := NewInterpreter(config)
	if err != nil {
		return Verdict{
			Code:   CodeMalformedTile,
			Reason: fmt.Sprintf("Scenario configuration error: %v", err),
			Phase:  PhaseFailed,
		}
	}

	for i, a := range actions {
		if err := in.Apply(i+1, a); err != nil {
			return in.Verdict()
		}
	}
	_ = in.Finish()
	return in.Verdict()
}

func failedVerdict(err error) Verdict {
	v := Verdict{Phase: PhaseFailed, Reason: err.Error(), Code: CodeMalformedPath}
	var verr *ValidationError
	if errors.As(err, &verr) {
		v.Code = verr.Code
		v.Step = verr.Step
	}
	return v
}
