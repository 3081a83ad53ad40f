package maze

import "fmt"

type Direction int

const (
	Up Direction = iota
	Right
	Down
	Left
)

// Delta returns the (row, col) step for the direction. Values outside
// Up..Left yield a zero step, which resolves to the current cell.
func (d Direction) Delta() Delta {
	switch d {
	case Up:
		return Delta{Row: -1}
	case Right:
		return Delta{Col: 1}
	case Down:
		return Delta{Row: 1}
	case Left:
		return Delta{Col: -1}
	default:
		return Delta{}
	}
}

func (d Direction) Valid() bool { return d >= Up && d <= Left }

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

type OutcomeKind int

const (
	Moved OutcomeKind = iota
	Blocked
	Escaped
)

func (k OutcomeKind) String() string {
	switch k {
	case Moved:
		return "moved"
	case Blocked:
		return "blocked"
	case Escaped:
		return "escaped"
	default:
		return "unknown"
	}
}

type Outcome struct {
	Kind OutcomeKind
	// To is the walker's position after the step.
	To Position
}

// Resolve computes the result of stepping from `from` by d. A wall or the
// edge of the grid blocks; an exit ends the walk without moving onto it.
func (m *Maze) Resolve(from Position, d Delta) Outcome {
	target := from.Add(d)
	cell, ok := m.Cell(target)
	switch {
	case !ok || cell == Wall:
		return Outcome{Kind: Blocked, To: from}
	case cell == Exit:
		return Outcome{Kind: Escaped, To: from}
	default:
		return Outcome{Kind: Moved, To: target}
	}
}

// Walker is one player's progress through a maze.
type Walker struct {
	maze    *Maze
	pos     Position
	escaped bool
}

func NewWalker(m *Maze) *Walker {
	return &Walker{maze: m, pos: m.Start()}
}

func (w *Walker) Position() Position { return w.pos }

func (w *Walker) Escaped() bool { return w.escaped }

func (w *Walker) Maze() *Maze { return w.maze }

// Move takes a single step. Once the walker has escaped every further move
// reports Escaped and the position no longer changes.
func (w *Walker) Move(d Direction) Outcome {
	if w.escaped {
		return Outcome{Kind: Escaped, To: w.pos}
	}

	out := w.maze.Resolve(w.pos, d.Delta())
	w.pos = out.To
	if out.Kind == Escaped {
		w.escaped = true
	}
	return out
}
