// Package maze holds the grid the players walk through and the rules of a
// single step. A Maze is immutable once built and safe to share; the mutable
// part of a walk lives in a Walker, which belongs to exactly one session.
package maze

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Cell byte

const (
	Wall  Cell = '#'
	Floor Cell = '.'
	Start Cell = 'A'
	Exit  Cell = '$'
)

func (c Cell) Passable() bool { return c != Wall }

type Position struct {
	Row int
	Col int
}

func (p Position) Add(d Delta) Position {
	return Position{Row: p.Row + d.Row, Col: p.Col + d.Col}
}

func (p Position) String() string { return fmt.Sprintf("(%d, %d)", p.Row, p.Col) }

type Delta struct {
	Row int
	Col int
}

var defaultRows = []string{
	"#####",
	"#...#",
	"#.#.#",
	"#A#.$",
	"#####",
}

type Maze struct {
	Name string

	grid  [][]Cell
	start Position
}

// Default returns the built-in 5x5 layout.
func Default() *Maze {
	m, err := FromRows("default", defaultRows)
	if err != nil {
		panic("maze: invalid built-in layout: " + err.Error())
	}
	return m
}

// FromRows builds a maze from its textual rows. The layout has to be
// rectangular, contain exactly one start and at least one exit.
func FromRows(name string, rows []string) (*Maze, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("maze %q: no rows", name)
	}

	m := &Maze{Name: name, grid: make([][]Cell, len(rows))}
	width := len(rows[0])
	starts, exits := 0, 0

	for r, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("maze %q: row %d has %d cells, expected %d", name, r, len(row), width)
		}
		m.grid[r] = make([]Cell, width)
		for c := 0; c < width; c++ {
			cell := Cell(row[c])
			switch cell {
			case Start:
				starts++
				m.start = Position{Row: r, Col: c}
			case Exit:
				exits++
			case Wall, Floor:
			default:
				return nil, fmt.Errorf("maze %q: unknown cell %q at %s", name, row[c], Position{r, c})
			}
			m.grid[r][c] = cell
		}
	}

	if width == 0 {
		return nil, fmt.Errorf("maze %q: empty rows", name)
	}
	if starts != 1 {
		return nil, fmt.Errorf("maze %q: expected exactly one start cell, found %d", name, starts)
	}
	if exits == 0 {
		return nil, fmt.Errorf("maze %q: no exit cell", name)
	}
	return m, nil
}

type layoutFile struct {
	Name string   `yaml:"name"`
	Rows []string `yaml:"rows"`
}

// Parse reads a maze layout from YAML.
//
//	name: tiny
//	rows:
//	  - "####"
//	  - "#A$#"
//	  - "####"
func Parse(data []byte) (*Maze, error) {
	var layout layoutFile
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("maze: parse layout: %w", err)
	}
	if layout.Name == "" {
		layout.Name = "custom"
	}
	return FromRows(layout.Name, layout.Rows)
}

func Load(path string) (*Maze, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path from the operator's CLI flags
	if err != nil {
		return nil, fmt.Errorf("maze: read layout: %w", err)
	}
	return Parse(data)
}

func (m *Maze) Start() Position { return m.start }

func (m *Maze) Rows() int { return len(m.grid) }

func (m *Maze) Cols() int { return len(m.grid[0]) }

// Cell returns the cell at p. Positions outside the grid report false.
func (m *Maze) Cell(p Position) (Cell, bool) {
	if p.Row < 0 || p.Row >= len(m.grid) || p.Col < 0 || p.Col >= len(m.grid[p.Row]) {
		return Wall, false
	}
	return m.grid[p.Row][p.Col], true
}

func (m *Maze) String() string {
	var sb strings.Builder
	for r, row := range m.grid {
		if r > 0 {
			sb.WriteByte('\n')
		}
		for _, c := range row {
			sb.WriteByte(byte(c))
		}
	}
	return sb.String()
}
