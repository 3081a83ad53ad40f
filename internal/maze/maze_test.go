package maze

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	m := Default()

	assert.Equal(t, 5, m.Rows())
	assert.Equal(t, 5, m.Cols())
	assert.Equal(t, Position{Row: 3, Col: 1}, m.Start())
	assert.Equal(t, "#####\n#...#\n#.#.#\n#A#.$\n#####", m.String())

	cell, ok := m.Cell(Position{Row: 3, Col: 4})
	assert.True(t, ok)
	assert.Equal(t, Exit, cell)
}

func TestMaze_CellOutOfBounds(t *testing.T) {
	m := Default()

	for _, p := range []Position{{-1, 0}, {0, -1}, {5, 0}, {0, 5}} {
		cell, ok := m.Cell(p)
		assert.False(t, ok, p.String())
		assert.Equal(t, Wall, cell)
	}
}

func TestMaze_Resolve(t *testing.T) {
	m := Default()
	start := m.Start()

	tests := []struct {
		name string
		from Position
		dir  Direction
		want Outcome
	}{
		{"floor above start", start, Up, Outcome{Kind: Moved, To: Position{Row: 2, Col: 1}}},
		{"wall right of start", start, Right, Outcome{Kind: Blocked, To: start}},
		{"wall below start", start, Down, Outcome{Kind: Blocked, To: start}},
		{"wall left of start", start, Left, Outcome{Kind: Blocked, To: start}},
		{"exit", Position{Row: 3, Col: 3}, Right, Outcome{Kind: Escaped, To: Position{Row: 3, Col: 3}}},
		{"zero delta", start, Direction(7), Outcome{Kind: Moved, To: start}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Resolve(tt.from, tt.dir.Delta()))
		})
	}
}

func TestMaze_ResolveOpenEdge(t *testing.T) {
	m, err := FromRows("open", []string{"A.$"})
	require.NoError(t, err)

	assert.Equal(t, Outcome{Kind: Blocked, To: m.Start()}, m.Resolve(m.Start(), Up.Delta()))
	assert.Equal(t, Outcome{Kind: Blocked, To: m.Start()}, m.Resolve(m.Start(), Left.Delta()))
}

func TestWalker_ShortestPath(t *testing.T) {
	w := NewWalker(Default())

	path := []Direction{Up, Up, Right, Right, Down, Down}
	for _, d := range path {
		out := w.Move(d)
		require.Equal(t, Moved, out.Kind, d.String())
	}
	assert.Equal(t, Position{Row: 3, Col: 3}, w.Position())
	assert.False(t, w.Escaped())

	out := w.Move(Right)
	assert.Equal(t, Escaped, out.Kind)
	assert.True(t, w.Escaped())
	assert.Equal(t, Position{Row: 3, Col: 3}, w.Position())

	// The walk is over: every further step reports the escape.
	assert.Equal(t, Escaped, w.Move(Left).Kind)
	assert.Equal(t, Position{Row: 3, Col: 3}, w.Position())
}

func TestWalker_Independent(t *testing.T) {
	m := Default()
	a, b := NewWalker(m), NewWalker(m)

	a.Move(Up)
	a.Move(Up)

	assert.Equal(t, Position{Row: 1, Col: 1}, a.Position())
	assert.Equal(t, m.Start(), b.Position())
}

func TestFromRows_Invalid(t *testing.T) {
	tests := map[string][]string{
		"empty":         nil,
		"ragged":        {"###", "#A$#", "###"},
		"two starts":    {"#####", "#AA$#", "#####"},
		"no start":      {"#####", "#..$#", "#####"},
		"no exit":       {"#####", "#A..#", "#####"},
		"unknown glyph": {"#####", "#A?$#", "#####"},
	}
	for name, rows := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := FromRows(name, rows)
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maze.yaml")
	content := "name: corridor\nrows:\n  - \"#####\"\n  - \"#A.$#\"\n  - \"#####\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	m, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "corridor", m.Name)
	assert.Equal(t, Position{Row: 1, Col: 1}, m.Start())

	w := NewWalker(m)
	assert.Equal(t, Moved, w.Move(Right).Kind)
	assert.Equal(t, Escaped, w.Move(Right).Kind)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("rows: [this is not: valid"))
	assert.Error(t, err)

	_, err = Parse([]byte("rows:\n  - \"#A#\"\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
