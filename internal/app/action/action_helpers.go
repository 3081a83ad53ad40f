package action

import (
	"fmt"
	"log/slog"

	"github.com/dimspell/labyrinth/internal/console"
	"github.com/dimspell/labyrinth/internal/database"
	"github.com/dimspell/labyrinth/internal/maze"
	"github.com/urfave/cli/v3"
)

func selectDatabaseType(c *cli.Command) (db *database.SQLite, err error) {
	switch c.String("database-type") {
	case "memory":
		db, err = database.NewMemory()
		if err != nil {
			return nil, err
		}
	case "sqlite":
		db, err = database.NewLocal(c.String("sqlite-path"))
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown database type: %q", c.String("database-type"))
	}

	return db, nil
}

// loadMaze returns the built-in layout unless a maze file was given.
func loadMaze(c *cli.Command) (*maze.Maze, error) {
	path := c.String("maze-file")
	if path == "" {
		return maze.Default(), nil
	}

	m, err := maze.Load(path)
	if err != nil {
		return nil, err
	}
	slog.Info("Loaded maze", "path", path, "name", m.Name, "rows", m.Rows(), "cols", m.Cols())
	return m, nil
}

func selectConsoleOptions(c *cli.Command, version string, mazeName string) []console.Option {
	return []console.Option{
		console.WithBindAddr(c.String("console-addr")),
		console.WithVersion(version),
		console.WithMazeName(mazeName),
	}
}
