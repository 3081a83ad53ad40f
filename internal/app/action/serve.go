package action

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimspell/labyrinth/internal/app/logger/logging"
	"github.com/dimspell/labyrinth/internal/backend"
	"github.com/dimspell/labyrinth/internal/console"
	"github.com/dimspell/labyrinth/internal/database"
	"github.com/dimspell/labyrinth/internal/metrics"
	"github.com/kelindar/event"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func ServeCommand(version string) *cli.Command {
	cmd := &cli.Command{
		Name:        "serve",
		Usage:       "Start the maze server",
		Description: "Accept player connections and serve the REGISTER, CONNECT and MOVEMENT commands",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Value: defaultHost,
				Usage: "Interface the server listens on",
			},
			&cli.StringFlag{
				Name:  "port",
				Value: defaultPort,
				Usage: "TCP port the server listens on",
			},
			&cli.DurationFlag{
				Name:  "delay",
				Value: defaultProcessingDelay,
				Usage: "Delay applied after every handled command",
			},
			&cli.DurationFlag{
				Name:  "idle-timeout",
				Usage: "Close connections idle for that long (0 disables)",
			},
			&cli.StringFlag{
				Name:  "maze-file",
				Usage: "YAML file with the maze layout (built-in layout when empty)",
			},
			&cli.StringFlag{
				Name:  "console-addr",
				Value: defaultConsoleAddr,
				Usage: "Address of the health and metrics server (disabled when empty)",
			},
			&cli.StringFlag{
				Name:  "database-type",
				Value: defaultDatabaseType,
				Usage: "Database type (memory, sqlite)",
			},
			&cli.StringFlag{
				Name:  "sqlite-path",
				Value: defaultDatabasePath,
				Usage: "Path to sqlite database file",
			},
		},
	}

	cmd.Action = func(ctx context.Context, c *cli.Command) error {
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		m, err := loadMaze(c)
		if err != nil {
			return err
		}

		db, err := selectDatabaseType(c)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				slog.Error("Failed to close database", logging.Error(err))
			}
		}()

		bus := event.NewDispatcher()
		defer bus.Close()
		metrics.Init()
		unsubscribe := metrics.Subscribe(bus)
		defer unsubscribe()

		bd := backend.NewBackend(
			net.JoinHostPort(c.String("host"), c.String("port")),
			database.NewCredentials(db),
			backend.WithMaze(m),
			backend.WithProcessingDelay(c.Duration("delay")),
			backend.WithIdleTimeout(c.Duration("idle-timeout")),
			backend.WithEvents(bus),
		)
		if err := bd.Start(); err != nil {
			return err
		}

		group, groupContext := errgroup.WithContext(ctx)
		group.Go(func() error {
			return bd.Listen(groupContext)
		})

		if c.String("console-addr") != "" {
			con, err := console.NewConsole(db, selectConsoleOptions(c, version, m.Name)...)
			if err != nil {
				bd.Shutdown()
				return err
			}
			startConsole, stopConsole := con.Handlers()

			group.Go(func() error {
				return startConsole(groupContext)
			})
			group.Go(func() error {
				<-groupContext.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return stopConsole(shutdownCtx)
			})
		}

		err = group.Wait()
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		slog.Info("Server stopped")
		return nil
	}

	return cmd
}
