package action

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dimspell/labyrinth/internal/client"
	"github.com/urfave/cli/v3"
)

func ClientCommand() *cli.Command {
	cmd := &cli.Command{
		Name:        "client",
		Usage:       "Play the maze in the terminal",
		Description: "Connect to a maze server, sign in and walk until the exit is found",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "host",
				Required: true,
				Usage:    "Server host name or IP address",
			},
			&cli.StringFlag{
				Name:     "port",
				Required: true,
				Usage:    "Server TCP port",
			},
		},
	}

	cmd.Action = func(ctx context.Context, c *cli.Command) error {
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		host, port := c.String("host"), c.String("port")

		_, _ = fmt.Fprintf(os.Stdout, "Establishing connection with %s:%s... ", host, port)
		conn, err := client.Dial(ctx, host, port, defaultDialTimeout)
		if err != nil {
			_, _ = fmt.Fprintln(os.Stdout)
			return cli.Exit(err.Error(), 1)
		}
		defer conn.Close()
		_, _ = fmt.Fprintln(os.Stdout, "done!")

		return client.New(conn, os.Stdin, os.Stdout).Run(ctx)
	}

	return cmd
}
