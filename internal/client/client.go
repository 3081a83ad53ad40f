// Package client is the terminal front-end of the maze. It only relays the
// player's choices to the server and prints what the status codes mean.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const (
	inputPrefix = "> "
	separator   = "- - - - - - - - - - - - - - - - - - - - "
)

type DialErrorKind int

const (
	DialRefused DialErrorKind = iota
	DialUnresolved
	DialTimeout
	DialFailed
)

// DialError describes why the connection to the server could not be opened.
type DialError struct {
	Kind DialErrorKind
	Host string
	Port string
	Err  error
}

func (e *DialError) Error() string {
	switch e.Kind {
	case DialRefused:
		return fmt.Sprintf("host %q refusing connection on port %s", e.Host, e.Port)
	case DialUnresolved:
		return fmt.Sprintf("cannot resolve host %q", e.Host)
	case DialTimeout:
		return fmt.Sprintf("connection to %q timed out", net.JoinHostPort(e.Host, e.Port))
	default:
		return fmt.Sprintf("cannot connect to %q: %s", net.JoinHostPort(e.Host, e.Port), e.Err)
	}
}

func (e *DialError) Unwrap() error { return e.Err }

// Dial opens the connection once. Failures are not retried.
func Dial(ctx context.Context, host, port string, timeout time.Duration) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err == nil {
		return conn, nil
	}

	dialErr := &DialError{Kind: DialFailed, Host: host, Port: port, Err: err}

	var (
		dnsErr *net.DNSError
		netErr net.Error
	)
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		dialErr.Kind = DialRefused
	case errors.As(err, &dnsErr):
		dialErr.Kind = DialUnresolved
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		dialErr.Kind = DialTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		dialErr.Kind = DialTimeout
	}
	return nil, dialErr
}

type Client struct {
	conn   net.Conn
	server *bufio.Reader
	input  *bufio.Scanner
	out    io.Writer

	Username string
	Escaped  bool
}

func New(conn net.Conn, in io.Reader, out io.Writer) *Client {
	return &Client{
		conn:   conn,
		server: bufio.NewReader(conn),
		input:  bufio.NewScanner(in),
		out:    out,
	}
}

// Send writes a single request line and waits for its status code.
func (c *Client) Send(request string) (string, error) {
	slog.Debug("Send", "request", request)

	if _, err := io.WriteString(c.conn, request+"\r\n"); err != nil {
		return "", fmt.Errorf("client: write: %w", err)
	}
	line, err := c.server.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("client: read: %w", err)
	}
	code := strings.TrimSpace(line)

	slog.Debug("Recv", "code", code)
	return code, nil
}

// Run signs the user in and walks the maze until the exit is found or the
// input ends.
func (c *Client) Run(ctx context.Context) error {
	if err := c.authLoop(ctx); err != nil {
		return err
	}
	if c.Username == "" {
		return nil
	}

	c.println(separator)
	c.printf("Welcome, %s!\n", c.Username)
	c.println("You are trapped in a maze, it is dark here so you can not see much. But you MUST find the way out...")
	c.println(separator)

	return c.mazeLoop(ctx)
}

func (c *Client) authLoop(ctx context.Context) error {
	for c.Username == "" {
		if err := ctx.Err(); err != nil {
			return err
		}

		username, ok := c.prompt("Username: ")
		if !ok {
			return nil
		}
		password, ok := c.prompt("Password: ")
		if !ok {
			return nil
		}
		if !isWord(username) || !isWord(password) {
			c.println("Username and password must be single words, try again")
			continue
		}

		code, err := c.Send(fmt.Sprintf("CONNECT %s %s", username, password))
		if err != nil {
			return err
		}

		switch code {
		case "200":
			c.println("Login successful!")
			c.Username = username
		case "403":
			c.println("Password mismatch, try again")
		case "402":
			if err := c.registerLoop(username, password); err != nil {
				return err
			}
		default:
			return fmt.Errorf("client: unexpected server response code: %s", code)
		}
	}
	return nil
}

func (c *Client) registerLoop(username, password string) error {
	for {
		answer, ok := c.prompt("Unknown user, want to register? y/n: ")
		if !ok {
			return nil
		}
		switch strings.ToLower(answer) {
		case "n":
			return nil
		case "y":
			code, err := c.Send(fmt.Sprintf("REGISTER %s %s", username, password))
			if err != nil {
				return err
			}
			if code != "201" {
				return fmt.Errorf("client: registration failed with code %s", code)
			}
			c.println("Registered successfully")
			c.Username = username
			return nil
		}
	}
}

func (c *Client) mazeLoop(ctx context.Context) error {
	for !c.Escaped {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.println()
		c.println("0: Try to go Up")
		c.println("1: Try to go Right")
		c.println("2: Try to go Down")
		c.println("3: Try to go Left")

		choice, ok := c.prompt(inputPrefix)
		if !ok {
			return nil
		}
		direction, err := strconv.Atoi(choice)
		if err != nil || direction < 0 || direction > 3 {
			continue
		}

		code, err := c.Send(fmt.Sprintf("MOVEMENT %d", direction))
		if err != nil {
			return err
		}

		switch code {
		case "200":
			c.println("You go a few steps in a chosen direction... Where to go now?")
		case "206":
			c.println("Unfortunately, there is a wall. Where should I go now?")
		case "205":
			c.println("Congratulations!!! You have successfully escaped the MAZE!")
			c.Escaped = true
		default:
			return fmt.Errorf("client: unexpected server response code: %s", code)
		}
	}
	return nil
}

// prompt reports false once the input is exhausted.
func (c *Client) prompt(text string) (string, bool) {
	_, _ = fmt.Fprint(c.out, text)
	if !c.input.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.input.Text()), true
}

func (c *Client) println(a ...any) { _, _ = fmt.Fprintln(c.out, a...) }

func (c *Client) printf(format string, a ...any) { _, _ = fmt.Fprintf(c.out, format, a...) }

func isWord(s string) bool {
	return s != "" && len(strings.Fields(s)) == 1
}
