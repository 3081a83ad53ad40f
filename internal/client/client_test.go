package client

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/dimspell/labyrinth/internal/app/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type exchange struct {
	request  string
	response string
}

// scriptedServer answers the requests in order and fails the test on any
// request it did not expect.
func scriptedServer(t *testing.T, conn net.Conn, script []exchange) <-chan struct{} {
	t.Helper()
	done := make(chan struct{})

	go func() {
		defer close(done)
		rd := bufio.NewReader(conn)
		for _, step := range script {
			line, err := rd.ReadString('\n')
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, step.request+"\r\n", line)
			_, err = conn.Write([]byte(step.response + "\r\n"))
			if !assert.NoError(t, err) {
				return
			}
		}
	}()
	return done
}

func TestClient_RegisterAndEscape(t *testing.T) {
	defer goleak.VerifyNone(t)
	logger.SetDiscardLogger()

	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	done := scriptedServer(t, serverConn, []exchange{
		{"CONNECT jp secret", "402"},
		{"REGISTER jp secret", "201"},
		{"MOVEMENT 0", "200"},
		{"MOVEMENT 0", "200"},
		{"MOVEMENT 1", "200"},
		{"MOVEMENT 1", "200"},
		{"MOVEMENT 2", "200"},
		{"MOVEMENT 2", "200"},
		{"MOVEMENT 1", "205"},
	})

	var out bytes.Buffer
	input := strings.NewReader("jp\nsecret\nmaybe\ny\n0\n0\n1\n1\n2\n2\n1\n")
	c := New(clientConn, input, &out)

	require.NoError(t, c.Run(context.Background()))
	<-done

	assert.Equal(t, "jp", c.Username)
	assert.True(t, c.Escaped)
	assert.Contains(t, out.String(), "Registered successfully")
	assert.Contains(t, out.String(), "Welcome, jp!")
	assert.Contains(t, out.String(), "Congratulations!!!")
}

func TestClient_RetryPasswordAndSkipInvalidChoices(t *testing.T) {
	defer goleak.VerifyNone(t)
	logger.SetDiscardLogger()

	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	done := scriptedServer(t, serverConn, []exchange{
		{"CONNECT jp bad", "403"},
		{"CONNECT jp secret", "200"},
		{"MOVEMENT 1", "206"},
	})

	var out bytes.Buffer
	input := strings.NewReader("jp\nbad\njp\nsecret\n9\nabc\n-1\n1\n")
	c := New(clientConn, input, &out)

	require.NoError(t, c.Run(context.Background()))
	<-done

	assert.Equal(t, "jp", c.Username)
	assert.False(t, c.Escaped)
	assert.Contains(t, out.String(), "Password mismatch, try again")
	assert.Contains(t, out.String(), "there is a wall")
}

func TestClient_DeclineRegistration(t *testing.T) {
	defer goleak.VerifyNone(t)
	logger.SetDiscardLogger()

	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	done := scriptedServer(t, serverConn, []exchange{
		{"CONNECT ghost boo", "402"},
	})

	var out bytes.Buffer
	c := New(clientConn, strings.NewReader("ghost\nboo\nn\n"), &out)

	require.NoError(t, c.Run(context.Background()))
	<-done

	assert.Empty(t, c.Username)
	assert.NotContains(t, out.String(), "Welcome")
}

func TestClient_RejectsMultiWordCredentials(t *testing.T) {
	var out bytes.Buffer
	c := New(nil, strings.NewReader("two words\nsecret\n"), &out)

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "must be single words")
}

func TestClient_UnexpectedCode(t *testing.T) {
	defer goleak.VerifyNone(t)
	logger.SetDiscardLogger()

	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	done := scriptedServer(t, serverConn, []exchange{
		{"CONNECT jp secret", "500"},
	})

	c := New(clientConn, strings.NewReader("jp\nsecret\n"), &bytes.Buffer{})

	err := c.Run(context.Background())
	<-done
	assert.ErrorContains(t, err, "unexpected server response code: 500")
}

func TestDial_Refused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, port, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)
	require.NoError(t, listener.Close())

	_, err = Dial(context.Background(), "127.0.0.1", port, time.Second)

	var dialErr *DialError
	require.True(t, errors.As(err, &dialErr))
	assert.Equal(t, DialRefused, dialErr.Kind)
	assert.Contains(t, dialErr.Error(), "refusing connection on port "+port)
}

func TestDial_Connected(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	host, port, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)

	conn, err := Dial(context.Background(), host, port, time.Second)
	require.NoError(t, err)
	assert.NoError(t, conn.Close())
}

func TestDialError_Messages(t *testing.T) {
	assert.Equal(t, `cannot resolve host "nowhere"`, (&DialError{Kind: DialUnresolved, Host: "nowhere", Port: "1"}).Error())
	assert.Equal(t, `connection to "10.0.0.1:8888" timed out`, (&DialError{Kind: DialTimeout, Host: "10.0.0.1", Port: "8888"}).Error())
}
