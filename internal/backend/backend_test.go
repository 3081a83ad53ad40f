package backend

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/dimspell/labyrinth/internal/app/logger"
	"github.com/dimspell/labyrinth/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type mockConn struct {
	reader     io.Reader
	Written    bytes.Buffer
	WriteError error
	Closed     bool

	LocalAddress  net.Addr
	RemoteAddress net.Addr
}

func (m *mockConn) Read(b []byte) (n int, err error) { return m.reader.Read(b) }

func (m *mockConn) Write(b []byte) (n int, err error) {
	if m.WriteError != nil {
		return 0, m.WriteError
	}
	return m.Written.Write(b)
}

func (m *mockConn) Close() error {
	m.Closed = true
	return nil
}

func (m *mockConn) LocalAddr() net.Addr                { return m.LocalAddress }
func (m *mockConn) RemoteAddr() net.Addr               { return m.RemoteAddress }
func (m *mockConn) SetDeadline(t time.Time) error      { return nil }
func (m *mockConn) SetReadDeadline(t time.Time) error  { return nil }
func (m *mockConn) SetWriteDeadline(t time.Time) error { return nil }

// The test database is closed by t.Cleanup, after the leak check has run.
var ignoreConnectionOpener = goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener")

func newTestBackend(t *testing.T, opts ...Option) (*Backend, *database.Credentials) {
	t.Helper()
	logger.SetDiscardLogger()

	db, err := database.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := database.NewCredentials(db)
	opts = append([]Option{WithProcessingDelay(0)}, opts...)
	return NewBackend("127.0.0.1:0", store, opts...), store
}

func TestBackend_HandleClient_Pipeline(t *testing.T) {
	b, _ := newTestBackend(t)

	conn := &mockConn{
		reader:        strings.NewReader("REGISTER jp secret\r\nMOVEMENT 0\r\nPING\r\nMOVEMENT 1"),
		RemoteAddress: &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 4242},
	}
	session := NewSession(conn)

	assert.NoError(t, b.handleClient(context.Background(), session))
	assert.Equal(t, "201\r\n200\r\n501\r\n206\r\n", conn.Written.String())
	assert.True(t, conn.Closed)
}

func TestBackend_HandleClient_WriteError(t *testing.T) {
	b, _ := newTestBackend(t)

	conn := &mockConn{
		reader:     strings.NewReader("PING\r\n"),
		WriteError: errors.New("broken pipe"),
	}

	err := b.handleClient(context.Background(), NewSession(conn))
	assert.ErrorContains(t, err, "broken pipe")
	assert.True(t, conn.Closed)
}

func TestBackend_HandleClient_LineTooLong(t *testing.T) {
	b, _ := newTestBackend(t)

	conn := &mockConn{reader: strings.NewReader(strings.Repeat("A", MaxLineLength+10) + "\r\nPING\r\n")}

	err := b.handleClient(context.Background(), NewSession(conn))
	assert.ErrorIs(t, err, ErrLineTooLong)
	assert.Empty(t, conn.Written.String())
}

func TestBackend_ListenAndShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreConnectionOpener)

	b, _ := newTestBackend(t)
	require.NoError(t, b.Start())

	done := make(chan error, 1)
	go func() { done <- b.Listen(context.Background()) }()

	conn, err := net.Dial("tcp", b.ListenAddr().String())
	require.NoError(t, err)
	defer conn.Close()

	rd := bufio.NewReader(conn)
	_, err = conn.Write([]byte("REGISTER jp secret\r\n"))
	require.NoError(t, err)

	line, err := rd.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "201\r\n", line)

	// An idle client must not keep the server from shutting down.
	b.Shutdown()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after Shutdown")
	}

	_, err = rd.ReadString('\n')
	assert.ErrorIs(t, err, io.EOF)
}

func TestBackend_ListenStopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreConnectionOpener)

	b, _ := newTestBackend(t)
	require.NoError(t, b.Start())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Listen(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after the context was cancelled")
	}
	// Let the shutdown callback finish before checking for leaks.
	b.Shutdown()
}

func TestBackend_ListenNotStarted(t *testing.T) {
	b, _ := newTestBackend(t)
	assert.Error(t, b.Listen(context.Background()))
}

func TestBackend_IdleTimeout(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreConnectionOpener)

	b, _ := newTestBackend(t, WithIdleTimeout(50*time.Millisecond))
	require.NoError(t, b.Start())

	done := make(chan error, 1)
	go func() { done <- b.Listen(context.Background()) }()

	conn, err := net.Dial("tcp", b.ListenAddr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = bufio.NewReader(conn).ReadString('\n')
	assert.ErrorIs(t, err, io.EOF)

	b.Shutdown()
	<-done
}

func TestBackend_ProcessingDelayCancelled(t *testing.T) {
	b, _ := newTestBackend(t, WithProcessingDelay(time.Hour))
	session := NewSession(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status := b.dispatch(ctx, session, "REGISTER jp secret")
	assert.Equal(t, StatusRegistered, status)
}
