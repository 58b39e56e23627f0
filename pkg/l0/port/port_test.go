package port

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/laserctl/pkg/framework"
)

func readAvailable(t *testing.T, p *Port, n int) string {
	var sb strings.Builder
	deadline := time.Now().Add(2 * time.Second)
	for sb.Len() < n {
		b, err := p.ReadByte()
		if err == ErrNoData {
			require.True(t, time.Now().Before(deadline), "timeout, got %q", sb.String())
			time.Sleep(time.Millisecond)
			continue
		}
		require.NoError(t, err)
		sb.WriteByte(b)
	}
	return sb.String()
}

func TestReadByteEmpty(t *testing.T) {
	p := New(0)
	_, err := p.ReadByte()
	assert.Equal(t, ErrNoData, err)
	assert.False(t, p.Attached())
	n, err := p.Write([]byte("dropped\n"))
	assert.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestStreamDeliversBytesThenEOF(t *testing.T) {
	p := New(4)
	local, remote := net.Pipe()
	s := &Stream{Port: p, Desc: "pipe", Conn: local}
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(context.Background()) }()

	go func() {
		remote.Write([]byte("a\nf100\n"))
		remote.Close()
	}()
	assert.Equal(t, "a\nf100\n", readAvailable(t, p, 7))
	require.NoError(t, <-errCh)
	_, err := p.ReadByte()
	assert.Equal(t, io.EOF, err)
	assert.False(t, p.Attached())
}

func TestStreamWritesToAttached(t *testing.T) {
	p := New(0)
	local, remote := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Stream{Port: p, Desc: "pipe", Conn: local}
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	for !p.Attached() {
		time.Sleep(time.Millisecond)
	}
	go p.Write([]byte("207 ARMED\n"))
	ln, err := bufio.NewReader(remote).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "207 ARMED\n", ln)

	cancel()
	assert.Equal(t, context.Canceled, <-errCh)
	_, err = p.ReadByte()
	assert.Equal(t, ErrClosed, err)
}

func TestPumpTriggersLoop(t *testing.T) {
	p := New(0)
	loop := fx.NewLoop()
	loop.Interval = time.Hour
	local, remote := net.Pipe()
	triggered := make(chan struct{}, 1)
	loop.AddController(fx.PrLvSense, fx.ControlFunc(func(fx.ControlContext) error {
		if p.Buffered() > 0 {
			select {
			case triggered <- struct{}{}:
			default:
			}
		}
		return nil
	}))
	loop.AddRunnable(&Stream{Port: p, Desc: "pipe", Conn: local})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)
	go remote.Write([]byte("h\n"))
	select {
	case <-triggered:
	case <-time.After(2 * time.Second):
		t.Fatal("loop not triggered")
	}
}

func TestCloseWithKeepsFirstError(t *testing.T) {
	p := New(0)
	p.CloseWith(io.ErrUnexpectedEOF)
	p.Close()
	_, err := p.ReadByte()
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestWebsocketSingleClient(t *testing.T) {
	p := New(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewWebsocketServer(p, "")
	srv := httptest.NewServer(s.Handler(ctx))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	first, err := websocket.Dial(url, "", "http://localhost/")
	require.NoError(t, err)
	defer first.Close()
	_, err = first.Write([]byte("e\n"))
	require.NoError(t, err)
	assert.Equal(t, "e\n", readAvailable(t, p, 2))

	second, err := websocket.Dial(url, "", "http://localhost/")
	require.NoError(t, err)
	ln, err := bufio.NewReader(second).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "503 BUSY\n", ln)
	second.Close()

	go p.Write([]byte("520 EMERGENCY STOP\n"))
	ln, err = bufio.NewReader(first).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "520 EMERGENCY STOP\n", ln)
}
