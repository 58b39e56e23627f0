package port

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/laserctl/pkg/framework"
	"github.com/robotalks/laserctl/pkg/l0/status"
)

// DefaultWebsocketPath is the default path of the websocket endpoint.
const DefaultWebsocketPath = "/link"

// WebsocketServer serves the Port over websocket. Only one client is
// attached at a time, others are told 503 BUSY and disconnected.
type WebsocketServer struct {
	Port *Port
	Addr string
	Path string

	busy int32
}

// NewWebsocketServer creates a WebsocketServer.
func NewWebsocketServer(p *Port, addr string) *WebsocketServer {
	return &WebsocketServer{Port: p, Addr: addr, Path: DefaultWebsocketPath}
}

// Name implements Named.
func (s *WebsocketServer) Name() string {
	return "websocket:" + s.Addr
}

// Handler creates the websocket handler. Attached clients are
// disconnected when ctx is canceled.
func (s *WebsocketServer) Handler(ctx context.Context) http.Handler {
	return websocket.Server{Handler: func(conn *websocket.Conn) {
		s.serve(ctx, conn)
	}}
}

// Run implements Runnable.
func (s *WebsocketServer) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	path := s.Path
	if path == "" {
		path = DefaultWebsocketPath
	}
	mux.Handle(path, s.Handler(ctx))
	srv := &http.Server{Addr: s.Addr, Handler: mux}
	glog.Infof("websocket listening on %s%s", s.Addr, path)
	return fx.RunWithContextCancel(ctx, func() { srv.Close() }, srv.ListenAndServe)
}

func (s *WebsocketServer) serve(ctx context.Context, conn *websocket.Conn) {
	remote := conn.Request().RemoteAddr
	if !atomic.CompareAndSwapInt32(&s.busy, 0, 1) {
		glog.Warningf("websocket: rejected %s, busy", remote)
		io.WriteString(conn, status.New(status.CodeBusy, "BUSY").String()+"\n")
		conn.Close()
		return
	}
	defer atomic.StoreInt32(&s.busy, 0)
	glog.Infof("websocket: %s attached", remote)
	err := s.Port.Pump(ctx, conn)
	if err != nil && err != io.EOF && err != context.Canceled {
		glog.Warningf("websocket: %s: %v", remote, err)
	}
	glog.Infof("websocket: %s detached", remote)
}
