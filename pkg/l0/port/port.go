// Package port provides the byte link between a host and the controller.
//
// A Port behaves like a serial receive buffer: transports pump received
// bytes into it from background goroutines, and the control loop drains
// it without blocking. Status lines written to the Port go to whichever
// transport is currently attached.
package port

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/laserctl/pkg/framework"
	"github.com/robotalks/laserctl/pkg/l0/line"
)

// DefaultRxBuffer is the default size of the receive buffer.
const DefaultRxBuffer = 64

var (
	// ErrNoData is returned by ReadByte when the receive buffer is empty.
	ErrNoData = line.ErrNoData
	// ErrClosed indicates the port is closed.
	ErrClosed = errors.New("port closed")
)

// Port is a non-blocking byte source and a line sink.
type Port struct {
	rx chan byte

	lock sync.Mutex
	w    io.Writer
	err  error
}

// New creates a Port with the specified receive buffer size.
func New(rxBuffer int) *Port {
	if rxBuffer <= 0 {
		rxBuffer = DefaultRxBuffer
	}
	return &Port{rx: make(chan byte, rxBuffer)}
}

// ReadByte implements io.ByteReader without blocking. It returns ErrNoData
// if nothing is buffered. Once the port is closed, buffered bytes are
// still returned before the close error.
func (p *Port) ReadByte() (byte, error) {
	select {
	case b := <-p.rx:
		return b, nil
	default:
	}
	p.lock.Lock()
	err := p.err
	p.lock.Unlock()
	if err == nil {
		return 0, ErrNoData
	}
	select {
	case b := <-p.rx:
		return b, nil
	default:
		return 0, err
	}
}

// Buffered returns the number of bytes waiting in the receive buffer.
func (p *Port) Buffered() int {
	return len(p.rx)
}

// Write implements io.Writer. Without an attached transport the data
// is dropped.
func (p *Port) Write(data []byte) (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.w == nil {
		glog.V(3).Infof("port: no transport, dropped %q", data)
		return len(data), nil
	}
	return p.w.Write(data)
}

// Attached indicates a transport is attached.
func (p *Port) Attached() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.w != nil
}

// CloseWith closes the port, reads report err once the buffer is drained.
func (p *Port) CloseWith(err error) {
	if err == nil {
		err = ErrClosed
	}
	p.lock.Lock()
	if p.err == nil {
		p.err = err
	}
	p.lock.Unlock()
}

// Close implements io.Closer.
func (p *Port) Close() error {
	p.CloseWith(ErrClosed)
	return nil
}

// Pump attaches conn as the transport and copies received bytes into the
// receive buffer until conn fails or ctx is canceled. conn is always
// closed on return. When ctx comes from a Loop, the next iteration is
// triggered as soon as bytes arrive.
func (p *Port) Pump(ctx context.Context, conn io.ReadWriteCloser) error {
	p.attach(conn)
	defer p.detach(conn)
	loopCtl := fx.LoopCtlFrom(ctx)
	return fx.RunWithContextCloser(ctx, conn, func() error {
		buf := make([]byte, cap(p.rx))
		for {
			n, err := conn.Read(buf)
			for i := 0; i < n; i++ {
				select {
				case p.rx <- buf[i]:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if n > 0 && loopCtl != nil {
				loopCtl.TriggerNext()
			}
			if err != nil {
				return err
			}
		}
	})
}

func (p *Port) attach(w io.Writer) {
	p.lock.Lock()
	if p.w != nil {
		glog.Warning("port: transport replaced")
	}
	p.w = w
	p.lock.Unlock()
}

func (p *Port) detach(w io.Writer) {
	p.lock.Lock()
	if p.w == w {
		p.w = nil
	}
	p.lock.Unlock()
}
