// Package client talks the line protocol from the host side. Commands are
// answered in order, so replies are matched to pending commands FIFO.
package client

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/laserctl/pkg/framework"
	"github.com/robotalks/laserctl/pkg/l0/line"
	"github.com/robotalks/laserctl/pkg/l0/status"
)

// Result is the result of a command.
type Result struct {
	Err   error
	Lines []status.Line
}

// Last returns the final status line.
func (r Result) Last() (l status.Line) {
	if n := len(r.Lines); n > 0 {
		l = r.Lines[n-1]
	}
	return
}

// Call represents a pending command waiting for reply.
type Call struct {
	Line string

	resultCh chan Result
	lines    []status.Line
	next     *Call
}

// ResultChan returns the chan to retrieve result.
func (c *Call) ResultChan() <-chan Result {
	return c.resultCh
}

func (c *Call) done(err error) {
	if err == nil {
		for _, l := range c.lines {
			if l.Code.IsError() {
				err = &CommandError{Status: l}
				break
			}
		}
	}
	c.resultCh <- Result{Err: err, Lines: c.lines}
}

// EventBuffer is the size of the event chan.
const EventBuffer = 16

// Client issues commands over a connection and matches replies.
type Client struct {
	Conn io.ReadWriter
	// Capacity is the line buffer capacity of the controller.
	Capacity int

	eventCh chan status.Line
	head    *Call
	tail    *Call
	closed  bool
	lock    sync.Mutex
}

// New creates a Client.
func New(conn io.ReadWriter) *Client {
	return &Client{
		Conn:     conn,
		Capacity: line.Capacity,
		eventCh:  make(chan status.Line, EventBuffer),
	}
}

// EventChan retrieves unsolicited status lines, e.g. banner and motion
// completion. Events are dropped if the chan is full.
func (c *Client) EventChan() <-chan status.Line {
	return c.eventCh
}

// Do sends a command line and returns a Call for result.
func (c *Client) Do(cmdLine string) *Call {
	call := &Call{Line: cmdLine, resultCh: make(chan Result, 1)}
	if strings.ContainsRune(cmdLine, rune(line.Terminator)) {
		call.done(ErrInvalidLine)
		return call
	}
	if len(cmdLine) >= c.Capacity {
		call.done(ErrLineTooLong)
		return call
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		call.done(ErrNotConnected)
		return call
	}
	if _, err := io.WriteString(c.Conn, cmdLine+string(line.Terminator)); err != nil {
		call.done(err)
		return call
	}
	if c.head == nil {
		c.head = call
	} else {
		c.tail.next = call
	}
	c.tail = call
	return call
}

// Exec sends a command line and waits for the result.
func (c *Client) Exec(ctx context.Context, cmdLine string) ([]status.Line, error) {
	select {
	case r := <-c.Do(cmdLine).ResultChan():
		return r.Lines, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// HandleLine processes one received status line.
func (c *Client) HandleLine(s string) {
	l, err := status.Parse(s)
	if err != nil {
		glog.Warningf("client: %v: %q", err, s)
		return
	}
	if isEvent(l.Code) {
		c.emitEvent(l)
		return
	}

	c.lock.Lock()
	call := c.head
	if call == nil {
		c.lock.Unlock()
		c.emitEvent(l)
		return
	}
	call.lines = append(call.lines, l)
	final := !isPartial(l.Code)
	if final {
		if c.head = call.next; c.head == nil {
			c.tail = nil
		}
		call.next = nil
	}
	c.lock.Unlock()
	if final {
		call.done(nil)
	}
}

// Run implements Runnable.
func (c *Client) Run(ctx context.Context) error {
	fn := func() error {
		scanner := bufio.NewScanner(c.Conn)
		for scanner.Scan() {
			c.HandleLine(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return err
		}
		return io.EOF
	}
	var err error
	if closer, ok := c.Conn.(io.Closer); ok {
		err = fx.RunWithContextCloser(ctx, closer, fn)
	} else {
		err = fx.RunWithContextCancel(ctx, nil, fn)
	}
	c.shutdown()
	return err
}

func (c *Client) shutdown() {
	c.lock.Lock()
	c.closed = true
	call := c.head
	c.head, c.tail = nil, nil
	c.lock.Unlock()
	for ; call != nil; call = call.next {
		call.done(ErrNotConnected)
	}
}

func (c *Client) emitEvent(l status.Line) {
	select {
	case c.eventCh <- l:
	default:
		glog.Warningf("client: event dropped: %s", l)
	}
}

func isEvent(code status.Code) bool {
	switch code {
	case status.CodeBanner, status.CodeFocusDone, status.CodePositionLost:
		return true
	}
	return false
}

func isPartial(code status.Code) bool {
	return code == status.CodeHelp || code == status.CodeFireAborted
}
