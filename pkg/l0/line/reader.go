package line

import (
	"errors"
	"io"
)

// Capacity is the default buffer capacity in bytes.
// The longest line accepted is Capacity-1 bytes, excluding terminator.
const Capacity = 80

// Terminator terminates a line.
const Terminator byte = '\n'

// ErrNoData is returned by non-blocking sources when nothing is buffered.
var ErrNoData = errors.New("no data")

// Handler receives framing results.
type Handler interface {
	// HandleLine is called with a completed line excluding terminator.
	// The slice is only valid during the call.
	HandleLine(line []byte)
	// HandleOverflow is called once when a line exceeds the capacity.
	HandleOverflow()
}

// Result is the result of parsing a byte.
type Result struct {
	// Line is set when a line is completed, it may be empty (not nil).
	Line []byte
	// Overflow is set when overflow mode is entered.
	Overflow bool
	// Resync is set when overflow mode is left without a terminator,
	// after Capacity bytes are discarded.
	Resync bool
}

// Yield indicates Feed should return after this result.
func (r Result) Yield() bool {
	return r.Line != nil || r.Overflow || r.Resync
}

type readState int

const (
	stateLine     readState = iota // collecting line
	stateOverflow                  // discarding until terminator
)

// Reader frames lines from bytes using a fixed-capacity buffer.
type Reader struct {
	buf       []byte
	cursor    int
	state     readState
	discarded int
}

// NewReader creates a Reader with specified capacity, which must be at least 2.
func NewReader(capacity int) *Reader {
	if capacity < 2 {
		panic("line: capacity too small")
	}
	return &Reader{buf: make([]byte, capacity)}
}

// Capacity returns the buffer capacity.
func (r *Reader) Capacity() int {
	return len(r.buf)
}

// Len returns the number of buffered bytes of the current line.
func (r *Reader) Len() int {
	return r.cursor
}

// Overflowing indicates the reader is discarding an over-long line.
func (r *Reader) Overflowing() bool {
	return r.state == stateOverflow
}

// Reset drops any partial line and leaves overflow mode.
func (r *Reader) Reset() {
	r.cursor, r.discarded, r.state = 0, 0, stateLine
}

// Parse consumes one byte.
func (r *Reader) Parse(b byte) (res Result) {
	switch r.state {
	case stateLine:
		r.buf[r.cursor] = b
		if b == Terminator {
			res.Line = r.buf[:r.cursor]
			r.cursor = 0
			return
		}
		r.cursor++
		if r.cursor >= len(r.buf) {
			r.cursor, r.discarded = 0, 0
			r.state = stateOverflow
			res.Overflow = true
		}
	case stateOverflow:
		if b == Terminator {
			r.Reset()
			return
		}
		r.discarded++
		if r.discarded >= len(r.buf) {
			r.Reset()
			res.Resync = true
		}
	}
	return
}

// Feed drains src until it has no more data, or a line is dispatched,
// or overflow mode is entered, or a resync is forced.
// ErrNoData from src ends the drain without error, io.EOF and other errors
// are returned.
func (r *Reader) Feed(src io.ByteReader, h Handler) error {
	for {
		b, err := src.ReadByte()
		if err != nil {
			if err == ErrNoData {
				return nil
			}
			return err
		}
		res := r.Parse(b)
		switch {
		case res.Line != nil:
			h.HandleLine(res.Line)
		case res.Overflow:
			h.HandleOverflow()
		}
		if res.Yield() {
			return nil
		}
	}
}
