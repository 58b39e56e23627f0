// Package line provides framing of the newline-terminated command protocol.
package line

// Commands are ASCII lines terminated by '\n' and received over a byte
// stream (e.g. serial port) without any flow control. The receiving side
// only has a fixed-capacity buffer, so an over-long line must be dropped
// and the framing re-synchronized at the next terminator without
// dispatching garbage.
//
// Reader is a byte-at-a-time state machine:
//
//   stateLine      collecting bytes of a line into the buffer
//   stateOverflow  discarding bytes until '\n' or Capacity bytes discarded
//
// Feed drains a non-blocking source and yields after at most one line,
// one overflow or one forced resync, so the caller's loop is never
// starved by a burst of input.
