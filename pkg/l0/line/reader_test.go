package line

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type readerTestSequence struct {
	in    []byte
	final Result
	state readState
}

type readerTestSequenceBuilder struct {
	seq []readerTestSequence
}

func readerTestSequences() *readerTestSequenceBuilder {
	return &readerTestSequenceBuilder{}
}

func (b *readerTestSequenceBuilder) on(in string) *readerTestSequenceBuilder {
	b.seq = append(b.seq, readerTestSequence{in: []byte(in)})
	return b
}

func (b *readerTestSequenceBuilder) onRepeat(c byte, n int) *readerTestSequenceBuilder {
	return b.on(strings.Repeat(string(c), n))
}

func (b *readerTestSequenceBuilder) final(res Result, state readState) *readerTestSequenceBuilder {
	b.seq[len(b.seq)-1].final, b.seq[len(b.seq)-1].state = res, state
	return b
}

func (b *readerTestSequenceBuilder) pending() *readerTestSequenceBuilder {
	return b.final(Result{}, stateLine)
}

func (b *readerTestSequenceBuilder) line(s string) *readerTestSequenceBuilder {
	return b.final(Result{Line: []byte(s)}, stateLine)
}

func (b *readerTestSequenceBuilder) overflow() *readerTestSequenceBuilder {
	return b.final(Result{Overflow: true}, stateOverflow)
}

func (b *readerTestSequenceBuilder) discarding() *readerTestSequenceBuilder {
	return b.final(Result{}, stateOverflow)
}

func (b *readerTestSequenceBuilder) recovered() *readerTestSequenceBuilder {
	return b.final(Result{}, stateLine)
}

func (b *readerTestSequenceBuilder) resync() *readerTestSequenceBuilder {
	return b.final(Result{Resync: true}, stateLine)
}

func (b *readerTestSequenceBuilder) build() []readerTestSequence {
	return b.seq
}

func TestReaderParse(t *testing.T) {
	testCases := []struct {
		name string
		seq  []readerTestSequence
	}{
		{
			name: "single lines",
			seq: readerTestSequences().
				on("a\n").line("a").
				on("d100\n").line("d100").
				on("p-720\n").line("p-720").
				build(),
		},
		{
			name: "empty line",
			seq: readerTestSequences().
				on("\n").line("").
				build(),
		},
		{
			name: "partial line",
			seq: readerTestSequences().
				on("f5").pending().
				on("0").pending().
				on("\n").line("f50").
				build(),
		},
		{
			name: "longest line fits",
			seq: readerTestSequences().
				onRepeat('x', Capacity-1).pending().
				on("\n").line(strings.Repeat("x", Capacity-1)).
				build(),
		},
		{
			name: "overflow and recover at terminator",
			seq: readerTestSequences().
				onRepeat('x', Capacity).overflow().
				onRepeat('x', 20).discarding().
				on("\n").recovered().
				on("a\n").line("a").
				build(),
		},
		{
			name: "overflow forced resync",
			seq: readerTestSequences().
				onRepeat('x', Capacity).overflow().
				onRepeat('x', Capacity-1).discarding().
				on("x").resync().
				on("u\n").line("u").
				build(),
		},
		{
			name: "carriage return is content",
			seq: readerTestSequences().
				on("a\r\n").line("a\r").
				build(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReader(Capacity)
			for n, s := range tc.seq {
				var res Result
				for i, b := range s.in {
					res = r.Parse(b)
					if i+1 < len(s.in) {
						require.Falsef(t, res.Yield(), "seq[%d][%d] unexpected result %+v", n, i, res)
					}
				}
				require.Equalf(t, s.final, res, "seq[%d] final mismatch", n)
				require.Equalf(t, s.state, r.state, "seq[%d] state mismatch", n)
				require.True(t, r.cursor <= r.Capacity())
			}
		})
	}
}

type byteSource struct {
	data []byte
	err  error
}

func (s *byteSource) ReadByte() (byte, error) {
	if len(s.data) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		return 0, ErrNoData
	}
	b := s.data[0]
	s.data = s.data[1:]
	return b, nil
}

func (s *byteSource) push(str string) {
	s.data = append(s.data, str...)
}

type handlerRecorder struct {
	lines     []string
	overflows int
}

func (h *handlerRecorder) HandleLine(line []byte) {
	h.lines = append(h.lines, string(line))
}

func (h *handlerRecorder) HandleOverflow() {
	h.overflows++
}

func TestFeedOneLinePerCall(t *testing.T) {
	src := &byteSource{}
	src.push("a\nd100\nf50\n")
	var h handlerRecorder
	r := NewReader(Capacity)

	require.NoError(t, r.Feed(src, &h))
	require.Equal(t, []string{"a"}, h.lines)
	require.NoError(t, r.Feed(src, &h))
	require.NoError(t, r.Feed(src, &h))
	require.Equal(t, []string{"a", "d100", "f50"}, h.lines)
	require.NoError(t, r.Feed(src, &h))
	require.Len(t, h.lines, 3)
}

func TestFeedNoTerminatorNoDispatch(t *testing.T) {
	for n := 0; n < Capacity; n++ {
		src := &byteSource{data: bytes.Repeat([]byte{'x'}, n)}
		var h handlerRecorder
		r := NewReader(Capacity)
		require.NoError(t, r.Feed(src, &h))
		require.Empty(t, h.lines)
		require.Zero(t, h.overflows)
		require.Equal(t, n, r.Len())
	}
}

func TestFeedOverflowRecovery(t *testing.T) {
	src := &byteSource{}
	src.push(strings.Repeat("x", 100))
	var h handlerRecorder
	r := NewReader(Capacity)

	require.NoError(t, r.Feed(src, &h))
	require.Equal(t, 1, h.overflows)
	require.True(t, r.Overflowing())
	require.NoError(t, r.Feed(src, &h))
	require.True(t, r.Overflowing(), "overflow persists across Feed calls")

	src.push("\na\n")
	require.NoError(t, r.Feed(src, &h))
	require.False(t, r.Overflowing())
	require.Equal(t, []string{"a"}, h.lines)
	require.Equal(t, 1, h.overflows)
}

func TestFeedOverflowOncePerLongLine(t *testing.T) {
	for _, n := range []int{Capacity, Capacity + 1, 2*Capacity - 1} {
		src := &byteSource{}
		src.push(strings.Repeat("x", n) + "\nz\n")
		var h handlerRecorder
		r := NewReader(Capacity)
		for i := 0; i < 10; i++ {
			require.NoError(t, r.Feed(src, &h))
		}
		require.Equalf(t, 1, h.overflows, "len=%d", n)
		require.Equalf(t, []string{"z"}, h.lines, "len=%d", n)
	}
}

func TestFeedResyncThenTerminator(t *testing.T) {
	src := &byteSource{}
	src.push(strings.Repeat("x", 2*Capacity) + "\nz\n")
	var h handlerRecorder
	r := NewReader(Capacity)
	for i := 0; i < 10; i++ {
		require.NoError(t, r.Feed(src, &h))
	}
	require.Equal(t, 1, h.overflows)
	require.Equal(t, []string{"", "z"}, h.lines)
}

func TestFeedFloodDoesNotStarve(t *testing.T) {
	src := &byteSource{data: bytes.Repeat([]byte{'x'}, 10*Capacity)}
	var h handlerRecorder
	r := NewReader(Capacity)
	require.NoError(t, r.Feed(src, &h))
	require.Len(t, src.data, 9*Capacity)
	require.NoError(t, r.Feed(src, &h))
	require.Len(t, src.data, 8*Capacity, "forced resync yields")
}

func TestFeedSourceError(t *testing.T) {
	src := &byteSource{err: io.EOF}
	src.push("a")
	var h handlerRecorder
	r := NewReader(Capacity)
	require.Equal(t, io.EOF, r.Feed(src, &h))

	boom := errors.New("boom")
	require.Equal(t, boom, r.Feed(&byteSource{err: boom}, &h))
}

func TestNewReaderPanicsOnTinyCapacity(t *testing.T) {
	require.Panics(t, func() { NewReader(1) })
	require.Equal(t, 2, NewReader(2).Capacity())
}
