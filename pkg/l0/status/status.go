// Package status defines the status lines reported over the command link.
//
// Every status line starts with a three-digit code followed by a single
// space and a human-readable message. 1xx are informational, 2xx indicate
// success and 5xx indicate a rejected command or a hazard.
package status

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
)

// Code is the three-digit status code.
type Code int

// Status codes.
const (
	CodeBanner          Code = 100
	CodeFocusDone       Code = 200
	CodeFocusZeroed     Code = 201 // fixed-output variant
	CodeHelp            Code = 202
	CodeOK              Code = 203
	CodeFocusRotate     Code = 204
	CodeFired           Code = 205
	CodeDutyCycle       Code = 206
	CodeArmed           Code = 207
	CodeUnarmed         Code = 208
	CodeFocusZeroedPWM  Code = 209 // variable-duty variant
	CodeUnknownCommand  Code = 501
	CodeBusy            Code = 503
	CodeOverflow        Code = 510
	CodeEmergencyStop   Code = 520 // variable-duty variant
	CodeMaxRotation     Code = 521
	CodeEmergencyStopFO Code = 521 // fixed-output variant
	CodePositionLost    Code = 522
	CodeNotArmed        Code = 530
	CodeFireAborted     Code = 532
)

// IsError indicates the code reports a rejection or hazard.
func (c Code) IsError() bool {
	return c >= 500 && c < 600
}

// IsInfo indicates the code is informational.
func (c Code) IsInfo() bool {
	return c >= 100 && c < 200
}

// Line is a single status line.
type Line struct {
	Code Code
	Text string
}

// New creates a Line with formatted message.
func New(code Code, format string, args ...interface{}) Line {
	if len(args) == 0 {
		return Line{Code: code, Text: format}
	}
	return Line{Code: code, Text: fmt.Sprintf(format, args...)}
}

// String implements fmt.Stringer, without line terminator.
func (l Line) String() string {
	return fmt.Sprintf("%03d %s", int(l.Code), l.Text)
}

// ErrMalformed indicates the text is not a status line.
var ErrMalformed = errors.New("malformed status line")

// Parse parses a status line. Trailing CR/LF are ignored.
func Parse(s string) (Line, error) {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	if len(s) < 3 || (len(s) > 3 && s[3] != ' ') {
		return Line{}, ErrMalformed
	}
	code, err := strconv.Atoi(s[:3])
	if err != nil || code < 100 {
		return Line{}, ErrMalformed
	}
	l := Line{Code: Code(code)}
	if len(s) > 4 {
		l.Text = s[4:]
	}
	return l, nil
}

// Sink receives status lines.
type Sink interface {
	Emit(Line)
}

// SinkFunc is the func form of Sink.
type SinkFunc func(Line)

// Emit implements Sink.
func (f SinkFunc) Emit(l Line) {
	f(l)
}

// Tee fans out status lines to multiple sinks in order.
type Tee []Sink

// Emit implements Sink.
func (t Tee) Emit(l Line) {
	for _, s := range t {
		s.Emit(l)
	}
}

// Writer writes status lines terminated by "\n" to W.
// Write errors are kept and returned by Err, subsequent lines
// are still attempted as the link may recover.
type Writer struct {
	W io.Writer

	lock sync.Mutex
	err  error
}

// NewWriter creates a Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{W: w}
}

// Emit implements Sink.
func (w *Writer) Emit(l Line) {
	w.lock.Lock()
	defer w.lock.Unlock()
	if _, err := io.WriteString(w.W, l.String()+"\n"); err != nil {
		w.err = err
	}
}

// Err returns the last write error.
func (w *Writer) Err() error {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.err
}

// Recorder keeps every emitted line in memory.
type Recorder struct {
	Lines []Line
}

// Emit implements Sink.
func (r *Recorder) Emit(l Line) {
	r.Lines = append(r.Lines, l)
}

// Codes lists recorded codes.
func (r *Recorder) Codes() []Code {
	codes := make([]Code, len(r.Lines))
	for n, l := range r.Lines {
		codes[n] = l.Code
	}
	return codes
}

// Strings lists recorded lines as strings.
func (r *Recorder) Strings() []string {
	strs := make([]string, len(r.Lines))
	for n, l := range r.Lines {
		strs[n] = l.String()
	}
	return strs
}

// Reset clears recorded lines.
func (r *Recorder) Reset() {
	r.Lines = nil
}
