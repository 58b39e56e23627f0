package port

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.bug.st/serial"
)

// DefaultBaudRate is the default serial baud rate.
const DefaultBaudRate = 9600

// StdioName selects stdin/stdout as the transport.
const StdioName = "-"

// Stream is a Runnable pumping a single connection, like a serial line.
// The Port is closed when the connection ends.
type Stream struct {
	Port *Port
	Desc string
	Conn io.ReadWriteCloser
}

// Name implements Named.
func (s *Stream) Name() string {
	return s.Desc
}

// Run implements Runnable.
func (s *Stream) Run(ctx context.Context) error {
	err := s.Port.Pump(ctx, s.Conn)
	if err == context.Canceled {
		s.Port.CloseWith(ErrClosed)
	} else {
		s.Port.CloseWith(err)
	}
	if err == io.EOF {
		return nil
	}
	return err
}

// OpenSerial opens a serial device with 8N1 framing.
func OpenSerial(name string, baud int) (io.ReadWriteCloser, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	mode := serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	conn, err := serial.Open(name, &mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %v", name, err)
	}
	return conn, nil
}

// ListSerial lists serial devices on the system.
func ListSerial() ([]string, error) {
	return serial.GetPortsList()
}

type stdio struct {
	io.Reader
	io.Writer
}

func (s *stdio) Close() error {
	return os.Stdin.Close()
}

// Stdio uses stdin and stdout as a connection.
func Stdio() io.ReadWriteCloser {
	return &stdio{Reader: os.Stdin, Writer: os.Stdout}
}

// Open opens a serial device, or stdio if name is StdioName.
func Open(name string, baud int) (io.ReadWriteCloser, error) {
	if name == StdioName {
		return Stdio(), nil
	}
	return OpenSerial(name, baud)
}

// NewStream opens a connection by name and wraps it as a Stream on p.
func NewStream(p *Port, name string, baud int) (*Stream, error) {
	conn, err := Open(name, baud)
	if err != nil {
		return nil, err
	}
	return &Stream{Port: p, Desc: "port:" + name, Conn: conn}, nil
}
