package client

import (
	"fmt"
	"io"
	"strings"

	"github.com/Masterminds/semver"
	"golang.org/x/net/websocket"

	"github.com/robotalks/laserctl/pkg/l0/port"
	"github.com/robotalks/laserctl/pkg/l0/status"
)

// DefaultOrigin is the origin used to dial websocket links.
const DefaultOrigin = "http://localhost/"

// Dial connects to a websocket URL (ws:// or wss://) or opens a serial
// device.
func Dial(target string, baud int) (io.ReadWriteCloser, error) {
	if strings.HasPrefix(target, "ws://") || strings.HasPrefix(target, "wss://") {
		conn, err := websocket.Dial(target, "", DefaultOrigin)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %v", target, err)
		}
		return conn, nil
	}
	return port.Open(target, baud)
}

// Banner is the parsed startup banner.
type Banner struct {
	Product string
	Version *semver.Version
	Contact string
}

// ParseBanner parses a 100 status line.
func ParseBanner(l status.Line) (*Banner, error) {
	if l.Code != status.CodeBanner {
		return nil, fmt.Errorf("not a banner: %s", l)
	}
	parts := strings.SplitN(l.Text, ", ", 3)
	if len(parts) < 2 || !strings.HasPrefix(parts[1], "v") {
		return nil, fmt.Errorf("malformed banner: %s", l)
	}
	ver, err := semver.NewVersion(strings.TrimPrefix(parts[1], "v"))
	if err != nil {
		return nil, fmt.Errorf("banner version: %v", err)
	}
	b := &Banner{Product: parts[0], Version: ver}
	if len(parts) > 2 {
		b.Contact = parts[2]
	}
	return b, nil
}

// Check verifies the version satisfies a constraint like ">= 1.0, < 2".
func (b *Banner) Check(constraint string) error {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return err
	}
	if !c.Check(b.Version) {
		return fmt.Errorf("controller version %s doesn't satisfy %s", b.Version, constraint)
	}
	return nil
}
