package laser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/robotalks/laserctl/pkg/l0/command"
)

func TestLine(t *testing.T) {
	assert.Equal(t, "a", Line(command.OpArm))
	assert.Equal(t, "f50", Line(command.OpFire, 50))
	assert.Equal(t, "p-90", Line(command.OpFocus, -90))

	cmd, ok := command.Parse([]byte(Line(command.OpFocus, -90)))
	assert.True(t, ok)
	assert.Equal(t, command.Command{Op: command.OpFocus, Arg: -90}, cmd)
}
