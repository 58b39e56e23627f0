// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/laserctl/pkg/cli/cmds/laser"
)
