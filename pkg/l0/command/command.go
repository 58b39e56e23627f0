// Package command parses command lines and dispatches them to device operations.
package command

import "math"

// Opcodes
const (
	OpEmergencyStop byte = 'e'
	OpArm           byte = 'a'
	OpUnarm         byte = 'u'
	OpDutyCycle     byte = 'd'
	OpFire          byte = 'f'
	OpFocus         byte = 'p'
	OpZeroFocus     byte = 'z'
	OpHelp          byte = 'h'
)

// Command is a parsed command line.
type Command struct {
	Op  byte
	Arg int
}

// Parse parses a line (without terminator) into a Command.
// It returns false for an empty line. The argument follows atoi
// semantics: unparsable or missing arguments are 0.
func Parse(line []byte) (Command, bool) {
	if len(line) == 0 {
		return Command{}, false
	}
	return Command{Op: line[0], Arg: Atoi(line[1:])}, true
}

// Atoi converts the leading decimal integer of s like the C library atoi:
// leading blanks are skipped, an optional sign is accepted and conversion
// stops at the first non-digit. It returns 0 if no digits are found and
// saturates at the int32 range.
func Atoi(s []byte) int {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	var n int64
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int64(s[i]-'0')
		if n > math.MaxInt32+1 {
			n = math.MaxInt32 + 1
		}
	}
	if neg {
		n = -n
	} else if n > math.MaxInt32 {
		n = math.MaxInt32
	}
	return int(n)
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
