package trace

import "strings"

// Cursor is the iteration state over the raw lines of a trace. It is a value:
// Advance returns a new Cursor and never modifies its argument.
type Cursor struct {
	Index  int // normalized records produced
	Offset int // raw lines filtered out so far

	prev    string
	hasPrev bool
}

// Step is one kept line of the normalized stream.
type Step struct {
	Line string // trimmed text
	Raw  int    // index into the raw lines
}

// noisePrefixes mark lines written by the emulator front end rather than
// the CPU.
var noisePrefixes = []string{"Init", "SDL"}

func isNoise(line string) bool {
	if line == "" {
		return true
	}
	for _, p := range noisePrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// Advance reads lines from base+c.Index+c.Offset onwards and returns the next
// line that is neither noise nor a repeat of the previously kept line. The
// boolean is false once lines are exhausted.
func Advance(lines []string, base int, c Cursor) (Step, Cursor, bool) {
	for {
		raw := base + c.Index + c.Offset
		if raw >= len(lines) {
			return Step{}, c, false
		}
		line := strings.TrimSpace(lines[raw])

		if isNoise(line) {
			c.Offset++
			continue
		}
		if c.hasPrev && c.prev == line {
			c.Offset++
			continue
		}

		c.prev, c.hasPrev = line, true
		c.Index++
		return Step{Line: line, Raw: raw}, c, true
	}
}
