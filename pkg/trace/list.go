package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoMarker is returned by Open and New when Options.RequireMarker is set
// and no line carries the start marker.
var ErrNoMarker = errors.New("start marker not found")

// maxLineLen bounds a single trace line.
const maxLineLen = 1 << 20

// Options control where the normalized stream of a List starts.
type Options struct {
	Marker        uint16 // address to align on, searched as " <hex>: "
	HasMarker     bool
	RequireMarker bool      // fail instead of starting at line 0
	Skip          int       // fixed number of lines to skip when HasMarker is false
	Log           io.Writer // diagnostics; nil discards them
}

// record is one produced Operation and the raw line it came from.
type record struct {
	op  Operation
	raw int
}

// List is a lazily parsed, deduplicated view over a trace log. Records are
// produced by Next and cached so that earlier indices stay addressable.
type List struct {
	Label string

	lines       []string
	skip        int
	markerFound bool

	cur   Cursor
	cache []record
}

// Open reads the trace at path.
func Open(path, label string, opts Options) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	defer f.Close()
	return New(f, label, opts)
}

// New reads a whole trace from r.
func New(r io.Reader, label string, opts Options) (*List, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLen)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: read: %w", label, err)
	}

	l := &List{Label: label, lines: lines}
	log := opts.Log
	if log == nil {
		log = io.Discard
	}

	switch {
	case opts.HasMarker:
		pat := fmt.Sprintf(" %x: ", opts.Marker)
		for i, line := range lines {
			if strings.Contains(line, pat) {
				l.skip = i
				l.markerFound = true
				break
			}
		}
		if !l.markerFound {
			if opts.RequireMarker {
				return nil, fmt.Errorf("%s: %w: %x", label, ErrNoMarker, opts.Marker)
			}
			fmt.Fprintf(log, "%s: marker %x not found, starting at line 0\n", label, opts.Marker)
		} else {
			fmt.Fprintf(log, "%s: skipped %d lines\n", label, l.skip)
		}
	case opts.Skip > 0:
		l.skip = min(opts.Skip, len(lines))
		fmt.Fprintf(log, "%s: skipped %d lines\n", label, l.skip)
	}

	return l, nil
}

// Next produces the next normalized Operation. ok is false at the end of the
// trace, which is not an error.
func (l *List) Next() (op Operation, ok bool, err error) {
	step, cur, ok := Advance(l.lines, l.skip, l.cur)
	if !ok {
		l.cur = cur
		return Operation{}, false, nil
	}
	op, err = Parse(step.Line)
	if err != nil {
		return Operation{}, false, fmt.Errorf("%s: line %d: %w", l.Label, step.Raw+1, err)
	}
	l.cur = cur
	l.cache = append(l.cache, record{op: op, raw: step.Raw})
	return op, true, nil
}

// Reset rewinds iteration to normalized index 0 and drops the cache.
func (l *List) Reset() {
	l.cur = Cursor{}
	l.cache = nil
}

// Cursor returns the current iteration state.
func (l *List) Cursor() Cursor {
	return l.cur
}

// At returns the Operation at normalized index i. It does not advance:
// indices not yet produced by Next report false.
func (l *List) At(i int) (Operation, bool) {
	if i < 0 || i >= len(l.cache) {
		return Operation{}, false
	}
	return l.cache[i].op, true
}

// RawIndex maps normalized index i to a raw line index using the running
// offset as it is now. Only meaningful for the most recently produced index;
// LineOf is exact for all of them.
func (l *List) RawIndex(i int) int {
	return l.skip + i + l.cur.Offset
}

// LineOf returns the raw line index normalized index i was read from.
func (l *List) LineOf(i int) (int, bool) {
	if i < 0 || i >= len(l.cache) {
		return 0, false
	}
	return l.cache[i].raw, true
}

// Len returns the number of Operations produced so far.
func (l *List) Len() int {
	return l.cur.Index
}

// Skipped returns the lines skipped to reach the start marker plus the lines
// filtered out since.
func (l *List) Skipped() int {
	return l.skip + l.cur.Offset
}

// SkipOffset returns the number of raw lines before normalized index 0.
func (l *List) SkipOffset() int {
	return l.skip
}

// MarkerFound reports whether the start marker was located. It is false when
// no marker was requested.
func (l *List) MarkerFound() bool {
	return l.markerFound
}

// RawLen returns the number of raw lines loaded.
func (l *List) RawLen() int {
	return len(l.lines)
}
