package compare

import (
	"fmt"
	"io"

	"github.com/oisee/tracecmp/pkg/result"
	"github.com/oisee/tracecmp/pkg/trace"
)

const (
	DefaultContext = 5

	// DefaultSentinel is the R7 value after which the next mismatch is a
	// known false positive of the reference emulator.
	DefaultSentinel uint16 = 0x84a4
)

// Config holds comparison settings.
type Config struct {
	Context    int        // lines of context printed per side
	Sentinel   uint16     // R7 value that suppresses the following mismatch
	NoSentinel bool       // report every mismatch
	Mask       trace.Mask // registers and flags left out of the comparison
	Progress   int        // print a counter every Progress records (0 = never)
	Log        io.Writer  // progress output; nil discards it
}

// DefaultConfig returns the settings used by the command line tool.
func DefaultConfig() Config {
	return Config{
		Context:  DefaultContext,
		Sentinel: DefaultSentinel,
	}
}

// Run walks ref and cand in lockstep from their current position and stops
// at the first mismatch or when either trace ends.
func Run(ref, cand *trace.List, cfg Config) (*result.Report, error) {
	if cfg.Context <= 0 {
		cfg.Context = DefaultContext
	}
	log := cfg.Log
	if log == nil {
		log = io.Discard
	}

	rep := &result.Report{}
	i := ref.Len()

	for {
		r, rok, err := ref.Next()
		if err != nil {
			return nil, err
		}
		if !rok {
			_, cok, err := cand.Next()
			if err != nil {
				return nil, err
			}
			rep.Stop = result.ReferenceEnded
			if !cok {
				rep.Stop = result.Identical
			}
			break
		}

		c, cok, err := cand.Next()
		if err != nil {
			return nil, err
		}
		if !cok {
			rep.Stop = result.CandidateEnded
			break
		}

		if !r.EqualMasked(c, cfg.Mask) {
			if knownMismatch(ref, i, cfg) {
				rep.Suppressed++
				i++
				continue
			}
			rep.Stop = result.Mismatch
			rep.Diff = r.Diff(c)
			break
		}

		i++
		if cfg.Progress > 0 && i%cfg.Progress == 0 {
			fmt.Fprintf(log, "compared %d records\n", i)
		}
	}

	rep.Index = i
	rep.Reference = side(ref, cfg.Context)
	rep.Candidate = side(cand, cfg.Context)
	return rep, nil
}

// knownMismatch reports whether the reference record before index i has R7
// set to the sentinel.
func knownMismatch(ref *trace.List, i int, cfg Config) bool {
	if cfg.NoSentinel || i == 0 {
		return false
	}
	prev, ok := ref.At(i - 1)
	if !ok {
		return false
	}
	pc, ok := prev.Reg(trace.RegPC)
	return ok && pc == cfg.Sentinel
}

// side collects the last n produced records of l.
func side(l *trace.List, n int) result.Side {
	s := result.Side{
		Label:   l.Label,
		Len:     l.Len(),
		Skipped: l.Skipped(),
		RawLen:  l.RawLen(),
	}
	for j := max(0, l.Len()-n); j < l.Len(); j++ {
		op, _ := l.At(j)
		raw, _ := l.LineOf(j)
		s.Context = append(s.Context, result.Line{Number: raw + 1, Text: op.Line})
	}
	return s
}
