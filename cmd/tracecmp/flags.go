package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/oisee/tracecmp/pkg/trace"
	"github.com/spf13/pflag"
)

// hexValue is a pflag.Value holding a 16-bit hex number such as "ccee",
// "0xccee" or "ccee:". An empty string clears it.
type hexValue struct {
	v   uint16
	set bool
}

func newHexValue(def uint16) *hexValue {
	return &hexValue{v: def, set: true}
}

func (h *hexValue) String() string {
	if !h.set {
		return ""
	}
	return fmt.Sprintf("%x", h.v)
}

func (h *hexValue) Set(s string) error {
	s = strings.TrimSuffix(strings.TrimSpace(s), ":")
	if s == "" {
		h.v, h.set = 0, false
		return nil
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return fmt.Errorf("invalid hex value %q", s)
	}
	h.v, h.set = uint16(v), true
	return nil
}

func (h *hexValue) Type() string { return "hex" }

// startFlags choose where each trace starts.
type startFlags struct {
	start         *hexValue
	skip          int
	requireMarker bool
}

func addStartFlags(fs *pflag.FlagSet, sf *startFlags) {
	sf.start = newHexValue(defaultStart)
	fs.Var(sf.start, "start", "Start marker address in hex (empty = no marker)")
	fs.IntVar(&sf.skip, "skip", 0, "Fixed number of lines to skip when no start marker is given")
	fs.BoolVar(&sf.requireMarker, "require-marker", false, "Fail if the start marker is missing from a trace")
}

func (sf *startFlags) options(log io.Writer) trace.Options {
	return trace.Options{
		Marker:        sf.start.v,
		HasMarker:     sf.start.set,
		RequireMarker: sf.requireMarker,
		Skip:          sf.skip,
		Log:           log,
	}
}

// parseMask builds a comparison mask from register numbers and flag letters.
func parseMask(regs []int, flags string) (trace.Mask, error) {
	var m trace.Mask
	for _, r := range regs {
		if r < 0 || r >= trace.NumRegs {
			return m, fmt.Errorf("register %d out of range 0-%d", r, trace.NumRegs-1)
		}
		m.Regs |= 1 << r
	}
	for _, c := range strings.ToUpper(flags) {
		if !strings.ContainsRune("NZVC", c) {
			return m, fmt.Errorf("unknown flag %q", c)
		}
	}
	m.Flags = trace.ParseFlags(strings.ToUpper(flags))
	return m, nil
}
