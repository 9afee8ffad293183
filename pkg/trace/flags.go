package trace

// Flags holds the K1801VM1 condition codes that appear in traces.
type Flags uint8

const (
	FlagC Flags = 0x01 // Carry
	FlagV Flags = 0x02 // Overflow
	FlagZ Flags = 0x04 // Zero
	FlagN Flags = 0x08 // Negative
)

// flagOrder is the order flags are rendered in, matching trace output.
var flagOrder = [...]struct {
	ch   byte
	flag Flags
}{
	{'N', FlagN},
	{'Z', FlagZ},
	{'V', FlagV},
	{'C', FlagC},
}

// ParseFlags returns the set of flags whose letter occurs anywhere in tok.
func ParseFlags(tok string) Flags {
	var f Flags
	for _, fo := range flagOrder {
		for i := 0; i < len(tok); i++ {
			if tok[i] == fo.ch {
				f |= fo.flag
				break
			}
		}
	}
	return f
}

// Has reports whether every flag in m is set.
func (f Flags) Has(m Flags) bool {
	return f&m == m
}

// String renders the flags as "NZVC" with '-' for clear bits.
func (f Flags) String() string {
	b := make([]byte, len(flagOrder))
	for i, fo := range flagOrder {
		if f&fo.flag != 0 {
			b[i] = fo.ch
		} else {
			b[i] = '-'
		}
	}
	return string(b)
}
