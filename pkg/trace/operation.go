package trace

import (
	"fmt"
	"strings"
)

// NumRegs is the number of general purpose registers, R0..R7.
const NumRegs = 8

// RegPC is the register a trailing "LABEL:" token is stored in.
const RegPC = 7

// Registers is a sparse register file: only registers named on the trace
// line are present. It is comparable with ==.
type Registers struct {
	vals    [NumRegs]uint16
	present uint8
}

// Set stores v in register r. Register 2 always reads as 0: the reference
// emulator reports garbage there.
func (r *Registers) Set(reg int, v uint16) {
	if reg == 2 {
		v = 0
	}
	r.vals[reg] = v
	r.present |= 1 << reg
}

// Get returns the value of register reg and whether the line named it.
func (r Registers) Get(reg int) (uint16, bool) {
	if reg < 0 || reg >= NumRegs || r.present&(1<<reg) == 0 {
		return 0, false
	}
	return r.vals[reg], true
}

// Len returns the number of registers present.
func (r Registers) Len() int {
	n := 0
	for i := 0; i < NumRegs; i++ {
		if r.present&(1<<i) != 0 {
			n++
		}
	}
	return n
}

// Mask selects registers and flags that are left out of a comparison.
// A set bit in Regs means that register is ignored.
type Mask struct {
	Regs  uint8
	Flags Flags
}

// Operation is the machine state recorded by one trace line.
type Operation struct {
	Line  string
	Flags Flags
	Regs  Registers
}

// Equal reports whether both operations carry the same registers and flags.
// The source text is not compared.
func (o Operation) Equal(other Operation) bool {
	return o.Regs == other.Regs && o.Flags == other.Flags
}

// EqualMasked is Equal with the registers and flags in m ignored.
func (o Operation) EqualMasked(other Operation, m Mask) bool {
	if m == (Mask{}) {
		return o.Equal(other)
	}
	if (o.Flags &^ m.Flags) != (other.Flags &^ m.Flags) {
		return false
	}
	for i := 0; i < NumRegs; i++ {
		if m.Regs&(1<<i) != 0 {
			continue
		}
		a, aok := o.Regs.Get(i)
		b, bok := other.Regs.Get(i)
		if aok != bok || a != b {
			return false
		}
	}
	return true
}

// Reg is shorthand for o.Regs.Get.
func (o Operation) Reg(r int) (uint16, bool) {
	return o.Regs.Get(r)
}

// Diff describes every register and flag that differs from other,
// e.g. "r0 0001!=0002" or "flags NZ--!=N---".
func (o Operation) Diff(other Operation) []string {
	var out []string
	if o.Flags != other.Flags {
		out = append(out, fmt.Sprintf("flags %s!=%s", o.Flags, other.Flags))
	}
	for i := 0; i < NumRegs; i++ {
		a, aok := o.Regs.Get(i)
		b, bok := other.Regs.Get(i)
		if aok == bok && a == b {
			continue
		}
		out = append(out, fmt.Sprintf("r%d %s!=%s", i, regString(a, aok), regString(b, bok)))
	}
	return out
}

// String renders the parsed state, e.g. "NZ-- r0=0001 r2=0000 r7=0010".
func (o Operation) String() string {
	var sb strings.Builder
	sb.WriteString(o.Flags.String())
	for i := 0; i < NumRegs; i++ {
		if v, ok := o.Regs.Get(i); ok {
			fmt.Fprintf(&sb, " r%d=%04x", i, v)
		}
	}
	return sb.String()
}

func regString(v uint16, ok bool) string {
	if !ok {
		return "----"
	}
	return fmt.Sprintf("%04x", v)
}

// ParseError is returned when a register or label token holds a value that
// is not hexadecimal.
type ParseError struct {
	Line  string
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("parse %q: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse %q: token %q: %v", e.Line, e.Token, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// minRegValue is the shortest value field accepted in an "rN=" token.
const minRegValue = 4

// Parse converts one trimmed trace line into an Operation.
//
// The first whitespace separated field is the flags field. Of the rest,
// "rN=XXXX" fields set register N and a field ending in ':' sets R7 (the
// address the line was logged at). Anything else is ignored.
func Parse(line string) (Operation, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Operation{}, &ParseError{Line: line, Err: fmt.Errorf("empty line")}
	}

	op := Operation{Line: line, Flags: ParseFlags(fields[0])}

	for _, f := range fields[1:] {
		if reg, val, ok := regToken(f); ok {
			v, err := parseHex16(val)
			if err != nil {
				return Operation{}, &ParseError{Line: line, Token: f, Err: err}
			}
			op.Regs.Set(reg, v)
		} else if strings.HasSuffix(f, ":") {
			v, err := parseHex16(f[:len(f)-1])
			if err != nil {
				return Operation{}, &ParseError{Line: line, Token: f, Err: err}
			}
			op.Regs.Set(RegPC, v)
		}
	}
	return op, nil
}

// regToken splits "rN=VVVV" into its register number and value field.
func regToken(f string) (int, string, bool) {
	if len(f) < 3+minRegValue || f[0] != 'r' || f[2] != '=' {
		return 0, "", false
	}
	if f[1] < '0' || f[1] > '7' {
		return 0, "", false
	}
	return int(f[1] - '0'), f[3:], true
}

// parseHex16 parses an arbitrarily long hex number and keeps the low 16 bits.
func parseHex16(s string) (uint16, error) {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if s == "" {
		return 0, fmt.Errorf("empty hex value")
	}
	var v uint16
	for i := 0; i < len(s); i++ {
		d, ok := hexDigit(s[i])
		if !ok {
			return 0, fmt.Errorf("invalid hex value %q", s)
		}
		v = v<<4 | uint16(d)
	}
	return v, nil
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
