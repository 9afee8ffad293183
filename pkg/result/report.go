package result

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Stop is the reason a comparison ended.
type Stop int

const (
	Identical      Stop = iota // both traces ended at the same index
	ReferenceEnded             // reference ran out first
	CandidateEnded             // candidate ran out first
	Mismatch                   // register or flag state diverged
)

var stopNames = [...]string{
	Identical:      "identical",
	ReferenceEnded: "reference-ended",
	CandidateEnded: "candidate-ended",
	Mismatch:       "mismatch",
}

func (s Stop) String() string {
	if s < 0 || int(s) >= len(stopNames) {
		return fmt.Sprintf("stop(%d)", int(s))
	}
	return stopNames[s]
}

func (s Stop) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Stop) UnmarshalText(b []byte) error {
	for i, n := range stopNames {
		if n == string(b) {
			*s = Stop(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stop reason %q", b)
}

// Line is one context line, numbered from 1 as in an editor.
type Line struct {
	Number int    `json:"line"`
	Text   string `json:"text"`
}

// Side summarises one trace at the point the comparison stopped.
type Side struct {
	Label   string `json:"label"`
	Len     int    `json:"len"`     // normalized records produced
	Skipped int    `json:"skipped"` // skip offset plus filtered lines
	RawLen  int    `json:"raw_len"`
	Context []Line `json:"context"`
}

// Report is the outcome of comparing two traces.
type Report struct {
	Stop       Stop     `json:"stop"`
	Index      int      `json:"index"` // normalized index the comparison stopped at
	Diff       []string `json:"diff,omitempty"`
	Suppressed int      `json:"suppressed"` // mismatches skipped by the sentinel rule
	Reference  Side     `json:"reference"`
	Candidate  Side     `json:"candidate"`
}

// Summary is a one line description of why the comparison stopped.
func (r *Report) Summary() string {
	switch r.Stop {
	case Identical:
		return fmt.Sprintf("traces identical: %d records", r.Index)
	case ReferenceEnded:
		return fmt.Sprintf("%s ended: %d", r.Reference.Label, r.Reference.Len)
	case CandidateEnded:
		return fmt.Sprintf("%s ended: %d", r.Candidate.Label, r.Candidate.Len)
	case Mismatch:
		return fmt.Sprintf("mismatch at %d: %s", r.Index, strings.Join(r.Diff, ", "))
	}
	return r.Stop.String()
}

// WriteText renders the report the way it is printed on a terminal.
func (r *Report) WriteText(w io.Writer) error {
	var sb strings.Builder
	writeSide(&sb, &r.Reference)
	sb.WriteString("\n")
	writeSide(&sb, &r.Candidate)
	sb.WriteString("\n")
	sb.WriteString(r.Summary())
	sb.WriteString("\n")
	if r.Suppressed > 0 {
		fmt.Fprintf(&sb, "(%d known mismatches suppressed)\n", r.Suppressed)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeSide(sb *strings.Builder, s *Side) {
	fmt.Fprintf(sb, "----------- %s=%d\n", s.Label, s.Len+s.Skipped)
	for _, l := range s.Context {
		fmt.Fprintf(sb, "%d: %s\n", l.Number, l.Text)
	}
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// ReadJSON reads a report written by WriteJSON.
func ReadJSON(rd io.Reader) (*Report, error) {
	var r Report
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}
