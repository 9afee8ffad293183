package compare

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/oisee/tracecmp/pkg/result"
	"github.com/oisee/tracecmp/pkg/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lists(t *testing.T, ref, cand []string) (*trace.List, *trace.List) {
	t.Helper()
	r, err := trace.New(strings.NewReader(strings.Join(ref, "\n")), "reference", trace.Options{})
	require.NoError(t, err)
	c, err := trace.New(strings.NewReader(strings.Join(cand, "\n")), "candidate", trace.Options{})
	require.NoError(t, err)
	return r, c
}

func TestRunMismatch(t *testing.T) {
	ref, cand := lists(t,
		[]string{"NZ r0=0001 0010:", "NZ r0=0001 0011:"},
		[]string{"NZ r0=0001 0010:", "NZ r0=0002 0011:"},
	)

	rep, err := Run(ref, cand, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, result.Mismatch, rep.Stop)
	assert.Equal(t, 1, rep.Index)
	assert.Equal(t, []string{"r0 0001!=0002"}, rep.Diff)
	assert.Zero(t, rep.Suppressed)

	assert.Equal(t, []result.Line{
		{Number: 1, Text: "NZ r0=0001 0010:"},
		{Number: 2, Text: "NZ r0=0001 0011:"},
	}, rep.Reference.Context)
	assert.Equal(t, []result.Line{
		{Number: 1, Text: "NZ r0=0001 0010:"},
		{Number: 2, Text: "NZ r0=0002 0011:"},
	}, rep.Candidate.Context)
	assert.Equal(t, "reference", rep.Reference.Label)
	assert.Equal(t, "candidate", rep.Candidate.Label)
}

func TestRunIdentical(t *testing.T) {
	lines := []string{"N 0010:", "Z 0012:", "Z 0012:", "C 0014:"}
	ref, cand := lists(t, lines, []string{"N 0010:", "Init", "Z 0012:", "C 0014:"})

	rep, err := Run(ref, cand, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, result.Identical, rep.Stop)
	assert.Equal(t, 3, rep.Index)
	assert.Equal(t, 1, rep.Reference.Skipped)
	assert.Equal(t, 1, rep.Candidate.Skipped)
}

func TestRunEnded(t *testing.T) {
	long := []string{"N 0010:", "Z 0012:", "C 0014:"}
	short := long[:2]

	ref, cand := lists(t, long, short)
	rep, err := Run(ref, cand, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, result.CandidateEnded, rep.Stop)
	assert.Equal(t, 2, rep.Index)
	assert.Equal(t, 3, rep.Reference.Len)
	assert.Equal(t, 2, rep.Candidate.Len)
	assert.Equal(t, "candidate ended: 2", rep.Summary())

	ref, cand = lists(t, short, long)
	rep, err = Run(ref, cand, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, result.ReferenceEnded, rep.Stop)
	assert.Equal(t, 2, rep.Index)
	assert.Equal(t, "reference ended: 2", rep.Summary())
}

func TestRunSentinel(t *testing.T) {
	ref := []string{"N 84a4:", "N r0=0001 84a6:", "N r0=0005 84a8:"}
	cand := []string{"N 84a4:", "N r0=0002 84a6:", "N r0=0005 84a8:"}

	r, c := lists(t, ref, cand)
	rep, err := Run(r, c, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, result.Identical, rep.Stop)
	assert.Equal(t, 1, rep.Suppressed)

	r, c = lists(t, ref, cand)
	cfg := DefaultConfig()
	cfg.NoSentinel = true
	rep, err = Run(r, c, cfg)
	require.NoError(t, err)
	assert.Equal(t, result.Mismatch, rep.Stop)
	assert.Equal(t, 1, rep.Index)

	r, c = lists(t, ref, cand)
	cfg = DefaultConfig()
	cfg.Sentinel = 0x1000
	rep, err = Run(r, c, cfg)
	require.NoError(t, err)
	assert.Equal(t, result.Mismatch, rep.Stop)
}

func TestRunSentinelLooksAtPreviousRecord(t *testing.T) {
	// the mismatching record itself carrying the sentinel is not enough
	r, c := lists(t,
		[]string{"N 0010:", "N r0=0001 84a4:"},
		[]string{"N 0010:", "N r0=0002 84a4:"},
	)
	rep, err := Run(r, c, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, result.Mismatch, rep.Stop)

	// nor does a first record mismatch
	r, c = lists(t, []string{"N r0=0001 84a4:"}, []string{"Z r0=0001 84a4:"})
	rep, err = Run(r, c, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, result.Mismatch, rep.Stop)
	assert.Equal(t, 0, rep.Index)
}

func TestRunMask(t *testing.T) {
	r, c := lists(t,
		[]string{"NZ r0=0001 r5=0000 0010:", "N 0012:"},
		[]string{"N r0=0001 r5=ffff 0010:", "N 0012:"},
	)
	cfg := DefaultConfig()
	cfg.Mask = trace.Mask{Regs: 1 << 5, Flags: trace.FlagZ}
	rep, err := Run(r, c, cfg)
	require.NoError(t, err)
	assert.Equal(t, result.Identical, rep.Stop)
}

func TestRunContext(t *testing.T) {
	var ref, cand []string
	for i := 0; i < 7; i++ {
		ref = append(ref, fmt.Sprintf("N %04x:", 0x100+2*i))
		cand = append(cand, fmt.Sprintf("N %04x:", 0x100+2*i))
	}
	cand[6] = "Z 010c:"

	r, c := lists(t, ref, cand)
	rep, err := Run(r, c, DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, result.Mismatch, rep.Stop)
	assert.Equal(t, 6, rep.Index)

	require.Len(t, rep.Reference.Context, DefaultContext)
	assert.Equal(t, 3, rep.Reference.Context[0].Number)
	assert.Equal(t, 7, rep.Reference.Context[4].Number)
	assert.Equal(t, "Z 010c:", rep.Candidate.Context[4].Text)

	r, c = lists(t, ref, cand)
	cfg := DefaultConfig()
	cfg.Context = 2
	rep, err = Run(r, c, cfg)
	require.NoError(t, err)
	assert.Len(t, rep.Candidate.Context, 2)
}

func TestRunProgress(t *testing.T) {
	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, fmt.Sprintf("N %04x:", i))
	}
	r, c := lists(t, lines, lines)

	var log bytes.Buffer
	cfg := DefaultConfig()
	cfg.Progress = 4
	cfg.Log = &log
	_, err := Run(r, c, cfg)
	require.NoError(t, err)
	assert.Equal(t, "compared 4 records\ncompared 8 records\n", log.String())
}

func TestRunParseError(t *testing.T) {
	r, c := lists(t, []string{"N 0010:", "N r0=zzzz"}, []string{"N 0010:", "N 0012:"})
	_, err := Run(r, c, DefaultConfig())
	require.Error(t, err)

	var pe *trace.ParseError
	assert.True(t, errors.As(err, &pe))
}
