package main

import (
	"fmt"
	"io"
	"os"

	"github.com/oisee/tracecmp/pkg/compare"
	"github.com/oisee/tracecmp/pkg/result"
	"github.com/oisee/tracecmp/pkg/trace"
	"github.com/spf13/cobra"
)

const (
	defaultStart     uint16 = 0xccee
	defaultReference        = "000_new"
	defaultCandidate        = "000_yoba"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "tracecmp",
		Short:        "K1801VM1 trace comparator: find where an emulator diverges from a reference",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newCompareCmd(), newDumpCmd(), newShowCmd())
	return rootCmd
}

func newCompareCmd() *cobra.Command {
	var sf startFlags
	var contextLines int
	var sentinel *hexValue
	var noSentinel bool
	var ignoreRegs []int
	var ignoreFlags string
	var jsonOut bool
	var progress int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "compare [reference candidate]",
		Short: "Compare two traces and report the first divergence",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected 0 or 2 trace files, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			refPath, candPath := defaultReference, defaultCandidate
			if len(args) == 2 {
				refPath, candPath = args[0], args[1]
			}

			mask, err := parseMask(ignoreRegs, ignoreFlags)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			// keep diagnostics out of the JSON document
			log := out
			if jsonOut {
				log = cmd.ErrOrStderr()
			}

			ref, err := trace.Open(refPath, "reference", sf.options(log))
			if err != nil {
				return err
			}
			fmt.Fprintf(log, "reference: loaded %d lines\n", ref.RawLen())

			cand, err := trace.Open(candPath, "candidate", sf.options(log))
			if err != nil {
				return err
			}
			fmt.Fprintf(log, "candidate: loaded %d lines\n", cand.RawLen())

			cfg := compare.DefaultConfig()
			cfg.Context = contextLines
			cfg.Sentinel = sentinel.v
			cfg.NoSentinel = noSentinel || !sentinel.set
			cfg.Mask = mask
			cfg.Progress = progress
			if verbose && cfg.Progress == 0 {
				cfg.Progress = 10000
			}
			cfg.Log = log

			rep, err := compare.Run(ref, cand, cfg)
			if err != nil {
				return err
			}

			if jsonOut {
				return result.WriteJSON(out, rep)
			}
			return rep.WriteText(out)
		},
	}

	addStartFlags(cmd.Flags(), &sf)
	sentinel = newHexValue(compare.DefaultSentinel)
	cmd.Flags().IntVarP(&contextLines, "context", "n", compare.DefaultContext, "Lines of context printed per trace")
	cmd.Flags().Var(sentinel, "sentinel", "R7 value after which a mismatch is a known false positive (hex)")
	cmd.Flags().BoolVar(&noSentinel, "no-sentinel", false, "Report every mismatch")
	cmd.Flags().IntSliceVar(&ignoreRegs, "ignore-regs", nil, "Registers left out of the comparison (e.g. 5,6)")
	cmd.Flags().StringVar(&ignoreFlags, "ignore-flags", "", "Flags left out of the comparison (e.g. VC)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Write the report as JSON")
	cmd.Flags().IntVar(&progress, "progress", 0, "Print a counter every N records (0 = off)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	return cmd
}

func newDumpCmd() *cobra.Command {
	var sf startFlags
	var limit int

	cmd := &cobra.Command{
		Use:   "dump [trace]",
		Short: "Print the normalized records of a trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			l, err := trace.Open(args[0], "trace", sf.options(out))
			if err != nil {
				return err
			}
			return dump(out, l, limit)
		},
	}
	addStartFlags(cmd.Flags(), &sf)
	cmd.Flags().IntVar(&limit, "limit", 0, "Stop after N records (0 = all)")
	return cmd
}

// dump writes one line per normalized record: index, raw line and state.
func dump(w io.Writer, l *trace.List, limit int) error {
	for limit <= 0 || l.Len() < limit {
		op, ok, err := l.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		i := l.Len() - 1
		raw, _ := l.LineOf(i)
		fmt.Fprintf(w, "%d\t%d: %s\n", i, raw+1, op)
	}
	fmt.Fprintf(w, "%d records, %d lines skipped\n", l.Len(), l.Skipped())
	return nil
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [report.json]",
		Short: "Print a report saved with compare --json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rep, err := result.ReadJSON(f)
			if err != nil {
				return err
			}
			return rep.WriteText(cmd.OutOrStdout())
		},
	}
}
