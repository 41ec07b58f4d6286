package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/samirrijal/streamgeo/internal/core/domain"
	"github.com/samirrijal/streamgeo/internal/pkg/streamio"
)

func newDistanceCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "distance FILE...",
		Short: "Print the length of every stream, one per line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.engine()
			if err != nil {
				return err
			}
			streams, err := o.readStreams(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, s := range streams {
				d, err := e.Length(s)
				if err != nil {
					return fmt.Errorf("stream %d: %w", i, err)
				}
				fmt.Fprintf(out, "%d\t%.9g\n", i, d)
			}
			return nil
		},
	}
}

func newSparsityCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sparsity FILE...",
		Short: "Print the per-point sparsity weights of every stream as JSON lines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.engine()
			if err != nil {
				return err
			}
			streams, err := o.readStreams(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for i, s := range streams {
				w, err := e.Sparsity(s)
				if err != nil {
					return fmt.Errorf("stream %d: %w", i, err)
				}
				if w == nil {
					w = []float64{}
				}
				if err := enc.Encode(w); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newAlignCmd(o *options) *cobra.Command {
	var exact bool
	cmd := &cobra.Command{
		Use:   "align FILE...",
		Short: "Align two streams and print the cost and warp path as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.engine()
			if err != nil {
				return err
			}
			a, b, err := o.pair(cmd, args)
			if err != nil {
				return err
			}
			radius := e.Radius()
			if exact {
				radius = -1
			}
			w, err := e.Align(a, b, radius)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(w)
		},
	}
	cmd.Flags().BoolVar(&exact, "exact", false, "use the full cost matrix instead of FastDTW")
	return cmd
}

func newSimilarityCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "similarity FILE...",
		Short: "Print the similarity of two streams in [0, 1]",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.engine()
			if err != nil {
				return err
			}
			a, b, err := o.pair(cmd, args)
			if err != nil {
				return err
			}
			s, err := e.Similarity(a, b, e.Radius())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.9g\n", s)
			return nil
		},
	}
}

func newConsensusCmd(o *options) *cobra.Command {
	var approximate bool
	cmd := &cobra.Command{
		Use:   "consensus FILE...",
		Short: "Print the index of the medoid stream of a collection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.engine()
			if err != nil {
				return err
			}
			streams, err := o.readStreams(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			idx, err := e.Medoid(cmd.Context(), streams, approximate)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), idx)
			return nil
		},
	}
	cmd.Flags().BoolVar(&approximate, "approximate", false, "use FastDTW costs instead of exact alignment")
	return cmd
}

func newConvertCmd(o *options) *cobra.Command {
	var to, output string
	cmd := &cobra.Command{
		Use:   "convert FILE...",
		Short: "Re-encode stream collections as JSON lines, binary or legacy",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := streamio.ParseFormat(to)
			if err != nil {
				return err
			}
			if target == streamio.FormatAuto {
				return fmt.Errorf("--to must be jsonl, binary or legacy")
			}
			streams, err := o.readStreams(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				err = streamio.Write(cmd.OutOrStdout(), target, streams)
			} else {
				err = writeOutput(output, target, streams)
			}
			if err != nil {
				return err
			}
			o.logger.Info("converted streams", "count", len(streams), "to", string(target))
			return nil
		},
	}
	cmd.Flags().StringVarP(&to, "to", "t", "jsonl", "output format: jsonl, binary or legacy")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	return cmd
}

// writeOutput returns the close error as well; a failed flush to disk only
// surfaces there.
func writeOutput(path string, f streamio.Format, streams []domain.Stream) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := streamio.Write(out, f, streams); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
