// Package cli implements the streamgeo command line tool.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/samirrijal/streamgeo/internal/core/domain"
	"github.com/samirrijal/streamgeo/internal/pkg/geospatial"
	"github.com/samirrijal/streamgeo/internal/pkg/logging"
	"github.com/samirrijal/streamgeo/internal/pkg/streamio"
)

type options struct {
	format    string
	radius    int
	metric    string
	maxPoints int
	logLevel  string

	logger *slog.Logger
}

// NewRootCmd builds the streamgeo command tree. Command output goes to the
// command's configured writer; logs go to stderr.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "streamgeo",
		Short: "Measure, align and compare polyline streams",
		Long: `streamgeo runs the stream engine over files of point streams.

Input files hold one stream per line as [[x, y], ...] (JSON lines) or the
SGEO binary collection format. Headerless collections written by the C
library are read as "legacy". "-" reads standard input. The format is
detected from the file contents unless --format is given.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.logger = logging.New(cmd.ErrOrStderr(), opts.logLevel, "text")
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.format, "format", "f", "auto", "input format: auto, jsonl, binary or legacy")
	pf.IntVarP(&opts.radius, "radius", "r", geospatial.DefaultRadius, "FastDTW search radius")
	pf.StringVar(&opts.metric, "metric", "euclidean", "segment metric: euclidean or haversine")
	pf.IntVar(&opts.maxPoints, "max-points", 0, "reject streams longer than this (0 = unlimited)")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	root.AddCommand(
		newDistanceCmd(opts),
		newSparsityCmd(opts),
		newAlignCmd(opts),
		newSimilarityCmd(opts),
		newConsensusCmd(opts),
		newConvertCmd(opts),
	)
	return root
}

// Execute runs the command tree against os.Args and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (o *options) engine() (*geospatial.Engine, error) {
	if o.radius < 0 {
		return nil, fmt.Errorf("--radius must be non-negative, got %d", o.radius)
	}
	metric, err := geospatial.ParseMetric(o.metric)
	if err != nil {
		return nil, err
	}
	return geospatial.NewEngine(
		geospatial.WithRadius(o.radius),
		geospatial.WithMetric(metric),
		geospatial.WithMaxPoints(o.maxPoints),
	), nil
}

// readStreams concatenates the collections in paths, in order.
func (o *options) readStreams(stdin io.Reader, paths []string) ([]domain.Stream, error) {
	format, err := streamio.ParseFormat(o.format)
	if err != nil {
		return nil, err
	}

	var all []domain.Stream
	for _, path := range paths {
		streams, detected, err := readFile(stdin, path, format)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		o.logger.Debug("read streams", "path", path, "format", string(detected), "count", len(streams))
		all = append(all, streams...)
	}
	return all, nil
}

func readFile(stdin io.Reader, path string, format streamio.Format) ([]domain.Stream, streamio.Format, error) {
	if path == "-" {
		return streamio.Read(stdin, format, streamio.DefaultLimits)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	return streamio.Read(f, format, streamio.DefaultLimits)
}

// pair reads exactly two streams from paths.
func (o *options) pair(cmd *cobra.Command, paths []string) (a, b domain.Stream, err error) {
	streams, err := o.readStreams(cmd.InOrStdin(), paths)
	if err != nil {
		return nil, nil, err
	}
	if len(streams) != 2 {
		return nil, nil, fmt.Errorf("expected exactly 2 streams, got %d", len(streams))
	}
	return streams[0], streams[1], nil
}
