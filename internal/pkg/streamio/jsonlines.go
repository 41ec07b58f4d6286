// Package streamio reads and writes stream collections in the formats the
// service exchanges with files, the database and the message bus.
package streamio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/samirrijal/streamgeo/internal/core/domain"
)

// maxLineBytes bounds a single JSON-lines record.
const maxLineBytes = 64 << 20

// ReadJSONLines parses one stream per line, each written as
// [[x, y], [x, y], ...]. Blank lines are skipped.
func ReadJSONLines(r io.Reader) ([]domain.Stream, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var out []domain.Stream
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if isBlank(raw) {
			continue
		}
		s, err := parseJSONStream(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", domain.ErrInvalidInput, line, err)
		}
		out = append(out, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read json lines: %w", err)
	}
	return out, nil
}

// WriteJSONLines writes each stream on its own line.
func WriteJSONLines(w io.Writer, streams []domain.Stream) error {
	bw := bufio.NewWriter(w)
	for i, s := range streams {
		pairs := make([][2]float64, len(s))
		for j, p := range s {
			pairs[j] = [2]float64{p.X, p.Y}
		}
		b, err := json.Marshal(pairs)
		if err != nil {
			return fmt.Errorf("encode stream %d: %w", i, err)
		}
		bw.Write(b)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func parseJSONStream(raw []byte) (domain.Stream, error) {
	var pairs [][]float64
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, err
	}
	s := make(domain.Stream, len(pairs))
	for i, p := range pairs {
		if len(p) != 2 {
			return nil, fmt.Errorf("point %d has %d coordinates", i, len(p))
		}
		if math.IsNaN(p[0]) || math.IsInf(p[0], 0) || math.IsNaN(p[1]) || math.IsInf(p[1], 0) {
			return nil, fmt.Errorf("point %d is not finite", i)
		}
		s[i] = domain.Point{X: p[0], Y: p[1]}
	}
	return s, nil
}

func isBlank(b []byte) bool {
	for _, c := range b {
		if c != ' ' && c != '\t' && c != '\r' {
			return false
		}
	}
	return true
}
