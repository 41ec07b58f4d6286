package streamio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/samirrijal/streamgeo/internal/core/domain"
)

// Binary layout, little endian:
//
//	"SGEO" | version (1 byte) | uint64 nStreams |
//	  nStreams x ( uint64 nPoints | nPoints x (float32 x, float32 y) )
//
// A single stored stream uses the same header with versionRecord and
// float64 coordinates:
//
//	"SGEO" | versionRecord | uint64 nPoints | nPoints x (float64 x, float64 y)
//
// The legacy layout is the collection body without "SGEO" and version, as
// written by 64-bit little endian builds of the C library.
const (
	versionCollection byte = 1
	versionRecord     byte = 2
)

var magic = [4]byte{'S', 'G', 'E', 'O'}

// Limits bounds the counts accepted from binary input. Counts are checked
// before any allocation is made for them.
type Limits struct {
	MaxStreams int
	MaxPoints  int
}

// DefaultLimits accepts up to 1M streams of up to 10M points each.
var DefaultLimits = Limits{MaxStreams: 1 << 20, MaxPoints: 10_000_000}

// WriteBinary encodes a collection with float32 coordinates.
func WriteBinary(w io.Writer, streams []domain.Stream) error {
	bw := bufio.NewWriter(w)
	bw.Write(magic[:])
	bw.WriteByte(versionCollection)
	writeCollection(bw, streams)
	return bw.Flush()
}

func writeCollection(bw *bufio.Writer, streams []domain.Stream) {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], uint64(len(streams)))
	bw.Write(scratch[:])
	for _, s := range streams {
		binary.LittleEndian.PutUint64(scratch[:], uint64(len(s)))
		bw.Write(scratch[:])
		for _, p := range s {
			binary.LittleEndian.PutUint32(scratch[:4], math.Float32bits(float32(p.X)))
			bw.Write(scratch[:4])
			binary.LittleEndian.PutUint32(scratch[:4], math.Float32bits(float32(p.Y)))
			bw.Write(scratch[:4])
		}
	}
}

// ReadBinary decodes a collection written by WriteBinary. Truncated input
// and counts above lim fail with domain.ErrInvalidInput. Zero limits fall
// back to DefaultLimits.
func ReadBinary(r io.Reader, lim Limits) ([]domain.Stream, error) {
	br := bufio.NewReader(r)
	if err := readHeader(br, versionCollection); err != nil {
		return nil, err
	}
	return readCollection(br, lim)
}

// readCollection reads a stream count followed by that many
// (uint64 nPoints, float32 pairs) records.
func readCollection(r io.Reader, lim Limits) ([]domain.Stream, error) {
	if lim.MaxStreams <= 0 {
		lim.MaxStreams = DefaultLimits.MaxStreams
	}
	if lim.MaxPoints <= 0 {
		lim.MaxPoints = DefaultLimits.MaxPoints
	}
	nStreams, err := readCount(r, "stream", lim.MaxStreams)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Stream, 0, nStreams)
	var buf [8]byte
	for i := 0; i < nStreams; i++ {
		nPoints, err := readCount(r, "point", lim.MaxPoints)
		if err != nil {
			return nil, fmt.Errorf("stream %d: %w", i, err)
		}
		s := make(domain.Stream, nPoints)
		for j := range s {
			if _, err := io.ReadFull(r, buf[:]); err != nil {
				return nil, truncated(err, fmt.Sprintf("stream %d point %d", i, j))
			}
			s[j] = domain.Point{
				X: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[:4]))),
				Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[4:]))),
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// MarshalStream encodes a single stream at full float64 precision.
func MarshalStream(s domain.Stream) []byte {
	b := make([]byte, 0, len(magic)+1+8+16*len(s))
	b = append(b, magic[:]...)
	b = append(b, versionRecord)
	b = binary.LittleEndian.AppendUint64(b, uint64(len(s)))
	for _, p := range s {
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(p.X))
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(p.Y))
	}
	return b
}

// UnmarshalStream decodes a stream written by MarshalStream.
func UnmarshalStream(b []byte) (domain.Stream, error) {
	r := bytes.NewReader(b)
	if err := readHeader(r, versionRecord); err != nil {
		return nil, err
	}
	// The payload length bounds the count exactly.
	n, err := readCount(r, "point", r.Len()/16)
	if err != nil {
		return nil, err
	}
	if r.Len() != 16*n {
		return nil, fmt.Errorf("%w: %d trailing bytes after %d points", domain.ErrInvalidInput, r.Len()-16*n, n)
	}
	rest := b[len(b)-r.Len():]
	s := make(domain.Stream, n)
	for i := range s {
		s[i] = domain.Point{
			X: math.Float64frombits(binary.LittleEndian.Uint64(rest[16*i:])),
			Y: math.Float64frombits(binary.LittleEndian.Uint64(rest[16*i+8:])),
		}
	}
	return s, nil
}

func readHeader(r io.Reader, version byte) error {
	var hdr [5]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return truncated(err, "header")
	}
	if !bytes.Equal(hdr[:4], magic[:]) {
		return fmt.Errorf("%w: bad magic %q", domain.ErrInvalidInput, hdr[:4])
	}
	if hdr[4] != version {
		return fmt.Errorf("%w: unsupported version %d, want %d", domain.ErrInvalidInput, hdr[4], version)
	}
	return nil
}

func readCount(r io.Reader, what string, limit int) (int, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, truncated(err, what+" count")
	}
	n := binary.LittleEndian.Uint64(buf[:])
	if n > uint64(limit) {
		return 0, fmt.Errorf("%w: %s count %d exceeds limit %d", domain.ErrInvalidInput, what, n, limit)
	}
	return int(n), nil
}

func truncated(err error, at string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated input at %s", domain.ErrInvalidInput, at)
	}
	return fmt.Errorf("read %s: %w", at, err)
}
