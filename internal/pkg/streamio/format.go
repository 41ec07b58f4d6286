package streamio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/samirrijal/streamgeo/internal/core/domain"
)

// Format names a collection encoding.
type Format string

const (
	FormatAuto      Format = "auto"
	FormatJSONLines Format = "jsonl"
	FormatBinary    Format = "binary"
	FormatLegacy    Format = "legacy"
)

// ParseFormat accepts "auto", "jsonl" (or "json"), "binary" (or "bin") and
// "legacy".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "jsonl", "json":
		return FormatJSONLines, nil
	case "binary", "bin":
		return FormatBinary, nil
	case "legacy":
		return FormatLegacy, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// Read decodes a collection in format f. FormatAuto picks binary when the
// input starts with the binary magic, JSON lines when it starts like JSON
// text, and the legacy layout otherwise.
func Read(r io.Reader, f Format, lim Limits) ([]domain.Stream, Format, error) {
	if f == FormatAuto {
		br := bufio.NewReader(r)
		head, _ := br.Peek(8)
		switch {
		case bytes.HasPrefix(head, magic[:]):
			f = FormatBinary
		case looksLikeJSONLines(head):
			f = FormatJSONLines
		default:
			f = FormatLegacy
		}
		r = br
	}
	var (
		streams []domain.Stream
		err     error
	)
	switch f {
	case FormatBinary:
		streams, err = ReadBinary(r, lim)
	case FormatJSONLines:
		streams, err = ReadJSONLines(r)
	case FormatLegacy:
		streams, err = ReadLegacy(r, lim)
	default:
		return nil, f, fmt.Errorf("unknown format %q", f)
	}
	return streams, f, err
}

// Write encodes a collection in format f. FormatAuto writes JSON lines.
func Write(w io.Writer, f Format, streams []domain.Stream) error {
	switch f {
	case FormatBinary:
		return WriteBinary(w, streams)
	case FormatLegacy:
		return WriteLegacy(w, streams)
	case FormatJSONLines, FormatAuto:
		return WriteJSONLines(w, streams)
	}
	return fmt.Errorf("unknown format %q", f)
}
