package streamio

import (
	"bufio"
	"io"

	"github.com/samirrijal/streamgeo/internal/core/domain"
)

// WriteLegacy encodes a collection in the headerless legacy layout.
func WriteLegacy(w io.Writer, streams []domain.Stream) error {
	bw := bufio.NewWriter(w)
	writeCollection(bw, streams)
	return bw.Flush()
}

// ReadLegacy decodes a headerless collection. It applies the same limits as
// ReadBinary, so a garbage count fails before anything is allocated.
func ReadLegacy(r io.Reader, lim Limits) ([]domain.Stream, error) {
	return readCollection(bufio.NewReader(r), lim)
}

// looksLikeJSONLines reports whether head can start a JSON-lines file. JSON
// text never contains a NUL byte, while any legacy count below 2^56 does.
func looksLikeJSONLines(head []byte) bool {
	if len(head) == 0 {
		return true
	}
	switch head[0] {
	case '[', ' ', '\t', '\r', '\n':
	default:
		return false
	}
	for _, c := range head {
		if c == 0 {
			return false
		}
	}
	return true
}
