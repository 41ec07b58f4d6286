package streamio_test

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/samirrijal/streamgeo/internal/core/domain"
	"github.com/samirrijal/streamgeo/internal/pkg/streamio"
)

var collection = []domain.Stream{
	{{X: 1, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 3}, {X: 3, Y: 3}},
	{{X: 2.5, Y: -1}, {X: 0.125, Y: 4}},
	{},
}

func TestJSONLines_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := streamio.WriteJSONLines(&buf, collection); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "[[1,1],[1,2],[2,3],[3,3]]\n") {
		t.Errorf("unexpected encoding %q", buf.String())
	}
	got, err := streamio.ReadJSONLines(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, collection) {
		t.Errorf("expected %v, got %v", collection, got)
	}
}

func TestReadJSONLines_SkipsBlankLines(t *testing.T) {
	in := "\n[[0,0],[3,4]]\n   \n[[1,1]]\n"
	got, err := streamio.ReadJSONLines(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 streams, got %d", len(got))
	}
}

func TestReadJSONLines_Malformed(t *testing.T) {
	tests := map[string]string{
		"not json":       "[[0,0]]\nhello\n",
		"wrong arity":    "[[0,0,0]]\n",
		"object":         `{"x":1}` + "\n",
		"missing coords": "[[1]]\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := streamio.ReadJSONLines(strings.NewReader(in))
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	_, err := streamio.ReadJSONLines(strings.NewReader("[[0,0]]\n\n[1,2]\n"))
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("expected error to name line 3, got %v", err)
	}
}
