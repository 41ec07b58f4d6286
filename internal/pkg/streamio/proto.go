package streamio

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/samirrijal/streamgeo/internal/core/domain"
)

// Field numbers of the inbound stream message:
//
//	message Stream {
//	  string id = 1;
//	  string name = 2;
//	  repeated double coords = 3 [packed = true]; // x0, y0, x1, y1, ...
//	}
const (
	fieldID     protowire.Number = 1
	fieldName   protowire.Number = 2
	fieldCoords protowire.Number = 3
)

// MarshalProto encodes rec's ID, name and points.
func MarshalProto(rec *domain.StreamRecord) []byte {
	var b []byte
	if rec.ID != "" {
		b = protowire.AppendTag(b, fieldID, protowire.BytesType)
		b = protowire.AppendString(b, rec.ID)
	}
	if rec.Name != "" {
		b = protowire.AppendTag(b, fieldName, protowire.BytesType)
		b = protowire.AppendString(b, rec.Name)
	}
	if len(rec.Points) > 0 {
		packed := make([]byte, 0, 16*len(rec.Points))
		for _, p := range rec.Points {
			packed = protowire.AppendFixed64(packed, math.Float64bits(p.X))
			packed = protowire.AppendFixed64(packed, math.Float64bits(p.Y))
		}
		b = protowire.AppendTag(b, fieldCoords, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}
	return b
}

// UnmarshalProto decodes a message produced by MarshalProto or any other
// encoder of the same schema. Coordinates are accepted packed or unpacked,
// and unknown fields are skipped.
func UnmarshalProto(b []byte) (*domain.StreamRecord, error) {
	rec := &domain.StreamRecord{}
	var coords []float64

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protoErr(n)
		}
		b = b[n:]

		switch {
		case num == fieldID && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return nil, protoErr(n)
			}
			rec.ID, b = v, b[n:]
		case num == fieldName && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return nil, protoErr(n)
			}
			rec.Name, b = v, b[n:]
		case num == fieldCoords && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protoErr(n)
			}
			if len(v)%8 != 0 {
				return nil, fmt.Errorf("%w: packed coordinates of %d bytes", domain.ErrInvalidInput, len(v))
			}
			for len(v) > 0 {
				bits, m := protowire.ConsumeFixed64(v)
				coords = append(coords, math.Float64frombits(bits))
				v = v[m:]
			}
			b = b[n:]
		case num == fieldCoords && typ == protowire.Fixed64Type:
			bits, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return nil, protoErr(n)
			}
			coords = append(coords, math.Float64frombits(bits))
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, protoErr(n)
			}
			b = b[n:]
		}
	}

	if len(coords)%2 != 0 {
		return nil, fmt.Errorf("%w: odd coordinate count %d", domain.ErrInvalidInput, len(coords))
	}
	rec.Points = make(domain.Stream, len(coords)/2)
	for i := range rec.Points {
		rec.Points[i] = domain.Point{X: coords[2*i], Y: coords[2*i+1]}
	}
	rec.NPoints = len(rec.Points)
	return rec, nil
}

func protoErr(n int) error {
	return fmt.Errorf("%w: malformed protobuf: %v", domain.ErrInvalidInput, protowire.ParseError(n))
}
