// Package codec encodes a domain.Record into the fixed three-field binary
// payload memcached stores, and decodes it back for the round-trip
// self-test. The wire format is plain protobuf: field 1 = lat (double),
// field 2 = lon (double), field 3 = apps (repeated uint32, packed varint).
// There is no generated .proto pair here — the schema compiler is treated
// as an external collaborator (see SPEC_FULL.md §2 DOMAIN STACK); the
// encoder/decoder below talk the wire format directly through protowire,
// which keeps the payload readable by any protobuf-compatible consumer
// that shares the same field numbering.
package codec

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/vasyanch/memcload/internal/domain"
)

const (
	fieldLat  protowire.Number = 1
	fieldLon  protowire.Number = 2
	fieldApps protowire.Number = 3
)

// Encode renders a Record as its binary payload and shard key.
func Encode(r domain.Record) domain.EncodedRecord {
	var b []byte
	b = protowire.AppendTag(b, fieldLat, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, doubleBits(r.Lat))
	b = protowire.AppendTag(b, fieldLon, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, doubleBits(r.Lon))

	if len(r.Apps) > 0 {
		var packed []byte
		for _, app := range r.Apps {
			packed = protowire.AppendVarint(packed, uint64(app))
		}
		b = protowire.AppendTag(b, fieldApps, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}

	return domain.EncodedRecord{
		Key:       r.Key(),
		Payload:   b,
		DebugForm: fmt.Sprintf("lat=%v lon=%v apps=%v", r.Lat, r.Lon, r.Apps),
	}
}

// Decode parses a payload produced by Encode back into its fields. It is
// used only by the self-test; the production path never reads its own
// writes back.
func Decode(payload []byte) (lat, lon float64, apps []uint32, err error) {
	b := payload
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return 0, 0, nil, protowire.ParseError(n)
		}
		b = b[n:]

		switch num {
		case fieldLat, fieldLon:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return 0, 0, nil, protowire.ParseError(n)
			}
			b = b[n:]
			if num == fieldLat {
				lat = bitsDouble(v)
			} else {
				lon = bitsDouble(v)
			}
		case fieldApps:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return 0, 0, nil, protowire.ParseError(n)
			}
			b = b[n:]
			for len(v) > 0 {
				app, m := protowire.ConsumeVarint(v)
				if m < 0 {
					return 0, 0, nil, protowire.ParseError(m)
				}
				apps = append(apps, uint32(app))
				v = v[m:]
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return 0, 0, nil, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return lat, lon, apps, nil
}

func doubleBits(f float64) uint64 { return math.Float64bits(f) }
func bitsDouble(u uint64) float64 { return math.Float64frombits(u) }
