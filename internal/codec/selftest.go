package codec

import (
	"fmt"

	"github.com/vasyanch/memcload/internal/domain"
)

// fixtures mirrors the source's prototest() sample lines, plus the
// empty-apps edge case spec.md §4.1 calls out explicitly.
var fixtures = []domain.Record{
	{DeviceType: "idfa", DeviceID: "1rfw452y52g2gq4g", Lat: 55.55, Lon: 42.42, Apps: []uint32{1423, 43, 567, 3, 7, 23}},
	{DeviceType: "gaid", DeviceID: "7rfw452y52g2gq4g", Lat: 55.55, Lon: 42.42, Apps: []uint32{7423, 424}},
	{DeviceType: "adid", DeviceID: "empty-apps", Lat: 0, Lon: 0, Apps: nil},
}

// SelfTest encodes and decodes each fixture record and fails if the
// round-trip is not logically equal: same lat, same lon, same app list in
// order. This is the Go equivalent of the source's prototest().
func SelfTest() error {
	for _, want := range fixtures {
		encoded := Encode(want)
		lat, lon, apps, err := Decode(encoded.Payload)
		if err != nil {
			return fmt.Errorf("decode %s: %w", encoded.Key, err)
		}
		if lat != want.Lat || lon != want.Lon || !appsEqual(apps, want.Apps) {
			return fmt.Errorf("round-trip mismatch for %s: got (lat=%v lon=%v apps=%v), want (lat=%v lon=%v apps=%v)",
				encoded.Key, lat, lon, apps, want.Lat, want.Lon, want.Apps)
		}
	}
	return nil
}

func appsEqual(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
