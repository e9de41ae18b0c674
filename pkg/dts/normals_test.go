package dts

import (
	"testing"

	"github.com/Faultbox/dtsconv/pkg/math"
)

func TestNormalTableIsUnit(t *testing.T) {
	for i := 0; i < NormalTableSize; i++ {
		l := DecodeNormal(uint8(i)).Length()
		if l < 0.999 || l > 1.001 {
			t.Fatalf("entry %d has length %v", i, l)
		}
	}
}

func TestEncodeNormalRoundTrip(t *testing.T) {
	for i := 0; i < NormalTableSize; i++ {
		if got := EncodeNormal(DecodeNormal(uint8(i))); got != uint8(i) {
			t.Errorf("EncodeNormal(DecodeNormal(%d)) = %d", i, got)
		}
	}
}

func TestEncodeNormalAxes(t *testing.T) {
	axes := []math.Vec3{
		{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1},
	}
	for _, axis := range axes {
		got := DecodeNormal(EncodeNormal(axis))
		if dot := got.Dot(axis); dot < 0.95 {
			t.Errorf("axis %v encoded to %v (dot %v)", axis, got, dot)
		}
	}
}

func TestEncodeNormals(t *testing.T) {
	out := EncodeNormals([]math.Vec3{{Z: 1}, {Z: -1}})
	if len(out) != 2 {
		t.Fatalf("expected 2 encoded normals, got %d", len(out))
	}
	if out[0] == out[1] {
		t.Error("opposite normals encoded to the same entry")
	}
}
