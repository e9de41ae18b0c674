package dts

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/dtsconv/pkg/math"
)

// NormalTableSize is the number of directions an encoded normal can take.
const NormalTableSize = 256

// normalTable holds NormalTableSize unit vectors spread evenly over the
// sphere on a golden-angle spiral.
var normalTable = buildNormalTable()

func buildNormalTable() [NormalTableSize]math.Vec3 {
	var table [NormalTableSize]math.Vec3
	goldenAngle := math32.Pi * (3 - math32.Sqrt(5))
	for i := range table {
		z := 1 - (float32(i)+0.5)*2/NormalTableSize
		r := math32.Sqrt(1 - z*z)
		s, c := math32.Sincos(goldenAngle * float32(i))
		table[i] = math.Vec3{X: r * c, Y: r * s, Z: z}
	}
	return table
}

// EncodeNormal returns the index of the table direction closest to n,
// measured by the largest dot product.
func EncodeNormal(n math.Vec3) uint8 {
	best := 0
	bestDot := float32(-boundsSentinel)
	for i, candidate := range normalTable {
		if dot := n.Dot(candidate); dot > bestDot {
			best = i
			bestDot = dot
		}
	}
	return uint8(best)
}

// DecodeNormal returns the unit direction for an encoded normal.
func DecodeNormal(index uint8) math.Vec3 {
	return normalTable[index]
}

// EncodeNormals encodes every normal of a slice.
func EncodeNormals(normals []math.Vec3) []uint8 {
	out := make([]uint8, len(normals))
	for i, n := range normals {
		out[i] = EncodeNormal(n)
	}
	return out
}
