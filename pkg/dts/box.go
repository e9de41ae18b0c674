package dts

import "github.com/Faultbox/dtsconv/pkg/math"

// boundsSentinel seeds bounds computations so that an empty vertex set
// produces an inverted box.
const boundsSentinel float32 = 10e30

// Box is an axis-aligned bounding box.
type Box struct {
	Min math.Vec3
	Max math.Vec3
}

// EmptyBox returns an inverted box that any point will expand.
func EmptyBox() Box {
	return Box{
		Min: math.Vec3{X: boundsSentinel, Y: boundsSentinel, Z: boundsSentinel},
		Max: math.Vec3{X: -boundsSentinel, Y: -boundsSentinel, Z: -boundsSentinel},
	}
}

// IsEmpty reports whether the box is inverted on any axis.
func (b Box) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Extend returns the box grown to contain p.
func (b Box) Extend(p math.Vec3) Box {
	return Box{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(other Box) Box {
	return Box{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// Center returns the box midpoint, min + (max-min)/2.
func (b Box) Center() math.Vec3 {
	return b.Min.Midpoint(b.Max)
}

// Contains reports whether p lies inside the box, borders included.
func (b Box) Contains(p math.Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}
