package dts

import "fmt"

// PrimitiveType packs topology, flags and a material index into one word.
//
//	bits 31-30  topology (Triangles, Strip, Fan)
//	bit  29     Indexed
//	bit  28     NoMaterial
//	bits 27-0   material index
type PrimitiveType uint32

// Primitive topology and flag bits.
const (
	Triangles PrimitiveType = 0x00000000
	Strip     PrimitiveType = 0x40000000
	Fan       PrimitiveType = 0x80000000
	TypeMask  PrimitiveType = 0xC0000000

	Indexed    PrimitiveType = 0x20000000
	NoMaterial PrimitiveType = 0x10000000

	MaterialMask PrimitiveType = 0x0FFFFFFF
)

// String returns a human-readable topology name.
func (t PrimitiveType) String() string {
	switch t & TypeMask {
	case Triangles:
		return "Triangles"
	case Strip:
		return "Strip"
	case Fan:
		return "Fan"
	default:
		return fmt.Sprintf("Unknown(0x%08x)", uint32(t&TypeMask))
	}
}

// Primitive is a run of mesh indices drawn with one topology and material.
type Primitive struct {
	FirstElement int32
	NumElements  int32
	Type         PrimitiveType
}

// Topology returns the topology bits of the primitive.
func (p Primitive) Topology() PrimitiveType {
	return p.Type & TypeMask
}

// HasMaterial reports whether the primitive carries a material index.
func (p Primitive) HasMaterial() bool {
	return p.Type&NoMaterial == 0
}

// Material returns the material index bits and whether they are in use.
func (p Primitive) Material() (int32, bool) {
	return int32(p.Type & MaterialMask), p.HasMaterial()
}

// SetTopology replaces the topology bits. Only a single topology value is
// accepted; flag and material bits are preserved.
func (p *Primitive) SetTopology(t PrimitiveType) error {
	switch t {
	case Triangles, Strip, Fan:
	default:
		return fmt.Errorf("%w: 0x%08x is not a primitive topology", ErrInvalidGeometry, uint32(t))
	}
	p.Type = (p.Type &^ TypeMask) | t
	return nil
}

// SetMaterial replaces the material index bits with n truncated to the
// mask width. Topology and flag bits are left untouched.
func (p *Primitive) SetMaterial(n int32) {
	p.Type = (p.Type &^ MaterialMask) | (PrimitiveType(uint32(n)) & MaterialMask)
}

// PolyCount returns the number of triangles the primitive draws.
func (p Primitive) PolyCount() (int, error) {
	n := int(p.NumElements)
	switch p.Topology() {
	case Strip, Fan:
		if n < 3 {
			return 0, nil
		}
		return n - 2, nil
	case Triangles:
		if n%3 != 0 {
			return 0, fmt.Errorf("%w: triangle list with %d elements", ErrInvalidGeometry, n)
		}
		return n / 3, nil
	default:
		return 0, fmt.Errorf("%w: unknown topology %s", ErrInvalidGeometry, p.Type)
	}
}

// EncodePrimitives builds the primitive list covering a mesh index array:
// a single indexed primitive of the given topology without a material.
func EncodePrimitives(indices []uint16, topology PrimitiveType) ([]Primitive, error) {
	p := Primitive{
		FirstElement: 0,
		NumElements:  int32(len(indices)),
		Type:         Indexed | NoMaterial,
	}
	if err := p.SetTopology(topology); err != nil {
		return nil, err
	}
	return []Primitive{p}, nil
}

// ReverseWinding returns a copy of a triangle index list with every
// triangle's vertex order reversed. Applying it twice restores the input.
func ReverseWinding(indices []uint16) []uint16 {
	out := make([]uint16, len(indices))
	for i := 0; i+2 < len(indices); i += 3 {
		out[i], out[i+1], out[i+2] = indices[i+2], indices[i+1], indices[i]
	}
	// Trailing partial triangles are copied unchanged.
	for i := len(indices) - len(indices)%3; i < len(indices); i++ {
		out[i] = indices[i]
	}
	return out
}
