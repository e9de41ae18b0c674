package dts

import (
	"path"
	"strings"
)

// MaterialFlags holds the rendering properties of a material.
type MaterialFlags uint32

// Material flags. The high nibble is the auxiliary region that marks
// materials used as IFL frames or as detail, bump or reflectance maps.
const (
	SWrap            MaterialFlags = 0x00000001
	TWrap            MaterialFlags = 0x00000002
	Translucent      MaterialFlags = 0x00000004
	Additive         MaterialFlags = 0x00000008
	Subtractive      MaterialFlags = 0x00000010
	SelfIlluminating MaterialFlags = 0x00000020
	NeverEnvMap      MaterialFlags = 0x00000040
	NoMipMap         MaterialFlags = 0x00000080
	MipMapZeroBorder MaterialFlags = 0x00000100

	IFLMaterial    MaterialFlags = 0x00000000
	IFLFrame       MaterialFlags = 0x10000000
	DetailMap      MaterialFlags = 0x20000000
	BumpMap        MaterialFlags = 0x40000000
	ReflectanceMap MaterialFlags = 0x80000000
	AuxiliaryMask  MaterialFlags = 0xF0000000
)

// materialTags maps name tags to the flags they enable.
var materialTags = map[string]MaterialFlags{
	"add":     Additive,
	"sub":     Subtractive,
	"illum":   SelfIlluminating,
	"nomip":   NoMipMap,
	"mipzero": MipMapZeroBorder,
}

// Material describes one texture entry of the shape's material list.
// Materials carry their own name; they do not use the string table.
type Material struct {
	Name        string
	Flags       MaterialFlags
	Reflectance int32
	Bump        int32
	Detail      int32
	DetailScale float32
	Reflection  float32
}

// NewMaterial returns a wrapping, non-reflective material for a texture.
// index is the material's own position in the list, used as its
// reflectance map.
func NewMaterial(texture string, index int32) Material {
	return Material{
		Name:        texture,
		Flags:       SWrap | TWrap | NeverEnvMap,
		Reflectance: index,
		Bump:        NoIndex,
		Detail:      NoIndex,
		DetailScale: 1,
	}
}

// ParseMaterialName splits "texture:tag,tag" into the bare texture name and
// the flags the tags enable. Directory and extension are stripped from the
// texture. Unknown tags are ignored.
func ParseMaterialName(name string) (string, MaterialFlags) {
	var flags MaterialFlags
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	base, tags, found := strings.Cut(name, ":")
	if found {
		for _, tag := range strings.Split(tags, ",") {
			flags |= materialTags[strings.ToLower(strings.TrimSpace(tag))]
		}
	}

	base = path.Base(base)
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == "/" {
		base = "Unnamed"
	}
	return base, flags
}

// checkRef reports whether ref is NoIndex or a valid index into n entries.
func checkRef(ref int32, n int) bool {
	return ref == NoIndex || (ref >= 0 && int(ref) < n)
}

// spanOK reports whether [first, first+num) lies inside n entries. The sum
// is taken in int so large int32 values cannot wrap.
func spanOK(first, num int32, n int) bool {
	return first >= 0 && num >= 0 && int(first)+int(num) <= n
}
