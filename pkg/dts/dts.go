// Package dts provides the in-memory model of a DTS shape: the node tree,
// objects and their detail-level meshes, materials and the derived bounds
// the runtime uses for culling and collision.
//
// Shapes are built once from a geometry snapshot and are not mutated after
// assembly. Walk traverses a finished shape in serialization order and
// Encoder writes the version 24 binary layout.
package dts

// NoIndex marks an absent node, material or parent reference.
const NoIndex int32 = -1

// Version is the DTS file version written by Encoder.
const Version int32 = 24
