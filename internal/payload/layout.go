// Package payload mirrors the memory layout of the geometry kernel's C
// boundary and encodes geom values into it.
//
// Every struct here has the field order and widths of its C counterpart so a
// pointer to it can be handed across cgo unchanged. The feature union is
// represented the way cgo represents C unions: an opaque block of storage
// sized for the largest member, with typed views onto it. The storage is
// declared as uint64 words so the views are 8-byte aligned and the block
// starts at offset 8, after the 4-byte tag and its padding.
package payload

import "unsafe"

// ProfileCapacity is the fixed length of the turn profile arrays.
const ProfileCapacity = 64

// Axis mirrors AxisDto.
type Axis struct {
	Origin [3]float64
	Dir    [3]float64
	XDir   [3]float64
}

// Stock mirrors StockDto.
type Stock struct {
	Type int32
	P1   float64
	P2   float64
	P3   float64
	Axis Axis
}

// Drill mirrors DrillFeatureDto.
type Drill struct {
	Radius float64
	Depth  float64
	Axis   Axis
}

// PocketRect mirrors PocketRectFeatureDto.
type PocketRect struct {
	Width  float64
	Height float64
	Depth  float64
	Axis   Axis
}

// Turn mirrors TurnOdFeatureDto and TurnIdFeatureDto, which are identical.
// Only the first ProfileCount entries of the arrays are meaningful.
type Turn struct {
	TargetDiameter float64
	Length         float64
	ProfileCount   int32
	ProfileZ       [ProfileCapacity]float64
	ProfileRadius  [ProfileCapacity]float64
	Axis           Axis
}

// unionWords is the size of the union storage in 8-byte words. Turn is the
// largest member; the other shapes must fit inside it.
const unionWords = (unsafe.Sizeof(Turn{}) + 7) / 8

// Feature mirrors FeatureDto: a tag followed by the union of the four
// feature shapes. Exactly one view is meaningful, the one selected by Type.
type Feature struct {
	Type int32
	u    [unionWords]uint64
}

// Drill returns the drill view of the union.
func (f *Feature) Drill() *Drill { return (*Drill)(unsafe.Pointer(&f.u)) }

// PocketRect returns the pocket view of the union.
func (f *Feature) PocketRect() *PocketRect { return (*PocketRect)(unsafe.Pointer(&f.u)) }

// TurnOD returns the outer-turn view of the union.
func (f *Feature) TurnOD() *Turn { return (*Turn)(unsafe.Pointer(&f.u)) }

// TurnID returns the inner-turn view of the union.
func (f *Feature) TurnID() *Turn { return (*Turn)(unsafe.Pointer(&f.u)) }

// UnionSize is the byte capacity of the feature union.
func UnionSize() uintptr { return unsafe.Sizeof(Feature{}.u) }

// OperationResult mirrors the C OperationResult written by apply-feature.
type OperationResult struct {
	ResultShapeID int32
	DeltaShapeID  int32
	ErrorCode     int32
}

// OutputOptions mirrors the C OutputOptions passed to export.
type OutputOptions struct {
	Format            int32
	LinearDeflection  float64
	AngularDeflection float64
	Parallel          int32
}
