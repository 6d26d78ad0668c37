package payload

import (
	"fmt"

	"github.com/vk/millgrid/internal/geom"
)

// Encode writes f into a fresh union payload. The payload is meant to be
// built immediately before the native call that consumes it and dropped
// afterwards.
//
// Profiles longer than ProfileCapacity are cut at the capacity; conversion
// rejects them long before they get here.
func Encode(f geom.Feature) Feature {
	var p Feature
	p.Type = int32(f.Kind())

	switch v := f.(type) {
	case geom.Drill:
		d := p.Drill()
		d.Radius = v.Radius
		d.Depth = v.Depth
		d.Axis = EncodeAxis(v.Axis)
	case geom.PocketRect:
		r := p.PocketRect()
		r.Width = v.Width
		r.Height = v.Height
		r.Depth = v.Depth
		r.Axis = EncodeAxis(v.Axis)
	case geom.TurnOD:
		encodeTurn(p.TurnOD(), v.TurnProfile)
	case geom.TurnID:
		encodeTurn(p.TurnID(), v.TurnProfile)
	default:
		panic(fmt.Sprintf("payload: unhandled feature type %T", f))
	}
	return p
}

func encodeTurn(t *Turn, src geom.TurnProfile) {
	n := len(src.Profile)
	if n > ProfileCapacity {
		n = ProfileCapacity
	}
	t.TargetDiameter = src.Diameter()
	t.Length = src.Span()
	t.ProfileCount = int32(n)
	for i := 0; i < n; i++ {
		t.ProfileZ[i] = src.Profile[i].Z
		t.ProfileRadius[i] = src.Profile[i].Radius
	}
	t.Axis = EncodeAxis(src.Axis)
}

// EncodeAxis copies an axis into its native layout.
func EncodeAxis(a geom.Axis) Axis {
	return Axis{Origin: a.Origin, Dir: a.Dir, XDir: a.XDir}
}

// EncodeStock copies a stock into its native layout.
func EncodeStock(s geom.Stock) Stock {
	return Stock{
		Type: int32(s.Kind),
		P1:   s.P1,
		P2:   s.P2,
		P3:   s.P3,
		Axis: EncodeAxis(s.Axis),
	}
}

// EncodeOutput copies export options into their native layout.
func EncodeOutput(o geom.OutputOptions) OutputOptions {
	out := OutputOptions{
		Format:            int32(o.Format),
		LinearDeflection:  o.LinearDeflection,
		AngularDeflection: o.AngularDeflection,
	}
	if o.Parallel {
		out.Parallel = 1
	}
	return out
}

// Profile reads the meaningful part of a turn payload back into points.
func (t *Turn) Profile() []geom.ProfilePoint {
	n := int(t.ProfileCount)
	if n < 0 {
		n = 0
	}
	if n > ProfileCapacity {
		n = ProfileCapacity
	}
	out := make([]geom.ProfilePoint, n)
	for i := range out {
		out[i] = geom.ProfilePoint{Z: t.ProfileZ[i], Radius: t.ProfileRadius[i]}
	}
	return out
}

// Vectors returns the axis as geom vectors.
func (a Axis) Vectors() geom.Axis {
	return geom.Axis{Origin: a.Origin, Dir: a.Dir, XDir: a.XDir}
}
