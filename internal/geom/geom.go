// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package geom

import (
	"fmt"
	"strings"
)

// Vec3 is a point or direction in kernel space.
type Vec3 [3]float64

// Axis places a stock or a tool. Vectors are passed through as given; they
// are neither normalized nor checked for orthogonality.
type Axis struct {
	Origin Vec3
	Dir    Vec3
	XDir   Vec3
}

// DefaultAxis is the world frame: origin at zero, Z up, X along +X.
var DefaultAxis = Axis{
	Origin: Vec3{0, 0, 0},
	Dir:    Vec3{0, 0, 1},
	XDir:   Vec3{1, 0, 0},
}

// AxisFromSlices builds an Axis from wire vectors. It fails unless every
// vector has exactly three components.
func AxisFromSlices(origin, dir, xdir []float64) (Axis, error) {
	var a Axis
	for _, v := range []struct {
		name string
		src  []float64
		dst  *Vec3
	}{
		{"origin", origin, &a.Origin},
		{"dir", dir, &a.Dir},
		{"xdir", xdir, &a.XDir},
	} {
		if len(v.src) != 3 {
			return Axis{}, fmt.Errorf("axis.%s must have exactly 3 elements, got %d", v.name, len(v.src))
		}
		copy(v.dst[:], v.src)
	}
	return a, nil
}

// StockKind selects the primitive the blank is built from. The numeric
// values match the native StockType enum.
type StockKind int32

const (
	StockBox      StockKind = 1
	StockCylinder StockKind = 2
)

// String returns the canonical, upper-case wire tag.
func (k StockKind) String() string {
	switch k {
	case StockBox:
		return "BOX"
	case StockCylinder:
		return "CYLINDER"
	default:
		return fmt.Sprintf("StockKind(%d)", int32(k))
	}
}

// ParseStockKind maps a wire tag to a StockKind, ignoring case.
// Surrounding whitespace is not ignored.
func ParseStockKind(tag string) (StockKind, bool) {
	switch strings.ToUpper(tag) {
	case "BOX":
		return StockBox, true
	case "CYLINDER":
		return StockCylinder, true
	}
	return 0, false
}

// Stock is the initial blank. For a box P1..P3 are the X, Y and Z extents;
// for a cylinder P1 is the radius and P2 the height.
type Stock struct {
	Kind       StockKind
	P1, P2, P3 float64
	Axis       Axis
}

// OutputFormat selects the exporter. Values match the native OutputFormat enum.
type OutputFormat int32

const (
	FormatSTEP OutputFormat = 1
	FormatSTL  OutputFormat = 2
)

func (f OutputFormat) String() string {
	switch f {
	case FormatSTEP:
		return "STEP"
	case FormatSTL:
		return "STL"
	default:
		return fmt.Sprintf("OutputFormat(%d)", int32(f))
	}
}

// OutputOptions controls a single export. Deflections are tessellation
// tolerances and only matter for mesh formats.
type OutputOptions struct {
	Format            OutputFormat
	LinearDeflection  float64
	AngularDeflection float64
	Parallel          bool
}

// WithFormat returns a copy of o exporting to f.
func (o OutputOptions) WithFormat(f OutputFormat) OutputOptions {
	o.Format = f
	return o
}

// Job is a fully converted job ready to be driven through a kernel session.
type Job struct {
	Stock    Stock
	Features []Feature
	Options  OutputOptions

	Dir           string
	StepFile      string
	StlFile       string
	DeltaStepFile string
	DeltaStlFile  string
}
