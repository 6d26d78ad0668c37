// Package validate checks a job document for structural defects.
//
// Validate never stops at the first problem: each rule runs on its own, so a
// malformed stock axis does not hide an empty output name. It never mutates
// its input and never fails; the result is the whole diagnostic list.
package validate

import (
	"fmt"
	"strings"

	"github.com/vk/millgrid/internal/diag"
	"github.com/vk/millgrid/internal/geom"
	"github.com/vk/millgrid/internal/job"
)

// Validate returns every structural defect of j, in document order, followed
// by any NaN or infinite numbers. An empty result means job.ToKernel will
// succeed.
func Validate(j *job.Job) diag.Diagnostics {
	var ds diag.Diagnostics

	if len(j.Features) == 0 {
		ds = append(ds, diag.New(diag.FeaturesEmpty, "features", "features must contain at least one item."))
	}

	if _, ok := geom.ParseStockKind(j.Stock.Type); !ok {
		ds = append(ds, diag.Newf(diag.InvalidStockType, "stock.type", "Unsupported stock.type: %s", j.Stock.Type))
	}
	ds = axis(ds, j.Stock.Axis, "stock.axis")

	for i, f := range j.Features {
		ds = feature(ds, f, fmt.Sprintf("features[%d]", i))
	}

	ds = output(ds, j.Output)

	for _, p := range job.NonFinite(j) {
		ds = append(ds, diag.Newf(diag.NonFiniteNumber, p, "%s must be a finite number.", p))
	}
	return ds
}

func feature(ds diag.Diagnostics, f job.Feature, base string) diag.Diagnostics {
	kind, ok := geom.ParseFeatureKind(f.Type)
	if !ok {
		return append(ds, diag.Newf(diag.InvalidFeatureType, base+".type", "Unsupported feature.type: %s", f.Type))
	}

	switch kind {
	case geom.FeatureDrill:
		if f.Drill == nil {
			return append(ds, missingPayload(base, "drill", kind))
		}
		return axis(ds, f.Drill.Axis, base+".drill.axis")
	case geom.FeaturePocketRect:
		if f.PocketRect == nil {
			return append(ds, missingPayload(base, "pocketRect", kind))
		}
		return axis(ds, f.PocketRect.Axis, base+".pocketRect.axis")
	case geom.FeatureTurnOD:
		if f.TurnOD == nil {
			return append(ds, missingPayload(base, "turnOd", kind))
		}
		return turn(ds, f.TurnOD, base+".turnOd")
	default:
		if f.TurnID == nil {
			return append(ds, missingPayload(base, "turnId", kind))
		}
		return turn(ds, f.TurnID, base+".turnId")
	}
}

func missingPayload(base, field string, kind geom.FeatureKind) diag.Diagnostic {
	return diag.Newf(diag.MissingPayload, base+"."+field, "feature.%s is required for type %s.", field, kind)
}

func turn(ds diag.Diagnostics, t *job.Turn, base string) diag.Diagnostics {
	path := base + ".profile"
	switch n := len(t.Profile); {
	case t.Profile == nil:
		ds = append(ds, diag.Newf(diag.MissingProfile, path, "%s is required.", path))
	case n < geom.MinProfilePoints:
		ds = append(ds, diag.Newf(diag.ProfileTooShort, path, "Turn profile requires at least %d points.", geom.MinProfilePoints))
	case n > geom.MaxProfilePoints:
		ds = append(ds, diag.Newf(diag.ProfileTooLong, path, "Turn profile supports at most %d points.", geom.MaxProfilePoints))
	}
	return axis(ds, t.Axis, base+".axis")
}

func axis(ds diag.Diagnostics, a *job.Axis, path string) diag.Diagnostics {
	if a == nil {
		return append(ds, diag.Newf(diag.MissingAxis, path, "%s is required.", path))
	}
	for _, v := range []struct {
		name string
		vec  []float64
	}{
		{"origin", a.Origin},
		{"dir", a.Dir},
		{"xdir", a.XDir},
	} {
		if len(v.vec) != 3 {
			p := path + "." + v.name
			ds = append(ds, diag.Newf(diag.AxisLength, p, "%s must have exactly 3 elements.", p))
		}
	}
	return ds
}

func output(ds diag.Diagnostics, o job.Output) diag.Diagnostics {
	if strings.TrimSpace(o.Dir) == "" {
		ds = append(ds, diag.New(diag.EmptyOutputDir, "output.dir", "output.dir must not be empty."))
	}
	for _, f := range []struct{ path, value string }{
		{"output.stepFile", o.StepFile},
		{"output.stlFile", o.StlFile},
		{"output.deltaStepFile", o.DeltaStepFile},
		{"output.deltaStlFile", o.DeltaStlFile},
	} {
		if strings.TrimSpace(f.value) == "" {
			ds = append(ds, diag.Newf(diag.EmptyOutputFile, f.path, "%s must not be empty.", f.path))
		}
	}
	return ds
}
