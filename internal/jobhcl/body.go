package jobhcl

import (
	"fmt"

	"github.com/vk/millgrid/internal/geom"
	"github.com/vk/millgrid/internal/job"
)

type jobBody struct {
	Stock    stockBlock      `hcl:"stock,block"`
	Features []*featureBlock `hcl:"feature,block"`
	Output   outputBlock     `hcl:"output,block"`
}

type axisBlock struct {
	Origin []float64 `hcl:"origin"`
	Dir    []float64 `hcl:"dir"`
	XDir   []float64 `hcl:"xdir"`
}

func (a *axisBlock) toJob() *job.Axis {
	if a == nil {
		return nil
	}
	return job.NewAxis(a.Origin, a.Dir, a.XDir)
}

type stockBlock struct {
	Type string     `hcl:"type,label"`
	P1   float64    `hcl:"p1"`
	P2   float64    `hcl:"p2,optional"`
	P3   float64    `hcl:"p3,optional"`
	Axis *axisBlock `hcl:"axis,block"`
}

type profilePoint struct {
	Z      float64 `cty:"z"`
	Radius float64 `cty:"radius"`
}

// featureBlock holds the attributes of every feature kind; the label picks
// which of them are read.
type featureBlock struct {
	Type string `hcl:"type,label"`

	Radius *float64 `hcl:"radius,optional"`
	Depth  *float64 `hcl:"depth,optional"`
	Width  *float64 `hcl:"width,optional"`
	Height *float64 `hcl:"height,optional"`

	Profile        []profilePoint `hcl:"profile,optional"`
	TargetDiameter *float64       `hcl:"target_diameter,optional"`
	Length         *float64       `hcl:"length,optional"`

	Axis *axisBlock `hcl:"axis,block"`
}

type outputBlock struct {
	LinearDeflection  float64 `hcl:"linear_deflection,optional"`
	AngularDeflection float64 `hcl:"angular_deflection,optional"`
	Parallel          bool    `hcl:"parallel,optional"`
	Dir               string  `hcl:"dir,optional"`
	StepFile          string  `hcl:"step_file,optional"`
	StlFile           string  `hcl:"stl_file,optional"`
	DeltaStepFile     string  `hcl:"delta_step_file,optional"`
	DeltaStlFile      string  `hcl:"delta_stl_file,optional"`
}

func (b *jobBody) toJob() (*job.Job, error) {
	stockAxis := b.Stock.Axis.toJob()
	if stockAxis == nil {
		stockAxis = job.WorldAxis()
	}
	j := &job.Job{
		Stock: job.Stock{
			Type: b.Stock.Type,
			P1:   b.Stock.P1,
			P2:   b.Stock.P2,
			P3:   b.Stock.P3,
			Axis: stockAxis,
		},
		Features: make([]job.Feature, 0, len(b.Features)),
		Output: job.Output{
			LinearDeflection:  b.Output.LinearDeflection,
			AngularDeflection: b.Output.AngularDeflection,
			Parallel:          job.Flag(b.Output.Parallel),
			Dir:               b.Output.Dir,
			StepFile:          b.Output.StepFile,
			StlFile:           b.Output.StlFile,
			DeltaStepFile:     b.Output.DeltaStepFile,
			DeltaStlFile:      b.Output.DeltaStlFile,
		},
	}
	for i, fb := range b.Features {
		f, err := fb.toJob()
		if err != nil {
			return nil, fmt.Errorf("feature %d (%s): %w", i, fb.Type, err)
		}
		j.Features = append(j.Features, f)
	}
	return j, nil
}

func (fb *featureBlock) toJob() (job.Feature, error) {
	f := job.Feature{Type: job.CanonicalFeatureType(fb.Type)}
	kind, ok := geom.ParseFeatureKind(fb.Type)
	if !ok {
		// Unknown kinds pass through untouched and are reported by the validator.
		return f, nil
	}

	axis := fb.Axis.toJob()
	switch kind {
	case geom.FeatureDrill:
		if err := requireAttrs(map[string]*float64{"radius": fb.Radius, "depth": fb.Depth}); err != nil {
			return f, err
		}
		f.Drill = &job.Drill{Radius: *fb.Radius, Depth: *fb.Depth, Axis: axis}
	case geom.FeaturePocketRect:
		if err := requireAttrs(map[string]*float64{"width": fb.Width, "height": fb.Height, "depth": fb.Depth}); err != nil {
			return f, err
		}
		f.PocketRect = &job.PocketRect{Width: *fb.Width, Height: *fb.Height, Depth: *fb.Depth, Axis: axis}
	case geom.FeatureTurnOD, geom.FeatureTurnID:
		if fb.Profile == nil {
			return f, fmt.Errorf("attribute %q is required", "profile")
		}
		t := &job.Turn{Axis: axis, TargetDiameter: fb.TargetDiameter, Length: fb.Length}
		t.Profile = make([]job.ProfilePoint, len(fb.Profile))
		for i, p := range fb.Profile {
			t.Profile[i] = job.ProfilePoint{Z: p.Z, Radius: p.Radius}
		}
		if kind == geom.FeatureTurnOD {
			f.TurnOD = t
		} else {
			f.TurnID = t
		}
	}
	return f, nil
}

func requireAttrs(attrs map[string]*float64) error {
	for _, name := range []string{"radius", "width", "height", "depth"} {
		if v, ok := attrs[name]; ok && v == nil {
			return fmt.Errorf("attribute %q is required", name)
		}
	}
	return nil
}
