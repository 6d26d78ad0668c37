package job

import (
	"fmt"
	"strings"

	"github.com/vk/millgrid/internal/geom"
)

// ToKernel converts a wire job into a kernel-ready geom.Job. It is
// all-or-nothing: on the first defect it returns a *ConversionError and no
// job. It rejects exactly the documents the validator reports on, so a job
// with an empty diagnostic list always converts.
func ToKernel(j *Job) (*geom.Job, error) {
	if len(j.Features) == 0 {
		return nil, convErr("features", "features must contain at least one item")
	}
	if bad := NonFinite(j); len(bad) > 0 {
		return nil, convErr(bad[0], "%s must be a finite number", bad[0])
	}

	kind, ok := geom.ParseStockKind(j.Stock.Type)
	if !ok {
		return nil, convErr("stock.type", "unsupported stock.type: %s", j.Stock.Type)
	}
	stockAxis, err := convertAxis(j.Stock.Axis, "stock.axis")
	if err != nil {
		return nil, err
	}

	out := &geom.Job{
		Stock: geom.Stock{
			Kind: kind,
			P1:   j.Stock.P1,
			P2:   j.Stock.P2,
			P3:   j.Stock.P3,
			Axis: stockAxis,
		},
		Features: make([]geom.Feature, 0, len(j.Features)),
	}

	for i, f := range j.Features {
		gf, err := convertFeature(f, fmt.Sprintf("features[%d]", i))
		if err != nil {
			return nil, err
		}
		out.Features = append(out.Features, gf)
	}

	o := j.Output
	for _, name := range []struct {
		path, value string
		dst         *string
	}{
		{"output.dir", o.Dir, &out.Dir},
		{"output.stepFile", o.StepFile, &out.StepFile},
		{"output.stlFile", o.StlFile, &out.StlFile},
		{"output.deltaStepFile", o.DeltaStepFile, &out.DeltaStepFile},
		{"output.deltaStlFile", o.DeltaStlFile, &out.DeltaStlFile},
	} {
		if strings.TrimSpace(name.value) == "" {
			return nil, convErr(name.path, "%s must not be empty", name.path)
		}
		*name.dst = name.value
	}
	out.Options = geom.OutputOptions{
		LinearDeflection:  o.LinearDeflection,
		AngularDeflection: o.AngularDeflection,
		Parallel:          bool(o.Parallel),
	}
	return out, nil
}

func convertFeature(f Feature, path string) (geom.Feature, error) {
	kind, ok := geom.ParseFeatureKind(f.Type)
	if !ok {
		return nil, convErr(path+".type", "unsupported feature.type: %s", f.Type)
	}

	switch kind {
	case geom.FeatureDrill:
		if f.Drill == nil {
			return nil, missingPayload(path+".drill", kind)
		}
		axis, err := convertAxis(f.Drill.Axis, path+".drill.axis")
		if err != nil {
			return nil, err
		}
		return geom.Drill{Radius: f.Drill.Radius, Depth: f.Drill.Depth, Axis: axis}, nil

	case geom.FeaturePocketRect:
		if f.PocketRect == nil {
			return nil, missingPayload(path+".pocketRect", kind)
		}
		axis, err := convertAxis(f.PocketRect.Axis, path+".pocketRect.axis")
		if err != nil {
			return nil, err
		}
		p := f.PocketRect
		return geom.PocketRect{Width: p.Width, Height: p.Height, Depth: p.Depth, Axis: axis}, nil

	case geom.FeatureTurnOD:
		if f.TurnOD == nil {
			return nil, missingPayload(path+".turnOd", kind)
		}
		tp, err := convertTurn(f.TurnOD, path+".turnOd")
		if err != nil {
			return nil, err
		}
		return geom.TurnOD{TurnProfile: tp}, nil

	default:
		if f.TurnID == nil {
			return nil, missingPayload(path+".turnId", kind)
		}
		tp, err := convertTurn(f.TurnID, path+".turnId")
		if err != nil {
			return nil, err
		}
		return geom.TurnID{TurnProfile: tp}, nil
	}
}

func convertTurn(t *Turn, path string) (geom.TurnProfile, error) {
	switch n := len(t.Profile); {
	case t.Profile == nil:
		return geom.TurnProfile{}, convErr(path+".profile", "%s.profile is required", path)
	case n < geom.MinProfilePoints:
		return geom.TurnProfile{}, convErr(path+".profile", "turn profile requires at least %d points", geom.MinProfilePoints)
	case n > geom.MaxProfilePoints:
		return geom.TurnProfile{}, convErr(path+".profile", "turn profile supports at most %d points", geom.MaxProfilePoints)
	}
	axis, err := convertAxis(t.Axis, path+".axis")
	if err != nil {
		return geom.TurnProfile{}, err
	}

	tp := geom.TurnProfile{
		Profile: make([]geom.ProfilePoint, len(t.Profile)),
		Axis:    axis,
	}
	for i, p := range t.Profile {
		tp.Profile[i] = geom.ProfilePoint{Z: p.Z, Radius: p.Radius}
	}
	if t.TargetDiameter != nil {
		v := *t.TargetDiameter
		tp.TargetDiameter = &v
	}
	if t.Length != nil {
		v := *t.Length
		tp.Length = &v
	}
	return tp, nil
}

func convertAxis(a *Axis, path string) (geom.Axis, error) {
	if a == nil {
		return geom.Axis{}, convErr(path, "%s is required", path)
	}
	axis, err := geom.AxisFromSlices(a.Origin, a.Dir, a.XDir)
	if err != nil {
		return geom.Axis{}, &ConversionError{Path: path, Message: err.Error()}
	}
	return axis, nil
}

func missingPayload(path string, kind geom.FeatureKind) error {
	field := path[strings.LastIndexByte(path, '.')+1:]
	return convErr(path, "feature.%s is required for type %s", field, kind)
}

func convErr(path, format string, args ...any) error {
	return &ConversionError{Path: path, Message: fmt.Sprintf(format, args...)}
}
