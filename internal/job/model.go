// Package job holds the wire representation of a machining job and the
// conversion into kernel-ready geom values.
//
// A Job here is a document model: it may be incomplete or wrong in any
// number of ways, and the validate package reports all of them. ToKernel is
// the strict counterpart that either produces a complete geom.Job or fails on
// the first defect.
package job

// Job is the wire document: a stock blank, an ordered feature chain and the
// output settings.
type Job struct {
	Stock    Stock     `json:"stock"`
	Features []Feature `json:"features"`
	Output   Output    `json:"output"`
}

// Axis is the wire form of a placement. Each vector must carry exactly three
// components; nothing else is checked.
type Axis struct {
	Origin []float64 `json:"origin"`
	Dir    []float64 `json:"dir"`
	XDir   []float64 `json:"xdir"`
}

// Stock describes the blank. Type is BOX or CYLINDER, in any case.
type Stock struct {
	Type string  `json:"type"`
	P1   float64 `json:"p1"`
	P2   float64 `json:"p2"`
	P3   float64 `json:"p3"`
	Axis *Axis   `json:"axis"`
}

// Feature is a tagged variant. Only the payload matching Type is read.
type Feature struct {
	Type       string      `json:"type"`
	Drill      *Drill      `json:"drill,omitempty"`
	PocketRect *PocketRect `json:"pocketRect,omitempty"`
	TurnOD     *Turn       `json:"turnOd,omitempty"`
	TurnID     *Turn       `json:"turnId,omitempty"`
}

type Drill struct {
	Radius float64 `json:"radius"`
	Depth  float64 `json:"depth"`
	Axis   *Axis   `json:"axis"`
}

type PocketRect struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
	Axis   *Axis   `json:"axis"`
}

// Turn is shared by TURN_OD and TURN_ID. TargetDiameter and Length are
// derived from the profile when omitted.
type Turn struct {
	Profile        []ProfilePoint `json:"profile"`
	Axis           *Axis          `json:"axis"`
	TargetDiameter *float64       `json:"targetDiameter,omitempty"`
	Length         *float64       `json:"length,omitempty"`
}

type ProfilePoint struct {
	Z      float64 `json:"z"`
	Radius float64 `json:"radius"`
}

// Output names the artifacts of a run and the export tolerances.
type Output struct {
	LinearDeflection  float64 `json:"linearDeflection"`
	AngularDeflection float64 `json:"angularDeflection"`
	Parallel          Flag    `json:"parallel"`
	Dir               string  `json:"dir"`
	StepFile          string  `json:"stepFile"`
	StlFile           string  `json:"stlFile"`
	DeltaStepFile     string  `json:"deltaStepFile"`
	DeltaStlFile      string  `json:"deltaStlFile"`
}

// NewAxis returns a fresh wire axis with copies of the given vectors.
func NewAxis(origin, dir, xdir []float64) *Axis {
	return &Axis{
		Origin: cloneFloats(origin),
		Dir:    cloneFloats(dir),
		XDir:   cloneFloats(xdir),
	}
}

// WorldAxis is the default placement: origin at zero, Z up, X along +X.
func WorldAxis() *Axis {
	return NewAxis([]float64{0, 0, 0}, []float64{0, 0, 1}, []float64{1, 0, 0})
}

// Clone returns a deep copy of j. The copy shares no slices or pointers with
// the original, so edits to one never show through the other.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := &Job{
		Stock:  j.Stock,
		Output: j.Output,
	}
	out.Stock.Axis = j.Stock.Axis.clone()
	if j.Features != nil {
		out.Features = make([]Feature, len(j.Features))
		for i, f := range j.Features {
			out.Features[i] = f.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of f.
func (f Feature) Clone() Feature {
	out := Feature{Type: f.Type}
	if f.Drill != nil {
		d := *f.Drill
		d.Axis = f.Drill.Axis.clone()
		out.Drill = &d
	}
	if f.PocketRect != nil {
		p := *f.PocketRect
		p.Axis = f.PocketRect.Axis.clone()
		out.PocketRect = &p
	}
	out.TurnOD = f.TurnOD.clone()
	out.TurnID = f.TurnID.clone()
	return out
}

func (a *Axis) clone() *Axis {
	if a == nil {
		return nil
	}
	return NewAxis(a.Origin, a.Dir, a.XDir)
}

func (t *Turn) clone() *Turn {
	if t == nil {
		return nil
	}
	out := &Turn{Axis: t.Axis.clone()}
	if t.Profile != nil {
		out.Profile = append([]ProfilePoint{}, t.Profile...)
	}
	if t.TargetDiameter != nil {
		v := *t.TargetDiameter
		out.TargetDiameter = &v
	}
	if t.Length != nil {
		v := *t.Length
		out.Length = &v
	}
	return out
}

func cloneFloats(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append([]float64{}, v...)
}
