// Package casefile reads the flat key=value case format used by the kernel's
// sample runner. A case describes one stock, exactly one feature and the
// output options:
//
//	# box with one drill
//	stock.type=BOX
//	stock.p1=100
//	stock.axis.origin=0,0,0
//	feature.type=DRILL
//	feature.drill.radius=8
//	output.parallel=0
//
// Blank lines and lines starting with # are ignored. Later keys override
// earlier ones.
package casefile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vk/millgrid/internal/geom"
	"github.com/vk/millgrid/internal/job"
)

// ErrMissingKey is returned when a key required by the case is absent.
var ErrMissingKey = errors.New("missing key")

// SyntaxError reports a malformed line.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("case file line %d: %s", e.Line, e.Msg)
}

// Load reads the case file at path.
func Load(path string) (*job.Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load case: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a case from r and converts it into a job.
func Parse(r io.Reader) (*job.Job, error) {
	kv, err := readKeyValues(r)
	if err != nil {
		return nil, err
	}
	return kv.job()
}

type keyValues map[string]string

func readKeyValues(r io.Reader) (keyValues, error) {
	kv := keyValues{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		key, value, ok := strings.Cut(text, "=")
		if !ok {
			return nil, &SyntaxError{Line: line, Msg: "missing '='"}
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, &SyntaxError{Line: line, Msg: "empty key"}
		}
		kv[key] = strings.TrimSpace(value)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read case: %w", err)
	}
	return kv, nil
}

func (kv keyValues) require(key string) (string, error) {
	v, ok := kv[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingKey, key)
	}
	return v, nil
}

func (kv keyValues) float(key string) (float64, error) {
	raw, err := kv.require(key)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", key, raw)
	}
	return f, nil
}

func (kv keyValues) vector(key string) ([]float64, error) {
	raw, err := kv.require(key)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%s: expected 3 components, got %d", key, len(parts))
	}
	out := make([]float64, 3)
	for i, p := range parts {
		if out[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64); err != nil {
			return nil, fmt.Errorf("%s: invalid component %q", key, p)
		}
	}
	return out, nil
}

func (kv keyValues) axis(prefix string) (*job.Axis, error) {
	origin, err := kv.vector(prefix + ".origin")
	if err != nil {
		return nil, err
	}
	dir, err := kv.vector(prefix + ".dir")
	if err != nil {
		return nil, err
	}
	xdir, err := kv.vector(prefix + ".xdir")
	if err != nil {
		return nil, err
	}
	return job.NewAxis(origin, dir, xdir), nil
}

// floats reads several numeric keys sharing a prefix, in order.
func (kv keyValues) floats(prefix string, names ...string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, n := range names {
		v, err := kv.float(prefix + "." + n)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (kv keyValues) job() (*job.Job, error) {
	stockType, err := kv.require("stock.type")
	if err != nil {
		return nil, err
	}
	if _, ok := geom.ParseStockKind(stockType); !ok {
		return nil, fmt.Errorf("unsupported stock.type: %s", stockType)
	}
	dims, err := kv.floats("stock", "p1", "p2", "p3")
	if err != nil {
		return nil, err
	}
	stockAxis, err := kv.axis("stock.axis")
	if err != nil {
		return nil, err
	}

	feature, err := kv.feature()
	if err != nil {
		return nil, err
	}
	output, err := kv.output()
	if err != nil {
		return nil, err
	}

	return &job.Job{
		Stock:    job.Stock{Type: strings.ToUpper(stockType), P1: dims[0], P2: dims[1], P3: dims[2], Axis: stockAxis},
		Features: []job.Feature{feature},
		Output:   output,
	}, nil
}

func (kv keyValues) feature() (job.Feature, error) {
	tag, err := kv.require("feature.type")
	if err != nil {
		return job.Feature{}, err
	}
	kind, ok := geom.ParseFeatureKind(tag)
	if !ok {
		return job.Feature{}, fmt.Errorf("unsupported feature.type: %s", tag)
	}
	f := job.Feature{Type: kind.String()}

	switch kind {
	case geom.FeatureDrill:
		v, err := kv.floats("feature.drill", "radius", "depth")
		if err != nil {
			return f, err
		}
		axis, err := kv.axis("feature.drill.axis")
		if err != nil {
			return f, err
		}
		f.Drill = &job.Drill{Radius: v[0], Depth: v[1], Axis: axis}

	case geom.FeaturePocketRect:
		v, err := kv.floats("feature.pocketRect", "width", "height", "depth")
		if err != nil {
			return f, err
		}
		axis, err := kv.axis("feature.pocketRect.axis")
		if err != nil {
			return f, err
		}
		f.PocketRect = &job.PocketRect{Width: v[0], Height: v[1], Depth: v[2], Axis: axis}

	case geom.FeatureTurnOD:
		if f.TurnOD, err = kv.turn("feature.turnOd"); err != nil {
			return f, err
		}
	case geom.FeatureTurnID:
		if f.TurnID, err = kv.turn("feature.turnId"); err != nil {
			return f, err
		}
	}
	return f, nil
}

// turn reads a turn payload. Without a profile count the case gives a target
// diameter and length instead; those become a single straight segment with
// explicit overrides.
func (kv keyValues) turn(prefix string) (*job.Turn, error) {
	axis, err := kv.axis(prefix + ".axis")
	if err != nil {
		return nil, err
	}
	t := &job.Turn{Axis: axis}

	rawCount, ok := kv[prefix+".profile.count"]
	if !ok {
		v, err := kv.floats(prefix, "targetDiameter", "length")
		if err != nil {
			return nil, err
		}
		d, l := v[0], v[1]
		t.Profile = []job.ProfilePoint{{Z: 0, Radius: d / 2}, {Z: l, Radius: d / 2}}
		t.TargetDiameter, t.Length = &d, &l
		return t, nil
	}

	count, err := strconv.Atoi(rawCount)
	if err != nil || count < geom.MinProfilePoints || count > geom.MaxProfilePoints {
		return nil, fmt.Errorf("%s.profile.count out of range: %q", prefix, rawCount)
	}
	t.Profile = make([]job.ProfilePoint, count)
	for i := range t.Profile {
		v, err := kv.floats(prefix+".profile."+strconv.Itoa(i), "z", "radius")
		if err != nil {
			return nil, err
		}
		t.Profile[i] = job.ProfilePoint{Z: v[0], Radius: v[1]}
	}
	return t, nil
}

func (kv keyValues) output() (job.Output, error) {
	var o job.Output
	v, err := kv.floats("output", "linearDeflection", "angularDeflection")
	if err != nil {
		return o, err
	}
	o.LinearDeflection, o.AngularDeflection = v[0], v[1]

	parallel, err := kv.require("output.parallel")
	if err != nil {
		return o, err
	}
	switch parallel {
	case "1":
		o.Parallel = true
	case "0":
	default:
		return o, fmt.Errorf("output.parallel: expected 0 or 1, got %q", parallel)
	}

	names := []struct {
		key string
		dst *string
	}{
		{"output.dir", &o.Dir},
		{"output.stepFile", &o.StepFile},
		{"output.stlFile", &o.StlFile},
		{"output.deltaStepFile", &o.DeltaStepFile},
		{"output.deltaStlFile", &o.DeltaStlFile},
	}
	for _, n := range names {
		if *n.dst, err = kv.require(n.key); err != nil {
			return o, err
		}
	}
	return o, nil
}
