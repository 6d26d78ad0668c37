// Package memkernel is a pure-Go stand-in for the native geometry kernel.
//
// It reproduces the native kernel's argument checks, shape registry and
// status codes, but approximates every solid by its axis-aligned bounds and
// exports those bounds as STEP and STL. It is meant for development and for
// running the pipeline where the native library is not installed.
package memkernel

import (
	"math"
	"sync"

	"github.com/vk/millgrid/internal/geom"
	"github.com/vk/millgrid/internal/kernel"
	"github.com/vk/millgrid/internal/payload"
)

const eps = 1e-9

type instance struct {
	nextID kernel.ShapeID
	shapes map[kernel.ShapeID]box
}

func (in *instance) add(b box) kernel.ShapeID {
	in.nextID++
	in.shapes[in.nextID] = b
	return in.nextID
}

// Kernel implements kernel.Native. Kernel instances live in a handle table;
// shape ids are allocated per instance from 1 and never reused.
type Kernel struct {
	mu        sync.Mutex
	next      kernel.Handle
	instances map[kernel.Handle]*instance
}

var _ kernel.Native = (*Kernel)(nil)

// New returns an empty development kernel.
func New() *Kernel {
	return &Kernel{instances: make(map[kernel.Handle]*instance)}
}

// Live reports how many kernel instances are still open.
func (k *Kernel) Live() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.instances)
}

// Shapes reports how many shapes instance h still holds.
func (k *Kernel) Shapes(h kernel.Handle) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	if in, ok := k.instances[h]; ok {
		return len(in.shapes)
	}
	return 0
}

func (k *Kernel) CreateKernel() kernel.Handle {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.next++
	k.instances[k.next] = &instance{shapes: make(map[kernel.ShapeID]box)}
	return k.next
}

func (k *Kernel) DestroyKernel(h kernel.Handle) int32 {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.instances[h]; !ok {
		return kernel.CodeInvalidArgument
	}
	delete(k.instances, h)
	return kernel.CodeOK
}

func (k *Kernel) CreateStock(h kernel.Handle, s *payload.Stock) (kernel.ShapeID, int32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	in, ok := k.instances[h]
	if !ok || s == nil {
		return 0, kernel.CodeInvalidArgument
	}

	// Stocks are built in the world frame; the stock axis is not applied.
	var b box
	switch geom.StockKind(s.Type) {
	case geom.StockBox:
		if s.P1 <= 0 || s.P2 <= 0 || s.P3 <= 0 {
			return 0, kernel.CodeOCCTException
		}
		b = box{Max: vec{s.P1, s.P2, s.P3}}
	case geom.StockCylinder:
		if s.P1 <= 0 || s.P2 <= 0 {
			return 0, kernel.CodeOCCTException
		}
		b = box{Min: vec{-s.P1, -s.P1, 0}, Max: vec{s.P1, s.P1, s.P2}}
	default:
		return 0, kernel.CodeInvalidArgument
	}
	return in.add(b), kernel.CodeOK
}

func (k *Kernel) ApplyFeature(h kernel.Handle, shape kernel.ShapeID, f *payload.Feature) (payload.OperationResult, int32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	in, ok := k.instances[h]
	if !ok || f == nil {
		return payload.OperationResult{ErrorCode: kernel.CodeInvalidArgument}, kernel.CodeInvalidArgument
	}
	stock, ok := in.shapes[shape]
	if !ok {
		return fail(kernel.CodeShapeNotFound)
	}

	tool, status := toolBounds(stock, f)
	if status != kernel.CodeOK {
		return fail(status)
	}

	// The cut keeps the stock's bounds; the delta is what the tool overlaps.
	res := payload.OperationResult{
		ResultShapeID: int32(in.add(stock)),
		DeltaShapeID:  int32(in.add(stock.intersect(tool))),
	}
	return res, kernel.CodeOK
}

func fail(code int32) (payload.OperationResult, int32) {
	return payload.OperationResult{ErrorCode: code}, code
}

func (k *Kernel) DeleteShape(h kernel.Handle, shape kernel.ShapeID) int32 {
	k.mu.Lock()
	defer k.mu.Unlock()
	in, ok := k.instances[h]
	if !ok {
		return kernel.CodeInvalidArgument
	}
	if _, ok := in.shapes[shape]; !ok {
		return kernel.CodeShapeNotFound
	}
	delete(in.shapes, shape)
	return kernel.CodeOK
}

func (k *Kernel) ExportShape(h kernel.Handle, shape kernel.ShapeID, opts *payload.OutputOptions, path string) int32 {
	k.mu.Lock()
	in, ok := k.instances[h]
	var b box
	found := false
	if ok {
		b, found = in.shapes[shape]
	}
	k.mu.Unlock()

	if !ok || opts == nil || path == "" {
		return kernel.CodeInvalidArgument
	}
	if !found {
		return kernel.CodeShapeNotFound
	}

	var err error
	switch geom.OutputFormat(opts.Format) {
	case geom.FormatSTEP:
		err = writeSTEP(path, shape, b)
	case geom.FormatSTL:
		err = writeSTL(path, shape, b)
	default:
		return kernel.CodeInvalidArgument
	}
	if err != nil {
		return kernel.CodeExportFailed
	}
	return kernel.CodeOK
}

func axisFrame(a payload.Axis) (origin, dir, xdir vec, ok bool) {
	origin = vec(a.Origin)
	dir, ok1 := vec(a.Dir).unit()
	xdir, ok2 := vec(a.XDir).unit()
	return origin, dir, xdir, ok1 && ok2
}

// toolBounds validates a feature payload the way the native kernel does and
// returns the bounds of its removal tool.
func toolBounds(stock box, f *payload.Feature) (box, int32) {
	switch geom.FeatureKind(f.Type) {
	case geom.FeatureDrill:
		d := f.Drill()
		if d.Radius <= 0 || d.Depth <= 0 {
			return box{}, kernel.CodeInvalidArgument
		}
		origin, dir, _, ok := axisFrame(d.Axis)
		if !ok {
			return box{}, kernel.CodeOCCTException
		}
		return cylinderBounds(origin, dir, d.Radius, d.Depth), kernel.CodeOK

	case geom.FeaturePocketRect:
		p := f.PocketRect()
		if p.Width <= 0 || p.Height <= 0 || p.Depth <= 0 {
			return box{}, kernel.CodeInvalidArgument
		}
		origin, dir, xdir, ok := axisFrame(p.Axis)
		if !ok {
			return box{}, kernel.CodeOCCTException
		}
		ydir := dir.cross(xdir)
		corner := origin.add(xdir.scale(-0.5 * p.Width)).add(ydir.scale(-0.5 * p.Height))
		return boundsOf(corners(corner, xdir.scale(p.Width), ydir.scale(p.Height), dir.scale(p.Depth))...), kernel.CodeOK

	case geom.FeatureTurnOD:
		return turnBounds(stock, f.TurnOD(), false)
	case geom.FeatureTurnID:
		return turnBounds(stock, f.TurnID(), true)
	default:
		return box{}, kernel.CodeFeatureNotSupported
	}
}

// turnBounds returns the tool of a turn. TURN_OD removes the annulus between
// the stock's outer radius and each segment radius, skipping segments that
// reach the outer radius; its bounds are those of the outer cylinder.
// TURN_ID removes a cylinder of each segment radius and never looks at the
// stock.
func turnBounds(stock box, t *payload.Turn, bore bool) (box, int32) {
	var outer float64
	if !bore {
		if stock.empty() {
			return box{}, kernel.CodeBooleanFailed
		}
		span := stock.span()
		outer = math.Max(span[0], math.Max(span[1], span[2])) * 2
	}
	toolRadius := func(r float64) float64 {
		if bore {
			return r
		}
		return outer
	}

	origin, dir, _, ok := axisFrame(t.Axis)
	if !ok {
		return box{}, kernel.CodeOCCTException
	}

	if t.ProfileCount > 1 {
		var tool *box
		n := int(t.ProfileCount)
		if n > payload.ProfileCapacity {
			n = payload.ProfileCapacity
		}
		for i := 0; i < n-1; i++ {
			z0, z1, r := t.ProfileZ[i], t.ProfileZ[i+1], t.ProfileRadius[i]
			if r <= 0 || z1 < z0 {
				return box{}, kernel.CodeInvalidArgument
			}
			if z1-z0 <= eps {
				continue
			}
			if !bore && r >= outer-eps {
				continue
			}
			seg := cylinderBounds(origin.add(dir.scale(z0)), dir, toolRadius(r), z1-z0)
			if tool == nil {
				tool = &seg
				continue
			}
			merged := boundsOf(tool.Min, tool.Max, seg.Min, seg.Max)
			tool = &merged
		}
		if tool == nil {
			return box{}, kernel.CodeInvalidArgument
		}
		return *tool, kernel.CodeOK
	}

	if t.TargetDiameter <= 0 || t.Length <= 0 {
		return box{}, kernel.CodeInvalidArgument
	}
	return cylinderBounds(origin, dir, toolRadius(t.TargetDiameter/2), t.Length), kernel.CodeOK
}
