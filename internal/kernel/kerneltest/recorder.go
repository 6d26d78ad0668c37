// Package kerneltest provides a recording fake of the native kernel boundary.
package kerneltest

import (
	"fmt"
	"os"
	"sync"

	"github.com/vk/millgrid/internal/kernel"
	"github.com/vk/millgrid/internal/payload"
)

// Native call names as recorded.
const (
	OpCreateKernel  = "create_kernel"
	OpDestroyKernel = "destroy_kernel"
	OpCreateStock   = "create_stock"
	OpApplyFeature  = "apply_feature"
	OpDeleteShape   = "delete_shape"
	OpExportShape   = "export_shape"
)

// Call is one recorded native call.
type Call struct {
	Op     string
	Kernel kernel.Handle
	// Shape is the shape argument, or the created shape for create_stock.
	Shape kernel.ShapeID
	// Result and Delta are set for successful apply_feature calls.
	Result kernel.ShapeID
	Delta  kernel.ShapeID
	// FeatureType and Format capture the decoded payload tag.
	FeatureType int32
	Format      int32
	Path        string
	Status      int32
}

// Failure makes the Nth call (1-based, counted per op) of an op return Code.
// Nth zero fails every call.
type Failure struct {
	Nth  int
	Code int32
}

// Recorder implements kernel.Native. Shape ids are handed out from 1 in
// creation order across all kernels, so tests can predict them. It is safe
// for concurrent use.
type Recorder struct {
	// FailCreateKernel makes CreateKernel return 0.
	FailCreateKernel bool
	// Failures maps an op name to an injected failure.
	Failures map[string]Failure
	// SkipFiles stops ExportShape from writing placeholder files.
	SkipFiles bool

	mu         sync.Mutex
	calls      []Call
	counts     map[string]int
	nextShape  kernel.ShapeID
	nextKernel kernel.Handle
	live       map[kernel.Handle]bool
}

var _ kernel.Native = (*Recorder)(nil)

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{}
}

// FailOn injects a failure and returns r for chaining.
func (r *Recorder) FailOn(op string, nth int, code int32) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Failures == nil {
		r.Failures = make(map[string]Failure)
	}
	r.Failures[op] = Failure{Nth: nth, Code: code}
	return r
}

// status counts a call of op and returns the injected code, if any.
// Callers hold r.mu.
func (r *Recorder) status(op string) int32 {
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[op]++
	f, ok := r.Failures[op]
	if !ok {
		return kernel.CodeOK
	}
	if f.Nth == 0 || f.Nth == r.counts[op] {
		return f.Code
	}
	return kernel.CodeOK
}

func (r *Recorder) allocShape() kernel.ShapeID {
	r.nextShape++
	return r.nextShape
}

func (r *Recorder) CreateKernel() kernel.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCreateKernel {
		r.calls = append(r.calls, Call{Op: OpCreateKernel})
		return 0
	}
	r.nextKernel++
	if r.live == nil {
		r.live = make(map[kernel.Handle]bool)
	}
	r.live[r.nextKernel] = true
	r.calls = append(r.calls, Call{Op: OpCreateKernel, Kernel: r.nextKernel})
	return r.nextKernel
}

func (r *Recorder) DestroyKernel(h kernel.Handle) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := r.status(OpDestroyKernel)
	delete(r.live, h)
	r.calls = append(r.calls, Call{Op: OpDestroyKernel, Kernel: h, Status: status})
	return status
}

func (r *Recorder) CreateStock(h kernel.Handle, _ *payload.Stock) (kernel.ShapeID, int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if status := r.status(OpCreateStock); status != kernel.CodeOK {
		r.calls = append(r.calls, Call{Op: OpCreateStock, Kernel: h, Status: status})
		return 0, status
	}
	id := r.allocShape()
	r.calls = append(r.calls, Call{Op: OpCreateStock, Kernel: h, Shape: id})
	return id, kernel.CodeOK
}

func (r *Recorder) ApplyFeature(h kernel.Handle, shape kernel.ShapeID, f *payload.Feature) (payload.OperationResult, int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	call := Call{Op: OpApplyFeature, Kernel: h, Shape: shape, FeatureType: f.Type}
	if status := r.status(OpApplyFeature); status != kernel.CodeOK {
		call.Status = status
		r.calls = append(r.calls, call)
		return payload.OperationResult{ErrorCode: status}, status
	}
	call.Result = r.allocShape()
	call.Delta = r.allocShape()
	r.calls = append(r.calls, call)
	return payload.OperationResult{ResultShapeID: int32(call.Result), DeltaShapeID: int32(call.Delta)}, kernel.CodeOK
}

func (r *Recorder) DeleteShape(h kernel.Handle, shape kernel.ShapeID) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := r.status(OpDeleteShape)
	r.calls = append(r.calls, Call{Op: OpDeleteShape, Kernel: h, Shape: shape, Status: status})
	return status
}

func (r *Recorder) ExportShape(h kernel.Handle, shape kernel.ShapeID, opts *payload.OutputOptions, path string) int32 {
	r.mu.Lock()
	status := r.status(OpExportShape)
	r.calls = append(r.calls, Call{Op: OpExportShape, Kernel: h, Shape: shape, Format: opts.Format, Path: path, Status: status})
	skip := r.SkipFiles
	r.mu.Unlock()

	if status != kernel.CodeOK || skip {
		return status
	}
	body := fmt.Sprintf("shape %d format %d\n", shape, opts.Format)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return kernel.CodeExportFailed
	}
	return kernel.CodeOK
}

// Calls returns a copy of every recorded call in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Ops returns the recorded op names in order.
func (r *Recorder) Ops() []string {
	var out []string
	for _, c := range r.Calls() {
		out = append(out, c.Op)
	}
	return out
}

// Count returns how many calls of op were recorded.
func (r *Recorder) Count(op string) int {
	n := 0
	for _, c := range r.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Created returns every shape id handed out by successful create_stock and
// apply_feature calls, in creation order.
func (r *Recorder) Created() []kernel.ShapeID {
	var out []kernel.ShapeID
	for _, c := range r.Calls() {
		if c.Status != kernel.CodeOK {
			continue
		}
		switch c.Op {
		case OpCreateStock:
			out = append(out, c.Shape)
		case OpApplyFeature:
			out = append(out, c.Result, c.Delta)
		}
	}
	return out
}

// Deleted returns the shape ids passed to delete_shape, in call order.
func (r *Recorder) Deleted() []kernel.ShapeID {
	var out []kernel.ShapeID
	for _, c := range r.Calls() {
		if c.Op == OpDeleteShape {
			out = append(out, c.Shape)
		}
	}
	return out
}

// LiveKernels reports how many kernel instances have not been destroyed.
func (r *Recorder) LiveKernels() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}
