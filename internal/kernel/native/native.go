//go:build cgo && l1kernel

// Package native binds kernel.Native to the l1_geometry_kernel shared
// library. Build with -tags l1kernel and the header and library on the cgo
// search paths.
package native

/*
#cgo LDFLAGS: -ll1_geometry_kernel
#include <stdlib.h>
#include <l1_geometry_kernel.h>
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/vk/millgrid/internal/kernel"
	"github.com/vk/millgrid/internal/payload"
)

// Each payload type must have exactly the size of its C counterpart.
var (
	_ [unsafe.Sizeof(C.StockDto{}) - unsafe.Sizeof(payload.Stock{})]byte
	_ [unsafe.Sizeof(payload.Stock{}) - unsafe.Sizeof(C.StockDto{})]byte
	_ [unsafe.Sizeof(C.FeatureDto{}) - unsafe.Sizeof(payload.Feature{})]byte
	_ [unsafe.Sizeof(payload.Feature{}) - unsafe.Sizeof(C.FeatureDto{})]byte
	_ [unsafe.Sizeof(C.OperationResult{}) - unsafe.Sizeof(payload.OperationResult{})]byte
	_ [unsafe.Sizeof(payload.OperationResult{}) - unsafe.Sizeof(C.OperationResult{})]byte
	_ [unsafe.Sizeof(C.OutputOptions{}) - unsafe.Sizeof(payload.OutputOptions{})]byte
	_ [unsafe.Sizeof(payload.OutputOptions{}) - unsafe.Sizeof(C.OutputOptions{})]byte
)

// Available reports whether the native library is linked into this binary.
const Available = true

// Kernel implements kernel.Native over the C library. The C kernel pointers
// stay in a handle table so Go code only ever sees integer handles.
type Kernel struct {
	mu      sync.Mutex
	next    kernel.Handle
	handles map[kernel.Handle]unsafe.Pointer
}

var _ kernel.Native = (*Kernel)(nil)

// New returns a binding with an empty handle table.
func New() *Kernel {
	return &Kernel{handles: make(map[kernel.Handle]unsafe.Pointer)}
}

func (k *Kernel) lookup(h kernel.Handle) unsafe.Pointer {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.handles[h]
}

func (k *Kernel) CreateKernel() kernel.Handle {
	ptr := C.L1_CreateKernel()
	if ptr == nil {
		return 0
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.next++
	k.handles[k.next] = ptr
	return k.next
}

func (k *Kernel) DestroyKernel(h kernel.Handle) int32 {
	k.mu.Lock()
	ptr := k.handles[h]
	delete(k.handles, h)
	k.mu.Unlock()
	if ptr == nil {
		return kernel.CodeInvalidArgument
	}
	return int32(C.L1_DestroyKernel(ptr))
}

func (k *Kernel) CreateStock(h kernel.Handle, s *payload.Stock) (kernel.ShapeID, int32) {
	ptr := k.lookup(h)
	if ptr == nil {
		return 0, kernel.CodeInvalidArgument
	}
	var id C.int
	status := C.L1_CreateStock(ptr, (*C.StockDto)(unsafe.Pointer(s)), &id)
	return kernel.ShapeID(id), int32(status)
}

func (k *Kernel) ApplyFeature(h kernel.Handle, shape kernel.ShapeID, f *payload.Feature) (payload.OperationResult, int32) {
	ptr := k.lookup(h)
	if ptr == nil {
		return payload.OperationResult{ErrorCode: kernel.CodeInvalidArgument}, kernel.CodeInvalidArgument
	}
	var out payload.OperationResult
	status := C.L1_ApplyFeature(ptr, C.int(shape), (*C.FeatureDto)(unsafe.Pointer(f)), (*C.OperationResult)(unsafe.Pointer(&out)))
	return out, int32(status)
}

func (k *Kernel) DeleteShape(h kernel.Handle, shape kernel.ShapeID) int32 {
	ptr := k.lookup(h)
	if ptr == nil {
		return kernel.CodeInvalidArgument
	}
	return int32(C.L1_DeleteShape(ptr, C.int(shape)))
}

func (k *Kernel) ExportShape(h kernel.Handle, shape kernel.ShapeID, opts *payload.OutputOptions, path string) int32 {
	ptr := k.lookup(h)
	if ptr == nil {
		return kernel.CodeInvalidArgument
	}
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	return int32(C.L1_ExportShape(ptr, C.int(shape), (*C.OutputOptions)(unsafe.Pointer(opts)), cpath))
}
