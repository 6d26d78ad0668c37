//go:build !cgo || !l1kernel

package native

import (
	"github.com/vk/millgrid/internal/kernel"
	"github.com/vk/millgrid/internal/payload"
)

// Available reports whether the native library is linked into this binary.
const Available = false

// Kernel is the placeholder used when the binary is built without the
// l1kernel tag. Every kernel creation fails, so opening a session returns
// kernel.ErrSessionInit.
type Kernel struct{}

var _ kernel.Native = (*Kernel)(nil)

func New() *Kernel { return &Kernel{} }

func (*Kernel) CreateKernel() kernel.Handle { return 0 }
func (*Kernel) DestroyKernel(kernel.Handle) int32 { return kernel.CodeInvalidArgument }
func (*Kernel) DeleteShape(kernel.Handle, kernel.ShapeID) int32 { return kernel.CodeInvalidArgument }

func (*Kernel) CreateStock(kernel.Handle, *payload.Stock) (kernel.ShapeID, int32) {
	return 0, kernel.CodeInvalidArgument
}

func (*Kernel) ApplyFeature(kernel.Handle, kernel.ShapeID, *payload.Feature) (payload.OperationResult, int32) {
	return payload.OperationResult{ErrorCode: kernel.CodeInvalidArgument}, kernel.CodeInvalidArgument
}

func (*Kernel) ExportShape(kernel.Handle, kernel.ShapeID, *payload.OutputOptions, string) int32 {
	return kernel.CodeInvalidArgument
}
