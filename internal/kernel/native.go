// Package kernel adapts the native geometry kernel to Go.
//
// The boundary itself is the Native interface: six blocking calls that mirror
// the C entry points one to one and speak only in fixed-layout payloads and
// integer status codes. Session sits on top of it and owns everything the
// kernel hands out, releasing it in reverse order of creation when the
// session is disposed.
package kernel

import "github.com/vk/millgrid/internal/payload"

// Handle is an opaque kernel instance reference. Zero is never a valid handle.
type Handle uintptr

// ShapeID identifies a solid inside one kernel instance.
type ShapeID int32

// Native is the capability contract of the geometry kernel. Every method is
// synchronous. Status results are zero on success and an opaque kernel error
// code otherwise.
//
// Payload pointers are only valid for the duration of the call;
// implementations must not retain them.
type Native interface {
	// CreateKernel returns a fresh kernel instance, or 0 on failure.
	CreateKernel() Handle
	DestroyKernel(h Handle) int32
	CreateStock(h Handle, stock *payload.Stock) (ShapeID, int32)
	ApplyFeature(h Handle, shape ShapeID, feature *payload.Feature) (payload.OperationResult, int32)
	DeleteShape(h Handle, shape ShapeID) int32
	ExportShape(h Handle, shape ShapeID, opts *payload.OutputOptions, path string) int32
}
