package kernel

import (
	"context"
	"fmt"

	"github.com/vk/millgrid/internal/ctxlog"
	"github.com/vk/millgrid/internal/geom"
	"github.com/vk/millgrid/internal/payload"
)

// State is the lifecycle position of a Session.
type State int

const (
	// StateCreated: the kernel instance exists and no shape is owned yet.
	StateCreated State = iota
	// StateActive: at least one shape has been created and is owned.
	StateActive
	// StateDisposed is terminal.
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateActive:
		return "active"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// OperationResult is the outcome of one feature application. Result is the
// new working solid; Delta is the material the step removed.
type OperationResult struct {
	Result ShapeID
	Delta  ShapeID
}

// Session owns one native kernel instance and every shape created through it.
//
// A Session is single-owner: it is not safe for concurrent use. Dispose must
// run on every exit path; it is idempotent, so deferring it right after Open
// is always correct.
type Session struct {
	native Native
	handle Handle
	state  State

	// owned is a LIFO stack of every shape the kernel has returned.
	owned []ShapeID
}

// Open creates a native kernel instance and wraps it in a Session. It fails
// with ErrSessionInit when the kernel returns no handle.
func Open(ctx context.Context, native Native) (*Session, error) {
	logger := ctxlog.FromContext(ctx)
	h := native.CreateKernel()
	if h == 0 {
		logger.Error("Native kernel creation returned no handle.")
		return nil, ErrSessionInit
	}
	logger.Debug("▶️ Kernel session opened.")
	return &Session{native: native, handle: h, state: StateCreated}, nil
}

// State reports where the session is in its lifecycle.
func (s *Session) State() State { return s.state }

// Owned returns a copy of the owned-shape stack, oldest first.
func (s *Session) Owned() []ShapeID {
	return append([]ShapeID(nil), s.owned...)
}

func (s *Session) checkLive(op string) error {
	if s.state == StateDisposed {
		return fmt.Errorf("%s: %w", op, ErrUseAfterDispose)
	}
	return nil
}

func (s *Session) push(ids ...ShapeID) {
	s.owned = append(s.owned, ids...)
	s.state = StateActive
}

// CreateStock builds the blank and takes ownership of it.
func (s *Session) CreateStock(ctx context.Context, stock geom.Stock) (ShapeID, error) {
	if err := s.checkLive("create_stock"); err != nil {
		return 0, err
	}
	p := payload.EncodeStock(stock)
	id, status := s.native.CreateStock(s.handle, &p)
	if status != CodeOK {
		return 0, &NativeCallError{Op: "create_stock", Code: status}
	}
	s.push(id)
	ctxlog.FromContext(ctx).Debug("Stock created.", "kind", stock.Kind, "shape_id", id)
	return id, nil
}

// ApplyFeatures applies features in order, each one against the result of
// the previous step and the first against start. Both the result and the
// delta of every successful step are owned by the session.
//
// On the first non-zero status it stops and returns the results produced so
// far together with a *NativeCallError. Cancelling ctx stops it between
// steps the same way. Shapes created before the failure stay owned and are
// released by Dispose.
func (s *Session) ApplyFeatures(ctx context.Context, start ShapeID, features []geom.Feature) ([]OperationResult, error) {
	if err := s.checkLive("apply_feature"); err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx)

	results := make([]OperationResult, 0, len(features))
	current := start
	for i, f := range features {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("feature %d (%s): %w", i, f.Kind(), err)
		}
		p := payload.Encode(f)
		res, status := s.native.ApplyFeature(s.handle, current, &p)
		if status == CodeOK && res.ErrorCode != CodeOK {
			status = res.ErrorCode
		}
		if status != CodeOK {
			logger.Warn("Feature application failed.", "index", i, "feature", f.Kind(), "code", status, "code_name", CodeName(status))
			return results, fmt.Errorf("feature %d (%s): %w", i, f.Kind(), &NativeCallError{Op: "apply_feature", Code: status})
		}

		step := OperationResult{Result: ShapeID(res.ResultShapeID), Delta: ShapeID(res.DeltaShapeID)}
		s.push(step.Result, step.Delta)
		results = append(results, step)
		logger.Debug("Feature applied.", "index", i, "feature", f.Kind(), "input_shape", current, "result_shape", step.Result, "delta_shape", step.Delta)
		current = step.Result
	}
	return results, nil
}

// ExportShape writes shape to path. Export neither creates nor consumes
// shapes.
func (s *Session) ExportShape(ctx context.Context, shape ShapeID, opts geom.OutputOptions, path string) error {
	if err := s.checkLive("export_shape"); err != nil {
		return err
	}
	p := payload.EncodeOutput(opts)
	if status := s.native.ExportShape(s.handle, shape, &p, path); status != CodeOK {
		return &NativeCallError{Op: "export_shape", Code: status}
	}
	ctxlog.FromContext(ctx).Debug("Shape exported.", "shape_id", shape, "format", opts.Format, "path", path)
	return nil
}

// Dispose releases every owned shape, newest first, and then the kernel
// instance itself. Failed deletes are logged and skipped so that every shape
// still gets its delete call. Calling Dispose again is a no-op.
func (s *Session) Dispose(ctx context.Context) {
	if s.state == StateDisposed {
		return
	}
	logger := ctxlog.FromContext(ctx)

	released := len(s.owned)
	for i := len(s.owned) - 1; i >= 0; i-- {
		id := s.owned[i]
		logger.Debug("🔥 Releasing shape.", "shape_id", id)
		if status := s.native.DeleteShape(s.handle, id); status != CodeOK {
			logger.Warn("Shape delete failed; continuing cleanup.", "shape_id", id, "code", status, "code_name", CodeName(status))
		}
	}
	s.owned = nil

	if status := s.native.DestroyKernel(s.handle); status != CodeOK {
		logger.Warn("Kernel destroy failed.", "code", status, "code_name", CodeName(status))
	}
	s.handle = 0
	s.state = StateDisposed
	logger.Debug("🏁 Kernel session disposed.", "shapes_released", released)
}
