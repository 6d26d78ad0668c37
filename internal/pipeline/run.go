// Package pipeline drives a job through a kernel session and lays out its
// artifacts.
//
// One Run owns one kernel session and one freshly created run directory.
// Concurrent runs share nothing but the output root, and never contend on a
// path because every run directory is named by a unique run id.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vk/millgrid/internal/ctxlog"
	"github.com/vk/millgrid/internal/geom"
	"github.com/vk/millgrid/internal/job"
	"github.com/vk/millgrid/internal/kernel"
	"github.com/vk/millgrid/internal/notify"
	"github.com/vk/millgrid/internal/validate"
)

// Artifact is one exported file.
type Artifact struct {
	Name string `json:"name"`
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Manifest lists the artifacts of a successful run.
type Manifest struct {
	RunID      string   `json:"runId"`
	Dir        string   `json:"dir"`
	Delivery   Delivery `json:"delivery"`
	ResultStep Artifact `json:"resultStep"`
	ResultStl  Artifact `json:"resultStl"`
	DeltaStep  Artifact `json:"deltaStep"`
	DeltaStl   Artifact `json:"deltaStl"`
}

// Artifacts returns the four artifacts in a fixed order.
func (m *Manifest) Artifacts() []Artifact {
	return []Artifact{m.ResultStep, m.ResultStl, m.DeltaStep, m.DeltaStl}
}

// Orchestrator runs jobs against one kernel boundary. It is safe for
// concurrent use; each Run opens its own session.
type Orchestrator struct {
	native kernel.Native
	opts   Options

	// fetchMu serializes ephemeral fetches so an artifact is served once.
	fetchMu sync.Mutex
}

// New validates opts and returns an Orchestrator. The delivery mode has no
// default and must be set.
func New(native kernel.Native, opts Options) (*Orchestrator, error) {
	if _, err := ParseDelivery(string(opts.Delivery)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.OutputRoot) == "" {
		return nil, errors.New("pipeline: output root must not be empty")
	}
	opts.Defaults = opts.Defaults.withDefaults()
	if opts.URLPrefix == "" {
		opts.URLPrefix = "/output"
	}
	if opts.NewRunID == nil {
		opts.NewRunID = newUUIDv7
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.Parallel < 1 {
		opts.Parallel = 1
	}
	return &Orchestrator{native: native, opts: opts}, nil
}

// Delivery reports the configured delivery mode.
func (o *Orchestrator) Delivery() Delivery { return o.opts.Delivery }

// Run validates j, converts it, applies its features in a fresh kernel
// session and exports the final result and the last step's delta as STEP
// and STL into a new run directory.
//
// Validation problems come back as *ValidationError and conversion problems
// as *job.ConversionError, both before anything touches the disk or the
// kernel. Once the run directory exists, any failure removes it again, so a
// failed run leaves no partial artifacts behind. The kernel session is
// disposed on every path.
func (o *Orchestrator) Run(ctx context.Context, j *job.Job) (*Manifest, error) {
	if ds := validate.Validate(j); len(ds) > 0 {
		return nil, &ValidationError{Diagnostics: ds}
	}
	kj, err := job.ToKernel(j)
	if err != nil {
		return nil, err
	}

	runID, err := o.opts.NewRunID()
	if err != nil {
		return nil, fmt.Errorf("pipeline: generate run id: %w", err)
	}
	if !validRunID(runID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRunID, runID)
	}
	logger := ctxlog.FromContext(ctx).With("run_id", runID)
	ctx = ctxlog.WithLogger(ctx, logger)

	started := time.Now()
	logger.Info("▶️ Run started.", "features", len(kj.Features))
	o.opts.Notifier.Notify(ctx, notify.Event{
		Type:  notify.RunStarted,
		RunID: runID,
		Time:  started,
		Data:  map[string]any{"features": len(kj.Features)},
	})

	m, err := o.execute(ctx, runID, kj)
	if err != nil {
		logger.Error("Run failed.", "error", err)
		o.opts.Notifier.Notify(ctx, notify.Event{Type: notify.RunFailed, RunID: runID, Time: time.Now(), Error: err.Error()})
		return nil, err
	}

	logger.Info("✅ Run completed.", "dir", m.Dir, "duration", time.Since(started))
	o.opts.Notifier.Notify(ctx, notify.Event{
		Type:  notify.RunCompleted,
		RunID: runID,
		Time:  time.Now(),
		Data:  map[string]any{"manifest": m},
	})
	return m, nil
}

func (o *Orchestrator) execute(ctx context.Context, runID string, kj *geom.Job) (m *Manifest, err error) {
	logger := ctxlog.FromContext(ctx)

	parent := filepath.Join(o.opts.OutputRoot, Sanitize(kj.Dir, o.opts.Defaults.Dir))
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, &IOError{Op: "create directory", Path: parent, Err: err}
	}
	runDir := filepath.Join(parent, runID)
	if err := os.Mkdir(runDir, 0o755); err != nil {
		return nil, &IOError{Op: "create run directory", Path: runDir, Err: err}
	}
	defer func() {
		if err == nil {
			return
		}
		if rmErr := os.RemoveAll(runDir); rmErr != nil {
			logger.Warn("Could not roll back run directory.", "dir", runDir, "error", rmErr)
			return
		}
		logger.Debug("Run directory rolled back.", "dir", runDir)
	}()

	d := o.opts.Defaults
	names := uniqueNames(
		Sanitize(kj.StepFile, d.StepFile),
		Sanitize(kj.StlFile, d.StlFile),
		Sanitize(kj.DeltaStepFile, d.DeltaStepFile),
		Sanitize(kj.DeltaStlFile, d.DeltaStlFile),
	)

	session, err := kernel.Open(ctx, o.native)
	if err != nil {
		return nil, err
	}
	defer session.Dispose(ctx)

	stock, err := session.CreateStock(ctx, kj.Stock)
	if err != nil {
		return nil, err
	}
	results, err := session.ApplyFeatures(ctx, stock, kj.Features)
	if err != nil {
		return nil, err
	}
	final := results[len(results)-1]

	m = &Manifest{RunID: runID, Dir: runDir, Delivery: o.opts.Delivery}
	exports := []struct {
		shape  kernel.ShapeID
		format geom.OutputFormat
		dst    *Artifact
	}{
		{final.Result, geom.FormatSTEP, &m.ResultStep},
		{final.Result, geom.FormatSTL, &m.ResultStl},
		{final.Delta, geom.FormatSTEP, &m.DeltaStep},
		{final.Delta, geom.FormatSTL, &m.DeltaStl},
	}
	for i, e := range exports {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := filepath.Join(runDir, names[i])
		if err := session.ExportShape(ctx, e.shape, kj.Options.WithFormat(e.format), p); err != nil {
			return nil, fmt.Errorf("export %s: %w", names[i], err)
		}
		*e.dst = Artifact{
			Name: names[i],
			Path: p,
			URL:  path.Join(o.opts.URLPrefix, runID, names[i]),
		}
	}
	return m, nil
}

// validRunID accepts ids that are a single safe path element.
func validRunID(id string) bool {
	return id != "" && Sanitize(id, "") == id
}
