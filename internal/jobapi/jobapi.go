// Package jobapi is the operation surface offered to wrappers such as an HTTP
// handler or the CLI. Every operation answers with a Response: expected,
// caller-fixable conditions (invalid input, a missing file, a rejected job)
// come back as diagnostics with OK set to false, never as a Go error. Only
// Run and Fetch return errors, and only for failures the caller cannot fix by
// editing the job.
//
// Editing operations never mutate the job they are given; they work on a
// copy and return it.
package jobapi

import (
	"context"
	"errors"
	"io/fs"
	"strings"

	"github.com/vk/millgrid/internal/ctxlog"
	"github.com/vk/millgrid/internal/diag"
	"github.com/vk/millgrid/internal/job"
	"github.com/vk/millgrid/internal/pipeline"
	"github.com/vk/millgrid/internal/validate"
)

// Response is the result of one operation.
type Response struct {
	OK       bool               `json:"ok"`
	Job      *job.Job           `json:"job,omitempty"`
	JSON     string             `json:"json,omitempty"`
	Errors   diag.Diagnostics   `json:"errors,omitempty"`
	Manifest *pipeline.Manifest `json:"manifest,omitempty"`
}

func ok(j *job.Job) Response {
	return Response{OK: true, Job: j}
}

func fail(j *job.Job, ds ...diag.Diagnostic) Response {
	return Response{Job: j, Errors: ds}
}

// Service implements the operations. The orchestrator is only needed by Run
// and Fetch and may be nil for editing-only use.
type Service struct {
	orch *pipeline.Orchestrator
}

func NewService(orch *pipeline.Orchestrator) *Service {
	return &Service{orch: orch}
}

// Create returns a draft job with no features, seeded from d.
func (s *Service) Create(d job.Defaults) Response {
	return ok(job.New(d))
}

// draft copies j, or starts an empty draft when j is nil.
func draft(j *job.Job) *job.Job {
	if j == nil {
		return job.New(job.Defaults{})
	}
	return j.Clone()
}

func (s *Service) SetStock(j *job.Job, stock job.Stock) Response {
	out := draft(j)
	out.SetStock(stock)
	return ok(out)
}

// AddFeature inserts f at index. A nil index or one past the end appends; a
// negative index is rejected with INVALID_INDEX and an unknown type with
// INVALID_FEATURE_TYPE. On rejection the job is returned unchanged.
func (s *Service) AddFeature(j *job.Job, f job.Feature, index *int) Response {
	out := draft(j)
	err := out.AddFeature(f, index)
	switch {
	case errors.Is(err, job.ErrUnknownFeatureType):
		return fail(draft(j), diag.Newf(diag.InvalidFeatureType, "feature.type", "Unsupported feature.type: %s", f.Type))
	case errors.Is(err, job.ErrInvalidIndex):
		return fail(draft(j), diag.New(diag.InvalidIndex, "index", "index must be >= 0."))
	}
	return ok(out)
}

func (s *Service) SetOutput(j *job.Job, o job.Output) Response {
	out := draft(j)
	out.SetOutput(o)
	return ok(out)
}

// Validate reports every structural defect of j.
func (s *Service) Validate(j *job.Job) Response {
	out := draft(j)
	ds := validate.Validate(out)
	if len(ds) > 0 {
		return fail(out, ds...)
	}
	return ok(out)
}

// ToJSON serializes j, indented when pretty is set.
func (s *Service) ToJSON(j *job.Job, pretty bool) Response {
	out := draft(j)
	if bad := job.NonFinite(out); len(bad) > 0 {
		ds := make(diag.Diagnostics, 0, len(bad))
		for _, p := range bad {
			ds = append(ds, diag.Newf(diag.NonFiniteNumber, p, "%s must be a finite number.", p))
		}
		return fail(out, ds...)
	}
	data, err := job.Serialize(out, pretty)
	if err != nil {
		return fail(out, diag.New(diag.ParseError, "job", err.Error()))
	}
	resp := ok(out)
	resp.JSON = string(data)
	return resp
}

// SaveJSON writes j to path.
func (s *Service) SaveJSON(ctx context.Context, j *job.Job, path string, opts job.SaveOptions) Response {
	out := draft(j)
	if strings.TrimSpace(path) == "" {
		return fail(nil, diag.New(diag.EmptyPath, "path", "path must not be empty."))
	}
	if err := job.Save(path, out, opts); err != nil {
		ctxlog.FromContext(ctx).Warn("Could not save job.", "path", path, "error", err)
		return fail(nil, diag.New(diag.IOError, "path", err.Error()))
	}
	ctxlog.FromContext(ctx).Debug("Job saved.", "path", path, "features", len(out.Features))
	return ok(out)
}

// FromJSON parses a wire document.
func (s *Service) FromJSON(data string) Response {
	if strings.TrimSpace(data) == "" {
		return fail(nil, diag.New(diag.EmptyJSON, "json", "json must not be empty."))
	}
	j, err := job.Parse([]byte(data))
	if err != nil {
		return fail(nil, diag.New(diag.ParseError, "json", err.Error()))
	}
	return ok(j)
}

// LoadJSON reads and parses the wire document at path.
func (s *Service) LoadJSON(ctx context.Context, path string) Response {
	if strings.TrimSpace(path) == "" {
		return fail(nil, diag.New(diag.EmptyPath, "path", "path must not be empty."))
	}
	j, err := job.Load(path)
	var parseErr *job.ParseError
	switch {
	case err == nil:
		ctxlog.FromContext(ctx).Debug("Job loaded.", "path", path, "features", len(j.Features))
		return ok(j)
	case errors.Is(err, fs.ErrNotExist):
		return fail(nil, diag.New(diag.FileNotFound, "path", err.Error()))
	case errors.As(err, &parseErr):
		return fail(nil, diag.New(diag.ParseError, "json", err.Error()))
	default:
		return fail(nil, diag.New(diag.IOError, "path", err.Error()))
	}
}

// Run executes j. A job rejected by validation or conversion yields a
// response carrying the diagnostics; kernel, filesystem and configuration
// failures are returned as errors.
func (s *Service) Run(ctx context.Context, j *job.Job) (Response, error) {
	if s.orch == nil {
		return Response{}, errNoOrchestrator
	}
	m, err := s.orch.Run(ctx, j)
	var ve *pipeline.ValidationError
	var ce *job.ConversionError
	switch {
	case err == nil:
		return Response{OK: true, Job: j, Manifest: m}, nil
	case errors.As(err, &ve):
		return fail(j, ve.Diagnostics...), nil
	case errors.As(err, &ce):
		return fail(j, diag.New(diag.ConversionFailed, ce.Path, ce.Message)), nil
	default:
		return Response{}, err
	}
}

// Fetch returns one artifact of a finished run.
func (s *Service) Fetch(ctx context.Context, runID, fileName string) ([]byte, error) {
	if s.orch == nil {
		return nil, errNoOrchestrator
	}
	return s.orch.Fetch(ctx, runID, fileName)
}

var errNoOrchestrator = errors.New("jobapi: service has no orchestrator")
