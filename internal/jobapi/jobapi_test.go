package jobapi_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/millgrid/internal/diag"
	"github.com/vk/millgrid/internal/job"
	"github.com/vk/millgrid/internal/jobapi"
	"github.com/vk/millgrid/internal/kernel"
	"github.com/vk/millgrid/internal/kernel/kerneltest"
	"github.com/vk/millgrid/internal/pipeline"
	"github.com/vk/millgrid/internal/testutil"
)

func intPtr(v int) *int { return &v }

func drill() job.Feature {
	return testutil.DrilledBlock().Features[0]
}

func TestService_BuildJobStepByStep(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	svc := jobapi.NewService(nil)
	ref := testutil.DrilledBlock()

	// --- Act ---
	r := svc.Create(job.Defaults{Output: &ref.Output})
	require.True(t, r.OK)
	assert.Empty(t, r.Job.Features)

	r = svc.SetStock(r.Job, job.Stock{Type: "box", P1: 100, P2: 80, P3: 20, Axis: job.WorldAxis()})
	require.True(t, r.OK)
	r = svc.AddFeature(r.Job, job.Feature{Type: "drill", Drill: drill().Drill}, nil)
	require.True(t, r.OK)
	r = svc.Validate(r.Job)

	// --- Assert ---
	require.True(t, r.OK, "errors: %v", r.Errors)
	assert.Equal(t, ref, r.Job)
}

func TestService_AddFeature(t *testing.T) {
	t.Parallel()

	svc := jobapi.NewService(nil)
	base := testutil.Chain(2)

	tests := []struct {
		name      string
		feature   job.Feature
		index     *int
		wantOK    bool
		wantCode  diag.Code
		wantPath  string
		wantFirst string
		wantLen   int
	}{
		{name: "append on nil index", feature: drill(), wantOK: true, wantFirst: "POCKET_RECT", wantLen: 3},
		{name: "insert at front", feature: drill(), index: intPtr(0), wantOK: true, wantFirst: "DRILL", wantLen: 3},
		{name: "index past end appends", feature: drill(), index: intPtr(99), wantOK: true, wantFirst: "POCKET_RECT", wantLen: 3},
		{name: "negative index", feature: drill(), index: intPtr(-1), wantCode: diag.InvalidIndex, wantPath: "index", wantFirst: "POCKET_RECT", wantLen: 2},
		{name: "unknown type", feature: job.Feature{Type: "knurl"}, wantCode: diag.InvalidFeatureType, wantPath: "feature.type", wantFirst: "POCKET_RECT", wantLen: 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := svc.AddFeature(base, tc.feature, tc.index)

			assert.Equal(t, tc.wantOK, r.OK)
			require.NotNil(t, r.Job)
			require.Len(t, r.Job.Features, tc.wantLen)
			assert.Equal(t, tc.wantFirst, r.Job.Features[0].Type)
			if !tc.wantOK {
				require.Len(t, r.Errors, 1)
				assert.True(t, r.Errors.Has(tc.wantCode, tc.wantPath))
			}
			assert.Len(t, base.Features, 2, "the caller's job is never mutated")
		})
	}
}

func TestService_UnknownTypeMessageKeepsCallerSpelling(t *testing.T) {
	t.Parallel()

	r := jobapi.NewService(nil).AddFeature(nil, job.Feature{Type: "Knurl"}, nil)

	require.Len(t, r.Errors, 1)
	assert.Equal(t, "Unsupported feature.type: Knurl", r.Errors[0].Message)
}

func TestService_ValidateReportsEverything(t *testing.T) {
	t.Parallel()

	r := jobapi.NewService(nil).Validate(job.New(job.Defaults{}))

	assert.False(t, r.OK)
	assert.Contains(t, r.Errors.Codes(), diag.FeaturesEmpty)
	assert.Contains(t, r.Errors.Codes(), diag.InvalidStockType)
	assert.Contains(t, r.Errors.Codes(), diag.EmptyOutputDir)
}

func TestService_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	svc := jobapi.NewService(nil)

	pretty := svc.ToJSON(testutil.TurnedShaft(), true)
	compact := svc.ToJSON(testutil.TurnedShaft(), false)
	require.True(t, pretty.OK)
	assert.Contains(t, pretty.JSON, "\n  \"stock\"")
	assert.NotContains(t, compact.JSON, "\n")

	back := svc.FromJSON(compact.JSON)
	require.True(t, back.OK)
	assert.Equal(t, testutil.TurnedShaft(), back.Job)
}

func TestService_ToJSONRejectsNonFiniteNumbers(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	svc := jobapi.NewService(nil)
	j := testutil.DrilledBlock()
	j.Features[0].Drill.Depth = math.Inf(1)

	// --- Act ---
	r := svc.ToJSON(j, true)

	// --- Assert ---
	assert.False(t, r.OK)
	assert.Empty(t, r.JSON)
	assert.True(t, r.Errors.Has(diag.NonFiniteNumber, "features[0].drill.depth"))
	assert.NotContains(t, r.Errors.Codes(), diag.ParseError)
	assert.True(t, svc.Validate(j).Errors.Has(diag.NonFiniteNumber, "features[0].drill.depth"))
}

func TestService_FromJSONErrors(t *testing.T) {
	t.Parallel()

	svc := jobapi.NewService(nil)

	r := svc.FromJSON("   ")
	assert.True(t, r.Errors.Has(diag.EmptyJSON, "json"))

	r = svc.FromJSON(`{"stock":`)
	assert.False(t, r.OK)
	assert.True(t, r.Errors.Has(diag.ParseError, "json"))
	assert.Nil(t, r.Job)
}

func TestService_SaveAndLoad(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ctx, _ := testutil.LogContext(t)
	svc := jobapi.NewService(nil)
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "job.json")

	// --- Act ---
	saved := svc.SaveJSON(ctx, testutil.DrilledBlock(), path, job.SaveOptions{Pretty: true, EnsureDir: true})
	loaded := svc.LoadJSON(ctx, path)

	// --- Assert ---
	require.True(t, saved.OK, "errors: %v", saved.Errors)
	require.True(t, loaded.OK, "errors: %v", loaded.Errors)
	assert.Equal(t, testutil.DrilledBlock(), loaded.Job)

	r := svc.SaveJSON(ctx, testutil.DrilledBlock(), " ", job.SaveOptions{})
	assert.True(t, r.Errors.Has(diag.EmptyPath, "path"))

	r = svc.SaveJSON(ctx, testutil.DrilledBlock(), filepath.Join(dir, "absent", "job.json"), job.SaveOptions{})
	assert.True(t, r.Errors.Has(diag.IOError, "path"))

	r = svc.LoadJSON(ctx, "")
	assert.True(t, r.Errors.Has(diag.EmptyPath, "path"))

	r = svc.LoadJSON(ctx, filepath.Join(dir, "missing.json"))
	assert.True(t, r.Errors.Has(diag.FileNotFound, "path"))

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte("not json"), 0o644))
	r = svc.LoadJSON(ctx, garbage)
	assert.True(t, r.Errors.Has(diag.ParseError, "json"))
}

func TestService_RunAndFetch(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	rec := kerneltest.New()
	orch, err := pipeline.New(rec, pipeline.Options{OutputRoot: t.TempDir(), Delivery: pipeline.Ephemeral})
	require.NoError(t, err)
	svc := jobapi.NewService(orch)

	// --- Act ---
	r, err := svc.Run(context.Background(), testutil.DrilledBlock())

	// --- Assert ---
	require.NoError(t, err)
	require.True(t, r.OK)
	require.NotNil(t, r.Manifest)
	data, err := svc.Fetch(context.Background(), r.Manifest.RunID, r.Manifest.ResultStl.Name)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "shape "))
	_, err = svc.Fetch(context.Background(), r.Manifest.RunID, r.Manifest.ResultStl.Name)
	assert.ErrorIs(t, err, pipeline.ErrArtifactNotFound)
}

func TestService_RunSeparatesDiagnosticsFromFailures(t *testing.T) {
	t.Parallel()

	rec := kerneltest.New().FailOn(kerneltest.OpCreateStock, 1, kernel.CodeInvalidArgument)
	orch, err := pipeline.New(rec, pipeline.Options{OutputRoot: t.TempDir(), Delivery: pipeline.Persistent})
	require.NoError(t, err)
	svc := jobapi.NewService(orch)

	bad := testutil.DrilledBlock()
	bad.Features = nil
	r, err := svc.Run(context.Background(), bad)
	require.NoError(t, err)
	assert.False(t, r.OK)
	assert.True(t, r.Errors.Has(diag.FeaturesEmpty, "features"))

	_, err = svc.Run(context.Background(), testutil.DrilledBlock())
	code, ok := kernel.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, kernel.CodeInvalidArgument, code)
}

func TestService_RunWithoutOrchestrator(t *testing.T) {
	t.Parallel()

	_, err := jobapi.NewService(nil).Run(context.Background(), testutil.DrilledBlock())
	assert.Error(t, err)
	_, err = jobapi.NewService(nil).Fetch(context.Background(), "id", "f")
	assert.Error(t, err)
}
