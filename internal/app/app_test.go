package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/millgrid/internal/config"
	"github.com/vk/millgrid/internal/job"
	"github.com/vk/millgrid/internal/kernel/kerneltest"
	"github.com/vk/millgrid/internal/kernel/memkernel"
	"github.com/vk/millgrid/internal/kernel/native"
	"github.com/vk/millgrid/internal/notify"
	"github.com/vk/millgrid/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

// setupAppTest wires an App writing debug logs into a buffer.
func setupAppTest(t *testing.T, mutate func(*config.Config), opts ...Option) (*App, *testutil.SafeBuffer) {
	t.Helper()

	cfg := config.Default()
	cfg.OutputRoot = t.TempDir()
	cfg.Delivery = "persistent"
	cfg.Log.Level = "debug"
	if mutate != nil {
		mutate(cfg)
	}

	logs := &testutil.SafeBuffer{}
	a, err := New(context.Background(), logs, cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		a.Close()
		if os.Getenv("MILLGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return a, logs
}

func writeJobFiles(t *testing.T) (jsonPath, hclPath, casePath string) {
	t.Helper()
	dir := t.TempDir()

	jsonPath = filepath.Join(dir, "block.json")
	require.NoError(t, job.Save(jsonPath, testutil.DrilledBlock(), job.SaveOptions{Pretty: true}))

	hclPath = filepath.Join(dir, "shaft.hcl")
	require.NoError(t, os.WriteFile(hclPath, []byte(`
variable "stock_radius" {
  default = 25
}
stock "CYLINDER" {
  p1 = var.stock_radius
  p2 = 60
}
feature "TURN_OD" {
  profile = [{ z = 0, radius = 20 }, { z = 60, radius = 20 }]
  axis {
    origin = [0, 0, 0]
    dir    = [0, 0, 1]
    xdir   = [1, 0, 0]
  }
}
output {
  dir             = "shaft"
  step_file       = "shaft.step"
  stl_file        = "shaft.stl"
  delta_step_file = "chips.step"
  delta_stl_file  = "chips.stl"
}
`), 0o644))

	casePath = filepath.Join(dir, "pocket.case")
	require.NoError(t, os.WriteFile(casePath, []byte(`
stock.type=BOX
stock.p1=50
stock.p2=50
stock.p3=10
stock.axis.origin=0,0,0
stock.axis.dir=0,0,1
stock.axis.xdir=1,0,0
feature.type=POCKET_RECT
feature.pocketRect.width=10
feature.pocketRect.height=10
feature.pocketRect.depth=3
feature.pocketRect.axis.origin=25,25,10
feature.pocketRect.axis.dir=0,0,-1
feature.pocketRect.axis.xdir=1,0,0
output.linearDeflection=0.1
output.angularDeflection=0.5
output.parallel=1
output.dir=pocket
output.stepFile=result.step
output.stlFile=result.stl
output.deltaStepFile=delta.step
output.deltaStlFile=delta.stl
`), 0o644))
	return jsonPath, hclPath, casePath
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	_, err := New(context.Background(), &testutil.SafeBuffer{}, cfg)

	var ce *config.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "delivery", ce.Field)
}

func TestNew_NativeBackendWithoutLibrary(t *testing.T) {
	t.Parallel()
	if native.Available {
		t.Skip("native kernel is linked")
	}

	cfg := config.Default()
	cfg.Delivery = "ephemeral"
	cfg.Kernel.Backend = config.BackendNative

	_, err := New(context.Background(), &testutil.SafeBuffer{}, cfg)

	assert.ErrorIs(t, err, ErrNativeUnavailable)
}

func TestNew_UnreachableNotifierDoesNotBlockStartup(t *testing.T) {
	t.Parallel()

	a, logs := setupAppTest(t, func(c *config.Config) {
		c.Notify.SocketIOURL = "not a url"
	})

	assert.Equal(t, notify.Log{}, a.notifier)
	assert.Contains(t, logs.String(), "Run events will not be sent over socket.io.")
}

func TestRun_MixedFormatsWithDevelopmentKernel(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	k := memkernel.New()
	events := notify.NewRecorder(16)
	a, logs := setupAppTest(t, nil, WithNative(k), WithNotifier(events))
	jsonPath, hclPath, casePath := writeJobFiles(t)

	// --- Act ---
	results, err := a.Run(context.Background(), []string{jsonPath, hclPath, casePath}, nil)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		require.NoError(t, r.Err, "job %d", i)
		for _, art := range r.Manifest.Artifacts() {
			assert.FileExists(t, art.Path)
		}
	}
	assert.Equal(t, "shaft.step", results[1].Manifest.ResultStep.Name)
	assert.Equal(t, filepath.Join(a.cfg.OutputRoot, "pocket", results[2].Manifest.RunID), results[2].Manifest.Dir)
	assert.Zero(t, k.Live())
	assert.Len(t, events.Drain(), 6)
	assert.Contains(t, logs.String(), "app=millgrid")
}

func TestRun_LoadFailureRunsNothing(t *testing.T) {
	t.Parallel()

	rec := kerneltest.New()
	a, _ := setupAppTest(t, nil, WithNative(rec))
	jsonPath, _, _ := writeJobFiles(t)

	_, err := a.Run(context.Background(), []string{jsonPath, filepath.Join(t.TempDir(), "job.yaml")}, nil)

	assert.ErrorContains(t, err, "unsupported job file")
	assert.Empty(t, rec.Calls())
}

func TestRun_ReportsFailedJobs(t *testing.T) {
	t.Parallel()

	rec := kerneltest.New()
	a, _ := setupAppTest(t, nil, WithNative(rec))
	jsonPath, _, _ := writeJobFiles(t)
	bad := testutil.DrilledBlock()
	bad.Output.Dir = " "
	badPath := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, job.Save(badPath, bad, job.SaveOptions{}))

	results, err := a.Run(context.Background(), []string{jsonPath, badPath}, nil)

	require.Error(t, err)
	assert.ErrorContains(t, err, "job 1:")
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
}

func TestLoadJob_HCLVariables(t *testing.T) {
	t.Parallel()

	_, hclPath, _ := writeJobFiles(t)

	j, err := LoadJob(context.Background(), hclPath, map[string]cty.Value{"stock_radius": cty.NumberIntVal(30)})

	require.NoError(t, err)
	assert.Equal(t, 30.0, j.Stock.P1)
}

func TestService_IsWired(t *testing.T) {
	t.Parallel()

	a, _ := setupAppTest(t, nil, WithNative(kerneltest.New()))

	r, err := a.Service().Run(a.Context(context.Background()), testutil.DrilledBlock())

	require.NoError(t, err)
	require.True(t, r.OK)
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"url":"/output/`)
	assert.Same(t, a.Orchestrator(), a.orch)
	assert.NotNil(t, a.Logger())
}

func TestNewLogger_Levels(t *testing.T) {
	t.Parallel()

	buf := &testutil.SafeBuffer{}
	logger := newLogger("warn", "json", buf)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf = &testutil.SafeBuffer{}
	newLogger("bogus", "text", buf).Info("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}

func TestRun_ExpandsDirectories(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	rec := kerneltest.New()
	a, _ := setupAppTest(t, nil, WithNative(rec))
	jsonPath, _, _ := writeJobFiles(t)
	dir := filepath.Dir(jsonPath)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a job"), 0o644))

	// --- Act ---
	results, err := a.Run(context.Background(), []string{dir}, nil)

	// --- Assert ---
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestExpandPaths_EmptyDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := ExpandPaths([]string{dir})

	assert.ErrorContains(t, err, "no job files found")
}
