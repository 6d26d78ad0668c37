package memkernel

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/millgrid/internal/geom"
	"github.com/vk/millgrid/internal/kernel"
	"github.com/vk/millgrid/internal/payload"
)

func stockBox(k *Kernel, h kernel.Handle) kernel.ShapeID {
	p := payload.EncodeStock(geom.Stock{Kind: geom.StockBox, P1: 100, P2: 80, P3: 20, Axis: geom.DefaultAxis})
	id, status := k.CreateStock(h, &p)
	if status != kernel.CodeOK {
		panic("stock failed")
	}
	return id
}

func TestKernel_ShapeIDsStartAtOneAndAreNotReused(t *testing.T) {
	t.Parallel()

	k := New()
	h := k.CreateKernel()
	require.NotZero(t, h)

	first := stockBox(k, h)
	assert.Equal(t, kernel.ShapeID(1), first)
	require.Equal(t, kernel.CodeOK, k.DeleteShape(h, first))
	assert.Equal(t, kernel.ShapeID(2), stockBox(k, h))

	assert.Equal(t, kernel.CodeShapeNotFound, k.DeleteShape(h, first))
	assert.Equal(t, kernel.CodeOK, k.DestroyKernel(h))
	assert.Equal(t, kernel.CodeInvalidArgument, k.DestroyKernel(h))
	assert.Zero(t, k.Live())
}

func TestKernel_ArgumentChecks(t *testing.T) {
	t.Parallel()

	down := geom.Axis{Origin: geom.Vec3{50, 40, 20}, Dir: geom.Vec3{0, 0, -1}, XDir: geom.Vec3{1, 0, 0}}
	pts := func(p ...geom.ProfilePoint) []geom.ProfilePoint { return p }
	d, l := 10.0, 0.0

	tests := []struct {
		name    string
		feature geom.Feature
		want    int32
	}{
		{"drill ok", geom.Drill{Radius: 4, Depth: 5, Axis: down}, kernel.CodeOK},
		{"drill zero radius", geom.Drill{Radius: 0, Depth: 5, Axis: down}, kernel.CodeInvalidArgument},
		{"drill negative depth", geom.Drill{Radius: 4, Depth: -1, Axis: down}, kernel.CodeInvalidArgument},
		{"drill null direction", geom.Drill{Radius: 4, Depth: 5, Axis: geom.Axis{XDir: geom.Vec3{1, 0, 0}}}, kernel.CodeOCCTException},
		{"pocket ok", geom.PocketRect{Width: 10, Height: 10, Depth: 3, Axis: down}, kernel.CodeOK},
		{"pocket zero height", geom.PocketRect{Width: 10, Height: 0, Depth: 3, Axis: down}, kernel.CodeInvalidArgument},
		{"turn ok", geom.TurnOD{TurnProfile: geom.TurnProfile{Profile: pts(geom.ProfilePoint{Z: 0, Radius: 5}, geom.ProfilePoint{Z: 10, Radius: 5}), Axis: geom.DefaultAxis}}, kernel.CodeOK},
		{"turn decreasing z", geom.TurnID{TurnProfile: geom.TurnProfile{Profile: pts(geom.ProfilePoint{Z: 10, Radius: 5}, geom.ProfilePoint{Z: 0, Radius: 5}), Axis: geom.DefaultAxis}}, kernel.CodeInvalidArgument},
		{"turn zero radius", geom.TurnOD{TurnProfile: geom.TurnProfile{Profile: pts(geom.ProfilePoint{Z: 0, Radius: 0}, geom.ProfilePoint{Z: 10, Radius: 5}), Axis: geom.DefaultAxis}}, kernel.CodeInvalidArgument},
		{"turn only flat segments", geom.TurnOD{TurnProfile: geom.TurnProfile{Profile: pts(geom.ProfilePoint{Z: 5, Radius: 5}, geom.ProfilePoint{Z: 5, Radius: 6}), Axis: geom.DefaultAxis}}, kernel.CodeInvalidArgument},
		{"single point turn uses overrides", geom.TurnOD{TurnProfile: geom.TurnProfile{Profile: pts(geom.ProfilePoint{Z: 0, Radius: 5}), Axis: geom.DefaultAxis, TargetDiameter: &d, Length: &l}}, kernel.CodeInvalidArgument},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			k := New()
			h := k.CreateKernel()
			stock := stockBox(k, h)
			p := payload.Encode(tc.feature)

			res, status := k.ApplyFeature(h, stock, &p)

			assert.Equal(t, tc.want, status)
			assert.Equal(t, tc.want, res.ErrorCode)
			if tc.want == kernel.CodeOK {
				assert.Equal(t, int32(2), res.ResultShapeID)
				assert.Equal(t, int32(3), res.DeltaShapeID)
			} else {
				assert.Equal(t, 1, k.Shapes(h), "failed feature creates nothing")
			}
		})
	}
}

func TestKernel_UnknownInputs(t *testing.T) {
	t.Parallel()

	k := New()
	h := k.CreateKernel()

	bad := payload.Stock{Type: 9, P1: 1, P2: 1, P3: 1}
	_, status := k.CreateStock(h, &bad)
	assert.Equal(t, kernel.CodeInvalidArgument, status)

	flat := payload.EncodeStock(geom.Stock{Kind: geom.StockBox, P1: 1, P2: 0, P3: 1})
	_, status = k.CreateStock(h, &flat)
	assert.Equal(t, kernel.CodeOCCTException, status)

	var f payload.Feature
	f.Type = 42
	stock := stockBox(k, h)
	_, status = k.ApplyFeature(h, stock, &f)
	assert.Equal(t, kernel.CodeFeatureNotSupported, status)

	drill := payload.Encode(geom.Drill{Radius: 1, Depth: 1, Axis: geom.DefaultAxis})
	_, status = k.ApplyFeature(h, 99, &drill)
	assert.Equal(t, kernel.CodeShapeNotFound, status)

	opts := payload.OutputOptions{Format: 3}
	assert.Equal(t, kernel.CodeInvalidArgument, k.ExportShape(h, stock, &opts, filepath.Join(t.TempDir(), "x")))
	opts.Format = int32(geom.FormatSTEP)
	assert.Equal(t, kernel.CodeShapeNotFound, k.ExportShape(h, 99, &opts, filepath.Join(t.TempDir(), "x")))
	assert.Equal(t, kernel.CodeExportFailed, k.ExportShape(h, stock, &opts, filepath.Join(t.TempDir(), "missing", "x.step")))
}

func TestKernel_ThroughSession(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ctx := context.Background()
	k := New()
	dir := t.TempDir()
	s, err := kernel.Open(ctx, k)
	require.NoError(t, err)

	// --- Act ---
	stock, err := s.CreateStock(ctx, geom.Stock{Kind: geom.StockCylinder, P1: 25, P2: 60, Axis: geom.DefaultAxis})
	require.NoError(t, err)
	results, err := s.ApplyFeatures(ctx, stock, []geom.Feature{
		geom.TurnOD{TurnProfile: geom.TurnProfile{
			Profile: []geom.ProfilePoint{{Z: 0, Radius: 20}, {Z: 30, Radius: 20}, {Z: 30, Radius: 15}, {Z: 60, Radius: 15}},
			Axis:    geom.DefaultAxis,
		}},
		geom.Drill{Radius: 3, Depth: 10, Axis: geom.Axis{Origin: geom.Vec3{0, 0, 60}, Dir: geom.Vec3{0, 0, -1}, XDir: geom.Vec3{1, 0, 0}}},
	})
	require.NoError(t, err)
	last := results[len(results)-1]
	stepPath := filepath.Join(dir, "result.step")
	stlPath := filepath.Join(dir, "delta.stl")
	require.NoError(t, s.ExportShape(ctx, last.Result, geom.OutputOptions{Format: geom.FormatSTEP}, stepPath))
	require.NoError(t, s.ExportShape(ctx, last.Delta, geom.OutputOptions{Format: geom.FormatSTL, LinearDeflection: 0.1}, stlPath))
	s.Dispose(ctx)

	// --- Assert ---
	assert.Zero(t, k.Live())

	step, err := os.ReadFile(stepPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(step), "ISO-10303-21;"))
	assert.Contains(t, string(step), "CARTESIAN_POINT('',(-25,-25,0))")

	stl, err := os.ReadFile(stlPath)
	require.NoError(t, err)
	assert.Equal(t, 12, strings.Count(string(stl), "facet normal"))
	// The drill delta is clipped to the stock: radius 3 around the axis, top 10mm.
	assert.Contains(t, string(stl), "vertex -3 -3 50")
	assert.Contains(t, string(stl), "vertex 3 3 60")
}

func TestKernel_TurnToolsFollowTheirKind(t *testing.T) {
	t.Parallel()

	centre := geom.Axis{Origin: geom.Vec3{5, 5, 0}, Dir: geom.Vec3{0, 0, 1}, XDir: geom.Vec3{1, 0, 0}}
	flat := func(r float64) geom.TurnProfile {
		return geom.TurnProfile{Profile: []geom.ProfilePoint{{Z: 0, Radius: r}, {Z: 5, Radius: r}}, Axis: centre}
	}
	overrides := func(d float64) geom.TurnProfile {
		l := 5.0
		return geom.TurnProfile{Profile: []geom.ProfilePoint{{Z: 0, Radius: 1}}, Axis: centre, TargetDiameter: &d, Length: &l}
	}
	whole := box{Max: vec{10, 10, 5}}
	core := box{Min: vec{3, 3, 0}, Max: vec{7, 7, 5}}

	tests := []struct {
		name      string
		feature   geom.Feature
		want      int32
		wantDelta box
	}{
		{"bore wider than the stock", geom.TurnID{TurnProfile: flat(100)}, kernel.CodeOK, whole},
		{"bore inside the stock", geom.TurnID{TurnProfile: flat(2)}, kernel.CodeOK, core},
		{"bore from overrides", geom.TurnID{TurnProfile: overrides(4)}, kernel.CodeOK, core},
		{"outer turn at the outer radius", geom.TurnOD{TurnProfile: flat(100)}, kernel.CodeInvalidArgument, box{}},
		{"outer turn inside the stock", geom.TurnOD{TurnProfile: flat(2)}, kernel.CodeOK, whole},
		{"outer turn from overrides", geom.TurnOD{TurnProfile: overrides(4)}, kernel.CodeOK, whole},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			k := New()
			h := k.CreateKernel()
			cube := payload.EncodeStock(geom.Stock{Kind: geom.StockBox, P1: 10, P2: 10, P3: 10, Axis: geom.DefaultAxis})
			stock, status := k.CreateStock(h, &cube)
			require.Equal(t, kernel.CodeOK, status)
			p := payload.Encode(tc.feature)

			// --- Act ---
			res, status := k.ApplyFeature(h, stock, &p)

			// --- Assert ---
			require.Equal(t, tc.want, status)
			if tc.want != kernel.CodeOK {
				return
			}
			delta := k.instances[h].shapes[kernel.ShapeID(res.DeltaShapeID)]
			for i := 0; i < 3; i++ {
				assert.InDelta(t, tc.wantDelta.Min[i], delta.Min[i], 1e-9, "min[%d]", i)
				assert.InDelta(t, tc.wantDelta.Max[i], delta.Max[i], 1e-9, "max[%d]", i)
			}
		})
	}
}
