package job_test

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/millgrid/internal/job"
	"github.com/vk/millgrid/internal/testutil"
)

func TestParse_RoundTrip(t *testing.T) {
	t.Parallel()

	diameter := 30.0
	shaft := testutil.TurnedShaft()
	shaft.Features[0].TurnOD.TargetDiameter = &diameter
	shaft.Output.Parallel = true

	for name, j := range map[string]*job.Job{
		"drilled block": testutil.DrilledBlock(),
		"turned shaft":  shaft,
		"pocket chain":  testutil.Chain(3),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			for _, pretty := range []bool{true, false} {
				data, err := job.Serialize(j, pretty)
				require.NoError(t, err)

				got, err := job.Parse(data)
				require.NoError(t, err)
				assert.Equal(t, j, got)
			}
		})
	}
}

func TestParse_CanonicalizesKnownTags(t *testing.T) {
	t.Parallel()

	doc := `{
		"stock": {"type": "box", "p1": 1, "p2": 2, "p3": 3, "axis": {"origin": [0,0,0], "dir": [0,0,1], "xdir": [1,0,0]}},
		"features": [{"type": "pocket_rect", "pocketRect": {"width": 1, "height": 1, "depth": 1}}, {"type": "mill"}],
		"output": {"parallel": 1, "dir": "out"}
	}`

	j, err := job.Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "BOX", j.Stock.Type)
	assert.Equal(t, "POCKET_RECT", j.Features[0].Type)
	assert.Equal(t, "mill", j.Features[1].Type, "unknown tags are kept for the validator")
	assert.Nil(t, j.Features[0].PocketRect.Axis)
	assert.True(t, bool(j.Output.Parallel))
}

func TestParse_PaddedTagsAreKeptVerbatim(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	doc := `{
		"stock": {"type": " Box ", "p1": 1, "p2": 2, "p3": 3, "axis": {"origin": [0,0,0], "dir": [0,0,1], "xdir": [1,0,0]}},
		"features": [{"type": "drill "}],
		"output": {"dir": "out"}
	}`

	// --- Act ---
	j, err := job.Parse([]byte(doc))
	require.NoError(t, err)
	data, err := job.Serialize(j, false)
	require.NoError(t, err)
	again, err := job.Parse(data)
	require.NoError(t, err)

	// --- Assert ---
	assert.Equal(t, " Box ", j.Stock.Type)
	assert.Equal(t, "drill ", j.Features[0].Type)
	assert.Equal(t, j, again)
}

func TestNonFinite_ListsPathsInDocumentOrder(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	j := testutil.TurnedShaft()
	diameter := math.NaN()
	j.Features[0].TurnOD.TargetDiameter = &diameter
	j.Features[0].TurnOD.Profile[1].Radius = math.Inf(1)
	j.Stock.Axis.XDir[2] = math.Inf(-1)

	// --- Act ---
	bad := job.NonFinite(j)
	_, serr := job.Serialize(j, false)

	// --- Assert ---
	assert.Equal(t, []string{
		"stock.axis.xdir[2]",
		"features[0].turnOd.profile[1].radius",
		"features[0].turnOd.targetDiameter",
	}, bad)
	assert.Error(t, serr)
	assert.Empty(t, job.NonFinite(testutil.TurnedShaft()))
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		path string
		is   error
	}{
		{"empty", "   ", "", job.ErrEmptyDocument},
		{"not json", "{stock", "", nil},
		{"missing stock", `{"features": [], "output": {}}`, "stock", job.ErrMissingField},
		{"null output", `{"stock": {"type": "BOX"}, "features": [], "output": null}`, "output", job.ErrMissingField},
		{"missing stock type", `{"stock": {"p1": 1}, "features": [], "output": {}}`, "stock.type", job.ErrMissingField},
		{"missing feature type", `{"stock": {"type": "BOX"}, "features": [{"type": "DRILL"}, {}], "output": {}}`, "features[1].type", job.ErrMissingField},
		{"features not a list", `{"stock": {"type": "BOX"}, "features": {}, "output": {}}`, "features", nil},
		{"bad parallel", `{"stock": {"type": "BOX"}, "features": [], "output": {"parallel": 2}}`, "", nil},
		{"wrong field type", `{"stock": {"type": "BOX", "p1": "wide"}, "features": [], "output": {}}`, "stock.p1", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			j, err := job.Parse([]byte(tc.doc))

			require.Error(t, err)
			assert.Nil(t, j)
			var pe *job.ParseError
			require.ErrorAs(t, err, &pe)
			if tc.path != "" {
				assert.Equal(t, tc.path, pe.Path)
			}
			if tc.is != nil {
				assert.ErrorIs(t, err, tc.is)
			}
		})
	}
}

func TestSerialize_CanonicalTagsAndEmptyFeatures(t *testing.T) {
	t.Parallel()

	j := job.New(job.Defaults{Stock: &job.Stock{Type: "cylinder", P1: 5, P2: 10}})

	data, err := job.Serialize(j, false)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"type":"CYLINDER"`)
	assert.Contains(t, string(data), `"features":[]`)
	assert.Contains(t, string(data), `"parallel":false`)
}

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "jobs", "block.json")
	want := testutil.DrilledBlock()

	// --- Act ---
	err := job.Save(path, want, job.SaveOptions{Pretty: true, EnsureDir: true})
	require.NoError(t, err)
	got, loadErr := job.Load(path)

	// --- Assert ---
	require.NoError(t, loadErr)
	assert.Equal(t, want, got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"stock\"")
}

func TestSave_WithoutEnsureDirFails(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "block.json")

	err := job.Save(path, testutil.DrilledBlock(), job.SaveOptions{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := job.Load(filepath.Join(t.TempDir(), "nope.json"))

	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
