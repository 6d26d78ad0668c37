package jobhcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/millgrid/internal/job"
	"github.com/vk/millgrid/internal/testutil"
	"github.com/vk/millgrid/internal/validate"
	"github.com/zclconf/go-cty/cty"
)

const drilledBlock = `
variable "height" {
  default = 20
}

stock "box" {
  p1 = 100
  p2 = 80
  p3 = var.height
}

feature "DRILL" {
  radius = 16 / 2
  depth  = 12
  axis {
    origin = [30, 20, var.height]
    dir    = [0, 0, -1]
    xdir   = [1, 0, 0]
  }
}

output {
  linear_deflection  = 0.1
  angular_deflection = 0.5
  dir                = "out"
  step_file          = "result.step"
  stl_file           = "result.stl"
  delta_step_file    = "delta.step"
  delta_stl_file     = "delta.stl"
}
`

func TestParse_DrilledBlockMatchesJSONFixture(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ctx, _ := testutil.LogContext(t)

	// --- Act ---
	j, err := Parse(ctx, []byte(drilledBlock), "drilled.hcl", nil)

	// --- Assert ---
	require.NoError(t, err)
	want := testutil.DrilledBlock()
	want.Stock.Type = "box"
	assert.Equal(t, want, j)
	assert.Empty(t, validate.Validate(j))
}

func TestParse_VariableOverride(t *testing.T) {
	t.Parallel()

	vars, err := ParseVars([]string{"height=35"})
	require.NoError(t, err)

	j, err := Parse(context.Background(), []byte(drilledBlock), "drilled.hcl", vars)

	require.NoError(t, err)
	assert.Equal(t, 35.0, j.Stock.P3)
	assert.Equal(t, []float64{30, 20, 35}, j.Features[0].Drill.Axis.Origin)
}

func TestParse_TurnProfileAndFunctions(t *testing.T) {
	t.Parallel()

	src := `
stock "CYLINDER" {
  p1 = 25
  p2 = 60
}

feature "turn_od" {
  profile = [
    { z = 0, radius = 20 },
    { z = 30, radius = max(15, 12) },
  ]
  target_diameter = floor(30.7)
  axis {
    origin = [0, 0, 0]
    dir    = [0, 0, 1]
    xdir   = [1, 0, 0]
  }
}

feature "TURN_ID" {
  profile = [{ z = 0, radius = 5 }, { z = 20, radius = 5 }]
  axis {
    origin = [0, 0, 0]
    dir    = [0, 0, 1]
    xdir   = [1, 0, 0]
  }
}

output {
  dir       = lower("OUT")
  step_file = format("%s.step", "shaft")
}
`
	j, err := Parse(context.Background(), []byte(src), "shaft.hcl", nil)

	require.NoError(t, err)
	assert.Equal(t, job.WorldAxis(), j.Stock.Axis, "stock axis defaults to world")
	require.Len(t, j.Features, 2)
	assert.Equal(t, "TURN_OD", j.Features[0].Type)
	od := j.Features[0].TurnOD
	require.NotNil(t, od)
	assert.Equal(t, []job.ProfilePoint{{Z: 0, Radius: 20}, {Z: 30, Radius: 15}}, od.Profile)
	require.NotNil(t, od.TargetDiameter)
	assert.Equal(t, 30.0, *od.TargetDiameter)
	assert.Nil(t, od.Length)
	assert.NotNil(t, j.Features[1].TurnID)
	assert.Equal(t, "out", j.Output.Dir)
	assert.Equal(t, "shaft.step", j.Output.StepFile)
}

func TestParse_UnknownFeaturePassesThroughToValidator(t *testing.T) {
	t.Parallel()

	src := `
stock "BOX" {
  p1 = 1
}
feature "KNURL" {}
output {}
`
	j, err := Parse(context.Background(), []byte(src), "knurl.hcl", nil)

	require.NoError(t, err)
	assert.Equal(t, []job.Feature{{Type: "KNURL"}}, j.Features)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		vars    map[string]cty.Value
		wantMsg string
	}{
		{
			name:    "syntax",
			src:     `stock "BOX" {`,
			wantMsg: "failed to parse HCL file",
		},
		{
			name:    "missing stock",
			src:     `output {}`,
			wantMsg: "failed to decode HCL file",
		},
		{
			name:    "drill without radius",
			src:     "stock \"BOX\" {\n p1 = 1\n}\nfeature \"DRILL\" {\n depth = 1\n}\noutput {}\n",
			wantMsg: `feature 0 (DRILL): attribute "radius" is required`,
		},
		{
			name:    "turn without profile",
			src:     "stock \"BOX\" {\n p1 = 1\n}\nfeature \"TURN_ID\" {}\noutput {}\n",
			wantMsg: `attribute "profile" is required`,
		},
		{
			name:    "undeclared override",
			src:     "stock \"BOX\" {\n p1 = 1\n}\noutput {}\n",
			vars:    map[string]cty.Value{"nope": cty.NumberIntVal(1)},
			wantMsg: `variable "nope" is not declared`,
		},
		{
			name:    "variable without value",
			src:     "variable \"h\" {}\nstock \"BOX\" {\n p1 = var.h\n}\noutput {}\n",
			wantMsg: `variable "h" has no value`,
		},
		{
			name:    "unknown variable reference",
			src:     "stock \"BOX\" {\n p1 = var.missing\n}\noutput {}\n",
			wantMsg: "failed to decode HCL file",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(context.Background(), []byte(tc.src), "bad.hcl", tc.vars)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "job.hcl")
	require.NoError(t, os.WriteFile(path, []byte(drilledBlock), 0o644))

	j, err := Load(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Len(t, j.Features, 1)

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "none.hcl"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseVars(t *testing.T) {
	t.Parallel()

	vars, err := ParseVars([]string{"a=1.5", "b=steel", "c="})
	require.NoError(t, err)
	a, _ := vars["a"].AsBigFloat().Float64()
	assert.Equal(t, 1.5, a)
	assert.Equal(t, cty.StringVal("steel"), vars["b"])
	assert.Equal(t, cty.StringVal(""), vars["c"])

	_, err = ParseVars([]string{"novalue"})
	assert.Error(t, err)
	_, err = ParseVars([]string{"=3"})
	assert.Error(t, err)
}
