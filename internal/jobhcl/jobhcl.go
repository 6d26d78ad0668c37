// Package jobhcl reads machining jobs written in HCL.
//
// A job file has one stock block, any number of feature blocks applied in
// source order, and one output block:
//
//	variable "height" { default = 20 }
//
//	stock "BOX" {
//	  p1 = 100
//	  p2 = 80
//	  p3 = var.height
//	}
//
//	feature "DRILL" {
//	  radius = 8
//	  depth  = 12
//	  axis {
//	    origin = [30, 20, var.height]
//	    dir    = [0, 0, -1]
//	    xdir   = [1, 0, 0]
//	  }
//	}
//
//	output {
//	  dir             = "out"
//	  step_file       = "result.step"
//	  stl_file        = "result.stl"
//	  delta_step_file = "delta.step"
//	  delta_stl_file  = "delta.stl"
//	}
//
// Expressions may reference var.<name> and call a small set of numeric and
// string functions. The result is a job.Job; semantic checks are left to the
// validator.
package jobhcl

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/millgrid/internal/ctxlog"
	"github.com/vk/millgrid/internal/job"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Load reads and decodes the HCL job at path.
func Load(ctx context.Context, path string, vars map[string]cty.Value) (*job.Job, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	return Parse(ctx, src, path, vars)
}

// Parse decodes an HCL job. filename is used in diagnostics only. vars
// override the defaults of declared variables; assigning an undeclared
// variable is an error.
func Parse(ctx context.Context, src []byte, filename string, vars map[string]cty.Value) (*job.Job, error) {
	logger := ctxlog.FromContext(ctx)

	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, functionsOnly(), &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	evalCtx, err := newEvalContext(root.Variables, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, err)
	}

	var body jobBody
	if diags := gohcl.DecodeBody(root.Remain, evalCtx, &body); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	j, err := body.toJob()
	if err != nil {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, err)
	}
	logger.Debug("HCL job decoded.", "file", filename, "features", len(j.Features), "variables", len(root.Variables))
	return j, nil
}

// fileRoot separates variable declarations from the rest of the file so they
// can be evaluated first.
type fileRoot struct {
	Variables []*variableBlock `hcl:"variable,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

type variableBlock struct {
	Name    string    `hcl:"name,label"`
	Default cty.Value `hcl:"default,optional"`
}

var functions = map[string]function.Function{
	"abs":    stdlib.AbsoluteFunc,
	"ceil":   stdlib.CeilFunc,
	"floor":  stdlib.FloorFunc,
	"max":    stdlib.MaxFunc,
	"min":    stdlib.MinFunc,
	"format": stdlib.FormatFunc,
	"lower":  stdlib.LowerFunc,
	"upper":  stdlib.UpperFunc,
}

func functionsOnly() *hcl.EvalContext {
	return &hcl.EvalContext{Functions: functions}
}

func newEvalContext(decls []*variableBlock, overrides map[string]cty.Value) (*hcl.EvalContext, error) {
	values := make(map[string]cty.Value, len(decls))
	for _, v := range decls {
		if _, dup := values[v.Name]; dup {
			return nil, fmt.Errorf("variable %q is declared more than once", v.Name)
		}
		values[v.Name] = v.Default
	}
	for name, val := range overrides {
		if _, ok := values[name]; !ok {
			return nil, fmt.Errorf("variable %q is not declared", name)
		}
		values[name] = val
	}
	for name, val := range values {
		if val.IsNull() {
			return nil, fmt.Errorf("variable %q has no value", name)
		}
	}

	ctx := functionsOnly()
	ctx.Variables = map[string]cty.Value{"var": cty.ObjectVal(values)}
	return ctx, nil
}

// ParseVars turns name=value assignments into variable values. Values that
// parse as numbers become numbers; everything else is a string.
func ParseVars(assignments []string) (map[string]cty.Value, error) {
	out := make(map[string]cty.Value, len(assignments))
	for _, a := range assignments {
		name, raw, ok := strings.Cut(a, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variable assignment %q, expected name=value", a)
		}
		if n, err := cty.ParseNumberVal(strings.TrimSpace(raw)); err == nil {
			out[name] = n
			continue
		}
		out[name] = cty.StringVal(raw)
	}
	return out, nil
}
